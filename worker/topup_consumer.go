package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Bilal292/livedraw/mq"
)

// InkTopUpMessage is enqueued by the payment service once a checkout has
// settled. The core treats it as an opaque external balance increment.
type InkTopUpMessage struct {
	UserId     string `json:"userId"`
	Provider   string `json:"provider"`
	ProviderId string `json:"providerId"`
	Ink        int    `json:"ink"`
}

// InkDepositor applies an external top-up to a user's balance.
// *service.InkLedger satisfies this.
type InkDepositor interface {
	Deposit(ctx context.Context, userId string, provider string, providerId string, amount int) error
}

type TopUpConsumer struct {
	topUpQueue mq.MessageQueue
	ledger     InkDepositor
}

func NewTopUpConsumer(topUpQueue mq.MessageQueue, ledger InkDepositor) *TopUpConsumer {
	return &TopUpConsumer{
		topUpQueue: topUpQueue,
		ledger:     ledger,
	}
}

const visibilityTimeout = 30

func (c *TopUpConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := c.topUpQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("Top-up consumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var topUp InkTopUpMessage
		if err := json.Unmarshal([]byte(msg.Body), &topUp); err != nil {
			log.Printf("Invalid top-up message, dropping: %v", err)
			c.topUpQueue.Delete(context.Background(), msg)
			continue
		}

		if topUp.Ink < 0 {
			log.Printf("Negative top-up for user %s, dropping", topUp.UserId)
			c.topUpQueue.Delete(context.Background(), msg)
			continue
		}

		// timeout should be a little less than queue visibility timeout
		ctx, cancel := context.WithTimeout(context.Background(), (visibilityTimeout-1)*time.Second)
		err = c.ledger.Deposit(ctx, topUp.UserId, topUp.Provider, topUp.ProviderId, topUp.Ink)
		cancel()

		if err != nil {
			// Leave the message; it becomes visible again after the timeout
			log.Printf("Failed to apply top-up for user %s: %v", topUp.UserId, err)
			continue
		}

		if err := c.topUpQueue.Delete(context.Background(), msg); err != nil {
			log.Printf("Top-up consumer delete error: %v", err)
		}
	}
}
