package worker

import (
	"context"
	"log"
	"time"

	"github.com/Bilal292/livedraw/store"
)

// InkDelta is one balance change to persist. The ledger is the source of
// truth for live balances; this worker only keeps DynamoDB in step with it.
type InkDelta struct {
	Provider   string
	ProviderId string
	Delta      int
}

type InkBatcher struct {
	UpdateCh           chan InkDelta
	livedrawStore      store.LivedrawStore
	tickerMilliseconds int
}

func NewInkBatcher(livedrawStore store.LivedrawStore, tickerMilliseconds int) *InkBatcher {
	return &InkBatcher{
		UpdateCh:           make(chan InkDelta, 1024), // buffer to absorb bursts
		livedrawStore:      livedrawStore,
		tickerMilliseconds: tickerMilliseconds,
	}
}

func (b *InkBatcher) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(time.Duration(b.tickerMilliseconds) * time.Millisecond)
	defer ticker.Stop()

	// Key: "provider#providerId" -> summed delta
	userDeltas := make(map[string]int)
	type providerKeys struct {
		p  string
		id string
	}
	userKeys := make(map[string]providerKeys)

	flush := func() {
		for key, delta := range userDeltas {
			if delta == 0 {
				continue
			}
			pk := userKeys[key]
			go func(p string, pid string, d int) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := b.livedrawStore.AddInk(ctx, p, pid, d); err != nil {
					log.Printf("Failed to persist ink delta for user %s#%s: %v", p, pid, err)
				}
			}(pk.p, pk.id, delta)
		}
		userDeltas = make(map[string]int)
		userKeys = make(map[string]providerKeys)
	}

	for {
		select {
		case update := <-b.UpdateCh:
			if update.Provider != "" && update.ProviderId != "" {
				key := update.Provider + "#" + update.ProviderId
				userDeltas[key] += update.Delta
				userKeys[key] = providerKeys{p: update.Provider, id: update.ProviderId}
			}

			if len(userDeltas) >= 100 {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-shutdownCtx.Done():
			flush()
			return
		}
	}
}
