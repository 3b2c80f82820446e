package worker_test

import (
	"context"
	"testing"

	"github.com/Bilal292/livedraw/mq"
	mqmocks "github.com/Bilal292/livedraw/mq/mocks"
	"github.com/Bilal292/livedraw/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockDepositor struct {
	mock.Mock
}

func (m *mockDepositor) Deposit(ctx context.Context, userId string, provider string, providerId string, amount int) error {
	args := m.Called(ctx, userId, provider, providerId, amount)
	return args.Error(0)
}

// runConsumerToDrain runs the consumer until the queue mock reports
// context.Canceled, which ends the loop.
func runConsumerToDrain(mockMQ *mqmocks.MockMQ, depositor *mockDepositor) {
	mockMQ.On("Receive", mock.Anything, mock.Anything).Return(nil, context.Canceled)
	consumer := worker.NewTopUpConsumer(mockMQ, depositor)
	consumer.Run(context.Background())
}

func TestTopUpConsumer_AppliesAndDeletes(t *testing.T) {
	mockMQ := new(mqmocks.MockMQ)
	depositor := new(mockDepositor)

	msg := &mq.Message{Id: "m1", Body: `{"userId":"user1","provider":"github","providerId":"gh123","ink":500}`}
	mockMQ.On("Receive", mock.Anything, mock.Anything).Return(msg, nil).Once()
	depositor.On("Deposit", mock.Anything, "user1", "github", "gh123", 500).Return(nil)
	mockMQ.On("Delete", mock.Anything, msg).Return(nil)

	runConsumerToDrain(mockMQ, depositor)

	depositor.AssertExpectations(t)
	mockMQ.AssertCalled(t, "Delete", mock.Anything, msg)
}

func TestTopUpConsumer_DropsMalformedMessage(t *testing.T) {
	mockMQ := new(mqmocks.MockMQ)
	depositor := new(mockDepositor)

	msg := &mq.Message{Id: "m1", Body: `{not json`}
	mockMQ.On("Receive", mock.Anything, mock.Anything).Return(msg, nil).Once()
	mockMQ.On("Delete", mock.Anything, msg).Return(nil)

	runConsumerToDrain(mockMQ, depositor)

	depositor.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockMQ.AssertCalled(t, "Delete", mock.Anything, msg)
}

func TestTopUpConsumer_DropsNegativeTopUp(t *testing.T) {
	mockMQ := new(mqmocks.MockMQ)
	depositor := new(mockDepositor)

	msg := &mq.Message{Id: "m1", Body: `{"userId":"user1","provider":"github","providerId":"gh123","ink":-100}`}
	mockMQ.On("Receive", mock.Anything, mock.Anything).Return(msg, nil).Once()
	mockMQ.On("Delete", mock.Anything, msg).Return(nil)

	runConsumerToDrain(mockMQ, depositor)

	depositor.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockMQ.AssertCalled(t, "Delete", mock.Anything, msg)
}

func TestTopUpConsumer_LeavesMessageOnDepositFailure(t *testing.T) {
	mockMQ := new(mqmocks.MockMQ)
	depositor := new(mockDepositor)

	msg := &mq.Message{Id: "m1", Body: `{"userId":"user1","provider":"github","providerId":"gh123","ink":500}`}
	mockMQ.On("Receive", mock.Anything, mock.Anything).Return(msg, nil).Once()
	depositor.On("Deposit", mock.Anything, "user1", "github", "gh123", 500).Return(assert.AnError)

	runConsumerToDrain(mockMQ, depositor)

	// The message stays on the queue to become visible again
	mockMQ.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
