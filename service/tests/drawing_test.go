package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Bilal292/livedraw/models"
	"github.com/Bilal292/livedraw/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSubmitDrawing_Success(t *testing.T) {
	svc, mockStore, mockCache, _, inkBatcher := setupService(t)
	ctx := context.Background()

	user := storedUser(10, 0)
	payload := []byte(`{"type":"stroke","points":[[0,0],[5,5]],"color":"#000000"}`)

	mockStore.On("GetUser", ctx, user.Provider, user.ProviderId).Return(user, nil)
	mockStore.On("CreateDrawing", ctx, mock.MatchedBy(func(d models.Drawing) bool {
		return d.Id != "" && string(d.Data) == string(payload)
	})).Return(nil)
	mockCache.On("Publish", ctx, service.DrawingChannel, payload).Return(nil)

	drawingId, err := svc.SubmitDrawing(ctx, user, payload)
	assert.NoError(t, err)
	assert.NotEmpty(t, drawingId)

	balance, err := svc.Ledger.Balance(ctx, user)
	assert.NoError(t, err)
	assert.Equal(t, 9, balance)

	// One consumption delta, no refund
	select {
	case delta := <-inkBatcher.UpdateCh:
		assert.Equal(t, -1, delta.Delta)
	case <-time.After(100 * time.Millisecond):
		assert.Fail(t, "timed out waiting for consumption delta")
	}

	mockStore.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestSubmitDrawing_NoInk(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()

	user := storedUser(0, 0)
	mockStore.On("GetUser", ctx, user.Provider, user.ProviderId).Return(user, nil)

	_, err := svc.SubmitDrawing(ctx, user, []byte(`{"type":"stroke"}`))
	assert.ErrorIs(t, err, service.ErrNoInk)

	// Nothing stored, nothing broadcast
	mockStore.AssertNotCalled(t, "CreateDrawing", mock.Anything, mock.Anything)
	mockCache.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitDrawing_StoreFailureRefunds(t *testing.T) {
	svc, mockStore, mockCache, _, inkBatcher := setupService(t)
	ctx := context.Background()

	user := storedUser(5, 0)
	mockStore.On("GetUser", ctx, user.Provider, user.ProviderId).Return(user, nil)
	mockStore.On("CreateDrawing", ctx, mock.Anything).Return(errors.New("dynamodb unavailable"))

	_, err := svc.SubmitDrawing(ctx, user, []byte(`{"type":"stroke"}`))
	assert.ErrorIs(t, err, service.ErrSaveFailed)

	// The consumed unit came back and nothing was broadcast
	balance, err := svc.Ledger.Balance(ctx, user)
	assert.NoError(t, err)
	assert.Equal(t, 5, balance)
	mockCache.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)

	// Consumption delta followed by the refund delta
	<-inkBatcher.UpdateCh
	select {
	case delta := <-inkBatcher.UpdateCh:
		assert.Equal(t, 1, delta.Delta)
	case <-time.After(100 * time.Millisecond):
		assert.Fail(t, "timed out waiting for refund delta")
	}
}

func TestSubmitDrawing_PublishFailureStillSucceeds(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()

	user := storedUser(5, 0)
	payload := []byte(`{"type":"stroke"}`)
	mockStore.On("GetUser", ctx, user.Provider, user.ProviderId).Return(user, nil)
	mockStore.On("CreateDrawing", ctx, mock.Anything).Return(nil)
	mockCache.On("Publish", ctx, service.DrawingChannel, payload).Return(errors.New("pubsub failed"))

	drawingId, err := svc.SubmitDrawing(ctx, user, payload)

	// The drawing is stored; history replay covers the missed broadcast
	assert.NoError(t, err)
	assert.NotEmpty(t, drawingId)

	balance, err := svc.Ledger.Balance(ctx, user)
	assert.NoError(t, err)
	assert.Equal(t, 4, balance)
}

// Two connections of the same user racing for the last unit: exactly one
// drawing is accepted.
func TestSubmitDrawing_LastUnitRace(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()

	user := storedUser(1, 0)
	mockStore.On("GetUser", ctx, user.Provider, user.ProviderId).Return(user, nil)
	mockStore.On("CreateDrawing", ctx, mock.Anything).Return(nil)
	mockCache.On("Publish", ctx, service.DrawingChannel, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitDrawing(ctx, user, []byte(`{"type":"stroke"}`))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	accepted, refused := 0, 0
	for err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, service.ErrNoInk)
			refused++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, refused)

	mockStore.AssertNumberOfCalls(t, "CreateDrawing", 1)
}

func TestSubmitDrawing_IdsAreTimeOrdered(t *testing.T) {
	svc, mockStore, mockCache, _, _ := setupService(t)
	ctx := context.Background()

	user := storedUser(10, 0)
	mockStore.On("GetUser", ctx, user.Provider, user.ProviderId).Return(user, nil)
	mockStore.On("CreateDrawing", ctx, mock.Anything).Return(nil)
	mockCache.On("Publish", ctx, service.DrawingChannel, mock.Anything).Return(nil)

	first, err := svc.SubmitDrawing(ctx, user, []byte(`{"n":1}`))
	assert.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.SubmitDrawing(ctx, user, []byte(`{"n":2}`))
	assert.NoError(t, err)

	// UUIDv7 sort keys keep the store in submission order
	assert.Less(t, first, second)
}
