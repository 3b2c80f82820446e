package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Bilal292/livedraw/models"
	"github.com/gofrs/uuid/v5"
)

// DrawingChannel is the pub/sub channel every hub subscribes to. Publishing
// an accepted drawing here is what broadcasts it to all connected clients.
const DrawingChannel = "drawing"

var (
	ErrNoInk      = errors.New("no ink left")
	ErrSaveFailed = errors.New("failed to save drawing")
)

// SubmitDrawing runs a stroke through the quota, persists it, and only then
// broadcasts it. The append-before-publish order guarantees that a history
// replay is always a superset of what live members saw. On ErrSaveFailed the
// consumed unit has been refunded and nothing was broadcast.
func (s *Service) SubmitDrawing(ctx context.Context, user models.User, payload []byte) (string, error) {
	ok, err := s.Ledger.TryConsume(ctx, user)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoInk
	}

	drawingUUID, err := uuid.NewV7()
	if err != nil {
		s.Ledger.Refund(ctx, user)
		return "", err
	}
	drawingId := drawingUUID.String()

	if err := s.Store.CreateDrawing(ctx, models.Drawing{Id: drawingId, Data: payload}); err != nil {
		s.Ledger.Refund(ctx, user)
		return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	// Best-effort: the drawing is stored either way, history replay covers it
	if err := s.Cache.Publish(ctx, DrawingChannel, payload); err != nil {
		log.Printf("Drawing %s stored but not broadcast: %v", drawingId, err)
	}

	return drawingId, nil
}
