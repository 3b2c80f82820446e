package store

import (
	"context"
	"errors"

	"github.com/Bilal292/livedraw/models"
)

type LivedrawStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, provider string, providerId string) (models.User, error)

	// AddInk atomically adds amount (may be negative) to the user's ink
	// balance. Fails if the user does not exist.
	AddInk(ctx context.Context, provider string, providerId string, amount int) error

	// ClaimInk atomically grants ink and records the claim time in one update.
	ClaimInk(ctx context.Context, provider string, providerId string, grant int, claimTime int64) error

	CreateDrawing(ctx context.Context, drawing models.Drawing) error
	// GetDrawingsPage returns drawings in submission order. Pages are numbered
	// from 1; hasNext reports whether another page exists.
	GetDrawingsPage(ctx context.Context, page int, pageSize int) ([]models.Drawing, bool, error)
}

var ErrItemNotFound = errors.New("item does not exist")
