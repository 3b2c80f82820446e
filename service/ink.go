package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Bilal292/livedraw/models"
	"github.com/Bilal292/livedraw/store"
	"github.com/Bilal292/livedraw/worker"
)

const (
	// Starting balance for a freshly created account
	DefaultInk = 200
	// Units granted by a successful claim
	ClaimGrant = 200
	// Minimum time between claims
	ClaimCooldown = 8 * time.Hour
)

// InkLedger owns all live ink balances. Every path that touches a balance
// (drawing, claiming, payment top-ups) goes through it, keyed by user id,
// so concurrent connections of the same user see one consistent account.
// Check-then-decrement happens under the account's mutex; the balance can
// never go negative. Durable state is kept in step via delta writes: the
// batcher flushes consumption and claims/top-ups write through immediately.
type InkLedger struct {
	mu       sync.RWMutex
	accounts map[string]*inkAccount

	store   store.LivedrawStore
	batcher *worker.InkBatcher
}

type inkAccount struct {
	mu            sync.Mutex
	provider      string
	providerId    string
	ink           int
	lastClaimTime int64 // unix seconds, 0 = never claimed
}

func NewInkLedger(livedrawStore store.LivedrawStore, batcher *worker.InkBatcher) *InkLedger {
	return &InkLedger{
		accounts: make(map[string]*inkAccount),
		store:    livedrawStore,
		batcher:  batcher,
	}
}

// account returns the live account for the user, loading it from the store
// on first reference. A user without a stored profile gets one created with
// the default balance.
func (l *InkLedger) account(ctx context.Context, user models.User) (*inkAccount, error) {
	l.mu.RLock()
	acct, ok := l.accounts[user.Id]
	l.mu.RUnlock()
	if ok {
		return acct, nil
	}

	// Load outside the map lock; racing loaders are resolved below
	stored, err := l.store.GetUser(ctx, user.Provider, user.ProviderId)
	if err == store.ErrItemNotFound {
		stored, err = l.store.CreateUser(ctx, models.User{
			Username:   user.Username,
			Provider:   user.Provider,
			ProviderId: user.ProviderId,
			Ink:        DefaultInk,
		})
	}
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[user.Id]; ok {
		return acct, nil
	}
	acct = &inkAccount{
		provider:      stored.Provider,
		providerId:    stored.ProviderId,
		ink:           stored.Ink,
		lastClaimTime: stored.LastClaimTime,
	}
	l.accounts[user.Id] = acct
	return acct, nil
}

// TryConsume spends one unit of the user's ink. It reports false with a nil
// error when the balance is exhausted.
func (l *InkLedger) TryConsume(ctx context.Context, user models.User) (bool, error) {
	acct, err := l.account(ctx, user)
	if err != nil {
		return false, err
	}

	acct.mu.Lock()
	if acct.ink <= 0 {
		acct.mu.Unlock()
		return false, nil
	}
	acct.ink--
	acct.mu.Unlock()

	l.batcher.UpdateCh <- worker.InkDelta{Provider: acct.provider, ProviderId: acct.providerId, Delta: -1}
	return true, nil
}

// Refund returns one unit after a stroke that consumed ink could not be
// persisted. Nothing was stored or broadcast, so the user gets it back.
func (l *InkLedger) Refund(ctx context.Context, user models.User) {
	acct, err := l.account(ctx, user)
	if err != nil {
		log.Printf("Dropping ink refund for user %s: %v", user.Id, err)
		return
	}

	acct.mu.Lock()
	acct.ink++
	acct.mu.Unlock()

	l.batcher.UpdateCh <- worker.InkDelta{Provider: acct.provider, ProviderId: acct.providerId, Delta: 1}
}

// Balance returns the user's current ink balance.
func (l *InkLedger) Balance(ctx context.Context, user models.User) (int, error) {
	acct, err := l.account(ctx, user)
	if err != nil {
		return 0, err
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.ink, nil
}

type ClaimResult struct {
	Success   bool
	Ink       int
	NextClaim time.Time
}

// Claim grants ClaimGrant units if the cooldown has elapsed (or the user has
// never claimed). On cooldown it reports failure with the next eligible time
// and mutates nothing. A successful claim is persisted before it is applied,
// so a store failure leaves the balance untouched.
func (l *InkLedger) Claim(ctx context.Context, user models.User) (ClaimResult, error) {
	acct, err := l.account(ctx, user)
	if err != nil {
		return ClaimResult{}, err
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	now := time.Now()
	if acct.lastClaimTime != 0 {
		nextClaim := time.Unix(acct.lastClaimTime, 0).Add(ClaimCooldown)
		if now.Before(nextClaim) {
			return ClaimResult{Success: false, Ink: acct.ink, NextClaim: nextClaim}, nil
		}
	}

	if err := l.store.ClaimInk(ctx, acct.provider, acct.providerId, ClaimGrant, now.Unix()); err != nil {
		return ClaimResult{}, err
	}

	acct.ink += ClaimGrant
	acct.lastClaimTime = now.Unix()
	return ClaimResult{Success: true, Ink: acct.ink, NextClaim: now.Add(ClaimCooldown)}, nil
}

// Deposit applies an external top-up (payment fulfillment). The account is
// loaded before the durable increment and both sides move under the account
// mutex, so a load racing the deposit resolves to the same account and can
// neither apply the increment twice nor lose it. A store failure leaves the
// live balance untouched.
func (l *InkLedger) Deposit(ctx context.Context, userId string, provider string, providerId string, amount int) error {
	if amount <= 0 {
		return nil
	}

	acct, err := l.account(ctx, models.User{Id: userId, Provider: provider, ProviderId: providerId})
	if err != nil {
		return err
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	if err := l.store.AddInk(ctx, provider, providerId, amount); err != nil {
		return err
	}
	acct.ink += amount

	return nil
}
