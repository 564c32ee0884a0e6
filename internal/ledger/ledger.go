// Package ledger keeps the per-user running total of stored bytes and enforces
// model.StorageLimit on every admission.
package ledger

import (
	"context"
	"fmt"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/UnendingLoop/PhotoBlur/internal/mwlogger"
)

// AccountStore - контракт хранилища аккаунтов.
// Each method is a single atomic read-modify-write for one user and creates
// the account with zero usage when it does not exist yet.
type AccountStore interface {
	GetOrCreateAccount(ctx context.Context, userID string) (*model.Account, error)
	// AddUsage adds delta only when the result stays within limit.
	AddUsage(ctx context.Context, userID string, delta, limit int64) (used int64, ok bool, err error)
	// SubUsage subtracts delta, clamping the result at zero.
	SubUsage(ctx context.Context, userID string, delta int64) (used int64, err error)
}

type Ledger struct {
	store AccountStore
	limit int64
}

func New(store AccountStore) *Ledger {
	return &Ledger{store: store, limit: model.StorageLimit}
}

func (l *Ledger) Limit() int64 {
	return l.limit
}

// Admit reserves delta bytes for userID. It returns false without touching
// the account when the new total would exceed the limit.
func (l *Ledger) Admit(ctx context.Context, userID string, delta int64) (bool, error) {
	if delta < 0 {
		return false, model.ErrNegativeDelta
	}

	logger := mwlogger.LoggerFromContext(ctx)

	used, ok, err := l.store.AddUsage(ctx, userID, delta, l.limit)
	if err != nil {
		return false, fmt.Errorf("admit %d bytes for %q: %w", delta, userID, err)
	}
	if !ok {
		logger.Info().Str("user_id", userID).Int64("delta", delta).Msg("Storage limit reached, admission refused")
		return false, nil
	}

	logger.Debug().Str("user_id", userID).Int64("used_bytes", used).Msg("Storage admitted")
	return true, nil
}

// Release returns delta bytes to userID's budget; the total never drops below zero.
func (l *Ledger) Release(ctx context.Context, userID string, delta int64) error {
	if delta < 0 {
		return model.ErrNegativeDelta
	}

	used, err := l.store.SubUsage(ctx, userID, delta)
	if err != nil {
		return fmt.Errorf("release %d bytes for %q: %w", delta, userID, err)
	}

	logger := mwlogger.LoggerFromContext(ctx)
	logger.Debug().Str("user_id", userID).Int64("used_bytes", used).Msg("Storage released")
	return nil
}

// UsedBytes returns the committed total, creating the account on first access.
func (l *Ledger) UsedBytes(ctx context.Context, userID string) (int64, error) {
	acc, err := l.store.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load account %q: %w", userID, err)
	}
	return acc.UsedBytes, nil
}
