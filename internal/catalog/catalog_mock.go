package catalog

import (
	"context"
)

// MOCK LEDGER

type mockLedger struct {
	admitFn   func(ctx context.Context, userID string, delta int64) (bool, error)
	releaseFn func(ctx context.Context, userID string, delta int64) error
}

func (m *mockLedger) Admit(ctx context.Context, userID string, delta int64) (bool, error) {
	return m.admitFn(ctx, userID, delta)
}

func (m *mockLedger) Release(ctx context.Context, userID string, delta int64) error {
	return m.releaseFn(ctx, userID, delta)
}

// MOCK BLOBS

type mockBlobs struct {
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockBlobs) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}

// MOCK ORPHANS

type mockOrphans struct {
	keys []string
}

func (m *mockOrphans) ReportOrphan(ctx context.Context, key string, reason string) {
	m.keys = append(m.keys, key)
}
