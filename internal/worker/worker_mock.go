package worker

import (
	"context"
	"sync"

	kafkago "github.com/segmentio/kafka-go"
)

type mockStorage struct {
	mu       sync.Mutex
	deleteFn func(ctx context.Context, key string) error
	deleted  []string
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteFn(ctx, key); err != nil {
		return err
	}
	m.deleted = append(m.deleted, key)
	return nil
}

//----------------------------------

type mockCommitter struct {
	mu        sync.Mutex
	committed []int64
}

func (m *mockCommitter) Commit(ctx context.Context, msg kafkago.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msg.Offset)
	return nil
}

func (m *mockCommitter) offsets() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.committed...)
}
