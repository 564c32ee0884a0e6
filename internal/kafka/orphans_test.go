package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

type mockSender struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockSender) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}

func TestOrphanPublisher_ReportOrphan(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var gotKey, gotValue []byte

	p := NewOrphanPublisher(&mockSender{sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
		require.NoError(t, ctx.Err())
		require.Equal(t, publishStrategy, s)
		gotKey, gotValue = key, v
		return nil
	}})
	p.now = func() time.Time { return at }

	// отмененный контекст запроса не мешает отправке
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.ReportOrphan(ctx, "abc.jpg", "quota exceeded")

	require.Equal(t, "abc.jpg", string(gotKey))
	var ev model.OrphanEvent
	require.NoError(t, json.Unmarshal(gotValue, &ev))
	require.Equal(t, model.OrphanEvent{Key: "abc.jpg", Reason: "quota exceeded", At: at}, ev)
}

func TestOrphanPublisher_SendErrorIsSwallowed(t *testing.T) {
	p := NewOrphanPublisher(&mockSender{sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
		return errors.New("broker down")
	}})

	require.NotPanics(t, func() {
		p.ReportOrphan(context.Background(), "k", "photo delete")
	})
}

func TestDecodeOrphan(t *testing.T) {
	tests := []struct {
		name    string
		msg     kafkago.Message
		wantKey string
		wantErr bool
	}{
		{"json payload", kafkago.Message{Value: []byte(`{"key":"a.png","reason":"x"}`)}, "a.png", false},
		{"key only", kafkago.Message{Key: []byte("b.jpg")}, "b.jpg", false},
		{"payload without key falls back", kafkago.Message{Key: []byte("c.jpg"), Value: []byte(`{"reason":"x"}`)}, "c.jpg", false},
		{"broken json", kafkago.Message{Value: []byte(`{`)}, "", true},
		{"empty", kafkago.Message{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeOrphan(tt.msg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantKey, ev.Key)
		})
	}
}
