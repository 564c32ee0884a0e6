package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/UnendingLoop/PhotoBlur/internal/mwlogger"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
)

// Sender - контракт продюсера (wbf kafka.Producer)
type Sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, value []byte) error
}

// Стратегия ретрая отправки в очередь
var publishStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    time.Second,
	Backoff:  1.5,
}

// OrphanPublisher sends keys of blobs that must still be removed to the janitor topic.
type OrphanPublisher struct {
	sender Sender
	now    func() time.Time
}

func NewOrphanPublisher(sender Sender) *OrphanPublisher {
	return &OrphanPublisher{sender: sender, now: func() time.Time { return time.Now().UTC() }}
}

func (p *OrphanPublisher) ReportOrphan(ctx context.Context, key string, reason string) {
	logger := mwlogger.LoggerFromContext(ctx)

	payload, err := json.Marshal(model.OrphanEvent{Key: key, Reason: reason, At: p.now()})
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to encode orphan event")
		return
	}

	// запрос мог уже завершиться - отправка не должна от этого зависеть
	if err := p.sender.SendWithRetry(context.WithoutCancel(ctx), publishStrategy, []byte(key), payload); err != nil {
		logger.Error().Err(err).Str("key", key).Str("reason", reason).Msg("Failed to publish orphan blob, it stays in storage")
		return
	}
	logger.Info().Str("key", key).Str("reason", reason).Msg("Orphan blob queued for removal")
}

// LogReporter is used when no broker is configured: orphans are only logged.
type LogReporter struct{}

func (LogReporter) ReportOrphan(ctx context.Context, key string, reason string) {
	logger := mwlogger.LoggerFromContext(ctx)
	logger.Error().Str("key", key).Str("reason", reason).Msg("Orphan blob left in storage, no janitor configured")
}

// DecodeOrphan reads an orphan event; a bare message key is accepted too.
func DecodeOrphan(msg kafkago.Message) (model.OrphanEvent, error) {
	var ev model.OrphanEvent
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			return ev, err
		}
	}
	if ev.Key == "" {
		ev.Key = string(msg.Key)
	}
	if ev.Key == "" {
		return ev, errors.New("orphan event without blob key")
	}
	return ev, nil
}
