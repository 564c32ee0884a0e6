// Package worker contains the janitor that removes orphaned blobs reported to the queue
package worker

import (
	"context"
	"log"

	"github.com/UnendingLoop/PhotoBlur/internal/kafka"
	"github.com/UnendingLoop/PhotoBlur/internal/mwlogger"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"
)

type BlobRemover interface {
	Delete(ctx context.Context, key string) error
}

// Committer - подтверждение обработанного сообщения (wbf kafka.Consumer)
type Committer interface {
	Commit(ctx context.Context, msg kafkago.Message) error
}

type Janitor struct {
	storage  BlobRemover
	queue    <-chan kafkago.Message
	consumer Committer
}

func NewJanitor(strg BlobRemover, q <-chan kafkago.Message, cons Committer) *Janitor {
	return &Janitor{storage: strg, queue: q, consumer: cons}
}

// Start removes every reported blob. A message is committed only after the
// blob is gone; unreadable messages are committed to get them out of the way.
func (j *Janitor) Start(ctx context.Context) {
	ctx = mwlogger.WithLogger(ctx, zlog.Logger.With().Str("component", "janitor").Logger())
	logger := mwlogger.LoggerFromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-j.queue:
			if !ok {
				log.Println("Queue channel closed, stopping janitor...")
				return
			}
			if err := j.handle(ctx, msg); err != nil {
				logger.Error().Err(err).Int64("offset", msg.Offset).Msg("Orphan removal failed, message left uncommitted")
				continue
			}
			if err := j.consumer.Commit(ctx, msg); err != nil {
				logger.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit queue-message")
			}
		}
	}
}

func (j *Janitor) handle(ctx context.Context, msg kafkago.Message) error {
	logger := mwlogger.LoggerFromContext(ctx)

	ev, err := kafka.DecodeOrphan(msg)
	if err != nil {
		logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("Skipping malformed orphan message")
		return nil
	}

	if err := j.storage.Delete(ctx, ev.Key); err != nil {
		return err
	}
	logger.Info().Str("key", ev.Key).Str("reason", ev.Reason).Msg("Orphan blob removed")
	return nil
}
