// Package kafka provides topic bootstrap, a readiness probe and the orphan-blob publisher
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"
)

// TopicOptions - параметры создания топиков и повторов
type TopicOptions struct {
	Partitions        int
	ReplicationFactor int
	Attempts          int
	Delay             time.Duration
}

type topicCreator interface {
	CreateTopics(ctx context.Context, req *kafkago.CreateTopicsRequest) (*kafkago.CreateTopicsResponse, error)
}

// InitKafkaTopics creates topics, retrying up to opts.Attempts times.
// A topic that already exists counts as created.
func InitKafkaTopics(ctx context.Context, brokerAddr string, opts TopicOptions, topics ...string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}
	return createTopics(ctx, client, opts, topics)
}

func createTopics(ctx context.Context, client topicCreator, opts TopicOptions, topics []string) error {
	req := topicsRequest(opts, topics)
	attempts := max(opts.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := client.CreateTopics(ctx, req)
		if err == nil {
			err = topicErrors(resp)
		}
		if err == nil {
			zlog.Logger.Info().Strs("topics", topics).Msg("Kafka topics are ready")
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		zlog.Logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", opts.Delay).Msg("Failed to create kafka topics, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.Delay):
		}
	}

	return fmt.Errorf("create topics %v: out of %d attempts: %w", topics, attempts, lastErr)
}

func topicsRequest(opts TopicOptions, topics []string) *kafkago.CreateTopicsRequest {
	req := &kafkago.CreateTopicsRequest{
		Topics: make([]kafkago.TopicConfig, 0, len(topics)),
	}
	for _, t := range topics {
		req.Topics = append(req.Topics, kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     max(opts.Partitions, 1),
			ReplicationFactor: max(opts.ReplicationFactor, 1),
		})
	}
	return req
}

// topicErrors собирает ошибки по топикам, TopicAlreadyExists не ошибка
func topicErrors(resp *kafkago.CreateTopicsResponse) error {
	if resp == nil {
		return nil
	}
	var errs []error
	for topic, err := range resp.Errors {
		if err == nil || errors.Is(err, kafkago.TopicAlreadyExists) {
			continue
		}
		errs = append(errs, fmt.Errorf("topic %q: %w", topic, err))
	}
	return errors.Join(errs...)
}

// WaitKafkaReady blocks until the broker accepts connections or ctx ends.
func WaitKafkaReady(ctx context.Context, brokerAddr string, delay time.Duration) error {
	var dialer kafkago.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				zlog.Logger.Warn().Err(errConn).Msg("Failed to close connection after testing Kafka readiness")
			}
			zlog.Logger.Info().Str("broker", brokerAddr).Msg("Kafka is ready")
			return nil
		}

		zlog.Logger.Info().Err(err).Dur("delay", delay).Msg("Kafka not ready, retrying")
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for kafka %s: %w", brokerAddr, ctx.Err())
		case <-time.After(delay):
		}
	}
}
