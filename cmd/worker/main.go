// Package main (in worker-subfolder) launches the orphan-blob janitor
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/config"
	"github.com/UnendingLoop/PhotoBlur/internal/kafka"
	"github.com/UnendingLoop/PhotoBlur/internal/storage"
	"github.com/UnendingLoop/PhotoBlur/internal/worker"
	kafkago "github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %s\nExiting app...", err)
	}
	if err := cfg.RequireBroker(); err != nil {
		log.Fatalf("Incomplete config: %s\nExiting app...", err)
	}

	zlog.InitConsole()
	if err := zlog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// подкллючиться к хранилищу
	strg := storage.NewBlobStorage(cfg.Minio, 10*time.Second)

	// Listening to interruptions through context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ждем пока кафка раздуплится
	if err := kafka.WaitKafkaReady(ctx, cfg.KafkaBroker, cfg.KafkaTopics.Delay); err != nil {
		log.Fatalf("Kafka unavailable: %v\nExiting app...", err)
	}
	if err := kafka.InitKafkaTopics(ctx, cfg.KafkaBroker, cfg.KafkaTopics, cfg.KafkaOrphanTopic); err != nil {
		log.Fatalf("Failed to init kafka topics: %v\nExiting app...", err)
	}
	// подключиться к кафке как читатель
	queue := make(chan kafkago.Message)
	retryStrategy := retry.Strategy{
		Attempts: 5,
		Delay:    2 * time.Second,
		Backoff:  1.5,
	}
	cons := wbfkafka.NewConsumer([]string{cfg.KafkaBroker}, cfg.KafkaOrphanTopic, cfg.KafkaGroupID)
	cons.StartConsuming(ctx, queue, retryStrategy)

	janitor := worker.NewJanitor(strg, queue, cons)
	go janitor.Start(ctx)

	// Waiting for interruption to stop context to start Graceful shutdown
	<-ctx.Done()

	shutdown(cons)
	log.Println("Exiting janitor...")
}

func shutdown(cons *wbfkafka.Consumer) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// Closing Kafka connection:
	if err := cons.Close(); err != nil {
		log.Println("Failed to close Kafka-reader:", err)
	}
	log.Println("Kafka-consumer connection closed.")
}
