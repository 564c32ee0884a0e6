// Package main (in api-subfolder) provides launch of the HTTP API
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/aggregator"
	"github.com/UnendingLoop/PhotoBlur/internal/catalog"
	"github.com/UnendingLoop/PhotoBlur/internal/config"
	"github.com/UnendingLoop/PhotoBlur/internal/identity"
	"github.com/UnendingLoop/PhotoBlur/internal/kafka"
	"github.com/UnendingLoop/PhotoBlur/internal/ledger"
	"github.com/UnendingLoop/PhotoBlur/internal/mwlogger"
	"github.com/UnendingLoop/PhotoBlur/internal/repository"
	"github.com/UnendingLoop/PhotoBlur/internal/service"
	"github.com/UnendingLoop/PhotoBlur/internal/storage"
	"github.com/UnendingLoop/PhotoBlur/internal/transport"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %s\nExiting app...", err)
	}
	if err := errors.Join(cfg.RequireStore(), cfg.RequireSession()); err != nil {
		log.Fatalf("Incomplete config: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// хранилище аккаунтов и фото
	var store repository.Store
	var dbConn *dbpg.DB
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Println("Using in-memory store: data is lost on restart")
		store = repository.NewMemoryStore()
	default:
		dbConn = repository.ConnectWithRetries(cfg.PostgresDSN, 5, 10*time.Second)
		repository.MigrateWithRetries(dbConn.Master, cfg.MigrationsPath, 10, 15*time.Second)
		store = repository.NewPostgresStore(dbConn)
	}

	// подключиться к хранилищу блобов
	strg := storage.NewBlobStorage(cfg.Minio, 10*time.Second)

	// репортер осиротевших блобов: кафка если есть, иначе только лог
	var orphans catalog.OrphanReporter = kafka.LogReporter{}
	var pub *wbfkafka.Producer
	if cfg.KafkaBroker != "" {
		if err := kafka.WaitKafkaReady(ctx, cfg.KafkaBroker, cfg.KafkaTopics.Delay); err != nil {
			log.Fatalf("Kafka unavailable: %v\nExiting app...", err)
		}
		if err := kafka.InitKafkaTopics(ctx, cfg.KafkaBroker, cfg.KafkaTopics, cfg.KafkaOrphanTopic); err != nil {
			log.Fatalf("Failed to init kafka topics: %v\nExiting app...", err)
		}
		pub = wbfkafka.NewProducer([]string{cfg.KafkaBroker}, cfg.KafkaOrphanTopic)
		orphans = kafka.NewOrphanPublisher(pub)
	}

	// собираем ядро
	quota := ledger.New(store)
	photos := catalog.New(store, quota, strg, orphans)
	detector := aggregator.New(aggregator.NewVisionClientFactory(cfg.VisionEndpoint, cfg.VisionCredentialsFile), cfg.PlateLabel)
	svc := service.NewBlurService(detector, photos, quota, strg, orphans, cfg.MaxUploadBytes)

	// cоздаем экземпляр хендлера HTTP
	ids := identity.NewProvider(cfg.SessionSecret, cfg.SessionCookie, cfg.LoginURL, cfg.LogoutURL)
	handlers := transport.NewBlurHandler(svc, ids)
	// сетапим сервер
	engine := ginext.New(cfg.GinMode)
	registerRoutes(engine, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           mwlogger.NewMWLogger(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул закрытия соединений бд и кафки
	<-ctx.Done()

	shutdown(srv, pub, dbConn)
	log.Println("Exiting API...")
}

func shutdown(srv *http.Server, pub *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Println("Failed to shutdown HTTP-server correctly:", err)
	}

	// Closing Kafka connection:
	if pub != nil {
		if err := pub.Close(); err != nil {
			log.Println("Failed to close Kafka-writer:", err)
		}
		log.Println("Kafka-producer connection closed.")
	}

	// Closing DB connection
	if dbConn == nil {
		return
	}
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
