// Package config turns env/.env values into a typed application config
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/aggregator"
	"github.com/UnendingLoop/PhotoBlur/internal/kafka"
	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/UnendingLoop/PhotoBlur/internal/storage/miniostorage"
	wbfconfig "github.com/wb-go/wbf/config"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	envFile = "./.env"
)

// Getter - то, что нам нужно от wbf/config
type Getter interface {
	SetDefault(key string, value any)
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetDuration(key string) time.Duration
}

type Config struct {
	AppPort  string
	GinMode  string
	LogLevel string

	StoreBackend   string
	PostgresDSN    string
	MigrationsPath string

	Minio          miniostorage.Options
	MaxUploadBytes int64

	KafkaBroker      string
	KafkaOrphanTopic string
	KafkaGroupID     string
	KafkaTopics      kafka.TopicOptions

	VisionEndpoint        string
	VisionCredentialsFile string
	PlateLabel            string

	SessionSecret string
	SessionCookie string
	LoginURL      string
	LogoutURL     string
}

var defaults = map[string]any{
	"APP_PORT":                 "8080",
	"GIN_MODE":                 "release",
	"LOG_LEVEL":                "info",
	"STORE_BACKEND":            BackendPostgres,
	"MIGRATIONS_PATH":          "./migrations",
	"MINIO_ENDPOINT":           "minio:9000",
	"BUCKET_NAME":              "photos",
	"MINIO_SECURE":             false,
	"BLOB_FETCH_CHUNK":         miniostorage.DefaultChunkSize,
	"MAX_UPLOAD_BYTES":         model.StorageLimit,
	"KAFKA_ORPHAN_TOPIC":       "orphan-blobs",
	"KAFKA_GROUPID":            "photoblur-janitor",
	"KAFKA_TOPIC_PARTITIONS":   1,
	"KAFKA_REPLICATION_FACTOR": 1,
	"KAFKA_INIT_ATTEMPTS":      10,
	"KAFKA_RETRY_DELAY":        10 * time.Second,
	"PLATE_LABEL":              aggregator.DefaultPlateLabel,
	"LOGIN_URL":                "/login",
	"LOGOUT_URL":               "/logout",
}

// FromEnv reads the process env and an optional ./.env file
func FromEnv() (*Config, error) {
	appConfig := wbfconfig.New()
	appConfig.EnableEnv("")
	if _, err := os.Stat(envFile); err == nil {
		if err := appConfig.LoadEnvFiles(envFile); err != nil {
			return nil, fmt.Errorf("load envs: %w", err)
		}
	}
	return Load(appConfig)
}

func Load(src Getter) (*Config, error) {
	for k, v := range defaults {
		src.SetDefault(k, v)
	}
	str := func(key string) string {
		return strings.TrimSpace(src.GetString(key))
	}

	cfg := &Config{
		AppPort:        str("APP_PORT"),
		GinMode:        str("GIN_MODE"),
		LogLevel:       str("LOG_LEVEL"),
		StoreBackend:   strings.ToLower(str("STORE_BACKEND")),
		PostgresDSN:    str("POSTGRES_DSN"),
		MigrationsPath: str("MIGRATIONS_PATH"),
		Minio: miniostorage.Options{
			Endpoint:  str("MINIO_ENDPOINT"),
			User:      str("MINIO_USER"),
			Pass:      str("MINIO_PASS"),
			Bucket:    str("BUCKET_NAME"),
			Secure:    src.GetBool("MINIO_SECURE"),
			ChunkSize: src.GetInt64("BLOB_FETCH_CHUNK"),
		},
		MaxUploadBytes:   src.GetInt64("MAX_UPLOAD_BYTES"),
		KafkaBroker:      str("KAFKA_BROKER"),
		KafkaOrphanTopic: str("KAFKA_ORPHAN_TOPIC"),
		KafkaGroupID:     str("KAFKA_GROUPID"),
		KafkaTopics: kafka.TopicOptions{
			Partitions:        src.GetInt("KAFKA_TOPIC_PARTITIONS"),
			ReplicationFactor: src.GetInt("KAFKA_REPLICATION_FACTOR"),
			Attempts:          src.GetInt("KAFKA_INIT_ATTEMPTS"),
			Delay:             src.GetDuration("KAFKA_RETRY_DELAY"),
		},
		VisionEndpoint:        str("VISION_ENDPOINT"),
		VisionCredentialsFile: str("VISION_CREDENTIALS_FILE"),
		PlateLabel:            str("PLATE_LABEL"),
		SessionSecret:         str("SESSION_SECRET"),
		SessionCookie:         str("SESSION_COOKIE"),
		LoginURL:              str("LOGIN_URL"),
		LogoutURL:             str("LOGOUT_URL"),
	}

	// нечисловое значение приходит из viper нулем и отсекается здесь же
	positive := []struct {
		key string
		val int64
	}{
		{"BLOB_FETCH_CHUNK", cfg.Minio.ChunkSize},
		{"MAX_UPLOAD_BYTES", cfg.MaxUploadBytes},
		{"KAFKA_TOPIC_PARTITIONS", int64(cfg.KafkaTopics.Partitions)},
		{"KAFKA_REPLICATION_FACTOR", int64(cfg.KafkaTopics.ReplicationFactor)},
		{"KAFKA_INIT_ATTEMPTS", int64(cfg.KafkaTopics.Attempts)},
		{"KAFKA_RETRY_DELAY", int64(cfg.KafkaTopics.Delay)},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return nil, fmt.Errorf("%s: must be positive, got %q", p.key, src.GetString(p.key))
		}
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendPostgres:
	default:
		return nil, fmt.Errorf("STORE_BACKEND: unknown backend %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// RequireStore checks what the account/photo store needs
func (c *Config) RequireStore() error {
	if c.StoreBackend == BackendPostgres && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for the %q backend", BackendPostgres)
	}
	return nil
}

func (c *Config) RequireSession() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	return nil
}

func (c *Config) RequireBroker() error {
	if c.KafkaBroker == "" {
		return errors.New("KAFKA_BROKER is required")
	}
	return nil
}
