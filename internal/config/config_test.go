package config

import (
	"testing"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/aggregator"
	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/UnendingLoop/PhotoBlur/internal/storage/miniostorage"
	"github.com/stretchr/testify/require"
	wbfconfig "github.com/wb-go/wbf/config"
)

var otherKeys = []string{
	"POSTGRES_DSN", "MINIO_USER", "MINIO_PASS", "KAFKA_BROKER",
	"VISION_ENDPOINT", "VISION_CREDENTIALS_FILE", "SESSION_SECRET", "SESSION_COOKIE",
}

// envSource - настоящий wbf/config поверх окружения теста
func envSource(t *testing.T, env map[string]string) *wbfconfig.Config {
	t.Helper()

	// пустая переменная для viper равна отсутствующей
	for k := range defaults {
		t.Setenv(k, "")
	}
	for _, k := range otherKeys {
		t.Setenv(k, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	src := wbfconfig.New()
	src.EnableEnv("")
	return src
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envSource(t, nil))
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, BackendPostgres, cfg.StoreBackend)
	require.Equal(t, "./migrations", cfg.MigrationsPath)
	require.Equal(t, aggregator.DefaultPlateLabel, cfg.PlateLabel)
	require.Equal(t, model.StorageLimit, cfg.MaxUploadBytes)
	require.EqualValues(t, miniostorage.DefaultChunkSize, cfg.Minio.ChunkSize)
	require.False(t, cfg.Minio.Secure)
	require.Equal(t, "orphan-blobs", cfg.KafkaOrphanTopic)
	require.Empty(t, cfg.KafkaBroker)
	require.Equal(t, 1, cfg.KafkaTopics.Partitions)
	require.Equal(t, 1, cfg.KafkaTopics.ReplicationFactor)
	require.Equal(t, 10, cfg.KafkaTopics.Attempts)
	require.Equal(t, 10*time.Second, cfg.KafkaTopics.Delay)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(envSource(t, map[string]string{
		"STORE_BACKEND":            "Memory",
		"SESSION_SECRET":           "s",
		"MINIO_SECURE":             "true",
		"BLOB_FETCH_CHUNK":         "4096",
		"MAX_UPLOAD_BYTES":         "1000",
		"PLATE_LABEL":              "Vehicle registration plate",
		"KAFKA_TOPIC_PARTITIONS":   "6",
		"KAFKA_REPLICATION_FACTOR": "3",
		"KAFKA_RETRY_DELAY":        "250ms",
	}))
	require.NoError(t, err)

	require.Equal(t, BackendMemory, cfg.StoreBackend)
	require.Equal(t, "s", cfg.SessionSecret)
	require.True(t, cfg.Minio.Secure)
	require.EqualValues(t, 4096, cfg.Minio.ChunkSize)
	require.EqualValues(t, 1000, cfg.MaxUploadBytes)
	require.Equal(t, "Vehicle registration plate", cfg.PlateLabel)
	require.Equal(t, 6, cfg.KafkaTopics.Partitions)
	require.Equal(t, 3, cfg.KafkaTopics.ReplicationFactor)
	require.Equal(t, 250*time.Millisecond, cfg.KafkaTopics.Delay)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "mongo"}},
		{"zero chunk", map[string]string{"BLOB_FETCH_CHUNK": "0"}},
		{"bad max upload", map[string]string{"MAX_UPLOAD_BYTES": "lots"}},
		{"negative partitions", map[string]string{"KAFKA_TOPIC_PARTITIONS": "-1"}},
		{"zero attempts", map[string]string{"KAFKA_INIT_ATTEMPTS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(envSource(t, tt.env))
			require.Error(t, err)
		})
	}
}

func TestConfig_Require(t *testing.T) {
	cfg, err := Load(envSource(t, nil))
	require.NoError(t, err)

	// postgres по умолчанию, а DSN не задан
	require.Error(t, cfg.RequireStore())
	require.Error(t, cfg.RequireSession())
	require.Error(t, cfg.RequireBroker())

	cfg, err = Load(envSource(t, map[string]string{"STORE_BACKEND": "memory", "SESSION_SECRET": "s", "KAFKA_BROKER": "kafka:9092"}))
	require.NoError(t, err)
	require.NoError(t, cfg.RequireStore())
	require.NoError(t, cfg.RequireSession())
	require.NoError(t, cfg.RequireBroker())
}
