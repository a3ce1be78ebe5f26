package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/elderberry/agentops/internal/store"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GRPC_ADDR", "HTTP_ADDR", "STORE_DRIVER", "SQLITE_PATH", "DATA_FILE", "DATABASE_URL", "AUTH_TOKEN", "LOG_LEVEL", "OTEL_EXPORTER_OTLP_ENDPOINT", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "127.0.0.1:50051", cfg.GRPCAddr)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, store.DefaultSQLitePath, cfg.SQLitePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.AuthToken)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://agentops@localhost/agentops")
	t.Setenv("AUTH_TOKEN", "secret")
	t.Setenv("ENABLE_REFLECTION", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "250ms")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "not-a-bool")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "postgres://agentops@localhost/agentops", cfg.DatabaseURL)
	assert.Equal(t, "secret", cfg.AuthToken)
	assert.True(t, cfg.EnableReflection)
	assert.True(t, cfg.OTLPInsecure)
	assert.Equal(t, 250*time.Millisecond, cfg.ShutdownTimeout)
}
