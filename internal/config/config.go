package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/elderberry/agentops/internal/store"
)

type Config struct {
	GRPCAddr         string
	HTTPAddr         string
	StoreDriver      string
	SQLitePath       string
	DataFile         string
	DatabaseURL      string
	AuthToken        string
	EnableReflection bool
	LogLevel         string
	OTLPEndpoint     string
	OTLPInsecure     bool
	ShutdownTimeout  time.Duration
}

func Load() Config {
	return Config{
		GRPCAddr:         envOrDefault("GRPC_ADDR", "127.0.0.1:50051"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		StoreDriver:      strings.ToLower(envOrDefault("STORE_DRIVER", "sqlite")),
		SQLitePath:       envOrDefault("SQLITE_PATH", store.DefaultSQLitePath),
		DataFile:         envOrDefault("DATA_FILE", "./data/agent-logs.json"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AuthToken:        os.Getenv("AUTH_TOKEN"),
		EnableReflection: envBoolOrDefault("ENABLE_REFLECTION", false),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:     envBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", true),
		ShutdownTimeout:  envDurationOrDefault("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBoolOrDefault(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
