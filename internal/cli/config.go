package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/elderberry/agentops/internal/agentlog"
)

const (
	envPrefix         = "AGENTOPS"
	defaultTokenEnv   = "AGENTOPS_TOKEN"
	configDirName     = "agentops"
	configFileName    = "agentctl.yaml"
	defaultServerAddr = "127.0.0.1:50051"
)

type Config struct {
	Catalog      string       `mapstructure:"catalog"`
	LogLevel     string       `mapstructure:"log_level"`
	Output       string       `mapstructure:"output"`
	Seed         uint64       `mapstructure:"seed"`
	OTLPEndpoint string       `mapstructure:"otlp_endpoint"`
	Log          LogConfig    `mapstructure:"log"`
	Server       ServerConfig `mapstructure:"server"`
}

// LogConfig controls where `agentctl run` reports executions.
type LogConfig struct {
	Mode           string        `mapstructure:"mode"`
	BaseURL        string        `mapstructure:"base_url"`
	GRPCAddr       string        `mapstructure:"grpc_addr"`
	GRPCInsecure   bool          `mapstructure:"grpc_insecure"`
	TokenEnvVar    string        `mapstructure:"token_env_var"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	Redact         bool          `mapstructure:"redact"`
	RedactPatterns []string      `mapstructure:"redact_patterns"`
}

// ServerConfig is the logging backend queried by `agentctl logs`.
type ServerConfig struct {
	GRPCAddr     string `mapstructure:"grpc_addr"`
	GRPCInsecure bool   `mapstructure:"grpc_insecure"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("output", "text")
	v.SetDefault("seed", 0)
	v.SetDefault("otlp_endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))

	v.SetDefault("log.mode", agentlog.ModeAuto)
	v.SetDefault("log.base_url", "")
	v.SetDefault("log.grpc_addr", "")
	v.SetDefault("log.grpc_insecure", false)
	v.SetDefault("log.token_env_var", defaultTokenEnv)
	v.SetDefault("log.request_timeout", agentlog.DefaultRequestTimeout.String())
	v.SetDefault("log.retry_attempts", 3)
	v.SetDefault("log.redact", true)
	v.SetDefault("log.redact_patterns", []string{})

	v.SetDefault("server.grpc_addr", defaultServerAddr)
	v.SetDefault("server.grpc_insecure", false)
}

// LoadConfig reads defaults, then the config file, then AGENTOPS_* variables
// and bound flags. A missing file is only an error when path was given
// explicitly.
func LoadConfig(v *viper.Viper, path string) (Config, string, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, "", err
		}
		path = defaultPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if !missing || explicit {
			return Config{}, path, fmt.Errorf("read agentctl config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, path, fmt.Errorf("decode agentctl config %s: %w", path, err)
	}
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	if cfg.Output != "json" {
		cfg.Output = "text"
	}
	if cfg.Log.RetryAttempts <= 0 {
		cfg.Log.RetryAttempts = 1
	}
	if cfg.Log.RequestTimeout <= 0 {
		cfg.Log.RequestTimeout = agentlog.DefaultRequestTimeout
	}
	return cfg, path, nil
}

func DefaultConfigPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, configDirName, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", configDirName, configFileName), nil
}

func (c Config) Token() string {
	name := strings.TrimSpace(c.Log.TokenEnvVar)
	if name != "" {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return strings.TrimSpace(os.Getenv(defaultTokenEnv))
}

func (c Config) AgentLog() agentlog.Config {
	return agentlog.Config{
		Mode:           c.Log.Mode,
		BaseURL:        c.Log.BaseURL,
		GRPCAddr:       c.Log.GRPCAddr,
		GRPCInsecure:   c.Log.GRPCInsecure,
		Token:          c.Token(),
		RequestTimeout: c.Log.RequestTimeout,
		RetryAttempts:  c.Log.RetryAttempts,
		Redact:         c.Log.Redact,
		RedactPatterns: c.Log.RedactPatterns,
	}
}

// ServerClient is the agentlog config used for read queries against the
// logging server.
func (c Config) ServerClient() agentlog.Config {
	return agentlog.Config{
		Mode:           agentlog.ModeGRPC,
		GRPCAddr:       c.Server.GRPCAddr,
		GRPCInsecure:   c.Server.GRPCInsecure,
		Token:          c.Token(),
		RequestTimeout: c.Log.RequestTimeout,
		RetryAttempts:  c.Log.RetryAttempts,
	}
}
