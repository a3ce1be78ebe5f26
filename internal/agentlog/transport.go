package agentlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Event kinds double as the path suffix under /api/logging/.
const (
	EventExecutionStart    = "agent-execution/start"
	EventExecutionComplete = "agent-execution/complete"
	EventToolUsage         = "mcp-tool-usage"
	EventMetric            = "performance-metric"
	EventError             = "error"
	EventSessionSummary    = "session-summary"
)

type Event struct {
	Kind    string
	Payload map[string]any
}

// Transport delivers events to the logging backend. Implementations must be
// safe for concurrent use.
type Transport interface {
	Name() string
	Send(ctx context.Context, event Event) error
	Close() error
}

const (
	ModeAuto    = "auto"
	ModeGRPC    = "grpc"
	ModeHTTP    = "http"
	ModeConsole = "console"
)

const DefaultRequestTimeout = 5 * time.Second

type Config struct {
	Mode           string
	BaseURL        string
	GRPCAddr       string
	GRPCInsecure   bool
	Token          string
	RequestTimeout time.Duration
	RetryAttempts  int
	Redact         bool
	RedactPatterns []string
}

// ResolveMode turns ModeAuto (or empty) into a concrete mode.
func (c Config) ResolveMode() string {
	mode := strings.ToLower(strings.TrimSpace(c.Mode))
	if mode != "" && mode != ModeAuto {
		return mode
	}
	switch {
	case strings.TrimSpace(c.GRPCAddr) != "":
		return ModeGRPC
	case strings.TrimSpace(c.BaseURL) != "":
		return ModeHTTP
	default:
		return ModeConsole
	}
}

// SelectTransport builds the transport for cfg once. Callers fall back to
// the console transport on error.
func SelectTransport(cfg Config, log *zap.Logger) (Transport, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	switch mode := cfg.ResolveMode(); mode {
	case ModeGRPC:
		return NewGRPCTransport(cfg)
	case ModeHTTP:
		return NewHTTPTransport(cfg)
	case ModeConsole:
		return NewConsoleTransport(log), nil
	default:
		return nil, fmt.Errorf("unsupported log transport %q", mode)
	}
}
