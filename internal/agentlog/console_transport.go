package agentlog

import (
	"context"

	"go.uber.org/zap"
)

type ConsoleTransport struct {
	log *zap.Logger
}

func NewConsoleTransport(log *zap.Logger) *ConsoleTransport {
	if log == nil {
		log = zap.L()
	}
	return &ConsoleTransport{log: log.Named("agentlog")}
}

func (c *ConsoleTransport) Name() string { return ModeConsole }

func (c *ConsoleTransport) Send(_ context.Context, event Event) error {
	fields := make([]zap.Field, 0, len(event.Payload)+1)
	fields = append(fields, zap.String("event", event.Kind))
	for key, value := range event.Payload {
		fields = append(fields, zap.Any(key, value))
	}
	c.log.Info("agent log event", fields...)
	return nil
}

func (c *ConsoleTransport) Close() error { return nil }
