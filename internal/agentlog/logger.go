package agentlog

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elderberry/agentops/internal/domain"
)

// Result describes how an execution ended. A zero Duration means "measure
// from StartExecution".
type Result struct {
	Success  bool
	Score    float64
	Duration time.Duration
	Summary  string
	Error    string
}

type ActiveExecution struct {
	ID          string    `json:"id"`
	AgentName   string    `json:"agent_name"`
	TaskType    string    `json:"task_type"`
	Description string    `json:"description"`
	MCPTools    []string  `json:"mcp_tools"`
	StartedAt   time.Time `json:"started_at"`
}

// Logger reports agent executions to the logging backend. Every method is
// best effort: delivery failures are logged and replayed on the console
// transport, never returned.
type Logger struct {
	sessionID string
	startedAt time.Time
	transport Transport
	console   Transport
	redactor  *Redactor
	log       *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	active    map[string]ActiveExecution
	total     int
	succeeded int
	failed    int
	scoreSum  float64
}

type Option func(*Logger)

// WithTransport bypasses SelectTransport.
func WithTransport(transport Transport) Option {
	return func(l *Logger) { l.transport = transport }
}

func WithZap(log *zap.Logger) Option {
	return func(l *Logger) { l.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

func New(cfg Config, opts ...Option) *Logger {
	l := &Logger{
		sessionID: uuid.NewString(),
		now:       time.Now,
		active:    map[string]ActiveExecution{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = zap.L()
	}
	l.console = NewConsoleTransport(l.log)
	if l.transport == nil {
		transport, err := SelectTransport(cfg, l.log)
		if err != nil {
			l.log.Warn("agent log transport unavailable, using console", zap.Error(err))
			transport = l.console
		}
		l.transport = transport
	}
	l.redactor = NewRedactor(cfg.Redact, cfg.RedactPatterns)
	l.startedAt = l.now().UTC()
	return l
}

func (l *Logger) SessionID() string { return l.sessionID }

func (l *Logger) TransportName() string { return l.transport.Name() }

func (l *Logger) Close() error {
	if l.transport == l.console {
		return nil
	}
	return l.transport.Close()
}

// StartExecution registers a running execution and returns its id.
func (l *Logger) StartExecution(ctx context.Context, agent, taskType, description string, tools []string) string {
	exec := ActiveExecution{
		ID:          newExecutionID(),
		AgentName:   strings.TrimSpace(agent),
		TaskType:    strings.TrimSpace(taskType),
		Description: strings.TrimSpace(description),
		MCPTools:    slices.Clone(tools),
		StartedAt:   l.now().UTC(),
	}

	l.mu.Lock()
	l.active[exec.ID] = exec
	l.mu.Unlock()

	l.deliver(ctx, EventExecutionStart, map[string]any{
		"execution_id": exec.ID,
		"session_id":   l.sessionID,
		"agent_name":   exec.AgentName,
		"task_type":    exec.TaskType,
		"description":  exec.Description,
		"mcp_tools":    exec.MCPTools,
		"started_at":   exec.StartedAt.Format(time.RFC3339Nano),
	})
	return exec.ID
}

// CompleteExecution removes the execution from the active set. Unknown ids
// are still reported so the backend can reject them.
func (l *Logger) CompleteExecution(ctx context.Context, executionID string, result Result) {
	finishedAt := l.now().UTC()

	l.mu.Lock()
	exec, ok := l.active[executionID]
	delete(l.active, executionID)
	l.total++
	if result.Success {
		l.succeeded++
	} else {
		l.failed++
	}
	l.scoreSum += result.Score
	l.mu.Unlock()

	duration := result.Duration
	if duration <= 0 && ok {
		duration = finishedAt.Sub(exec.StartedAt)
	}
	if !ok {
		l.log.Debug("completing unknown execution", zap.String("execution_id", executionID))
	}

	l.deliver(ctx, EventExecutionComplete, map[string]any{
		"execution_id":      executionID,
		"session_id":        l.sessionID,
		"success":           result.Success,
		"duration_ms":       duration.Milliseconds(),
		"performance_score": result.Score,
		"result_summary":    result.Summary,
		"error_message":     result.Error,
		"finished_at":       finishedAt.Format(time.RFC3339Nano),
	})
}

func (l *Logger) LogToolUsage(ctx context.Context, executionID, tool, operation string, duration time.Duration, success bool) {
	l.deliver(ctx, EventToolUsage, map[string]any{
		"execution_id": executionID,
		"session_id":   l.sessionID,
		"tool_name":    strings.TrimSpace(tool),
		"operation":    strings.TrimSpace(operation),
		"duration_ms":  duration.Milliseconds(),
		"success":      success,
	})
}

func (l *Logger) LogMetric(ctx context.Context, agent, metric string, value float64, unit string) {
	l.deliver(ctx, EventMetric, map[string]any{
		"session_id":  l.sessionID,
		"agent_name":  strings.TrimSpace(agent),
		"metric_name": strings.TrimSpace(metric),
		"value":       value,
		"unit":        strings.TrimSpace(unit),
	})
}

func (l *Logger) LogError(ctx context.Context, executionID, agent, errorType, message string, details map[string]string) {
	payload := map[string]any{
		"session_id":   l.sessionID,
		"execution_id": executionID,
		"agent_name":   strings.TrimSpace(agent),
		"error_type":   strings.TrimSpace(errorType),
		"message":      message,
	}
	if len(details) > 0 {
		payload["context"] = details
	}
	l.deliver(ctx, EventError, payload)
}

// EndSession reports and returns the session summary. Executions still
// active are counted as failed.
func (l *Logger) EndSession(ctx context.Context) domain.SessionSummary {
	endedAt := l.now().UTC()

	l.mu.Lock()
	summary := domain.SessionSummary{
		SessionID:       l.sessionID,
		StartedAt:       l.startedAt.Format(time.RFC3339Nano),
		EndedAt:         endedAt.Format(time.RFC3339Nano),
		TotalExecutions: int64(l.total + len(l.active)),
		Succeeded:       int64(l.succeeded),
		Failed:          int64(l.failed + len(l.active)),
	}
	if summary.TotalExecutions > 0 {
		summary.AverageScore = l.scoreSum / float64(summary.TotalExecutions)
	}
	l.mu.Unlock()

	l.deliver(ctx, EventSessionSummary, map[string]any{
		"session_id":       summary.SessionID,
		"started_at":       summary.StartedAt,
		"ended_at":         summary.EndedAt,
		"total_executions": summary.TotalExecutions,
		"succeeded":        summary.Succeeded,
		"failed":           summary.Failed,
		"average_score":    summary.AverageScore,
	})
	return summary
}

// ActiveExecutions lists running executions, oldest first.
func (l *Logger) ActiveExecutions() []ActiveExecution {
	l.mu.Lock()
	out := make([]ActiveExecution, 0, len(l.active))
	for _, exec := range l.active {
		exec.MCPTools = slices.Clone(exec.MCPTools)
		out = append(out, exec)
	}
	l.mu.Unlock()

	slices.SortFunc(out, func(a, b ActiveExecution) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (l *Logger) deliver(ctx context.Context, kind string, payload map[string]any) {
	l.redactor.applyPayload(payload)
	event := Event{Kind: kind, Payload: payload}

	err := l.transport.Send(ctx, event)
	if err == nil {
		return
	}
	l.log.Warn("agent log delivery failed, writing to console",
		zap.String("transport", l.transport.Name()),
		zap.String("event", kind),
		zap.Error(err),
	)
	if l.transport != l.console {
		_ = l.console.Send(ctx, event)
	}
}

func newExecutionID() string {
	return "exec_" + uuid.NewString()
}
