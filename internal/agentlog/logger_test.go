package agentlog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type capturedRequest struct {
	Path string
	Body map[string]any
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []capturedRequest
	fail     bool
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.requests = append(f.requests, capturedRequest{Path: r.URL.Path, Body: body})
	fail := f.fail
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"database is locked"}`))
		return
	}
	_, _ = w.Write([]byte(`{"success":true}`))
}

func (f *fakeBackend) captured() []capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedRequest(nil), f.requests...)
}

func newObservedLogger(cfg Config) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(cfg, WithZap(zap.New(core))), logs
}

func startBackend(t *testing.T, backend *fakeBackend) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)
	return server
}

func TestResolveMode(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{}, ModeConsole},
		{Config{Mode: "auto", BaseURL: "http://localhost:3000"}, ModeHTTP},
		{Config{BaseURL: "http://localhost:3000", GRPCAddr: "localhost:8090"}, ModeGRPC},
		{Config{Mode: "HTTP", GRPCAddr: "localhost:8090"}, ModeHTTP},
		{Config{Mode: "console", BaseURL: "http://localhost:3000"}, ModeConsole},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.cfg.ResolveMode(), "%+v", tc.cfg)
	}
}

func TestUnsupportedModeFallsBackToConsole(t *testing.T) {
	logger, logs := newObservedLogger(Config{Mode: "carrier-pigeon"})
	defer logger.Close()

	assert.Equal(t, ModeConsole, logger.TransportName())
	assert.Equal(t, 1, logs.FilterMessage("agent log transport unavailable, using console").Len())
}

func TestHTTPTransportPostsEvents(t *testing.T) {
	backend := &fakeBackend{}
	server := startBackend(t, backend)

	logger, _ := newObservedLogger(Config{BaseURL: server.URL + "/", Redact: true})
	defer logger.Close()
	require.Equal(t, ModeHTTP, logger.TransportName())

	ctx := context.Background()
	id := logger.StartExecution(ctx, "DEBUG", "/rapid", "fix login", []string{"filesystem"})
	require.True(t, strings.HasPrefix(id, "exec_"))
	logger.LogToolUsage(ctx, id, "filesystem", "read", 120*time.Millisecond, true)
	logger.LogMetric(ctx, "DEBUG", "performance_score", 0.75, "ratio")
	logger.LogError(ctx, id, "DEBUG", "execution_failed", "retry with token=hunter2", map[string]string{"auth": "Bearer abc.def"})
	logger.CompleteExecution(ctx, id, Result{Success: true, Score: 0.75, Duration: 2500 * time.Millisecond, Summary: "done"})
	logger.EndSession(ctx)

	requests := backend.captured()
	var paths []string
	for _, req := range requests {
		paths = append(paths, req.Path)
		assert.Equal(t, logger.SessionID(), req.Body["session_id"], req.Path)
	}
	assert.Equal(t, []string{
		"/api/logging/agent-execution/start",
		"/api/logging/mcp-tool-usage",
		"/api/logging/performance-metric",
		"/api/logging/error",
		"/api/logging/agent-execution/complete",
		"/api/logging/session-summary",
	}, paths)

	start := requests[0].Body
	assert.Equal(t, id, start["execution_id"])
	assert.Equal(t, "DEBUG", start["agent_name"])
	assert.Equal(t, []any{"filesystem"}, start["mcp_tools"])

	assert.Equal(t, float64(120), requests[1].Body["duration_ms"])

	errBody := requests[3].Body
	assert.Equal(t, "retry with token=[REDACTED]", errBody["message"])
	assert.Equal(t, map[string]any{"auth": "Bearer [REDACTED]"}, errBody["context"])

	complete := requests[4].Body
	assert.Equal(t, true, complete["success"])
	assert.Equal(t, float64(2500), complete["duration_ms"])
	assert.Equal(t, 0.75, complete["performance_score"])

	summary := requests[5].Body
	assert.Equal(t, float64(1), summary["total_executions"])
	assert.Equal(t, float64(1), summary["succeeded"])
}

func TestHTTPFailureFallsBackToConsole(t *testing.T) {
	backend := &fakeBackend{fail: true}
	server := startBackend(t, backend)

	logger, logs := newObservedLogger(Config{Mode: ModeHTTP, BaseURL: server.URL})
	defer logger.Close()

	logger.LogMetric(context.Background(), "DEBUG", "latency", 12, "ms")

	warnings := logs.FilterMessage("agent log delivery failed, writing to console").All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].ContextMap()["error"], "database is locked")
	assert.Equal(t, 1, logs.FilterMessage("agent log event").Len())
}

func TestUnreachableBackendNeverSurfacesErrors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	logger, logs := newObservedLogger(Config{BaseURL: url, RequestTimeout: time.Second})
	defer logger.Close()

	id := logger.StartExecution(context.Background(), "DEBUG", "/rapid", "offline", nil)
	logger.CompleteExecution(context.Background(), id, Result{Success: false, Error: "offline"})

	assert.Equal(t, 2, logs.FilterMessage("agent log event").Len())
	assert.Empty(t, logger.ActiveExecutions())
}

func TestActiveExecutionsAndSessionSummary(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	core, _ := observer.New(zapcore.InfoLevel)
	logger := New(Config{Mode: ModeConsole}, WithZap(zap.New(core)), WithClock(now))
	ctx := context.Background()

	first := logger.StartExecution(ctx, "CLAUDE_GUIDE", "/auto", "plan", []string{"context7"})
	second := logger.StartExecution(ctx, "DEBUG", "/auto", "trace", nil)
	third := logger.StartExecution(ctx, "API_DOCUMENTATION", "/auto", "docs", nil)

	active := logger.ActiveExecutions()
	require.Len(t, active, 3)
	assert.Equal(t, first, active[0].ID)
	assert.Equal(t, []string{"context7"}, active[0].MCPTools)

	logger.CompleteExecution(ctx, first, Result{Success: true, Score: 0.8})
	logger.CompleteExecution(ctx, second, Result{Success: false})

	active = logger.ActiveExecutions()
	require.Len(t, active, 1)
	assert.Equal(t, third, active[0].ID)

	summary := logger.EndSession(ctx)
	assert.Equal(t, logger.SessionID(), summary.SessionID)
	assert.EqualValues(t, 3, summary.TotalExecutions)
	assert.EqualValues(t, 1, summary.Succeeded)
	assert.EqualValues(t, 2, summary.Failed)
	assert.InDelta(t, 0.8/3, summary.AverageScore, 1e-9)
	assert.Equal(t, "2026-03-01T09:00:01Z", summary.StartedAt)
}

func TestRedactorDisabledLeavesInput(t *testing.T) {
	input := "password=swordfish"
	assert.Equal(t, input, NewRedactor(false, nil).Apply(input))
	assert.Equal(t, "password=[REDACTED]", NewRedactor(true, nil).Apply(input))
	assert.Equal(t, "id [REDACTED_CUSTOM]", NewRedactor(true, []string{`cust-\d+`, "("}).Apply("id cust-42"))
}
