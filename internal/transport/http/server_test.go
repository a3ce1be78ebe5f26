package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elderberry/agentops/internal/domain"
	"github.com/elderberry/agentops/internal/service"
	"github.com/elderberry/agentops/internal/store"
)

func newTestHandler(t *testing.T, token string) http.Handler {
	t.Helper()
	logStore := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, logStore.Load())
	svc := service.NewLoggingService(logStore, "test")
	return NewHandler(svc, Options{AuthToken: token, Logger: zap.NewNop()})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestLoggingEndpointsRoundTrip(t *testing.T) {
	h := newTestHandler(t, "")

	rec := do(t, h, http.MethodPost, "/api/logging/agent-execution/start",
		`{"execution_id":"exec_1","session_id":"s1","agent_name":"DEBUG","task_type":"/rapid","mcp_tools":["filesystem"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[apiResponse](t, rec).Success)

	rec = do(t, h, http.MethodPost, "/api/logging/mcp-tool-usage",
		`{"execution_id":"exec_1","session_id":"s1","tool_name":"filesystem","operation":"read","duration_ms":12,"success":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/logging/agent-execution/complete",
		`{"execution_id":"exec_1","success":true,"duration_ms":900,"performance_score":0.91}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/logging/performance-metric",
		`{"session_id":"s1","agent_name":"DEBUG","metric_name":"performance_score","value":0.91,"unit":"ratio"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/logging/error",
		`{"session_id":"s1","agent_name":"DEBUG","error_type":"lint","message":"unused import","context":{"file":"a.ts"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/logging/session-summary",
		`{"session_id":"s1","total_executions":1,"succeeded":1,"failed":0,"average_score":0.91}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/logging/executions/exec_1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[service.ExecutionDetail](t, rec)
	assert.Equal(t, domain.ExecutionSucceeded, detail.Execution.Status)
	assert.Len(t, detail.ToolUsages, 1)

	rec = do(t, h, http.MethodGet, "/api/logging/executions?agent_name=DEBUG&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.AgentExecution](t, rec), 1)

	rec = do(t, h, http.MethodGet, "/api/logging/errors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	errs := decode[[]domain.ErrorLog](t, rec)
	require.Len(t, errs, 1)
	assert.JSONEq(t, `{"file":"a.ts"}`, errs[0].Context)

	rec = do(t, h, http.MethodGet, "/api/logging/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[domain.Stats](t, rec)
	assert.Equal(t, 1, stats.Counts.Executions)
	assert.Equal(t, 1.0, stats.SuccessRate)
	assert.Equal(t, 1, stats.ByTool["filesystem"].Calls)
}

func TestListExecutionsTimeWindow(t *testing.T) {
	h := newTestHandler(t, "")
	for id, startedAt := range map[string]string{
		"early": "2026-03-01T09:00:00Z",
		"later": "2026-03-01T09:00:00.9Z",
		"last":  "2026-03-01T18:05:00+09:00",
	} {
		rec := do(t, h, http.MethodPost, "/api/logging/agent-execution/start",
			`{"execution_id":"`+id+`","session_id":"s1","agent_name":"DEBUG","started_at":"`+startedAt+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	list := func(params url.Values) []string {
		rec := do(t, h, http.MethodGet, "/api/logging/executions?"+params.Encode(), "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		out := []string{}
		for _, exec := range decode[[]domain.AgentExecution](t, rec) {
			out = append(out, exec.ID)
		}
		return out
	}

	assert.Equal(t, []string{"last", "later", "early"}, list(url.Values{}))
	assert.Equal(t, []string{"last", "later"}, list(url.Values{"started_after": {"2026-03-01T10:00:00+01:00"}}))
	assert.Equal(t, []string{"later"}, list(url.Values{
		"started_after":  {"2026-03-01T09:00:00Z"},
		"started_before": {"2026-03-01T09:05:00Z"},
	}))

	rec := do(t, h, http.MethodGet, "/api/logging/executions?started_after=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	h := newTestHandler(t, "")

	rec := do(t, h, http.MethodPost, "/api/logging/agent-execution/complete", `{"execution_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[apiResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "missing")

	rec = do(t, h, http.MethodPost, "/api/logging/agent-execution/start", `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/logging/error", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/logging/executions?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/logging/executions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/logging/agent-execution/start", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWriteEndpointsRequireToken(t *testing.T) {
	h := newTestHandler(t, "s3cret")
	body := `{"session_id":"s1","metric_name":"latency","value":3}`

	rec := do(t, h, http.MethodPost, "/api/logging/performance-metric", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/logging/performance-metric", body, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/logging/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardAndHealth(t *testing.T) {
	h := newTestHandler(t, "")

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Agent Execution Log")

	rec = do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])

	rec = do(t, h, http.MethodGet, "/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
