package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elderberry/agentops/internal/domain"
	"github.com/elderberry/agentops/internal/store"
)

func newTestService(t *testing.T) *LoggingService {
	t.Helper()
	logStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "agent-logs.db"))
	require.NoError(t, err)
	require.NoError(t, logStore.Load())
	t.Cleanup(func() { _ = logStore.Close() })
	return NewLoggingService(logStore, logStore.Path())
}

func TestExecutionLifecycle(t *testing.T) {
	svc := newTestService(t)

	exec, err := svc.StartExecution(StartExecutionRequest{
		ExecutionID: "exec_1",
		SessionID:   "session-1",
		AgentName:   " DEBUG ",
		TaskType:    "/rapid",
		MCPTools:    []string{"filesystem", " filesystem", ""},
		StartedAt:   "2026-03-01T18:00:00+09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", exec.AgentName)
	assert.Equal(t, domain.ExecutionRunning, exec.Status)
	assert.Equal(t, []string{"filesystem"}, exec.MCPTools)
	assert.Equal(t, "2026-03-01T09:00:00.000000000Z", exec.StartedAt)

	_, err = svc.RecordToolUsage(RecordToolUsageRequest{ExecutionID: "exec_1", SessionID: "session-1", ToolName: "filesystem", Operation: "read", DurationMS: 40, Success: true})
	require.NoError(t, err)

	done, err := svc.CompleteExecution(CompleteExecutionRequest{ExecutionID: "exec_1", Success: true, DurationMS: 1500, PerformanceScore: 0.85, ResultSummary: "patched"})
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionSucceeded, done.Status)
	assert.NotEmpty(t, done.FinishedAt)

	_, err = svc.CompleteExecution(CompleteExecutionRequest{ExecutionID: "exec_1", Success: false})
	assert.True(t, domain.HasCode(err, domain.CodeFailedPrecondition), "%v", err)

	detail, err := svc.GetExecution("exec_1")
	require.NoError(t, err)
	assert.Equal(t, "patched", detail.Execution.ResultSummary)
	require.Len(t, detail.ToolUsages, 1)
	assert.Equal(t, "read", detail.ToolUsages[0].Operation)

	_, err = svc.GetExecution("exec_404")
	assert.True(t, domain.IsNotFound(err))
}

func TestListExecutionsOrdersByInstant(t *testing.T) {
	svc := newTestService(t)
	for id, startedAt := range map[string]string{
		"early": "2026-03-01T09:00:00Z",
		"later": "2026-03-01T09:00:00.9Z",
		"last":  "2026-03-01T19:00:01+09:00",
	} {
		_, err := svc.StartExecution(StartExecutionRequest{ExecutionID: id, SessionID: "s", AgentName: "DEBUG", StartedAt: startedAt})
		require.NoError(t, err)
	}

	ids := func(filter domain.ExecutionFilter) []string {
		items, err := svc.ListExecutions(filter)
		require.NoError(t, err)
		out := []string{}
		for _, item := range items {
			out = append(out, item.ID)
		}
		return out
	}

	assert.Equal(t, []string{"last", "later", "early"}, ids(domain.ExecutionFilter{}))
	assert.Equal(t, []string{"last", "later"}, ids(domain.ExecutionFilter{StartedAfter: "2026-03-01T09:00:00Z"}))
	assert.Equal(t, []string{"last", "later"}, ids(domain.ExecutionFilter{StartedAfter: "2026-03-01T10:00:00+01:00"}))
	assert.Equal(t, []string{"early"}, ids(domain.ExecutionFilter{StartedBefore: "2026-03-01T09:00:00.5Z"}))
}

func TestStartExecutionGeneratesID(t *testing.T) {
	svc := newTestService(t)
	exec, err := svc.StartExecution(StartExecutionRequest{SessionID: "s", AgentName: "GOOGLE_SEO"})
	require.NoError(t, err)
	assert.Regexp(t, `^exec_[0-9a-f]{8}-[0-9a-f]{4}-7`, exec.ID)
	assert.NotEmpty(t, exec.StartedAt)
}

func TestValidation(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name string
		call func() error
	}{
		{"start without agent", func() error {
			_, err := svc.StartExecution(StartExecutionRequest{SessionID: "s"})
			return err
		}},
		{"start with bad timestamp", func() error {
			_, err := svc.StartExecution(StartExecutionRequest{SessionID: "s", AgentName: "DEBUG", StartedAt: "yesterday"})
			return err
		}},
		{"complete without id", func() error {
			_, err := svc.CompleteExecution(CompleteExecutionRequest{})
			return err
		}},
		{"complete with score above one", func() error {
			_, err := svc.CompleteExecution(CompleteExecutionRequest{ExecutionID: "x", PerformanceScore: 1.2})
			return err
		}},
		{"tool usage without name", func() error {
			_, err := svc.RecordToolUsage(RecordToolUsageRequest{ExecutionID: "x"})
			return err
		}},
		{"metric without name", func() error {
			_, err := svc.RecordMetric(RecordMetricRequest{Value: 1})
			return err
		}},
		{"error without message", func() error {
			_, err := svc.RecordError(RecordErrorRequest{ErrorType: "timeout"})
			return err
		}},
		{"session with inconsistent counts", func() error {
			_, err := svc.RecordSessionSummary(RecordSessionSummaryRequest{SessionID: "s", TotalExecutions: 1, Succeeded: 1, Failed: 1})
			return err
		}},
		{"list with unknown status", func() error {
			_, err := svc.ListExecutions(domain.ExecutionFilter{Status: "paused"})
			return err
		}},
		{"list with unparsable started_after", func() error {
			_, err := svc.ListExecutions(domain.ExecutionFilter{StartedAfter: "last tuesday"})
			return err
		}},
		{"list with unparsable started_before", func() error {
			_, err := svc.ListExecutions(domain.ExecutionFilter{StartedBefore: "2026-03-01"})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument), "%v", err)
		})
	}
}

func TestRecordErrorEncodesContext(t *testing.T) {
	svc := newTestService(t)

	entry, err := svc.RecordError(RecordErrorRequest{Message: "step failed", Context: map[string]any{"attempts": "3"}})
	require.NoError(t, err)
	assert.Equal(t, "error", entry.ErrorType)
	assert.JSONEq(t, `{"attempts":"3"}`, entry.Context)

	entry, err = svc.RecordError(RecordErrorRequest{Message: "plain", Context: " raw text "})
	require.NoError(t, err)
	assert.Equal(t, "raw text", entry.Context)

	errs, err := svc.ListErrors(0)
	require.NoError(t, err)
	assert.Len(t, errs, 2)
}

func TestSessionSummaryUpsert(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RecordSessionSummary(RecordSessionSummaryRequest{SessionID: "s1", TotalExecutions: 2, Succeeded: 1, Failed: 1, AverageScore: 0.4})
	require.NoError(t, err)
	_, err = svc.RecordSessionSummary(RecordSessionSummaryRequest{SessionID: "s1", TotalExecutions: 3, Succeeded: 2, Failed: 1, AverageScore: 0.6})
	require.NoError(t, err)

	sessions, err := svc.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.EqualValues(t, 3, sessions[0].TotalExecutions)
}

func TestComputeStats(t *testing.T) {
	state := domain.EmptyState()
	state.Executions = []domain.AgentExecution{
		{ID: "a", AgentName: "DEBUG", Status: domain.ExecutionSucceeded, DurationMS: 1000, PerformanceScore: 0.9},
		{ID: "b", AgentName: "DEBUG", Status: domain.ExecutionFailed, DurationMS: 3000},
		{ID: "c", AgentName: "GOOGLE_SEO", Status: domain.ExecutionSucceeded, DurationMS: 2000, PerformanceScore: 0.8},
		{ID: "d", AgentName: "GOOGLE_SEO", Status: domain.ExecutionRunning},
	}
	state.ToolUsages = []domain.ToolUsage{
		{ToolName: "filesystem", DurationMS: 10, Success: true},
		{ToolName: "filesystem", DurationMS: 30, Success: false},
		{ToolName: "github", DurationMS: 5, Success: true},
	}

	stats := ComputeStats(state)
	assert.Equal(t, 4, stats.Counts.Executions)
	assert.Equal(t, 1, stats.Counts.Running)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 2000, stats.AverageDurationMS, 1e-9)
	assert.InDelta(t, 1.7/3, stats.AverageScore, 1e-9)

	debug := stats.ByAgent["DEBUG"]
	assert.Equal(t, 2, debug.Executions)
	assert.Equal(t, 0.5, debug.SuccessRate)
	assert.Equal(t, 2000.0, debug.AverageDurationMS)

	seo := stats.ByAgent["GOOGLE_SEO"]
	assert.Equal(t, 2, seo.Executions)
	assert.Equal(t, 1.0, seo.SuccessRate)

	fs := stats.ByTool["filesystem"]
	assert.Equal(t, 2, fs.Calls)
	assert.Equal(t, 1, fs.Failures)
	assert.Equal(t, 20.0, fs.AverageDurationMS)
}

func TestStatsFromStore(t *testing.T) {
	svc := newTestService(t)
	for _, id := range []string{"e1", "e2"} {
		_, err := svc.StartExecution(StartExecutionRequest{ExecutionID: id, SessionID: "s", AgentName: "DEBUG"})
		require.NoError(t, err)
	}
	_, err := svc.CompleteExecution(CompleteExecutionRequest{ExecutionID: "e1", Success: true, DurationMS: 100, PerformanceScore: 0.99})
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Counts.Executions)
	assert.Equal(t, 1, stats.Counts.Running)
	assert.Equal(t, 1.0, stats.SuccessRate)
}
