package store

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elderberry/agentops/internal/domain"
)

func openStores(t *testing.T) map[string]LogStore {
	t.Helper()
	dir := t.TempDir()

	fileStore := NewFileStore(filepath.Join(dir, "state.json"))
	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "logs", "agent-logs.db"))
	require.NoError(t, err)

	stores := map[string]LogStore{"file": fileStore, "sqlite": sqliteStore}
	for name, s := range stores {
		require.NoError(t, s.Load(), name)
		t.Cleanup(func() { _ = s.Close() })
	}
	return stores
}

func seedExecutions(t *testing.T, s LogStore) {
	t.Helper()
	for _, exec := range []domain.AgentExecution{
		{ID: "exec_a", SessionID: "s1", AgentName: "DEBUG", TaskType: "/rapid", MCPTools: []string{"filesystem"}, Status: domain.ExecutionSucceeded, DurationMS: 1200, PerformanceScore: 0.88, StartedAt: "2026-03-01T09:00:00Z", FinishedAt: "2026-03-01T09:00:01.2Z"},
		{ID: "exec_b", SessionID: "s1", AgentName: "CLAUDE_GUIDE", TaskType: "/auto", MCPTools: []string{"context7", "memory"}, Status: domain.ExecutionFailed, DurationMS: 4000, ErrorMessage: "boom", StartedAt: "2026-03-01T09:01:00Z", FinishedAt: "2026-03-01T09:01:04Z"},
		{ID: "exec_c", SessionID: "s2", AgentName: "DEBUG", TaskType: "/rapid", MCPTools: []string{}, Status: domain.ExecutionRunning, StartedAt: "2026-03-01T09:02:00Z"},
	} {
		require.NoError(t, s.InsertExecution(exec))
	}
}

func TestExecutionsRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			seedExecutions(t, s)

			got, err := s.GetExecution("exec_b")
			require.NoError(t, err)
			assert.Equal(t, []string{"context7", "memory"}, got.MCPTools)
			assert.Equal(t, "boom", got.ErrorMessage)

			_, err = s.GetExecution("missing")
			assert.True(t, domain.IsNotFound(err))

			err = s.InsertExecution(domain.AgentExecution{ID: "exec_a", SessionID: "s1", AgentName: "DEBUG", Status: domain.ExecutionRunning, StartedAt: "2026-03-01T10:00:00Z"})
			assert.True(t, domain.HasCode(err, domain.CodeConflict), "%v", err)

			running, err := s.GetExecution("exec_c")
			require.NoError(t, err)
			running.Status = domain.ExecutionSucceeded
			running.DurationMS = 300
			running.FinishedAt = "2026-03-01T09:02:00.300000000Z"
			require.NoError(t, s.UpdateExecution(running))

			updated, err := s.GetExecution("exec_c")
			require.NoError(t, err)
			if diff := cmp.Diff(running, updated); diff != "" {
				t.Fatalf("updated execution mismatch (-want +got):\n%s", diff)
			}

			err = s.UpdateExecution(domain.AgentExecution{ID: "ghost"})
			assert.True(t, domain.IsNotFound(err))
		})
	}
}

func TestListExecutionsFilters(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			seedExecutions(t, s)
			// Half a second after exec_a, written with a +09:00 offset.
			require.NoError(t, s.InsertExecution(domain.AgentExecution{
				ID: "exec_d", SessionID: "s2", AgentName: "DEBUG", Status: domain.ExecutionRunning,
				StartedAt: "2026-03-01T18:00:00.5+09:00",
			}))

			ids := func(filter domain.ExecutionFilter) []string {
				items, err := s.ListExecutions(filter)
				require.NoError(t, err)
				out := []string{}
				for _, item := range items {
					out = append(out, item.ID)
				}
				return out
			}

			cases := []struct {
				name   string
				filter domain.ExecutionFilter
				want   []string
			}{
				{"all newest first", domain.ExecutionFilter{}, []string{"exec_c", "exec_b", "exec_d", "exec_a"}},
				{"by agent", domain.ExecutionFilter{AgentName: "DEBUG"}, []string{"exec_c", "exec_d", "exec_a"}},
				{"by session", domain.ExecutionFilter{SessionID: "s1"}, []string{"exec_b", "exec_a"}},
				{"by status", domain.ExecutionFilter{Status: domain.ExecutionFailed}, []string{"exec_b"}},
				{"limit", domain.ExecutionFilter{Limit: 1}, []string{"exec_c"}},
				{"window", domain.ExecutionFilter{
					StartedAfter:  "2026-03-01T09:00:00Z",
					StartedBefore: "2026-03-01T09:02:00Z",
				}, []string{"exec_b", "exec_d"}},
				{"after with offset", domain.ExecutionFilter{StartedAfter: "2026-03-01T10:00:00+01:00"}, []string{"exec_c", "exec_b", "exec_d"}},
				{"before fractional", domain.ExecutionFilter{StartedBefore: "2026-03-01T09:00:00.9Z"}, []string{"exec_d", "exec_a"}},
			}
			for _, tc := range cases {
				assert.Equal(t, tc.want, ids(tc.filter), tc.name)
			}

			_, err := s.ListExecutions(domain.ExecutionFilter{StartedAfter: "soon"})
			assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument), "%v", err)
		})
	}
}

func TestTimestampsStoredCanonical(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			seedExecutions(t, s)
			got, err := s.GetExecution("exec_a")
			require.NoError(t, err)
			assert.Equal(t, "2026-03-01T09:00:00.000000000Z", got.StartedAt)
			assert.Equal(t, "2026-03-01T09:00:01.200000000Z", got.FinishedAt)

			require.NoError(t, s.InsertError(domain.ErrorLog{ID: "e_whole", ErrorType: "x", Message: "m", CreatedAt: "2026-03-01T09:00:00Z"}))
			require.NoError(t, s.InsertError(domain.ErrorLog{ID: "e_frac", ErrorType: "x", Message: "m", CreatedAt: "2026-03-01T09:00:00.25Z"}))
			errs, err := s.ListErrors(0)
			require.NoError(t, err)
			require.Len(t, errs, 2)
			assert.Equal(t, "e_frac", errs[0].ID)

			err = s.InsertMetric(domain.PerformanceMetric{ID: "m", MetricName: "x", CreatedAt: "not a time"})
			assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument), "%v", err)
		})
	}
}

func TestAuxiliaryRecords(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.InsertToolUsage(domain.ToolUsage{ID: "tool_2", ExecutionID: "exec_a", ToolName: "memory", Success: false, DurationMS: 30, CreatedAt: "2026-03-01T09:00:02Z"}))
			require.NoError(t, s.InsertToolUsage(domain.ToolUsage{ID: "tool_1", ExecutionID: "exec_a", ToolName: "filesystem", Success: true, DurationMS: 20, CreatedAt: "2026-03-01T09:00:01Z"}))
			require.NoError(t, s.InsertToolUsage(domain.ToolUsage{ID: "tool_3", ExecutionID: "exec_b", ToolName: "context7", Success: true, CreatedAt: "2026-03-01T09:01:01Z"}))

			usages, err := s.ListToolUsages("exec_a")
			require.NoError(t, err)
			require.Len(t, usages, 2)
			assert.Equal(t, "tool_1", usages[0].ID)
			assert.True(t, usages[0].Success)
			assert.False(t, usages[1].Success)

			all, err := s.ListToolUsages("")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, s.InsertMetric(domain.PerformanceMetric{ID: "m1", AgentName: "DEBUG", MetricName: "performance_score", Value: 0.5, Unit: "ratio", CreatedAt: "2026-03-01T09:00:00Z"}))
			require.NoError(t, s.InsertMetric(domain.PerformanceMetric{ID: "m2", AgentName: "SECURITY_AUDIT", MetricName: "performance_score", Value: 0.9, Unit: "ratio", CreatedAt: "2026-03-01T09:05:00Z"}))
			metrics, err := s.ListMetrics("DEBUG", 0)
			require.NoError(t, err)
			require.Len(t, metrics, 1)
			assert.Equal(t, 0.5, metrics[0].Value)

			require.NoError(t, s.InsertError(domain.ErrorLog{ID: "e1", ErrorType: "timeout", Message: "slow", CreatedAt: "2026-03-01T09:00:00Z"}))
			require.NoError(t, s.InsertError(domain.ErrorLog{ID: "e2", ErrorType: "crash", Message: "panic", Context: `{"attempt":"2"}`, CreatedAt: "2026-03-01T09:10:00Z"}))
			errs, err := s.ListErrors(1)
			require.NoError(t, err)
			require.Len(t, errs, 1)
			assert.Equal(t, "e2", errs[0].ID)
			assert.Equal(t, `{"attempt":"2"}`, errs[0].Context)

			first := domain.SessionSummary{SessionID: "s1", TotalExecutions: 1, Succeeded: 1, AverageScore: 0.9, UpdatedAt: "2026-03-01T09:00:00Z"}
			require.NoError(t, s.UpsertSession(first))
			first.TotalExecutions, first.Failed, first.UpdatedAt = 2, 1, "2026-03-01T09:30:00Z"
			require.NoError(t, s.UpsertSession(first))
			sessions, err := s.ListSessions()
			require.NoError(t, err)
			require.Len(t, sessions, 1)
			assert.EqualValues(t, 2, sessions[0].TotalExecutions)
			assert.EqualValues(t, 1, sessions[0].Failed)
		})
	}
}

func TestExportStateMatchesAcrossDrivers(t *testing.T) {
	stores := openStores(t)
	states := map[string]domain.State{}
	for name, s := range stores {
		seedExecutions(t, s)
		require.NoError(t, s.InsertToolUsage(domain.ToolUsage{ID: "tool_1", ExecutionID: "exec_a", ToolName: "filesystem", Success: true, CreatedAt: "2026-03-01T09:00:01Z"}))
		state, err := s.ExportState()
		require.NoError(t, err)
		states[name] = state
	}
	if diff := cmp.Diff(states["file"], states["sqlite"]); diff != "" {
		t.Fatalf("file and sqlite exports differ (-file +sqlite):\n%s", diff)
	}
}

func TestFileStorePersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	first := NewFileStore(path)
	require.NoError(t, first.Load())
	seedExecutions(t, first)

	second := NewFileStore(path)
	require.NoError(t, second.Load())
	items, err := second.ListExecutions(domain.ExecutionFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent-logs.db")
	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Load())
	seedExecutions(t, first)
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Load())
	got, err := second.GetExecution("exec_a")
	require.NoError(t, err)
	assert.Equal(t, 0.88, got.PerformanceScore)
}

func TestPostgresStoreRequiresDSN(t *testing.T) {
	_, err := NewPostgresStore("  ")
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidArgument))
}
