package store

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/elderberry/agentops/internal/domain"
)

// FileStore keeps the whole log state in one JSON document, rewritten
// atomically on every mutation.
type FileStore struct {
	path  string
	mu    sync.RWMutex
	state domain.State
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:  path,
		state: domain.EmptyState(),
	}
}

func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.Internal("failed to create data directory", err)
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.state = domain.EmptyState()
			return s.persistLocked()
		}
		return domain.Internal("failed to read data file", err)
	}

	var parsed domain.State
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.Internal("failed to parse data file", err)
	}
	s.state = withDefaults(parsed)
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) Snapshot() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

func (s *FileStore) Mutate(mutate func(*domain.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneState(s.state)
	if err := mutate(&next); err != nil {
		return err
	}

	s.state = withDefaults(next)
	return s.persistLocked()
}

func (s *FileStore) persistLocked() error {
	serialized, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return domain.Internal("failed to serialize state", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, append(serialized, '\n'), 0o600); err != nil {
		return domain.Internal("failed to write temporary state file", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return domain.Internal("failed to atomically persist state file", err)
	}
	return nil
}

func withDefaults(state domain.State) domain.State {
	if state.Executions == nil {
		state.Executions = []domain.AgentExecution{}
	}
	if state.ToolUsages == nil {
		state.ToolUsages = []domain.ToolUsage{}
	}
	if state.Metrics == nil {
		state.Metrics = []domain.PerformanceMetric{}
	}
	if state.Errors == nil {
		state.Errors = []domain.ErrorLog{}
	}
	if state.Sessions == nil {
		state.Sessions = []domain.SessionSummary{}
	}
	for i := range state.Executions {
		if state.Executions[i].MCPTools == nil {
			state.Executions[i].MCPTools = []string{}
		}
	}
	return state
}

func cloneState(in domain.State) domain.State {
	raw, _ := json.Marshal(in)
	var out domain.State
	_ = json.Unmarshal(raw, &out)
	return withDefaults(out)
}

// ExportState returns the snapshot ordered like the list methods.
func (s *FileStore) ExportState() (domain.State, error) {
	state := s.Snapshot()
	newestFirst(state.Executions, func(e domain.AgentExecution) (string, string) { return e.StartedAt, e.ID })
	slices.SortStableFunc(state.ToolUsages, func(a, b domain.ToolUsage) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	newestFirst(state.Metrics, func(m domain.PerformanceMetric) (string, string) { return m.CreatedAt, m.ID })
	newestFirst(state.Errors, func(e domain.ErrorLog) (string, string) { return e.CreatedAt, e.ID })
	newestFirst(state.Sessions, func(v domain.SessionSummary) (string, string) { return v.UpdatedAt, v.SessionID })
	return state, nil
}

func (s *FileStore) InsertExecution(exec domain.AgentExecution) error {
	exec, err := canonicalExecution(exec)
	if err != nil {
		return err
	}
	return s.Mutate(func(state *domain.State) error {
		for _, item := range state.Executions {
			if item.ID == exec.ID {
				return domain.Conflict(fmt.Sprintf("execution %q already exists", exec.ID))
			}
		}
		state.Executions = append(state.Executions, exec)
		return nil
	})
}

func (s *FileStore) UpdateExecution(exec domain.AgentExecution) error {
	exec, err := canonicalExecution(exec)
	if err != nil {
		return err
	}
	return s.Mutate(func(state *domain.State) error {
		for i := range state.Executions {
			if state.Executions[i].ID == exec.ID {
				state.Executions[i] = exec
				return nil
			}
		}
		return domain.NotFound(fmt.Sprintf("execution %q not found", exec.ID))
	})
}

func (s *FileStore) GetExecution(id string) (domain.AgentExecution, error) {
	for _, item := range s.Snapshot().Executions {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.AgentExecution{}, domain.NotFound(fmt.Sprintf("execution %q not found", id))
}

func (s *FileStore) ListExecutions(filter domain.ExecutionFilter) ([]domain.AgentExecution, error) {
	filter, err := canonicalFilter(filter)
	if err != nil {
		return nil, err
	}
	items := s.Snapshot().Executions
	newestFirst(items, func(e domain.AgentExecution) (string, string) { return e.StartedAt, e.ID })

	out := make([]domain.AgentExecution, 0, len(items))
	for _, item := range items {
		if filter.SessionID != "" && item.SessionID != filter.SessionID {
			continue
		}
		if filter.AgentName != "" && item.AgentName != filter.AgentName {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.StartedAfter != "" && item.StartedAt <= filter.StartedAfter {
			continue
		}
		if filter.StartedBefore != "" && item.StartedAt >= filter.StartedBefore {
			continue
		}
		out = append(out, item)
		if filter.Limit > 0 && int64(len(out)) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *FileStore) InsertToolUsage(usage domain.ToolUsage) error {
	usage, err := canonicalToolUsage(usage)
	if err != nil {
		return err
	}
	return s.Mutate(func(state *domain.State) error {
		state.ToolUsages = append(state.ToolUsages, usage)
		return nil
	})
}

func (s *FileStore) ListToolUsages(executionID string) ([]domain.ToolUsage, error) {
	items := s.Snapshot().ToolUsages
	out := make([]domain.ToolUsage, 0, len(items))
	for _, item := range items {
		if executionID != "" && item.ExecutionID != executionID {
			continue
		}
		out = append(out, item)
	}
	slices.SortStableFunc(out, func(a, b domain.ToolUsage) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *FileStore) InsertMetric(metric domain.PerformanceMetric) error {
	metric, err := canonicalMetric(metric)
	if err != nil {
		return err
	}
	return s.Mutate(func(state *domain.State) error {
		state.Metrics = append(state.Metrics, metric)
		return nil
	})
}

func (s *FileStore) ListMetrics(agentName string, limit int64) ([]domain.PerformanceMetric, error) {
	items := s.Snapshot().Metrics
	newestFirst(items, func(m domain.PerformanceMetric) (string, string) { return m.CreatedAt, m.ID })

	out := make([]domain.PerformanceMetric, 0, len(items))
	for _, item := range items {
		if agentName != "" && item.AgentName != agentName {
			continue
		}
		out = append(out, item)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (s *FileStore) InsertError(entry domain.ErrorLog) error {
	entry, err := canonicalError(entry)
	if err != nil {
		return err
	}
	return s.Mutate(func(state *domain.State) error {
		state.Errors = append(state.Errors, entry)
		return nil
	})
}

func (s *FileStore) ListErrors(limit int64) ([]domain.ErrorLog, error) {
	items := s.Snapshot().Errors
	newestFirst(items, func(e domain.ErrorLog) (string, string) { return e.CreatedAt, e.ID })
	if limit > 0 && int64(len(items)) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *FileStore) UpsertSession(summary domain.SessionSummary) error {
	summary, err := canonicalSession(summary)
	if err != nil {
		return err
	}
	return s.Mutate(func(state *domain.State) error {
		for i := range state.Sessions {
			if state.Sessions[i].SessionID == summary.SessionID {
				state.Sessions[i] = summary
				return nil
			}
		}
		state.Sessions = append(state.Sessions, summary)
		return nil
	})
}

func (s *FileStore) ListSessions() ([]domain.SessionSummary, error) {
	items := s.Snapshot().Sessions
	newestFirst(items, func(v domain.SessionSummary) (string, string) { return v.UpdatedAt, v.SessionID })
	return items, nil
}

// newestFirst sorts by canonical timestamp then id, both descending,
// matching the SQL stores' ORDER BY.
func newestFirst[T any](items []T, key func(T) (string, string)) {
	slices.SortStableFunc(items, func(a, b T) int {
		at, aid := key(a)
		bt, bid := key(b)
		return cmp.Or(cmp.Compare(bt, at), cmp.Compare(bid, aid))
	})
}
