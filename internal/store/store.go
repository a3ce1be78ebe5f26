package store

import "github.com/elderberry/agentops/internal/domain"

// LogStore is the persistence contract used by the logging service.
type LogStore interface {
	Load() error
	Close() error

	ExportState() (domain.State, error)

	InsertExecution(domain.AgentExecution) error
	UpdateExecution(domain.AgentExecution) error
	GetExecution(id string) (domain.AgentExecution, error)
	ListExecutions(filter domain.ExecutionFilter) ([]domain.AgentExecution, error)

	InsertToolUsage(domain.ToolUsage) error
	ListToolUsages(executionID string) ([]domain.ToolUsage, error)

	InsertMetric(domain.PerformanceMetric) error
	ListMetrics(agentName string, limit int64) ([]domain.PerformanceMetric, error)

	InsertError(domain.ErrorLog) error
	ListErrors(limit int64) ([]domain.ErrorLog, error)

	UpsertSession(domain.SessionSummary) error
	ListSessions() ([]domain.SessionSummary, error)
}
