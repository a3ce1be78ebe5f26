package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elderberry/agentops/internal/domain"
)

// sqlStore implements LogStore over database/sql. Timestamps are stored as
// fixed-width UTC text (domain.TimestampLayout) so both dialects sort and
// compare them by instant.
type sqlStore struct {
	db      *sql.DB
	dialect string
}

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

const defaultDBPingTimeout = 5 * time.Second

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS agent_executions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		task_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		mcp_tools TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		performance_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		result_summary TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_executions_session ON agent_executions (session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_executions_agent ON agent_executions (agent_name, started_at)`,
	`CREATE TABLE IF NOT EXISTS mcp_tool_usage (
		id TEXT PRIMARY KEY,
		execution_id TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		tool_name TEXT NOT NULL,
		operation TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mcp_tool_usage_execution ON mcp_tool_usage (execution_id)`,
	`CREATE TABLE IF NOT EXISTS performance_metrics (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL DEFAULT '',
		agent_name TEXT NOT NULL DEFAULT '',
		metric_name TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS error_logs (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL DEFAULT '',
		execution_id TEXT NOT NULL DEFAULT '',
		agent_name TEXT NOT NULL DEFAULT '',
		error_type TEXT NOT NULL,
		message TEXT NOT NULL,
		context TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_summaries (
		session_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL DEFAULT '',
		ended_at TEXT NOT NULL DEFAULT '',
		total_executions BIGINT NOT NULL DEFAULT 0,
		succeeded BIGINT NOT NULL DEFAULT 0,
		failed BIGINT NOT NULL DEFAULT 0,
		average_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	)`,
}

func (s *sqlStore) Load() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultDBPingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return domain.Internal(fmt.Sprintf("failed to connect to %s", s.dialect), err)
	}
	return s.migrate()
}

func (s *sqlStore) migrate() error {
	for _, statement := range migrations {
		if _, err := s.db.Exec(statement); err != nil {
			return domain.Internal("failed to apply schema", err)
		}
	}
	return nil
}

func (s *sqlStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// args accumulates query arguments and hands out dialect placeholders.
type args struct {
	dialect string
	values  []any
}

func (a *args) add(value any) string {
	a.values = append(a.values, value)
	if a.dialect == dialectPostgres {
		return fmt.Sprintf("$%d", len(a.values))
	}
	return "?"
}

func (s *sqlStore) newArgs() *args {
	return &args{dialect: s.dialect}
}

func (s *sqlStore) ExportState() (domain.State, error) {
	executions, err := s.ListExecutions(domain.ExecutionFilter{})
	if err != nil {
		return domain.State{}, err
	}
	usages, err := s.ListToolUsages("")
	if err != nil {
		return domain.State{}, err
	}
	metrics, err := s.ListMetrics("", 0)
	if err != nil {
		return domain.State{}, err
	}
	errorLogs, err := s.ListErrors(0)
	if err != nil {
		return domain.State{}, err
	}
	sessions, err := s.ListSessions()
	if err != nil {
		return domain.State{}, err
	}
	return domain.State{
		Executions: executions,
		ToolUsages: usages,
		Metrics:    metrics,
		Errors:     errorLogs,
		Sessions:   sessions,
	}, nil
}

func (s *sqlStore) InsertExecution(exec domain.AgentExecution) error {
	exec, err := canonicalExecution(exec)
	if err != nil {
		return err
	}
	tools, err := encodeTools(exec.MCPTools)
	if err != nil {
		return err
	}
	a := s.newArgs()
	query := fmt.Sprintf(`
		INSERT INTO agent_executions (
			id, session_id, agent_name, task_type, description, mcp_tools, status,
			duration_ms, performance_score, result_summary, error_message, started_at, finished_at
		) VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		a.add(exec.ID), a.add(exec.SessionID), a.add(exec.AgentName), a.add(exec.TaskType),
		a.add(exec.Description), a.add(tools), a.add(exec.Status), a.add(exec.DurationMS),
		a.add(exec.PerformanceScore), a.add(exec.ResultSummary), a.add(exec.ErrorMessage),
		a.add(exec.StartedAt), a.add(exec.FinishedAt),
	)
	if _, err := s.db.Exec(query, a.values...); err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict(fmt.Sprintf("execution %q already exists", exec.ID))
		}
		return domain.Internal("failed to insert execution", err)
	}
	return nil
}

func (s *sqlStore) UpdateExecution(exec domain.AgentExecution) error {
	exec, err := canonicalExecution(exec)
	if err != nil {
		return err
	}
	tools, err := encodeTools(exec.MCPTools)
	if err != nil {
		return err
	}
	a := s.newArgs()
	query := fmt.Sprintf(`
		UPDATE agent_executions SET
			session_id = %s, agent_name = %s, task_type = %s, description = %s, mcp_tools = %s,
			status = %s, duration_ms = %s, performance_score = %s, result_summary = %s,
			error_message = %s, started_at = %s, finished_at = %s
		WHERE id = %s`,
		a.add(exec.SessionID), a.add(exec.AgentName), a.add(exec.TaskType), a.add(exec.Description),
		a.add(tools), a.add(exec.Status), a.add(exec.DurationMS), a.add(exec.PerformanceScore),
		a.add(exec.ResultSummary), a.add(exec.ErrorMessage), a.add(exec.StartedAt), a.add(exec.FinishedAt),
		a.add(exec.ID),
	)
	result, err := s.db.Exec(query, a.values...)
	if err != nil {
		return domain.Internal("failed to update execution", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Internal("failed to read update result", err)
	}
	if affected == 0 {
		return domain.NotFound(fmt.Sprintf("execution %q not found", exec.ID))
	}
	return nil
}

const executionColumns = `id, session_id, agent_name, task_type, description, mcp_tools, status,
	duration_ms, performance_score, result_summary, error_message, started_at, finished_at`

func (s *sqlStore) GetExecution(id string) (domain.AgentExecution, error) {
	a := s.newArgs()
	query := "SELECT " + executionColumns + " FROM agent_executions WHERE id = " + a.add(id)
	rows, err := s.db.Query(query, a.values...)
	if err != nil {
		return domain.AgentExecution{}, domain.Internal("failed to load execution", err)
	}
	items, err := scanExecutions(rows)
	if err != nil {
		return domain.AgentExecution{}, err
	}
	if len(items) == 0 {
		return domain.AgentExecution{}, domain.NotFound(fmt.Sprintf("execution %q not found", id))
	}
	return items[0], nil
}

func (s *sqlStore) ListExecutions(filter domain.ExecutionFilter) ([]domain.AgentExecution, error) {
	filter, err := canonicalFilter(filter)
	if err != nil {
		return nil, err
	}
	a := s.newArgs()
	query := "SELECT " + executionColumns + " FROM agent_executions"
	conditions := []string{}

	if strings.TrimSpace(filter.SessionID) != "" {
		conditions = append(conditions, "session_id = "+a.add(filter.SessionID))
	}
	if strings.TrimSpace(filter.AgentName) != "" {
		conditions = append(conditions, "agent_name = "+a.add(filter.AgentName))
	}
	if strings.TrimSpace(filter.Status) != "" {
		conditions = append(conditions, "status = "+a.add(filter.Status))
	}
	if strings.TrimSpace(filter.StartedAfter) != "" {
		conditions = append(conditions, "started_at > "+a.add(filter.StartedAfter))
	}
	if strings.TrimSpace(filter.StartedBefore) != "" {
		conditions = append(conditions, "started_at < "+a.add(filter.StartedBefore))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + a.add(filter.Limit)
	}

	rows, err := s.db.Query(query, a.values...)
	if err != nil {
		return nil, domain.Internal("failed to list executions", err)
	}
	return scanExecutions(rows)
}

func scanExecutions(rows *sql.Rows) ([]domain.AgentExecution, error) {
	defer rows.Close()

	items := []domain.AgentExecution{}
	for rows.Next() {
		var item domain.AgentExecution
		var tools string
		if err := rows.Scan(
			&item.ID,
			&item.SessionID,
			&item.AgentName,
			&item.TaskType,
			&item.Description,
			&tools,
			&item.Status,
			&item.DurationMS,
			&item.PerformanceScore,
			&item.ResultSummary,
			&item.ErrorMessage,
			&item.StartedAt,
			&item.FinishedAt,
		); err != nil {
			return nil, domain.Internal("failed to decode execution row", err)
		}
		item.MCPTools = decodeTools(tools)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to iterate executions", err)
	}
	return items, nil
}

func (s *sqlStore) InsertToolUsage(usage domain.ToolUsage) error {
	usage, err := canonicalToolUsage(usage)
	if err != nil {
		return err
	}
	a := s.newArgs()
	query := fmt.Sprintf(`
		INSERT INTO mcp_tool_usage (id, execution_id, session_id, tool_name, operation, duration_ms, success, created_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		a.add(usage.ID), a.add(usage.ExecutionID), a.add(usage.SessionID), a.add(usage.ToolName),
		a.add(usage.Operation), a.add(usage.DurationMS), a.add(usage.Success), a.add(usage.CreatedAt),
	)
	if _, err := s.db.Exec(query, a.values...); err != nil {
		return domain.Internal("failed to insert tool usage", err)
	}
	return nil
}

func (s *sqlStore) ListToolUsages(executionID string) ([]domain.ToolUsage, error) {
	a := s.newArgs()
	query := `SELECT id, execution_id, session_id, tool_name, operation, duration_ms, success, created_at FROM mcp_tool_usage`
	if strings.TrimSpace(executionID) != "" {
		query += " WHERE execution_id = " + a.add(executionID)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.Query(query, a.values...)
	if err != nil {
		return nil, domain.Internal("failed to list tool usage", err)
	}
	defer rows.Close()

	items := []domain.ToolUsage{}
	for rows.Next() {
		var item domain.ToolUsage
		if err := rows.Scan(
			&item.ID,
			&item.ExecutionID,
			&item.SessionID,
			&item.ToolName,
			&item.Operation,
			&item.DurationMS,
			&item.Success,
			&item.CreatedAt,
		); err != nil {
			return nil, domain.Internal("failed to decode tool usage row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to iterate tool usage", err)
	}
	return items, nil
}

func (s *sqlStore) InsertMetric(metric domain.PerformanceMetric) error {
	metric, err := canonicalMetric(metric)
	if err != nil {
		return err
	}
	a := s.newArgs()
	query := fmt.Sprintf(`
		INSERT INTO performance_metrics (id, session_id, agent_name, metric_name, value, unit, created_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		a.add(metric.ID), a.add(metric.SessionID), a.add(metric.AgentName), a.add(metric.MetricName),
		a.add(metric.Value), a.add(metric.Unit), a.add(metric.CreatedAt),
	)
	if _, err := s.db.Exec(query, a.values...); err != nil {
		return domain.Internal("failed to insert metric", err)
	}
	return nil
}

func (s *sqlStore) ListMetrics(agentName string, limit int64) ([]domain.PerformanceMetric, error) {
	a := s.newArgs()
	query := `SELECT id, session_id, agent_name, metric_name, value, unit, created_at FROM performance_metrics`
	if strings.TrimSpace(agentName) != "" {
		query += " WHERE agent_name = " + a.add(agentName)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT " + a.add(limit)
	}

	rows, err := s.db.Query(query, a.values...)
	if err != nil {
		return nil, domain.Internal("failed to list metrics", err)
	}
	defer rows.Close()

	items := []domain.PerformanceMetric{}
	for rows.Next() {
		var item domain.PerformanceMetric
		if err := rows.Scan(&item.ID, &item.SessionID, &item.AgentName, &item.MetricName, &item.Value, &item.Unit, &item.CreatedAt); err != nil {
			return nil, domain.Internal("failed to decode metric row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to iterate metrics", err)
	}
	return items, nil
}

func (s *sqlStore) InsertError(entry domain.ErrorLog) error {
	entry, err := canonicalError(entry)
	if err != nil {
		return err
	}
	a := s.newArgs()
	query := fmt.Sprintf(`
		INSERT INTO error_logs (id, session_id, execution_id, agent_name, error_type, message, context, created_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		a.add(entry.ID), a.add(entry.SessionID), a.add(entry.ExecutionID), a.add(entry.AgentName),
		a.add(entry.ErrorType), a.add(entry.Message), a.add(entry.Context), a.add(entry.CreatedAt),
	)
	if _, err := s.db.Exec(query, a.values...); err != nil {
		return domain.Internal("failed to insert error log", err)
	}
	return nil
}

func (s *sqlStore) ListErrors(limit int64) ([]domain.ErrorLog, error) {
	a := s.newArgs()
	query := `SELECT id, session_id, execution_id, agent_name, error_type, message, context, created_at
		FROM error_logs ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += " LIMIT " + a.add(limit)
	}

	rows, err := s.db.Query(query, a.values...)
	if err != nil {
		return nil, domain.Internal("failed to list error logs", err)
	}
	defer rows.Close()

	items := []domain.ErrorLog{}
	for rows.Next() {
		var item domain.ErrorLog
		if err := rows.Scan(
			&item.ID,
			&item.SessionID,
			&item.ExecutionID,
			&item.AgentName,
			&item.ErrorType,
			&item.Message,
			&item.Context,
			&item.CreatedAt,
		); err != nil {
			return nil, domain.Internal("failed to decode error log row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to iterate error logs", err)
	}
	return items, nil
}

func (s *sqlStore) UpsertSession(summary domain.SessionSummary) error {
	summary, err := canonicalSession(summary)
	if err != nil {
		return err
	}
	a := s.newArgs()
	query := fmt.Sprintf(`
		INSERT INTO session_summaries (
			session_id, started_at, ended_at, total_executions, succeeded, failed, average_score, updated_at
		) VALUES (%s, %s, %s, %s, %s, %s, %s, %s)
		ON CONFLICT (session_id) DO UPDATE SET
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			total_executions = excluded.total_executions,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			average_score = excluded.average_score,
			updated_at = excluded.updated_at`,
		a.add(summary.SessionID), a.add(summary.StartedAt), a.add(summary.EndedAt), a.add(summary.TotalExecutions),
		a.add(summary.Succeeded), a.add(summary.Failed), a.add(summary.AverageScore), a.add(summary.UpdatedAt),
	)
	if _, err := s.db.Exec(query, a.values...); err != nil {
		return domain.Internal("failed to upsert session summary", err)
	}
	return nil
}

func (s *sqlStore) ListSessions() ([]domain.SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT session_id, started_at, ended_at, total_executions, succeeded, failed, average_score, updated_at
		FROM session_summaries ORDER BY updated_at DESC, session_id DESC`)
	if err != nil {
		return nil, domain.Internal("failed to list sessions", err)
	}
	defer rows.Close()

	items := []domain.SessionSummary{}
	for rows.Next() {
		var item domain.SessionSummary
		if err := rows.Scan(
			&item.SessionID,
			&item.StartedAt,
			&item.EndedAt,
			&item.TotalExecutions,
			&item.Succeeded,
			&item.Failed,
			&item.AverageScore,
			&item.UpdatedAt,
		); err != nil {
			return nil, domain.Internal("failed to decode session row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal("failed to iterate sessions", err)
	}
	return items, nil
}

func encodeTools(tools []string) (string, error) {
	if tools == nil {
		tools = []string{}
	}
	raw, err := json.Marshal(tools)
	if err != nil {
		return "", domain.Internal("failed to encode mcp tools", err)
	}
	return string(raw), nil
}

func decodeTools(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "sqlstate 23505")
}
