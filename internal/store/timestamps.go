package store

import "github.com/elderberry/agentops/internal/domain"

// Both drivers order and filter on timestamp text, so every record is
// canonicalised to domain.TimestampLayout before it is written.

func canonicalExecution(exec domain.AgentExecution) (domain.AgentExecution, error) {
	var err error
	if exec.StartedAt, err = domain.CanonicalTimestamp("started_at", exec.StartedAt); err != nil {
		return exec, err
	}
	exec.FinishedAt, err = domain.CanonicalTimestamp("finished_at", exec.FinishedAt)
	return exec, err
}

func canonicalFilter(filter domain.ExecutionFilter) (domain.ExecutionFilter, error) {
	var err error
	if filter.StartedAfter, err = domain.CanonicalTimestamp("started_after", filter.StartedAfter); err != nil {
		return filter, err
	}
	filter.StartedBefore, err = domain.CanonicalTimestamp("started_before", filter.StartedBefore)
	return filter, err
}

func canonicalToolUsage(usage domain.ToolUsage) (domain.ToolUsage, error) {
	var err error
	usage.CreatedAt, err = domain.CanonicalTimestamp("created_at", usage.CreatedAt)
	return usage, err
}

func canonicalMetric(metric domain.PerformanceMetric) (domain.PerformanceMetric, error) {
	var err error
	metric.CreatedAt, err = domain.CanonicalTimestamp("created_at", metric.CreatedAt)
	return metric, err
}

func canonicalError(entry domain.ErrorLog) (domain.ErrorLog, error) {
	var err error
	entry.CreatedAt, err = domain.CanonicalTimestamp("created_at", entry.CreatedAt)
	return entry, err
}

func canonicalSession(summary domain.SessionSummary) (domain.SessionSummary, error) {
	var err error
	if summary.StartedAt, err = domain.CanonicalTimestamp("started_at", summary.StartedAt); err != nil {
		return summary, err
	}
	if summary.EndedAt, err = domain.CanonicalTimestamp("ended_at", summary.EndedAt); err != nil {
		return summary, err
	}
	summary.UpdatedAt, err = domain.CanonicalTimestamp("updated_at", summary.UpdatedAt)
	return summary, err
}
