package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/elderberry/agentops/internal/domain"
	"github.com/elderberry/agentops/internal/store"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type LoggingService struct {
	store      store.LogStore
	dataSource string
}

func NewLoggingService(store store.LogStore, dataSource string) *LoggingService {
	return &LoggingService{
		store:      store,
		dataSource: dataSource,
	}
}

type StartExecutionRequest struct {
	ExecutionID string   `json:"execution_id"`
	SessionID   string   `json:"session_id"`
	AgentName   string   `json:"agent_name"`
	TaskType    string   `json:"task_type"`
	Description string   `json:"description"`
	MCPTools    []string `json:"mcp_tools"`
	StartedAt   string   `json:"started_at"`
}

type CompleteExecutionRequest struct {
	ExecutionID      string  `json:"execution_id"`
	Success          bool    `json:"success"`
	DurationMS       int64   `json:"duration_ms"`
	PerformanceScore float64 `json:"performance_score"`
	ResultSummary    string  `json:"result_summary"`
	ErrorMessage     string  `json:"error_message"`
	FinishedAt       string  `json:"finished_at"`
}

type RecordToolUsageRequest struct {
	ExecutionID string `json:"execution_id"`
	SessionID   string `json:"session_id"`
	ToolName    string `json:"tool_name"`
	Operation   string `json:"operation"`
	DurationMS  int64  `json:"duration_ms"`
	Success     bool   `json:"success"`
}

type RecordMetricRequest struct {
	SessionID  string  `json:"session_id"`
	AgentName  string  `json:"agent_name"`
	MetricName string  `json:"metric_name"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
}

type RecordErrorRequest struct {
	SessionID   string `json:"session_id"`
	ExecutionID string `json:"execution_id"`
	AgentName   string `json:"agent_name"`
	ErrorType   string `json:"error_type"`
	Message     string `json:"message"`
	// Context is stored as text; objects are re-encoded as JSON.
	Context any `json:"context"`
}

type RecordSessionSummaryRequest struct {
	SessionID       string  `json:"session_id"`
	StartedAt       string  `json:"started_at"`
	EndedAt         string  `json:"ended_at"`
	TotalExecutions int64   `json:"total_executions"`
	Succeeded       int64   `json:"succeeded"`
	Failed          int64   `json:"failed"`
	AverageScore    float64 `json:"average_score"`
}

type ExecutionDetail struct {
	Execution  domain.AgentExecution `json:"execution"`
	ToolUsages []domain.ToolUsage    `json:"tool_usages"`
}

func (s *LoggingService) Health() map[string]any {
	return map[string]any{
		"status":      "ok",
		"data_source": s.dataSource,
		"time_utc":    timeNow(),
	}
}

func (s *LoggingService) ExportState() (domain.State, error) {
	return s.store.ExportState()
}

func (s *LoggingService) StartExecution(request StartExecutionRequest) (domain.AgentExecution, error) {
	sessionID := strings.TrimSpace(request.SessionID)
	agent := strings.TrimSpace(request.AgentName)
	if sessionID == "" || agent == "" {
		return domain.AgentExecution{}, domain.InvalidArgument("session_id and agent_name are required")
	}
	startedAt, err := normalizeTimestamp("started_at", request.StartedAt)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	id := strings.TrimSpace(request.ExecutionID)
	if id == "" {
		id = newID("exec")
	}
	exec := domain.AgentExecution{
		ID:          id,
		SessionID:   sessionID,
		AgentName:   agent,
		TaskType:    strings.TrimSpace(request.TaskType),
		Description: strings.TrimSpace(request.Description),
		MCPTools:    normalizeTools(request.MCPTools),
		Status:      domain.ExecutionRunning,
		StartedAt:   startedAt,
	}
	if err := s.store.InsertExecution(exec); err != nil {
		return domain.AgentExecution{}, err
	}
	return exec, nil
}

func (s *LoggingService) CompleteExecution(request CompleteExecutionRequest) (domain.AgentExecution, error) {
	id := strings.TrimSpace(request.ExecutionID)
	if id == "" {
		return domain.AgentExecution{}, domain.InvalidArgument("execution_id is required")
	}
	if request.DurationMS < 0 {
		return domain.AgentExecution{}, domain.InvalidArgument("duration_ms must be non-negative")
	}
	if math.IsNaN(request.PerformanceScore) || request.PerformanceScore < 0 || request.PerformanceScore > 1 {
		return domain.AgentExecution{}, domain.InvalidArgument("performance_score must be within [0,1]")
	}
	finishedAt, err := normalizeTimestamp("finished_at", request.FinishedAt)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	exec, err := s.store.GetExecution(id)
	if err != nil {
		return domain.AgentExecution{}, err
	}
	if exec.Status != domain.ExecutionRunning {
		return domain.AgentExecution{}, domain.FailedPrecondition(fmt.Sprintf("execution %q already %s", id, exec.Status))
	}

	exec.Status = domain.ExecutionFailed
	if request.Success {
		exec.Status = domain.ExecutionSucceeded
	}
	exec.DurationMS = request.DurationMS
	exec.PerformanceScore = request.PerformanceScore
	exec.ResultSummary = strings.TrimSpace(request.ResultSummary)
	exec.ErrorMessage = strings.TrimSpace(request.ErrorMessage)
	exec.FinishedAt = finishedAt
	if err := s.store.UpdateExecution(exec); err != nil {
		return domain.AgentExecution{}, err
	}
	return exec, nil
}

func (s *LoggingService) RecordToolUsage(request RecordToolUsageRequest) (domain.ToolUsage, error) {
	tool := strings.TrimSpace(request.ToolName)
	if tool == "" {
		return domain.ToolUsage{}, domain.InvalidArgument("tool_name is required")
	}
	if request.DurationMS < 0 {
		return domain.ToolUsage{}, domain.InvalidArgument("duration_ms must be non-negative")
	}

	usage := domain.ToolUsage{
		ID:          newID("tool"),
		ExecutionID: strings.TrimSpace(request.ExecutionID),
		SessionID:   strings.TrimSpace(request.SessionID),
		ToolName:    tool,
		Operation:   strings.TrimSpace(request.Operation),
		DurationMS:  request.DurationMS,
		Success:     request.Success,
		CreatedAt:   timeNow(),
	}
	if err := s.store.InsertToolUsage(usage); err != nil {
		return domain.ToolUsage{}, err
	}
	return usage, nil
}

func (s *LoggingService) RecordMetric(request RecordMetricRequest) (domain.PerformanceMetric, error) {
	name := strings.TrimSpace(request.MetricName)
	if name == "" {
		return domain.PerformanceMetric{}, domain.InvalidArgument("metric_name is required")
	}
	if math.IsNaN(request.Value) || math.IsInf(request.Value, 0) {
		return domain.PerformanceMetric{}, domain.InvalidArgument("value must be a finite number")
	}

	metric := domain.PerformanceMetric{
		ID:         newID("metric"),
		SessionID:  strings.TrimSpace(request.SessionID),
		AgentName:  strings.TrimSpace(request.AgentName),
		MetricName: name,
		Value:      request.Value,
		Unit:       strings.TrimSpace(request.Unit),
		CreatedAt:  timeNow(),
	}
	if err := s.store.InsertMetric(metric); err != nil {
		return domain.PerformanceMetric{}, err
	}
	return metric, nil
}

func (s *LoggingService) RecordError(request RecordErrorRequest) (domain.ErrorLog, error) {
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return domain.ErrorLog{}, domain.InvalidArgument("message is required")
	}
	errorType := strings.TrimSpace(request.ErrorType)
	if errorType == "" {
		errorType = "error"
	}
	details, err := encodeContext(request.Context)
	if err != nil {
		return domain.ErrorLog{}, err
	}

	entry := domain.ErrorLog{
		ID:          newID("err"),
		SessionID:   strings.TrimSpace(request.SessionID),
		ExecutionID: strings.TrimSpace(request.ExecutionID),
		AgentName:   strings.TrimSpace(request.AgentName),
		ErrorType:   errorType,
		Message:     message,
		Context:     details,
		CreatedAt:   timeNow(),
	}
	if err := s.store.InsertError(entry); err != nil {
		return domain.ErrorLog{}, err
	}
	return entry, nil
}

func (s *LoggingService) RecordSessionSummary(request RecordSessionSummaryRequest) (domain.SessionSummary, error) {
	sessionID := strings.TrimSpace(request.SessionID)
	if sessionID == "" {
		return domain.SessionSummary{}, domain.InvalidArgument("session_id is required")
	}
	if request.TotalExecutions < 0 || request.Succeeded < 0 || request.Failed < 0 {
		return domain.SessionSummary{}, domain.InvalidArgument("execution counts must be non-negative")
	}
	if request.Succeeded+request.Failed > request.TotalExecutions {
		return domain.SessionSummary{}, domain.InvalidArgument("succeeded + failed cannot exceed total_executions")
	}
	startedAt, err := normalizeTimestamp("started_at", request.StartedAt)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	endedAt, err := normalizeTimestamp("ended_at", request.EndedAt)
	if err != nil {
		return domain.SessionSummary{}, err
	}

	summary := domain.SessionSummary{
		SessionID:       sessionID,
		StartedAt:       startedAt,
		EndedAt:         endedAt,
		TotalExecutions: request.TotalExecutions,
		Succeeded:       request.Succeeded,
		Failed:          request.Failed,
		AverageScore:    request.AverageScore,
		UpdatedAt:       timeNow(),
	}
	if err := s.store.UpsertSession(summary); err != nil {
		return domain.SessionSummary{}, err
	}
	return summary, nil
}

func (s *LoggingService) ListExecutions(filter domain.ExecutionFilter) ([]domain.AgentExecution, error) {
	filter.SessionID = strings.TrimSpace(filter.SessionID)
	filter.AgentName = strings.TrimSpace(filter.AgentName)
	filter.Status = strings.TrimSpace(filter.Status)
	if filter.Status != "" && !validExecutionStatus(filter.Status) {
		return nil, domain.InvalidArgument("status must be one of: running, succeeded, failed")
	}
	var err error
	if filter.StartedAfter, err = domain.CanonicalTimestamp("started_after", filter.StartedAfter); err != nil {
		return nil, err
	}
	if filter.StartedBefore, err = domain.CanonicalTimestamp("started_before", filter.StartedBefore); err != nil {
		return nil, err
	}
	filter.Limit = clampLimit(filter.Limit)
	return s.store.ListExecutions(filter)
}

func (s *LoggingService) GetExecution(id string) (ExecutionDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ExecutionDetail{}, domain.InvalidArgument("id is required")
	}
	exec, err := s.store.GetExecution(id)
	if err != nil {
		return ExecutionDetail{}, err
	}
	usages, err := s.store.ListToolUsages(id)
	if err != nil {
		return ExecutionDetail{}, err
	}
	return ExecutionDetail{Execution: exec, ToolUsages: usages}, nil
}

func (s *LoggingService) ListToolUsages(executionID string) ([]domain.ToolUsage, error) {
	return s.store.ListToolUsages(strings.TrimSpace(executionID))
}

func (s *LoggingService) ListErrors(limit int64) ([]domain.ErrorLog, error) {
	return s.store.ListErrors(clampLimit(limit))
}

func (s *LoggingService) ListSessions() ([]domain.SessionSummary, error) {
	return s.store.ListSessions()
}

func (s *LoggingService) Stats() (domain.Stats, error) {
	state, err := s.store.ExportState()
	if err != nil {
		return domain.Stats{}, err
	}
	return ComputeStats(state), nil
}

func validExecutionStatus(status string) bool {
	switch status {
	case domain.ExecutionRunning, domain.ExecutionSucceeded, domain.ExecutionFailed:
		return true
	default:
		return false
	}
}

func clampLimit(limit int64) int64 {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

// normalizeTimestamp canonicalises RFC3339 input; empty means now.
func normalizeTimestamp(field, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return timeNow(), nil
	}
	return domain.CanonicalTimestamp(field, raw)
}

func normalizeTools(tools []string) []string {
	out := make([]string, 0, len(tools))
	seen := map[string]struct{}{}
	for _, tool := range tools {
		clean := strings.TrimSpace(tool)
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}

func encodeContext(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", domain.InvalidArgument("context must be JSON encodable")
		}
		return string(raw), nil
	}
}

func timeNow() string {
	return domain.FormatTimestamp(time.Now())
}

// newID returns a time-ordered id so records created later sort later.
func newID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "_" + id.String()
}
