package domain

const (
	ExecutionRunning   = "running"
	ExecutionSucceeded = "succeeded"
	ExecutionFailed    = "failed"
)

// AgentExecution is one agent invocation reported by an agent logger.
type AgentExecution struct {
	ID               string   `json:"id"`
	SessionID        string   `json:"session_id"`
	AgentName        string   `json:"agent_name"`
	TaskType         string   `json:"task_type"`
	Description      string   `json:"description"`
	MCPTools         []string `json:"mcp_tools"`
	Status           string   `json:"status"`
	DurationMS       int64    `json:"duration_ms"`
	PerformanceScore float64  `json:"performance_score"`
	ResultSummary    string   `json:"result_summary"`
	ErrorMessage     string   `json:"error_message"`
	StartedAt        string   `json:"started_at"`
	FinishedAt       string   `json:"finished_at"`
}

type ToolUsage struct {
	ID          string `json:"id"`
	ExecutionID string `json:"execution_id"`
	SessionID   string `json:"session_id"`
	ToolName    string `json:"tool_name"`
	Operation   string `json:"operation"`
	DurationMS  int64  `json:"duration_ms"`
	Success     bool   `json:"success"`
	CreatedAt   string `json:"created_at"`
}

type PerformanceMetric struct {
	ID         string  `json:"id"`
	SessionID  string  `json:"session_id"`
	AgentName  string  `json:"agent_name"`
	MetricName string  `json:"metric_name"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	CreatedAt  string  `json:"created_at"`
}

type ErrorLog struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	ExecutionID string `json:"execution_id"`
	AgentName   string `json:"agent_name"`
	ErrorType   string `json:"error_type"`
	Message     string `json:"message"`
	Context     string `json:"context"`
	CreatedAt   string `json:"created_at"`
}

// SessionSummary is upserted by session id when an agent logger shuts down.
type SessionSummary struct {
	SessionID       string  `json:"session_id"`
	StartedAt       string  `json:"started_at"`
	EndedAt         string  `json:"ended_at"`
	TotalExecutions int64   `json:"total_executions"`
	Succeeded       int64   `json:"succeeded"`
	Failed          int64   `json:"failed"`
	AverageScore    float64 `json:"average_score"`
	UpdatedAt       string  `json:"updated_at"`
}

type ExecutionFilter struct {
	SessionID     string
	AgentName     string
	Status        string
	StartedAfter  string
	StartedBefore string
	Limit         int64
}

type State struct {
	Executions []AgentExecution    `json:"executions"`
	ToolUsages []ToolUsage         `json:"tool_usages"`
	Metrics    []PerformanceMetric `json:"metrics"`
	Errors     []ErrorLog          `json:"errors"`
	Sessions   []SessionSummary    `json:"sessions"`
}

type AgentStats struct {
	Executions        int     `json:"executions"`
	Succeeded         int     `json:"succeeded"`
	Failed            int     `json:"failed"`
	SuccessRate       float64 `json:"success_rate"`
	AverageDurationMS float64 `json:"average_duration_ms"`
	AverageScore      float64 `json:"average_score"`
}

type ToolStats struct {
	Calls             int     `json:"calls"`
	Failures          int     `json:"failures"`
	AverageDurationMS float64 `json:"average_duration_ms"`
}

type Stats struct {
	Counts struct {
		Executions int `json:"executions"`
		Running    int `json:"running"`
		ToolUsages int `json:"tool_usages"`
		Metrics    int `json:"metrics"`
		Errors     int `json:"errors"`
		Sessions   int `json:"sessions"`
	} `json:"counts"`
	SuccessRate       float64               `json:"success_rate"`
	AverageDurationMS float64               `json:"average_duration_ms"`
	AverageScore      float64               `json:"average_score"`
	ByAgent           map[string]AgentStats `json:"by_agent"`
	ByTool            map[string]ToolStats  `json:"by_tool"`
}

func EmptyState() State {
	return State{
		Executions: []AgentExecution{},
		ToolUsages: []ToolUsage{},
		Metrics:    []PerformanceMetric{},
		Errors:     []ErrorLog{},
		Sessions:   []SessionSummary{},
	}
}
