package optimizer

import (
	"slices"
	"sync"
	"time"
)

// DefaultHistoryLimit is the number of samples retained per agent.
const DefaultHistoryLimit = 100

type Sample struct {
	Timestamp time.Time        `json:"timestamp"`
	AgentName string           `json:"agent_name"`
	TaskType  string           `json:"task_type"`
	Duration  time.Duration    `json:"duration"`
	Success   bool             `json:"success"`
	ToolsUsed []string         `json:"tools_used"`
	Score     float64          `json:"score"`
	Resources ResourceEstimate `json:"resources"`
}

// History keeps the most recent samples per agent in memory.
type History struct {
	mu      sync.Mutex
	limit   int
	samples map[string][]Sample
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		limit:   limit,
		samples: map[string][]Sample{},
	}
}

func (h *History) Record(sample Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := append(h.samples[sample.AgentName], sample)
	if overflow := len(items) - h.limit; overflow > 0 {
		items = slices.Delete(items, 0, overflow)
	}
	h.samples[sample.AgentName] = items
}

// Samples returns a copy of the samples for agent, oldest first.
func (h *History) Samples(agent string) []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.samples[agent])
}

func (h *History) Agents() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.samples))
	for agent := range h.samples {
		out = append(out, agent)
	}
	slices.Sort(out)
	return out
}

type AgentSummary struct {
	Agent           string        `json:"agent"`
	Samples         int           `json:"samples"`
	SuccessRate     float64       `json:"success_rate"`
	AverageScore    float64       `json:"average_score"`
	AverageDuration time.Duration `json:"average_duration"`
	LastRun         time.Time     `json:"last_run"`
}

func (h *History) Summary(agent string) AgentSummary {
	samples := h.Samples(agent)
	summary := AgentSummary{Agent: agent, Samples: len(samples)}
	if len(samples) == 0 {
		return summary
	}

	var succeeded int
	var totalScore float64
	var totalDuration time.Duration
	for _, sample := range samples {
		if sample.Success {
			succeeded++
		}
		totalScore += sample.Score
		totalDuration += sample.Duration
		if sample.Timestamp.After(summary.LastRun) {
			summary.LastRun = sample.Timestamp
		}
	}
	n := float64(len(samples))
	summary.SuccessRate = float64(succeeded) / n
	summary.AverageScore = totalScore / n
	summary.AverageDuration = totalDuration / time.Duration(len(samples))
	return summary
}
