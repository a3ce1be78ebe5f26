package optimizer

import (
	"fmt"
	"strings"
	"time"
)

const (
	targetSuccessRate = 0.8
	targetScore       = 0.5
	slowRunThreshold  = 5 * time.Second
)

func (o *Optimizer) Summary(agent string) AgentSummary {
	return o.history.Summary(strings.ToUpper(strings.TrimSpace(agent)))
}

// Summaries covers every agent with recorded samples.
func (o *Optimizer) Summaries() []AgentSummary {
	agents := o.history.Agents()
	out := make([]AgentSummary, 0, len(agents))
	for _, agent := range agents {
		out = append(out, o.history.Summary(agent))
	}
	return out
}

func (o *Optimizer) Recommendations(agent string) []string {
	summary := o.Summary(agent)
	if summary.Samples == 0 {
		return []string{fmt.Sprintf("no samples recorded for %s yet", summary.Agent)}
	}

	var out []string
	if summary.SuccessRate < targetSuccessRate {
		out = append(out, fmt.Sprintf("success rate %.0f%% is below %.0f%%; raise retry attempts or use a higher priority command",
			summary.SuccessRate*100, targetSuccessRate*100))
	}
	if summary.AverageScore < targetScore {
		out = append(out, fmt.Sprintf("average score %.2f is below %.2f; split the work across a parallel command", summary.AverageScore, targetScore))
	}
	if summary.AverageDuration > slowRunThreshold {
		out = append(out, fmt.Sprintf("average run takes %s; enable caching or trim the tool set", summary.AverageDuration.Round(time.Millisecond)))
	}
	if len(out) == 0 {
		out = append(out, "performance within targets")
	}
	return out
}
