package service

import "github.com/elderberry/agentops/internal/domain"

// ComputeStats aggregates a state export. Running executions count toward
// totals but not toward success rate or averages.
func ComputeStats(state domain.State) domain.Stats {
	stats := domain.Stats{
		ByAgent: map[string]domain.AgentStats{},
		ByTool:  map[string]domain.ToolStats{},
	}
	stats.Counts.Executions = len(state.Executions)
	stats.Counts.ToolUsages = len(state.ToolUsages)
	stats.Counts.Metrics = len(state.Metrics)
	stats.Counts.Errors = len(state.Errors)
	stats.Counts.Sessions = len(state.Sessions)

	var finished, succeeded int
	var durationSum int64
	var scoreSum float64
	agentDurations := map[string]int64{}
	agentScores := map[string]float64{}

	for _, exec := range state.Executions {
		entry := stats.ByAgent[exec.AgentName]
		entry.Executions++
		switch exec.Status {
		case domain.ExecutionRunning:
			stats.Counts.Running++
			stats.ByAgent[exec.AgentName] = entry
			continue
		case domain.ExecutionSucceeded:
			entry.Succeeded++
			succeeded++
		default:
			entry.Failed++
		}
		finished++
		durationSum += exec.DurationMS
		scoreSum += exec.PerformanceScore
		agentDurations[exec.AgentName] += exec.DurationMS
		agentScores[exec.AgentName] += exec.PerformanceScore
		stats.ByAgent[exec.AgentName] = entry
	}

	if finished > 0 {
		stats.SuccessRate = float64(succeeded) / float64(finished)
		stats.AverageDurationMS = float64(durationSum) / float64(finished)
		stats.AverageScore = scoreSum / float64(finished)
	}
	for name, entry := range stats.ByAgent {
		if done := entry.Succeeded + entry.Failed; done > 0 {
			entry.SuccessRate = float64(entry.Succeeded) / float64(done)
			entry.AverageDurationMS = float64(agentDurations[name]) / float64(done)
			entry.AverageScore = agentScores[name] / float64(done)
		}
		stats.ByAgent[name] = entry
	}

	toolDurations := map[string]int64{}
	for _, usage := range state.ToolUsages {
		entry := stats.ByTool[usage.ToolName]
		entry.Calls++
		if !usage.Success {
			entry.Failures++
		}
		toolDurations[usage.ToolName] += usage.DurationMS
		stats.ByTool[usage.ToolName] = entry
	}
	for name, entry := range stats.ByTool {
		entry.AverageDurationMS = float64(toolDurations[name]) / float64(entry.Calls)
		stats.ByTool[name] = entry
	}
	return stats
}
