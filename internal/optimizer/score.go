package optimizer

import (
	"math"
	"time"
)

// scoreHorizon is the elapsed time at which a successful run scores zero.
const scoreHorizon = 10 * time.Second

// CalculatePerformanceScore maps a run to [0,1]: failures score 0, successes
// lose score linearly until scoreHorizon.
func CalculatePerformanceScore(elapsed time.Duration, success bool) float64 {
	if !success {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Max(0, 1-float64(elapsed.Milliseconds())/float64(scoreHorizon.Milliseconds()))
}

const (
	perAgentDuration = 2 * time.Second
	perToolDuration  = 500 * time.Millisecond
)

// EstimateDuration is a coarse wall-clock guess for running agents with tools.
// Parallel runs grow logarithmically with the agent count.
func EstimateDuration(agents, tools int, parallel bool) time.Duration {
	if agents <= 0 {
		return 0
	}
	if tools < 0 {
		tools = 0
	}
	toolCost := time.Duration(tools) * perToolDuration
	if parallel {
		factor := 1 + math.Log(float64(agents))
		return time.Duration(float64(perAgentDuration)*factor) + toolCost
	}
	return time.Duration(agents)*perAgentDuration + toolCost
}

type ResourceEstimate struct {
	MemoryMB   int `json:"memory_mb"`
	CPUPercent int `json:"cpu_percent"`
}

func EstimateResources(agents, tools int) ResourceEstimate {
	if agents < 0 {
		agents = 0
	}
	if tools < 0 {
		tools = 0
	}
	return ResourceEstimate{
		MemoryMB:   64 + 32*agents + 16*tools,
		CPUPercent: min(100, 10*agents+5*tools),
	}
}
