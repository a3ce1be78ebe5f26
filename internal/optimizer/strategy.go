package optimizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/elderberry/agentops/internal/domain"
	"github.com/elderberry/agentops/internal/mcpconfig"
)

type Strategy struct {
	Name           string        `json:"name"`
	MaxConcurrency int           `json:"max_concurrency"`
	Timeout        time.Duration `json:"timeout"`
	RetryAttempts  int           `json:"retry_attempts"`
	CacheEnabled   bool          `json:"cache_enabled"`
}

var strategies = map[string]Strategy{
	mcpconfig.PriorityCritical: {Name: "aggressive-parallel", MaxConcurrency: 6, Timeout: 30 * time.Second, RetryAttempts: 2, CacheEnabled: true},
	mcpconfig.PriorityHigh:     {Name: "balanced-parallel", MaxConcurrency: 4, Timeout: 20 * time.Second, RetryAttempts: 1, CacheEnabled: true},
	mcpconfig.PriorityMedium:   {Name: "conservative", MaxConcurrency: 2, Timeout: 15 * time.Second, RetryAttempts: 1, CacheEnabled: false},
	mcpconfig.PriorityLow:      {Name: "background", MaxConcurrency: 1, Timeout: 10 * time.Second, RetryAttempts: 0, CacheEnabled: false},
}

func StrategyFor(priority string) (Strategy, error) {
	strategy, ok := strategies[strings.ToLower(strings.TrimSpace(priority))]
	if !ok {
		return Strategy{}, domain.NotFound(fmt.Sprintf("no strategy for priority %q", priority))
	}
	return strategy, nil
}

// agentPriority orders agents inside a plan; lower runs first.
var agentPriority = map[string]int{
	mcpconfig.AgentClaudeGuide:      1,
	mcpconfig.AgentSecurityAudit:    2,
	mcpconfig.AgentDebug:            3,
	mcpconfig.AgentTroubleshooting:  4,
	mcpconfig.AgentAPIDocumentation: 5,
	mcpconfig.AgentGoogleSEO:        6,
}

const unrankedAgentPriority = 99

func AgentPriority(agent string) int {
	if p, ok := agentPriority[agent]; ok {
		return p
	}
	return unrankedAgentPriority
}
