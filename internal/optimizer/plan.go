package optimizer

import (
	"cmp"
	"slices"
	"time"
)

type PlanStep struct {
	Order             int           `json:"order"`
	Agent             string        `json:"agent"`
	Priority          int           `json:"priority"`
	Tools             []string      `json:"tools"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
}

type Plan struct {
	Command           string           `json:"command"`
	Description       string           `json:"description"`
	Priority          string           `json:"priority"`
	Parallel          bool             `json:"parallel"`
	Strategy          Strategy         `json:"strategy"`
	MCPTools          []string         `json:"mcp_tools"`
	Steps             []PlanStep       `json:"steps"`
	EstimatedDuration time.Duration    `json:"estimated_duration"`
	Resources         ResourceEstimate `json:"resources"`
}

func (o *Optimizer) BuildExecutionPlan(command string) (Plan, error) {
	opt, err := o.catalog.CustomCommandOptimization(command)
	if err != nil {
		return Plan{}, err
	}
	strategy, err := StrategyFor(opt.Priority)
	if err != nil {
		return Plan{}, err
	}

	agents := slices.Clone(opt.Agents)
	slices.SortFunc(agents, func(a, b string) int {
		if c := cmp.Compare(AgentPriority(a), AgentPriority(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	steps := make([]PlanStep, 0, len(agents))
	for i, agent := range agents {
		tools := o.stepTools(agent, opt.MCPTools)
		steps = append(steps, PlanStep{
			Order:             i + 1,
			Agent:             agent,
			Priority:          AgentPriority(agent),
			Tools:             tools,
			EstimatedDuration: EstimateDuration(1, len(tools), false),
		})
	}

	return Plan{
		Command:           opt.Command,
		Description:       opt.Description,
		Priority:          opt.Priority,
		Parallel:          opt.Parallel,
		Strategy:          strategy,
		MCPTools:          opt.MCPTools,
		Steps:             steps,
		EstimatedDuration: EstimateDuration(len(agents), len(opt.MCPTools), opt.Parallel),
		Resources:         EstimateResources(len(agents), len(opt.MCPTools)),
	}, nil
}

// stepTools narrows the command's tools to the ones the agent works with,
// falling back to the agent's primary tools when they share none.
func (o *Optimizer) stepTools(agent string, commandTools []string) []string {
	combo, err := o.catalog.AgentMCPCombination(agent)
	if err != nil {
		return slices.Clone(commandTools)
	}
	known := combo.AllTools()
	out := make([]string, 0, len(commandTools))
	for _, tool := range commandTools {
		if slices.Contains(known, tool) {
			out = append(out, tool)
		}
	}
	if len(out) == 0 {
		return slices.Clone(combo.Primary)
	}
	return out
}
