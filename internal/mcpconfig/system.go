package mcpconfig

import (
	"fmt"
	"slices"
)

const (
	StatusOptimizedWithFSD             = "OPTIMIZED_WITH_FSD"
	StatusOptimizedWithFSDNoPlaywright = "OPTIMIZED_WITH_FSD_NO_PLAYWRIGHT"
	StatusDegraded                     = "DEGRADED"
)

type SystemReport struct {
	Status            string   `json:"status"`
	Tools             int      `json:"tools"`
	Agents            int      `json:"agents"`
	Commands          int      `json:"commands"`
	Layers            int      `json:"layers"`
	PlaywrightEnabled bool     `json:"playwright_enabled"`
	Issues            []string `json:"issues"`
}

var validPriorities = []string{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// ValidateSystemConfiguration cross-checks every table reference.
func (c *Catalog) ValidateSystemConfiguration() SystemReport {
	report := SystemReport{
		Tools:    len(c.tools),
		Agents:   len(c.agents),
		Commands: len(c.commands),
		Layers:   len(c.layers),
		Issues:   []string{},
	}
	_, report.PlaywrightEnabled = c.tools[ToolPlaywright]

	for _, name := range c.AgentNames() {
		profile := c.agents[name]
		if len(profile.Primary) == 0 {
			report.Issues = append(report.Issues, fmt.Sprintf("agent %s has no primary tools", name))
		}
		for _, tool := range append(slices.Clone(profile.Primary), profile.Secondary...) {
			if _, ok := c.tools[tool]; !ok {
				report.Issues = append(report.Issues, fmt.Sprintf("agent %s references unknown tool %s", name, tool))
			}
		}
	}
	for _, command := range c.CommandNames() {
		profile := c.commands[command]
		if len(profile.Agents) == 0 {
			report.Issues = append(report.Issues, fmt.Sprintf("command %s has no agents", command))
		}
		for _, agent := range profile.Agents {
			if _, ok := c.agents[agent]; !ok {
				report.Issues = append(report.Issues, fmt.Sprintf("command %s references unknown agent %s", command, agent))
			}
		}
		for _, tool := range profile.Tools {
			if _, ok := c.tools[tool]; !ok {
				report.Issues = append(report.Issues, fmt.Sprintf("command %s references unknown tool %s", command, tool))
			}
		}
		if !slices.Contains(validPriorities, profile.Priority) {
			report.Issues = append(report.Issues, fmt.Sprintf("command %s has unknown priority %q", command, profile.Priority))
		}
	}
	for _, layer := range LayerOrder {
		profile, ok := c.layers[layer]
		if !ok {
			report.Issues = append(report.Issues, fmt.Sprintf("layer %s has no profile", layer))
			continue
		}
		if _, ok := c.agents[profile.PrimaryAgent]; !ok {
			report.Issues = append(report.Issues, fmt.Sprintf("layer %s references unknown agent %s", layer, profile.PrimaryAgent))
		}
		for _, tool := range profile.Tools {
			if _, ok := c.tools[tool]; !ok {
				report.Issues = append(report.Issues, fmt.Sprintf("layer %s references unknown tool %s", layer, tool))
			}
		}
	}

	switch {
	case len(report.Issues) > 0:
		report.Status = StatusDegraded
	case report.PlaywrightEnabled:
		report.Status = StatusOptimizedWithFSD
	default:
		report.Status = StatusOptimizedWithFSDNoPlaywright
	}
	return report
}
