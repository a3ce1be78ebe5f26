package mcpconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/elderberry/agentops/internal/domain"
)

type AgentCombination struct {
	Agent       string   `json:"agent"`
	Primary     []string `json:"primary"`
	Secondary   []string `json:"secondary"`
	Specialty   string   `json:"specialty"`
	Description string   `json:"description"`
	UseCases    []string `json:"use_cases"`
}

// AllTools returns primary then secondary identifiers without duplicates.
func (a AgentCombination) AllTools() []string {
	out := make([]string, 0, len(a.Primary)+len(a.Secondary))
	for _, id := range append(slices.Clone(a.Primary), a.Secondary...) {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

type CommandOptimization struct {
	Command     string   `json:"command"`
	Agents      []string `json:"agents"`
	MCPTools    []string `json:"mcp_tools"`
	Parallel    bool     `json:"parallel"`
	Priority    string   `json:"priority"`
	Description string   `json:"description"`
}

type LayerOptimization struct {
	Layer        string   `json:"layer"`
	PrimaryAgent string   `json:"primary_agent"`
	MCPTools     []string `json:"mcp_tools"`
	Focus        []string `json:"focus"`
	Description  string   `json:"description"`
}

func (c *Catalog) AgentMCPCombination(agent string) (AgentCombination, error) {
	name := normalizeKey(agent)
	profile, ok := c.agents[name]
	if !ok {
		return AgentCombination{}, domain.NotFound(fmt.Sprintf("unknown agent %q", agent))
	}
	return AgentCombination{
		Agent:       name,
		Primary:     c.resolve(profile.Primary),
		Secondary:   c.resolve(profile.Secondary),
		Specialty:   profile.Specialty,
		Description: profile.Description,
		UseCases:    slices.Clone(profile.UseCases),
	}, nil
}

func (c *Catalog) CustomCommandOptimization(command string) (CommandOptimization, error) {
	name := normalizeCommand(command)
	profile, ok := c.commands[name]
	if !ok {
		return CommandOptimization{}, domain.NotFound(fmt.Sprintf("unknown custom command %q", command))
	}
	return CommandOptimization{
		Command:     name,
		Agents:      slices.Clone(profile.Agents),
		MCPTools:    c.resolve(profile.Tools),
		Parallel:    profile.Parallel,
		Priority:    profile.Priority,
		Description: profile.Description,
	}, nil
}

func (c *Catalog) FSDLayerOptimization(layer string) (LayerOptimization, error) {
	name := strings.ToLower(strings.TrimSpace(layer))
	profile, ok := c.layers[name]
	if !ok {
		return LayerOptimization{}, domain.NotFound(fmt.Sprintf("unknown FSD layer %q", layer))
	}
	return LayerOptimization{
		Layer:        name,
		PrimaryAgent: profile.PrimaryAgent,
		MCPTools:     c.resolve(profile.Tools),
		Focus:        slices.Clone(profile.Focus),
		Description:  profile.Description,
	}, nil
}
