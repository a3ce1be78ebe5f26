package mcpconfig

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/elderberry/agentops/internal/domain"
	"gopkg.in/yaml.v3"
)

// AgentProfile describes which MCP tools an agent leans on. Tool entries are
// symbolic names from the tool table.
type AgentProfile struct {
	Primary     []string `yaml:"primary" json:"primary"`
	Secondary   []string `yaml:"secondary" json:"secondary"`
	Specialty   string   `yaml:"specialty" json:"specialty"`
	Description string   `yaml:"description" json:"description"`
	UseCases    []string `yaml:"use_cases" json:"use_cases"`
}

type CommandProfile struct {
	Agents      []string `yaml:"agents" json:"agents"`
	Tools       []string `yaml:"tools" json:"tools"`
	Parallel    bool     `yaml:"parallel" json:"parallel"`
	Priority    string   `yaml:"priority" json:"priority"`
	Description string   `yaml:"description" json:"description"`
}

type LayerProfile struct {
	PrimaryAgent string   `yaml:"primary_agent" json:"primary_agent"`
	Tools        []string `yaml:"tools" json:"tools"`
	Focus        []string `yaml:"focus" json:"focus"`
	Description  string   `yaml:"description" json:"description"`
}

// Catalog is the agent/MCP configuration. It is built once and never
// mutated afterwards, so a single *Catalog may be shared freely.
type Catalog struct {
	tools    map[string]string
	agents   map[string]AgentProfile
	commands map[string]CommandProfile
	layers   map[string]LayerProfile
	rules    map[string][]string
}

// Overlay is the YAML shape accepted by Load. Entries replace built-ins with
// the same key.
type Overlay struct {
	Tools    map[string]string         `yaml:"tools"`
	Agents   map[string]AgentProfile   `yaml:"agents"`
	Commands map[string]CommandProfile `yaml:"commands"`
}

func Default() *Catalog {
	return &Catalog{
		tools:    builtinTools(),
		agents:   builtinAgents(),
		commands: builtinCommands(),
		layers:   builtinLayers(),
		rules:    builtinRules(),
	}
}

// Load returns the built-in catalog merged with the overlay at path. An empty
// path or a missing file yields the built-ins.
func Load(path string) (*Catalog, error) {
	catalog := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return catalog, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return catalog, nil
		}
		return nil, fmt.Errorf("read catalog overlay %s: %w", path, err)
	}

	var overlay Overlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse catalog overlay %s: %w", path, err)
	}
	if err := catalog.apply(overlay); err != nil {
		return nil, fmt.Errorf("apply catalog overlay %s: %w", path, err)
	}
	return catalog, nil
}

func (c *Catalog) apply(overlay Overlay) error {
	for name, id := range overlay.Tools {
		name = normalizeKey(name)
		id = strings.TrimSpace(id)
		if name == "" || id == "" {
			return domain.InvalidArgument("tool entries need both a name and an identifier")
		}
		c.tools[name] = id
	}
	for name, profile := range overlay.Agents {
		name = normalizeKey(name)
		if name == "" {
			return domain.InvalidArgument("agent name is required")
		}
		profile.Primary = normalizeKeys(profile.Primary)
		profile.Secondary = normalizeKeys(profile.Secondary)
		c.agents[name] = profile
	}
	for command, profile := range overlay.Commands {
		command = normalizeCommand(command)
		if command == "" {
			return domain.InvalidArgument("command name is required")
		}
		profile.Agents = normalizeKeys(profile.Agents)
		profile.Tools = normalizeKeys(profile.Tools)
		profile.Priority = strings.ToLower(strings.TrimSpace(profile.Priority))
		if profile.Priority == "" {
			profile.Priority = PriorityMedium
		}
		c.commands[command] = profile
	}
	return nil
}

// ToolID returns the identifier registered for a symbolic tool name.
func (c *Catalog) ToolID(name string) (string, bool) {
	id, ok := c.tools[normalizeKey(name)]
	return id, ok
}

// Tools returns a copy of the symbolic name → identifier table.
func (c *Catalog) Tools() map[string]string {
	out := make(map[string]string, len(c.tools))
	for name, id := range c.tools {
		out[name] = id
	}
	return out
}

func (c *Catalog) AgentNames() []string {
	return sortedKeys(c.agents)
}

func (c *Catalog) CommandNames() []string {
	return sortedKeys(c.commands)
}

// Layers returns the FSD layers in import order.
func (c *Catalog) Layers() []string {
	return slices.Clone(LayerOrder)
}

func (c *Catalog) Agent(name string) (AgentProfile, bool) {
	profile, ok := c.agents[normalizeKey(name)]
	return profile, ok
}

func (c *Catalog) Command(name string) (CommandProfile, bool) {
	profile, ok := c.commands[normalizeCommand(name)]
	return profile, ok
}

// resolve maps symbolic tool names to identifiers, dropping names that are
// not registered. ValidateSystemConfiguration reports those.
func (c *Catalog) resolve(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := c.tools[name]; ok {
			out = append(out, id)
		}
	}
	return out
}

func normalizeKey(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func normalizeKeys(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if clean := normalizeKey(value); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func normalizeCommand(value string) string {
	clean := strings.ToLower(strings.TrimSpace(value))
	if clean == "" {
		return ""
	}
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}
	return clean
}

func sortedKeys[V any](in map[string]V) []string {
	out := make([]string, 0, len(in))
	for key := range in {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
