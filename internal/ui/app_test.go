package ui

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elderberry/agentops/internal/mcpconfig"
	"github.com/elderberry/agentops/internal/optimizer"
	"github.com/elderberry/agentops/internal/theme"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	opt := optimizer.New(mcpconfig.Default(),
		optimizer.WithRand(rand.New(rand.NewPCG(7, 11))),
		optimizer.WithZap(zap.NewNop()),
	)
	return newModel(context.Background(), Options{Optimizer: opt, Theme: theme.Dark})
}

func press(t *testing.T, m model, msg tea.KeyMsg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(model)
	require.True(t, ok)
	return updated, cmd
}

func TestAgentsTabShowsSelection(t *testing.T) {
	m := newTestModel(t)
	agents := mcpconfig.Default().AgentNames()

	view := m.View()
	assert.Contains(t, view, "Agents")
	assert.Contains(t, view, "> "+agents[0])
	assert.Contains(t, view, "no samples recorded")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, m.cursor[tabAgents])
	assert.Contains(t, m.View(), "> "+agents[1])

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, 0, m.cursor[tabAgents])
}

func TestTabsCycle(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabCommands, m.tab)
	assert.Contains(t, m.View(), "Strategy:")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabLayers, m.tab)
	assert.Contains(t, m.View(), "Primary agent:")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabAgents, m.tab)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, tabLayers, m.tab)
}

func TestRunCommandFromTUI(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	command := m.selected()

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.editing)
	require.NotNil(t, cmd)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.editing, "empty task must not start a run")
	assert.Contains(t, m.statusLine, "task is required")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("fix login redirect")})
	assert.Equal(t, "fix login redirect", m.taskInput.Value())

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, m.editing)
	assert.True(t, m.running)

	msg := m.runCmd(command, "fix login redirect")()
	next, _ := m.Update(msg)
	m = next.(model)
	assert.False(t, m.running)

	report, ok := m.lastReport[command]
	require.True(t, ok)
	assert.Equal(t, "fix login redirect", report.Task)
	view := m.View()
	assert.Contains(t, view, "Last run")
	assert.True(t, strings.Contains(m.statusLine, "finished"), m.statusLine)
}

func TestEscapeCancelsTaskEntry(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.editing)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.editing)
	assert.False(t, m.running)
}

func TestEnterOutsideCommandsDoesNothing(t *testing.T) {
	m := newTestModel(t)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.editing)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
