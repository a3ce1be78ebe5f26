package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elderberry/agentops/internal/mcpconfig"
	"github.com/elderberry/agentops/internal/optimizer"
	"github.com/elderberry/agentops/internal/theme"
)

type tab int

const (
	tabAgents tab = iota
	tabCommands
	tabLayers
	tabCount
)

var tabNames = [tabCount]string{"Agents", "Commands", "Layers"}

type runCompleteMsg struct {
	report optimizer.ExecutionReport
	err    error
}

type Options struct {
	Optimizer *optimizer.Optimizer
	Theme     theme.Theme
	// Status is shown in the footer until the first action.
	Status string
}

type styles struct {
	title   lipgloss.Style
	tab     lipgloss.Style
	active  lipgloss.Style
	section lipgloss.Style
	muted   lipgloss.Style
	cursor  lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
}

func newStyles(t theme.Theme) styles {
	vars := theme.CSSVariables(t)
	accent := lipgloss.Color(vars[theme.VarAccent])
	muted := lipgloss.Color(vars[theme.VarTextSecondary])
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		tab:     lipgloss.NewStyle().Padding(0, 1).Foreground(muted),
		active:  lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color(vars[theme.VarAccentText])).Background(accent),
		section: lipgloss.NewStyle().Bold(true),
		muted:   lipgloss.NewStyle().Foreground(muted),
		cursor:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

type model struct {
	ctx     context.Context
	opt     *optimizer.Optimizer
	catalog *mcpconfig.Catalog
	styles  styles

	tab    tab
	items  [tabCount][]string
	cursor [tabCount]int
	width  int
	height int

	taskInput  textinput.Model
	editing    bool
	spinner    spinner.Model
	running    bool
	lastReport map[string]optimizer.ExecutionReport
	statusLine string
}

func Run(ctx context.Context, opts Options) error {
	program := tea.NewProgram(newModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func newModel(ctx context.Context, opts Options) model {
	opt := opts.Optimizer
	if opt == nil {
		opt = optimizer.New(nil)
	}
	catalog := opt.Catalog()

	taskInput := textinput.New()
	taskInput.Prompt = "Task: "
	taskInput.Placeholder = "describe the task for this command"
	taskInput.CharLimit = 200

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	status := opts.Status
	if status == "" {
		status = "tab switch view · j/k move · enter run command · q quit"
	}

	m := model{
		ctx:        ctx,
		opt:        opt,
		catalog:    catalog,
		styles:     newStyles(opts.Theme),
		taskInput:  taskInput,
		spinner:    spin,
		lastReport: map[string]optimizer.ExecutionReport{},
		statusLine: status,
	}
	m.items[tabAgents] = catalog.AgentNames()
	m.items[tabCommands] = catalog.CommandNames()
	m.items[tabLayers] = catalog.Layers()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.taskInput.Width = max(20, typed.Width-12)
		return m, nil
	case runCompleteMsg:
		m.running = false
		if typed.err != nil {
			m.statusLine = m.styles.err.Render("run failed: " + typed.err.Error())
			return m, nil
		}
		m.lastReport[typed.report.Command] = typed.report
		m.statusLine = m.styles.ok.Render(fmt.Sprintf("%s finished: %d ok, %d failed", typed.report.Command, typed.report.Succeeded, typed.report.Failed))
		return m, nil
	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateEditing(typed)
		}
		return m.updateBrowse(typed)
	}
	return m, nil
}

func (m model) updateBrowse(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "right", "l":
		m.tab = (m.tab + 1) % tabCount
	case "shift+tab", "left", "h":
		m.tab = (m.tab + tabCount - 1) % tabCount
	case "j", "down":
		if m.cursor[m.tab] < len(m.items[m.tab])-1 {
			m.cursor[m.tab]++
		}
	case "k", "up":
		if m.cursor[m.tab] > 0 {
			m.cursor[m.tab]--
		}
	case "enter":
		if m.tab != tabCommands || m.running || len(m.items[tabCommands]) == 0 {
			return m, nil
		}
		m.editing = true
		m.taskInput.SetValue("")
		m.statusLine = "enter start · esc cancel"
		return m, m.taskInput.Focus()
	}
	return m, nil
}

func (m model) updateEditing(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.taskInput.Blur()
		m.statusLine = "cancelled"
		return m, nil
	case "enter":
		task := strings.TrimSpace(m.taskInput.Value())
		if task == "" {
			m.statusLine = m.styles.err.Render("task is required")
			return m, nil
		}
		m.editing = false
		m.taskInput.Blur()
		m.running = true
		command := m.selected()
		m.statusLine = "running " + command
		return m, tea.Batch(m.spinner.Tick, m.runCmd(command, task))
	}
	var cmd tea.Cmd
	m.taskInput, cmd = m.taskInput.Update(msg)
	return m, cmd
}

func (m model) runCmd(command, task string) tea.Cmd {
	ctx, opt := m.ctx, m.opt
	return func() tea.Msg {
		report, err := opt.Execute(ctx, command, task)
		return runCompleteMsg{report: report, err: err}
	}
}

func (m model) selected() string {
	items := m.items[m.tab]
	if len(items) == 0 {
		return ""
	}
	return items[m.cursor[m.tab]]
}

func (m model) View() string {
	tabs := make([]string, 0, tabCount)
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs = append(tabs, m.styles.active.Render(name))
		} else {
			tabs = append(tabs, m.styles.tab.Render(name))
		}
	}

	list := m.viewList()
	detail := m.viewDetail()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(24).Render(list),
		detail,
	)

	footer := m.statusLine
	if m.running {
		footer = m.spinner.View() + " " + footer
	}
	parts := []string{
		m.styles.title.Render("agentops"),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		"",
		body,
	}
	if m.editing {
		parts = append(parts, "", m.taskInput.View())
	}
	parts = append(parts, "", m.styles.muted.Render(footer))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) viewList() string {
	var b strings.Builder
	for i, item := range m.items[m.tab] {
		if i == m.cursor[m.tab] {
			b.WriteString(m.styles.cursor.Render("> " + item))
		} else {
			b.WriteString("  " + item)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) viewDetail() string {
	name := m.selected()
	if name == "" {
		return m.styles.muted.Render("nothing to show")
	}
	switch m.tab {
	case tabAgents:
		return m.viewAgent(name)
	case tabCommands:
		return m.viewCommand(name)
	default:
		return m.viewLayer(name)
	}
}

func (m model) viewAgent(name string) string {
	combo, err := m.catalog.AgentMCPCombination(name)
	if err != nil {
		return m.styles.err.Render(err.Error())
	}
	summary := m.opt.Summary(name)
	lines := []string{
		m.styles.section.Render(combo.Agent) + " " + m.styles.muted.Render(combo.Specialty),
		combo.Description,
		"",
		"Primary:   " + strings.Join(combo.Primary, ", "),
		"Secondary: " + strings.Join(combo.Secondary, ", "),
		"",
		m.styles.section.Render("Performance"),
		fmt.Sprintf("%d samples · %.0f%% success · avg score %.2f · avg %s",
			summary.Samples, summary.SuccessRate*100, summary.AverageScore, summary.AverageDuration.Round(time.Millisecond)),
	}
	for _, rec := range m.opt.Recommendations(name) {
		lines = append(lines, "- "+rec)
	}
	return strings.Join(lines, "\n")
}

func (m model) viewCommand(name string) string {
	plan, err := m.opt.BuildExecutionPlan(name)
	if err != nil {
		return m.styles.err.Render(err.Error())
	}
	mode := "sequential"
	if plan.Parallel {
		mode = fmt.Sprintf("parallel ×%d", plan.Strategy.MaxConcurrency)
	}
	lines := []string{
		m.styles.section.Render(plan.Command) + " " + m.styles.muted.Render(plan.Priority),
		plan.Description,
		"",
		fmt.Sprintf("Strategy: %s (%s) · estimate %s", plan.Strategy.Name, mode, plan.EstimatedDuration.Round(time.Millisecond)),
	}
	for _, step := range plan.Steps {
		lines = append(lines, fmt.Sprintf("%d. %s  %s", step.Order, step.Agent, m.styles.muted.Render(strings.Join(step.Tools, ", "))))
	}

	if report, ok := m.lastReport[plan.Command]; ok {
		lines = append(lines, "", m.styles.section.Render("Last run"),
			fmt.Sprintf("%q · %d ok · %d failed · %s · avg score %.2f",
				report.Task, report.Succeeded, report.Failed, report.Duration.Round(time.Millisecond), report.AverageScore))
		for _, step := range report.Steps {
			status := m.styles.ok.Render("ok")
			if !step.Success {
				status = m.styles.err.Render("failed")
			}
			lines = append(lines, fmt.Sprintf("  %s %s (%d attempts, score %.2f)", status, step.Agent, step.Attempts, step.Score))
		}
	}
	return strings.Join(lines, "\n")
}

func (m model) viewLayer(name string) string {
	opt, err := m.catalog.FSDLayerOptimization(name)
	if err != nil {
		return m.styles.err.Render(err.Error())
	}
	lines := []string{
		m.styles.section.Render(opt.Layer),
		opt.Description,
		"",
		"Primary agent: " + opt.PrimaryAgent,
		"MCP tools:     " + strings.Join(opt.MCPTools, ", "),
		"Focus:         " + strings.Join(opt.Focus, ", "),
	}
	return strings.Join(lines, "\n")
}
