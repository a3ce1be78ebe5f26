package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", headingStyle.Render(label+":"), value)
}

func writeList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		writeField(w, label, "-")
		return
	}
	writeField(w, label, "")
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func sortedKeys[V any](in map[string]V) []string {
	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
