package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elderberry/agentops/internal/fsdlint"
	"github.com/elderberry/agentops/internal/gitutil"
	"github.com/elderberry/agentops/internal/mcpconfig"
)

var errLintFailed = errors.New("fsd lint found violations")

func (a *app) agentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "agents [name]",
		Short: "List agents or show one agent's MCP tools",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				combo, err := a.catalog.AgentMCPCombination(args[0])
				if err != nil {
					return err
				}
				return a.render(cmd, combo, func(w io.Writer) error {
					writeField(w, "Agent", combo.Agent)
					writeField(w, "Specialty", combo.Specialty)
					writeField(w, "Description", combo.Description)
					writeField(w, "Primary", joinOrDash(combo.Primary))
					writeField(w, "Secondary", joinOrDash(combo.Secondary))
					writeList(w, "Use cases", combo.UseCases)
					return nil
				})
			}

			combos := make([]mcpconfig.AgentCombination, 0)
			for _, name := range a.catalog.AgentNames() {
				combo, err := a.catalog.AgentMCPCombination(name)
				if err != nil {
					return err
				}
				combos = append(combos, combo)
			}
			return a.render(cmd, combos, func(w io.Writer) error {
				rows := make([][]string, 0, len(combos))
				for _, combo := range combos {
					rows = append(rows, []string{combo.Agent, combo.Specialty, joinOrDash(combo.Primary)})
				}
				return writeTable(w, []string{"AGENT", "SPECIALTY", "PRIMARY TOOLS"}, rows)
			})
		},
	}
}

func (a *app) commandCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "command <name>",
		Short: "Show the agents and MCP tools behind a custom command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := a.catalog.CustomCommandOptimization(args[0])
			if err != nil {
				return err
			}
			return a.render(cmd, opt, func(w io.Writer) error {
				writeField(w, "Command", opt.Command)
				writeField(w, "Description", opt.Description)
				writeField(w, "Agents", joinOrDash(opt.Agents))
				writeField(w, "MCP tools", joinOrDash(opt.MCPTools))
				writeField(w, "Parallel", yesNo(opt.Parallel))
				writeField(w, "Priority", opt.Priority)
				return nil
			})
		},
	}
}

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Cross-check the agent, command and layer tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := a.catalog.ValidateSystemConfiguration()
			if err := a.render(cmd, report, func(w io.Writer) error {
				status := okStyle.Render(report.Status)
				if report.Status == mcpconfig.StatusDegraded {
					status = errStyle.Render(report.Status)
				}
				writeField(w, "Status", status)
				writeField(w, "Tables", fmt.Sprintf("%d tools, %d agents, %d commands, %d layers",
					report.Tools, report.Agents, report.Commands, report.Layers))
				writeField(w, "Playwright", yesNo(report.PlaywrightEnabled))
				writeList(w, "Issues", report.Issues)
				return nil
			}); err != nil {
				return err
			}
			if report.Status == mcpconfig.StatusDegraded {
				return fmt.Errorf("catalog validation found %d issue(s)", len(report.Issues))
			}
			return nil
		},
	}
}

func (a *app) fsdCommand() *cobra.Command {
	fsd := &cobra.Command{
		Use:   "fsd",
		Short: "Feature-Sliced Design helpers",
	}

	fsd.AddCommand(&cobra.Command{
		Use:   "layer <layer>",
		Short: "Show the agent and tools recommended for an FSD layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := a.catalog.FSDLayerOptimization(args[0])
			if err != nil {
				return err
			}
			return a.render(cmd, opt, func(w io.Writer) error {
				writeField(w, "Layer", opt.Layer)
				writeField(w, "Description", opt.Description)
				writeField(w, "Primary agent", opt.PrimaryAgent)
				writeField(w, "MCP tools", joinOrDash(opt.MCPTools))
				writeList(w, "Focus", opt.Focus)
				return nil
			})
		},
	})

	fsd.AddCommand(&cobra.Command{
		Use:   "check <from-layer> <to-layer>",
		Short: "Check whether one layer may import another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			check, err := a.catalog.ValidateFSDDependency(args[0], args[1])
			if err != nil {
				return err
			}
			return a.render(cmd, check, func(w io.Writer) error {
				verdict := okStyle.Render("allowed")
				if !check.Valid {
					verdict = errStyle.Render("not allowed")
				}
				fmt.Fprintf(w, "%s -> %s: %s (%s)\n", check.From, check.To, verdict, check.Reason)
				return nil
			})
		},
	})

	fsd.AddCommand(&cobra.Command{
		Use:   "api <path> [export...]",
		Short: "Check a slice's public API file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := mcpconfig.ValidatePublicAPIPattern(args[0], args[1:])
			return a.render(cmd, report, func(w io.Writer) error {
				writeField(w, "Path", report.Path)
				writeField(w, "Index file", yesNo(report.HasIndexFile))
				writeField(w, "Valid", yesNo(report.Valid))
				writeList(w, "Issues", report.Issues)
				writeList(w, "Suggestions", report.Suggestions)
				return nil
			})
		},
	})

	fsd.AddCommand(&cobra.Command{
		Use:   "scaffold <layer> <name>",
		Short: "Print a suggested slice layout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := a.catalog.SuggestFSDCodeStructure(args[0], args[1])
			if err != nil {
				return err
			}
			return a.render(cmd, map[string]string{"layer": args[0], "name": args[1], "structure": layout}, func(w io.Writer) error {
				_, err := io.WriteString(w, layout)
				return err
			})
		},
	})

	var root string
	var changed bool
	lint := &cobra.Command{
		Use:   "lint",
		Short: "Check src/ imports against the FSD layer rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(root) == "" {
				detected, err := gitutil.DetectRepoRoot(ctx, ".")
				if err != nil {
					return err
				}
				root = detected
			}
			opts := fsdlint.Options{Logger: a.log}
			if changed {
				files, err := gitutil.ChangedFiles(ctx, root)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no changed files")
					return nil
				}
				opts.Only = files
			}

			report, err := fsdlint.Lint(ctx, a.catalog, root, opts)
			if err != nil {
				return err
			}
			if err := a.render(cmd, report, func(w io.Writer) error {
				for _, v := range report.Violations {
					fmt.Fprintf(w, "%s:%d: %s %s (%s)\n", v.File, v.Line, warnStyle.Render(v.Kind), v.Specifier, v.Message)
				}
				fmt.Fprintf(w, "%d files, %d imports, %d violations\n", report.FilesScanned, report.Imports, len(report.Violations))
				return nil
			}); err != nil {
				return err
			}
			if !report.OK() {
				return errLintFailed
			}
			return nil
		},
	}
	lint.Flags().StringVar(&root, "root", "", "project root containing src/ (default: repository root)")
	lint.Flags().BoolVar(&changed, "changed", false, "only lint files with uncommitted changes")
	fsd.AddCommand(lint)

	return fsd
}
