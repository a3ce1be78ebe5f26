package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/elderberry/agentops/internal/gitutil"
	"github.com/elderberry/agentops/internal/theme"
)

type themeFlags struct {
	repo    string
	builtin string
}

func (f *themeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.repo, "repo", "", "repository holding .agentops/theme.json (default: repository root)")
	cmd.Flags().StringVar(&f.builtin, "builtin", "", "use a built-in theme (light|dark) instead of the saved one")
}

func (f *themeFlags) repoRoot(ctx context.Context) (string, error) {
	if strings.TrimSpace(f.repo) != "" {
		return f.repo, nil
	}
	return gitutil.DetectRepoRoot(ctx, ".")
}

// resolve returns the built-in theme when requested, otherwise the theme
// saved in the repository.
func (f *themeFlags) resolve(ctx context.Context) (theme.Theme, error) {
	if strings.TrimSpace(f.builtin) != "" {
		return theme.Builtin(f.builtin)
	}
	root, err := f.repoRoot(ctx)
	if err != nil {
		return theme.Theme{}, err
	}
	return theme.Load(root)
}

func (a *app) themeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Export, import and preview the Linear theme core",
	}
	cmd.AddCommand(a.themeExportCommand(), a.themeImportCommand(), a.themeCSSCommand(), a.themePreviewCommand())
	return cmd
}

func (a *app) themeExportCommand() *cobra.Command {
	var flags themeFlags
	var file string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the theme as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.resolve(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := theme.Export(t)
			if err != nil {
				return err
			}
			if file == "" || file == "-" {
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			if err := os.WriteFile(file, raw, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", file, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported theme %s to %s\n", t.Name, file)
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default stdout)")
	return cmd
}

func (a *app) themeImportCommand() *cobra.Command {
	var flags themeFlags
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Validate a theme JSON document and save it to the repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read theme: %w", err)
			}
			t, err := theme.Import(raw)
			if err != nil {
				return err
			}
			root, err := flags.repoRoot(cmd.Context())
			if err != nil {
				return err
			}
			if err := theme.Save(root, t); err != nil {
				return err
			}
			return a.render(cmd, t, func(w io.Writer) error {
				fmt.Fprintf(w, "imported theme %s (%s) to %s\n", t.Name, t.Appearance, theme.FilePath(root))
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *app) themeCSSCommand() *cobra.Command {
	var flags themeFlags
	cmd := &cobra.Command{
		Use:   "css",
		Short: "Print the derived CSS variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.resolve(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd, theme.CSSVariables(t), func(w io.Writer) error {
				_, err := io.WriteString(w, theme.CSS(t))
				return err
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func (a *app) themePreviewCommand() *cobra.Command {
	var flags themeFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render colour swatches for the derived palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.resolve(cmd.Context())
			if err != nil {
				return err
			}
			vars := theme.CSSVariables(t)
			palette := theme.Palette(t)
			return a.render(cmd, vars, func(w io.Writer) error {
				writeField(w, "Theme", fmt.Sprintf("%s (%s, contrast %.0f)", t.Name, t.Appearance, t.Core.Contrast))
				names := make([]string, 0, len(vars))
				for name := range vars {
					names = append(names, name)
				}
				slices.Sort(names)
				for _, name := range names {
					swatch := lipgloss.NewStyle().Background(lipgloss.Color(vars[name])).Render("      ")
					fmt.Fprintf(w, "%s %-24s %s  %s\n", swatch, name, vars[name], palette[name])
				}
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}
