// Package cli implements agentctl, the command-line front end for the agent
// catalog, the performance optimizer, themes and the logging server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/elderberry/agentops/internal/logging"
	"github.com/elderberry/agentops/internal/mcpconfig"
	"github.com/elderberry/agentops/internal/trace"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     Config
	cfgPath string
	log     *zap.Logger
	catalog *mcpconfig.Catalog

	shutdownTrace func(context.Context) error
}

// NewRootCommand builds the agentctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "agentctl",
		Short:         "Agent catalog, optimizer and logging toolbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.shutdownTrace != nil {
				if err := a.shutdownTrace(context.WithoutCancel(cmd.Context())); err != nil {
					a.log.Warn("trace shutdown failed", zap.Error(err))
				}
			}
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/.config/agentops/agentctl.yaml)")
	flags.String("catalog", "", "YAML catalog overlay")
	flags.StringP("output", "o", "text", "output format: text|json")
	flags.String("log-level", "warn", "diagnostic log level")
	flags.String("log-mode", "", "agent log transport: auto|grpc|http|console")
	flags.String("server", "", "logging server gRPC address")
	for key, flag := range map[string]string{
		"catalog":          "catalog",
		"output":           "output",
		"log_level":        "log-level",
		"log.mode":         "log-mode",
		"server.grpc_addr": "server",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.agentsCommand(),
		a.commandCommand(),
		a.fsdCommand(),
		a.validateCommand(),
		a.planCommand(),
		a.runCommand(),
		a.themeCommand(),
		a.logsCommand(),
		a.tuiCommand(),
	)
	return root
}

// Execute runs agentctl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) setup(ctx context.Context) error {
	cfg, path, err := LoadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	catalog, err := mcpconfig.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	shutdown, err := trace.Init(ctx, trace.Config{
		ServiceName: "agentctl",
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.cfg, a.cfgPath, a.log, a.catalog, a.shutdownTrace = cfg, path, log, catalog, shutdown
	a.log.Debug("agentctl configured", zap.String("config", path), zap.String("catalog", cfg.Catalog))
	return nil
}

// render writes value as JSON when -o json is set, otherwise calls text.
func (a *app) render(cmd *cobra.Command, value any, text func(w io.Writer) error) error {
	out := cmd.OutOrStdout()
	if a.cfg.Output == "json" || text == nil {
		return printJSON(out, value)
	}
	return text(out)
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
