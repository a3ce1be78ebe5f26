package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elderberry/agentops/internal/agentlog"
	"github.com/elderberry/agentops/internal/optimizer"
	"github.com/elderberry/agentops/internal/theme"
	"github.com/elderberry/agentops/internal/ui"
)

func (a *app) tuiCommand() *cobra.Command {
	var flags themeFlags
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse agents, commands and layers and run commands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := flags.resolve(ctx)
			if err != nil {
				a.log.Warn("theme unavailable, using dark", zap.Error(err))
				t = theme.Dark
			}

			logger := agentlog.New(a.cfg.AgentLog(), agentlog.WithZap(a.log))
			defer func() {
				logger.EndSession(ctx)
				_ = logger.Close()
			}()

			opt := optimizer.New(a.catalog, optimizer.WithLogger(logger), optimizer.WithZap(a.log))
			return ui.Run(ctx, ui.Options{
				Optimizer: opt,
				Theme:     t,
				Status:    "session " + logger.SessionID() + " via " + logger.TransportName(),
			})
		},
	}
	flags.bind(cmd)
	return cmd
}
