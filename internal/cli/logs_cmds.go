package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elderberry/agentops/internal/agentlog"
	"github.com/elderberry/agentops/internal/rpccontract"
)

func (a *app) logsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Query the logging server over gRPC",
	}

	cmd.AddCommand(a.logsQuery("health", "Show server health", rpccontract.MethodGetHealth, nil))
	cmd.AddCommand(a.logsQuery("stats", "Show aggregate execution statistics", rpccontract.MethodGetStats, writeStatsText))
	cmd.AddCommand(a.logsQuery("sessions", "List session summaries", rpccontract.MethodListSessions, nil))

	var filter struct {
		session, agent, status string
		limit                  int64
	}
	executions := &cobra.Command{
		Use:   "executions",
		Short: "List recorded executions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.invoke(cmd, rpccontract.MethodListExecutions, map[string]any{
				"session_id": filter.session,
				"agent_name": filter.agent,
				"status":     filter.status,
				"limit":      filter.limit,
			}, writeExecutionsText)
		},
	}
	executions.Flags().StringVar(&filter.session, "session", "", "filter by session id")
	executions.Flags().StringVar(&filter.agent, "agent", "", "filter by agent name")
	executions.Flags().StringVar(&filter.status, "status", "", "filter by status (running|succeeded|failed)")
	executions.Flags().Int64Var(&filter.limit, "limit", 20, "maximum rows")
	cmd.AddCommand(executions)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <execution-id>",
		Short: "Show one execution with its tool usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.invoke(cmd, rpccontract.MethodGetExecution, map[string]any{"id": args[0]}, nil)
		},
	})

	var errLimit int64
	errorsCmd := &cobra.Command{
		Use:   "errors",
		Short: "List recent agent errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.invoke(cmd, rpccontract.MethodListErrors, map[string]any{"limit": errLimit}, writeErrorsText)
		},
	}
	errorsCmd.Flags().Int64Var(&errLimit, "limit", 20, "maximum rows")
	cmd.AddCommand(errorsCmd)

	return cmd
}

func (a *app) logsQuery(use, short, method string, text func(io.Writer, map[string]any) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.invoke(cmd, method, nil, text)
		},
	}
}

func (a *app) invoke(cmd *cobra.Command, method string, payload map[string]any, text func(io.Writer, map[string]any) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	transport, err := agentlog.NewGRPCTransport(a.cfg.ServerClient())
	if err != nil {
		return err
	}
	defer func() {
		if err := transport.Close(); err != nil {
			a.log.Debug("close grpc transport", zap.Error(err))
		}
	}()

	response, err := transport.Invoke(ctx, method, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if text == nil {
		return printJSON(cmd.OutOrStdout(), response)
	}
	return a.render(cmd, response, func(w io.Writer) error { return text(w, response) })
}

func writeStatsText(w io.Writer, stats map[string]any) error {
	counts, _ := stats["counts"].(map[string]any)
	writeField(w, "Executions", fmt.Sprintf("%v (%v running)", counts["executions"], counts["running"]))
	writeField(w, "Success rate", fmt.Sprintf("%.1f%%", number(stats["success_rate"])*100))
	writeField(w, "Average duration", fmt.Sprintf("%.0f ms", number(stats["average_duration_ms"])))
	writeField(w, "Average score", fmt.Sprintf("%.2f", number(stats["average_score"])))
	writeField(w, "Tool calls", fmt.Sprintf("%v", counts["tool_usages"]))
	writeField(w, "Errors", fmt.Sprintf("%v", counts["errors"]))

	byAgent, _ := stats["by_agent"].(map[string]any)
	rows := make([][]string, 0, len(byAgent))
	for _, agent := range sortedKeys(byAgent) {
		entry, _ := byAgent[agent].(map[string]any)
		rows = append(rows, []string{
			agent,
			strconv.Itoa(int(number(entry["executions"]))),
			fmt.Sprintf("%.0f%%", number(entry["success_rate"])*100),
			fmt.Sprintf("%.2f", number(entry["average_score"])),
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return writeTable(w, []string{"AGENT", "RUNS", "SUCCESS", "SCORE"}, rows)
}

func writeExecutionsText(w io.Writer, response map[string]any) error {
	items, _ := response["items"].([]any)
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		exec, _ := item.(map[string]any)
		rows = append(rows, []string{
			fmt.Sprint(exec["id"]),
			fmt.Sprint(exec["agent_name"]),
			fmt.Sprint(exec["task_type"]),
			fmt.Sprint(exec["status"]),
			fmt.Sprintf("%.0f ms", number(exec["duration_ms"])),
			fmt.Sprintf("%.2f", number(exec["performance_score"])),
			fmt.Sprint(exec["started_at"]),
		})
	}
	return writeTable(w, []string{"ID", "AGENT", "TASK", "STATUS", "DURATION", "SCORE", "STARTED"}, rows)
}

func writeErrorsText(w io.Writer, response map[string]any) error {
	items, _ := response["items"].([]any)
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		entry, _ := item.(map[string]any)
		rows = append(rows, []string{
			fmt.Sprint(entry["created_at"]),
			fmt.Sprint(entry["agent_name"]),
			fmt.Sprint(entry["error_type"]),
			fmt.Sprint(entry["message"]),
		})
	}
	return writeTable(w, []string{"WHEN", "AGENT", "TYPE", "MESSAGE"}, rows)
}

func number(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
