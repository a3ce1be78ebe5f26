package cli

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elderberry/agentops/internal/agentlog"
	"github.com/elderberry/agentops/internal/domain"
	"github.com/elderberry/agentops/internal/optimizer"
)

func (a *app) planCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <command>",
		Short: "Show the execution plan for a custom command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := optimizer.New(a.catalog, optimizer.WithZap(a.log)).BuildExecutionPlan(args[0])
			if err != nil {
				return err
			}
			return a.render(cmd, plan, func(w io.Writer) error {
				mode := "sequential"
				if plan.Parallel {
					mode = fmt.Sprintf("parallel (max %d)", plan.Strategy.MaxConcurrency)
				}
				writeField(w, "Command", plan.Command)
				writeField(w, "Strategy", fmt.Sprintf("%s, %s, timeout %s, %d retries", plan.Strategy.Name, mode,
					plan.Strategy.Timeout, plan.Strategy.RetryAttempts))
				writeField(w, "Estimate", fmt.Sprintf("%s, ~%d MB, ~%d%% CPU", formatDuration(plan.EstimatedDuration),
					plan.Resources.MemoryMB, plan.Resources.CPUPercent))
				rows := make([][]string, 0, len(plan.Steps))
				for _, step := range plan.Steps {
					rows = append(rows, []string{
						strconv.Itoa(step.Order), step.Agent, joinOrDash(step.Tools), formatDuration(step.EstimatedDuration),
					})
				}
				return writeTable(w, []string{"#", "AGENT", "TOOLS", "ESTIMATE"}, rows)
			})
		},
	}
}

type runOutput struct {
	SessionID       string                      `json:"session_id"`
	Transport       string                      `json:"transport"`
	Reports         []optimizer.ExecutionReport `json:"reports"`
	Summaries       []optimizer.AgentSummary    `json:"summaries"`
	Recommendations map[string][]string         `json:"recommendations"`
	Session         domain.SessionSummary       `json:"session"`
}

func (a *app) runCommand() *cobra.Command {
	var repeat int
	var seed uint64
	cmd := &cobra.Command{
		Use:   "run <command> <task...>",
		Short: "Simulate a custom command and report it to the agent log",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if repeat < 1 {
				return domain.InvalidArgument("--repeat must be at least 1")
			}
			ctx := cmd.Context()
			task := strings.Join(args[1:], " ")

			logger := agentlog.New(a.cfg.AgentLog(), agentlog.WithZap(a.log))
			defer func() {
				if err := logger.Close(); err != nil {
					a.log.Warn("agent log close failed", zap.Error(err))
				}
			}()

			opts := []optimizer.Option{optimizer.WithLogger(logger), optimizer.WithZap(a.log)}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.Seed
			}
			if seed != 0 {
				opts = append(opts, optimizer.WithRand(rand.New(rand.NewPCG(seed, seed^0x5bd1e995))))
			}
			opt := optimizer.New(a.catalog, opts...)

			out := runOutput{
				SessionID:       logger.SessionID(),
				Transport:       logger.TransportName(),
				Recommendations: map[string][]string{},
			}
			for i := 0; i < repeat; i++ {
				report, err := opt.Execute(ctx, args[0], task)
				if err != nil {
					out.Session = logger.EndSession(ctx)
					return err
				}
				out.Reports = append(out.Reports, report)
			}
			out.Session = logger.EndSession(ctx)
			out.Summaries = opt.Summaries()
			for _, summary := range out.Summaries {
				out.Recommendations[summary.Agent] = opt.Recommendations(summary.Agent)
			}

			return a.render(cmd, out, func(w io.Writer) error {
				return writeRunText(w, out)
			})
		},
	}
	cmd.Flags().IntVar(&repeat, "repeat", 1, "number of times to execute the plan")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for the simulated outcomes (0 = random)")
	return cmd
}

func writeRunText(w io.Writer, out runOutput) error {
	writeField(w, "Session", fmt.Sprintf("%s via %s", out.SessionID, out.Transport))
	for i, report := range out.Reports {
		fmt.Fprintf(w, "\n%s %s %q (%s): %d ok, %d failed, %s, avg score %.2f\n",
			headingStyle.Render(fmt.Sprintf("Run %d:", i+1)), report.Command, report.Task, report.Strategy,
			report.Succeeded, report.Failed, formatDuration(report.Duration), report.AverageScore)
		rows := make([][]string, 0, len(report.Steps))
		for _, step := range report.Steps {
			status := okStyle.Render("ok")
			if !step.Success {
				status = errStyle.Render("failed")
			}
			rows = append(rows, []string{
				strconv.Itoa(step.Order), step.Agent, status, strconv.Itoa(step.Attempts),
				formatDuration(step.Duration), fmt.Sprintf("%.2f", step.Score),
			})
		}
		if err := writeTable(w, []string{"#", "AGENT", "STATUS", "ATTEMPTS", "DURATION", "SCORE"}, rows); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	for _, summary := range out.Summaries {
		fmt.Fprintf(w, "%s %d samples, %.0f%% success, avg score %.2f, avg %s\n",
			headingStyle.Render(summary.Agent+":"), summary.Samples, summary.SuccessRate*100,
			summary.AverageScore, formatDuration(summary.AverageDuration))
		for _, rec := range out.Recommendations[summary.Agent] {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
	writeField(w, "Session total", fmt.Sprintf("%d executions, %d succeeded, %d failed",
		out.Session.TotalExecutions, out.Session.Succeeded, out.Session.Failed))
	return nil
}
