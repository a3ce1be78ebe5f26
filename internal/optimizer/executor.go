package optimizer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elderberry/agentops/internal/agentlog"
	"github.com/elderberry/agentops/internal/mcpconfig"
	"github.com/elderberry/agentops/internal/trace"
)

// failureThreshold is the draw at or below which a simulated step fails.
const failureThreshold = 0.1

// ExecutionLogger receives step lifecycle events. *agentlog.Logger satisfies it.
type ExecutionLogger interface {
	StartExecution(ctx context.Context, agent, taskType, description string, tools []string) string
	CompleteExecution(ctx context.Context, executionID string, result agentlog.Result)
	LogToolUsage(ctx context.Context, executionID, tool, operation string, duration time.Duration, success bool)
	LogMetric(ctx context.Context, agent, metric string, value float64, unit string)
	LogError(ctx context.Context, executionID, agent, errorType, message string, details map[string]string)
}

type Optimizer struct {
	catalog *mcpconfig.Catalog
	history *History
	logger  ExecutionLogger
	log     *zap.Logger
	now     func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Optimizer)

func WithLogger(logger ExecutionLogger) Option {
	return func(o *Optimizer) { o.logger = logger }
}

// WithRand fixes the random source used to simulate step outcomes.
func WithRand(rng *rand.Rand) Option {
	return func(o *Optimizer) { o.rng = rng }
}

func WithHistory(history *History) Option {
	return func(o *Optimizer) { o.history = history }
}

func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) { o.now = now }
}

func WithZap(log *zap.Logger) Option {
	return func(o *Optimizer) { o.log = log }
}

func New(catalog *mcpconfig.Catalog, opts ...Option) *Optimizer {
	if catalog == nil {
		catalog = mcpconfig.Default()
	}
	o := &Optimizer{
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.history == nil {
		o.history = NewHistory(DefaultHistoryLimit)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	if o.log == nil {
		o.log = zap.L()
	}
	if o.logger == nil {
		o.logger = nopLogger{}
	}
	return o
}

func (o *Optimizer) Catalog() *mcpconfig.Catalog { return o.catalog }

func (o *Optimizer) History() *History { return o.history }

type StepResult struct {
	Order       int           `json:"order"`
	Agent       string        `json:"agent"`
	ExecutionID string        `json:"execution_id"`
	Success     bool          `json:"success"`
	Attempts    int           `json:"attempts"`
	Duration    time.Duration `json:"duration"`
	Score       float64       `json:"score"`
	Error       string        `json:"error,omitempty"`
}

type ExecutionReport struct {
	Command      string        `json:"command"`
	Task         string        `json:"task"`
	Parallel     bool          `json:"parallel"`
	Strategy     string        `json:"strategy"`
	Steps        []StepResult  `json:"steps"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	Duration     time.Duration `json:"duration"`
	AverageScore float64       `json:"average_score"`
}

// Execute simulates running the plan for command against task. Step outcomes
// come from the optimizer's random source; nothing sleeps. Parallel plans run
// at most Strategy.MaxConcurrency steps at once.
func (o *Optimizer) Execute(ctx context.Context, command, task string) (ExecutionReport, error) {
	plan, err := o.BuildExecutionPlan(command)
	if err != nil {
		return ExecutionReport{}, err
	}
	task = strings.TrimSpace(task)

	ctx, span := trace.Tracer().Start(ctx, "optimizer.execute",
		oteltrace.WithAttributes(
			attribute.String("agentops.command", plan.Command),
			attribute.String("agentops.priority", plan.Priority),
			attribute.Bool("agentops.parallel", plan.Parallel),
			attribute.Int("agentops.steps", len(plan.Steps)),
		),
	)
	defer span.End()

	results := make([]StepResult, len(plan.Steps))
	if plan.Parallel {
		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(max(1, plan.Strategy.MaxConcurrency))
		for i, step := range plan.Steps {
			group.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = o.runStep(gctx, plan, step, task)
				return nil
			})
		}
		err = group.Wait()
	} else {
		for i, step := range plan.Steps {
			if err = ctx.Err(); err != nil {
				break
			}
			results[i] = o.runStep(ctx, plan, step, task)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ExecutionReport{}, fmt.Errorf("execute %s: %w", plan.Command, err)
	}

	report := summarize(plan, task, results)
	span.SetAttributes(
		attribute.Int("agentops.succeeded", report.Succeeded),
		attribute.Int("agentops.failed", report.Failed),
		attribute.Float64("agentops.average_score", report.AverageScore),
	)
	o.log.Info("plan executed",
		zap.String("command", plan.Command),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (o *Optimizer) runStep(ctx context.Context, plan Plan, step PlanStep, task string) StepResult {
	executionID := o.logger.StartExecution(ctx, step.Agent, plan.Command, task, step.Tools)
	result := StepResult{Order: step.Order, Agent: step.Agent, ExecutionID: executionID}

	for attempt := 0; attempt <= plan.Strategy.RetryAttempts; attempt++ {
		result.Attempts++
		elapsed, draw := o.simulate(step.EstimatedDuration)
		result.Duration += elapsed

		switch {
		case elapsed > plan.Strategy.Timeout:
			result.Error = fmt.Sprintf("step exceeded timeout %s", plan.Strategy.Timeout)
		case draw <= failureThreshold:
			result.Error = "simulated agent failure"
		default:
			result.Success = true
			result.Error = ""
		}
		o.logToolUsage(ctx, executionID, step.Tools, elapsed, result.Success)
		if result.Success {
			break
		}
	}

	result.Score = CalculatePerformanceScore(result.Duration, result.Success)
	if !result.Success {
		o.logger.LogError(ctx, executionID, step.Agent, "execution_failed", result.Error, map[string]string{
			"command":  plan.Command,
			"attempts": fmt.Sprint(result.Attempts),
		})
	}
	o.logger.CompleteExecution(ctx, executionID, agentlog.Result{
		Success:  result.Success,
		Score:    result.Score,
		Duration: result.Duration,
		Summary:  fmt.Sprintf("%s step %d of %s", step.Agent, step.Order, plan.Command),
		Error:    result.Error,
	})
	o.logger.LogMetric(ctx, step.Agent, "performance_score", result.Score, "ratio")

	o.history.Record(Sample{
		Timestamp: o.now().UTC(),
		AgentName: step.Agent,
		TaskType:  plan.Command,
		Duration:  result.Duration,
		Success:   result.Success,
		ToolsUsed: step.Tools,
		Score:     result.Score,
		Resources: EstimateResources(1, len(step.Tools)),
	})
	return result
}

func (o *Optimizer) logToolUsage(ctx context.Context, executionID string, tools []string, elapsed time.Duration, success bool) {
	if len(tools) == 0 {
		return
	}
	share := elapsed / time.Duration(len(tools))
	for _, tool := range tools {
		o.logger.LogToolUsage(ctx, executionID, tool, "invoke", share, success)
	}
}

// simulate returns a jittered duration in [0.5, 1.5) of estimate and the
// success draw.
func (o *Optimizer) simulate(estimate time.Duration) (time.Duration, float64) {
	o.rngMu.Lock()
	defer o.rngMu.Unlock()
	jitter := 0.5 + o.rng.Float64()
	return time.Duration(float64(estimate) * jitter), o.rng.Float64()
}

func summarize(plan Plan, task string, results []StepResult) ExecutionReport {
	report := ExecutionReport{
		Command:  plan.Command,
		Task:     task,
		Parallel: plan.Parallel,
		Strategy: plan.Strategy.Name,
		Steps:    results,
	}
	var totalScore float64
	for _, result := range results {
		if result.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
		totalScore += result.Score
		if plan.Parallel {
			report.Duration = max(report.Duration, result.Duration)
		} else {
			report.Duration += result.Duration
		}
	}
	if len(results) > 0 {
		report.AverageScore = totalScore / float64(len(results))
	}
	return report
}

type nopLogger struct{}

func (nopLogger) StartExecution(context.Context, string, string, string, []string) string {
	return ""
}
func (nopLogger) CompleteExecution(context.Context, string, agentlog.Result) {}
func (nopLogger) LogToolUsage(context.Context, string, string, string, time.Duration, bool) {}
func (nopLogger) LogMetric(context.Context, string, string, float64, string) {}
func (nopLogger) LogError(context.Context, string, string, string, string, map[string]string) {}
