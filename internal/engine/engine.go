// Package engine runs assigned work items under one of four strategies:
// sequential, parallel, phased hybrid, and race. Worker failures are
// contained at the item boundary and recorded; only failures in the
// orchestration logic itself surface as errors.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crewline/crewline/internal/errors"
	"github.com/crewline/crewline/internal/event"
	"github.com/crewline/crewline/internal/logging"
	"github.com/crewline/crewline/internal/router"
	"github.com/crewline/crewline/internal/worker"
)

// Engine executes assigned tasks and reports results.
type Engine struct {
	bus    *event.Bus
	router *router.Router
	logger *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBus sets the event bus lifecycle events are published on.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithRouter sets the router used for phase grouping under hybrid.
func WithRouter(r *router.Router) Option {
	return func(e *Engine) {
		if r != nil {
			e.router = r
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		router: router.New(),
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the assigned tasks under the given strategy and returns the
// report. Race is a variant-group mode with its own entry point; asking for
// it here is a caller error.
func (e *Engine) Execute(ctx context.Context, strategy router.Strategy, assigned []router.AssignedTask) (*ExecutionReport, error) {
	report := &ExecutionReport{
		Strategy: strategy,
		State:    StatePending,
		Total:    len(assigned),
	}

	start := time.Now()
	report.State = StateRunning
	e.logger.Info("execution started", "strategy", string(strategy), "items", len(assigned))

	switch strategy {
	case router.StrategySequential:
		report.Results = e.runSequential(ctx, assigned)
	case router.StrategyParallel:
		report.Results = e.runParallel(ctx, assigned)
	case router.StrategyHybrid:
		report.Phases = e.runHybrid(ctx, assigned)
		for _, phase := range report.Phases {
			report.Results = append(report.Results, phase.Results...)
		}
	case router.StrategyRace:
		return nil, errors.NewExecutionError("race strategy requires variant groups", errors.ErrInvalidInput)
	default:
		return nil, errors.NewExecutionError(fmt.Sprintf("unknown strategy %q", strategy), errors.ErrInvalidInput)
	}

	finish(report, time.Since(start))
	e.emit(event.KindMilestoneReached, map[string]any{
		"milestone": "execution finished",
		"strategy":  string(strategy),
		"state":     string(report.State),
	})
	e.logger.Info("execution finished",
		"state", string(report.State),
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	return report, nil
}

// finish tallies counters and settles the terminal state.
func finish(report *ExecutionReport, elapsed time.Duration) {
	report.Duration = elapsed
	for _, res := range report.Results {
		if res.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	if report.Failed == 0 {
		report.State = StateCompleted
	} else {
		report.State = StatePartiallyFailed
	}
}

// runSequential executes tasks strictly in backlog order. A failure is
// recorded and the next item still runs.
func (e *Engine) runSequential(ctx context.Context, assigned []router.AssignedTask) []ExecutionResult {
	results := make([]ExecutionResult, 0, len(assigned))
	for _, at := range assigned {
		results = append(results, e.runItem(ctx, at))
	}
	return results
}

// runParallel launches every task concurrently and waits for all of them.
// A failing item does not cancel its siblings.
func (e *Engine) runParallel(ctx context.Context, assigned []router.AssignedTask) []ExecutionResult {
	if len(assigned) == 0 {
		return nil
	}

	results := make([]ExecutionResult, len(assigned))
	var wg sync.WaitGroup
	for i, at := range assigned {
		wg.Add(1)
		go func(i int, at router.AssignedTask) {
			defer wg.Done()
			results[i] = e.runItem(ctx, at)
		}(i, at)
	}
	wg.Wait()
	return results
}

// runHybrid executes the fixed phases in order, tasks within each phase in
// parallel. A phase starts only after the previous phase fully drains.
func (e *Engine) runHybrid(ctx context.Context, assigned []router.AssignedTask) []PhaseResult {
	grouped := e.router.GroupPhases(assigned)

	var phases []PhaseResult
	for _, phase := range router.PhaseOrder() {
		tasks := grouped[phase]
		if len(tasks) == 0 {
			continue
		}

		start := time.Now()
		results := e.runParallel(ctx, tasks)

		pr := PhaseResult{
			Phase:    phase,
			Results:  results,
			Duration: time.Since(start),
			Success:  true,
		}
		for _, res := range results {
			if !res.Success {
				pr.Success = false
				break
			}
		}
		phases = append(phases, pr)

		e.emit(event.KindMilestoneReached, map[string]any{
			"milestone": "phase finished",
			"phase":     string(phase),
			"success":   pr.Success,
		})
		e.logger.Info("phase finished", "phase", string(phase), "success", pr.Success)
	}
	return phases
}

// runItem executes one assigned task, containing worker errors and panics
// in the returned result.
func (e *Engine) runItem(ctx context.Context, at router.AssignedTask) ExecutionResult {
	start := time.Now()
	res := ExecutionResult{
		ItemTitle: at.Item.Title,
		Role:      at.Worker.Role.Name,
		Timestamp: start,
	}

	// Cancelled before it could start: skip the worker and the event stream.
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		e.logger.Debug("work item cancelled before start", "item", at.Item.Title, "role", res.Role)
		return res
	}

	e.emit(event.KindTaskStarted, map[string]any{
		"item": at.Item.Title,
		"role": res.Role,
	})

	output, err := e.invoke(ctx, at)
	res.Duration = time.Since(start)

	// Once the item's context has been cancelled (its race was won by a
	// sibling, or the job was stopped), the item must stay silent: no
	// terminal event reaches the bus, so observers never count a
	// deliberately-cancelled variant as a completion or a failure.
	if ctx.Err() != nil {
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Output = output
			res.Success = true
		}
		e.logger.Debug("work item cancelled", "item", at.Item.Title, "role", res.Role)
		return res
	}

	if err != nil {
		res.Error = err.Error()
		e.logger.WithWorker(res.Role).Warn("work item failed", "item", at.Item.Title, "error", res.Error)
		e.emit(event.KindTaskFailed, map[string]any{
			"item":   at.Item.Title,
			"role":   res.Role,
			"error":  res.Error,
			"result": res,
		})
		return res
	}

	res.Output = output
	res.Success = true
	e.emit(event.KindTaskCompleted, map[string]any{
		"item":   at.Item.Title,
		"role":   res.Role,
		"result": res,
	})
	return res
}

// invoke calls the worker's executor, converting a panic into an error so
// one item can never take down its siblings.
func (e *Engine) invoke(ctx context.Context, at router.AssignedTask) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	req := worker.Request{
		Title:          at.Item.Title,
		Description:    at.Item.Description,
		ExpectedOutput: at.Item.ExpectedOutput,
	}
	return at.Worker.Exec(ctx, req, at.Worker)
}

func (e *Engine) emit(kind event.Kind, payload map[string]any) {
	if e.bus == nil {
		return
	}
	e.bus.Push(event.New(kind, "engine", payload))
}
