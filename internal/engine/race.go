package engine

import (
	"context"
	"time"

	"github.com/crewline/crewline/internal/event"
	"github.com/crewline/crewline/internal/router"
)

// RaceGroup holds redundant variants of one logical work item. All variants
// run concurrently; the first success wins and the rest are cancelled.
type RaceGroup struct {
	Title    string
	Variants []router.AssignedTask
}

// variantOutcome is one variant's result, tagged with its index.
type variantOutcome struct {
	index  int
	result ExecutionResult
}

// ExecuteRace runs each group's variants concurrently, taking the first
// successful variant per group and cancelling the rest. A group where
// every variant fails is recorded as failed with the last error observed.
func (e *Engine) ExecuteRace(ctx context.Context, groups []RaceGroup) (*ExecutionReport, error) {
	report := &ExecutionReport{
		Strategy: router.StrategyRace,
		State:    StateRunning,
		Total:    len(groups),
	}

	start := time.Now()
	for _, group := range groups {
		res, cancelled := e.raceGroup(ctx, group)
		report.Results = append(report.Results, res)
		report.Cancelled += cancelled
	}

	finish(report, time.Since(start))
	e.emit(event.KindMilestoneReached, map[string]any{
		"milestone": "execution finished",
		"strategy":  string(router.StrategyRace),
		"state":     string(report.State),
	})
	return report, nil
}

// raceGroup runs one group's variants and returns the winning result plus
// the number of cancellation signals issued. Each variant gets its own
// cancellable context; when a winner emerges, every other variant is
// signalled. The winner guard ignores any later success from a variant
// the cancellation could not preempt.
func (e *Engine) raceGroup(ctx context.Context, group RaceGroup) (ExecutionResult, int) {
	if len(group.Variants) == 0 {
		return ExecutionResult{
			ItemTitle: group.Title,
			Error:     "race group has no variants",
			Timestamp: time.Now(),
		}, 0
	}

	cancels := make([]context.CancelFunc, len(group.Variants))
	outcomes := make(chan variantOutcome, len(group.Variants))
	for i, variant := range group.Variants {
		vctx, cancel := context.WithCancel(ctx)
		cancels[i] = cancel
		go func(i int, at router.AssignedTask) {
			defer cancel()
			outcomes <- variantOutcome{index: i, result: e.runItem(vctx, at)}
		}(i, variant)
	}

	var winner *ExecutionResult
	var last ExecutionResult
	cancelled := 0
	for range group.Variants {
		outcome := <-outcomes
		last = outcome.result
		if !outcome.result.Success || winner != nil {
			continue
		}
		won := outcome.result
		winner = &won
		for i, cancel := range cancels {
			if i == outcome.index {
				continue
			}
			cancel()
			cancelled++
		}
		e.logger.Info("race winner",
			"group", group.Title,
			"role", won.Role,
			"cancelled", cancelled,
		)
	}

	if winner != nil {
		return *winner, cancelled
	}

	// All variants failed: keep the last error, attributed to the group.
	last.ItemTitle = group.Title
	last.Success = false
	e.logger.Warn("race group failed", "group", group.Title, "error", last.Error)
	return last, 0
}
