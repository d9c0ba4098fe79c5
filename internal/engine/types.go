package engine

import (
	"time"

	"github.com/crewline/crewline/internal/router"
)

// JobState tracks a job through its lifecycle. Jobs start Pending, move to
// Running when execution begins, and finish Completed or PartiallyFailed.
type JobState string

const (
	StatePending         JobState = "pending"
	StateRunning         JobState = "running"
	StateCompleted       JobState = "completed"
	StatePartiallyFailed JobState = "partially_failed"
)

// ExecutionResult records one attempt at a work item. Results are created
// once per attempt and never mutated.
type ExecutionResult struct {
	ItemTitle string
	Role      string
	Output    string
	Duration  time.Duration
	Success   bool
	Error     string
	Timestamp time.Time

	// Metrics and Findings are declared by the executor integration layer
	// (coverage numbers, doc completeness, security findings) and read by
	// integrity checks. The engine itself leaves them empty.
	Metrics  map[string]float64
	Findings []string
}

// PhaseResult aggregates the results of one named phase under the hybrid
// strategy. Success is true only if every result in the phase succeeded.
type PhaseResult struct {
	Phase    router.Phase
	Results  []ExecutionResult
	Duration time.Duration
	Success  bool
}

// ExecutionReport is what a run returns to the caller: the strategy used,
// terminal state, counters, wall-clock duration, and the full result set.
// Overall success is the caller's judgment; a PartiallyFailed job still
// carries every successful result.
type ExecutionReport struct {
	Strategy  router.Strategy
	State     JobState
	Total     int
	Succeeded int
	Failed    int
	Cancelled int // race mode: losing variants cancelled
	Duration  time.Duration
	Results   []ExecutionResult
	Phases    []PhaseResult
}

// SuccessRate returns the fraction of items that succeeded.
func (r *ExecutionReport) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Total)
}
