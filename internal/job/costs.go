package job

import (
	"sync"

	"github.com/crewline/crewline/internal/event"
)

// CostTracker accumulates per-role cost for one job. When a configured
// ceiling is crossed it publishes a system error event, once.
type CostTracker struct {
	mu      sync.RWMutex
	jobID   string
	ceiling float64 // <= 0 = unlimited
	byRole  map[string]float64
	total   float64
	warned  bool
	bus     *event.Bus
}

// NewCostTracker creates a tracker for a job.
func NewCostTracker(jobID string, ceiling float64, bus *event.Bus) *CostTracker {
	return &CostTracker{
		jobID:   jobID,
		ceiling: ceiling,
		byRole:  make(map[string]float64),
		bus:     bus,
	}
}

// Record adds cost attributed to a role.
func (t *CostTracker) Record(role string, cost float64) {
	t.mu.Lock()
	wasBelow := !t.exhaustedLocked()
	t.byRole[role] += cost
	t.total += cost
	crossed := wasBelow && t.exhaustedLocked() && !t.warned
	if crossed {
		t.warned = true
	}
	total := t.total
	t.mu.Unlock()

	if crossed && t.bus != nil {
		t.bus.Push(event.New(event.KindSystemError, "cost-tracker", map[string]any{
			"job":     t.jobID,
			"total":   total,
			"ceiling": t.ceiling,
			"reason":  "cost ceiling exceeded",
		}))
	}
}

// Total returns the accumulated cost across all roles.
func (t *CostTracker) Total() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}

// ByRole returns a copy of the per-role cost breakdown.
func (t *CostTracker) ByRole() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]float64, len(t.byRole))
	for role, cost := range t.byRole {
		out[role] = cost
	}
	return out
}

// Exhausted reports whether the ceiling has been reached. Always false
// when no ceiling is configured.
func (t *CostTracker) Exhausted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.exhaustedLocked()
}

func (t *CostTracker) exhaustedLocked() bool {
	return t.ceiling > 0 && t.total >= t.ceiling
}
