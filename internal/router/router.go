// Package router assigns backlog items to provisioned workers through an
// ordered, scored keyword table, recommends an execution strategy for the
// combination of backlog and roster, and groups assignments into the fixed
// execution phases.
package router

import (
	"strings"

	"github.com/crewline/crewline/internal/errors"
	"github.com/crewline/crewline/internal/logging"
	"github.com/crewline/crewline/internal/task"
	"github.com/crewline/crewline/internal/worker"
)

// AssignedTask binds one work item to exactly one worker handle.
type AssignedTask struct {
	Item   task.WorkItem
	Worker *worker.Handle
}

// Strategy names an execution strategy the engine can run.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
	StrategyHybrid     Strategy = "hybrid"
	StrategyRace       Strategy = "race"
)

// Phase names one of the fixed execution phases, in hybrid order.
type Phase string

const (
	PhasePlanning      Phase = "planning"
	PhaseCoding        Phase = "coding"
	PhaseQuality       Phase = "quality"
	PhaseDocumentation Phase = "documentation"
)

// PhaseOrder returns the phases in execution order.
func PhaseOrder() []Phase {
	return []Phase{PhasePlanning, PhaseCoding, PhaseQuality, PhaseDocumentation}
}

// Router scores work items against its rule table to pick workers.
type Router struct {
	rules  []Rule
	logger *logging.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithRules replaces the built-in routing table.
func WithRules(rules []Rule) Option {
	return func(r *Router) { r.rules = rules }
}

// WithLogger sets the router's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Router with the default rule table.
func New(opts ...Option) *Router {
	r := &Router{
		rules:  DefaultRules(),
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Assign routes every work item to the best-fit worker in the roster.
// Every item gets exactly one assignment; items no rule matches fall back
// to the implementer. An empty roster (or a roster that cannot take the
// fallback) fails with ErrNoEligibleWorker.
func (r *Router) Assign(items []task.WorkItem, roster *worker.Roster) ([]AssignedTask, error) {
	if roster == nil || roster.Len() == 0 {
		return nil, errors.NewRoutingError("empty roster", errors.ErrNoEligibleWorker)
	}

	assigned := make([]AssignedTask, 0, len(items))
	for _, item := range items {
		role := r.bestRole(item, roster)
		if role == "" {
			role = worker.RoleImplementer
		}
		h := roster.Get(role)
		if h == nil {
			return nil, errors.NewRoutingError("no worker for role", errors.ErrNoEligibleWorker).
				WithItem(item.Title)
		}
		r.logger.Debug("work item routed", "item", item.Title, "role", role)
		assigned = append(assigned, AssignedTask{Item: item, Worker: h})
	}
	return assigned, nil
}

// bestRole scores every rule hit against the item's title and description
// and returns the winning roster role, or "" when nothing matches.
// Strictly-greater comparison keeps the first rule evaluated on ties.
func (r *Router) bestRole(item task.WorkItem, roster *worker.Roster) string {
	text := strings.ToLower(item.Title + " " + item.Description)

	best := ""
	bestScore := 0
	for _, rule := range r.rules {
		if !strings.Contains(text, rule.Keyword) {
			continue
		}
		for i, role := range rule.Roles {
			if !roster.Has(role) {
				continue
			}
			score := scoreRuleHit
			if i == 0 {
				score += scoreFirstPreference
			}
			if _, critical := criticalRoles[role]; critical {
				score += scoreCriticalRole
			}
			if score > bestScore {
				best = role
				bestScore = score
			}
		}
	}
	return best
}

// RecommendStrategy picks an execution strategy for the backlog and roster.
// Declared dependencies force sequential; a base-only roster runs parallel;
// a small specialist fan-out (three or fewer) runs hybrid; anything wider
// runs sequential to limit contention.
func (r *Router) RecommendStrategy(items []task.WorkItem, roster *worker.Roster) Strategy {
	if task.HasDependencies(items) {
		return StrategySequential
	}
	if roster.BaseOnly() {
		return StrategyParallel
	}
	if roster.SpecialistCount() <= 3 {
		return StrategyHybrid
	}
	return StrategySequential
}

// GroupPhases splits assignments into the fixed phases by worker role:
// planner work is planning, verifier and reviewer work is quality,
// documenter work is documentation, and everything else (the implementer
// and all specialists) is coding.
func (r *Router) GroupPhases(assigned []AssignedTask) map[Phase][]AssignedTask {
	phases := make(map[Phase][]AssignedTask, 4)
	for _, at := range assigned {
		phase := phaseFor(at.Worker.Role.Name)
		phases[phase] = append(phases[phase], at)
	}
	return phases
}

func phaseFor(role string) Phase {
	switch role {
	case worker.RolePlanner:
		return PhasePlanning
	case worker.RoleVerifier, worker.RoleReviewer:
		return PhaseQuality
	case worker.RoleDocumenter:
		return PhaseDocumentation
	}
	return PhaseCoding
}
