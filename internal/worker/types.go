package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Priority ranks a role's importance when the dynamic-role limit forces
// truncation of the required set.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// String returns a human-readable name for a priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParsePriority converts a string to a Priority. Unrecognized values
// default to PriorityMedium.
func ParsePriority(s string) Priority {
	switch s {
	case "high", "HIGH":
		return PriorityHigh
	case "low", "LOW":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// RoleDefinition is an immutable template for a specialist worker.
// Definitions live in the catalog and are never mutated after process start.
type RoleDefinition struct {
	// Name is the catalog key (e.g., "security-specialist").
	Name string `yaml:"name"`
	// Title is the human-readable role title.
	Title string `yaml:"title"`
	// Goal is the role's goal statement, handed to the executor factory.
	Goal string `yaml:"goal"`
	// Model is the model affinity for this role.
	Model string `yaml:"model"`
	// Temperature is the sampling temperature for this role.
	Temperature float64 `yaml:"temperature"`
	// Keywords trigger dynamic provisioning when any of them appears in a
	// serialized work brief (case-insensitive substring match).
	Keywords []string `yaml:"keywords"`
	// Priority breaks ties when the dynamic-role limit truncates the
	// required set.
	Priority Priority `yaml:"-"`
}

// Request is one flattened unit of work handed to an executor capability.
type Request struct {
	Title          string
	Description    string
	ExpectedOutput string
}

// Executor is the unit-of-work capability bound to a Handle. It performs
// the work and returns output or fails. Implementations must honor ctx
// cancellation promptly and be safely callable concurrently for distinct
// requests.
type Executor func(ctx context.Context, req Request, h *Handle) (string, error)

// ExecutorFactory instantiates the executor capability for a role.
// The actual LLM-invocation mechanics live behind this boundary.
type ExecutorFactory func(role RoleDefinition) (Executor, error)

// Handle is a provisioned runtime worker: a RoleDefinition bound to an
// executor capability. Handles are owned exclusively by the Roster that
// created them; one handle per role per job.
type Handle struct {
	ID        string
	Role      RoleDefinition
	Exec      Executor
	CreatedAt time.Time
}

// newHandle creates a Handle for a role with the given executor.
func newHandle(role RoleDefinition, exec Executor) *Handle {
	return &Handle{
		ID:        uuid.NewString(),
		Role:      role,
		Exec:      exec,
		CreatedAt: time.Now(),
	}
}

// Roster is the full set of provisioned workers for one job.
// It is read-only after provisioning for the duration of the job.
type Roster struct {
	workers map[string]*Handle
	order   []string // insertion order for deterministic iteration
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{workers: make(map[string]*Handle)}
}

// add registers a handle under its role name. Later handles for the same
// role are ignored: one handle per role per job.
func (r *Roster) add(h *Handle) {
	if _, exists := r.workers[h.Role.Name]; exists {
		return
	}
	r.workers[h.Role.Name] = h
	r.order = append(r.order, h.Role.Name)
}

// Get returns the handle for a role name, or nil if not provisioned.
func (r *Roster) Get(role string) *Handle {
	return r.workers[role]
}

// Has reports whether a role is provisioned.
func (r *Roster) Has(role string) bool {
	_, ok := r.workers[role]
	return ok
}

// Names returns the provisioned role names in insertion order.
func (r *Roster) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of provisioned workers.
func (r *Roster) Len() int {
	return len(r.order)
}

// Handles returns the provisioned handles in insertion order.
func (r *Roster) Handles() []*Handle {
	out := make([]*Handle, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.workers[name])
	}
	return out
}

// SpecialistCount returns how many provisioned roles are not base roles.
func (r *Roster) SpecialistCount() int {
	count := 0
	for _, name := range r.order {
		if !IsBaseRole(name) {
			count++
		}
	}
	return count
}

// BaseOnly reports whether the roster contains only base roles.
func (r *Roster) BaseOnly() bool {
	return r.SpecialistCount() == 0
}
