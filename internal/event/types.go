package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the variant of a lifecycle event.
// Convention: "category.action" (e.g., "task.started", "violation.detected")
type Kind string

const (
	// KindTaskStarted is emitted when a work item begins execution.
	KindTaskStarted Kind = "task.started"
	// KindTaskCompleted is emitted when a work item completes successfully.
	KindTaskCompleted Kind = "task.completed"
	// KindTaskFailed is emitted when a work item fails.
	KindTaskFailed Kind = "task.failed"
	// KindAgentCreated is emitted when a worker handle is provisioned.
	KindAgentCreated Kind = "agent.created"
	// KindQualityCheck is emitted when an integrity check runs.
	KindQualityCheck Kind = "quality.check"
	// KindViolationDetected is emitted when an integrity check finds an issue.
	KindViolationDetected Kind = "violation.detected"
	// KindInterventionTriggered is emitted when the supervisor resolves an issue.
	KindInterventionTriggered Kind = "intervention.triggered"
	// KindSystemError is emitted for errors in the orchestration machinery.
	KindSystemError Kind = "system.error"
	// KindMilestoneReached is emitted at notable job checkpoints.
	KindMilestoneReached Kind = "milestone.reached"
)

// Kinds returns all defined event kinds.
func Kinds() []Kind {
	return []Kind{
		KindTaskStarted,
		KindTaskCompleted,
		KindTaskFailed,
		KindAgentCreated,
		KindQualityCheck,
		KindViolationDetected,
		KindInterventionTriggered,
		KindSystemError,
		KindMilestoneReached,
	}
}

// Priority indicates how urgent an event is for consumers.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns a human-readable name for a priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Event is a single lifecycle event carried by the Bus.
// Events are append-only: pushed once, never mutated except the Processed
// flag, which the consuming monitor loop sets on dispatch.
type Event struct {
	ID        string         // Unique identifier, assigned on construction
	Kind      Kind           // Variant tag
	Source    string         // Component that emitted the event
	Payload   map[string]any // Free-form event data
	Priority  Priority       // Consumer urgency hint
	Processed bool           // Set by the consumer after dispatch
	Timestamp time.Time      // When the event was created
}

// New creates an Event with a fresh ID and the current time.
func New(kind Kind, source string, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Source:    source,
		Payload:   payload,
		Priority:  PriorityNormal,
		Timestamp: time.Now(),
	}
}

// WithPriority returns a copy of the event with the given priority.
func (e Event) WithPriority(p Priority) Event {
	e.Priority = p
	return e
}

// Metrics is a snapshot of the counters maintained by the monitor loop.
type Metrics struct {
	EventsProcessed int64 // Total events dispatched to listeners
	EventsDropped   int64 // Events discarded because the queue was full
	TasksCompleted  int64 // task.completed events seen
	TasksFailed     int64 // task.failed events seen
	Violations      int64 // violation.detected events seen
	Interventions   int64 // intervention.triggered events seen
}
