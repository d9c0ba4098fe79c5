// Package supervise watches execution results for quality and consistency
// problems, classifies them as issues, and resolves each issue through a
// mode-dependent intervention policy. It runs in batch over a finished
// result list or in real time against the event bus.
package supervise

import "time"

// IssueKind classifies a detected problem.
type IssueKind string

const (
	IssueIncompleteTests       IssueKind = "incomplete_tests"
	IssueAPIMismatch           IssueKind = "api_mismatch"
	IssueMissingDocs           IssueKind = "missing_docs"
	IssueSecurity              IssueKind = "security_issue"
	IssueAgentFailure          IssueKind = "agent_failure"
	IssueConsistencyError      IssueKind = "consistency_error"
	IssueQualityBelowThreshold IssueKind = "quality_below_threshold"
)

// Severity ranks how urgent an issue is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue is one detected problem, attributed to the responsible role.
type Issue struct {
	Kind        IssueKind
	Severity    Severity
	Description string
	Role        string
	Resolved    bool
	DetectedAt  time.Time
}

// InterventionKind names the action taken for an issue.
type InterventionKind string

const (
	InterventionAutoFix  InterventionKind = "auto_fix"
	InterventionReassign InterventionKind = "reassign"
	InterventionEscalate InterventionKind = "escalate"
	InterventionFallback InterventionKind = "fallback"
	InterventionAbort    InterventionKind = "abort"
)

// Intervention is the resolved action for exactly one issue.
type Intervention struct {
	Kind    InterventionKind
	Issue   Issue
	Action  string
	Outcome string
	Success bool
}

// SupervisionReport aggregates everything one supervision pass produced.
type SupervisionReport struct {
	Issues          []Issue
	Interventions   []Intervention
	ChecksPerformed int
	AutoFixes       int
	Escalations     int
	SuccessRate     float64
}
