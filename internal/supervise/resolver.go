package supervise

import (
	"fmt"

	"github.com/crewline/crewline/internal/logging"
)

// Mode selects how aggressively the resolver acts on issues.
type Mode string

const (
	ModeProfessional Mode = "professional"
	ModeStandard     Mode = "standard"
	ModeInteractive  Mode = "interactive"
)

// ValidModes returns the recognized supervision modes.
func ValidModes() []Mode {
	return []Mode{ModeProfessional, ModeStandard, ModeInteractive}
}

// ConflictResolver maps issues to interventions by (kind, mode).
type ConflictResolver struct {
	mode   Mode
	logger *logging.Logger
}

// NewConflictResolver creates a resolver for the given mode.
func NewConflictResolver(mode Mode, logger *logging.Logger) *ConflictResolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &ConflictResolver{mode: mode, logger: logger}
}

// Mode returns the resolver's mode.
func (r *ConflictResolver) Mode() Mode {
	return r.mode
}

// Resolve picks an intervention for an issue. Security issues always
// escalate no matter the mode; auto-approving a security risk is never
// acceptable. Unknown issue kinds escalate with a "no strategy" note.
func (r *ConflictResolver) Resolve(issue Issue) Intervention {
	if issue.Kind == IssueSecurity {
		return r.intervention(issue, InterventionEscalate,
			"escalated to a human reviewer: security issues are never auto-approved")
	}

	kind, known := r.strategyFor(issue.Kind)
	if !known {
		return Intervention{
			Kind:    InterventionEscalate,
			Issue:   issue,
			Action:  fmt.Sprintf("no strategy for issue kind %q", issue.Kind),
			Outcome: "escalated by default",
		}
	}

	switch kind {
	case InterventionAutoFix:
		return r.intervention(issue, kind,
			fmt.Sprintf("re-queued work for role %q", issue.Role))
	case InterventionReassign:
		return r.intervention(issue, kind,
			fmt.Sprintf("reassigned work away from role %q", issue.Role))
	case InterventionFallback:
		return r.intervention(issue, kind,
			"fell back to the last consistent state")
	default:
		return r.intervention(issue, InterventionEscalate,
			"escalated to a human reviewer")
	}
}

// strategyFor returns the intervention kind for a known issue kind under
// the resolver's mode. Professional mode fixes what it can on its own;
// standard and interactive modes hand everything to a human.
func (r *ConflictResolver) strategyFor(kind IssueKind) (InterventionKind, bool) {
	professional := r.mode == ModeProfessional

	switch kind {
	case IssueIncompleteTests, IssueMissingDocs, IssueAPIMismatch, IssueQualityBelowThreshold:
		if professional {
			return InterventionAutoFix, true
		}
		return InterventionEscalate, true
	case IssueAgentFailure:
		if professional {
			return InterventionReassign, true
		}
		return InterventionEscalate, true
	case IssueConsistencyError:
		if professional {
			return InterventionFallback, true
		}
		return InterventionEscalate, true
	}
	return "", false
}

func (r *ConflictResolver) intervention(issue Issue, kind InterventionKind, action string) Intervention {
	r.logger.Info("issue resolved",
		"issue", string(issue.Kind),
		"intervention", string(kind),
		"mode", string(r.mode),
	)
	return Intervention{
		Kind:    kind,
		Issue:   issue,
		Action:  action,
		Outcome: fmt.Sprintf("%s applied under %s mode", kind, r.mode),
		Success: true,
	}
}
