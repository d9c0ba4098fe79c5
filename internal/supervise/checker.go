package supervise

import (
	"fmt"
	"time"

	"github.com/crewline/crewline/internal/engine"
	"github.com/crewline/crewline/internal/logging"
	"github.com/crewline/crewline/internal/worker"
)

// Metric keys the integrity checks read from a result's declared metrics.
const (
	MetricTestCoverage    = "test_coverage"
	MetricDocCompleteness = "doc_completeness"
	MetricQualityScore    = "quality_score"
)

// Thresholds holds the minimums a result's declared metrics must meet.
type Thresholds struct {
	TestCoverage    float64
	DocCompleteness float64
	QualityScore    float64
}

// DefaultThresholds returns the stock deployment thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TestCoverage:    0.80,
		DocCompleteness: 0.90,
		QualityScore:    0.70,
	}
}

// IntegrityChecker derives issues from completed execution results by
// comparing declared metrics against its thresholds.
type IntegrityChecker struct {
	thresholds Thresholds
	logger     *logging.Logger
}

// NewIntegrityChecker creates a checker with the given thresholds.
func NewIntegrityChecker(thresholds Thresholds, logger *logging.Logger) *IntegrityChecker {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &IntegrityChecker{thresholds: thresholds, logger: logger}
}

// Check inspects one completed result and returns any issues it raises.
// Metrics a result does not declare are not checked.
func (c *IntegrityChecker) Check(res engine.ExecutionResult) []Issue {
	var issues []Issue

	if !res.Success {
		issues = append(issues, c.issue(IssueAgentFailure, SeverityHigh, res.Role,
			fmt.Sprintf("worker failed on %q: %s", res.ItemTitle, res.Error)))
		return issues
	}

	if res.Role == worker.RoleVerifier {
		if coverage, ok := res.Metrics[MetricTestCoverage]; ok && coverage < c.thresholds.TestCoverage {
			issues = append(issues, c.issue(IssueIncompleteTests, SeverityHigh, res.Role,
				fmt.Sprintf("test coverage %.2f below threshold %.2f", coverage, c.thresholds.TestCoverage)))
		}
	}

	if res.Role == worker.RoleDocumenter {
		if completeness, ok := res.Metrics[MetricDocCompleteness]; ok && completeness < c.thresholds.DocCompleteness {
			issues = append(issues, c.issue(IssueMissingDocs, SeverityMedium, res.Role,
				fmt.Sprintf("doc completeness %.2f below threshold %.2f", completeness, c.thresholds.DocCompleteness)))
		}
	}

	// Security findings raise an issue regardless of any threshold.
	if res.Role == worker.RoleReviewer {
		for _, finding := range res.Findings {
			issues = append(issues, c.issue(IssueSecurity, SeverityHigh, res.Role,
				fmt.Sprintf("security finding on %q: %s", res.ItemTitle, finding)))
		}
	}

	if score, ok := res.Metrics[MetricQualityScore]; ok && score < c.thresholds.QualityScore {
		issues = append(issues, c.issue(IssueQualityBelowThreshold, SeverityMedium, res.Role,
			fmt.Sprintf("quality score %.2f below threshold %.2f", score, c.thresholds.QualityScore)))
	}

	return issues
}

// CrossCheckEndpoints compares the endpoints the frontend expects against
// the endpoints the backend implemented, raising one issue per missing
// endpoint.
func (c *IntegrityChecker) CrossCheckEndpoints(expected, implemented []string) []Issue {
	have := make(map[string]struct{}, len(implemented))
	for _, ep := range implemented {
		have[ep] = struct{}{}
	}

	var issues []Issue
	for _, ep := range expected {
		if _, ok := have[ep]; ok {
			continue
		}
		issues = append(issues, c.issue(IssueAPIMismatch, SeverityHigh, worker.RoleImplementer,
			fmt.Sprintf("expected endpoint %q not implemented", ep)))
	}
	return issues
}

func (c *IntegrityChecker) issue(kind IssueKind, severity Severity, role, description string) Issue {
	c.logger.Warn("integrity issue detected",
		"kind", string(kind),
		"severity", string(severity),
		"role", role,
	)
	return Issue{
		Kind:        kind,
		Severity:    severity,
		Description: description,
		Role:        role,
		DetectedAt:  time.Now(),
	}
}
