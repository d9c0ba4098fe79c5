package supervise

import (
	"sync"

	"github.com/crewline/crewline/internal/engine"
	"github.com/crewline/crewline/internal/event"
	"github.com/crewline/crewline/internal/logging"
)

// Supervisor ties the integrity checker and conflict resolver together.
// Batch mode reviews a finished result list; real-time mode subscribes to
// the event bus and supervises results as they arrive. Both accumulate
// into the same report.
type Supervisor struct {
	checker  *IntegrityChecker
	resolver *ConflictResolver
	bus      *event.Bus
	logger   *logging.Logger

	mu            sync.Mutex
	issues        []Issue
	interventions []Intervention
	checks        int

	subscriptions []string
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithThresholds overrides the integrity thresholds.
func WithThresholds(t Thresholds) SupervisorOption {
	return func(s *Supervisor) { s.checker.thresholds = t }
}

// WithBus sets the event bus for real-time supervision and emission.
func WithBus(bus *event.Bus) SupervisorOption {
	return func(s *Supervisor) { s.bus = bus }
}

// WithLogger sets the supervisor's logger.
func WithLogger(logger *logging.Logger) SupervisorOption {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
			s.checker.logger = logger
			s.resolver.logger = logger
		}
	}
}

// New creates a Supervisor running in the given mode with default
// thresholds.
func New(mode Mode, opts ...SupervisorOption) *Supervisor {
	logger := logging.NopLogger()
	s := &Supervisor{
		checker:  NewIntegrityChecker(DefaultThresholds(), logger),
		resolver: NewConflictResolver(mode, logger),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Review runs a batch pass over a finished result list and returns the
// accumulated report.
func (s *Supervisor) Review(results []engine.ExecutionResult) *SupervisionReport {
	for _, res := range results {
		s.process(res)
	}
	return s.Report()
}

// CrossCheckEndpoints runs the frontend/backend endpoint comparison and
// resolves any mismatches found.
func (s *Supervisor) CrossCheckEndpoints(expected, implemented []string) {
	s.mu.Lock()
	s.checks++
	s.mu.Unlock()

	for _, issue := range s.checker.CrossCheckEndpoints(expected, implemented) {
		s.record(issue)
		s.resolve(issue)
	}
}

// Attach subscribes the supervisor to the bus so results are supervised as
// they arrive. It is a no-op without a bus.
func (s *Supervisor) Attach() {
	if s.bus == nil {
		return
	}

	onResult := func(e event.Event) error {
		if res, ok := e.Payload["result"].(engine.ExecutionResult); ok {
			s.process(res)
		}
		return nil
	}
	onViolation := func(e event.Event) error {
		// Our own emissions come back through this kind; only
		// externally reported violations produce new issues.
		if e.Source == "supervisor" {
			return nil
		}
		issue := Issue{
			Kind:        IssueConsistencyError,
			Severity:    SeverityMedium,
			Description: "externally reported violation",
		}
		if kind, ok := e.Payload["kind"].(string); ok {
			issue.Kind = IssueKind(kind)
		}
		if desc, ok := e.Payload["description"].(string); ok {
			issue.Description = desc
		}
		if role, ok := e.Payload["role"].(string); ok {
			issue.Role = role
		}
		s.record(issue)
		s.resolve(issue)
		return nil
	}

	s.subscriptions = []string{
		s.bus.Subscribe(event.KindTaskCompleted, onResult),
		s.bus.Subscribe(event.KindTaskFailed, onResult),
		s.bus.Subscribe(event.KindViolationDetected, onViolation),
	}
	s.logger.Info("real-time supervision attached")
}

// Detach removes the supervisor's bus subscriptions.
func (s *Supervisor) Detach() {
	if s.bus == nil {
		return
	}
	for _, id := range s.subscriptions {
		s.bus.Unsubscribe(id)
	}
	s.subscriptions = nil
}

// Report snapshots the accumulated issues, interventions, and counters.
// The success rate is the fraction of interventions that succeeded; a run
// with no issues reports 1.0.
func (s *Supervisor) Report() *SupervisionReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &SupervisionReport{
		Issues:          append([]Issue(nil), s.issues...),
		Interventions:   append([]Intervention(nil), s.interventions...),
		ChecksPerformed: s.checks,
		SuccessRate:     1.0,
	}
	for _, iv := range s.interventions {
		switch iv.Kind {
		case InterventionAutoFix:
			report.AutoFixes++
		case InterventionEscalate:
			report.Escalations++
		}
	}
	if len(s.interventions) > 0 {
		succeeded := 0
		for _, iv := range s.interventions {
			if iv.Success {
				succeeded++
			}
		}
		report.SuccessRate = float64(succeeded) / float64(len(s.interventions))
	}
	return report
}

// process runs integrity checks on one result and resolves every issue
// raised.
func (s *Supervisor) process(res engine.ExecutionResult) {
	s.mu.Lock()
	s.checks++
	s.mu.Unlock()

	s.emit(event.KindQualityCheck, map[string]any{
		"item": res.ItemTitle,
		"role": res.Role,
	})

	for _, issue := range s.checker.Check(res) {
		s.record(issue)
		s.emit(event.KindViolationDetected, map[string]any{
			"kind":        string(issue.Kind),
			"severity":    string(issue.Severity),
			"role":        issue.Role,
			"description": issue.Description,
		})
		s.resolve(issue)
	}
}

func (s *Supervisor) record(issue Issue) {
	s.mu.Lock()
	s.issues = append(s.issues, issue)
	s.mu.Unlock()
}

func (s *Supervisor) resolve(issue Issue) {
	iv := s.resolver.Resolve(issue)

	s.mu.Lock()
	s.interventions = append(s.interventions, iv)
	for i := range s.issues {
		if !s.issues[i].Resolved && s.issues[i].Kind == issue.Kind && s.issues[i].Description == issue.Description {
			s.issues[i].Resolved = true
			break
		}
	}
	s.mu.Unlock()

	s.emit(event.KindInterventionTriggered, map[string]any{
		"intervention": string(iv.Kind),
		"issue":        string(issue.Kind),
		"action":       iv.Action,
	})
}

func (s *Supervisor) emit(kind event.Kind, payload map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Push(event.New(kind, "supervisor", payload))
}
