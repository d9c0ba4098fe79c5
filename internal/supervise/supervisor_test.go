package supervise

import (
	"testing"
	"time"

	"github.com/crewline/crewline/internal/engine"
	"github.com/crewline/crewline/internal/event"
	"github.com/crewline/crewline/internal/worker"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestBatchReview(t *testing.T) {
	s := New(ModeProfessional)

	results := []engine.ExecutionResult{
		{Role: worker.RolePlanner, Success: true},
		{Role: worker.RoleVerifier, Success: true, Metrics: map[string]float64{MetricTestCoverage: 0.65}},
		{Role: worker.RoleDocumenter, Success: true, Metrics: map[string]float64{MetricDocCompleteness: 0.50}},
	}

	report := s.Review(results)
	if report.ChecksPerformed != 3 {
		t.Errorf("checks = %d, want 3", report.ChecksPerformed)
	}
	if len(report.Issues) != 2 {
		t.Fatalf("issues = %d, want 2", len(report.Issues))
	}
	if len(report.Interventions) != 2 {
		t.Fatalf("interventions = %d, want 2", len(report.Interventions))
	}
	if report.AutoFixes != 2 {
		t.Errorf("auto-fixes = %d, want 2 under professional mode", report.AutoFixes)
	}
	for _, issue := range report.Issues {
		if !issue.Resolved {
			t.Errorf("issue %q left unresolved", issue.Kind)
		}
	}
	if report.SuccessRate != 1.0 {
		t.Errorf("success rate = %v, want 1.0", report.SuccessRate)
	}
}

func TestBatchReviewCleanRun(t *testing.T) {
	s := New(ModeStandard)
	report := s.Review([]engine.ExecutionResult{
		{Role: worker.RoleImplementer, Success: true},
	})
	if len(report.Issues) != 0 || len(report.Interventions) != 0 {
		t.Fatalf("clean run produced %d issues, %d interventions", len(report.Issues), len(report.Interventions))
	}
	if report.SuccessRate != 1.0 {
		t.Errorf("success rate = %v, want 1.0 for a clean run", report.SuccessRate)
	}
}

func TestRealTimeSupervision(t *testing.T) {
	bus := event.NewBus()
	monitor := event.NewMonitor(bus)
	if err := monitor.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer monitor.Stop()

	s := New(ModeStandard, WithBus(bus))
	s.Attach()
	defer s.Detach()

	res := engine.ExecutionResult{
		Role:    worker.RoleVerifier,
		Success: true,
		Metrics: map[string]float64{MetricTestCoverage: 0.10},
	}
	bus.Push(event.New(event.KindTaskCompleted, "engine", map[string]any{"result": res}))

	waitFor(t, 2*time.Second, func() bool {
		return len(s.Report().Issues) == 1
	})

	report := s.Report()
	if report.Issues[0].Kind != IssueIncompleteTests {
		t.Errorf("issue kind = %q, want %q", report.Issues[0].Kind, IssueIncompleteTests)
	}
	if report.Escalations != 1 {
		t.Errorf("escalations = %d, want 1 under standard mode", report.Escalations)
	}
}

func TestRealTimeMatchesBatch(t *testing.T) {
	results := []engine.ExecutionResult{
		{Role: worker.RoleVerifier, Success: true, Metrics: map[string]float64{MetricTestCoverage: 0.20}},
		{Role: worker.RoleImplementer, Success: false, Error: "crashed"},
	}

	batch := New(ModeProfessional).Review(results)

	bus := event.NewBus()
	monitor := event.NewMonitor(bus)
	if err := monitor.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer monitor.Stop()

	live := New(ModeProfessional, WithBus(bus))
	live.Attach()
	defer live.Detach()

	for _, res := range results {
		kind := event.KindTaskCompleted
		if !res.Success {
			kind = event.KindTaskFailed
		}
		bus.Push(event.New(kind, "engine", map[string]any{"result": res}))
	}

	waitFor(t, 2*time.Second, func() bool {
		return len(live.Report().Interventions) == len(batch.Interventions)
	})

	streamed := live.Report()
	if len(streamed.Issues) != len(batch.Issues) {
		t.Errorf("issues: streamed %d, batch %d", len(streamed.Issues), len(batch.Issues))
	}
	if streamed.AutoFixes != batch.AutoFixes || streamed.Escalations != batch.Escalations {
		t.Errorf("counters diverge: streamed %d/%d, batch %d/%d",
			streamed.AutoFixes, streamed.Escalations, batch.AutoFixes, batch.Escalations)
	}
}

func TestRealTimeIgnoresOwnEmissions(t *testing.T) {
	bus := event.NewBus()
	monitor := event.NewMonitor(bus)
	if err := monitor.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer monitor.Stop()

	s := New(ModeStandard, WithBus(bus))
	s.Attach()
	defer s.Detach()

	// A failing result raises an issue, whose violation event loops back
	// through the bus. It must not be double-counted.
	res := engine.ExecutionResult{Role: worker.RoleImplementer, Success: false, Error: "bad"}
	bus.Push(event.New(event.KindTaskFailed, "engine", map[string]any{"result": res}))

	waitFor(t, 2*time.Second, func() bool {
		return len(s.Report().Issues) >= 1
	})
	time.Sleep(50 * time.Millisecond) // let any echo drain

	if got := len(s.Report().Issues); got != 1 {
		t.Errorf("issues = %d, want 1 (no echo amplification)", got)
	}
}

func TestSupervisorEndpointCrossCheck(t *testing.T) {
	s := New(ModeProfessional)
	s.CrossCheckEndpoints([]string{"/a", "/b"}, []string{"/a"})

	report := s.Report()
	if len(report.Issues) != 1 || report.Issues[0].Kind != IssueAPIMismatch {
		t.Fatalf("issues = %+v, want one api_mismatch", report.Issues)
	}
	if report.AutoFixes != 1 {
		t.Errorf("auto-fixes = %d, want 1 under professional mode", report.AutoFixes)
	}
}
