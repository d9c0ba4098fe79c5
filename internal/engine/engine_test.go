package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crewline/crewline/internal/errors"
	"github.com/crewline/crewline/internal/event"
	"github.com/crewline/crewline/internal/router"
	"github.com/crewline/crewline/internal/task"
	"github.com/crewline/crewline/internal/worker"
)

func assignedTask(t *testing.T, title, role string, exec worker.Executor) router.AssignedTask {
	t.Helper()
	return router.AssignedTask{
		Item: task.WorkItem{Title: title, Description: title},
		Worker: &worker.Handle{
			ID:   title + "-worker",
			Role: worker.RoleDefinition{Name: role, Model: "sonnet"},
			Exec: exec,
		},
	}
}

func succeed(output string) worker.Executor {
	return func(ctx context.Context, req worker.Request, h *worker.Handle) (string, error) {
		return output, nil
	}
}

func fail(msg string) worker.Executor {
	return func(ctx context.Context, req worker.Request, h *worker.Handle) (string, error) {
		return "", errors.New(msg)
	}
}

func TestExecuteSequential(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(title string) worker.Executor {
		return func(ctx context.Context, req worker.Request, h *worker.Handle) (string, error) {
			mu.Lock()
			order = append(order, title)
			mu.Unlock()
			return "done", nil
		}
	}

	assigned := []router.AssignedTask{
		assignedTask(t, "first", worker.RolePlanner, record("first")),
		assignedTask(t, "second", worker.RoleImplementer, fail("boom")),
		assignedTask(t, "third", worker.RoleVerifier, record("third")),
	}

	report, err := New().Execute(context.Background(), router.StrategySequential, assigned)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if report.State != StatePartiallyFailed {
		t.Errorf("state = %q, want %q", report.State, StatePartiallyFailed)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("counts = %d/%d, want 2/1", report.Succeeded, report.Failed)
	}

	// The failure in the middle must not stop the third item.
	want := []string{"first", "third"}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(want) {
		t.Fatalf("executions = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("execution %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestExecuteSequentialAllSucceed(t *testing.T) {
	assigned := []router.AssignedTask{
		assignedTask(t, "a", worker.RolePlanner, succeed("out-a")),
		assignedTask(t, "b", worker.RoleImplementer, succeed("out-b")),
	}

	report, err := New().Execute(context.Background(), router.StrategySequential, assigned)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if report.State != StateCompleted {
		t.Errorf("state = %q, want %q", report.State, StateCompleted)
	}
	if report.Results[0].Output != "out-a" || report.Results[1].Output != "out-b" {
		t.Errorf("outputs = %q, %q", report.Results[0].Output, report.Results[1].Output)
	}
	if report.SuccessRate() != 1.0 {
		t.Errorf("success rate = %v, want 1.0", report.SuccessRate())
	}
}

func TestExecuteParallel(t *testing.T) {
	const n = 8
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(n)

	assigned := make([]router.AssignedTask, 0, n)
	for i := 0; i < n; i++ {
		title := string(rune('a' + i))
		assigned = append(assigned, assignedTask(t, title, worker.RoleImplementer,
			func(ctx context.Context, req worker.Request, h *worker.Handle) (string, error) {
				started.Done()
				<-release
				return req.Title, nil
			}))
	}

	done := make(chan *ExecutionReport, 1)
	go func() {
		report, err := New().Execute(context.Background(), router.StrategyParallel, assigned)
		if err != nil {
			t.Errorf("Execute() error = %v", err)
		}
		done <- report
	}()

	// All items must be in flight at once before any is released.
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()
	select {
	case <-allStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for all items to start concurrently")
	}
	close(release)

	report := <-done
	if report.Succeeded != n {
		t.Errorf("succeeded = %d, want %d", report.Succeeded, n)
	}
	for i, res := range report.Results {
		if res.ItemTitle != assigned[i].Item.Title {
			t.Errorf("result %d is %q, want %q", i, res.ItemTitle, assigned[i].Item.Title)
		}
	}
}

func TestExecuteParallelContainsPanic(t *testing.T) {
	assigned := []router.AssignedTask{
		assignedTask(t, "calm", worker.RoleImplementer, succeed("fine")),
		assignedTask(t, "angry", worker.RoleImplementer,
			func(ctx context.Context, req worker.Request, h *worker.Handle) (string, error) {
				panic("worker exploded")
			}),
	}

	report, err := New().Execute(context.Background(), router.StrategyParallel, assigned)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", report.Succeeded, report.Failed)
	}
	for _, res := range report.Results {
		if res.ItemTitle == "angry" && res.Error == "" {
			t.Error("panicking item has no recorded error")
		}
	}
}

func TestExecuteHybridPhaseOrdering(t *testing.T) {
	var mu sync.Mutex
	completed := make(map[string]bool)
	codingSawPlanning := true

	planExec := func(ctx context.Context, req worker.Request, h *worker.Handle) (string, error) {
		time.Sleep(20 * time.Millisecond) // coding must still wait
		mu.Lock()
		completed[req.Title] = true
		mu.Unlock()
		return "plan", nil
	}
	codeExec := func(ctx context.Context, req worker.Request, h *worker.Handle) (string, error) {
		mu.Lock()
		if !completed["plan-a"] || !completed["plan-b"] {
			codingSawPlanning = false
		}
		mu.Unlock()
		return "code", nil
	}

	assigned := []router.AssignedTask{
		assignedTask(t, "plan-a", worker.RolePlanner, planExec),
		assignedTask(t, "plan-b", worker.RolePlanner, planExec),
		assignedTask(t, "code-a", worker.RoleImplementer, codeExec),
		assignedTask(t, "code-b", "database-specialist", codeExec),
	}
	// One handle per role is a roster rule, not an engine rule; reuse of a
	// role name here just exercises grouping.

	report, err := New().Execute(context.Background(), router.StrategyHybrid, assigned)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	mu.Lock()
	ok := codingSawPlanning
	mu.Unlock()
	if !ok {
		t.Error("a coding task started before every planning task completed")
	}

	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(report.Phases))
	}
	if report.Phases[0].Phase != router.PhasePlanning || report.Phases[1].Phase != router.PhaseCoding {
		t.Errorf("phase order = %q, %q", report.Phases[0].Phase, report.Phases[1].Phase)
	}
	for _, phase := range report.Phases {
		if !phase.Success {
			t.Errorf("phase %q not successful", phase.Phase)
		}
	}
}

func TestExecuteHybridPhaseFailureFlag(t *testing.T) {
	assigned := []router.AssignedTask{
		assignedTask(t, "good test", worker.RoleVerifier, succeed("ok")),
		assignedTask(t, "bad review", worker.RoleReviewer, fail("rejected")),
	}

	report, err := New().Execute(context.Background(), router.StrategyHybrid, assigned)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(report.Phases) != 1 {
		t.Fatalf("phases = %d, want 1", len(report.Phases))
	}
	if report.Phases[0].Success {
		t.Error("phase with a failed task reported success")
	}
	if report.State != StatePartiallyFailed {
		t.Errorf("state = %q, want %q", report.State, StatePartiallyFailed)
	}
}

func TestExecuteRaceStrategyRejected(t *testing.T) {
	_, err := New().Execute(context.Background(), router.StrategyRace, nil)
	if err == nil {
		t.Fatal("Execute() with race strategy expected error")
	}
}

func TestExecuteUnknownStrategy(t *testing.T) {
	_, err := New().Execute(context.Background(), router.Strategy("mystery"), nil)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestExecuteEmitsLifecycleEvents(t *testing.T) {
	bus := event.NewBus()
	assigned := []router.AssignedTask{
		assignedTask(t, "winner", worker.RoleImplementer, succeed("ok")),
		assignedTask(t, "loser", worker.RoleVerifier, fail("nope")),
	}

	if _, err := New(WithBus(bus)).Execute(context.Background(), router.StrategySequential, assigned); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	kinds := make(map[event.Kind]int)
	for {
		e, ok := bus.Pop(10 * time.Millisecond)
		if !ok {
			break
		}
		kinds[e.Kind]++
	}
	if kinds[event.KindTaskStarted] != 2 {
		t.Errorf("task.started = %d, want 2", kinds[event.KindTaskStarted])
	}
	if kinds[event.KindTaskCompleted] != 1 {
		t.Errorf("task.completed = %d, want 1", kinds[event.KindTaskCompleted])
	}
	if kinds[event.KindTaskFailed] != 1 {
		t.Errorf("task.failed = %d, want 1", kinds[event.KindTaskFailed])
	}
	if kinds[event.KindMilestoneReached] == 0 {
		t.Error("no milestone event emitted")
	}
}
