package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crewline/crewline/internal/errors"
)

func writeBacklog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backlog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing backlog: %v", err)
	}
	return path
}

func TestLoadBacklog(t *testing.T) {
	path := writeBacklog(t, `
items:
  - title: Design schema
    description: Model users and orders
    expected_output: ERD and migration files
    priority: high
    keywords: [database, schema]
  - title: Implement API
    description: CRUD endpoints over the schema
    expected_output: handlers with tests
    depends_on: [Design schema]
`)

	items, err := LoadBacklog(path)
	if err != nil {
		t.Fatalf("LoadBacklog() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Priority != PriorityHigh {
		t.Errorf("priority = %v, want PriorityHigh", items[0].Priority)
	}
	if items[1].Priority != PriorityMedium {
		t.Errorf("unset priority = %v, want PriorityMedium", items[1].Priority)
	}
	if len(items[1].DependsOn) != 1 || items[1].DependsOn[0] != "Design schema" {
		t.Errorf("depends_on = %v", items[1].DependsOn)
	}
}

func TestLoadBacklogRejectsInvalid(t *testing.T) {
	path := writeBacklog(t, `
items:
  - title: a
    depends_on: [b]
  - title: b
    depends_on: [a]
`)

	_, err := LoadBacklog(path)
	if !errors.Is(err, errors.ErrDependencyCycle) {
		t.Fatalf("error = %v, want ErrDependencyCycle", err)
	}
}

func TestLoadBacklogMissingFile(t *testing.T) {
	if _, err := LoadBacklog(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHasDependencies(t *testing.T) {
	if HasDependencies([]WorkItem{item("a"), item("b")}) {
		t.Error("no-deps backlog reported dependencies")
	}
	if !HasDependencies([]WorkItem{item("a"), item("b", "a")}) {
		t.Error("dependent backlog reported no dependencies")
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
	}{
		{"high", PriorityHigh},
		{"HIGH", PriorityHigh},
		{" low ", PriorityLow},
		{"medium", PriorityMedium},
		{"", PriorityMedium},
		{"urgent", PriorityMedium},
	}
	for _, tt := range tests {
		if got := ParsePriority(tt.in); got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
