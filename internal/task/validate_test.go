package task

import (
	"testing"

	"github.com/crewline/crewline/internal/errors"
)

func item(title string, deps ...string) WorkItem {
	return WorkItem{Title: title, Priority: PriorityMedium, DependsOn: deps}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		items   []WorkItem
		wantErr error
	}{
		{
			name:  "empty backlog",
			items: nil,
		},
		{
			name:  "valid chain",
			items: []WorkItem{item("a"), item("b", "a"), item("c", "b")},
		},
		{
			name:    "missing title",
			items:   []WorkItem{{Description: "untitled"}},
			wantErr: errors.ErrInvalidInput,
		},
		{
			name:    "duplicate titles",
			items:   []WorkItem{item("a"), item("a")},
			wantErr: errors.ErrDuplicateTitle,
		},
		{
			name:    "unknown dependency",
			items:   []WorkItem{item("a", "ghost")},
			wantErr: errors.ErrUnknownDependency,
		},
		{
			name:    "self dependency",
			items:   []WorkItem{item("a", "a")},
			wantErr: errors.ErrDependencyCycle,
		},
		{
			name:    "two item cycle",
			items:   []WorkItem{item("a", "b"), item("b", "a")},
			wantErr: errors.ErrDependencyCycle,
		},
		{
			name: "long cycle",
			items: []WorkItem{
				item("a", "d"), item("b", "a"), item("c", "b"), item("d", "c"),
			},
			wantErr: errors.ErrDependencyCycle,
		},
		{
			name:  "diamond is not a cycle",
			items: []WorkItem{item("a"), item("b", "a"), item("c", "a"), item("d", "b", "c")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.items)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDependencyOrder(t *testing.T) {
	items := []WorkItem{
		item("docs", "implement", "test"),
		item("implement", "plan"),
		item("plan"),
		item("test", "implement"),
	}

	ordered := DependencyOrder(items)
	if len(ordered) != len(items) {
		t.Fatalf("ordered length = %d, want %d", len(ordered), len(items))
	}

	position := make(map[string]int, len(ordered))
	for i, it := range ordered {
		position[it.Title] = i
	}
	for _, it := range items {
		for _, dep := range it.DependsOn {
			if position[dep] > position[it.Title] {
				t.Errorf("%q at %d precedes its dependency %q at %d",
					it.Title, position[it.Title], dep, position[dep])
			}
		}
	}
}

func TestDependencyOrderPriorityWithinLevel(t *testing.T) {
	items := []WorkItem{
		{Title: "low", Priority: PriorityLow},
		{Title: "high", Priority: PriorityHigh},
		{Title: "medium", Priority: PriorityMedium},
	}

	ordered := DependencyOrder(items)
	got := []string{ordered[0].Title, ordered[1].Title, ordered[2].Title}
	want := []string{"high", "medium", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestDependencyOrderDeterministic(t *testing.T) {
	items := []WorkItem{
		item("a"), item("b"), item("c", "a"), item("d", "b"),
	}
	first := DependencyOrder(items)
	for i := 0; i < 5; i++ {
		again := DependencyOrder(items)
		for j := range first {
			if again[j].Title != first[j].Title {
				t.Fatalf("run %d diverged at %d: %q vs %q", i, j, again[j].Title, first[j].Title)
			}
		}
	}
}
