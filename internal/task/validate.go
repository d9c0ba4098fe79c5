package task

import (
	"sort"

	"github.com/crewline/crewline/internal/errors"
)

// Validate checks a backlog for the problems that would make assignment
// ambiguous: duplicate titles, dependencies on unknown items, and
// dependency cycles. It must pass before routing begins.
func Validate(items []WorkItem) error {
	if len(items) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Title == "" {
			return errors.Wrap(errors.ErrInvalidInput, "work item title is required")
		}
		if _, dup := seen[item.Title]; dup {
			return errors.Wrapf(errors.ErrDuplicateTitle, "work item %q", item.Title)
		}
		seen[item.Title] = struct{}{}
	}

	for _, item := range items {
		for _, dep := range item.DependsOn {
			if _, ok := seen[dep]; !ok {
				return errors.Wrapf(errors.ErrUnknownDependency, "work item %q depends on %q", item.Title, dep)
			}
		}
	}

	return checkCycles(items)
}

// checkCycles runs a depth-first walk over the dependency graph and fails
// on the first back edge.
func checkCycles(items []WorkItem) error {
	deps := make(map[string][]string, len(items))
	for _, item := range items {
		deps[item.Title] = item.DependsOn
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(items))

	var visit func(title string) error
	visit = func(title string) error {
		switch state[title] {
		case visiting:
			return errors.Wrapf(errors.ErrDependencyCycle, "work item %q", title)
		case done:
			return nil
		}
		state[title] = visiting
		for _, dep := range deps[title] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[title] = done
		return nil
	}

	for _, item := range items {
		if err := visit(item.Title); err != nil {
			return err
		}
	}
	return nil
}

// DependencyOrder returns the backlog sorted so that every item follows all
// of its dependencies. Ready items are emitted level by level, highest
// priority first, backlog order on ties, so the result is deterministic.
// The backlog must already have passed Validate.
func DependencyOrder(items []WorkItem) []WorkItem {
	if len(items) == 0 {
		return nil
	}

	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.Title] = i
	}

	inDegree := make([]int, len(items))
	dependents := make(map[int][]int, len(items))
	for i, item := range items {
		for _, dep := range item.DependsOn {
			if j, ok := index[dep]; ok {
				inDegree[i]++
				dependents[j] = append(dependents[j], i)
			}
		}
	}

	var ready []int
	for i, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]WorkItem, 0, len(items))
	for len(ready) > 0 {
		// Order the level by priority, backlog position on ties.
		sort.SliceStable(ready, func(x, y int) bool {
			a, b := ready[x], ready[y]
			if items[a].Priority != items[b].Priority {
				return items[a].Priority > items[b].Priority
			}
			return a < b
		})
		var next []int
		for _, i := range ready {
			ordered = append(ordered, items[i])
			for _, j := range dependents[i] {
				inDegree[j]--
				if inDegree[j] == 0 {
					next = append(next, j)
				}
			}
		}
		ready = next
	}
	return ordered
}
