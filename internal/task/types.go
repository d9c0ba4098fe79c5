// Package task defines the work backlog: the items a job decomposes into,
// their dependency links, and validation before routing begins.
package task

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Priority orders work items relative to each other.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}
	return "unknown"
}

// ParsePriority converts a priority name to a Priority. Unknown names
// default to PriorityMedium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	}
	return PriorityMedium
}

// WorkItem is one discrete unit of the job backlog. Items are immutable
// once assignment begins; dependencies reference other items by title.
type WorkItem struct {
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output"`
	Priority       Priority `yaml:"-"`
	Keywords       []string `yaml:"keywords"`
	DependsOn      []string `yaml:"depends_on"`
}

// backlogFile is the YAML shape of a backlog file.
type backlogFile struct {
	Items []backlogItem `yaml:"items"`
}

// backlogItem mirrors WorkItem with a string priority for YAML.
type backlogItem struct {
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output"`
	Priority       string   `yaml:"priority"`
	Keywords       []string `yaml:"keywords"`
	DependsOn      []string `yaml:"depends_on"`
}

// LoadBacklog reads and validates a backlog from a YAML file.
func LoadBacklog(path string) ([]WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("task: reading backlog: %w", err)
	}

	var file backlogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("task: parsing backlog: %w", err)
	}

	items := make([]WorkItem, 0, len(file.Items))
	for _, raw := range file.Items {
		items = append(items, WorkItem{
			Title:          raw.Title,
			Description:    raw.Description,
			ExpectedOutput: raw.ExpectedOutput,
			Priority:       ParsePriority(raw.Priority),
			Keywords:       raw.Keywords,
			DependsOn:      raw.DependsOn,
		})
	}

	if err := Validate(items); err != nil {
		return nil, err
	}
	return items, nil
}

// HasDependencies reports whether any item in the backlog declares a
// dependency on another item.
func HasDependencies(items []WorkItem) bool {
	for _, item := range items {
		if len(item.DependsOn) > 0 {
			return true
		}
	}
	return false
}
