package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "event_bus.capacity")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateEventBus()...)
	errors = append(errors, c.validateSupervision()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateEventBus checks event bus settings
func (c *Config) validateEventBus() []ValidationError {
	var errors []ValidationError

	if c.EventBus.Capacity <= 0 {
		errors = append(errors, ValidationError{
			Field:   "event_bus.capacity",
			Value:   c.EventBus.Capacity,
			Message: "must be positive",
		})
	}

	if c.EventBus.PopTimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "event_bus.pop_timeout_ms",
			Value:   c.EventBus.PopTimeoutMs,
			Message: "must be positive",
		})
	}

	return errors
}

// validateSupervision checks supervision mode and thresholds
func (c *Config) validateSupervision() []ValidationError {
	var errors []ValidationError

	if !IsValidSupervisionMode(c.Supervision.Mode) {
		errors = append(errors, ValidationError{
			Field:   "supervision.mode",
			Value:   c.Supervision.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidSupervisionModes(), ", ")),
		})
	}

	if c.Supervision.TestCoverageThreshold < 0 || c.Supervision.TestCoverageThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "supervision.test_coverage_threshold",
			Value:   c.Supervision.TestCoverageThreshold,
			Message: "must be between 0 and 1",
		})
	}

	if c.Supervision.DocCompletenessThreshold < 0 || c.Supervision.DocCompletenessThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "supervision.doc_completeness_threshold",
			Value:   c.Supervision.DocCompletenessThreshold,
			Message: "must be between 0 and 1",
		})
	}

	return errors
}

// validateLogging checks logging settings
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	levelValid := false
	for _, l := range validLevels {
		if strings.EqualFold(c.Logging.Level, l) {
			levelValid = true
			break
		}
	}
	if !levelValid {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		})
	}

	return errors
}
