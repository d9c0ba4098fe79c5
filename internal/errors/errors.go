// Package errors provides centralized error definitions and error handling
// utilities for the crewline codebase. It defines domain-specific errors,
// sentinel errors for the orchestration taxonomy, error constructors with
// context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - ProvisionError: errors related to worker provisioning
//   - RoutingError: errors related to task routing/assignment
//   - ExecutionError: errors captured from a unit of work
//   - SupervisionError: errors related to supervision/resolution
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewProvisionError("failed to instantiate role", errors.ErrUnknownRole).
//		WithRole("blockchain-specialist")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrUnknownRole) { ... }
//
//	var provErr *errors.ProvisionError
//	if errors.As(err, &provErr) { ... }
//
// # Propagation Policy
//
// Errors inside a unit of work are always contained at the item boundary and
// captured into an ExecutionResult. Errors inside the orchestration control
// logic itself (provisioning, routing, bus internals) are not contained and
// surface to the caller.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Provisioning-related sentinel errors
var (
	// ErrUnknownRole indicates that a role is not present in the catalog.
	ErrUnknownRole = New("unknown role")
	// ErrCostCeilingExceeded indicates that a cost estimate exceeds the ceiling.
	ErrCostCeilingExceeded = New("cost ceiling exceeded")
)

// Routing-related sentinel errors
var (
	// ErrNoEligibleWorker indicates that no worker in the roster can take a task.
	ErrNoEligibleWorker = New("no eligible worker")
	// ErrDependencyCycle indicates a circular dependency in work items.
	ErrDependencyCycle = New("dependency cycle detected")
	// ErrUnknownDependency indicates a work item depends on an unknown title.
	ErrUnknownDependency = New("unknown dependency")
	// ErrDuplicateTitle indicates two work items share a title.
	ErrDuplicateTitle = New("duplicate work item title")
)

// Event bus sentinel errors
var (
	// ErrEventDropped indicates that the bus was full and an event was discarded.
	ErrEventDropped = New("event dropped")
	// ErrBusStopped indicates an operation on a bus whose monitor loop has exited.
	ErrBusStopped = New("event bus stopped")
)

// Supervision sentinel errors
var (
	// ErrNoResolutionStrategy indicates no strategy exists for an issue kind.
	ErrNoResolutionStrategy = New("no resolution strategy")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CrewlineError is the base interface for all crewline errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type CrewlineError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ProvisionError represents errors related to worker provisioning.
//
// Example:
//
//	err := errors.NewProvisionError("failed to instantiate role", errors.ErrUnknownRole)
//	err = err.WithRole("security-specialist")
type ProvisionError struct {
	baseError
	Role string
}

// NewProvisionError creates a new ProvisionError.
func NewProvisionError(message string, cause error) *ProvisionError {
	return &ProvisionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithRole adds a role name to the error context.
func (e *ProvisionError) WithRole(role string) *ProvisionError {
	e.Role = role
	return e
}

// WithSeverity sets the error severity.
func (e *ProvisionError) WithSeverity(s Severity) *ProvisionError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ProvisionError) Error() string {
	prefix := "provision error"
	if e.Role != "" {
		prefix = fmt.Sprintf("provision error [role=%s]", e.Role)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ProvisionError) Is(target error) bool {
	if _, ok := target.(*ProvisionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// RoutingError represents errors related to task routing and assignment.
//
// Example:
//
//	err := errors.NewRoutingError("assignment impossible", errors.ErrNoEligibleWorker)
//	err = err.WithItem("Implement payment API")
type RoutingError struct {
	baseError
	Item string
}

// NewRoutingError creates a new RoutingError.
func NewRoutingError(message string, cause error) *RoutingError {
	return &RoutingError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithItem adds a work item title to the error context.
func (e *RoutingError) WithItem(title string) *RoutingError {
	e.Item = title
	return e
}

// Error returns the formatted error message.
func (e *RoutingError) Error() string {
	prefix := "routing error"
	if e.Item != "" {
		prefix = fmt.Sprintf("routing error [item=%s]", e.Item)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *RoutingError) Is(target error) bool {
	if _, ok := target.(*RoutingError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ExecutionError represents an error captured from a unit of work.
// It is recorded into an ExecutionResult and never aborts sibling executions.
//
// Example:
//
//	err := errors.NewExecutionError("executor failed", cause).
//		WithItem("Implement payment API").WithRole("implementer")
type ExecutionError struct {
	baseError
	Item string
	Role string
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(message string, cause error) *ExecutionError {
	return &ExecutionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
	}
}

// WithItem adds a work item title to the error context.
func (e *ExecutionError) WithItem(title string) *ExecutionError {
	e.Item = title
	return e
}

// WithRole adds the assigned worker role to the error context.
func (e *ExecutionError) WithRole(role string) *ExecutionError {
	e.Role = role
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *ExecutionError) WithRetryable(r bool) *ExecutionError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *ExecutionError) Error() string {
	var parts []string
	if e.Item != "" {
		parts = append(parts, fmt.Sprintf("item=%s", e.Item))
	}
	if e.Role != "" {
		parts = append(parts, fmt.Sprintf("role=%s", e.Role))
	}

	prefix := "execution error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("execution error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ExecutionError) Is(target error) bool {
	if _, ok := target.(*ExecutionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SupervisionError represents errors from the supervision subsystem.
type SupervisionError struct {
	baseError
	IssueKind string
	Mode      string
}

// NewSupervisionError creates a new SupervisionError.
func NewSupervisionError(message string, cause error) *SupervisionError {
	return &SupervisionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithIssueKind adds the issue kind to the error context.
func (e *SupervisionError) WithIssueKind(kind string) *SupervisionError {
	e.IssueKind = kind
	return e
}

// WithMode adds the supervision mode to the error context.
func (e *SupervisionError) WithMode(mode string) *SupervisionError {
	e.Mode = mode
	return e
}

// Error returns the formatted error message.
func (e *SupervisionError) Error() string {
	var parts []string
	if e.IssueKind != "" {
		parts = append(parts, fmt.Sprintf("kind=%s", e.IssueKind))
	}
	if e.Mode != "" {
		parts = append(parts, fmt.Sprintf("mode=%s", e.Mode))
	}

	prefix := "supervision error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("supervision error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SupervisionError) Is(target error) bool {
	if _, ok := target.(*SupervisionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var crewErr CrewlineError
	if As(err, &crewErr) {
		return crewErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var crewErr CrewlineError
	if As(err, &crewErr) {
		return crewErr.IsUserFacing()
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CrewlineError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var crewErr CrewlineError
	if As(err, &crewErr) {
		return crewErr.Severity()
	}

	return SeverityError
}

// IsFatal returns true for errors that must surface to the caller rather than
// be contained at an item boundary: provisioning and routing failures.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var provErr *ProvisionError
	var routeErr *RoutingError
	if As(err, &provErr) || As(err, &routeErr) {
		return true
	}

	return Is(err, ErrUnknownRole) || Is(err, ErrNoEligibleWorker)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to provision roster")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to assign item %q", title)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
