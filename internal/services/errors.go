// internal/services/errors.go
package services

import "fmt"

// WorkflowErrorKind classifies why a workflow operation was refused, so
// handlers can map refusals to HTTP statuses without string matching.
type WorkflowErrorKind string

const (
	// GuardRejected means the operation's precondition on the current state
	// or actor failed, e.g. submitting an application that is not editable.
	GuardRejected WorkflowErrorKind = "GUARD_REJECTED"

	// AlreadyTerminal means the record has reached a state no transition
	// may leave.
	AlreadyTerminal WorkflowErrorKind = "ALREADY_TERMINAL"

	// IntegrityViolation means the requested change would break a
	// structural rule, e.g. a duplicate species line item.
	IntegrityViolation WorkflowErrorKind = "INTEGRITY_VIOLATION"

	// MissingDependency means a required companion record does not exist
	// yet, e.g. issuing a permit before the inspection is signed.
	MissingDependency WorkflowErrorKind = "MISSING_DEPENDENCY"
)

// WorkflowError is a refusal with a machine-readable kind and a
// human-readable reason.
type WorkflowError struct {
	Kind   WorkflowErrorKind
	Reason string
}

func (e *WorkflowError) Error() string {
	return e.Reason
}

func guardRejected(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: GuardRejected, Reason: fmt.Sprintf(format, args...)}
}

func alreadyTerminal(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: AlreadyTerminal, Reason: fmt.Sprintf(format, args...)}
}

func integrityViolation(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: IntegrityViolation, Reason: fmt.Sprintf(format, args...)}
}

func missingDependency(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: MissingDependency, Reason: fmt.Sprintf(format, args...)}
}
