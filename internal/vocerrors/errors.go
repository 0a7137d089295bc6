// Package vocerrors provides sentinel and custom error types for the engine.
package vocerrors

import "fmt"

// ErrNotFound represents a "not found" error.
// Use when a requested resource doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation represents a configuration or input validation error.
// Validation errors are rejected before any state mutation.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrPipelineBusy is the sentinel for concurrent clustering attempts. A second
// clustering invocation while one is in progress is rejected, not interleaved;
// the caller retries later.
var ErrPipelineBusy = &PipelineBusyError{}

// PipelineBusyError is a sentinel error for the exclusive pipeline marker.
type PipelineBusyError struct {
	Message string
}

// NewPipelineBusyError creates a PipelineBusyError with a custom message.
func NewPipelineBusyError(message string) *PipelineBusyError {
	return &PipelineBusyError{Message: message}
}

// Error implements the error interface.
func (e *PipelineBusyError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "clustering pipeline already in progress"
}

// Is implements the error interface for error comparison.
func (e *PipelineBusyError) Is(target error) bool {
	_, ok := target.(*PipelineBusyError)

	return ok
}

// ErrDimensionMismatch is the sentinel for inconsistent embedding dimensions.
// A mismatch indicates an inconsistent embedding provider version and is fatal
// for the run; vectors are never silently coerced.
var ErrDimensionMismatch = &DimensionMismatchError{}

// DimensionMismatchError is a sentinel error for embedding dimension conflicts.
type DimensionMismatchError struct {
	Want int
	Got  int
}

// NewDimensionMismatchError creates a DimensionMismatchError for the given dimensions.
func NewDimensionMismatchError(want, got int) *DimensionMismatchError {
	return &DimensionMismatchError{Want: want, Got: got}
}

// Error implements the error interface.
func (e *DimensionMismatchError) Error() string {
	if e.Want != 0 || e.Got != 0 {
		return fmt.Sprintf("embedding dimension mismatch: got %d, want %d", e.Got, e.Want)
	}

	return "embedding dimension mismatch"
}

// Is implements the error interface for error comparison.
func (e *DimensionMismatchError) Is(target error) bool {
	_, ok := target.(*DimensionMismatchError)

	return ok
}

// ErrCollaborator is the sentinel for embedding/generation collaborator failures.
// Collaborator errors are recoverable: components degrade and the run continues.
var ErrCollaborator = &CollaboratorError{}

// CollaboratorError is a sentinel error for external collaborator failures.
type CollaboratorError struct {
	Collaborator string
	Message      string
}

// NewCollaboratorError creates a CollaboratorError with a custom message.
func NewCollaboratorError(collaborator, message string) *CollaboratorError {
	return &CollaboratorError{Collaborator: collaborator, Message: message}
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Collaborator != "" {
		return e.Collaborator + " collaborator failed"
	}

	return "collaborator failed"
}

// Is implements the error interface for error comparison.
func (e *CollaboratorError) Is(target error) bool {
	_, ok := target.(*CollaboratorError)

	return ok
}
