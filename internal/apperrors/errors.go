// Package apperrors provides sentinel and custom error types for the application.
package apperrors

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

// ErrValidation represents a validation error.
// Use when a record or client input fails validation. Validation failures are
// never retried: the same input will fail the same way again.
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

// ErrTransientSource is the sentinel for transient source failures
// (timeouts, 5xx responses). Callers may retry with backoff.
var ErrTransientSource = &TransientSourceError{}

// TransientSourceError is a sentinel error for retryable source failures.
type TransientSourceError struct {
	Source  string
	Message string
	Cause   error
}

// NewTransientSourceError creates a TransientSourceError wrapping cause.
func NewTransientSourceError(source string, cause error) *TransientSourceError {
	return &TransientSourceError{Source: source, Cause: cause}
}

// Error implements the error interface.
func (e *TransientSourceError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	msg := "transient source failure"
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the wrapped cause, if any.
func (e *TransientSourceError) Unwrap() error {
	return e.Cause
}

// Is implements the error interface for error comparison.
func (e *TransientSourceError) Is(target error) bool {
	_, ok := target.(*TransientSourceError)

	return ok
}

// ErrCapabilityUnavailable is the sentinel for a degraded external capability
// (embedding or summarization dependency down). Operations that trigger these
// capabilities log the failure and continue; ingestion is never blocked by it.
var ErrCapabilityUnavailable = &CapabilityUnavailableError{}

// CapabilityUnavailableError is a sentinel error for unavailable capabilities.
type CapabilityUnavailableError struct {
	Capability string
	Cause      error
}

// NewCapabilityUnavailableError creates a CapabilityUnavailableError wrapping cause.
func NewCapabilityUnavailableError(capability string, cause error) *CapabilityUnavailableError {
	return &CapabilityUnavailableError{Capability: capability, Cause: cause}
}

// Error implements the error interface.
func (e *CapabilityUnavailableError) Error() string {
	msg := "capability unavailable"
	if e.Capability != "" {
		msg = e.Capability + " " + msg
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the wrapped cause, if any.
func (e *CapabilityUnavailableError) Unwrap() error {
	return e.Cause
}

// Is implements the error interface for error comparison.
func (e *CapabilityUnavailableError) Is(target error) bool {
	_, ok := target.(*CapabilityUnavailableError)

	return ok
}
