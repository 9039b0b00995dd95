package core

import "fmt"

// Error codes for machine-readable classification.
const (
	ErrCodeMalformedKey   = "malformed_key"
	ErrCodeRecordNotFound = "record_not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeSchedulerError = "scheduler_error"
	ErrCodeStoreError     = "store_error"
	ErrCodeUnknownStatus  = "unknown_status"
	ErrCodeInvalidConfig  = "invalid_config"
)

// Error is the service error type. Retryable tells callers whether queue-level
// redelivery can ever succeed: malformed input never can, a missing record or
// an unreachable dependency might.
type Error struct {
	Code      string
	Message   string
	Retryable bool
	Details   map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewMalformedKeyError reports an object key that does not fit the upload
// path shape. Permanent: redelivery cannot fix a malformed key.
func NewMalformedKeyError(key, reason string) *Error {
	return &Error{
		Code:      ErrCodeMalformedKey,
		Message:   fmt.Sprintf("object key %q: %s", key, reason),
		Retryable: false,
		Details:   map[string]any{"object_key": key},
	}
}

// NewRecordNotFoundError reports a missing document record.
func NewRecordNotFoundError(documentID string) *Error {
	return &Error{
		Code:      ErrCodeRecordNotFound,
		Message:   fmt.Sprintf("no record found for document %q", documentID),
		Retryable: true,
		Details:   map[string]any{"document_id": documentID},
	}
}

// NewConflictError reports a transition refused by the record's current state.
func NewConflictError(message string, details map[string]any) *Error {
	return &Error{
		Code:      ErrCodeConflict,
		Message:   message,
		Retryable: false,
		Details:   details,
	}
}

// NewSchedulerError wraps a scheduler API failure.
func NewSchedulerError(op string, err error) *Error {
	return &Error{
		Code:      ErrCodeSchedulerError,
		Message:   fmt.Sprintf("scheduler %s: %v", op, err),
		Retryable: true,
	}
}

// NewStoreError wraps a record store failure.
func NewStoreError(op string, err error) *Error {
	return &Error{
		Code:      ErrCodeStoreError,
		Message:   fmt.Sprintf("record store %s: %v", op, err),
		Retryable: true,
	}
}

// NewUnknownStatusError reports a status string outside the closed enum.
func NewUnknownStatusError(status string) *Error {
	return &Error{
		Code:      ErrCodeUnknownStatus,
		Message:   fmt.Sprintf("unknown document status %q", status),
		Retryable: false,
		Details:   map[string]any{"status": status},
	}
}

// NewInvalidConfigError reports missing or unusable configuration.
// This is the only error class that aborts a whole invocation.
func NewInvalidConfigError(message string) *Error {
	return &Error{
		Code:      ErrCodeInvalidConfig,
		Message:   message,
		Retryable: false,
	}
}
