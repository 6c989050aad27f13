package errors

import (
	"errors"
	"fmt"
)

// AppError is the unified error type for stagekit.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates whether re-running the stage can make progress.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// StoreCorrupt creates an AppError for an unreadable stage log.
func StoreCorrupt(stage, path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStoreCorrupt, Message: fmt.Sprintf("stage %q has a corrupt artifact log", stage),
		Retryable: false, Cause: cause,
		Details: map[string]any{"stage": stage, "path": path},
	}
}

// StoreIO creates an AppError for a failed stage log read or write.
func StoreIO(stage, op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStoreIO, Message: fmt.Sprintf("stage %q: %s failed", stage, op),
		Retryable: false, Cause: cause,
		Details: map[string]any{"stage": stage, "operation": op},
	}
}

// StageNotFound creates an AppError for a stage with no persisted log.
func StageNotFound(stage string) *AppError {
	return &AppError{
		Code: ErrCodeStageNotFound, Message: fmt.Sprintf("stage %q does not exist", stage),
		Retryable: false,
		Details:   map[string]any{"stage": stage},
	}
}

// Transform creates an AppError for a failed per-record transform.
func Transform(stage, key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransform, Message: fmt.Sprintf("stage %q: transform failed for key %q", stage, key),
		Retryable: true, Cause: cause,
		Details: map[string]any{"stage": stage, "key": key},
	}
}

// Serialization creates an AppError for a failed encode or decode.
func Serialization(stage, key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSerialization, Message: fmt.Sprintf("stage %q: serialization failed for key %q", stage, key),
		Retryable: false, Cause: cause,
		Details: map[string]any{"stage": stage, "key": key},
	}
}

// Canceled creates an AppError for an externally cancelled stage run.
func Canceled(stage string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: fmt.Sprintf("stage %q: run cancelled", stage),
		Retryable: true, Cause: cause,
		Details: map[string]any{"stage": stage},
	}
}

// InvalidStageName creates an AppError for a stage name that is not filesystem-safe.
func InvalidStageName(name string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidStageName, Message: fmt.Sprintf("stage name %q is not filesystem-safe", name),
		Retryable: false,
		Details:   map[string]any{"stage": name},
	}
}

// DuplicateKey creates an AppError for colliding record keys.
func DuplicateKey(key string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateKey, Message: fmt.Sprintf("duplicate record key %q", key),
		Retryable: false,
		Details:   map[string]any{"key": key},
	}
}

// EmptyKey creates an AppError for a record with an empty key. The log
// format cannot distinguish an empty key from a missing one, so empty
// keys are rejected at every write boundary.
func EmptyKey() *AppError {
	return &AppError{
		Code: ErrCodeInvalidKey, Message: "record key must not be empty",
		Retryable: false,
	}
}

// KeyNotFound creates an AppError for a key missing from a joined collection.
func KeyNotFound(key string) *AppError {
	return &AppError{
		Code: ErrCodeKeyNotFound, Message: fmt.Sprintf("record key %q has no counterpart", key),
		Retryable: false,
		Details:   map[string]any{"key": key},
	}
}

// RemoteTransfer creates an AppError for a failed upload or download.
func RemoteTransfer(op, path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeRemoteTransfer, Message: fmt.Sprintf("%s of %q failed", op, path),
		Retryable: true, Cause: cause,
		Details: map[string]any{"operation": op, "path": path},
	}
}

// InvalidConfig creates an AppError for configuration that failed validation.
func InvalidConfig(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: reason,
		Retryable: false,
	}
}

// --- Inspection helpers ---

// CodeOf returns the ErrorCode carried by err, or "" if err is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCanceled reports whether err is a cancellation error.
func IsCanceled(err error) bool {
	return CodeOf(err) == ErrCodeCanceled
}

// IsRetryable reports whether re-running the stage can make progress past err.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// As is a convenience wrapper around errors.As for *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
