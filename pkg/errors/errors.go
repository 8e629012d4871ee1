package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeModelUnavailable indicates the model gateway is not configured
	ErrorTypeModelUnavailable ErrorType = "MODEL_UNAVAILABLE"

	// ErrorTypeModelInvocation indicates a network or provider failure
	ErrorTypeModelInvocation ErrorType = "MODEL_INVOCATION"

	// ErrorTypeMalformedResponse indicates model output that could not be parsed
	ErrorTypeMalformedResponse ErrorType = "MALFORMED_RESPONSE"

	// ErrorTypeRateLimited indicates the caller's token bucket is exhausted
	ErrorTypeRateLimited ErrorType = "RATE_LIMITED"

	// ErrorTypeAuditWrite indicates the audit ledger write failed
	ErrorTypeAuditWrite ErrorType = "AUDIT_WRITE"
)

// Sentinels for the AI pipeline taxonomy. AppErrors of the matching type
// satisfy errors.Is against them.
var (
	ErrModelUnavailable  = &AppError{Type: ErrorTypeModelUnavailable, Message: "model gateway is not configured"}
	ErrModelInvocation   = &AppError{Type: ErrorTypeModelInvocation, Message: "model invocation failed"}
	ErrMalformedResponse = &AppError{Type: ErrorTypeMalformedResponse, Message: "model response could not be parsed"}
	ErrRateLimitExceeded = &AppError{Type: ErrorTypeRateLimited, Message: "rate limit exceeded"}
	ErrAuditWrite        = &AppError{Type: ErrorTypeAuditWrite, Message: "audit write failed"}
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// TypeOf returns the AppError type found in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewModelInvocationError wraps a provider failure
func NewModelInvocationError(err error) *AppError {
	return &AppError{
		Type:    ErrorTypeModelInvocation,
		Message: "model invocation failed",
		Err:     err,
	}
}

// NewMalformedResponseError wraps a parse failure
func NewMalformedResponseError(err error) *AppError {
	return &AppError{
		Type:    ErrorTypeMalformedResponse,
		Message: "model response could not be parsed",
		Err:     err,
	}
}

// NewRateLimitError reports an exhausted bucket for the given key
func NewRateLimitError(key string) *AppError {
	return &AppError{
		Type:    ErrorTypeRateLimited,
		Message: fmt.Sprintf("rate limit exceeded for %s", key),
	}
}

// NewAuditWriteError wraps an audit store failure
func NewAuditWriteError(err error) *AppError {
	return &AppError{
		Type:    ErrorTypeAuditWrite,
		Message: "audit write failed",
		Err:     err,
	}
}
