package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrPrecondition   = errors.New("precondition not met")
	ErrPersistence    = errors.New("persistence failure")
	ErrTimeout        = errors.New("store timeout")
	ErrRateLimited    = errors.New("rate limited")
)

// Error codes shared by API errors and conversation replies.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodePrecondition = "PRECONDITION_FAILED"
	CodePersistence  = "PERSISTENCE_ERROR"
	CodeTimeout      = "STORE_TIMEOUT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller can repeat the same request unchanged.
func (e *APIError) Retryable() bool {
	return e.Code == CodeTimeout || e.Code == CodeRateLimited
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       CodeValidation,
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewPreconditionError creates a 409 error for steps invoked before their prerequisites.
func NewPreconditionError(reason string) *APIError {
	return &APIError{
		Code:       CodePrecondition,
		Message:    reason,
		StatusCode: http.StatusConflict,
		Err:        ErrPrecondition,
	}
}

// NewPersistenceError wraps a failed store read or write.
func NewPersistenceError(op string, err error) *APIError {
	return &APIError{
		Code:       CodePersistence,
		Message:    fmt.Sprintf("%s failed", op),
		StatusCode: http.StatusInternalServerError,
		Err:        fmt.Errorf("%w: %v", ErrPersistence, err),
	}
}

// NewTimeoutError creates a 503 error for store calls that exceeded their deadline.
func NewTimeoutError(op string) *APIError {
	return &APIError{
		Code:       CodeTimeout,
		Message:    fmt.Sprintf("%s timed out, please retry", op),
		StatusCode: http.StatusServiceUnavailable,
		Err:        ErrTimeout,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       CodeInternal,
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewRateLimitError creates a 429 error for rate limiting.
func NewRateLimitError(service string) *APIError {
	return &APIError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("%s rate limit exceeded, please retry later", service),
		StatusCode: http.StatusTooManyRequests,
		Err:        ErrRateLimited,
	}
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
