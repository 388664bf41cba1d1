package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "without wrapped error",
			err: &APIError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
			},
			want: "TEST_ERROR: something went wrong",
		},
		{
			name: "with wrapped error",
			err: &APIError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
				Err:     errors.New("underlying cause"),
			},
			want: "TEST_ERROR: something went wrong (underlying cause)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &APIError{
		Code:    "TEST",
		Message: "test",
		Err:     underlying,
	}

	if err.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), underlying)
	}

	errNoWrap := &APIError{Code: "TEST", Message: "test"}
	if errNoWrap.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no wrapped error")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantCode   string
		wantStatus int
		sentinel   error
	}{
		{"not found", NewNotFoundError("customer"), CodeNotFound, 404, ErrNotFound},
		{"validation", NewValidationError("rating", "must be 1 to 5"), CodeValidation, 400, ErrInvalidRequest},
		{"precondition", NewPreconditionError("no shipping address"), CodePrecondition, 409, ErrPrecondition},
		{"persistence", NewPersistenceError("place order", errors.New("deadlock")), CodePersistence, 500, ErrPersistence},
		{"timeout", NewTimeoutError("get customer"), CodeTimeout, 503, ErrTimeout},
		{"rate limited", NewRateLimitError("webhook"), CodeRateLimited, 429, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.wantStatus)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("error should wrap %v sentinel", tt.sentinel)
			}
		})
	}
}

func TestNewValidationErrorMessage(t *testing.T) {
	err := NewValidationError("email", "must be valid email address")

	if err.Message != "invalid email: must be valid email address" {
		t.Errorf("Message = %q, want %q", err.Message, "invalid email: must be valid email address")
	}
}

func TestNewPersistenceErrorKeepsCause(t *testing.T) {
	err := NewPersistenceError("save address", errors.New("unique violation"))

	if err.Message != "save address failed" {
		t.Errorf("Message = %q", err.Message)
	}
	if got := err.Error(); got != "PERSISTENCE_ERROR: save address failed (persistence failure: unique violation)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRetryable(t *testing.T) {
	if !NewTimeoutError("x").Retryable() {
		t.Error("timeout should be retryable")
	}
	if !NewRateLimitError("x").Retryable() {
		t.Error("rate limit should be retryable")
	}
	if NewPersistenceError("x", errors.New("boom")).Retryable() {
		t.Error("persistence error should not be retryable")
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading order: %w", NewNotFoundError("order"))

	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should find APIError in chain")
	}
	if apiErr.Code != CodeNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, CodeNotFound)
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is should find ErrNotFound through wrapping")
	}
}
