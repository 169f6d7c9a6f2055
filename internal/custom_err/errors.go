package custom_err

import (
	"errors"
	"fmt"
)

var (
	// Common errors
	ErrNotFound        = errors.New("resource not found")
	ErrValidation      = errors.New("validation error")
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// Money and rate errors
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrRateNotFound     = errors.New("exchange rate not found")
	ErrInvalidFee       = errors.New("invalid fee")

	// Cash register errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyOpen       = errors.New("operator already has an open register")
	ErrSessionClosed     = errors.New("register session is closed")
	ErrSessionOwnership  = errors.New("register session belongs to another operator")
	ErrNoOpenSession     = errors.New("operator has no open register")

	// Transaction errors
	ErrInvalidStateTransition    = errors.New("invalid state transition")
	ErrDuplicateReference        = errors.New("duplicate transaction reference")
	ErrReferenceGenerationFailed = errors.New("reference generation failed")

	// Identity errors
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotActive = errors.New("token not active yet")
)

// ValidationError rejects a request before any state change and names the offending field.
// errors.Is matches both ErrValidation and the wrapped kind (if any).
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func NewValidationErrorKind(field, reason string, kind error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: kind}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}
