package common

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups against a stale or unknown id.
var ErrNotFound = errors.New("not found")

// ErrInvalidSignature marks a webhook whose signature did not verify.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ValidationError is a field-tagged, user-correctable input error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-tagged validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidationError extracts a ValidationError from an error chain
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// DeliveryError is a failure reported by the email gateway. Whether it
// propagates or is logged and swallowed depends on the call site: send
// and user-initiated cancel propagate, best-effort cancels do not.
type DeliveryError struct {
	Op  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("email gateway %s failed: %v", e.Op, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// NewDeliveryError wraps a gateway failure for the given operation
func NewDeliveryError(op string, err error) *DeliveryError {
	return &DeliveryError{Op: op, Err: err}
}

// IsDeliveryError reports whether err originates from the email gateway
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
