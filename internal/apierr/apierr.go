// Package apierr defines the error taxonomy shared by the adapters,
// scheduler, and streaming layer, following the typed-error-with-kind
// style of the teacher's provider guard errors.
package apierr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of error in the taxonomy. It is not itself an
// error type; Error wraps it with context.
type Kind string

const (
	BadRequest        Kind = "BadRequest"
	BadResponseShape  Kind = "BadResponseShape"
	UpstreamHTTPError Kind = "UpstreamHTTPError"
	UpstreamIOError   Kind = "UpstreamIOError"
	UpstreamTimeout   Kind = "UpstreamTimeout"
	RegistryMiss      Kind = "RegistryMiss"
	ValidationFailure Kind = "ValidationFailure"
	JobInvalid        Kind = "JobInvalid"
	InternalError     Kind = "InternalError"
)

// Error is a taxonomy-tagged error carrying the offending component and a
// message, plus the wrapped cause when one triggered the classification.
type Error struct {
	K       Kind
	Exchange string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Exchange != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s[%s]: %s: %v", e.K, e.Exchange, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s[%s]: %s", e.K, e.Exchange, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.K, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.K, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Kind returns the taxonomy kind of this error, satisfying any code that
// wants to branch on classification without a type assertion.
func (e *Error) Kind() Kind { return e.K }

// New constructs a taxonomy error with no cause.
func New(k Kind, msg string) *Error {
	return &Error{K: k, Message: msg}
}

// Wrap constructs a taxonomy error around an underlying cause.
func Wrap(k Kind, msg string, cause error) *Error {
	return &Error{K: k, Message: msg, Cause: cause}
}

// WrapExchange is Wrap with an exchange tag, used by adapters so the
// scheduler's logs name the venue that failed.
func WrapExchange(k Kind, exchange, msg string, cause error) *Error {
	return &Error{K: k, Exchange: exchange, Message: msg, Cause: cause}
}

// Of extracts the Kind from err if it is (or wraps) an *Error, returning
// ("", false) otherwise.
func Of(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.K, true
	}
	return "", false
}
