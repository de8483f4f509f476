package errorx

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is the typed error returned by every elasticbud package.
// OriginalError carries the cause (a sentinel, a transport error or both) and
// is reachable through errors.Is / errors.As.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`

	OriginalError error `json:"-"`
}

var _ error = Error{}

func (e Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
}

func (e Error) Unwrap() error {
	return e.OriginalError
}

// WithCause returns a copy of the error wrapping err.
func (e Error) WithCause(err error) Error {
	e.OriginalError = err
	return e
}

// Temporary reports whether the failure may go away on its own.
// Only infrastructure failures are temporary, schema and validation errors never are.
func (e Error) Temporary() bool {
	switch e.Type {
	case ErrorTypeUnavailable, ErrorTypeInternal:
		return true
	default:
		return false
	}
}

func newError(t ErrorType, msg string) Error {
	return Error{
		Type:    t,
		Message: msg,
	}
}

// IsError returns the first Error found in the chain of e.
func IsError(e error) (*Error, bool) {
	var xe Error
	if !errors.As(e, &xe) {
		return nil, false
	}

	if xe.Type == ErrorTypeUnspecified {
		return nil, false
	}

	return &xe, true
}

// IsTemporary reports whether e is an untyped error or a typed error that may be retried.
func IsTemporary(e error) bool {
	xe, ok := IsError(e)
	if !ok {
		return true
	}

	return xe.Temporary()
}

func isType(e error, t ErrorType) bool {
	xe, ok := IsError(e)
	if !ok {
		return false
	}

	return xe.Type == t
}
