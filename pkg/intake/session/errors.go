package session

import "errors"

// ErrInvariant marks internal state violations. Everything wrapping it is fatal for the call.
var ErrInvariant = errors.New("session invariant violated")

var (
	ErrEmptySessionID   = errors.New("empty session id")
	ErrOutOfOrderUpdate = errors.New("update does not target the next missing field")
	ErrAlreadyComplete  = errors.New("session already complete")
)

type invariantError struct {
	cause error
}

func (e *invariantError) Error() string { return ErrInvariant.Error() + ": " + e.cause.Error() }

func (e *invariantError) Unwrap() []error { return []error{ErrInvariant, e.cause} }

func invariant(cause error) error {
	return &invariantError{cause: cause}
}
