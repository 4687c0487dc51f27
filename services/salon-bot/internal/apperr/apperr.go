// Package apperr holds the error kinds returned by the salon domain
// operations. Every kind carries a short message fit to show to the user.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrSlotTaken       = errors.New("slot taken")
	ErrAlreadyCanceled = errors.New("already canceled")
	ErrPersistence     = errors.New("persistence error")
	ErrValidation      = errors.New("validation error")
)

// Error pairs a kind with a user-facing message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for err, or fallback when err does not
// carry one.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return fallback
}
