// Package apperr holds the service-level error kinds shared by every domain package.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing record, including records hidden behind another parent.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest marks a create/update whose storage outcome violated its contract.
	ErrBadRequest = errors.New("bad request")
)

// Error carries a user-facing message and a kind matched with errors.Is.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.Error()
}

// Is matches the kind so callers can test errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds an ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// BadRequest wraps cause as an ErrBadRequest with a formatted message.
func BadRequest(cause error, format string, args ...any) error {
	return &Error{Kind: ErrBadRequest, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// IsNotFound reports whether err is of kind ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsBadRequest reports whether err is of kind ErrBadRequest.
func IsBadRequest(err error) bool { return errors.Is(err, ErrBadRequest) }
