// Package apperr classifies domain errors by their effect so handlers can map
// them to status codes and the reporter can skip the ones we expect.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the effect class of an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindForbidden
	KindConflict
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindExternal:
		return "external_service"
	}
	return "unknown"
}

// Error carries a public message safe to show callers and the internal cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrExternal   = &Error{Kind: KindExternal}
)

func Validation(msg string, err error) error { return &Error{Kind: KindValidation, Msg: msg, Err: err} }
func NotFound(msg string) error              { return &Error{Kind: KindNotFound, Msg: msg} }
func Auth(msg string) error                  { return &Error{Kind: KindAuth, Msg: msg} }
func Forbidden(msg string) error             { return &Error{Kind: KindForbidden, Msg: msg} }
func Conflict(msg string, err error) error   { return &Error{Kind: KindConflict, Msg: msg, Err: err} }

// External wraps a failure of the mailer, blob store or another outside service.
func External(service string, err error) error {
	return &Error{Kind: KindExternal, Msg: service + " unavailable", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// PublicMessage returns the caller-safe message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "internal server error"
}
