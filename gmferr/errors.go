// Package gmferr defines the stable error taxonomy shared by every GMF
// layer: data bus, element, pool, task and pipeline all return one of these
// codes rather than ad-hoc errors, so a caller can switch on Code without
// caring which layer produced it.
package gmferr

import "github.com/pkg/errors"

// Code is a stable, caller-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes. These map 1:1 onto the error taxonomy kinds.
const (
	OK Code = "ok"

	InvalidArgument Code = "invalid_argument"
	OutOfMemory     Code = "out_of_memory"
	NotFound        Code = "not_found"
	NotSupported    Code = "not_supported"
	IoError         Code = "io_error"
	Timeout         Code = "timeout"
	Aborted         Code = "aborted"
	Fatal           Code = "fatal"

	Error Code = "error" // generic fallback
)

// E keeps the offending operation, a human message and the wrapped cause
// alongside a stable Code, so logs/events stay structured while errors.Is/
// errors.As keep working through Unwrap.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return e.Op + ": " + string(e.C) + ": " + e.Msg
	}
	return e.Op + ": " + string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// New builds an *E, attaching err as the cause when non-nil.
func New(op string, c Code, msg string, err error) *E {
	return &E{C: c, Op: op, Msg: msg, Err: err}
}

// NewFatal wraps err as a Fatal-code error and captures a stack trace via
// github.com/pkg/errors, so an ERROR pipeline event carries enough context
// to find the broken invariant without promoting stack traces into the
// Code taxonomy callers already switch on.
func NewFatal(op string, msg string, err error) *E {
	return &E{C: Fatal, Op: op, Msg: msg, Err: errors.WithStack(err)}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Is reports whether err's Code equals c, looking through *E wrappers.
func Is(err error, c Code) bool { return Of(err) == c }
