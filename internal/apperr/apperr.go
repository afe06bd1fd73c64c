// Package apperr defines the error kinds returned by the service layer.
// Handlers translate kinds into HTTP statuses; nothing below the handlers
// knows about transport codes.
package apperr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUpload       = errors.New("upload failure")
	ErrPersistence  = errors.New("persistence failure")
	ErrValidation   = errors.New("validation failure")

	// ErrInvalidTimestamp marks stored times that cannot be parsed. It matches ErrValidation.
	ErrInvalidTimestamp = fmt.Errorf("%w: invalid timestamp", ErrValidation)
)

type Detail map[string]any

// Error carries a kind, a human readable message and a structured detail body.
type Error struct {
	Kind    error
	Message string
	Detail  Detail
	Err     error

	pcs []uintptr
}

func New(kind error, message string, detail Detail) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail, pcs: callers()}
}

// Wrap attaches cause to a new Error of the given kind.
func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause, pcs: callers()}
}

// callers records the stack of whoever built the Error, skipping
// runtime.Callers, callers and the constructor itself.
func callers() []uintptr {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	return pcs[:n]
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Persistence wraps a database error unless it already carries a kind.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	e := Wrap(ErrPersistence, op, err)
	e.pcs = callers()
	return e
}

// DetailOf returns the detail body of err, or nil.
func DetailOf(err error) Detail {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Detail
	}
	return nil
}

// MessageOf returns the message of err without the wrapped cause.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// StackOf renders the frames recorded where err was built, or "" when err
// carries no *Error.
func StackOf(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) || len(appErr.pcs) == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(appErr.pcs)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}
