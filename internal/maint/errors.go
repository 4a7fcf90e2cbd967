package maint

import (
	"errors"
	"fmt"

	"aficiogolang/internal/rdh"
)

type ErrorKind string

const (
	// ErrorValidation is raised locally, before any network traffic,
	// for malformed input. Fix the input; retrying is pointless.
	ErrorValidation ErrorKind = "validation"
	// ErrorNotFound means a referenced user code resolves to no known
	// account.
	ErrorNotFound ErrorKind = "not-found"
	// ErrorBusy means the device rejected the operation because another
	// management client holds the subsystem.
	ErrorBusy ErrorKind = "busy"
	// ErrorDevice covers every other failure reported by the device or
	// the transport underneath it.
	ErrorDevice ErrorKind = "device"
)

// Error is a maintenance failure annotated with the operation, the user
// code it concerned (zero when not tied to one user) and, when the
// device reported a status, that status verbatim.
type Error struct {
	Kind     ErrorKind
	Op       string
	UserCode int
	Status   string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	op := e.Op
	if e.UserCode > 0 {
		op = fmt.Sprintf("%s user %d", e.Op, e.UserCode)
	}
	if e.Err == nil {
		if op != "" {
			return op
		}
		return string(e.Kind)
	}
	if op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", op, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapValidation(op string, err error) error {
	return &Error{Kind: ErrorValidation, Op: op, Err: err}
}

func wrapNotFound(op string, code int) error {
	return &Error{Kind: ErrorNotFound, Op: op, UserCode: code, Err: errors.New("no such user code")}
}

// wrapDevice classifies a transport or status failure, lifting the
// device's busy status out into its own kind.
func wrapDevice(op string, code int, err error) error {
	kind := ErrorDevice
	status := ""
	var se *rdh.StatusError
	if errors.As(err, &se) {
		status = se.Status
		if se.Status == rdh.StatusBusy {
			kind = ErrorBusy
		}
	}
	return &Error{Kind: kind, Op: op, UserCode: code, Status: status, Err: err}
}

func IsValidation(err error) bool {
	var me *Error
	return errors.As(err, &me) && me.Kind == ErrorValidation
}

func IsNotFound(err error) bool {
	var me *Error
	return errors.As(err, &me) && me.Kind == ErrorNotFound
}

func IsBusy(err error) bool {
	var me *Error
	return errors.As(err, &me) && me.Kind == ErrorBusy
}
