// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy shared by the provisioner, the echo workers and the supervisor.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the module.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotSupported    = errors.New("operation not supported")
	ErrAlreadyRunning  = errors.New("already running")
	ErrNotStarted      = errors.New("not started")
	ErrSocketClosed    = errors.New("socket is closed")
)

// ErrorClass tells the supervisor how far a failure is allowed to travel.
type ErrorClass int

const (
	// ClassSetup covers resolution, socket option, bind and listen failures.
	ClassSetup ErrorClass = iota
	// ClassTransient covers would-block and interrupted calls. Never surfaced.
	ClassTransient
	// ClassRequest covers a single accept attempt or a single connection.
	ClassRequest
	// ClassFatal covers any other failure on a worker's own socket.
	ClassFatal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassSetup:
		return "setup"
	case ClassTransient:
		return "transient"
	case ClassRequest:
		return "request"
	case ClassFatal:
		return "fatal"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Error is a classified failure carrying the operation and the worker ordinal.
// Ordinal is -1 when the failure is not tied to a worker.
type Error struct {
	Class   ErrorClass
	Kind    Kind
	Op      string
	Ordinal int
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Ordinal < 0 {
		return fmt.Sprintf("%s %s: %s: %v", e.Kind, e.Class, e.Op, e.Err)
	}
	return fmt.Sprintf("%s worker %d %s: %s: %v", e.Kind, e.Ordinal, e.Class, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a classified error.
func NewError(class ErrorClass, kind Kind, op string, ordinal int, err error) *Error {
	return &Error{Class: class, Kind: kind, Op: op, Ordinal: ordinal, Err: err}
}

// SetupError wraps a provisioning failure that is not tied to a worker.
func SetupError(kind Kind, op string, err error) *Error {
	return NewError(ClassSetup, kind, op, -1, err)
}

// ClassOf reports the class of err, or false if err is not classified.
func ClassOf(err error) (ErrorClass, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Class, true
	}
	return 0, false
}

// IsSetup reports whether err is a setup failure.
func IsSetup(err error) bool {
	c, ok := ClassOf(err)
	return ok && c == ClassSetup
}

// IsFatal reports whether err terminated a worker.
func IsFatal(err error) bool {
	c, ok := ClassOf(err)
	return ok && c == ClassFatal
}
