// Package session owns the browser's position in the scheduling site and its login
// state. Every other component that touches the site goes through a Machine.
package session

import (
	"errors"
	"fmt"
)

// Kind classifies a session failure.
type Kind int

// Session failure kinds.
const (
	NotStarted Kind = iota + 1
	UnknownLocation
	LoadTimeout
	LoginFailed
	DayNotFound
)

func (k Kind) String() string {
	switch k {
	case NotStarted:
		return "not started"
	case UnknownLocation:
		return "unknown location"
	case LoadTimeout:
		return "load timeout"
	case LoginFailed:
		return "login failed"
	case DayNotFound:
		return "day not found"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is raised for conditions that make further interaction with the site unsafe.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session error (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("session error (%s): %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err wraps a session Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}
