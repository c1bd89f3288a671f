// Package driver provides the browser automation capabilities the claim workflow needs:
// a live headless Chrome driver and a static driver that replays captured pages.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when an element does not appear before the deadline.
var ErrTimeout = errors.New("timed out waiting for element")

// Element is an opaque handle to a rendered node. Only the Driver that returned it
// can interpret it, and it goes stale after the page navigates.
type Element interface{}

// Driver is the set of page operations used by the session state machine and the
// components built on it. Every call is blocking and bounded.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// FindElements returns the matches of selector below scope, or in the whole
	// document when scope is nil. No match is an empty slice, not an error.
	FindElements(ctx context.Context, scope Element, selector string) ([]Element, error)
	ReadText(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (string, error)
	Click(ctx context.Context, el Element) error
	SubmitForm(ctx context.Context, el Element) error
	SendKeys(ctx context.Context, el Element, text string) error
	// HTML returns the outer HTML of the current document.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Error represents a failed driver operation.
type Error struct {
	Op      string
	Target  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("driver %s %s: %s", e.Op, e.Target, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}
