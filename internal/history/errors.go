// Package history tracks shifts that were claimed or observed so the engine never acts
// on the same shift twice.
package history

import "fmt"

// Error represents a history precondition or persistence failure.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("history error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("history error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
