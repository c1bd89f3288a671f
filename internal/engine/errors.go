package engine

import "fmt"

// FatalError stops the polling loop. It wraps the failure that needs an operator.
type FatalError struct {
	Message string
	Cause   error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fatal: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("fatal: %s", e.Message)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}
