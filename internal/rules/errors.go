// Package rules parses the user's rule tree and decides whether a shift notification is
// eligible for an automatic claim.
package rules

import "fmt"

// Error reports a malformed rule tree. Field is the dotted path of the offending key.
type Error struct {
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("rule error in %s: %s", e.Field, e.Message)
	} else {
		msg = fmt.Sprintf("rule error: %s", msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}
