package engine

import (
	"fmt"

	"github.com/coracle/shiftclaim/internal/types"
)

// Outcome classifies one evaluation.
type Outcome int

// Evaluation outcomes. Only Fatal stops the polling loop.
const (
	Claimed Outcome = iota + 1
	NotEligible
	Duplicate
	Unavailable
	Retryable
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Claimed:
		return "claimed"
	case NotEligible:
		return "not eligible"
	case Duplicate:
		return "duplicate"
	case Unavailable:
		return "unavailable"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result reports what EvaluateAndAct did with a notification. Shift is the shift as
// attempted, with the authorized action and locations filled in.
type Result struct {
	Outcome Outcome
	Reason  string
	Shift   types.Shift
	Err     error
}

// Claimed reports whether the shift was claimed.
func (r Result) Claimed() bool {
	return r.Outcome == Claimed
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s: %v", r.Outcome, r.Reason, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Outcome, r.Reason)
}
