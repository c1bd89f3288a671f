// Package notify supplies shift notifications to the engine. A Source is re-read every
// cycle, so a notification still present on the next cycle is evaluated again.
package notify

import (
	"context"
	"fmt"
	"iter"

	"cloud.google.com/go/civil"

	"github.com/coracle/shiftclaim/internal/types"
)

// Source yields the notifications available for one cycle. A yielded error describes
// one unreadable notification; iteration continues past it.
type Source interface {
	Notifications(ctx context.Context) iter.Seq2[types.Shift, error]
}

// List is a fixed Source.
type List []types.Shift

// Notifications yields every shift in order, normalized.
func (l List) Notifications(ctx context.Context) iter.Seq2[types.Shift, error] {
	return func(yield func(types.Shift, error) bool) {
		for _, n := range l {
			if ctx.Err() != nil {
				return
			}
			if !yield(Normalize(n)) {
				return
			}
		}
	}
}

// Normalize canonicalizes a parsed notification: the shift type becomes TempShift or
// PermShift, a single-day notification gets its end date, and the weekday is spelled
// out in full.
func Normalize(n types.Shift) (types.Shift, error) {
	out := n.Clone()

	t, err := types.ParseShiftType(string(n.Type))
	if err != nil {
		return types.Shift{}, err
	}
	out.Type = t

	if !out.StartDate.IsValid() {
		return types.Shift{}, fmt.Errorf("notification %s has no valid start date", n)
	}
	if out.Type == types.TempShift && out.EndDate == (civil.Date{}) {
		out.EndDate = out.StartDate
	}
	if !out.EndDate.IsValid() {
		return types.Shift{}, fmt.Errorf("notification %s has no valid end date", n)
	}
	if out.EndDate.Before(out.StartDate) {
		return types.Shift{}, fmt.Errorf("notification %s ends before it starts", n)
	}
	if out.Type == types.TempShift && out.StartDate != out.EndDate {
		return types.Shift{}, fmt.Errorf("temp notification %s spans more than one day", n)
	}

	if out.Weekday != "" {
		full, ok := types.FullWeekday(out.Weekday)
		if !ok {
			return types.Shift{}, fmt.Errorf("notification %s has unknown weekday %q", n, out.Weekday)
		}
		out.Weekday = full
	} else {
		out.Weekday = types.WeekdayOf(out.StartDate)
	}

	if len(out.CandidateActions()) == 0 {
		return types.Shift{}, fmt.Errorf("notification %s offers no action", n)
	}
	return out, nil
}
