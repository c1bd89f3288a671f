package rules

import (
	"slices"

	"github.com/coracle/shiftclaim/internal/types"
)

// Match is the first rule path that authorizes a notification.
type Match struct {
	DateKey    string
	WeekdayKey string
	HourKey    string
	Action     string
	Locations  []string
}

// IsEligible reports whether any of the notification's candidate actions is authorized.
func IsEligible(n types.Shift, tree *Tree) bool {
	_, ok := tree.Match(n)
	return ok
}

// Match walks date ranges, then weekdays, then hour windows, each in document order,
// and returns the first path whose action list holds one of the notification's
// candidate actions. Candidate actions are tried in order.
func (t *Tree) Match(n types.Shift) (Match, bool) {
	if t == nil {
		return Match{}, false
	}
	for _, action := range n.CandidateActions() {
		if m, ok := t.MatchAction(n, action); ok {
			return m, true
		}
	}
	return Match{}, false
}

// MatchAction is Match restricted to a single action.
func (t *Tree) MatchAction(n types.Shift, action string) (Match, bool) {
	weekday := n.WeekdayName()
	for _, d := range t.Dates {
		if d.Range != nil && !(d.Range.Contains(n.StartDate) && d.Range.Contains(n.EndDate)) {
			continue
		}
		for _, w := range d.Weekdays {
			if !types.WeekdayMatches(w.Key, weekday) {
				continue
			}
			for _, h := range w.Hours {
				if h.Range != nil && !(h.Range.Contains(n.StartTime) && h.Range.Contains(n.EndTime)) {
					continue
				}
				if slices.Contains(h.Actions, action) {
					return Match{
						DateKey:    d.Key,
						WeekdayKey: w.Key,
						HourKey:    h.Key,
						Action:     action,
						Locations:  slices.Clone(w.Locations),
					}, true
				}
			}
		}
	}
	return Match{}, false
}
