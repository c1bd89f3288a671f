package types

import (
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// AllKey is the wildcard accepted for date ranges, weekdays and hour ranges.
const AllKey = "all"

// Weekdays lists the full weekday names in the order the site shows them.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayInitials are the short forms paired index-for-index with Weekdays.
var WeekdayInitials = []string{"M", "Tu", "W", "Th", "F", "Sa", "Su"}

// FullWeekday resolves a full name or initial to the full weekday name.
func FullWeekday(s string) (string, bool) {
	v := strings.TrimSpace(s)
	for i, name := range Weekdays {
		if strings.EqualFold(v, name) || v == WeekdayInitials[i] {
			return name, true
		}
	}
	return "", false
}

// IsWeekdayKey reports whether key is exactly a full weekday name, an initial, or
// AllKey. Rule keys are matched verbatim, so no other spelling is accepted.
func IsWeekdayKey(key string) bool {
	return key == AllKey || slices.Contains(Weekdays, key) || slices.Contains(WeekdayInitials, key)
}

// WeekdayMatches reports whether a rule weekday key covers the given weekday.
// Initials are case sensitive so that "Tu" and "Th" stay distinct from "T".
func WeekdayMatches(key, weekday string) bool {
	if key == AllKey {
		return true
	}
	full, ok := FullWeekday(weekday)
	if !ok {
		return false
	}
	for i, name := range Weekdays {
		if name != full {
			continue
		}
		return key == name || key == WeekdayInitials[i]
	}
	return false
}

// WeekdayOf returns the full weekday name of a calendar date.
func WeekdayOf(d civil.Date) string {
	wd := d.In(time.UTC).Weekday()
	// time.Weekday starts at Sunday.
	return Weekdays[(int(wd)+6)%7]
}
