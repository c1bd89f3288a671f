package types

import (
	"regexp"
	"strings"

	"cloud.google.com/go/civil"
)

var (
	clockPattern = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*[ap]\.?m\.?`)
	datePattern  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})\b`)
)

// ScanClocks returns every 12-hour time of day found in text, in order.
func ScanClocks(text string) []Clock {
	var out []Clock
	for _, m := range clockPattern.FindAllString(text, -1) {
		if c, err := ParseClock(m); err == nil {
			out = append(out, c)
		}
	}
	return out
}

// ScanDates returns every m/d/yy or m/d/yyyy date found in text, in order.
func ScanDates(text string) []civil.Date {
	var out []civil.Date
	for _, m := range datePattern.FindAllString(text, -1) {
		if d, err := ParseDate(m); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// ScanWeekday returns the first full weekday name found in text.
func ScanWeekday(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, name := range Weekdays {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name, true
		}
	}
	return "", false
}
