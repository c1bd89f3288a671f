package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Clock is a time of day in minutes after midnight.
type Clock int

var clockLayouts = []string{"3:04PM", "3PM", "15:04", "15:04:05"}

// NewClock builds a Clock from hour and minute.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts "2:00PM", "02:00 pm", "2pm" and 24-hour "14:00".
func ParseClock(s string) (Clock, error) {
	v := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	v = strings.ReplaceAll(v, ".", "")
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return NewClock(t.Hour(), t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// Hour returns the hour in 24-hour form.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute within the hour.
func (c Clock) Minute() int { return int(c) % 60 }

// String renders the clock as "3:04PM".
func (c Clock) String() string {
	t := time.Date(0, 1, 1, c.Hour(), c.Minute(), 0, 0, time.UTC)
	return t.Format("3:04PM")
}

// Between reports lo <= c <= hi.
func (c Clock) Between(lo, hi Clock) bool {
	return lo <= c && c <= hi
}

// MarshalJSON implements json.Marshaler.
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var dateLayouts = []string{"2006-01-02", "1/2/06", "1/2/2006", "January 2, 2006", "Jan 2, 2006"}

// ParseDate accepts ISO dates and the site's m/d/yy form.
func ParseDate(s string) (civil.Date, error) {
	v := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("invalid date %q", s)
}

// DateBetween reports lo <= d <= hi.
func DateBetween(d, lo, hi civil.Date) bool {
	return !d.Before(lo) && !d.After(hi)
}
