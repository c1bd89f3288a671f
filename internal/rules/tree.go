package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/coracle/shiftclaim/internal/types"
)

// Tree is a validated rule tree. Every level keeps the key order of the source
// document, which is also the order Match walks it in.
type Tree struct {
	Dates []DateRule
}

// DateRule constrains notifications to a date range. A nil Range means "all".
type DateRule struct {
	Key      string
	Range    *DateRange
	Weekdays []WeekdayRule
}

// DateRange is an inclusive pair of calendar dates.
type DateRange struct {
	Start civil.Date
	End   civil.Date
}

// Contains reports Start <= d <= End.
func (r DateRange) Contains(d civil.Date) bool {
	return types.DateBetween(d, r.Start, r.End)
}

// WeekdayRule lists the locations and hour windows allowed on matching weekdays.
type WeekdayRule struct {
	Key       string
	Locations []string
	Hours     []HourRule
}

// HourRule authorizes Actions inside an hour window. A nil Range means "all".
type HourRule struct {
	Key     string
	Range   *ClockRange
	Actions []string
}

// ClockRange is an inclusive pair of times of day.
type ClockRange struct {
	Start types.Clock
	End   types.Clock
}

// Contains reports Start <= c <= End.
func (r ClockRange) Contains(c types.Clock) bool {
	return c.Between(r.Start, r.End)
}

// rangeSuffix marks derived companion keys written next to hour keys by older tooling.
const rangeSuffix = "_range"

// Parse validates the "dates" object of a settings document and precomputes every
// date and hour range. Locations are checked against known; a weekday with no
// locations is allowed at all of them.
func Parse(data []byte, known []string) (*Tree, error) {
	dates, err := decodeObject(data)
	if err != nil {
		return nil, &Error{Field: "dates", Message: "must be an object", Cause: err}
	}

	tree := &Tree{}
	for _, d := range dates {
		rule, err := parseDateRule(d.key, d.value, known)
		if err != nil {
			return nil, err
		}
		tree.Dates = append(tree.Dates, rule)
	}
	return tree, nil
}

func parseDateRule(key string, data json.RawMessage, known []string) (DateRule, error) {
	field := "dates." + key
	rng, err := ParseDateRange(key)
	if err != nil {
		return DateRule{}, &Error{Field: field, Message: "date range must be in m/d/yy-m/d/yy format or \"all\"", Cause: err}
	}

	weekdays, err := decodeObject(data)
	if err != nil {
		return DateRule{}, &Error{Field: field, Message: "must be an object", Cause: err}
	}

	rule := DateRule{Key: key, Range: rng}
	for _, w := range weekdays {
		if w.key == "range" {
			continue
		}
		if !types.IsWeekdayKey(w.key) {
			return DateRule{}, &Error{Field: field + "." + w.key, Message: "weekday is not valid"}
		}
		wr, err := parseWeekdayRule(field+"."+w.key, w.key, w.value, known)
		if err != nil {
			return DateRule{}, err
		}
		rule.Weekdays = append(rule.Weekdays, wr)
	}
	return rule, nil
}

func parseWeekdayRule(field, key string, data json.RawMessage, known []string) (WeekdayRule, error) {
	var body struct {
		Locations json.RawMessage `json:"locations"`
		Hours     json.RawMessage `json:"hours"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return WeekdayRule{}, &Error{Field: field, Message: "must be an object", Cause: err}
	}

	rule := WeekdayRule{Key: key}
	if len(body.Locations) > 0 && string(body.Locations) != "null" {
		if err := json.Unmarshal(body.Locations, &rule.Locations); err != nil {
			return WeekdayRule{}, &Error{Field: field + ".locations", Message: "must be a list", Cause: err}
		}
	}
	if len(rule.Locations) == 0 {
		rule.Locations = slices.Clone(known)
	}
	var unknown []string
	for _, loc := range rule.Locations {
		if !slices.Contains(known, loc) {
			unknown = append(unknown, loc)
		}
	}
	if len(unknown) > 0 {
		return WeekdayRule{}, &Error{Field: field + ".locations", Message: fmt.Sprintf("invalid location(s) %s", strings.Join(unknown, ", "))}
	}

	if len(body.Hours) == 0 || string(body.Hours) == "null" {
		return WeekdayRule{}, &Error{Field: field + ".hours", Message: "is missing"}
	}
	hours, err := decodeObject(body.Hours)
	if err != nil {
		return WeekdayRule{}, &Error{Field: field + ".hours", Message: "must be an object", Cause: err}
	}
	for _, h := range hours {
		if strings.HasSuffix(h.key, rangeSuffix) {
			continue
		}
		hr, err := parseHourRule(field+".hours."+h.key, h.key, h.value)
		if err != nil {
			return WeekdayRule{}, err
		}
		rule.Hours = append(rule.Hours, hr)
	}
	return rule, nil
}

func parseHourRule(field, key string, data json.RawMessage) (HourRule, error) {
	rng, err := ParseClockRange(key)
	if err != nil {
		return HourRule{}, &Error{Field: field, Message: "hour range must be in h:mmAM-h:mmPM format or \"all\"", Cause: err}
	}
	var actions []string
	if err := json.Unmarshal(data, &actions); err != nil {
		return HourRule{}, &Error{Field: field, Message: "actions must be a list", Cause: err}
	}
	for _, a := range actions {
		if !types.IsShiftAction(a) {
			return HourRule{}, &Error{Field: field, Message: fmt.Sprintf("invalid action %q", a)}
		}
	}
	return HourRule{Key: key, Range: rng, Actions: actions}, nil
}

// ParseDateRange parses "m/d/yy-m/d/yy". It returns nil for "all".
func ParseDateRange(key string) (*DateRange, error) {
	if key == types.AllKey {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(key, "-")
	if !ok {
		return nil, fmt.Errorf("missing '-' in %q", key)
	}
	start, err := types.ParseDate(lo)
	if err != nil {
		return nil, err
	}
	end, err := types.ParseDate(hi)
	if err != nil {
		return nil, err
	}
	return &DateRange{Start: start, End: end}, nil
}

// ParseClockRange parses "h:mmAM-h:mmPM". It returns nil for "all".
func ParseClockRange(key string) (*ClockRange, error) {
	if key == types.AllKey {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(key, "-")
	if !ok {
		return nil, fmt.Errorf("missing '-' in %q", key)
	}
	start, err := types.ParseClock(lo)
	if err != nil {
		return nil, err
	}
	end, err := types.ParseClock(hi)
	if err != nil {
		return nil, err
	}
	return &ClockRange{Start: start, End: end}, nil
}

type member struct {
	key   string
	value json.RawMessage
}

// decodeObject reads a JSON object keeping its members in document order.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		members = append(members, member{key: key, value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}
