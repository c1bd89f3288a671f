// Package types provides type definitions for the shift records exchanged between the
// notification source, the rule matcher, the history store and the claim automation.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// ShiftType distinguishes single-day shifts from recurring weekly ones.
type ShiftType string

// Shift types as stored in history.
const (
	TempShift ShiftType = "TempShift"
	PermShift ShiftType = "PermShift"
)

// Shift actions offered by the scheduling site.
const (
	ActionTempTake = "TempTake"
	ActionTempDrop = "TempDrop"
	ActionPermTake = "PermTake"
	ActionPermDrop = "PermDrop"
)

// DefaultLocations are the site's schedule columns in the order they are rendered.
var DefaultLocations = []string{"LC-27a", "LC-27b", "LI-Circ", "LI-106", "SciLib"}

// ShiftActions lists every action the site understands.
var ShiftActions = []string{ActionTempTake, ActionTempDrop, ActionPermTake, ActionPermDrop}

// ShiftActionGroups maps the short verbs used in notifications to the site actions they cover.
var ShiftActionGroups = map[string][]string{
	"Temp": {ActionTempTake, ActionTempDrop},
	"Perm": {ActionPermTake, ActionPermDrop},
	"Take": {ActionTempTake, ActionPermTake},
	"Drop": {ActionTempDrop, ActionPermDrop},
}

// ParseShiftType accepts "Temp", "Perm", "TempShift" or "PermShift" in any case.
func ParseShiftType(s string) (ShiftType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temp", "tempshift":
		return TempShift, nil
	case "perm", "permshift":
		return PermShift, nil
	}
	return "", fmt.Errorf("unknown shift type %q", s)
}

// Valid reports whether t is one of the known shift types.
func (t ShiftType) Valid() bool {
	return t == TempShift || t == PermShift
}

// IsShiftAction reports whether action is one of ShiftActions.
func IsShiftAction(action string) bool {
	for _, a := range ShiftActions {
		if a == action {
			return true
		}
	}
	return false
}

// Users holds the people named on a shift. It decodes from either a JSON string or an array.
type Users []string

// UnmarshalJSON implements json.Unmarshaler.
func (u *Users) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*u = nil
		} else {
			*u = Users{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("user must be a string or a list of strings: %w", err)
	}
	*u = many
	return nil
}

// String joins the names with spaces.
func (u Users) String() string {
	return strings.Join(u, " ")
}

// Shift is both the transient notification handed to the engine and the persisted
// history record. Two shifts are the same shift iff every field is equal.
type Shift struct {
	User      Users      `json:"user,omitempty"`
	Type      ShiftType  `json:"type"`
	Action    string     `json:"action,omitempty"`
	Actions   []string   `json:"actions,omitempty"`
	Locations []string   `json:"locations,omitempty"`
	StartDate civil.Date `json:"start_date"`
	EndDate   civil.Date `json:"end_date"`
	Weekday   string     `json:"weekday,omitempty"`
	StartTime Clock      `json:"start_time"`
	EndTime   Clock      `json:"end_time"`
}

// Key returns the canonical field tuple used for structural equality.
func (s Shift) Key() string {
	fields := []string{
		strings.Join(s.User, "\x1e"),
		string(s.Type),
		s.Action,
		strings.Join(s.Actions, "\x1e"),
		strings.Join(s.Locations, "\x1e"),
		s.StartDate.String(),
		s.EndDate.String(),
		s.Weekday,
		s.StartTime.String(),
		s.EndTime.String(),
	}
	return strings.Join(fields, "\x1f")
}

// Equal reports structural equality.
func (s Shift) Equal(other Shift) bool {
	return s.Key() == other.Key()
}

// Clone returns a deep copy.
func (s Shift) Clone() Shift {
	c := s
	c.User = append(Users(nil), s.User...)
	c.Actions = append([]string(nil), s.Actions...)
	c.Locations = append([]string(nil), s.Locations...)
	return c
}

// WeekdayName returns the shift's weekday, deriving it from StartDate when unset.
func (s Shift) WeekdayName() string {
	if s.Weekday != "" {
		if full, ok := FullWeekday(s.Weekday); ok {
			return full
		}
		return s.Weekday
	}
	if !s.StartDate.IsValid() {
		return ""
	}
	return WeekdayOf(s.StartDate)
}

// CandidateActions returns Action when set, otherwise Actions in order.
func (s Shift) CandidateActions() []string {
	if s.Action != "" {
		return []string{s.Action}
	}
	return s.Actions
}

// String renders the identifying fields used in log lines.
func (s Shift) String() string {
	action := s.Action
	if action == "" {
		action = strings.Join(s.Actions, "/")
	}
	return fmt.Sprintf("%s %s %s %s-%s (%s)", s.Type, action, s.StartDate, s.StartTime, s.EndTime, s.User)
}
