package types

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShiftType(t *testing.T) {
	cases := map[string]ShiftType{
		"Temp":      TempShift,
		"perm":      PermShift,
		"TempShift": TempShift,
		"PermShift": PermShift,
	}
	for in, want := range cases {
		got, err := ParseShiftType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseShiftType("Weekly")
	assert.Error(t, err)
}

func TestUsers_UnmarshalStringOrList(t *testing.T) {
	var single struct {
		User Users `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"user": "Adam"}`), &single))
	assert.Equal(t, Users{"Adam"}, single.User)

	var many struct {
		User Users `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"user": ["Adam", "Mrowca"]}`), &many))
	assert.Equal(t, Users{"Adam", "Mrowca"}, many.User)
	assert.Equal(t, "Adam Mrowca", many.User.String())

	var bad struct {
		User Users `json:"user"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"user": 7}`), &bad))
}

func TestShift_StructuralEquality(t *testing.T) {
	a := Shift{
		User:      Users{"Adam"},
		Type:      TempShift,
		Action:    ActionTempTake,
		StartDate: civil.Date{Year: 2024, Month: 10, Day: 7},
		EndDate:   civil.Date{Year: 2024, Month: 10, Day: 7},
		StartTime: NewClock(14, 0),
		EndTime:   NewClock(15, 0),
	}
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.EndTime = NewClock(16, 0)
	assert.False(t, a.Equal(b))

	c := a.Clone()
	c.Locations = []string{"SciLib"}
	assert.False(t, a.Equal(c))
}

func TestShift_JSONRoundTripKeepsUnknownType(t *testing.T) {
	raw := `{"type":"Bogus","start_date":"2024-01-01","end_date":"2024-01-02","start_time":"2:00PM","end_time":"3:30PM"}`
	var s Shift
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, ShiftType("Bogus"), s.Type)
	assert.False(t, s.Type.Valid())
	assert.Equal(t, NewClock(15, 30), s.EndTime)
}

func TestShift_WeekdayName(t *testing.T) {
	s := Shift{StartDate: civil.Date{Year: 2024, Month: 1, Day: 1}}
	assert.Equal(t, "Monday", s.WeekdayName())

	s.Weekday = "Th"
	assert.Equal(t, "Thursday", s.WeekdayName())
}

func TestShift_CandidateActions(t *testing.T) {
	s := Shift{Actions: []string{ActionTempTake, ActionPermTake}}
	assert.Equal(t, []string{ActionTempTake, ActionPermTake}, s.CandidateActions())

	s.Action = ActionPermDrop
	assert.Equal(t, []string{ActionPermDrop}, s.CandidateActions())
}
