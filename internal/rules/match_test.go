package rules

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coracle/shiftclaim/internal/types"
)

func mustParse(t *testing.T, dates string) *Tree {
	t.Helper()
	tree, err := Parse([]byte(dates), types.DefaultLocations)
	require.NoError(t, err)
	return tree
}

func mondayShift() types.Shift {
	day := civil.Date{Year: 2024, Month: 10, Day: 7} // a Monday
	return types.Shift{
		User:      types.Users{"Adam"},
		Type:      types.TempShift,
		Action:    types.ActionTempTake,
		StartDate: day,
		EndDate:   day,
		Weekday:   "Monday",
		StartTime: types.NewClock(14, 0),
		EndTime:   types.NewClock(15, 0),
	}
}

func TestIsEligible_WeekdayKeys(t *testing.T) {
	for _, key := range []string{"M", "Monday", "all"} {
		tree := mustParse(t, `{"all": {"`+key+`": {"hours": {"all": ["TempTake"]}}}}`)
		assert.True(t, IsEligible(mondayShift(), tree), key)
	}

	tree := mustParse(t, `{"all": {"Tu": {"hours": {"all": ["TempTake"]}}}}`)
	assert.False(t, IsEligible(mondayShift(), tree))
}

func TestIsEligible_DateRangeInclusive(t *testing.T) {
	tree := mustParse(t, `{"9/1/24-10/7/24": {"all": {"hours": {"all": ["TempTake"]}}}}`)

	onEnd := mondayShift()
	assert.True(t, IsEligible(onEnd, tree))

	after := mondayShift()
	after.StartDate = after.StartDate.AddDays(1)
	after.EndDate = after.StartDate
	after.Weekday = ""
	assert.False(t, IsEligible(after, tree))
}

func TestIsEligible_DateRangeNeedsBothDates(t *testing.T) {
	tree := mustParse(t, `{"9/1/24-10/7/24": {"all": {"hours": {"all": ["PermTake"]}}}}`)

	perm := mondayShift()
	perm.Type = types.PermShift
	perm.Action = types.ActionPermTake
	perm.EndDate = civil.Date{Year: 2024, Month: 12, Day: 9}
	assert.False(t, IsEligible(perm, tree))
}

func TestIsEligible_HourRange(t *testing.T) {
	tree := mustParse(t, `{"all": {"M": {"hours": {"2:00PM-3:00PM": ["TempTake"]}}}}`)
	assert.True(t, IsEligible(mondayShift(), tree), "bounds are inclusive")

	late := mondayShift()
	late.EndTime = types.NewClock(15, 30)
	assert.False(t, IsEligible(late, tree))
}

func TestIsEligible_ActionMustBeListed(t *testing.T) {
	tree := mustParse(t, `{"all": {"all": {"hours": {"all": ["TempDrop"]}}}}`)
	assert.False(t, IsEligible(mondayShift(), tree))
}

func TestIsEligible_AllMatchesEverything(t *testing.T) {
	tree := mustParse(t, `{"all": {"all": {"hours": {"all": ["TempTake"]}}}}`)

	s := mondayShift()
	s.StartDate = civil.Date{Year: 1999, Month: 12, Day: 31}
	s.EndDate = s.StartDate
	s.Weekday = ""
	s.StartTime = types.NewClock(0, 0)
	s.EndTime = types.NewClock(23, 59)
	assert.True(t, IsEligible(s, tree))
}

func TestMatch_FirstPathWinsInDocumentOrder(t *testing.T) {
	tree := mustParse(t, `{
		"all": {
			"M": {"locations": ["SciLib"], "hours": {"1:00PM-4:00PM": ["TempTake"]}},
			"all": {"locations": ["LC-27a"], "hours": {"all": ["TempTake"]}}
		}
	}`)

	m, ok := tree.Match(mondayShift())
	require.True(t, ok)
	assert.Equal(t, "M", m.WeekdayKey)
	assert.Equal(t, "1:00PM-4:00PM", m.HourKey)
	assert.Equal(t, []string{"SciLib"}, m.Locations)
}

func TestMatch_SkipsPathsWithoutTheAction(t *testing.T) {
	tree := mustParse(t, `{
		"all": {
			"M": {"locations": ["SciLib"], "hours": {"all": ["TempDrop"]}},
			"all": {"locations": ["LC-27a"], "hours": {"all": ["TempTake"]}}
		}
	}`)

	m, ok := tree.Match(mondayShift())
	require.True(t, ok)
	assert.Equal(t, "all", m.WeekdayKey)
	assert.Equal(t, []string{"LC-27a"}, m.Locations)
}

func TestMatch_TriesCandidateActionsInOrder(t *testing.T) {
	tree := mustParse(t, `{"all": {"all": {"hours": {"all": ["PermTake"]}}}}`)

	s := mondayShift()
	s.Action = ""
	s.Actions = []string{types.ActionTempTake, types.ActionPermTake}

	m, ok := tree.Match(s)
	require.True(t, ok)
	assert.Equal(t, types.ActionPermTake, m.Action)
}

func TestMatch_NilTree(t *testing.T) {
	var tree *Tree
	_, ok := tree.Match(mondayShift())
	assert.False(t, ok)
}
