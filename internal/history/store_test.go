package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coracle/shiftclaim/internal/types"
)

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func tempShift(d civil.Date) types.Shift {
	return types.Shift{
		User:      types.Users{"Adam"},
		Type:      types.TempShift,
		Action:    types.ActionTempTake,
		StartDate: d,
		EndDate:   d,
		StartTime: types.NewClock(14, 0),
		EndTime:   types.NewClock(15, 0),
	}
}

func permShift(start, end civil.Date) types.Shift {
	return types.Shift{
		User:      types.Users{"Adam"},
		Type:      types.PermShift,
		Action:    types.ActionPermTake,
		Locations: []string{"SciLib"},
		StartDate: start,
		EndDate:   end,
		Weekday:   "Monday",
		StartTime: types.NewClock(9, 0),
		EndTime:   types.NewClock(11, 0),
	}
}

func TestAddShift_IgnoresStructuralDuplicates(t *testing.T) {
	s := New(nil, nil)
	shift := tempShift(date(2024, 1, 1))

	assert.True(t, s.AddShift(shift))
	assert.False(t, s.AddShift(shift.Clone()))
	assert.Equal(t, 1, s.Len())

	other := shift.Clone()
	other.EndTime = types.NewClock(16, 0)
	assert.True(t, s.AddShift(other))
	assert.Equal(t, 2, s.Len())
}

func TestRemoveAndReplaceShift(t *testing.T) {
	s := New(nil, nil)
	a := tempShift(date(2024, 1, 1))
	b := tempShift(date(2024, 1, 2))
	s.AddShift(a)

	assert.False(t, s.ReplaceShift(b, a), "absent old shift leaves the store untouched")
	assert.True(t, s.ReplaceShift(a, b))
	assert.False(t, s.Contains(a))
	assert.True(t, s.Contains(b))

	assert.True(t, s.RemoveShift(b))
	assert.False(t, s.RemoveShift(b))
	assert.Equal(t, 0, s.Len())
}

func TestUpdateShift(t *testing.T) {
	s := New(nil, nil)
	a := tempShift(date(2024, 1, 1))
	s.AddShift(a)

	ok := s.UpdateShift(a, func(r *types.Shift) { r.Locations = []string{"LC-27a"} })
	require.True(t, ok)

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, []string{"LC-27a"}, history[0].Locations)
}

func TestExpandRecurring_ThreeWeeks(t *testing.T) {
	perm := permShift(date(2024, 1, 1), date(2024, 1, 22))

	got, err := ExpandRecurring(perm)
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := []civil.Date{date(2024, 1, 1), date(2024, 1, 8), date(2024, 1, 15)}
	for i, o := range got {
		assert.Equal(t, types.TempShift, o.Type)
		assert.Equal(t, want[i], o.StartDate)
		assert.Equal(t, o.StartDate, o.EndDate)
		assert.Equal(t, types.ActionTempTake, o.Action)
		assert.Equal(t, perm.StartTime, o.StartTime)
		assert.Equal(t, perm.Locations, o.Locations)
	}
	assert.Equal(t, types.PermShift, perm.Type, "input is not modified")
}

func TestExpandRecurring_ShortSpanYieldsStartDate(t *testing.T) {
	got, err := ExpandRecurring(permShift(date(2024, 1, 1), date(2024, 1, 4)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, date(2024, 1, 1), got[0].StartDate)
}

func TestExpandRecurring_NonPermUnchanged(t *testing.T) {
	temp := tempShift(date(2024, 1, 1))
	got, err := ExpandRecurring(temp)
	require.NoError(t, err)
	assert.Equal(t, []types.Shift{temp}, got)
}

func TestExpandRecurring_InvertedDates(t *testing.T) {
	_, err := ExpandRecurring(permShift(date(2024, 2, 1), date(2024, 1, 1)))
	var histErr *Error
	assert.ErrorAs(t, err, &histErr)
}

func TestShiftsInRange_MixedHistory(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := New(nil, zap.New(core))

	temp := tempShift(date(2024, 2, 12))
	perm := permShift(date(2024, 2, 5), date(2024, 3, 4))
	malformed := tempShift(date(2024, 2, 14))
	malformed.EndDate = date(2024, 2, 15)

	s.AddShift(temp)
	s.AddShift(perm)
	s.AddShift(malformed)

	got, err := s.ShiftsInRange(date(2024, 2, 1), date(2024, 3, 31))
	require.NoError(t, err)

	occurrences, err := ExpandRecurring(perm)
	require.NoError(t, err)
	require.Len(t, occurrences, 4)

	want := append([]types.Shift{temp, perm}, occurrences...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ShiftsInRange mismatch (-want +got):\n%s", diff)
	}

	assert.False(t, s.Contains(malformed), "malformed record is purged")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, logs.Len())
}

func TestShiftsInRange_PermContributesOccurrencesWithoutParent(t *testing.T) {
	s := New(nil, nil)
	perm := permShift(date(2024, 1, 1), date(2024, 3, 25))
	s.AddShift(perm)

	got, err := s.ShiftsInRange(date(2024, 2, 1), date(2024, 2, 29))
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, o := range got {
		assert.Equal(t, types.TempShift, o.Type)
		assert.True(t, types.DateBetween(o.StartDate, date(2024, 2, 1), date(2024, 2, 29)))
	}
}

func TestShiftsInRange_PurgesUnknownType(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := New(nil, zap.New(core))

	bogus := tempShift(date(2024, 1, 3))
	bogus.Type = "Bogus"
	s.AddShift(bogus)
	s.AddShift(tempShift(date(2024, 1, 4)))

	got, err := s.ShiftsInRange(date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, s.Len())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Bogus", logs.All()[0].ContextMap()["type"])
}

func TestShiftsInRange_InvertedRange(t *testing.T) {
	s := New(nil, nil)
	_, err := s.ShiftsInRange(date(2024, 2, 1), date(2024, 1, 1))
	assert.Error(t, err)
}

type memoryPersistence struct {
	loaded  []types.Shift
	saved   []types.Shift
	loadErr error
}

func (m *memoryPersistence) Load(context.Context) ([]types.Shift, error) {
	return m.loaded, m.loadErr
}

func (m *memoryPersistence) Save(_ context.Context, shifts []types.Shift) error {
	m.saved = shifts
	return nil
}

func TestOpenAndSave(t *testing.T) {
	p := &memoryPersistence{loaded: []types.Shift{tempShift(date(2024, 1, 1))}}
	s, err := Open(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	s.AddShift(tempShift(date(2024, 1, 2)))
	require.NoError(t, s.Save(context.Background()))
	assert.Len(t, p.saved, 2)
}

func TestOpen_LoadError(t *testing.T) {
	p := &memoryPersistence{loadErr: errors.New("disk gone")}
	_, err := Open(context.Background(), p, nil)

	var histErr *Error
	require.ErrorAs(t, err, &histErr)
	assert.Contains(t, err.Error(), "disk gone")
}
