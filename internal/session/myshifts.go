package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/types"
)

// Home page selectors for the "My Shifts" box.
const (
	MyShiftsBox   = "#index_my_shifts"
	MyShiftsBlock = ".index_perm_shift"
)

var shiftTypeWord = regexp.MustCompile(`(?i)\b(temp|perm)(?:shift)?\b`)

// MyShifts reads the shifts the logged-in user already holds from the home page.
// Blocks that cannot be parsed are logged and skipped.
func (m *Machine) MyShifts(ctx context.Context) ([]types.Shift, error) {
	m.logger.Info("getting user shifts from home")
	if err := m.GoToLocation(ctx, Home); err != nil {
		return nil, err
	}
	at, err := m.AtLocation(ctx, Home)
	if err != nil {
		return nil, err
	}
	if !at {
		return nil, nil
	}

	box, err := m.driver.WaitForElement(ctx, MyShiftsBox, m.formTimeout)
	if err != nil {
		return nil, &Error{Kind: LoadTimeout, Message: "my shifts box not found", Cause: err}
	}
	blocks, err := m.driver.FindElements(ctx, box, MyShiftsBlock)
	if err != nil {
		return nil, err
	}

	var shifts []types.Shift
	for i, block := range blocks {
		text, err := m.driver.ReadText(ctx, block)
		if err != nil {
			return nil, err
		}
		shift, err := ParseMyShift(text, m.site.Locations)
		if err != nil {
			m.logger.Warn("skipping unreadable shift block", zap.Int("index", i), zap.Error(err))
			continue
		}
		shifts = append(shifts, shift)
	}
	m.logger.Info("user shifts analyzed", zap.Int("blocks", len(blocks)), zap.Int("shifts", len(shifts)))
	return shifts, nil
}

// ParseMyShift reads one "My Shifts" block. The block names a weekday, a time window,
// one date (single day) or two dates (a recurring span), a location and optionally the
// shift type and the actions offered on it.
func ParseMyShift(text string, locations []string) (types.Shift, error) {
	clocks := types.ScanClocks(text)
	if len(clocks) < 2 {
		return types.Shift{}, fmt.Errorf("expected a time window in %q", text)
	}
	dates := types.ScanDates(text)
	if len(dates) == 0 {
		return types.Shift{}, fmt.Errorf("expected a date in %q", text)
	}

	s := types.Shift{
		StartTime: clocks[0],
		EndTime:   clocks[1],
		StartDate: dates[0],
		EndDate:   dates[0],
	}
	if len(dates) > 1 {
		s.EndDate = dates[1]
	}

	s.Type = types.TempShift
	if m := shiftTypeWord.FindStringSubmatch(text); m != nil {
		s.Type, _ = types.ParseShiftType(m[1])
	}
	// A TempShift is a single day; a span of dates always means a recurring shift.
	if s.StartDate != s.EndDate {
		s.Type = types.PermShift
	}

	if day, ok := types.ScanWeekday(text); ok {
		s.Weekday = day
	} else {
		s.Weekday = types.WeekdayOf(s.StartDate)
	}
	for _, loc := range locations {
		if strings.Contains(text, loc) {
			s.Locations = []string{loc}
			break
		}
	}
	for _, action := range types.ShiftActions {
		if strings.Contains(strings.ReplaceAll(text, " ", ""), action) {
			s.Actions = append(s.Actions, action)
		}
	}
	return s, nil
}
