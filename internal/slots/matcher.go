// Package slots finds a shift's block on the schedule page and claims it.
package slots

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/calendar"
	"github.com/coracle/shiftclaim/internal/driver"
	"github.com/coracle/shiftclaim/internal/session"
	"github.com/coracle/shiftclaim/internal/types"
)

// Schedule page selectors.
const (
	DayTableRows = "#shifts_by_day tbody tr"
	Block        = "div.shift_block"
	ActionSelect = "select"
	Option       = "option"
	SubmitButton = "#shift_form input[type=submit]"
	ConfirmForm  = "form"
)

// Matcher selects and submits shift actions on the schedule page.
type Matcher struct {
	session  *session.Machine
	calendar *calendar.Navigator
	logger   *zap.Logger
}

// New returns a Matcher driving m through nav.
func New(m *session.Machine, nav *calendar.Navigator, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{session: m, calendar: nav, logger: logger.Named("slots")}
}

// SelectShift navigates to the shift's start date and picks the requested action in
// the first block that contains the shift. Locations are tried in the shift's order.
// It returns false when the browser is not on the schedule page, when no block
// contains the shift, when the block is already taken, or when the action is not
// offered.
func (m *Matcher) SelectShift(ctx context.Context, shift types.Shift) (bool, error) {
	at, err := m.session.AtLocation(ctx, session.Schedule)
	if err != nil {
		return false, err
	}
	if !at {
		m.logger.Warn("shift selection requires the schedule page", zap.String("location", string(m.session.Location())))
		return false, nil
	}
	if err := m.calendar.NavigateTo(ctx, shift.StartDate); err != nil {
		return false, err
	}

	d := m.session.Driver()
	rows, err := d.FindElements(ctx, nil, DayTableRows)
	if err != nil {
		return false, err
	}
	if len(rows) < 2 {
		m.logger.Warn("schedule has no slot row", zap.Stringer("date", shift.StartDate))
		return false, nil
	}
	cells, err := d.FindElements(ctx, rows[1], "td")
	if err != nil {
		return false, err
	}

	for _, location := range shift.Locations {
		col, ok := m.session.Site().Column(location)
		if !ok || col+1 >= len(cells) {
			m.logger.Warn("no schedule column for location", zap.String("location", location))
			continue
		}
		block, found, err := m.findBlock(ctx, cells[col+1], shift)
		if err != nil {
			return false, err
		}
		if !found {
			continue
		}
		m.logger.Info("found matching block", zap.String("location", location))
		return m.chooseAction(ctx, block, shift.Action)
	}
	m.logger.Info("no block matches the shift", zap.Stringer("shift", shift))
	return false, nil
}

func (m *Matcher) findBlock(ctx context.Context, column driver.Element, shift types.Shift) (driver.Element, bool, error) {
	d := m.session.Driver()
	blocks, err := d.FindElements(ctx, column, Block)
	if err != nil {
		return nil, false, err
	}
	for _, block := range blocks {
		text, err := d.ReadText(ctx, block)
		if err != nil {
			return nil, false, err
		}
		parsed, err := ParseBlock(text)
		if err != nil {
			m.logger.Debug("skipping unreadable block", zap.Error(err))
			continue
		}
		if parsed.Contains(shift) {
			return block, true, nil
		}
	}
	return nil, false, nil
}

func (m *Matcher) chooseAction(ctx context.Context, block driver.Element, action string) (bool, error) {
	d := m.session.Driver()
	selects, err := d.FindElements(ctx, block, ActionSelect)
	if err != nil {
		return false, err
	}
	if len(selects) == 0 {
		m.logger.Info("shift already taken")
		return false, nil
	}
	options, err := d.FindElements(ctx, selects[0], Option)
	if err != nil {
		return false, err
	}

	want := NormalizeAction(action)
	for _, opt := range options {
		text, err := d.ReadText(ctx, opt)
		if err != nil {
			return false, err
		}
		if NormalizeAction(text) == want {
			if err := d.Click(ctx, opt); err != nil {
				return false, err
			}
			m.logger.Info("selected action", zap.String("action", text))
			return true, nil
		}
	}
	m.logger.Info("action not available", zap.String("action", action))
	return false, nil
}

// GrabShift selects the shift and walks the submit and confirm pages. Unexpected
// pages are logged and reported as false; load timeouts are returned as session
// errors.
func (m *Matcher) GrabShift(ctx context.Context, shift types.Shift) (bool, error) {
	if err := m.session.CheckStarted(); err != nil {
		return false, err
	}
	m.logger.Info("grabbing shift", zap.Stringer("shift", shift))

	selected, err := m.SelectShift(ctx, shift)
	if err != nil || !selected {
		return false, err
	}

	if ok, err := m.expect(ctx, session.Schedule, false); !ok || err != nil {
		return false, err
	}
	d := m.session.Driver()
	buttons, err := d.FindElements(ctx, nil, SubmitButton)
	if err != nil {
		return false, err
	}
	if len(buttons) != 1 {
		m.logger.Error("expected a single submit control", zap.Int("found", len(buttons)))
		return false, nil
	}
	if err := d.Click(ctx, buttons[0]); err != nil {
		return false, err
	}

	if ok, err := m.expect(ctx, session.Confirm, true); !ok || err != nil {
		return false, err
	}
	form, err := d.WaitForElement(ctx, ConfirmForm, m.session.FormTimeout())
	if err != nil {
		m.logger.Error("confirmation form not found", zap.Error(err))
		return false, nil
	}
	if err := d.SubmitForm(ctx, form); err != nil {
		return false, err
	}

	if ok, err := m.expect(ctx, session.Schedule, true); !ok || err != nil {
		return false, err
	}
	m.logger.Info("shift grabbed", zap.Stringer("shift", shift))
	return true, nil
}

// expect asserts the browser is at target. After a click it first waits for the
// URL to change and for the page to load.
func (m *Matcher) expect(ctx context.Context, target session.Location, navigated bool) (bool, error) {
	if navigated {
		reached, err := m.session.AwaitLocation(ctx, target)
		if err != nil {
			return false, err
		}
		if !reached {
			m.logger.Error("page did not change as expected", zap.String("want", string(target)),
				zap.String("at", string(m.session.Location())))
			return false, nil
		}
		if err := m.session.WaitLoaded(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	at, err := m.session.AtLocation(ctx, target)
	if err != nil {
		if session.IsKind(err, session.UnknownLocation) {
			m.logger.Error("lost track of the page", zap.Error(err))
			return false, nil
		}
		return false, err
	}
	if !at {
		m.logger.Error(fmt.Sprintf("expected to be at %s", target), zap.String("at", string(m.session.Location())))
	}
	return at, nil
}
