// Package calendar moves the schedule page's month calendar to a requested day.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/driver"
	"github.com/coracle/shiftclaim/internal/session"
)

// Calendar widget selectors.
const (
	Widget      = "#right_menu"
	Header      = "h4"
	HeaderLinks = "h4 a"
	Highlighted = ".highlighted"
	DayRows     = "tbody tr"
)

var monthYear = regexp.MustCompile(`([A-Za-z]+)\s+(\d{4})`)

// Navigator drives the calendar widget through a session Machine.
type Navigator struct {
	session *session.Machine
	logger  *zap.Logger
}

// New returns a Navigator bound to m.
func New(m *session.Machine, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{session: m, logger: logger.Named("calendar")}
}

// NavigateTo selects target in the calendar, moving month by month from the
// displayed date. It fails with DayNotFound when the aligned month has no link for
// the day.
func (n *Navigator) NavigateTo(ctx context.Context, target civil.Date) error {
	if err := n.session.CheckStarted(); err != nil {
		return err
	}
	at, err := n.session.AtLocation(ctx, session.Schedule)
	if err != nil {
		return err
	}
	if !at {
		if err := n.session.GoToLocation(ctx, session.Schedule); err != nil {
			return err
		}
	}

	n.logger.Info("navigating calendar", zap.Stringer("date", target))
	displayed, err := n.DisplayedDate(ctx)
	if err != nil {
		return err
	}
	n.logger.Debug("selected date", zap.Stringer("displayed", displayed))

	diff := monthIndex(displayed) - monthIndex(target)
	n.logger.Debug("moving months", zap.Int("months", diff))
	for i := 0; i < abs(diff); i++ {
		if err := n.step(ctx, diff > 0); err != nil {
			return err
		}
	}

	if err := n.clickDay(ctx, target.Day); err != nil {
		return err
	}

	after, err := n.DisplayedDate(ctx)
	if err != nil {
		return err
	}
	if after != target {
		n.logger.Warn("calendar shows a different date after navigation",
			zap.Stringer("wanted", target), zap.Stringer("shown", after))
	} else {
		n.logger.Debug("selected date", zap.Stringer("displayed", after))
	}
	return nil
}

// DisplayedDate reads the month, year and highlighted day shown by the widget.
func (n *Navigator) DisplayedDate(ctx context.Context) (civil.Date, error) {
	d := n.session.Driver()
	widget, err := n.widget(ctx)
	if err != nil {
		return civil.Date{}, err
	}

	headers, err := d.FindElements(ctx, widget, Header)
	if err != nil {
		return civil.Date{}, err
	}
	if len(headers) == 0 {
		return civil.Date{}, fmt.Errorf("calendar header not found")
	}
	headerText, err := d.ReadText(ctx, headers[0])
	if err != nil {
		return civil.Date{}, err
	}

	highlighted, err := d.FindElements(ctx, widget, Highlighted)
	if err != nil {
		return civil.Date{}, err
	}
	if len(highlighted) == 0 {
		return civil.Date{}, fmt.Errorf("no highlighted day in calendar")
	}
	dayText, err := d.ReadText(ctx, highlighted[0])
	if err != nil {
		return civil.Date{}, err
	}
	return ParseDisplayed(headerText, dayText)
}

// ParseDisplayed combines the header text ("October 2024") with the highlighted day.
func ParseDisplayed(header, day string) (civil.Date, error) {
	m := monthYear.FindStringSubmatch(header)
	if m == nil {
		return civil.Date{}, fmt.Errorf("calendar header %q has no month and year", header)
	}
	month, err := time.Parse("January", m[1])
	if err != nil {
		return civil.Date{}, fmt.Errorf("calendar header %q: %w", header, err)
	}
	year, _ := strconv.Atoi(m[2])
	dayNum, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return civil.Date{}, fmt.Errorf("highlighted day %q: %w", day, err)
	}
	d := civil.Date{Year: year, Month: month.Month(), Day: dayNum}
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("calendar shows invalid date %s", d)
	}
	return d, nil
}

func (n *Navigator) widget(ctx context.Context) (driver.Element, error) {
	w, err := n.session.Driver().WaitForElement(ctx, Widget, n.session.LoadTimeout())
	if err != nil {
		if errors.Is(err, driver.ErrTimeout) {
			return nil, &session.Error{Kind: session.LoadTimeout, Message: "calendar did not render", Cause: err}
		}
		return nil, err
	}
	return w, nil
}

// step clicks the back control when back is true, otherwise forward, and waits for
// the widget to render again.
func (n *Navigator) step(ctx context.Context, back bool) error {
	d := n.session.Driver()
	widget, err := n.widget(ctx)
	if err != nil {
		return err
	}
	links, err := d.FindElements(ctx, widget, HeaderLinks)
	if err != nil {
		return err
	}
	if len(links) < 2 {
		return fmt.Errorf("calendar header has %d navigation links, want at least 2", len(links))
	}
	control := links[1]
	if back {
		control = links[0]
	}
	if err := d.Click(ctx, control); err != nil {
		return err
	}
	_, err = n.widget(ctx)
	return err
}

func (n *Navigator) clickDay(ctx context.Context, day int) error {
	d := n.session.Driver()
	widget, err := n.widget(ctx)
	if err != nil {
		return err
	}
	rows, err := d.FindElements(ctx, widget, DayRows)
	if err != nil {
		return err
	}

	want := strconv.Itoa(day)
	n.logger.Debug("selecting day", zap.Int("day", day))
	for _, row := range skipHeader(rows) {
		cells, err := d.FindElements(ctx, row, "td")
		if err != nil {
			return err
		}
		for _, cell := range cells {
			class, err := d.Attribute(ctx, cell, "class")
			if err != nil {
				return err
			}
			if outsideMonth(class) {
				continue
			}
			links, err := d.FindElements(ctx, cell, "a")
			if err != nil {
				return err
			}
			for _, link := range links {
				text, err := d.ReadText(ctx, link)
				if err != nil {
					return err
				}
				if text == want {
					return d.Click(ctx, link)
				}
			}
		}
	}
	return &session.Error{Kind: session.DayNotFound, Message: fmt.Sprintf("no link for day %d in the displayed month", day)}
}

func skipHeader(rows []driver.Element) []driver.Element {
	if len(rows) == 0 {
		return rows
	}
	return rows[1:]
}

func outsideMonth(class string) bool {
	for _, c := range strings.Fields(class) {
		if c == "prevMonth" || c == "nextMonth" {
			return true
		}
	}
	return false
}

func monthIndex(d civil.Date) int {
	return d.Year*12 + int(d.Month) - 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
