package engine

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coracle/shiftclaim/internal/calendar"
	"github.com/coracle/shiftclaim/internal/driver"
	"github.com/coracle/shiftclaim/internal/driver/sitetest"
	"github.com/coracle/shiftclaim/internal/history"
	"github.com/coracle/shiftclaim/internal/rules"
	"github.com/coracle/shiftclaim/internal/session"
	"github.com/coracle/shiftclaim/internal/slots"
	"github.com/coracle/shiftclaim/internal/types"
)

const tuesdayAfternoons = `{
	"all": {
		"Tu": {
			"locations": ["LC-27b", "SciLib"],
			"hours": {"1:00PM-5:00PM": ["TempTake"]}
		}
	}
}`

type memoryPersistence struct {
	saves int
	saved []types.Shift
}

func (m *memoryPersistence) Load(context.Context) ([]types.Shift, error) {
	return nil, nil
}

func (m *memoryPersistence) Save(_ context.Context, shifts []types.Shift) error {
	m.saves++
	m.saved = shifts
	return nil
}

type harness struct {
	engine  *Engine
	driver  *driver.Static
	session *session.Machine
	store   *history.Store
	persist *memoryPersistence
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, site *sitetest.Site, pages map[string]string, rulesJSON string) harness {
	t.Helper()
	return newHarnessWith(t, site, pages, rulesJSON, nil)
}

// newHarnessWith lets wrap replace the driver the session sees.
func newHarnessWith(t *testing.T, site *sitetest.Site, pages map[string]string, rulesJSON string, wrap func(*driver.Static) driver.Driver) harness {
	t.Helper()
	if pages == nil {
		pages = site.Pages()
	}
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	tree, err := rules.Parse([]byte(rulesJSON), site.Locations)
	require.NoError(t, err)

	d := driver.NewStatic(pages)
	var sd driver.Driver = d
	if wrap != nil {
		sd = wrap(d)
	}
	m := session.New(sd, session.Site{BaseURL: sitetest.BaseURL, Locations: site.Locations}, logger,
		session.WithLoadTimeout(100*time.Millisecond))
	persist := &memoryPersistence{}
	store := history.New(persist, logger)
	matcher := slots.New(m, calendar.New(m, logger), logger)

	e := New(Config{
		Rules:       tree,
		History:     store,
		Session:     m,
		Claimer:     matcher,
		Credentials: Credentials{Username: "jdoe", Password: "hunter2"},
		Logger:      logger,
	})
	return harness{engine: e, driver: d, session: m, store: store, persist: persist, logs: logs}
}

func siteWithSlot(options ...string) *sitetest.Site {
	site := sitetest.New()
	site.Slots = []sitetest.Slot{{Location: "LC-27b", Text: "2:00pm - 4:00pm 10/15/24", Options: options}}
	return site
}

func oct(day int) civil.Date {
	return civil.Date{Year: 2024, Month: time.October, Day: day}
}

func notification() types.Shift {
	return types.Shift{
		User:      types.Users{"Jane Doe"},
		Type:      types.TempShift,
		Action:    types.ActionTempTake,
		StartDate: oct(15),
		EndDate:   oct(15),
		Weekday:   "Tuesday",
		StartTime: types.NewClock(14, 0),
		EndTime:   types.NewClock(16, 0),
	}
}

func TestEvaluateAndAct_Claims(t *testing.T) {
	h := newHarness(t, siteWithSlot("Temp Take"), nil, tuesdayAfternoons)

	result, err := h.engine.EvaluateAndAct(context.Background(), notification())

	require.NoError(t, err)
	assert.Equal(t, Claimed, result.Outcome)
	assert.True(t, result.Claimed())
	assert.Equal(t, types.ActionTempTake, result.Shift.Action)
	assert.Equal(t, []string{"LC-27b", "SciLib"}, result.Shift.Locations)

	assert.True(t, h.store.Contains(result.Shift))
	assert.Equal(t, 1, h.persist.saves)
	assert.Len(t, h.persist.saved, 1)
	assert.True(t, h.session.LoggedIn())
	assert.Equal(t, session.Schedule, h.session.Location())
}

func TestEvaluateAndAct_SecondTimeIsDuplicate(t *testing.T) {
	h := newHarness(t, siteWithSlot("Temp Take"), nil, tuesdayAfternoons)
	ctx := context.Background()

	_, err := h.engine.EvaluateAndAct(ctx, notification())
	require.NoError(t, err)
	before := len(h.driver.Events())

	result, err := h.engine.EvaluateAndAct(ctx, notification())

	require.NoError(t, err)
	assert.Equal(t, Duplicate, result.Outcome)
	assert.Len(t, h.driver.Events(), before, "a duplicate never touches the site")
}

func TestEvaluateAndAct_NotEligible(t *testing.T) {
	h := newHarness(t, siteWithSlot("Temp Take"), nil, tuesdayAfternoons)

	n := notification()
	n.StartTime = types.NewClock(12, 0)
	result, err := h.engine.EvaluateAndAct(context.Background(), n)

	require.NoError(t, err)
	assert.Equal(t, NotEligible, result.Outcome)
	assert.Empty(t, h.driver.Events())
	assert.Equal(t, 1, h.logs.FilterMessage("shift not eligible").Len())
}

func TestEvaluateAndAct_LocationNotAllowed(t *testing.T) {
	h := newHarness(t, siteWithSlot("Temp Take"), nil, tuesdayAfternoons)

	n := notification()
	n.Locations = []string{"LI-Circ"}
	result, err := h.engine.EvaluateAndAct(context.Background(), n)

	require.NoError(t, err)
	assert.Equal(t, NotEligible, result.Outcome)
	assert.Empty(t, h.driver.Events())
}

func TestEvaluateAndAct_FirstEligibleAction(t *testing.T) {
	h := newHarness(t, siteWithSlot("Temp Drop", "Temp Take"), nil, tuesdayAfternoons)

	n := notification()
	n.Action = ""
	n.Actions = []string{types.ActionTempDrop, types.ActionTempTake}
	result, err := h.engine.EvaluateAndAct(context.Background(), n)

	require.NoError(t, err)
	assert.Equal(t, Claimed, result.Outcome)
	assert.Equal(t, types.ActionTempTake, result.Shift.Action)
	assert.Nil(t, result.Shift.Actions)
}

func TestEvaluateAndAct_HeldRecurringShiftIsDuplicate(t *testing.T) {
	h := newHarness(t, siteWithSlot("Temp Take"), nil, tuesdayAfternoons)
	h.store.AddShift(types.Shift{
		Type:      types.PermShift,
		Actions:   []string{types.ActionPermDrop},
		Locations: []string{"LC-27b"},
		StartDate: civil.Date{Year: 2024, Month: time.September, Day: 3},
		EndDate:   civil.Date{Year: 2024, Month: time.December, Day: 10},
		Weekday:   "Tuesday",
		StartTime: types.NewClock(14, 0),
		EndTime:   types.NewClock(16, 0),
	})

	result, err := h.engine.EvaluateAndAct(context.Background(), notification())

	require.NoError(t, err)
	assert.Equal(t, Duplicate, result.Outcome)
	assert.Empty(t, h.driver.Events())
}

func TestEvaluateAndAct_SyncsHeldShiftsAfterLogin(t *testing.T) {
	site := siteWithSlot("Temp Take")
	site.MyShifts = []string{"Tuesday 2:00pm - 4:00pm 9/3/24 - 12/10/24 LC-27b Perm Drop"}
	h := newHarness(t, site, nil, tuesdayAfternoons)

	result, err := h.engine.EvaluateAndAct(context.Background(), notification())

	require.NoError(t, err)
	assert.Equal(t, Duplicate, result.Outcome)
	require.Equal(t, 1, h.store.Len())
	assert.Equal(t, types.PermShift, h.store.History()[0].Type)
	assert.Equal(t, 1, h.persist.saves)
}

func TestEvaluateAndAct_Unavailable(t *testing.T) {
	h := newHarness(t, siteWithSlot(), nil, tuesdayAfternoons)

	result, err := h.engine.EvaluateAndAct(context.Background(), notification())

	require.NoError(t, err)
	assert.Equal(t, Unavailable, result.Outcome)
	assert.Zero(t, h.store.Len())
	assert.Equal(t, 1, h.logs.FilterMessage("failed to claim shift").Len())
}

func TestEvaluateAndAct_RejectedLoginIsFatal(t *testing.T) {
	site := siteWithSlot("Temp Take")
	site.LoginTarget = ""
	h := newHarness(t, site, nil, tuesdayAfternoons)

	result, err := h.engine.EvaluateAndAct(context.Background(), notification())

	require.Error(t, err)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.True(t, session.IsKind(err, session.LoginFailed))
	assert.Equal(t, Fatal, result.Outcome)
}

func TestEvaluateAndAct_SessionErrorIsRetryable(t *testing.T) {
	site := siteWithSlot("Temp Take")
	pages := site.Pages()
	pages[sitetest.BaseURL+"show_shifts.php"] = `<html><body><div id="its_logo"></div><p>Calendar unavailable</p></body></html>`
	h := newHarness(t, site, pages, tuesdayAfternoons)

	result, err := h.engine.EvaluateAndAct(context.Background(), notification())

	require.NoError(t, err)
	assert.Equal(t, Retryable, result.Outcome)
	assert.True(t, session.IsKind(result.Err, session.LoadTimeout))
	assert.False(t, h.session.Started(), "the session is re-initialized on the next attempt")
}

func TestResolve(t *testing.T) {
	match := rules.Match{Action: types.ActionTempTake, Locations: []string{"LC-27a", "SciLib"}}

	n := notification()
	n.Locations = []string{"SciLib", "LI-106", "LC-27a"}
	got, ok := resolve(n, match)
	assert.True(t, ok)
	assert.Equal(t, []string{"SciLib", "LC-27a"}, got.Locations, "notification order is kept")
	assert.Equal(t, []string{"SciLib", "LI-106", "LC-27a"}, n.Locations, "input is not modified")
}

// cancelAwareDriver refuses side effects once its caller's ctx is cancelled, like the
// chrome driver does.
type cancelAwareDriver struct {
	*driver.Static
}

func (d cancelAwareDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Static.Navigate(ctx, url)
}

func (d cancelAwareDriver) Click(ctx context.Context, el driver.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Static.Click(ctx, el)
}

func (d cancelAwareDriver) SubmitForm(ctx context.Context, el driver.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Static.SubmitForm(ctx, el)
}

// cancellingClaimer cancels the caller's ctx before handing the shift on.
type cancellingClaimer struct {
	inner  Claimer
	cancel context.CancelFunc
}

func (c cancellingClaimer) GrabShift(ctx context.Context, shift types.Shift) (bool, error) {
	c.cancel()
	return c.inner.GrabShift(ctx, shift)
}

func TestEvaluateAndAct_CancelDuringClaimCompletesClaim(t *testing.T) {
	h := newHarnessWith(t, siteWithSlot("Temp Take"), nil, tuesdayAfternoons,
		func(d *driver.Static) driver.Driver { return cancelAwareDriver{d} })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.engine.claimer = cancellingClaimer{inner: h.engine.claimer, cancel: cancel}

	result, err := h.engine.EvaluateAndAct(ctx, notification())

	require.NoError(t, err)
	require.Error(t, ctx.Err())
	assert.Equal(t, Claimed, result.Outcome)
	assert.True(t, h.store.Contains(result.Shift))
	assert.Equal(t, 1, h.persist.saves)

	var submits []string
	for _, e := range h.driver.Events() {
		if e.Kind == "submit" {
			submits = append(submits, e.Target)
		}
	}
	assert.Contains(t, submits, "confirm_form")
	assert.Equal(t, session.Schedule, h.session.Location())
}

func TestEvaluateAndAct_CancelledBeforeSiteWork(t *testing.T) {
	h := newHarness(t, siteWithSlot("Temp Take"), nil, tuesdayAfternoons)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.engine.EvaluateAndAct(ctx, notification())

	require.NoError(t, err)
	assert.Equal(t, Retryable, result.Outcome)
	assert.Equal(t, "interrupted", result.Reason)
	assert.Empty(t, h.driver.Events())
}
