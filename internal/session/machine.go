package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/driver"
)

// Page markers.
const (
	LoadMarker    = "#its_logo"
	LoginForm     = "#loginForm"
	UsernameField = "#user"
	PasswordField = "#pass"
)

// Default waits.
const (
	DefaultLoadTimeout = 5 * time.Second
	DefaultFormTimeout = 10 * time.Second
)

// Machine tracks where the browser is in the site and whether a session was started.
// It is not safe for concurrent use.
type Machine struct {
	driver      driver.Driver
	site        Site
	started     bool
	loggedIn    bool
	location    Location
	loadTimeout time.Duration
	formTimeout time.Duration
	logger      *zap.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithLoadTimeout sets how long to wait for the page-load marker.
func WithLoadTimeout(d time.Duration) Option {
	return func(m *Machine) { m.loadTimeout = d }
}

// WithFormTimeout sets how long to wait for forms and page sections.
func WithFormTimeout(d time.Duration) Option {
	return func(m *Machine) { m.formTimeout = d }
}

// New wraps d. No navigation happens until InitSession.
func New(d driver.Driver, site Site, logger *zap.Logger, opts ...Option) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Machine{
		driver:      d,
		site:        site,
		location:    Unauthenticated,
		loadTimeout: DefaultLoadTimeout,
		formTimeout: DefaultFormTimeout,
		logger:      logger.Named("session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Driver exposes the wrapped driver to collaborators that have asserted their location.
func (m *Machine) Driver() driver.Driver { return m.driver }

// Site returns the site layout.
func (m *Machine) Site() Site { return m.site }

// Location returns the last location the machine observed or navigated to.
func (m *Machine) Location() Location { return m.location }

// Started reports whether InitSession ran.
func (m *Machine) Started() bool { return m.started }

// LoggedIn reports whether the last Login succeeded.
func (m *Machine) LoggedIn() bool { return m.loggedIn }

// FormTimeout is the wait used for forms and page sections.
func (m *Machine) FormTimeout() time.Duration { return m.formTimeout }

// LoadTimeout is the wait used for page-load markers.
func (m *Machine) LoadTimeout() time.Duration { return m.loadTimeout }

// InitSession opens the site root and marks the session started. Driver failures are
// returned as they are.
func (m *Machine) InitSession(ctx context.Context) error {
	m.loggedIn = false
	root, _ := m.site.URL(Login)
	if err := m.driver.Navigate(ctx, root); err != nil {
		return err
	}
	m.started = true
	m.location = Login
	m.logger.Info("punchcard session initialized", zap.String("url", root))
	return nil
}

// Reset forgets the session so the next InitSession starts clean.
func (m *Machine) Reset() {
	m.started = false
	m.loggedIn = false
	m.location = Unauthenticated
}

// CheckStarted fails with NotStarted before InitSession.
func (m *Machine) CheckStarted() error {
	if !m.started {
		m.logger.Info("punchcard session not initialized")
		return &Error{Kind: NotStarted, Message: "session not started"}
	}
	return nil
}

// GoToLocation navigates to target and waits for the page to load.
func (m *Machine) GoToLocation(ctx context.Context, target Location) error {
	if err := m.CheckStarted(); err != nil {
		return err
	}
	u, ok := m.site.URL(target)
	if !ok {
		m.logger.Error("location not found", zap.String("location", string(target)))
		return &Error{Kind: UnknownLocation, Message: fmt.Sprintf("unknown location %q", target)}
	}

	m.logger.Info("going to location", zap.String("location", string(target)))
	if err := m.driver.Navigate(ctx, u); err != nil {
		return err
	}
	if err := m.WaitLoaded(ctx); err != nil {
		return err
	}
	m.location = target
	return nil
}

// WaitLoaded waits for the site's load marker.
func (m *Machine) WaitLoaded(ctx context.Context) error {
	if _, err := m.driver.WaitForElement(ctx, LoadMarker, m.loadTimeout); err != nil {
		if errors.Is(err, driver.ErrTimeout) {
			return &Error{Kind: LoadTimeout, Message: "location not loading in time, check connectivity", Cause: err}
		}
		return err
	}
	return nil
}

// CurrentLocation maps the rendered URL to a location. An unmapped URL fails with
// UnknownLocation, which means the caller must start a new session.
func (m *Machine) CurrentLocation(ctx context.Context) (Location, error) {
	if err := m.CheckStarted(); err != nil {
		return Unknown, err
	}
	current, err := m.driver.CurrentURL(ctx)
	if err != nil {
		return Unknown, err
	}
	loc, ok := m.site.LocationOf(current)
	if !ok {
		m.logger.Error("driver in unknown location", zap.String("url", current))
		m.location = Unknown
		return Unknown, &Error{Kind: UnknownLocation, Message: fmt.Sprintf("at unknown url %s, re-init session", current)}
	}
	m.location = loc
	return loc, nil
}

// AtLocation reports whether the rendered page is target.
func (m *Machine) AtLocation(ctx context.Context, target Location) (bool, error) {
	loc, err := m.CurrentLocation(ctx)
	if err != nil {
		return false, err
	}
	return loc == target, nil
}

// Login submits credentials from the login page. It returns false without side
// effects when the browser is not on the login page, and true once the site lands on
// a recognizable page other than the login page.
func (m *Machine) Login(ctx context.Context, username, password string) (bool, error) {
	if err := m.CheckStarted(); err != nil {
		return false, err
	}
	at, err := m.AtLocation(ctx, Login)
	if err != nil {
		return false, err
	}
	if !at {
		m.logger.Warn("login requested away from the login page", zap.String("location", string(m.location)))
		return false, nil
	}

	m.logger.Info("logging in to punchcard")
	if err := m.submitLogin(ctx, username, password); err != nil {
		m.logger.Error("unable to log in", zap.Error(err))
		return false, &Error{Kind: LoginFailed, Message: "unable to log in to the scheduling site", Cause: err}
	}
	if err := m.WaitLoaded(ctx); err != nil {
		m.logger.Error("site did not load after login", zap.Error(err))
		return false, &Error{Kind: LoginFailed, Message: "site did not load after submitting credentials", Cause: err}
	}

	current, err := m.driver.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	loc, ok := m.site.LocationOf(current)
	if !ok || loc == Login {
		m.logger.Warn("login did not leave the login page", zap.String("url", current))
		return false, nil
	}
	m.location = loc
	m.loggedIn = true
	m.logger.Info("login session initialized", zap.String("location", string(loc)))
	return true, nil
}

func (m *Machine) submitLogin(ctx context.Context, username, password string) error {
	form, err := m.driver.WaitForElement(ctx, LoginForm, m.formTimeout)
	if err != nil {
		return fmt.Errorf("login form: %w", err)
	}
	user, err := m.single(ctx, form, UsernameField)
	if err != nil {
		return err
	}
	pass, err := m.single(ctx, form, PasswordField)
	if err != nil {
		return err
	}
	if err := m.driver.SendKeys(ctx, user, username); err != nil {
		return err
	}
	if err := m.driver.SendKeys(ctx, pass, password); err != nil {
		return err
	}

	inputs, err := m.driver.FindElements(ctx, form, "input")
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("login form has no inputs")
	}
	return m.driver.Click(ctx, inputs[len(inputs)-1])
}

func (m *Machine) single(ctx context.Context, scope driver.Element, selector string) (driver.Element, error) {
	found, err := m.driver.FindElements(ctx, scope, selector)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%s not found", selector)
	}
	return found[0], nil
}

// AwaitLocation polls the rendered URL until it maps to target or the load timeout
// passes. It reports whether target was reached.
func (m *Machine) AwaitLocation(ctx context.Context, target Location) (bool, error) {
	deadline := time.Now().Add(m.loadTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		loc, err := m.CurrentLocation(ctx)
		if err != nil && !IsKind(err, UnknownLocation) {
			return false, err
		}
		if err == nil && loc == target {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
