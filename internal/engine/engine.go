// Package engine decides what to do with each shift notification and drives the claim
// on the scheduling site.
package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/history"
	"github.com/coracle/shiftclaim/internal/rules"
	"github.com/coracle/shiftclaim/internal/session"
	"github.com/coracle/shiftclaim/internal/types"
)

// Claimer claims a resolved shift on the site. *slots.Matcher implements it.
type Claimer interface {
	GrabShift(ctx context.Context, shift types.Shift) (bool, error)
}

// Credentials are replayed into the site's login form.
type Credentials struct {
	Username string
	Password string
}

// Config wires an Engine.
type Config struct {
	Rules       *rules.Tree
	History     *history.Store
	Session     *session.Machine
	Claimer     Claimer
	Credentials Credentials
	Logger      *zap.Logger
}

// Engine evaluates notifications one at a time. It is not safe for concurrent use.
type Engine struct {
	rules   *rules.Tree
	history *history.Store
	session *session.Machine
	claimer Claimer
	creds   Credentials
	logger  *zap.Logger
}

// New returns an Engine over cfg.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		rules:   cfg.Rules,
		history: cfg.History,
		session: cfg.Session,
		claimer: cfg.Claimer,
		creds:   cfg.Credentials,
		logger:  logger.Named("engine"),
	}
}

// EvaluateAndAct checks n against the rules and the history and, when it is eligible
// and new, claims it and records it. Expected refusals are reported through the
// Result; the returned error is non-nil only for Fatal outcomes. A ctx cancelled
// before the site is touched yields a Retryable result; after that the claim is not
// interrupted.
func (e *Engine) EvaluateAndAct(ctx context.Context, n types.Shift) (Result, error) {
	return e.evaluateAndAct(ctx, e.logger, n)
}

func (e *Engine) evaluateAndAct(ctx context.Context, logger *zap.Logger, n types.Shift) (Result, error) {
	log := logger.With(shiftFields(n)...)

	match, ok := e.rules.Match(n)
	if !ok {
		log.Info("shift not eligible")
		return Result{Outcome: NotEligible, Reason: "no rule authorizes the shift", Shift: n}, nil
	}
	shift, ok := resolve(n, match)
	if !ok {
		log.Info("shift location not allowed", zap.Strings("allowed", match.Locations))
		return Result{Outcome: NotEligible, Reason: "no location of the shift is allowed by rule " + ruleKey(match), Shift: n}, nil
	}
	log = log.With(zap.String("action", shift.Action), zap.String("rule", ruleKey(match)))

	dup, err := e.isDuplicate(shift)
	if err != nil {
		log.Warn("unable to check history", zap.Error(err))
		return Result{Outcome: NotEligible, Reason: "shift dates are inverted", Shift: shift, Err: err}, nil
	}
	if dup {
		log.Info("shift already in history")
		return Result{Outcome: Duplicate, Reason: "shift is already in history", Shift: shift}, nil
	}

	if ctx.Err() != nil {
		log.Info("cancelled before touching the site")
		return Result{Outcome: Retryable, Reason: "interrupted", Shift: shift, Err: ctx.Err()}, nil
	}
	// Once the site is touched the claim runs to completion. Every driver call is
	// bounded by its own timeout; cancellation is observed between notifications.
	siteCtx := context.WithoutCancel(ctx)

	if err := e.ensureSession(siteCtx, log); err != nil {
		return e.failure(log, shift, err)
	}
	// A fresh login may have added held shifts.
	if dup, err := e.isDuplicate(shift); err == nil && dup {
		log.Info("shift already held")
		return Result{Outcome: Duplicate, Reason: "shift is already held", Shift: shift}, nil
	}
	if err := e.session.GoToLocation(siteCtx, session.Schedule); err != nil {
		return e.failure(log, shift, err)
	}
	claimed, err := e.claimer.GrabShift(siteCtx, shift)
	if err != nil {
		return e.failure(log, shift, err)
	}
	if !claimed {
		log.Warn("failed to claim shift")
		return Result{Outcome: Unavailable, Reason: "slot or action not available on the schedule", Shift: shift}, nil
	}

	e.history.AddShift(shift)
	result := Result{Outcome: Claimed, Reason: "claimed " + shift.Action, Shift: shift}
	if err := e.history.Save(siteCtx); err != nil {
		log.Error("claimed shift but failed to save history", zap.Error(err))
		result.Err = err
	}
	log.Info("shift claimed")
	return result, nil
}

// resolve fixes the action chosen by the rule and narrows the shift to the locations the
// rule allows. A notification without locations may be claimed at any of them.
func resolve(n types.Shift, match rules.Match) (types.Shift, bool) {
	shift := n.Clone()
	shift.Action = match.Action
	shift.Actions = nil
	if len(n.Locations) == 0 {
		shift.Locations = match.Locations
		return shift, len(shift.Locations) > 0
	}
	shift.Locations = nil
	for _, loc := range n.Locations {
		for _, allowed := range match.Locations {
			if loc == allowed {
				shift.Locations = append(shift.Locations, loc)
				break
			}
		}
	}
	return shift, len(shift.Locations) > 0
}

// isDuplicate reports whether the shift was already recorded. For take actions a held
// shift on the same weekday and hours also counts, including the weekly occurrences of
// a held recurring shift.
func (e *Engine) isDuplicate(shift types.Shift) (bool, error) {
	if e.history.Contains(shift) {
		return true, nil
	}
	if !isTake(shift.Action) {
		return false, nil
	}
	existing, err := e.history.ShiftsInRange(shift.StartDate, shift.EndDate)
	if err != nil {
		return false, err
	}
	weekday := shift.WeekdayName()
	for _, r := range existing {
		if r.StartTime == shift.StartTime && r.EndTime == shift.EndTime && r.WeekdayName() == weekday {
			return true, nil
		}
	}
	return false, nil
}

func isTake(action string) bool {
	return strings.HasSuffix(action, "Take")
}

// ensureSession starts a session and logs in when needed. After a fresh login the
// shifts already held are copied into history.
func (e *Engine) ensureSession(ctx context.Context, log *zap.Logger) error {
	if !e.session.Started() {
		if err := e.session.InitSession(ctx); err != nil {
			return err
		}
	}
	if e.session.LoggedIn() {
		return nil
	}

	at, err := e.session.AtLocation(ctx, session.Login)
	if err != nil {
		return err
	}
	if !at {
		if err := e.session.GoToLocation(ctx, session.Login); err != nil {
			return err
		}
	}
	ok, err := e.session.Login(ctx, e.creds.Username, e.creds.Password)
	if err != nil {
		return err
	}
	if !ok {
		return &session.Error{Kind: session.LoginFailed, Message: "credentials were not accepted"}
	}
	e.syncHeld(ctx, log)
	return nil
}

// syncHeld records the shifts the user already holds so they are never claimed again.
func (e *Engine) syncHeld(ctx context.Context, log *zap.Logger) {
	held, err := e.session.MyShifts(ctx)
	if err != nil {
		log.Warn("unable to read held shifts", zap.Error(err))
		return
	}
	added := 0
	for _, s := range held {
		if e.history.AddShift(s) {
			added++
		}
	}
	if added == 0 {
		return
	}
	log.Info("recorded held shifts", zap.Int("added", added))
	if err := e.history.Save(ctx); err != nil {
		log.Error("failed to save history", zap.Error(err))
	}
}

// failure classifies an error raised while acting on the site. Rejected credentials are
// fatal. Anything else leaves the browser in an unknown state, so the session is reset
// and the notification is retried on the next cycle.
func (e *Engine) failure(log *zap.Logger, shift types.Shift, err error) (Result, error) {
	if session.IsKind(err, session.LoginFailed) {
		log.Error("login failed", zap.Error(err))
		fatal := &FatalError{Message: "unable to log in to the scheduling site", Cause: err}
		return Result{Outcome: Fatal, Reason: "login failed", Shift: shift, Err: fatal}, fatal
	}

	e.session.Reset()
	reason := "site interaction failed"
	var se *session.Error
	if errors.As(err, &se) {
		reason = se.Kind.String()
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		reason = "interrupted"
	}
	log.Warn("failed to claim shift", zap.String("reason", reason), zap.Error(err))
	return Result{Outcome: Retryable, Reason: reason, Shift: shift, Err: err}, nil
}

func ruleKey(m rules.Match) string {
	return m.DateKey + " / " + m.WeekdayKey + " / " + m.HourKey
}

func shiftFields(n types.Shift) []zap.Field {
	return []zap.Field{
		zap.Strings("users", n.User),
		zap.String("type", string(n.Type)),
		zap.Stringer("start_date", n.StartDate),
		zap.Stringer("start_time", n.StartTime),
		zap.Stringer("end_time", n.EndTime),
	}
}
