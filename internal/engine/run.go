package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/notify"
)

// Cycle summarizes one pass over the notification source.
type Cycle struct {
	ID         uuid.UUID
	Started    time.Time
	Results    []Result
	Unreadable int
}

// Count returns how many results had outcome o.
func (c Cycle) Count(o Outcome) int {
	n := 0
	for _, r := range c.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// RunOptions bound the polling loop.
type RunOptions struct {
	// Active stops the loop from starting new cycles once it has elapsed. Negative runs
	// until ctx is cancelled; zero runs a single cycle.
	Active time.Duration
	// Refresh is the pause between cycles.
	Refresh time.Duration
	// OnCycle, when set, receives every finished cycle.
	OnCycle func(Cycle)
}

// RunCycle evaluates every notification the source yields. It stops early on a fatal
// outcome, or without an error when ctx is cancelled between notifications.
func (e *Engine) RunCycle(ctx context.Context, src notify.Source) (Cycle, error) {
	cycle := Cycle{ID: uuid.New(), Started: time.Now()}
	log := e.logger.With(zap.String("cycle", cycle.ID.String()))
	log.Info("cycle started")

	for n, err := range src.Notifications(ctx) {
		if ctx.Err() != nil {
			log.Info("cycle interrupted", zap.Int("evaluated", len(cycle.Results)))
			return cycle, nil
		}
		if err != nil {
			cycle.Unreadable++
			log.Warn("skipping unreadable notification", zap.Error(err))
			continue
		}
		result, err := e.evaluateAndAct(ctx, log, n)
		cycle.Results = append(cycle.Results, result)
		if err != nil {
			log.Error("cycle aborted", zap.Error(err))
			return cycle, err
		}
	}

	log.Info("cycle finished",
		zap.Int("notifications", len(cycle.Results)),
		zap.Int("claimed", cycle.Count(Claimed)),
		zap.Int("unreadable", cycle.Unreadable),
		zap.Duration("elapsed", time.Since(cycle.Started)))
	return cycle, nil
}

// Run repeats RunCycle every opts.Refresh until opts.Active has elapsed, ctx is
// cancelled, or a cycle fails fatally. Cancellation is only observed between
// notifications and between cycles. It returns ctx.Err() when cancelled.
func (e *Engine) Run(ctx context.Context, src notify.Source, opts RunOptions) error {
	var deadline time.Time
	if opts.Active >= 0 {
		deadline = time.Now().Add(opts.Active)
	}
	e.logger.Info("polling started", zap.Duration("active", opts.Active), zap.Duration("refresh", opts.Refresh))

	for {
		cycle, err := e.RunCycle(ctx, src)
		if opts.OnCycle != nil {
			opts.OnCycle(cycle)
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !deadline.IsZero() && !time.Now().Add(opts.Refresh).Before(deadline) {
			e.logger.Info("active period over; polling stopped")
			return nil
		}

		timer := time.NewTimer(opts.Refresh)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
