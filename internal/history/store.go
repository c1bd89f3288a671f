package history

import (
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/types"
)

// Persistence loads and rewrites the whole history list.
type Persistence interface {
	Load(ctx context.Context) ([]types.Shift, error)
	Save(ctx context.Context, shifts []types.Shift) error
}

// Store is an ordered list of shift records keyed by structural equality. Two shifts with
// identical field values cannot both be stored. Store is not safe for concurrent use.
type Store struct {
	records []types.Shift
	persist Persistence
	logger  *zap.Logger
}

// New returns an empty in-memory store. persist may be nil.
func New(persist Persistence, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{persist: persist, logger: logger.Named("history")}
}

// Open creates a store and loads its records from persist.
func Open(ctx context.Context, persist Persistence, logger *zap.Logger) (*Store, error) {
	s := New(persist, logger)
	if persist == nil {
		return s, nil
	}
	records, err := persist.Load(ctx)
	if err != nil {
		return nil, &Error{Message: "failed to load history", Cause: err}
	}
	s.records = records
	s.logger.Info("loaded history", zap.Int("shifts", len(records)))
	return s, nil
}

// Save rewrites the persisted list with the current records.
func (s *Store) Save(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(ctx, s.History()); err != nil {
		return &Error{Message: "failed to save history", Cause: err}
	}
	s.logger.Info("saved history", zap.Int("shifts", len(s.records)))
	return nil
}

// History returns a copy of the stored records in insertion order.
func (s *Store) History() []types.Shift {
	out := make([]types.Shift, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// Contains reports whether a structurally equal record is stored.
func (s *Store) Contains(r types.Shift) bool {
	return s.index(r) >= 0
}

// AddShift appends r unless an equal record already exists. It reports whether r was added.
func (s *Store) AddShift(r types.Shift) bool {
	if s.Contains(r) {
		return false
	}
	s.records = append(s.records, r.Clone())
	return true
}

// RemoveShift deletes the first record equal to r and reports whether one was found.
func (s *Store) RemoveShift(r types.Shift) bool {
	i := s.index(r)
	if i < 0 {
		return false
	}
	s.records = slices.Delete(s.records, i, i+1)
	return true
}

// ReplaceShift removes old and adds replacement. Nothing changes when old is absent.
func (s *Store) ReplaceShift(old, replacement types.Shift) bool {
	if !s.RemoveShift(old) {
		return false
	}
	s.AddShift(replacement)
	return true
}

// UpdateShift replaces old with a copy modified by patch.
func (s *Store) UpdateShift(old types.Shift, patch func(*types.Shift)) bool {
	updated := old.Clone()
	patch(&updated)
	return s.ReplaceShift(old, updated)
}

func (s *Store) index(r types.Shift) int {
	key := r.Key()
	for i, existing := range s.records {
		if existing.Key() == key {
			return i
		}
	}
	return -1
}

// ExpandRecurring splits a PermShift into one single-day TempTake occurrence per week,
// starting at its start date. Any other shift type is returned unchanged.
func ExpandRecurring(perm types.Shift) ([]types.Shift, error) {
	if perm.StartDate.After(perm.EndDate) {
		return nil, &Error{Message: fmt.Sprintf("start %s is after end %s", perm.StartDate, perm.EndDate)}
	}
	if perm.Type != types.PermShift {
		return []types.Shift{perm}, nil
	}

	// A span shorter than a week still holds the start date itself.
	weeks := max(perm.EndDate.DaysSince(perm.StartDate)/7, 1)

	occurrences := make([]types.Shift, 0, weeks)
	for k := 0; k < weeks; k++ {
		day := perm.StartDate.AddDays(7 * k)
		o := perm.Clone()
		o.Type = types.TempShift
		o.StartDate = day
		o.EndDate = day
		o.Action = types.ActionTempTake
		o.Actions = []string{types.ActionTempTake}
		occurrences = append(occurrences, o)
	}
	return occurrences, nil
}

// ShiftsInRange returns the records touching [start, end]. A TempShift is returned when
// its date falls in the range. A PermShift is returned when its whole span does, and
// independently each of its weekly occurrences whose date falls in the range is
// returned too. Malformed records are logged and removed from the store.
func (s *Store) ShiftsInRange(start, end civil.Date) ([]types.Shift, error) {
	if start.After(end) {
		return nil, &Error{Message: fmt.Sprintf("range start %s is after end %s", start, end)}
	}
	s.logger.Debug("querying shifts in range", zap.Stringer("start", start), zap.Stringer("end", end))

	var (
		result  []types.Shift
		corrupt []types.Shift
	)
	for _, r := range s.records {
		switch r.Type {
		case types.TempShift:
			if r.StartDate != r.EndDate {
				s.logger.Error("temp shift spans more than one day; deleting", zap.Stringer("shift", r))
				corrupt = append(corrupt, r)
				continue
			}
			if types.DateBetween(r.StartDate, start, end) {
				result = append(result, r.Clone())
			}
		case types.PermShift:
			occurrences, err := ExpandRecurring(r)
			if err != nil {
				s.logger.Error("perm shift has inverted dates; deleting", zap.Stringer("shift", r), zap.Error(err))
				corrupt = append(corrupt, r)
				continue
			}
			if types.DateBetween(r.StartDate, start, end) && types.DateBetween(r.EndDate, start, end) {
				result = append(result, r.Clone())
			}
			for _, o := range occurrences {
				if types.DateBetween(o.StartDate, start, end) {
					result = append(result, o)
				}
			}
		default:
			s.logger.Error("improperly labeled shift; deleting", zap.String("type", string(r.Type)), zap.Stringer("shift", r))
			corrupt = append(corrupt, r)
		}
	}

	for _, r := range corrupt {
		s.RemoveShift(r)
	}
	return result, nil
}
