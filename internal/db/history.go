package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/types"
)

// History persists the ordered shift list in the shift_history table. Each save
// replaces every row in one transaction. It implements history.Persistence.
type History struct {
	db     *DB
	logger *zap.Logger
}

// NewHistory returns the history persistence over db. A nil logger discards output.
func NewHistory(db *DB, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{db: db, logger: logger.Named("db")}
}

// Load returns the stored shifts in order.
func (h *History) Load(ctx context.Context) ([]types.Shift, error) {
	rows, err := h.db.pool.Query(ctx, `SELECT record FROM shift_history ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records [][]byte
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return decodeRecords(records)
}

// Save rewrites the table with shifts.
func (h *History) Save(ctx context.Context, shifts []types.Shift) error {
	records, err := encodeRecords(shifts)
	if err != nil {
		return err
	}

	tx, err := h.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx, h.logger)

	if _, err := tx.Exec(ctx, `DELETE FROM shift_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	batch := &pgx.Batch{}
	for i, record := range records {
		batch.Queue(`INSERT INTO shift_history (position, record) VALUES ($1, $2)`, i, record)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

func encodeRecords(shifts []types.Shift) ([][]byte, error) {
	out := make([][]byte, 0, len(shifts))
	for i, s := range shifts {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal shift %d: %w", i, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// decodeRecords keeps records of unknown type; the store purges them on its next range
// query.
func decodeRecords(records [][]byte) ([]types.Shift, error) {
	out := make([]types.Shift, 0, len(records))
	for i, data := range records {
		var s types.Shift
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history row %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// rollback aborts tx unless it was already committed. Failures are logged since
// the caller has already settled on its own result.
func rollback(ctx context.Context, tx pgx.Tx, logger *zap.Logger) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.Warn("failed to roll back history transaction", zap.Error(err))
	}
}
