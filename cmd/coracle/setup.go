package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/config"
	"github.com/coracle/shiftclaim/internal/db"
	"github.com/coracle/shiftclaim/internal/history"
	"github.com/coracle/shiftclaim/internal/logging"
)

// newLogger honours both --verbose and the settings file's advanced_logging.
func newLogger(settings *config.Settings) (*zap.Logger, error) {
	advanced := verbose
	if settings != nil && settings.AdvancedLogging {
		advanced = true
	}
	return logging.New(advanced)
}

// openHistory loads the history from Postgres when DATABASE_URL is set, otherwise from
// the settings' history file. The returned func releases the connection.
func openHistory(ctx context.Context, settings *config.Settings, logger *zap.Logger) (*history.Store, func(), error) {
	if url := config.DatabaseURL(); url != "" {
		conn, err := db.Connect(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		if err := conn.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		store, err := history.Open(ctx, db.NewHistory(conn, logger), logger)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		logger.Info("using postgres history")
		return store, conn.Close, nil
	}

	store, err := history.Open(ctx, history.NewFile(settings.HistoryFile), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history file %s: %w", settings.HistoryFile, err)
	}
	return store, func() {}, nil
}
