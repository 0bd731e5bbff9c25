package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Verbena/pkg/attachments"
	"github.com/CTAG07/Verbena/pkg/media"
)

// app bundles the pieces every command needs: configuration, logging, the
// attachment database and the media helpers built on it.
type app struct {
	cm      *ConfigManager
	logger  *slog.Logger
	db      *sql.DB
	store   *attachments.Store
	helpers *media.Helpers
}

// openApp loads the configuration at configPath and opens everything derived
// from it. Logs are written to logOut.
func openApp(configPath string, logOut io.Writer) (*app, error) {
	cm, err := NewConfigManager(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := cm.Get()

	logger := newLogger(cfg.Server.LogLevel, logOut)
	cm.SetLogger(logger)

	if err = ensureDatabaseDir(cfg.Server.DatabasePath); err != nil {
		return nil, err
	}
	db, err := initDB(cfg.Server.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err = attachments.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup attachment schema: %w", err)
	}
	if err = setupAuthSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup auth schema: %w", err)
	}

	store, err := attachments.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create attachment store: %w", err)
	}
	store.SetLogger(logger)

	helpers, err := media.NewHelpers(logger, store, cfg.Media, nil)
	if err != nil {
		store.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to create media helpers: %w", err)
	}
	cm.SetHelpers(helpers)

	return &app{cm: cm, logger: logger, db: db, store: store, helpers: helpers}, nil
}

// Close releases the database.
func (a *app) Close() {
	a.store.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database", "error", err)
	}
}

// ensureDatabaseDir creates the directory of a file data source.
func ensureDatabaseDir(dataSource string) error {
	file, _, _ := strings.Cut(strings.TrimPrefix(dataSource, "file:"), "?")
	if file == "" || file == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
