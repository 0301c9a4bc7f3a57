package store

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ohrachov/plantmon/internal/errdefs"
)

// Config holds the database configuration.
type Config struct {
	Logger *slog.Logger
	// Path is the SQLite database file, or ":memory:" for an in-process
	// throwaway database.
	Path string
}

// Open opens (creating if necessary) the SQLite database and runs migrations.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("store config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Path == "" {
		return nil, errors.New("database path cannot be empty")
	}

	dsn := cfg.Path
	if dsn != ":memory:" {
		// WAL keeps the web handlers readable while a write commits.
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	cfg.Logger.Info("opening database", "path", cfg.Path)

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent), // Use slog instead of GORM's logger
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, errdefs.Storage("open", err)
	}

	if cfg.Path == ":memory:" {
		// Every pooled connection would otherwise open its own empty
		// in-memory database.
		sqlDB, derr := db.DB()
		if derr != nil {
			return nil, errdefs.Storage("open", derr)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := runMigrations(db, cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, logger: cfg.Logger}, nil
}

// runMigrations runs database migrations for all models.
func runMigrations(db *gorm.DB, logger *slog.Logger) error {
	logger.Info("running database migrations")

	if err := db.AutoMigrate(
		&ScheduleEntry{},
		&ActionLogEntry{},
		&SensorReading{},
	); err != nil {
		return errdefs.Storage("migrate", err)
	}

	logger.Info("database migrations completed successfully")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	s.logger.Info("closing database connection")
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
