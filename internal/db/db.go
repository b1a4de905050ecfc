// Package db opens the local database. SQLite is the default backing
// store; a postgres DSN in DATABASE_URL switches to Postgres.
package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options controls how the database connection is opened.
type Options struct {
	// DatabaseURL selects Postgres when it carries a postgres DSN.
	DatabaseURL string
	// Path is the SQLite file used when DatabaseURL is empty.
	Path string
	// LogLevel is the application log level, mapped onto gorm's logger.
	LogLevel string
	// Environment tunes gorm logging when LogLevel is unrecognized.
	Environment string
}

// Open connects to the configured backend and returns the gorm handle.
func Open(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(resolveGormLogLevel(opts.LogLevel, opts.Environment)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	if isPostgresDSN(opts.DatabaseURL) {
		gdb, err := gorm.Open(postgres.Open(opts.DatabaseURL), cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
		return gdb, nil
	}

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = "lexibridge.db"
	}
	gdb, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	return gdb, nil
}

func isPostgresDSN(dsn string) bool {
	dsn = strings.TrimSpace(strings.ToLower(dsn))
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func resolveGormLogLevel(appLogLevel, environment string) logger.LogLevel {
	level := strings.ToLower(strings.TrimSpace(appLogLevel))
	switch level {
	case "trace", "debug":
		return logger.Info
	case "warn", "warning", "info", "":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		if strings.EqualFold(strings.TrimSpace(environment), "local") {
			return logger.Warn
		}
		return logger.Error
	}
}
