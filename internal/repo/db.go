// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), PostgreSQL and MySQL, plus schema migrations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-narrator-backend/internal/domain"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Open connects to the configured database. For sqlite, target is a file
// path; for postgres and mysql it is a DSN. The handle carries the
// OpenTelemetry plugin so every query becomes a span.
func Open(driver, target string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		db, err = OpenSQLite(target)
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(target), &gorm.Config{})
		if err == nil {
			tunePool(db, 20)
		}
	case DriverMySQL:
		db, err = gorm.Open(mysql.Open(target), &gorm.Config{})
		if err == nil {
			tunePool(db, 20)
		}
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	tunePool(db, 10)
	return db, nil
}

func tunePool(db *gorm.DB, maxOpen int) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
}

// AutoMigrate creates or updates every table the engine reads or writes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Game{},
		&domain.Scene{},
		&domain.GameRule{},
		&domain.Room{},
		&domain.RoomMember{},
		&domain.Session{},
		&domain.Interaction{},
		&domain.PlayerBoard{},
		&domain.LLMConfiguration{},
		&domain.Idempotency{},
	)
}
