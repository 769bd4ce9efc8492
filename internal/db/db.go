package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"

	"climate-server/internal/config"
)

const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPure is modernc.org/sqlite.
	DriverPure = "sqlite"
)

// Open opens the observation store read-only. The returned pool hands out one
// connection per read session; SQLite serves concurrent readers without locking.
func Open(cfg config.Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL {
		drv, err := driverFor(cfg.SQLiteDriver)
		if err != nil {
			return nil, err
		}
		connector, err := NewLoggingConnector(drv, dsn, slog.Default().With("component", "sql"))
		if err != nil {
			return nil, err
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(cfg.SQLiteDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.SQLiteMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteMaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.SQLiteMaxIdleConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}

	// Validate connectivity early
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Ping runs a trivial query so callers see the same error a real query would.
func Ping(ctx context.Context, db *sql.DB) error {
	var ok int
	if err := db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("db ping: unexpected result %d", ok)
	}
	return nil
}

func driverFor(name string) (driver.Driver, error) {
	switch name {
	case DriverCGO:
		return &sqlite3.SQLiteDriver{}, nil
	case DriverPure:
		return &sqlite.Driver{}, nil
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q", name)
	}
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	path := cfg.SQLitePath
	if path == "" {
		return "", fmt.Errorf("sqlite path is empty")
	}

	// The store is supplied externally; never let sqlite create an empty file.
	if !strings.HasPrefix(path, "file:") {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("sqlite database %q: %w", path, err)
		}
	}

	var params []string
	switch cfg.SQLiteDriver {
	case DriverCGO:
		params = []string{
			"mode=ro",
			"_query_only=true",
			"_busy_timeout=5000",
		}
	case DriverPure:
		params = []string{
			"mode=ro",
			"_pragma=query_only(1)",
			"_pragma=busy_timeout(5000)",
		}
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", cfg.SQLiteDriver)
	}

	// If caller provided something like "file:/data/hawaii.sqlite?x=y" as Path, don’t double-wrap
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
