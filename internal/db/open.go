package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite3  = "sqlite3" // mattn/go-sqlite3, cgo
	DriverSQLite   = "sqlite"  // modernc.org/sqlite, pure Go
	DriverPostgres = "pgx"     // jackc/pgx/v5/stdlib
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return dialectSQLite, nil
	case DriverPostgres:
		return dialectPostgres, nil
	default:
		return 0, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

// Open connects and verifies the database. SQLite handles are pinned to a
// single connection so per-connection pragmas stick and writers serialize.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d == dialectSQLite {
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		}
		for _, stmt := range pragmas {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
			}
		}
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}
