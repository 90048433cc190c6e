package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB wraps sql.DB with the dialect it was opened for, so migrations can pick
// the matching driver.
type DB struct {
	*sql.DB
	Dialect string
}

func NewConnection(driver, dsn string) (*DB, error) {
	var db *sql.DB
	var err error

	switch strings.ToLower(driver) {
	case "sqlite":
		db, err = sql.Open("sqlite", dsn)
		if err == nil {
			// modernc sqlite allows one writer; serialize access instead of
			// surfacing SQLITE_BUSY to callers
			db.SetMaxOpenConns(1)
		}
	case "postgres", "postgresql":
		db, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, Dialect: strings.ToLower(driver)}, nil
}
