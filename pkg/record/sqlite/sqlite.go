//go:build !libsql

// Package sqlite provides a SQLite-backed record store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/engramhq/engram/pkg/record/sqlstore"
)

// Store implements record.Store using SQLite via the shared sqlstore driver.
type Store struct {
	*sqlstore.Driver
}

// NewStore creates a new SQLite-backed record store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite-specific pragmas
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	driver := &sqlstore.Driver{DB: db, Dialect: sqlstore.DialectSQLite}
	if err := driver.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{Driver: driver}, nil
}
