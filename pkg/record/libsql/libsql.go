//go:build libsql

// Package libsql provides a libSQL-backed record store, for Turso-hosted or
// embedded libSQL databases.
//
// The driver is gated behind the "libsql" build tag: go-libsql and
// go-sqlite3 both embed the sqlite3 C library, and linking the two cgo
// archives into one binary fails with duplicate symbol definitions. Build
// with -tags libsql to enable this store (the sqlite store is excluded in
// that configuration).
package libsql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql" // register the libsql driver

	"github.com/engramhq/engram/pkg/record/sqlstore"
)

// Store implements record.Store using libSQL via the shared sqlstore driver.
type Store struct {
	*sqlstore.Driver
}

// NewStore creates a new libSQL-backed record store. The url may be a local
// file path ("file:engram.db") or a remote Turso URL
// ("libsql://<db>.turso.io?authToken=<token>").
func NewStore(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver := &sqlstore.Driver{DB: db, Dialect: sqlstore.DialectSQLite}
	if err := driver.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{Driver: driver}, nil
}
