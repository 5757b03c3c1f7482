//go:build libsql

package sqlite

import (
	"errors"

	"github.com/engramhq/engram/pkg/record/sqlstore"
)

// ErrNotBuilt is returned when the binary was built with libsql support,
// which replaces the go-sqlite3 driver (the two embed conflicting sqlite3 C
// symbols and cannot be linked together).
var ErrNotBuilt = errors.New("the sqlite store is not available in libsql builds, use the libsql provider")

// Store implements record.Store using SQLite via the shared sqlstore driver.
type Store struct {
	*sqlstore.Driver
}

// NewStore always fails in this build configuration.
func NewStore(_ string) (*Store, error) {
	return nil, ErrNotBuilt
}
