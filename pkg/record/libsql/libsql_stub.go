//go:build !libsql

package libsql

import (
	"context"
	"errors"

	"github.com/engramhq/engram/pkg/record/sqlstore"
)

// ErrNotBuilt is returned when the binary was built without libsql support.
var ErrNotBuilt = errors.New("libsql support is not compiled in, rebuild with -tags libsql")

// Store implements record.Store using libSQL via the shared sqlstore driver.
type Store struct {
	*sqlstore.Driver
}

// NewStore always fails in this build configuration. go-libsql and
// go-sqlite3 cannot be linked into the same binary (both embed the sqlite3 C
// library), so the libsql driver is only available with -tags libsql.
func NewStore(_ context.Context, _ string) (*Store, error) {
	return nil, ErrNotBuilt
}
