//go:build libsql

package sqlitevec

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/engramhq/engram/pkg/vector"
)

// ErrNotBuilt is returned when the binary was built with libsql support,
// which replaces the go-sqlite3 driver sqlite-vec rides on.
var ErrNotBuilt = errors.New("the sqlite-vec driver is not available in libsql builds, use the chroma or qdrant provider")

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct{}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver always fails in this build configuration.
func NewDriver(_ Config, _ *zap.Logger) (*Driver, error) {
	return nil, ErrNotBuilt
}

func (d *Driver) Add(_ context.Context, _ []vector.Document) error {
	return ErrNotBuilt
}

func (d *Driver) Query(_ context.Context, _ []float32, _ int, _ float32, _ []string) ([]vector.QueryResult, error) {
	return nil, ErrNotBuilt
}

func (d *Driver) Delete(_ context.Context, _ []string) error {
	return ErrNotBuilt
}

func (d *Driver) Probe(_ context.Context) error {
	return ErrNotBuilt
}

func (d *Driver) Close() error {
	return nil
}

var _ vector.Driver = (*Driver)(nil)
