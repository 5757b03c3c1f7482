// Package sqlstore provides a database-agnostic record store on database/sql.
// It is embedded by the sqlite, postgres, and libsql drivers, which own
// connection setup and dialect selection.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/engramhq/engram/pkg/record"
)

// Dialect selects placeholder style and dialect-specific SQL.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// timeFormat is RFC3339Nano; timestamps are stored as text so the same SQL
// works across sqlite, libsql, and postgres.
const timeFormat = time.RFC3339Nano

// schema lists the DDL statements executed by Migrate, one per entry since
// some drivers reject multi-statement Exec calls.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS observations (
		record_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (record_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		record_id TEXT NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (record_id, tag)
	)`,
	`CREATE TABLE IF NOT EXISTS relations (
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (from_id, to_id, label)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_name ON records (name)`,
	`CREATE INDEX IF NOT EXISTS idx_records_type ON records (type)`,
	`CREATE INDEX IF NOT EXISTS idx_relations_to ON relations (to_id)`,
}

// Driver provides record storage operations over a *sql.DB.
// It is database-agnostic and embedded by the concrete drivers.
type Driver struct {
	DB      *sql.DB
	Dialect Dialect
}

// Migrate creates the schema. Statements are append-only and idempotent.
func (d *Driver) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (d *Driver) rebind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Create persists a new record with its observations and tags in one
// transaction.
func (d *Driver) Create(ctx context.Context, rec *record.Record) error {
	if rec == nil {
		return errors.New("cannot store nil record")
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	metadata, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, d.rebind(
		`INSERT INTO records (id, name, type, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.Name, rec.Type, metadata,
		rec.CreatedAt.Format(timeFormat), rec.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", rec.ID, err)
	}

	for i := range rec.Observations {
		if rec.Observations[i].CreatedAt.IsZero() {
			rec.Observations[i].CreatedAt = now
		}
		if err := insertObservation(ctx, tx, d, rec.ID, i, rec.Observations[i]); err != nil {
			return err
		}
	}

	for _, tag := range rec.Tags {
		if _, err := tx.ExecContext(ctx, d.rebind(
			`INSERT INTO tags (record_id, tag) VALUES (?, ?) ON CONFLICT DO NOTHING`),
			rec.ID, tag,
		); err != nil {
			return fmt.Errorf("inserting tag for %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a single record by id.
func (d *Driver) Get(ctx context.Context, id string) (*record.Record, error) {
	recs, err := d.fetchRecords(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, record.NotFoundError{ID: id}
	}
	return recs[0], nil
}

// AddObservations appends observations to an existing record.
func (d *Driver) AddObservations(ctx context.Context, id string, observations []record.Observation) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var nextSeq int
	err = tx.QueryRowContext(ctx, d.rebind(
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM observations WHERE record_id = ?`), id,
	).Scan(&nextSeq)
	if err != nil {
		return fmt.Errorf("finding next observation seq: %w", err)
	}

	var exists int
	err = tx.QueryRowContext(ctx, d.rebind(
		`SELECT COUNT(1) FROM records WHERE id = ?`), id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking record existence: %w", err)
	}
	if exists == 0 {
		return record.NotFoundError{ID: id}
	}

	now := time.Now().UTC()
	for i, obs := range observations {
		if obs.CreatedAt.IsZero() {
			obs.CreatedAt = now
		}
		if err := insertObservation(ctx, tx, d, id, nextSeq+i, obs); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, d.rebind(
		`UPDATE records SET updated_at = ? WHERE id = ?`),
		now.Format(timeFormat), id,
	); err != nil {
		return fmt.Errorf("touching record %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Relate creates a directed labeled edge. Both endpoints must exist.
func (d *Driver) Relate(ctx context.Context, rel record.Relation) error {
	for _, id := range []string{rel.FromID, rel.ToID} {
		var exists int
		err := d.DB.QueryRowContext(ctx, d.rebind(
			`SELECT COUNT(1) FROM records WHERE id = ?`), id,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking relation endpoint: %w", err)
		}
		if exists == 0 {
			return record.NotFoundError{ID: id}
		}
	}

	_, err := d.DB.ExecContext(ctx, d.rebind(
		`INSERT INTO relations (from_id, to_id, label) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`),
		rel.FromID, rel.ToID, rel.Label,
	)
	if err != nil {
		return fmt.Errorf("inserting relation: %w", err)
	}
	return nil
}

// Delete removes a record along with its observations, tags, and edges.
func (d *Driver) Delete(ctx context.Context, id string) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM records WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return record.NotFoundError{ID: id}
	}

	for _, stmt := range []string{
		`DELETE FROM observations WHERE record_id = ?`,
		`DELETE FROM tags WHERE record_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, d.rebind(stmt), id); err != nil {
			return fmt.Errorf("deleting record children: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, d.rebind(
		`DELETE FROM relations WHERE from_id = ? OR to_id = ?`), id, id,
	); err != nil {
		return fmt.Errorf("deleting record edges: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// MatchExact finds records containing the query text literally in their
// name, metadata values, or observation content. Patterns are escaped so
// query text is never interpreted as LIKE syntax.
func (d *Driver) MatchExact(ctx context.Context, query string, limit int, types []string) ([]record.Match, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	fields := make(map[string][]record.MatchField)

	typeClause, typeArgs := inClause("type", types)
	nameQuery := `SELECT id FROM records WHERE lower(name) LIKE ? ESCAPE '\'` + typeClause + ` ORDER BY id LIMIT ?`
	if err := d.collectMatches(ctx, nameQuery, pattern, typeArgs, limit, fields, record.FieldName); err != nil {
		return nil, err
	}

	metaQuery := `SELECT id FROM records WHERE lower(metadata) LIKE ? ESCAPE '\'` + typeClause + ` ORDER BY id LIMIT ?`
	if err := d.collectMatches(ctx, metaQuery, pattern, typeArgs, limit, fields, record.FieldMetadata); err != nil {
		return nil, err
	}

	obsTypeClause, obsTypeArgs := inClause("r.type", types)
	obsQuery := `SELECT DISTINCT o.record_id FROM observations o
		INNER JOIN records r ON r.id = o.record_id
		WHERE lower(o.content) LIKE ? ESCAPE '\'` + obsTypeClause + ` ORDER BY o.record_id LIMIT ?`
	if err := d.collectMatches(ctx, obsQuery, pattern, obsTypeArgs, limit, fields, record.FieldContent); err != nil {
		return nil, err
	}

	matches := make([]record.Match, 0, len(fields))
	for id, f := range fields {
		matches = append(matches, record.Match{ID: id, Fields: f})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (d *Driver) collectMatches(
	ctx context.Context,
	query, pattern string,
	typeArgs []any,
	limit int,
	fields map[string][]record.MatchField,
	field record.MatchField,
) error {
	args := append([]any{pattern}, typeArgs...)
	args = append(args, limit)

	rows, err := d.DB.QueryContext(ctx, d.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("querying %s matches: %w", field, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning %s match: %w", field, err)
		}
		fields[id] = append(fields[id], field)
	}
	return rows.Err()
}

// List enumerates records ordered by name ascending.
func (d *Driver) List(ctx context.Context, limit int, types []string, opts record.FetchOptions) ([]*record.Enriched, error) {
	if limit <= 0 {
		limit = 10
	}

	typeClause, typeArgs := inClause("type", types)
	query := `SELECT id FROM records WHERE 1=1` + typeClause + ` ORDER BY name, id LIMIT ?`
	args := append(typeArgs, limit)

	rows, err := d.DB.QueryContext(ctx, d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning record id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	recs, err := d.fetchEnriched(ctx, ids, opts)
	if err != nil {
		return nil, err
	}

	// Preserve the name ordering from the id query.
	out := make([]*record.Enriched, 0, len(ids))
	for _, id := range ids {
		if rec, ok := recs[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FetchByIDs batch-fetches full records keyed by id. Missing ids are absent
// from the returned map.
func (d *Driver) FetchByIDs(ctx context.Context, ids []string, opts record.FetchOptions) (map[string]*record.Enriched, error) {
	return d.fetchEnriched(ctx, ids, opts)
}

// Close closes the underlying database handle.
func (d *Driver) Close() error {
	return d.DB.Close()
}
