package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/engramhq/engram/pkg/record"
)

// fetchEnriched loads full records for the given ids and attaches bounded
// graph context when requested.
func (d *Driver) fetchEnriched(ctx context.Context, ids []string, opts record.FetchOptions) (map[string]*record.Enriched, error) {
	recs, err := d.fetchRecords(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*record.Enriched, len(recs))
	for _, rec := range recs {
		enriched := &record.Enriched{Record: *rec}
		if opts.IncludeRelated {
			enriched.Ancestors, err = d.related(ctx, rec.ID, opts, true)
			if err != nil {
				return nil, err
			}
			enriched.Descendants, err = d.related(ctx, rec.ID, opts, false)
			if err != nil {
				return nil, err
			}
		}
		out[rec.ID] = enriched
	}
	return out, nil
}

// fetchRecords loads base records with observations and tags for the given ids.
func (d *Driver) fetchRecords(ctx context.Context, ids []string) ([]*record.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders, args := placeholderList(ids)

	rows, err := d.DB.QueryContext(ctx, d.rebind(
		`SELECT id, name, type, metadata, created_at, updated_at FROM records WHERE id IN (`+placeholders+`)`),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*record.Record, len(ids))
	var recs []*record.Record
	for rows.Next() {
		var rec record.Record
		var metadata, createdAt, updatedAt string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Type, &metadata, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if rec.Metadata, err = unmarshalMetadata(metadata); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("record %s created_at: %w", rec.ID, err)
		}
		if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("record %s updated_at: %w", rec.ID, err)
		}
		byID[rec.ID] = &rec
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := d.loadObservations(ctx, byID, placeholders, args); err != nil {
		return nil, err
	}
	if err := d.loadTags(ctx, byID, placeholders, args); err != nil {
		return nil, err
	}
	return recs, nil
}

func (d *Driver) loadObservations(ctx context.Context, byID map[string]*record.Record, placeholders string, args []any) error {
	rows, err := d.DB.QueryContext(ctx, d.rebind(
		`SELECT record_id, content, created_at FROM observations WHERE record_id IN (`+placeholders+`) ORDER BY record_id, seq`),
		args...,
	)
	if err != nil {
		return fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordID, content, createdAt string
		if err := rows.Scan(&recordID, &content, &createdAt); err != nil {
			return fmt.Errorf("scanning observation: %w", err)
		}
		rec, ok := byID[recordID]
		if !ok {
			continue
		}
		ts, err := parseTime(createdAt)
		if err != nil {
			return fmt.Errorf("observation for %s: %w", recordID, err)
		}
		rec.Observations = append(rec.Observations, record.Observation{Content: content, CreatedAt: ts})
	}
	return rows.Err()
}

func (d *Driver) loadTags(ctx context.Context, byID map[string]*record.Record, placeholders string, args []any) error {
	rows, err := d.DB.QueryContext(ctx, d.rebind(
		`SELECT record_id, tag FROM tags WHERE record_id IN (`+placeholders+`) ORDER BY record_id, tag`),
		args...,
	)
	if err != nil {
		return fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordID, tag string
		if err := rows.Scan(&recordID, &tag); err != nil {
			return fmt.Errorf("scanning tag: %w", err)
		}
		if rec, ok := byID[recordID]; ok {
			rec.Tags = append(rec.Tags, tag)
		}
	}
	return rows.Err()
}

// related walks edges breadth-first up to opts.MaxHops, following incoming
// edges for ancestors and outgoing edges for descendants.
func (d *Driver) related(ctx context.Context, id string, opts record.FetchOptions, ancestors bool) ([]record.Related, error) {
	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = 1
	}
	maxPer := opts.PerDirection
	if maxPer <= 0 {
		maxPer = 3
	}

	query := `SELECT rel.to_id, rel.label, r.name, r.type
		FROM relations rel INNER JOIN records r ON r.id = rel.to_id
		WHERE rel.from_id = ? ORDER BY rel.to_id`
	if ancestors {
		query = `SELECT rel.from_id, rel.label, r.name, r.type
			FROM relations rel INNER JOIN records r ON r.id = rel.from_id
			WHERE rel.to_id = ? ORDER BY rel.from_id`
	}

	visited := map[string]bool{id: true}
	frontier := []string{id}
	var out []record.Related

	for hop := 1; hop <= maxHops && len(out) < maxPer; hop++ {
		var next []string
		for _, current := range frontier {
			rows, err := d.DB.QueryContext(ctx, d.rebind(query), current)
			if err != nil {
				return nil, fmt.Errorf("querying relations: %w", err)
			}

			for rows.Next() {
				var rel record.Related
				if err := rows.Scan(&rel.ID, &rel.RelationLabel, &rel.Name, &rel.Type); err != nil {
					rows.Close()
					return nil, fmt.Errorf("scanning relation: %w", err)
				}
				if visited[rel.ID] {
					continue
				}
				visited[rel.ID] = true
				rel.HopDistance = hop

				next = append(next, rel.ID)
				out = append(out, rel)
				if len(out) >= maxPer {
					rows.Close()
					return out, nil
				}
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return nil, err
			}
			rows.Close()
		}
		frontier = next
	}

	return out, nil
}

func insertObservation(ctx context.Context, tx *sql.Tx, d *Driver, recordID string, seq int, obs record.Observation) error {
	_, err := tx.ExecContext(ctx, d.rebind(
		`INSERT INTO observations (record_id, seq, content, created_at) VALUES (?, ?, ?, ?)`),
		recordID, seq, obs.Content, obs.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting observation for %s: %w", recordID, err)
	}
	return nil
}

func marshalMetadata(metadata map[string]any) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(raw string) (map[string]any, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return metadata, nil
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(timeFormat, raw)
}

// escapeLike escapes LIKE wildcards so query text matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// inClause renders an optional "AND col IN (...)" fragment with its args.
func inClause(column string, values []string) (string, []any) {
	if len(values) == 0 {
		return "", nil
	}
	placeholders, args := placeholderList(values)
	return " AND " + column + " IN (" + placeholders + ")", args
}

func placeholderList(values []string) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ","), args
}
