// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/works-engine/internal/tables"
	"github.com/pdiddy/works-engine/pkg/types"
)

// Export returns the changeset for runDate: exactly the records appended
// with state UPSERT under that run identifier, sorted by DOI. This is what
// the downstream indexer consumes.
// Per prd103-state R4.1.
func (s *Store) Export(ctx context.Context, runDate types.Date) ([]types.StateRecord, error) {
	return s.queryRecords(ctx,
		`SELECT doi, hash, state, updated_date FROM doi_state
		 WHERE state = ? AND updated_date = ? ORDER BY doi`,
		string(types.StateUpsert), runDate.String())
}

// Deletions returns the DELETE records appended under runDate, sorted by
// DOI. They are not part of the export contract; how deletions propagate
// downstream is the caller's decision.
func (s *Store) Deletions(ctx context.Context, runDate types.Date) ([]types.StateRecord, error) {
	return s.queryRecords(ctx,
		`SELECT doi, hash, state, updated_date FROM doi_state
		 WHERE state = ? AND updated_date = ? ORDER BY doi`,
		string(types.StateDelete), runDate.String())
}

// History returns every retained record for doi in append order, oldest
// first.
func (s *Store) History(ctx context.Context, doi string) ([]types.StateRecord, error) {
	return s.queryRecords(ctx,
		`SELECT doi, hash, state, updated_date FROM doi_state
		 WHERE doi = ? ORDER BY updated_date, seq`, doi)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]types.StateRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying state records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]types.StateRecord, error) {
	var records []types.StateRecord
	for rows.Next() {
		var rec types.StateRecord
		var st, updated string
		if err := rows.Scan(&rec.DOI, &rec.Hash, &st, &updated); err != nil {
			return nil, fmt.Errorf("scanning state record: %w", err)
		}
		rec.State = types.State(st)
		date, err := types.ParseDate(updated)
		if err != nil {
			return nil, fmt.Errorf("state record for %s: %w", rec.DOI, err)
		}
		rec.UpdatedDate = date
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading state records: %w", err)
	}
	return records, nil
}

// WriteRecords encodes records to path. JSONL writes one record per line
// (the default interchange form); YAML writes a single document list for
// human inspection.
// Per prd103-state R4.2.
func WriteRecords(records []types.StateRecord, path string, format types.ExportFormat) error {
	switch format {
	case types.ExportJSONL, "":
		return tables.WriteJSONL(path, records)
	case types.ExportYAML:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
		data, err := yaml.Marshal(records)
		if err != nil {
			return fmt.Errorf("encoding export: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
