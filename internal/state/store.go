// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists the append-only per-DOI change history and turns
// each run's present (doi, hash) universe into UPSERT/DELETE transition
// records. The history is the one entity that outlives a run; everything
// else in the pipeline is recomputed from scratch.
// Implements: prd103-state (R1-R5); docs/ARCHITECTURE § State Store.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the DOI state history SQLite database. All mutation goes
// through Diff; records are never updated in place.
type Store struct {
	db *sql.DB
}

// Open opens or creates the state database at path, creating the parent
// directory and schema as needed. A store with an empty doi_state table
// and an empty runs table is a valid first run.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	// seq breaks ties when two records for one doi share an updated_date:
	// the higher seq was appended later and wins.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS doi_state (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			doi TEXT NOT NULL,
			hash TEXT NOT NULL,
			state TEXT NOT NULL CHECK (state IN ('UPSERT', 'DELETE')),
			updated_date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_doi_state_doi ON doi_state(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_doi_state_run ON doi_state(updated_date, state)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_date TEXT PRIMARY KEY,
			attempt TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			new_count INTEGER NOT NULL,
			changed_count INTEGER NOT NULL,
			resurrected_count INTEGER NOT NULL,
			unchanged_count INTEGER NOT NULL,
			deleted_count INTEGER NOT NULL,
			pruned_count INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
