// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/works-engine/pkg/types"
)

// DiffSummary counts the transitions of one diff run (prd103 R3.4).
type DiffSummary struct {
	// New counts DOIs appearing for the first time (UPSERT appended).
	New int

	// Changed counts DOIs whose content hash differs from the latest
	// UPSERT record (UPSERT appended).
	Changed int

	// Resurrected counts DOIs whose latest record was a DELETE but which
	// are present again, regardless of hash (UPSERT appended).
	Resurrected int

	// Unchanged counts DOIs whose latest UPSERT carries the same hash
	// (nothing appended).
	Unchanged int

	// Deleted counts DOIs absent from the present set whose latest record
	// was an UPSERT (DELETE appended).
	Deleted int

	// Pruned counts history records removed to hold the retention bound.
	Pruned int

	// Replayed is true when the run date was already recorded and the
	// stored summary was returned without writing anything.
	Replayed bool
}

// Total returns the number of DOIs examined by the diff.
func (s DiffSummary) Total() int {
	return s.New + s.Changed + s.Resurrected + s.Unchanged + s.Deleted
}

// Upserts returns the number of UPSERT records the run appended.
func (s DiffSummary) Upserts() int {
	return s.New + s.Changed + s.Resurrected
}

// RetentionError reports a DOI whose history exceeds the retention bound
// after pruning. It is unreachable with correct pruning; hitting it aborts
// the run before commit.
// Per prd103-state R3.3.
type RetentionError struct {
	DOI   string
	Count int
	Bound int
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("doi %s holds %d history records, retention bound is %d", e.DOI, e.Count, e.Bound)
}

// latestRecord is the reduced "current state" of one DOI.
type latestRecord struct {
	hash  string
	state types.State
}

// Diff compares present against the latest history record per DOI and
// appends one transition record per changed DOI under runDate:
//
//	present, no history            -> UPSERT (new)
//	present, latest UPSERT, hash differs -> UPSERT (changed)
//	present, latest UPSERT, hash same    -> nothing
//	present, latest DELETE               -> UPSERT (resurrected)
//	absent, latest UPSERT                -> DELETE
//	absent, latest DELETE                -> nothing
//
// Append, prune, and the run bookkeeping row commit in one transaction, so
// a failed run leaves no trace and re-running the same runDate after a
// crash starts clean. A run date that already committed is replayed: the
// stored summary is returned and nothing is written.
func (s *Store) Diff(ctx context.Context, present []types.Present, runDate types.Date, retention int, out io.Writer) (*DiffSummary, error) {
	if retention < 1 {
		return nil, fmt.Errorf("retention bound must be at least 1, got %d", retention)
	}
	if runDate.IsZero() {
		return nil, fmt.Errorf("run date is required")
	}
	deduped, err := dedupePresent(present)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Same-run-id replay: a runs row exists only for committed runs.
	if summary, ok, err := s.recordedRun(ctx, tx, runDate); err != nil {
		return nil, err
	} else if ok {
		fmt.Fprintf(out, "run %s already recorded, replaying summary\n", runDate)
		return summary, nil
	}

	latest, err := latestStates(ctx, tx)
	if err != nil {
		return nil, err
	}

	var summary DiffSummary
	type change struct {
		doi   string
		hash  string
		state types.State
	}
	var changes []change

	// Present DOIs in sorted order so append order (and thus seq) is
	// reproducible across runs on equal input.
	presentDOIs := make([]string, 0, len(deduped))
	for doi := range deduped {
		presentDOIs = append(presentDOIs, doi)
	}
	sort.Strings(presentDOIs)

	for _, doi := range presentDOIs {
		hash := deduped[doi]
		last, seen := latest[doi]
		switch {
		case !seen:
			summary.New++
			changes = append(changes, change{doi, hash, types.StateUpsert})
		case last.state == types.StateDelete:
			summary.Resurrected++
			changes = append(changes, change{doi, hash, types.StateUpsert})
		case last.hash != hash:
			summary.Changed++
			changes = append(changes, change{doi, hash, types.StateUpsert})
		default:
			summary.Unchanged++
		}
	}

	historyDOIs := make([]string, 0, len(latest))
	for doi := range latest {
		historyDOIs = append(historyDOIs, doi)
	}
	sort.Strings(historyDOIs)

	for _, doi := range historyDOIs {
		if _, ok := deduped[doi]; ok {
			continue
		}
		if last := latest[doi]; last.state == types.StateUpsert {
			summary.Deleted++
			changes = append(changes, change{doi, last.hash, types.StateDelete})
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO doi_state (doi, hash, state, updated_date) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing append: %w", err)
	}
	defer stmt.Close()

	for _, c := range changes {
		if _, err := stmt.ExecContext(ctx, c.doi, c.hash, string(c.state), runDate.String()); err != nil {
			return nil, fmt.Errorf("appending %s for %s: %w", c.state, c.doi, err)
		}
	}

	summary.Pruned, err = pruneAll(ctx, tx, retention)
	if err != nil {
		return nil, err
	}
	if err := auditRetention(ctx, tx, retention); err != nil {
		return nil, err
	}

	completedAt := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_date, attempt, started_at, completed_at,
			new_count, changed_count, resurrected_count, unchanged_count, deleted_count, pruned_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runDate.String(), uuid.NewString(),
		startedAt.Format(time.RFC3339Nano), completedAt.Format(time.RFC3339Nano),
		summary.New, summary.Changed, summary.Resurrected, summary.Unchanged, summary.Deleted, summary.Pruned,
	)
	if err != nil {
		return nil, fmt.Errorf("recording run %s: %w", runDate, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing run %s: %w", runDate, err)
	}

	fmt.Fprintf(out, "run %s: new %d, changed %d, resurrected %d, unchanged %d, deleted %d, pruned %d\n",
		runDate, summary.New, summary.Changed, summary.Resurrected, summary.Unchanged, summary.Deleted, summary.Pruned)
	return &summary, nil
}

// dedupePresent validates and deduplicates the present set. An empty doi
// or hash, or two different hashes for one doi, is a fatal input error:
// the run aborts before any write.
func dedupePresent(present []types.Present) (map[string]string, error) {
	deduped := make(map[string]string, len(present))
	for i, p := range present {
		if p.DOI == "" {
			return nil, fmt.Errorf("present row %d: missing doi", i)
		}
		if p.Hash == "" {
			return nil, fmt.Errorf("present row %d: missing hash for doi %s", i, p.DOI)
		}
		if prev, ok := deduped[p.DOI]; ok {
			if prev != p.Hash {
				return nil, fmt.Errorf("present set carries two hashes for doi %s", p.DOI)
			}
			continue
		}
		deduped[p.DOI] = p.Hash
	}
	return deduped, nil
}

// latestStates reduces the history to the most recent record per DOI.
// The query orders each DOI's records newest-first by updated_date with
// seq as the tie-break (most-recently-appended wins); the reduction keeps
// the first row seen per DOI.
func latestStates(ctx context.Context, tx *sql.Tx) (map[string]latestRecord, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT doi, hash, state FROM doi_state ORDER BY doi, updated_date DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("loading state history: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]latestRecord)
	for rows.Next() {
		var doi, hash, st string
		if err := rows.Scan(&doi, &hash, &st); err != nil {
			return nil, fmt.Errorf("scanning state history: %w", err)
		}
		if _, ok := latest[doi]; ok {
			continue
		}
		if !types.State(st).Valid() {
			return nil, fmt.Errorf("history record for %s has unknown state %q", doi, st)
		}
		latest[doi] = latestRecord{hash: hash, state: types.State(st)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading state history: %w", err)
	}
	return latest, nil
}

// pruneAll trims every DOI holding more than retention records down to the
// retention most recent by (updated_date, seq). Scanning the whole table
// rather than only the DOIs touched this run also repairs histories left
// over from a previously larger bound.
func pruneAll(ctx context.Context, tx *sql.Tx, retention int) (int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT doi FROM doi_state GROUP BY doi HAVING count(*) > ?`, retention)
	if err != nil {
		return 0, fmt.Errorf("finding over-bound dois: %w", err)
	}
	var dois []string
	for rows.Next() {
		var doi string
		if err := rows.Scan(&doi); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning over-bound dois: %w", err)
		}
		dois = append(dois, doi)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("reading over-bound dois: %w", err)
	}
	rows.Close()

	pruned := 0
	for _, doi := range dois {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM doi_state WHERE doi = ? AND seq NOT IN (
				SELECT seq FROM doi_state WHERE doi = ?
				ORDER BY updated_date DESC, seq DESC LIMIT ?)`,
			doi, doi, retention)
		if err != nil {
			return pruned, fmt.Errorf("pruning %s: %w", doi, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return pruned, fmt.Errorf("counting pruned rows for %s: %w", doi, err)
		}
		pruned += int(n)
	}
	return pruned, nil
}

// auditRetention verifies no DOI exceeds the bound. Inside Diff it runs
// after pruning on the open transaction, where a violation rolls the run
// back.
func auditRetention(ctx context.Context, tx *sql.Tx, retention int) error {
	var doi string
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT doi, count(*) FROM doi_state GROUP BY doi HAVING count(*) > ? ORDER BY doi LIMIT 1`,
		retention,
	).Scan(&doi, &count)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auditing retention: %w", err)
	}
	return &RetentionError{DOI: doi, Count: count, Bound: retention}
}

// CheckRetention audits the full history against bound n outside a run.
func (s *Store) CheckRetention(ctx context.Context, n int) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	return auditRetention(ctx, tx, n)
}

// recordedRun loads the stored summary for runDate, if that run committed.
func (s *Store) recordedRun(ctx context.Context, tx *sql.Tx, runDate types.Date) (*DiffSummary, bool, error) {
	var summary DiffSummary
	err := tx.QueryRowContext(ctx,
		`SELECT new_count, changed_count, resurrected_count, unchanged_count, deleted_count, pruned_count
		 FROM runs WHERE run_date = ?`, runDate.String(),
	).Scan(&summary.New, &summary.Changed, &summary.Resurrected, &summary.Unchanged, &summary.Deleted, &summary.Pruned)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("checking run %s: %w", runDate, err)
	}
	summary.Replayed = true
	return &summary, true, nil
}
