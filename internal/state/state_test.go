// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/works-engine/internal/tables"
	"github.com/pdiddy/works-engine/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "doi_state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(t *testing.T, s string) types.Date {
	t.Helper()
	d, err := types.ParseDate(s)
	require.NoError(t, err)
	return d
}

func runDiff(t *testing.T, store *Store, present []types.Present, date string, retention int) *DiffSummary {
	t.Helper()
	summary, err := store.Diff(context.Background(), present, day(t, date), retention, io.Discard)
	require.NoError(t, err)
	return summary
}

// seedRecord appends a raw history row, bypassing Diff. Used to arrange
// histories Diff itself cannot produce, like duplicate dates for one doi.
func seedRecord(t *testing.T, store *Store, doi, hash string, state types.State, date string) {
	t.Helper()
	_, err := store.db.Exec(
		`INSERT INTO doi_state (doi, hash, state, updated_date) VALUES (?, ?, ?, ?)`,
		doi, hash, string(state), date)
	require.NoError(t, err)
}

// --- schema tests ---

func TestOpen_CreatesSchema(t *testing.T) {
	store := testStore(t)

	for _, table := range []string{"doi_state", "runs"} {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s missing", table)
	}
}

// --- diff transition tests ---

func TestDiff_FirstRun(t *testing.T) {
	store := testStore(t)

	present := []types.Present{
		{DOI: "10.1/a", Hash: "h-a"},
		{DOI: "10.1/b", Hash: "h-b"},
	}
	summary := runDiff(t, store, present, "2024-01-01", 5)

	assert.Equal(t, 2, summary.New)
	assert.Equal(t, 2, summary.Total())
	assert.Equal(t, 2, summary.Upserts())

	export, err := store.Export(context.Background(), day(t, "2024-01-01"))
	require.NoError(t, err)
	require.Len(t, export, 2)
	assert.Equal(t, "10.1/a", export[0].DOI)
	assert.Equal(t, types.StateUpsert, export[0].State)
	assert.Equal(t, "10.1/b", export[1].DOI)
}

func TestDiff_NoOpWhenHashUnchanged(t *testing.T) {
	store := testStore(t)
	present := []types.Present{{DOI: "10.1/a", Hash: "h1"}}

	runDiff(t, store, present, "2024-01-01", 5)
	summary := runDiff(t, store, present, "2024-02-01", 5)

	assert.Equal(t, 1, summary.Unchanged)
	assert.Equal(t, 0, summary.Upserts())

	history, err := store.History(context.Background(), "10.1/a")
	require.NoError(t, err)
	assert.Len(t, history, 1, "no-op run must not append")

	export, err := store.Export(context.Background(), day(t, "2024-02-01"))
	require.NoError(t, err)
	assert.Empty(t, export)
}

func TestDiff_ChangedHash(t *testing.T) {
	store := testStore(t)

	runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h1"}}, "2024-01-01", 5)
	summary := runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h2"}}, "2024-02-01", 5)

	assert.Equal(t, 1, summary.Changed)

	history, err := store.History(context.Background(), "10.1/a")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "h2", history[1].Hash)
	assert.Equal(t, types.StateUpsert, history[1].State)
}

func TestDiff_Deletion(t *testing.T) {
	store := testStore(t)

	runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h1"}}, "2024-01-01", 5)
	summary := runDiff(t, store, nil, "2024-02-01", 5)

	assert.Equal(t, 1, summary.Deleted)

	history, err := store.History(context.Background(), "10.1/a")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, types.StateDelete, history[1].State)
	assert.Equal(t, "h1", history[1].Hash, "DELETE keeps the last known hash")
	assert.Equal(t, "2024-02-01", history[1].UpdatedDate.String())

	// Deletions are recorded in history but never exported.
	export, err := store.Export(context.Background(), day(t, "2024-02-01"))
	require.NoError(t, err)
	assert.Empty(t, export)

	deletions, err := store.Deletions(context.Background(), day(t, "2024-02-01"))
	require.NoError(t, err)
	require.Len(t, deletions, 1)
	assert.Equal(t, "10.1/a", deletions[0].DOI)
}

func TestDiff_StayedDeleted(t *testing.T) {
	store := testStore(t)

	runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h1"}}, "2024-01-01", 5)
	runDiff(t, store, nil, "2024-02-01", 5)
	summary := runDiff(t, store, nil, "2024-03-01", 5)

	assert.Equal(t, 0, summary.Total(), "a deleted doi absent again emits nothing")

	history, err := store.History(context.Background(), "10.1/a")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestDiff_Resurrection(t *testing.T) {
	store := testStore(t)

	runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h1"}}, "2024-01-01", 5)
	runDiff(t, store, nil, "2024-02-01", 5)
	summary := runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h1"}}, "2024-03-01", 5)

	assert.Equal(t, 1, summary.Resurrected, "unchanged hash still resurrects after a DELETE")

	history, err := store.History(context.Background(), "10.1/a")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, types.StateUpsert, history[2].State)
	assert.Equal(t, "2024-03-01", history[2].UpdatedDate.String())

	export, err := store.Export(context.Background(), day(t, "2024-03-01"))
	require.NoError(t, err)
	require.Len(t, export, 1)
	assert.Equal(t, "10.1/a", export[0].DOI)
}

func TestDiff_NeverSeenAbsentDOI(t *testing.T) {
	store := testStore(t)

	runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h1"}}, "2024-01-01", 5)

	history, err := store.History(context.Background(), "10.1/zzz")
	require.NoError(t, err)
	assert.Empty(t, history)
}

// --- retention tests ---

func TestDiff_PrunesToRetentionBound(t *testing.T) {
	store := testStore(t)

	dates := []string{"2024-01-01", "2024-02-01", "2024-03-01", "2024-04-01"}
	hashes := []string{"h1", "h2", "h3", "h4"}
	var lastSummary *DiffSummary
	for i, d := range dates {
		lastSummary = runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: hashes[i]}}, d, 2)
	}

	assert.Equal(t, 1, lastSummary.Pruned)

	history, err := store.History(context.Background(), "10.1/a")
	require.NoError(t, err)
	require.Len(t, history, 2, "history must hold the 2 most recent records")
	assert.Equal(t, "2024-03-01", history[0].UpdatedDate.String())
	assert.Equal(t, "h3", history[0].Hash)
	assert.Equal(t, "2024-04-01", history[1].UpdatedDate.String())
	assert.Equal(t, "h4", history[1].Hash)

	assert.NoError(t, store.CheckRetention(context.Background(), 2))
}

func TestDiff_PruneRepairsLoweredBound(t *testing.T) {
	store := testStore(t)

	seedRecord(t, store, "10.1/a", "h1", types.StateUpsert, "2024-01-01")
	seedRecord(t, store, "10.1/a", "h2", types.StateUpsert, "2024-02-01")
	seedRecord(t, store, "10.1/a", "h3", types.StateUpsert, "2024-03-01")

	summary := runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h3"}}, "2024-04-01", 1)

	assert.Equal(t, 2, summary.Pruned)

	history, err := store.History(context.Background(), "10.1/a")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "h3", history[0].Hash)
	assert.Equal(t, "2024-03-01", history[0].UpdatedDate.String())
}

func TestCheckRetention_Violation(t *testing.T) {
	store := testStore(t)

	seedRecord(t, store, "10.1/a", "h1", types.StateUpsert, "2024-01-01")
	seedRecord(t, store, "10.1/a", "h2", types.StateUpsert, "2024-02-01")
	seedRecord(t, store, "10.1/a", "h3", types.StateUpsert, "2024-03-01")

	err := store.CheckRetention(context.Background(), 2)
	var retErr *RetentionError
	require.ErrorAs(t, err, &retErr)
	assert.Equal(t, "10.1/a", retErr.DOI)
	assert.Equal(t, 3, retErr.Count)
	assert.Equal(t, 2, retErr.Bound)
}

// --- tie-break and ordering tests ---

func TestDiff_TieBreakMostRecentlyAppendedWins(t *testing.T) {
	store := testStore(t)

	// Two records for one doi under the same date: the later append (higher
	// seq) is the current state, so the doi reads as deleted.
	seedRecord(t, store, "10.1/a", "h1", types.StateUpsert, "2024-01-01")
	seedRecord(t, store, "10.1/a", "h1", types.StateDelete, "2024-01-01")

	summary := runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h1"}}, "2024-02-01", 5)

	assert.Equal(t, 1, summary.Resurrected)
	assert.Equal(t, 0, summary.Unchanged)
}

// --- idempotent replay tests ---

func TestDiff_SameRunDateReplays(t *testing.T) {
	store := testStore(t)

	first := runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h1"}}, "2024-01-01", 5)
	require.False(t, first.Replayed)

	// Replaying the run date writes nothing, even with different input.
	replayInput := []types.Present{
		{DOI: "10.1/a", Hash: "h1"},
		{DOI: "10.1/b", Hash: "h-b"},
	}
	second := runDiff(t, store, replayInput, "2024-01-01", 5)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.New, second.New)
	assert.Equal(t, first.Total(), second.Total())

	history, err := store.History(context.Background(), "10.1/b")
	require.NoError(t, err)
	assert.Empty(t, history, "replay must not append")
}

// --- input validation tests ---

func TestDiff_RejectsMalformedPresent(t *testing.T) {
	tests := []struct {
		name    string
		present []types.Present
	}{
		{"missing doi", []types.Present{{Hash: "h1"}}},
		{"missing hash", []types.Present{{DOI: "10.1/a"}}},
		{"conflicting hashes", []types.Present{
			{DOI: "10.1/a", Hash: "h1"},
			{DOI: "10.1/a", Hash: "h2"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testStore(t)
			_, err := store.Diff(context.Background(), tt.present, day(t, "2024-01-01"), 5, io.Discard)
			require.Error(t, err)

			// Nothing may be visible after a rejected run.
			export, expErr := store.Export(context.Background(), day(t, "2024-01-01"))
			require.NoError(t, expErr)
			assert.Empty(t, export)
		})
	}
}

func TestDiff_DeduplicatesExactPresentPairs(t *testing.T) {
	store := testStore(t)

	present := []types.Present{
		{DOI: "10.1/a", Hash: "h1"},
		{DOI: "10.1/a", Hash: "h1"},
	}
	summary := runDiff(t, store, present, "2024-01-01", 5)

	assert.Equal(t, 1, summary.New)

	history, err := store.History(context.Background(), "10.1/a")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDiff_RejectsInvalidRetention(t *testing.T) {
	store := testStore(t)
	_, err := store.Diff(context.Background(), nil, day(t, "2024-01-01"), 0, io.Discard)
	require.Error(t, err)
}

// --- export encoding tests ---

func TestDiff_ExportScopedToRunDate(t *testing.T) {
	store := testStore(t)

	runDiff(t, store, []types.Present{{DOI: "10.1/a", Hash: "h1"}}, "2024-01-01", 5)
	runDiff(t, store, []types.Present{
		{DOI: "10.1/a", Hash: "h1"},
		{DOI: "10.1/b", Hash: "h-b"},
	}, "2024-02-01", 5)

	first, err := store.Export(context.Background(), day(t, "2024-01-01"))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "10.1/a", first[0].DOI)

	second, err := store.Export(context.Background(), day(t, "2024-02-01"))
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "10.1/b", second[0].DOI)
}

func TestWriteRecords(t *testing.T) {
	records := []types.StateRecord{
		{DOI: "10.1/a", Hash: "h1", State: types.StateUpsert, UpdatedDate: day(t, "2024-01-01")},
		{DOI: "10.1/b", Hash: "h2", State: types.StateUpsert, UpdatedDate: day(t, "2024-01-01")},
	}

	t.Run("jsonl", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export", "2024-01-01.jsonl")
		require.NoError(t, WriteRecords(records, path, types.ExportJSONL))

		got, err := tables.ReadJSONL[types.StateRecord](path)
		require.NoError(t, err)
		assert.Equal(t, records, got)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export", "2024-01-01.yaml")
		require.NoError(t, WriteRecords(records, path, types.ExportYAML))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got []types.StateRecord
		require.NoError(t, yaml.Unmarshal(data, &got))
		assert.Equal(t, records, got)
	})

	t.Run("unknown format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export.bin")
		err := WriteRecords(records, path, types.ExportFormat("protobuf"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown export format")
	})
}
