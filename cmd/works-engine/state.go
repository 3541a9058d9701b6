// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/works-engine/internal/state"
	"github.com/pdiddy/works-engine/internal/tables"
	"github.com/pdiddy/works-engine/internal/works"
	"github.com/pdiddy/works-engine/pkg/types"
)

const defaultRetention = 10

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Track per-DOI state across runs (diff, export, audit)",
	Long: `State maintains an append-only SQLite history of per-DOI records.
Each run diffs the current works table against the latest recorded state,
appends UPSERT and DELETE records, prunes old history, and records the run
summary, all in one transaction. Exports carry only the records the given
run produced.`,
}

// --- init subcommand ---

var stateInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the state database schema",
	RunE:  runStateInit,
}

func runStateInit(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")

	store, err := state.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("state store ready at %s\n", dbPath)
	return nil
}

// --- diff subcommand ---

var stateDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Diff the works table against recorded state and append changes",
	Long: `Diff loads the merged works table, compares every present DOI with
its latest recorded state, and appends the resulting UPSERT and DELETE
records under the given run date. Replaying an already-recorded run date
reports the stored summary and writes nothing.`,
	RunE: runStateDiff,
}

func runStateDiff(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	worksFile, _ := cmd.Flags().GetString("works")
	retention, _ := cmd.Flags().GetInt("retention")

	runDate, err := runDateFlag(cmd)
	if err != nil {
		return err
	}

	list, err := tables.ReadJSONL[types.Work](worksFile)
	if err != nil {
		return err
	}
	present := works.PresentSet(list)

	store, err := state.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Diff(context.Background(), present, runDate, retention, os.Stdout)
	return err
}

// --- export subcommand ---

var stateExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one run's changeset",
	Long: `Export writes the UPSERT records a run produced (or its DELETE
records with --deletions) as JSONL or YAML. Records from other runs never
appear, so replays and re-exports stay reproducible.`,
	RunE: runStateExport,
}

func runStateExport(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	formatFlag, _ := cmd.Flags().GetString("format")
	format := types.ExportFormat(formatFlag)
	deletions, _ := cmd.Flags().GetBool("deletions")

	runDate, err := runDateFlag(cmd)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		name := runDate.String()
		if deletions {
			name += "-deletions"
		}
		output = filepath.Join("state", "export", name+"."+string(format))
	}

	store, err := state.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var records []types.StateRecord
	if deletions {
		records, err = store.Deletions(context.Background(), runDate)
	} else {
		records, err = store.Export(context.Background(), runDate)
	}
	if err != nil {
		return err
	}

	if err := state.WriteRecords(records, output, format); err != nil {
		return err
	}
	fmt.Printf("exported %d records to %s\n", len(records), output)
	return nil
}

// --- check subcommand ---

var stateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the per-DOI retention bound holds",
	RunE:  runStateCheck,
}

func runStateCheck(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	retention, _ := cmd.Flags().GetInt("retention")

	store, err := state.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CheckRetention(context.Background(), retention); err != nil {
		return err
	}
	fmt.Printf("retention bound %d holds\n", retention)
	return nil
}

// --- shared helpers ---

// runDateFlag parses the orchestrator-supplied run date. The run id is
// always this date; works-engine never falls back to the wall clock.
func runDateFlag(cmd *cobra.Command) (types.Date, error) {
	raw, _ := cmd.Flags().GetString("run-date")
	if raw == "" {
		return types.Date{}, fmt.Errorf("provide the orchestrator run date with --run-date")
	}
	d, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, fmt.Errorf("invalid --run-date %q: expected YYYY-MM-DD", raw)
	}
	return d, nil
}

func init() {
	// Shared flag on the parent command, inherited by subcommands.
	stateCmd.PersistentFlags().String("db", "state/doi_state.db", "SQLite state database path")

	// Diff flags.
	stateDiffCmd.Flags().String("works", "works/works.jsonl", "merged works table (JSONL)")
	stateDiffCmd.Flags().String("run-date", "", "orchestrator run date (YYYY-MM-DD)")
	stateDiffCmd.Flags().Int("retention", defaultRetention, "history records kept per DOI")

	// Export flags.
	stateExportCmd.Flags().String("run-date", "", "orchestrator run date (YYYY-MM-DD)")
	stateExportCmd.Flags().String("output", "", "output path (default state/export/<run-date>.<format>)")
	stateExportCmd.Flags().String("format", "jsonl", "export format: jsonl or yaml")
	stateExportCmd.Flags().Bool("deletions", false, "export the run's DELETE records instead of upserts")

	// Check flags.
	stateCheckCmd.Flags().Int("retention", defaultRetention, "history bound to verify")

	// Wire subcommands.
	stateCmd.AddCommand(stateInitCmd)
	stateCmd.AddCommand(stateDiffCmd)
	stateCmd.AddCommand(stateExportCmd)
	stateCmd.AddCommand(stateCheckCmd)

	rootCmd.AddCommand(stateCmd)
}
