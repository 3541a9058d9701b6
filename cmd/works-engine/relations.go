// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/works-engine/internal/relations"
	"github.com/pdiddy/works-engine/internal/tables"
	"github.com/pdiddy/works-engine/pkg/types"
)

var relationsCmd = &cobra.Command{
	Use:   "relations",
	Short: "Build the DOI relation index",
}

// --- build subcommand ---

var relationsBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Extract relation edges and aggregate per-DOI neighbor lists",
	Long: `Build reads the raw relation tables (DataCite related identifiers,
Crossref relations, corpus dataset citations), extracts DOI-to-DOI edges,
and aggregates them into one entry per DOI with sorted, distinct neighbor
lists for each relation category.`,
	RunE: runRelationsBuild,
}

func runRelationsBuild(cmd *cobra.Command, args []string) error {
	tablesDir, _ := cmd.Flags().GetString("tables")
	output, _ := cmd.Flags().GetString("output")

	var edges []types.RelationEdge
	found := 0

	dc, ok, err := readRelationTable[tables.DataCiteRelationRow](filepath.Join(tablesDir, "datacite", tables.FileDataCiteRelations))
	if err != nil {
		return err
	}
	if ok {
		found++
		extracted, summary := relations.FromDataCite(dc)
		printRelationSummary("datacite", summary)
		edges = append(edges, extracted...)
	}

	cr, ok, err := readRelationTable[tables.CrossrefRelationRow](filepath.Join(tablesDir, "crossref", tables.FileCrossrefRelations))
	if err != nil {
		return err
	}
	if ok {
		found++
		extracted, summary := relations.FromCrossref(cr)
		printRelationSummary("crossref", summary)
		edges = append(edges, extracted...)
	}

	cc, ok, err := readRelationTable[tables.CorpusCitationRow](filepath.Join(tablesDir, "corpus", tables.FileCorpusCitations))
	if err != nil {
		return err
	}
	if ok {
		found++
		extracted, summary := relations.FromCorpus(cc)
		printRelationSummary("corpus", summary)
		edges = append(edges, extracted...)
	}

	if found == 0 {
		return fmt.Errorf("no relation tables found under %s", tablesDir)
	}

	entries := relations.Aggregate(edges)
	if err := tables.WriteJSONL(output, entries); err != nil {
		return err
	}
	fmt.Printf("wrote %d relation entries to %s\n", len(entries), output)
	return nil
}

func printRelationSummary(source string, s relations.Summary) {
	fmt.Printf("  %s: %d edges, %d dropped, %d self-loops\n", source, s.Edges, s.Dropped, s.SelfLoops)
}

func readRelationTable[T any](path string) ([]T, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("  %s: missing, skipped\n", path)
			return nil, false, nil
		}
		return nil, false, err
	}
	rows, err := tables.ReadJSONL[T](path)
	if err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

func init() {
	relationsBuildCmd.Flags().String("tables", "tables", "directory holding per-source tables")
	relationsBuildCmd.Flags().String("output", "relations/relations.jsonl", "output path for the relation index")

	relationsCmd.AddCommand(relationsBuildCmd)
	rootCmd.AddCommand(relationsCmd)
}
