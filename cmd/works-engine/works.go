// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/works-engine/internal/identifier"
	"github.com/pdiddy/works-engine/internal/tables"
	"github.com/pdiddy/works-engine/internal/transform"
	"github.com/pdiddy/works-engine/internal/works"
	"github.com/pdiddy/works-engine/pkg/types"
)

// sourcePrecedence orders sources for the merge: when several sources
// carry the same DOI, the earliest listed source wins.
var sourcePrecedence = []string{"datacite", "openalex", "crossref"}

var worksCmd = &cobra.Command{
	Use:   "works",
	Short: "Build the canonical works table",
}

// --- build subcommand ---

var worksBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Merge per-source tables into canonical hashed work records",
	Long: `Build reads each source's canonicalized tables, assembles one work
record per primary row, resolves funder identifiers against the ROR index,
merges sources by DOI precedence (datacite, openalex, crossref), and
writes the merged table with a content hash per work.`,
	RunE: runWorksBuild,
}

func runWorksBuild(cmd *cobra.Command, args []string) error {
	tablesDir, _ := cmd.Flags().GetString("tables")
	output, _ := cmd.Flags().GetString("output")

	idx, err := loadIdentifierIndex(tablesDir)
	if err != nil {
		return err
	}

	var built [][]types.Work
	for _, source := range sourcePrecedence {
		st, err := tables.ReadSourceTables(filepath.Join(tablesDir, source))
		if os.IsNotExist(err) {
			fmt.Printf("  %s: no tables, skipped\n", source)
			continue
		}
		if err != nil {
			return err
		}
		assembled, err := works.Build(st.Works, works.Supplements{
			Types:        st.Types,
			Updated:      st.Updated,
			Institutions: st.Institutions,
			Authors:      st.Authors,
			Funders:      st.Funders,
			Awards:       st.Awards,
		}, idx)
		if err != nil {
			return fmt.Errorf("building %s works: %w", source, err)
		}
		fmt.Printf("  %s: %d works\n", source, len(assembled))
		built = append(built, assembled)
	}
	if len(built) == 0 {
		return fmt.Errorf("no source tables found under %s", tablesDir)
	}

	merged := works.Merge(built...)
	if err := tables.WriteJSONL(output, merged); err != nil {
		return err
	}
	fmt.Printf("wrote %d works to %s\n", len(merged), output)
	return nil
}

// loadIdentifierIndex reads the ROR identifier table if the registry was
// transformed; without it funder identifiers stay unresolved.
func loadIdentifierIndex(tablesDir string) (*identifier.Index, error) {
	path := filepath.Join(tablesDir, "ror", tables.FileIdentifiers)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("  ror: no identifier table, funder resolution disabled")
		return nil, nil
	}
	rows, err := tables.ReadJSONL[tables.IdentifierRow](path)
	if err != nil {
		return nil, err
	}
	idx := transform.BuildIndex(rows)
	fmt.Printf("  ror: %d identifiers indexed\n", idx.Len())
	return idx, nil
}

func init() {
	worksBuildCmd.Flags().String("tables", "tables", "directory holding per-source tables")
	worksBuildCmd.Flags().String("output", "works/works.jsonl", "output path for the merged works table")

	worksCmd.AddCommand(worksBuildCmd)
	rootCmd.AddCommand(worksCmd)
}
