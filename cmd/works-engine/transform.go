// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/works-engine/internal/tables"
	"github.com/pdiddy/works-engine/internal/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Convert source snapshots into canonical tables",
	Long: `Transform reads one source's snapshot files and writes canonicalized
JSONL tables: a primary works table plus supplemental tables for types,
timestamps, institutions, authors, funders, awards, and raw relations.
Run it once per source after the snapshots land.`,
}

// --- datacite subcommand ---

var transformDataCiteCmd = &cobra.Command{
	Use:   "datacite",
	Short: "Transform a DataCite snapshot",
	RunE:  runTransformDataCite,
}

func runTransformDataCite(cmd *cobra.Command, args []string) error {
	return runSourceTransform(cmd, "datacite", transform.DataCite)
}

// --- openalex subcommand ---

var transformOpenAlexCmd = &cobra.Command{
	Use:   "openalex",
	Short: "Transform an OpenAlex snapshot",
	RunE:  runTransformOpenAlex,
}

func runTransformOpenAlex(cmd *cobra.Command, args []string) error {
	return runSourceTransform(cmd, "openalex", transform.OpenAlex)
}

// --- crossref subcommand ---

var transformCrossrefCmd = &cobra.Command{
	Use:   "crossref",
	Short: "Transform a Crossref snapshot",
	RunE:  runTransformCrossref,
}

func runTransformCrossref(cmd *cobra.Command, args []string) error {
	return runSourceTransform(cmd, "crossref", transform.Crossref)
}

// --- ror subcommand ---

var transformRORCmd = &cobra.Command{
	Use:   "ror",
	Short: "Transform a ROR registry snapshot into identifier rows",
	RunE:  runTransformROR,
}

func runTransformROR(cmd *cobra.Command, args []string) error {
	input, output := transformPaths(cmd)

	fmt.Printf("transforming ror from %s\n", input)
	rows, summary, err := transform.ROR(input, os.Stdout)
	if err != nil {
		return err
	}
	if err := tables.WriteJSONL(filepath.Join(output, tables.FileIdentifiers), rows); err != nil {
		return err
	}
	fmt.Printf("ror: %d organizations, %d skipped, %d identifier rows from %d files\n",
		summary.Works, summary.Skipped, len(rows), summary.Files)
	fmt.Printf("wrote tables to %s\n", output)
	return nil
}

// --- corpus subcommand ---

var transformCorpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Transform a dataset-citation corpus snapshot",
	RunE:  runTransformCorpus,
}

func runTransformCorpus(cmd *cobra.Command, args []string) error {
	input, output := transformPaths(cmd)

	fmt.Printf("transforming corpus from %s\n", input)
	rows, summary, err := transform.Corpus(input, os.Stdout)
	if err != nil {
		return err
	}
	if err := tables.WriteJSONL(filepath.Join(output, tables.FileCorpusCitations), rows); err != nil {
		return err
	}
	fmt.Printf("corpus: %d citations, %d skipped from %d files\n",
		summary.Works, summary.Skipped, summary.Files)
	fmt.Printf("wrote tables to %s\n", output)
	return nil
}

// --- shared helpers ---

func runSourceTransform(cmd *cobra.Command, source string, fn func(string, io.Writer) (*tables.SourceTables, *transform.Summary, error)) error {
	input, output := transformPaths(cmd)

	fmt.Printf("transforming %s from %s\n", source, input)
	st, summary, err := fn(input, os.Stdout)
	if err != nil {
		return err
	}
	if err := tables.WriteSourceTables(output, st); err != nil {
		return err
	}
	fmt.Printf("%s: %d works, %d skipped, %d relation rows from %d files\n",
		source, summary.Works, summary.Skipped, summary.Relations, summary.Files)
	fmt.Printf("wrote tables to %s\n", output)
	return nil
}

func transformPaths(cmd *cobra.Command) (string, string) {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	return input, output
}

func init() {
	transformDataCiteCmd.Flags().String("input", "snapshots/datacite", "snapshot directory")
	transformDataCiteCmd.Flags().String("output", "tables/datacite", "table output directory")

	transformOpenAlexCmd.Flags().String("input", "snapshots/openalex", "snapshot directory")
	transformOpenAlexCmd.Flags().String("output", "tables/openalex", "table output directory")

	transformCrossrefCmd.Flags().String("input", "snapshots/crossref", "snapshot directory")
	transformCrossrefCmd.Flags().String("output", "tables/crossref", "table output directory")

	transformRORCmd.Flags().String("input", "snapshots/ror", "snapshot directory")
	transformRORCmd.Flags().String("output", "tables/ror", "table output directory")

	transformCorpusCmd.Flags().String("input", "snapshots/corpus", "snapshot directory")
	transformCorpusCmd.Flags().String("output", "tables/corpus", "table output directory")

	transformCmd.AddCommand(transformDataCiteCmd)
	transformCmd.AddCommand(transformOpenAlexCmd)
	transformCmd.AddCommand(transformCrossrefCmd)
	transformCmd.AddCommand(transformRORCmd)
	transformCmd.AddCommand(transformCorpusCmd)

	rootCmd.AddCommand(transformCmd)
}
