// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/works-engine/internal/fetch"
	"github.com/pdiddy/works-engine/pkg/types"
)

const (
	defaultTimeout   = 10 * time.Minute
	defaultRetries   = 3
	defaultUserAgent = "works-engine/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download source snapshots",
	Long: `Fetch downloads bulk metadata snapshots into the snapshots directory.
The DataCite, OpenAlex, and Crossref dumps arrive out of band (object
storage transfers handled by the orchestrator); fetch covers the sources
small enough to pull over HTTP.`,
}

// --- ror subcommand ---

var fetchRORCmd = &cobra.Command{
	Use:   "ror",
	Short: "Download a ROR registry data dump",
	Long: `Fetch ror downloads a ROR registry release archive from Zenodo,
verifies it against an optional MD5 checksum, and extracts the v2 registry
JSON as a gzipped snapshot ready for transform ror.`,
	RunE: runFetchROR,
}

func runFetchROR(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		return fmt.Errorf("provide the release archive URL with --url")
	}
	md5sum, _ := cmd.Flags().GetString("md5")
	outDir, _ := cmd.Flags().GetString("output")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	retries, _ := cmd.Flags().GetInt("retries")

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		SnapshotsDir: outDir,
		MaxRetries:   retries,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	path, err := fetch.ROR(context.Background(), client, url, md5sum, outDir, cfg, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("snapshot ready: %s\n", path)
	return nil
}

func init() {
	fetchRORCmd.Flags().String("url", "", "ROR data dump archive URL (Zenodo release)")
	fetchRORCmd.Flags().String("md5", "", "expected archive checksum, optionally prefixed md5:")
	fetchRORCmd.Flags().String("output", "snapshots/ror", "snapshot output directory")
	fetchRORCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 10m)")
	fetchRORCmd.Flags().Int("retries", defaultRetries, "retry attempts for failed downloads")

	fetchCmd.AddCommand(fetchRORCmd)
	rootCmd.AddCommand(fetchCmd)
}
