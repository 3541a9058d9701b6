// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the works-engine CLI.
// Implements: prd105-cli (command surface for prd101-prd104).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the works-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "works-engine",
	Short: "Incremental metadata pipeline for scholarly works",
	Long: `works-engine builds a canonical table of scholarly works from bulk
metadata snapshots (DataCite, OpenAlex, Crossref, the ROR registry, a
dataset-citation corpus) and tracks how that table changes between runs.

Each pipeline stage is a subcommand: fetch, transform, works, state, and
relations. An external orchestrator runs the stages in order and supplies
the run date; works-engine never invents one from the wall clock.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./works-engine.yaml or ~/.config/works-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("works-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "works-engine"))
		}
	}

	viper.SetEnvPrefix("WORKS_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
