//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

// runEngine shells to the built CLI binary with the given arguments.
func runEngine(args ...string) error {
	bin := filepath.Join(binDir, binName)
	fmt.Printf("==> works-engine %s\n", strings.Join(args, " "))
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("works-engine %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// Pipeline runs a full batch for one run date: transform every source
// snapshot, build the works table, diff and export state, and build the
// relation index. The run date is the orchestrator-supplied run id.
// See prd105-cli for full requirements.
func Pipeline(runDate string) error {
	mg.Deps(Build)

	stages := [][]string{
		{"transform", "datacite"},
		{"transform", "openalex"},
		{"transform", "crossref"},
		{"transform", "ror"},
		{"transform", "corpus"},
		{"works", "build"},
		{"state", "diff", "--run-date", runDate},
		{"state", "export", "--run-date", runDate},
		{"relations", "build"},
	}
	for _, stage := range stages {
		if err := runEngine(stage...); err != nil {
			return err
		}
	}
	return nil
}
