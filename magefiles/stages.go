//go:build mage

package main

import "github.com/magefile/mage/mg"

// Fetch downloads a ROR registry release archive into snapshots/ror.
// See prd101-sources for full requirements.
func Fetch(url string) error {
	mg.Deps(Build)
	return runEngine("fetch", "ror", "--url", url)
}

// Transform converts every source snapshot into canonical tables.
// See prd101-sources for full requirements.
func Transform() error {
	mg.Deps(Build)
	for _, source := range []string{"datacite", "openalex", "crossref", "ror", "corpus"} {
		if err := runEngine("transform", source); err != nil {
			return err
		}
	}
	return nil
}

// Works builds the merged canonical works table from the transformed tables.
// See prd102-works for full requirements.
func Works() error {
	mg.Deps(Build)
	return runEngine("works", "build")
}

// State diffs the works table against recorded state and exports the run's
// changeset. See prd103-state for full requirements.
func State(runDate string) error {
	mg.Deps(Build)
	if err := runEngine("state", "diff", "--run-date", runDate); err != nil {
		return err
	}
	return runEngine("state", "export", "--run-date", runDate)
}

// Relations builds the aggregated DOI relation index.
// See prd104-relations for full requirements.
func Relations() error {
	mg.Deps(Build)
	return runEngine("relations", "build")
}
