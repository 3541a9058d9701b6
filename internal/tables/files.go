// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tables

import (
	"fmt"
	"os"
	"path/filepath"
)

// Table file names within one source's table directory. Every source
// transform writes the same layout; sources without data for a table
// write it empty, so downstream stages read a uniform tree.
const (
	FileWorks             = "works.jsonl"
	FileTypes             = "types.jsonl"
	FileUpdated           = "updated.jsonl"
	FileInstitutions      = "institutions.jsonl"
	FileAuthors           = "authors.jsonl"
	FileFunders           = "funders.jsonl"
	FileAwards            = "awards.jsonl"
	FileDataCiteRelations = "relations_datacite.jsonl"
	FileCrossrefRelations = "relations_crossref.jsonl"

	// FileIdentifiers holds the ROR external-identifier table; it lives in
	// the registry's own table directory, not a work source's.
	FileIdentifiers = "identifiers.jsonl"

	// FileCorpusCitations holds the dataset-citation pairs.
	FileCorpusCitations = "citations.jsonl"
)

// WriteSourceTables writes every table of one source transform under dir.
func WriteSourceTables(dir string, t *SourceTables) error {
	steps := []struct {
		file  string
		write func(path string) error
	}{
		{FileWorks, func(p string) error { return WriteJSONL(p, t.Works) }},
		{FileTypes, func(p string) error { return WriteJSONL(p, t.Types) }},
		{FileUpdated, func(p string) error { return WriteJSONL(p, t.Updated) }},
		{FileInstitutions, func(p string) error { return WriteJSONL(p, t.Institutions) }},
		{FileAuthors, func(p string) error { return WriteJSONL(p, t.Authors) }},
		{FileFunders, func(p string) error { return WriteJSONL(p, t.Funders) }},
		{FileAwards, func(p string) error { return WriteJSONL(p, t.Awards) }},
		{FileDataCiteRelations, func(p string) error { return WriteJSONL(p, t.DataCiteRelations) }},
		{FileCrossrefRelations, func(p string) error { return WriteJSONL(p, t.CrossrefRelations) }},
	}
	for _, step := range steps {
		if err := step.write(filepath.Join(dir, step.file)); err != nil {
			return fmt.Errorf("writing %s: %w", step.file, err)
		}
	}
	return nil
}

// ReadSourceTables reads one source's table directory back. The works
// table must exist (its absence means the source was never transformed,
// reported via fs.ErrNotExist); supplemental tables default to empty.
func ReadSourceTables(dir string) (*SourceTables, error) {
	if _, err := os.Stat(filepath.Join(dir, FileWorks)); err != nil {
		return nil, err
	}

	var t SourceTables
	var err error
	if t.Works, err = ReadJSONL[WorkRow](filepath.Join(dir, FileWorks)); err != nil {
		return nil, err
	}
	if t.Types, err = readIfPresent[TypeRow](filepath.Join(dir, FileTypes)); err != nil {
		return nil, err
	}
	if t.Updated, err = readIfPresent[UpdatedRow](filepath.Join(dir, FileUpdated)); err != nil {
		return nil, err
	}
	if t.Institutions, err = readIfPresent[InstitutionRow](filepath.Join(dir, FileInstitutions)); err != nil {
		return nil, err
	}
	if t.Authors, err = readIfPresent[AuthorRow](filepath.Join(dir, FileAuthors)); err != nil {
		return nil, err
	}
	if t.Funders, err = readIfPresent[FunderRow](filepath.Join(dir, FileFunders)); err != nil {
		return nil, err
	}
	if t.Awards, err = readIfPresent[AwardRow](filepath.Join(dir, FileAwards)); err != nil {
		return nil, err
	}
	if t.DataCiteRelations, err = readIfPresent[DataCiteRelationRow](filepath.Join(dir, FileDataCiteRelations)); err != nil {
		return nil, err
	}
	if t.CrossrefRelations, err = readIfPresent[CrossrefRelationRow](filepath.Join(dir, FileCrossrefRelations)); err != nil {
		return nil, err
	}
	return &t, nil
}

func readIfPresent[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return ReadJSONL[T](path)
}
