// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/pdiddy/works-engine/internal/tables"
)

// Corpus transforms a dataset-citation corpus snapshot into citation
// pairs. Each record links a publication to a dataset it cites; rows
// missing either side are skipped and counted. DOI extraction happens
// later, in the relation extractor, so raw identifier forms survive here.
func Corpus(snapshotDir string, out io.Writer) ([]tables.CorpusCitationRow, *Summary, error) {
	paths, err := tables.Glob(snapshotDir, "**/*.{json,jsonl}{,.gz}")
	if err != nil {
		return nil, nil, err
	}

	var rows []tables.CorpusCitationRow
	summary := &Summary{}
	for _, path := range paths {
		records, err := tables.ReadJSONL[corpusJSON](path)
		if err != nil {
			return nil, nil, err
		}
		before := len(rows)
		for _, rec := range records {
			publication := CleanString(rec.Publication)
			dataset := CleanString(rec.Dataset)
			if publication == nil || dataset == nil {
				summary.Skipped++
				continue
			}
			rows = append(rows, tables.CorpusCitationRow{
				PublicationID: *publication,
				DatasetID:     *dataset,
			})
			summary.Works++
		}
		summary.Files++
		fmt.Fprintf(out, "  %s: %d citations\n", filepath.Base(path), len(rows)-before)
	}
	return rows, summary, nil
}

// --- dataset-citation corpus JSON types ---

type corpusJSON struct {
	Publication string `json:"publication"`
	Dataset     string `json:"dataset"`
}
