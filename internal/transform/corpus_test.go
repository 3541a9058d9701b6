// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"bytes"
	"testing"
)

func TestCorpusTransform(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "citations/part_000.jsonl.gz",
		`{"publication": "https://doi.org/10.1038/s41586-1", "dataset": "10.5061/dryad.abc"}`,
		`{"publication": "10.1038/s41586-2", "dataset": ""}`,
		`{"publication": "", "dataset": "10.5061/dryad.def"}`,
	)

	rows, summary, err := Corpus(dir, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	if summary.Works != 1 || summary.Skipped != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].PublicationID != "https://doi.org/10.1038/s41586-1" || rows[0].DatasetID != "10.5061/dryad.abc" {
		t.Errorf("row = %+v", rows[0])
	}
}
