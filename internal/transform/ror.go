// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/works-engine/internal/identifier"
	"github.com/pdiddy/works-engine/internal/tables"
)

// ROR transforms a ROR registry snapshot (a single v2 JSON array, plain or
// gzipped) into identifier rows: one reflexive row per organization plus
// one row per external identifier (ISNI, FundRef, GRID, Wikidata). The
// works build resolves funder identifiers against these rows.
func ROR(snapshotDir string, out io.Writer) ([]tables.IdentifierRow, *Summary, error) {
	paths, err := tables.Glob(snapshotDir, "**/*.json{,.gz}")
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no ROR registry JSON found under %s", snapshotDir)
	}

	var rows []tables.IdentifierRow
	summary := &Summary{}
	for _, path := range paths {
		orgs, err := readRORFile(path)
		if err != nil {
			return nil, nil, err
		}
		before := len(rows)
		for _, org := range orgs {
			rows = appendRORRows(rows, org, summary)
		}
		summary.Files++
		fmt.Fprintf(out, "  %s: %d organizations, %d identifiers\n", filepath.Base(path), len(orgs), len(rows)-before)
	}
	return rows, summary, nil
}

func appendRORRows(rows []tables.IdentifierRow, org rorOrgJSON, summary *Summary) []tables.IdentifierRow {
	ror := identifier.Normalize(identifier.KindROR, org.ID)
	if ror == nil {
		summary.Skipped++
		return rows
	}
	summary.Works++

	rows = append(rows, tables.IdentifierRow{
		Identifier: *ror,
		Kind:       identifier.KindROR.String(),
		ROR:        *ror,
	})

	for _, ext := range org.ExternalIDs {
		kind := rorExternalKind(ext.Type)
		seen := map[string]bool{}
		for _, raw := range append(ext.All, deref(ext.Preferred)) {
			norm := identifier.Normalize(kind, raw)
			if norm == nil || seen[*norm] {
				continue
			}
			seen[*norm] = true
			rows = append(rows, tables.IdentifierRow{
				Identifier: *norm,
				Kind:       kind.String(),
				ROR:        *ror,
			})
		}
	}
	return rows
}

// rorExternalKind maps a ROR external_ids type to an identifier family.
func rorExternalKind(extType string) identifier.Kind {
	switch strings.ToLower(strings.TrimSpace(extType)) {
	case "isni":
		return identifier.KindISNI
	case "fundref":
		return identifier.KindFundRef
	default:
		return identifier.KindOther
	}
}

// BuildIndex loads identifier rows into a lookup index. Reflexive ROR rows
// register both the bare and the URL spelling.
func BuildIndex(rows []tables.IdentifierRow) *identifier.Index {
	idx := identifier.NewIndex()
	for _, row := range rows {
		kind := identifier.ParseKind(row.Kind)
		if kind == identifier.KindROR {
			idx.AddROR(row.ROR)
			continue
		}
		idx.Add(kind, row.Identifier, row.ROR)
	}
	return idx
}

func readRORFile(path string) ([]rorOrgJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, &tables.SchemaError{File: path, Err: err}
		}
		defer gz.Close()
		r = gz
	}

	var orgs []rorOrgJSON
	if err := json.NewDecoder(r).Decode(&orgs); err != nil {
		return nil, &tables.SchemaError{File: path, Err: err}
	}
	return orgs, nil
}

// --- ROR registry v2 JSON types ---

type rorOrgJSON struct {
	ID          string            `json:"id"`
	ExternalIDs []rorExternalJSON `json:"external_ids"`
}

type rorExternalJSON struct {
	Type      string   `json:"type"`
	All       []string `json:"all"`
	Preferred *string  `json:"preferred"`
}
