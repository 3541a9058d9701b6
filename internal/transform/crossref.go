// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/works-engine/internal/identifier"
	"github.com/pdiddy/works-engine/internal/tables"
)

const (
	crossrefSourceName = "crossref"
	crossrefSourceURL  = "https://www.crossref.org"
)

// Crossref transforms a Crossref metadata snapshot into canonicalized
// table rows. Crossref carries no type classification, venue, or author
// affiliations in this pipeline; it contributes scalar fields, funders,
// awards, and its relation map.
func Crossref(snapshotDir string, out io.Writer) (*tables.SourceTables, *Summary, error) {
	paths, err := tables.Glob(snapshotDir, "**/*.jsonl{,.gz}")
	if err != nil {
		return nil, nil, err
	}

	st := &tables.SourceTables{}
	summary := &Summary{}
	for _, path := range paths {
		records, err := tables.ReadJSONL[crossrefJSON](path)
		if err != nil {
			return nil, nil, err
		}
		before := summary.Works
		for _, rec := range records {
			transformCrossrefRecord(rec, st, summary)
		}
		summary.Files++
		fmt.Fprintf(out, "  %s: %d works\n", filepath.Base(path), summary.Works-before)
	}
	return st, summary, nil
}

func transformCrossrefRecord(rec crossrefJSON, st *tables.SourceTables, summary *Summary) {
	doi := identifier.ExtractDOI(rec.DOI)
	if doi == nil {
		summary.Skipped++
		return
	}

	var abstract *string
	if rec.Abstract != nil {
		abstract = StripMarkup(*rec.Abstract)
	}

	st.Works = append(st.Works, tables.WorkRow{
		DOI:        *doi,
		Title:      firstStripped(rec.Title),
		Abstract:   abstract,
		SourceName: crossrefSourceName,
		SourceURL:  crossrefSourceURL,
	})
	summary.Works++

	if rec.Deposited != nil {
		if ts := timestamp(rec.Deposited.DateTime); ts != nil {
			st.Updated = append(st.Updated, tables.UpdatedRow{DOI: *doi, Updated: *ts})
		}
	}

	appendCrossrefFunders(*doi, rec.Funders, st)

	relationTypes := make([]string, 0, len(rec.Relation))
	for relationType := range rec.Relation {
		relationTypes = append(relationTypes, relationType)
	}
	sort.Strings(relationTypes)

	for _, relationType := range relationTypes {
		for _, entry := range rec.Relation[relationType] {
			row := tables.CrossrefRelationRow{
				DOI:          *doi,
				RelationType: strings.TrimSpace(relationType),
				IDType:       strings.TrimSpace(deref(entry.IDType)),
				AssertedBy:   strings.TrimSpace(deref(entry.AssertedBy)),
			}
			if id := identifier.Normalize(identifier.KindOther, deref(entry.ID)); id != nil {
				row.RelatedID = *id
			}
			if row.RelationType == "" && row.RelatedID == "" && row.IDType == "" && row.AssertedBy == "" {
				continue
			}
			st.CrossrefRelations = append(st.CrossrefRelations, row)
			summary.Relations++
		}
	}
}

// appendCrossrefFunders emits funder rows (identifier from the funder DOI,
// which for Crossref is the FundRef DOI) and award rows from comma-split
// award strings.
func appendCrossrefFunders(doi string, funders []crossrefFunderJSON, st *tables.SourceTables) {
	funderSeen := map[string]bool{}
	awardSeen := map[string]bool{}
	for _, f := range funders {
		name := cleanOpt(f.Name)
		var ident *string
		if f.DOI != nil {
			ident = identifier.ExtractDOI(*f.DOI)
		}
		if name != nil || ident != nil {
			key := deref(name) + "\x00" + deref(ident)
			if !funderSeen[key] {
				funderSeen[key] = true
				st.Funders = append(st.Funders, tables.FunderRow{DOI: doi, Name: name, Identifier: ident})
			}
		}

		for _, raw := range f.Award {
			for _, part := range strings.Split(raw, ",") {
				if award := CleanString(part); award != nil && !awardSeen[*award] {
					awardSeen[*award] = true
					st.Awards = append(st.Awards, tables.AwardRow{DOI: doi, AwardID: *award})
				}
			}
		}
	}
}

// --- Crossref record JSON types ---

type crossrefJSON struct {
	DOI       string                            `json:"DOI"`
	Title     []string                          `json:"title"`
	Abstract  *string                           `json:"abstract"`
	Deposited *crossrefDepositedJSON            `json:"deposited"`
	Funders   []crossrefFunderJSON              `json:"funder"`
	Relation  map[string][]crossrefRelationJSON `json:"relation"`
}

type crossrefDepositedJSON struct {
	DateTime *string `json:"date-time"`
}

type crossrefFunderJSON struct {
	Name  *string  `json:"name"`
	DOI   *string  `json:"DOI"`
	Award []string `json:"award"`
}

type crossrefRelationJSON struct {
	ID         *string `json:"id"`
	IDType     *string `json:"id-type"`
	AssertedBy *string `json:"asserted-by"`
}
