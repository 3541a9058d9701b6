// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package works assembles canonical work records from per-source tables
// and computes their content hashes. The build is a pure left-join: one
// output record per primary row, empty-list defaults for missing
// supplements, and a fixed fallback work type.
// Implements: prd102-works (R1-R3); docs/ARCHITECTURE § Works Build.
package works

import (
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/works-engine/internal/identifier"
	"github.com/pdiddy/works-engine/internal/tables"
	"github.com/pdiddy/works-engine/pkg/types"
)

// Supplements are the optional per-source tables left-joined onto the
// primary works table by DOI. Any of them may be empty.
type Supplements struct {
	Types        []tables.TypeRow
	Updated      []tables.UpdatedRow
	Institutions []tables.InstitutionRow
	Authors      []tables.AuthorRow
	Funders      []tables.FunderRow
	Awards       []tables.AwardRow
}

// Build assembles one canonical Work per primary row. Output cardinality
// equals input cardinality and order follows the primary table. List
// fields are always non-nil; a missing type classification falls back to
// types.WorkTypeOther. Funder identifiers are resolved to ROR ids via
// idx (may be nil when no registry snapshot is loaded). A primary row
// without a DOI is a schema error: the build aborts.
func Build(primary []tables.WorkRow, sup Supplements, idx *identifier.Index) ([]types.Work, error) {
	typesByDOI := make(map[string]string, len(sup.Types))
	for _, row := range sup.Types {
		if _, ok := typesByDOI[row.DOI]; !ok {
			typesByDOI[row.DOI] = row.WorkType
		}
	}

	updatedByDOI := make(map[string]time.Time, len(sup.Updated))
	for _, row := range sup.Updated {
		if cur, ok := updatedByDOI[row.DOI]; !ok || row.Updated.After(cur) {
			updatedByDOI[row.DOI] = row.Updated
		}
	}

	instByDOI := groupBy(sup.Institutions, func(r tables.InstitutionRow) string { return r.DOI })
	authorsByDOI := groupBy(sup.Authors, func(r tables.AuthorRow) string { return r.DOI })
	fundersByDOI := groupBy(sup.Funders, func(r tables.FunderRow) string { return r.DOI })
	awardsByDOI := groupBy(sup.Awards, func(r tables.AwardRow) string { return r.DOI })

	out := make([]types.Work, 0, len(primary))
	for i, row := range primary {
		if row.DOI == "" {
			return nil, fmt.Errorf("primary works row %d: missing doi", i)
		}

		w := types.Work{
			DOI:              row.DOI,
			Title:            row.Title,
			Abstract:         row.Abstract,
			WorkType:         types.WorkTypeOther,
			PublicationDate:  parseDate(row.PublicationDate),
			PublicationVenue: row.PublicationVenue,
			Institutions:     buildInstitutions(instByDOI[row.DOI]),
			Authors:          buildAuthors(authorsByDOI[row.DOI]),
			Funders:          buildFunders(fundersByDOI[row.DOI], idx),
			Awards:           buildAwards(awardsByDOI[row.DOI]),
			Source: types.Source{
				Name: strPtr(row.SourceName),
				URL:  strPtr(row.SourceURL),
			},
		}
		if wt, ok := typesByDOI[row.DOI]; ok {
			w.WorkType = wt
		}
		if ts, ok := updatedByDOI[row.DOI]; ok {
			t := ts
			w.UpdatedDate = &t
		}
		w.Hash = HashWork(w)
		out = append(out, w)
	}
	return out, nil
}

// Merge deduplicates works across sources. Earlier arguments win: the
// first record seen for a DOI is kept whole, later ones are dropped.
// Output is sorted by DOI.
func Merge(sources ...[]types.Work) []types.Work {
	seen := map[string]bool{}
	var out []types.Work
	for _, source := range sources {
		for _, w := range source {
			if seen[w.DOI] {
				continue
			}
			seen[w.DOI] = true
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DOI < out[j].DOI })
	return out
}

// PresentSet projects works onto the (doi, hash) pairs the diff engine
// consumes.
func PresentSet(works []types.Work) []types.Present {
	out := make([]types.Present, 0, len(works))
	for _, w := range works {
		out = append(out, types.Present{DOI: w.DOI, Hash: w.Hash})
	}
	return out
}

func buildInstitutions(rows []tables.InstitutionRow) []types.Institution {
	out := make([]types.Institution, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Institution{Name: r.Name, ROR: r.ROR})
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := deref(out[i].Name), deref(out[j].Name); a != b {
			return a < b
		}
		return deref(out[i].ROR) < deref(out[j].ROR)
	})
	return dedupeInstitutions(out)
}

func dedupeInstitutions(in []types.Institution) []types.Institution {
	out := in[:0]
	for i, v := range in {
		if i > 0 && deref(v.Name) == deref(in[i-1].Name) && deref(v.ROR) == deref(in[i-1].ROR) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// buildAuthors keeps the source's author order via the position column.
func buildAuthors(rows []tables.AuthorRow) []types.Author {
	sorted := make([]tables.AuthorRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	out := make([]types.Author, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, types.Author{
			ORCID:          r.ORCID,
			FirstInitial:   r.FirstInitial,
			GivenName:      r.GivenName,
			MiddleInitials: r.MiddleInitials,
			MiddleNames:    r.MiddleNames,
			Surname:        r.Surname,
			Full:           r.Full,
		})
	}
	return out
}

func buildFunders(rows []tables.FunderRow, idx *identifier.Index) []types.Funder {
	out := make([]types.Funder, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Funder{Name: r.Name, ROR: resolveFunderROR(r.Identifier, idx)})
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := deref(out[i].Name), deref(out[j].Name); a != b {
			return a < b
		}
		return deref(out[i].ROR) < deref(out[j].ROR)
	})

	deduped := out[:0]
	for i, v := range out {
		if i > 0 && deref(v.Name) == deref(out[i-1].Name) && deref(v.ROR) == deref(out[i-1].ROR) {
			continue
		}
		deduped = append(deduped, v)
	}
	return deduped
}

// resolveFunderROR maps a normalized funder identifier (FundRef DOI form,
// ROR, ISNI, or anything else the source carried) to a bare ROR id. The
// identifier's family is not recorded in the table, so each family's
// normalization is tried in turn.
func resolveFunderROR(ident *string, idx *identifier.Index) *string {
	if ident == nil || idx == nil {
		return nil
	}
	for _, kind := range []identifier.Kind{identifier.KindROR, identifier.KindISNI, identifier.KindFundRef, identifier.KindOther} {
		if ror, ok := idx.Lookup(kind, *ident); ok {
			return &ror
		}
	}
	return nil
}

func buildAwards(rows []tables.AwardRow) []types.Award {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.AwardID)
	}
	sort.Strings(ids)

	out := make([]types.Award, 0, len(ids))
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		v := id
		out = append(out, types.Award{AwardID: &v})
	}
	return out
}

func parseDate(s *string) *types.Date {
	if s == nil {
		return nil
	}
	d, err := types.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &d
}

func groupBy[T any](rows []T, key func(T) string) map[string][]T {
	out := make(map[string][]T)
	for _, r := range rows {
		k := key(r)
		out[k] = append(out[k], r)
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
