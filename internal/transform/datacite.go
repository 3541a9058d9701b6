// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/works-engine/internal/identifier"
	"github.com/pdiddy/works-engine/internal/tables"
)

const (
	dataciteSourceName = "datacite"
	dataciteSourceURL  = "https://datacite.org"
)

// dataciteNullDescriptions are placeholder description values DataCite
// records carry when no abstract exists.
var dataciteNullDescriptions = []string{":unav", "Cover title."}

// DataCite transforms a DataCite snapshot (JSONL files under snapshotDir)
// into canonicalized table rows. Records without an extractable DOI are
// skipped and counted.
func DataCite(snapshotDir string, out io.Writer) (*tables.SourceTables, *Summary, error) {
	paths, err := tables.Glob(snapshotDir, "**/*.jsonl{,.gz}")
	if err != nil {
		return nil, nil, err
	}

	st := &tables.SourceTables{}
	summary := &Summary{}
	for _, path := range paths {
		records, err := tables.ReadJSONL[dataciteJSON](path)
		if err != nil {
			return nil, nil, err
		}
		before := summary.Works
		for _, rec := range records {
			transformDataCiteRecord(rec, st, summary)
		}
		summary.Files++
		fmt.Fprintf(out, "  %s: %d works\n", filepath.Base(path), summary.Works-before)
	}
	return st, summary, nil
}

func transformDataCiteRecord(rec dataciteJSON, st *tables.SourceTables, summary *Summary) {
	doi := identifier.ExtractDOI(rec.ID)
	if doi == nil {
		summary.Skipped++
		return
	}
	attrs := rec.Attributes

	st.Works = append(st.Works, tables.WorkRow{
		DOI:              *doi,
		Title:            firstStripped(titleStrings(attrs.Titles)),
		Abstract:         firstStripped(descriptionStrings(attrs.Descriptions), dataciteNullDescriptions...),
		PublicationDate:  calendarDate(attrs.Created),
		PublicationVenue: cleanOpt(attrs.Publisher.Name()),
		SourceName:       dataciteSourceName,
		SourceURL:        dataciteSourceURL,
	})
	summary.Works++

	if wt := cleanOpt(attrs.Types.ResourceTypeGeneral); wt != nil {
		st.Types = append(st.Types, tables.TypeRow{DOI: *doi, WorkType: *wt})
	}
	if ts := timestamp(attrs.Updated); ts != nil {
		st.Updated = append(st.Updated, tables.UpdatedRow{DOI: *doi, Updated: *ts})
	}

	appendDataCiteCreators(*doi, attrs.Creators, st)
	appendDataCiteFunders(*doi, attrs.FundingReferences, st)

	for _, rel := range attrs.RelatedIdentifiers {
		row := tables.DataCiteRelationRow{DOI: *doi, RelationType: strings.TrimSpace(rel.RelationType)}
		if relDOI := identifier.ExtractDOI(rel.RelatedIdentifier); relDOI != nil {
			row.RelatedIdentifier = *relDOI
			row.RelatedIDType = "DOI"
		} else {
			if norm := identifier.Normalize(identifier.KindOther, rel.RelatedIdentifier); norm != nil {
				row.RelatedIdentifier = *norm
			}
			row.RelatedIDType = strings.TrimSpace(rel.RelatedIDType)
		}
		if row.RelationType == "" && row.RelatedIdentifier == "" && row.RelatedIDType == "" {
			continue
		}
		st.DataCiteRelations = append(st.DataCiteRelations, row)
		summary.Relations++
	}
}

// appendDataCiteCreators emits author and institution rows from creators
// with nameType "Personal". Both sets are deduplicated per work.
func appendDataCiteCreators(doi string, creators []dataciteCreatorJSON, st *tables.SourceTables) {
	authorSeen := map[authorKey]bool{}
	instSeen := map[institutionKey]bool{}
	position := 0
	for _, creator := range creators {
		if creator.NameType != "Personal" {
			continue
		}

		parts := ParseAuthorName(creator.GivenName, creator.FamilyName, creator.Name)
		orcid := firstORCID(creator.NameIdentifiers)
		if orcid != nil || !parts.Empty() {
			row := tables.AuthorRow{
				DOI:            doi,
				Position:       position,
				ORCID:          orcid,
				FirstInitial:   parts.FirstInitial,
				GivenName:      parts.GivenName,
				MiddleInitials: parts.MiddleInitials,
				MiddleNames:    parts.MiddleNames,
				Surname:        parts.Surname,
				Full:           parts.Full,
			}
			if key := authorKeyOf(row); !authorSeen[key] {
				authorSeen[key] = true
				st.Authors = append(st.Authors, row)
				position++
			}
		}

		for _, aff := range creator.Affiliations {
			row := tables.InstitutionRow{
				DOI:  doi,
				Name: cleanOpt(aff.Name),
				ROR:  identifier.ExtractROR(deref(aff.AffiliationIdentifier)),
			}
			if row.Name == nil && row.ROR == nil {
				continue
			}
			if key := institutionKeyOf(row); !instSeen[key] {
				instSeen[key] = true
				st.Institutions = append(st.Institutions, row)
			}
		}
	}
}

// appendDataCiteFunders emits funder rows (deduplicated) and one award row
// per comma-separated award number. Funder identifiers are normalized
// according to their declared scheme so the works build can resolve them
// against the ROR index.
func appendDataCiteFunders(doi string, refs []dataciteFundingJSON, st *tables.SourceTables) {
	funderSeen := map[string]bool{}
	awardSeen := map[string]bool{}
	for _, ref := range refs {
		var ident *string
		if ref.FunderIdentifier != nil {
			ident = identifier.Normalize(funderIdentifierKind(ref.FunderIdentifierType), *ref.FunderIdentifier)
		}
		name := cleanOpt(ref.FunderName)
		if name != nil || ident != nil {
			key := deref(name) + "\x00" + deref(ident)
			if !funderSeen[key] {
				funderSeen[key] = true
				st.Funders = append(st.Funders, tables.FunderRow{DOI: doi, Name: name, Identifier: ident})
			}
		}

		for _, part := range strings.Split(deref(ref.AwardNumber), ",") {
			if award := CleanString(part); award != nil && !awardSeen[*award] {
				awardSeen[*award] = true
				st.Awards = append(st.Awards, tables.AwardRow{DOI: doi, AwardID: *award})
			}
		}
	}
}

// funderIdentifierKind maps a DataCite funderIdentifierType to the
// identifier family used for normalization.
func funderIdentifierKind(identifierType *string) identifier.Kind {
	switch strings.ToLower(strings.TrimSpace(deref(identifierType))) {
	case "crossref funder id":
		return identifier.KindFundRef
	case "ror":
		return identifier.KindROR
	case "isni":
		return identifier.KindISNI
	default:
		return identifier.KindOther
	}
}

func firstORCID(ids []dataciteNameIdentifierJSON) *string {
	for _, id := range ids {
		if orcid := identifier.ExtractORCID(id.NameIdentifier); orcid != nil {
			return orcid
		}
	}
	return nil
}

// firstStripped returns the first value that survives markup stripping.
func firstStripped(values []string, nullIfEquals ...string) *string {
	for _, v := range values {
		if s := StripMarkup(v, nullIfEquals...); s != nil {
			return s
		}
	}
	return nil
}

func titleStrings(titles []dataciteTitleJSON) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if t.Title != nil {
			out = append(out, *t.Title)
		}
	}
	return out
}

func descriptionStrings(descriptions []dataciteDescriptionJSON) []string {
	out := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		if d.Description != nil {
			out = append(out, *d.Description)
		}
	}
	return out
}

// calendarDate reduces an ISO 8601 date or datetime string to "YYYY-MM-DD",
// or nil when it does not parse.
func calendarDate(value *string) *string {
	s := strings.TrimSpace(deref(value))
	if len(s) < 10 {
		return nil
	}
	day := s[:10]
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil
	}
	return &day
}

// timestamp parses an ISO 8601 datetime, or a bare date at midnight UTC.
func timestamp(value *string) *time.Time {
	s := strings.TrimSpace(deref(value))
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// authorKey identifies an author row for per-work deduplication. Pointer
// fields collapse to empty strings; cleaned fields are never empty, so no
// two distinct rows collide.
type authorKey struct {
	orcid, firstInitial, given, middleInitials, middleNames, surname, full string
}

func authorKeyOf(row tables.AuthorRow) authorKey {
	return authorKey{
		orcid:          deref(row.ORCID),
		firstInitial:   deref(row.FirstInitial),
		given:          deref(row.GivenName),
		middleInitials: deref(row.MiddleInitials),
		middleNames:    deref(row.MiddleNames),
		surname:        deref(row.Surname),
		full:           deref(row.Full),
	}
}

type institutionKey struct {
	name, ror string
}

func institutionKeyOf(row tables.InstitutionRow) institutionKey {
	return institutionKey{name: deref(row.Name), ror: deref(row.ROR)}
}

// --- DataCite record JSON types ---

type dataciteJSON struct {
	ID         string                 `json:"id"`
	Attributes dataciteAttributesJSON `json:"attributes"`
}

type dataciteAttributesJSON struct {
	Titles             []dataciteTitleJSON       `json:"titles"`
	Descriptions       []dataciteDescriptionJSON `json:"descriptions"`
	Types              dataciteTypesJSON         `json:"types"`
	Created            *string                   `json:"created"`
	Updated            *string                   `json:"updated"`
	Publisher          datacitePublisherJSON     `json:"publisher"`
	Creators           []dataciteCreatorJSON     `json:"creators"`
	FundingReferences  []dataciteFundingJSON     `json:"fundingReferences"`
	RelatedIdentifiers []dataciteRelatedIDJSON   `json:"relatedIdentifiers"`
}

type dataciteTitleJSON struct {
	Title *string `json:"title"`
}

type dataciteDescriptionJSON struct {
	Description *string `json:"description"`
}

type dataciteTypesJSON struct {
	ResourceTypeGeneral *string `json:"resourceTypeGeneral"`
}

// datacitePublisherJSON tolerates both publisher shapes: schema 4.5 emits
// an object with a name, earlier records a bare string.
type datacitePublisherJSON struct {
	raw json.RawMessage
}

func (p *datacitePublisherJSON) UnmarshalJSON(b []byte) error {
	p.raw = append(p.raw[:0], b...)
	return nil
}

func (p datacitePublisherJSON) Name() *string {
	if len(p.raw) == 0 {
		return nil
	}
	var obj struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(p.raw, &obj); err == nil && obj.Name != nil {
		return obj.Name
	}
	var s string
	if err := json.Unmarshal(p.raw, &s); err == nil {
		return &s
	}
	return nil
}

type dataciteCreatorJSON struct {
	Name            *string                               `json:"name"`
	NameType        string                                `json:"nameType"`
	GivenName       *string                               `json:"givenName"`
	FamilyName      *string                               `json:"familyName"`
	NameIdentifiers oneOrMany[dataciteNameIdentifierJSON] `json:"nameIdentifiers"`
	Affiliations    oneOrMany[dataciteAffiliationJSON]    `json:"affiliation"`
}

type dataciteNameIdentifierJSON struct {
	NameIdentifier string `json:"nameIdentifier"`
}

type dataciteAffiliationJSON struct {
	Name                  *string `json:"name"`
	AffiliationIdentifier *string `json:"affiliationIdentifier"`
}

type dataciteFundingJSON struct {
	FunderName           *string `json:"funderName"`
	FunderIdentifier     *string `json:"funderIdentifier"`
	FunderIdentifierType *string `json:"funderIdentifierType"`
	AwardNumber          *string `json:"awardNumber"`
}

type dataciteRelatedIDJSON struct {
	RelatedIdentifier string `json:"relatedIdentifier"`
	RelatedIDType     string `json:"relatedIdentifierType"`
	RelationType      string `json:"relationType"`
}
