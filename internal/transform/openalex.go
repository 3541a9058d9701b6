// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdiddy/works-engine/internal/identifier"
	"github.com/pdiddy/works-engine/internal/tables"
)

const (
	openalexSourceName = "openalex"
	openalexSourceURL  = "https://openalex.org"
)

// OpenAlex transforms an OpenAlex works snapshot into canonicalized table
// rows. Records without an extractable DOI, and xpac records, are skipped
// and counted.
func OpenAlex(snapshotDir string, out io.Writer) (*tables.SourceTables, *Summary, error) {
	paths, err := tables.Glob(snapshotDir, "**/*.{jsonl,gz}")
	if err != nil {
		return nil, nil, err
	}

	st := &tables.SourceTables{}
	summary := &Summary{}
	for _, path := range paths {
		records, err := tables.ReadJSONL[openalexJSON](path)
		if err != nil {
			return nil, nil, err
		}
		before := summary.Works
		for _, rec := range records {
			transformOpenAlexRecord(rec, st, summary)
		}
		summary.Files++
		fmt.Fprintf(out, "  %s: %d works\n", filepath.Base(path), summary.Works-before)
	}
	return st, summary, nil
}

func transformOpenAlexRecord(rec openalexJSON, st *tables.SourceTables, summary *Summary) {
	doi := identifier.ExtractDOI(deref(rec.DOI))
	if doi == nil || rec.IsXpac {
		summary.Skipped++
		return
	}

	var title *string
	if rec.Title != nil {
		title = StripMarkup(*rec.Title)
	}

	st.Works = append(st.Works, tables.WorkRow{
		DOI:              *doi,
		Title:            title,
		Abstract:         RevertInvertedIndex(rec.AbstractInvertedIndex),
		PublicationDate:  calendarDate(rec.PublicationDate),
		PublicationVenue: openalexVenue(rec.PrimaryLocation),
		SourceName:       openalexSourceName,
		SourceURL:        openalexSourceURL,
	})
	summary.Works++

	if wt := cleanOpt(rec.Type); wt != nil {
		st.Types = append(st.Types, tables.TypeRow{DOI: *doi, WorkType: *wt})
	}
	if ts := timestamp(rec.UpdatedDate); ts != nil {
		st.Updated = append(st.Updated, tables.UpdatedRow{DOI: *doi, Updated: *ts})
	}

	appendOpenAlexAuthorships(*doi, rec.Authorships, st)
	appendOpenAlexFunding(*doi, rec.Funders, rec.Awards, st)
}

func openalexVenue(loc *openalexLocationJSON) *string {
	if loc == nil || loc.Source == nil {
		return nil
	}
	return cleanOpt(loc.Source.DisplayName)
}

// appendOpenAlexAuthorships emits author rows (name parsed from the
// display name, ORCID normalized) and institution rows, both deduplicated
// per work.
func appendOpenAlexAuthorships(doi string, authorships []openalexAuthorshipJSON, st *tables.SourceTables) {
	authorSeen := map[authorKey]bool{}
	instSeen := map[institutionKey]bool{}
	position := 0
	for _, as := range authorships {
		orcid := identifier.ExtractORCID(deref(as.Author.ORCID))
		parts := ParseName(deref(as.Author.DisplayName))
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

		for _, inst := range as.Institutions {
			row := tables.InstitutionRow{
				DOI:  doi,
				Name: cleanOpt(inst.DisplayName),
				ROR:  identifier.ExtractROR(deref(inst.ROR)),
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

// appendOpenAlexFunding emits funder rows from the funders array and award
// rows from the awards array, splitting comma-separated funder award ids.
func appendOpenAlexFunding(doi string, funders []openalexFunderJSON, awards []openalexAwardJSON, st *tables.SourceTables) {
	funderSeen := map[string]bool{}
	for _, f := range funders {
		name := cleanOpt(f.DisplayName)
		var ident *string
		if ror := identifier.Normalize(identifier.KindROR, deref(f.ROR)); ror != nil {
			ident = ror
		} else if id := identifier.Normalize(identifier.KindOther, deref(f.ID)); id != nil {
			ident = id
		}
		if name == nil && ident == nil {
			continue
		}
		key := deref(name) + "\x00" + deref(ident)
		if !funderSeen[key] {
			funderSeen[key] = true
			st.Funders = append(st.Funders, tables.FunderRow{DOI: doi, Name: name, Identifier: ident})
		}
	}

	awardSeen := map[string]bool{}
	for _, a := range awards {
		for _, part := range strings.Split(deref(a.FunderAwardID), ",") {
			if award := CleanString(part); award != nil && !awardSeen[*award] {
				awardSeen[*award] = true
				st.Awards = append(st.Awards, tables.AwardRow{DOI: doi, AwardID: *award})
			}
		}
	}
}

// --- OpenAlex record JSON types ---

type openalexJSON struct {
	DOI                   *string                  `json:"doi"`
	IsXpac                bool                     `json:"is_xpac"`
	Title                 *string                  `json:"title"`
	Type                  *string                  `json:"type"`
	PublicationDate       *string                  `json:"publication_date"`
	UpdatedDate           *string                  `json:"updated_date"`
	AbstractInvertedIndex map[string][]int         `json:"abstract_inverted_index"`
	PrimaryLocation       *openalexLocationJSON    `json:"primary_location"`
	Authorships           []openalexAuthorshipJSON `json:"authorships"`
	Funders               []openalexFunderJSON     `json:"funders"`
	Awards                []openalexAwardJSON      `json:"awards"`
}

type openalexLocationJSON struct {
	Source *openalexVenueJSON `json:"source"`
}

type openalexVenueJSON struct {
	DisplayName *string `json:"display_name"`
}

type openalexAuthorshipJSON struct {
	Author       openalexAuthorJSON        `json:"author"`
	Institutions []openalexInstitutionJSON `json:"institutions"`
}

type openalexAuthorJSON struct {
	ORCID       *string `json:"orcid"`
	DisplayName *string `json:"display_name"`
}

type openalexInstitutionJSON struct {
	DisplayName *string `json:"display_name"`
	ROR         *string `json:"ror"`
}

type openalexFunderJSON struct {
	ID          *string `json:"id"`
	DisplayName *string `json:"display_name"`
	ROR         *string `json:"ror"`
}

type openalexAwardJSON struct {
	FunderAwardID *string `json:"funder_award_id"`
}
