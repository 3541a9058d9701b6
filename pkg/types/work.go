// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// Date is a civil date (no time-of-day component). It marshals as
// "YYYY-MM-DD" in both JSON and YAML. Publication dates and run
// identifiers are civil dates; they never carry wall-clock time.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// String returns the date in "YYYY-MM-DD" form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// MarshalJSON encodes the date as a quoted "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("parse date: not a JSON string: %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// WorkTypeOther is the fallback work type assigned when a source provides
// no usable type classification for a work.
const WorkTypeOther = "other"

// Institution is an organization affiliated with a work's authors.
// Per prd102-works R2.3.
type Institution struct {
	// Name is the institution's display name, cleaned of markup.
	Name *string `json:"name" yaml:"name"`

	// ROR is the bare ROR identifier (e.g. "02n415q13"), when known.
	ROR *string `json:"ror" yaml:"ror"`
}

// Author is a person credited on a work. Name parts are parsed from the
// source's name strings; any part may be absent.
// Per prd102-works R2.2.
type Author struct {
	// ORCID is the normalized ORCID identifier, when known.
	ORCID *string `json:"orcid" yaml:"orcid"`

	// FirstInitial is the first letter of the given name.
	FirstInitial *string `json:"firstInitial" yaml:"first_initial"`

	// GivenName is the author's given (first) name.
	GivenName *string `json:"givenName" yaml:"given_name"`

	// MiddleInitials holds the initials of any middle names.
	MiddleInitials *string `json:"middleInitials" yaml:"middle_initials"`

	// MiddleNames holds the author's middle names.
	MiddleNames *string `json:"middleNames" yaml:"middle_names"`

	// Surname is the author's family name.
	Surname *string `json:"surname" yaml:"surname"`

	// Full is the full display name as provided by the source.
	Full *string `json:"full" yaml:"full"`
}

// Funder is an organization that funded a work.
// Per prd102-works R2.4.
type Funder struct {
	// Name is the funder's display name.
	Name *string `json:"name" yaml:"name"`

	// ROR is the funder's ROR identifier, when resolvable.
	ROR *string `json:"ror" yaml:"ror"`
}

// Award is a grant or award identifier attached to a work.
// Per prd102-works R2.5.
type Award struct {
	// AwardID is the source-provided grant identifier.
	AwardID *string `json:"awardId" yaml:"award_id"`
}

// Source identifies which upstream dataset produced a work record.
type Source struct {
	// Name is the dataset name (e.g. "datacite", "openalex", "crossref").
	Name *string `json:"name" yaml:"name"`

	// URL is the dataset's landing URL.
	URL *string `json:"url" yaml:"url"`
}

// Work is the canonical, deduplicated record for one DOI, merged across
// sources. List fields are always non-nil; an empty slice means the source
// had no data, which is distinct from the field being unknown.
// Per prd102-works R1.1-R1.3, R2.1.
type Work struct {
	// DOI is the lowercased Digital Object Identifier, the record key.
	DOI string `json:"doi" yaml:"doi"`

	// Hash is the content hash over the semantic fields (see works.HashWork).
	// Excluded from its own digest input.
	Hash string `json:"hash" yaml:"hash"`

	// Title is the work title, cleaned of markup.
	Title *string `json:"title" yaml:"title"`

	// Abstract is the work abstract, cleaned of markup.
	Abstract *string `json:"abstractText" yaml:"abstract_text"`

	// WorkType classifies the work (e.g. "dataset", "article"); defaults
	// to WorkTypeOther when the source provides none.
	WorkType string `json:"workType" yaml:"work_type"`

	// PublicationDate is the work's publication date, when known.
	PublicationDate *Date `json:"publicationDate" yaml:"publication_date"`

	// UpdatedDate is the source's last-modified timestamp for this record.
	// Bookkeeping only: never part of the content hash.
	UpdatedDate *time.Time `json:"updatedDate" yaml:"updated_date"`

	// PublicationVenue is the journal, repository, or publisher name.
	PublicationVenue *string `json:"publicationVenue" yaml:"publication_venue"`

	// Institutions lists affiliated organizations, sorted by name then ROR.
	Institutions []Institution `json:"institutions" yaml:"institutions"`

	// Authors lists credited people in source order.
	Authors []Author `json:"authors" yaml:"authors"`

	// Funders lists funding organizations, sorted by name then ROR.
	Funders []Funder `json:"funders" yaml:"funders"`

	// Awards lists grant identifiers, sorted.
	Awards []Award `json:"awards" yaml:"awards"`

	// Source identifies the upstream dataset this record was taken from.
	Source Source `json:"source" yaml:"source"`
}
