// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tables defines the canonicalized table rows exchanged between
// pipeline stages and reads/writes them as JSONL files. Transforms write
// per-source tables; the works and relations builders read them back.
// Implements: prd101-sources (R4.1-R4.4); docs/ARCHITECTURE § Tables.
package tables

import "time"

// WorkRow is one primary-table record: the scalar fields of a work as
// emitted by a source transform. Supplemental rows carry the list fields.
type WorkRow struct {
	DOI              string  `json:"doi"`
	Title            *string `json:"title"`
	Abstract         *string `json:"abstractText"`
	PublicationDate  *string `json:"publicationDate"`
	PublicationVenue *string `json:"publicationVenue"`
	SourceName       string  `json:"sourceName"`
	SourceURL        string  `json:"sourceUrl"`
}

// TypeRow classifies one work. Works without a row fall back to
// types.WorkTypeOther during the build.
type TypeRow struct {
	DOI      string `json:"doi"`
	WorkType string `json:"workType"`
}

// UpdatedRow carries a source's last-modified timestamp for one work.
type UpdatedRow struct {
	DOI     string    `json:"doi"`
	Updated time.Time `json:"updated"`
}

// InstitutionRow is one affiliated organization for one work.
type InstitutionRow struct {
	DOI  string  `json:"doi"`
	Name *string `json:"name"`
	ROR  *string `json:"ror"`
}

// AuthorRow is one credited person for one work. Position preserves the
// source's author order across the flattened table.
type AuthorRow struct {
	DOI            string  `json:"doi"`
	Position       int     `json:"position"`
	ORCID          *string `json:"orcid"`
	FirstInitial   *string `json:"firstInitial"`
	GivenName      *string `json:"givenName"`
	MiddleInitials *string `json:"middleInitials"`
	MiddleNames    *string `json:"middleNames"`
	Surname        *string `json:"surname"`
	Full           *string `json:"full"`
}

// FunderRow is one funding organization for one work. Identifier holds the
// normalized registry identifier (FundRef DOI form or ROR) used to resolve
// the funder against the ROR index during the works build.
type FunderRow struct {
	DOI        string  `json:"doi"`
	Name       *string `json:"name"`
	Identifier *string `json:"identifier"`
}

// AwardRow is one grant identifier for one work.
type AwardRow struct {
	DOI     string `json:"doi"`
	AwardID string `json:"awardId"`
}

// DataCiteRelationRow is one raw relatedIdentifier entry from DataCite.
type DataCiteRelationRow struct {
	DOI               string `json:"doi"`
	RelatedIdentifier string `json:"relatedIdentifier"`
	RelatedIDType     string `json:"relatedIdentifierType"`
	RelationType      string `json:"relationType"`
}

// CrossrefRelationRow is one entry from Crossref's relation map.
type CrossrefRelationRow struct {
	DOI          string `json:"doi"`
	RelatedID    string `json:"relatedId"`
	IDType       string `json:"idType"`
	RelationType string `json:"relationType"`
	AssertedBy   string `json:"assertedBy"`
}

// CorpusCitationRow is one publication-to-dataset citation pair from the
// dataset-citation corpus. Identifiers arrive in whatever form the corpus
// carries (bare DOI, URL, or free text).
type CorpusCitationRow struct {
	PublicationID string `json:"publicationId"`
	DatasetID     string `json:"datasetId"`
}

// IdentifierRow maps one external identifier to a ROR organization id,
// extracted from the ROR registry snapshot.
type IdentifierRow struct {
	Identifier string `json:"identifier"`
	Kind       string `json:"kind"`
	ROR        string `json:"ror"`
}

// SourceTables bundles every table a single source transform emits.
type SourceTables struct {
	Works             []WorkRow
	Types             []TypeRow
	Updated           []UpdatedRow
	Institutions      []InstitutionRow
	Authors           []AuthorRow
	Funders           []FunderRow
	Awards            []AwardRow
	DataCiteRelations []DataCiteRelationRow
	CrossrefRelations []CrossrefRelationRow
}
