// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// State labels a DOI state transition record.
// Per prd103-state R1.1.
type State string

const (
	// StateUpsert records that the work identified by the DOI was created
	// or changed as of the record's run date.
	StateUpsert State = "UPSERT"

	// StateDelete records that the DOI disappeared from the canonical
	// works universe as of the record's run date.
	StateDelete State = "DELETE"
)

// Valid reports whether s is a recognized state label.
func (s State) Valid() bool {
	return s == StateUpsert || s == StateDelete
}

// StateRecord is one row of the append-only DOI state history. Records are
// immutable once appended; the most recent record per DOI (by updated date,
// then by append order) is that DOI's current state.
// Per prd103-state R1.2, R2.1.
type StateRecord struct {
	// DOI is the work's Digital Object Identifier.
	DOI string `json:"doi" yaml:"doi"`

	// Hash is the content hash the work had as of UpdatedDate. For DELETE
	// records it carries the last known hash.
	Hash string `json:"hash" yaml:"hash"`

	// State is UPSERT or DELETE.
	State State `json:"state" yaml:"state"`

	// UpdatedDate is the run identifier (a date supplied by the
	// orchestrator) under which this record was appended.
	UpdatedDate Date `json:"updatedDate" yaml:"updated_date"`
}

// Present is one (doi, hash) pair from the current run's canonical works
// universe, the input to the diff step.
type Present struct {
	// DOI is the work's Digital Object Identifier.
	DOI string `json:"doi" yaml:"doi"`

	// Hash is the work's content hash for this run.
	Hash string `json:"hash" yaml:"hash"`
}
