// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identifier

// Index maps normalized external identifiers (ISNI, FundRef, GRID,
// Wikidata, or ROR itself) to bare ROR ids. Built from the ROR registry
// snapshot; every organization maps its own id reflexively, so lookups
// succeed with either the URL or the bare form.
// Per prd101-sources R3.4.
type Index struct {
	byIdentifier map[string]string
}

// NewIndex returns an empty identifier index.
func NewIndex() *Index {
	return &Index{byIdentifier: make(map[string]string)}
}

// AddROR registers a registry organization's own id reflexively.
// Returns false when the id does not normalize to a valid ROR id.
func (x *Index) AddROR(id string) bool {
	norm := Normalize(KindROR, id)
	if norm == nil {
		return false
	}
	x.byIdentifier[*norm] = *norm
	x.byIdentifier[rorBase+*norm] = *norm
	return true
}

// Add registers an external identifier for the organization rorID.
// Returns false when either side fails normalization.
func (x *Index) Add(kind Kind, raw, rorID string) bool {
	ror := Normalize(KindROR, rorID)
	if ror == nil {
		return false
	}
	key := Normalize(kind, raw)
	if key == nil {
		return false
	}
	x.byIdentifier[*key] = *ror
	return true
}

// Lookup resolves raw (normalized according to kind) to a bare ROR id.
func (x *Index) Lookup(kind Kind, raw string) (string, bool) {
	key := Normalize(kind, raw)
	if key == nil {
		return "", false
	}
	ror, ok := x.byIdentifier[*key]
	return ror, ok
}

// Len reports the number of identifier entries in the index.
func (x *Index) Len() int {
	return len(x.byIdentifier)
}
