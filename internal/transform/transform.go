// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transform converts raw source snapshot records (DataCite,
// OpenAlex, Crossref, the ROR registry, the dataset-citation corpus) into
// canonicalized table rows. Field cleanup is shared: markup stripping,
// inverted-index reversal, name parsing, identifier extraction.
// Implements: prd101-sources (R2.1-R2.6); docs/ARCHITECTURE § Transforms.
package transform

import (
	"encoding/json"
	"strings"
)

// Summary reports the outcome of one source transform.
type Summary struct {
	// Files is the number of snapshot files processed.
	Files int

	// Works is the number of work records emitted.
	Works int

	// Skipped is the number of records dropped (no DOI, or excluded).
	Skipped int

	// Relations is the number of raw relation rows emitted.
	Relations int
}

// Total returns the number of records considered.
func (s Summary) Total() int {
	return s.Works + s.Skipped
}

// CleanString trims surrounding whitespace and maps the empty result to
// nil. Inner whitespace is preserved.
func CleanString(value string) *string {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil
	}
	return &s
}

// cleanOpt is CleanString over an optional input.
func cleanOpt(value *string) *string {
	if value == nil {
		return nil
	}
	return CleanString(*value)
}

// oneOrMany tolerates fields that should be arrays but sometimes arrive as
// a single object (DataCite affiliations and nameIdentifiers do this).
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" {
		*o = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var arr []T
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*o = arr
		return nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*o = oneOrMany[T]{one}
	return nil
}
