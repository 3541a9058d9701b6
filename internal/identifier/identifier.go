// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identifier canonicalizes heterogeneous external identifiers
// (ROR, ISNI, FundRef, generic) into one comparable string space, and
// extracts identifiers embedded in free text or URLs.
// Implements: prd101-sources (R3.1-R3.5); docs/ARCHITECTURE § Identifiers.
package identifier

import (
	"regexp"
	"strings"
)

// Kind classifies an external identifier family.
type Kind int

const (
	KindOther Kind = iota
	KindROR
	KindISNI
	KindFundRef
)

func (k Kind) String() string {
	switch k {
	case KindROR:
		return "ror"
	case KindISNI:
		return "isni"
	case KindFundRef:
		return "fundref"
	default:
		return "other"
	}
}

// ParseKind maps a kind label back to its Kind. Unrecognized labels are
// KindOther.
func ParseKind(s string) Kind {
	switch s {
	case "ror":
		return KindROR
	case "isni":
		return KindISNI
	case "fundref":
		return KindFundRef
	default:
		return KindOther
	}
}

// rorBase is the canonical URL prefix for ROR identifiers.
const rorBase = "https://ror.org/"

// fundRefPrefix is the DOI prefix assigned to the Crossref Funder Registry.
const fundRefPrefix = "10.13039/"

// schemeHostPattern matches a URL scheme and host prefix, e.g.
// "https://ror.org/" or "http://www.isni.org/isni/". Replaced globally so
// doubled prefixes ("https://doi.org/https://doi.org/10.1/x") also reduce.
var schemeHostPattern = regexp.MustCompile(`(?i)https?://[^/]+/`)

// doiPattern matches a DOI substring: "10.", a dotted registrant prefix,
// "/", then everything up to the next whitespace.
var doiPattern = regexp.MustCompile(`(?i)10\.[0-9.]+/[^\s]+`)

// rorPattern matches a bare ROR identifier: a leading zero, six characters
// from the ROR base32 alphabet (no i, l, o, u), and a two-digit checksum.
var rorPattern = regexp.MustCompile(`0[a-hj-km-np-tv-z0-9]{6}[0-9]{2}`)

// orcidPattern matches an ORCID identifier: four groups of four digits,
// the last character may be the X checksum.
var orcidPattern = regexp.MustCompile(`(?i)\d{4}-\d{4}-\d{4}-\d{3}[\dx]`)

// digitsPattern matches a bare numeric identifier (FundRef ids are numeric).
var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

// Normalize canonicalizes raw according to its identifier family and
// returns nil when nothing usable remains. Unknown kinds follow the
// generic rule. Callers drop rows with nil identifiers; no kind is an
// error.
func Normalize(kind Kind, raw string) *string {
	switch kind {
	case KindROR:
		return normalizeROR(raw)
	case KindISNI:
		return normalizeISNI(raw)
	case KindFundRef:
		return normalizeFundRef(raw)
	default:
		return normalizeGeneric(raw)
	}
}

// normalizeGeneric strips any scheme://host/ prefixes, trims, and
// lowercases. The empty result maps to nil.
func normalizeGeneric(raw string) *string {
	s := schemeHostPattern.ReplaceAllString(raw, "")
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// normalizeROR reduces a ROR identifier (URL or bare form) to its bare id.
func normalizeROR(raw string) *string {
	s := normalizeGeneric(raw)
	if s == nil {
		return nil
	}
	if !rorPattern.MatchString(*s) {
		return nil
	}
	return s
}

// normalizeISNI reformats an ISNI into its canonical grouped form
// "0000 0001 2345 678X". Input may carry URL prefixes, spaces, or
// hyphens; anything that does not reduce to 16 checksum characters
// maps to nil.
func normalizeISNI(raw string) *string {
	s := schemeHostPattern.ReplaceAllString(raw, "")
	// URL forms keep an "isni/" path segment after host stripping.
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(s) != 16 {
		return nil
	}
	for i, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == 'X' && i == 15 {
			continue
		}
		return nil
	}
	grouped := s[0:4] + " " + s[4:8] + " " + s[8:12] + " " + s[12:16]
	return &grouped
}

// normalizeFundRef rewrites a Crossref Funder Registry identifier into its
// DOI form "10.13039/<id>". Accepts the DOI form, its URL form, or the
// bare numeric id.
func normalizeFundRef(raw string) *string {
	s := normalizeGeneric(raw)
	if s == nil {
		return nil
	}
	if strings.HasPrefix(*s, fundRefPrefix) {
		return s
	}
	if digitsPattern.MatchString(*s) {
		v := fundRefPrefix + *s
		return &v
	}
	// A non-FundRef DOI or junk; fall back to DOI extraction.
	return ExtractDOI(*s)
}

// ExtractDOI returns the first DOI substring found in s, lowercased and
// trimmed, or nil when s contains none. Works on free text and URLs
// ("https://doi.org/10.5061/dryad.123" yields "10.5061/dryad.123").
func ExtractDOI(s string) *string {
	m := doiPattern.FindString(s)
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "" {
		return nil
	}
	return &m
}

// ExtractROR returns the first bare ROR id found in s, or nil.
func ExtractROR(s string) *string {
	m := rorPattern.FindString(strings.ToLower(s))
	if m == "" {
		return nil
	}
	return &m
}

// ExtractORCID returns the first ORCID found in s, lowercased, or nil.
func ExtractORCID(s string) *string {
	m := orcidPattern.FindString(s)
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "" {
		return nil
	}
	return &m
}
