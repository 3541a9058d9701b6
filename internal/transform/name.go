// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import "strings"

// NameParts is a person name split into its components. Any component may
// be nil when the source name does not carry it.
type NameParts struct {
	FirstInitial   *string
	GivenName      *string
	MiddleInitials *string
	MiddleNames    *string
	Surname        *string
	Full           *string
}

// ParseName splits a display name into parts. "Surname, Given Middle"
// honors the comma form; otherwise the first token is the given name, the
// last is the surname, and anything between becomes middle names. A
// single token yields only the full name: a mononym cannot be split
// safely. Middle initials are concatenated without separators.
func ParseName(text string) NameParts {
	s := strings.TrimSpace(text)
	if s == "" {
		return NameParts{}
	}

	var given string
	var middles []string
	var surname string

	if before, after, ok := strings.Cut(s, ","); ok {
		surname = strings.TrimSpace(before)
		rest := strings.Fields(after)
		if len(rest) > 0 {
			given = rest[0]
			middles = rest[1:]
		}
	} else {
		fields := strings.Fields(s)
		if len(fields) == 1 {
			full := fields[0]
			return NameParts{Full: &full}
		}
		given = fields[0]
		surname = fields[len(fields)-1]
		middles = fields[1 : len(fields)-1]
	}

	parts := NameParts{}
	if given != "" {
		parts.GivenName = &given
		initial := firstRune(given)
		parts.FirstInitial = &initial
	}
	if surname != "" {
		parts.Surname = &surname
	}
	if len(middles) > 0 {
		joined := strings.Join(middles, " ")
		parts.MiddleNames = &joined
		var initials strings.Builder
		for _, m := range middles {
			initials.WriteString(firstRune(m))
		}
		ini := initials.String()
		parts.MiddleInitials = &ini
	}

	fullParts := make([]string, 0, len(middles)+2)
	if given != "" {
		fullParts = append(fullParts, given)
	}
	fullParts = append(fullParts, middles...)
	if surname != "" {
		fullParts = append(fullParts, surname)
	}
	if len(fullParts) > 0 {
		full := strings.Join(fullParts, " ")
		parts.Full = &full
	}
	return parts
}

// ParseAuthorName builds NameParts from whatever name fields a source
// provides, preferring the full display name over given/family parts.
func ParseAuthorName(given, family, full *string) NameParts {
	if f := cleanOpt(full); f != nil {
		return ParseName(*f)
	}
	g := cleanOpt(given)
	fam := cleanOpt(family)
	if g == nil && fam == nil {
		return NameParts{}
	}
	joined := make([]string, 0, 2)
	if g != nil {
		joined = append(joined, *g)
	}
	if fam != nil {
		joined = append(joined, *fam)
	}
	return ParseName(strings.Join(joined, " "))
}

// Empty reports whether no component was parsed.
func (p NameParts) Empty() bool {
	return p.FirstInitial == nil && p.GivenName == nil && p.MiddleInitials == nil &&
		p.MiddleNames == nil && p.Surname == nil && p.Full == nil
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
