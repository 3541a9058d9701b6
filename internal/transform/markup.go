// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup removes HTML/XML tags from text and trims the result.
// Returns nil when nothing remains or when the trimmed result equals one
// of the nullIfEquals placeholder literals sources use for missing data
// (e.g. ":unav").
func StripMarkup(text string, nullIfEquals ...string) *string {
	stripped := stripTags(text)
	trimmed := strings.TrimSpace(stripped)
	if trimmed == "" {
		return nil
	}
	for _, v := range nullIfEquals {
		if trimmed == v {
			return nil
		}
	}
	return &trimmed
}

// stripTags drops every tag token and concatenates the text tokens.
// Entities inside text are decoded by the tokenizer, so strings carrying
// only entities still take the tokenizer path.
func stripTags(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
