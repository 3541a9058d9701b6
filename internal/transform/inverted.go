// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import "strings"

// RevertInvertedIndex reconstructs abstract text from an OpenAlex inverted
// index (word to positions). When two words claim the same position the
// alphabetically greater word wins, so reconstruction is deterministic
// regardless of map iteration order. Position gaps are skipped. Returns
// nil when the index is empty or reconstructs to nothing.
func RevertInvertedIndex(index map[string][]int) *string {
	if len(index) == 0 {
		return nil
	}

	max := -1
	for _, positions := range index {
		for _, pos := range positions {
			if pos > max {
				max = pos
			}
		}
	}
	if max < 0 {
		return nil
	}

	words := make([]string, max+1)
	for word, positions := range index {
		for _, pos := range positions {
			if pos < 0 {
				continue
			}
			if words[pos] == "" || word > words[pos] {
				words[pos] = word
			}
		}
	}

	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return nil
	}
	return &out
}
