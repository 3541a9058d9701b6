// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import "testing"

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		nullIfEquals []string
		want         *string
	}{
		{"plain text", "Soil carbon stocks", nil, ptr("Soil carbon stocks")},
		{"html tags dropped", "<jats:p>Soil <b>carbon</b> stocks</jats:p>", nil, ptr("Soil carbon stocks")},
		{"nested tags", "<div><p>hello</p></div>", nil, ptr("hello")},
		{"entity decoded", "a &amp; b", nil, ptr("a & b")},
		{"whitespace trimmed", "  padded  ", nil, ptr("padded")},
		{"empty after strip", "<p></p>", nil, nil},
		{"empty input", "", nil, nil},
		{"placeholder nulled", ":unav", []string{":unav", "Cover title."}, nil},
		{"placeholder after strip", "<p>Cover title.</p>", []string{":unav", "Cover title."}, nil},
		{"non placeholder kept", "Cover story.", []string{":unav", "Cover title."}, ptr("Cover story.")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripMarkup(tt.input, tt.nullIfEquals...)
			if !eq(got, tt.want) {
				t.Errorf("StripMarkup(%q) = %v, want %v", tt.input, strv(got), strv(tt.want))
			}
		})
	}
}

func TestRevertInvertedIndex(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  *string
	}{
		{
			"simple sentence",
			map[string][]int{"the": {0}, "quick": {1}, "fox": {2}},
			ptr("the quick fox"),
		},
		{
			"repeated word",
			map[string][]int{"the": {0, 2}, "fox": {1}},
			ptr("the fox the"),
		},
		{
			"gap skipped",
			map[string][]int{"start": {0}, "end": {5}},
			ptr("start end"),
		},
		{
			"duplicate position keeps greater word",
			map[string][]int{"apple": {0}, "zebra": {0}, "tail": {1}},
			ptr("zebra tail"),
		},
		{"empty index", map[string][]int{}, nil},
		{"nil index", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RevertInvertedIndex(tt.index)
			if !eq(got, tt.want) {
				t.Errorf("RevertInvertedIndex(%v) = %v, want %v", tt.index, strv(got), strv(tt.want))
			}
		})
	}
}

func TestRevertInvertedIndexDeterministic(t *testing.T) {
	index := map[string][]int{
		"alpha": {0}, "beta": {0}, "gamma": {0},
		"mid": {1}, "end": {2},
	}
	want := "gamma mid end"
	for i := 0; i < 50; i++ {
		got := RevertInvertedIndex(index)
		if got == nil || *got != want {
			t.Fatalf("iteration %d: got %v, want %q", i, strv(got), want)
		}
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want NameParts
	}{
		{
			"given surname",
			"Jane Doe",
			NameParts{FirstInitial: ptr("J"), GivenName: ptr("Jane"), Surname: ptr("Doe"), Full: ptr("Jane Doe")},
		},
		{
			"comma form",
			"Doe, Jane",
			NameParts{FirstInitial: ptr("J"), GivenName: ptr("Jane"), Surname: ptr("Doe"), Full: ptr("Jane Doe")},
		},
		{
			"middle names",
			"John Ronald Reuel Tolkien",
			NameParts{
				FirstInitial: ptr("J"), GivenName: ptr("John"),
				MiddleInitials: ptr("RR"), MiddleNames: ptr("Ronald Reuel"),
				Surname: ptr("Tolkien"), Full: ptr("John Ronald Reuel Tolkien"),
			},
		},
		{
			"comma form with middles",
			"Tolkien, John Ronald Reuel",
			NameParts{
				FirstInitial: ptr("J"), GivenName: ptr("John"),
				MiddleInitials: ptr("RR"), MiddleNames: ptr("Ronald Reuel"),
				Surname: ptr("Tolkien"), Full: ptr("John Ronald Reuel Tolkien"),
			},
		},
		{
			"mononym keeps only full",
			"Cher",
			NameParts{Full: ptr("Cher")},
		},
		{
			"surname only comma",
			"Doe,",
			NameParts{Surname: ptr("Doe"), Full: ptr("Doe")},
		},
		{"empty", "", NameParts{}},
		{"blank", "   ", NameParts{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseName(tt.in)
			assertNameParts(t, got, tt.want)
		})
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		name   string
		given  *string
		family *string
		full   *string
		want   NameParts
	}{
		{
			"full name preferred",
			ptr("J."), ptr("D."), ptr("Jane Doe"),
			NameParts{FirstInitial: ptr("J"), GivenName: ptr("Jane"), Surname: ptr("Doe"), Full: ptr("Jane Doe")},
		},
		{
			"given plus family",
			ptr("Jane"), ptr("Doe"), nil,
			NameParts{FirstInitial: ptr("J"), GivenName: ptr("Jane"), Surname: ptr("Doe"), Full: ptr("Jane Doe")},
		},
		{
			"family only",
			nil, ptr("Doe"), nil,
			NameParts{Full: ptr("Doe")},
		},
		{"nothing", nil, nil, nil, NameParts{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAuthorName(tt.given, tt.family, tt.full)
			assertNameParts(t, got, tt.want)
		})
	}
}

func TestCleanString(t *testing.T) {
	if got := CleanString("  a b  "); got == nil || *got != "a b" {
		t.Errorf("CleanString trims = %v", strv(got))
	}
	if got := CleanString("   "); got != nil {
		t.Errorf("CleanString blank = %v, want nil", strv(got))
	}
}

func assertNameParts(t *testing.T, got, want NameParts) {
	t.Helper()
	check := func(field string, g, w *string) {
		if !eq(g, w) {
			t.Errorf("%s = %v, want %v", field, strv(g), strv(w))
		}
	}
	check("FirstInitial", got.FirstInitial, want.FirstInitial)
	check("GivenName", got.GivenName, want.GivenName)
	check("MiddleInitials", got.MiddleInitials, want.MiddleInitials)
	check("MiddleNames", got.MiddleNames, want.MiddleNames)
	check("Surname", got.Surname, want.Surname)
	check("Full", got.Full, want.Full)
}

func eq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strv(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func ptr(s string) *string { return &s }
