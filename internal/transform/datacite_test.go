// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSnapshot writes one JSONL snapshot file; names ending in .gz are
// gzip-compressed.
func writeSnapshot(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := []byte(strings.Join(lines, "\n") + "\n")
	if strings.HasSuffix(name, ".gz") {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			t.Fatal(err)
		}
		if err := gz.Close(); err != nil {
			t.Fatal(err)
		}
		data = buf.Bytes()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

const dataciteSample = `{
  "id": "https://doi.org/10.5061/DRYAD.ABC123",
  "attributes": {
    "titles": [{"title": ""}, {"title": "<b>Soil carbon</b> dataset"}],
    "descriptions": [{"description": ":unav"}, {"description": "<jats:p>Measurements of soil carbon.</jats:p>"}],
    "types": {"resourceTypeGeneral": "Dataset"},
    "created": "2023-04-02T08:30:00Z",
    "updated": "2024-01-15T10:00:00Z",
    "publisher": {"name": "Dryad"},
    "creators": [
      {
        "name": "Doe, Jane",
        "nameType": "Personal",
        "givenName": "Jane",
        "familyName": "Doe",
        "nameIdentifiers": [{"nameIdentifier": "https://orcid.org/0000-0002-1825-0097", "nameIdentifierScheme": "ORCID"}],
        "affiliation": {"name": "Example University", "affiliationIdentifier": "https://ror.org/02n415q13", "affiliationIdentifierScheme": "ROR"}
      },
      {"name": "Example Consortium", "nameType": "Organizational"}
    ],
    "fundingReferences": [
      {"funderName": "National Science Foundation", "funderIdentifier": "https://doi.org/10.13039/100000001", "funderIdentifierType": "Crossref Funder ID", "awardNumber": "ABI-1661218, ABI-1661219"}
    ],
    "relatedIdentifiers": [
      {"relatedIdentifier": "https://doi.org/10.1038/S41586-020-1234", "relatedIdentifierType": "DOI", "relationType": "IsSupplementTo"},
      {"relatedIdentifier": "https://example.com/page", "relatedIdentifierType": "URL", "relationType": "IsDocumentedBy"}
    ]
  }
}`

func TestDataCiteTransform(t *testing.T) {
	dir := t.TempDir()
	record := strings.ReplaceAll(dataciteSample, "\n", " ")
	noDOI := `{"id": "not-a-doi", "attributes": {}}`
	writeSnapshot(t, dir, "part-0/records.jsonl.gz", record, noDOI)

	st, summary, err := DataCite(dir, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("DataCite: %v", err)
	}

	if summary.Works != 1 || summary.Skipped != 1 || summary.Files != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	if len(st.Works) != 1 {
		t.Fatalf("got %d work rows, want 1", len(st.Works))
	}
	w := st.Works[0]
	if w.DOI != "10.5061/dryad.abc123" {
		t.Errorf("doi = %q", w.DOI)
	}
	if w.Title == nil || *w.Title != "Soil carbon dataset" {
		t.Errorf("title = %v", strv(w.Title))
	}
	if w.Abstract == nil || *w.Abstract != "Measurements of soil carbon." {
		t.Errorf("abstract = %v", strv(w.Abstract))
	}
	if w.PublicationDate == nil || *w.PublicationDate != "2023-04-02" {
		t.Errorf("publicationDate = %v", strv(w.PublicationDate))
	}
	if w.PublicationVenue == nil || *w.PublicationVenue != "Dryad" {
		t.Errorf("venue = %v", strv(w.PublicationVenue))
	}
	if w.SourceName != "datacite" {
		t.Errorf("sourceName = %q", w.SourceName)
	}

	if len(st.Types) != 1 || st.Types[0].WorkType != "Dataset" {
		t.Errorf("types = %+v", st.Types)
	}
	if len(st.Updated) != 1 || st.Updated[0].Updated.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("updated = %+v", st.Updated)
	}

	// Organizational creators contribute neither authors nor institutions.
	if len(st.Authors) != 1 {
		t.Fatalf("got %d authors, want 1", len(st.Authors))
	}
	a := st.Authors[0]
	if a.ORCID == nil || *a.ORCID != "0000-0002-1825-0097" {
		t.Errorf("orcid = %v", strv(a.ORCID))
	}
	if a.GivenName == nil || *a.GivenName != "Jane" || a.Surname == nil || *a.Surname != "Doe" {
		t.Errorf("author = %+v", a)
	}

	if len(st.Institutions) != 1 {
		t.Fatalf("got %d institutions, want 1", len(st.Institutions))
	}
	inst := st.Institutions[0]
	if inst.ROR == nil || *inst.ROR != "02n415q13" {
		t.Errorf("institution ror = %v", strv(inst.ROR))
	}

	if len(st.Funders) != 1 {
		t.Fatalf("got %d funders, want 1", len(st.Funders))
	}
	f := st.Funders[0]
	if f.Identifier == nil || *f.Identifier != "10.13039/100000001" {
		t.Errorf("funder identifier = %v", strv(f.Identifier))
	}

	if len(st.Awards) != 2 {
		t.Fatalf("got %d awards, want 2", len(st.Awards))
	}
	if st.Awards[0].AwardID != "ABI-1661218" || st.Awards[1].AwardID != "ABI-1661219" {
		t.Errorf("awards = %+v", st.Awards)
	}

	if len(st.DataCiteRelations) != 2 {
		t.Fatalf("got %d relations, want 2", len(st.DataCiteRelations))
	}
	rel := st.DataCiteRelations[0]
	if rel.RelatedIdentifier != "10.1038/s41586-020-1234" || rel.RelatedIDType != "DOI" || rel.RelationType != "IsSupplementTo" {
		t.Errorf("relation 0 = %+v", rel)
	}
	nonDOI := st.DataCiteRelations[1]
	if nonDOI.RelatedIdentifier != "page" || nonDOI.RelatedIDType != "URL" {
		t.Errorf("relation 1 = %+v", nonDOI)
	}
}
