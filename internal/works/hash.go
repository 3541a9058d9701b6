// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package works

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/works-engine/pkg/types"
)

// HashWork computes the content fingerprint of a work: a hex MD5 digest
// over a fixed field sequence, one "name=<canonical JSON>" line per
// field. The digest is a change detector, not a security boundary, so a
// 128-bit hash is enough.
//
// The DOI and the updated timestamp never participate: the DOI is the
// record's identity, and sources bump their update timestamps on ingest
// runs that change nothing semantic. Every field here is a
// struct, slice, or scalar; none introduces map iteration, so the
// encoding is byte-stable for equal values.
func HashWork(w types.Work) string {
	h := md5.New()
	writeField(h, "title", w.Title)
	writeField(h, "abstract_text", w.Abstract)
	writeField(h, "work_type", w.WorkType)
	writeField(h, "publication_date", w.PublicationDate)
	writeField(h, "publication_venue", w.PublicationVenue)
	writeField(h, "institutions", w.Institutions)
	writeField(h, "authors", w.Authors)
	writeField(h, "funders", w.Funders)
	writeField(h, "awards", w.Awards)
	writeField(h, "source", w.Source)
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h io.Writer, name string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		// Work's field types are plain data; marshal cannot fail on them.
		b = []byte("null")
	}
	fmt.Fprintf(h, "%s=%s\n", name, b)
}
