// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tables

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SchemaError reports a structurally unusable input file: a row that does
// not decode, or a required field that is missing or mistyped. Schema
// errors are fatal; the run aborts before any state mutation.
// Per prd101-sources R4.4.
type SchemaError struct {
	File string
	Line int
	Err  error
}

func (e *SchemaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("schema error in %s line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("schema error in %s: %v", e.File, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Glob returns the files under dir matching pattern, sorted. Patterns use
// doublestar syntax, so "**/*.jsonl.gz" descends into per-source layouts.
func Glob(dir, pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s in %s: %w", pattern, dir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadJSONL decodes one row per line from path into T. Files ending in
// ".gz" are transparently decompressed. A row that fails to decode yields
// a SchemaError carrying the file and line.
func ReadJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, &SchemaError{File: path, Err: err}
		}
		defer gz.Close()
		r = gz
	}

	var rows []T
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var row T
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, &SchemaError{File: path, Line: line, Err: err}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, &SchemaError{File: path, Err: err}
	}
	return rows, nil
}

// ReadGlob reads and concatenates every file under dir matching pattern.
func ReadGlob[T any](dir, pattern string) ([]T, error) {
	paths, err := Glob(dir, pattern)
	if err != nil {
		return nil, err
	}
	var rows []T
	for _, p := range paths {
		r, err := ReadJSONL[T](p)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r...)
	}
	return rows, nil
}

// WriteJSONL encodes rows one JSON object per line. The file is written to
// a temp path in the same directory and renamed into place, so readers
// never observe a partial table.
func WriteJSONL[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			tmp.Close()
			return fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename table into place: %w", err)
	}
	return nil
}
