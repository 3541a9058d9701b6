// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/works-engine/pkg/types"
)

// ROR downloads a ROR registry release archive (a Zenodo zip), verifies
// its checksum when md5sum is non-empty, extracts the schema v2 JSON
// member, and writes it gzipped into outDir as "<member name>.gz". The
// zip is removed afterwards; only the .json.gz snapshot remains. Returns
// the snapshot path.
func ROR(ctx context.Context, client *http.Client, url, md5sum, outDir string, cfg types.FetchConfig, w io.Writer) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	zipPath := filepath.Join(outDir, "ror-data.zip")
	fmt.Fprintf(w, "downloading %s\n", url)
	if err := Download(ctx, client, url, zipPath, cfg); err != nil {
		return "", fmt.Errorf("downloading ror archive: %w", err)
	}
	defer os.Remove(zipPath)

	if md5sum != "" {
		if err := VerifyMD5(zipPath, md5sum); err != nil {
			return "", err
		}
		fmt.Fprintf(w, "verified md5\n")
	}

	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("opening ror archive: %w", err)
	}
	defer archive.Close()

	member := findRegistryMember(archive)
	if member == nil {
		return "", fmt.Errorf("no registry JSON file in %s", filepath.Base(zipPath))
	}
	fmt.Fprintf(w, "extracting %s\n", member.Name)

	outPath := filepath.Join(outDir, filepath.Base(member.Name)+".gz")
	if err := gzipMember(member, outPath); err != nil {
		return "", err
	}
	fmt.Fprintf(w, "wrote %s\n", outPath)
	return outPath, nil
}

// findRegistryMember picks the registry JSON inside a release archive.
// Releases ship two dumps; the schema v2 file is preferred, any other
// .json member is the fallback.
func findRegistryMember(archive *zip.ReadCloser) *zip.File {
	var fallback *zip.File
	for _, f := range archive.File {
		name := strings.ToLower(f.Name)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.HasSuffix(name, "_schema_v2.json") {
			return f
		}
		if fallback == nil {
			fallback = f
		}
	}
	return fallback
}

// gzipMember streams one archive member through gzip to outPath, using a
// temp file and rename so a partial extract is never visible.
func gzipMember(member *zip.File, outPath string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("opening archive member %s: %w", member.Name, err)
	}
	defer src.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(outPath), ".ror-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	gz := gzip.NewWriter(tmpFile)
	_, copyErr := io.Copy(gz, src)
	gzErr := gz.Close()
	closeErr := tmpFile.Close()
	if copyErr != nil || gzErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if copyErr != nil {
			return fmt.Errorf("extracting %s: %w", member.Name, copyErr)
		}
		if gzErr != nil {
			return fmt.Errorf("compressing %s: %w", member.Name, gzErr)
		}
		return fmt.Errorf("closing %s: %w", tmpPath, closeErr)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return nil
}
