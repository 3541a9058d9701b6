// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/works-engine/pkg/types"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

func testConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "works-engine-test/0.1"},
		MaxRetries: 3,
	}
}

func TestDownload_WritesFile(t *testing.T) {
	var gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		io.WriteString(w, "snapshot-bytes")
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "snapshots", "corpus", "data.jsonl")
	err := Download(context.Background(), ts.Client(), ts.URL, dest, testConfig())
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "snapshot-bytes", string(data))
	assert.Equal(t, "works-engine-test/0.1", gotAgent)
}

func TestDownload_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "data.bin")
	err := Download(context.Background(), ts.Client(), ts.URL, dest, testConfig())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDownload_HonorsRetryAfter(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "data.bin")
	err := Download(context.Background(), ts.Client(), ts.URL, dest, testConfig())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDownload_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "data.bin")
	err := Download(context.Background(), ts.Client(), ts.URL, dest, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "failed download must leave no file")
}

func TestVerifyMD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	sum := md5.Sum([]byte("payload"))
	digest := hex.EncodeToString(sum[:])

	assert.NoError(t, VerifyMD5(path, digest))
	assert.NoError(t, VerifyMD5(path, "md5:"+strings.ToUpper(digest)))

	err := VerifyMD5(path, "00000000000000000000000000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "md5 mismatch")
}

// buildRORZip assembles a release archive in memory.
func buildRORZip(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(f, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestROR(t *testing.T) {
	registryJSON := `[{"id":"https://ror.org/021nxhr62","external_ids":[]}]`
	archive := buildRORZip(t, map[string]string{
		"readme.txt":                               "release notes",
		"v1.67-2025-06-24-ror-data.json":           `[]`,
		"v1.67-2025-06-24-ror-data_schema_v2.json": registryJSON,
	})
	sum := md5.Sum(archive)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(archive)
	}))
	defer ts.Close()

	outDir := filepath.Join(t.TempDir(), "snapshots", "ror")
	var buf strings.Builder
	outPath, err := ROR(context.Background(), ts.Client(), ts.URL, hex.EncodeToString(sum[:]), outDir, testConfig(), &buf)
	require.NoError(t, err)

	// The schema v2 member wins over the v1 dump.
	assert.Equal(t, filepath.Join(outDir, "v1.67-2025-06-24-ror-data_schema_v2.json.gz"), outPath)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, registryJSON, string(data))

	_, statErr := os.Stat(filepath.Join(outDir, "ror-data.zip"))
	assert.True(t, os.IsNotExist(statErr), "zip must be cleaned up")
}

func TestROR_BadChecksum(t *testing.T) {
	archive := buildRORZip(t, map[string]string{"data_schema_v2.json": `[]`})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(archive)
	}))
	defer ts.Close()

	_, err := ROR(context.Background(), ts.Client(), ts.URL, "ffffffffffffffffffffffffffffffff",
		t.TempDir(), testConfig(), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "md5 mismatch")
}

func TestROR_NoJSONMember(t *testing.T) {
	archive := buildRORZip(t, map[string]string{"readme.txt": "nothing here"})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(archive)
	}))
	defer ts.Close()

	_, err := ROR(context.Background(), ts.Client(), ts.URL, "", t.TempDir(), testConfig(), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registry JSON file")
}
