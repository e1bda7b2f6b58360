package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasbio/biograph/config"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("chr13\t100\t200\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "data", "regions.bed")
	f := NewFetcher(WithHTTPClient(srv.Client()))
	require.NoError(t, f.Fetch(context.Background(), srv.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "chr13\t100\t200\n", string(data))
}

func TestFetchSkipsExisting(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("new"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "regions.bed")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))

	f := NewFetcher(WithHTTPClient(srv.Client()))
	require.NoError(t, f.Fetch(context.Background(), srv.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assert.Equal(t, int32(0), hits.Load())
}

func TestFetchRetriesServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "regions.bed")
	f := NewFetcher(WithHTTPClient(srv.Client()), WithMaxElapsed(10*time.Second))
	require.NoError(t, f.Fetch(context.Background(), srv.URL, dest))
	assert.GreaterOrEqual(t, hits.Load(), int32(3))
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "regions.bed")
	f := NewFetcher(WithHTTPClient(srv.Client()))
	err := f.Fetch(context.Background(), srv.URL, dest)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &config.Config{
		Adapters: map[string]*config.Entry{
			"with_url": {
				Adapter: config.AdapterSpec{
					Type: "bed",
					Args: map[string]any{"filepath": filepath.Join(dir, "a.bed")},
				},
				Outdir: "bed",
				Nodes:  true,
				URL:    srv.URL,
			},
			"no_url": {
				Adapter: config.AdapterSpec{
					Type: "bed",
					Args: map[string]any{"filepath": filepath.Join(dir, "b.bed")},
				},
				Outdir: "bed",
				Nodes:  true,
			},
			"glob_path": {
				Adapter: config.AdapterSpec{
					Type: "bed",
					Args: map[string]any{"filepath": filepath.Join(dir, "*.bed")},
				},
				Outdir: "bed",
				Nodes:  true,
				URL:    srv.URL,
			},
		},
	}

	f := NewFetcher(WithHTTPClient(srv.Client()))
	require.NoError(t, f.FetchAll(context.Background(), cfg))

	_, err := os.Stat(filepath.Join(dir, "a.bed"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "b.bed"))
	assert.True(t, os.IsNotExist(err))
}
