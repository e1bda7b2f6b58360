// Package download fetches adapter input files declared in the manifest.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/atlasbio/biograph/config"
)

// Fetcher downloads input files over HTTP with retry.
type Fetcher struct {
	client     *http.Client
	logger     *slog.Logger
	maxElapsed time.Duration
	workers    int
	overwrite  bool
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the fetcher's logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = logger }
}

// WithMaxElapsed caps the total retry time per file.
func WithMaxElapsed(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.maxElapsed = d }
}

// WithWorkers caps concurrent downloads.
func WithWorkers(n int) FetcherOption {
	return func(f *Fetcher) { f.workers = n }
}

// WithOverwrite re-downloads files that already exist on disk.
func WithOverwrite(overwrite bool) FetcherOption {
	return func(f *Fetcher) { f.overwrite = overwrite }
}

// NewFetcher creates a Fetcher with default settings.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{Timeout: 30 * time.Minute},
		logger:     slog.Default(),
		maxElapsed: 5 * time.Minute,
		workers:    3,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url to dest. Existing files are kept unless overwrite is
// set. The download goes to a temp file first so a partial transfer never
// replaces dest.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	if !f.overwrite {
		if _, err := os.Stat(dest); err == nil {
			f.logger.Info("Input already present, skipping download", "dest", dest)
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(f.maxElapsed),
	), ctx)

	operation := func() error {
		return f.download(ctx, url, dest)
	}
	notify := func(err error, wait time.Duration) {
		f.logger.Warn("Download failed, retrying", "url", url, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	f.logger.Info("Downloaded input", "url", url, "dest", dest)
	return nil
}

func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part*")
	if err != nil {
		return backoff.Permanent(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// FetchAll downloads inputs for every manifest entry that declares a URL.
// Entries whose filepath argument is a glob are skipped; a glob has no
// single destination to write to.
func (f *Fetcher) FetchAll(ctx context.Context, cfg *config.Config) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for _, name := range cfg.EntryNames() {
		name := name
		entry := cfg.Adapters[name]
		if entry.URL == "" {
			continue
		}
		dest, ok := entry.FilepathArg()
		if !ok {
			f.logger.Warn("Entry has a url but no filepath argument, skipping", "entry", name)
			continue
		}
		if hasGlobMeta(dest) {
			f.logger.Warn("Entry filepath is a glob, skipping download", "entry", name, "filepath", dest)
			continue
		}
		g.Go(func() error {
			if err := f.Fetch(ctx, entry.URL, dest); err != nil {
				return fmt.Errorf("entry %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func hasGlobMeta(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
