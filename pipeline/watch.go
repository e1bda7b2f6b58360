package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 2 * time.Second

// Watcher re-runs adapter entries when their input files change.
type Watcher struct {
	runner   *Runner
	logger   *slog.Logger
	debounce time.Duration

	// entryByPath maps a resolved input path to the entries that read it.
	entryByPath map[string][]string
	watchDirs   map[string]bool

	// Debouncing: collect changed entries before re-running
	pendingMu sync.Mutex
	pending   map[string]bool
}

// NewWatcher builds a watcher over the runner's manifest. Input paths are
// resolved once at construction; globs that later match new files require a
// restart.
func NewWatcher(runner *Runner, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	entryByPath := make(map[string][]string)
	watchDirs := make(map[string]bool)
	for _, name := range runner.cfg.EntryNames() {
		entry := runner.cfg.Adapters[name]
		paths, err := entry.InputPaths()
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", name, err)
		}
		for _, path := range paths {
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil, err
			}
			entryByPath[abs] = append(entryByPath[abs], name)
			watchDirs[filepath.Dir(abs)] = true
		}
	}
	if len(entryByPath) == 0 {
		return nil, fmt.Errorf("no adapter entry has a watchable input file")
	}

	return &Watcher{
		runner:      runner,
		logger:      logger,
		debounce:    debounce,
		entryByPath: entryByPath,
		watchDirs:   watchDirs,
		pending:     make(map[string]bool),
	}, nil
}

// Watch blocks, re-running affected entries on input changes, until ctx is
// cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for dir := range w.watchDirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Debug("Watching directory", "dir", dir)
	}
	w.logger.Info("Watching input files",
		"files", len(w.entryByPath), "debounce", w.debounce)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	entries, ok := w.entryByPath[abs]
	if !ok {
		return
	}

	w.pendingMu.Lock()
	for _, name := range entries {
		w.pending[name] = true
	}
	w.pendingMu.Unlock()

	w.logger.Debug("Input change detected", "path", abs, "op", event.Op.String())
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	names := make([]string, 0, len(w.pending))
	for name := range w.pending {
		names = append(names, name)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()
	sort.Strings(names)

	w.logger.Info("Re-running changed entries", "entries", names)
	if _, err := w.runner.Run(ctx, names...); err != nil {
		w.logger.Error("Re-run failed", "error", err)
	}
}
