// Package pipeline drives adapter entries from a manifest through a graph
// writer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/config"
	"github.com/atlasbio/biograph/graph"
	"github.com/atlasbio/biograph/metrics"
	"github.com/atlasbio/biograph/writer"
)

// Runner executes the adapter entries of a manifest.
type Runner struct {
	cfg      *config.Config
	registry *adapter.Registry
	writer   writer.Writer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRegistry replaces the default adapter registry.
func WithRegistry(r *adapter.Registry) RunnerOption {
	return func(run *Runner) { run.registry = r }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(run *Runner) { run.metrics = m }
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(run *Runner) { run.logger = logger }
}

// NewRunner creates a runner over cfg writing through w.
func NewRunner(cfg *config.Config, w writer.Writer, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		registry: adapter.DefaultRegistry,
		writer:   w,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EntryReport summarizes one adapter entry's run.
type EntryReport struct {
	Entry    string
	Inputs   int
	Nodes    int
	Edges    int
	Skipped  int64
	Duration time.Duration
}

// Report summarizes a full pipeline run.
type Report struct {
	RunID    string
	Entries  []EntryReport
	Nodes    int
	Edges    int
	Skipped  int64
	Duration time.Duration
}

// Validate checks every manifest entry against the adapter registry and
// resolves its input paths, without running anything.
func (r *Runner) Validate() error {
	for _, name := range r.cfg.EntryNames() {
		entry := r.cfg.Adapters[name]
		if _, ok := r.registry.Get(entry.Adapter.Type); !ok {
			return fmt.Errorf("entry %s: unknown adapter type: %s", name, entry.Adapter.Type)
		}
		if _, err := entry.InputPaths(); err != nil {
			return fmt.Errorf("entry %s: %w", name, err)
		}
	}
	return nil
}

// Run executes the named entries, or every entry when names is empty.
// Entries run concurrently up to the configured worker limit; the first
// failure cancels the rest.
func (r *Runner) Run(ctx context.Context, names ...string) (*Report, error) {
	if len(names) == 0 {
		names = r.cfg.EntryNames()
	}
	// resolve every entry before launching anything, so a bad manifest
	// cannot produce partial output
	for _, name := range names {
		entry, ok := r.cfg.Adapters[name]
		if !ok {
			return nil, fmt.Errorf("unknown adapter entry: %s", name)
		}
		if _, ok := r.registry.Get(entry.Adapter.Type); !ok {
			return nil, fmt.Errorf("entry %s: unknown adapter type: %s", name, entry.Adapter.Type)
		}
	}

	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	logger.Info("Starting pipeline run", "entries", len(names))
	start := time.Now()

	results := make([]EntryReport, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			rep, err := r.runEntry(gctx, logger, name, r.cfg.Adapters[name])
			if err != nil {
				return fmt.Errorf("entry %s: %w", name, err)
			}
			results[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if r.metrics != nil {
			r.metrics.RunsTotal.WithLabelValues("failure").Inc()
		}
		return nil, err
	}

	report := &Report{RunID: runID, Entries: results, Duration: time.Since(start)}
	for _, rep := range results {
		report.Nodes += rep.Nodes
		report.Edges += rep.Edges
		report.Skipped += rep.Skipped
	}
	sort.Slice(report.Entries, func(i, j int) bool {
		return report.Entries[i].Entry < report.Entries[j].Entry
	})

	if r.metrics != nil {
		r.metrics.RunsTotal.WithLabelValues("success").Inc()
	}
	logger.Info("Pipeline run complete",
		"nodes", report.Nodes, "edges", report.Edges,
		"skipped", report.Skipped, "duration", report.Duration)
	return report, nil
}

func (r *Runner) runEntry(ctx context.Context, logger *slog.Logger, name string, entry *config.Entry) (EntryReport, error) {
	start := time.Now()
	rep := EntryReport{Entry: name}

	paths, err := entry.InputPaths()
	if err != nil {
		return rep, err
	}

	var nodes []graph.Node
	var edges []graph.Edge
	run := func(args map[string]any) error {
		a, err := r.registry.Build(entry.Adapter.Type, args)
		if err != nil {
			return err
		}
		if entry.Nodes {
			err := a.Nodes(ctx, func(n graph.Node) error {
				if err := n.Validate(); err != nil {
					logger.Warn("Dropping invalid node", "entry", name, "error", err)
					rep.Skipped++
					return nil
				}
				nodes = append(nodes, n)
				return nil
			})
			if err != nil {
				return err
			}
		}
		if entry.Edges {
			err := a.Edges(ctx, func(e graph.Edge) error {
				if err := e.Validate(); err != nil {
					logger.Warn("Dropping invalid edge", "entry", name, "error", err)
					rep.Skipped++
					return nil
				}
				edges = append(edges, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		skipped := a.Skipped()
		if skipped > 0 {
			logger.Warn("Skipped malformed records", "entry", name, "skipped", skipped)
		}
		rep.Skipped += skipped
		return nil
	}

	if len(paths) == 0 {
		rep.Inputs = 1
		if err := run(entry.Adapter.Args); err != nil {
			return rep, err
		}
	} else {
		rep.Inputs = len(paths)
		for _, path := range paths {
			if err := run(entry.ArgsWithFilepath(path)); err != nil {
				return rep, err
			}
		}
	}

	if len(nodes) > 0 {
		if err := r.writer.WriteNodes(ctx, entry.Outdir, nodes); err != nil {
			return rep, err
		}
	}
	if len(edges) > 0 {
		if err := r.writer.WriteEdges(ctx, entry.Outdir, edges); err != nil {
			return rep, err
		}
	}

	rep.Nodes = len(nodes)
	rep.Edges = len(edges)
	rep.Duration = time.Since(start)

	if r.metrics != nil {
		r.metrics.NodesWritten.WithLabelValues(name).Add(float64(rep.Nodes))
		r.metrics.EdgesWritten.WithLabelValues(name).Add(float64(rep.Edges))
		r.metrics.RecordsSkipped.WithLabelValues(name).Add(float64(rep.Skipped))
		r.metrics.AdapterDuration.WithLabelValues(name).Observe(rep.Duration.Seconds())
	}
	logger.Info("Adapter entry finished", "entry", name,
		"inputs", rep.Inputs, "nodes", rep.Nodes, "edges", rep.Edges,
		"skipped", rep.Skipped, "duration", rep.Duration)
	return rep, nil
}

// SchemaFromConfig merges manifest schema overrides onto the default edge
// schema.
func SchemaFromConfig(cfg *config.Config) writer.Schema {
	schema := writer.DefaultSchema()
	extra := make(writer.Schema, len(cfg.Schema))
	for label, entry := range cfg.Schema {
		extra[label] = writer.EdgeType{
			Source:      entry.Source,
			Target:      entry.Target,
			OutputLabel: entry.OutputLabel,
		}
	}
	schema.Merge(extra)
	return schema
}
