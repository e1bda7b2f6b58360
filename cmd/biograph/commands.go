package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/config"
	"github.com/atlasbio/biograph/download"
	"github.com/atlasbio/biograph/metrics"
	"github.com/atlasbio/biograph/pipeline"
	"github.com/atlasbio/biograph/writer"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func buildRunner(cfg *config.Config) (*pipeline.Runner, *metrics.Metrics, error) {
	w, err := writer.NewNeo4jCSV(cfg.OutputDir,
		writer.WithSchema(pipeline.SchemaFromConfig(cfg)),
		writer.WithWorkers(cfg.Workers),
		writer.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, nil, err
	}

	opts := []pipeline.RunnerOption{pipeline.WithLogger(slog.Default())}
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		opts = append(opts, pipeline.WithMetrics(m))
	}
	return pipeline.NewRunner(cfg, w, opts...), m, nil
}

func printReport(report *pipeline.Report) {
	fmt.Printf("run %s: %d nodes, %d edges, %d skipped in %s\n",
		report.RunID, report.Nodes, report.Edges, report.Skipped,
		report.Duration.Round(time.Millisecond))
	for _, entry := range report.Entries {
		fmt.Printf("  %-24s inputs=%d nodes=%d edges=%d skipped=%d %s\n",
			entry.Entry, entry.Inputs, entry.Nodes, entry.Edges, entry.Skipped,
			entry.Duration.Round(time.Millisecond))
	}
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run [entry...]",
		Short: "Run adapter entries and write graph output",
		Long: `Run executes the manifest's adapter entries, or only the named
entries when arguments are given. Entries run concurrently up to the
configured worker limit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadManifest(*configPath)
			if err != nil {
				return err
			}
			runner, m, err := buildRunner(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			if m != nil {
				go func() {
					if err := m.Serve(ctx, cfg.Metrics.Addr, slog.Default()); err != nil {
						slog.Error("Metrics server failed", "error", err)
					}
				}()
			}

			report, err := runner.Run(ctx, args...)
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
}

func validateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the manifest without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadManifest(*configPath)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(cfg, nil, pipeline.WithLogger(slog.Default()))
			if err := runner.Validate(); err != nil {
				return err
			}
			fmt.Printf("manifest OK: %d adapter entries\n", len(cfg.Adapters))
			for _, name := range cfg.EntryNames() {
				entry := cfg.Adapters[name]
				paths, _ := entry.InputPaths()
				fmt.Printf("  %-24s type=%s outdir=%s nodes=%t edges=%t inputs=%d\n",
					name, entry.Adapter.Type, entry.Outdir, entry.Nodes, entry.Edges, len(paths))
			}
			return nil
		},
	}
}

func adaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List registered adapter types",
		Run: func(cmd *cobra.Command, args []string) {
			for _, typ := range adapter.DefaultRegistry.Types() {
				fmt.Println(typ)
			}
		},
	}
}

func fetchCmd(configPath *string) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download input files for entries that declare a url",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadManifest(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			fetcher := download.NewFetcher(
				download.WithLogger(slog.Default()),
				download.WithOverwrite(overwrite),
			)
			return fetcher.FetchAll(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Re-download files that already exist")
	return cmd
}

func loadCmd(configPath *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run generated Cypher import files against Neo4j",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadManifest(*configPath)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.OutputDir
			}

			ctx, cancel := signalContext()
			defer cancel()

			loader, err := writer.NewBoltLoader(ctx,
				cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password,
				cfg.Neo4j.Database, slog.Default())
			if err != nil {
				return err
			}
			defer loader.Close(ctx)

			return loader.LoadDir(ctx, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory of .cypher files (default: manifest output_dir)")
	return cmd
}

func watchCmd(configPath *string) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run entries when their input files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadManifest(*configPath)
			if err != nil {
				return err
			}
			runner, m, err := buildRunner(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			if m != nil {
				go func() {
					if err := m.Serve(ctx, cfg.Metrics.Addr, slog.Default()); err != nil {
						slog.Error("Metrics server failed", "error", err)
					}
				}()
			}

			// full run first so the output starts consistent
			report, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			printReport(report)

			watcher, err := pipeline.NewWatcher(runner, debounce, slog.Default())
			if err != nil {
				return err
			}
			if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "Delay before re-running after a change")
	return cmd
}
