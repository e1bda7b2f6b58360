// Package main provides the biograph binary entry point.
// Biograph runs biomedical source adapters from a manifest and writes
// Neo4j-importable CSV output.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register adapters via init()
	_ "github.com/atlasbio/biograph/adapter/bed"
	_ "github.com/atlasbio/biograph/adapter/gaf"
	_ "github.com/atlasbio/biograph/adapter/gencode"
	_ "github.com/atlasbio/biograph/adapter/obo"
	_ "github.com/atlasbio/biograph/adapter/reactome"
	_ "github.com/atlasbio/biograph/adapter/stringdb"
	_ "github.com/atlasbio/biograph/adapter/uniprot"
	_ "github.com/atlasbio/biograph/adapter/vcf"

	"github.com/atlasbio/biograph/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "biograph"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Biomedical knowledge graph builder",
		Long: `Biograph turns biomedical source files into a Neo4j property graph.

A YAML manifest names adapter entries: which adapter parses which input
file, and where the resulting nodes and edges land. Each entry produces
per-label CSV files plus Cypher import statements, ready for
apoc.periodic.iterate or direct bolt loading.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Manifest file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		runCmd(&configPath),
		validateCmd(&configPath),
		adaptersCmd(),
		fetchCmd(&configPath),
		loadCmd(&configPath),
		watchCmd(&configPath),
		versionCmd(),
	)

	return cmd
}

func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func loadManifest(configPath string) (*config.Config, error) {
	loader := config.NewLoader(slog.Default())
	cfg, err := loader.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	return cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}
