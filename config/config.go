// Package config provides manifest loading and management for biograph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline manifest: driver settings plus the
// adapter registry entries that tell the driver which adapter to instantiate,
// with which arguments, and where its output goes.
type Config struct {
	// OutputDir is the root directory for all writer output.
	OutputDir string `yaml:"output_dir"`
	// Workers caps the number of adapters running concurrently.
	Workers int `yaml:"workers"`
	// Metrics configures the optional Prometheus listener.
	Metrics MetricsConfig `yaml:"metrics"`
	// Neo4j configures the bolt connection used by the load command.
	Neo4j Neo4jConfig `yaml:"neo4j"`
	// Schema overrides or extends the writer's edge schema table.
	Schema map[string]EdgeSchemaEntry `yaml:"schema"`
	// Adapters maps entry names to adapter registry entries.
	Adapters map[string]*Entry `yaml:"adapters"`
}

// Entry is a single adapter registry entry.
type Entry struct {
	// Adapter selects and parameterizes the adapter implementation.
	Adapter AdapterSpec `yaml:"adapter"`
	// Outdir is the subdirectory of OutputDir this entry writes to.
	Outdir string `yaml:"outdir"`
	// Nodes indicates the adapter contributes graph nodes.
	Nodes bool `yaml:"nodes"`
	// Edges indicates the adapter contributes graph edges.
	Edges bool `yaml:"edges"`
	// URL is an optional download source for the entry's input file.
	URL string `yaml:"url"`
}

// AdapterSpec names an adapter type and carries its constructor arguments.
type AdapterSpec struct {
	Type string         `yaml:"type"`
	Args map[string]any `yaml:"args"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns the /metrics listener on.
	Enabled bool `yaml:"enabled"`
	// Addr is the listen address (default :9090).
	Addr string `yaml:"addr"`
}

// Neo4jConfig configures the bolt connection for direct graph loading.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// EdgeSchemaEntry declares source/target node labels for an edge label.
type EdgeSchemaEntry struct {
	Source      string `yaml:"source"`
	Target      string `yaml:"target"`
	OutputLabel string `yaml:"output_label"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "output",
		Workers:   4,
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			Database: "neo4j",
		},
		Adapters: map[string]*Entry{},
	}
}

// Validate checks that the manifest is internally consistent. Adapter type
// resolution against the registry happens in the pipeline, which knows the
// registered types.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if len(c.Adapters) == 0 {
		return fmt.Errorf("at least one adapter entry is required")
	}
	for name, entry := range c.Adapters {
		if entry == nil {
			return fmt.Errorf("adapter %q: entry is empty", name)
		}
		if entry.Adapter.Type == "" {
			return fmt.Errorf("adapter %q: adapter.type is required", name)
		}
		if entry.Outdir == "" {
			return fmt.Errorf("adapter %q: outdir is required", name)
		}
		if !entry.Nodes && !entry.Edges {
			return fmt.Errorf("adapter %q: at least one of nodes or edges must be true", name)
		}
	}
	for label, schema := range c.Schema {
		if schema.Source == "" || schema.Target == "" {
			return fmt.Errorf("schema %q: source and target are required", label)
		}
	}
	return nil
}

// EntryNames returns the adapter entry names in sorted order.
func (c *Config) EntryNames() []string {
	names := make([]string, 0, len(c.Adapters))
	for name := range c.Adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InputPaths resolves the entry's filepath argument to concrete files,
// expanding doublestar globs. Entries without a filepath argument resolve to
// nil; a glob that matches nothing is an error.
func (e *Entry) InputPaths() ([]string, error) {
	raw, ok := e.Adapter.Args["filepath"]
	if !ok {
		return nil, nil
	}
	pattern, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("filepath must be a string, got %T", raw)
	}
	if !hasGlobMeta(pattern) {
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expand filepath glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("filepath glob %q matched no files", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

// ArgsWithFilepath returns a copy of the adapter args with filepath replaced.
// The pipeline uses this to fan an entry out over multiple matched inputs.
func (e *Entry) ArgsWithFilepath(path string) map[string]any {
	args := make(map[string]any, len(e.Adapter.Args))
	for k, v := range e.Adapter.Args {
		args[k] = v
	}
	args["filepath"] = path
	return args
}

// FilepathArg returns the entry's raw filepath argument, unexpanded. The
// second return is false when the entry has no string filepath argument.
func (e *Entry) FilepathArg() (string, bool) {
	raw, ok := e.Adapter.Args["filepath"]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
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

// LoadFromFile loads a manifest from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return config, nil
}

// SaveToFile saves the manifest to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). Adapter entries are merged by name.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.OutputDir != "" {
		c.OutputDir = other.OutputDir
	}
	if other.Workers != 0 {
		c.Workers = other.Workers
	}
	if other.Metrics.Enabled {
		c.Metrics.Enabled = true
	}
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
	if other.Neo4j.URI != "" {
		c.Neo4j.URI = other.Neo4j.URI
	}
	if other.Neo4j.Username != "" {
		c.Neo4j.Username = other.Neo4j.Username
	}
	if other.Neo4j.Password != "" {
		c.Neo4j.Password = other.Neo4j.Password
	}
	if other.Neo4j.Database != "" {
		c.Neo4j.Database = other.Neo4j.Database
	}
	for label, schema := range other.Schema {
		if c.Schema == nil {
			c.Schema = map[string]EdgeSchemaEntry{}
		}
		c.Schema[label] = schema
	}
	for name, entry := range other.Adapters {
		if c.Adapters == nil {
			c.Adapters = map[string]*Entry{}
		}
		c.Adapters[name] = entry
	}
}
