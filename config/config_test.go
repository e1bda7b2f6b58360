package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Adapters = map[string]*Entry{
		"gencode_gene": {
			Adapter: AdapterSpec{
				Type: "gencode_gene",
				Args: map[string]any{"filepath": "data/gencode.gtf.gz"},
			},
			Outdir: "gencode",
			Nodes:  true,
		},
	}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.OutputDir != "output" {
		t.Errorf("expected default output dir output, got %s", cfg.OutputDir)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Workers)
	}
	if cfg.Neo4j.URI != "bolt://localhost:7687" {
		t.Errorf("expected default bolt URI, got %s", cfg.Neo4j.URI)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing output dir",
			modify:  func(c *Config) { c.OutputDir = "" },
			wantErr: true,
		},
		{
			name:    "zero workers",
			modify:  func(c *Config) { c.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "no adapters",
			modify:  func(c *Config) { c.Adapters = nil },
			wantErr: true,
		},
		{
			name:    "missing adapter type",
			modify:  func(c *Config) { c.Adapters["gencode_gene"].Adapter.Type = "" },
			wantErr: true,
		},
		{
			name:    "missing outdir",
			modify:  func(c *Config) { c.Adapters["gencode_gene"].Outdir = "" },
			wantErr: true,
		},
		{
			name: "neither nodes nor edges",
			modify: func(c *Config) {
				c.Adapters["gencode_gene"].Nodes = false
				c.Adapters["gencode_gene"].Edges = false
			},
			wantErr: true,
		},
		{
			name: "schema entry without target",
			modify: func(c *Config) {
				c.Schema = map[string]EdgeSchemaEntry{"custom": {Source: "gene"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "biograph.yaml")

	content := `
output_dir: /tmp/out
workers: 8
adapters:
  uniprotkb_sprot:
    adapter:
      type: uniprot_protein
      args:
        filepath: data/uniprot_sprot_human.dat.gz
    outdir: uniprot
    nodes: true
    edges: true
  gencode_gene:
    adapter:
      type: gencode_gene
      args:
        filepath: data/gencode.gtf.gz
    outdir: gencode
    nodes: true
    url: https://example.org/gencode.gtf.gz
schema:
  regulates:
    source: gene
    target: gene
`
	if err := os.WriteFile(manifestPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test manifest: %v", err)
	}

	cfg, err := LoadFromFile(manifestPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("expected output dir /tmp/out, got %s", cfg.OutputDir)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Workers)
	}
	if len(cfg.Adapters) != 2 {
		t.Fatalf("expected 2 adapter entries, got %d", len(cfg.Adapters))
	}

	entry := cfg.Adapters["uniprotkb_sprot"]
	if entry.Adapter.Type != "uniprot_protein" {
		t.Errorf("expected adapter type uniprot_protein, got %s", entry.Adapter.Type)
	}
	if !entry.Nodes || !entry.Edges {
		t.Error("expected both nodes and edges for uniprotkb_sprot")
	}
	if cfg.Adapters["gencode_gene"].URL == "" {
		t.Error("expected URL preserved for gencode_gene")
	}
	if cfg.Schema["regulates"].Target != "gene" {
		t.Errorf("expected schema target gene, got %s", cfg.Schema["regulates"].Target)
	}

	names := cfg.EntryNames()
	if len(names) != 2 || names[0] != "gencode_gene" {
		t.Errorf("EntryNames() = %v, want sorted order", names)
	}
}

func TestEntryInputPaths(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"a.bed", "b.bed", "c.txt"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("literal path", func(t *testing.T) {
		e := &Entry{Adapter: AdapterSpec{Args: map[string]any{"filepath": "data/input.gtf"}}}
		paths, err := e.InputPaths()
		if err != nil {
			t.Fatalf("InputPaths() error = %v", err)
		}
		if len(paths) != 1 || paths[0] != "data/input.gtf" {
			t.Errorf("InputPaths() = %v", paths)
		}
	})

	t.Run("glob expansion", func(t *testing.T) {
		e := &Entry{Adapter: AdapterSpec{Args: map[string]any{"filepath": filepath.Join(tmpDir, "*.bed")}}}
		paths, err := e.InputPaths()
		if err != nil {
			t.Fatalf("InputPaths() error = %v", err)
		}
		if len(paths) != 2 {
			t.Errorf("expected 2 matches, got %v", paths)
		}
	})

	t.Run("glob with no matches", func(t *testing.T) {
		e := &Entry{Adapter: AdapterSpec{Args: map[string]any{"filepath": filepath.Join(tmpDir, "*.vcf")}}}
		if _, err := e.InputPaths(); err == nil {
			t.Error("expected error for empty glob")
		}
	})

	t.Run("no filepath arg", func(t *testing.T) {
		e := &Entry{Adapter: AdapterSpec{Args: map[string]any{}}}
		paths, err := e.InputPaths()
		if err != nil || paths != nil {
			t.Errorf("InputPaths() = %v, %v; want nil, nil", paths, err)
		}
	})
}

func TestArgsWithFilepath(t *testing.T) {
	e := &Entry{Adapter: AdapterSpec{Args: map[string]any{"filepath": "*.bed", "label": "enhancer"}}}
	args := e.ArgsWithFilepath("data/one.bed")
	if args["filepath"] != "data/one.bed" {
		t.Errorf("filepath not replaced: %v", args["filepath"])
	}
	if args["label"] != "enhancer" {
		t.Errorf("other args not preserved: %v", args["label"])
	}
	if e.Adapter.Args["filepath"] != "*.bed" {
		t.Error("original args mutated")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		OutputDir: "/override",
		Neo4j:     Neo4jConfig{URI: "bolt://db:7687"},
		Adapters: map[string]*Entry{
			"gaf": {Adapter: AdapterSpec{Type: "gaf"}, Outdir: "gaf", Edges: true},
		},
	}

	base.Merge(override)

	if base.OutputDir != "/override" {
		t.Errorf("expected output dir /override, got %s", base.OutputDir)
	}
	// Workers should remain from base since override didn't set it
	if base.Workers != 4 {
		t.Errorf("expected workers to remain default, got %d", base.Workers)
	}
	if base.Neo4j.URI != "bolt://db:7687" {
		t.Errorf("expected overridden bolt URI, got %s", base.Neo4j.URI)
	}
	if base.Neo4j.Database != "neo4j" {
		t.Errorf("expected database to remain default, got %s", base.Neo4j.Database)
	}
	if _, ok := base.Adapters["gaf"]; !ok {
		t.Error("expected gaf entry merged in")
	}
}

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "biograph.yaml")

	content := `
adapters:
  go_ontology:
    adapter:
      type: obo
      args:
        filepath: data/go.obo
        ontology: go
    outdir: gene_ontology
    nodes: true
    edges: true
`
	if err := os.WriteFile(manifestPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(nil)
	cfg, err := loader.Load(manifestPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// Defaults fill in fields the manifest omits
	if cfg.OutputDir != "output" {
		t.Errorf("expected default output dir, got %s", cfg.OutputDir)
	}
	if len(cfg.Adapters) != 1 {
		t.Errorf("expected 1 adapter entry, got %d", len(cfg.Adapters))
	}

	if _, err := loader.Load(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing manifest")
	}
}
