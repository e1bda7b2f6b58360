package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/config"
	"github.com/atlasbio/biograph/graph"
)

type fakeAdapter struct {
	adapter.Stats
	nodes []graph.Node
	edges []graph.Edge
}

func (a *fakeAdapter) Name() string { return "fake" }

func (a *fakeAdapter) Nodes(ctx context.Context, emit adapter.NodeFunc) error {
	for _, n := range a.nodes {
		if err := emit(n); err != nil {
			return err
		}
	}
	return nil
}

func (a *fakeAdapter) Edges(ctx context.Context, emit adapter.EdgeFunc) error {
	for _, e := range a.edges {
		if err := emit(e); err != nil {
			return err
		}
	}
	return nil
}

type memWriter struct {
	mu    sync.Mutex
	nodes map[string][]graph.Node
	edges map[string][]graph.Edge
}

func newMemWriter() *memWriter {
	return &memWriter{
		nodes: make(map[string][]graph.Node),
		edges: make(map[string][]graph.Edge),
	}
}

func (w *memWriter) WriteNodes(_ context.Context, subdir string, nodes []graph.Node) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nodes[subdir] = append(w.nodes[subdir], nodes...)
	return nil
}

func (w *memWriter) WriteEdges(_ context.Context, subdir string, edges []graph.Edge) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.edges[subdir] = append(w.edges[subdir], edges...)
	return nil
}

func testRegistry(t *testing.T) *adapter.Registry {
	t.Helper()
	reg := adapter.NewRegistry()
	reg.Register("fake", func(args map[string]any) (adapter.Adapter, error) {
		a := &fakeAdapter{
			nodes: []graph.Node{
				{ID: "g1", Label: "gene"},
				{ID: "g2", Label: "gene"},
			},
			edges: []graph.Edge{
				{SourceID: "g1", TargetID: "t1", Label: "transcribed_to"},
			},
		}
		a.Skip()
		return a, nil
	})
	return reg
}

func testConfig() *config.Config {
	return &config.Config{
		OutputDir: "output",
		Workers:   2,
		Adapters: map[string]*config.Entry{
			"genes": {
				Adapter: config.AdapterSpec{Type: "fake"},
				Outdir:  "gencode",
				Nodes:   true,
				Edges:   true,
			},
			"nodes_only": {
				Adapter: config.AdapterSpec{Type: "fake"},
				Outdir:  "other",
				Nodes:   true,
			},
		},
	}
}

func TestRunnerRun(t *testing.T) {
	w := newMemWriter()
	r := NewRunner(testConfig(), w, WithRegistry(testRegistry(t)))

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 4, report.Nodes)
	assert.Equal(t, 1, report.Edges)
	assert.Equal(t, int64(2), report.Skipped)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "genes", report.Entries[0].Entry)
	assert.Equal(t, "nodes_only", report.Entries[1].Entry)

	assert.Len(t, w.nodes["gencode"], 2)
	assert.Len(t, w.edges["gencode"], 1)
	assert.Len(t, w.nodes["other"], 2)
	// edges flag off: edge pass never ran
	assert.Empty(t, w.edges["other"])
}

func TestRunnerRunSelectedEntry(t *testing.T) {
	w := newMemWriter()
	r := NewRunner(testConfig(), w, WithRegistry(testRegistry(t)))

	report, err := r.Run(context.Background(), "genes")
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Empty(t, w.nodes["other"])
}

func TestRunnerRunFailsFastOnUnknownType(t *testing.T) {
	cfg := testConfig()
	cfg.Adapters["bad"] = &config.Entry{
		Adapter: config.AdapterSpec{Type: "no_such_type"},
		Outdir:  "bad",
		Nodes:   true,
	}

	w := newMemWriter()
	r := NewRunner(cfg, w, WithRegistry(testRegistry(t)))
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter type")

	// no entry may run before the manifest resolves
	assert.Empty(t, w.nodes)
	assert.Empty(t, w.edges)
}

func TestRunnerWarnsOnSkippedRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	w := newMemWriter()
	r := NewRunner(testConfig(), w, WithRegistry(testRegistry(t)), WithLogger(logger))
	report, err := r.Run(context.Background(), "genes")
	require.NoError(t, err)
	require.Equal(t, int64(1), report.Skipped)

	assert.Contains(t, buf.String(), "Skipped malformed records")
	assert.Contains(t, buf.String(), "skipped=1")
}

func TestRunnerDropsInvalidRecords(t *testing.T) {
	reg := adapter.NewRegistry()
	reg.Register("fake", func(args map[string]any) (adapter.Adapter, error) {
		return &fakeAdapter{
			nodes: []graph.Node{
				{ID: "", Label: "gene"},
				{ID: "g1", Label: "gene"},
			},
		}, nil
	})
	cfg := &config.Config{
		OutputDir: "output",
		Workers:   1,
		Adapters: map[string]*config.Entry{
			"genes": {
				Adapter: config.AdapterSpec{Type: "fake"},
				Outdir:  "gencode",
				Nodes:   true,
			},
		},
	}

	w := newMemWriter()
	r := NewRunner(cfg, w, WithRegistry(reg))
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Nodes)
	assert.Equal(t, int64(1), report.Skipped)
	assert.Len(t, w.nodes["gencode"], 1)
}

func TestRunnerRunUnknownEntry(t *testing.T) {
	r := NewRunner(testConfig(), newMemWriter(), WithRegistry(testRegistry(t)))

	_, err := r.Run(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter entry")
}

func TestRunnerValidate(t *testing.T) {
	cfg := testConfig()
	r := NewRunner(cfg, newMemWriter(), WithRegistry(testRegistry(t)))
	require.NoError(t, r.Validate())

	cfg.Adapters["bad"] = &config.Entry{
		Adapter: config.AdapterSpec{Type: "no_such_type"},
		Outdir:  "bad",
		Nodes:   true,
	}
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter type")
}

func TestSchemaFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Schema = map[string]config.EdgeSchemaEntry{
		"regulates": {Source: "gene", Target: "gene", OutputLabel: "regulates"},
	}
	schema := SchemaFromConfig(cfg)

	et, err := schema.Lookup("regulates")
	require.NoError(t, err)
	assert.Equal(t, "gene", et.Source)

	// defaults survive the merge
	_, err = schema.Lookup("transcribed_to")
	require.NoError(t, err)
}
