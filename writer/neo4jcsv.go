package writer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/atlasbio/biograph/graph"
)

const defaultChunkSize = 1000

// Neo4jCSV writes nodes and edges as per-label CSV files with matching
// Cypher import statements.
type Neo4jCSV struct {
	outputPath string
	schema     Schema
	chunkSize  int
	workers    int
	logger     *slog.Logger
}

// Option configures the writer.
type Option func(*Neo4jCSV)

// WithSchema replaces the default edge schema.
func WithSchema(s Schema) Option {
	return func(w *Neo4jCSV) { w.schema = s }
}

// WithChunkSize sets the number of rows formatted per worker chunk.
func WithChunkSize(n int) Option {
	return func(w *Neo4jCSV) { w.chunkSize = n }
}

// WithWorkers caps the number of concurrent chunk formatters.
func WithWorkers(n int) Option {
	return func(w *Neo4jCSV) { w.workers = n }
}

// WithLogger sets the writer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Neo4jCSV) { w.logger = logger }
}

// NewNeo4jCSV creates a writer rooted at outputDir, creating the directory
// if needed.
func NewNeo4jCSV(outputDir string, opts ...Option) (*Neo4jCSV, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	w := &Neo4jCSV{
		outputPath: outputDir,
		schema:     DefaultSchema(),
		chunkSize:  defaultChunkSize,
		workers:    4,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WriteNodes groups nodes by label and writes nodes_<label>.csv plus
// nodes_<label>.cypher under subdir.
func (w *Neo4jCSV) WriteNodes(ctx context.Context, subdir string, nodes []graph.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	outDir := filepath.Join(w.outputPath, subdir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	groups := make(map[string][]graph.Node)
	for _, n := range nodes {
		label := graph.SanitizeLabel(n.Label)
		groups[label] = append(groups[label], n)
	}

	for _, label := range sortedKeys(groups) {
		group := groups[label]
		headers := nodeHeaders(group)
		rows := make([][]string, len(group))
		if err := w.formatChunks(ctx, len(group), func(i int) {
			rows[i] = nodeRow(group[i], label, headers)
		}); err != nil {
			return err
		}

		csvPath := filepath.Join(outDir, "nodes_"+label+".csv")
		if err := writeCSV(csvPath, headers, rows); err != nil {
			return err
		}
		cypherPath := filepath.Join(outDir, "nodes_"+label+".cypher")
		query := nodeCypher(csvPath, label, graph.IsOntologyLabel(label))
		if err := os.WriteFile(cypherPath, []byte(query), 0644); err != nil {
			return fmt.Errorf("write cypher file: %w", err)
		}
	}

	w.logger.Info("Finished writing node import queries",
		"outdir", outDir, "labels", len(groups), "nodes", len(nodes))
	return nil
}

// WriteEdges groups edges by label and writes edges_<label>.csv plus
// edges_<label>.cypher under subdir. Every edge label must have a schema
// entry declaring its endpoint node labels.
func (w *Neo4jCSV) WriteEdges(ctx context.Context, subdir string, edges []graph.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	outDir := filepath.Join(w.outputPath, subdir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	groups := make(map[string][]graph.Edge)
	for _, e := range edges {
		label := graph.SanitizeLabel(e.Label)
		groups[label] = append(groups[label], e)
	}

	for _, label := range sortedKeys(groups) {
		group := groups[label]
		et, err := w.schema.Lookup(label)
		if err != nil {
			return err
		}

		headers := edgeHeaders(group)
		rows := make([][]string, len(group))
		if err := w.formatChunks(ctx, len(group), func(i int) {
			rows[i] = edgeRow(group[i], label, headers)
		}); err != nil {
			return err
		}

		csvPath := filepath.Join(outDir, "edges_"+label+".csv")
		if err := writeCSV(csvPath, headers, rows); err != nil {
			return err
		}
		cypherPath := filepath.Join(outDir, "edges_"+label+".cypher")
		query := edgeCypher(csvPath, et, label)
		if err := os.WriteFile(cypherPath, []byte(query), 0644); err != nil {
			return fmt.Errorf("write cypher file: %w", err)
		}
	}

	w.logger.Info("Finished writing edge import queries",
		"outdir", outDir, "labels", len(groups), "edges", len(edges))
	return nil
}

// formatChunks runs fn over [0,n) in parallel chunks. Row formatting is the
// sanitization-heavy part; file writing itself stays sequential.
func (w *Neo4jCSV) formatChunks(ctx context.Context, n int, fn func(i int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for start := 0; start < n; start += w.chunkSize {
		start := start
		end := min(start+w.chunkSize, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

// nodeHeaders returns id, label, then the union of property keys sorted.
func nodeHeaders(nodes []graph.Node) []string {
	keys := make(map[string]bool)
	for _, n := range nodes {
		for k := range n.Props {
			keys[k] = true
		}
	}
	headers := []string{"id", "label"}
	return append(headers, sortedKeys(keys)...)
}

func edgeHeaders(edges []graph.Edge) []string {
	keys := make(map[string]bool)
	for _, e := range edges {
		for k := range e.Props {
			keys[k] = true
		}
	}
	headers := []string{"source_id", "target_id", "label"}
	return append(headers, sortedKeys(keys)...)
}

func nodeRow(n graph.Node, label string, headers []string) []string {
	row := make([]string, len(headers))
	row[0] = graph.SanitizeID(n.ID)
	row[1] = label
	for i, h := range headers[2:] {
		row[i+2] = formatValue(n.Props[h])
	}
	return row
}

func edgeRow(e graph.Edge, label string, headers []string) []string {
	row := make([]string, len(headers))
	row[0] = graph.SanitizeID(e.SourceID)
	row[1] = graph.SanitizeID(e.TargetID)
	row[2] = label
	for i, h := range headers[3:] {
		row[i+3] = formatValue(e.Props[h])
	}
	return row
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	sanitized := graph.SanitizeValue(v)
	if s, ok := sanitized.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", sanitized)
}

func writeCSV(path string, headers []string, rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = graph.CSVDelimiter
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write csv file: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
