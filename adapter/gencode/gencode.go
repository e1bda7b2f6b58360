// Package gencode parses GENCODE GTF annotation files into gene and
// transcript nodes plus transcribed_to/transcribed_from edges.
package gencode

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/graph"
)

const (
	TypeGene       = "gencode_gene"
	TypeTranscript = "gencode_transcript"
)

func init() {
	adapter.Register(TypeGene, func(args map[string]any) (adapter.Adapter, error) {
		return newAdapter(TypeGene, args)
	})
	adapter.Register(TypeTranscript, func(args map[string]any) (adapter.Adapter, error) {
		return newAdapter(TypeTranscript, args)
	})
}

// Adapter reads a GTF file. The gencode_gene variant emits gene nodes; the
// gencode_transcript variant emits transcript nodes and the gene-transcript
// edges in both directions.
type Adapter struct {
	adapter.Stats
	name     string
	filepath string
}

func newAdapter(name string, args map[string]any) (*Adapter, error) {
	path, err := adapter.StringArg(args, "filepath")
	if err != nil {
		return nil, err
	}
	return &Adapter{name: name, filepath: path}, nil
}

// Name returns the adapter type name.
func (a *Adapter) Name() string { return a.name }

// Nodes emits one node per gene (gencode_gene) or transcript
// (gencode_transcript) feature.
func (a *Adapter) Nodes(ctx context.Context, emit adapter.NodeFunc) error {
	feature := "gene"
	if a.name == TypeTranscript {
		feature = "transcript"
	}
	return a.scan(ctx, feature, func(rec record) error {
		node, ok := a.nodeFor(rec, feature)
		if !ok {
			a.Skip()
			return nil
		}
		return emit(node)
	})
}

// Edges emits transcribed_to and transcribed_from edges between genes and
// transcripts. Only the transcript variant contributes edges.
func (a *Adapter) Edges(ctx context.Context, emit adapter.EdgeFunc) error {
	if a.name != TypeTranscript {
		return nil
	}
	return a.scan(ctx, "transcript", func(rec record) error {
		geneID := stripVersion(rec.attrs["gene_id"])
		transcriptID := stripVersion(rec.attrs["transcript_id"])
		if geneID == "" || transcriptID == "" {
			a.Skip()
			return nil
		}
		if err := emit(graph.Edge{
			SourceID: graph.SanitizeID(geneID),
			TargetID: graph.SanitizeID(transcriptID),
			Label:    "transcribed_to",
			Props:    graph.Props{},
		}); err != nil {
			return err
		}
		return emit(graph.Edge{
			SourceID: graph.SanitizeID(transcriptID),
			TargetID: graph.SanitizeID(geneID),
			Label:    "transcribed_from",
			Props:    graph.Props{},
		})
	})
}

type record struct {
	chr    string
	start  int
	end    int
	strand string
	attrs  map[string]string
}

func (a *Adapter) scan(ctx context.Context, feature string, fn func(record) error) error {
	in, err := adapter.OpenInput(a.filepath)
	if err != nil {
		return err
	}
	defer in.Close()

	sc := in.Scanner()
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 9 {
			a.Skip()
			continue
		}
		if fields[2] != feature {
			continue
		}
		start, err1 := strconv.Atoi(fields[3])
		end, err2 := strconv.Atoi(fields[4])
		if err1 != nil || err2 != nil {
			a.Skip()
			continue
		}
		rec := record{
			chr:    fields[0],
			start:  start,
			end:    end,
			strand: fields[6],
			attrs:  parseAttributes(fields[8]),
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", a.filepath, err)
	}
	return nil
}

func (a *Adapter) nodeFor(rec record, feature string) (graph.Node, bool) {
	idKey := feature + "_id"
	id := stripVersion(rec.attrs[idKey])
	if id == "" {
		return graph.Node{}, false
	}
	props := graph.Props{
		"chr":   rec.chr,
		"start": rec.start,
		"end":   rec.end,
	}
	if name := rec.attrs["gene_name"]; name != "" {
		props["gene_name"] = name
	}
	if typ := rec.attrs["gene_type"]; typ != "" {
		props["gene_type"] = typ
	}
	if feature == "transcript" {
		if name := rec.attrs["transcript_name"]; name != "" {
			props["transcript_name"] = name
		}
		if typ := rec.attrs["transcript_type"]; typ != "" {
			props["transcript_type"] = typ
		}
		if geneID := stripVersion(rec.attrs["gene_id"]); geneID != "" {
			props["gene"] = graph.SanitizeID(geneID)
		}
	}
	return graph.Node{
		ID:    graph.SanitizeID(id),
		Label: feature,
		Props: props,
	}, true
}

// parseAttributes parses the GTF attribute column: semicolon-separated
// key "value" pairs.
func parseAttributes(field string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range strings.Split(field, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, " ")
		if !found {
			continue
		}
		attrs[key] = strings.Trim(value, `"`)
	}
	return attrs
}

// stripVersion removes the Ensembl version suffix (ENSG00000139618.15).
func stripVersion(id string) string {
	if i := strings.Index(id, "."); i >= 0 {
		return id[:i]
	}
	return id
}
