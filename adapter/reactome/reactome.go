// Package reactome parses Reactome gene-to-pathway mapping files
// (Ensembl2Reactome.txt) into pathway nodes and genes_pathways edges.
package reactome

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/graph"
)

const Type = "reactome_pathway"

// Ensembl2Reactome column indexes.
const (
	colGeneID       = 0
	colPathwayID    = 1
	colPathwayName  = 3
	colEvidenceCode = 4
	colSpecies      = 5
	minColumns      = 6
)

func init() {
	adapter.Register(Type, func(args map[string]any) (adapter.Adapter, error) {
		return New(args)
	})
}

// Adapter reads a Reactome mapping file filtered to one species.
type Adapter struct {
	adapter.Stats
	filepath string
	species  string
}

// New builds the adapter from manifest args. The optional species arg
// defaults to Homo sapiens.
func New(args map[string]any) (*Adapter, error) {
	path, err := adapter.StringArg(args, "filepath")
	if err != nil {
		return nil, err
	}
	species, err := adapter.OptionalStringArg(args, "species", "Homo sapiens")
	if err != nil {
		return nil, err
	}
	return &Adapter{filepath: path, species: species}, nil
}

// Name returns the adapter type name.
func (a *Adapter) Name() string { return Type }

// Nodes emits one pathway node per distinct pathway ID.
func (a *Adapter) Nodes(ctx context.Context, emit adapter.NodeFunc) error {
	seen := make(map[string]bool)
	return a.scan(ctx, func(fields []string) error {
		pathwayID := graph.SanitizeID(fields[colPathwayID])
		if seen[pathwayID] {
			return nil
		}
		seen[pathwayID] = true
		return emit(graph.Node{
			ID:    pathwayID,
			Label: "pathway",
			Props: graph.Props{
				"pathway_name": fields[colPathwayName],
			},
		})
	})
}

// Edges emits one genes_pathways edge per mapping row.
func (a *Adapter) Edges(ctx context.Context, emit adapter.EdgeFunc) error {
	return a.scan(ctx, func(fields []string) error {
		return emit(graph.Edge{
			SourceID: graph.SanitizeID(stripVersion(fields[colGeneID])),
			TargetID: graph.SanitizeID(fields[colPathwayID]),
			Label:    "genes_pathways",
			Props: graph.Props{
				"evidence": fields[colEvidenceCode],
			},
		})
	})
}

func (a *Adapter) scan(ctx context.Context, fn func([]string) error) error {
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
		if len(fields) < minColumns {
			a.Skip()
			continue
		}
		if fields[colSpecies] != a.species {
			continue
		}
		if fields[colGeneID] == "" || fields[colPathwayID] == "" {
			a.Skip()
			continue
		}
		if err := fn(fields); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", a.filepath, err)
	}
	return nil
}

func stripVersion(id string) string {
	if i := strings.Index(id, "."); i >= 0 {
		return id[:i]
	}
	return id
}
