// Package stringdb parses STRING protein link files into interacts_with
// edges between proteins, weighted by combined score.
package stringdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/graph"
)

const Type = "string_ppi"

func init() {
	adapter.Register(Type, func(args map[string]any) (adapter.Adapter, error) {
		return New(args)
	})
}

// Adapter reads a STRING protein.links file (space-separated: protein1
// protein2 combined_score). It contributes edges only.
type Adapter struct {
	adapter.Stats
	filepath string
	minScore int
}

// New builds the adapter from manifest args. The optional min_score arg
// drops low-confidence interactions.
func New(args map[string]any) (*Adapter, error) {
	path, err := adapter.StringArg(args, "filepath")
	if err != nil {
		return nil, err
	}
	minScore, err := adapter.OptionalIntArg(args, "min_score", 0)
	if err != nil {
		return nil, err
	}
	return &Adapter{filepath: path, minScore: minScore}, nil
}

// Name returns the adapter type name.
func (a *Adapter) Name() string { return Type }

// Nodes is a no-op: protein nodes come from the UniProt adapter.
func (a *Adapter) Nodes(ctx context.Context, emit adapter.NodeFunc) error {
	return nil
}

// Edges emits one interacts_with edge per link above the score threshold.
func (a *Adapter) Edges(ctx context.Context, emit adapter.EdgeFunc) error {
	in, err := adapter.OpenInput(a.filepath)
	if err != nil {
		return err
	}
	defer in.Close()

	sc := in.Scanner()
	first := true
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		if line == "" {
			continue
		}
		if first {
			// header row
			first = false
			if strings.HasPrefix(line, "protein1") {
				continue
			}
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			a.Skip()
			continue
		}
		score, err := strconv.Atoi(fields[2])
		if err != nil {
			a.Skip()
			continue
		}
		if score < a.minScore {
			continue
		}
		if err := emit(graph.Edge{
			SourceID: graph.SanitizeID(stripTaxon(fields[0])),
			TargetID: graph.SanitizeID(stripTaxon(fields[1])),
			Label:    "interacts_with",
			Props: graph.Props{
				"score": score,
			},
		}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", a.filepath, err)
	}
	return nil
}

// stripTaxon removes the NCBI taxid prefix: 9606.ENSP00000369497 -> ENSP...
func stripTaxon(id string) string {
	if i := strings.Index(id, "."); i >= 0 {
		return id[i+1:]
	}
	return id
}
