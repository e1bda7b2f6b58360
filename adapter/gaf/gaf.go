// Package gaf parses GO annotation files (GAF 2.2) into edges linking gene
// products to ontology terms.
package gaf

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/graph"
)

const Type = "gaf"

// GAF 2.2 column indexes.
const (
	colObjectID  = 1
	colQualifier = 3
	colGOID      = 4
	colReference = 5
	colEvidence  = 6
	colAspect    = 8
	minColumns   = 9
)

func init() {
	adapter.Register(Type, func(args map[string]any) (adapter.Adapter, error) {
		return New(args)
	})
}

// Adapter reads a GAF annotation file. It contributes edges only.
type Adapter struct {
	adapter.Stats
	filepath string
}

// New builds the adapter from manifest args.
func New(args map[string]any) (*Adapter, error) {
	path, err := adapter.StringArg(args, "filepath")
	if err != nil {
		return nil, err
	}
	return &Adapter{filepath: path}, nil
}

// Name returns the adapter type name.
func (a *Adapter) Name() string { return Type }

// Nodes is a no-op: annotation files reference nodes owned by other sources.
func (a *Adapter) Nodes(ctx context.Context, emit adapter.NodeFunc) error {
	return nil
}

// Edges emits one go_gene_product edge per annotation row. Rows with a NOT
// qualifier assert the absence of a relation and are skipped.
func (a *Adapter) Edges(ctx context.Context, emit adapter.EdgeFunc) error {
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
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < minColumns {
			a.Skip()
			continue
		}
		qualifier := fields[colQualifier]
		if strings.Contains(qualifier, "NOT") {
			a.Skip()
			continue
		}
		objectID, goID := fields[colObjectID], fields[colGOID]
		if objectID == "" || goID == "" {
			a.Skip()
			continue
		}
		props := graph.Props{
			"qualifier": qualifier,
			"evidence":  fields[colEvidence],
			"aspect":    fields[colAspect],
		}
		if ref := fields[colReference]; ref != "" {
			props["reference"] = ref
		}
		if err := emit(graph.Edge{
			SourceID: graph.SanitizeID(objectID),
			TargetID: graph.SanitizeID(goID),
			Label:    "go_gene_product",
			Props:    props,
		}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", a.filepath, err)
	}
	return nil
}
