// Package bed parses BED interval files into regulatory region nodes
// (enhancers, promoters) keyed by their genomic coordinates.
package bed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/graph"
)

const Type = "bed"

func init() {
	adapter.Register(Type, func(args map[string]any) (adapter.Adapter, error) {
		return New(args)
	})
}

// Adapter reads a BED file. The label arg names the biological element type
// the intervals represent (enhancer, promoter).
type Adapter struct {
	adapter.Stats
	filepath string
	label    string
}

// New builds the adapter from manifest args.
func New(args map[string]any) (*Adapter, error) {
	path, err := adapter.StringArg(args, "filepath")
	if err != nil {
		return nil, err
	}
	label, err := adapter.StringArg(args, "label")
	if err != nil {
		return nil, err
	}
	return &Adapter{filepath: path, label: graph.SanitizeLabel(label)}, nil
}

// Name returns the adapter type name.
func (a *Adapter) Name() string { return Type }

// Nodes emits one node per interval with id chr_start_end.
func (a *Adapter) Nodes(ctx context.Context, emit adapter.NodeFunc) error {
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
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "track") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			a.Skip()
			continue
		}
		start, err1 := strconv.Atoi(fields[1])
		end, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || end < start {
			a.Skip()
			continue
		}
		props := graph.Props{
			"chr":   fields[0],
			"start": start,
			"end":   end,
		}
		if len(fields) > 3 && fields[3] != "." {
			props["name"] = fields[3]
		}
		id := fmt.Sprintf("%s_%d_%d", fields[0], start, end)
		if err := emit(graph.Node{
			ID:    graph.SanitizeID(id),
			Label: a.label,
			Props: props,
		}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", a.filepath, err)
	}
	return nil
}

// Edges is a no-op: interval files carry no relations of their own.
func (a *Adapter) Edges(ctx context.Context, emit adapter.EdgeFunc) error {
	return nil
}
