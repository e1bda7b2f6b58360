// Package vcf parses VCF variant files (dbSNP-style) into sequence variant
// nodes. Multi-allelic rows fan out into one node per alternate allele.
package vcf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/graph"
)

const Type = "vcf"

func init() {
	adapter.Register(Type, func(args map[string]any) (adapter.Adapter, error) {
		return New(args)
	})
}

// Adapter reads a VCF file. It contributes nodes only.
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

// Nodes emits one sequence_variant node per alt allele. Variants with an
// rsID use it as node ID; otherwise the ID is chr_pos_ref_alt.
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
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			a.Skip()
			continue
		}
		chr, posStr, rsID, ref, alts := fields[0], fields[1], fields[2], fields[3], fields[4]
		pos, err := strconv.Atoi(posStr)
		if err != nil {
			a.Skip()
			continue
		}
		altList := strings.Split(alts, ",")
		for _, alt := range altList {
			if alt == "" || alt == "." {
				continue
			}
			id := rsID
			if id == "" || id == "." {
				id = fmt.Sprintf("%s_%d_%s_%s", chr, pos, ref, alt)
			} else if len(altList) > 1 {
				// keep fan-out nodes distinct per allele
				id = fmt.Sprintf("%s_%s", rsID, alt)
			}
			props := graph.Props{
				"chr": chr,
				"pos": pos,
				"ref": ref,
				"alt": alt,
			}
			if rsID != "" && rsID != "." {
				props["rsid"] = rsID
			}
			if err := emit(graph.Node{
				ID:    graph.SanitizeID(id),
				Label: "sequence_variant",
				Props: props,
			}); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", a.filepath, err)
	}
	return nil
}

// Edges is a no-op: variant catalogs carry no relations of their own.
func (a *Adapter) Edges(ctx context.Context, emit adapter.EdgeFunc) error {
	return nil
}
