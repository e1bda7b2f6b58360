// Package uniprot parses UniProtKB flat files (Swiss-Prot/TrEMBL .dat) into
// protein nodes and transcript-protein translation edges.
package uniprot

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/graph"
)

const Type = "uniprot_protein"

func init() {
	adapter.Register(Type, func(args map[string]any) (adapter.Adapter, error) {
		return New(args)
	})
}

// Adapter reads UniProtKB flat-file records separated by // lines.
type Adapter struct {
	adapter.Stats
	filepath string
	source   string
}

// New builds the adapter from manifest args. The optional source arg names
// the dataset (swissprot or trembl) and is stored on every node.
func New(args map[string]any) (*Adapter, error) {
	path, err := adapter.StringArg(args, "filepath")
	if err != nil {
		return nil, err
	}
	source, err := adapter.OptionalStringArg(args, "source", "swissprot")
	if err != nil {
		return nil, err
	}
	return &Adapter{filepath: path, source: source}, nil
}

// Name returns the adapter type name.
func (a *Adapter) Name() string { return Type }

type entry struct {
	accessions  []string
	proteinName string
	geneName    string
	organism    string
	transcripts []string
}

// Nodes emits one protein node per record, identified by the primary
// accession; secondary accessions become synonyms.
func (a *Adapter) Nodes(ctx context.Context, emit adapter.NodeFunc) error {
	return a.scan(ctx, func(e entry) error {
		if len(e.accessions) == 0 {
			a.Skip()
			return nil
		}
		props := graph.Props{"source": a.source}
		if e.proteinName != "" {
			props["protein_name"] = e.proteinName
		}
		if e.geneName != "" {
			props["gene_name"] = e.geneName
		}
		if e.organism != "" {
			props["organism"] = e.organism
		}
		if len(e.accessions) > 1 {
			props["synonyms"] = e.accessions[1:]
		}
		return emit(graph.Node{
			ID:    graph.SanitizeID(e.accessions[0]),
			Label: "protein",
			Props: props,
		})
	})
}

// Edges emits translates_to (transcript -> protein) and translation_of
// (protein -> transcript) edges from Ensembl cross-references.
func (a *Adapter) Edges(ctx context.Context, emit adapter.EdgeFunc) error {
	return a.scan(ctx, func(e entry) error {
		if len(e.accessions) == 0 {
			a.Skip()
			return nil
		}
		protein := graph.SanitizeID(e.accessions[0])
		for _, enst := range e.transcripts {
			transcript := graph.SanitizeID(enst)
			if err := emit(graph.Edge{
				SourceID: transcript,
				TargetID: protein,
				Label:    "translates_to",
				Props:    graph.Props{},
			}); err != nil {
				return err
			}
			if err := emit(graph.Edge{
				SourceID: protein,
				TargetID: transcript,
				Label:    "translation_of",
				Props:    graph.Props{},
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *Adapter) scan(ctx context.Context, fn func(entry) error) error {
	in, err := adapter.OpenInput(a.filepath)
	if err != nil {
		return err
	}
	defer in.Close()

	var cur entry
	sc := in.Scanner()
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		if line == "//" {
			if err := fn(cur); err != nil {
				return err
			}
			cur = entry{}
			continue
		}
		if len(line) < 6 {
			continue
		}
		code, value := line[:2], strings.TrimSpace(line[5:])
		switch code {
		case "AC":
			for _, acc := range strings.Split(value, ";") {
				acc = strings.TrimSpace(acc)
				if acc != "" {
					cur.accessions = append(cur.accessions, acc)
				}
			}
		case "DE":
			if cur.proteinName == "" {
				if name, ok := strings.CutPrefix(value, "RecName: Full="); ok {
					cur.proteinName = trimFieldEnd(name)
				}
			}
		case "GN":
			if cur.geneName == "" {
				if name, ok := strings.CutPrefix(value, "Name="); ok {
					cur.geneName = trimFieldEnd(name)
				}
			}
		case "OS":
			if cur.organism == "" {
				cur.organism = strings.TrimSuffix(value, ".")
			}
		case "DR":
			if rest, ok := strings.CutPrefix(value, "Ensembl;"); ok {
				parts := strings.Split(rest, ";")
				if len(parts) > 0 {
					enst := stripVersion(strings.TrimSpace(parts[0]))
					if strings.HasPrefix(enst, "ENST") {
						cur.transcripts = append(cur.transcripts, enst)
					}
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", a.filepath, err)
	}
	// a trailing record without its // terminator still counts
	if len(cur.accessions) > 0 {
		return fn(cur)
	}
	return nil
}

// trimFieldEnd cuts UniProt field terminators: the first semicolon and any
// evidence braces. "BRCA2; Synonyms=FACD;" -> "BRCA2".
func trimFieldEnd(s string) string {
	s, _, _ = strings.Cut(s, ";")
	if i := strings.Index(s, "{"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func stripVersion(id string) string {
	if i := strings.Index(id, "."); i >= 0 {
		return id[:i]
	}
	return id
}
