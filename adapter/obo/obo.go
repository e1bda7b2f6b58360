// Package obo parses OBO ontology dumps (GO, UBERON, CL, EFO, BTO, HPO) into
// ontology term nodes plus subclass_of and part_of edges.
package obo

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlasbio/biograph/adapter"
	"github.com/atlasbio/biograph/graph"
)

const Type = "obo"

func init() {
	adapter.Register(Type, func(args map[string]any) (adapter.Adapter, error) {
		return New(args)
	})
}

// Adapter reads an OBO flat file. The ontology arg names the ontology and
// becomes the node label (go, uberon, cl, efo, bto, hpo).
type Adapter struct {
	adapter.Stats
	filepath string
	ontology string
}

// New builds the adapter from manifest args.
func New(args map[string]any) (*Adapter, error) {
	path, err := adapter.StringArg(args, "filepath")
	if err != nil {
		return nil, err
	}
	ontology, err := adapter.StringArg(args, "ontology")
	if err != nil {
		return nil, err
	}
	return &Adapter{filepath: path, ontology: strings.ToLower(ontology)}, nil
}

// Name returns the adapter type name.
func (a *Adapter) Name() string { return Type }

type term struct {
	id        string
	name      string
	namespace string
	def       string
	synonyms  []string
	isA       []string
	partOf    []string
	obsolete  bool
}

// Nodes emits one node per non-obsolete term.
func (a *Adapter) Nodes(ctx context.Context, emit adapter.NodeFunc) error {
	return a.scan(ctx, func(t term) error {
		props := graph.Props{"term_name": t.name}
		if t.namespace != "" {
			props["subontology"] = t.namespace
		}
		if t.def != "" {
			props["description"] = t.def
		}
		if len(t.synonyms) > 0 {
			props["synonyms"] = t.synonyms
		}
		return emit(graph.Node{
			ID:    graph.SanitizeID(t.id),
			Label: a.ontology,
			Props: props,
		})
	})
}

// Edges emits subclass_of edges for is_a references and part_of edges for
// part_of relationships.
func (a *Adapter) Edges(ctx context.Context, emit adapter.EdgeFunc) error {
	return a.scan(ctx, func(t term) error {
		src := graph.SanitizeID(t.id)
		for _, parent := range t.isA {
			if err := emit(graph.Edge{
				SourceID: src,
				TargetID: graph.SanitizeID(parent),
				Label:    "subclass_of",
				Props:    graph.Props{},
			}); err != nil {
				return err
			}
		}
		for _, whole := range t.partOf {
			if err := emit(graph.Edge{
				SourceID: src,
				TargetID: graph.SanitizeID(whole),
				Label:    "part_of",
				Props:    graph.Props{},
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *Adapter) scan(ctx context.Context, fn func(term) error) error {
	in, err := adapter.OpenInput(a.filepath)
	if err != nil {
		return err
	}
	defer in.Close()

	var (
		cur    term
		inTerm bool
	)
	flush := func() error {
		if !inTerm {
			return nil
		}
		defer func() { cur = term{} }()
		if cur.obsolete {
			a.Skip()
			return nil
		}
		if cur.id == "" {
			a.Skip()
			return nil
		}
		return fn(cur)
	}

	sc := in.Scanner()
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") {
			if err := flush(); err != nil {
				return err
			}
			inTerm = line == "[Term]"
			continue
		}
		if !inTerm || line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		switch key {
		case "id":
			cur.id = value
		case "name":
			cur.name = value
		case "namespace":
			cur.namespace = value
		case "def":
			cur.def = unquoteDef(value)
		case "synonym":
			if s := unquoteDef(value); s != "" {
				cur.synonyms = append(cur.synonyms, s)
			}
		case "is_a":
			cur.isA = append(cur.isA, trimComment(value))
		case "relationship":
			rel, target, ok := strings.Cut(value, " ")
			if ok && rel == "part_of" {
				cur.partOf = append(cur.partOf, trimComment(target))
			}
		case "is_obsolete":
			cur.obsolete = value == "true"
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", a.filepath, err)
	}
	return flush()
}

// trimComment drops the human-readable tail of a reference:
// "GO:0008150 ! biological_process" -> "GO:0008150".
func trimComment(s string) string {
	s, _, _ = strings.Cut(s, "!")
	return strings.TrimSpace(s)
}

// unquoteDef extracts the quoted portion of a def or synonym value:
// `"some text" [GOC:...]` -> "some text".
func unquoteDef(s string) string {
	start := strings.Index(s, `"`)
	if start < 0 {
		return s
	}
	end := strings.Index(s[start+1:], `"`)
	if end < 0 {
		return s[start+1:]
	}
	return s[start+1 : start+1+end]
}
