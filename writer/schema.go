package writer

import "fmt"

// EdgeType declares the node labels an edge label connects, and optionally
// the relationship type to use on import instead of the input label.
type EdgeType struct {
	Source      string
	Target      string
	OutputLabel string
}

// Schema maps edge labels to their endpoint declarations. The edge Cypher
// cannot be generated without knowing which node labels to MATCH.
type Schema map[string]EdgeType

// DefaultSchema returns the edge schema for the built-in adapters.
func DefaultSchema() Schema {
	return Schema{
		"transcribed_to":   {Source: "gene", Target: "transcript"},
		"transcribed_from": {Source: "transcript", Target: "gene"},
		"translates_to":    {Source: "transcript", Target: "protein"},
		"translation_of":   {Source: "protein", Target: "transcript"},
		"go_gene_product":  {Source: "protein", Target: "ontology_term"},
		"genes_pathways":   {Source: "gene", Target: "pathway"},
		"interacts_with":   {Source: "protein", Target: "protein"},
		"subclass_of":      {Source: "ontology_term", Target: "ontology_term"},
		"part_of":          {Source: "ontology_term", Target: "ontology_term"},
	}
}

// Lookup returns the edge type for a label.
func (s Schema) Lookup(label string) (EdgeType, error) {
	et, ok := s[label]
	if !ok {
		return EdgeType{}, fmt.Errorf("no schema entry for edge label %q", label)
	}
	return et, nil
}

// Merge overlays additional entries onto the schema, replacing existing
// labels.
func (s Schema) Merge(extra Schema) {
	for label, et := range extra {
		s[label] = et
	}
}
