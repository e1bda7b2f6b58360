package gaf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasbio/biograph/graph"
)

var sampleGAF = strings.Join([]string{
	"!gaf-version: 2.2",
	strings.Join([]string{"UniProtKB", "P51587", "BRCA2", "involved_in", "GO:0006281", "PMID:9503972", "IDA", "", "P", "BRCA2", "", "protein", "taxon:9606", "20230601", "UniProt", "", ""}, "\t"),
	strings.Join([]string{"UniProtKB", "P51587", "BRCA2", "NOT|involved_in", "GO:0000001", "PMID:1", "IEA", "", "P", "BRCA2", "", "protein", "taxon:9606", "20230601", "UniProt", "", ""}, "\t"),
	"short\tline",
	"",
}, "\n")

func TestEdges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goa_human.gaf")
	require.NoError(t, os.WriteFile(path, []byte(sampleGAF), 0644))

	a, err := New(map[string]any{"filepath": path})
	require.NoError(t, err)

	var edges []graph.Edge
	require.NoError(t, a.Edges(context.Background(), func(e graph.Edge) error {
		edges = append(edges, e)
		return nil
	}))

	require.Len(t, edges, 1)
	assert.Equal(t, "p51587", edges[0].SourceID)
	assert.Equal(t, "go_0006281", edges[0].TargetID)
	assert.Equal(t, "go_gene_product", edges[0].Label)
	assert.Equal(t, "involved_in", edges[0].Props["qualifier"])
	assert.Equal(t, "IDA", edges[0].Props["evidence"])
	assert.Equal(t, "P", edges[0].Props["aspect"])
	assert.Equal(t, "PMID:9503972", edges[0].Props["reference"])

	// NOT row and ragged row skipped
	assert.Equal(t, int64(2), a.Skipped())
}

func TestNodesIsNoop(t *testing.T) {
	a, err := New(map[string]any{"filepath": "unused.gaf"})
	require.NoError(t, err)
	count := 0
	require.NoError(t, a.Nodes(context.Background(), func(graph.Node) error {
		count++
		return nil
	}))
	assert.Zero(t, count)
}
