package obo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasbio/biograph/graph"
)

const sampleOBO = `format-version: 1.2
ontology: go

[Term]
id: GO:0008150
name: biological_process
namespace: biological_process
def: "A biological process." [GOC:pdt]

[Term]
id: GO:0009987
name: cellular process
namespace: biological_process
synonym: "cell growth and/or maintenance" NARROW []
is_a: GO:0008150 ! biological_process

[Term]
id: GO:0044237
name: cellular metabolic process
is_a: GO:0009987 ! cellular process
relationship: part_of GO:0008152 ! metabolic process

[Term]
id: GO:0000001
name: obsolete thing
is_obsolete: true

[Typedef]
id: part_of
name: part of
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "go.obo")
	require.NoError(t, os.WriteFile(path, []byte(sampleOBO), 0644))
	return path
}

func TestTermNodes(t *testing.T) {
	a, err := New(map[string]any{"filepath": writeSample(t), "ontology": "GO"})
	require.NoError(t, err)

	var nodes []graph.Node
	require.NoError(t, a.Nodes(context.Background(), func(n graph.Node) error {
		nodes = append(nodes, n)
		return nil
	}))

	require.Len(t, nodes, 3)
	assert.Equal(t, "go_0008150", nodes[0].ID)
	assert.Equal(t, "go", nodes[0].Label)
	assert.Equal(t, "biological_process", nodes[0].Props["term_name"])
	assert.Equal(t, "A biological process.", nodes[0].Props["description"])
	assert.Equal(t, []string{"cell growth and/or maintenance"}, nodes[1].Props["synonyms"])

	// one obsolete term skipped
	assert.Equal(t, int64(1), a.Skipped())
}

func TestOntologyEdges(t *testing.T) {
	a, err := New(map[string]any{"filepath": writeSample(t), "ontology": "go"})
	require.NoError(t, err)

	var edges []graph.Edge
	require.NoError(t, a.Edges(context.Background(), func(e graph.Edge) error {
		edges = append(edges, e)
		return nil
	}))

	require.Len(t, edges, 3)
	assert.Equal(t, "subclass_of", edges[0].Label)
	assert.Equal(t, "go_0009987", edges[0].SourceID)
	assert.Equal(t, "go_0008150", edges[0].TargetID)
	assert.Equal(t, "subclass_of", edges[1].Label)
	assert.Equal(t, "part_of", edges[2].Label)
	assert.Equal(t, "go_0008152", edges[2].TargetID)
}

func TestRequiredArgs(t *testing.T) {
	_, err := New(map[string]any{"filepath": "go.obo"})
	assert.Error(t, err)
	_, err = New(map[string]any{"ontology": "go"})
	assert.Error(t, err)
}

func TestUnquoteDef(t *testing.T) {
	assert.Equal(t, "some text", unquoteDef(`"some text" [GOC:x]`))
	assert.Equal(t, "plain", unquoteDef("plain"))
}
