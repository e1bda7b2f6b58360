// Package writer serializes graph nodes and edges into Neo4j-loadable
// output: per-label CSV files plus the Cypher import statements that load
// them, and a bolt loader that runs those statements against a live server.
package writer

import (
	"context"

	"github.com/atlasbio/biograph/graph"
)

// Writer receives the node and edge streams collected from one adapter
// entry. The subdir argument is the entry's outdir routing value.
type Writer interface {
	WriteNodes(ctx context.Context, subdir string, nodes []graph.Node) error
	WriteEdges(ctx context.Context, subdir string, edges []graph.Edge) error
}
