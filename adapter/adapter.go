// Package adapter defines the adapter contract and the registry that maps
// manifest adapter types to factories.
package adapter

import (
	"context"
	"sync/atomic"

	"github.com/atlasbio/biograph/graph"
)

// NodeFunc receives one node from an adapter. Returning an error stops the
// adapter and propagates the error.
type NodeFunc func(graph.Node) error

// EdgeFunc receives one edge from an adapter.
type EdgeFunc func(graph.Edge) error

// Adapter parses one biological data source and yields graph nodes and/or
// edges. Nodes and Edges are separate passes over the source; an adapter that
// contributes only one kind returns nil from the other without emitting.
type Adapter interface {
	// Name returns the adapter type name.
	Name() string

	// Nodes streams nodes to emit until the source is exhausted.
	Nodes(ctx context.Context, emit NodeFunc) error

	// Edges streams edges to emit until the source is exhausted.
	Edges(ctx context.Context, emit EdgeFunc) error

	// Skipped returns the number of records skipped during parsing.
	Skipped() int64
}

// Stats counts skipped records. Adapters embed it to satisfy Skipped.
type Stats struct {
	skipped atomic.Int64
}

// Skip records one skipped record.
func (s *Stats) Skip() { s.skipped.Add(1) }

// Skipped returns the number of skipped records so far.
func (s *Stats) Skipped() int64 { return s.skipped.Load() }
