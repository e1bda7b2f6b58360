// Package graph defines the node and edge model shared by adapters and writers.
package graph

import "errors"

// Props holds the properties attached to a node or edge.
type Props map[string]any

// Node is a single graph entity emitted by an adapter.
type Node struct {
	ID    string
	Label string
	Props Props
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	SourceID string
	TargetID string
	Label    string
	Props    Props
}

// Validate checks that the node carries the required identity fields.
func (n Node) Validate() error {
	if n.ID == "" {
		return errors.New("node ID is required")
	}
	if n.Label == "" {
		return errors.New("node label is required")
	}
	return nil
}

// Validate checks that the edge carries the required identity fields.
func (e Edge) Validate() error {
	if e.SourceID == "" {
		return errors.New("edge source ID is required")
	}
	if e.TargetID == "" {
		return errors.New("edge target ID is required")
	}
	if e.Label == "" {
		return errors.New("edge label is required")
	}
	return nil
}
