package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrUnknownNode indicates an edge or lookup referenced a node that was
	// never added to the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrCycle indicates the graph (or a proposed edge) is not a DAG.
	ErrCycle = errors.New("cycle detected")
)

// UnknownNodeError wraps ErrUnknownNode with the offending name.
type UnknownNodeError struct {
	Name string
}

func (e *UnknownNodeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %q", ErrUnknownNode.Error(), e.Name)
}

func (e *UnknownNodeError) Unwrap() error { return ErrUnknownNode }

// CycleError wraps ErrCycle with the set of node names involved.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", ErrCycle.Error(), e.Nodes)
}

func (e *CycleError) Unwrap() error { return ErrCycle }
