// Package graph implements the dependency-graph model from the execution
// core's design: an adjacency store over task names, topological leveling
// into an Execution Plan, and cycle detection via Kahn's algorithm.
//
// A Graph only ever holds parallel-dependency edges; serial dependencies are
// a scheduler concern (see internal/scheduler) and never appear here.
package graph
