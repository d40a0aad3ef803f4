// Package pipeline provides an immutable, validated directed acyclic graph
// of node.Node values.
//
// # Overview
//
// A Pipeline is built once via New and never mutated afterward: every
// combinator (Union, OnlyNodes, FromInputs, Decorate, ...) returns a new
// Pipeline. Validation — duplicate names, output uniqueness, transcoding
// collisions, acyclicity — and topological layering both happen eagerly
// inside New, so a constructed Pipeline is always valid and its execution
// order is always known.
//
// # Namespaces versus literal names
//
// Dataset names may carry a transcoding suffix ("raw@csv"); Namespace
// strips it. The dependency graph used for topological sorting and for
// Inputs/Outputs is namespace-keyed, so "raw@csv" and "raw@parquet" are
// treated as the same surface for scheduling purposes. The *_with_inputs
// and *_with_outputs selector family matches on the literal name a node
// declared, not its namespace.
//
// # Thread safety
//
// A constructed Pipeline is read-only; its methods may be called
// concurrently from multiple goroutines without synchronization.
package pipeline
