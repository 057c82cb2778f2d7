package types

import "context"

// Inputs holds the resolved results of a node's dependencies keyed by dependency id.
type Inputs map[string]any

// Get returns the result of the named dependency.
func (in Inputs) Get(id string) (any, bool) {
	v, ok := in[id]
	return v, ok
}

// ComputeFunc is the computation carried by a node. It receives the results of
// every declared dependency and returns the node's result.
//
// The engine never cancels a running ComputeFunc; callers wanting timeouts
// should derive them from ctx inside the function.
type ComputeFunc func(ctx context.Context, in Inputs) (any, error)

// FingerprintFunc derives a caller-defined version string from a node's inputs.
// It is mixed into the cache key alongside the dependency results.
type FingerprintFunc func(in Inputs) string
