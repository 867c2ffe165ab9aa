// Package flow is the lazy, chunked flow-node runtime every definition
// compiles down into (spec.md §4.4, §4.6): a DAG of index-addressable
// slice producers, each answering either a metadata-only probe or a
// real sub-rectangle request without ever materializing more of its
// producers' data than the request actually needs.
package flow

import (
	"context"

	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/physarray"
)

// Node is one flow-graph vertex: a lazy, chunked slice producer
// addressable through the two-layer index algebra (indexalg.Request).
// Every Node answers indexalg.Probe() without touching data or doing
// I/O, so the reconciler can ask every node in the graph for its
// dims/units/shape before a single byte is read.
type Node interface {
	// Dims returns this node's own dimension name tuple, in order.
	Dims() []string
	// Shape returns this node's own extent along each entry of Dims.
	Shape() []int
	// Units returns this node's own unit.
	Units() physarray.Unit
	// Request resolves req (aligned to Dims) into a PhysicalArray. A
	// probe request returns a PhysicalArray whose Name, Units, Dims and
	// Shape describe the node; every node except DataNode leaves Data
	// nil, and DataNode returns its scalar value even for a probe.
	Request(ctx context.Context, req indexalg.Request) (*physarray.PhysicalArray, error)
}

// Source is what a ReadNode reads through: a whole-catalog view keyed
// by variable name, hiding per-input-file stitching (a time-series
// variable's files are concatenated along its unlimited dimension)
// behind a single addressable surface. iohandle.Service implements
// this interface structurally; flow never imports iohandle.
type Source interface {
	Probe(ctx context.Context, variable string) (units physarray.Unit, dims []string, shape []int, err error)
	ReadChunk(ctx context.Context, variable string, sel []indexalg.Selector) (*physarray.PhysicalArray, error)
}

func probeArray(name string, units physarray.Unit, dims []string, shape []int) *physarray.PhysicalArray {
	return &physarray.PhysicalArray{Name: name, Units: units, Dims: append([]string(nil), dims...), Shape: append([]int(nil), shape...)}
}
