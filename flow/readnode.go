package flow

import (
	"context"
	"encoding/binary"

	"github.com/minio/highwayhash"

	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/physarray"
)

var hashKey = make([]byte, 32) // zero key: memoization only needs a stable, not a secret, hash

// ReadNode is the flow graph's only I/O-performing leaf: it addresses
// one catalog variable through a Source, composing a construction-time
// slice (baked in when the node was built, by the Builder from the
// definition's bracket subscript) with
// whatever request-time selector a consumer supplies (spec.md §4.4's
// two-layer indexing).
type ReadNode struct {
	source    Source
	variable  string
	trueDims  []string
	trueShape []int
	outer     []indexalg.Selector
	dims      []string
	shape     []int
	units     physarray.Unit

	cache map[uint64]*physarray.PhysicalArray
}

// NewReadNode builds a ReadNode over variable, whose on-disk shape is
// (trueDims, trueShape), narrowed by outer (one selector per trueDims
// entry; Full() for every axis when the variable is read unsliced).
func NewReadNode(source Source, variable string, trueDims []string, trueShape []int, units physarray.Unit, outer []indexalg.Selector) *ReadNode {
	dims := make([]string, 0, len(trueDims))
	shape := make([]int, 0, len(trueDims))
	for i, d := range trueDims {
		if outer[i].Collapses() {
			continue
		}
		dims = append(dims, d)
		shape = append(shape, indexalg.Len(outer[i], trueShape[i]))
	}
	return &ReadNode{
		source: source, variable: variable,
		trueDims: trueDims, trueShape: trueShape, outer: outer,
		dims: dims, shape: shape, units: units,
		cache: map[uint64]*physarray.PhysicalArray{},
	}
}

func (n *ReadNode) Dims() []string        { return n.dims }
func (n *ReadNode) Shape() []int          { return n.shape }
func (n *ReadNode) Units() physarray.Unit { return n.units }

func (n *ReadNode) Request(ctx context.Context, req indexalg.Request) (*physarray.PhysicalArray, error) {
	if req.IsProbe() {
		return probeArray(n.variable, n.units, n.dims, n.shape), nil
	}
	aligned, err := indexalg.Align(req, n.dims)
	if err != nil {
		return nil, err
	}
	composed := make([]indexalg.Selector, len(n.trueDims))
	j := 0
	for i := range n.trueDims {
		if n.outer[i].Collapses() {
			composed[i] = n.outer[i]
			continue
		}
		composed[i] = indexalg.Compose(n.outer[i], aligned[j], n.trueShape[i])
		j++
	}

	key := hashSelectors(n.variable, composed)
	if cached, ok := n.cache[key]; ok {
		return cached.Clone(), nil
	}
	arr, err := n.source.ReadChunk(ctx, n.variable, composed)
	if err != nil {
		return nil, err
	}
	n.cache[key] = arr.Clone()
	return arr, nil
}

// hashSelectors content-addresses a (variable, composed selector)
// pair so that two consumers of the same ReadNode requesting the same
// chunk — a common shape when several output variables in one
// definition reuse a base variable — share one read instead of two.
func hashSelectors(variable string, sel []indexalg.Selector) uint64 {
	buf := make([]byte, 0, 8*len(sel)*4+len(variable))
	buf = append(buf, variable...)
	var tmp [8]byte
	for _, s := range sel {
		binary.LittleEndian.PutUint64(tmp[:], uint64(s.Kind))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(s.Start)))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(s.Stop)))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(s.Step)))
		buf = append(buf, tmp[:]...)
	}
	return highwayhash.Sum64(buf, hashKey)
}
