package flow

import (
	"context"

	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/physarray"
)

// MapNode relabels a child's dimension names without touching data or
// order — used when an output variable's target dimension name
// differs from the catalog's name for the same axis (e.g. an input
// file calls it "latitude", the output spec wants "lat"). Unlike
// transpose, a MapNode never reorders axes.
type MapNode struct {
	child   Node
	outToIn map[string]string // this node's dim name -> child's dim name
	dims    []string
	shape   []int
}

// NewMapNode builds a MapNode over child, renaming its dims to dims
// (positionally aligned to child.Dims()).
func NewMapNode(child Node, dims []string) *MapNode {
	childDims := child.Dims()
	outToIn := make(map[string]string, len(dims))
	for i, d := range dims {
		if i < len(childDims) {
			outToIn[d] = childDims[i]
		}
	}
	return &MapNode{child: child, outToIn: outToIn, dims: dims, shape: child.Shape()}
}

func (n *MapNode) Dims() []string        { return n.dims }
func (n *MapNode) Shape() []int          { return n.shape }
func (n *MapNode) Units() physarray.Unit { return n.child.Units() }

func (n *MapNode) Request(ctx context.Context, req indexalg.Request) (*physarray.PhysicalArray, error) {
	translated := indexalg.TranslateDims(req, n.outToIn)
	arr, err := n.child.Request(ctx, translated)
	if err != nil {
		return nil, err
	}
	if req.IsProbe() {
		return probeArray(arr.Name, arr.Units, n.dims, n.shape), nil
	}
	return arr.WithDims(n.dims), nil
}
