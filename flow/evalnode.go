package flow

import (
	"context"

	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/registry"
)

// EvalNode applies one registry.Entry (an operator or a function) to
// its child nodes. Its own Dims/Units are whatever the Builder (or the
// reconciler, for a convert/transpose node it creates) computed from
// the entry's DimRule/UnitRule when the node was constructed; by
// the time the graph executes, every child already presents the shape
// and units the entry's ValueRule expects — the reconciler inserted
// any convert/transpose nodes that were needed to get there.
type EvalNode struct {
	entry     registry.Entry
	children  []Node
	childDims [][]string
	strArgs   []string
	name      string
	dims      []string
	shape     []int
	units     physarray.Unit

	// requiredUnits/requiredDims are the entry's UnitRule/DimRule
	// per-argument requirements, captured at construction from the
	// children's units/dims as they stood then. The reconciler compares
	// each child's currently-presented unit/dims against these and
	// splices a convert/transpose ahead of the child when they diverge.
	requiredUnits []physarray.Unit
	requiredDims  [][]string
}

// NewEvalNode builds an EvalNode. childDims is each child's own
// dimension tuple captured at construction time, used to translate an
// index request down to each child without assuming children share
// this node's dims (a reduction drops one, a transpose reorders them).
func NewEvalNode(entry registry.Entry, name string, children []Node, childDims [][]string, strArgs []string, dims []string, shape []int, units physarray.Unit, requiredUnits []physarray.Unit, requiredDims [][]string) *EvalNode {
	return &EvalNode{entry: entry, name: name, children: children, childDims: childDims, strArgs: strArgs, dims: dims, shape: shape, units: units, requiredUnits: requiredUnits, requiredDims: requiredDims}
}

// RequiredUnits returns, for each child in order, the unit the
// registry entry requires that argument to present.
func (n *EvalNode) RequiredUnits() []physarray.Unit { return n.requiredUnits }

// RequiredDims returns, for each child in order, the dimension tuple
// the registry entry requires that argument to present.
func (n *EvalNode) RequiredDims() [][]string { return n.requiredDims }

// Children returns this node's current argument nodes, in order, for
// the reconciler to recurse into.
func (n *EvalNode) Children() []Node { return n.children }

// SetChild replaces child i, used by the reconciler to splice a
// convert or transpose EvalNode between this node and one of its
// existing inputs without rebuilding the rest of the graph.
func (n *EvalNode) SetChild(i int, child Node, childDims []string) {
	n.children[i] = child
	n.childDims[i] = childDims
}

func (n *EvalNode) Dims() []string        { return n.dims }
func (n *EvalNode) Shape() []int          { return n.shape }
func (n *EvalNode) Units() physarray.Unit { return n.units }

func (n *EvalNode) Request(ctx context.Context, req indexalg.Request) (*physarray.PhysicalArray, error) {
	if req.IsProbe() {
		return probeArray(n.name, n.units, n.dims, n.shape), nil
	}
	args := make([]*physarray.PhysicalArray, len(n.children))
	for i, child := range n.children {
		childReq, err := n.translate(req, n.childDims[i])
		if err != nil {
			return nil, err
		}
		arr, err := child.Request(ctx, childReq)
		if err != nil {
			return nil, err
		}
		args[i] = arr
	}
	out, err := n.entry.Value(args, n.strArgs)
	if err != nil {
		return nil, err
	}
	out.Name = n.name
	return out, nil
}

// translate rewrites req — named against this node's own dims — into
// a request named against childDims. A dimension childDims has that
// this node does not (an axis a reduction dropped) is always
// requested in full; a dimension both share keeps whatever selector
// the caller asked for, regardless of position (transpose reorders
// dims without this node needing special-case handling here).
func (n *EvalNode) translate(req indexalg.Request, childDims []string) (indexalg.Request, error) {
	if req.IsProbe() {
		return req, nil
	}
	if len(childDims) == 0 {
		return indexalg.ByTuple(nil), nil // scalar broadcast operand: no axis to select against
	}
	aligned, err := indexalg.Align(req, n.dims)
	if err != nil {
		return indexalg.Request{}, err
	}
	byName := make(map[string]indexalg.Selector, len(n.dims))
	for i, d := range n.dims {
		byName[d] = aligned[i]
	}
	out := make(map[string]indexalg.Selector, len(childDims))
	for _, d := range childDims {
		if s, ok := byName[d]; ok {
			out[d] = s
		} else {
			out[d] = indexalg.Full()
		}
	}
	return indexalg.ByMap(out), nil
}
