package flow

import (
	"context"
	"fmt"

	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/xerrors"
)

// ValidateState is a ValidateNode's reconciliation lifecycle position.
// Each transition is driven by the reconciler, never by ValidateNode
// itself mid-execution.
type ValidateState uint8

const (
	StateCreated ValidateState = iota
	StateUnitsResolved
	StateDimensionsResolved
	StateReady
)

// ValidateNode is the "logical sink interior" in front of every
// WriteNode input: it enforces the output spec's declared contract —
// datatype, units, dimension order, optional positive direction — and
// carries the runtime range/magnitude checks that only ever warn.
// Unit and dimension mismatches are repaired by the reconciler
// splicing convert/transpose EvalNodes in front of upstream (via
// SetUpstream); the datatype same-kind check happens once here at
// construction, and positive-flip plus coordinate-direction resolution
// happen once in Finalize.
type ValidateNode struct {
	upstream Node
	variable string
	dims     []string
	datatype physarray.DType
	units    physarray.Unit
	positive physarray.Positive
	attrs    map[string]interface{}
	history  string

	validMin, validMax         *float64
	okMinMeanAbs, okMaxMeanAbs *float64

	axis      string // declared CF axis token, "" if not a coordinate
	direction string // declared "increasing"/"decreasing", "" if none

	state      ValidateState
	flipNeeded bool
	inverted   bool
}

// NewValidateNode builds a ValidateNode over upstream, rejecting a
// cross-kind datatype cast immediately (sourceDatatype may be "" when
// the upstream expression isn't a bare passthrough of one catalog
// variable, in which case the cast is assumed legal — ValidateNode
// only ever writes float64 data reinterpreted at the declared
// datatype by the writer). history is seeded from upstream's physical
// array name, pulled via a metadata-only probe, and never touched
// again by a later chunk pull.
func NewValidateNode(ctx context.Context, upstream Node, variable string, datatype, sourceDatatype physarray.DType, units physarray.Unit, dims []string, positive physarray.Positive, attrs map[string]interface{}, axis, direction string, validMin, validMax, okMinMeanAbs, okMaxMeanAbs *float64) (*ValidateNode, error) {
	if sourceDatatype != "" && !physarray.SameKind(sourceDatatype, datatype) {
		return nil, &xerrors.CastError{Variable: variable, From: string(sourceDatatype), To: string(datatype), Reason: "declared datatype is not same-kind as the upstream variable's source datatype"}
	}
	probe, err := upstream.Request(ctx, indexalg.Probe())
	if err != nil {
		return nil, err
	}
	return &ValidateNode{
		upstream: upstream, variable: variable, dims: dims,
		datatype: datatype, units: units, positive: positive, attrs: attrs,
		history:   fmt.Sprintf("%s: derived from %s", variable, probe.Name),
		axis:      axis, direction: direction,
		validMin: validMin, validMax: validMax,
		okMinMeanAbs: okMinMeanAbs, okMaxMeanAbs: okMaxMeanAbs,
	}, nil
}

func (n *ValidateNode) Dims() []string        { return n.dims }
func (n *ValidateNode) Units() physarray.Unit { return n.units }

// Shape reorders upstream's shape to n.dims by name rather than
// assuming position, so it stays correct whether or not the
// reconciler has spliced a transpose node in front of upstream yet.
func (n *ValidateNode) Shape() []int {
	upDims, upShape := n.upstream.Dims(), n.upstream.Shape()
	shape := make([]int, len(n.dims))
	for i, d := range n.dims {
		for j, ud := range upDims {
			if ud == d {
				shape[i] = upShape[j]
				break
			}
		}
	}
	return shape
}

func (n *ValidateNode) Variable() string               { return n.variable }
func (n *ValidateNode) Datatype() physarray.DType       { return n.datatype }
func (n *ValidateNode) Attrs() map[string]interface{}   { return n.attrs }
func (n *ValidateNode) History() string                 { return n.history }
func (n *ValidateNode) Inverted() bool                  { return n.inverted }
func (n *ValidateNode) InvertedDim() string             { return n.dims[0] }
func (n *ValidateNode) State() ValidateState            { return n.state }
func (n *ValidateNode) ValidMin() *float64              { return n.validMin }
func (n *ValidateNode) ValidMax() *float64              { return n.validMax }

// SetUpstream replaces the node this ValidateNode pulls from, used by
// the reconciler to splice a convert or transpose EvalNode in between
// without rebuilding ValidateNode itself.
func (n *ValidateNode) SetUpstream(upstream Node) { n.upstream = upstream }

// Upstream returns the node this ValidateNode currently pulls from,
// for the reconciler to recurse into before deciding whether to
// splice something in front of it.
func (n *ValidateNode) Upstream() Node { return n.upstream }

// MarkUnitsResolved and MarkDimensionsResolved record that the
// reconciler has finished its unit and dimension propagation passes
// over this node (spec.md §4.7's CREATED -> UNITS_RESOLVED ->
// DIMENSIONS_RESOLVED transitions). Finalize performs the remaining
// work and reaches READY.
func (n *ValidateNode) MarkUnitsResolved() {
	if n.state == StateCreated {
		n.state = StateUnitsResolved
	}
}

func (n *ValidateNode) MarkDimensionsResolved() {
	if n.state == StateUnitsResolved {
		n.state = StateDimensionsResolved
	}
}

// Finalize performs the reconciler's third post-order pass: deciding
// whether a positive-direction flip or a coordinate-direction
// inversion applies, then advancing to READY. It must run after units
// and dimensions are resolved, since it probes upstream for both
// metadata and (for a coordinate) its actual values.
func (n *ValidateNode) Finalize(ctx context.Context) error {
	probe, err := n.upstream.Request(ctx, indexalg.Probe())
	if err != nil {
		return err
	}
	if n.positive != "" && n.positive != probe.Positive {
		if probe.Positive == physarray.PositiveUnset {
			return &xerrors.CastError{Variable: n.variable, From: "unset", To: string(n.positive), Reason: "flip requested but the upstream positive direction was never established"}
		}
		n.flipNeeded = true
	}
	if n.axis != "" && n.direction != "" {
		observed, err := n.observedDirection(ctx)
		if err != nil {
			return err
		}
		if observed != "" && observed != n.direction {
			n.inverted = true
			n.history = fmt.Sprintf("invdims(%s, dims=[%s])", n.history, n.dims[0])
		}
	}
	n.state = StateReady
	return nil
}

// observedDirection pulls the coordinate's full data and inspects its
// first differences; a non-monotonic series leaves the declared
// direction unchallenged (returns "").
func (n *ValidateNode) observedDirection(ctx context.Context) (string, error) {
	arr, err := n.upstream.Request(ctx, indexalg.ByTuple([]indexalg.Selector{indexalg.Full()}))
	if err != nil {
		return "", err
	}
	if len(arr.Data) < 2 {
		return "", nil
	}
	increasing := arr.Data[1] > arr.Data[0]
	for i := 1; i < len(arr.Data); i++ {
		if (arr.Data[i] > arr.Data[i-1]) != increasing {
			return "", nil
		}
	}
	if increasing {
		return "increasing", nil
	}
	return "decreasing", nil
}

func (n *ValidateNode) Request(ctx context.Context, req indexalg.Request) (*physarray.PhysicalArray, error) {
	arr, err := n.upstream.Request(ctx, req)
	if err != nil {
		return nil, err
	}
	if n.flipNeeded {
		arr = arr.Negate()
		arr.Positive = n.positive
	}
	arr.Name = n.variable
	return arr, nil
}

// Check evaluates the runtime valid_min/valid_max/ok_min_mean_abs/
// ok_max_mean_abs constraints against a freshly pulled chunk, returning
// one message per violation. None of these fail the run; the caller
// (engine.Writer) wraps them into engine.Warning values.
func (n *ValidateNode) Check(arr *physarray.PhysicalArray) []string {
	var msgs []string
	if n.validMin != nil || n.validMax != nil {
		for i, v := range arr.Data {
			if arr.Mask != nil && arr.Mask[i] {
				continue
			}
			if n.validMin != nil && v < *n.validMin {
				msgs = append(msgs, fmt.Sprintf("%s: value %v below valid_min %v", n.variable, v, *n.validMin))
			}
			if n.validMax != nil && v > *n.validMax {
				msgs = append(msgs, fmt.Sprintf("%s: value %v above valid_max %v", n.variable, v, *n.validMax))
			}
		}
	}
	if n.okMinMeanAbs != nil || n.okMaxMeanAbs != nil {
		mean := meanAbs(arr)
		if n.okMinMeanAbs != nil && mean < *n.okMinMeanAbs {
			msgs = append(msgs, fmt.Sprintf("%s: mean abs %v below ok_min_mean_abs %v", n.variable, mean, *n.okMinMeanAbs))
		}
		if n.okMaxMeanAbs != nil && mean > *n.okMaxMeanAbs {
			msgs = append(msgs, fmt.Sprintf("%s: mean abs %v above ok_max_mean_abs %v", n.variable, mean, *n.okMaxMeanAbs))
		}
	}
	return msgs
}

func meanAbs(arr *physarray.PhysicalArray) float64 {
	var sum float64
	var count int
	for i, v := range arr.Data {
		if arr.Mask != nil && arr.Mask[i] {
			continue
		}
		if v < 0 {
			v = -v
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
