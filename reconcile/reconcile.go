// Package reconcile drives a flow.Graph's three post-order passes: unit
// propagation, dimension propagation, and per-variable finalization
// (positive flip, coordinate-direction inversion). Where an EvalNode's
// registry entry requires an argument to present a unit or dimension
// tuple other than what it currently presents, the reconciler splices a
// convert or transpose EvalNode in front of that argument; where a
// ValidateNode's declared contract diverges from what its upstream
// finally presents, the same splicing happens one level higher, in
// front of the ValidateNode itself.
package reconcile

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/viant/dflow/flow"
	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/registry"
	"github.com/viant/dflow/xerrors"
)

// Reconciler resolves a Builder's output against the registry each
// node was built from, closing the gap between what a node's children
// presented at construction time and what it actually requires.
type Reconciler struct {
	registry *registry.Registry
}

// New builds a Reconciler over the same registry the graph's nodes
// were built from.
func New(reg *registry.Registry) *Reconciler {
	return &Reconciler{registry: reg}
}

// Reconcile walks every WriteNode's variables, driving each through
// unit resolution, dimension resolution, and Finalize in turn. It
// accumulates errors across variables rather than stopping at the
// first one, so a single bad definition doesn't hide sibling problems.
func (r *Reconciler) Reconcile(ctx context.Context, writeNodes []*flow.WriteNode) error {
	var errs *multierror.Error
	for _, wn := range writeNodes {
		for _, vn := range wn.Variables {
			if err := r.resolveOne(ctx, vn); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	return errs.ErrorOrNil()
}

func (r *Reconciler) resolveOne(ctx context.Context, vn *flow.ValidateNode) error {
	if err := r.resolveUnits(vn.Upstream()); err != nil {
		return err
	}
	if err := r.reconcileUnits(vn); err != nil {
		return err
	}
	vn.MarkUnitsResolved()

	if err := r.resolveDims(vn.Upstream()); err != nil {
		return err
	}
	if err := r.reconcileDims(vn); err != nil {
		return err
	}
	vn.MarkDimensionsResolved()

	return vn.Finalize(ctx)
}

// resolveUnits recurses into n's children (when n is an EvalNode — every
// other node kind in this package is a leaf as far as splicing goes,
// since only an EvalNode's registry entry names per-argument unit
// requirements) and, for each child whose presented unit diverges from
// what the entry requires, either splices a convert node in front of
// it or reports an unconvertible pair.
func (r *Reconciler) resolveUnits(n flow.Node) error {
	en, ok := n.(*flow.EvalNode)
	if !ok {
		return nil
	}
	children := en.Children()
	required := en.RequiredUnits()
	for i, child := range children {
		if err := r.resolveUnits(child); err != nil {
			return err
		}
		want := required[i]
		have := child.Units()
		if sameUnit(have, want) {
			continue
		}
		conv, err := r.convertNode(child, want)
		if err != nil {
			return err
		}
		en.SetChild(i, conv, conv.Dims())
	}
	return nil
}

// reconcileUnits compares vn's own declared unit against whatever its
// upstream presents after resolveUnits has settled every argument
// beneath it, splicing one last convert node in front of vn itself if
// needed.
func (r *Reconciler) reconcileUnits(vn *flow.ValidateNode) error {
	up := vn.Upstream()
	if sameUnit(up.Units(), vn.Units()) {
		return nil
	}
	conv, err := r.convertNode(up, vn.Units())
	if err != nil {
		return err
	}
	vn.SetUpstream(conv)
	return nil
}

func (r *Reconciler) convertNode(child flow.Node, target physarray.Unit) (*flow.EvalNode, error) {
	have := child.Units()
	if !have.Convertible(target) {
		return nil, &xerrors.UnitsError{From: have.String(), To: target.String(), Reason: "not convertible"}
	}
	entry, err := r.registry.Function("convert", 2)
	if err != nil {
		return nil, err
	}
	dims := child.Dims()
	strArgs := []string{target.String()}
	requiredUnits := []physarray.Unit{have}
	requiredDims := [][]string{dims}
	return flow.NewEvalNode(entry, "convert", []flow.Node{child}, [][]string{dims}, strArgs, dims, child.Shape(), target, requiredUnits, requiredDims), nil
}

// resolveDims mirrors resolveUnits for dimension order: an EvalNode's
// entry names the dimension tuple each argument must present, and a
// mismatch that is still a permutation of what the argument currently
// presents gets a transpose node spliced in front of it.
func (r *Reconciler) resolveDims(n flow.Node) error {
	en, ok := n.(*flow.EvalNode)
	if !ok {
		return nil
	}
	children := en.Children()
	required := en.RequiredDims()
	for i, child := range children {
		if err := r.resolveDims(child); err != nil {
			return err
		}
		want := required[i]
		if len(want) == 0 {
			continue // scalar/broadcast argument: no axis to reorder
		}
		if sameOrder(child.Dims(), want) {
			continue
		}
		tr, err := r.transposeNode(child, want)
		if err != nil {
			return err
		}
		en.SetChild(i, tr, tr.Dims())
	}
	return nil
}

func (r *Reconciler) reconcileDims(vn *flow.ValidateNode) error {
	up := vn.Upstream()
	if sameOrder(up.Dims(), vn.Dims()) {
		return nil
	}
	tr, err := r.transposeNode(up, vn.Dims())
	if err != nil {
		return err
	}
	vn.SetUpstream(tr)
	return nil
}

func (r *Reconciler) transposeNode(child flow.Node, want []string) (*flow.EvalNode, error) {
	have := child.Dims()
	if !isPermutation(have, want) {
		return nil, &xerrors.DimensionsError{From: have, To: want}
	}
	entry, err := r.registry.Function("transpose", len(want)+1)
	if err != nil {
		return nil, err
	}
	shape := make([]int, len(want))
	haveShape := child.Shape()
	for i, d := range want {
		shape[i] = haveShape[indexOf(have, d)]
	}
	strArgs := append([]string(nil), want...)
	requiredUnits := []physarray.Unit{child.Units()}
	requiredDims := [][]string{have}
	return flow.NewEvalNode(entry, "transpose", []flow.Node{child}, [][]string{have}, strArgs, want, shape, child.Units(), requiredUnits, requiredDims), nil
}

// sameUnit reports whether have already satisfies want without any
// conversion — equality is judged by each unit's canonical string form,
// which is how every registered UnitRule expresses "no change needed".
func sameUnit(have, want physarray.Unit) bool {
	return have.String() == want.String()
}

// sameOrder reports whether a and b name the same dimensions in the
// same order.
func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isPermutation reports whether b contains exactly the same dimension
// names as a, in any order.
func isPermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	count := map[string]int{}
	for _, d := range a {
		count[d]++
	}
	for _, d := range b {
		count[d]--
	}
	for _, n := range count {
		if n != 0 {
			return false
		}
	}
	return true
}

func indexOf(dims []string, name string) int {
	for i, d := range dims {
		if d == name {
			return i
		}
	}
	return -1
}
