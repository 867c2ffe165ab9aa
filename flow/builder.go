package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/dflow/catalog"
	"github.com/viant/dflow/defn"
	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/outspec"
	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/registry"
	"github.com/viant/dflow/xerrors"
)

// Builder lowers an output specification's variable definitions into a
// flow Graph rooted at one WriteNode per output file (spec.md §4.4).
// Within one output file it caches one ReadNode per catalog variable
// and subscript referenced, so two output variables of that file that
// share a base input (e.g. "tas" and "tasmax" both reading "temp") see
// the same node and — through ReadNode's own memoization — the same
// chunk cache. Different output files never share a ReadNode.
type Builder struct {
	catalog  *catalog.Catalog
	registry *registry.Registry
	source   Source
	graph    *Graph
	reads    map[string]int
}

// NewBuilder constructs a Builder over a catalog, a closed function
// registry, and the Source every ReadNode will read through.
func NewBuilder(cat *catalog.Catalog, reg *registry.Registry, source Source) *Builder {
	return &Builder{catalog: cat, registry: reg, source: source, graph: NewGraph(), reads: map[string]int{}}
}

// Graph returns the arena every lowered node was added to.
func (b *Builder) Graph() *Graph { return b.graph }

// Build lowers every file and variable in spec into the graph,
// returning one WriteNode per output file in spec's declared order.
func (b *Builder) Build(ctx context.Context, spec *outspec.Spec) ([]*WriteNode, error) {
	writeNodes := make([]*WriteNode, 0, len(spec.Files))
	for _, f := range spec.Files {
		b.reads = map[string]int{}
		validateNodes := make([]*ValidateNode, 0, len(f.Variables))
		for _, v := range f.Variables {
			vn, err := b.buildVariable(ctx, &v)
			if err != nil {
				return nil, err
			}
			validateNodes = append(validateNodes, vn)
		}
		attrs := make(map[string]interface{}, len(f.Attrs))
		for k, v := range f.Attrs {
			attrs[k] = v
		}
		writeNodes = append(writeNodes, NewWriteNode(f.Name, f.Path, attrs, f.Chunks, validateNodes))
	}
	return writeNodes, nil
}

// buildVariable lowers one output variable's definition and wraps the
// result in a ValidateNode carrying its declared contract.
func (b *Builder) buildVariable(ctx context.Context, v *outspec.Variable) (*ValidateNode, error) {
	ast, err := defn.Parse(v.Definition)
	if err != nil {
		return nil, err
	}
	root, producedDims, rootIdx, err := b.lower(ctx, ast)
	if err != nil {
		return nil, err
	}

	datatype := physarray.DType(v.Datatype)
	sourceDatatype := bareVariableDtype(ast, b.catalog)

	units := root.Units()
	if v.Units != "" {
		units, err = physarray.ParseUnit(v.Units, "")
		if err != nil {
			return nil, err
		}
	}

	dims := v.Dimensions
	if len(dims) == 0 {
		dims = producedDims
	}

	positive := physarray.Positive(v.Positive)
	axis := v.Attrs["axis"]
	direction := v.Attrs["direction"]
	validMin, err := floatAttr(v.Attrs, "valid_min")
	if err != nil {
		return nil, err
	}
	validMax, err := floatAttr(v.Attrs, "valid_max")
	if err != nil {
		return nil, err
	}
	okMinMeanAbs, err := floatAttr(v.Attrs, "ok_min_mean_abs")
	if err != nil {
		return nil, err
	}
	okMaxMeanAbs, err := floatAttr(v.Attrs, "ok_max_mean_abs")
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]interface{}, len(v.Attrs))
	for k, val := range v.Attrs {
		attrs[k] = val
	}

	vn, err := NewValidateNode(ctx, root, v.Name, datatype, sourceDatatype, units, dims, positive, attrs, axis, direction, validMin, validMax, okMinMeanAbs, okMaxMeanAbs)
	if err != nil {
		return nil, err
	}
	vidx := b.graph.Add(vn, v.Name, []int{rootIdx})
	if _, err := b.graph.PostOrder(vidx); err != nil {
		return nil, err
	}
	return vn, nil
}

// bareVariableDtype reports the catalog datatype of ast when it is
// nothing but a direct reference to one catalog variable — the only
// case in which a declared output datatype can be checked for
// same-kind compatibility against an actual source dtype.
func bareVariableDtype(ast *defn.Node, cat *catalog.Catalog) physarray.DType {
	if ast.Kind != defn.KindVar {
		return ""
	}
	if v, ok := cat.Variables[ast.Name]; ok {
		return v.Dtype
	}
	return ""
}

func floatAttr(attrs map[string]string, key string) (*float64, error) {
	raw, ok := attrs[key]
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &xerrors.ParseError{Reason: "attribute " + key + " is not a number: " + err.Error()}
	}
	return &v, nil
}

// lower recursively lowers one defn.Node into a flow Node, returning
// its produced dimension tuple and the index it was added to in the
// graph.
func (b *Builder) lower(ctx context.Context, n *defn.Node) (Node, []string, int, error) {
	switch n.Kind {
	case defn.KindInt, defn.KindFloat:
		dn := NewDataNode(n.Float())
		idx := b.graph.Add(dn, "const", nil)
		return dn, nil, idx, nil
	case defn.KindVar:
		return b.lowerVar(ctx, n)
	case defn.KindOp:
		return b.lowerOp(ctx, n)
	case defn.KindCall:
		return b.lowerCall(ctx, n)
	default:
		return nil, nil, 0, &xerrors.ParseError{Definition: n.StrVal, Reason: "a string literal cannot stand alone as an expression"}
	}
}

// lowerVar resolves one variable reference, including its optional
// "[index, ...]" bracket subscript (spec.md §4.1's var grammar), into a
// ReadNode baking that subscript in as a construction-time slice
// (spec.md §4.4's two-layer indexing). Two references to the same
// catalog variable with the same subscript share one ReadNode and its
// chunk cache; different subscripts of the same variable get distinct
// nodes since each bakes in a different outer slice.
func (b *Builder) lowerVar(ctx context.Context, n *defn.Node) (Node, []string, int, error) {
	key := readKey(n.Name, n.Indices)
	if idx, ok := b.reads[key]; ok {
		rn := b.graph.Node(idx).(*ReadNode)
		return rn, rn.Dims(), idx, nil
	}
	if _, ok := b.catalog.Variables[n.Name]; !ok {
		return nil, nil, 0, &xerrors.LookupError{Kind: "variable", Name: n.Name, Arity: -1}
	}
	units, dims, shape, err := b.source.Probe(ctx, n.Name)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(n.Indices) > len(dims) {
		return nil, nil, 0, &xerrors.ParseError{Reason: fmt.Sprintf("%s has %d dimensions but %d indices were given", n.Name, len(dims), len(n.Indices))}
	}
	outer := make([]indexalg.Selector, len(dims))
	for i := range outer {
		if i < len(n.Indices) {
			outer[i] = n.Indices[i]
			continue
		}
		outer[i] = indexalg.Full()
	}
	rn := NewReadNode(b.source, n.Name, dims, shape, units, outer)
	idx := b.graph.Add(rn, n.Name, nil)
	b.reads[key] = idx
	return rn, rn.Dims(), idx, nil
}

// readKey distinguishes cached ReadNodes by both variable name and
// bracket subscript, so "x" and "x[0]" never alias the same node.
func readKey(name string, indices []indexalg.Selector) string {
	if len(indices) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, sel := range indices {
		b.WriteByte('|')
		b.WriteString(sel.String())
	}
	return b.String()
}

func (b *Builder) lowerOp(ctx context.Context, n *defn.Node) (Node, []string, int, error) {
	entry, err := b.registry.Operator(n.Name, len(n.Args))
	if err != nil {
		return nil, nil, 0, err
	}
	return b.buildEval(ctx, entry, n.Name, n.Args, nil)
}

// lowerCall lowers a function call. "rename" is a builder-level
// structural primitive rather than a registry function: it has no
// value/unit rule of its own, it only relabels the dimension names of
// its first argument (flow.MapNode), so it never touches data.
func (b *Builder) lowerCall(ctx context.Context, n *defn.Node) (Node, []string, int, error) {
	if n.Name == "rename" {
		if len(n.Kwargs) > 0 {
			return nil, nil, 0, &xerrors.ParseError{Reason: "rename does not accept keyword arguments"}
		}
		return b.lowerRename(ctx, n)
	}
	entry, err := b.registry.Function(n.Name, len(n.Args)+len(n.Kwargs))
	if err != nil {
		return nil, nil, 0, err
	}
	ordered, err := resolveArgs(n.Name, entry.ParamNames, n.Args, n.Kwargs)
	if err != nil {
		return nil, nil, 0, err
	}
	var nodeArgs []*defn.Node
	var strArgs []string
	for _, a := range ordered {
		if a.Kind == defn.KindStr {
			strArgs = append(strArgs, a.StrVal)
			continue
		}
		nodeArgs = append(nodeArgs, a)
	}
	return b.buildEval(ctx, entry, n.Name, nodeArgs, strArgs)
}

// resolveArgs merges a call's positional arguments and its keyword
// arguments into the single argument order entry.ParamNames declares,
// so lowerCall's array/string split downstream never has to know which
// syntax a definition used for a given slot. A function that declares
// no parameter names (an "any arity" variadic builtin such as
// transpose) accepts positional arguments only.
func resolveArgs(name string, paramNames []string, positional []*defn.Node, kwargs map[string]*defn.Node) ([]*defn.Node, error) {
	if len(kwargs) == 0 {
		return positional, nil
	}
	if len(paramNames) == 0 {
		return nil, &xerrors.ParseError{Reason: fmt.Sprintf("function %q does not accept keyword arguments", name)}
	}
	if len(positional) > len(paramNames) {
		return nil, &xerrors.ParseError{Reason: fmt.Sprintf("function %q takes at most %d arguments", name, len(paramNames))}
	}
	slots := make([]*defn.Node, len(paramNames))
	copy(slots, positional)
	for kw, val := range kwargs {
		i := indexOfName(paramNames, kw)
		if i < 0 {
			return nil, &xerrors.LookupError{Kind: "keyword argument", Name: kw, Arity: -1}
		}
		if slots[i] != nil {
			return nil, &xerrors.ParseError{Reason: fmt.Sprintf("function %q got multiple values for argument %q", name, kw)}
		}
		slots[i] = val
	}
	for i, s := range slots {
		if s == nil {
			return nil, &xerrors.ParseError{Reason: fmt.Sprintf("function %q missing required argument %q", name, paramNames[i])}
		}
	}
	return slots, nil
}

func indexOfName(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func (b *Builder) lowerRename(ctx context.Context, n *defn.Node) (Node, []string, int, error) {
	if len(n.Args) < 1 {
		return nil, nil, 0, &xerrors.ParseError{Reason: "rename requires an expression followed by its new dimension names"}
	}
	child, childDims, childIdx, err := b.lower(ctx, n.Args[0])
	if err != nil {
		return nil, nil, 0, err
	}
	var dims []string
	for _, a := range n.Args[1:] {
		if a.Kind != defn.KindStr {
			return nil, nil, 0, &xerrors.ParseError{Reason: "rename's dimension arguments must be string literals"}
		}
		dims = append(dims, a.StrVal)
	}
	if len(dims) != len(childDims) {
		return nil, nil, 0, &xerrors.DimensionsError{From: childDims, To: dims}
	}
	mn := NewMapNode(child, dims)
	idx := b.graph.Add(mn, "rename", []int{childIdx})
	return mn, dims, idx, nil
}

// buildEval lowers every argument, asks entry for the result and
// per-argument requirements given the arguments as they currently
// stand, and adds the resulting EvalNode to the graph.
func (b *Builder) buildEval(ctx context.Context, entry registry.Entry, label string, nodeArgs []*defn.Node, strArgs []string) (Node, []string, int, error) {
	children := make([]Node, len(nodeArgs))
	childDims := make([][]string, len(nodeArgs))
	childIdx := make([]int, len(nodeArgs))
	argUnits := make([]physarray.Unit, len(nodeArgs))
	argDims := make([][]string, len(nodeArgs))
	for i, a := range nodeArgs {
		child, dims, idx, err := b.lower(ctx, a)
		if err != nil {
			return nil, nil, 0, err
		}
		children[i] = child
		childDims[i] = dims
		childIdx[i] = idx
		argUnits[i] = child.Units()
		argDims[i] = dims
	}
	resultUnit, requiredUnits, err := entry.Unit(argUnits, strArgs)
	if err != nil {
		return nil, nil, 0, err
	}
	resultDims, requiredDims, err := entry.Dims(argDims, strArgs)
	if err != nil {
		return nil, nil, 0, err
	}
	shape := deriveShape(resultDims, children)
	node := NewEvalNode(entry, label, children, childDims, strArgs, resultDims, shape, resultUnit, requiredUnits, requiredDims)
	idx := b.graph.Add(node, label, childIdx)
	return node, resultDims, idx, nil
}

// deriveShape resolves each of dims' extents by name against whichever
// child happens to carry that dimension — correct regardless of which
// argument position a dimension survives from (a reduction drops some,
// a transpose reorders the rest).
func deriveShape(dims []string, children []Node) []int {
	shape := make([]int, len(dims))
	for i, d := range dims {
		for _, c := range children {
			cd := c.Dims()
			for j, name := range cd {
				if name == d {
					shape[i] = c.Shape()[j]
				}
			}
		}
	}
	return shape
}
