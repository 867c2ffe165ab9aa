package defn

import "github.com/viant/dflow/indexalg"

// Kind discriminates the tagged AST node shapes a definition parses
// into: two literal kinds, a string literal (used for unit arguments
// like convert(x, 'degC')), a variable reference, a function call, and
// a binary/unary operator application.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindStr
	KindVar
	KindCall
	KindOp
)

// Node is a definition's parsed expression tree. Exactly the fields
// matching Kind are meaningful; the rest are zero.
type Node struct {
	Kind     Kind
	IntVal   int64
	FloatVal float64
	StrVal   string
	Name     string  // variable name (KindVar), function name (KindCall), operator symbol (KindOp)
	Args     []*Node // call arguments (KindCall), operands in evaluation order (KindOp: one for unary, two for binary)

	// Indices holds a KindVar node's optional "var[index, ...]" bracket
	// subscript, one selector per named index in source order. Nil
	// means the variable was referenced bare.
	Indices []indexalg.Selector

	// Kwargs holds a KindCall node's "name=value" arguments, keyed by
	// parameter name. Positional arguments still live in Args; Kwargs
	// is nil when the call used none.
	Kwargs map[string]*Node
}

func intNode(v int64) *Node     { return &Node{Kind: KindInt, IntVal: v} }
func floatNode(v float64) *Node { return &Node{Kind: KindFloat, FloatVal: v} }
func strNode(v string) *Node    { return &Node{Kind: KindStr, StrVal: v} }
func varNode(name string) *Node { return &Node{Kind: KindVar, Name: name} }
func varNodeIndexed(name string, indices []indexalg.Selector) *Node {
	return &Node{Kind: KindVar, Name: name, Indices: indices}
}
func callNode(name string, args []*Node, kwargs map[string]*Node) *Node {
	return &Node{Kind: KindCall, Name: name, Args: args, Kwargs: kwargs}
}
func opNode(sym string, args ...*Node) *Node {
	return &Node{Kind: KindOp, Name: sym, Args: args}
}

// IsNumeric reports whether n is a folded numeric literal.
func (n *Node) IsNumeric() bool { return n.Kind == KindInt || n.Kind == KindFloat }

// Float returns n's value widened to float64; only meaningful when
// IsNumeric is true.
func (n *Node) Float() float64 {
	if n.Kind == KindInt {
		return float64(n.IntVal)
	}
	return n.FloatVal
}
