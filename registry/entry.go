// Package registry is the closed set of operators and functions a
// definition's Call and Op nodes resolve against (spec.md §4.3, §9).
// Every entry carries three independent rules: how to compute a result
// from already-reconciled arguments, how its units propagate, and how
// its dimension tuple propagates — the graph builder evaluates the
// latter two without ever touching data and the reconciler acts on the
// per-argument requirements they return, while the flow runtime's
// EvalNode consults the first.
package registry

import "github.com/viant/dflow/physarray"

// ValueRule computes a function or operator's result from its already
// unit/dimension-reconciled array arguments, plus any trailing string
// literal arguments the definition supplied verbatim (e.g. the target
// unit name in convert(x, 'degC')).
type ValueRule func(args []*physarray.PhysicalArray, strArgs []string) (*physarray.PhysicalArray, error)

// UnitRule derives the unit an operator or function result carries,
// and the unit each of its arguments must be coerced to beforehand.
// required[i], compared against argUnits[i], tells the reconciler
// whether argument i needs a convert node spliced in front of it
// (convertible but not equal), is already satisfied (equal), or is
// unreconcilable (not convertible — a real xerrors.UnitsError). The
// graph builder runs it once as it constructs each EvalNode, which
// keeps required for the reconciler; it never reads data.
type UnitRule func(argUnits []physarray.Unit, strArgs []string) (result physarray.Unit, required []physarray.Unit, err error)

// DimRule is UnitRule's dimension-propagation counterpart: it derives
// the result dimension tuple and the dimension tuple each argument
// must present, letting the reconciler decide where to splice a
// transpose node (a differently-ordered permutation) versus report a
// real xerrors.DimensionsError (not even a permutation).
type DimRule func(argDims [][]string, strArgs []string) (result []string, required [][]string, err error)

// Entry is one resolved (name, arity) binding in the registry. Arity
// of -1 means "any arity of one or more array arguments followed by
// the function's fixed string-literal arguments" — used by variadic
// functions like transpose.
type Entry struct {
	Arity int
	Value ValueRule
	Unit  UnitRule
	Dims  DimRule

	// ParamNames names a function's arguments, in call order, spanning
	// both its array and its trailing string-literal arguments. It lets
	// the builder resolve a definition's keyword arguments (spec.md
	// §4.1's "NAME '=' expr" call syntax) to the right slot before
	// splitting them into array/string form. Nil for operators and for
	// variadic ("any arity") functions, neither of which accept keyword
	// arguments.
	ParamNames []string
}

const anyArity = -1
