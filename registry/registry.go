package registry

import "github.com/viant/dflow/xerrors"

type opKey struct {
	Symbol string
	Arity  int
}

type funcKey struct {
	Name  string
	Arity int
}

// Registry is the closed-at-construction operator and function table.
// Nothing is registered after New returns; every lookup either
// succeeds or reports xerrors.LookupError.
type Registry struct {
	operators map[opKey]Entry
	functions map[funcKey]Entry
}

// New builds the registry with every built-in operator and function
// the engine ships with.
func New() *Registry {
	r := &Registry{
		operators: map[opKey]Entry{},
		functions: map[funcKey]Entry{},
	}
	r.registerOperators()
	r.registerBuiltinFunctions()
	r.registerDomainFunctions()
	return r
}

func (r *Registry) addOperator(symbol string, arity int, e Entry) {
	r.operators[opKey{Symbol: symbol, Arity: arity}] = e
}

func (r *Registry) addFunction(name string, arity int, e Entry) {
	r.functions[funcKey{Name: name, Arity: arity}] = e
}

// Operator looks up an operator by symbol and arity (1 for unary, 2
// for binary).
func (r *Registry) Operator(symbol string, arity int) (Entry, error) {
	if e, ok := r.operators[opKey{Symbol: symbol, Arity: arity}]; ok {
		return e, nil
	}
	return Entry{}, &xerrors.LookupError{Kind: "operator", Name: symbol, Arity: arity}
}

// Function looks up a function by name and arity, falling back to a
// variadic (anyArity) registration if one exists.
func (r *Registry) Function(name string, arity int) (Entry, error) {
	if e, ok := r.functions[funcKey{Name: name, Arity: arity}]; ok {
		return e, nil
	}
	if e, ok := r.functions[funcKey{Name: name, Arity: anyArity}]; ok {
		return e, nil
	}
	return Entry{}, &xerrors.LookupError{Kind: "function", Name: name, Arity: arity}
}
