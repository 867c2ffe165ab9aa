package registry

import (
	"math"

	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/xerrors"
)

func (r *Registry) registerOperators() {
	r.addOperator("-", 1, Entry{Arity: 1, Value: negateValue, Unit: passthroughUnit(1), Dims: passthroughDims(1)})
	r.addOperator("+", 2, Entry{Arity: 2, Value: elementwise(func(a, b float64) float64 { return a + b }), Unit: matchingUnit, Dims: matchingDims})
	r.addOperator("-", 2, Entry{Arity: 2, Value: elementwise(func(a, b float64) float64 { return a - b }), Unit: matchingUnit, Dims: matchingDims})
	r.addOperator("*", 2, Entry{Arity: 2, Value: elementwise(func(a, b float64) float64 { return a * b }), Unit: combiningUnit(physarray.Unit.Mul), Dims: matchingDims})
	r.addOperator("/", 2, Entry{Arity: 2, Value: elementwise(func(a, b float64) float64 { return a / b }), Unit: combiningUnit(physarray.Unit.Div), Dims: matchingDims})
	r.addOperator("**", 2, Entry{Arity: 2, Value: powValue, Unit: powUnit, Dims: matchingDims})
	r.addOperator("<", 2, Entry{Arity: 2, Value: compareValue(func(a, b float64) bool { return a < b }), Unit: compareUnit, Dims: matchingDims})
	r.addOperator(">", 2, Entry{Arity: 2, Value: compareValue(func(a, b float64) bool { return a > b }), Unit: compareUnit, Dims: matchingDims})
	r.addOperator("<=", 2, Entry{Arity: 2, Value: compareValue(func(a, b float64) bool { return a <= b }), Unit: compareUnit, Dims: matchingDims})
	r.addOperator(">=", 2, Entry{Arity: 2, Value: compareValue(func(a, b float64) bool { return a >= b }), Unit: compareUnit, Dims: matchingDims})
	r.addOperator("==", 2, Entry{Arity: 2, Value: compareValue(func(a, b float64) bool { return a == b }), Unit: compareUnit, Dims: matchingDims})
	r.addOperator("!=", 2, Entry{Arity: 2, Value: compareValue(func(a, b float64) bool { return a != b }), Unit: compareUnit, Dims: matchingDims})
}

func negateValue(args []*physarray.PhysicalArray, _ []string) (*physarray.PhysicalArray, error) {
	return args[0].Negate(), nil
}

func passthroughUnit(n int) UnitRule {
	return func(argUnits []physarray.Unit, _ []string) (physarray.Unit, []physarray.Unit, error) {
		required := make([]physarray.Unit, n)
		copy(required, argUnits)
		return argUnits[0], required, nil
	}
}

func passthroughDims(n int) DimRule {
	return func(argDims [][]string, _ []string) ([]string, [][]string, error) {
		required := make([][]string, n)
		copy(required, argDims)
		return argDims[0], required, nil
	}
}

// matchingUnit requires every argument to share one common unit,
// converting any that are merely convertible into it. A dimensionless
// argument (a bare numeric constant) is treated as a wildcard: it never
// needs conversion and never constrains the other operands, so
// `temp - 273.15` does not require the literal to carry temperature
// units.
func matchingUnit(argUnits []physarray.Unit, _ []string) (physarray.Unit, []physarray.Unit, error) {
	want := argUnits[0]
	for _, u := range argUnits {
		if !u.IsDimensionless() {
			want = u
			break
		}
	}
	required := make([]physarray.Unit, len(argUnits))
	for i, u := range argUnits {
		if u.IsDimensionless() {
			required[i] = u
			continue
		}
		if !u.Convertible(want) {
			return physarray.Unit{}, nil, &xerrors.UnitsError{From: u.String(), To: want.String(), Reason: "operands of an additive operator must share compatible units"}
		}
		required[i] = want
	}
	return want, required, nil
}

// matchingDims requires every argument to present (possibly after a
// transpose) the same dimension tuple as the first non-scalar
// argument. A scalar argument (no dimensions at all, e.g. a folded
// numeric literal) is a broadcast wildcard and is never required to
// gain dimensions it doesn't have.
func matchingDims(argDims [][]string, _ []string) ([]string, [][]string, error) {
	var want []string
	for _, d := range argDims {
		if len(d) > 0 {
			want = d
			break
		}
	}
	required := make([][]string, len(argDims))
	for i, dims := range argDims {
		if len(dims) == 0 {
			required[i] = dims
			continue
		}
		if !isPermutation(dims, want) {
			return nil, nil, &xerrors.DimensionsError{From: dims, To: want}
		}
		required[i] = want
	}
	return want, required, nil
}

func combiningUnit(combine func(physarray.Unit, physarray.Unit) (physarray.Unit, error)) UnitRule {
	return func(argUnits []physarray.Unit, _ []string) (physarray.Unit, []physarray.Unit, error) {
		result, err := combine(argUnits[0], argUnits[1])
		if err != nil {
			return physarray.Unit{}, nil, err
		}
		return result, append([]physarray.Unit(nil), argUnits...), nil
	}
}

func elementwise(op func(a, b float64) float64) ValueRule {
	return func(args []*physarray.PhysicalArray, _ []string) (*physarray.PhysicalArray, error) {
		a, b := args[0], args[1]
		switch {
		case len(a.Data) == 1 && len(b.Data) != 1:
			return broadcast(b, a.Data[0], func(x, scalar float64) float64 { return op(scalar, x) }), nil
		case len(b.Data) == 1 && len(a.Data) != 1:
			return broadcast(a, b.Data[0], op), nil
		default:
			out := a.Clone()
			for i := range out.Data {
				masked := (a.Mask != nil && a.Mask[i]) || (b.Mask != nil && b.Mask[i])
				if masked {
					out.SetMasked(i)
					continue
				}
				out.Data[i] = op(a.Data[i], b.Data[i])
			}
			return out, nil
		}
	}
}

// broadcast applies op(element, scalar) across every unmasked element
// of arr, used when one operand of a binary operator is a 0-d scalar.
func broadcast(arr *physarray.PhysicalArray, scalar float64, op func(x, scalar float64) float64) *physarray.PhysicalArray {
	out := arr.Clone()
	for i := range out.Data {
		if out.Mask != nil && out.Mask[i] {
			continue
		}
		out.Data[i] = op(arr.Data[i], scalar)
	}
	return out
}

// compareValue builds a comparison operator's Value rule: elementwise,
// producing 1 for true and 0 for false, mask propagating the same way
// every other elementwise operator does.
func compareValue(cmp func(a, b float64) bool) ValueRule {
	return elementwise(func(a, b float64) float64 {
		if cmp(a, b) {
			return 1
		}
		return 0
	})
}

// compareUnit requires both operands to share a common unit, the same
// rule additive operators use, but the comparison's own result is
// always dimensionless — a boolean mask has no physical unit.
func compareUnit(argUnits []physarray.Unit, strArgs []string) (physarray.Unit, []physarray.Unit, error) {
	_, required, err := matchingUnit(argUnits, strArgs)
	if err != nil {
		return physarray.Unit{}, nil, err
	}
	return physarray.Dimensionless, required, nil
}

func powValue(args []*physarray.PhysicalArray, strArgs []string) (*physarray.PhysicalArray, error) {
	return elementwise(math.Pow)(args, strArgs)
}

func powUnit(argUnits []physarray.Unit, _ []string) (physarray.Unit, []physarray.Unit, error) {
	if !argUnits[1].IsDimensionless() {
		return physarray.Unit{}, nil, &xerrors.UnitsError{From: argUnits[0].String(), To: argUnits[1].String(), Reason: "** requires a dimensionless exponent"}
	}
	return argUnits[0], append([]physarray.Unit(nil), argUnits...), nil
}
