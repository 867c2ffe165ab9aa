package registry

import (
	"math"

	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/xerrors"
)

func (r *Registry) registerBuiltinFunctions() {
	r.addFunction("sqrt", 1, Entry{Arity: 1, Value: sqrtValue, Unit: sqrtUnit, Dims: passthroughDims(1), ParamNames: []string{"x"}})
	r.addFunction("convert", 2, Entry{Arity: 2, Value: convertValue, Unit: convertUnit, Dims: passthroughDims(1), ParamNames: []string{"x", "to_units"}})
	// transpose takes a variable number of trailing dimension-name
	// strings, so it has no fixed parameter list and cannot be called
	// with keyword arguments.
	r.addFunction("transpose", anyArity, Entry{Arity: anyArity, Value: transposeValue, Unit: passthroughUnit(1), Dims: transposeDims})
}

func sqrtValue(args []*physarray.PhysicalArray, strArgs []string) (*physarray.PhysicalArray, error) {
	a := args[0]
	out := a.Clone()
	for i := range out.Data {
		if out.Mask != nil && out.Mask[i] {
			continue
		}
		out.Data[i] = math.Sqrt(a.Data[i])
	}
	return out, nil
}

func sqrtUnit(argUnits []physarray.Unit, _ []string) (physarray.Unit, []physarray.Unit, error) {
	result, err := argUnits[0].Root(2)
	if err != nil {
		return physarray.Unit{}, nil, err
	}
	return result, []physarray.Unit{argUnits[0]}, nil
}

func convertValue(args []*physarray.PhysicalArray, strArgs []string) (*physarray.PhysicalArray, error) {
	target, err := physarray.ParseUnit(strArgs[0], "")
	if err != nil {
		return nil, &xerrors.UnitsError{From: args[0].Units.String(), To: strArgs[0], Reason: err.Error()}
	}
	data, err := args[0].Units.Convert(args[0].Data, target)
	if err != nil {
		return nil, err
	}
	out := args[0].Clone()
	out.Data = data
	out.Units = target
	return out, nil
}

func convertUnit(argUnits []physarray.Unit, strArgs []string) (physarray.Unit, []physarray.Unit, error) {
	target, err := physarray.ParseUnit(strArgs[0], "")
	if err != nil {
		return physarray.Unit{}, nil, &xerrors.UnitsError{From: argUnits[0].String(), To: strArgs[0], Reason: err.Error()}
	}
	if !argUnits[0].Convertible(target) {
		return physarray.Unit{}, nil, &xerrors.UnitsError{From: argUnits[0].String(), To: target.String(), Reason: "not convertible"}
	}
	return target, []physarray.Unit{argUnits[0]}, nil
}

// transposeValue permutes an array's axes into the order named by
// strArgs, computed with a single odometer-style counter over the
// output index space rather than a recursive per-axis copy.
func transposeValue(args []*physarray.PhysicalArray, strArgs []string) (*physarray.PhysicalArray, error) {
	in := args[0]
	perm := make([]int, len(strArgs))
	newShape := make([]int, len(strArgs))
	for j, d := range strArgs {
		p := in.DimIndex(d)
		if p < 0 {
			return nil, &xerrors.DimensionsError{From: in.Dims, To: strArgs}
		}
		perm[j] = p
		newShape[j] = in.Shape[p]
	}
	oldStrides := make([]int, len(in.Shape))
	stride := 1
	for i := len(in.Shape) - 1; i >= 0; i-- {
		oldStrides[i] = stride
		stride *= in.Shape[i]
	}
	total := in.Len()
	newData := make([]float64, total)
	var newMask []bool
	if in.Mask != nil {
		newMask = make([]bool, total)
	}
	idx := make([]int, len(newShape))
	for linear := 0; linear < total; linear++ {
		oldOffset := 0
		for j, p := range perm {
			oldOffset += idx[j] * oldStrides[p]
		}
		newData[linear] = in.Data[oldOffset]
		if newMask != nil {
			newMask[linear] = in.Mask[oldOffset]
		}
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < newShape[j] {
				break
			}
			idx[j] = 0
		}
	}
	out := physarray.New(in.Name, in.Units, strArgs, newShape, newData)
	out.Mask = newMask
	out.Positive = in.Positive
	return out, nil
}

func transposeDims(argDims [][]string, strArgs []string) ([]string, [][]string, error) {
	if !isPermutation(argDims[0], strArgs) {
		return nil, nil, &xerrors.DimensionsError{From: argDims[0], To: strArgs}
	}
	return append([]string(nil), strArgs...), [][]string{argDims[0]}, nil
}
