package registry

import (
	"fmt"
	"math"

	"github.com/viant/dflow/physarray"
)

// registerDomainFunctions adds the small library of reduction
// functions a climate-style output specification typically needs on
// top of the generic arithmetic and unit/dimension builtins.
func (r *Registry) registerDomainFunctions() {
	r.addFunction("zonal_mean", 1, Entry{Arity: 1, Value: reduceOver("lon"), Unit: passthroughUnit(1), Dims: dropDim("lon"), ParamNames: []string{"x"}})
	r.addFunction("climatology_mean", 1, Entry{Arity: 1, Value: reduceOver("time"), Unit: passthroughUnit(1), Dims: dropDim("time"), ParamNames: []string{"x"}})
	r.addFunction("bounds", 1, Entry{Arity: 1, Value: boundsValue, Unit: passthroughUnit(1), Dims: boundsDims, ParamNames: []string{"x"}})
	r.addFunction("region_integral", 2, Entry{Arity: 2, Value: regionIntegralValue, Unit: regionIntegralUnit, Dims: regionIntegralDims, ParamNames: []string{"x", "lat"}})
}

func reduceOver(dim string) ValueRule {
	return func(args []*physarray.PhysicalArray, _ []string) (*physarray.PhysicalArray, error) {
		return reduceMean(args[0], dim, nil)
	}
}

func dropDim(dim string) DimRule {
	return func(argDims [][]string, _ []string) ([]string, [][]string, error) {
		if !hasDim(argDims[0], dim) {
			return nil, nil, fmt.Errorf("cannot reduce over dimension %q: not present in %v", dim, argDims[0])
		}
		return removeDim(argDims[0], dim), [][]string{argDims[0]}, nil
	}
}

// reduceMean collapses in's named axis by averaging, optionally
// weighted (weights indexed along that axis; nil means unweighted). A
// masked sample is excluded from both the sum and its weight.
func reduceMean(in *physarray.PhysicalArray, dim string, weights []float64) (*physarray.PhysicalArray, error) {
	ax := in.DimIndex(dim)
	if ax < 0 {
		return nil, fmt.Errorf("dimension %q not present in %v", dim, in.Dims)
	}
	oldStrides := rowMajorStrides(in.Shape)
	newDims := removeDim(in.Dims, dim)
	newShape := make([]int, 0, len(in.Shape)-1)
	oldAxisOf := make([]int, 0, len(in.Shape)-1)
	for i, s := range in.Shape {
		if i == ax {
			continue
		}
		newShape = append(newShape, s)
		oldAxisOf = append(oldAxisOf, i)
	}
	total := 1
	for _, s := range newShape {
		total *= s
	}
	axisLen := in.Shape[ax]
	axisStride := oldStrides[ax]
	newData := make([]float64, total)
	var newMask []bool
	idx := make([]int, len(newShape))
	for linear := 0; linear < total; linear++ {
		base := 0
		for j, oi := range oldAxisOf {
			base += idx[j] * oldStrides[oi]
		}
		sum, wsum := 0.0, 0.0
		for k := 0; k < axisLen; k++ {
			off := base + k*axisStride
			if in.Mask != nil && in.Mask[off] {
				continue
			}
			w := 1.0
			if weights != nil {
				w = weights[k]
			}
			sum += in.Data[off] * w
			wsum += w
		}
		if wsum == 0 {
			if newMask == nil {
				newMask = make([]bool, total)
			}
			newMask[linear] = true
		} else {
			newData[linear] = sum / wsum
		}
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < newShape[j] {
				break
			}
			idx[j] = 0
		}
	}
	out := physarray.New(in.Name, in.Units, newDims, newShape, newData)
	out.Mask = newMask
	out.Positive = in.Positive
	return out, nil
}

// boundsValue derives cell edges for a one-dimensional coordinate
// variable by midpoint interpolation, extrapolating the outer edges
// from the nearest interior spacing.
func boundsValue(args []*physarray.PhysicalArray, _ []string) (*physarray.PhysicalArray, error) {
	x := args[0]
	if len(x.Dims) != 1 {
		return nil, fmt.Errorf("bounds requires a one-dimensional coordinate variable, got dims %v", x.Dims)
	}
	n := x.Shape[0]
	if n < 2 {
		return nil, fmt.Errorf("bounds requires at least two samples")
	}
	data := make([]float64, n*2)
	for i := 0; i < n; i++ {
		var lo, hi float64
		if i == 0 {
			lo = x.Data[0] - (x.Data[1]-x.Data[0])/2
		} else {
			lo = (x.Data[i-1] + x.Data[i]) / 2
		}
		if i == n-1 {
			hi = x.Data[n-1] + (x.Data[n-1]-x.Data[n-2])/2
		} else {
			hi = (x.Data[i] + x.Data[i+1]) / 2
		}
		data[i*2] = lo
		data[i*2+1] = hi
	}
	dims := append(append([]string(nil), x.Dims...), "bnds")
	out := physarray.New(x.Name+"_bnds", x.Units, dims, []int{n, 2}, data)
	out.Positive = x.Positive
	return out, nil
}

func boundsDims(argDims [][]string, _ []string) ([]string, [][]string, error) {
	return append(append([]string(nil), argDims[0]...), "bnds"), [][]string{argDims[0]}, nil
}

// regionIntegralValue area-weights x by cos(latitude) before averaging
// over lat and lon, an approximation of a spatial integral normalized
// by the region's weighted area.
func regionIntegralValue(args []*physarray.PhysicalArray, _ []string) (*physarray.PhysicalArray, error) {
	x, lat := args[0], args[1]
	latAxInLat := lat.DimIndex("lat")
	if latAxInLat < 0 {
		return nil, fmt.Errorf("region_integral's second argument must carry a lat dimension")
	}
	weights := make([]float64, lat.Shape[latAxInLat])
	for i, v := range lat.Data {
		weights[i] = math.Cos(v * math.Pi / 180)
	}
	overLat, err := reduceMean(x, "lat", weights)
	if err != nil {
		return nil, err
	}
	return reduceMean(overLat, "lon", nil)
}

func regionIntegralUnit(argUnits []physarray.Unit, _ []string) (physarray.Unit, []physarray.Unit, error) {
	return argUnits[0], []physarray.Unit{argUnits[0], argUnits[1]}, nil
}

func regionIntegralDims(argDims [][]string, _ []string) ([]string, [][]string, error) {
	if !hasDim(argDims[0], "lat") || !hasDim(argDims[0], "lon") {
		return nil, nil, fmt.Errorf("region_integral requires lat and lon dimensions, got %v", argDims[0])
	}
	result := removeDim(removeDim(argDims[0], "lat"), "lon")
	return result, [][]string{argDims[0], argDims[1]}, nil
}
