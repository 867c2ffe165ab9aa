package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/dflow/physarray"
)

func arr(name string, units string, dims []string, shape []int, data []float64) *physarray.PhysicalArray {
	u, err := physarray.ParseUnit(units, "")
	if err != nil {
		panic(err)
	}
	return physarray.New(name, u, dims, shape, data)
}

func TestOperatorLookup(t *testing.T) {
	r := New()
	_, err := r.Operator("+", 2)
	assert.Nil(t, err)
	_, err = r.Operator("%", 2)
	assert.NotNil(t, err)
}

func TestPowerOperator(t *testing.T) {
	r := New()
	e, err := r.Operator("**", 2)
	assert.Nil(t, err)

	base := arr("x", "m", []string{"x"}, []int{1}, []float64{2})
	exp := arr("n", "1", []string{"x"}, []int{1}, []float64{3})
	out, err := e.Value([]*physarray.PhysicalArray{base, exp}, nil)
	assert.Nil(t, err)
	assert.Equal(t, []float64{8}, out.Data)

	_, err = r.Operator("^", 2)
	assert.NotNil(t, err) // the caret spelling is not a registered operator
}

func TestAdditionRequiresConvertibleUnits(t *testing.T) {
	r := New()
	e, err := r.Operator("+", 2)
	assert.Nil(t, err)

	k, err := physarray.ParseUnit("K", "")
	assert.Nil(t, err)
	m, err := physarray.ParseUnit("m", "")
	assert.Nil(t, err)

	_, _, err = e.Unit([]physarray.Unit{k, k}, nil)
	assert.Nil(t, err)

	_, _, err = e.Unit([]physarray.Unit{k, m}, nil)
	assert.NotNil(t, err)
}

func TestMultiplicationCombinesUnits(t *testing.T) {
	r := New()
	e, _ := r.Operator("*", 2)
	m, _ := physarray.ParseUnit("m", "")
	s, _ := physarray.ParseUnit("s", "")
	result, required, err := e.Unit([]physarray.Unit{m, s}, nil)
	assert.Nil(t, err)
	assert.Equal(t, "m*s", result.String())
	assert.Equal(t, 2, len(required))
}

func TestElementwiseAddition(t *testing.T) {
	r := New()
	e, _ := r.Operator("+", 2)
	a := arr("a", "K", []string{"x"}, []int{3}, []float64{1, 2, 3})
	b := arr("b", "K", []string{"x"}, []int{3}, []float64{10, 20, 30})
	out, err := e.Value([]*physarray.PhysicalArray{a, b}, nil)
	assert.Nil(t, err)
	assert.Equal(t, []float64{11, 22, 33}, out.Data)
}

func TestComparisonOperatorsAreElementwiseAndDimensionless(t *testing.T) {
	r := New()
	e, err := r.Operator("<", 2)
	assert.Nil(t, err)

	a := arr("a", "K", []string{"x"}, []int{3}, []float64{1, 2, 3})
	b := arr("b", "K", []string{"x"}, []int{3}, []float64{2, 2, 2})
	out, err := e.Value([]*physarray.PhysicalArray{a, b}, nil)
	assert.Nil(t, err)
	assert.Equal(t, []float64{1, 0, 0}, out.Data)

	result, _, err := e.Unit([]physarray.Unit{a.Units, b.Units}, nil)
	assert.Nil(t, err)
	assert.True(t, result.IsDimensionless())

	m, _ := physarray.ParseUnit("m", "")
	_, _, err = e.Unit([]physarray.Unit{a.Units, m}, nil)
	assert.NotNil(t, err)
}

func TestSqrtUnit(t *testing.T) {
	r := New()
	e, err := r.Function("sqrt", 1)
	assert.Nil(t, err)
	m2, _ := physarray.ParseUnit("m2", "")
	result, _, err := e.Unit([]physarray.Unit{m2}, nil)
	assert.Nil(t, err)
	assert.True(t, result.Convertible(physarray.MustParseUnit("m")))
}

func TestConvert(t *testing.T) {
	r := New()
	e, _ := r.Function("convert", 2)
	k := arr("temp", "K", []string{"x"}, []int{2}, []float64{273.15, 373.15})
	out, err := e.Value([]*physarray.PhysicalArray{k}, []string{"degC"})
	assert.Nil(t, err)
	assert.InDelta(t, 0, out.Data[0], 1e-9)
	assert.InDelta(t, 100, out.Data[1], 1e-9)
}

func TestTranspose(t *testing.T) {
	r := New()
	e, _ := r.Function("transpose", 0)
	x := arr("x", "1", []string{"a", "b"}, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	out, err := e.Value([]*physarray.PhysicalArray{x}, []string{"b", "a"})
	assert.Nil(t, err)
	assert.Equal(t, []string{"b", "a"}, out.Dims)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, out.Data)
}

func TestZonalMean(t *testing.T) {
	r := New()
	e, _ := r.Function("zonal_mean", 1)
	x := arr("x", "K", []string{"lat", "lon"}, []int{2, 2}, []float64{1, 3, 5, 7})
	out, err := e.Value([]*physarray.PhysicalArray{x}, nil)
	assert.Nil(t, err)
	assert.Equal(t, []string{"lat"}, out.Dims)
	assert.Equal(t, []float64{2, 6}, out.Data)
}

func TestBounds(t *testing.T) {
	r := New()
	e, _ := r.Function("bounds", 1)
	lat := arr("lat", "degrees_north", []string{"lat"}, []int{3}, []float64{-45, 0, 45})
	out, err := e.Value([]*physarray.PhysicalArray{lat}, nil)
	assert.Nil(t, err)
	assert.Equal(t, []int{3, 2}, out.Shape)
	assert.InDelta(t, -22.5, out.Data[1], 1e-9)
}
