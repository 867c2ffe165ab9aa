package physarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUnitEmptyIsDimensionless(t *testing.T) {
	for _, raw := range []string{"", "?", "unknown", "  "} {
		u, err := ParseUnit(raw, "")
		assert.Nil(t, err)
		assert.True(t, u.IsDimensionless())
	}
}

func TestParseUnitCompoundExpressions(t *testing.T) {
	u, err := ParseUnit("kg m-2 s-1", "")
	assert.Nil(t, err)
	assert.True(t, u.Convertible(MustParseUnit("kg/m2/s")))
}

func TestParseUnitUnknownAtom(t *testing.T) {
	_, err := ParseUnit("bogusunit", "")
	assert.NotNil(t, err)
}

func TestParseUnitReferenceTime(t *testing.T) {
	u, err := ParseUnit("days since 1970-01-01", "gregorian")
	assert.Nil(t, err)
	assert.True(t, u.IsReferenceTime)
	assert.Equal(t, "1970-01-01", u.Epoch)
	assert.Equal(t, "gregorian", u.Calendar)
}

func TestConvertibleRequiresSameDimensions(t *testing.T) {
	k := MustParseUnit("K")
	m := MustParseUnit("m")
	assert.True(t, k.Convertible(k))
	assert.False(t, k.Convertible(m))
}

func TestConvertibleRequiresMatchingEpochAndCalendar(t *testing.T) {
	a, _ := ParseUnit("days since 1970-01-01", "gregorian")
	b, _ := ParseUnit("days since 1970-01-01", "noleap")
	c, _ := ParseUnit("days since 2000-01-01", "gregorian")
	assert.False(t, a.Convertible(b))
	assert.False(t, a.Convertible(c))
	assert.False(t, a.Convertible(MustParseUnit("days")))
}

func TestConvertAppliesScaleAndOffset(t *testing.T) {
	k := MustParseUnit("K")
	degC := MustParseUnit("degC")
	out, err := k.Convert([]float64{273.15, 373.15}, degC)
	assert.Nil(t, err)
	assert.InDelta(t, 0, out[0], 1e-9)
	assert.InDelta(t, 100, out[1], 1e-9)
}

func TestConvertRejectsIncompatibleUnits(t *testing.T) {
	_, err := MustParseUnit("K").Convert([]float64{1}, MustParseUnit("m"))
	assert.NotNil(t, err)
}

func TestRoot(t *testing.T) {
	m2 := MustParseUnit("m2")
	root, err := m2.Root(2)
	assert.Nil(t, err)
	assert.True(t, root.Convertible(MustParseUnit("m")))
}

func TestRootRejectsUnevenExponent(t *testing.T) {
	m := MustParseUnit("m")
	_, err := m.Root(2)
	assert.NotNil(t, err)
}

func TestMulAndDivCombineDimensions(t *testing.T) {
	m := MustParseUnit("m")
	s := MustParseUnit("s")
	product, err := m.Mul(s)
	assert.Nil(t, err)
	assert.Equal(t, "m*s", product.String())

	quotient, err := m.Div(s)
	assert.Nil(t, err)
	assert.True(t, quotient.Convertible(MustParseUnit("m/s")))
}

func TestDivRejectsReferenceTimeOperands(t *testing.T) {
	ref, _ := ParseUnit("days since 1970-01-01", "")
	_, err := ref.Div(MustParseUnit("s"))
	assert.NotNil(t, err)
}

func TestSubStripsEpoch(t *testing.T) {
	ref, _ := ParseUnit("days since 1970-01-01", "gregorian")
	interval := ref.Sub()
	assert.False(t, interval.IsReferenceTime)
	assert.Equal(t, "", interval.Epoch)
	assert.True(t, interval.Convertible(MustParseUnit("days")))
}

func TestIsDimensionless(t *testing.T) {
	assert.True(t, Dimensionless.IsDimensionless())
	assert.True(t, MustParseUnit("%").IsDimensionless())
	assert.False(t, MustParseUnit("K").IsDimensionless())
	ref, _ := ParseUnit("days since 1970-01-01", "")
	assert.False(t, ref.IsDimensionless())
}
