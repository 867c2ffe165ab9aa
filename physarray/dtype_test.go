package physarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDTypeValid(t *testing.T) {
	assert.True(t, Float64.Valid())
	assert.True(t, Int32.Valid())
	assert.False(t, DType("octuple").Valid())
}

func TestSameKind(t *testing.T) {
	assert.True(t, SameKind(Float32, Float64))
	assert.True(t, SameKind(Int16, Int64))
	assert.False(t, SameKind(Int32, Float64))
	assert.False(t, SameKind(Uint8, Int8))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "float", Float64.Kind())
	assert.Equal(t, "int", Int32.Kind())
	assert.Equal(t, "", DType("nope").Kind())
}
