package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/dflow/indexalg"
)

func TestChunkIterNestedCounter(t *testing.T) {
	it := newChunkIter(map[string]int{"time": 5}, map[string]int{"time": 2})

	var starts []int
	for {
		chunk, ok := it.next()
		if !ok {
			break
		}
		start, _, length := indexalg.Resolve(chunk["time"], 5)
		starts = append(starts, start)
		_ = length
	}
	assert.Equal(t, []int{0, 2, 4}, starts)
}

func TestChunkIterDefaultsToFullDimension(t *testing.T) {
	it := newChunkIter(map[string]int{"time": 5}, nil)
	chunk, ok := it.next()
	assert.True(t, ok)
	_, _, length := indexalg.Resolve(chunk["time"], 5)
	assert.Equal(t, 5, length)
	_, ok = it.next()
	assert.False(t, ok)
}

func TestChunkIterDimensionless(t *testing.T) {
	it := newChunkIter(map[string]int{}, nil)
	chunk, ok := it.next()
	assert.True(t, ok)
	assert.Equal(t, 0, len(chunk))
	_, ok = it.next()
	assert.False(t, ok)
}

func TestMirrorReflectsRangeAcrossSize(t *testing.T) {
	sel := indexalg.Range(0, 2, true, 1)
	mirrored := mirror(sel, 5)
	start, step, length := indexalg.Resolve(mirrored, 5)
	assert.Equal(t, 4, start)
	assert.Equal(t, -1, step)
	assert.Equal(t, 2, length)
}

func TestChunkKeyStableAcrossEqualSelectors(t *testing.T) {
	a := []indexalg.Selector{indexalg.Range(0, 2, true, 1)}
	b := []indexalg.Selector{indexalg.Range(0, 2, true, 1)}
	c := []indexalg.Selector{indexalg.Range(2, 4, true, 1)}

	assert.Equal(t, chunkKey("tas", a), chunkKey("tas", b))
	assert.NotEqual(t, chunkKey("tas", a), chunkKey("tas", c))
	assert.NotEqual(t, chunkKey("tas", a), chunkKey("other", a))
}
