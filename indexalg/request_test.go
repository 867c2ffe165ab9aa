package indexalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignTuple(t *testing.T) {
	r := ByTuple([]Selector{At(1), Full()})
	aligned, err := Align(r, []string{"time", "lat"})
	assert.Nil(t, err)
	assert.Equal(t, []Selector{At(1), Full()}, aligned)

	_, err = Align(ByTuple([]Selector{At(1)}), []string{"time", "lat"})
	assert.NotNil(t, err)
}

func TestAlignMapDefaultsMissingDimsToFull(t *testing.T) {
	r := ByMap(map[string]Selector{"time": At(2)})
	aligned, err := Align(r, []string{"time", "lat"})
	assert.Nil(t, err)
	assert.Equal(t, []Selector{At(2), Full()}, aligned)
}

func TestAlignRejectsProbe(t *testing.T) {
	_, err := Align(Probe(), []string{"time"})
	assert.NotNil(t, err)
	assert.True(t, Probe().IsProbe())
}

func TestProjectNarrowsToSubDims(t *testing.T) {
	r := ByMap(map[string]Selector{"time": At(2), "lat": Full(), "lon": Range(0, 4, true, 1)})
	projected, err := Project(r, []string{"time", "lat", "lon"}, []string{"lon", "time"})
	assert.Nil(t, err)
	assert.Equal(t, ReqMap, projected.Kind)
	assert.Equal(t, Range(0, 4, true, 1), projected.ByDim["lon"])
	assert.Equal(t, At(2), projected.ByDim["time"])
	_, ok := projected.ByDim["lat"]
	assert.False(t, ok)
}

func TestProjectPassesProbeThrough(t *testing.T) {
	projected, err := Project(Probe(), []string{"time"}, []string{"time"})
	assert.Nil(t, err)
	assert.True(t, projected.IsProbe())
}

func TestTranslateDimsRenamesMapKeys(t *testing.T) {
	r := ByMap(map[string]Selector{"out_time": At(1)})
	translated := TranslateDims(r, map[string]string{"out_time": "time"})
	assert.Equal(t, At(1), translated.ByDim["time"])
	_, ok := translated.ByDim["out_time"]
	assert.False(t, ok)
}

func TestTranslateDimsLeavesTupleAndProbeUnchanged(t *testing.T) {
	tuple := ByTuple([]Selector{At(1)})
	assert.Equal(t, tuple, TranslateDims(tuple, map[string]string{"a": "b"}))
	assert.Equal(t, Probe(), TranslateDims(Probe(), map[string]string{"a": "b"}))
}
