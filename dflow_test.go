package dflow

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"

	"github.com/viant/dflow/catalog"
	"github.com/viant/dflow/engine"
	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/iohandle"
)

func encodeFloat64(values ...float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// TestRunEndToEnd exercises the whole pipeline (spec.md §2's component
// table, wired by Run): a sidecar-backed input file, an output
// specification declaring one plain passthrough variable, and the
// resulting output file read back and compared against the source.
func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()

	header := `{"dimensions":[{"name":"time","size":2,"unlimited":true},{"name":"lat","size":3,"unlimited":false}],"variables":[{"name":"temp","dtype":"float","dims":["time","lat"],"attrs":{"units":"K","standard_name":"air_temperature"},"offset":0}]}`
	assert.Nil(t, fs.Upload(ctx, "mem://in/a.bin.hdr.json", 0644, bytes.NewBufferString(header)))
	assert.Nil(t, fs.Upload(ctx, "mem://in/a.bin", 0644, bytes.NewReader(encodeFloat64(1, 2, 3, 4, 5, 6))))

	spec := `
files:
  - name: out
    path: mem://out/tas.bin
    variables:
      - name: tas
        definition: "temp"
        datatype: double
        dimensions: ["time", "lat"]
        units: K
`
	assert.Nil(t, fs.Upload(ctx, "mem://spec/out.yaml", 0644, bytes.NewBufferString(spec)))

	err := Run(ctx, fs, Config{InputRoot: "mem://in", OutputSpecPath: "mem://spec/out.yaml"})
	assert.Nil(t, err)

	cat, err := catalog.Ingest(ctx, fs, "mem://out")
	assert.Nil(t, err)
	source := iohandle.New(fs, cat)
	got, err := source.ReadChunk(ctx, "tas", []indexalg.Selector{indexalg.Full(), indexalg.Full()})
	assert.Nil(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got.Data)
}

// TestRunHonorsEngineOptions checks that Config.Options reaches the
// engine writer — disabling history here means the written variable's
// attributes carry no history entry.
func TestRunHonorsEngineOptions(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()

	header := `{"dimensions":[{"name":"lat","size":2,"unlimited":false}],"variables":[{"name":"lat","dtype":"double","dims":["lat"],"attrs":{"units":"degrees_north"},"offset":0}]}`
	assert.Nil(t, fs.Upload(ctx, "mem://in2/a.bin.hdr.json", 0644, bytes.NewBufferString(header)))
	assert.Nil(t, fs.Upload(ctx, "mem://in2/a.bin", 0644, bytes.NewReader(encodeFloat64(10, 20))))

	spec := `
files:
  - name: out
    path: mem://out2/lat.bin
    variables:
      - name: lat
        definition: "lat"
        datatype: double
        dimensions: ["lat"]
`
	assert.Nil(t, fs.Upload(ctx, "mem://spec2/out.yaml", 0644, bytes.NewBufferString(spec)))

	err := Run(ctx, fs, Config{InputRoot: "mem://in2", OutputSpecPath: "mem://spec2/out.yaml", Options: []engine.Option{engine.WithHistory(false)}})
	assert.Nil(t, err)

	cat, err := catalog.Ingest(ctx, fs, "mem://out2")
	assert.Nil(t, err)
	source := iohandle.New(fs, cat)
	got, err := source.ReadChunk(ctx, "lat", []indexalg.Selector{indexalg.Full()})
	assert.Nil(t, err)
	assert.Equal(t, []float64{10, 20}, got.Data)
	assert.NotContains(t, cat.Variables["lat"].Attrs, "history")
}
