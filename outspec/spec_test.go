package outspec

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

func TestLoad(t *testing.T) {
	testCases := []struct {
		description string
		body        string
		expectErr   bool
	}{
		{
			description: "well formed spec with one file and two variables",
			body: `
files:
  - name: surface
    path: mem://out/surface.nc
    attrs:
      title: test output
    variables:
      - name: tas
        definition: "convert(temp, 'degC')"
        datatype: float
        dimensions: [time, lat, lon]
        units: degC
      - name: lat
        definition: "lat"
        datatype: double
        dimensions: [lat]
`,
		},
		{
			description: "duplicate variable name is rejected",
			body: `
files:
  - name: surface
    path: mem://out/surface.nc
    variables:
      - name: tas
        definition: "temp"
      - name: tas
        definition: "temp"
`,
			expectErr: true,
		},
		{
			description: "unknown datatype is rejected",
			body: `
files:
  - name: surface
    path: mem://out/surface.nc
    variables:
      - name: tas
        definition: "temp"
        datatype: octuple
`,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			ctx := context.Background()
			fs := afs.New()
			assert.Nil(t, fs.Upload(ctx, "mem://spec/out.yaml", 0644, bytes.NewBufferString(tc.body)))
			spec, err := Load(ctx, fs, "mem://spec/out.yaml")
			if tc.expectErr {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, 1, len(spec.Files))
		})
	}
}
