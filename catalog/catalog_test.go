package catalog

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

func putFile(t *testing.T, ctx context.Context, fs afs.Service, path, body string) {
	t.Helper()
	assert.Nil(t, fs.Upload(ctx, path, 0644, bytes.NewBufferString(body)))
}

func TestIngest(t *testing.T) {
	tempHeader := `{"dimensions":[{"name":"time","size":%d,"unlimited":true},{"name":"lat","size":3,"unlimited":false}],"variables":[{"name":"temp","dtype":"float","dims":["time","lat"],"attrs":{"units":"K","standard_name":"air_temperature"}},{"name":"lat","dtype":"double","dims":["lat"],"attrs":{"units":"degrees_north"}}]}`

	testCases := []struct {
		description string
		files       map[string]string // path -> header body
		expectErr   bool
		check       func(t *testing.T, cat *Catalog)
	}{
		{
			description: "two consistent monthly files merge into one time-series variable",
			files: map[string]string{
				"mem://root/a.nc": fmt.Sprintf(tempHeader, 2),
				"mem://root/b.nc": fmt.Sprintf(tempHeader, 4),
			},
			check: func(t *testing.T, cat *Catalog) {
				v, ok := cat.Variables["temp"]
				assert.True(t, ok)
				assert.True(t, v.TimeSeries)
				assert.Equal(t, []string{"mem://root/a.nc", "mem://root/b.nc"}, v.Files)
				assert.Equal(t, "K", v.Units())

				lat, ok := cat.Variables["lat"]
				assert.True(t, ok)
				assert.False(t, lat.TimeSeries)
			},
		},
		{
			description: "disagreeing units on the same variable is rejected",
			files: map[string]string{
				"mem://root/a.nc": `{"dimensions":[{"name":"lat","size":3,"unlimited":false}],"variables":[{"name":"lat","dtype":"double","dims":["lat"],"attrs":{"units":"degrees_north"}}]}`,
				"mem://root/b.nc": `{"dimensions":[{"name":"lat","size":3,"unlimited":false}],"variables":[{"name":"lat","dtype":"double","dims":["lat"],"attrs":{"units":"degrees"}}]}`,
			},
			expectErr: true,
		},
		{
			description: "disagreeing fixed-dimension size is rejected",
			files: map[string]string{
				"mem://root/a.nc": `{"dimensions":[{"name":"lat","size":3,"unlimited":false}],"variables":[]}`,
				"mem://root/b.nc": `{"dimensions":[{"name":"lat","size":4,"unlimited":false}],"variables":[]}`,
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			ctx := context.Background()
			fs := afs.New()
			for path, body := range tc.files {
				putFile(t, ctx, fs, HeaderURL(path), body)
				putFile(t, ctx, fs, path, "payload")
			}
			cat, err := Ingest(ctx, fs, "mem://root/")
			if tc.expectErr {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			if tc.check != nil {
				tc.check(t, cat)
			}
		})
	}
}
