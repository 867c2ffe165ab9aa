// Package catalog ingests a set of input files into a single merged
// description of the dimensions and variables they declare (spec.md
// §4.2, "file catalog"). Every ReadNode and the reconciler's unit/
// dimension lookups are answered out of a *Catalog; nothing downstream
// re-opens an input file to ask what it contains.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/xerrors"
)

// HeaderURL returns the sidecar header location for a data file path,
// the convention iohandle's default codec writes to and catalog.Ingest
// reads from.
func HeaderURL(dataPath string) string { return dataPath + ".hdr.json" }

// Catalog is the merged view of every input file's dimensions and
// variables.
type Catalog struct {
	Dimensions map[string]Dimension
	Variables  map[string]Variable
	Files      []string
}

// Ingest walks root for input files (every regular, non-header file
// under it), reads each one's sidecar header, and merges them into a
// Catalog. Independent per-file disagreements are aggregated rather
// than aborting at the first: a caller sees every ConsistencyError the
// input set contains, not just the first one encountered during the
// walk.
func Ingest(ctx context.Context, fs afs.Service, root string) (*Catalog, error) {
	var paths []string
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, _ io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		name := info.Name()
		if len(name) > len(".hdr.json") && name[len(name)-len(".hdr.json"):] == ".hdr.json" {
			return true, nil
		}
		paths = append(paths, url.Join(baseURL, parent, name))
		return true, nil
	}
	if err := fs.Walk(ctx, root, visitor); err != nil {
		return nil, &xerrors.IOError{Path: root, Op: "walk", Cause: err}
	}
	sort.Strings(paths)

	cat := &Catalog{Dimensions: map[string]Dimension{}, Variables: map[string]Variable{}}
	var errs *multierror.Error
	for _, path := range paths {
		f, err := readFile(ctx, fs, path)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if err := cat.merge(f); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		cat.Files = append(cat.Files, path)
	}
	if errs.ErrorOrNil() != nil {
		return nil, errs
	}
	cat.classify()
	return cat, nil
}

func readFile(ctx context.Context, fs afs.Service, path string) (*File, error) {
	raw, err := fs.DownloadWithURL(ctx, HeaderURL(path))
	if err != nil {
		return nil, &xerrors.IOError{Path: HeaderURL(path), Op: "read header", Cause: err}
	}
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, &xerrors.IOError{Path: HeaderURL(path), Op: "decode header", Cause: err}
	}
	return h.toFile(path), nil
}

// merge folds one file's local declarations into the catalog,
// returning a *xerrors.ConsistencyError (never aborting the whole
// ingest) on the first disagreement found within this file.
func (c *Catalog) merge(f *File) error {
	for name, d := range f.Dimensions {
		existing, ok := c.Dimensions[name]
		if !ok {
			c.Dimensions[name] = d
			continue
		}
		if existing.Unlimited != d.Unlimited {
			return &xerrors.ConsistencyError{Subject: name, Files: []string{f.Path}, Reason: "files disagree on whether dimension is unlimited"}
		}
		if !existing.Unlimited && existing.Size != d.Size {
			return &xerrors.ConsistencyError{Subject: name, Files: []string{f.Path}, Reason: fmt.Sprintf("size %d disagrees with previously observed size %d", d.Size, existing.Size)}
		}
	}

	for name, fv := range f.Variables {
		shape := localShape(f, fv)
		existing, ok := c.Variables[name]
		if !ok {
			c.Variables[name] = Variable{
				Name:        name,
				Dtype:       physarray.DType(fv.Dtype),
				Dims:        append([]string(nil), fv.Dims...),
				Attrs:       copyAttrs(fv.Attrs),
				Files:       []string{f.Path},
				FileShapes:  map[string][]int{f.Path: shape},
				FileOffsets: map[string]int64{f.Path: fv.Offset},
			}
			continue
		}
		if string(existing.Dtype) != fv.Dtype {
			return &xerrors.ConsistencyError{Subject: name, Files: []string{f.Path}, Reason: fmt.Sprintf("datatype %q disagrees with previously observed %q", fv.Dtype, existing.Dtype)}
		}
		if !sameDims(existing.Dims, fv.Dims) {
			return &xerrors.ConsistencyError{Subject: name, Files: []string{f.Path}, Reason: fmt.Sprintf("dimensions %v disagree with previously observed %v", fv.Dims, existing.Dims)}
		}
		merged, err := mergeAttrs(name, existing.Attrs, fv.Attrs)
		if err != nil {
			return err
		}
		existing.Attrs = merged
		existing.Files = append(existing.Files, f.Path)
		existing.FileShapes[f.Path] = shape
		existing.FileOffsets[f.Path] = fv.Offset
		c.Variables[name] = existing
	}
	return nil
}

// localShape resolves fv's extent along each of its own Dims entries
// against f's locally-declared Dimensions.
func localShape(f *File, fv fileVariable) []int {
	shape := make([]int, len(fv.Dims))
	for i, d := range fv.Dims {
		shape[i] = f.Dimensions[d].Size
	}
	return shape
}

// classify marks every variable whose dimension tuple includes an
// Unlimited dimension as time-series; every other variable is
// metadata, assumed identical across every file that declares it
// (spec.md §4.2).
func (c *Catalog) classify() {
	for name, v := range c.Variables {
		ts := false
		for _, d := range v.Dims {
			if dim, ok := c.Dimensions[d]; ok && dim.Unlimited {
				ts = true
				break
			}
		}
		v.TimeSeries = ts
		c.Variables[name] = v
	}
}

func sameDims(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyAttrs(a map[string]string) map[string]string {
	out := make(map[string]string, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// mergeAttrs folds b into a. A conflicting "units" or "standard_name"
// value is rejected outright: those attributes drive unit/dimension
// reconciliation, so silently picking one would hide a real input
// inconsistency. Any other conflicting key keeps a's value — the
// richer set (the union of keys) still wins, only the rare per-key
// conflict needs a tiebreak.
func mergeAttrs(variable string, a, b map[string]string) (map[string]string, error) {
	out := copyAttrs(a)
	for k, v := range b {
		existing, ok := out[k]
		if !ok {
			out[k] = v
			continue
		}
		if existing == v {
			continue
		}
		if k == "units" || k == "standard_name" {
			return nil, &xerrors.ConsistencyError{Subject: variable, Reason: fmt.Sprintf("%s disagrees: %q vs %q", k, existing, v)}
		}
	}
	return out, nil
}
