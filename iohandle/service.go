// Package iohandle is the external interface between the flow/engine
// runtime and the storage layer: a Service that structurally satisfies
// flow.Source for reads, and a Writer-facing sidecar encoder for
// writes (spec.md §6). The default codec is deliberately simple — a
// JSON header describing dimensions, variables, and each variable's
// byte offset, alongside a single raw little-endian float64 payload
// per file — so neither side needs a third-party array-file format to
// exercise the rest of the engine.
package iohandle

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/viant/afs"

	"github.com/viant/dflow/catalog"
	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/xerrors"
)

// Service is a whole-catalog read view: it resolves a variable name
// against the catalog's merged description and, for a time-series
// variable, stitches its contributing files' payloads together along
// the unlimited dimension before ever handing data to a caller. It
// structurally satisfies flow.Source without importing flow.
type Service struct {
	fs  afs.Service
	cat *catalog.Catalog

	mu      sync.Mutex
	decoded map[string]*physarray.PhysicalArray // variable name -> full global array
}

// New builds a Service over an already-ingested catalog.
func New(fs afs.Service, cat *catalog.Catalog) *Service {
	return &Service{fs: fs, cat: cat, decoded: map[string]*physarray.PhysicalArray{}}
}

// Probe reports a variable's unit, dimension names, and global shape
// without reading any file payload.
func (s *Service) Probe(_ context.Context, variable string) (physarray.Unit, []string, []int, error) {
	v, ok := s.cat.Variables[variable]
	if !ok {
		return physarray.Unit{}, nil, nil, &xerrors.LookupError{Kind: "variable", Name: variable, Arity: -1}
	}
	units, err := physarray.ParseUnit(v.Units(), v.Attrs["calendar"])
	if err != nil {
		return physarray.Unit{}, nil, nil, err
	}
	return units, append([]string(nil), v.Dims...), s.cat.Shape(v), nil
}

// ReadChunk resolves sel (already composed against the variable's
// global shape) against the fully decoded, possibly multi-file array,
// decoding and stitching it on first use and serving every later
// request out of the cached result.
func (s *Service) ReadChunk(ctx context.Context, variable string, sel []indexalg.Selector) (*physarray.PhysicalArray, error) {
	full, err := s.global(ctx, variable)
	if err != nil {
		return nil, err
	}
	return sliceArray(full, sel), nil
}

// global returns variable's full, globally-stitched array, decoding
// and concatenating its contributing files on first request.
func (s *Service) global(ctx context.Context, variable string) (*physarray.PhysicalArray, error) {
	s.mu.Lock()
	if arr, ok := s.decoded[variable]; ok {
		s.mu.Unlock()
		return arr, nil
	}
	s.mu.Unlock()

	v, ok := s.cat.Variables[variable]
	if !ok {
		return nil, &xerrors.LookupError{Kind: "variable", Name: variable, Arity: -1}
	}
	units, err := physarray.ParseUnit(v.Units(), v.Attrs["calendar"])
	if err != nil {
		return nil, err
	}
	unlimited := -1
	for i, d := range v.Dims {
		if dim, ok := s.cat.Dimensions[d]; ok && dim.Unlimited {
			unlimited = i
			break
		}
	}

	var full *physarray.PhysicalArray
	if unlimited < 0 {
		full, err = s.decodeFile(ctx, v.Files[0], variable, v.FileOffsets[v.Files[0]], v.FileShapes[v.Files[0]], v.Dims, units)
	} else {
		full, err = s.stitch(ctx, v, unlimited, units)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.decoded[variable] = full
	s.mu.Unlock()
	return full, nil
}

// stitch decodes every contributing file's local payload and
// concatenates them, in Files order, along axis.
func (s *Service) stitch(ctx context.Context, v catalog.Variable, axis int, units physarray.Unit) (*physarray.PhysicalArray, error) {
	parts := make([]*physarray.PhysicalArray, len(v.Files))
	for i, path := range v.Files {
		part, err := s.decodeFile(ctx, path, v.Name, v.FileOffsets[path], v.FileShapes[path], v.Dims, units)
		if err != nil {
			return nil, err
		}
		parts[i] = part
	}
	return concat(parts, axis)
}

// decodeFile downloads path once and decodes the little-endian
// float64 payload for variable starting at offset, reshaping it to
// shape.
func (s *Service) decodeFile(ctx context.Context, path, variable string, offset int64, shape []int, dims []string, units physarray.Unit) (*physarray.PhysicalArray, error) {
	raw, err := s.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, &xerrors.IOError{Path: path, Op: "read data", Cause: err}
	}
	count := 1
	for _, n := range shape {
		count *= n
	}
	need := int(offset) + count*8
	if len(raw) < need {
		return nil, &xerrors.IOError{Path: path, Op: "read data", Cause: fmt.Errorf("payload for %q needs %d bytes at offset %d, file has %d", variable, count*8, offset, len(raw))}
	}
	data := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(raw[int(offset)+i*8:])
		data[i] = math.Float64frombits(bits)
	}
	return physarray.New(variable, units, dims, shape, data), nil
}

// concat stitches parts together along axis, requiring every other
// axis to agree across parts (the catalog's consistency checks already
// guarantee this for a well-formed input set).
func concat(parts []*physarray.PhysicalArray, axis int) (*physarray.PhysicalArray, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	shape := append([]int(nil), parts[0].Shape...)
	total := 0
	for _, p := range parts {
		total += p.Shape[axis]
	}
	shape[axis] = total

	outerStride := 1
	for i := 0; i < axis; i++ {
		outerStride *= shape[i]
	}
	innerSize := 1
	for i := axis + 1; i < len(shape); i++ {
		innerSize *= shape[i]
	}

	out := make([]float64, outerStride*total*innerSize)
	offset := 0
	for _, p := range parts {
		localLen := p.Shape[axis]
		for o := 0; o < outerStride; o++ {
			srcStart := o * localLen * innerSize
			dstStart := (o*total + offset) * innerSize
			copy(out[dstStart:dstStart+localLen*innerSize], p.Data[srcStart:srcStart+localLen*innerSize])
		}
		offset += localLen
	}
	return physarray.New(parts[0].Name, parts[0].Units, parts[0].Dims, shape, out), nil
}

// sliceArray resolves sel (one selector per entry of a.Dims) into a
// new, tightly packed array by walking an odometer-style index counter
// over a's data.
func sliceArray(a *physarray.PhysicalArray, sel []indexalg.Selector) *physarray.PhysicalArray {
	strides := make([]int, len(a.Shape))
	stride := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= a.Shape[i]
	}

	starts := make([]int, len(sel))
	steps := make([]int, len(sel))
	shape := make([]int, len(sel))
	total := 1
	for i, s := range sel {
		start, step, length := indexalg.Resolve(s, a.Shape[i])
		starts[i], steps[i], shape[i] = start, step, length
		total *= length
	}

	data := make([]float64, total)
	idx := make([]int, len(shape))
	for linear := 0; linear < total; linear++ {
		off := 0
		for j := range idx {
			off += (starts[j] + idx[j]*steps[j]) * strides[j]
		}
		data[linear] = a.Data[off]
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < shape[j] {
				break
			}
			idx[j] = 0
		}
	}
	return physarray.New(a.Name, a.Units, a.Dims, shape, data)
}
