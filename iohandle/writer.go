package iohandle

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/viant/afs"

	"github.com/viant/dflow/catalog"
	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/xerrors"
)

// sidecarHeader mirrors catalog's unexported header JSON schema: the
// two packages never share a Go type, only the wire format, the same
// way a writer and a reader of any file format are independent
// implementations of one contract.
type sidecarHeader struct {
	Dimensions []sidecarDim `json:"dimensions"`
	Variables  []sidecarVar `json:"variables"`
}

type sidecarDim struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Unlimited bool   `json:"unlimited"`
}

type sidecarVar struct {
	Name   string            `json:"name"`
	Dtype  string            `json:"dtype"`
	Dims   []string          `json:"dims"`
	Attrs  map[string]string `json:"attrs"`
	Offset int64             `json:"offset"`
}

// declaredVar is one output variable's metadata plus its full backing
// buffer, pre-sized at declaration time so WriteChunk can scatter
// arbitrarily-ordered chunks directly into their final position.
type declaredVar struct {
	name  string
	dtype string
	dims  []string
	shape []int
	attrs map[string]interface{}
	data  []float64
}

// WriteHandle is one output file's write side: declare its dimensions
// and variables up front, write chunks in any order, Close to encode
// and upload the sidecar header plus the raw payload in a single pass.
// afs backends are upload-oriented, not seek-and-patch, so the handle
// accumulates in memory and commits everything at Close.
type WriteHandle struct {
	fs       afs.Service
	path     string
	attrs    map[string]interface{}
	dimSizes map[string]int
	vars     []*declaredVar
	byName   map[string]*declaredVar
}

// CreateWrite opens a WriteHandle for one output file, with its
// dimension sizes fixed for the lifetime of the handle (spec.md §4.6:
// a WriteNode's dimensions are known before any chunk is written).
func (s *Service) CreateWrite(path string, dimSizes map[string]int, attrs map[string]interface{}) *WriteHandle {
	return &WriteHandle{fs: s.fs, path: path, attrs: attrs, dimSizes: dimSizes, byName: map[string]*declaredVar{}}
}

// DeclareVariable registers one output variable and allocates its full
// backing buffer. Declaration order is preserved in the sidecar header
// and becomes the order variables appear in the raw payload.
func (h *WriteHandle) DeclareVariable(name, dtype string, dims []string, attrs map[string]interface{}) error {
	shape := make([]int, len(dims))
	count := 1
	for i, d := range dims {
		size, ok := h.dimSizes[d]
		if !ok {
			return &xerrors.ExecutionError{File: h.path, Variable: name, Reason: fmt.Sprintf("dimension %q was not declared on this file", d)}
		}
		shape[i] = size
		count *= size
	}
	dv := &declaredVar{name: name, dtype: dtype, dims: append([]string(nil), dims...), shape: shape, attrs: attrs, data: make([]float64, count)}
	h.vars = append(h.vars, dv)
	h.byName[name] = dv
	return nil
}

// WriteChunk scatters arr's data into variable's backing buffer at the
// positions sel addresses, so chunks may be written in any order (or
// concurrently across variables, never within one) without the result
// depending on write order.
func (h *WriteHandle) WriteChunk(variable string, sel []indexalg.Selector, arr *physarray.PhysicalArray) error {
	dv, ok := h.byName[variable]
	if !ok {
		return &xerrors.ExecutionError{File: h.path, Variable: variable, Reason: "chunk written for an undeclared variable"}
	}
	strides := rowMajorStrides(dv.shape)
	starts := make([]int, len(sel))
	steps := make([]int, len(sel))
	shape := make([]int, len(sel))
	total := 1
	for i, s := range sel {
		start, step, length := indexalg.Resolve(s, dv.shape[i])
		starts[i], steps[i], shape[i] = start, step, length
		total *= length
	}
	if total != len(arr.Data) {
		return &xerrors.ExecutionError{File: h.path, Variable: variable, Reason: fmt.Sprintf("chunk carries %d values, selection addresses %d", len(arr.Data), total)}
	}
	idx := make([]int, len(shape))
	for linear := 0; linear < total; linear++ {
		off := 0
		for j := range idx {
			off += (starts[j] + idx[j]*steps[j]) * strides[j]
		}
		dv.data[off] = arr.Data[linear]
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < shape[j] {
				break
			}
			idx[j] = 0
		}
	}
	return nil
}

// Close encodes every declared variable's buffer into one raw
// little-endian float64 payload and uploads it alongside its sidecar
// JSON header.
func (h *WriteHandle) Close(ctx context.Context) error {
	header := sidecarHeader{}
	for name, size := range h.dimSizes {
		header.Dimensions = append(header.Dimensions, sidecarDim{Name: name, Size: size})
	}

	var payload bytes.Buffer
	var offset int64
	for _, dv := range h.vars {
		attrs := make(map[string]string, len(dv.attrs))
		for k, v := range dv.attrs {
			attrs[k] = fmt.Sprintf("%v", v)
		}
		header.Variables = append(header.Variables, sidecarVar{Name: dv.name, Dtype: dv.dtype, Dims: dv.dims, Attrs: attrs, Offset: offset})
		var tmp [8]byte
		for _, v := range dv.data {
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
			payload.Write(tmp[:])
		}
		offset += int64(len(dv.data)) * 8
	}

	raw, err := json.Marshal(header)
	if err != nil {
		return &xerrors.IOError{Path: catalog.HeaderURL(h.path), Op: "encode header", Cause: err}
	}
	if err := h.fs.Upload(ctx, catalog.HeaderURL(h.path), 0644, bytes.NewReader(raw)); err != nil {
		return &xerrors.IOError{Path: catalog.HeaderURL(h.path), Op: "write header", Cause: err}
	}
	if err := h.fs.Upload(ctx, h.path, 0644, bytes.NewReader(payload.Bytes())); err != nil {
		return &xerrors.IOError{Path: h.path, Op: "write data", Cause: err}
	}
	return nil
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}
