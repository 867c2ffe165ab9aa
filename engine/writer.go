// Package engine is C7, the executor/writer that drives each output
// flow.WriteNode from open through chunked execution to close
// (spec.md §4.6): declare dimensions and variables, iterate the file's
// global index space in chunks, mirror-index any axis the reconciler
// marked inverted, and de-duplicate writes for a variable whose
// dimensions are a strict subset of its file's.
package engine

import (
	"context"
	"strconv"

	"github.com/viant/dflow/flow"
	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/iohandle"
	"github.com/viant/dflow/physarray"
)

// Warning is a non-fatal runtime validation finding (spec.md §4.6/§8):
// a valid_min/valid_max/ok_min_mean_abs/ok_max_mean_abs violation
// observed while writing one variable's chunk. It never fails a run;
// it is delivered through an optional callback instead of an error.
type Warning struct {
	Variable string
	Messages []string
}

// Option configures a Writer.
type Option func(*Writer)

// WithHistory controls whether a ValidateNode's history attribute is
// copied onto its backing output variable (spec.md §4.6: "copy all
// attributes except _FillValue, direction, and — when history is
// disabled — history"). Enabled by default.
func WithHistory(enabled bool) Option {
	return func(w *Writer) { w.includeHistory = enabled }
}

// WithWarnings registers a callback invoked once per variable chunk
// that tripped a runtime validation check.
func WithWarnings(fn func(Warning)) Option {
	return func(w *Writer) { w.onWarning = fn }
}

// Writer drives one or more output files through open, chunked
// execute, and close, pulling every chunk through the flow graph the
// reconciler has already settled.
type Writer struct {
	store          *iohandle.Service
	includeHistory bool
	onWarning      func(Warning)
}

// NewWriter builds a Writer over the iohandle.Service every output
// file is opened through.
func NewWriter(store *iohandle.Service, opts ...Option) *Writer {
	w := &Writer{store: store, includeHistory: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Execute drives one output WriteNode through its full lifecycle: open
// (declare dimensions and variables), chunked execute, close.
func (w *Writer) Execute(ctx context.Context, wn *flow.WriteNode) error {
	dimSizes := wn.Dimensions()
	handle := w.store.CreateWrite(wn.Path, dimSizes, wn.Attrs)

	invertedDims := map[string]bool{}
	for _, vn := range wn.Variables {
		if vn.Inverted() {
			invertedDims[vn.InvertedDim()] = true
		}
	}

	for _, vn := range wn.Variables {
		if err := handle.DeclareVariable(vn.Variable(), string(vn.Datatype()), vn.Dims(), w.variableAttrs(vn)); err != nil {
			return err
		}
	}

	committed := make(map[string]map[uint64]bool, len(wn.Variables))
	for _, vn := range wn.Variables {
		committed[vn.Variable()] = map[uint64]bool{}
	}

	it := newChunkIter(dimSizes, wn.Chunks)
	for {
		writeChunk, ok := it.next()
		if !ok {
			break
		}

		readChunk := make(map[string]indexalg.Selector, len(writeChunk))
		for d, sel := range writeChunk {
			if invertedDims[d] {
				sel = mirror(sel, dimSizes[d])
			}
			readChunk[d] = sel
		}

		for _, vn := range wn.Variables {
			if err := w.writeVariableChunk(ctx, handle, vn, writeChunk, readChunk, committed[vn.Variable()]); err != nil {
				return err
			}
		}
	}

	return handle.Close(ctx)
}

// writeVariableChunk projects the file-level write/read chunks onto
// vn's own dimension list (spec.md §4.6 step 2), pulls the read-chunk
// through vn, and writes the result at the write-chunk's position,
// skipping a (variable, write-chunk) pair already committed.
func (w *Writer) writeVariableChunk(ctx context.Context, handle *iohandle.WriteHandle, vn *flow.ValidateNode, writeChunk, readChunk map[string]indexalg.Selector, committed map[uint64]bool) error {
	dims := vn.Dims()
	writeSel := make([]indexalg.Selector, len(dims))
	readSel := make([]indexalg.Selector, len(dims))
	for i, d := range dims {
		writeSel[i] = writeChunk[d]
		readSel[i] = readChunk[d]
	}

	key := chunkKey(vn.Variable(), writeSel)
	if committed[key] {
		return nil
	}
	committed[key] = true

	arr, err := vn.Request(ctx, indexalg.ByTuple(readSel))
	if err != nil {
		return err
	}

	if msgs := vn.Check(arr); len(msgs) > 0 && w.onWarning != nil {
		w.onWarning(Warning{Variable: vn.Variable(), Messages: msgs})
	}

	applyFill(arr, fillValue(vn.Attrs()))
	return handle.WriteChunk(vn.Variable(), writeSel, arr)
}

// variableAttrs copies vn's declared attributes onto its backing
// output variable, excluding _FillValue and direction — both consumed
// structurally rather than carried as plain metadata — and history
// when the writer was built with WithHistory(false). units is
// synthesized from vn.Units() when the declared attrs don't already
// carry one.
func (w *Writer) variableAttrs(vn *flow.ValidateNode) map[string]interface{} {
	attrs := make(map[string]interface{}, len(vn.Attrs())+2)
	for k, v := range vn.Attrs() {
		if k == "_FillValue" || k == "direction" || (k == "history" && !w.includeHistory) {
			continue
		}
		attrs[k] = v
	}
	if w.includeHistory {
		attrs["history"] = vn.History()
	}
	if _, ok := attrs["units"]; !ok {
		if u := vn.Units().String(); u != "" {
			attrs["units"] = u
		}
	}
	return attrs
}

// fillValue parses a variable's declared _FillValue attribute
// (spec.md §4.6); a variable with no declared fill value falls back to
// 0 for any masked sample it still produces.
func fillValue(attrs map[string]interface{}) float64 {
	raw, ok := attrs["_FillValue"]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// applyFill lowers every masked sample in arr to fill in place — the
// one place a domain function's sentinel masking becomes the declared
// on-disk fill value (SPEC_FULL.md §12 item 2: "the engine-level
// writer always uses the declared _FillValue").
func applyFill(arr *physarray.PhysicalArray, fill float64) {
	if arr.Mask == nil {
		return
	}
	for i, masked := range arr.Mask {
		if masked {
			arr.Data[i] = fill
		}
	}
}
