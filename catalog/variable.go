package catalog

import "github.com/viant/dflow/physarray"

// Variable is a named array as declared by one or more input files,
// merged into a single description across the whole input set
// (spec.md §4.2). Attrs is the union of every file's attribute map for
// this variable, conflicts resolved per the rule documented on
// mergeAttrs.
type Variable struct {
	Name       string
	Dtype      physarray.DType
	Dims       []string
	Attrs      map[string]string
	Files      []string // file paths contributing data, in ingestion order
	TimeSeries bool      // true if any Dims entry is an Unlimited dimension

	// FileShapes is each contributing file's local extent along every
	// entry of Dims, keyed by path. iohandle sums a time-series
	// variable's unlimited-dimension entries across Files, in order, to
	// learn the variable's global shape and to know which file (and
	// which local offset within it) a given global index falls into.
	FileShapes map[string][]int

	// FileOffsets is the byte offset of this variable's raw payload
	// within each contributing file, keyed by path.
	FileOffsets map[string]int64
}

// Units returns the variable's declared units attribute, or "" if absent.
func (v *Variable) Units() string { return v.Attrs["units"] }

// StandardName returns the variable's declared standard_name attribute,
// or "" if absent.
func (v *Variable) StandardName() string { return v.Attrs["standard_name"] }
