package flow

// WriteNode is the true sink of the flow graph: one per output file.
// Unlike every other node in this package it does not implement Node
// — it has many outputs, not one — and it performs no I/O itself; it
// is bookkeeping that ties a set of ValidateNodes to the file they
// belong to, giving engine.Writer everything it needs to open the
// file, declare its dimensions, and iterate chunks through each
// variable's ValidateNode.
type WriteNode struct {
	FileName   string
	Path       string
	Attrs      map[string]interface{}
	Chunks     map[string]int // dim -> chunk size; absent = full dimension
	Variables  []*ValidateNode
}

// NewWriteNode builds a WriteNode for one output file.
func NewWriteNode(fileName, path string, attrs map[string]interface{}, chunks map[string]int, variables []*ValidateNode) *WriteNode {
	return &WriteNode{FileName: fileName, Path: path, Attrs: attrs, Chunks: chunks, Variables: variables}
}

// Dimensions returns the union of every variable's declared dimension
// names and sizes, as required by the writer's open phase. It does not
// check that the variables agree on a dimension's size (a subscripted
// read can shorten one); where they differ, the last variable's extent
// is kept.
func (w *WriteNode) Dimensions() map[string]int {
	dims := make(map[string]int)
	for _, v := range w.Variables {
		shape := v.Shape()
		for i, d := range v.Dims() {
			dims[d] = shape[i]
		}
	}
	return dims
}
