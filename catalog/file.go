package catalog

// File is one input file's local declarations, before merging against
// the rest of the input set.
type File struct {
	Path       string
	Dimensions map[string]Dimension
	Variables  map[string]fileVariable
}

// fileVariable is a variable as declared by a single file: no Files
// list yet (that is populated by merge), and Attrs holds exactly what
// this file declared.
type fileVariable struct {
	Name   string
	Dtype  string
	Dims   []string
	Attrs  map[string]string
	Offset int64 // byte offset of this variable's raw payload within the file
}

// header is the on-disk JSON sidecar format Ingest reads for each input
// file (see iohandle for the matching writer-side encoder). It is kept
// deliberately flat: one record per dimension, one per variable.
type header struct {
	Dimensions []headerDim `json:"dimensions"`
	Variables  []headerVar `json:"variables"`
}

type headerDim struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Unlimited bool   `json:"unlimited"`
}

type headerVar struct {
	Name   string            `json:"name"`
	Dtype  string            `json:"dtype"`
	Dims   []string          `json:"dims"`
	Attrs  map[string]string `json:"attrs"`
	Offset int64             `json:"offset"`
}

func (h header) toFile(path string) *File {
	f := &File{
		Path:       path,
		Dimensions: make(map[string]Dimension, len(h.Dimensions)),
		Variables:  make(map[string]fileVariable, len(h.Variables)),
	}
	for _, d := range h.Dimensions {
		f.Dimensions[d.Name] = Dimension{Name: d.Name, Size: d.Size, Unlimited: d.Unlimited}
	}
	for _, v := range h.Variables {
		f.Variables[v.Name] = fileVariable{Name: v.Name, Dtype: v.Dtype, Dims: v.Dims, Attrs: v.Attrs, Offset: v.Offset}
	}
	return f
}
