package catalog

// Dimension is a named axis as declared by one or more input files. Size
// is the length observed in the file(s) that declared it; for an
// Unlimited (record) dimension, Size is only the first file's local
// extent — the effective global extent is the sum of the local extents
// of every file contributing to a variable along it (spec.md §4.2).
type Dimension struct {
	Name      string
	Size      int
	Unlimited bool
}
