package physarray

// Positive is the first-class `positive` attribute of a physical array:
// up, down, or unset.
type Positive string

const (
	PositiveUnset Positive = ""
	PositiveUp    Positive = "up"
	PositiveDown  Positive = "down"
)

// PhysicalArray is a numeric array bundled with units, an ordered
// dimension-name tuple, and an optional positive direction (spec.md §3).
// All arithmetic and function evaluations operate on PhysicalArray; unit
// and dimension metadata propagate through every operation. Data is
// always stored as float64 regardless of the declared datatype; no node
// casts it, and the declared datatype travels only as the output
// variable's dtype label.
type PhysicalArray struct {
	Name     string
	Units    Unit
	Dims     []string
	Shape    []int
	Data     []float64
	Mask     []bool // optional; true marks a sentinel/missing sample
	Positive Positive
}

// New constructs a PhysicalArray. It does not check that len(Data)
// matches the product of Shape.
func New(name string, units Unit, dims []string, shape []int, data []float64) *PhysicalArray {
	return &PhysicalArray{Name: name, Units: units, Dims: append([]string(nil), dims...), Shape: append([]int(nil), shape...), Data: data}
}

// Len returns the number of elements the array's shape describes.
func (p *PhysicalArray) Len() int {
	n := 1
	for _, s := range p.Shape {
		n *= s
	}
	return n
}

// Clone returns a deep copy of p.
func (p *PhysicalArray) Clone() *PhysicalArray {
	out := &PhysicalArray{
		Name:     p.Name,
		Units:    p.Units,
		Dims:     append([]string(nil), p.Dims...),
		Shape:    append([]int(nil), p.Shape...),
		Data:     append([]float64(nil), p.Data...),
		Positive: p.Positive,
	}
	if p.Mask != nil {
		out.Mask = append([]bool(nil), p.Mask...)
	}
	return out
}

// WithUnits returns a shallow copy of p relabeled with new units; used by
// `convert` after it has produced new data, and by nodes that only
// relabel without touching data.
func (p *PhysicalArray) WithUnits(u Unit) *PhysicalArray {
	out := *p
	out.Units = u
	return &out
}

// WithDims returns a shallow copy of p relabeled with a new dimension
// name tuple (same order, same data) — used by MapNode.
func (p *PhysicalArray) WithDims(dims []string) *PhysicalArray {
	out := *p
	out.Dims = append([]string(nil), dims...)
	return &out
}

// DimIndex returns the position of dim in p.Dims, or -1.
func (p *PhysicalArray) DimIndex(dim string) int {
	for i, d := range p.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// Negate returns a copy of p with every data value negated; masked
// samples are left untouched. Used by `flip` (negate + relabel).
func (p *PhysicalArray) Negate() *PhysicalArray {
	out := p.Clone()
	for i := range out.Data {
		if out.Mask != nil && out.Mask[i] {
			continue
		}
		out.Data[i] = -out.Data[i]
	}
	return out
}

// Flip relabels the positive direction to its opposite, used alongside
// Negate so "flip" is exactly "negate + relabel".
func (p Positive) Flip() Positive {
	switch p {
	case PositiveUp:
		return PositiveDown
	case PositiveDown:
		return PositiveUp
	default:
		return p
	}
}

// SetMasked marks index i as a masked (sentinel) sample, allocating the
// Mask slice lazily. Used by domain functions that need to suppress a
// sample instead of emitting the declared fill value directly
// (SPEC_FULL.md §12.2 — only engine.Writer lowers a mask to _FillValue).
func (p *PhysicalArray) SetMasked(i int) {
	if p.Mask == nil {
		p.Mask = make([]bool, len(p.Data))
	}
	p.Mask[i] = true
}
