package physarray

// DType enumerates the fixed set of array element kinds the engine
// understands, pinned to the NetCDF-classic token set recorded in
// metadata/variables.py of the distilled original (see SPEC_FULL.md §11).
type DType string

const (
	Int8    DType = "byte"
	Uint8   DType = "ubyte"
	Char    DType = "char"
	Int16   DType = "short"
	Uint16  DType = "ushort"
	Int32   DType = "int"
	Uint32  DType = "uint"
	Int64   DType = "int64"
	Uint64  DType = "uint64"
	Float32 DType = "float"
	Float64 DType = "double"
)

// kinds groups dtypes by cast-compatible "same-kind" families, used by
// ValidateNode to decide whether a declared datatype cast is a widening/
// narrowing cast within a kind (allowed) or a cross-kind cast (rejected
// with xerrors.CastError).
var kinds = map[DType]string{
	Int8: "int", Int16: "int", Int32: "int", Int64: "int",
	Uint8: "uint", Uint16: "uint", Uint32: "uint", Uint64: "uint",
	Float32: "float", Float64: "float",
	Char: "char",
}

// Kind returns the cast-compatibility family for d.
func (d DType) Kind() string {
	return kinds[d]
}

// SameKind reports whether a and b may be cast into one another without
// an xerrors.CastError.
func SameKind(a, b DType) bool {
	ka, kb := kinds[a], kinds[b]
	return ka != "" && ka == kb
}

// Valid reports whether d is one of the recognized datatype tokens.
func (d DType) Valid() bool {
	_, ok := kinds[d]
	return ok
}
