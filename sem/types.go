// Package sem performs semantic analysis (type checking and name
// resolution) over a parsed glsl.Module, producing a typed program plus
// the per-shader Symbol Table spec.md §3 requires.
package sem

import "fmt"

// ScalarKind is the base numeric/boolean kind of a scalar or the
// element kind of a vector.
type ScalarKind uint8

const (
	Float ScalarKind = iota
	Int
	Uint
	Bool
)

func (k ScalarKind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Bool:
		return "bool"
	default:
		return "?"
	}
}

// TypeTag discriminates the Type union.
type TypeTag uint8

const (
	TagVoid TypeTag = iota
	TagScalar
	TagVector
	TagMatrix
	TagArray
	TagStruct
	TagSampler
)

// SamplerDim identifies the opaque sampler's texture dimensionality.
type SamplerDim uint8

const (
	Sampler2D SamplerDim = iota
	Sampler3D
	SamplerCube
)

func (d SamplerDim) String() string {
	switch d {
	case Sampler2D:
		return "sampler2D"
	case Sampler3D:
		return "sampler3D"
	case SamplerCube:
		return "samplerCube"
	default:
		return "?"
	}
}

// Type is a resolved GLSL type. It is a plain struct, not an interface,
// because the whole type lattice is closed and small; a struct keeps
// type equality a simple value comparison (with StructName handled by
// the owning Module's struct table) instead of requiring a visitor.
type Type struct {
	Tag    TypeTag
	Scalar ScalarKind // valid for TagScalar, TagVector, TagMatrix
	Size   uint8      // vector size (2/3/4) or matrix columns

	// MatRows is the matrix row count; for the square matrices this
	// subset supports, MatRows == Size (columns) always.
	MatRows uint8

	// Array-only fields.
	Elem     *Type
	ArrayLen int

	// Struct-only field: name into the owning Module's Structs table.
	StructName string

	// Sampler-only field.
	SamplerDim SamplerDim
}

var (
	TFloat = Type{Tag: TagScalar, Scalar: Float}
	TInt   = Type{Tag: TagScalar, Scalar: Int}
	TUint  = Type{Tag: TagScalar, Scalar: Uint}
	TBool  = Type{Tag: TagScalar, Scalar: Bool}
	TVoid  = Type{Tag: TagVoid}
)

// Vec constructs a vector type, e.g. Vec(Float, 4) == vec4.
func Vec(k ScalarKind, n uint8) Type { return Type{Tag: TagVector, Scalar: k, Size: n} }

// Mat constructs a square float matrix type, e.g. Mat(4) == mat4.
func Mat(n uint8) Type { return Type{Tag: TagMatrix, Scalar: Float, Size: n, MatRows: n} }

// Array constructs a fixed-size array type.
func Array(elem Type, n int) Type { return Type{Tag: TagArray, Elem: &elem, ArrayLen: n} }

// Sampler constructs an opaque sampler type.
func SamplerType(dim SamplerDim) Type { return Type{Tag: TagSampler, SamplerDim: dim} }

// IsScalar, IsVector, ... small predicates used throughout sem/abi/wasmgen.
func (t Type) IsScalar() bool  { return t.Tag == TagScalar }
func (t Type) IsVector() bool  { return t.Tag == TagVector }
func (t Type) IsMatrix() bool  { return t.Tag == TagMatrix }
func (t Type) IsArray() bool   { return t.Tag == TagArray }
func (t Type) IsStruct() bool  { return t.Tag == TagStruct }
func (t Type) IsSampler() bool { return t.Tag == TagSampler }
func (t Type) IsVoid() bool    { return t.Tag == TagVoid }

// IsInteger reports whether the type's base scalar kind is int or uint,
// for any of scalar/vector shape. Used to enforce the "integer varyings
// must be flat" rule (spec.md §4.2, §8).
func (t Type) IsInteger() bool {
	return (t.Tag == TagScalar || t.Tag == TagVector) && (t.Scalar == Int || t.Scalar == Uint)
}

// NumComponents returns how many scalar lanes the type occupies: 1 for
// scalars, N for vecN, cols*rows for matrices, elemComponents*len for
// arrays. Structs return 0 (callers must sum member components via the
// Module's struct table).
func (t Type) NumComponents() int {
	switch t.Tag {
	case TagScalar, TagSampler:
		return 1
	case TagVector:
		return int(t.Size)
	case TagMatrix:
		return int(t.Size) * int(t.MatRows)
	case TagArray:
		return t.Elem.NumComponents() * t.ArrayLen
	default:
		return 0
	}
}

// Equal reports structural type equality (array length, struct name,
// etc. all compared).
func (t Type) Equal(o Type) bool {
	if t.Tag != o.Tag {
		return false
	}
	switch t.Tag {
	case TagScalar:
		return t.Scalar == o.Scalar
	case TagVector:
		return t.Scalar == o.Scalar && t.Size == o.Size
	case TagMatrix:
		return t.Size == o.Size && t.MatRows == o.MatRows
	case TagArray:
		return t.ArrayLen == o.ArrayLen && t.Elem.Equal(*o.Elem)
	case TagStruct:
		return t.StructName == o.StructName
	case TagSampler:
		return t.SamplerDim == o.SamplerDim
	case TagVoid:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t.Tag {
	case TagVoid:
		return "void"
	case TagScalar:
		return t.Scalar.String()
	case TagVector:
		prefix := ""
		switch t.Scalar {
		case Int:
			prefix = "i"
		case Uint:
			prefix = "u"
		case Bool:
			prefix = "b"
		}
		return fmt.Sprintf("%svec%d", prefix, t.Size)
	case TagMatrix:
		if t.Size == t.MatRows {
			return fmt.Sprintf("mat%d", t.Size)
		}
		return fmt.Sprintf("mat%dx%d", t.Size, t.MatRows)
	case TagArray:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.ArrayLen)
	case TagStruct:
		return t.StructName
	case TagSampler:
		return t.SamplerDim.String()
	default:
		return "?"
	}
}

// builtinTypeNames maps GLSL type keywords to Type values.
var builtinTypeNames = map[string]Type{
	"float": TFloat, "int": TInt, "uint": TUint, "bool": TBool,
	"vec2": Vec(Float, 2), "vec3": Vec(Float, 3), "vec4": Vec(Float, 4),
	"ivec2": Vec(Int, 2), "ivec3": Vec(Int, 3), "ivec4": Vec(Int, 4),
	"uvec2": Vec(Uint, 2), "uvec3": Vec(Uint, 3), "uvec4": Vec(Uint, 4),
	"bvec2": Vec(Bool, 2), "bvec3": Vec(Bool, 3), "bvec4": Vec(Bool, 4),
	"mat2": Mat(2), "mat3": Mat(3), "mat4": Mat(4),
	"sampler2D": SamplerType(Sampler2D), "sampler3D": SamplerType(Sampler3D),
	"samplerCube": SamplerType(SamplerCube),
	"void":        TVoid,
}
