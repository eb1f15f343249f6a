// Package wasmgen emits WebAssembly modules from type-checked GLSL
// programs and serializes them to the MVP binary format (plus
// multi-value returns for flattened vector results).
package wasmgen

import (
	"github.com/gogpu/webglshader/abi"
	"github.com/gogpu/webglshader/layout"
	"github.com/gogpu/webglshader/sem"
)

// ValueType is a WASM value type byte as it appears in the binary
// encoding.
type ValueType byte

// WASM value type encodings.
const (
	ValI32 ValueType = 0x7F
	ValI64 ValueType = 0x7E
	ValF32 ValueType = 0x7D
	ValF64 ValueType = 0x7C
)

func (v ValueType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "?"
	}
}

// FuncType is a function signature in the type section.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal compares two signatures.
func (t FuncType) Equal(o FuncType) bool {
	if len(t.Params) != len(o.Params) || len(t.Results) != len(o.Results) {
		return false
	}
	for i := range t.Params {
		if t.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range t.Results {
		if t.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

// ImportKind discriminates Import entries.
type ImportKind uint8

const (
	ImportFunc ImportKind = iota
	ImportMemory
)

// Import is one entry of the import section.
type Import struct {
	Module string
	Name   string
	Kind   ImportKind

	// TypeIdx is the function signature (ImportFunc).
	TypeIdx int

	// MemMin is the minimum page count (ImportMemory).
	MemMin uint32
}

// Global is a module global. All globals this emitter produces are
// mutable i32 region pointers initialized to zero.
type Global struct {
	Name    string
	Type    ValueType
	Mutable bool
	Init    int32
}

// Function is one emitted function: its signature, extra locals
// (beyond parameters, run-length encoded at serialization time) and
// raw body code (without the trailing end opcode, which the encoder
// appends).
type Function struct {
	Name    string
	TypeIdx int
	Locals  []ValueType
	Body    []byte
}

// Export is one entry of the export section (functions only).
type Export struct {
	Name    string
	FuncIdx int
}

// Module is the in-memory WASM module representation.
type Module struct {
	Types   []FuncType
	Imports []Import
	Globals []Global
	Funcs   []Function
	Exports []Export
}

// AddType interns a function signature and returns its index.
func (m *Module) AddType(t FuncType) int {
	for i := range m.Types {
		if m.Types[i].Equal(t) {
			return i
		}
	}
	m.Types = append(m.Types, t)
	return len(m.Types) - 1
}

// NumImportedFuncs counts function imports; defined functions index
// after them in the module function index space.
func (m *Module) NumImportedFuncs() int {
	n := 0
	for i := range m.Imports {
		if m.Imports[i].Kind == ImportFunc {
			n++
		}
	}
	return n
}

// CompiledModule is the full result of compiling one shader: the
// module IR and serialized bytes, plus everything the linker needs to
// resolve locations and, when assignments move, re-emit.
type CompiledModule struct {
	Kind    sem.ShaderKind
	Program *sem.Program
	Symbols *sem.SymbolTable

	// ABI is the classified calling convention of every user function,
	// keyed by name. The emitter self-checks its emitted type section
	// against this table.
	ABI map[string]abi.FuncABI

	Module *Module
	Bytes  []byte

	// AttribLocations / VaryingLocations are the location assignments
	// the module was emitted against. Compile-time defaults pack
	// non-explicit declarations in declaration order; the linker may
	// re-emit with its resolved assignment.
	AttribLocations  map[string]int
	VaryingLocations map[string]int

	// Uniforms is the packed uniform layout of this module's region.
	Uniforms *layout.UniformPlan
}
