// Package abi classifies GLSL function signatures into the WebAssembly
// calling convention used by the compiled modules: small values are
// flattened into scalar WASM parameters, large values travel through a
// caller-allocated frame in shared linear memory.
//
// The classification rule is fixed: a parameter or return whose packed
// size is at most FlattenThreshold bytes is flattened, one WASM value
// per scalar lane (f32 for float lanes, i32 for int/uint/bool lanes);
// anything larger is framed and passed as a single i32 offset into the
// frame region. Framed returns use an out-pointer prepended to the
// parameter list. Arrays at exactly the threshold (float[4]) flatten,
// reading the rule literally; mat3 at 36 bytes is always framed.
package abi

import "github.com/gogpu/webglshader/sem"

// FlattenThreshold is the inclusive byte-size limit for flattened
// parameters and returns.
const FlattenThreshold = 16

// ValueKind is a WASM scalar value type carried by one flattened lane.
type ValueKind uint8

const (
	// F32 lanes carry float components.
	F32 ValueKind = iota
	// I32 lanes carry int, uint and bool components.
	I32
)

// Class says how a parameter or return value is passed.
type Class uint8

const (
	// ClassFlat passes each scalar lane as one WASM value.
	ClassFlat Class = iota
	// ClassFramed passes a single i32 pointer into the frame region.
	ClassFramed
)

// ParamABI is the classified passing convention of one parameter.
type ParamABI struct {
	Name  string
	Type  sem.Type
	Class Class
	Size  int
	// Lanes is the flattened value-type sequence (ClassFlat only).
	Lanes []ValueKind
}

// ReturnABI is the classified convention of a function's return value.
type ReturnABI struct {
	Type  sem.Type
	Void  bool
	Class Class
	Size  int
	Lanes []ValueKind // ClassFlat only; uses multi-value returns
}

// FuncABI is the full classified signature of one user function.
type FuncABI struct {
	Name   string
	Params []ParamABI
	Return ReturnABI
}

// FrameBytes returns how many frame-region bytes a call to this
// function requires: the sum of framed parameter sizes plus the framed
// return size. The caller bumps the frame stack pointer by exactly this
// amount before the call and back down after it.
func (f *FuncABI) FrameBytes() int {
	n := 0
	if !f.Return.Void && f.Return.Class == ClassFramed {
		n += f.Return.Size
	}
	for i := range f.Params {
		if f.Params[i].Class == ClassFramed {
			n += f.Params[i].Size
		}
	}
	return n
}

// SizeOf returns the packed byte size of a type: scalars 4, vecN 4*N,
// matNxM 4*N*M, arrays element*count, structs the sum of members with
// no inter-member padding. Samplers occupy 4 bytes (the unit handle).
func SizeOf(t sem.Type, structs map[string]*sem.StructInfo) int {
	switch t.Tag {
	case sem.TagScalar, sem.TagSampler:
		return 4
	case sem.TagVector:
		return 4 * int(t.Size)
	case sem.TagMatrix:
		return 4 * int(t.Size) * int(t.MatRows)
	case sem.TagArray:
		return SizeOf(*t.Elem, structs) * t.ArrayLen
	case sem.TagStruct:
		info := structs[t.StructName]
		n := 0
		for i := range info.Members {
			n += SizeOf(info.Members[i].Type, structs)
		}
		return n
	}
	return 0
}

// FieldOffset returns the packed byte offset of struct member idx.
func FieldOffset(info *sem.StructInfo, idx int, structs map[string]*sem.StructInfo) int {
	off := 0
	for i := 0; i < idx; i++ {
		off += SizeOf(info.Members[i].Type, structs)
	}
	return off
}

// Flatten returns the scalar lane sequence of a type in source order.
func Flatten(t sem.Type, structs map[string]*sem.StructInfo) []ValueKind {
	var lanes []ValueKind
	flattenInto(t, structs, &lanes)
	return lanes
}

func flattenInto(t sem.Type, structs map[string]*sem.StructInfo, out *[]ValueKind) {
	switch t.Tag {
	case sem.TagScalar:
		*out = append(*out, laneOf(t.Scalar))
	case sem.TagSampler:
		*out = append(*out, I32)
	case sem.TagVector:
		for i := 0; i < int(t.Size); i++ {
			*out = append(*out, laneOf(t.Scalar))
		}
	case sem.TagMatrix:
		for i := 0; i < int(t.Size)*int(t.MatRows); i++ {
			*out = append(*out, F32)
		}
	case sem.TagArray:
		for i := 0; i < t.ArrayLen; i++ {
			flattenInto(*t.Elem, structs, out)
		}
	case sem.TagStruct:
		info := structs[t.StructName]
		for i := range info.Members {
			flattenInto(info.Members[i].Type, structs, out)
		}
	}
}

func laneOf(k sem.ScalarKind) ValueKind {
	if k == sem.Float {
		return F32
	}
	return I32
}

// LaneKinds returns the per-component value kinds of a type regardless
// of its ABI class; used by the emitter to pick load/store opcodes.
func LaneKinds(t sem.Type, structs map[string]*sem.StructInfo) []ValueKind {
	return Flatten(t, structs)
}

// Classify computes the ABI of one resolved function signature. The
// same decision table serves the emitter (which lowers calls and
// bodies) and the linker (which exposes it to the rasterizer), so both
// always agree.
func Classify(fn *sem.Function, structs map[string]*sem.StructInfo) FuncABI {
	out := FuncABI{Name: fn.Name}
	for _, p := range fn.Params {
		pa := ParamABI{Name: p.Name, Type: p.Type, Size: SizeOf(p.Type, structs)}
		if pa.Size <= FlattenThreshold {
			pa.Class = ClassFlat
			pa.Lanes = Flatten(p.Type, structs)
		} else {
			pa.Class = ClassFramed
		}
		out.Params = append(out.Params, pa)
	}
	ret := ReturnABI{Type: fn.ReturnType}
	if fn.ReturnType.IsVoid() {
		ret.Void = true
	} else {
		ret.Size = SizeOf(fn.ReturnType, structs)
		if ret.Size <= FlattenThreshold {
			ret.Class = ClassFlat
			ret.Lanes = Flatten(fn.ReturnType, structs)
		} else {
			ret.Class = ClassFramed
		}
	}
	out.Return = ret
	return out
}

// ClassifyAll classifies every function in a checked program, keyed by
// function name.
func ClassifyAll(prog *sem.Program) map[string]FuncABI {
	out := make(map[string]FuncABI, len(prog.Symbols.Functions))
	for i := range prog.Symbols.Functions {
		fn := &prog.Symbols.Functions[i]
		out[fn.Name] = Classify(fn, prog.Structs)
	}
	return out
}
