package abi

import (
	"testing"

	"github.com/gogpu/webglshader/sem"
)

func TestSizeOf(t *testing.T) {
	structs := map[string]*sem.StructInfo{
		"Light": {Name: "Light", Members: []sem.StructField{
			{Name: "dir", Type: sem.Vec(sem.Float, 3)},
			{Name: "intensity", Type: sem.TFloat},
		}},
	}
	tests := []struct {
		typ  sem.Type
		want int
	}{
		{sem.TFloat, 4},
		{sem.TInt, 4},
		{sem.TBool, 4},
		{sem.Vec(sem.Float, 2), 8},
		{sem.Vec(sem.Float, 4), 16},
		{sem.Vec(sem.Int, 3), 12},
		{sem.Mat(2), 16},
		{sem.Mat(3), 36},
		{sem.Mat(4), 64},
		{sem.Array(sem.TFloat, 4), 16},
		{sem.Array(sem.Vec(sem.Float, 4), 3), 48},
		{sem.SamplerType(sem.Sampler2D), 4},
		{sem.Type{Tag: sem.TagStruct, StructName: "Light"}, 16},
	}
	for _, tt := range tests {
		if got := SizeOf(tt.typ, structs); got != tt.want {
			t.Errorf("SizeOf(%s) = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestFlattenLanes(t *testing.T) {
	lanes := Flatten(sem.Vec(sem.Float, 3), nil)
	if len(lanes) != 3 {
		t.Fatalf("vec3: expected 3 lanes, got %d", len(lanes))
	}
	for _, l := range lanes {
		if l != F32 {
			t.Error("vec3 lanes must be f32")
		}
	}

	lanes = Flatten(sem.Vec(sem.Uint, 2), nil)
	for _, l := range lanes {
		if l != I32 {
			t.Error("uvec2 lanes must be i32")
		}
	}

	structs := map[string]*sem.StructInfo{
		"Mix": {Name: "Mix", Members: []sem.StructField{
			{Name: "a", Type: sem.TInt},
			{Name: "b", Type: sem.Vec(sem.Float, 2)},
		}},
	}
	lanes = Flatten(sem.Type{Tag: sem.TagStruct, StructName: "Mix"}, structs)
	want := []ValueKind{I32, F32, F32}
	if len(lanes) != len(want) {
		t.Fatalf("struct: expected %d lanes, got %d", len(want), len(lanes))
	}
	for i := range want {
		if lanes[i] != want[i] {
			t.Errorf("struct lane %d: expected %v, got %v", i, want[i], lanes[i])
		}
	}
}

func TestClassifyThreshold(t *testing.T) {
	tests := []struct {
		typ  sem.Type
		want Class
	}{
		{sem.TFloat, ClassFlat},
		{sem.Vec(sem.Float, 4), ClassFlat},      // 16 bytes: at threshold
		{sem.Array(sem.TFloat, 4), ClassFlat},   // 16 bytes: boundary case flattens
		{sem.Mat(2), ClassFlat},                 // 16 bytes
		{sem.Mat(3), ClassFramed},               // 36 bytes: always framed
		{sem.Mat(4), ClassFramed},               // 64 bytes
		{sem.Array(sem.TFloat, 5), ClassFramed}, // 20 bytes
	}
	for _, tt := range tests {
		fn := &sem.Function{Name: "f", Params: []sem.Param{{Name: "p", Type: tt.typ}}, ReturnType: sem.TVoid}
		got := Classify(fn, nil)
		if got.Params[0].Class != tt.want {
			t.Errorf("%s: expected class %v, got %v", tt.typ, tt.want, got.Params[0].Class)
		}
		if tt.want == ClassFlat && len(got.Params[0].Lanes) == 0 {
			t.Errorf("%s: flat parameter should carry lanes", tt.typ)
		}
	}
}

// transformVector(mat4 m, vec4 v): the matrix frames (one leading i32
// pointer), the vector flattens into four f32 lanes.
func TestClassifyMat4ParameterFrames(t *testing.T) {
	fn := &sem.Function{
		Name: "transformVector",
		Params: []sem.Param{
			{Name: "m", Type: sem.Mat(4)},
			{Name: "v", Type: sem.Vec(sem.Float, 4)},
		},
		ReturnType: sem.Vec(sem.Float, 4),
	}
	fabi := Classify(fn, nil)
	if fabi.Params[0].Class != ClassFramed {
		t.Error("mat4 parameter must be framed")
	}
	if fabi.Params[1].Class != ClassFlat || len(fabi.Params[1].Lanes) != 4 {
		t.Error("vec4 parameter must flatten to 4 lanes")
	}
	if fabi.Return.Class != ClassFlat || len(fabi.Return.Lanes) != 4 {
		t.Error("vec4 return must flatten (multi-value)")
	}
	if fabi.FrameBytes() != 64 {
		t.Errorf("call frame should reserve 64 bytes, got %d", fabi.FrameBytes())
	}
}

func TestClassifyFramedReturn(t *testing.T) {
	fn := &sem.Function{Name: "makeM", ReturnType: sem.Mat(4)}
	fabi := Classify(fn, nil)
	if fabi.Return.Class != ClassFramed || fabi.Return.Size != 64 {
		t.Errorf("mat4 return must frame 64 bytes, got %+v", fabi.Return)
	}
	if fabi.FrameBytes() != 64 {
		t.Errorf("FrameBytes: expected 64, got %d", fabi.FrameBytes())
	}
}

func TestFieldOffset(t *testing.T) {
	structs := map[string]*sem.StructInfo{}
	info := &sem.StructInfo{Name: "S", Members: []sem.StructField{
		{Name: "a", Type: sem.TFloat},
		{Name: "b", Type: sem.Vec(sem.Float, 3)},
		{Name: "c", Type: sem.TInt},
	}}
	if off := FieldOffset(info, 0, structs); off != 0 {
		t.Errorf("a: expected 0, got %d", off)
	}
	if off := FieldOffset(info, 1, structs); off != 4 {
		t.Errorf("b: expected 4, got %d", off)
	}
	if off := FieldOffset(info, 2, structs); off != 16 {
		t.Errorf("c: expected 16, got %d", off)
	}
}
