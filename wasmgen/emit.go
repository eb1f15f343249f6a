package wasmgen

import (
	"github.com/gogpu/webglshader/abi"
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/layout"
	"github.com/gogpu/webglshader/sem"
)

// Module global indices, in the order the shader ABI fixes them. The
// exported wrapper stores its six i32 arguments into these.
const (
	GlobalAttribBase = iota
	GlobalUniformBase
	GlobalVaryingBase
	GlobalPrivateBase
	GlobalTextureBase
	GlobalFrameSP
)

// mathImports is the fixed env.* import set every compiled module
// declares, whether or not the shader calls them.
var mathImports = []struct {
	name  string
	arity int
	fn    sem.BuiltinFunc
}{
	{"sin", 1, sem.FnSin}, {"cos", 1, sem.FnCos}, {"tan", 1, sem.FnTan},
	{"asin", 1, sem.FnAsin}, {"acos", 1, sem.FnAcos}, {"atan", 1, sem.FnAtan},
	{"atan2", 2, sem.FnAtan2},
	{"exp", 1, sem.FnExp}, {"exp2", 1, sem.FnExp2},
	{"log", 1, sem.FnLog}, {"log2", 1, sem.FnLog2},
	{"pow", 2, sem.FnPow},
	{"sinh", 1, sem.FnSinh}, {"cosh", 1, sem.FnCosh}, {"tanh", 1, sem.FnTanh},
	{"asinh", 1, sem.FnAsinh}, {"acosh", 1, sem.FnAcosh}, {"atanh", 1, sem.FnAtanh},
}

// EmitOptions overrides the compile-time default location assignment;
// the linker re-emits modules with its resolved assignment so both
// stages of a program address identical offsets.
type EmitOptions struct {
	AttribLocations  map[string]int
	VaryingLocations map[string]int
}

// Emitter lowers one checked program to a WASM module.
type Emitter struct {
	prog  *sem.Program
	abis  map[string]abi.FuncABI
	mod   *Module
	diags diag.Diagnostics

	uniforms *layout.UniformPlan
	attrLoc  map[string]int
	varyLoc  map[string]int

	mathFuncIdx map[sem.BuiltinFunc]int
	tex2DIdx    int
	tex3DIdx    int
	userFuncIdx map[string]int
}

// DefaultAttribLocations assigns attribute locations for a lone
// compiled shader: explicit layout(location=N) wins, the rest pack
// upward into unused slots in declaration order. Explicit collisions
// are preserved as-is here; detecting them is the linker's job.
func DefaultAttribLocations(symbols *sem.SymbolTable) map[string]int {
	out := make(map[string]int, len(symbols.Attributes))
	used := make(map[int]bool)
	for _, a := range symbols.Attributes {
		if a.Explicit {
			out[a.Name] = a.Location
			used[a.Location] = true
		}
	}
	next := 0
	for _, a := range symbols.Attributes {
		if a.Explicit {
			continue
		}
		for used[next] {
			next++
		}
		out[a.Name] = next
		used[next] = true
	}
	return out
}

// DefaultVaryingLocations assigns user varying locations the same way.
// The fragment color output is excluded; it has a reserved slot.
func DefaultVaryingLocations(prog *sem.Program) map[string]int {
	out := make(map[string]int)
	used := make(map[int]bool)
	for _, v := range prog.Symbols.Varyings {
		if v.Name == prog.FragColor {
			continue
		}
		if v.Explicit {
			out[v.Name] = v.Location
			used[v.Location] = true
		}
	}
	next := 0
	for _, v := range prog.Symbols.Varyings {
		if v.Name == prog.FragColor || v.Explicit {
			continue
		}
		for used[next] {
			next++
		}
		out[v.Name] = next
		used[next] = true
	}
	return out
}

// Emit lowers a checked program into a compiled module. Unsupported
// constructs surface as diagnostics, never as incorrect code.
func Emit(prog *sem.Program, abis map[string]abi.FuncABI, opts EmitOptions) (*CompiledModule, diag.Diagnostics) {
	e := &Emitter{
		prog:        prog,
		abis:        abis,
		mod:         &Module{},
		uniforms:    layout.PlanUniforms(prog.Symbols.Uniforms, prog.Structs),
		attrLoc:     opts.AttribLocations,
		varyLoc:     opts.VaryingLocations,
		mathFuncIdx: make(map[sem.BuiltinFunc]int),
		userFuncIdx: make(map[string]int),
		tex2DIdx:    -1,
		tex3DIdx:    -1,
	}
	if e.attrLoc == nil {
		e.attrLoc = DefaultAttribLocations(&prog.Symbols)
	}
	if e.varyLoc == nil {
		e.varyLoc = DefaultVaryingLocations(prog)
	}

	e.emitImports()
	e.emitGlobals()

	// Function index space: imports first, then user functions in
	// declaration order, then the exported wrapper.
	base := e.mod.NumImportedFuncs()
	for i := range prog.Symbols.Functions {
		e.userFuncIdx[prog.Symbols.Functions[i].Name] = base + i
	}

	for i := range prog.Symbols.Functions {
		e.emitFunction(&prog.Symbols.Functions[i])
	}
	e.emitWrapper()

	if e.diags.HasErrors() {
		return nil, e.diags
	}
	e.verifyABI()

	cm := &CompiledModule{
		Kind:             prog.Kind,
		Program:          prog,
		Symbols:          &prog.Symbols,
		ABI:              abis,
		Module:           e.mod,
		Bytes:            Encode(e.mod),
		AttribLocations:  e.attrLoc,
		VaryingLocations: e.varyLoc,
		Uniforms:         e.uniforms,
	}
	return cm, e.diags
}

func (e *Emitter) emitImports() {
	e.mod.Imports = append(e.mod.Imports, Import{Module: "env", Name: "memory", Kind: ImportMemory, MemMin: 1})

	unary := e.mod.AddType(FuncType{Params: []ValueType{ValF32}, Results: []ValueType{ValF32}})
	binary := e.mod.AddType(FuncType{Params: []ValueType{ValF32, ValF32}, Results: []ValueType{ValF32}})
	idx := 0
	for _, m := range mathImports {
		t := unary
		if m.arity == 2 {
			t = binary
		}
		e.mod.Imports = append(e.mod.Imports, Import{Module: "env", Name: m.name, Kind: ImportFunc, TypeIdx: t})
		e.mathFuncIdx[m.fn] = idx
		idx++
	}
	if e.prog.UsesSampler2D {
		t := e.mod.AddType(FuncType{Params: []ValueType{ValI32, ValF32, ValF32, ValI32}})
		e.mod.Imports = append(e.mod.Imports, Import{Module: "env", Name: "texture_sample_2d", Kind: ImportFunc, TypeIdx: t})
		e.tex2DIdx = idx
		idx++
	}
	if e.prog.UsesSampler3D {
		t := e.mod.AddType(FuncType{Params: []ValueType{ValI32, ValF32, ValF32, ValF32, ValI32}})
		e.mod.Imports = append(e.mod.Imports, Import{Module: "env", Name: "texture_sample_3d", Kind: ImportFunc, TypeIdx: t})
		e.tex3DIdx = idx
	}
}

func (e *Emitter) emitGlobals() {
	names := []string{"attrib_base", "uniform_base", "varying_base", "private_base", "texture_base", "frame_sp"}
	for _, n := range names {
		e.mod.Globals = append(e.mod.Globals, Global{Name: n, Type: ValI32, Mutable: true})
	}
}

// funcTypeOf translates a classified ABI into a WASM signature: an
// sret i32 first when the return is framed, then per parameter either
// the flattened lanes or a single i32 frame pointer; flattened returns
// use multi-value results.
func funcTypeOf(fabi *abi.FuncABI) FuncType {
	var ft FuncType
	if !fabi.Return.Void && fabi.Return.Class == abi.ClassFramed {
		ft.Params = append(ft.Params, ValI32)
	}
	for i := range fabi.Params {
		p := &fabi.Params[i]
		if p.Class == abi.ClassFramed {
			ft.Params = append(ft.Params, ValI32)
			continue
		}
		for _, l := range p.Lanes {
			ft.Params = append(ft.Params, valueTypeOf(l))
		}
	}
	if !fabi.Return.Void && fabi.Return.Class == abi.ClassFlat {
		for _, l := range fabi.Return.Lanes {
			ft.Results = append(ft.Results, valueTypeOf(l))
		}
	}
	return ft
}

func valueTypeOf(k abi.ValueKind) ValueType {
	if k == abi.F32 {
		return ValF32
	}
	return ValI32
}

// verifyABI cross-checks every emitted user function's type section
// entry against its classified ABI. A mismatch means the classifier
// and the emitter disagree, which is a bug, not user error.
func (e *Emitter) verifyABI() {
	base := e.mod.NumImportedFuncs()
	for i := range e.prog.Symbols.Functions {
		fn := &e.prog.Symbols.Functions[i]
		fabi := e.abis[fn.Name]
		want := funcTypeOf(&fabi)
		got := e.mod.Types[e.mod.Funcs[e.userFuncIdx[fn.Name]-base].TypeIdx]
		if !got.Equal(want) {
			diag.Internalf("function %q: emitted signature %v disagrees with ABI classification %v", fn.Name, got, want)
		}
	}
}

// emitWrapper emits the exported main: (i32,i32,i32,i32,i32,i32) ->
// void. It stores the six region base pointers into the module
// globals, clears the discard flag for fragment shaders, and calls the
// user main.
func (e *Emitter) emitWrapper() {
	ft := FuncType{Params: []ValueType{ValI32, ValI32, ValI32, ValI32, ValI32, ValI32}}
	var code CodeBuf
	for i := 0; i < 6; i++ {
		code.LocalGet(i)
		code.GlobalSet(i)
	}
	if e.prog.Kind == sem.Fragment {
		code.GlobalGet(GlobalPrivateBase)
		code.I32Const(0)
		code.Store(OpI32Store, layout.DiscardFlagOffset)
	}
	if idx, ok := e.userFuncIdx["main"]; ok {
		code.Call(idx)
	}
	e.mod.Funcs = append(e.mod.Funcs, Function{
		Name:    "__entry",
		TypeIdx: e.mod.AddType(ft),
		Body:    code.Bytes(),
	})
	e.mod.Exports = append(e.mod.Exports, Export{
		Name:    "main",
		FuncIdx: e.mod.NumImportedFuncs() + len(e.mod.Funcs) - 1,
	})
}

// --- per-function emission state ------------------------------------------

// emitAbort is the panic sentinel for unsupported-construct bailout
// inside the recursive emitter.
type emitAbort struct{}

type loopCtx struct {
	breakLevel int
	contLevel  int
}

type funcEmitter struct {
	e    *Emitter
	fn   *sem.Function
	fabi abi.FuncABI
	code CodeBuf

	numParams int
	locals    []ValueType

	// paramFlat maps flat parameter names to their lane local indices;
	// paramFramed maps framed parameter names to the i32 pointer local.
	paramFlat   map[string][]int
	paramFramed map[string]int

	// localSlots maps register-class locals (scalars, vectors,
	// matrices) to component locals; frameSlots maps memory-class
	// locals (arrays, structs) to frame offsets.
	localSlots map[int][]int
	frameSlots map[int]int
	frameSize  int
	frameBase  int // local holding the saved entry SP; -1 when unused

	blockDepth int
	loops      []loopCtx
}

func (e *Emitter) emitFunction(fn *sem.Function) {
	f := &funcEmitter{
		e:           e,
		fn:          fn,
		fabi:        e.abis[fn.Name],
		paramFlat:   make(map[string][]int),
		paramFramed: make(map[string]int),
		localSlots:  make(map[int][]int),
		frameSlots:  make(map[int]int),
		frameBase:   -1,
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(emitAbort); ok {
				return // diagnostic already recorded
			}
			panic(r)
		}
	}()
	f.emit()
}

func (f *funcEmitter) fail(span diag.Span, format string, args ...interface{}) {
	f.e.diags.Addf(diag.KindUnsupported, span, format, args...)
	panic(emitAbort{})
}

// allocLocal appends one extra local and returns its index.
func (f *funcEmitter) allocLocal(t ValueType) int {
	f.locals = append(f.locals, t)
	return f.numParams + len(f.locals) - 1
}

func (f *funcEmitter) allocLanes(kinds []abi.ValueKind) []int {
	out := make([]int, len(kinds))
	for i, k := range kinds {
		out[i] = f.allocLocal(valueTypeOf(k))
	}
	return out
}

func (f *funcEmitter) laneKinds(t sem.Type) []abi.ValueKind {
	return abi.LaneKinds(t, f.e.prog.Structs)
}

func (f *funcEmitter) sizeOf(t sem.Type) int {
	return abi.SizeOf(t, f.e.prog.Structs)
}

func (f *funcEmitter) emit() {
	ft := funcTypeOf(&f.fabi)
	f.numParams = len(ft.Params)

	// Map parameters onto WASM locals.
	idx := 0
	if !f.fabi.Return.Void && f.fabi.Return.Class == abi.ClassFramed {
		idx = 1 // local 0 is the sret pointer
	}
	for i := range f.fabi.Params {
		p := &f.fabi.Params[i]
		if p.Class == abi.ClassFramed {
			f.paramFramed[p.Name] = idx
			idx++
			continue
		}
		lanes := make([]int, len(p.Lanes))
		for j := range p.Lanes {
			lanes[j] = idx
			idx++
		}
		f.paramFlat[p.Name] = lanes
	}

	// Frame-resident locals: arrays and structs get bump-allocated
	// space at entry, restored at every exit.
	for _, lv := range f.fn.Locals {
		if lv.Type.IsArray() || lv.Type.IsStruct() {
			f.frameSlots[lv.Index] = f.frameSize
			f.frameSize += f.sizeOf(lv.Type)
		}
	}
	if f.frameSize > 0 {
		f.frameBase = f.allocLocal(ValI32)
		f.code.GlobalGet(GlobalFrameSP)
		f.code.LocalTee(f.frameBase)
		f.code.I32Const(int32(f.frameSize))
		f.code.Op(OpI32Add)
		f.code.GlobalSet(GlobalFrameSP)
	}

	f.emitBlock(f.fn.Body)

	// Implicit fall-off return.
	f.emitEpilogue()
	if !f.fabi.Return.Void {
		// GLSL requires a return on every path of a non-void function;
		// falling off the end is undefined, so return zeroes.
		f.pushZeroResult()
	}

	f.e.mod.Funcs = append(f.e.mod.Funcs, Function{
		Name:    f.fn.Name,
		TypeIdx: f.e.mod.AddType(ft),
		Locals:  f.locals,
		Body:    f.code.Bytes(),
	})
}

// emitEpilogue restores the frame stack pointer to its entry value.
func (f *funcEmitter) emitEpilogue() {
	if f.frameBase >= 0 {
		f.code.LocalGet(f.frameBase)
		f.code.GlobalSet(GlobalFrameSP)
	}
}

// pushZeroResult pushes a zero value per flat result lane (the
// undefined fall-off-the-end case) or stores zeroes through the sret
// pointer.
func (f *funcEmitter) pushZeroResult() {
	if f.fabi.Return.Class == abi.ClassFramed {
		for i, k := range f.laneKinds(f.fabi.Return.Type) {
			f.code.LocalGet(0)
			pushZero(&f.code, k)
			f.code.Store(storeOp(k), i*4)
		}
		return
	}
	for _, k := range f.fabi.Return.Lanes {
		pushZero(&f.code, k)
	}
}

func pushZero(c *CodeBuf, k abi.ValueKind) {
	if k == abi.F32 {
		c.F32Const(0)
	} else {
		c.I32Const(0)
	}
}

func loadOp(k abi.ValueKind) Opcode {
	if k == abi.F32 {
		return OpF32Load
	}
	return OpI32Load
}

func storeOp(k abi.ValueKind) Opcode {
	if k == abi.F32 {
		return OpF32Store
	}
	return OpI32Store
}
