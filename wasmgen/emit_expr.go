package wasmgen

import (
	"github.com/gogpu/webglshader/abi"
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/layout"
	"github.com/gogpu/webglshader/sem"
)

// value is an evaluated expression: one WASM local per scalar lane.
// owned reports whether the locals are fresh (safe to adopt) or alias
// another variable's storage.
type value struct {
	t     sem.Type
	comps []int
	owned bool
}

// addr is a linear-memory address: a base (either a module global
// holding a region pointer, or a local holding a computed address)
// plus a constant byte offset.
type addr struct {
	global int
	local  int // -1 means use global
	offset int
}

func (f *funcEmitter) pushAddr(a addr) {
	if a.local >= 0 {
		f.code.LocalGet(a.local)
	} else {
		f.code.GlobalGet(a.global)
	}
}

// tryAddr resolves a memory-resident expression to an address. It may
// emit address arithmetic (dynamic indices) into a scratch local.
func (f *funcEmitter) tryAddr(e sem.Expr) (addr, bool) {
	switch e := e.(type) {
	case *sem.VarRef:
		return f.varAddr(e)
	case *sem.IndexExpr:
		base, ok := f.tryAddr(e.Base)
		if !ok {
			return addr{}, false
		}
		elemSize := f.sizeOf(e.T)
		if c, isConst := e.Index.(*sem.ConstExpr); isConst {
			base.offset += int(c.Int) * elemSize
			return base, true
		}
		idx := f.emitExpr(e.Index)
		scratch := f.allocLocal(ValI32)
		f.pushAddr(base)
		f.code.LocalGet(idx.comps[0])
		f.code.I32Const(int32(elemSize))
		f.code.Op(OpI32Mul)
		f.code.Op(OpI32Add)
		f.code.LocalSet(scratch)
		return addr{local: scratch, offset: base.offset}, true
	case *sem.FieldAccessExpr:
		base, ok := f.tryAddr(e.Base)
		if !ok {
			return addr{}, false
		}
		info := f.e.prog.Structs[e.Struct]
		base.offset += abi.FieldOffset(info, e.Index, f.e.prog.Structs)
		return base, true
	}
	return addr{}, false
}

func (f *funcEmitter) varAddr(e *sem.VarRef) (addr, bool) {
	switch e.Class {
	case sem.ClassAttribute:
		loc := f.e.attrLoc[e.Name]
		return addr{global: GlobalAttribBase, local: -1, offset: layout.AttributeOffset(loc)}, true
	case sem.ClassVarying:
		loc := f.e.varyLoc[e.Name]
		return addr{global: GlobalVaryingBase, local: -1, offset: layout.VaryingOffset(loc)}, true
	case sem.ClassOutput:
		return addr{global: GlobalVaryingBase, local: -1, offset: layout.FragColorOffset}, true
	case sem.ClassUniform:
		slot, ok := f.e.uniforms.Find(e.Name)
		if !ok {
			diag.Internalf("uniform %q missing from layout plan", e.Name)
		}
		return addr{global: GlobalUniformBase, local: -1, offset: slot.Offset}, true
	case sem.ClassBuiltin:
		off := 0
		switch e.Builtin {
		case sem.BuiltinPosition, sem.BuiltinFragCoord:
			off = layout.PositionOffset
		case sem.BuiltinPointSize:
			off = layout.PointSizeOffset
		case sem.BuiltinPointCoord:
			off = layout.PointCoordOffset
		}
		return addr{global: GlobalVaryingBase, local: -1, offset: off}, true
	case sem.ClassParam:
		if ptr, framed := f.paramFramed[e.Name]; framed {
			return addr{local: ptr, offset: 0}, true
		}
	case sem.ClassLocal:
		if off, framed := f.frameSlots[e.Local.Index]; framed {
			return addr{local: f.frameBase, offset: off}, true
		}
	}
	return addr{}, false
}

// loadAddr reads a value lane-by-lane from memory into fresh locals.
func (f *funcEmitter) loadAddr(a addr, t sem.Type) value {
	kinds := f.laneKinds(t)
	out := f.allocLanes(kinds)
	for i, k := range kinds {
		f.pushAddr(a)
		f.code.Load(loadOp(k), a.offset+i*4)
		f.code.LocalSet(out[i])
	}
	return value{t: t, comps: out, owned: true}
}

// --- stores ---------------------------------------------------------------

// regTarget resolves an lvalue onto register storage (WASM locals).
func (f *funcEmitter) regTarget(e sem.Expr) ([]int, bool) {
	switch e := e.(type) {
	case *sem.VarRef:
		switch e.Class {
		case sem.ClassLocal:
			if comps, ok := f.localSlots[e.Local.Index]; ok {
				return comps, true
			}
		case sem.ClassParam:
			if comps, ok := f.paramFlat[e.Name]; ok {
				return comps, true
			}
		}
	case *sem.SwizzleExpr:
		base, ok := f.regTarget(e.Base)
		if !ok {
			return nil, false
		}
		out := make([]int, len(e.Lanes))
		for i, l := range e.Lanes {
			out[i] = base[l]
		}
		return out, true
	case *sem.IndexExpr:
		base, ok := f.regTarget(e.Base)
		if !ok {
			return nil, false
		}
		c, isConst := e.Index.(*sem.ConstExpr)
		if !isConst {
			f.fail(diag.Span{}, "dynamic indexing of a register-resident value is not supported")
		}
		lanes := len(f.laneKinds(e.T))
		start := int(c.Int) * lanes
		return base[start : start+lanes], true
	case *sem.FieldAccessExpr:
		base, ok := f.regTarget(e.Base)
		if !ok {
			return nil, false
		}
		info := f.e.prog.Structs[e.Struct]
		start := 0
		for i := 0; i < e.Index; i++ {
			start += len(f.laneKinds(info.Members[i].Type))
		}
		return base[start : start+len(f.laneKinds(e.T))], true
	}
	return nil, false
}

// store writes an evaluated value through an lvalue expression.
func (f *funcEmitter) store(lhs sem.Expr, v value) {
	// Copy unowned sources first so overlapping stores (v.xy = v.yx)
	// read pre-assignment values.
	if !v.owned {
		v = value{t: v.t, comps: f.copyComps(v), owned: true}
	}
	if target, ok := f.regTarget(lhs); ok {
		for i := range target {
			f.code.LocalGet(v.comps[i])
			f.code.LocalSet(target[i])
		}
		return
	}
	// Memory target; swizzle stores scatter into selected lanes.
	if sw, isSwizzle := lhs.(*sem.SwizzleExpr); isSwizzle {
		a, ok := f.tryAddr(sw.Base)
		if !ok {
			f.fail(diag.Span{}, "unsupported swizzle store target")
		}
		kinds := f.laneKinds(sw.Base.Type())
		for i, lane := range sw.Lanes {
			f.pushAddr(a)
			f.code.LocalGet(v.comps[i])
			f.code.Store(storeOp(kinds[lane]), a.offset+lane*4)
		}
		return
	}
	a, ok := f.tryAddr(lhs)
	if !ok {
		f.fail(diag.Span{}, "unsupported assignment target")
	}
	kinds := f.laneKinds(lhs.Type())
	for i, k := range kinds {
		f.pushAddr(a)
		f.code.LocalGet(v.comps[i])
		f.code.Store(storeOp(k), a.offset+i*4)
	}
}

// --- expression emission --------------------------------------------------

func (f *funcEmitter) emitExpr(e sem.Expr) value {
	switch e := e.(type) {
	case *sem.ConstExpr:
		return f.emitConst(e)
	case *sem.VarRef:
		return f.emitVarRef(e)
	case *sem.SwizzleExpr:
		base := f.emitExpr(e.Base)
		comps := make([]int, len(e.Lanes))
		for i, l := range e.Lanes {
			comps[i] = base.comps[l]
		}
		return value{t: e.T, comps: comps, owned: false}
	case *sem.FieldAccessExpr:
		if a, ok := f.tryAddr(e); ok {
			return f.loadAddr(a, e.T)
		}
		base := f.emitExpr(e.Base)
		info := f.e.prog.Structs[e.Struct]
		start := 0
		for i := 0; i < e.Index; i++ {
			start += len(f.laneKinds(info.Members[i].Type))
		}
		n := len(f.laneKinds(e.T))
		return value{t: e.T, comps: base.comps[start : start+n], owned: false}
	case *sem.IndexExpr:
		return f.emitIndex(e)
	case *sem.BinExpr:
		return f.emitBin(e)
	case *sem.UnExpr:
		return f.emitUn(e)
	case *sem.TernExpr:
		return f.emitTern(e)
	case *sem.ConvertExpr:
		return f.emitConvert(e)
	case *sem.ConstructExpr:
		return f.emitConstruct(e)
	case *sem.StructConstructExpr:
		return f.emitStructConstruct(e)
	case *sem.CallExpr:
		return f.emitCall(e)
	case *sem.BuiltinCallExpr:
		return f.emitBuiltin(e)
	case *sem.TextureCallExpr:
		return f.emitTexture(e)
	}
	f.fail(diag.Span{}, "unsupported expression in code emission")
	return value{}
}

func (f *funcEmitter) emitConst(e *sem.ConstExpr) value {
	k := f.laneKinds(e.T)[0]
	out := f.allocLocal(valueTypeOf(k))
	if k == abi.F32 {
		f.code.F32Const(e.Float)
	} else {
		f.code.I32Const(e.Int)
	}
	f.code.LocalSet(out)
	return value{t: e.T, comps: []int{out}, owned: true}
}

func (f *funcEmitter) emitVarRef(e *sem.VarRef) value {
	switch e.Class {
	case sem.ClassLocal:
		if comps, ok := f.localSlots[e.Local.Index]; ok {
			return value{t: e.T, comps: comps, owned: false}
		}
	case sem.ClassParam:
		if comps, ok := f.paramFlat[e.Name]; ok {
			return value{t: e.T, comps: comps, owned: false}
		}
	}
	a, ok := f.varAddr(e)
	if !ok {
		diag.Internalf("variable %q has neither register nor memory storage", e.Name)
	}
	return f.loadAddr(a, e.T)
}

func (f *funcEmitter) emitIndex(e *sem.IndexExpr) value {
	if a, ok := f.tryAddr(e); ok {
		return f.loadAddr(a, e.T)
	}
	// Register-resident base: constant indices slice the lane list.
	c, isConst := e.Index.(*sem.ConstExpr)
	if !isConst {
		f.fail(diag.Span{}, "dynamic indexing of a register-resident value is not supported")
	}
	base := f.emitExpr(e.Base)
	lanes := len(f.laneKinds(e.T))
	start := int(c.Int) * lanes
	return value{t: e.T, comps: base.comps[start : start+lanes], owned: false}
}

// --- operators ------------------------------------------------------------

func (f *funcEmitter) emitBin(e *sem.BinExpr) value {
	lt, rt := e.Left.Type(), e.Right.Type()

	switch e.Op {
	case sem.OpAnd, sem.OpOr:
		return f.emitShortCircuit(e)
	}
	if e.Op == sem.OpMul && (lt.IsMatrix() || rt.IsMatrix()) {
		if lt.IsMatrix() && rt.IsMatrix() {
			return f.emitMatMat(e)
		}
		if lt.IsMatrix() && rt.IsVector() {
			return f.emitMatVec(e)
		}
		if lt.IsVector() && rt.IsMatrix() {
			return f.emitVecMat(e)
		}
	}

	l := f.emitExpr(e.Left)
	r := f.emitExpr(e.Right)

	switch e.Op {
	case sem.OpEq, sem.OpNe:
		return f.emitEquality(e, l, r)
	case sem.OpLt, sem.OpLe, sem.OpGt, sem.OpGe:
		return f.emitCompare(e, l, r)
	case sem.OpXor:
		out := f.allocLocal(ValI32)
		f.code.LocalGet(l.comps[0])
		f.code.LocalGet(r.comps[0])
		f.code.Op(OpI32Ne)
		f.code.LocalSet(out)
		return value{t: sem.TBool, comps: []int{out}, owned: true}
	}

	// Componentwise arithmetic; a scalar operand against a matrix
	// splats (the checker splats vec-scalar forms itself).
	kinds := f.laneKinds(e.T)
	out := f.allocLanes(kinds)
	scalarK := baseScalar(e.T)
	for i := range out {
		f.code.LocalGet(lane(l, i))
		f.code.LocalGet(lane(r, i))
		f.code.Op(arithOp(e.Op, scalarK, f))
		f.code.LocalSet(out[i])
	}
	return value{t: e.T, comps: out, owned: true}
}

// lane picks component i of a value, splatting scalars.
func lane(v value, i int) int {
	if len(v.comps) == 1 {
		return v.comps[0]
	}
	return v.comps[i]
}

func baseScalar(t sem.Type) sem.ScalarKind {
	return t.Scalar
}

func arithOp(op sem.BinOp, k sem.ScalarKind, f *funcEmitter) Opcode {
	if k == sem.Float {
		switch op {
		case sem.OpAdd:
			return OpF32Add
		case sem.OpSub:
			return OpF32Sub
		case sem.OpMul:
			return OpF32Mul
		case sem.OpDiv:
			return OpF32Div
		}
	} else {
		switch op {
		case sem.OpAdd:
			return OpI32Add
		case sem.OpSub:
			return OpI32Sub
		case sem.OpMul:
			return OpI32Mul
		case sem.OpDiv:
			if k == sem.Uint {
				return OpI32DivU
			}
			return OpI32DivS
		case sem.OpMod:
			if k == sem.Uint {
				return OpI32RemU
			}
			return OpI32RemS
		case sem.OpBitAnd:
			return OpI32And
		case sem.OpBitOr:
			return OpI32Or
		case sem.OpBitXor:
			return OpI32Xor
		case sem.OpShl:
			return OpI32Shl
		case sem.OpShr:
			if k == sem.Uint {
				return OpI32ShrU
			}
			return OpI32ShrS
		}
	}
	f.fail(diag.Span{}, "unsupported arithmetic operator for %s operands", k)
	return OpNop
}

func (f *funcEmitter) emitShortCircuit(e *sem.BinExpr) value {
	l := f.emitExpr(e.Left)
	out := f.allocLocal(ValI32)
	f.code.LocalGet(l.comps[0])
	f.code.IfTyped(ValI32)
	f.blockDepth++
	if e.Op == sem.OpAnd {
		r := f.emitExpr(e.Right)
		f.code.LocalGet(r.comps[0])
		f.code.Else()
		f.code.I32Const(0)
	} else {
		f.code.I32Const(1)
		f.code.Else()
		r := f.emitExpr(e.Right)
		f.code.LocalGet(r.comps[0])
	}
	f.code.End()
	f.blockDepth--
	f.code.LocalSet(out)
	return value{t: sem.TBool, comps: []int{out}, owned: true}
}

// emitEquality lowers == / != including aggregate vector comparison:
// per-lane equality AND-reduced to one boolean.
func (f *funcEmitter) emitEquality(e *sem.BinExpr, l, r value) value {
	kinds := f.laneKinds(e.Left.Type())
	eqOp := func(k abi.ValueKind) Opcode {
		if k == abi.F32 {
			return OpF32Eq
		}
		return OpI32Eq
	}
	for i, k := range kinds {
		f.code.LocalGet(lane(l, i))
		f.code.LocalGet(lane(r, i))
		f.code.Op(eqOp(k))
		if i > 0 {
			f.code.Op(OpI32And)
		}
	}
	if e.Op == sem.OpNe {
		f.code.Op(OpI32Eqz)
	}
	out := f.allocLocal(ValI32)
	f.code.LocalSet(out)
	return value{t: sem.TBool, comps: []int{out}, owned: true}
}

func (f *funcEmitter) emitCompare(e *sem.BinExpr, l, r value) value {
	k := e.Left.Type().Scalar
	var op Opcode
	switch e.Op {
	case sem.OpLt:
		op = pick(k, OpF32Lt, OpI32LtS, OpI32LtU)
	case sem.OpLe:
		op = pick(k, OpF32Le, OpI32LeS, OpI32LeU)
	case sem.OpGt:
		op = pick(k, OpF32Gt, OpI32GtS, OpI32GtU)
	case sem.OpGe:
		op = pick(k, OpF32Ge, OpI32GeS, OpI32GeU)
	}
	out := f.allocLocal(ValI32)
	f.code.LocalGet(l.comps[0])
	f.code.LocalGet(r.comps[0])
	f.code.Op(op)
	f.code.LocalSet(out)
	return value{t: sem.TBool, comps: []int{out}, owned: true}
}

func pick(k sem.ScalarKind, fop, sop, uop Opcode) Opcode {
	switch k {
	case sem.Float:
		return fop
	case sem.Uint:
		return uop
	default:
		return sop
	}
}

func (f *funcEmitter) emitUn(e *sem.UnExpr) value {
	v := f.emitExpr(e.Operand)
	kinds := f.laneKinds(e.T)
	out := f.allocLanes(kinds)
	for i := range out {
		switch e.Op {
		case sem.OpNeg:
			if kinds[i] == abi.F32 {
				f.code.LocalGet(v.comps[i])
				f.code.Op(OpF32Neg)
			} else {
				f.code.I32Const(0)
				f.code.LocalGet(v.comps[i])
				f.code.Op(OpI32Sub)
			}
		case sem.OpNot:
			f.code.LocalGet(v.comps[i])
			f.code.Op(OpI32Eqz)
		case sem.OpBitNot:
			f.code.LocalGet(v.comps[i])
			f.code.I32Const(-1)
			f.code.Op(OpI32Xor)
		}
		f.code.LocalSet(out[i])
	}
	return value{t: e.T, comps: out, owned: true}
}

func (f *funcEmitter) emitTern(e *sem.TernExpr) value {
	cond := f.emitExpr(e.Cond)
	kinds := f.laneKinds(e.T)
	out := f.allocLanes(kinds)
	f.code.LocalGet(cond.comps[0])
	f.code.If()
	f.blockDepth++
	thenV := f.emitExpr(e.Then)
	for i := range out {
		f.code.LocalGet(thenV.comps[i])
		f.code.LocalSet(out[i])
	}
	f.code.Else()
	elseV := f.emitExpr(e.Else)
	for i := range out {
		f.code.LocalGet(elseV.comps[i])
		f.code.LocalSet(out[i])
	}
	f.code.End()
	f.blockDepth--
	return value{t: e.T, comps: out, owned: true}
}

func (f *funcEmitter) emitConvert(e *sem.ConvertExpr) value {
	v := f.emitExpr(e.Arg)
	from := e.Arg.Type().Scalar
	to := e.T.Scalar
	kinds := f.laneKinds(e.T)
	out := f.allocLanes(kinds)
	for i := range out {
		f.code.LocalGet(v.comps[i])
		switch {
		case from == to:
		case to == sem.Float && from == sem.Uint:
			f.code.Op(OpF32ConvertI32U)
		case to == sem.Float:
			f.code.Op(OpF32ConvertI32S)
		case from == sem.Float && to == sem.Uint:
			f.code.Op(OpI32TruncF32U)
		case from == sem.Float && to == sem.Bool:
			f.code.F32Const(0)
			f.code.Op(OpF32Ne)
		case from == sem.Float:
			f.code.Op(OpI32TruncF32S)
		case to == sem.Bool:
			f.code.I32Const(0)
			f.code.Op(OpI32Ne)
		default:
			// int <-> uint and bool -> int reinterpret in place.
		}
		f.code.LocalSet(out[i])
	}
	return value{t: e.T, comps: out, owned: true}
}

func (f *funcEmitter) emitConstruct(e *sem.ConstructExpr) value {
	kinds := f.laneKinds(e.T)

	// Diagonal matrix: matN(s).
	if e.Diagonal {
		s := f.emitExpr(e.Args[0])
		zero := f.allocLocal(ValF32) // never written; locals zero-init
		n := int(e.T.Size)
		comps := make([]int, 0, n*n)
		for c := 0; c < n; c++ {
			for r := 0; r < n; r++ {
				if c == r {
					comps = append(comps, s.comps[0])
				} else {
					comps = append(comps, zero)
				}
			}
		}
		return value{t: e.T, comps: comps, owned: false}
	}

	// Scalar splat: vecN(s).
	if e.T.IsVector() && len(e.Args) == 1 && e.Args[0].Type().IsScalar() {
		s := f.emitExpr(e.Args[0])
		comps := make([]int, len(kinds))
		for i := range comps {
			comps[i] = s.comps[0]
		}
		return value{t: e.T, comps: comps, owned: false}
	}

	// Concatenation in source order.
	comps := make([]int, 0, len(kinds))
	for _, a := range e.Args {
		av := f.emitExpr(a)
		comps = append(comps, av.comps...)
	}
	return value{t: e.T, comps: comps, owned: false}
}

func (f *funcEmitter) emitStructConstruct(e *sem.StructConstructExpr) value {
	comps := make([]int, 0, len(f.laneKinds(e.T)))
	for _, a := range e.Args {
		av := f.emitExpr(a)
		comps = append(comps, av.comps...)
	}
	return value{t: e.T, comps: comps, owned: false}
}

// --- calls ----------------------------------------------------------------

func (f *funcEmitter) emitCall(e *sem.CallExpr) value {
	fabi, ok := f.e.abis[e.Name]
	if !ok {
		diag.Internalf("call to unclassified function %q", e.Name)
	}

	args := make([]value, len(e.Args))
	for i, a := range e.Args {
		args[i] = f.emitExpr(a)
	}

	frameBytes := fabi.FrameBytes()
	callBase := -1
	if frameBytes > 0 {
		callBase = f.allocLocal(ValI32)
		f.code.GlobalGet(GlobalFrameSP)
		f.code.LocalTee(callBase)
		f.code.I32Const(int32(frameBytes))
		f.code.Op(OpI32Add)
		f.code.GlobalSet(GlobalFrameSP)

		off := 0
		if !fabi.Return.Void && fabi.Return.Class == abi.ClassFramed {
			off = fabi.Return.Size // sret slot first
		}
		for i := range fabi.Params {
			p := fabi.Params[i]
			if p.Class != abi.ClassFramed {
				continue
			}
			kinds := f.laneKinds(p.Type)
			for j, k := range kinds {
				f.code.LocalGet(callBase)
				f.code.LocalGet(args[i].comps[j])
				f.code.Store(storeOp(k), off+j*4)
			}
			off += p.Size
		}
	}

	// Push operands: sret pointer, then parameters in source order.
	framedRet := !fabi.Return.Void && fabi.Return.Class == abi.ClassFramed
	if framedRet {
		f.code.LocalGet(callBase)
	}
	off := 0
	if framedRet {
		off = fabi.Return.Size
	}
	for i := range fabi.Params {
		p := &fabi.Params[i]
		if p.Class == abi.ClassFramed {
			f.code.LocalGet(callBase)
			if off != 0 {
				f.code.I32Const(int32(off))
				f.code.Op(OpI32Add)
			}
			off += p.Size
			continue
		}
		for _, c := range args[i].comps {
			f.code.LocalGet(c)
		}
	}
	f.code.Call(f.e.userFuncIdx[e.Name])

	// Capture results.
	var out value
	switch {
	case fabi.Return.Void:
		out = value{t: sem.TVoid, owned: true}
	case framedRet:
		kinds := f.laneKinds(fabi.Return.Type)
		comps := f.allocLanes(kinds)
		for i, k := range kinds {
			f.code.LocalGet(callBase)
			f.code.Load(loadOp(k), i*4)
			f.code.LocalSet(comps[i])
		}
		out = value{t: fabi.Return.Type, comps: comps, owned: true}
	default:
		kinds := fabi.Return.Lanes
		comps := make([]int, len(kinds))
		for i, k := range kinds {
			comps[i] = f.allocLocal(valueTypeOf(k))
		}
		for i := len(comps) - 1; i >= 0; i-- {
			f.code.LocalSet(comps[i])
		}
		out = value{t: fabi.Return.Type, comps: comps, owned: true}
	}

	if callBase >= 0 {
		f.code.LocalGet(callBase)
		f.code.GlobalSet(GlobalFrameSP)
	}
	return out
}

func (f *funcEmitter) emitTexture(e *sem.TextureCallExpr) value {
	slot, ok := f.e.uniforms.Find(e.Sampler)
	if !ok {
		diag.Internalf("sampler %q missing from layout plan", e.Sampler)
	}
	coords := f.emitExpr(e.Coords)

	unit := f.allocLocal(ValI32)
	f.code.GlobalGet(GlobalUniformBase)
	f.code.Load(OpI32Load, slot.Offset)
	f.code.LocalSet(unit)

	// The sample destination is a 16-byte frame allocation.
	base := f.allocLocal(ValI32)
	f.code.GlobalGet(GlobalFrameSP)
	f.code.LocalTee(base)
	f.code.I32Const(16)
	f.code.Op(OpI32Add)
	f.code.GlobalSet(GlobalFrameSP)

	f.code.LocalGet(unit)
	for _, c := range coords.comps {
		f.code.LocalGet(c)
	}
	f.code.LocalGet(base)
	if e.Dim == sem.Sampler2D {
		f.code.Call(f.e.tex2DIdx)
	} else {
		f.code.Call(f.e.tex3DIdx)
	}

	comps := f.allocLanes(f.laneKinds(e.T))
	for i := range comps {
		f.code.LocalGet(base)
		f.code.Load(OpF32Load, i*4)
		f.code.LocalSet(comps[i])
	}
	f.code.LocalGet(base)
	f.code.GlobalSet(GlobalFrameSP)
	return value{t: e.T, comps: comps, owned: true}
}

// --- matrix forms ---------------------------------------------------------

// Matrices are column-major: lane index = column*rows + row.

func (f *funcEmitter) emitMatVec(e *sem.BinExpr) value {
	m := f.emitExpr(e.Left)
	v := f.emitExpr(e.Right)
	mt := e.Left.Type()
	cols, rows := int(mt.Size), int(mt.MatRows)
	out := f.allocLanes(f.laneKinds(e.T))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			f.code.LocalGet(m.comps[c*rows+r])
			f.code.LocalGet(v.comps[c])
			f.code.Op(OpF32Mul)
			if c > 0 {
				f.code.Op(OpF32Add)
			}
		}
		f.code.LocalSet(out[r])
	}
	return value{t: e.T, comps: out, owned: true}
}

func (f *funcEmitter) emitVecMat(e *sem.BinExpr) value {
	v := f.emitExpr(e.Left)
	m := f.emitExpr(e.Right)
	mt := e.Right.Type()
	cols, rows := int(mt.Size), int(mt.MatRows)
	out := f.allocLanes(f.laneKinds(e.T))
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			f.code.LocalGet(v.comps[r])
			f.code.LocalGet(m.comps[c*rows+r])
			f.code.Op(OpF32Mul)
			if r > 0 {
				f.code.Op(OpF32Add)
			}
		}
		f.code.LocalSet(out[c])
	}
	return value{t: e.T, comps: out, owned: true}
}

func (f *funcEmitter) emitMatMat(e *sem.BinExpr) value {
	a := f.emitExpr(e.Left)
	b := f.emitExpr(e.Right)
	mt := e.T
	n, rows := int(mt.Size), int(mt.MatRows)
	out := f.allocLanes(f.laneKinds(mt))
	for c := 0; c < n; c++ {
		for r := 0; r < rows; r++ {
			for k := 0; k < n; k++ {
				f.code.LocalGet(a.comps[k*rows+r])
				f.code.LocalGet(b.comps[c*rows+k])
				f.code.Op(OpF32Mul)
				if k > 0 {
					f.code.Op(OpF32Add)
				}
			}
			f.code.LocalSet(out[c*rows+r])
		}
	}
	return value{t: mt, comps: out, owned: true}
}
