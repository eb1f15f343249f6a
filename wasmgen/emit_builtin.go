package wasmgen

import (
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/sem"
)

// Built-in function lowering. Transcendentals call the fixed env.*
// import set; everything else expands to inline opcode sequences,
// per-component.

func (f *funcEmitter) emitBuiltin(e *sem.BuiltinCallExpr) value {
	args := make([]value, len(e.Args))
	for i, a := range e.Args {
		args[i] = f.emitExpr(a)
	}

	switch e.Fn {
	case sem.FnDot:
		return f.emitDot(args[0], args[1])
	case sem.FnLength:
		return f.emitLength(args[0])
	case sem.FnDistance:
		return f.emitDistance(args[0], args[1])
	case sem.FnNormalize:
		return f.emitNormalize(e.T, args[0])
	case sem.FnCross:
		return f.emitCross(e.T, args[0], args[1])
	case sem.FnReflect:
		return f.emitReflect(e.T, args[0], args[1])
	case sem.FnSmoothstep:
		return f.emitSmoothstep(e.T, args)
	}

	// Componentwise families.
	kinds := f.laneKinds(e.T)
	out := f.allocLanes(kinds)
	intKind := e.T.Scalar != sem.Float
	for i := range out {
		get := func(a value) { f.code.LocalGet(lane(a, i)) }
		switch e.Fn {
		case sem.FnSin, sem.FnCos, sem.FnTan, sem.FnAsin, sem.FnAcos, sem.FnAtan,
			sem.FnExp, sem.FnExp2, sem.FnLog, sem.FnLog2,
			sem.FnSinh, sem.FnCosh, sem.FnTanh, sem.FnAsinh, sem.FnAcosh, sem.FnAtanh:
			get(args[0])
			f.code.Call(f.e.mathFuncIdx[e.Fn])
		case sem.FnAtan2, sem.FnPow:
			get(args[0])
			get(args[1])
			f.code.Call(f.e.mathFuncIdx[e.Fn])
		case sem.FnSqrt:
			get(args[0])
			f.code.Op(OpF32Sqrt)
		case sem.FnInverseSqrt:
			f.code.F32Const(1)
			get(args[0])
			f.code.Op(OpF32Sqrt)
			f.code.Op(OpF32Div)
		case sem.FnAbs:
			if intKind {
				// select(-x, x, x < 0)
				f.code.I32Const(0)
				get(args[0])
				f.code.Op(OpI32Sub)
				get(args[0])
				get(args[0])
				f.code.I32Const(0)
				f.code.Op(OpI32LtS)
				f.code.Op(OpSelect)
			} else {
				get(args[0])
				f.code.Op(OpF32Abs)
			}
		case sem.FnSign:
			f.emitSignLane(args[0], i, intKind)
		case sem.FnFloor:
			get(args[0])
			f.code.Op(OpF32Floor)
		case sem.FnCeil:
			get(args[0])
			f.code.Op(OpF32Ceil)
		case sem.FnTrunc:
			get(args[0])
			f.code.Op(OpF32Trunc)
		case sem.FnFract:
			get(args[0])
			get(args[0])
			f.code.Op(OpF32Floor)
			f.code.Op(OpF32Sub)
		case sem.FnMin, sem.FnMax:
			f.emitMinMaxLane(e, args, i, intKind)
		case sem.FnClamp:
			// min(max(x, lo), hi)
			f.emitMinMax2(args[0], args[1], i, intKind, e.T.Scalar, false)
			f.emitMinMaxTop(args[2], i, intKind, e.T.Scalar, true)
		case sem.FnMix:
			// x*(1-a) + y*a
			get(args[0])
			f.code.F32Const(1)
			get(args[2])
			f.code.Op(OpF32Sub)
			f.code.Op(OpF32Mul)
			get(args[1])
			get(args[2])
			f.code.Op(OpF32Mul)
			f.code.Op(OpF32Add)
		case sem.FnStep:
			// x < edge ? 0 : 1
			f.code.F32Const(0)
			f.code.F32Const(1)
			get(args[1])
			get(args[0])
			f.code.Op(OpF32Lt)
			f.code.Op(OpSelect)
		case sem.FnMod:
			// x - y*floor(x/y)
			get(args[0])
			get(args[1])
			get(args[0])
			get(args[1])
			f.code.Op(OpF32Div)
			f.code.Op(OpF32Floor)
			f.code.Op(OpF32Mul)
			f.code.Op(OpF32Sub)
		default:
			f.fail(diag.Span{}, "unsupported builtin in code emission")
		}
		f.code.LocalSet(out[i])
	}
	return value{t: e.T, comps: out, owned: true}
}

// emitSignLane pushes sign(x) for one lane.
func (f *funcEmitter) emitSignLane(a value, i int, intKind bool) {
	x := lane(a, i)
	if intKind {
		f.code.I32Const(1)
		f.code.I32Const(-1)
		f.code.I32Const(0)
		f.code.LocalGet(x)
		f.code.I32Const(0)
		f.code.Op(OpI32LtS)
		f.code.Op(OpSelect) // x<0 ? -1 : 0
		f.code.LocalGet(x)
		f.code.I32Const(0)
		f.code.Op(OpI32GtS)
		f.code.Op(OpSelect) // x>0 ? 1 : (x<0 ? -1 : 0)
		return
	}
	f.code.F32Const(1)
	f.code.F32Const(-1)
	f.code.F32Const(0)
	f.code.LocalGet(x)
	f.code.F32Const(0)
	f.code.Op(OpF32Lt)
	f.code.Op(OpSelect)
	f.code.LocalGet(x)
	f.code.F32Const(0)
	f.code.Op(OpF32Gt)
	f.code.Op(OpSelect)
}

// emitMinMaxLane pushes min/max of args[0], args[1] for one lane.
func (f *funcEmitter) emitMinMaxLane(e *sem.BuiltinCallExpr, args []value, i int, intKind bool) {
	f.emitMinMax2(args[0], args[1], i, intKind, e.T.Scalar, e.Fn == sem.FnMin)
}

// emitMinMax2 pushes min or max of two value lanes.
func (f *funcEmitter) emitMinMax2(a, b value, i int, intKind bool, k sem.ScalarKind, isMin bool) {
	if !intKind {
		f.code.LocalGet(lane(a, i))
		f.code.LocalGet(lane(b, i))
		if isMin {
			f.code.Op(OpF32Min)
		} else {
			f.code.Op(OpF32Max)
		}
		return
	}
	lt := OpI32LtS
	if k == sem.Uint {
		lt = OpI32LtU
	}
	f.code.LocalGet(lane(a, i))
	f.code.LocalGet(lane(b, i))
	f.code.LocalGet(lane(a, i))
	f.code.LocalGet(lane(b, i))
	f.code.Op(lt)
	if !isMin {
		f.code.Op(OpI32Eqz)
	}
	f.code.Op(OpSelect)
}

// emitMinMaxTop combines the value already on the stack with one more
// operand lane (used by clamp, where min/max chain).
func (f *funcEmitter) emitMinMaxTop(b value, i int, intKind bool, k sem.ScalarKind, isMin bool) {
	if !intKind {
		f.code.LocalGet(lane(b, i))
		if isMin {
			f.code.Op(OpF32Min)
		} else {
			f.code.Op(OpF32Max)
		}
		return
	}
	// Integer clamp needs the intermediate in a local to compare.
	tmp := f.allocLocal(ValI32)
	f.code.LocalSet(tmp)
	lt := OpI32LtS
	if k == sem.Uint {
		lt = OpI32LtU
	}
	f.code.LocalGet(tmp)
	f.code.LocalGet(lane(b, i))
	f.code.LocalGet(tmp)
	f.code.LocalGet(lane(b, i))
	f.code.Op(lt)
	if !isMin {
		f.code.Op(OpI32Eqz)
	}
	f.code.Op(OpSelect)
}

func (f *funcEmitter) emitDot(a, b value) value {
	for i := range a.comps {
		f.code.LocalGet(a.comps[i])
		f.code.LocalGet(lane(b, i))
		f.code.Op(OpF32Mul)
		if i > 0 {
			f.code.Op(OpF32Add)
		}
	}
	out := f.allocLocal(ValF32)
	f.code.LocalSet(out)
	return value{t: sem.TFloat, comps: []int{out}, owned: true}
}

func (f *funcEmitter) emitLength(a value) value {
	d := f.emitDot(a, a)
	out := f.allocLocal(ValF32)
	f.code.LocalGet(d.comps[0])
	f.code.Op(OpF32Sqrt)
	f.code.LocalSet(out)
	return value{t: sem.TFloat, comps: []int{out}, owned: true}
}

func (f *funcEmitter) emitDistance(a, b value) value {
	diff := f.allocLanes(f.laneKinds(a.t))
	for i := range diff {
		f.code.LocalGet(a.comps[i])
		f.code.LocalGet(lane(b, i))
		f.code.Op(OpF32Sub)
		f.code.LocalSet(diff[i])
	}
	return f.emitLength(value{t: a.t, comps: diff, owned: true})
}

func (f *funcEmitter) emitNormalize(t sem.Type, a value) value {
	d := f.emitDot(a, a)
	inv := f.allocLocal(ValF32)
	f.code.F32Const(1)
	f.code.LocalGet(d.comps[0])
	f.code.Op(OpF32Sqrt)
	f.code.Op(OpF32Div)
	f.code.LocalSet(inv)
	out := f.allocLanes(f.laneKinds(t))
	for i := range out {
		f.code.LocalGet(a.comps[i])
		f.code.LocalGet(inv)
		f.code.Op(OpF32Mul)
		f.code.LocalSet(out[i])
	}
	return value{t: t, comps: out, owned: true}
}

func (f *funcEmitter) emitCross(t sem.Type, a, b value) value {
	out := f.allocLanes(f.laneKinds(t))
	// (a1*b2 - a2*b1, a2*b0 - a0*b2, a0*b1 - a1*b0)
	idx := [3][4]int{{1, 2, 2, 1}, {2, 0, 0, 2}, {0, 1, 1, 0}}
	for i, ix := range idx {
		f.code.LocalGet(a.comps[ix[0]])
		f.code.LocalGet(b.comps[ix[1]])
		f.code.Op(OpF32Mul)
		f.code.LocalGet(a.comps[ix[2]])
		f.code.LocalGet(b.comps[ix[3]])
		f.code.Op(OpF32Mul)
		f.code.Op(OpF32Sub)
		f.code.LocalSet(out[i])
	}
	return value{t: t, comps: out, owned: true}
}

func (f *funcEmitter) emitReflect(t sem.Type, i, n value) value {
	d := f.emitDot(n, i)
	twoD := f.allocLocal(ValF32)
	f.code.F32Const(2)
	f.code.LocalGet(d.comps[0])
	f.code.Op(OpF32Mul)
	f.code.LocalSet(twoD)
	out := f.allocLanes(f.laneKinds(t))
	for c := range out {
		f.code.LocalGet(i.comps[c])
		f.code.LocalGet(twoD)
		f.code.LocalGet(n.comps[c])
		f.code.Op(OpF32Mul)
		f.code.Op(OpF32Sub)
		f.code.LocalSet(out[c])
	}
	return value{t: t, comps: out, owned: true}
}

func (f *funcEmitter) emitSmoothstep(t sem.Type, args []value) value {
	kinds := f.laneKinds(t)
	out := f.allocLanes(kinds)
	tl := f.allocLocal(ValF32)
	for i := range out {
		// t = clamp((x - e0) / (e1 - e0), 0, 1)
		f.code.LocalGet(lane(args[2], i))
		f.code.LocalGet(lane(args[0], i))
		f.code.Op(OpF32Sub)
		f.code.LocalGet(lane(args[1], i))
		f.code.LocalGet(lane(args[0], i))
		f.code.Op(OpF32Sub)
		f.code.Op(OpF32Div)
		f.code.F32Const(0)
		f.code.Op(OpF32Max)
		f.code.F32Const(1)
		f.code.Op(OpF32Min)
		f.code.LocalSet(tl)
		// t*t*(3 - 2t)
		f.code.LocalGet(tl)
		f.code.LocalGet(tl)
		f.code.Op(OpF32Mul)
		f.code.F32Const(3)
		f.code.LocalGet(tl)
		f.code.F32Const(2)
		f.code.Op(OpF32Mul)
		f.code.Op(OpF32Sub)
		f.code.Op(OpF32Mul)
		f.code.LocalSet(out[i])
	}
	return value{t: t, comps: out, owned: true}
}
