package wasmgen

import (
	"github.com/gogpu/webglshader/abi"
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/layout"
	"github.com/gogpu/webglshader/sem"
)

// Statement emission. Structured control flow tracks absolute block
// nesting levels so break/continue can compute relative branch depths.

func (f *funcEmitter) emitBlock(b *sem.Block) {
	for _, s := range b.Stmts {
		f.emitStmt(s)
	}
}

func (f *funcEmitter) emitStmt(s sem.Stmt) {
	switch s := s.(type) {
	case *sem.DeclStmt:
		f.emitDecl(s)
	case *sem.AssignStmt:
		f.emitAssign(s)
	case *sem.IfStmt:
		f.emitIf(s)
	case *sem.ForStmt:
		f.emitFor(s)
	case *sem.WhileStmt:
		f.emitWhile(s)
	case *sem.ReturnStmt:
		f.emitReturn(s)
	case *sem.BreakStmt:
		loop := f.loops[len(f.loops)-1]
		f.code.Br(f.blockDepth - loop.breakLevel)
	case *sem.ContinueStmt:
		loop := f.loops[len(f.loops)-1]
		f.code.Br(f.blockDepth - loop.contLevel)
	case *sem.DiscardStmt:
		f.code.GlobalGet(GlobalPrivateBase)
		f.code.I32Const(1)
		f.code.Store(OpI32Store, layout.DiscardFlagOffset)
		f.emitEpilogue()
		f.code.Op(OpReturn)
	case *sem.ExprStmt:
		f.emitExpr(s.E) // results, if any, land in dead locals
	case *sem.NestedBlock:
		f.emitBlock(s.Block)
	default:
		f.fail(diag.Span{}, "unsupported statement in code emission")
	}
}

func (f *funcEmitter) emitDecl(s *sem.DeclStmt) {
	lv := s.Local
	if off, framed := f.frameSlots[lv.Index]; framed {
		if s.Init != nil {
			v := f.emitExpr(s.Init)
			kinds := f.laneKinds(lv.Type)
			for i, k := range kinds {
				f.code.LocalGet(f.frameBase)
				f.code.LocalGet(v.comps[i])
				f.code.Store(storeOp(k), off+i*4)
			}
		}
		return
	}
	if s.Init != nil {
		v := f.emitExpr(s.Init)
		// The init is always copied into fresh locals owned by the
		// variable; a VarRef init aliases another variable's locals.
		comps := f.copyComps(v)
		f.localSlots[lv.Index] = comps
		return
	}
	// Zero-initialized: WASM locals start at zero.
	f.localSlots[lv.Index] = f.allocLanes(f.laneKinds(lv.Type))
}

// copyComps materializes a value into locals owned by the caller.
func (f *funcEmitter) copyComps(v value) []int {
	kinds := f.laneKinds(v.t)
	out := make([]int, len(v.comps))
	for i := range v.comps {
		out[i] = f.allocLocal(valueTypeOf(kinds[i]))
		f.code.LocalGet(v.comps[i])
		f.code.LocalSet(out[i])
	}
	return out
}

func (f *funcEmitter) emitAssign(s *sem.AssignStmt) {
	rhs := f.emitExpr(s.RHS)
	f.store(s.LHS, rhs)
}

func (f *funcEmitter) emitIf(s *sem.IfStmt) {
	cond := f.emitExpr(s.Cond)
	f.code.LocalGet(cond.comps[0])
	f.code.If()
	f.blockDepth++
	f.emitBlock(s.Then)
	if s.Else != nil {
		f.code.Else()
		f.emitBlock(s.Else)
	}
	f.code.End()
	f.blockDepth--
}

// emitFor lowers a for loop as:
//
//	init
//	block $exit
//	  loop $top
//	    cond; eqz; br_if $exit
//	    block $cont
//	      body           (continue -> br $cont)
//	    end
//	    update
//	    br $top
//	  end
//	end
func (f *funcEmitter) emitFor(s *sem.ForStmt) {
	if s.Init != nil {
		f.emitStmt(s.Init)
	}
	f.code.Block()
	f.blockDepth++
	exitLevel := f.blockDepth

	f.code.Loop()
	f.blockDepth++
	topLevel := f.blockDepth

	if s.Cond != nil {
		cond := f.emitExpr(s.Cond)
		f.code.LocalGet(cond.comps[0])
		f.code.Op(OpI32Eqz)
		f.code.BrIf(f.blockDepth - exitLevel)
	}

	f.code.Block()
	f.blockDepth++
	f.loops = append(f.loops, loopCtx{breakLevel: exitLevel, contLevel: f.blockDepth})
	f.emitBlock(s.Body)
	f.loops = f.loops[:len(f.loops)-1]
	f.code.End()
	f.blockDepth--

	if s.Update != nil {
		f.emitStmt(s.Update)
	}
	f.code.Br(f.blockDepth - topLevel)
	f.code.End()
	f.blockDepth--
	f.code.End()
	f.blockDepth--
}

func (f *funcEmitter) emitWhile(s *sem.WhileStmt) {
	f.code.Block()
	f.blockDepth++
	exitLevel := f.blockDepth

	f.code.Loop()
	f.blockDepth++
	topLevel := f.blockDepth

	cond := f.emitExpr(s.Cond)
	f.code.LocalGet(cond.comps[0])
	f.code.Op(OpI32Eqz)
	f.code.BrIf(f.blockDepth - exitLevel)

	f.loops = append(f.loops, loopCtx{breakLevel: exitLevel, contLevel: topLevel})
	f.emitBlock(s.Body)
	f.loops = f.loops[:len(f.loops)-1]

	f.code.Br(f.blockDepth - topLevel)
	f.code.End()
	f.blockDepth--
	f.code.End()
	f.blockDepth--
}

func (f *funcEmitter) emitReturn(s *sem.ReturnStmt) {
	if s.Value == nil {
		f.emitEpilogue()
		f.code.Op(OpReturn)
		return
	}
	v := f.emitExpr(s.Value)
	f.emitEpilogue()
	if f.fabi.Return.Class == abi.ClassFramed {
		kinds := f.laneKinds(f.fabi.Return.Type)
		for i, k := range kinds {
			f.code.LocalGet(0) // sret pointer
			f.code.LocalGet(v.comps[i])
			f.code.Store(storeOp(k), i*4)
		}
		f.code.Op(OpReturn)
		return
	}
	for _, c := range v.comps {
		f.code.LocalGet(c)
	}
	f.code.Op(OpReturn)
}
