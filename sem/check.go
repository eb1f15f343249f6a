package sem

import (
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/glsl"
)

// Checker walks a parsed glsl.Module and produces a typed Program.
// Errors are collected, not returned on first failure, so one bad
// shader reports as many of its problems as possible.
type Checker struct {
	kind  ShaderKind
	prog  *Program
	diags diag.Diagnostics

	consts map[string]*ConstExpr // folded global consts
	funcs  map[string]int        // name -> index into prog.Symbols.Functions

	// Current function state.
	cur       *Function
	scopes    []map[string]*LocalVar
	loopDepth int
}

// Check type-checks a parsed module for the given shader stage. The
// returned Diagnostics carry every TypeError found; the Program is
// usable only when HasErrors() is false.
func Check(module *glsl.Module, kind ShaderKind) (*Program, diag.Diagnostics) {
	c := &Checker{
		kind: kind,
		prog: &Program{
			Kind:    kind,
			Structs: make(map[string]*StructInfo),
		},
		consts: make(map[string]*ConstExpr),
		funcs:  make(map[string]int),
	}

	for _, s := range module.Structs {
		c.checkStruct(s)
	}
	for _, g := range module.Globals {
		c.checkGlobal(g)
	}

	// Collect signatures first so calls may reference functions
	// declared later in the source.
	for _, f := range module.Functions {
		c.collectFunction(f)
	}
	for _, f := range module.Functions {
		c.checkFunctionBody(f)
	}

	if _, ok := c.funcs["main"]; !ok {
		c.errf(diag.Span{}, "no main() function declared")
	}

	return c.prog, c.diags
}

func (c *Checker) errf(span diag.Span, format string, args ...interface{}) {
	c.diags.Addf(diag.KindType, span, format, args...)
}

func (c *Checker) unsupportedf(span diag.Span, format string, args ...interface{}) {
	c.diags.Addf(diag.KindUnsupported, span, format, args...)
}

// resolveType resolves a syntactic type reference to a sem.Type.
func (c *Checker) resolveType(t *glsl.TypeExpr) (Type, bool) {
	base, ok := builtinTypeNames[t.Name]
	if !ok {
		if _, isStruct := c.prog.Structs[t.Name]; isStruct {
			base = Type{Tag: TagStruct, StructName: t.Name}
		} else {
			c.errf(t.Span, "unknown type %q", t.Name)
			return TVoid, false
		}
	}
	if t.ArraySize != nil {
		if *t.ArraySize <= 0 {
			c.errf(t.Span, "array size must be positive, got %d", *t.ArraySize)
			return TVoid, false
		}
		return Array(base, *t.ArraySize), true
	}
	return base, true
}

func (c *Checker) checkStruct(s *glsl.StructDecl) {
	if _, dup := c.prog.Structs[s.Name]; dup {
		c.errf(s.Span, "struct %q redeclared", s.Name)
		return
	}
	info := &StructInfo{Name: s.Name}
	for _, m := range s.Members {
		mt, ok := c.resolveType(m.Type)
		if !ok {
			continue
		}
		if mt.IsSampler() {
			c.errf(m.Span, "opaque type %s cannot be a struct member", mt)
			continue
		}
		info.Members = append(info.Members, StructField{Name: m.Name, Type: mt})
	}
	c.prog.Structs[s.Name] = info
	c.prog.StructOrder = append(c.prog.StructOrder, s.Name)
}

func (c *Checker) checkGlobal(g *glsl.VarDecl) {
	t, ok := c.resolveType(g.Type)
	if !ok {
		return
	}
	switch g.Qualifiers.Storage {
	case "in":
		if c.kind == Vertex {
			c.checkAttribute(g, t)
		} else {
			c.checkVarying(g, t, "in")
		}
	case "out":
		if c.kind == Vertex {
			c.checkVarying(g, t, "out")
		} else {
			c.checkFragOutput(g, t)
		}
	case "uniform":
		c.checkUniform(g, t)
	case "const":
		c.checkGlobalConst(g, t)
	default:
		c.unsupportedf(g.Span, "global variable %q must have a storage qualifier (in, out, uniform or const)", g.Name)
	}
}

func (c *Checker) checkAttribute(g *glsl.VarDecl, t Type) {
	if !(t.IsScalar() || t.IsVector()) || t.Scalar == Bool {
		c.unsupportedf(g.Span, "attribute %q has unsupported type %s (scalar and vector attributes only)", g.Name, t)
		return
	}
	attr := Attribute{Name: g.Name, Type: t, Location: -1}
	if lq := g.Qualifiers.Layout; lq != nil && lq.HasLocation {
		attr.Location = *lq.Location
		attr.Explicit = true
	}
	if _, dup := c.prog.Symbols.FindAttribute(g.Name); dup {
		c.errf(g.Span, "attribute %q redeclared", g.Name)
		return
	}
	c.prog.Symbols.Attributes = append(c.prog.Symbols.Attributes, attr)
}

func (c *Checker) checkVarying(g *glsl.VarDecl, t Type, direction string) {
	if !(t.IsScalar() || t.IsVector()) {
		c.unsupportedf(g.Span, "varying %q has unsupported type %s (scalar and vector varyings only)", g.Name, t)
		return
	}
	interp := InterpSmooth
	switch g.Qualifiers.Interpolation {
	case "flat":
		interp = InterpFlat
	case "", "smooth", "centroid":
	}
	// Integer (and bool, which lowers to i32) varyings cannot be
	// interpolated; they must be declared flat.
	if (t.IsInteger() || t.Scalar == Bool) && interp != InterpFlat {
		c.errf(g.Span, "integer varying %q must be qualified flat", g.Name)
		return
	}
	v := Varying{Name: g.Name, Type: t, Interpolation: interp, Direction: direction, Location: -1}
	if lq := g.Qualifiers.Layout; lq != nil && lq.HasLocation {
		v.Location = *lq.Location
		v.Explicit = true
	}
	if _, dup := c.prog.Symbols.FindVarying(g.Name); dup {
		c.errf(g.Span, "varying %q redeclared", g.Name)
		return
	}
	c.prog.Symbols.Varyings = append(c.prog.Symbols.Varyings, v)
}

func (c *Checker) checkFragOutput(g *glsl.VarDecl, t Type) {
	if !(t.IsScalar() || t.IsVector()) || t.Scalar == Bool {
		c.errf(g.Span, "fragment output %q has invalid type %s", g.Name, t)
		return
	}
	if c.prog.FragColor != "" {
		c.unsupportedf(g.Span, "multiple fragment outputs are not supported (%q already declared)", c.prog.FragColor)
		return
	}
	c.prog.FragColor = g.Name
	c.prog.Symbols.Varyings = append(c.prog.Symbols.Varyings, Varying{
		Name: g.Name, Type: t, Direction: "out", Location: -1,
	})
}

func (c *Checker) checkUniform(g *glsl.VarDecl, t Type) {
	u := Uniform{Name: g.Name, Type: t}
	switch {
	case t.IsSampler():
		u.Kind = UniformOpaque
		c.noteSampler(t.SamplerDim)
	case t.IsArray():
		elem := *t.Elem
		if !(elem.IsScalar() || elem.IsVector() || elem.IsMatrix()) {
			c.unsupportedf(g.Span, "uniform array %q of %s is not supported", g.Name, elem)
			return
		}
		u.ArrayLen = t.ArrayLen
	case t.IsScalar() || t.IsVector() || t.IsMatrix():
	default:
		c.unsupportedf(g.Span, "uniform %q has unsupported type %s", g.Name, t)
		return
	}
	if _, dup := c.prog.Symbols.FindUniform(g.Name); dup {
		c.errf(g.Span, "uniform %q redeclared", g.Name)
		return
	}
	c.prog.Symbols.Uniforms = append(c.prog.Symbols.Uniforms, u)
}

func (c *Checker) noteSampler(dim SamplerDim) {
	if dim == Sampler2D {
		c.prog.UsesSampler2D = true
	} else {
		c.prog.UsesSampler3D = true
	}
}

func (c *Checker) checkGlobalConst(g *glsl.VarDecl, t Type) {
	if g.Init == nil {
		c.errf(g.Span, "const %q requires an initializer", g.Name)
		return
	}
	init := c.checkExpr(g.Init)
	if init == nil {
		return
	}
	init, ok := c.convert(init, t)
	if !ok {
		c.errf(g.Span, "cannot initialize const %s %q from %s", t, g.Name, c.typeOf(g.Init))
		return
	}
	folded, ok := foldScalar(init)
	if !ok {
		// Non-scalar or non-foldable global consts are rejected; only
		// scalar consts are supported, so this is a supported-subset
		// restriction, not a type error.
		c.unsupportedf(g.Span, "global const %q must be a compile-time scalar constant", g.Name)
		return
	}
	c.consts[g.Name] = folded
}

// typeOf re-checks an AST expression solely to print its type in an
// error message; returns void when the expression itself is bad.
func (c *Checker) typeOf(e glsl.Expr) Type {
	saved := len(c.diags)
	t := TVoid
	if te := c.checkExpr(e); te != nil {
		t = te.Type()
	}
	c.diags = c.diags[:saved]
	return t
}

// --- Functions ------------------------------------------------------------

func (c *Checker) collectFunction(f *glsl.FunctionDecl) {
	if _, dup := c.funcs[f.Name]; dup {
		c.errf(f.Span, "function %q redeclared (overloading is not supported)", f.Name)
		return
	}
	if _, clash := builtinFuncs[f.Name]; clash || f.Name == "texture" {
		c.errf(f.Span, "function %q shadows a built-in function", f.Name)
		return
	}
	ret, _ := c.resolveType(f.ReturnType)
	fn := Function{Name: f.Name, ReturnType: ret, IsMain: f.Name == "main"}
	for _, p := range f.Params {
		switch p.Qualifier {
		case "out", "inout":
			c.unsupportedf(p.Span, "out/inout parameters are not supported (parameter %q)", p.Name)
			return
		}
		pt, ok := c.resolveType(p.Type)
		if !ok {
			return
		}
		if pt.IsVoid() {
			c.errf(p.Span, "void parameter %q is not allowed", p.Name)
			return
		}
		if pt.IsSampler() {
			c.unsupportedf(p.Span, "sampler parameters are not supported (parameter %q)", p.Name)
			return
		}
		fn.Params = append(fn.Params, Param{Name: p.Name, Type: pt})
	}
	if fn.IsMain && (!ret.IsVoid() || len(fn.Params) != 0) {
		c.errf(f.Span, "main must be declared as void main()")
		return
	}
	c.funcs[f.Name] = len(c.prog.Symbols.Functions)
	c.prog.Symbols.Functions = append(c.prog.Symbols.Functions, fn)
}

func (c *Checker) checkFunctionBody(f *glsl.FunctionDecl) {
	idx, ok := c.funcs[f.Name]
	if !ok {
		return
	}
	fn := &c.prog.Symbols.Functions[idx]
	c.cur = fn
	c.scopes = []map[string]*LocalVar{{}}
	c.loopDepth = 0
	for i, p := range fn.Params {
		c.declare(&LocalVar{Name: p.Name, Type: p.Type, Index: i, IsParam: true}, f.Params[i].Span)
	}
	fn.Body = c.checkBlock(f.Body)
	c.cur = nil
	c.scopes = nil
}

func (c *Checker) pushScope() { c.scopes = append(c.scopes, map[string]*LocalVar{}) }
func (c *Checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declare(v *LocalVar, span diag.Span) {
	top := c.scopes[len(c.scopes)-1]
	if _, dup := top[v.Name]; dup {
		c.errf(span, "%q redeclared in this scope", v.Name)
		return
	}
	top[v.Name] = v
}

func (c *Checker) lookupLocal(name string) (*LocalVar, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// --- Statements -----------------------------------------------------------

func (c *Checker) checkBlock(b *glsl.BlockStmt) *Block {
	out := &Block{}
	for _, s := range b.Statements {
		if ts := c.checkStmt(s); ts != nil {
			out.Stmts = append(out.Stmts, ts)
		}
	}
	return out
}

func (c *Checker) checkStmt(s glsl.Stmt) Stmt {
	switch s := s.(type) {
	case *glsl.BlockStmt:
		c.pushScope()
		blk := c.checkBlock(s)
		c.popScope()
		return &NestedBlock{Block: blk}
	case *glsl.VarDecl:
		return c.checkLocalDecl(s)
	case *glsl.AssignStmt:
		return c.checkAssign(s)
	case *glsl.IfStmt:
		return c.checkIf(s)
	case *glsl.ForStmt:
		return c.checkFor(s)
	case *glsl.WhileStmt:
		return c.checkWhile(s)
	case *glsl.ReturnStmt:
		return c.checkReturn(s)
	case *glsl.BreakStmt:
		if c.loopDepth == 0 {
			c.errf(s.Span, "break outside of loop")
			return nil
		}
		return &BreakStmt{}
	case *glsl.ContinueStmt:
		if c.loopDepth == 0 {
			c.errf(s.Span, "continue outside of loop")
			return nil
		}
		return &ContinueStmt{}
	case *glsl.DiscardStmt:
		if c.kind != Fragment {
			c.errf(s.Span, "discard is only valid in fragment shaders")
			return nil
		}
		if !c.cur.IsMain {
			c.unsupportedf(s.Span, "discard outside main() is not supported")
			return nil
		}
		return &DiscardStmt{}
	case *glsl.ExprStmt:
		return c.checkExprStmt(s)
	default:
		c.errf(s.Pos(), "unsupported statement")
		return nil
	}
}

func (c *Checker) checkLocalDecl(d *glsl.VarDecl) Stmt {
	t, ok := c.resolveType(d.Type)
	if !ok {
		return nil
	}
	if t.IsVoid() || t.IsSampler() {
		c.errf(d.Span, "variable %q cannot have type %s", d.Name, t)
		return nil
	}
	var init Expr
	if d.Init != nil {
		init = c.checkExpr(d.Init)
		if init == nil {
			return nil
		}
		init, ok = c.convert(init, t)
		if !ok {
			c.errf(d.Span, "cannot initialize %s %q from %s", t, d.Name, c.typeOf(d.Init))
			return nil
		}
	}
	if d.Qualifiers.Storage == "const" && init != nil {
		if folded, ok := foldScalar(init); ok {
			init = folded
		}
	}
	v := &LocalVar{Name: d.Name, Type: t, Index: len(c.cur.Locals)}
	c.cur.Locals = append(c.cur.Locals, v)
	c.declare(v, d.Span)
	return &DeclStmt{Local: v, Init: init}
}

func (c *Checker) checkAssign(a *glsl.AssignStmt) Stmt {
	lhs := c.checkExpr(a.Left)
	if lhs == nil {
		return nil
	}
	if !c.checkAddressable(lhs, a.Span) {
		return nil
	}
	rhs := c.checkExpr(a.Right)
	if rhs == nil {
		return nil
	}
	if a.Op != glsl.TokenEqual {
		// Compound assignment desugars to lhs = lhs <op> rhs.
		op, ok := compoundOp(a.Op)
		if !ok {
			c.errf(a.Span, "unsupported compound assignment operator")
			return nil
		}
		combined := c.binary(op, lhs, rhs, a.Span)
		if combined == nil {
			return nil
		}
		rhs = combined
	}
	rhs, ok := c.convert(rhs, lhs.Type())
	if !ok {
		c.errf(a.Span, "cannot assign %s to %s", rhs.Type(), lhs.Type())
		return nil
	}
	return &AssignStmt{LHS: lhs, RHS: rhs}
}

func compoundOp(tok glsl.TokenKind) (BinOp, bool) {
	switch tok {
	case glsl.TokenPlusEqual:
		return OpAdd, true
	case glsl.TokenMinusEqual:
		return OpSub, true
	case glsl.TokenStarEqual:
		return OpMul, true
	case glsl.TokenSlashEqual:
		return OpDiv, true
	case glsl.TokenPercentEqual:
		return OpMod, true
	case glsl.TokenAmpEqual:
		return OpBitAnd, true
	case glsl.TokenPipeEqual:
		return OpBitOr, true
	case glsl.TokenCaretEqual:
		return OpBitXor, true
	}
	return 0, false
}

// checkAddressable validates that a typed expression can be stored to.
func (c *Checker) checkAddressable(e Expr, span diag.Span) bool {
	switch e := e.(type) {
	case *VarRef:
		switch e.Class {
		case ClassLocal, ClassParam, ClassOutput:
			return true
		case ClassVarying:
			v, _ := c.prog.Symbols.FindVarying(e.Name)
			if c.kind == Vertex && v != nil && v.Direction == "out" {
				return true
			}
			c.errf(span, "varying %q is read-only in this stage", e.Name)
			return false
		case ClassBuiltin:
			info := builtinVars[e.Name]
			if info.writable {
				return true
			}
			c.errf(span, "%s is read-only", e.Name)
			return false
		case ClassAttribute:
			c.errf(span, "attribute %q is read-only", e.Name)
			return false
		case ClassUniform:
			c.errf(span, "uniform %q is read-only", e.Name)
			return false
		}
	case *SwizzleExpr:
		// Swizzle stores require distinct lanes (v.xx = ... is invalid).
		seen := map[int]bool{}
		for _, l := range e.Lanes {
			if seen[l] {
				c.errf(span, "swizzle store repeats a component")
				return false
			}
			seen[l] = true
		}
		return c.checkAddressable(e.Base, span)
	case *IndexExpr:
		return c.checkAddressable(e.Base, span)
	case *FieldAccessExpr:
		return c.checkAddressable(e.Base, span)
	}
	c.errf(span, "expression is not assignable")
	return false
}

func (c *Checker) checkIf(s *glsl.IfStmt) Stmt {
	cond := c.checkCond(s.Condition)
	c.pushScope()
	then := c.checkBlock(s.Then)
	c.popScope()
	var els *Block
	if s.Else != nil {
		c.pushScope()
		switch e := s.Else.(type) {
		case *glsl.BlockStmt:
			els = c.checkBlock(e)
		default:
			els = &Block{}
			if ts := c.checkStmt(s.Else); ts != nil {
				els.Stmts = append(els.Stmts, ts)
			}
		}
		c.popScope()
	}
	if cond == nil {
		return nil
	}
	return &IfStmt{Cond: cond, Then: then, Else: els}
}

func (c *Checker) checkCond(e glsl.Expr) Expr {
	cond := c.checkExpr(e)
	if cond == nil {
		return nil
	}
	if !(cond.Type().IsScalar() && cond.Type().Scalar == Bool) {
		c.errf(e.Pos(), "condition must be a boolean scalar, got %s", cond.Type())
		return nil
	}
	return cond
}

func (c *Checker) checkFor(s *glsl.ForStmt) Stmt {
	c.pushScope()
	defer c.popScope()

	var init Stmt
	if s.Init != nil {
		init = c.checkStmt(s.Init)
	}
	var cond Expr
	if s.Condition != nil {
		cond = c.checkCond(s.Condition)
		if cond == nil {
			return nil
		}
	}
	var update Stmt
	if s.Update != nil {
		update = c.checkUpdateExpr(s.Update)
	}
	c.loopDepth++
	body := c.checkBlock(s.Body)
	c.loopDepth--
	return &ForStmt{Init: init, Cond: cond, Update: update, Body: body}
}

// checkUpdateExpr handles the for-loop update clause, which is an
// expression syntactically but almost always i++/--i in practice;
// increment/decrement desugar to an assignment statement.
func (c *Checker) checkUpdateExpr(e glsl.Expr) Stmt {
	if inc := c.tryIncDec(e); inc != nil {
		return inc
	}
	te := c.checkExpr(e)
	if te == nil {
		return nil
	}
	if call, ok := te.(*CallExpr); ok && call.T.IsVoid() {
		return &ExprStmt{E: call}
	}
	c.unsupportedf(e.Pos(), "for-loop update must be an increment, decrement or void call")
	return nil
}

// tryIncDec desugars x++ / ++x / x-- / --x into x = x +/- 1.
func (c *Checker) tryIncDec(e glsl.Expr) Stmt {
	var operand glsl.Expr
	var tok glsl.TokenKind
	switch e := e.(type) {
	case *glsl.PostfixExpr:
		operand, tok = e.Operand, e.Op
	case *glsl.UnaryExpr:
		if e.Op != glsl.TokenPlusPlus && e.Op != glsl.TokenMinusMinus {
			return nil
		}
		operand, tok = e.Operand, e.Op
	default:
		return nil
	}
	lhs := c.checkExpr(operand)
	if lhs == nil {
		return nil
	}
	if !c.checkAddressable(lhs, e.Pos()) {
		return nil
	}
	t := lhs.Type()
	if !t.IsScalar() || t.Scalar == Bool {
		c.errf(e.Pos(), "++/-- requires a numeric scalar, got %s", t)
		return nil
	}
	one := &ConstExpr{T: t, Int: 1, Float: 1}
	op := OpAdd
	if tok == glsl.TokenMinusMinus {
		op = OpSub
	}
	return &AssignStmt{LHS: lhs, RHS: &BinExpr{T: t, Op: op, Left: lhs, Right: one}}
}

func (c *Checker) checkWhile(s *glsl.WhileStmt) Stmt {
	cond := c.checkCond(s.Condition)
	c.pushScope()
	c.loopDepth++
	body := c.checkBlock(s.Body)
	c.loopDepth--
	c.popScope()
	if cond == nil {
		return nil
	}
	return &WhileStmt{Cond: cond, Body: body}
}

func (c *Checker) checkReturn(s *glsl.ReturnStmt) Stmt {
	ret := c.cur.ReturnType
	if s.Value == nil {
		if !ret.IsVoid() {
			c.errf(s.Span, "missing return value in function returning %s", ret)
			return nil
		}
		return &ReturnStmt{}
	}
	if ret.IsVoid() {
		c.errf(s.Span, "void function cannot return a value")
		return nil
	}
	v := c.checkExpr(s.Value)
	if v == nil {
		return nil
	}
	v, ok := c.convert(v, ret)
	if !ok {
		c.errf(s.Span, "cannot return %s from function returning %s", v.Type(), ret)
		return nil
	}
	return &ReturnStmt{Value: v}
}

func (c *Checker) checkExprStmt(s *glsl.ExprStmt) Stmt {
	if inc := c.tryIncDec(s.Expr); inc != nil {
		return inc
	}
	e := c.checkExpr(s.Expr)
	if e == nil {
		return nil
	}
	if _, isCall := e.(*CallExpr); !isCall {
		c.errf(s.Span, "expression statement has no effect")
		return nil
	}
	return &ExprStmt{E: e}
}
