package sem

import (
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/glsl"
)

// Expression checking. Every method returns a typed Expr or nil after
// recording a diagnostic.

func (c *Checker) checkExpr(e glsl.Expr) Expr {
	switch e := e.(type) {
	case *glsl.IntLiteral:
		return &ConstExpr{T: TInt, Int: e.Value}
	case *glsl.UintLiteral:
		return &ConstExpr{T: TUint, Int: int32(e.Value)}
	case *glsl.FloatLiteral:
		return &ConstExpr{T: TFloat, Float: e.Value}
	case *glsl.BoolLiteral:
		return &ConstExpr{T: TBool, Int: boolToInt(e.Value)}
	case *glsl.Ident:
		return c.checkIdent(e)
	case *glsl.UnaryExpr:
		return c.checkUnary(e)
	case *glsl.PostfixExpr:
		c.unsupportedf(e.Span, "postfix ++/-- is only supported as a statement")
		return nil
	case *glsl.BinaryExpr:
		return c.checkBinary(e)
	case *glsl.TernaryExpr:
		return c.checkTernary(e)
	case *glsl.FieldExpr:
		return c.checkField(e)
	case *glsl.IndexExpr:
		return c.checkIndex(e)
	case *glsl.CallExpr:
		return c.checkCall(e)
	default:
		c.errf(e.Pos(), "unsupported expression")
		return nil
	}
}

func (c *Checker) checkIdent(e *glsl.Ident) Expr {
	if v, ok := c.lookupLocal(e.Name); ok {
		class := ClassLocal
		if v.IsParam {
			class = ClassParam
		}
		return &VarRef{T: v.Type, Class: class, Name: e.Name, Local: v}
	}
	if cv, ok := c.consts[e.Name]; ok {
		return &ConstExpr{T: cv.T, Float: cv.Float, Int: cv.Int}
	}
	if c.kind == Vertex {
		if a, ok := c.prog.Symbols.FindAttribute(e.Name); ok {
			return &VarRef{T: a.Type, Class: ClassAttribute, Name: e.Name}
		}
	}
	if v, ok := c.prog.Symbols.FindVarying(e.Name); ok {
		if c.kind == Fragment && e.Name == c.prog.FragColor {
			return &VarRef{T: v.Type, Class: ClassOutput, Name: e.Name}
		}
		return &VarRef{T: v.Type, Class: ClassVarying, Name: e.Name}
	}
	if u, ok := c.prog.Symbols.FindUniform(e.Name); ok {
		return &VarRef{T: u.Type, Class: ClassUniform, Name: e.Name}
	}
	if info, ok := builtinVars[e.Name]; ok {
		if info.stage != c.kind {
			c.errf(e.Span, "%s is not available in %s shaders", e.Name, c.kind)
			return nil
		}
		return &VarRef{T: info.typ, Class: ClassBuiltin, Name: e.Name, Builtin: info.v}
	}
	c.errf(e.Span, "undeclared identifier %q", e.Name)
	return nil
}

func (c *Checker) checkUnary(e *glsl.UnaryExpr) Expr {
	if e.Op == glsl.TokenPlusPlus || e.Op == glsl.TokenMinusMinus {
		c.unsupportedf(e.Span, "prefix ++/-- is only supported as a statement")
		return nil
	}
	operand := c.checkExpr(e.Operand)
	if operand == nil {
		return nil
	}
	t := operand.Type()
	switch e.Op {
	case glsl.TokenPlus:
		if !isNumeric(t) {
			c.errf(e.Span, "unary + requires a numeric operand, got %s", t)
			return nil
		}
		return operand
	case glsl.TokenMinus:
		if !isNumeric(t) {
			c.errf(e.Span, "unary - requires a numeric operand, got %s", t)
			return nil
		}
		return &UnExpr{T: t, Op: OpNeg, Operand: operand}
	case glsl.TokenBang:
		if !(t.IsScalar() && t.Scalar == Bool) {
			c.errf(e.Span, "! requires a boolean scalar, got %s", t)
			return nil
		}
		return &UnExpr{T: TBool, Op: OpNot, Operand: operand}
	case glsl.TokenTilde:
		if !t.IsInteger() {
			c.errf(e.Span, "~ requires an integer operand, got %s", t)
			return nil
		}
		return &UnExpr{T: t, Op: OpBitNot, Operand: operand}
	}
	c.errf(e.Span, "unsupported unary operator")
	return nil
}

func binOpOf(tok glsl.TokenKind) (BinOp, bool) {
	switch tok {
	case glsl.TokenPlus:
		return OpAdd, true
	case glsl.TokenMinus:
		return OpSub, true
	case glsl.TokenStar:
		return OpMul, true
	case glsl.TokenSlash:
		return OpDiv, true
	case glsl.TokenPercent:
		return OpMod, true
	case glsl.TokenAmpAmp:
		return OpAnd, true
	case glsl.TokenPipePipe:
		return OpOr, true
	case glsl.TokenCaretCaret:
		return OpXor, true
	case glsl.TokenAmpersand:
		return OpBitAnd, true
	case glsl.TokenPipe:
		return OpBitOr, true
	case glsl.TokenCaret:
		return OpBitXor, true
	case glsl.TokenLessLess:
		return OpShl, true
	case glsl.TokenGreaterGreater:
		return OpShr, true
	case glsl.TokenEqualEqual:
		return OpEq, true
	case glsl.TokenBangEqual:
		return OpNe, true
	case glsl.TokenLess:
		return OpLt, true
	case glsl.TokenLessEqual:
		return OpLe, true
	case glsl.TokenGreater:
		return OpGt, true
	case glsl.TokenGreaterEqual:
		return OpGe, true
	}
	return 0, false
}

func (c *Checker) checkBinary(e *glsl.BinaryExpr) Expr {
	op, ok := binOpOf(e.Op)
	if !ok {
		c.errf(e.Span, "unsupported binary operator")
		return nil
	}
	left := c.checkExpr(e.Left)
	right := c.checkExpr(e.Right)
	if left == nil || right == nil {
		return nil
	}
	return c.binary(op, left, right, e.Span)
}

// binary type-checks one binary operation over already-typed operands.
func (c *Checker) binary(op BinOp, left, right Expr, span diag.Span) Expr {
	lt, rt := left.Type(), right.Type()

	switch op {
	case OpAnd, OpOr, OpXor:
		if !(lt.IsScalar() && lt.Scalar == Bool && rt.IsScalar() && rt.Scalar == Bool) {
			c.errf(span, "logical operator requires boolean scalars, got %s and %s", lt, rt)
			return nil
		}
		return &BinExpr{T: TBool, Op: op, Left: left, Right: right}

	case OpEq, OpNe:
		l, r, ok := c.unify(left, right)
		if !ok || l.Type().IsArray() || l.Type().IsStruct() || l.Type().IsSampler() {
			c.errf(span, "cannot compare %s and %s", lt, rt)
			return nil
		}
		return &BinExpr{T: TBool, Op: op, Left: l, Right: r}

	case OpLt, OpLe, OpGt, OpGe:
		l, r, ok := c.unify(left, right)
		if !ok || !l.Type().IsScalar() || l.Type().Scalar == Bool {
			c.errf(span, "relational operator requires numeric scalars, got %s and %s", lt, rt)
			return nil
		}
		return &BinExpr{T: TBool, Op: op, Left: l, Right: r}

	case OpShl, OpShr:
		if !lt.IsInteger() || !rt.IsInteger() {
			c.errf(span, "shift requires integer operands, got %s and %s", lt, rt)
			return nil
		}
		return &BinExpr{T: lt, Op: op, Left: left, Right: right}

	case OpBitAnd, OpBitOr, OpBitXor:
		l, r, ok := c.unify(left, right)
		if !ok || !l.Type().IsInteger() {
			c.errf(span, "bitwise operator requires integer operands, got %s and %s", lt, rt)
			return nil
		}
		return &BinExpr{T: l.Type(), Op: op, Left: l, Right: r}

	case OpMod:
		l, r, ok := c.unify(left, right)
		if !ok || !l.Type().IsInteger() {
			c.errf(span, "%% requires integer operands, got %s and %s (use mod() for floats)", lt, rt)
			return nil
		}
		return &BinExpr{T: l.Type(), Op: op, Left: l, Right: r}
	}

	// Arithmetic: + - * /
	if op == OpMul {
		if mt := c.matrixMul(left, right, span); mt != nil {
			return mt
		}
	}
	if lt.IsMatrix() || rt.IsMatrix() {
		// mat+mat, mat-mat, mat/mat componentwise; mat op scalar splat.
		if lt.IsMatrix() && rt.IsMatrix() && lt.Equal(rt) {
			return &BinExpr{T: lt, Op: op, Left: left, Right: right}
		}
		if lt.IsMatrix() && rt.IsScalar() {
			r, ok := c.convert(right, TFloat)
			if ok {
				return &BinExpr{T: lt, Op: op, Left: left, Right: r}
			}
		}
		if lt.IsScalar() && rt.IsMatrix() {
			l, ok := c.convert(left, TFloat)
			if ok {
				return &BinExpr{T: rt, Op: op, Left: l, Right: right}
			}
		}
		c.errf(span, "invalid matrix operands %s and %s", lt, rt)
		return nil
	}

	l, r, ok := c.unify(left, right)
	if !ok || !isNumeric(l.Type()) {
		c.errf(span, "invalid operands %s and %s", lt, rt)
		return nil
	}
	return &BinExpr{T: l.Type(), Op: op, Left: l, Right: r}
}

// matrixMul recognizes the linear-algebra forms of *: mat*mat, mat*vec
// and vec*mat. Returns nil when the operands are not one of them.
func (c *Checker) matrixMul(left, right Expr, span diag.Span) Expr {
	lt, rt := left.Type(), right.Type()
	switch {
	case lt.IsMatrix() && rt.IsMatrix():
		if lt.Size != rt.Size {
			c.errf(span, "matrix size mismatch %s * %s", lt, rt)
			return nil
		}
		return &BinExpr{T: lt, Op: OpMul, Left: left, Right: right}
	case lt.IsMatrix() && rt.IsVector() && rt.Scalar == Float:
		if int(lt.Size) != int(rt.Size) {
			c.errf(span, "size mismatch %s * %s", lt, rt)
			return nil
		}
		return &BinExpr{T: Vec(Float, uint8(lt.MatRows)), Op: OpMul, Left: left, Right: right}
	case lt.IsVector() && lt.Scalar == Float && rt.IsMatrix():
		if int(lt.Size) != int(rt.MatRows) {
			c.errf(span, "size mismatch %s * %s", lt, rt)
			return nil
		}
		return &BinExpr{T: Vec(Float, rt.Size), Op: OpMul, Left: left, Right: right}
	}
	return nil
}

func (c *Checker) checkTernary(e *glsl.TernaryExpr) Expr {
	cond := c.checkCond(e.Condition)
	then := c.checkExpr(e.Then)
	els := c.checkExpr(e.Else)
	if cond == nil || then == nil || els == nil {
		return nil
	}
	l, r, ok := c.unify(then, els)
	if !ok {
		c.errf(e.Span, "ternary arms have mismatched types %s and %s", then.Type(), els.Type())
		return nil
	}
	return &TernExpr{T: l.Type(), Cond: cond, Then: l, Else: r}
}

// swizzleSets are the three equivalent component-name alphabets.
var swizzleSets = []string{"xyzw", "rgba", "stpq"}

func swizzleLanes(field string) ([]int, bool) {
	if len(field) == 0 || len(field) > 4 {
		return nil, false
	}
	for _, set := range swizzleSets {
		lanes := make([]int, 0, len(field))
		ok := true
		for _, ch := range field {
			idx := -1
			for i, s := range set {
				if ch == s {
					idx = i
					break
				}
			}
			if idx < 0 {
				ok = false
				break
			}
			lanes = append(lanes, idx)
		}
		if ok {
			return lanes, true
		}
	}
	return nil, false
}

func (c *Checker) checkField(e *glsl.FieldExpr) Expr {
	base := c.checkExpr(e.Base)
	if base == nil {
		return nil
	}
	bt := base.Type()
	if bt.IsStruct() {
		info := c.prog.Structs[bt.StructName]
		idx := info.FieldIndex(e.Field)
		if idx < 0 {
			c.errf(e.Span, "struct %s has no member %q", bt.StructName, e.Field)
			return nil
		}
		return &FieldAccessExpr{T: info.Members[idx].Type, Base: base, Struct: bt.StructName, Member: e.Field, Index: idx}
	}
	if bt.IsVector() || bt.IsScalar() {
		lanes, ok := swizzleLanes(e.Field)
		if !ok {
			c.errf(e.Span, "invalid swizzle %q", e.Field)
			return nil
		}
		limit := 1
		if bt.IsVector() {
			limit = int(bt.Size)
		}
		for _, l := range lanes {
			if l >= limit {
				c.errf(e.Span, "swizzle %q out of range for %s", e.Field, bt)
				return nil
			}
		}
		var t Type
		if len(lanes) == 1 {
			t = Type{Tag: TagScalar, Scalar: bt.Scalar}
		} else {
			t = Vec(bt.Scalar, uint8(len(lanes)))
		}
		return &SwizzleExpr{T: t, Base: base, Lanes: lanes}
	}
	c.errf(e.Span, "cannot apply .%s to %s", e.Field, bt)
	return nil
}

func (c *Checker) checkIndex(e *glsl.IndexExpr) Expr {
	base := c.checkExpr(e.Base)
	idx := c.checkExpr(e.Index)
	if base == nil || idx == nil {
		return nil
	}
	if !idx.Type().IsScalar() || !(idx.Type().Scalar == Int || idx.Type().Scalar == Uint) {
		c.errf(e.Span, "index must be an integer scalar, got %s", idx.Type())
		return nil
	}
	bt := base.Type()
	switch {
	case bt.IsArray():
		if n, ok := foldInt(idx); ok && (n < 0 || int(n) >= bt.ArrayLen) {
			c.errf(e.Span, "index %d out of range for %s", n, bt)
			return nil
		}
		return &IndexExpr{T: *bt.Elem, Base: base, Index: idx}
	case bt.IsVector():
		if n, ok := foldInt(idx); ok && (n < 0 || int(n) >= int(bt.Size)) {
			c.errf(e.Span, "index %d out of range for %s", n, bt)
			return nil
		}
		return &IndexExpr{T: Type{Tag: TagScalar, Scalar: bt.Scalar}, Base: base, Index: idx}
	case bt.IsMatrix():
		if n, ok := foldInt(idx); ok && (n < 0 || int(n) >= int(bt.Size)) {
			c.errf(e.Span, "column index %d out of range for %s", n, bt)
			return nil
		}
		return &IndexExpr{T: Vec(Float, uint8(bt.MatRows)), Base: base, Index: idx}
	}
	c.errf(e.Span, "cannot index %s", bt)
	return nil
}

// --- Conversion and unification -------------------------------------------

func isNumeric(t Type) bool {
	return (t.IsScalar() || t.IsVector()) && t.Scalar != Bool
}

// convertRank orders scalar kinds for implicit conversion: int -> uint
// -> float, per GLSL ES 3.00's implicit conversion table.
func convertRank(k ScalarKind) int {
	switch k {
	case Int:
		return 0
	case Uint:
		return 1
	case Float:
		return 2
	}
	return -1
}

// convert implicitly converts e to type `to`, inserting ConvertExpr or
// splatting scalars to vectors where GLSL allows it. Returns ok=false
// when no implicit conversion exists.
func (c *Checker) convert(e Expr, to Type) (Expr, bool) {
	from := e.Type()
	if from.Equal(to) {
		return e, true
	}
	// Scalar kind widening with identical shape.
	if from.Tag == to.Tag && (from.IsScalar() || from.IsVector()) && from.Size == to.Size {
		fr, tr := convertRank(from.Scalar), convertRank(to.Scalar)
		if fr >= 0 && tr >= 0 && fr < tr {
			return &ConvertExpr{T: to, Arg: e}, true
		}
		return nil, false
	}
	// Scalar to vector splat (used for vec op scalar forms).
	if from.IsScalar() && to.IsVector() {
		s, ok := c.convert(e, Type{Tag: TagScalar, Scalar: to.Scalar})
		if !ok {
			return nil, false
		}
		return &ConstructExpr{T: to, Args: []Expr{s}}, true
	}
	return nil, false
}

// unify finds the common type of two operands for componentwise
// operators, applying implicit conversions and scalar splats.
func (c *Checker) unify(left, right Expr) (Expr, Expr, bool) {
	lt, rt := left.Type(), right.Type()
	if lt.Equal(rt) {
		return left, right, true
	}
	if l, ok := c.convert(left, rt); ok {
		return l, right, true
	}
	if r, ok := c.convert(right, lt); ok {
		return left, r, true
	}
	// vec op scalar where the scalar kind also needs widening.
	if lt.IsVector() && rt.IsScalar() {
		if r, ok := c.convert(right, lt); ok {
			return left, r, true
		}
	}
	if lt.IsScalar() && rt.IsVector() {
		if l, ok := c.convert(left, rt); ok {
			return l, right, true
		}
	}
	return nil, nil, false
}
