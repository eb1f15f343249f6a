package sem

import (
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/glsl"
)

// Call checking: type constructors, struct constructors, texture
// sampling, built-in functions and user function calls all share the
// call syntax; the callee name disambiguates.

func (c *Checker) checkCall(e *glsl.CallExpr) Expr {
	name := e.Callee.Name

	if t, ok := builtinTypeNames[name]; ok && !t.IsVoid() && !t.IsSampler() {
		return c.checkConstructor(t, e)
	}
	if _, ok := c.prog.Structs[name]; ok {
		return c.checkStructConstructor(name, e)
	}
	if name == "texture" {
		return c.checkTexture(e)
	}
	if sig, ok := builtinFuncs[name]; ok {
		return c.checkBuiltinCall(sig, e)
	}
	if idx, ok := c.funcs[name]; ok {
		return c.checkUserCall(&c.prog.Symbols.Functions[idx], e)
	}
	c.errf(e.Span, "call to undeclared function %q", name)
	return nil
}

func (c *Checker) checkArgs(e *glsl.CallExpr) ([]Expr, bool) {
	args := make([]Expr, 0, len(e.Args))
	ok := true
	for _, a := range e.Args {
		ta := c.checkExpr(a)
		if ta == nil {
			ok = false
			continue
		}
		args = append(args, ta)
	}
	return args, ok
}

// checkConstructor handles scalar conversion constructors and vector /
// matrix composition constructors.
func (c *Checker) checkConstructor(t Type, e *glsl.CallExpr) Expr {
	args, ok := c.checkArgs(e)
	if !ok {
		return nil
	}
	if len(args) == 0 {
		c.errf(e.Span, "constructor %s requires at least one argument", t)
		return nil
	}

	if t.IsScalar() {
		if len(args) != 1 || !(args[0].Type().IsScalar() || args[0].Type().IsVector()) {
			c.errf(e.Span, "scalar constructor %s takes one scalar argument", t)
			return nil
		}
		src := args[0]
		if src.Type().IsVector() {
			// float(v) takes the first component.
			src = &SwizzleExpr{T: Type{Tag: TagScalar, Scalar: src.Type().Scalar}, Base: src, Lanes: []int{0}}
		}
		if src.Type().Equal(t) {
			return src
		}
		conv := &ConvertExpr{T: t, Arg: src}
		if folded, ok := foldScalar(conv); ok {
			return folded
		}
		return conv
	}

	if t.IsVector() {
		return c.checkVectorConstructor(t, args, e.Span)
	}
	if t.IsMatrix() {
		return c.checkMatrixConstructor(t, args, e.Span)
	}
	c.errf(e.Span, "cannot construct %s", t)
	return nil
}

func (c *Checker) checkVectorConstructor(t Type, args []Expr, span diag.Span) Expr {
	want := int(t.Size)
	elemT := Type{Tag: TagScalar, Scalar: t.Scalar}

	// Single-scalar splat: vec4(0.0).
	if len(args) == 1 && args[0].Type().IsScalar() {
		s, ok := c.convertCtor(args[0], elemT)
		if !ok {
			c.errf(span, "cannot construct %s from %s", t, args[0].Type())
			return nil
		}
		return &ConstructExpr{T: t, Args: []Expr{s}}
	}
	// Single vector of at least the target size: extra lanes are
	// dropped, then componentwise conversion, vec3(vec4), vec4(ivec4).
	if len(args) == 1 && args[0].Type().IsVector() && int(args[0].Type().Size) >= want {
		src := args[0]
		if int(src.Type().Size) > want {
			lanes := make([]int, want)
			for i := range lanes {
				lanes[i] = i
			}
			src = &SwizzleExpr{T: Vec(src.Type().Scalar, t.Size), Base: src, Lanes: lanes}
		}
		if src.Type().Scalar == t.Scalar {
			return src
		}
		return &ConvertExpr{T: t, Arg: src}
	}

	// General concatenation: components in source order.
	total := 0
	conv := make([]Expr, 0, len(args))
	for _, a := range args {
		at := a.Type()
		if !(at.IsScalar() || at.IsVector()) {
			c.errf(span, "cannot use %s in %s constructor", at, t)
			return nil
		}
		ca, ok := c.convertCtor(a, Type{Tag: at.Tag, Scalar: t.Scalar, Size: at.Size})
		if !ok {
			c.errf(span, "cannot convert %s to %s components", at, t)
			return nil
		}
		conv = append(conv, ca)
		total += at.NumComponents()
	}
	if total != want {
		c.errf(span, "%s constructor needs %d components, got %d", t, want, total)
		return nil
	}
	return &ConstructExpr{T: t, Args: conv}
}

func (c *Checker) checkMatrixConstructor(t Type, args []Expr, span diag.Span) Expr {
	// Diagonal form: mat4(1.0).
	if len(args) == 1 && args[0].Type().IsScalar() {
		s, ok := c.convertCtor(args[0], TFloat)
		if !ok {
			c.errf(span, "cannot construct %s from %s", t, args[0].Type())
			return nil
		}
		return &ConstructExpr{T: t, Args: []Expr{s}, Diagonal: true}
	}
	want := t.NumComponents()
	total := 0
	conv := make([]Expr, 0, len(args))
	for _, a := range args {
		at := a.Type()
		if !(at.IsScalar() || at.IsVector()) {
			c.unsupportedf(span, "matrix constructor from %s is not supported", at)
			return nil
		}
		ca, ok := c.convertCtor(a, Type{Tag: at.Tag, Scalar: Float, Size: at.Size})
		if !ok {
			c.errf(span, "cannot convert %s to float components", at)
			return nil
		}
		conv = append(conv, ca)
		total += at.NumComponents()
	}
	if total != want {
		c.errf(span, "%s constructor needs %d components, got %d", t, want, total)
		return nil
	}
	return &ConstructExpr{T: t, Args: conv}
}

// convertCtor is convert() plus the explicit conversions constructors
// allow (float -> int, float -> uint, anything -> bool and back).
func (c *Checker) convertCtor(e Expr, to Type) (Expr, bool) {
	if out, ok := c.convert(e, to); ok {
		return out, true
	}
	from := e.Type()
	if from.Tag == to.Tag && (from.IsScalar() || from.IsVector()) && from.Size == to.Size {
		conv := Expr(&ConvertExpr{T: to, Arg: e})
		if folded, ok := foldScalar(conv); ok {
			return folded, true
		}
		return conv, true
	}
	return nil, false
}

func (c *Checker) checkStructConstructor(name string, e *glsl.CallExpr) Expr {
	info := c.prog.Structs[name]
	args, ok := c.checkArgs(e)
	if !ok {
		return nil
	}
	if len(args) != len(info.Members) {
		c.errf(e.Span, "%s constructor needs %d arguments, got %d", name, len(info.Members), len(args))
		return nil
	}
	for i, a := range args {
		conv, ok := c.convert(a, info.Members[i].Type)
		if !ok {
			c.errf(e.Span, "cannot convert argument %d from %s to %s", i+1, a.Type(), info.Members[i].Type)
			return nil
		}
		args[i] = conv
	}
	return &StructConstructExpr{T: Type{Tag: TagStruct, StructName: name}, Args: args}
}

func (c *Checker) checkTexture(e *glsl.CallExpr) Expr {
	if len(e.Args) != 2 {
		c.errf(e.Span, "texture() takes a sampler and a coordinate")
		return nil
	}
	samplerRef, ok := e.Args[0].(*glsl.Ident)
	if !ok {
		c.errf(e.Args[0].Pos(), "texture() sampler argument must be a sampler uniform")
		return nil
	}
	u, found := c.prog.Symbols.FindUniform(samplerRef.Name)
	if !found || !u.Type.IsSampler() {
		c.errf(e.Args[0].Pos(), "%q is not a sampler uniform", samplerRef.Name)
		return nil
	}
	coords := c.checkExpr(e.Args[1])
	if coords == nil {
		return nil
	}
	wantSize := uint8(2)
	if u.Type.SamplerDim != Sampler2D {
		wantSize = 3
	}
	coords, okConv := c.convert(coords, Vec(Float, wantSize))
	if !okConv {
		c.errf(e.Args[1].Pos(), "%s coordinate must convert to vec%d", u.Type, wantSize)
		return nil
	}
	return &TextureCallExpr{T: Vec(Float, 4), Sampler: u.Name, Dim: u.Type.SamplerDim, Coords: coords}
}

func (c *Checker) checkBuiltinCall(sig builtinSig, e *glsl.CallExpr) Expr {
	args, ok := c.checkArgs(e)
	if !ok {
		return nil
	}
	fn := sig.fn

	// atan(y, x) is the only arity-overloaded builtin.
	if fn == FnAtan && len(args) == 2 {
		sig = builtinSig{fn: FnAtan2, arity: 2, floatOnly: true}
		fn = FnAtan2
	}
	if len(args) != sig.arity {
		c.errf(e.Span, "%s expects %d arguments, got %d", e.Callee.Name, sig.arity, len(args))
		return nil
	}

	switch sig.shape {
	case shapeCross:
		v3 := Vec(Float, 3)
		for i, a := range args {
			ca, ok := c.convert(a, v3)
			if !ok {
				c.errf(e.Span, "cross() requires vec3 arguments, got %s", a.Type())
				return nil
			}
			args[i] = ca
		}
		return &BuiltinCallExpr{T: v3, Fn: fn, Args: args}

	case shapeReduce:
		base, ok := c.builtinBaseType(args, sig, e)
		if !ok {
			return nil
		}
		for i, a := range args {
			ca, ok := c.convert(a, base)
			if !ok {
				c.errf(e.Span, "%s argument %d: cannot convert %s to %s", e.Callee.Name, i+1, a.Type(), base)
				return nil
			}
			args[i] = ca
		}
		return &BuiltinCallExpr{T: Type{Tag: TagScalar, Scalar: Float}, Fn: fn, Args: args}

	case shapeMix, shapeSmoothstep, shapeStep, shapeComponentwise:
		base, ok := c.builtinBaseType(args, sig, e)
		if !ok {
			return nil
		}
		scalarT := Type{Tag: TagScalar, Scalar: base.Scalar}
		for i, a := range args {
			// Trailing scalar operands stay scalar (mix(v, v, t),
			// clamp(v, lo, hi), step(edge, v), mod(v, s)).
			if a.Type().IsScalar() && base.IsVector() {
				ca, ok := c.convert(a, scalarT)
				if ok {
					args[i] = ca
					continue
				}
			}
			ca, ok := c.convert(a, base)
			if !ok {
				c.errf(e.Span, "%s argument %d: cannot convert %s to %s", e.Callee.Name, i+1, a.Type(), base)
				return nil
			}
			args[i] = ca
		}
		call := &BuiltinCallExpr{T: base, Fn: fn, Args: args}
		if folded, ok := foldScalar(call); ok {
			return folded
		}
		return call
	}
	c.errf(e.Span, "unsupported builtin %s", e.Callee.Name)
	return nil
}

// builtinBaseType finds the widest argument type for a genType builtin
// and validates the scalar-kind restriction.
func (c *Checker) builtinBaseType(args []Expr, sig builtinSig, e *glsl.CallExpr) (Type, bool) {
	base := args[0].Type()
	for _, a := range args[1:] {
		if a.Type().IsVector() && !base.IsVector() {
			base = a.Type()
		}
	}
	if !(base.IsScalar() || base.IsVector()) {
		c.errf(e.Span, "%s cannot take %s", e.Callee.Name, base)
		return TVoid, false
	}
	if sig.floatOnly {
		base = Type{Tag: base.Tag, Scalar: Float, Size: base.Size}
	} else if base.Scalar == Bool {
		c.errf(e.Span, "%s cannot take boolean arguments", e.Callee.Name)
		return TVoid, false
	}
	return base, true
}

func (c *Checker) checkUserCall(fn *Function, e *glsl.CallExpr) Expr {
	if fn.IsMain {
		c.errf(e.Span, "main() cannot be called")
		return nil
	}
	if c.cur != nil && fn.Name == c.cur.Name {
		c.errf(e.Span, "recursive call to %q (recursion is not allowed)", fn.Name)
		return nil
	}
	args, ok := c.checkArgs(e)
	if !ok {
		return nil
	}
	if len(args) != len(fn.Params) {
		c.errf(e.Span, "%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
		return nil
	}
	for i, a := range args {
		conv, ok := c.convert(a, fn.Params[i].Type)
		if !ok {
			c.errf(e.Span, "%s argument %d: cannot convert %s to %s", fn.Name, i+1, a.Type(), fn.Params[i].Type)
			return nil
		}
		args[i] = conv
	}
	return &CallExpr{T: fn.ReturnType, Name: fn.Name, Args: args}
}
