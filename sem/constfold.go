package sem

import (
	"github.com/chewxy/math32"
)

// Constant folding over typed expressions, used for const initializers,
// constant-index range checks and conversions or built-in calls with
// constant arguments. Float arithmetic is done
// with math32 so folded values are bit-identical to what the emitted
// f32 WASM arithmetic produces at runtime.

// foldInt evaluates e to a compile-time int, if possible.
func foldInt(e Expr) (int32, bool) {
	c, ok := foldScalar(e)
	if !ok || c.T.Tag != TagScalar {
		return 0, false
	}
	switch c.T.Scalar {
	case Int, Uint, Bool:
		return c.Int, true
	}
	return 0, false
}

// foldScalar evaluates a scalar expression tree to a ConstExpr, if
// every leaf is constant. Non-scalar or non-constant expressions return
// ok=false; the caller falls back to runtime evaluation.
func foldScalar(e Expr) (*ConstExpr, bool) {
	switch e := e.(type) {
	case *ConstExpr:
		return e, true
	case *UnExpr:
		c, ok := foldScalar(e.Operand)
		if !ok {
			return nil, false
		}
		switch e.Op {
		case OpNeg:
			if c.T.Scalar == Float {
				return &ConstExpr{T: c.T, Float: -c.Float}, true
			}
			return &ConstExpr{T: c.T, Int: -c.Int}, true
		case OpNot:
			return &ConstExpr{T: TBool, Int: boolToInt(c.Int == 0)}, true
		case OpBitNot:
			return &ConstExpr{T: c.T, Int: ^c.Int}, true
		}
		return nil, false
	case *BinExpr:
		l, ok := foldScalar(e.Left)
		if !ok {
			return nil, false
		}
		r, ok := foldScalar(e.Right)
		if !ok {
			return nil, false
		}
		return foldBinary(e.Op, e.T, l, r)
	case *ConvertExpr:
		c, ok := foldScalar(e.Arg)
		if !ok || e.T.Tag != TagScalar {
			return nil, false
		}
		return foldConvert(e.T, c), true
	case *BuiltinCallExpr:
		return foldBuiltin(e)
	}
	return nil, false
}

func foldBinary(op BinOp, t Type, l, r *ConstExpr) (*ConstExpr, bool) {
	if l.T.Scalar == Float {
		a, b := l.Float, r.Float
		switch op {
		case OpAdd:
			return &ConstExpr{T: t, Float: a + b}, true
		case OpSub:
			return &ConstExpr{T: t, Float: a - b}, true
		case OpMul:
			return &ConstExpr{T: t, Float: a * b}, true
		case OpDiv:
			return &ConstExpr{T: t, Float: a / b}, true
		case OpLt:
			return &ConstExpr{T: TBool, Int: boolToInt(a < b)}, true
		case OpLe:
			return &ConstExpr{T: TBool, Int: boolToInt(a <= b)}, true
		case OpGt:
			return &ConstExpr{T: TBool, Int: boolToInt(a > b)}, true
		case OpGe:
			return &ConstExpr{T: TBool, Int: boolToInt(a >= b)}, true
		case OpEq:
			return &ConstExpr{T: TBool, Int: boolToInt(a == b)}, true
		case OpNe:
			return &ConstExpr{T: TBool, Int: boolToInt(a != b)}, true
		}
		return nil, false
	}

	a, b := l.Int, r.Int
	unsigned := l.T.Scalar == Uint
	switch op {
	case OpAdd:
		return &ConstExpr{T: t, Int: a + b}, true
	case OpSub:
		return &ConstExpr{T: t, Int: a - b}, true
	case OpMul:
		return &ConstExpr{T: t, Int: a * b}, true
	case OpDiv:
		if b == 0 {
			return nil, false
		}
		if unsigned {
			return &ConstExpr{T: t, Int: int32(uint32(a) / uint32(b))}, true
		}
		return &ConstExpr{T: t, Int: a / b}, true
	case OpMod:
		if b == 0 {
			return nil, false
		}
		if unsigned {
			return &ConstExpr{T: t, Int: int32(uint32(a) % uint32(b))}, true
		}
		return &ConstExpr{T: t, Int: a % b}, true
	case OpBitAnd:
		return &ConstExpr{T: t, Int: a & b}, true
	case OpBitOr:
		return &ConstExpr{T: t, Int: a | b}, true
	case OpBitXor:
		return &ConstExpr{T: t, Int: a ^ b}, true
	case OpShl:
		return &ConstExpr{T: t, Int: a << (uint32(b) & 31)}, true
	case OpShr:
		if unsigned {
			return &ConstExpr{T: t, Int: int32(uint32(a) >> (uint32(b) & 31))}, true
		}
		return &ConstExpr{T: t, Int: a >> (uint32(b) & 31)}, true
	case OpAnd:
		return &ConstExpr{T: TBool, Int: boolToInt(a != 0 && b != 0)}, true
	case OpOr:
		return &ConstExpr{T: TBool, Int: boolToInt(a != 0 || b != 0)}, true
	case OpXor:
		return &ConstExpr{T: TBool, Int: boolToInt((a != 0) != (b != 0))}, true
	case OpLt, OpLe, OpGt, OpGe:
		if unsigned {
			ua, ub := uint32(a), uint32(b)
			switch op {
			case OpLt:
				return &ConstExpr{T: TBool, Int: boolToInt(ua < ub)}, true
			case OpLe:
				return &ConstExpr{T: TBool, Int: boolToInt(ua <= ub)}, true
			case OpGt:
				return &ConstExpr{T: TBool, Int: boolToInt(ua > ub)}, true
			default:
				return &ConstExpr{T: TBool, Int: boolToInt(ua >= ub)}, true
			}
		}
		switch op {
		case OpLt:
			return &ConstExpr{T: TBool, Int: boolToInt(a < b)}, true
		case OpLe:
			return &ConstExpr{T: TBool, Int: boolToInt(a <= b)}, true
		case OpGt:
			return &ConstExpr{T: TBool, Int: boolToInt(a > b)}, true
		default:
			return &ConstExpr{T: TBool, Int: boolToInt(a >= b)}, true
		}
	case OpEq:
		return &ConstExpr{T: TBool, Int: boolToInt(a == b)}, true
	case OpNe:
		return &ConstExpr{T: TBool, Int: boolToInt(a != b)}, true
	}
	return nil, false
}

func foldConvert(to Type, c *ConstExpr) *ConstExpr {
	out := &ConstExpr{T: to}
	switch to.Scalar {
	case Float:
		if c.T.Scalar == Float {
			out.Float = c.Float
		} else if c.T.Scalar == Uint {
			out.Float = float32(uint32(c.Int))
		} else {
			out.Float = float32(c.Int)
		}
	case Int:
		if c.T.Scalar == Float {
			out.Int = int32(c.Float)
		} else {
			out.Int = c.Int
		}
	case Uint:
		if c.T.Scalar == Float {
			out.Int = int32(uint32(c.Float))
		} else {
			out.Int = c.Int
		}
	case Bool:
		if c.T.Scalar == Float {
			out.Int = boolToInt(c.Float != 0)
		} else {
			out.Int = boolToInt(c.Int != 0)
		}
	}
	return out
}

// foldBuiltin folds single-precision math builtins over constant scalar
// arguments using math32, keeping folded results on the f32 grid.
func foldBuiltin(e *BuiltinCallExpr) (*ConstExpr, bool) {
	if e.T.Tag != TagScalar || e.T.Scalar != Float {
		return nil, false
	}
	args := make([]float32, len(e.Args))
	for i, a := range e.Args {
		c, ok := foldScalar(a)
		if !ok || c.T.Scalar != Float {
			return nil, false
		}
		args[i] = c.Float
	}
	var v float32
	switch e.Fn {
	case FnSin:
		v = math32.Sin(args[0])
	case FnCos:
		v = math32.Cos(args[0])
	case FnTan:
		v = math32.Tan(args[0])
	case FnAsin:
		v = math32.Asin(args[0])
	case FnAcos:
		v = math32.Acos(args[0])
	case FnAtan:
		v = math32.Atan(args[0])
	case FnAtan2:
		v = math32.Atan2(args[0], args[1])
	case FnExp:
		v = math32.Exp(args[0])
	case FnExp2:
		v = math32.Exp2(args[0])
	case FnLog:
		v = math32.Log(args[0])
	case FnLog2:
		v = math32.Log2(args[0])
	case FnPow:
		v = math32.Pow(args[0], args[1])
	case FnSqrt:
		v = math32.Sqrt(args[0])
	case FnInverseSqrt:
		v = 1 / math32.Sqrt(args[0])
	case FnAbs:
		v = math32.Abs(args[0])
	case FnFloor:
		v = math32.Floor(args[0])
	case FnCeil:
		v = math32.Ceil(args[0])
	case FnTrunc:
		v = math32.Trunc(args[0])
	case FnFract:
		v = args[0] - math32.Floor(args[0])
	case FnMin:
		v = math32.Min(args[0], args[1])
	case FnMax:
		v = math32.Max(args[0], args[1])
	default:
		return nil, false
	}
	return &ConstExpr{T: TFloat, Float: v}, true
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
