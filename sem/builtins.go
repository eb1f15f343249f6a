package sem

// builtinSig describes one overload family of a built-in function. The
// GLSL genType convention is encoded with shape rules rather than one
// entry per vector width.
type builtinSig struct {
	fn BuiltinFunc

	// arity is the number of arguments.
	arity int

	// shape constrains how arguments relate to each other and to the
	// result.
	shape sigShape

	// floatOnly restricts the family to float scalars/vectors. All the
	// transcendental functions are floatOnly; abs/sign/min/max/clamp
	// also accept int and uint.
	floatOnly bool
}

type sigShape uint8

const (
	// shapeComponentwise: all arguments share the argument type, result
	// has the same type (sin, pow, min, ...). Trailing arguments may be
	// scalars of the same kind (min(vec3, float), clamp(v, 0.0, 1.0),
	// mod(v, s)).
	shapeComponentwise sigShape = iota
	// shapeReduce: vector (or scalar) arguments of one type, scalar
	// result (dot, length, distance).
	shapeReduce
	// shapeCross: two vec3 arguments, vec3 result.
	shapeCross
	// shapeMix: mix(x, y, a) where a may be the full type or a scalar.
	shapeMix
	// shapeStep: step(edge, x) where edge may be scalar.
	shapeStep
	// shapeSmoothstep: smoothstep(e0, e1, x) where e0/e1 may be scalar.
	shapeSmoothstep
)

// builtinFuncs maps GLSL built-in function names to their signature
// families. Texture sampling is handled separately because its first
// argument is an opaque sampler.
var builtinFuncs = map[string]builtinSig{
	"sin":         {fn: FnSin, arity: 1, floatOnly: true},
	"cos":         {fn: FnCos, arity: 1, floatOnly: true},
	"tan":         {fn: FnTan, arity: 1, floatOnly: true},
	"asin":        {fn: FnAsin, arity: 1, floatOnly: true},
	"acos":        {fn: FnAcos, arity: 1, floatOnly: true},
	"atan":        {fn: FnAtan, arity: 1, floatOnly: true}, // 2-arg form resolved in checkBuiltinCall
	"exp":         {fn: FnExp, arity: 1, floatOnly: true},
	"exp2":        {fn: FnExp2, arity: 1, floatOnly: true},
	"log":         {fn: FnLog, arity: 1, floatOnly: true},
	"log2":        {fn: FnLog2, arity: 1, floatOnly: true},
	"pow":         {fn: FnPow, arity: 2, floatOnly: true},
	"sinh":        {fn: FnSinh, arity: 1, floatOnly: true},
	"cosh":        {fn: FnCosh, arity: 1, floatOnly: true},
	"tanh":        {fn: FnTanh, arity: 1, floatOnly: true},
	"asinh":       {fn: FnAsinh, arity: 1, floatOnly: true},
	"acosh":       {fn: FnAcosh, arity: 1, floatOnly: true},
	"atanh":       {fn: FnAtanh, arity: 1, floatOnly: true},
	"sqrt":        {fn: FnSqrt, arity: 1, floatOnly: true},
	"inversesqrt": {fn: FnInverseSqrt, arity: 1, floatOnly: true},
	"abs":         {fn: FnAbs, arity: 1},
	"sign":        {fn: FnSign, arity: 1},
	"floor":       {fn: FnFloor, arity: 1, floatOnly: true},
	"ceil":        {fn: FnCeil, arity: 1, floatOnly: true},
	"trunc":       {fn: FnTrunc, arity: 1, floatOnly: true},
	"fract":       {fn: FnFract, arity: 1, floatOnly: true},
	"min":         {fn: FnMin, arity: 2},
	"max":         {fn: FnMax, arity: 2},
	"clamp":       {fn: FnClamp, arity: 3},
	"mix":         {fn: FnMix, arity: 3, shape: shapeMix, floatOnly: true},
	"step":        {fn: FnStep, arity: 2, shape: shapeStep, floatOnly: true},
	"smoothstep":  {fn: FnSmoothstep, arity: 3, shape: shapeSmoothstep, floatOnly: true},
	"mod":         {fn: FnMod, arity: 2, floatOnly: true},
	"dot":         {fn: FnDot, arity: 2, shape: shapeReduce, floatOnly: true},
	"cross":       {fn: FnCross, arity: 2, shape: shapeCross, floatOnly: true},
	"length":      {fn: FnLength, arity: 1, shape: shapeReduce, floatOnly: true},
	"distance":    {fn: FnDistance, arity: 2, shape: shapeReduce, floatOnly: true},
	"normalize":   {fn: FnNormalize, arity: 1, floatOnly: true},
	"reflect":     {fn: FnReflect, arity: 2, floatOnly: true},
}

// hostImported reports whether the builtin is lowered to a call into
// the fixed env.* math import set rather than inline WASM opcodes.
func (f BuiltinFunc) hostImported() bool { return f <= FnAtanh }

// builtinVars is the table of predeclared gl_* variables, per stage.
type builtinVarInfo struct {
	v        BuiltinVar
	typ      Type
	stage    ShaderKind
	writable bool
}

var builtinVars = map[string]builtinVarInfo{
	"gl_Position":   {v: BuiltinPosition, typ: Vec(Float, 4), stage: Vertex, writable: true},
	"gl_PointSize":  {v: BuiltinPointSize, typ: TFloat, stage: Vertex, writable: true},
	"gl_FragCoord":  {v: BuiltinFragCoord, typ: Vec(Float, 4), stage: Fragment},
	"gl_PointCoord": {v: BuiltinPointCoord, typ: Vec(Float, 2), stage: Fragment},
}
