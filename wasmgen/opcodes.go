package wasmgen

// Opcode is a single-byte WASM instruction opcode.
type Opcode byte

// The opcode subset this emitter produces.
const (
	OpUnreachable Opcode = 0x00
	OpNop         Opcode = 0x01
	OpBlock       Opcode = 0x02
	OpLoop        Opcode = 0x03
	OpIf          Opcode = 0x04
	OpElse        Opcode = 0x05
	OpEnd         Opcode = 0x0B
	OpBr          Opcode = 0x0C
	OpBrIf        Opcode = 0x0D
	OpReturn      Opcode = 0x0F
	OpCall        Opcode = 0x10
	OpDrop        Opcode = 0x1A
	OpSelect      Opcode = 0x1B

	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24

	OpI32Load  Opcode = 0x28
	OpF32Load  Opcode = 0x2A
	OpI32Store Opcode = 0x36
	OpF32Store Opcode = 0x38

	OpI32Const Opcode = 0x41
	OpF32Const Opcode = 0x43

	OpI32Eqz Opcode = 0x45
	OpI32Eq  Opcode = 0x46
	OpI32Ne  Opcode = 0x47
	OpI32LtS Opcode = 0x48
	OpI32LtU Opcode = 0x49
	OpI32GtS Opcode = 0x4A
	OpI32GtU Opcode = 0x4B
	OpI32LeS Opcode = 0x4C
	OpI32LeU Opcode = 0x4D
	OpI32GeS Opcode = 0x4E
	OpI32GeU Opcode = 0x4F

	OpF32Eq Opcode = 0x5B
	OpF32Ne Opcode = 0x5C
	OpF32Lt Opcode = 0x5D
	OpF32Gt Opcode = 0x5E
	OpF32Le Opcode = 0x5F
	OpF32Ge Opcode = 0x60

	OpI32Add  Opcode = 0x6A
	OpI32Sub  Opcode = 0x6B
	OpI32Mul  Opcode = 0x6C
	OpI32DivS Opcode = 0x6D
	OpI32DivU Opcode = 0x6E
	OpI32RemS Opcode = 0x6F
	OpI32RemU Opcode = 0x70
	OpI32And  Opcode = 0x71
	OpI32Or   Opcode = 0x72
	OpI32Xor  Opcode = 0x73
	OpI32Shl  Opcode = 0x74
	OpI32ShrS Opcode = 0x75
	OpI32ShrU Opcode = 0x76

	OpF32Abs     Opcode = 0x8B
	OpF32Neg     Opcode = 0x8C
	OpF32Ceil    Opcode = 0x8D
	OpF32Floor   Opcode = 0x8E
	OpF32Trunc   Opcode = 0x8F
	OpF32Nearest Opcode = 0x90
	OpF32Sqrt    Opcode = 0x91
	OpF32Add     Opcode = 0x92
	OpF32Sub     Opcode = 0x93
	OpF32Mul     Opcode = 0x94
	OpF32Div     Opcode = 0x95
	OpF32Min     Opcode = 0x96
	OpF32Max     Opcode = 0x97

	OpI32TruncF32S   Opcode = 0xA8
	OpI32TruncF32U   Opcode = 0xA9
	OpF32ConvertI32S Opcode = 0xB2
	OpF32ConvertI32U Opcode = 0xB3
)

// BlockVoid is the empty block type byte.
const BlockVoid byte = 0x40
