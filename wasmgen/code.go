package wasmgen

import (
	"encoding/binary"
	"math"
)

// CodeBuf accumulates one function body's instruction stream.
type CodeBuf struct {
	buf []byte
}

// Bytes returns the accumulated body (without the trailing end opcode).
func (c *CodeBuf) Bytes() []byte { return c.buf }

// Op appends a bare opcode.
func (c *CodeBuf) Op(op Opcode) { c.buf = append(c.buf, byte(op)) }

func (c *CodeBuf) u32(v uint32) { c.buf = appendUleb(c.buf, uint64(v)) }
func (c *CodeBuf) s32(v int32)  { c.buf = appendSleb(c.buf, int64(v)) }

// LocalGet/Set/Tee reference a local by index.
func (c *CodeBuf) LocalGet(i int) { c.Op(OpLocalGet); c.u32(uint32(i)) }
func (c *CodeBuf) LocalSet(i int) { c.Op(OpLocalSet); c.u32(uint32(i)) }
func (c *CodeBuf) LocalTee(i int) { c.Op(OpLocalTee); c.u32(uint32(i)) }

// GlobalGet/Set reference a module global by index.
func (c *CodeBuf) GlobalGet(i int) { c.Op(OpGlobalGet); c.u32(uint32(i)) }
func (c *CodeBuf) GlobalSet(i int) { c.Op(OpGlobalSet); c.u32(uint32(i)) }

// I32Const / F32Const push constants.
func (c *CodeBuf) I32Const(v int32) { c.Op(OpI32Const); c.s32(v) }
func (c *CodeBuf) F32Const(v float32) {
	c.Op(OpF32Const)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	c.buf = append(c.buf, b[:]...)
}

// Call calls a function by module index.
func (c *CodeBuf) Call(idx int) { c.Op(OpCall); c.u32(uint32(idx)) }

// Load/Store emit a memory access with 4-byte natural alignment and a
// constant offset immediate.
func (c *CodeBuf) Load(op Opcode, offset int) {
	c.Op(op)
	c.u32(2) // log2 alignment
	c.u32(uint32(offset))
}

func (c *CodeBuf) Store(op Opcode, offset int) {
	c.Op(op)
	c.u32(2)
	c.u32(uint32(offset))
}

// Block/Loop/If open structured control with the void block type.
func (c *CodeBuf) Block() { c.Op(OpBlock); c.buf = append(c.buf, BlockVoid) }
func (c *CodeBuf) Loop()  { c.Op(OpLoop); c.buf = append(c.buf, BlockVoid) }
func (c *CodeBuf) If()    { c.Op(OpIf); c.buf = append(c.buf, BlockVoid) }

// IfTyped opens an if with a single result type.
func (c *CodeBuf) IfTyped(t ValueType) { c.Op(OpIf); c.buf = append(c.buf, byte(t)) }

func (c *CodeBuf) Else() { c.Op(OpElse) }
func (c *CodeBuf) End()  { c.Op(OpEnd) }

// Br / BrIf branch to a relative label depth.
func (c *CodeBuf) Br(depth int)   { c.Op(OpBr); c.u32(uint32(depth)) }
func (c *CodeBuf) BrIf(depth int) { c.Op(OpBrIf); c.u32(uint32(depth)) }

// appendUleb encodes an unsigned LEB128 integer.
func appendUleb(b []byte, v uint64) []byte {
	for {
		chunk := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b = append(b, chunk|0x80)
		} else {
			return append(b, chunk)
		}
	}
}

// appendSleb encodes a signed LEB128 integer.
func appendSleb(b []byte, v int64) []byte {
	for {
		chunk := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && chunk&0x40 == 0) || (v == -1 && chunk&0x40 != 0) {
			return append(b, chunk)
		}
		b = append(b, chunk|0x80)
	}
}
