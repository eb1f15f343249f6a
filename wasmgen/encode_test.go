package wasmgen

import (
	"bytes"
	"testing"
)

func TestUlebEncoding(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
	}
	for _, tt := range tests {
		if got := appendUleb(nil, tt.v); !bytes.Equal(got, tt.want) {
			t.Errorf("uleb(%d) = % X, want % X", tt.v, got, tt.want)
		}
	}
}

func TestSlebEncoding(t *testing.T) {
	tests := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7F}},
		{63, []byte{0x3F}},
		{64, []byte{0xC0, 0x00}},
		{-64, []byte{0x40}},
		{-65, []byte{0xBF, 0x7F}},
		{-123456, []byte{0xC0, 0xBB, 0x78}},
	}
	for _, tt := range tests {
		if got := appendSleb(nil, tt.v); !bytes.Equal(got, tt.want) {
			t.Errorf("sleb(%d) = % X, want % X", tt.v, got, tt.want)
		}
	}
}

func TestEncodeHeader(t *testing.T) {
	m := &Module{}
	m.AddType(FuncType{})
	out := Encode(m)
	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(out[:8], want) {
		t.Errorf("header = % X, want % X", out[:8], want)
	}
}

func TestEncodeSectionOrder(t *testing.T) {
	m := &Module{}
	ft := m.AddType(FuncType{Params: []ValueType{ValI32}})
	m.Imports = append(m.Imports, Import{Module: "env", Name: "memory", Kind: ImportMemory, MemMin: 1})
	m.Globals = append(m.Globals, Global{Type: ValI32, Mutable: true})
	var code CodeBuf
	code.LocalGet(0)
	code.Op(OpDrop)
	m.Funcs = append(m.Funcs, Function{TypeIdx: ft, Body: code.Bytes()})
	m.Exports = append(m.Exports, Export{Name: "main", FuncIdx: 0})

	out := Encode(m)
	pos := 8
	var order []byte
	for pos < len(out) {
		id := out[pos]
		order = append(order, id)
		pos++
		size, n := readUleb(out[pos:])
		pos += n + int(size)
	}
	want := []byte{secType, secImport, secFunction, secGlobal, secExport, secCode}
	if !bytes.Equal(order, want) {
		t.Errorf("section order = %v, want %v", order, want)
	}
}

func readUleb(b []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, c := range b {
		v |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return v, len(b)
}

func TestEncodeTypeDedup(t *testing.T) {
	m := &Module{}
	a := m.AddType(FuncType{Params: []ValueType{ValF32}, Results: []ValueType{ValF32}})
	b := m.AddType(FuncType{Params: []ValueType{ValF32}, Results: []ValueType{ValF32}})
	c := m.AddType(FuncType{Params: []ValueType{ValI32}})
	if a != b {
		t.Error("identical signatures should intern to one type index")
	}
	if a == c {
		t.Error("distinct signatures must not share a type index")
	}
	if len(m.Types) != 2 {
		t.Errorf("expected 2 interned types, got %d", len(m.Types))
	}
}

func TestEncodeLocalsRunLength(t *testing.T) {
	m := &Module{}
	ft := m.AddType(FuncType{})
	m.Funcs = append(m.Funcs, Function{
		TypeIdx: ft,
		Locals:  []ValueType{ValF32, ValF32, ValI32, ValF32},
	})
	body := encodeFuncBody(&m.Funcs[0])
	// 3 runs: 2×f32, 1×i32, 1×f32.
	want := []byte{
		0x03,
		0x02, byte(ValF32),
		0x01, byte(ValI32),
		0x01, byte(ValF32),
		byte(OpEnd),
	}
	if !bytes.Equal(body, want) {
		t.Errorf("body = % X, want % X", body, want)
	}
}

func TestEncodeDeterminism(t *testing.T) {
	build := func() []byte {
		m := &Module{}
		ft := m.AddType(FuncType{Params: []ValueType{ValF32}, Results: []ValueType{ValF32}})
		var code CodeBuf
		code.LocalGet(0)
		code.F32Const(2)
		code.Op(OpF32Mul)
		m.Funcs = append(m.Funcs, Function{TypeIdx: ft, Body: code.Bytes()})
		return Encode(m)
	}
	if !bytes.Equal(build(), build()) {
		t.Error("encoding the same module twice must be bit-identical")
	}
}
