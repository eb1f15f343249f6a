package wasmgen

// Binary serialization to the WebAssembly MVP format: magic, version,
// then sections in ID order (Type 1, Import 2, Function 3, Global 6,
// Export 7, Code 10), every integer LEB128-encoded.

// Section IDs.
const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secGlobal   = 6
	secExport   = 7
	secCode     = 10
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// Encode serializes the module. Two calls over the same module produce
// identical bytes; every section is derived from slice order alone.
func Encode(m *Module) []byte {
	out := make([]byte, 0, 1024)
	out = append(out, wasmHeader...)

	out = appendSection(out, secType, encodeTypes(m))
	if len(m.Imports) > 0 {
		out = appendSection(out, secImport, encodeImports(m))
	}
	if len(m.Funcs) > 0 {
		out = appendSection(out, secFunction, encodeFuncDecls(m))
	}
	if len(m.Globals) > 0 {
		out = appendSection(out, secGlobal, encodeGlobals(m))
	}
	if len(m.Exports) > 0 {
		out = appendSection(out, secExport, encodeExports(m))
	}
	if len(m.Funcs) > 0 {
		out = appendSection(out, secCode, encodeCode(m))
	}
	return out
}

func appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = appendUleb(out, uint64(len(body)))
	return append(out, body...)
}

func encodeTypes(m *Module) []byte {
	b := appendUleb(nil, uint64(len(m.Types)))
	for _, t := range m.Types {
		b = append(b, 0x60)
		b = appendUleb(b, uint64(len(t.Params)))
		for _, p := range t.Params {
			b = append(b, byte(p))
		}
		b = appendUleb(b, uint64(len(t.Results)))
		for _, r := range t.Results {
			b = append(b, byte(r))
		}
	}
	return b
}

func appendName(b []byte, s string) []byte {
	b = appendUleb(b, uint64(len(s)))
	return append(b, s...)
}

func encodeImports(m *Module) []byte {
	b := appendUleb(nil, uint64(len(m.Imports)))
	for _, imp := range m.Imports {
		b = appendName(b, imp.Module)
		b = appendName(b, imp.Name)
		switch imp.Kind {
		case ImportFunc:
			b = append(b, 0x00)
			b = appendUleb(b, uint64(imp.TypeIdx))
		case ImportMemory:
			b = append(b, 0x02)
			b = append(b, 0x00) // limits: min only
			b = appendUleb(b, uint64(imp.MemMin))
		}
	}
	return b
}

func encodeFuncDecls(m *Module) []byte {
	b := appendUleb(nil, uint64(len(m.Funcs)))
	for _, f := range m.Funcs {
		b = appendUleb(b, uint64(f.TypeIdx))
	}
	return b
}

func encodeGlobals(m *Module) []byte {
	b := appendUleb(nil, uint64(len(m.Globals)))
	for _, g := range m.Globals {
		b = append(b, byte(g.Type))
		if g.Mutable {
			b = append(b, 0x01)
		} else {
			b = append(b, 0x00)
		}
		b = append(b, byte(OpI32Const))
		b = appendSleb(b, int64(g.Init))
		b = append(b, byte(OpEnd))
	}
	return b
}

func encodeExports(m *Module) []byte {
	b := appendUleb(nil, uint64(len(m.Exports)))
	for _, e := range m.Exports {
		b = appendName(b, e.Name)
		b = append(b, 0x00) // func export
		b = appendUleb(b, uint64(e.FuncIdx))
	}
	return b
}

func encodeCode(m *Module) []byte {
	b := appendUleb(nil, uint64(len(m.Funcs)))
	for _, f := range m.Funcs {
		body := encodeFuncBody(&f)
		b = appendUleb(b, uint64(len(body)))
		b = append(b, body...)
	}
	return b
}

func encodeFuncBody(f *Function) []byte {
	// Run-length encode consecutive locals of the same type.
	type run struct {
		count uint32
		typ   ValueType
	}
	var runs []run
	for _, l := range f.Locals {
		if n := len(runs); n > 0 && runs[n-1].typ == l {
			runs[n-1].count++
		} else {
			runs = append(runs, run{1, l})
		}
	}
	b := appendUleb(nil, uint64(len(runs)))
	for _, r := range runs {
		b = appendUleb(b, uint64(r.count))
		b = append(b, byte(r.typ))
	}
	b = append(b, f.Body...)
	return append(b, byte(OpEnd))
}
