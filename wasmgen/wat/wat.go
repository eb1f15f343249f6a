// Package wat renders a wasmgen.Module as WebAssembly text format for
// debugging and snapshot testing. Numbering is deterministic: types,
// functions and locals are printed in index order, so the same module
// always renders the same text.
package wat

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/webglshader/wasmgen"
)

// Format renders the module as WAT.
func Format(m *wasmgen.Module) string {
	var sb strings.Builder
	sb.WriteString("(module\n")

	for i, t := range m.Types {
		sb.WriteString(fmt.Sprintf("  (type (;%d;) (func%s%s))\n", i, paramList(t.Params), resultList(t.Results)))
	}
	funcIdx := 0
	for _, imp := range m.Imports {
		switch imp.Kind {
		case wasmgen.ImportMemory:
			sb.WriteString(fmt.Sprintf("  (import %q %q (memory %d))\n", imp.Module, imp.Name, imp.MemMin))
		case wasmgen.ImportFunc:
			sb.WriteString(fmt.Sprintf("  (import %q %q (func (;%d;) (type %d)))\n", imp.Module, imp.Name, funcIdx, imp.TypeIdx))
			funcIdx++
		}
	}
	for i, g := range m.Globals {
		mut := g.Type.String()
		if g.Mutable {
			mut = "(mut " + mut + ")"
		}
		sb.WriteString(fmt.Sprintf("  (global (;%d;) %s (i32.const %d)) (; %s ;)\n", i, mut, g.Init, g.Name))
	}
	for _, fn := range m.Funcs {
		writeFunc(&sb, m, &fn, funcIdx)
		funcIdx++
	}
	for _, e := range m.Exports {
		sb.WriteString(fmt.Sprintf("  (export %q (func %d))\n", e.Name, e.FuncIdx))
	}
	sb.WriteString(")\n")
	return sb.String()
}

func paramList(params []wasmgen.ValueType) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return " (param " + strings.Join(parts, " ") + ")"
}

func resultList(results []wasmgen.ValueType) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.String()
	}
	return " (result " + strings.Join(parts, " ") + ")"
}

func writeFunc(sb *strings.Builder, m *wasmgen.Module, fn *wasmgen.Function, idx int) {
	t := m.Types[fn.TypeIdx]
	sb.WriteString(fmt.Sprintf("  (func (;%d;) (type %d)%s%s (; %s ;)\n", idx, fn.TypeIdx, paramList(t.Params), resultList(t.Results), fn.Name))
	if len(fn.Locals) > 0 {
		parts := make([]string, len(fn.Locals))
		for i, l := range fn.Locals {
			parts[i] = l.String()
		}
		sb.WriteString("    (local " + strings.Join(parts, " ") + ")\n")
	}
	disassemble(sb, fn.Body)
	sb.WriteString("  )\n")
}

// disassemble decodes the emitter's opcode subset back into mnemonic
// lines, indenting on structured control.
func disassemble(sb *strings.Builder, body []byte) {
	pos := 0
	depth := 0
	indent := func() string { return strings.Repeat("  ", depth+2) }
	for pos < len(body) {
		op := wasmgen.Opcode(body[pos])
		pos++
		switch op {
		case wasmgen.OpEnd:
			if depth > 0 {
				depth--
			}
			sb.WriteString(indent() + "end\n")
		case wasmgen.OpElse:
			sb.WriteString(strings.Repeat("  ", depth+1) + "else\n")
		case wasmgen.OpBlock, wasmgen.OpLoop, wasmgen.OpIf:
			bt := body[pos]
			pos++
			name := map[wasmgen.Opcode]string{wasmgen.OpBlock: "block", wasmgen.OpLoop: "loop", wasmgen.OpIf: "if"}[op]
			if bt != 0x40 {
				name += " (result " + wasmgen.ValueType(bt).String() + ")"
			}
			sb.WriteString(indent() + name + "\n")
			depth++
		case wasmgen.OpI32Const:
			v, n := sleb(body[pos:])
			pos += n
			sb.WriteString(indent() + "i32.const " + strconv.FormatInt(v, 10) + "\n")
		case wasmgen.OpF32Const:
			bits := binary.LittleEndian.Uint32(body[pos:])
			pos += 4
			sb.WriteString(indent() + "f32.const " + formatF32(math.Float32frombits(bits)) + "\n")
		case wasmgen.OpLocalGet, wasmgen.OpLocalSet, wasmgen.OpLocalTee,
			wasmgen.OpGlobalGet, wasmgen.OpGlobalSet,
			wasmgen.OpBr, wasmgen.OpBrIf, wasmgen.OpCall:
			v, n := uleb(body[pos:])
			pos += n
			sb.WriteString(indent() + opName(op) + " " + strconv.FormatUint(v, 10) + "\n")
		case wasmgen.OpI32Load, wasmgen.OpF32Load, wasmgen.OpI32Store, wasmgen.OpF32Store:
			align, n := uleb(body[pos:])
			pos += n
			off, n2 := uleb(body[pos:])
			pos += n2
			line := opName(op)
			if off != 0 {
				line += " offset=" + strconv.FormatUint(off, 10)
			}
			if align != 2 {
				line += " align=" + strconv.FormatUint(1<<align, 10)
			}
			sb.WriteString(indent() + line + "\n")
		default:
			name := opName(op)
			if name == "" {
				name = fmt.Sprintf("(; unknown opcode 0x%02X ;)", byte(op))
			}
			sb.WriteString(indent() + name + "\n")
		}
	}
}

// formatF32 prints a float the shortest way that round-trips.
func formatF32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func uleb(b []byte) (uint64, int) {
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

func sleb(b []byte) (int64, int) {
	var v int64
	var shift uint
	for i, c := range b {
		v |= int64(c&0x7F) << shift
		shift += 7
		if c&0x80 == 0 {
			if shift < 64 && c&0x40 != 0 {
				v |= -1 << shift
			}
			return v, i + 1
		}
	}
	return v, len(b)
}

var opNames = map[wasmgen.Opcode]string{
	wasmgen.OpUnreachable: "unreachable",
	wasmgen.OpNop:         "nop",
	wasmgen.OpReturn:      "return",
	wasmgen.OpDrop:        "drop",
	wasmgen.OpSelect:      "select",
	wasmgen.OpLocalGet:    "local.get",
	wasmgen.OpLocalSet:    "local.set",
	wasmgen.OpLocalTee:    "local.tee",
	wasmgen.OpGlobalGet:   "global.get",
	wasmgen.OpGlobalSet:   "global.set",
	wasmgen.OpBr:          "br",
	wasmgen.OpBrIf:        "br_if",
	wasmgen.OpCall:        "call",
	wasmgen.OpI32Load:     "i32.load",
	wasmgen.OpF32Load:     "f32.load",
	wasmgen.OpI32Store:    "i32.store",
	wasmgen.OpF32Store:    "f32.store",

	wasmgen.OpI32Eqz: "i32.eqz",
	wasmgen.OpI32Eq:  "i32.eq",
	wasmgen.OpI32Ne:  "i32.ne",
	wasmgen.OpI32LtS: "i32.lt_s",
	wasmgen.OpI32LtU: "i32.lt_u",
	wasmgen.OpI32GtS: "i32.gt_s",
	wasmgen.OpI32GtU: "i32.gt_u",
	wasmgen.OpI32LeS: "i32.le_s",
	wasmgen.OpI32LeU: "i32.le_u",
	wasmgen.OpI32GeS: "i32.ge_s",
	wasmgen.OpI32GeU: "i32.ge_u",

	wasmgen.OpF32Eq: "f32.eq",
	wasmgen.OpF32Ne: "f32.ne",
	wasmgen.OpF32Lt: "f32.lt",
	wasmgen.OpF32Gt: "f32.gt",
	wasmgen.OpF32Le: "f32.le",
	wasmgen.OpF32Ge: "f32.ge",

	wasmgen.OpI32Add:  "i32.add",
	wasmgen.OpI32Sub:  "i32.sub",
	wasmgen.OpI32Mul:  "i32.mul",
	wasmgen.OpI32DivS: "i32.div_s",
	wasmgen.OpI32DivU: "i32.div_u",
	wasmgen.OpI32RemS: "i32.rem_s",
	wasmgen.OpI32RemU: "i32.rem_u",
	wasmgen.OpI32And:  "i32.and",
	wasmgen.OpI32Or:   "i32.or",
	wasmgen.OpI32Xor:  "i32.xor",
	wasmgen.OpI32Shl:  "i32.shl",
	wasmgen.OpI32ShrS: "i32.shr_s",
	wasmgen.OpI32ShrU: "i32.shr_u",

	wasmgen.OpF32Abs:     "f32.abs",
	wasmgen.OpF32Neg:     "f32.neg",
	wasmgen.OpF32Ceil:    "f32.ceil",
	wasmgen.OpF32Floor:   "f32.floor",
	wasmgen.OpF32Trunc:   "f32.trunc",
	wasmgen.OpF32Nearest: "f32.nearest",
	wasmgen.OpF32Sqrt:    "f32.sqrt",
	wasmgen.OpF32Add:     "f32.add",
	wasmgen.OpF32Sub:     "f32.sub",
	wasmgen.OpF32Mul:     "f32.mul",
	wasmgen.OpF32Div:     "f32.div",
	wasmgen.OpF32Min:     "f32.min",
	wasmgen.OpF32Max:     "f32.max",

	wasmgen.OpI32TruncF32S:   "i32.trunc_f32_s",
	wasmgen.OpI32TruncF32U:   "i32.trunc_f32_u",
	wasmgen.OpF32ConvertI32S: "f32.convert_i32_s",
	wasmgen.OpF32ConvertI32U: "f32.convert_i32_u",
}

func opName(op wasmgen.Opcode) string { return opNames[op] }
