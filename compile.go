package webglshader

import (
	"github.com/gogpu/webglshader/abi"
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/glsl"
	"github.com/gogpu/webglshader/sem"
	"github.com/gogpu/webglshader/wasmgen"
)

// compileSource runs the full per-shader pipeline: lex, parse, check,
// classify, emit, serialize. The stage sequence is deterministic, so
// compiling identical source twice produces bit-identical bytes.
func compileSource(kind sem.ShaderKind, source string) (*wasmgen.CompiledModule, diag.Diagnostics) {
	var diags diag.Diagnostics

	lexer := glsl.NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		diags.Addf(diag.KindSyntax, diag.Span{}, "%s", err.Error())
		return nil, diags
	}

	parser := glsl.NewParser(tokens)
	module, parseDiags := parser.Parse(lexer.VersionSeen && lexer.VersionES)
	diags = append(diags, parseDiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	prog, semDiags := sem.Check(module, kind)
	diags = append(diags, semDiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	abis := abi.ClassifyAll(prog)

	cm, emitDiags := wasmgen.Emit(prog, abis, wasmgen.EmitOptions{})
	diags = append(diags, emitDiags...)
	if diags.HasErrors() {
		return nil, diags
	}
	return cm, diags
}
