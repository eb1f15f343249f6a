// Package webglshader is a host-side GLSL ES 3.00 shader compilation
// and linking core for a software WebGL2 implementation.
//
// It compiles vertex and fragment shader source to WebAssembly modules
// and links pairs of them into programs whose modules share a linear
// memory layout with the host rasterizer.
//
// The compilation pipeline is:
//  1. Lex and parse GLSL source to an AST (package glsl)
//  2. Type-check and resolve to a typed program (package sem)
//  3. Classify function ABIs (package abi)
//  4. Emit and serialize a WASM module (package wasmgen)
//
// Linking (package link) matches varyings, resolves attribute and
// uniform locations and produces the final module bytes plus the
// layout tables the rasterizer consumes at draw time.
//
// Example:
//
//	vs := webglshader.NewShader(webglshader.VertexShader)
//	vs.SetSource(vertexSource)
//	vs.Compile()
//	if !vs.CompileStatus() {
//	    log.Fatal(vs.InfoLog())
//	}
//	fs := webglshader.NewShader(webglshader.FragmentShader)
//	fs.SetSource(fragmentSource)
//	fs.Compile()
//
//	prog := webglshader.NewProgram()
//	prog.Attach(vs)
//	prog.Attach(fs)
//	prog.Link()
//	if !prog.LinkStatus() {
//	    log.Fatal(prog.InfoLog())
//	}
//	wasmBytes := prog.VertexModule()
//
// The package is single-threaded and synchronous: compile and link
// calls return when they finish, and the caller provides external
// mutual exclusion if it shares objects across goroutines.
package webglshader

import (
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/sem"
)

// ShaderKind selects the pipeline stage a Shader compiles for.
type ShaderKind = sem.ShaderKind

// Shader kinds.
const (
	VertexShader   = sem.Vertex
	FragmentShader = sem.Fragment
)

// Shader is one shader object: a source string, a compile status, an
// info log, and — after a successful compile — a compiled module.
type Shader struct {
	kind    ShaderKind
	source  string
	status  bool
	diags   diag.Diagnostics
	module  *moduleRef
	deleted bool
}

// NewShader creates an empty shader of the given kind.
func NewShader(kind ShaderKind) *Shader {
	return &Shader{kind: kind}
}

// Kind returns the shader's stage.
func (s *Shader) Kind() ShaderKind { return s.kind }

// SetSource replaces the shader's source. It does not recompile; the
// previous compile result stays until the next Compile call.
func (s *Shader) SetSource(src string) {
	s.source = src
}

// Compile compiles the current source. All errors land in the info
// log; Compile never panics on user input.
func (s *Shader) Compile() {
	s.release()
	s.status = false

	cm, diags := compileSource(s.kind, s.source)
	s.diags = diags
	if cm == nil || diags.HasErrors() {
		return
	}
	s.module = newModuleRef(cm)
	s.status = true
}

// CompileStatus reports whether the last Compile succeeded.
func (s *Shader) CompileStatus() bool { return s.status }

// InfoLog returns the accumulated compile diagnostics, one line per
// message, errors prefixed with "ERROR:".
func (s *Shader) InfoLog() string { return s.diags.InfoLog() }

// CompiledBytes returns the serialized WASM module of the last
// successful compile, or nil.
func (s *Shader) CompiledBytes() []byte {
	if s.module == nil || s.module.cm == nil {
		return nil
	}
	return s.module.cm.Bytes
}

// Delete releases the shader's reference to its compiled module. A
// program that attached this shader keeps the module alive.
func (s *Shader) Delete() {
	if s.deleted {
		return
	}
	s.deleted = true
	s.release()
}

func (s *Shader) release() {
	if s.module != nil {
		s.module.release()
		s.module = nil
	}
}
