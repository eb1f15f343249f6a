package webglshader

import (
	"github.com/gogpu/webglshader/bindcfg"
	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/link"
	"github.com/gogpu/webglshader/wasmgen"
)

// UniformLocation is the opaque handle uniform setters use. Values are
// assigned densely from zero at link time.
type UniformLocation uint32

// Program links one vertex and one fragment shader into a pair of
// WASM modules with a resolved shared memory layout.
type Program struct {
	vert *Shader
	frag *Shader

	bindings map[string]uint32

	linked bool
	diags  diag.Diagnostics
	result *link.Result

	// Retained module references, so deleting the shaders after
	// attach keeps the compiled bytes alive.
	vertRef *moduleRef
	fragRef *moduleRef

	deleted bool
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{bindings: make(map[string]uint32)}
}

// Attach attaches a shader to its stage slot. After a successful link,
// further attaches are no-ops until the next Link call.
func (p *Program) Attach(s *Shader) {
	if p.linked || s == nil {
		return
	}
	if s.Kind() == VertexShader {
		p.vert = s
	} else {
		p.frag = s
	}
}

// BindAttribLocation records a pre-link hint binding an attribute name
// to a location. Explicit layout(location=N) qualifiers in the shader
// source take precedence.
func (p *Program) BindAttribLocation(index uint32, name string) {
	if p.linked {
		return
	}
	p.bindings[name] = index
}

// ApplyBindings applies every attribute hint from a loaded binding
// configuration, as if by repeated BindAttribLocation calls.
func (p *Program) ApplyBindings(b *bindcfg.Bindings) {
	if p.linked || b == nil {
		return
	}
	for name, loc := range b.Attributes {
		p.bindings[name] = loc
	}
}

// Link validates and links the attached shaders. On success the
// location assignment is immutable for the lifetime of the program.
func (p *Program) Link() {
	p.unlink()

	if p.vert == nil || p.frag == nil {
		p.diags.Addf(diag.KindLink, diag.Span{}, "program requires an attached vertex and fragment shader")
		return
	}
	if !p.vert.CompileStatus() || !p.frag.CompileStatus() ||
		p.vert.module == nil || p.vert.module.cm == nil ||
		p.frag.module == nil || p.frag.module.cm == nil {
		p.diags.Addf(diag.KindLink, diag.Span{}, "cannot link: attached shaders are not successfully compiled")
		return
	}

	result, diags := link.Link(p.vert.module.cm, p.frag.module.cm, p.bindings)
	p.diags = diags
	if result == nil || diags.HasErrors() {
		return
	}
	p.result = result
	p.vertRef = p.vert.module.retain()
	p.fragRef = p.frag.module.retain()
	p.linked = true
}

func (p *Program) unlink() {
	p.linked = false
	p.result = nil
	p.diags = nil
	if p.vertRef != nil {
		p.vertRef.release()
		p.vertRef = nil
	}
	if p.fragRef != nil {
		p.fragRef.release()
		p.fragRef = nil
	}
}

// LinkStatus reports whether the last Link succeeded.
func (p *Program) LinkStatus() bool { return p.linked }

// InfoLog returns the link diagnostics.
func (p *Program) InfoLog() string { return p.diags.InfoLog() }

// AttribLocation returns the resolved location of a vertex attribute,
// or -1 when the name is not an active attribute.
func (p *Program) AttribLocation(name string) int32 {
	if !p.linked {
		return -1
	}
	if a, ok := p.result.Layout.Attributes[name]; ok {
		return int32(a.Location)
	}
	return -1
}

// UniformLocation returns the opaque location of a uniform, or
// ok=false when the name is not an active uniform.
func (p *Program) UniformLocation(name string) (UniformLocation, bool) {
	if !p.linked {
		return 0, false
	}
	if u, ok := p.result.Layout.Uniforms[name]; ok {
		return UniformLocation(u.Location), true
	}
	return 0, false
}

// VertexModule returns the linked vertex module bytes, instantiable by
// the host with the fixed import shape.
func (p *Program) VertexModule() []byte {
	if !p.linked {
		return nil
	}
	return p.result.Vertex.Bytes
}

// FragmentModule returns the linked fragment module bytes.
func (p *Program) FragmentModule() []byte {
	if !p.linked {
		return nil
	}
	return p.result.Fragment.Bytes
}

// VertexModuleIR returns the linked vertex module's in-memory
// representation, for text serialization and inspection.
func (p *Program) VertexModuleIR() *wasmgen.Module {
	if !p.linked {
		return nil
	}
	return p.result.Vertex.Module
}

// FragmentModuleIR returns the linked fragment module's in-memory
// representation.
func (p *Program) FragmentModuleIR() *wasmgen.Module {
	if !p.linked {
		return nil
	}
	return p.result.Fragment.Module
}

// Layout returns the resolved attribute, uniform and varying tables
// the rasterizer uses at draw time. The zero value is returned before
// a successful link.
func (p *Program) Layout() link.ProgramLayout {
	if !p.linked {
		return link.ProgramLayout{}
	}
	return p.result.Layout
}

// Delete drops the program's references to its modules.
func (p *Program) Delete() {
	if p.deleted {
		return
	}
	p.deleted = true
	p.unlink()
}
