package link

import (
	"testing"

	"github.com/gogpu/webglshader/abi"
	"github.com/gogpu/webglshader/glsl"
	"github.com/gogpu/webglshader/sem"
	"github.com/gogpu/webglshader/wasmgen"
)

func compile(t *testing.T, kind sem.ShaderKind, source string) *wasmgen.CompiledModule {
	t.Helper()
	lexer := glsl.NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	module, diags := glsl.NewParser(tokens).Parse(true)
	if diags.HasErrors() {
		t.Fatalf("parse: %v", diags)
	}
	prog, diags := sem.Check(module, kind)
	if diags.HasErrors() {
		t.Fatalf("check: %v", diags)
	}
	cm, diags := wasmgen.Emit(prog, abi.ClassifyAll(prog), wasmgen.EmitOptions{})
	if diags.HasErrors() {
		t.Fatalf("emit: %v", diags)
	}
	return cm
}

const passFrag = "precision mediump float; out vec4 c; void main(){c=vec4(1);}"

func TestLinkResolvesSharedVaryingLocations(t *testing.T) {
	vert := compile(t, sem.Vertex, `
out vec3 v_a;
out float v_b;
void main(){ v_a=vec3(0.0); v_b=1.0; gl_Position=vec4(0); }`)
	frag := compile(t, sem.Fragment, `
precision mediump float;
in float v_b;
in vec3 v_a;
out vec4 c;
void main(){ c = vec4(v_a, v_b); }`)

	result, diags := Link(vert, frag, nil)
	if diags.HasErrors() {
		t.Fatalf("link: %v", diags)
	}

	// Both re-emitted modules carry the same assignment, so loads and
	// stores hit identical offsets.
	for name, info := range result.Layout.Varyings {
		vLoc := result.Vertex.VaryingLocations[name]
		fLoc := result.Fragment.VaryingLocations[name]
		if vLoc != info.Location || fLoc != info.Location {
			t.Errorf("varying %q: layout=%d vertex=%d fragment=%d", name, info.Location, vLoc, fLoc)
		}
	}
}

func TestLinkExplicitVaryingLocation(t *testing.T) {
	vert := compile(t, sem.Vertex, `
layout(location=4) out vec2 v_uv;
void main(){ v_uv=vec2(0.0); gl_Position=vec4(0); }`)
	frag := compile(t, sem.Fragment, `
precision mediump float;
in vec2 v_uv;
out vec4 c;
void main(){ c = vec4(v_uv, 0.0, 1.0); }`)

	result, diags := Link(vert, frag, nil)
	if diags.HasErrors() {
		t.Fatalf("link: %v", diags)
	}
	if result.Layout.Varyings["v_uv"].Location != 4 {
		t.Errorf("explicit varying location lost: %+v", result.Layout.Varyings["v_uv"])
	}
}

func TestLinkInterpolationMismatch(t *testing.T) {
	vert := compile(t, sem.Vertex, `
flat out float v;
void main(){ v=1.0; gl_Position=vec4(0); }`)
	frag := compile(t, sem.Fragment, `
precision mediump float;
in float v;
out vec4 c;
void main(){ c = vec4(v); }`)

	_, diags := Link(vert, frag, nil)
	if !diags.HasErrors() {
		t.Fatal("expected interpolation mismatch to fail the link")
	}
}

func TestLinkUniformMerge(t *testing.T) {
	vert := compile(t, sem.Vertex, `
uniform mat4 u_mvp;
uniform float u_shared;
in vec4 a_p;
void main(){ gl_Position = u_mvp * a_p * u_shared; }`)
	frag := compile(t, sem.Fragment, `
precision mediump float;
uniform float u_shared;
uniform vec4 u_tint;
out vec4 c;
void main(){ c = u_tint * u_shared; }`)

	result, diags := Link(vert, frag, nil)
	if diags.HasErrors() {
		t.Fatalf("link: %v", diags)
	}
	uniforms := result.Layout.Uniforms
	if len(uniforms) != 3 {
		t.Fatalf("expected 3 merged uniforms, got %d", len(uniforms))
	}

	// Locations are dense from zero.
	seen := map[uint32]bool{}
	for _, u := range uniforms {
		if seen[u.Location] {
			t.Errorf("duplicate uniform location %d", u.Location)
		}
		seen[u.Location] = true
	}
	for i := uint32(0); i < 3; i++ {
		if !seen[i] {
			t.Errorf("uniform location %d unassigned", i)
		}
	}

	shared := uniforms["u_shared"]
	if shared.VertexOffset < 0 || shared.FragmentOffset < 0 {
		t.Errorf("shared uniform needs storage in both stages: %+v", shared)
	}
	if only := uniforms["u_mvp"]; only.FragmentOffset != -1 {
		t.Errorf("vertex-only uniform should have no fragment slot: %+v", only)
	}
}

func TestLinkUniformTypeMismatch(t *testing.T) {
	vert := compile(t, sem.Vertex, `
uniform float u_x;
void main(){ gl_Position = vec4(u_x); }`)
	frag := compile(t, sem.Fragment, `
precision mediump float;
uniform vec2 u_x;
out vec4 c;
void main(){ c = vec4(u_x, 0.0, 1.0); }`)

	_, diags := Link(vert, frag, nil)
	if !diags.HasErrors() {
		t.Fatal("expected uniform type mismatch to fail the link")
	}
}

func TestLinkBindingHints(t *testing.T) {
	vert := compile(t, sem.Vertex, `
in vec4 a_pos;
in vec3 a_nrm;
void main(){ gl_Position = a_pos + vec4(a_nrm, 0.0); }`)
	frag := compile(t, sem.Fragment, passFrag)

	result, diags := Link(vert, frag, map[string]uint32{"a_nrm": 3})
	if diags.HasErrors() {
		t.Fatalf("link: %v", diags)
	}
	if result.Layout.Attributes["a_nrm"].Location != 3 {
		t.Errorf("binding hint ignored: %+v", result.Layout.Attributes["a_nrm"])
	}
	if result.Layout.Attributes["a_pos"].Location != 0 {
		t.Errorf("packed attribute should take location 0: %+v", result.Layout.Attributes["a_pos"])
	}
	// Attribute offsets follow the 64-byte stride.
	if result.Layout.Attributes["a_nrm"].Offset != 3*64 {
		t.Errorf("offset should be location*64: %+v", result.Layout.Attributes["a_nrm"])
	}
}

func TestLinkNilModules(t *testing.T) {
	if _, diags := Link(nil, nil, nil); !diags.HasErrors() {
		t.Fatal("linking nil modules must fail")
	}
}
