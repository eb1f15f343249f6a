package webglshader

import (
	"runtime"
	"testing"
)

// ---------------------------------------------------------------------------
// Benchmark shader sources — realistic GLSL at different complexity levels
// ---------------------------------------------------------------------------

// benchSmallVertex is a minimal vertex shader.
const benchSmallVertex = `#version 300 es
in vec4 a_position;
void main() {
    gl_Position = a_position;
}
`

// benchSmallFragment is a minimal fragment shader.
const benchSmallFragment = `#version 300 es
precision mediump float;
out vec4 fragColor;
void main() {
    fragColor = vec4(1.0, 0.0, 0.0, 1.0);
}
`

// benchMediumVertex is a skinned-lighting style vertex shader with
// matrix math and a user function.
const benchMediumVertex = `#version 300 es
layout(location = 0) in vec4 a_position;
layout(location = 1) in vec3 a_normal;
layout(location = 2) in vec2 a_uv;
uniform mat4 u_mvp;
uniform mat4 u_model;
out vec3 v_normal;
out vec2 v_uv;
out vec3 v_world;

vec3 rotateNormal(mat4 m, vec3 n) {
    return normalize((m * vec4(n, 0.0)).xyz);
}

void main() {
    v_normal = rotateNormal(u_model, a_normal);
    v_uv = a_uv;
    v_world = (u_model * a_position).xyz;
    gl_Position = u_mvp * a_position;
}
`

// benchMediumFragment is a texture + lighting fragment shader with
// control flow and transcendental calls.
const benchMediumFragment = `#version 300 es
precision mediump float;
uniform sampler2D u_tex;
uniform vec3 u_lightDir;
uniform vec4 u_tint;
uniform float u_time;
in vec3 v_normal;
in vec2 v_uv;
in vec3 v_world;
out vec4 fragColor;

void main() {
    vec4 texel = texture(u_tex, v_uv);
    float ndl = max(dot(normalize(v_normal), -u_lightDir), 0.0);
    float pulse = 0.5 + 0.5 * sin(u_time);
    vec3 color = texel.rgb * u_tint.rgb * (0.2 + 0.8 * ndl);
    for (int i = 0; i < 3; i++) {
        color = mix(color, color * pulse, 0.1);
    }
    fragColor = vec4(color, texel.a * u_tint.a);
}
`

// ---------------------------------------------------------------------------
// Benchmarks
// ---------------------------------------------------------------------------

func benchCompile(b *testing.B, kind ShaderKind, source string) {
	b.Helper()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := NewShader(kind)
		s.SetSource(source)
		s.Compile()
		if !s.CompileStatus() {
			b.Fatalf("compile failed:\n%s", s.InfoLog())
		}
	}
}

func BenchmarkCompileSmallVertex(b *testing.B) {
	benchCompile(b, VertexShader, benchSmallVertex)
}

func BenchmarkCompileSmallFragment(b *testing.B) {
	benchCompile(b, FragmentShader, benchSmallFragment)
}

func BenchmarkCompileMediumVertex(b *testing.B) {
	benchCompile(b, VertexShader, benchMediumVertex)
}

func BenchmarkCompileMediumFragment(b *testing.B) {
	benchCompile(b, FragmentShader, benchMediumFragment)
}

func BenchmarkLinkProgram(b *testing.B) {
	vs := NewShader(VertexShader)
	vs.SetSource(benchMediumVertex)
	vs.Compile()
	fs := NewShader(FragmentShader)
	fs.SetSource(benchMediumFragment)
	fs.Compile()
	if !vs.CompileStatus() || !fs.CompileStatus() {
		b.Fatal("benchmark shaders failed to compile")
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := NewProgram()
		p.Attach(vs)
		p.Attach(fs)
		p.Link()
		if !p.LinkStatus() {
			b.Fatalf("link failed:\n%s", p.InfoLog())
		}
	}
}

// BenchmarkCompileParallel measures throughput when the host drives
// independent compiles from separate goroutines (each with its own
// Shader objects, per the external-exclusion contract).
func BenchmarkCompileParallel(b *testing.B) {
	b.SetParallelism(runtime.NumCPU())
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s := NewShader(FragmentShader)
			s.SetSource(benchMediumFragment)
			s.Compile()
			if !s.CompileStatus() {
				b.Fatalf("compile failed:\n%s", s.InfoLog())
			}
		}
	})
}
