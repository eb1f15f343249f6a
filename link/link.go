// Package link resolves a compiled vertex/fragment module pair into a
// program: it assigns attribute locations, matches varyings across the
// stage boundary, merges uniform tables, and re-emits both modules
// against the resolved location assignment so they address identical
// byte offsets in the shared memory map.
//
// The linker is the only component that sees both modules; the emitter
// never does.
package link

import (
	"sort"

	"github.com/gogpu/webglshader/diag"
	"github.com/gogpu/webglshader/layout"
	"github.com/gogpu/webglshader/sem"
	"github.com/gogpu/webglshader/wasmgen"
)

// AttributeInfo is one resolved attribute location.
type AttributeInfo struct {
	Name     string
	Type     sem.Type
	Location int
	Offset   int // byte offset in the attribute region
}

// VaryingInfo is one resolved interstage varying.
type VaryingInfo struct {
	Name          string
	Type          sem.Type
	Interpolation sem.Interpolation
	Location      int
	Offset        int // byte offset in the varying region
}

// UniformInfo is one merged uniform. A uniform declared in both stages
// has one location but a storage slot per stage; the rasterizer writes
// uniform data at every offset that is not -1.
type UniformInfo struct {
	Name           string
	Type           sem.Type
	Location       uint32
	Opaque         bool
	VertexOffset   int // -1 when not declared in the vertex stage
	FragmentOffset int // -1 when not declared in the fragment stage
}

// ProgramLayout is the link metadata the rasterizer consumes at draw
// time, alongside the two compiled byte blobs.
type ProgramLayout struct {
	Attributes map[string]AttributeInfo
	Varyings   map[string]VaryingInfo
	Uniforms   map[string]UniformInfo

	// Per-stage uniform region sizes; the fragment stage's region
	// starts right after the vertex stage's when the host lays both
	// into one allocation.
	VertexUniformSize   int
	FragmentUniformSize int
}

// Result is a successful link: resolved layout plus the final module
// bytes (re-emitted against the resolved locations).
type Result struct {
	Layout   ProgramLayout
	Vertex   *wasmgen.CompiledModule
	Fragment *wasmgen.CompiledModule
}

// Link links one vertex and one fragment module. bindings carries the
// host's pre-link Bind-Attrib-Location hints (name -> location);
// explicit layout(location=N) qualifiers take precedence over hints.
func Link(vert, frag *wasmgen.CompiledModule, bindings map[string]uint32) (*Result, diag.Diagnostics) {
	var diags diag.Diagnostics

	if vert == nil || frag == nil {
		diags.Addf(diag.KindLink, diag.Span{}, "program requires a compiled vertex and fragment shader")
		return nil, diags
	}
	if vert.Kind != sem.Vertex || frag.Kind != sem.Fragment {
		diags.Addf(diag.KindLink, diag.Span{}, "attached shaders have the wrong kinds")
		return nil, diags
	}

	attribs := resolveAttributes(vert, bindings, &diags)
	varyings := matchVaryings(vert, frag, &diags)
	uniforms := mergeUniforms(vert, frag, &diags)
	if diags.HasErrors() {
		return nil, diags
	}

	// Re-emit both modules against the resolved assignment. Location
	// assignment is immutable from here on.
	attrLoc := make(map[string]int, len(attribs))
	for n, a := range attribs {
		attrLoc[n] = a.Location
	}
	varyLoc := make(map[string]int, len(varyings))
	for n, v := range varyings {
		varyLoc[n] = v.Location
	}

	newVert, vDiags := wasmgen.Emit(vert.Program, vert.ABI, wasmgen.EmitOptions{
		AttribLocations:  attrLoc,
		VaryingLocations: varyLoc,
	})
	diags = append(diags, vDiags...)
	newFrag, fDiags := wasmgen.Emit(frag.Program, frag.ABI, wasmgen.EmitOptions{
		VaryingLocations: varyLoc,
	})
	diags = append(diags, fDiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	return &Result{
		Layout: ProgramLayout{
			Attributes:          attribs,
			Varyings:            varyings,
			Uniforms:            uniforms,
			VertexUniformSize:   newVert.Uniforms.Size,
			FragmentUniformSize: newFrag.Uniforms.Size,
		},
		Vertex:   newVert,
		Fragment: newFrag,
	}, diags
}

// resolveAttributes assigns every vertex attribute a location:
// explicit qualifiers first, then host binding hints, then dense
// packing into unused slots in declaration order.
func resolveAttributes(vert *wasmgen.CompiledModule, bindings map[string]uint32, diags *diag.Diagnostics) map[string]AttributeInfo {
	out := make(map[string]AttributeInfo)
	owner := make(map[int]string)

	claim := func(name string, loc int, t sem.Type) {
		if prev, taken := owner[loc]; taken {
			diags.Addf(diag.KindLink, diag.Span{},
				"attribute %q cannot be bound to location %d: %q is already bound to location %d", name, loc, prev, loc)
			return
		}
		if loc < 0 || loc >= layout.MaxAttributes {
			diags.Addf(diag.KindLink, diag.Span{}, "attribute %q location %d out of range", name, loc)
			return
		}
		owner[loc] = name
		out[name] = AttributeInfo{Name: name, Type: t, Location: loc, Offset: layout.AttributeOffset(loc)}
	}

	for _, a := range vert.Symbols.Attributes {
		if a.Explicit {
			claim(a.Name, a.Location, a.Type)
		}
	}
	for _, a := range vert.Symbols.Attributes {
		if a.Explicit {
			continue
		}
		if loc, bound := bindings[a.Name]; bound {
			claim(a.Name, int(loc), a.Type)
		}
	}
	next := 0
	for _, a := range vert.Symbols.Attributes {
		if _, done := out[a.Name]; done {
			continue
		}
		for owner[next] != "" {
			next++
		}
		claim(a.Name, next, a.Type)
	}
	return out
}

// matchVaryings pairs every fragment input with the vertex output of
// the same name and assigns each pair (plus unconsumed vertex outputs)
// a shared location.
func matchVaryings(vert, frag *wasmgen.CompiledModule, diags *diag.Diagnostics) map[string]VaryingInfo {
	out := make(map[string]VaryingInfo)
	owner := make(map[int]string)

	vertOuts := make(map[string]*sem.Varying)
	for i := range vert.Symbols.Varyings {
		v := &vert.Symbols.Varyings[i]
		if v.Direction == "out" {
			vertOuts[v.Name] = v
		}
	}

	for i := range frag.Symbols.Varyings {
		fv := &frag.Symbols.Varyings[i]
		if fv.Direction != "in" {
			continue
		}
		vv, found := vertOuts[fv.Name]
		if !found {
			diags.Addf(diag.KindLink, diag.Span{}, "fragment input %q has no matching vertex output", fv.Name)
			continue
		}
		if !vv.Type.Equal(fv.Type) {
			diags.Addf(diag.KindLink, diag.Span{}, "varying %q type mismatch: vertex declares %s, fragment declares %s",
				fv.Name, vv.Type, fv.Type)
			continue
		}
		if vv.Interpolation != fv.Interpolation {
			diags.Addf(diag.KindLink, diag.Span{}, "varying %q interpolation qualifier mismatch between stages", fv.Name)
			continue
		}
	}

	claim := func(name string, loc int, v *sem.Varying) {
		if prev, taken := owner[loc]; taken && prev != name {
			diags.Addf(diag.KindLink, diag.Span{}, "varying %q is already bound to location %d", prev, loc)
			return
		}
		if loc < 0 || loc >= layout.MaxVaryings {
			diags.Addf(diag.KindLink, diag.Span{}, "varying %q location %d out of range", name, loc)
			return
		}
		owner[loc] = name
		out[name] = VaryingInfo{
			Name: name, Type: v.Type, Interpolation: v.Interpolation,
			Location: loc, Offset: layout.VaryingOffset(loc),
		}
	}

	// Vertex outputs drive the assignment; every matched fragment
	// input shares the vertex side's slot by construction.
	names := make([]string, 0, len(vertOuts))
	for n := range vertOuts {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if v := vertOuts[n]; v.Explicit {
			claim(n, v.Location, v)
		}
	}
	// Non-explicit outputs pack in vertex declaration order.
	next := 0
	for i := range vert.Symbols.Varyings {
		v := &vert.Symbols.Varyings[i]
		if v.Direction != "out" || v.Explicit {
			continue
		}
		for owner[next] != "" {
			next++
		}
		claim(v.Name, next, v)
	}
	return out
}

// mergeUniforms builds the program uniform table: a uniform declared
// in both stages with the same name and type is one uniform with one
// location and a storage slot per stage. Locations assign densely from
// zero, vertex declarations first.
func mergeUniforms(vert, frag *wasmgen.CompiledModule, diags *diag.Diagnostics) map[string]UniformInfo {
	out := make(map[string]UniformInfo)
	var next uint32

	for _, u := range vert.Symbols.Uniforms {
		slot, _ := vert.Uniforms.Find(u.Name)
		out[u.Name] = UniformInfo{
			Name: u.Name, Type: u.Type, Location: next,
			Opaque:         u.Kind == sem.UniformOpaque,
			VertexOffset:   slot.Offset,
			FragmentOffset: -1,
		}
		next++
	}
	for _, u := range frag.Symbols.Uniforms {
		slot, _ := frag.Uniforms.Find(u.Name)
		if existing, shared := out[u.Name]; shared {
			if !existing.Type.Equal(u.Type) {
				diags.Addf(diag.KindLink, diag.Span{}, "uniform %q type mismatch: vertex declares %s, fragment declares %s",
					u.Name, existing.Type, u.Type)
				continue
			}
			existing.FragmentOffset = slot.Offset
			out[u.Name] = existing
			continue
		}
		out[u.Name] = UniformInfo{
			Name: u.Name, Type: u.Type, Location: next,
			Opaque:         u.Kind == sem.UniformOpaque,
			VertexOffset:   -1,
			FragmentOffset: slot.Offset,
		}
		next++
	}
	return out
}
