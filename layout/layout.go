// Package layout plans the shared linear-memory map both compiled
// modules of a program agree on: per-region strides, reserved varying
// slots and uniform packing. All offsets are relative to the region
// base pointers the rasterizer passes to the exported main.
package layout

import (
	"github.com/gogpu/webglshader/abi"
	"github.com/gogpu/webglshader/sem"
)

// Region strides and capacities. Each attribute location owns 64 bytes
// (room for a vec4 of 32-bit components plus alignment slack); each
// varying location owns 16 bytes (one vec4).
const (
	AttributeStride = 64
	MaxAttributes   = 16

	VaryingStride = 16
	MaxVaryings   = 16
)

// Reserved varying-region slots. Slot 0 carries gl_Position out of the
// vertex stage and, interpolated, gl_FragCoord into the fragment
// stage. Slot 1 packs gl_PointSize (at +0) and gl_PointCoord (at +4).
// Slot 2 is the fragment color output. User varyings start at slot 3.
const (
	PositionOffset   = 0 * VaryingStride
	PointSizeOffset  = 1 * VaryingStride
	PointCoordOffset = 1*VaryingStride + 4
	FragColorOffset  = 2 * VaryingStride

	varyingSlotBase = 3
)

// DiscardFlagOffset is the private-region byte the fragment module
// stores 1 to when it executes discard; the wrapper zeroes it on entry
// and the rasterizer tests it after each fragment invocation.
const DiscardFlagOffset = 0

// AttributeOffset returns the attribute-region byte offset of an
// attribute location. Offsets are a strict monotone function of the
// location index.
func AttributeOffset(location int) int {
	return location * AttributeStride
}

// VaryingOffset returns the varying-region byte offset of a user
// varying location, above the reserved slots.
func VaryingOffset(location int) int {
	return (location + varyingSlotBase) * VaryingStride
}

// UniformSlot is one planned uniform: its packed byte offset within
// the module's uniform region and its size.
type UniformSlot struct {
	Name   string
	Type   sem.Type
	Offset int
	Size   int
	Opaque bool
}

// UniformPlan is the packed uniform layout of one compiled module.
// Slots follow declaration order; Size is the full region size.
type UniformPlan struct {
	Slots []UniformSlot
	Size  int
}

// Find returns the slot for a uniform name.
func (p *UniformPlan) Find(name string) (*UniformSlot, bool) {
	for i := range p.Slots {
		if p.Slots[i].Name == name {
			return &p.Slots[i], true
		}
	}
	return nil, false
}

// PlanUniforms packs a shader's uniforms contiguously in declaration
// order: scalars 4 bytes, vectors and matrices their packed size,
// opaque samplers 4 bytes holding the unit handle. Declaration order
// makes the plan deterministic for repeat compiles.
func PlanUniforms(uniforms []sem.Uniform, structs map[string]*sem.StructInfo) *UniformPlan {
	plan := &UniformPlan{}
	off := 0
	for _, u := range uniforms {
		size := abi.SizeOf(u.Type, structs)
		plan.Slots = append(plan.Slots, UniformSlot{
			Name:   u.Name,
			Type:   u.Type,
			Offset: off,
			Size:   size,
			Opaque: u.Kind == sem.UniformOpaque,
		})
		off += size
	}
	plan.Size = off
	return plan
}
