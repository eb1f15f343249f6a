package layout

import (
	"testing"

	"github.com/gogpu/webglshader/sem"
)

func TestAttributeOffsets(t *testing.T) {
	if AttributeOffset(0) != 0 {
		t.Errorf("location 0: expected 0, got %d", AttributeOffset(0))
	}
	if AttributeOffset(1) != 64 {
		t.Errorf("location 1: expected 64, got %d", AttributeOffset(1))
	}
	// Strict monotone in the location index.
	for k := 1; k < MaxAttributes; k++ {
		if AttributeOffset(k) <= AttributeOffset(k-1) {
			t.Fatalf("attribute offsets not monotone at %d", k)
		}
		if AttributeOffset(k)-AttributeOffset(k-1) != AttributeStride {
			t.Fatalf("attribute stride broken at %d", k)
		}
	}
}

func TestVaryingOffsets(t *testing.T) {
	// User varyings start above the reserved slots.
	if VaryingOffset(0) <= FragColorOffset {
		t.Errorf("user varying 0 at %d collides with reserved slots", VaryingOffset(0))
	}
	for k := 1; k < MaxVaryings; k++ {
		if VaryingOffset(k)-VaryingOffset(k-1) != VaryingStride {
			t.Fatalf("varying stride broken at %d", k)
		}
	}
}

func TestReservedSlotsDisjoint(t *testing.T) {
	// gl_Position, the point slot and the fragment color each own a
	// distinct 16-byte slot.
	offsets := []int{PositionOffset, PointSizeOffset, FragColorOffset}
	for i, a := range offsets {
		for _, b := range offsets[i+1:] {
			if a/VaryingStride == b/VaryingStride {
				t.Fatalf("reserved slots overlap: %d and %d", a, b)
			}
		}
	}
	if PointCoordOffset/VaryingStride != PointSizeOffset/VaryingStride {
		t.Error("gl_PointCoord should pack into the point slot")
	}
}

func TestPlanUniforms(t *testing.T) {
	uniforms := []sem.Uniform{
		{Name: "u_scale", Type: sem.TFloat},
		{Name: "u_mvp", Type: sem.Mat(4)},
		{Name: "u_color", Type: sem.Vec(sem.Float, 4)},
		{Name: "u_tex", Type: sem.SamplerType(sem.Sampler2D), Kind: sem.UniformOpaque},
	}
	plan := PlanUniforms(uniforms, nil)

	wantOffsets := []int{0, 4, 68, 84}
	wantSizes := []int{4, 64, 16, 4}
	for i, slot := range plan.Slots {
		if slot.Offset != wantOffsets[i] || slot.Size != wantSizes[i] {
			t.Errorf("%s: got offset=%d size=%d, want offset=%d size=%d",
				slot.Name, slot.Offset, slot.Size, wantOffsets[i], wantSizes[i])
		}
	}
	if plan.Size != 88 {
		t.Errorf("region size: expected 88, got %d", plan.Size)
	}
	tex, ok := plan.Find("u_tex")
	if !ok || !tex.Opaque {
		t.Error("u_tex should be an opaque 4-byte slot")
	}
	if _, ok := plan.Find("missing"); ok {
		t.Error("Find should miss unknown names")
	}
}

func TestPlanUniformsDeterministic(t *testing.T) {
	uniforms := []sem.Uniform{
		{Name: "b", Type: sem.TFloat},
		{Name: "a", Type: sem.TFloat},
	}
	p1 := PlanUniforms(uniforms, nil)
	p2 := PlanUniforms(uniforms, nil)
	for i := range p1.Slots {
		if p1.Slots[i] != p2.Slots[i] {
			t.Fatal("uniform plan must be deterministic")
		}
	}
	// Declaration order, not name order.
	if p1.Slots[0].Name != "b" {
		t.Error("uniform plan should follow declaration order")
	}
}
