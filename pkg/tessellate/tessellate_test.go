package tessellate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/instruction"
	"github.com/chazu/cuboid/pkg/kernel"
	"github.com/chazu/cuboid/pkg/kernel/sdfx"
	"github.com/chazu/cuboid/pkg/tessellate"
)

// recordingKernel logs every call so tests can check how solids are
// combined without rendering anything.
type recordingKernel struct {
	calls []string
}

type recSolid struct {
	desc     string
	min, max [3]float64
}

func (s *recSolid) BoundingBox() (min, max [3]float64) { return s.min, s.max }

func (k *recordingKernel) record(s string) { k.calls = append(k.calls, s) }

func (k *recordingKernel) Box(b box.Box) kernel.Solid {
	k.record("box " + b.String())
	min, max := kernel.WorldBounds(b)
	return &recSolid{desc: b.String(), min: min, max: max}
}

func (k *recordingKernel) Union(a, b kernel.Solid) kernel.Solid {
	k.record("union")
	return a
}

func (k *recordingKernel) Difference(a, b kernel.Solid) kernel.Solid {
	k.record("difference")
	return a
}

func (k *recordingKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	k.record("intersection")
	return a
}

func (k *recordingKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	k.record("translate")
	return s
}

func (k *recordingKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	k.record("mesh")
	return &kernel.Mesh{Vertices: []float32{0, 0, 0}}, nil
}

func count(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func TestTessellateEmpty(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, &recordingKernel{}, tessellate.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected no meshes, got %d", len(meshes))
	}
}

func TestTessellatePerFragment(t *testing.T) {
	k := &recordingKernel{}
	frags := []box.Box{box.Cube(0, 1), box.Cube(5, 6), box.Cube(10, 10)}

	meshes, err := tessellate.Tessellate(frags, k, tessellate.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
	for i, m := range meshes {
		if m.Label != frags[i].String() {
			t.Errorf("mesh %d label = %q, want %q", i, m.Label, frags[i].String())
		}
	}
	if got := count(k.calls, "union"); got != 0 {
		t.Errorf("per-fragment mode made %d unions", got)
	}
}

func TestTessellateMerged(t *testing.T) {
	k := &recordingKernel{}
	frags := []box.Box{box.Cube(0, 1), box.Cube(5, 6), box.Cube(10, 10)}

	meshes, err := tessellate.Tessellate(frags, k, tessellate.Options{Mode: tessellate.Merged})
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	if got := count(k.calls, "union"); got != 2 {
		t.Errorf("unions = %d, want 2", got)
	}
	if got := count(k.calls, "mesh"); got != 1 {
		t.Errorf("ToMesh calls = %d, want 1", got)
	}
}

func TestTessellateMaxBoxes(t *testing.T) {
	frags := []box.Box{box.Cube(0, 1), box.Cube(5, 6), box.Cube(10, 10)}
	_, err := tessellate.Tessellate(frags, &recordingKernel{}, tessellate.Options{MaxBoxes: 2})
	if !errors.Is(err, tessellate.ErrTooManyBoxes) {
		t.Fatalf("error = %v, want ErrTooManyBoxes", err)
	}
}

func TestTessellateClip(t *testing.T) {
	k := &recordingKernel{}
	clip := box.Cube(0, 5)
	frags := []box.Box{box.Cube(0, 1), box.Cube(4, 8), box.Cube(20, 30)}

	meshes, err := tessellate.Tessellate(frags, k, tessellate.Options{Clip: &clip})
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes inside the clip region, got %d", len(meshes))
	}
	if got := count(k.calls, "intersection"); got != 2 {
		t.Errorf("intersections = %d, want 2", got)
	}
}

func TestTessellateRecenter(t *testing.T) {
	k := &recordingKernel{}
	frags := []box.Box{box.Cube(100, 101)}
	if _, err := tessellate.Tessellate(frags, k, tessellate.Options{Recenter: true}); err != nil {
		t.Fatal(err)
	}
	if got := count(k.calls, "translate"); got != 1 {
		t.Errorf("translations = %d, want 1", got)
	}

	// Already at the origin: nothing to move.
	k = &recordingKernel{}
	if _, err := tessellate.Tessellate([]box.Box{box.Cube(0, 1)}, k, tessellate.Options{Recenter: true}); err != nil {
		t.Fatal(err)
	}
	if got := count(k.calls, "translate"); got != 0 {
		t.Errorf("translations = %d, want 0", got)
	}
}

func TestInstructions(t *testing.T) {
	k := &recordingKernel{}
	instrs := []instruction.Instruction{
		instruction.Off(box.Cube(-5, -1)),
		instruction.On(box.Cube(0, 9)),
		instruction.Off(box.Cube(3, 6)),
		instruction.On(box.Cube(8, 12)),
	}
	mesh, err := tessellate.Instructions(instrs, k, tessellate.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mesh == nil {
		t.Fatal("expected a mesh")
	}
	if got := count(k.calls, "difference"); got != 1 {
		t.Errorf("differences = %d, want 1 (leading off is skipped)", got)
	}
	if got := count(k.calls, "union"); got != 1 {
		t.Errorf("unions = %d, want 1", got)
	}
}

func TestInstructionsOnlyOff(t *testing.T) {
	mesh, err := tessellate.Instructions(
		[]instruction.Instruction{instruction.Off(box.Cube(0, 1))},
		&recordingKernel{}, tessellate.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mesh != nil {
		t.Error("expected no mesh when nothing is on")
	}
}

func TestSdfxHollowCube(t *testing.T) {
	k := sdfx.NewWithCells(40)
	instrs := []instruction.Instruction{
		instruction.On(box.Cube(0, 9)),
		instruction.Off(box.MustFromBounds(3, 6, 3, 6, -1, 10)),
	}
	mesh, err := tessellate.Instructions(instrs, k, tessellate.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	lo, hi := mesh.Bounds()
	for i := 0; i < 3; i++ {
		if lo[i] < -0.5 || hi[i] > 10.5 {
			t.Errorf("axis %d spans [%f, %f], want within [0, 10]", i, lo[i], hi[i])
		}
	}
}
