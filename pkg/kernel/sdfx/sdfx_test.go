package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/kernel"
)

const testCells = 40

func assertBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64) {
	t.Helper()
	const tol = 0.01
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], wantMax[i])
		}
	}
}

func TestBoxBoundingBox(t *testing.T) {
	k := New()
	tests := []struct {
		name    string
		b       box.Box
		wantMin [3]float64
		wantMax [3]float64
	}{
		{"single cell", box.Cube(0, 0), [3]float64{0, 0, 0}, [3]float64{1, 1, 1}},
		{"sample region", box.Cube(10, 12), [3]float64{10, 10, 10}, [3]float64{13, 13, 13}},
		{"negative", box.MustFromBounds(-50, -1, -3, 3, 7, 7), [3]float64{-50, -3, 7}, [3]float64{0, 4, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertBounds(t, k.Box(tt.b), tt.wantMin, tt.wantMax)
		})
	}
}

func TestBoxMesh(t *testing.T) {
	k := NewWithCells(testCells)
	mesh, err := k.ToMesh(k.Box(box.MustFromBounds(0, 99, 0, 49, 0, 24)))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}

	// Marching cubes stays within one cell of the true surface.
	lo, hi := mesh.Bounds()
	cell := float32(100) / testCells
	want := [2][3]float32{{0, 0, 0}, {100, 50, 25}}
	for i := 0; i < 3; i++ {
		if lo[i] < want[0][i]-cell || hi[i] > want[1][i]+cell {
			t.Errorf("axis %d: mesh spans [%f, %f], want within a cell of [%f, %f]",
				i, lo[i], hi[i], want[0][i], want[1][i])
		}
	}
}

func TestDifference(t *testing.T) {
	k := NewWithCells(testCells)

	outer := k.Box(box.Cube(0, 9))
	outerMesh, err := k.ToMesh(outer)
	if err != nil {
		t.Fatalf("ToMesh(outer) failed: %v", err)
	}

	// A notch through one face adds surface, so more triangles.
	diff := k.Difference(outer, k.Box(box.MustFromBounds(3, 6, 3, 6, -5, 15)))
	diffMesh, err := k.ToMesh(diff)
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	if diffMesh.TriangleCount() <= outerMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than the box (%d triangles)",
			diffMesh.TriangleCount(), outerMesh.TriangleCount())
	}
	assertBounds(t, diff, [3]float64{0, 0, 0}, [3]float64{10, 10, 10})
}

func TestUnion(t *testing.T) {
	k := NewWithCells(testCells)
	u := k.Union(k.Box(box.Cube(0, 4)), k.Box(box.Cube(3, 9)))
	assertBounds(t, u, [3]float64{0, 0, 0}, [3]float64{10, 10, 10})

	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}

func TestIntersection(t *testing.T) {
	k := NewWithCells(testCells)
	inter := k.Intersection(k.Box(box.Cube(0, 9)), k.Box(box.Cube(5, 14)))
	mesh, err := k.ToMesh(inter)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("intersection mesh is empty")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	moved := k.Translate(k.Box(box.Cube(0, 9)), 100, 200, 300)
	assertBounds(t, moved, [3]float64{100, 200, 300}, [3]float64{110, 210, 310})
}

func TestNewWithCells(t *testing.T) {
	if got := NewWithCells(0).Cells(); got != DefaultMeshCells {
		t.Errorf("Cells() = %d, want default %d", got, DefaultMeshCells)
	}
	if got := NewWithCells(64).Cells(); got != 64 {
		t.Errorf("Cells() = %d, want 64", got)
	}
}
