// Package kernel defines the geometry kernel interface used to turn integer
// region boxes into renderable solids. The sdfx package provides the
// implementation; the abstraction keeps the rest of the system independent
// of the backend.
package kernel

import "github.com/chazu/cuboid/pkg/box"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Box returns the solid covering every cell of b. Cell x occupies
	// [x, x+1) in world space, so x=0..2 spans [0, 3).
	Box(b box.Box) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// WorldBounds returns the world-space corners of b under the unit-cell
// convention used by Kernel.Box.
func WorldBounds(b box.Box) (min, max [3]float64) {
	for i, r := range b.Axes() {
		min[i] = float64(r.Lo)
		max[i] = float64(r.Hi) + 1
	}
	return min, max
}
