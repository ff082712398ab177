// Package box implements axis-aligned boxes of unit cells in integer space
// and the clipping operations the region-set engine is built on.
package box

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/chazu/cuboid/pkg/interval"
)

var (
	// ErrMalformed is returned when a box is built from a range with Lo > Hi.
	ErrMalformed = errors.New("malformed box")

	// ErrOutOfRange is returned when a box reaches the int64 extremes, which
	// are outside interval.MinCoord..interval.MaxCoord.
	ErrOutOfRange = errors.New("box coordinate out of range")

	// ErrOverflow is returned when a cell count does not fit in a uint64.
	ErrOverflow = errors.New("volume overflows uint64")
)

// MaxFragments is the most boxes Subtract can return: the 3x3x3 grid minus
// its center cell.
const MaxFragments = 26

// Box is an axis-aligned region with one closed range per axis.
type Box struct {
	X interval.Range `json:"x" yaml:"x"`
	Y interval.Range `json:"y" yaml:"y"`
	Z interval.Range `json:"z" yaml:"z"`
}

// New builds a box from three ranges and rejects any malformed axis.
func New(x, y, z interval.Range) (Box, error) {
	b := Box{X: x, Y: y, Z: z}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// FromBounds builds a box from inclusive per-axis bounds.
func FromBounds(x0, x1, y0, y1, z0, z1 int64) (Box, error) {
	return New(
		interval.Range{Lo: x0, Hi: x1},
		interval.Range{Lo: y0, Hi: y1},
		interval.Range{Lo: z0, Hi: z1},
	)
}

// MustFromBounds is FromBounds for literals known to be well formed.
func MustFromBounds(x0, x1, y0, y1, z0, z1 int64) Box {
	b, err := FromBounds(x0, x1, y0, y1, z0, z1)
	if err != nil {
		panic(err)
	}
	return b
}

// Cube returns the box lo..hi on every axis.
func Cube(lo, hi int64) Box {
	r := interval.Range{Lo: lo, Hi: hi}
	return Box{X: r, Y: r, Z: r}
}

// Validate reports which axis, if any, has Lo > Hi or a bound at the int64
// extremes, and rejects boxes whose volume does not fit in a uint64. Every
// fragment of a valid box is itself valid.
func (b Box) Validate() error {
	for i, r := range b.Axes() {
		if r.Empty() {
			return fmt.Errorf("%w: %s=%s", ErrMalformed, axisNames[i], r)
		}
		if !r.InDomain() {
			return fmt.Errorf("%w: %s=%s", ErrOutOfRange, axisNames[i], r)
		}
	}
	if _, err := b.CheckedVolume(); err != nil {
		return err
	}
	return nil
}

var axisNames = [3]string{"x", "y", "z"}

// Axes returns the three ranges in x, y, z order.
func (b Box) Axes() [3]interval.Range {
	return [3]interval.Range{b.X, b.Y, b.Z}
}

// Empty reports whether any axis is empty.
func (b Box) Empty() bool {
	return b.X.Empty() || b.Y.Empty() || b.Z.Empty()
}

// Volume returns the number of unit cells in b. It panics on an empty box
// or one whose volume overflows; neither passes Validate, so reaching one
// here is a caller bug.
func (b Box) Volume() uint64 {
	if b.Empty() {
		panic(fmt.Sprintf("box: Volume of empty box %s", b))
	}
	v, err := b.CheckedVolume()
	if err != nil {
		panic(fmt.Sprintf("box: Volume of %s: %v", b, err))
	}
	return v
}

// CheckedVolume returns the number of unit cells in b, or ErrOverflow when
// the product of the axis lengths does not fit in a uint64. An empty box has
// volume 0.
func (b Box) CheckedVolume() (uint64, error) {
	if b.Empty() {
		return 0, nil
	}
	hi, xy := bits.Mul64(b.X.Len(), b.Y.Len())
	if hi != 0 {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, b)
	}
	hi, v := bits.Mul64(xy, b.Z.Len())
	if hi != 0 {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, b)
	}
	return v, nil
}

// Contains reports whether o lies entirely within b.
func (b Box) Contains(o Box) bool {
	return b.X.ContainsRange(o.X) && b.Y.ContainsRange(o.Y) && b.Z.ContainsRange(o.Z)
}

// ContainsPoint reports whether the cell (x, y, z) lies within b.
func (b Box) ContainsPoint(x, y, z int64) bool {
	return b.X.Contains(x) && b.Y.Contains(y) && b.Z.Contains(z)
}

// Clamp restricts b to bounds. The second result is false when b lies
// entirely outside bounds.
func (b Box) Clamp(bounds Box) (Box, bool) {
	return Intersect(b, bounds)
}

// Translate returns b moved by (dx, dy, dz).
func (b Box) Translate(dx, dy, dz int64) Box {
	return Box{X: b.X.Shift(dx), Y: b.Y.Shift(dy), Z: b.Z.Shift(dz)}
}

// String renders b the way instruction lines spell regions.
func (b Box) String() string {
	return fmt.Sprintf("x=%s,y=%s,z=%s", b.X, b.Y, b.Z)
}

// Intersect returns the box shared by a and b. Each axis is intersected
// independently; if any axis has no overlap the boxes do not intersect.
func Intersect(a, b Box) (Box, bool) {
	x, ok := interval.Overlap(a.X, b.X)
	if !ok {
		return Box{}, false
	}
	y, ok := interval.Overlap(a.Y, b.Y)
	if !ok {
		return Box{}, false
	}
	z, ok := interval.Overlap(a.Z, b.Z)
	if !ok {
		return Box{}, false
	}
	return Box{X: x, Y: y, Z: z}, true
}

// Intersects reports whether a and b share at least one cell.
func Intersects(a, b Box) bool {
	_, ok := Intersect(a, b)
	return ok
}

// Subtract returns a \ b as at most MaxFragments pairwise disjoint boxes.
//
// When a and b do not intersect, a is returned unchanged as the only
// element. Otherwise each axis of a is cut into before/overlap/after pieces
// and the 3x3x3 product is formed; candidates with an empty axis are
// dropped, as is the center candidate, which is exactly a ∩ b.
func Subtract(a, b Box) []Box {
	return AppendSubtract(nil, a, b)
}

// AppendSubtract appends the fragments of a \ b to dst and returns the
// extended slice. It lets the region-set engine reuse one buffer across a
// whole pass.
func AppendSubtract(dst []Box, a, b Box) []Box {
	overlap, ok := Intersect(a, b)
	if !ok {
		return append(dst, a)
	}

	xs := interval.SplitThree(a.X, overlap.X)
	ys := interval.SplitThree(a.Y, overlap.Y)
	zs := interval.SplitThree(a.Z, overlap.Z)

	for i, x := range xs {
		if x.Empty() {
			continue
		}
		for j, y := range ys {
			if y.Empty() {
				continue
			}
			for k, z := range zs {
				if z.Empty() {
					continue
				}
				if i == 1 && j == 1 && k == 1 {
					continue
				}
				dst = append(dst, Box{X: x, Y: y, Z: z})
			}
		}
	}
	return dst
}

// TotalVolume sums the volumes of boxes. It does not deduplicate overlaps;
// use it on fragments already known to be disjoint. It returns ErrOverflow
// when a box or the running sum exceeds a uint64.
func TotalVolume(boxes []Box) (uint64, error) {
	var total uint64
	for _, b := range boxes {
		v, err := b.CheckedVolume()
		if err != nil {
			return 0, err
		}
		if total, err = AddVolume(total, v); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// AddVolume returns a + v, or ErrOverflow when the sum does not fit in a
// uint64.
func AddVolume(a, v uint64) (uint64, error) {
	sum, carry := bits.Add64(a, v, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, v)
	}
	return sum, nil
}
