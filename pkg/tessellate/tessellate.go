// Package tessellate turns region boxes into triangle meshes using a
// geometry kernel. Fragments can be meshed one by one or merged into a
// single solid, and an instruction stream can be meshed directly by
// replaying it as unions and differences.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/instruction"
	"github.com/chazu/cuboid/pkg/kernel"
)

// DefaultMaxBoxes bounds how many solids one call may combine.
const DefaultMaxBoxes = 256

// ErrTooManyBoxes is returned when the input exceeds Options.MaxBoxes.
var ErrTooManyBoxes = errors.New("tessellate: too many boxes")

// Mode selects how fragments become meshes.
type Mode int

const (
	PerFragment Mode = iota // one mesh per fragment
	Merged                  // one mesh for the union of all fragments
)

func (m Mode) String() string {
	switch m {
	case PerFragment:
		return "per-fragment"
	case Merged:
		return "merged"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options controls tessellation.
type Options struct {
	Mode     Mode
	MaxBoxes int // 0 means DefaultMaxBoxes

	// Clip, if set, limits output to this region. Fragments entirely outside
	// it are skipped.
	Clip *box.Box

	// Recenter moves the output so the minimum corner of the input bounds
	// sits at the origin. Keeps float32 vertices precise for far-away
	// regions.
	Recenter bool
}

func (o Options) maxBoxes() int {
	if o.MaxBoxes <= 0 {
		return DefaultMaxBoxes
	}
	return o.MaxBoxes
}

// Tessellate produces meshes for frags using the provided geometry kernel.
// It never modifies frags.
func Tessellate(frags []box.Box, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	frags = clipped(frags, opts.Clip)
	if len(frags) == 0 {
		return nil, nil
	}
	if len(frags) > opts.maxBoxes() {
		return nil, fmt.Errorf("%w: %d fragments, limit %d", ErrTooManyBoxes, len(frags), opts.maxBoxes())
	}

	w := newWalker(k, opts, frags)

	if opts.Mode == Merged {
		var solid kernel.Solid
		for _, f := range frags {
			solid = w.union(solid, f)
		}
		mesh, err := w.mesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: merged mesh: %w", err)
		}
		mesh.Label = fmt.Sprintf("union of %d fragments", len(frags))
		return []*kernel.Mesh{mesh}, nil
	}

	meshes := make([]*kernel.Mesh, 0, len(frags))
	for _, f := range frags {
		mesh, err := w.mesh(w.solid(f))
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for fragment %s: %w", f, err)
		}
		mesh.Label = f.String()
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Instructions meshes an instruction stream directly: ON regions are
// unioned in and OFF regions are differenced out, in order. OFF regions
// before the first ON are ignored.
func Instructions(instrs []instruction.Instruction, k kernel.Kernel, opts Options) (*kernel.Mesh, error) {
	if len(instrs) > opts.maxBoxes() {
		return nil, fmt.Errorf("%w: %d instructions, limit %d", ErrTooManyBoxes, len(instrs), opts.maxBoxes())
	}

	regions := make([]box.Box, 0, len(instrs))
	for _, in := range instrs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		regions = append(regions, in.Region)
	}
	w := newWalker(k, opts, regions)

	var solid kernel.Solid
	for _, in := range instrs {
		switch {
		case in.On:
			solid = w.union(solid, in.Region)
		case solid != nil:
			solid = k.Difference(solid, w.solid(in.Region))
		}
	}
	if solid == nil {
		return nil, nil
	}

	mesh, err := w.mesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: instruction mesh: %w", err)
	}
	mesh.Label = fmt.Sprintf("%d instructions", len(instrs))
	return mesh, nil
}

// walker carries the per-call kernel state.
type walker struct {
	k      kernel.Kernel
	clip   kernel.Solid
	offset [3]float64
	shift  bool
}

func newWalker(k kernel.Kernel, opts Options, regions []box.Box) *walker {
	w := &walker{k: k}
	if opts.Clip != nil {
		w.clip = k.Box(*opts.Clip)
	}
	if opts.Recenter && len(regions) > 0 {
		lo, _ := kernel.WorldBounds(bounds(regions))
		w.offset = [3]float64{-lo[0], -lo[1], -lo[2]}
		w.shift = lo != [3]float64{}
	}
	return w
}

// solid returns the world solid for b.
func (w *walker) solid(b box.Box) kernel.Solid {
	return w.k.Box(b)
}

func (w *walker) union(acc kernel.Solid, b box.Box) kernel.Solid {
	s := w.solid(b)
	if acc == nil {
		return s
	}
	return w.k.Union(acc, s)
}

// mesh applies clipping and recentering, then tessellates.
func (w *walker) mesh(s kernel.Solid) (*kernel.Mesh, error) {
	if w.clip != nil {
		s = w.k.Intersection(s, w.clip)
	}
	if w.shift {
		s = w.k.Translate(s, w.offset[0], w.offset[1], w.offset[2])
	}
	return w.k.ToMesh(s)
}

// clipped drops fragments entirely outside clip. Partially covered
// fragments are kept whole; the kernel trims them.
func clipped(frags []box.Box, clip *box.Box) []box.Box {
	if clip == nil {
		return frags
	}
	var out []box.Box
	for _, f := range frags {
		if box.Intersects(f, *clip) {
			out = append(out, f)
		}
	}
	return out
}

// bounds returns the smallest box containing every region.
func bounds(regions []box.Box) box.Box {
	b := regions[0]
	for _, r := range regions[1:] {
		b.X.Lo, b.X.Hi = min(b.X.Lo, r.X.Lo), max(b.X.Hi, r.X.Hi)
		b.Y.Lo, b.Y.Hi = min(b.Y.Lo, r.Y.Lo), max(b.Y.Hi, r.Y.Hi)
		b.Z.Lo, b.Z.Hi = min(b.Z.Lo, r.Z.Lo), max(b.Z.Hi, r.Z.Hi)
	}
	return b
}
