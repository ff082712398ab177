// Package regionset computes the exact number of ON cells left by an
// ordered stream of on/off region instructions.
//
// ON regions are appended as-is and may overlap one another. OFF regions are
// carved out of every stored box immediately, so after each OFF no stored box
// touches it. Overlap between ON boxes is resolved once, by Finalize, which
// repeatedly pops a box, counts it, and subtracts it from everything still
// waiting to be counted.
package regionset

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/cuboid/pkg/box"
	"github.com/chazu/cuboid/pkg/instruction"
)

// ErrFinalized is returned by any operation on a RegionSet after Finalize.
var ErrFinalized = errors.New("regionset: already finalized")

// Order selects which box Finalize pops next. It never changes the result.
type Order int

const (
	OrderLIFO         Order = iota // most recently stored box first
	OrderLargestFirst              // boxes sorted by volume once, largest popped first
)

func (o Order) String() string {
	switch o {
	case OrderLIFO:
		return "lifo"
	case OrderLargestFirst:
		return "largest"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder converts a config or flag value into an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lifo":
		return OrderLIFO, nil
	case "largest", "largest-first":
		return OrderLargestFirst, nil
	}
	return OrderLIFO, fmt.Errorf("unknown finalize order %q, expected lifo or largest", s)
}

// DefaultChunkSize is how many boxes one worker subtracts from in a parallel
// OFF pass.
const DefaultChunkSize = 2048

// Options tunes a RegionSet. The zero value is a sequential LIFO engine.
type Options struct {
	Order Order

	// Workers > 1 spreads each OFF pass over up to Workers goroutines once the
	// set holds more than ChunkSize boxes. Output order matches the
	// sequential pass exactly.
	Workers   int
	ChunkSize int

	// Logf, if set, receives one line per applied instruction.
	Logf func(format string, v ...interface{})
}

// Stats counts work done by a RegionSet.
type Stats struct {
	On       int `json:"on"`        // ON instructions applied
	Off      int `json:"off"`       // OFF instructions applied
	OffNoops int `json:"off_noops"` // OFF instructions that touched no stored box
	Splits   int `json:"splits"`    // boxes replaced by fragments during OFF passes
	Peak     int `json:"peak"`      // largest number of stored boxes seen
}

// Result is the outcome of Finalize.
type Result struct {
	Volume uint64

	// Fragments are the boxes counted by Finalize. They are pairwise
	// disjoint and their union is exactly the set of ON cells.
	Fragments []box.Box
}

// RegionSet is the evolving collection of ON boxes. It is not safe for
// concurrent use.
type RegionSet struct {
	opts      Options
	boxes     []box.Box
	scratch   []box.Box
	stats     Stats
	applied   int
	finalized bool
}

// New returns an empty RegionSet.
func New(opts Options) *RegionSet {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &RegionSet{opts: opts}
}

// Len returns the number of stored boxes.
func (s *RegionSet) Len() int {
	return len(s.boxes)
}

// Boxes returns a copy of the stored boxes in storage order.
func (s *RegionSet) Boxes() []box.Box {
	return slices.Clone(s.boxes)
}

// Stats returns the work counters accumulated so far.
func (s *RegionSet) Stats() Stats {
	return s.stats
}

// Apply applies one instruction. Malformed regions are rejected before the
// set is touched.
func (s *RegionSet) Apply(in instruction.Instruction) error {
	if s.finalized {
		return ErrFinalized
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("instruction %d: %w", s.applied, err)
	}
	if in.On {
		s.applyOn(in.Region)
	} else if err := s.applyOff(in.Region); err != nil {
		return fmt.Errorf("instruction %d: %w", s.applied, err)
	}
	s.applied++
	if s.opts.Logf != nil {
		s.opts.Logf("regionset: #%d %s -> %d boxes", s.applied, in, len(s.boxes))
	}
	return nil
}

// ApplyAll applies instrs in order, stopping at the first error.
func (s *RegionSet) ApplyAll(instrs []instruction.Instruction) error {
	for _, in := range instrs {
		if err := s.Apply(in); err != nil {
			return err
		}
	}
	return nil
}

// ApplyOn stores region unchanged.
func (s *RegionSet) ApplyOn(region box.Box) error {
	return s.Apply(instruction.On(region))
}

// ApplyOff removes region from every stored box.
func (s *RegionSet) ApplyOff(region box.Box) error {
	return s.Apply(instruction.Off(region))
}

func (s *RegionSet) applyOn(region box.Box) {
	s.stats.On++
	s.boxes = append(s.boxes, region)
	s.stats.Peak = max(s.stats.Peak, len(s.boxes))
}

func (s *RegionSet) applyOff(region box.Box) error {
	s.stats.Off++

	touched := 0
	for _, b := range s.boxes {
		if box.Intersects(b, region) {
			touched++
		}
	}
	if touched == 0 {
		s.stats.OffNoops++
		return nil
	}
	s.stats.Splits += touched

	if s.opts.Workers > 1 && len(s.boxes) > s.opts.ChunkSize {
		next, err := subtractParallel(s.boxes, region, s.opts.Workers, s.opts.ChunkSize)
		if err != nil {
			return err
		}
		s.boxes = next
	} else {
		next := subtractAll(s.scratch[:0], s.boxes, region)
		s.boxes, s.scratch = next, s.boxes
	}
	s.stats.Peak = max(s.stats.Peak, len(s.boxes))
	return nil
}

// subtractAll appends the fragments of every b \ cut to dst.
func subtractAll(dst, boxes []box.Box, cut box.Box) []box.Box {
	for _, b := range boxes {
		dst = box.AppendSubtract(dst, b, cut)
	}
	return dst
}

// subtractParallel is subtractAll split into contiguous chunks. Chunk
// outputs are joined in chunk order.
func subtractParallel(boxes []box.Box, cut box.Box, workers, chunkSize int) ([]box.Box, error) {
	chunks := (len(boxes) + chunkSize - 1) / chunkSize
	parts := make([][]box.Box, chunks)

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < chunks; i++ {
		lo := i * chunkSize
		hi := min(lo+chunkSize, len(boxes))
		g.Go(func() error {
			parts[i] = subtractAll(make([]box.Box, 0, hi-lo), boxes[lo:hi], cut)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]box.Box, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// Finalize consumes the set and returns the exact ON volume. It returns an
// error wrapping box.ErrOverflow when the union has more cells than a
// uint64 can count.
//
// Each pass pops one box, adds its whole volume, and subtracts it from every
// box still waiting. A cell counted with the popped box can therefore never
// be counted again, and every surviving fragment is eventually popped, so
// the total is the union volume regardless of pop order.
func (s *RegionSet) Finalize() (Result, error) {
	if s.finalized {
		return Result{}, ErrFinalized
	}
	s.finalized = true

	remaining, scratch := s.boxes, s.scratch[:0]
	s.boxes, s.scratch = nil, nil

	if s.opts.Order == OrderLargestFirst {
		// Sorted ascending so popping from the tail yields the largest.
		slices.SortStableFunc(remaining, func(a, b box.Box) int {
			va, vb := a.Volume(), b.Volume()
			switch {
			case va < vb:
				return -1
			case va > vb:
				return 1
			}
			return 0
		})
	}

	var res Result
	for len(remaining) > 0 {
		last := remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]

		v, err := box.AddVolume(res.Volume, last.Volume())
		if err != nil {
			return Result{}, fmt.Errorf("regionset: union volume: %w", err)
		}
		res.Volume = v
		res.Fragments = append(res.Fragments, last)

		next := subtractAll(scratch[:0], remaining, last)
		remaining, scratch = next, remaining
	}
	if s.opts.Logf != nil {
		s.opts.Logf("regionset: finalized %d fragments, volume %d", len(res.Fragments), res.Volume)
	}
	return res, nil
}

// Run applies instrs to a fresh RegionSet and finalizes it.
func Run(instrs []instruction.Instruction, opts Options) (Result, error) {
	s := New(opts)
	if err := s.ApplyAll(instrs); err != nil {
		return Result{}, err
	}
	return s.Finalize()
}

// Volume returns the number of cells left ON by instrs.
func Volume(instrs []instruction.Instruction) (uint64, error) {
	res, err := Run(instrs, Options{})
	if err != nil {
		return 0, err
	}
	return res.Volume, nil
}
