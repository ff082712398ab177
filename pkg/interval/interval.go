// Package interval implements closed integer ranges along a single axis.
// A Range [Lo, Hi] includes both endpoints and is empty when Lo > Hi.
package interval

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformed is returned when a range is constructed with Lo > Hi.
	ErrMalformed = errors.New("malformed range")

	// ErrOutOfRange is returned for a bound outside [MinCoord, MaxCoord].
	ErrOutOfRange = errors.New("range bound out of range")
)

// MinCoord and MaxCoord bound every coordinate. The int64 extremes are kept
// free so that SplitThree can step one past an overlap without wrapping, and
// so that Len of any valid range fits a uint64.
const (
	MinCoord = math.MinInt64 + 1
	MaxCoord = math.MaxInt64 - 1
)

// Range is an inclusive interval of integer coordinates. It is a value type
// and is never mutated in place.
type Range struct {
	Lo int64 `json:"lo" yaml:"lo"`
	Hi int64 `json:"hi" yaml:"hi"`
}

// New returns the range [lo, hi]. It rejects lo > hi with ErrMalformed and
// bounds outside [MinCoord, MaxCoord] with ErrOutOfRange.
func New(lo, hi int64) (Range, error) {
	r := Range{Lo: lo, Hi: hi}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate reports whether r is non-empty and inside the coordinate domain.
func (r Range) Validate() error {
	if r.Empty() {
		return fmt.Errorf("%w: %s", ErrMalformed, r)
	}
	if !r.InDomain() {
		return fmt.Errorf("%w: %s", ErrOutOfRange, r)
	}
	return nil
}

// InDomain reports whether both bounds lie in [MinCoord, MaxCoord].
func (r Range) InDomain() bool {
	return r.Lo >= MinCoord && r.Lo <= MaxCoord && r.Hi >= MinCoord && r.Hi <= MaxCoord
}

// Empty reports whether the range holds no integers.
func (r Range) Empty() bool {
	return r.Lo > r.Hi
}

// Len returns the number of integers in the range, or 0 if it is empty.
// The subtraction is done in uint64 so that ranges spanning most of the
// int64 domain do not overflow. For a range that passes Validate the result
// is at most 2^64-2.
func (r Range) Len() uint64 {
	if r.Empty() {
		return 0
	}
	return uint64(r.Hi) - uint64(r.Lo) + 1
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v int64) bool {
	return r.Lo <= v && v <= r.Hi
}

// ContainsRange reports whether o lies entirely inside r. An empty o is
// contained in anything.
func (r Range) ContainsRange(o Range) bool {
	if o.Empty() {
		return true
	}
	return r.Lo <= o.Lo && o.Hi <= r.Hi
}

// Clamp restricts r to bounds. The second result is false when nothing of
// r survives.
func (r Range) Clamp(bounds Range) (Range, bool) {
	return Overlap(r, bounds)
}

// Shift returns r translated by d.
func (r Range) Shift(d int64) Range {
	return Range{Lo: r.Lo + d, Hi: r.Hi + d}
}

func (r Range) String() string {
	return fmt.Sprintf("%d..%d", r.Lo, r.Hi)
}

// Overlap returns the intersection of a and b. Ranges that merely touch
// without sharing a coordinate do not overlap. Neither range is assumed to
// start first.
func Overlap(a, b Range) (Range, bool) {
	if a.Empty() || b.Empty() {
		return Range{}, false
	}
	if a.Hi < b.Lo || b.Hi < a.Lo {
		return Range{}, false
	}
	return Range{Lo: max(a.Lo, b.Lo), Hi: min(a.Hi, b.Hi)}, true
}

// SplitThree cuts a into the part before overlap, overlap itself, and the
// part after it. overlap must lie within a; callers obtain it from
// Overlap(a, ...). The outer pieces may be empty and callers are expected
// to check. a must be in the coordinate domain, otherwise stepping past the
// overlap wraps.
func SplitThree(a, overlap Range) [3]Range {
	return [3]Range{
		{Lo: a.Lo, Hi: overlap.Lo - 1},
		overlap,
		{Lo: overlap.Hi + 1, Hi: a.Hi},
	}
}
