package interval

import (
	"errors"
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		lo, hi  int64
		wantErr error
	}{
		{"ordinary", -3, 4, nil},
		{"single cell", 7, 7, nil},
		{"reversed", 5, 4, ErrMalformed},
		{"domain edges", MinCoord, MaxCoord, nil},
		{"min int64 lower bound", math.MinInt64, 0, ErrOutOfRange},
		{"max int64 upper bound", 0, math.MaxInt64, ErrOutOfRange},
		{"min int64 single cell", math.MinInt64, math.MinInt64, ErrOutOfRange},
		{"max int64 single cell", math.MaxInt64, math.MaxInt64, ErrOutOfRange},
		{"full int64", math.MinInt64, math.MaxInt64, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.lo, tt.hi)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New(%d, %d) error = %v, want %v", tt.lo, tt.hi, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%d, %d) error = %v", tt.lo, tt.hi, err)
			}
			if r.Lo != tt.lo || r.Hi != tt.hi {
				t.Errorf("New(%d, %d) = %v", tt.lo, tt.hi, r)
			}
		})
	}
}

func TestLen(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want uint64
	}{
		{"single cell", Range{0, 0}, 1},
		{"positive", Range{10, 12}, 3},
		{"crosses zero", Range{-5, 5}, 11},
		{"empty", Range{3, 2}, 0},
		{"huge", Range{math.MinInt64, 0}, 1<<63 + 1},
		{"whole domain", Range{MinCoord, MaxCoord}, math.MaxUint64 - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Len(); got != tt.want {
				t.Errorf("%v.Len() = %d, want %d", tt.r, got, tt.want)
			}
		})
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Range
		want   Range
		wantOK bool
	}{
		{"identical", Range{0, 9}, Range{0, 9}, Range{0, 9}, true},
		{"b inside a", Range{0, 9}, Range{3, 6}, Range{3, 6}, true},
		{"a inside b", Range{3, 6}, Range{0, 9}, Range{3, 6}, true},
		{"partial left", Range{0, 5}, Range{3, 9}, Range{3, 5}, true},
		{"partial right", Range{3, 9}, Range{0, 5}, Range{3, 5}, true},
		{"single shared cell", Range{0, 1}, Range{1, 2}, Range{1, 1}, true},
		{"adjacent", Range{0, 1}, Range{2, 3}, Range{}, false},
		{"disjoint reversed", Range{10, 20}, Range{-5, -1}, Range{}, false},
		{"empty operand", Range{5, 4}, Range{0, 9}, Range{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Overlap(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("Overlap(%v, %v) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Overlap(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSplitThree(t *testing.T) {
	tests := []struct {
		name       string
		a, overlap Range
		want       [3]Range
		wantEmpty  [3]bool
	}{
		{
			name:      "middle",
			a:         Range{0, 9},
			overlap:   Range{3, 6},
			want:      [3]Range{{0, 2}, {3, 6}, {7, 9}},
			wantEmpty: [3]bool{false, false, false},
		},
		{
			name:      "flush left",
			a:         Range{0, 9},
			overlap:   Range{0, 4},
			want:      [3]Range{{0, -1}, {0, 4}, {5, 9}},
			wantEmpty: [3]bool{true, false, false},
		},
		{
			name:      "flush right",
			a:         Range{0, 9},
			overlap:   Range{5, 9},
			want:      [3]Range{{0, 4}, {5, 9}, {10, 9}},
			wantEmpty: [3]bool{false, false, true},
		},
		{
			name:      "whole",
			a:         Range{-2, 2},
			overlap:   Range{-2, 2},
			want:      [3]Range{{-2, -3}, {-2, 2}, {3, 2}},
			wantEmpty: [3]bool{true, false, true},
		},
		{
			name:      "domain edges",
			a:         Range{MinCoord, MaxCoord},
			overlap:   Range{MinCoord, MaxCoord},
			want:      [3]Range{{MinCoord, math.MinInt64}, {MinCoord, MaxCoord}, {math.MaxInt64, MaxCoord}},
			wantEmpty: [3]bool{true, false, true},
		},
		{
			name:      "single cell at the lower edge",
			a:         Range{MinCoord, 0},
			overlap:   Range{MinCoord, MinCoord},
			want:      [3]Range{{MinCoord, math.MinInt64}, {MinCoord, MinCoord}, {MinCoord + 1, 0}},
			wantEmpty: [3]bool{true, false, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitThree(tt.a, tt.overlap)
			if got != tt.want {
				t.Errorf("SplitThree(%v, %v) = %v, want %v", tt.a, tt.overlap, got, tt.want)
			}
			var total uint64
			for i, p := range got {
				if p.Empty() != tt.wantEmpty[i] {
					t.Errorf("piece %d (%v) Empty() = %v, want %v", i, p, p.Empty(), tt.wantEmpty[i])
				}
				total += p.Len()
			}
			if total != tt.a.Len() {
				t.Errorf("pieces cover %d cells, want %d", total, tt.a.Len())
			}
		})
	}
}

func TestContainsRange(t *testing.T) {
	outer := Range{0, 9}
	if !outer.ContainsRange(Range{0, 9}) {
		t.Error("range should contain itself")
	}
	if !outer.ContainsRange(Range{4, 3}) {
		t.Error("empty range should be contained")
	}
	if outer.ContainsRange(Range{-1, 3}) {
		t.Error("-1..3 is not inside 0..9")
	}
	if !outer.Contains(9) || outer.Contains(10) {
		t.Error("Contains should include Hi and nothing past it")
	}
}

func TestClamp(t *testing.T) {
	bounds := Range{-50, 50}
	got, ok := Range{-60, 10}.Clamp(bounds)
	if !ok || got != (Range{-50, 10}) {
		t.Errorf("Clamp = %v, %v; want -50..10, true", got, ok)
	}
	if _, ok := (Range{51, 100}).Clamp(bounds); ok {
		t.Error("51..100 should be clamped away entirely")
	}
}

func TestString(t *testing.T) {
	if got := (Range{-3, 4}).String(); got != "-3..4" {
		t.Errorf("String() = %q, want %q", got, "-3..4")
	}
	if got := (Range{1, 2}).Shift(-5); got != (Range{-4, -3}) {
		t.Errorf("Shift(-5) = %v, want -4..-3", got)
	}
}
