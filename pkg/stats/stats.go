// Package stats summarizes the fragments left after finalization.
package stats

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chazu/cuboid/pkg/box"
)

// Summary describes the volume distribution of a fragment set. Float fields
// are zero for an empty set.
type Summary struct {
	Count  int     `json:"count"`
	Total  uint64  `json:"total"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Volumes returns the volume of each fragment as a float64.
func Volumes(frags []box.Box) []float64 {
	out := make([]float64, len(frags))
	for i, f := range frags {
		out[i] = float64(f.Volume())
	}
	return out
}

// Summarize computes a Summary over frags. Total is exact; the other fields
// are float64 approximations. It fails only when Total overflows.
func Summarize(frags []box.Box) (Summary, error) {
	total, err := box.TotalVolume(frags)
	if err != nil {
		return Summary{}, fmt.Errorf("stats: %w", err)
	}
	s := Summary{Count: len(frags), Total: total}
	if len(frags) == 0 {
		return s, nil
	}

	vols := Volumes(frags)
	slices.Sort(vols)

	s.Mean = stat.Mean(vols, nil)
	if len(vols) > 1 {
		s.StdDev = stat.StdDev(vols, nil)
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, vols, nil)
	s.Min = floats.Min(vols)
	s.Max = floats.Max(vols)
	return s, nil
}

// DefaultBins is the histogram bin count used by SaveHistogram.
const DefaultBins = 20

// SaveHistogram writes a histogram of fragment volumes to path. The image
// format follows the extension (.png, .svg, .pdf).
func SaveHistogram(frags []box.Box, bins int, path string) error {
	if len(frags) == 0 {
		return fmt.Errorf("stats: no fragments to plot")
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Fragment volumes (%d fragments)", len(frags))
	p.X.Label.Text = "cells"
	p.Y.Label.Text = "fragments"

	h, err := plotter.NewHist(plotter.Values(Volumes(frags)), bins)
	if err != nil {
		return fmt.Errorf("stats: histogram: %w", err)
	}
	h.LineStyle.Width = vg.Points(1)
	p.Add(h)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("stats: saving %s: %w", path, err)
	}
	return nil
}
