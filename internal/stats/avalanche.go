// Package stats collects avalanche size distributions from sandpile runs.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram counts how many grains caused an avalanche of each size.
type Histogram struct {
	counts map[int]int
	grains int
}

// NewHistogram returns an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{counts: map[int]int{}}
}

// Add records the avalanche triggered by one grain.
func (h *Histogram) Add(size int) {
	h.counts[size]++
	h.grains++
}

// Grains is the number of recorded grains.
func (h *Histogram) Grains() int { return h.grains }

// Count returns how many grains caused an avalanche of exactly size topples.
func (h *Histogram) Count(size int) int { return h.counts[size] }

// Sizes returns the observed avalanche sizes in ascending order.
func (h *Histogram) Sizes() []int {
	sizes := make([]int, 0, len(h.counts))
	for s := range h.counts {
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)
	return sizes
}

// weighted returns sizes and their counts as parallel float slices,
// optionally skipping the zero size.
func (h *Histogram) weighted(skipZero bool) ([]float64, []float64) {
	var xs, ws []float64
	for _, s := range h.Sizes() {
		if skipZero && s == 0 {
			continue
		}
		xs = append(xs, float64(s))
		ws = append(ws, float64(h.counts[s]))
	}
	return xs, ws
}

// Mean is the average avalanche size over all grains, zeros included.
func (h *Histogram) Mean() float64 {
	if h.grains == 0 {
		return 0
	}
	xs, ws := h.weighted(false)
	return stat.Mean(xs, ws)
}

// Max is the largest recorded avalanche.
func (h *Histogram) Max() int {
	xs, _ := h.weighted(false)
	if len(xs) == 0 {
		return 0
	}
	return int(floats.Max(xs))
}

// Toppled is the fraction of grains that caused at least one topple.
func (h *Histogram) Toppled() float64 {
	if h.grains == 0 {
		return 0
	}
	_, ws := h.weighted(true)
	return floats.Sum(ws) / float64(h.grains)
}

// Exponent fits count(s) ~ s^-tau by least squares in log-log space over
// non-zero sizes and returns tau. ok is false with fewer than two distinct
// sizes.
func (h *Histogram) Exponent() (tau float64, ok bool) {
	xs, ws := h.weighted(true)
	if len(xs) < 2 {
		return 0, false
	}
	lx := make([]float64, len(xs))
	ly := make([]float64, len(ws))
	for i := range xs {
		lx[i] = math.Log(xs[i])
		ly[i] = math.Log(ws[i])
	}
	_, beta := stat.LinearRegression(lx, ly, nil, false)
	return -beta, true
}

// Binned sums counts into logarithmic bins: bin k holds sizes in
// [2^k, 2^(k+1)). Zero-size avalanches are excluded.
func (h *Histogram) Binned() []float64 {
	var bins []float64
	for s, c := range h.counts {
		if s <= 0 {
			continue
		}
		k := 0
		for v := s; v > 1; v >>= 1 {
			k++
		}
		for len(bins) <= k {
			bins = append(bins, 0)
		}
		bins[k] += float64(c)
	}
	return bins
}

// Plot renders log10(1+count) per logarithmic bin as an ascii chart.
func (h *Histogram) Plot(height int) string {
	bins := h.Binned()
	if len(bins) == 0 {
		return ""
	}
	series := make([]float64, len(bins))
	for i, c := range bins {
		series[i] = math.Log10(1 + c)
	}
	if len(series) == 1 {
		series = append(series, series[0])
	}
	return asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Caption("log10 avalanches per size bin (2^k)"))
}

// Summary is a one-line description of the distribution.
func (h *Histogram) Summary() string {
	tau, ok := h.Exponent()
	exp := "n/a"
	if ok {
		exp = fmt.Sprintf("%.3f", tau)
	}
	return fmt.Sprintf("grains=%d toppled=%.1f%% mean=%.2f max=%d tau=%s",
		h.grains, 100*h.Toppled(), h.Mean(), h.Max(), exp)
}
