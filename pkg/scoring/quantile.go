// Package scoring maps continuous feature distributions to ordinal scores
// using quantile binning that tolerates degenerate distributions.
package scoring

import (
	"math"
	"sort"
)

// Quantile assigns each value an ordinal label from labels (ordered lowest
// to highest) by quantile binning with q = len(labels) requested bins.
//
// Heavily discrete inputs (order frequency is mostly 1) collapse bin edges;
// instead of failing, the binning keeps the k distinct bins that are
// achievable and rescales their ranks onto the full label range so the
// extremes of the distribution still receive the extreme labels.
//
// With reverse set, each output label v is remapped to min+max-v over the
// label set, flipping the ordering; recency uses this since smaller is
// better. Applying the remap twice restores the original labels.
//
// The function is total over any finite series: a zero-variance series gets
// the lowest label everywhere, and NaN values (nulls) are excluded from
// binning but still receive the lowest label deterministically.
func Quantile(values []float64, labels []int, reverse bool) []int {
	out := make([]int, len(values))
	if len(labels) == 0 {
		return out
	}
	lowest := labels[0]

	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		for i := range out {
			out[i] = lowest
		}
		return out
	}

	sorted := append([]float64(nil), valid...)
	sort.Float64s(sorted)

	edges := binEdges(sorted, len(labels))
	k := len(edges) - 1

	// Zero variance: one bin (or none) is representable. Ties break toward
	// the lowest label and the reverse remap is skipped so a constant
	// series scores identically in both directions.
	if k <= 1 {
		for i := range out {
			out[i] = lowest
		}
		return out
	}

	minLabel, maxLabel := labels[0], labels[len(labels)-1]
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = lowest
			continue
		}
		code := binCode(edges, v)
		scaled := int(math.Round(float64(code) / float64(k-1) * float64(len(labels)-1)))
		label := labels[scaled]
		if reverse {
			label = minLabel + maxLabel - label
		}
		out[i] = label
	}
	return out
}

// binEdges computes q+1 quantile edges over the sorted series and drops
// duplicates, mirroring quantile binning with duplicate-edge collapse.
func binEdges(sorted []float64, q int) []float64 {
	edges := make([]float64, 0, q+1)
	for i := 0; i <= q; i++ {
		e := quantile(sorted, float64(i)/float64(q))
		if len(edges) == 0 || e > edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	return edges
}

// binCode returns the zero-based bin rank of v: the number of interior
// edges strictly below it. Bins are half-open on the left, so a value equal
// to an edge falls in the lower bin and the minimum lands in bin zero.
func binCode(edges []float64, v float64) int {
	code := 0
	for i := 1; i < len(edges)-1; i++ {
		if v > edges[i] {
			code++
		}
	}
	return code
}

// quantile returns the p-quantile of a sorted series using linear
// interpolation between closest ranks.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
