// Package detect implements second-derivative-based peak detection over a
// smoothed intensity sequence, emitting candidate peak triplets
// (left-inflection, apex, right-inflection). It has no configuration beyond
// the signal region, so it exposes a single function rather than a
// Settings/Builder type, matching the teacher's small single-purpose
// analysis helpers (e.g. analysis.Compare's free function shape).
package detect

import "github.com/cwbudde/metabodecon/spectrum"

// Triplet is a candidate peak: indices of the left inflection, apex, and
// right inflection in the smoothed intensity sequence.
type Triplet struct {
	L, C, R int
}

// Detect scans the second difference of the smoothed intensities y within
// region and returns candidate triplets in ascending apex order. No triplet
// straddles the boundary of region.
func Detect(y []float64, region spectrum.SignalRegion) []Triplet {
	n := len(y)
	if n < 3 || region.IL < 0 || region.IR >= n || region.IL >= region.IR {
		return nil
	}

	d2 := secondDifference(y)

	var triplets []Triplet
	i := region.IL
	for i <= region.IR {
		if d2[i] >= 0 {
			i++
			continue
		}
		// i is the first index of a strictly-negative-d2 run.
		l := i - 1
		j := i
		for j <= region.IR && d2[j] < 0 {
			j++
		}
		r := j
		if l < region.IL || r > region.IR {
			// The run's flank falls outside the region, or the run never
			// closes within it: no peak may straddle the region boundary.
			i = j + 1
			continue
		}
		apex := argMax(y, l+1, r-1)
		triplets = append(triplets, Triplet{L: l, C: apex, R: r})
		i = j + 1
	}
	return triplets
}

// secondDifference computes d2[i] = y[i-1] - 2y[i] + y[i+1] for interior
// indices; the boundary samples are set to 0 so they never start a run
// (matching "flanked by d2 >= 0" for samples with no interior neighbor).
func secondDifference(y []float64) []float64 {
	n := len(y)
	d2 := make([]float64, n)
	for i := 1; i < n-1; i++ {
		d2[i] = y[i-1] - 2*y[i] + y[i+1]
	}
	return d2
}

// argMax returns the smallest index in [lo, hi] achieving the maximum value
// of y, breaking ties by choosing the smallest index.
func argMax(y []float64, lo, hi int) int {
	best := lo
	for i := lo + 1; i <= hi; i++ {
		if y[i] > y[best] {
			best = i
		}
	}
	return best
}
