// Package select implements peak selection: filtering the detector's full
// candidate set down to peaks that are distinguishable from noise, and
// dropping peaks whose apex falls inside an ignore region. Like smooth and
// fit, strategies are tagged variants owned by a validated Settings value
// rather than a dynamic interface.
package selectpkg

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/metabodecon/detect"
	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/internal/mathutil"
	"github.com/cwbudde/metabodecon/spectrum"
)

// Kind discriminates the selection strategy.
type Kind int

const (
	// DetectorOnly passes every candidate through unfiltered.
	DetectorOnly Kind = iota
	// NoiseScore keeps only candidates whose noise score meets Threshold.
	NoiseScore
)

// DefaultThreshold is the noise-score threshold carried from the reference
// implementation.
const DefaultThreshold = 6.4

// Settings is a validated peak-selector configuration.
type Settings struct {
	kind      Kind
	threshold float64
}

// NewDetectorOnly returns a selector that performs no noise filtering.
func NewDetectorOnly() Settings {
	return Settings{kind: DetectorOnly}
}

// NewNoiseScore validates and returns a noise-score selector. threshold
// must be finite and positive.
func NewNoiseScore(threshold float64) (Settings, error) {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return Settings{}, fmt.Errorf("%w: threshold must be finite and > 0, got %v", errs.ErrInvalidSelectionSettings, threshold)
	}
	return Settings{kind: NoiseScore, threshold: threshold}, nil
}

// Kind reports the selector variant.
func (s Settings) Kind() Kind { return s.kind }

// Threshold reports the configured noise-score threshold (NoiseScore only).
func (s Settings) Threshold() float64 { return s.threshold }

// Select filters candidates against the smoothed intensities y, the
// original axis x (for ignore-region membership), the declared signal
// region (for noise scoping), and the configured ignore regions. Surviving
// triplets are returned sorted by apex index C, ascending.
//
// If ignore regions drop every candidate that otherwise passed selection,
// Select reports ErrEmptySignalRegion rather than silently returning an
// empty slice: the region had peaks, but the declared ignore ranges erased
// all of them.
func Select(candidates []detect.Triplet, x, y []float64, region spectrum.SignalRegion, ignore spectrum.IgnoreRegions, s Settings) ([]detect.Triplet, error) {
	var kept []detect.Triplet

	switch s.kind {
	case DetectorOnly:
		kept = append(kept, candidates...)
	case NoiseScore:
		sigma := noiseSigma(y, region)
		for _, c := range candidates {
			score := noiseScore(y, c, sigma)
			if score >= s.threshold {
				kept = append(kept, c)
			}
		}
	default:
		kept = append(kept, candidates...)
	}

	beforeIgnore := len(kept)
	kept = dropIgnored(kept, x, ignore)
	if beforeIgnore > 0 && len(kept) == 0 {
		return nil, fmt.Errorf("%w: ignore regions excluded all %d selected peak(s)", errs.ErrEmptySignalRegion, beforeIgnore)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].C < kept[j].C })
	return kept, nil
}

// noiseScore computes s = (y[c] - (y[l]+y[r])/2) / sigma for a candidate.
func noiseScore(y []float64, c detect.Triplet, sigma float64) float64 {
	baseline := (y[c.L] + y[c.R]) / 2
	return (y[c.C] - baseline) / sigma
}

// floorSigma avoids division by zero when the second difference is
// identically flat (e.g. a perfectly clean synthetic baseline).
const floorSigma = 1e-12

// noiseSigma estimates baseline noise as 1.4826 * MAD of the second
// difference of y restricted to the declared signal region, so that
// artifacts outside the region (solvent suppression, spinning sidebands,
// acquisition edges) never inflate the threshold used to filter peaks
// inside it.
func noiseSigma(y []float64, region spectrum.SignalRegion) float64 {
	lo := region.IL
	if lo < 1 {
		lo = 1
	}
	hi := region.IR
	if hi > len(y)-2 {
		hi = len(y) - 2
	}
	if hi < lo {
		return floorSigma
	}
	d2 := make([]float64, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		d2 = append(d2, y[i-1]-2*y[i]+y[i+1])
	}
	sigma := mathutil.MedianAbsoluteDeviation(d2) * 1.4826
	if sigma < floorSigma {
		sigma = floorSigma
	}
	return sigma
}

// dropIgnored removes any triplet whose apex x[c.C] lies in an ignore
// region.
func dropIgnored(triplets []detect.Triplet, x []float64, ignore spectrum.IgnoreRegions) []detect.Triplet {
	if ignore.Empty() {
		return triplets
	}
	out := triplets[:0:0]
	for _, t := range triplets {
		if ignore.Contains(x[t.C]) {
			continue
		}
		out = append(out, t)
	}
	return out
}
