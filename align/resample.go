package align

import (
	"math"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
)

// ResampleToCommonAxis puts (x, y) onto targetX. If x and targetX share the
// same sample spacing (within spacingRatioTolerance), only a linear offset
// interpolation is needed. Otherwise the intensities are first rate-matched
// with algo-dsp's dsp/resample, the same primitive this codebase uses to
// reconcile two audio buffers recorded at different sample rates before
// comparing or convolving them (internal/fitcommon/wav.go's
// ResampleIfNeeded): an NMR axis's point spacing plays the same role a WAV
// file's sample rate does. The rate-matched samples are then interpolated
// onto targetX's exact offsets, since dsp/resample converts a uniform rate
// but has no notion of an arbitrary start offset.
// minRateMatchLen bounds how many samples an axis must have before its
// spacing is trusted enough to drive a dsp/resample rate conversion; a
// handful of probe points does not reliably characterize an axis's true
// sample spacing.
const minRateMatchLen = 8

func ResampleToCommonAxis(x, y, targetX []float64) []float64 {
	if len(x) < minRateMatchLen || len(targetX) < minRateMatchLen {
		return interpolateOnto(x, y, targetX)
	}

	srcDx := (x[len(x)-1] - x[0]) / float64(len(x)-1)
	dstDx := (targetX[len(targetX)-1] - targetX[0]) / float64(len(targetX)-1)
	if srcDx == 0 || dstDx == 0 || math.IsNaN(srcDx) || math.IsNaN(dstDx) {
		return interpolateOnto(x, y, targetX)
	}

	if math.Abs(srcDx-dstDx) <= spacingRatioTolerance*math.Abs(dstDx) {
		return interpolateOnto(x, y, targetX)
	}

	rateMatched, rateMatchedX, ok := rateMatch(x, y, srcDx, dstDx)
	if !ok {
		return interpolateOnto(x, y, targetX)
	}
	return interpolateOnto(rateMatchedX, rateMatched, targetX)
}

// spacingRatioTolerance bounds how close two axis spacings must be before
// a dsp/resample rate conversion is skipped in favor of direct
// interpolation.
const spacingRatioTolerance = 1e-9

// rateMatch resamples y (sampled at spacing srcDx, starting at x[0]) to
// spacing dstDx using dsp/resample's rate-ratio conversion, treating
// 1/srcDx and 1/dstDx as the "from" and "to" sample rates. Returns the
// resampled intensities and the axis they now sit on (still starting at
// x[0], since dsp/resample only changes point density, not the origin).
func rateMatch(x, y []float64, srcDx, dstDx float64) ([]float64, []float64, bool) {
	r, err := dspresample.NewForRates(1/math.Abs(srcDx), 1/math.Abs(dstDx), dspresample.WithQuality(dspresample.QualityBest))
	if err != nil {
		return nil, nil, false
	}
	out := r.Process(y)
	if len(out) == 0 {
		return nil, nil, false
	}
	axis := make([]float64, len(out))
	step := dstDx
	if srcDx < 0 {
		step = -step
	}
	for i := range axis {
		axis[i] = x[0] + float64(i)*step
	}
	return out, axis, true
}

// interpolateOnto linearly interpolates (x, y) onto targetX, clamping
// out-of-range samples to the nearest endpoint value. This final
// offset-alignment step has no library analog in the evidenced dependency
// graph: dsp/resample converts point density (a rate ratio) but has no
// notion of an arbitrary start-offset shift, so a direct monotonic
// interpolant closes that gap.
func interpolateOnto(x, y, targetX []float64) []float64 {
	out := make([]float64, len(targetX))
	if len(x) == 0 {
		return out
	}
	if len(x) == 1 {
		for i := range out {
			out[i] = y[0]
		}
		return out
	}

	ascending := x[len(x)-1] >= x[0]
	j := 0
	for i, tx := range targetX {
		out[i] = interpolateAt(x, y, tx, ascending, &j)
	}
	return out
}

// interpolateAt finds the bracketing interval for tx starting the search
// from *hint (monotone in tx across repeated calls with an ascending or
// descending targetX, avoiding a full rescan per sample) and linearly
// interpolates. The search falls back to clamping at the array endpoints.
func interpolateAt(x, y []float64, tx float64, ascending bool, hint *int) float64 {
	n := len(x)
	lo := func(i int) float64 {
		if ascending {
			return x[i]
		}
		return -x[i]
	}
	target := tx
	if !ascending {
		target = -tx
	}

	i := *hint
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	for i > 0 && lo(i) > target {
		i--
	}
	for i < n-2 && lo(i+1) < target {
		i++
	}
	*hint = i

	if target <= lo(0) {
		return y[0]
	}
	if target >= lo(n-1) {
		return y[n-1]
	}

	x0, x1 := lo(i), lo(i+1)
	if x1 == x0 {
		return y[i]
	}
	t := (target - x0) / (x1 - x0)
	return y[i] + t*(y[i+1]-y[i])
}
