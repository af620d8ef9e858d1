// Package spectrum implements the immutable 1D spectrum container described
// in the data model: a chemical-shift axis, raw intensities, and a
// user-declared signal region. A Spectrum is built once by New and
// never mutated afterward, mirroring the teacher's read-only Params-by-value
// style (piano/params.go) generalized to a value that is never touched again
// once constructed.
package spectrum

import (
	"fmt"
	"math"

	"github.com/cwbudde/metabodecon/errs"
)

// spacingTolerance bounds the relative deviation of interior axis spacing
// from the mean spacing before the axis is rejected as non-uniform.
const spacingTolerance = 1e-6

// Metadata carries optional, purely informational fields about the
// acquisition. None of it participates in the deconvolution algorithm.
type Metadata struct {
	Nucleus          string
	CarrierFrequency float64 // MHz
	Reference        string  // reference compound, e.g. "TSP", "DSS"
}

// Spectrum is a validated, read-only 1D NMR spectrum.
type Spectrum struct {
	x []float64
	y []float64

	a, b   float64
	iL, iR int

	meta Metadata
}

// New validates x, y and the signal boundaries (a, b) and constructs a
// Spectrum. x must be strictly monotonic and uniformly spaced within
// tolerance; y must be all-finite; a < b must intersect the axis.
func New(x, y []float64, a, b float64, meta Metadata) (Spectrum, error) {
	n := len(x)
	if n == 0 || len(y) == 0 {
		return Spectrum{}, fmt.Errorf("%w: x or y has zero length", errs.ErrEmptyData)
	}
	if len(x) != len(y) {
		return Spectrum{}, fmt.Errorf("%w: len(x)=%d len(y)=%d", errs.ErrDataLengthMismatch, len(x), len(y))
	}
	if n < 2 {
		return Spectrum{}, fmt.Errorf("%w: need at least 2 samples, got %d", errs.ErrEmptyData, n)
	}

	if err := checkUniformSpacing(x); err != nil {
		return Spectrum{}, err
	}
	if err := checkFiniteIntensities(y); err != nil {
		return Spectrum{}, err
	}

	if !(a < b) || math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return Spectrum{}, fmt.Errorf("%w: a=%v b=%v", errs.ErrInvalidSignalBoundaries, a, b)
	}

	lo, hi := x[0], x[n-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if b < lo || a > hi {
		return Spectrum{}, fmt.Errorf("%w: (%v, %v) does not intersect axis range [%v, %v]", errs.ErrInvalidSignalBoundaries, a, b, lo, hi)
	}

	iL := nearestIndex(x, a)
	iR := nearestIndex(x, b)
	if iL > iR {
		iL, iR = iR, iL
	}
	iL = clampIndex(iL, 0, n-1)
	iR = clampIndex(iR, 0, n-1)

	return Spectrum{
		x:    append([]float64(nil), x...),
		y:    append([]float64(nil), y...),
		a:    a,
		b:    b,
		iL:   iL,
		iR:   iR,
		meta: meta,
	}, nil
}

func checkUniformSpacing(x []float64) error {
	n := len(x)
	dx := (x[n-1] - x[0]) / float64(n-1)
	if dx == 0 || math.IsNaN(dx) || math.IsInf(dx, 0) {
		return fmt.Errorf("%w: degenerate spacing", errs.ErrNonUniformSpacing)
	}
	tol := math.Abs(dx) * spacingTolerance
	if tol == 0 {
		tol = spacingTolerance
	}
	prevSign := 0.0
	for i := 1; i < n; i++ {
		step := x[i] - x[i-1]
		if step == 0 {
			return fmt.Errorf("%w: repeated sample at index %d", errs.ErrNonUniformSpacing, i)
		}
		if prevSign != 0 && (step > 0) != (prevSign > 0) {
			return fmt.Errorf("%w: axis is not monotonic at index %d", errs.ErrNonUniformSpacing, i)
		}
		prevSign = step
		if math.Abs(step-dx) > tol {
			return fmt.Errorf("%w: spacing at index %d deviates by %v (tol %v)", errs.ErrNonUniformSpacing, i, step-dx, tol)
		}
	}
	return nil
}

func checkFiniteIntensities(y []float64) error {
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", errs.ErrInvalidIntensities, i)
		}
	}
	return nil
}

func nearestIndex(x []float64, target float64) int {
	best, bestDist := 0, math.Inf(1)
	// Axis is uniform, so the index is computable directly; guard against
	// float error by clamping the search to neighbours of the estimate.
	n := len(x)
	dx := (x[n-1] - x[0]) / float64(n-1)
	if dx == 0 {
		return 0
	}
	est := int(math.Round((target - x[0]) / dx))
	lo := clampIndex(est-2, 0, n-1)
	hi := clampIndex(est+2, 0, n-1)
	for i := lo; i <= hi; i++ {
		d := math.Abs(x[i] - target)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func clampIndex(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}

// Len returns the number of samples.
func (s Spectrum) Len() int { return len(s.x) }

// X returns the chemical-shift axis. The returned slice must not be mutated.
func (s Spectrum) X() []float64 { return s.x }

// Y returns the raw intensities. The returned slice must not be mutated.
func (s Spectrum) Y() []float64 { return s.y }

// Bounds returns the declared signal boundaries (a, b).
func (s Spectrum) Bounds() (float64, float64) { return s.a, s.b }

// SignalRegion returns the index range [iL, iR] corresponding to (a, b).
func (s Spectrum) SignalRegion() SignalRegion { return SignalRegion{IL: s.iL, IR: s.iR} }

// Metadata returns the optional acquisition metadata.
func (s Spectrum) Metadata() Metadata { return s.meta }

// SignalRegion is the index range on the axis where peaks are sought.
type SignalRegion struct {
	IL, IR int
}

// Len returns the number of samples spanned by the region, inclusive.
func (r SignalRegion) Len() int { return r.IR - r.IL + 1 }

// Contains reports whether index i lies within [IL, IR].
func (r SignalRegion) Contains(i int) bool { return i >= r.IL && i <= r.IR }
