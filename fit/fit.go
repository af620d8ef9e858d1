package fit

import (
	"fmt"
	"math"

	"github.com/cwbudde/metabodecon/detect"
	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/internal/mathutil"
)

// DefaultIterations is the refinement iteration count carried from the
// reference implementation.
const DefaultIterations = 10

// MaxIterations bounds the accepted refinement iteration count.
const MaxIterations = 100

// Settings is a validated analytical-fitter configuration.
type Settings struct {
	iterations int
}

// NewAnalytical validates and returns an analytical-fit configuration.
// iterations must be in [0, MaxIterations].
func NewAnalytical(iterations int) (Settings, error) {
	if iterations < 0 || iterations > MaxIterations {
		return Settings{}, fmt.Errorf("%w: iterations must be in [0, %d], got %d", errs.ErrInvalidFittingSettings, MaxIterations, iterations)
	}
	return Settings{iterations: iterations}, nil
}

// Iterations reports the configured refinement iteration count.
func (s Settings) Iterations() int { return s.iterations }

// Fit converts the surviving peak triplets into Lorentzian parameters.
// Triplets whose 3-point system is degenerate (non-positive Hw^2, singular
// matrix) are silently dropped rather than aborting the whole fit, per the
// propagation policy in the error design. The returned slice is sorted by
// MaxP ascending with ties broken by input (triplet) order.
func Fit(x, y []float64, triplets []detect.Triplet, s Settings) []Lorentzian {
	survivors, lorentzians := fitAll(x, y, triplets)

	residual := make([]float64, len(y))
	for iter := 0; iter < s.iterations && len(lorentzians) > 0; iter++ {
		copy(residual, y)
		subtractSuperposition(residual, x, lorentzians)

		for k, prev := range lorentzians {
			t := survivors[k]
			// Add this peak's own prior contribution back in so the local
			// solve sees "everything else removed, this peak still
			// present" rather than a near-zero residual at its own apex.
			yl := residual[t.L] + prev.Eval(x[t.L])
			yc := residual[t.C] + prev.Eval(x[t.C])
			yr := residual[t.R] + prev.Eval(x[t.R])
			if l, ok := solveTripletValues(x[t.L], x[t.C], x[t.R], yl, yc, yr); ok {
				lorentzians[k] = l
			}
			// Degenerate refits keep the previous iteration's parameters
			// for that peak rather than dropping it.
		}
	}

	stableSortByMaxP(lorentzians)
	return lorentzians
}

// fitAll solves the closed-form 3-point system for each triplet
// independently, dropping degenerate triplets, and returns the surviving
// triplets alongside their fitted Lorentzians in matching order.
func fitAll(x, y []float64, triplets []detect.Triplet) ([]detect.Triplet, []Lorentzian) {
	survivors := make([]detect.Triplet, 0, len(triplets))
	out := make([]Lorentzian, 0, len(triplets))
	for _, t := range triplets {
		xl, xc, xr := x[t.L], x[t.C], x[t.R]
		if l, ok := solveTripletValues(xl, xc, xr, y[t.L], y[t.C], y[t.R]); ok {
			survivors = append(survivors, t)
			out = append(out, l)
		}
	}
	return survivors, out
}

// solveTripletValues solves the linearized 3-point Lorentzian system given
// three sampled points (xl,yl), (xc,yc), (xr,yr) assumed to lie on
// y = sf / ((x-m)^2 + hw^2). Substituting A = sf, M = maxp, the
// reciprocal 1/y = ((x-M)^2 + hw^2)/A expands to a linear system in
// (1/A, M/A, (M^2+hw^2)/A).
func solveTripletValues(xl, xc, xr, yl, yc, yr float64) (Lorentzian, bool) {
	if yl == 0 || yc == 0 || yr == 0 {
		return Lorentzian{}, false
	}

	// Row i: (x_i^2) * u0 - (2 x_i) * u1 + 1 * u2 = 1/y_i, where
	// u0 = 1/A, u1 = M/A, u2 = (M^2+hw^2)/A.
	a := mathutil.Mat3{
		{xl * xl, -2 * xl, 1},
		{xc * xc, -2 * xc, 1},
		{xr * xr, -2 * xr, 1},
	}
	b := mathutil.Vec3{1 / yl, 1 / yc, 1 / yr}

	u, ok := mathutil.SolveLinear3(a, b)
	if !ok || u[0] == 0 {
		return Lorentzian{}, false
	}

	invA := u[0]
	a0 := 1 / invA // A = sf
	maxp := u[1] * a0

	hw2 := (a0 / yc) - (xc-maxp)*(xc-maxp)
	if hw2 <= 0 || math.IsNaN(hw2) || math.IsInf(hw2, 0) {
		return Lorentzian{}, false
	}
	hw := math.Sqrt(hw2)
	if hw == 0 || math.IsNaN(hw) || math.IsInf(hw, 0) {
		return Lorentzian{}, false
	}
	sf := a0
	if math.IsNaN(sf) || math.IsInf(sf, 0) {
		return Lorentzian{}, false
	}

	return Lorentzian{Sf: sf, Hw: hw, MaxP: maxp}, true
}

// subtractSuperposition overwrites residual with y - superposition(x),
// reusing the caller's residual buffer which must already equal y on
// entry (see Fit's loop).
func subtractSuperposition(residual, x []float64, lorentzians []Lorentzian) {
	for i := range residual {
		sum := 0.0
		for _, l := range lorentzians {
			sum += l.Eval(x[i])
		}
		residual[i] -= sum
	}
}

// stableSortByMaxP sorts in place by MaxP ascending, preserving the
// relative order of equal-MaxP entries (insertion sort is stable and, for
// the small peak counts typical of an NMR region, fast enough).
func stableSortByMaxP(l []Lorentzian) {
	for i := 1; i < len(l); i++ {
		v := l[i]
		j := i - 1
		for j >= 0 && l[j].MaxP > v.MaxP {
			l[j+1] = l[j]
			j--
		}
		l[j+1] = v
	}
}
