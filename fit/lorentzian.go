// Package fit implements the analytical Lorentzian fit: given a selected
// peak triplet and the smoothed intensities, it solves a closed-form 3x3
// linear system for the Lorentzian's shape parameters, with an optional
// iterative residual-refinement pass.
package fit

import "math"

// Lorentzian is L(x) = Sf / ((x - MaxP)^2 + Hw^2), parameterized by scale
// factor Sf, half-width-at-half-maximum Hw, and center MaxP.
type Lorentzian struct {
	Sf, Hw, MaxP float64
}

// Eval evaluates the Lorentzian at x.
func (l Lorentzian) Eval(x float64) float64 {
	d := x - l.MaxP
	return l.Sf / (d*d + l.Hw*l.Hw)
}

// Integral returns the analytic integral of the Lorentzian over all of R:
// Sf * pi / Hw.
func (l Lorentzian) Integral() float64 {
	return l.Sf * math.Pi / l.Hw
}
