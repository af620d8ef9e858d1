package deconv

import "github.com/cwbudde/metabodecon/fit"

// Deconvolution is the ordered sequence of fitted Lorentzians (sorted by
// MaxP ascending) plus the mean squared error between the measured
// intensities and the superposition evaluated on the signal region,
// excluding ignore regions.
type Deconvolution struct {
	Lorentzians []fit.Lorentzian
	MSE         float64
}

// Superposition evaluates the pointwise sum of all Lorentzians at x.
func (d Deconvolution) Superposition(x float64) float64 {
	sum := 0.0
	for _, l := range d.Lorentzians {
		sum += l.Eval(x)
	}
	return sum
}

// SuperpositionVec evaluates the superposition at every element of x,
// using the same deterministic tree-reduction chunking as the internal
// error aggregation so that parallel and sequential callers agree bit for
// bit on the chunk layout (see reduce.go). Element order always matches x.
func (d Deconvolution) SuperpositionVec(x []float64) []float64 {
	out := make([]float64, len(x))
	parallelMap(x, out, 0, func(v float64) float64 { return d.Superposition(v) })
	return out
}

// Integral returns the analytic integral of Lorentzian k: sf*pi/hw.
func (d Deconvolution) Integral(k int) float64 {
	return d.Lorentzians[k].Integral()
}
