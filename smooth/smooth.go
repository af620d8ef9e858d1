// Package smooth implements the denoising strategies applied to a
// spectrum's raw intensities before peak detection. Strategies are modeled
// as a tagged variant carried by value (Settings), not as a dynamic
// interface, matching the teacher's Params-struct-plus-validated-construction
// style (piano/params.go, preset/json.go's ApplyFile).
//
// Only two variants are recognized: Identity and MovingAverage. This is the
// complete enumerated set; no further variants should be added here without
// updating the specification.
package smooth

import (
	"fmt"

	"github.com/cwbudde/metabodecon/errs"
)

// Kind discriminates the smoothing strategy.
type Kind int

const (
	// Identity leaves the intensities untouched.
	Identity Kind = iota
	// MovingAverage applies a centered box-car average of odd Window size,
	// Iterations times, with symmetric reflection at the edges.
	MovingAverage
)

// Settings is a validated smoother configuration.
type Settings struct {
	kind       Kind
	window     int
	iterations int
}

// MaxIterations bounds the number of passes accepted by NewMovingAverage.
const MaxIterations = 1000

// NewIdentity returns the Identity smoother.
func NewIdentity() Settings {
	return Settings{kind: Identity}
}

// NewMovingAverage validates and returns a MovingAverage smoother. window
// must be odd and >= 1; iterations must be in [0, MaxIterations].
func NewMovingAverage(window, iterations int) (Settings, error) {
	if window < 1 || window%2 == 0 {
		return Settings{}, fmt.Errorf("%w: window must be odd and >= 1, got %d", errs.ErrInvalidSmoothingSettings, window)
	}
	if iterations < 0 || iterations > MaxIterations {
		return Settings{}, fmt.Errorf("%w: iterations must be in [0, %d], got %d", errs.ErrInvalidSmoothingSettings, MaxIterations, iterations)
	}
	return Settings{kind: MovingAverage, window: window, iterations: iterations}, nil
}

// Kind reports the smoother variant.
func (s Settings) Kind() Kind { return s.kind }

// Smooth returns a denoised copy of y with identical length. It never
// mutates y.
func (s Settings) Smooth(y []float64) []float64 {
	switch s.kind {
	case Identity:
		out := make([]float64, len(y))
		copy(out, y)
		return out
	case MovingAverage:
		return movingAverage(y, s.window, s.iterations)
	default:
		out := make([]float64, len(y))
		copy(out, y)
		return out
	}
}

// movingAverage applies a centered box-car filter of the given odd window
// size, Iterations times, with symmetric (reflective) boundary handling so
// the output length always matches the input length. Iteration 0 is the
// identity, matching the spec's boundary behavior exactly.
func movingAverage(y []float64, window, iterations int) []float64 {
	out := make([]float64, len(y))
	copy(out, y)
	if window <= 1 || iterations == 0 {
		return out
	}
	half := window / 2
	scratch := make([]float64, len(y))
	for iter := 0; iter < iterations; iter++ {
		for i := range out {
			sum := 0.0
			for k := -half; k <= half; k++ {
				sum += out[reflect(i+k, len(out))]
			}
			scratch[i] = sum / float64(window)
		}
		out, scratch = scratch, out
	}
	return out
}

// reflect maps an out-of-bounds index into [0, n) by symmetric reflection
// about the nearest edge, e.g. -1 -> 1, n -> n-2.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}
