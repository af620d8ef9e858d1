// Package optim implements the deconvolution settings search left open by
// the reference implementation ("optimize_settings(reference) may be
// undocumented/optional in source"). It searches the smoother window,
// selector threshold, and fitter iteration count that minimize
// reconstruction MSE against a reference spectrum, driven by
// github.com/cwbudde/mayfly exactly as the teacher's own
// cmd/piano-fit-fast/optimize.go drives its preset search.
package optim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/metabodecon/deconv"
	"github.com/cwbudde/metabodecon/fit"
	selectpkg "github.com/cwbudde/metabodecon/select"
	"github.com/cwbudde/metabodecon/smooth"
	"github.com/cwbudde/metabodecon/spectrum"
)

// Bounds constrains the search space. WindowMax must be odd-compatible:
// the search rounds candidate windows up to the nearest valid odd value.
type Bounds struct {
	WindowMin, WindowMax       int
	ThresholdMin, ThresholdMax float64
	IterationsMin, IterationsMax int
}

// DefaultBounds returns a generous search range: thresholds in [1, 20]
// (which contains selectpkg.DefaultThreshold) and iterations up to four
// times fit.DefaultIterations.
func DefaultBounds() Bounds {
	return Bounds{
		WindowMin: 1, WindowMax: 51,
		ThresholdMin: 1.0, ThresholdMax: 20.0,
		IterationsMin: 0, IterationsMax: fit.DefaultIterations * 4,
	}
}

// Settings is the result of a search: a concrete, validated smoother /
// selector / fitter configuration and the MSE it achieved.
type Settings struct {
	Window     int
	Threshold  float64
	Iterations int
	MSE        float64
}

// Config controls the mayfly search.
type Config struct {
	Bounds      Bounds
	Population  int
	Rounds      int
	Seed        int64
	// Temperature is passed to acceptWorse between rounds (divided by the
	// round number); Temperature <= 0 skips that call. A round's best is
	// never worse than the incoming best, so acceptWorse never replaces it
	// and Temperature does not change the returned Settings.
	Temperature float64
}

// DefaultConfig returns reasonable small-search-space defaults.
func DefaultConfig() Config {
	return Config{
		Bounds:      DefaultBounds(),
		Population:  20,
		Rounds:      6,
		Seed:        1,
		Temperature: 0.05,
	}
}

// Search minimizes DeconvoluteSpectrum's MSE on reference over (window,
// threshold, iterations) using mayfly's default (MA) variant, matching
// newMayflyConfig's shape in the teacher's optimizer.
func Search(reference spectrum.Spectrum, cfg Config) (Settings, error) {
	b := cfg.Bounds
	if !(b.WindowMin >= 1 && b.WindowMax >= b.WindowMin) {
		return Settings{}, fmt.Errorf("optim: invalid window bounds [%d, %d]", b.WindowMin, b.WindowMax)
	}
	if !(b.ThresholdMin > 0 && b.ThresholdMax >= b.ThresholdMin) {
		return Settings{}, fmt.Errorf("optim: invalid threshold bounds [%v, %v]", b.ThresholdMin, b.ThresholdMax)
	}
	if !(b.IterationsMin >= 0 && b.IterationsMax >= b.IterationsMin) {
		return Settings{}, fmt.Errorf("optim: invalid iteration bounds [%d, %d]", b.IterationsMin, b.IterationsMax)
	}

	evaluate := func(window int, threshold float64, iterations int) (float64, error) {
		d, err := buildDeconvoluter(window, threshold, iterations)
		if err != nil {
			return math.Inf(1), nil
		}
		result, err := d.DeconvoluteSpectrum(reference)
		if err != nil {
			return math.Inf(1), nil
		}
		return result.MSE, nil
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	best := Settings{Window: toOddWindow(b.WindowMin), Threshold: b.ThresholdMin, Iterations: b.IterationsMin, MSE: math.Inf(1)}
	if mse, err := evaluate(best.Window, best.Threshold, best.Iterations); err == nil && mse < best.MSE {
		best.MSE = mse
	}

	rounds := cfg.Rounds
	if rounds < 1 {
		rounds = 1
	}
	pop := cfg.Population
	if pop < 4 {
		pop = 4
	}

	for round := 0; round < rounds; round++ {
		mayflyCfg := mayfly.NewDefaultConfig()
		mayflyCfg.ProblemSize = 3
		mayflyCfg.LowerBound = 0.0
		mayflyCfg.UpperBound = 1.0
		mayflyCfg.NPop = pop
		mayflyCfg.NPopF = pop
		mayflyCfg.NC = 2 * pop
		mayflyCfg.NM = maxInt(1, pop/20)
		mayflyCfg.MaxIterations = 20
		mayflyCfg.Rand = rand.New(rand.NewSource(cfg.Seed + int64(round)*7919))

		roundBest := best
		mayflyCfg.ObjectiveFunc = func(pos []float64) float64 {
			window, threshold, iterations := fromNormalized(pos, b)
			mse, _ := evaluate(window, threshold, iterations)
			if mse < roundBest.MSE {
				roundBest = Settings{Window: window, Threshold: threshold, Iterations: iterations, MSE: mse}
			}
			return mse
		}

		if _, err := mayfly.Optimize(mayflyCfg); err != nil {
			return best, fmt.Errorf("optim: mayfly round %d failed: %w", round, err)
		}

		if roundBest.MSE < best.MSE {
			best = roundBest
			continue
		}
		// This round found nothing better, so roundBest still equals
		// best. acceptWorse accepts only a strictly worse candidate, so
		// this branch leaves best unchanged; each mayfly round samples
		// the full normalized cube and does not start from best.
		temperature := cfg.Temperature / float64(round+1)
		if temperature > 0 && acceptWorse(best.MSE, roundBest.MSE, temperature, rng) {
			best = roundBest
		}
	}

	return best, nil
}

// acceptWorse reports whether a worse candidate MSE should replace the
// current best as the next round's starting point, with probability
// exp(-(candidate-best)/temperature).
func acceptWorse(bestMSE, candidateMSE, temperature float64, rng *rand.Rand) bool {
	if !(candidateMSE > bestMSE) || temperature <= 0 {
		return false
	}
	delta := candidateMSE - bestMSE
	prob := float64(approx.FastExp(float32(-delta / temperature)))
	return rng.Float64() < prob
}

func buildDeconvoluter(window int, threshold float64, iterations int) (*deconv.Deconvoluter, error) {
	var smoother smooth.Settings
	var err error
	if window <= 1 {
		smoother = smooth.NewIdentity()
	} else {
		smoother, err = smooth.NewMovingAverage(window, 2)
		if err != nil {
			return nil, err
		}
	}
	selector, err := selectpkg.NewNoiseScore(threshold)
	if err != nil {
		return nil, err
	}
	fitter, err := fit.NewAnalytical(iterations)
	if err != nil {
		return nil, err
	}
	return deconv.NewBuilder().
		WithSmoother(smoother).
		WithSelector(selector).
		WithFitter(fitter).
		Build()
}

// fromNormalized maps a mayfly position in [0,1]^3 to (window, threshold,
// iterations) within bounds, rounding window to the nearest valid odd
// value.
func fromNormalized(pos []float64, b Bounds) (int, float64, int) {
	window := toOddWindow(b.WindowMin + int(pos[0]*float64(b.WindowMax-b.WindowMin)))
	threshold := b.ThresholdMin + pos[1]*(b.ThresholdMax-b.ThresholdMin)
	iterations := b.IterationsMin + int(pos[2]*float64(b.IterationsMax-b.IterationsMin))
	return window, threshold, iterations
}

// toOddWindow rounds w up to the nearest odd value >= 1.
func toOddWindow(w int) int {
	if w < 1 {
		return 1
	}
	if w%2 == 0 {
		return w + 1
	}
	return w
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
