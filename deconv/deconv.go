// Package deconv orchestrates the full pipeline (smoother -> detector ->
// selector -> fitter), handles ignore regions, aggregates the
// reconstruction error, and exposes single-spectrum and batch entry
// points. The Builder mirrors the teacher's Params-struct-with-defaults
// construction style, generalized to carry strategy variants instead of
// physical-modeling knobs.
package deconv

import (
	"fmt"
	"runtime"

	"github.com/cwbudde/metabodecon/detect"
	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/fit"
	selectpkg "github.com/cwbudde/metabodecon/select"
	"github.com/cwbudde/metabodecon/smooth"
	"github.com/cwbudde/metabodecon/spectrum"
)

// Builder accumulates deconvolution options before Build validates them
// into an immutable Deconvoluter.
type Builder struct {
	smoother smooth.Settings
	selector selectpkg.Settings
	fitter   fit.Settings
	ignore   []spectrum.IgnoreRegion
	threads  int
}

// NewBuilder returns a Builder pre-populated with the reference defaults:
// Identity smoothing, NoiseScore selection at selectpkg.DefaultThreshold,
// and Analytical fitting at fit.DefaultIterations.
func NewBuilder() *Builder {
	defaultSelector, err := selectpkg.NewNoiseScore(selectpkg.DefaultThreshold)
	if err != nil {
		// DefaultThreshold is a package constant under the builder's own
		// control; it is always valid.
		panic(fmt.Sprintf("deconv: invalid built-in default threshold: %v", err))
	}
	defaultFitter, err := fit.NewAnalytical(fit.DefaultIterations)
	if err != nil {
		panic(fmt.Sprintf("deconv: invalid built-in default iteration count: %v", err))
	}
	return &Builder{
		smoother: smooth.NewIdentity(),
		selector: defaultSelector,
		fitter:   defaultFitter,
	}
}

// WithSmoother sets the smoothing strategy.
func (b *Builder) WithSmoother(s smooth.Settings) *Builder {
	b.smoother = s
	return b
}

// WithSelector sets the peak-selection strategy.
func (b *Builder) WithSelector(s selectpkg.Settings) *Builder {
	b.selector = s
	return b
}

// WithFitter sets the fitting strategy.
func (b *Builder) WithFitter(s fit.Settings) *Builder {
	b.fitter = s
	return b
}

// WithIgnoreRegions sets the axis intervals excluded from selection and
// error accounting. Validated at Build time.
func (b *Builder) WithIgnoreRegions(regions []spectrum.IgnoreRegion) *Builder {
	b.ignore = regions
	return b
}

// WithThreads overrides the parallelism width used by batch calls and by
// the intra-spectrum reductions. 0 (the default) uses the runtime's
// GOMAXPROCS at call time.
func (b *Builder) WithThreads(n int) *Builder {
	b.threads = n
	return b
}

// Deconvoluter is the immutable, validated result of Builder.Build.
type Deconvoluter struct {
	smoother smooth.Settings
	selector selectpkg.Settings
	fitter   fit.Settings
	ignore   spectrum.IgnoreRegions
	threads  int
}

// Build validates the accumulated options and returns a Deconvoluter.
func (b *Builder) Build() (*Deconvoluter, error) {
	ignore, err := spectrum.NewIgnoreRegions(b.ignore)
	if err != nil {
		return nil, err
	}
	return &Deconvoluter{
		smoother: b.smoother,
		selector: b.selector,
		fitter:   b.fitter,
		ignore:   ignore,
		threads:  b.threads,
	}, nil
}

func (d *Deconvoluter) workers() int {
	if d.threads > 0 {
		return d.threads
	}
	return runtime.GOMAXPROCS(0)
}

// DeconvoluteSpectrum runs smoother -> detector -> selector -> fitter in
// order and computes the reconstruction MSE over the signal region,
// excluding ignore regions.
//
// Boundary conventions (see DESIGN.md "Open Questions"):
//   - If the detector itself finds no candidate peaks (e.g. a 2-sample
//     spectrum, or a perfectly flat signal region), the result is an empty
//     Deconvolution with MSE computed normally; this is not an error.
//   - If ignore regions fully cover the signal region, the result is an
//     empty Deconvolution with MSE = 0 by convention (no samples remain to
//     compare).
//   - If the detector found candidates but the noise-score selector
//     rejects every one of them, ErrNoPeaksDetected is returned: distinct
//     structure was present but none of it was significant.
//   - If the noise-score selector keeps candidates but the configured
//     ignore regions then drop every one of them by apex membership,
//     selectpkg.Select reports ErrEmptySignalRegion instead: the region did
//     contain significant peaks, but the declared ignore ranges erased all
//     of them, which is a distinct outcome from none being significant.
func (d *Deconvoluter) DeconvoluteSpectrum(s spectrum.Spectrum) (Deconvolution, error) {
	region := s.SignalRegion()
	x, y := s.X(), s.Y()

	if a, b := s.Bounds(); d.ignore.CoversRange(a, b) {
		return Deconvolution{MSE: 0}, nil
	}

	smoothed := d.smoother.Smooth(y)
	candidates := detect.Detect(smoothed, region)

	if len(candidates) == 0 {
		return d.finalize(nil, x, y, region), nil
	}

	selected, err := selectpkg.Select(candidates, x, smoothed, region, d.ignore, d.selector)
	if err != nil {
		return Deconvolution{}, err
	}
	if len(selected) == 0 {
		return Deconvolution{}, fmt.Errorf("%w: %d candidate(s) found, none passed selection", errs.ErrNoPeaksDetected, len(candidates))
	}

	lorentzians := fit.Fit(x, smoothed, selected, d.fitter)
	if len(lorentzians) == 0 {
		return Deconvolution{}, fmt.Errorf("%w: all %d selected triplet(s) were numerically degenerate", errs.ErrNoPeaksDetected, len(selected))
	}

	return d.finalize(lorentzians, x, y, region), nil
}

// finalize computes the MSE of the given Lorentzians against the raw
// (unsmoothed) measured intensities, restricted to the signal region and
// excluding ignore regions, using the deterministic parallel reduction.
func (d *Deconvoluter) finalize(lorentzians []fit.Lorentzian, x, y []float64, region spectrum.SignalRegion) Deconvolution {
	result := Deconvolution{Lorentzians: lorentzians}

	regionX := x[region.IL : region.IR+1]
	regionY := y[region.IL : region.IR+1]

	include := func(i int) bool {
		return !d.ignore.Contains(regionX[i])
	}

	sum, count := parallelSumSquaredError(regionX, regionY, d.workers(), include, result.Superposition)
	if count == 0 {
		result.MSE = 0
		return result
	}
	result.MSE = sum / float64(count)
	return result
}

// DeconvoluteSpectra runs DeconvoluteSpectrum independently over each
// spectrum, collecting results in input order regardless of how many
// goroutines actually process them.
func (d *Deconvoluter) DeconvoluteSpectra(spectra []spectrum.Spectrum) ([]Deconvolution, error) {
	results := make([]Deconvolution, len(spectra))
	errsOut := make([]error, len(spectra))

	workers := d.workers()
	if workers > len(spectra) {
		workers = len(spectra)
	}
	if workers <= 1 {
		for i, s := range spectra {
			results[i], errsOut[i] = d.DeconvoluteSpectrum(s)
		}
	} else {
		jobsCh := make(chan int)
		done := make(chan struct{})
		for w := 0; w < workers; w++ {
			go func() {
				for i := range jobsCh {
					results[i], errsOut[i] = d.DeconvoluteSpectrum(spectra[i])
				}
				done <- struct{}{}
			}()
		}
		go func() {
			for i := range spectra {
				jobsCh <- i
			}
			close(jobsCh)
		}()
		for w := 0; w < workers; w++ {
			<-done
		}
	}

	for i, err := range errsOut {
		if err != nil {
			return nil, fmt.Errorf("spectrum %d: %w", i, err)
		}
	}
	return results, nil
}
