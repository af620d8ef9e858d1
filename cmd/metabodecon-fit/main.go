// Command metabodecon-fit deconvolutes a 1D NMR spectrum from a Bruker
// TopSpin experiment directory or a JCAMP-DX file and writes the fitted
// Lorentzian components as JSON or a compact binary file. The flag
// layout and die-on-error pattern follow cmd/piano-fit in this codebase's
// teacher repo, adapted from rendering a piano note to deconvoluting a
// spectrum.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/metabodecon/deconv"
	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/fit"
	"github.com/cwbudde/metabodecon/internal/cliutil"
	"github.com/cwbudde/metabodecon/ioformat/bruker"
	"github.com/cwbudde/metabodecon/ioformat/jcampdx"
	"github.com/cwbudde/metabodecon/ioformat/serialize"
	selectpkg "github.com/cwbudde/metabodecon/select"
	"github.com/cwbudde/metabodecon/smooth"
	"github.com/cwbudde/metabodecon/spectrum"
)

func main() {
	format := flag.String("format", "jcampdx", "Input format: jcampdx or bruker")
	input := flag.String("input", "", "Input path: a JCAMP-DX file, or a Bruker dataset root")
	experiment := flag.Int("experiment", 1, "Bruker experiment number")
	processing := flag.Int("processing", 1, "Bruker processing number")
	signalLo := flag.Float64("signal-lo", -0.2, "Lower signal boundary (ppm)")
	signalHi := flag.Float64("signal-hi", 10.0, "Upper signal boundary (ppm)")
	window := flag.Int("window", 1, "Moving-average smoothing window (1 disables smoothing)")
	threshold := flag.Float64("threshold", selectpkg.DefaultThreshold, "Noise-score selection threshold")
	iterations := flag.Int("iterations", fit.DefaultIterations, "Iterative refinement rounds")
	threads := flag.String("threads", "auto", "Parallel reduction worker count, or \"auto\" for GOMAXPROCS")
	ignore := flag.String("ignore", "", "Comma-separated lo:hi ppm ranges to exclude, e.g. 4.7:4.9,1.5:1.7")
	output := flag.String("output", "", "Output path; format inferred from extension (.json or .bin)")
	flag.Parse()

	if *input == "" {
		die("missing -input")
	}

	var spec spectrum.Spectrum
	var err error
	switch strings.ToLower(*format) {
	case "jcampdx":
		spec, err = jcampdx.Read(*input, *signalLo, *signalHi)
	case "bruker":
		spec, err = bruker.Read(*input, *experiment, *processing, *signalLo, *signalHi, bruker.DefaultOptions())
	default:
		die("unknown -format %q (want jcampdx or bruker)", *format)
		return
	}
	if err != nil {
		die("failed to read spectrum: %v", err)
	}

	ignoreRegions, err := parseIgnoreRegions(*ignore)
	if err != nil {
		die("invalid -ignore: %v", err)
	}

	threadCount, err := cliutil.ParseThreads(*threads)
	if err != nil {
		die("invalid -threads: %v", err)
	}
	builder := deconv.NewBuilder().WithIgnoreRegions(ignoreRegions).WithThreads(threadCount)

	if *window > 1 {
		smoother, err := smooth.NewMovingAverage(*window, 2)
		if err != nil {
			die("invalid -window: %v", err)
		}
		builder = builder.WithSmoother(smoother)
	}

	selector, err := selectpkg.NewNoiseScore(*threshold)
	if err != nil {
		die("invalid -threshold: %v", err)
	}
	builder = builder.WithSelector(selector)

	fitter, err := fit.NewAnalytical(*iterations)
	if err != nil {
		die("invalid -iterations: %v", err)
	}
	builder = builder.WithFitter(fitter)

	deconvoluter, err := builder.Build()
	if err != nil {
		die("failed to configure deconvoluter: %v", err)
	}

	result, err := deconvoluter.DeconvoluteSpectrum(spec)
	if err != nil {
		die("deconvolution failed: %v", err)
	}

	if *output == "" {
		printSummary(result)
		return
	}
	if err := writeResult(*output, result); err != nil {
		die("failed to write result: %v", err)
	}
	fmt.Printf("wrote %d components (MSE %.6g) to %s\n", len(result.Lorentzians), result.MSE, *output)
}

func parseIgnoreRegions(raw string) ([]spectrum.IgnoreRegion, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []spectrum.IgnoreRegion
	for _, part := range strings.Split(raw, ",") {
		lo, hi, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("%w: expected lo:hi, got %q", errs.ErrInvalidIgnoreRegion, part)
		}
		var loV, hiV float64
		if _, err := fmt.Sscanf(lo, "%g", &loV); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrInvalidIgnoreRegion, err)
		}
		if _, err := fmt.Sscanf(hi, "%g", &hiV); err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrInvalidIgnoreRegion, err)
		}
		out = append(out, spectrum.IgnoreRegion{Lo: loV, Hi: hiV})
	}
	return out, nil
}

func writeResult(path string, result deconv.Deconvolution) error {
	if strings.HasSuffix(strings.ToLower(path), ".bin") {
		return serialize.WriteBinary(path, result)
	}
	return serialize.WriteJSON(path, result)
}

func printSummary(result deconv.Deconvolution) {
	fmt.Printf("MSE: %.6g\n", result.MSE)
	fmt.Printf("Components        Sf           Hw           MaxP\n")
	for i, l := range result.Lorentzians {
		fmt.Printf("%-3d               %-12.6g %-12.6g %-12.6g\n", i, l.Sf, l.Hw, l.MaxP)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
