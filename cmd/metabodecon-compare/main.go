// Command metabodecon-compare aligns a candidate spectrum onto a
// reference spectrum's axis and reports reconstruction fidelity, the same
// "load two inputs, align/compare, print a metrics block or JSON" shape
// as cmd/piano-distance in this codebase's teacher repo, adapted from
// rendered-audio comparison to spectrum comparison.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/metabodecon/align"
	"github.com/cwbudde/metabodecon/ioformat/bruker"
	"github.com/cwbudde/metabodecon/ioformat/jcampdx"
	"github.com/cwbudde/metabodecon/spectrum"
)

func main() {
	format := flag.String("format", "jcampdx", "Input format: jcampdx or bruker")
	referencePath := flag.String("reference", "", "Reference spectrum path")
	candidatePath := flag.String("candidate", "", "Candidate spectrum path")
	experiment := flag.Int("experiment", 1, "Bruker experiment number (applies to both inputs)")
	processing := flag.Int("processing", 1, "Bruker processing number (applies to both inputs)")
	signalLo := flag.Float64("signal-lo", -0.2, "Lower signal boundary (ppm)")
	signalHi := flag.Float64("signal-hi", 10.0, "Upper signal boundary (ppm)")
	strategy := flag.String("strategy", "cross-correlation", "Alignment strategy: none or cross-correlation")
	jsonOut := flag.Bool("json", false, "Print the comparison as JSON")
	flag.Parse()

	if *referencePath == "" || *candidatePath == "" {
		die("both -reference and -candidate are required")
	}

	ref, err := readSpectrum(*format, *referencePath, *experiment, *processing, *signalLo, *signalHi)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	cand, err := readSpectrum(*format, *candidatePath, *experiment, *processing, *signalLo, *signalHi)
	if err != nil {
		die("failed to read candidate: %v", err)
	}

	kind := align.None
	if strings.EqualFold(*strategy, "cross-correlation") {
		kind = align.CrossCorrelation
	} else if !strings.EqualFold(*strategy, "none") {
		die("unknown -strategy %q (want none or cross-correlation)", *strategy)
	}

	comparison, err := align.Compare(ref, cand, kind)
	if err != nil {
		die("comparison failed: %v", err)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(comparison); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}
	fmt.Printf("SNR: %.2f dB\n", comparison.SNRDb)
}

func readSpectrum(format, path string, experiment, processing int, lo, hi float64) (spectrum.Spectrum, error) {
	switch strings.ToLower(format) {
	case "jcampdx":
		return jcampdx.Read(path, lo, hi)
	case "bruker":
		return bruker.Read(path, experiment, processing, lo, hi, bruker.DefaultOptions())
	default:
		return spectrum.Spectrum{}, fmt.Errorf("unknown format %q (want jcampdx or bruker)", format)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
