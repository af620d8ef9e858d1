package align

import (
	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"

	"github.com/cwbudde/metabodecon/spectrum"
)

// Comparison summarizes how well an aligned candidate spectrum matches a
// reference, mirroring the score/metrics shape of this codebase's
// audio-distance comparator (Metrics in the teacher's analysis package),
// generalized from time-domain audio samples to chemical-shift intensity
// arrays.
type Comparison struct {
	SNRDb float64
}

// Compare aligns candidate onto reference with the given strategy and
// reports the signal-to-noise ratio of candidate against reference on the
// reference axis. SNR is computed with algo-dsp's dsp/conv.SNR, the same
// formula the teacher's pack uses to score deconvolution fidelity,
// repurposed here to score alignment fidelity instead.
func Compare(reference, candidate spectrum.Spectrum, kind Kind) (Comparison, error) {
	aligner, err := New(kind)
	if err != nil {
		return Comparison{}, err
	}
	aligned, err := aligner.Align(reference, candidate)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{SNRDb: dspconv.SNR(reference.Y(), aligned.Y())}, nil
}
