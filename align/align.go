// Package align provides multi-spectrum alignment. The reference
// implementation lists alignment as planned/partial, so this package
// exposes it as an optional collaborator behind a narrow interface rather
// than guessing undocumented semantics: None (plain resampling onto the
// reference axis) and CrossCorrelation (FFT-based constant-shift
// estimation) are implemented, and PeakAnchor is a stub that reports
// errs.ErrInvalidAlignmentStrategy.
package align

import (
	"fmt"

	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/spectrum"
)

// Kind discriminates an alignment strategy.
type Kind int

const (
	// None performs no alignment; Align returns the input spectrum
	// reference-resampled onto the target axis.
	None Kind = iota
	// CrossCorrelation estimates a constant axis shift by FFT-based
	// cross-correlation and resamples the shifted spectrum onto the
	// target axis.
	CrossCorrelation
	// PeakAnchor is declared in source as a planned strategy (aligning on
	// a known reference peak, e.g. TSP at 0 ppm) but its exact anchor
	// selection and weighting are never specified. It is intentionally a
	// stub.
	PeakAnchor
)

// Aligner aligns a candidate spectrum onto a reference spectrum's axis.
type Aligner interface {
	Align(reference, candidate spectrum.Spectrum) (spectrum.Spectrum, error)
}

// New constructs the Aligner for the given strategy. Only None and
// CrossCorrelation are implemented; any other Kind, including PeakAnchor,
// returns ErrInvalidAlignmentStrategy.
func New(kind Kind) (Aligner, error) {
	switch kind {
	case None:
		return identityAligner{}, nil
	case CrossCorrelation:
		return crossCorrelationAligner{}, nil
	default:
		return nil, fmt.Errorf("%w: kind %d", errs.ErrInvalidAlignmentStrategy, kind)
	}
}

type identityAligner struct{}

func (identityAligner) Align(reference, candidate spectrum.Spectrum) (spectrum.Spectrum, error) {
	return resampleOnto(reference, candidate)
}

type crossCorrelationAligner struct{}

func (crossCorrelationAligner) Align(reference, candidate spectrum.Spectrum) (spectrum.Spectrum, error) {
	shift := estimateShift(reference.X(), reference.Y(), candidate.X(), candidate.Y())
	shiftedX := make([]float64, candidate.Len())
	for i, v := range candidate.X() {
		shiftedX[i] = v + shift
	}
	a, b := candidate.Bounds()
	shifted, err := spectrum.New(shiftedX, candidate.Y(), a+shift, b+shift, candidate.Metadata())
	if err != nil {
		return spectrum.Spectrum{}, err
	}
	return resampleOnto(reference, shifted)
}

// resampleOnto linearly interpolates candidate's intensities onto
// reference's axis, producing a Spectrum with reference's axis and
// candidate's signal boundaries intersected with reference's range.
func resampleOnto(reference, candidate spectrum.Spectrum) (spectrum.Spectrum, error) {
	y := ResampleToCommonAxis(candidate.X(), candidate.Y(), reference.X())
	a, b := candidate.Bounds()
	refA, refB := reference.Bounds()
	if a < refA {
		a = refA
	}
	if b > refB {
		b = refB
	}
	return spectrum.New(reference.X(), y, a, b, candidate.Metadata())
}
