// Package errs defines the flat, kind-discriminated error taxonomy shared by
// every component of the deconvolution pipeline. Each kind is a sentinel
// error; callers identify the kind with errors.Is and read the wrapped
// message for detail, the same way github.com/cwbudde/algo-dsp/dsp/conv
// exposes ErrDivisionByZero, ErrInvalidEpsilon, ErrInvalidNoiseVar.
package errs

import "errors"

// Spectrum construction errors.
var (
	ErrEmptyData              = errors.New("metabodecon: empty data")
	ErrDataLengthMismatch     = errors.New("metabodecon: x and y length mismatch")
	ErrNonUniformSpacing      = errors.New("metabodecon: non-uniform axis spacing")
	ErrInvalidIntensities     = errors.New("metabodecon: invalid (non-finite) intensities")
	ErrInvalidSignalBoundaries = errors.New("metabodecon: invalid signal boundaries")
)

// Collaborator I/O errors (readers, serializers).
var (
	ErrMissingMetadata  = errors.New("metabodecon: missing metadata")
	ErrMalformedMetadata = errors.New("metabodecon: malformed metadata")
	ErrMissingData      = errors.New("metabodecon: missing data")
	ErrMalformedData    = errors.New("metabodecon: malformed data")
	ErrSerialization    = errors.New("metabodecon: serialization error")
)

// Configuration errors.
var (
	ErrInvalidSmoothingSettings = errors.New("metabodecon: invalid smoothing settings")
	ErrInvalidSelectionSettings = errors.New("metabodecon: invalid selection settings")
	ErrInvalidFittingSettings   = errors.New("metabodecon: invalid fitting settings")
	ErrInvalidIgnoreRegion      = errors.New("metabodecon: invalid ignore region")
)

// Algorithmic outcome errors.
var (
	ErrNoPeaksDetected = errors.New("metabodecon: no peaks detected")
	// ErrEmptySignalRegion reports that selection kept candidates but the
	// configured ignore regions then dropped every one of them by apex
	// membership, distinct from ErrNoPeaksDetected (no candidate was ever
	// significant to begin with).
	ErrEmptySignalRegion = errors.New("metabodecon: empty signal region")
	// ErrEmptySignalFreeRegion is reserved for a complementary
	// signal-free (baseline) region that this pipeline does not model;
	// see DESIGN.md's no-peaks/empty-result policy. No caller returns it.
	ErrEmptySignalFreeRegion = errors.New("metabodecon: empty signal-free region")
)

// Alignment (stub collaborator).
var ErrInvalidAlignmentStrategy = errors.New("metabodecon: invalid alignment strategy")

// Fallback for conditions that do not map to a more specific kind.
var ErrUnexpected = errors.New("metabodecon: unexpected error")
