// Package serialize persists Spectrum inputs and Deconvolution results to
// and from disk, in a JSON form for interchange and a compact binary form
// for bulk storage. Structurally this follows the same "typed file schema
// in, validated domain value out" shape as preset.LoadJSON/ApplyFile in
// this codebase's teacher repo, generalized from piano preset parameters
// to spectra and deconvolution results.
package serialize

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/metabodecon/deconv"
	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/fit"
	"github.com/cwbudde/metabodecon/spectrum"
)

// LorentzianFile is the JSON schema for one fitted Lorentzian component.
type LorentzianFile struct {
	Sf   float64 `json:"sf"`
	Hw   float64 `json:"hw"`
	MaxP float64 `json:"max_p"`
}

// DeconvolutionFile is the JSON schema for a full deconvolution result.
type DeconvolutionFile struct {
	MSE         float64          `json:"mse"`
	Lorentzians []LorentzianFile `json:"lorentzians"`
}

// ToFile converts a Deconvolution into its JSON-serializable form.
func ToFile(d deconv.Deconvolution) DeconvolutionFile {
	f := DeconvolutionFile{
		MSE:         d.MSE,
		Lorentzians: make([]LorentzianFile, len(d.Lorentzians)),
	}
	for i, l := range d.Lorentzians {
		f.Lorentzians[i] = LorentzianFile{Sf: l.Sf, Hw: l.Hw, MaxP: l.MaxP}
	}
	return f
}

// FromFile converts a parsed DeconvolutionFile back into a Deconvolution.
// Lorentzians with a non-positive Hw are rejected: Hw <= 0 can never arise
// from Fit's degeneracy-rejecting 3-point solve, so a file containing one
// is corrupt or hand-edited rather than a legitimate result.
func FromFile(f DeconvolutionFile) (deconv.Deconvolution, error) {
	lorentzians := make([]fit.Lorentzian, len(f.Lorentzians))
	for i, lf := range f.Lorentzians {
		if lf.Hw <= 0 {
			return deconv.Deconvolution{}, fmt.Errorf("%w: lorentzian %d has non-positive hw %v", errs.ErrMalformedData, i, lf.Hw)
		}
		lorentzians[i] = fit.Lorentzian{Sf: lf.Sf, Hw: lf.Hw, MaxP: lf.MaxP}
	}
	return deconv.Deconvolution{Lorentzians: lorentzians, MSE: f.MSE}, nil
}

// WriteJSON marshals d to path as indented JSON.
func WriteJSON(path string, d deconv.Deconvolution) error {
	b, err := json.MarshalIndent(ToFile(d), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	return nil
}

// ReadJSON loads a Deconvolution previously written by WriteJSON.
func ReadJSON(path string) (deconv.Deconvolution, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return deconv.Deconvolution{}, fmt.Errorf("%w: %v", errs.ErrMissingData, err)
	}
	var f DeconvolutionFile
	if err := json.Unmarshal(b, &f); err != nil {
		return deconv.Deconvolution{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	return FromFile(f)
}

// MetadataFile is the JSON schema for a Spectrum's acquisition metadata.
type MetadataFile struct {
	Nucleus          string  `json:"nucleus,omitempty"`
	CarrierFrequency float64 `json:"carrier_frequency,omitempty"`
	Reference        string  `json:"reference,omitempty"`
}

// SpectrumFile is the JSON schema for a full Spectrum: axis, intensities,
// declared signal boundaries, and acquisition metadata.
type SpectrumFile struct {
	X        []float64    `json:"x"`
	Y        []float64    `json:"y"`
	A        float64      `json:"a"`
	B        float64      `json:"b"`
	Metadata MetadataFile `json:"metadata"`
}

// SpectrumToFile converts a Spectrum into its JSON-serializable form.
func SpectrumToFile(s spectrum.Spectrum) SpectrumFile {
	a, b := s.Bounds()
	meta := s.Metadata()
	return SpectrumFile{
		X: append([]float64(nil), s.X()...),
		Y: append([]float64(nil), s.Y()...),
		A: a,
		B: b,
		Metadata: MetadataFile{
			Nucleus:          meta.Nucleus,
			CarrierFrequency: meta.CarrierFrequency,
			Reference:        meta.Reference,
		},
	}
}

// SpectrumFromFile reconstructs and validates a Spectrum from a parsed
// SpectrumFile, applying the same construction invariants as spectrum.New.
func SpectrumFromFile(f SpectrumFile) (spectrum.Spectrum, error) {
	meta := spectrum.Metadata{
		Nucleus:          f.Metadata.Nucleus,
		CarrierFrequency: f.Metadata.CarrierFrequency,
		Reference:        f.Metadata.Reference,
	}
	return spectrum.New(f.X, f.Y, f.A, f.B, meta)
}

// WriteSpectrumJSON marshals s to path as indented JSON.
func WriteSpectrumJSON(path string, s spectrum.Spectrum) error {
	b, err := json.MarshalIndent(SpectrumToFile(s), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	return nil
}

// ReadSpectrumJSON loads a Spectrum previously written by WriteSpectrumJSON.
func ReadSpectrumJSON(path string) (spectrum.Spectrum, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: %v", errs.ErrMissingData, err)
	}
	var f SpectrumFile
	if err := json.Unmarshal(b, &f); err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	return SpectrumFromFile(f)
}
