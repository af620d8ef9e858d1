package serialize

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/metabodecon/deconv"
	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/fit"
	"github.com/cwbudde/metabodecon/spectrum"
)

// binaryMagic identifies the compact binary result format: 4 bytes "MDCN"
// followed by a uint32 format version.
var binaryMagic = [4]byte{'M', 'D', 'C', 'N'}

const binaryVersion uint32 = 1

// WriteBinary writes d to path as a compact little-endian binary record:
// magic, version, MSE, component count, then Sf/Hw/MaxP triples. This
// mirrors the flat-array little-endian layout ioformat/bruker reads back
// for processed spectra, applied here to results instead of raw intensity
// arrays.
func WriteBinary(path string, d deconv.Deconvolution) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(binaryMagic[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := binary.Write(w, binary.LittleEndian, binaryVersion); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := binary.Write(w, binary.LittleEndian, d.MSE); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(d.Lorentzians))); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	for _, l := range d.Lorentzians {
		vals := [3]float64{l.Sf, l.Hw, l.MaxP}
		if err := binary.Write(w, binary.LittleEndian, vals); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	return nil
}

// ReadBinary loads a Deconvolution previously written by WriteBinary.
func ReadBinary(path string) (deconv.Deconvolution, error) {
	f, err := os.Open(path)
	if err != nil {
		return deconv.Deconvolution{}, fmt.Errorf("%w: %v", errs.ErrMissingData, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != binaryMagic {
		return deconv.Deconvolution{}, fmt.Errorf("%w: not a metabodecon binary result file", errs.ErrMalformedData)
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return deconv.Deconvolution{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	if version != binaryVersion {
		return deconv.Deconvolution{}, fmt.Errorf("%w: unsupported binary result version %d", errs.ErrMalformedData, version)
	}

	var mse float64
	if err := binary.Read(r, binary.LittleEndian, &mse); err != nil {
		return deconv.Deconvolution{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return deconv.Deconvolution{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}

	lorentzians := make([]fit.Lorentzian, count)
	for i := range lorentzians {
		var vals [3]float64
		if err := binary.Read(r, binary.LittleEndian, &vals); err != nil {
			return deconv.Deconvolution{}, fmt.Errorf("%w: truncated record at component %d: %v", errs.ErrMalformedData, i, err)
		}
		if vals[1] <= 0 || math.IsNaN(vals[1]) {
			return deconv.Deconvolution{}, fmt.Errorf("%w: component %d has non-positive hw %v", errs.ErrMalformedData, i, vals[1])
		}
		lorentzians[i] = fit.Lorentzian{Sf: vals[0], Hw: vals[1], MaxP: vals[2]}
	}
	return deconv.Deconvolution{Lorentzians: lorentzians, MSE: mse}, nil
}

// spectrumBinaryMagic identifies the compact binary spectrum format: 4
// bytes "MDSP" followed by a uint32 format version. Distinct from
// binaryMagic so a reader never silently confuses the two file kinds.
var spectrumBinaryMagic = [4]byte{'M', 'D', 'S', 'P'}

const spectrumBinaryVersion uint32 = 1

// WriteSpectrumBinary writes s to path as a compact little-endian binary
// record: magic, version, signal boundaries, metadata, sample count, then
// the x and y arrays in full.
func WriteSpectrumBinary(path string, s spectrum.Spectrum) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(spectrumBinaryMagic[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := binary.Write(w, binary.LittleEndian, spectrumBinaryVersion); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	a, b := s.Bounds()
	if err := binary.Write(w, binary.LittleEndian, [2]float64{a, b}); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	meta := s.Metadata()
	if err := writeBinaryString(w, meta.Nucleus); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, meta.CarrierFrequency); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := writeBinaryString(w, meta.Reference); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(s.Len())); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := binary.Write(w, binary.LittleEndian, s.X()); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := binary.Write(w, binary.LittleEndian, s.Y()); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	return nil
}

// ReadSpectrumBinary loads a Spectrum previously written by
// WriteSpectrumBinary, re-validating it through spectrum.New.
func ReadSpectrumBinary(path string) (spectrum.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: %v", errs.ErrMissingData, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != spectrumBinaryMagic {
		return spectrum.Spectrum{}, fmt.Errorf("%w: not a metabodecon binary spectrum file", errs.ErrMalformedData)
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	if version != spectrumBinaryVersion {
		return spectrum.Spectrum{}, fmt.Errorf("%w: unsupported binary spectrum version %d", errs.ErrMalformedData, version)
	}

	var bounds [2]float64
	if err := binary.Read(r, binary.LittleEndian, &bounds); err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	nucleus, err := readBinaryString(r)
	if err != nil {
		return spectrum.Spectrum{}, err
	}
	var carrierFrequency float64
	if err := binary.Read(r, binary.LittleEndian, &carrierFrequency); err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	reference, err := readBinaryString(r)
	if err != nil {
		return spectrum.Spectrum{}, err
	}

	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	x := make([]float64, n)
	if err := binary.Read(r, binary.LittleEndian, x); err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: truncated x axis: %v", errs.ErrMalformedData, err)
	}
	y := make([]float64, n)
	if err := binary.Read(r, binary.LittleEndian, y); err != nil {
		return spectrum.Spectrum{}, fmt.Errorf("%w: truncated y samples: %v", errs.ErrMalformedData, err)
	}

	meta := spectrum.Metadata{Nucleus: nucleus, CarrierFrequency: carrierFrequency, Reference: reference}
	return spectrum.New(x, y, bounds[0], bounds[1], meta)
}

// writeBinaryString writes a length-prefixed UTF-8 string.
func writeBinaryString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	return nil
}

// readBinaryString reads a length-prefixed UTF-8 string written by
// writeBinaryString.
func readBinaryString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrMalformedData, err)
	}
	return string(buf), nil
}
