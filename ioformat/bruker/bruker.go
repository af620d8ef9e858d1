// Package bruker reads Bruker TopSpin experiment directories into
// spectrum.Spectrum values. It is a shallow collaborator per the external
// interfaces contract: given (path, experimentNumber, processingNumber,
// signalBoundaries), it locates the processed-data file, parses the
// companion acqus/procs parameter text, and synthesizes (x, y).
//
// Structurally this mirrors internal/fitcommon's ReadWAVMono in this
// codebase (open file/header, decode a flat sample array, derive axis
// metadata from header fields) generalized from a WAV container to
// Bruker's directory-plus-sidecar-files layout. The WAV/go-audio
// dependencies themselves are not reused here: TopSpin's "1r" file is a
// bare little/big-endian int32 or float64 array with no RIFF framing, so
// wav.NewDecoder's chunk-parsing has nothing to attach to (see
// DESIGN.md).
package bruker

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/spectrum"
)

// WordSize is the binary sample width of a processed-data file.
type WordSize int

const (
	Int32 WordSize = 4
	Float64WordSize WordSize = 8
)

// ByteOrder selects endianness for decoding the processed-data file.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// Options configures how the processed-data file is decoded when the
// companion parameter file does not declare it explicitly (BYTORDP/DTYPP
// are honored first when present).
type Options struct {
	WordSize  WordSize
	ByteOrder ByteOrder
}

// DefaultOptions matches TopSpin's most common on-disk layout: 4-byte
// little-endian integers.
func DefaultOptions() Options {
	return Options{WordSize: Int32, ByteOrder: LittleEndian}
}

// Read loads experiment `experimentNumber`, processing `processingNumber`,
// from the Bruker dataset rooted at path, with signal boundaries (a, b).
func Read(path string, experimentNumber, processingNumber int, a, b float64, opts Options) (spectrum.Spectrum, error) {
	expDir := filepath.Join(path, strconv.Itoa(experimentNumber))
	acqus, err := parseParamFile(filepath.Join(expDir, "acqus"))
	if err != nil {
		return spectrum.Spectrum{}, err
	}

	procDir := filepath.Join(expDir, "pdata", strconv.Itoa(processingNumber))
	procs, err := parseParamFile(filepath.Join(procDir, "procs"))
	if err != nil {
		return spectrum.Spectrum{}, err
	}

	sw, ok := acqus.float("SW_h")
	if !ok {
		return spectrum.Spectrum{}, fmt.Errorf("%w: acqus missing SW_h", errs.ErrMissingMetadata)
	}
	sf, ok := acqus.float("SFO1")
	if !ok {
		return spectrum.Spectrum{}, fmt.Errorf("%w: acqus missing SFO1", errs.ErrMissingMetadata)
	}
	offset, ok := procs.float("OFFSET")
	if !ok {
		return spectrum.Spectrum{}, fmt.Errorf("%w: procs missing OFFSET", errs.ErrMissingMetadata)
	}
	nucleus, _ := acqus.str("NUC1")

	if o, ok := procs.int("BYTORDP"); ok {
		if o == 0 {
			opts.ByteOrder = LittleEndian
		} else {
			opts.ByteOrder = BigEndian
		}
	}
	if dtypp, ok := procs.int("DTYPP"); ok {
		if dtypp == 2 {
			opts.WordSize = Float64WordSize
		} else {
			opts.WordSize = Int32
		}
	}

	y, err := decodeIntensities(filepath.Join(procDir, "1r"), opts)
	if err != nil {
		return spectrum.Spectrum{}, err
	}
	if len(y) == 0 {
		return spectrum.Spectrum{}, fmt.Errorf("%w: empty processed-data file", errs.ErrMissingData)
	}

	x := synthesizeAxis(len(y), sw, sf, offset)

	return spectrum.New(x, y, a, b, spectrum.Metadata{
		Nucleus:          nucleus,
		CarrierFrequency: sf,
	})
}

// synthesizeAxis builds the ppm axis from spectral width (Hz), carrier
// frequency (MHz) and the procs OFFSET parameter (the ppm value of the
// first point), descending from offset by sw/sf/(n-1) per point, the
// standard TopSpin convention (axis runs high-to-low ppm).
func synthesizeAxis(n int, swHz, sfMHz, offsetPPM float64) []float64 {
	x := make([]float64, n)
	if n < 2 || sfMHz == 0 {
		for i := range x {
			x[i] = offsetPPM
		}
		return x
	}
	swPPM := swHz / sfMHz
	step := swPPM / float64(n-1)
	for i := range x {
		x[i] = offsetPPM - step*float64(i)
	}
	return x
}

func decodeIntensities(path string, opts Options) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMissingData, err)
	}
	defer f.Close()

	var bo binary.ByteOrder = binary.LittleEndian
	if opts.ByteOrder == BigEndian {
		bo = binary.BigEndian
	}

	r := bufio.NewReader(f)
	var out []float64
	switch opts.WordSize {
	case Int32:
		buf := make([]byte, 4)
		for {
			if _, err := io.ReadFull(r, buf); err != nil {
				break
			}
			out = append(out, float64(int32(bo.Uint32(buf))))
		}
	case Float64WordSize:
		buf := make([]byte, 8)
		for {
			if _, err := io.ReadFull(r, buf); err != nil {
				break
			}
			bits := bo.Uint64(buf)
			out = append(out, math.Float64frombits(bits))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported word size %d", errs.ErrMalformedData, opts.WordSize)
	}
	return out, nil
}

// params holds a parsed key=value parameter file (Bruker's acqus/procs
// text convention: "##$NAME= value" lines, with string values wrapped in
// <angle brackets>).
type params map[string]string

func parseParamFile(path string) (params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMissingMetadata, err)
	}
	defer f.Close()

	out := make(params)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "##$") {
			continue
		}
		line = strings.TrimPrefix(line, "##$")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		val = strings.Trim(val, "<>")
		out[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedMetadata, err)
	}
	return out, nil
}

func (p params) float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (p params) int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p params) str(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// ExperimentRef identifies one experiment directory discovered under a
// Bruker dataset root.
type ExperimentRef struct {
	Number int
	Path   string
}

// DiscoverExperiments enumerates sibling experiment directories under
// root, returned in ascending numeric order, mirroring the "set reader"
// collaborator from the external interfaces contract.
func DiscoverExperiments(root string) ([]ExperimentRef, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMissingData, err)
	}
	var out []ExperimentRef
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		out = append(out, ExperimentRef{Number: n, Path: filepath.Join(root, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
