package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/metabodecon/errs"
)

func linspace(a, b float64, n int) []float64 {
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	return out
}

func TestNewAcceptsValidSpectrum(t *testing.T) {
	x := linspace(-5, 5, 201)
	y := make([]float64, len(x))
	s, err := New(x, y, -5, 5, Metadata{Nucleus: "1H"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 201 {
		t.Fatalf("expected len 201, got %d", s.Len())
	}
	r := s.SignalRegion()
	if r.IL != 0 || r.IR != 200 {
		t.Fatalf("expected full region [0,200], got [%d,%d]", r.IL, r.IR)
	}
}

func TestNewRejectsLengthMismatch(t *testing.T) {
	_, err := New([]float64{0, 1, 2}, []float64{0, 1}, 0, 2, Metadata{})
	if !errors.Is(err, errs.ErrDataLengthMismatch) {
		t.Fatalf("expected ErrDataLengthMismatch, got %v", err)
	}
}

func TestNewRejectsNonUniformSpacing(t *testing.T) {
	x := []float64{0, 1, 2, 4, 5}
	y := make([]float64, len(x))
	_, err := New(x, y, 0, 5, Metadata{})
	if !errors.Is(err, errs.ErrNonUniformSpacing) {
		t.Fatalf("expected ErrNonUniformSpacing, got %v", err)
	}
}

func TestNewRejectsNonFiniteIntensities(t *testing.T) {
	x := linspace(0, 4, 5)
	y := []float64{0, 1, math.NaN(), 1, 0}
	_, err := New(x, y, 0, 4, Metadata{})
	if !errors.Is(err, errs.ErrInvalidIntensities) {
		t.Fatalf("expected ErrInvalidIntensities, got %v", err)
	}
}

func TestNewRejectsOutOfRangeBoundaries(t *testing.T) {
	x := linspace(0, 4, 5)
	y := make([]float64, len(x))
	_, err := New(x, y, 10, 11, Metadata{})
	if !errors.Is(err, errs.ErrInvalidSignalBoundaries) {
		t.Fatalf("expected ErrInvalidSignalBoundaries, got %v", err)
	}
}

func TestNewAcceptsMinimalTwoSampleSpectrum(t *testing.T) {
	s, err := New([]float64{0, 1}, []float64{0, 0}, 0, 1, Metadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected len 2, got %d", s.Len())
	}
}

func TestIgnoreRegionsNormalizeOverlaps(t *testing.T) {
	ir, err := NewIgnoreRegions([]IgnoreRegion{
		{Lo: 1, Hi: 3},
		{Lo: 2, Hi: 4},
		{Lo: 10, Hi: 11},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	regions := ir.Regions()
	if len(regions) != 2 {
		t.Fatalf("expected 2 merged regions, got %d: %v", len(regions), regions)
	}
	if regions[0] != (IgnoreRegion{Lo: 1, Hi: 4}) {
		t.Fatalf("expected merged [1,4], got %v", regions[0])
	}
}

func TestIgnoreRegionsRejectInvalidInterval(t *testing.T) {
	_, err := NewIgnoreRegions([]IgnoreRegion{{Lo: 3, Hi: 1}})
	if !errors.Is(err, errs.ErrInvalidIgnoreRegion) {
		t.Fatalf("expected ErrInvalidIgnoreRegion, got %v", err)
	}
}

func TestIgnoreRegionsCoversRange(t *testing.T) {
	ir, _ := NewIgnoreRegions([]IgnoreRegion{{Lo: -1, Hi: 5}})
	if !ir.CoversRange(0, 4) {
		t.Fatalf("expected full coverage of [0,4]")
	}
	if ir.CoversRange(4, 10) {
		t.Fatalf("expected no coverage of [4,10]")
	}
}
