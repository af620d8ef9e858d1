package jcampdx

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/metabodecon/errs"
)

func writeJDX(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectrum.jdx")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error writing fixture: %v", err)
	}
	return path
}

func TestReadDecodesAFFNRowsWithScalingAndLabels(t *testing.T) {
	content := "##TITLE= test\n" +
		"##.OBSERVENUCLEUS= 1H\n" +
		"##.OBSERVEFREQUENCY= 500.13\n" +
		"##XFACTOR= 1\n" +
		"##YFACTOR= 2\n" +
		"##XYDATA= (X++(Y..Y))\n" +
		"0 1 2 3\n" +
		"3 4 5 6\n" +
		"##END=\n"
	path := writeJDX(t, content)

	s, err := Read(path, 0, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 6 {
		t.Fatalf("expected 6 samples, got %d", s.Len())
	}
	wantY := []float64{2, 4, 6, 8, 10, 12}
	for i, w := range wantY {
		if math.Abs(s.Y()[i]-w) > 1e-9 {
			t.Fatalf("y[%d]: got %v want %v", i, s.Y()[i], w)
		}
	}
	wantX := []float64{0, 1, 2, 3, 4, 5}
	for i, w := range wantX {
		if math.Abs(s.X()[i]-w) > 1e-9 {
			t.Fatalf("x[%d]: got %v want %v", i, s.X()[i], w)
		}
	}
	if s.Metadata().Nucleus != "1H" {
		t.Fatalf("expected nucleus 1H, got %q", s.Metadata().Nucleus)
	}
	if math.Abs(s.Metadata().CarrierFrequency-500.13) > 1e-9 {
		t.Fatalf("expected carrier frequency 500.13, got %v", s.Metadata().CarrierFrequency)
	}
}

func TestReadDecodesSQZPseudoDigits(t *testing.T) {
	// SQZ row: abscissa 0, then pseudo-digit values +1, -2, +3 encoded as
	// 'A' (1), 'b' (-2), 'C' (3).
	content := "##XYDATA= (X++(Y..Y))\n" +
		"0AbC\n" +
		"##END=\n"
	path := writeJDX(t, content)

	s, err := Read(path, 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1, -2, 3}
	if s.Len() != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), s.Len())
	}
	for i, w := range want {
		if math.Abs(s.Y()[i]-w) > 1e-9 {
			t.Fatalf("y[%d]: got %v want %v", i, s.Y()[i], w)
		}
	}
}

func TestReadRejectsDUPCompressedRows(t *testing.T) {
	content := "##XYDATA= (X++(Y..Y))\n" +
		"0 1 2 S\n" +
		"##END=\n"
	path := writeJDX(t, content)

	if _, err := Read(path, 0, 1); err == nil {
		t.Fatalf("expected an error for a DUP-compressed row")
	}
}

func TestReadRejectsDIFCompressedRows(t *testing.T) {
	content := "##XYDATA= (X++(Y..Y))\n" +
		"0 1 J2\n" +
		"##END=\n"
	path := writeJDX(t, content)

	if _, err := Read(path, 0, 1); err == nil {
		t.Fatalf("expected an error for a DIF-compressed row")
	}
}

func TestReadMissingXYDATABlockReturnsMissingData(t *testing.T) {
	content := "##TITLE= test\n##END=\n"
	path := writeJDX(t, content)

	if _, err := Read(path, 0, 1); !errors.Is(err, errs.ErrMissingData) {
		t.Fatalf("expected ErrMissingData for a missing XYDATA block, got %v", err)
	}
}

func TestReadMissingFileReturnsMissingData(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.jdx"), 0, 1); !errors.Is(err, errs.ErrMissingData) {
		t.Fatalf("expected ErrMissingData for a missing file, got %v", err)
	}
}
