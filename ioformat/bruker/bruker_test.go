package bruker

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/cwbudde/metabodecon/errs"
)

func writeAcqus(t *testing.T, path string, sw, sfo1 float64, nuc string) {
	t.Helper()
	content := "##$SW_h= " + strconv.FormatFloat(sw, 'f', -1, 64) + "\n" +
		"##$SFO1= " + strconv.FormatFloat(sfo1, 'f', -1, 64) + "\n" +
		"##$NUC1= <" + nuc + ">\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error writing acqus: %v", err)
	}
}

func writeProcs(t *testing.T, path string, offset float64) {
	t.Helper()
	content := "##$OFFSET= " + strconv.FormatFloat(offset, 'f', -1, 64) + "\n" +
		"##$BYTORDP= 0\n" +
		"##$DTYPP= 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error writing procs: %v", err)
	}
}

func writeIntensities(t *testing.T, path string, values []int32) {
	t.Helper()
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("unexpected error writing 1r: %v", err)
	}
}

func TestReadParsesParametersAndIntensities(t *testing.T) {
	root := t.TempDir()
	expDir := filepath.Join(root, "1")
	procDir := filepath.Join(expDir, "pdata", "1")
	if err := os.MkdirAll(procDir, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeAcqus(t, filepath.Join(expDir, "acqus"), 10000, 500, "1H")
	writeProcs(t, filepath.Join(procDir, "procs"), 10)
	values := []int32{10, 20, 30, 40, 50}
	writeIntensities(t, filepath.Join(procDir, "1r"), values)

	s, err := Read(root, 1, 1, -5, 15, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != len(values) {
		t.Fatalf("expected %d samples, got %d", len(values), s.Len())
	}
	for i, v := range values {
		if s.Y()[i] != float64(v) {
			t.Fatalf("intensity mismatch at %d: got %v want %v", i, s.Y()[i], v)
		}
	}
	if s.Metadata().Nucleus != "1H" {
		t.Fatalf("expected nucleus 1H, got %q", s.Metadata().Nucleus)
	}
	if math.Abs(s.Metadata().CarrierFrequency-500) > 1e-9 {
		t.Fatalf("expected carrier frequency 500, got %v", s.Metadata().CarrierFrequency)
	}
	// The axis should descend from OFFSET by sw/sf per the TopSpin
	// convention, with the first sample exactly at OFFSET.
	if math.Abs(s.X()[0]-10) > 1e-9 {
		t.Fatalf("expected first axis sample at offset 10, got %v", s.X()[0])
	}
	if s.X()[1] >= s.X()[0] {
		t.Fatalf("expected descending axis, got %v then %v", s.X()[0], s.X()[1])
	}
}

func TestReadMissingAcqusReturnsMissingMetadata(t *testing.T) {
	root := t.TempDir()
	if _, err := Read(root, 1, 1, -5, 15, DefaultOptions()); !errors.Is(err, errs.ErrMissingMetadata) {
		t.Fatalf("expected ErrMissingMetadata for a missing acqus file, got %v", err)
	}
}

func TestDiscoverExperimentsOrdersNumerically(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"10", "2", "1", "ignored-non-numeric"} {
		if err := os.MkdirAll(filepath.Join(root, n), 0o755); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	refs, err := DiscoverExperiments(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("expected 3 numeric experiment dirs, got %d", len(refs))
	}
	want := []int{1, 2, 10}
	for i, w := range want {
		if refs[i].Number != w {
			t.Fatalf("index %d: got %d want %d", i, refs[i].Number, w)
		}
	}
}
