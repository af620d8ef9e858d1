package selectpkg

import (
	"errors"
	"testing"

	"github.com/cwbudde/metabodecon/detect"
	"github.com/cwbudde/metabodecon/errs"
	"github.com/cwbudde/metabodecon/spectrum"
)

func TestDetectorOnlyPassesEverythingThrough(t *testing.T) {
	candidates := []detect.Triplet{{L: 0, C: 2, R: 4}, {L: 5, C: 7, R: 9}}
	x := make([]float64, 10)
	y := make([]float64, 10)
	for i := range x {
		x[i] = float64(i)
	}
	region := spectrum.SignalRegion{IL: 0, IR: len(x) - 1}
	kept, err := Select(candidates, x, y, region, spectrum.IgnoreRegions{}, NewDetectorOnly())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("expected 2 candidates kept, got %d", len(kept))
	}
}

func TestNoiseScoreDropsLowSignificancePeaks(t *testing.T) {
	// A sharp peak against a flat baseline with small second-difference
	// noise everywhere else.
	y := []float64{0, 0.01, -0.01, 0.02, 10, 0.02, -0.01, 0.01, 0}
	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}
	candidates := []detect.Triplet{{L: 3, C: 4, R: 5}}
	region := spectrum.SignalRegion{IL: 0, IR: len(x) - 1}
	settings, err := NewNoiseScore(DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kept, err := Select(candidates, x, y, region, spectrum.IgnoreRegions{}, settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("expected the sharp peak to survive, got %d", len(kept))
	}
}

// TestNoiseSigmaScopedToSignalRegionIgnoresOutsideArtifacts builds a
// spectrum where the declared signal region is quiet except for one sharp
// peak, but large sample-to-sample swings sit just outside it on both
// sides. If noiseSigma were computed over the whole array (rather than the
// signal region) those swings would inflate sigma enough to fail the peak
// against threshold.
func TestNoiseSigmaScopedToSignalRegionIgnoresOutsideArtifacts(t *testing.T) {
	const flankLen = 20
	const regionLen = 20

	var y []float64
	for i := 0; i < flankLen; i++ {
		if i%2 == 0 {
			y = append(y, 20)
		} else {
			y = append(y, -20)
		}
	}

	regionStart := len(y)
	for i := 0; i < regionLen; i++ {
		if i%2 == 0 {
			y = append(y, 0.01)
		} else {
			y = append(y, -0.01)
		}
	}
	apex := regionStart + regionLen/2
	y[apex-1] = 0
	y[apex] = 10
	y[apex+1] = 0
	regionEnd := len(y) - 1

	for i := 0; i < flankLen; i++ {
		if i%2 == 0 {
			y = append(y, 20)
		} else {
			y = append(y, -20)
		}
	}

	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}

	region := spectrum.SignalRegion{IL: regionStart, IR: regionEnd}
	candidates := []detect.Triplet{{L: apex - 1, C: apex, R: apex + 1}}
	settings, err := NewNoiseScore(DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kept, err := Select(candidates, x, y, region, spectrum.IgnoreRegions{}, settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("expected the in-region peak to survive once noise is scoped to the signal region, got %d", len(kept))
	}
}

func TestNewNoiseScoreRejectsNonPositiveThreshold(t *testing.T) {
	_, err := NewNoiseScore(0)
	if !errors.Is(err, errs.ErrInvalidSelectionSettings) {
		t.Fatalf("expected ErrInvalidSelectionSettings, got %v", err)
	}
	_, err = NewNoiseScore(-1)
	if !errors.Is(err, errs.ErrInvalidSelectionSettings) {
		t.Fatalf("expected ErrInvalidSelectionSettings, got %v", err)
	}
}

func TestSelectDropsPeaksInIgnoreRegion(t *testing.T) {
	y := []float64{0, 1, 3, 1, 0}
	x := []float64{-2, -1, 0, 1, 2}
	region := spectrum.SignalRegion{IL: 0, IR: len(x) - 1}
	candidates := []detect.Triplet{{L: 0, C: 2, R: 4}}
	ignore, _ := spectrum.NewIgnoreRegions([]spectrum.IgnoreRegion{{Lo: -0.5, Hi: 0.5}})
	_, err := Select(candidates, x, y, region, ignore, NewDetectorOnly())
	if !errors.Is(err, errs.ErrEmptySignalRegion) {
		t.Fatalf("expected ErrEmptySignalRegion when ignore regions erase every selected peak, got %v", err)
	}
}
