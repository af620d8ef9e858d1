package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/metabodecon/detect"
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

func lorentzianValues(x []float64, l Lorentzian) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = l.Eval(v)
	}
	return out
}

func nearestTriplet(x []float64, lo, center, hi float64) detect.Triplet {
	nearest := func(v float64) int {
		best, bestDist := 0, math.Inf(1)
		for i, xv := range x {
			if d := math.Abs(xv - v); d < bestDist {
				bestDist, best = d, i
			}
		}
		return best
	}
	return detect.Triplet{L: nearest(lo), C: nearest(center), R: nearest(hi)}
}

func TestFitRecoversSingleCleanLorentzian(t *testing.T) {
	want := Lorentzian{Sf: 1, Hw: 0.05, MaxP: 0}
	x := linspace(-5, 5, 2001)
	y := lorentzianValues(x, want)

	triplet := nearestTriplet(x, -0.2, 0, 0.2)
	settings, err := NewAnalytical(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Fit(x, y, []detect.Triplet{triplet}, settings)
	if len(got) != 1 {
		t.Fatalf("expected 1 lorentzian, got %d", len(got))
	}
	g := got[0]
	if math.Abs(g.Sf-want.Sf) > 1e-3 || math.Abs(g.Hw-want.Hw) > 1e-3 || math.Abs(g.MaxP-want.MaxP) > 1e-3 {
		t.Fatalf("fit %+v too far from want %+v", g, want)
	}
}

func TestFitOutputSortedByMaxP(t *testing.T) {
	a := Lorentzian{Sf: 1, Hw: 0.05, MaxP: -1}
	b := Lorentzian{Sf: 2, Hw: 0.1, MaxP: 1}
	x := linspace(-5, 5, 4001)
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = a.Eval(v) + b.Eval(v)
	}
	t1 := nearestTriplet(x, 0.7, 1, 1.3)
	t2 := nearestTriplet(x, -1.3, -1, -0.7)
	settings, _ := NewAnalytical(0)
	got := Fit(x, y, []detect.Triplet{t1, t2}, settings)
	if len(got) != 2 {
		t.Fatalf("expected 2 lorentzians, got %d", len(got))
	}
	if got[0].MaxP >= got[1].MaxP {
		t.Fatalf("expected ascending MaxP, got %+v", got)
	}
}

func TestFitDropsDegenerateTriplet(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{0, 0, 0, 0, 0}
	settings, _ := NewAnalytical(0)
	got := Fit(x, y, []detect.Triplet{{L: 1, C: 2, R: 3}}, settings)
	if len(got) != 0 {
		t.Fatalf("expected degenerate (all-zero) triplet to be dropped, got %d", len(got))
	}
}

func TestNewAnalyticalRejectsOutOfRangeIterations(t *testing.T) {
	if _, err := NewAnalytical(-1); !errors.Is(err, errs.ErrInvalidFittingSettings) {
		t.Fatalf("expected ErrInvalidFittingSettings, got %v", err)
	}
	if _, err := NewAnalytical(MaxIterations + 1); !errors.Is(err, errs.ErrInvalidFittingSettings) {
		t.Fatalf("expected ErrInvalidFittingSettings, got %v", err)
	}
}

func TestLorentzianIntegralMatchesAnalyticFormula(t *testing.T) {
	l := Lorentzian{Sf: 2, Hw: 0.3, MaxP: 1.5}
	// Dense numerical integration over a wide window.
	x := linspace(l.MaxP-5000, l.MaxP+5000, 2_000_001)
	step := x[1] - x[0]
	sum := 0.0
	for _, v := range x {
		sum += l.Eval(v)
	}
	numerical := sum * step
	analytic := l.Integral()
	if math.Abs(numerical-analytic)/analytic > 1e-4 {
		t.Fatalf("numerical integral %v too far from analytic %v", numerical, analytic)
	}
}

func TestIterativeRefinementReducesErrorOnOverlappingPeaks(t *testing.T) {
	peaks := []Lorentzian{
		{Sf: 1, Hw: 0.08, MaxP: -0.3},
		{Sf: 1.2, Hw: 0.1, MaxP: 0},
		{Sf: 0.9, Hw: 0.09, MaxP: 0.35},
	}
	x := linspace(-3, 3, 6001)
	y := make([]float64, len(x))
	for i, v := range x {
		for _, p := range peaks {
			y[i] += p.Eval(v)
		}
	}
	triplets := []detect.Triplet{
		nearestTriplet(x, -0.5, -0.3, -0.15),
		nearestTriplet(x, -0.15, 0, 0.15),
		nearestTriplet(x, 0.15, 0.35, 0.55),
	}

	s0, _ := NewAnalytical(0)
	s10, _ := NewAnalytical(10)

	mse := func(lorentzians []Lorentzian) float64 {
		var sum float64
		for i, v := range x {
			recon := 0.0
			for _, l := range lorentzians {
				recon += l.Eval(v)
			}
			d := y[i] - recon
			sum += d * d
		}
		return sum / float64(len(x))
	}

	mse0 := mse(Fit(x, y, triplets, s0))
	mse10 := mse(Fit(x, y, triplets, s10))
	if mse10 >= mse0 {
		t.Fatalf("expected iterative refinement to reduce mse: iter0=%v iter10=%v", mse0, mse10)
	}
}
