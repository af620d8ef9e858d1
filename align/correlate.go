package align

import (
	"errors"
	"math"
	"math/cmplx"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

// estimateShift estimates the constant axis offset that best aligns
// candidate onto reference by FFT-based cross-correlation of their
// intensities, resampled onto a common uniform axis first. The returned
// value is in reference/candidate axis units (e.g. ppm), positive when
// candidate should be shifted toward higher x to match reference.
//
// Grounded on the lag-estimation machinery in this codebase's spectral
// comparison routine (estimateLagFFT): zero-pad both signals to a common
// power-of-two length, correlate in the frequency domain via a real FFT
// plan, and take the argmax of the inverse transform.
func estimateShift(refX, refY, candX, candY []float64) float64 {
	n := len(refX)
	if n < 4 || len(candX) < 4 {
		return 0
	}
	dx := (refX[n-1] - refX[0]) / float64(n-1)
	if dx == 0 || math.IsNaN(dx) {
		return 0
	}

	common := refX
	refOnCommon := refY
	candOnCommon := ResampleToCommonAxis(candX, candY, common)

	maxLag := n / 2
	if maxLag < 1 {
		return 0
	}
	lag, ok := crossCorrelateLag(refOnCommon, candOnCommon, maxLag)
	if !ok {
		return 0
	}
	return float64(lag) * dx
}

var lagPlanCache sync.Map // map[int]*lagFFTPlan

type lagFFTPlan struct {
	mu   sync.Mutex
	n    int
	fast *algofft.FastPlanReal64
	safe *algofft.PlanRealT[float64, complex128]

	inA   []float64
	inB   []float64
	specA []complex128
	specB []complex128
	corr  []float64
}

func getLagFFTPlan(n int) (*lagFFTPlan, error) {
	if v, ok := lagPlanCache.Load(n); ok {
		return v.(*lagFFTPlan), nil
	}

	p := &lagFFTPlan{
		n:     n,
		inA:   make([]float64, n),
		inB:   make([]float64, n),
		specA: make([]complex128, n/2+1),
		specB: make([]complex128, n/2+1),
		corr:  make([]float64, n),
	}

	fast, err := algofft.NewFastPlanReal64(n)
	if err == nil {
		p.fast = fast
	} else if !errors.Is(err, algofft.ErrNotImplemented) {
		return nil, err
	}

	safe, err := algofft.NewPlanReal64(n)
	if err != nil {
		if p.fast == nil {
			return nil, err
		}
	} else {
		p.safe = safe
	}

	actual, _ := lagPlanCache.LoadOrStore(n, p)
	return actual.(*lagFFTPlan), nil
}

func (p *lagFFTPlan) forward(dst []complex128, src []float64) error {
	if p.fast != nil {
		p.fast.Forward(dst, src)
		return nil
	}
	if p.safe != nil {
		return p.safe.Forward(dst, src)
	}
	return errors.New("align: missing lag FFT forward plan")
}

func (p *lagFFTPlan) inverse(dst []float64, src []complex128) error {
	if p.fast != nil {
		p.fast.Inverse(dst, src)
		return nil
	}
	if p.safe != nil {
		return p.safe.Inverse(dst, src)
	}
	return errors.New("align: missing lag FFT inverse plan")
}

// crossCorrelateLag returns the index lag in [-maxLag, maxLag] maximizing
// the cross-correlation of a and b via a real FFT, and whether the FFT
// plan could be constructed.
func crossCorrelateLag(a, b []float64, maxLag int) (int, bool) {
	nfft := nextPow2(len(a) + len(b) - 1)
	if nfft < 2 {
		nfft = 2
	}
	plan, err := getLagFFTPlan(nfft)
	if err != nil {
		return 0, false
	}

	plan.mu.Lock()
	defer plan.mu.Unlock()

	clear(plan.inA)
	clear(plan.inB)
	copy(plan.inA, a)
	copy(plan.inB, b)

	if err := plan.forward(plan.specA, plan.inA); err != nil {
		return 0, false
	}
	if err := plan.forward(plan.specB, plan.inB); err != nil {
		return 0, false
	}
	for i := range plan.specA {
		plan.specA[i] *= cmplx.Conj(plan.specB[i])
	}
	if err := plan.inverse(plan.corr, plan.specA); err != nil {
		return 0, false
	}

	bestLag, best := 0, math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		idx := lag
		if idx < 0 {
			idx += plan.n
		}
		s := plan.corr[idx]
		if s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag, true
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
