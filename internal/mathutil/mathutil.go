// Package mathutil holds small numeric helpers shared by select and fit:
// a robust noise estimator and a pivoted 3x3 linear solve. Kept internal
// because nothing outside the deconvolution core needs them directly,
// mirroring the teacher's internal/fitcommon grouping of small numeric
// helpers (Clamp, MinInt, MaxInt) used only by its own cmd/* packages.
package mathutil

import (
	"math"
	"sort"
)

// MedianAbsoluteDeviation returns the median absolute deviation of v from
// its own median. Returns 0 for an empty or single-element input.
func MedianAbsoluteDeviation(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	med := median(v)
	dev := make([]float64, len(v))
	for i, x := range v {
		dev[i] = math.Abs(x - med)
	}
	return median(dev)
}

// median returns the median of v without mutating v.
func median(v []float64) float64 {
	cp := append([]float64(nil), v...)
	sort.Float64s(cp)
	n := len(cp)
	if n%2 == 1 {
		return cp[n/2]
	}
	return (cp[n/2-1] + cp[n/2]) / 2
}

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Vec3 is a 3-component vector.
type Vec3 [3]float64

// degenerateDet is the minimum |determinant| accepted before a system is
// rejected as numerically degenerate, per the design note on conditioning.
const degenerateDet = 1e-20

// SolveLinear3 solves A*x = b via Gaussian elimination with partial
// (row) pivoting. ok is false if the system is singular or so
// ill-conditioned that |det| < degenerateDet.
func SolveLinear3(a Mat3, b Vec3) (x Vec3, ok bool) {
	// Work on a local copy so the caller's matrix is untouched.
	m := a
	rhs := b

	// Partial pivoting: for each column, swap in the row with the largest
	// absolute value to reduce numerical error.
	for col := 0; col < 3; col++ {
		pivotRow := col
		pivotVal := math.Abs(m[col][col])
		for row := col + 1; row < 3; row++ {
			if v := math.Abs(m[row][col]); v > pivotVal {
				pivotRow = row
				pivotVal = v
			}
		}
		if pivotVal < 1e-300 {
			return Vec3{}, false
		}
		if pivotRow != col {
			m[col], m[pivotRow] = m[pivotRow], m[col]
			rhs[col], rhs[pivotRow] = rhs[pivotRow], rhs[col]
		}
		for row := col + 1; row < 3; row++ {
			factor := m[row][col] / m[col][col]
			if factor == 0 {
				continue
			}
			for k := col; k < 3; k++ {
				m[row][k] -= factor * m[col][k]
			}
			rhs[row] -= factor * rhs[col]
		}
	}

	det := m[0][0] * m[1][1] * m[2][2]
	if math.Abs(det) < degenerateDet {
		return Vec3{}, false
	}

	// Back substitution.
	x[2] = rhs[2] / m[2][2]
	x[1] = (rhs[1] - m[1][2]*x[2]) / m[1][1]
	x[0] = (rhs[0] - m[0][1]*x[1] - m[0][2]*x[2]) / m[0][0]

	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Vec3{}, false
		}
	}
	return x, true
}
