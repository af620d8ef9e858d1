package deconv

import (
	"runtime"
	"sync"
)

// defaultChunkTarget bounds how many chunks a data-parallel map/reduce is
// split into regardless of how many worker goroutines actually run them.
// Fixing the chunk layout independently of the thread count is what makes
// results bit-identical across runs with the same data and near-identical
// (tolerance 1e-9 relative) across different thread counts, per the
// concurrency design.
const defaultChunkTarget = 64

// chunkBounds returns up to defaultChunkTarget contiguous, non-overlapping
// [lo, hi) index ranges covering [0, n), fixed by n alone.
func chunkBounds(n int) [][2]int {
	if n == 0 {
		return nil
	}
	chunks := defaultChunkTarget
	if chunks > n {
		chunks = n
	}
	size := (n + chunks - 1) / chunks
	bounds := make([][2]int, 0, chunks)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		bounds = append(bounds, [2]int{lo, hi})
	}
	return bounds
}

// parallelMap applies f to every element of in, writing results into out
// (which must be pre-sized to len(in)), splitting work across up to
// `workers` goroutines (runtime.GOMAXPROCS(0) if workers <= 0). Each
// worker processes whole chunks in index order, so the result is
// independent of the number of workers used.
func parallelMap(in []float64, out []float64, workers int, f func(float64) float64) {
	n := len(in)
	if n == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	bounds := chunkBounds(n)
	if workers <= 1 || len(bounds) <= 1 {
		for i := 0; i < n; i++ {
			out[i] = f(in[i])
		}
		return
	}

	jobs := make(chan [2]int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				for i := b[0]; i < b[1]; i++ {
					out[i] = f(in[i])
				}
			}
		}()
	}
	for _, b := range bounds {
		jobs <- b
	}
	close(jobs)
	wg.Wait()
}

// parallelSumSquaredError computes sum((measured[i] - reconstructed(axis[i]))^2)
// over the indices for which include(i) is true, using a deterministic
// chunked tree reduction: each chunk's partial sum is accumulated in a
// strict left-to-right loop, and the chunk partial sums are combined in
// ascending chunk order, so the total is identical regardless of worker
// count for a fixed chunk layout.
func parallelSumSquaredError(axis, measured []float64, workers int, include func(int) bool, reconstruct func(float64) float64) (sum float64, count int) {
	n := len(axis)
	if n == 0 {
		return 0, 0
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	bounds := chunkBounds(n)

	partialSums := make([]float64, len(bounds))
	partialCounts := make([]int, len(bounds))

	compute := func(ci int) {
		b := bounds[ci]
		var s float64
		var c int
		for i := b[0]; i < b[1]; i++ {
			if !include(i) {
				continue
			}
			d := measured[i] - reconstruct(axis[i])
			s += d * d
			c++
		}
		partialSums[ci] = s
		partialCounts[ci] = c
	}

	if workers <= 1 || len(bounds) <= 1 {
		for ci := range bounds {
			compute(ci)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for ci := range jobs {
					compute(ci)
				}
			}()
		}
		for ci := range bounds {
			jobs <- ci
		}
		close(jobs)
		wg.Wait()
	}

	for ci := range bounds {
		sum += partialSums[ci]
		count += partialCounts[ci]
	}
	return sum, count
}
