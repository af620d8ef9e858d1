package spectrum

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/metabodecon/errs"
)

// IgnoreRegion is a closed axis interval [Lo, Hi] excluded from peak
// selection and error accounting, e.g. a solvent or water resonance.
type IgnoreRegion struct {
	Lo, Hi float64
}

// IgnoreRegions is a normalized, disjoint, ascending-sorted set of
// IgnoreRegion intervals. Stored sorted to support O(log n) membership
// lookup during selection and error accumulation, per the design notes.
type IgnoreRegions struct {
	regions []IgnoreRegion
}

// NewIgnoreRegions validates and normalizes a set of raw intervals,
// merging overlaps into a disjoint, sorted set.
func NewIgnoreRegions(raw []IgnoreRegion) (IgnoreRegions, error) {
	if len(raw) == 0 {
		return IgnoreRegions{}, nil
	}
	cleaned := make([]IgnoreRegion, len(raw))
	for i, r := range raw {
		if math.IsNaN(r.Lo) || math.IsNaN(r.Hi) || math.IsInf(r.Lo, 0) || math.IsInf(r.Hi, 0) {
			return IgnoreRegions{}, fmt.Errorf("%w: non-finite bound (%v, %v)", errs.ErrInvalidIgnoreRegion, r.Lo, r.Hi)
		}
		if !(r.Lo < r.Hi) {
			return IgnoreRegions{}, fmt.Errorf("%w: lo >= hi (%v, %v)", errs.ErrInvalidIgnoreRegion, r.Lo, r.Hi)
		}
		cleaned[i] = r
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].Lo < cleaned[j].Lo })

	merged := make([]IgnoreRegion, 0, len(cleaned))
	cur := cleaned[0]
	for _, r := range cleaned[1:] {
		if r.Lo <= cur.Hi {
			if r.Hi > cur.Hi {
				cur.Hi = r.Hi
			}
			continue
		}
		merged = append(merged, cur)
		cur = r
	}
	merged = append(merged, cur)

	return IgnoreRegions{regions: merged}, nil
}

// Regions returns the normalized, disjoint, sorted intervals.
func (ir IgnoreRegions) Regions() []IgnoreRegion {
	return append([]IgnoreRegion(nil), ir.regions...)
}

// Empty reports whether no ignore regions are configured.
func (ir IgnoreRegions) Empty() bool { return len(ir.regions) == 0 }

// Contains reports whether x falls within the union of ignore regions.
// Uses binary search over the sorted, disjoint set.
func (ir IgnoreRegions) Contains(x float64) bool {
	if len(ir.regions) == 0 {
		return false
	}
	i := sort.Search(len(ir.regions), func(i int) bool { return ir.regions[i].Hi >= x })
	if i == len(ir.regions) {
		return false
	}
	return x >= ir.regions[i].Lo && x <= ir.regions[i].Hi
}

// CoversRange reports whether the union of ignore regions fully covers the
// axis interval [lo, hi], used to detect a fully-ignored signal region.
func (ir IgnoreRegions) CoversRange(lo, hi float64) bool {
	if !(lo < hi) {
		return false
	}
	cursor := lo
	for _, r := range ir.regions {
		if r.Lo > cursor {
			return false
		}
		if r.Hi > cursor {
			cursor = r.Hi
		}
		if cursor >= hi {
			return true
		}
	}
	return cursor >= hi
}
