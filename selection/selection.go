// Package selection filters scored configurations into the "useful
// uncertainty" band and caps the result to a bounded, reproducible subset.
//
// Configurations with eps_t below the band already agree with the committee
// and are redundant with existing training data; configurations above it are
// likely outside any model's reliable extrapolation range and re-labeling
// them risks reinforcing a bad sampling region.
package selection

import (
	"errors"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/quenbyak/epsel/deviation"
	"github.com/quenbyak/epsel/structure"
)

// ErrInvalidParameter is returned for out-of-range selection parameters.
var ErrInvalidParameter = errors.New("invalid selection parameter")

// Strategy names a deterministic policy for reducing an over-capacity
// candidate set. Neither strategy uses randomness: repeated runs over the
// same scored stream select the same configurations.
type Strategy int

const (
	// StrategyStride sorts candidates by stream index and takes an evenly
	// spaced subsequence, preserving temporal and phase-space diversity
	// across the trajectory. This is the default.
	StrategyStride Strategy = iota

	// StrategyRank sorts candidates by eps_t descending (ties broken by
	// ascending stream index) and takes the most uncertain ones.
	StrategyRank
)

func (s Strategy) String() string {
	switch s {
	case StrategyStride:
		return "stride"
	case StrategyRank:
		return "rank"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Candidate pairs a retained configuration with its deviation record.
type Candidate struct {
	Config *structure.Configuration
	Record deviation.Record
}

// Result is the final, ordered selection with provenance.
type Result struct {
	// Selected holds the chosen configurations: ascending stream index for
	// StrategyStride, rank order for StrategyRank.
	Selected []Candidate
	// Strategy is the capacity policy that produced the ordering.
	Strategy Strategy
	// Candidates marks the stream indices of every in-band configuration,
	// including those dropped by the capacity cap.
	Candidates *roaring.Bitmap
	// Capped reports whether the in-band set exceeded the cap.
	Capped bool
}

// Indices returns the stream indices of the selected configurations in
// selection order.
func (r *Result) Indices() []int {
	out := make([]int, len(r.Selected))
	for i, c := range r.Selected {
		out[i] = c.Record.Index
	}
	return out
}

// ValidateParams checks the band and cap parameters without selecting.
func ValidateParams(lo, hi float64, maxN int) error {
	if maxN <= 0 {
		return fmt.Errorf("%w: cap %d must be positive", ErrInvalidParameter, maxN)
	}
	if lo > hi {
		return fmt.Errorf("%w: lower bound %g exceeds upper bound %g", ErrInvalidParameter, lo, hi)
	}
	return nil
}

// Select filters scored configurations to lo <= eps_t <= hi (inclusive on
// both bounds) and caps the result at maxN using the given strategy. An
// empty result is valid, not an error. NaN scores never pass the filter.
func Select(scored []Candidate, lo, hi float64, maxN int, strategy Strategy) (*Result, error) {
	if err := ValidateParams(lo, hi, maxN); err != nil {
		return nil, err
	}

	inBand := make([]Candidate, 0, len(scored))
	candidates := roaring.New()
	for _, c := range scored {
		if c.Record.EpsT >= lo && c.Record.EpsT <= hi {
			inBand = append(inBand, c)
			candidates.Add(uint32(c.Record.Index))
		}
	}

	res := &Result{
		Strategy:   strategy,
		Candidates: candidates,
		Capped:     len(inBand) > maxN,
	}

	switch strategy {
	case StrategyStride:
		res.Selected = strideSubset(inBand, maxN)
	case StrategyRank:
		res.Selected = rankSubset(inBand, maxN)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrInvalidParameter, int(strategy))
	}

	return res, nil
}

// strideSubset orders by stream index and, when over capacity, takes an
// evenly spaced subsequence of size maxN.
func strideSubset(inBand []Candidate, maxN int) []Candidate {
	byIndex := append([]Candidate(nil), inBand...)
	sort.Slice(byIndex, func(i, j int) bool {
		return byIndex[i].Record.Index < byIndex[j].Record.Index
	})

	if len(byIndex) <= maxN {
		return byIndex
	}

	// Positions j*n/maxN are strictly increasing for n > maxN, so the
	// subsequence has exactly maxN distinct members.
	out := make([]Candidate, 0, maxN)
	n := len(byIndex)
	for j := 0; j < maxN; j++ {
		out = append(out, byIndex[j*n/maxN])
	}
	return out
}

// rankSubset orders by eps_t descending (ties by ascending index) and takes
// the top maxN.
func rankSubset(inBand []Candidate, maxN int) []Candidate {
	byRank := append([]Candidate(nil), inBand...)
	sort.Slice(byRank, func(i, j int) bool {
		if byRank[i].Record.EpsT != byRank[j].Record.EpsT {
			return byRank[i].Record.EpsT > byRank[j].Record.EpsT
		}
		return byRank[i].Record.Index < byRank[j].Record.Index
	})

	if len(byRank) > maxN {
		byRank = byRank[:maxN]
	}
	return byRank
}
