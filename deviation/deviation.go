// Package deviation reduces a committee's force predictions for one
// configuration into a scalar epistemic-uncertainty value.
//
// For atom i with force vectors f_{i,1..N} from the N committee members, the
// per-atom deviation is the root-mean-square distance of the member forces
// from their mean:
//
//	dev_i = sqrt( (1/N) * sum_k ||f_{i,k} - mean_i||^2 )
//
// The configuration-level value eps_t is the maximum dev_i over all atoms:
// one poorly predicted atom invalidates the whole configuration's
// trustworthiness for simulation, so the worst atom drives the score.
package deviation

import (
	"fmt"
	"math"

	"github.com/quenbyak/epsel/potential"
)

// ErrInsufficientEnsemble is returned when scoring fewer than two
// predictions: disagreement is undefined for a single predictor.
type ErrInsufficientEnsemble struct {
	Size int
}

func (e *ErrInsufficientEnsemble) Error() string {
	return fmt.Sprintf("ensemble of %d model(s) cannot measure disagreement, need at least 2", e.Size)
}

// Record is the scored result for one configuration.
type Record struct {
	// Index is the configuration's index within the source stream.
	Index int
	// EpsT is the maximum per-atom RMS force deviation.
	EpsT float64
	// PerAtom holds each atom's deviation when requested, else nil.
	PerAtom []float64
}

// Score reduces one configuration's per-model predictions to a Record.
// predictions must hold one entry per committee member with identical force
// array lengths (3 components per atom); member order does not affect the
// result. keepPerAtom
// retains the per-atom deviation vector for diagnostics.
func Score(index int, predictions []potential.Prediction, keepPerAtom bool) (Record, error) {
	n := len(predictions)
	if n < 2 {
		return Record{}, &ErrInsufficientEnsemble{Size: n}
	}

	components := len(predictions[0].Forces)
	if components%3 != 0 {
		return Record{}, fmt.Errorf("deviation: %d force components is not a whole number of atoms", components)
	}
	for k, p := range predictions {
		if len(p.Forces) != components {
			return Record{}, fmt.Errorf("deviation: prediction %d has %d force components, prediction 0 has %d",
				k, len(p.Forces), components)
		}
	}
	natoms := components / 3

	rec := Record{Index: index}
	if keepPerAtom {
		rec.PerAtom = make([]float64, natoms)
	}

	invN := 1.0 / float64(n)
	for i := 0; i < natoms; i++ {
		base := 3 * i

		var mx, my, mz float64
		for _, p := range predictions {
			mx += float64(p.Forces[base])
			my += float64(p.Forces[base+1])
			mz += float64(p.Forces[base+2])
		}
		mx *= invN
		my *= invN
		mz *= invN

		var sum float64
		for _, p := range predictions {
			dx := float64(p.Forces[base]) - mx
			dy := float64(p.Forces[base+1]) - my
			dz := float64(p.Forces[base+2]) - mz
			sum += dx*dx + dy*dy + dz*dz
		}
		dev := math.Sqrt(sum * invN)

		if keepPerAtom {
			rec.PerAtom[i] = dev
		}
		if dev > rec.EpsT {
			rec.EpsT = dev
		}
	}

	return rec, nil
}
