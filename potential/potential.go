// Package potential defines the model-inference capability consumed by the
// sampler, and committees ("ensembles") of independently trained models.
//
// A Potential is anything that can predict an energy and per-atom forces for
// a configuration. Backends are polymorphic: any implementation of the
// interface can be a committee member, regardless of the underlying
// machine-learning framework.
package potential

import (
	"context"

	"github.com/quenbyak/epsel/structure"
)

// DefaultLabel is the ensemble label used when none is given.
const DefaultLabel = "default"

// Prediction holds one model's output for one configuration: a scalar
// energy and one 3D force vector per atom, stored flat (3 per atom) in
// atom order.
type Prediction struct {
	Energy float64
	Forces []float32
}

// Potential is the model-inference capability. Implementations must be
// deterministic for a fixed artifact and configuration, and must not mutate
// the configuration.
type Potential interface {
	// Evaluate predicts energy and forces for cfg.
	Evaluate(ctx context.Context, cfg *structure.Configuration) (Prediction, error)

	// TypeMap returns the species mapping the model was trained with.
	TypeMap() TypeMap
}

// Backend instantiates a Potential from a local model artifact file.
type Backend interface {
	Load(ctx context.Context, path string) (Potential, error)
}
