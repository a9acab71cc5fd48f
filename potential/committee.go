package potential

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/quenbyak/epsel/resource"
	"github.com/quenbyak/epsel/structure"
)

// Committee evaluates every member of an ensemble against one configuration.
//
// Member evaluations are independent and run in parallel, bounded by the
// resource controller so that concurrently resident model state cannot
// oversubscribe memory.
type Committee struct {
	ctrl        *resource.Controller
	maxParallel int
}

// CommitteeOption configures a Committee.
type CommitteeOption func(*Committee)

// WithController bounds member evaluation through a resource controller.
func WithController(ctrl *resource.Controller) CommitteeOption {
	return func(c *Committee) { c.ctrl = ctrl }
}

// WithMaxParallel limits how many members evaluate concurrently.
// Values < 1 mean no limit beyond the resource controller.
func WithMaxParallel(n int) CommitteeOption {
	return func(c *Committee) { c.maxParallel = n }
}

// NewCommittee creates a Committee.
func NewCommittee(opts ...CommitteeOption) *Committee {
	c := &Committee{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate runs every ensemble member against cfg and returns one Prediction
// per member, in member order. It is deterministic for fixed artifacts and
// does not mutate cfg.
//
// A failure of any single member is returned as an *EvalError scoped to that
// (configuration, model) pair; the caller decides whether to skip the whole
// configuration.
func (c *Committee) Evaluate(ctx context.Context, ens *Ensemble, cfg *structure.Configuration) ([]Prediction, error) {
	members := ens.Members()
	preds := make([]Prediction, len(members))

	g, gctx := errgroup.WithContext(ctx)
	if c.maxParallel > 0 {
		g.SetLimit(c.maxParallel)
	}

	for i, m := range members {
		g.Go(func() error {
			if err := c.ctrl.AcquireWorker(gctx); err != nil {
				return NewEvalError(cfg.Index(), m.Name, err)
			}
			defer c.ctrl.ReleaseWorker()

			p, err := m.Potential.Evaluate(gctx, cfg)
			if err != nil {
				return NewEvalError(cfg.Index(), m.Name, err)
			}
			if want := 3 * cfg.NumAtoms(); len(p.Forces) != want {
				return NewEvalError(cfg.Index(), m.Name,
					fmt.Errorf("model returned %d force components, want %d", len(p.Forces), want))
			}
			preds[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return preds, nil
}
