package epsel

import (
	"github.com/quenbyak/epsel/potential"
	"github.com/quenbyak/epsel/resource"
	"github.com/quenbyak/epsel/selection"
)

type options struct {
	strategy    selection.Strategy
	workers     int
	keepPerAtom bool
	committee   *potential.Committee
	ctrl        *resource.Controller
	logger      *Logger
	metrics     MetricsCollector
}

// Option configures a Sampler.
type Option func(*options)

// WithStrategy selects the capacity sub-policy used when the in-band set
// exceeds the cap. Default: selection.StrategyStride.
func WithStrategy(s selection.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithWorkers sets how many configurations are evaluated concurrently.
// Values < 1 mean sequential processing. Results are ordered and
// reproducible regardless of this setting.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithPerAtomDeviation retains each configuration's per-atom deviation
// vector in the diagnostics, at the cost of one float per atom per frame.
func WithPerAtomDeviation(keep bool) Option {
	return func(o *options) { o.keepPerAtom = keep }
}

// WithCommittee overrides the committee used to evaluate ensembles.
func WithCommittee(c *potential.Committee) Option {
	return func(o *options) { o.committee = c }
}

// WithController bounds evaluation and artifact fetch through a resource
// controller. Ignored when WithCommittee is also given.
func WithController(ctrl *resource.Controller) Option {
	return func(o *options) { o.ctrl = ctrl }
}

// WithLogger sets the structured logger. Default: no output.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics collector. Default: no-op.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}
