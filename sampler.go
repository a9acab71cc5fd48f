package epsel

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/quenbyak/epsel/potential"
	"github.com/quenbyak/epsel/registry"
	"github.com/quenbyak/epsel/selection"
	"github.com/quenbyak/epsel/structure"
)

// EnsembleSource resolves the committee a sampler evaluates. Resolution is
// deferred to the start of the run so registry lookups and artifact
// downloads happen under the run's context.
type EnsembleSource interface {
	Resolve(ctx context.Context) (*potential.Ensemble, error)
}

type ensembleSourceFunc func(ctx context.Context) (*potential.Ensemble, error)

func (f ensembleSourceFunc) Resolve(ctx context.Context) (*potential.Ensemble, error) {
	return f(ctx)
}

// StaticEnsemble wraps an already-constructed ensemble.
func StaticEnsemble(ens *potential.Ensemble) EnsembleSource {
	return ensembleSourceFunc(func(context.Context) (*potential.Ensemble, error) {
		if ens == nil {
			return nil, fmt.Errorf("epsel: nil ensemble")
		}
		return ens, nil
	})
}

// RegistrySourceOption configures RegistryEnsemble.
type RegistrySourceOption func(*registrySource)

// WithArtifactResolver fetches remote artifact references to local files
// before loading.
func WithArtifactResolver(r *potential.Resolver) RegistrySourceOption {
	return func(s *registrySource) { s.resolver = r }
}

type registrySource struct {
	reg      *registry.Registry
	label    string
	backend  potential.Backend
	resolver *potential.Resolver
}

// RegistryEnsemble resolves a labeled environment from the registry and
// loads every member through the backend. The loaded committee's type map
// must match the one recorded at Set time.
func RegistryEnsemble(reg *registry.Registry, label string, backend potential.Backend, opts ...RegistrySourceOption) EnsembleSource {
	s := &registrySource{reg: reg, label: label, backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *registrySource) Resolve(ctx context.Context) (*potential.Ensemble, error) {
	env, err := s.reg.Get(ctx, s.label)
	if err != nil {
		return nil, err
	}

	members := make([]potential.Member, 0, len(env.ModelPaths))
	for _, path := range env.ModelPaths {
		local := path
		if s.resolver != nil {
			local, err = s.resolver.Resolve(ctx, path)
			if err != nil {
				return nil, err
			}
		}
		pot, err := s.backend.Load(ctx, local)
		if err != nil {
			return nil, fmt.Errorf("epsel: load model %s: %w", path, err)
		}
		members = append(members, potential.Member{Name: path, Potential: pot})
	}

	ens, err := potential.NewEnsemble(env.Label, members...)
	if err != nil {
		return nil, err
	}
	if !env.TypeMap.Equal(ens.TypeMap()) {
		return nil, &potential.ErrTypeMapMismatch{
			Model: env.ModelPaths[0],
			Want:  env.TypeMap,
			Got:   ens.TypeMap(),
		}
	}
	return ens, nil
}

// Sampler runs one ensemble-disagreement sampling pass over a trajectory.
// A Sampler is single-use: Run may be called once, and results are
// immutable after it returns.
type Sampler struct {
	source EnsembleSource
	lo, hi float64
	maxN   int
	opts   options
	state  atomic.Int32
}

// New creates a Sampler selecting at most maxN configurations with
// lo <= eps_t <= hi. Parameters and the resolved ensemble are validated at
// the start of Run, before any configuration is processed.
func New(source EnsembleSource, lo, hi float64, maxN int, opts ...Option) *Sampler {
	o := options{
		strategy: selection.StrategyStride,
		workers:  1,
		logger:   NoopLogger(),
		metrics:  NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.committee == nil {
		o.committee = potential.NewCommittee(potential.WithController(o.ctrl))
	}
	return &Sampler{source: source, lo: lo, hi: hi, maxN: maxN, opts: o}
}

// State returns the sampler's current lifecycle phase.
func (s *Sampler) State() State {
	return State(s.state.Load())
}

func (s *Sampler) setState(st State) {
	s.state.Store(int32(st))
}

// WriteSelection serializes the selected configurations, in their final
// order, to one trajectory file annotated with provenance (original stream
// index and eps_t). Paths ending in ".gz" are compressed.
func WriteSelection(path string, res *selection.Result) error {
	w, err := structure.CreateFile(path)
	if err != nil {
		return err
	}
	for _, c := range res.Selected {
		fields := map[string]string{
			"eps_t": strconv.FormatFloat(c.Record.EpsT, 'g', -1, 64),
		}
		if err := w.Write(c.Config, fields); err != nil {
			w.Close()
			return fmt.Errorf("epsel: write selection to %s: %w", path, err)
		}
	}
	return w.Close()
}
