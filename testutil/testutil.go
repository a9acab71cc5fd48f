package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quenbyak/epsel/potential"
	"github.com/quenbyak/epsel/structure"
)

// TypeMap is the species mapping shared by the package's fixtures.
var TypeMap = potential.TypeMap{"Si": 0, "O": 1}

// RNG wraps a seeded random source. It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Configuration generates one configuration with numAtoms atoms, species
// alternating Si/O, positions uniform in a 10 Angstrom cubic cell.
func (r *RNG) Configuration(index, numAtoms int) *structure.Configuration {
	r.mu.Lock()
	defer r.mu.Unlock()

	species := make([]string, numAtoms)
	positions := make([]float64, 3*numAtoms)
	for i := 0; i < numAtoms; i++ {
		if i%2 == 0 {
			species[i] = "Si"
		} else {
			species[i] = "O"
		}
		for k := 0; k < 3; k++ {
			positions[3*i+k] = r.rand.Float64() * 10
		}
	}
	cell := structure.Cell{10, 0, 0, 0, 10, 0, 0, 0, 10}

	cfg, err := structure.NewConfiguration(index, species, positions, &cell)
	if err != nil {
		panic(fmt.Sprintf("testutil: generate configuration: %v", err))
	}
	return cfg
}

// Trajectory generates n configurations with indices 0..n-1.
func (r *RNG) Trajectory(n, numAtoms int) []*structure.Configuration {
	cfgs := make([]*structure.Configuration, n)
	for i := range cfgs {
		cfgs[i] = r.Configuration(i, numAtoms)
	}
	return cfgs
}

// FakePotential is a deterministic in-memory Potential whose forces are
// computed by Forces. The zero value predicts zero forces.
type FakePotential struct {
	Map    potential.TypeMap
	Energy float64
	Forces func(cfg *structure.Configuration) []float32
	Err    error
}

// Evaluate implements potential.Potential.
func (p *FakePotential) Evaluate(_ context.Context, cfg *structure.Configuration) (potential.Prediction, error) {
	if p.Err != nil {
		return potential.Prediction{}, p.Err
	}
	forces := make([]float32, 3*cfg.NumAtoms())
	if p.Forces != nil {
		copy(forces, p.Forces(cfg))
	}
	return potential.Prediction{Energy: p.Energy, Forces: forces}, nil
}

// TypeMap implements potential.Potential.
func (p *FakePotential) TypeMap() potential.TypeMap {
	if p.Map == nil {
		return TypeMap
	}
	return p.Map
}

// ConstantPotential predicts the same force component value for every atom
// of every configuration.
func ConstantPotential(tm potential.TypeMap, force float32) *FakePotential {
	return &FakePotential{
		Map: tm,
		Forces: func(cfg *structure.Configuration) []float32 {
			f := make([]float32, 3*cfg.NumAtoms())
			for i := range f {
				f[i] = force
			}
			return f
		},
	}
}

// FakeBackend loads potentials from an in-memory path table.
type FakeBackend struct {
	Potentials map[string]potential.Potential
}

// Load implements potential.Backend.
func (b *FakeBackend) Load(_ context.Context, path string) (potential.Potential, error) {
	p, ok := b.Potentials[path]
	if !ok {
		return nil, fmt.Errorf("testutil: no potential registered for %s", path)
	}
	return p, nil
}

// HeaderBackend loads a FakePotential whose type map comes from an artifact
// header on disk, exercising the artifact path end to end.
type HeaderBackend struct {
	Force float32
}

// Load implements potential.Backend.
func (b *HeaderBackend) Load(_ context.Context, path string) (potential.Potential, error) {
	h, err := potential.ReadArtifactHeaderFile(path)
	if err != nil {
		return nil, err
	}
	return ConstantPotential(h.TypeMap, b.Force), nil
}

// WriteArtifact writes a model artifact fixture (header plus a few opaque
// weight bytes) into dir and returns its path.
func WriteArtifact(t *testing.T, dir, name string, tm potential.TypeMap) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, potential.WriteArtifactHeader(f, &potential.ArtifactHeader{
		Kind:    "test",
		TypeMap: tm,
	}))
	_, err = f.Write([]byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	return path
}

// Ensemble builds a committee of n constant-force members whose per-atom
// force components are forces[i] for member i.
func Ensemble(t *testing.T, label string, forces ...float32) *potential.Ensemble {
	t.Helper()

	members := make([]potential.Member, len(forces))
	for i, f := range forces {
		members[i] = potential.Member{
			Name:      fmt.Sprintf("model-%d", i),
			Potential: ConstantPotential(TypeMap, f),
		}
	}
	ens, err := potential.NewEnsemble(label, members...)
	require.NoError(t, err)
	return ens
}
