package potential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quenbyak/epsel/resource"
)

type pathBackend struct {
	pots map[string]Potential
}

func (b *pathBackend) Load(_ context.Context, path string) (Potential, error) {
	p, ok := b.pots[path]
	if !ok {
		return nil, errors.New("load failed")
	}
	return p, nil
}

func writeWeights(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func TestLimitBackendEnforcesMemory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p0 := writeWeights(t, dir, "m0.pb", 600)
	p1 := writeWeights(t, dir, "m1.pb", 600)

	inner := &pathBackend{pots: map[string]Potential{
		p0: &stubPotential{tm: testTM},
		p1: &stubPotential{tm: testTM},
	}}
	ctrl := resource.NewController(resource.Config{ModelMemoryBytes: 1000})
	backend := NewLimitBackend(inner, ctrl)

	_, err := backend.Load(ctx, p0)
	require.NoError(t, err)
	assert.Equal(t, int64(600), ctrl.ModelMemoryUsage())

	// A second 600-byte model would exceed the 1000-byte limit.
	_, err = backend.Load(ctx, p1)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, int64(600), ctrl.ModelMemoryUsage())
}

func TestLimitBackendReleasesOnLoadFailure(t *testing.T) {
	ctx := context.Background()
	path := writeWeights(t, t.TempDir(), "broken.pb", 100)

	ctrl := resource.NewController(resource.Config{ModelMemoryBytes: 1000})
	backend := NewLimitBackend(&pathBackend{}, ctrl)

	_, err := backend.Load(ctx, path)
	require.Error(t, err)
	assert.Zero(t, ctrl.ModelMemoryUsage())
}

func TestLimitBackendMissingArtifact(t *testing.T) {
	ctrl := resource.NewController(resource.Config{ModelMemoryBytes: 1000})
	backend := NewLimitBackend(&pathBackend{}, ctrl)

	_, err := backend.Load(context.Background(), filepath.Join(t.TempDir(), "nope.pb"))
	require.Error(t, err)
	assert.Zero(t, ctrl.ModelMemoryUsage())
}
