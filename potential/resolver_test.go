package potential

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quenbyak/epsel/blobstore"
)

func TestResolverLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.pb")
	require.NoError(t, os.WriteFile(path, []byte("weights"), 0o600))

	r := NewResolver(blobstore.NewMemoryStore(), t.TempDir())

	local, err := r.Resolve(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, local)
}

func TestResolverFetches(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "graphs/model-0.pb", []byte("remote model weights")))

	cacheDir := t.TempDir()
	r := NewResolver(store, cacheDir)

	local, err := r.Resolve(ctx, "graphs/model-0.pb")
	require.NoError(t, err)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, []byte("remote model weights"), data)
	assert.True(t, strings.HasPrefix(local, cacheDir))

	// Second resolve hits the cache, not the store.
	require.NoError(t, store.Delete(ctx, "graphs/model-0.pb"))
	again, err := r.Resolve(ctx, "graphs/model-0.pb")
	require.NoError(t, err)
	assert.Equal(t, local, again)
}

func TestResolverDistinctRefsSameBasename(t *testing.T) {
	// Committee members conventionally all share one artifact basename,
	// differing only in their directory. Each must cache separately.
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "run/00/graph.pb", []byte("weights of model 0")))
	require.NoError(t, store.Put(ctx, "run/01/graph.pb", []byte("weights of model 1")))

	r := NewResolver(store, t.TempDir())

	p0, err := r.Resolve(ctx, "run/00/graph.pb")
	require.NoError(t, err)
	p1, err := r.Resolve(ctx, "run/01/graph.pb")
	require.NoError(t, err)
	assert.NotEqual(t, p0, p1)

	d0, err := os.ReadFile(p0)
	require.NoError(t, err)
	d1, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Equal(t, []byte("weights of model 0"), d0)
	assert.Equal(t, []byte("weights of model 1"), d1)
}

func TestResolverMissingRef(t *testing.T) {
	r := NewResolver(blobstore.NewMemoryStore(), t.TempDir())
	_, err := r.Resolve(context.Background(), "graphs/nope.pb")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
