package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "models/a.pb", []byte("alpha")))
	require.NoError(t, store.Put(ctx, "models/b.pb", []byte("bravo")))
	require.NoError(t, store.Put(ctx, "other/c.pb", []byte("charlie")))

	b, err := store.Open(ctx, "models/a.pb")
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.Size())

	data, err := io.ReadAll(io.NewSectionReader(b, 0, b.Size()))
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), data)

	// Partial reads at an offset.
	part := make([]byte, 3)
	n, err := b.ReadAt(part, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("pha"), part)
	require.NoError(t, b.Close())

	names, err := store.List(ctx, "models/")
	require.NoError(t, err)
	assert.Equal(t, []string{"models/a.pb", "models/b.pb"}, names)

	// Overwrite replaces content.
	require.NoError(t, store.Put(ctx, "models/a.pb", []byte("replaced")))
	b, err = store.Open(ctx, "models/a.pb")
	require.NoError(t, err)
	assert.Equal(t, int64(8), b.Size())
	require.NoError(t, b.Close())

	require.NoError(t, store.Delete(ctx, "models/a.pb"))
	require.NoError(t, store.Delete(ctx, "models/a.pb")) // idempotent
	_, err = store.Open(ctx, "models/a.pb")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestMemoryStoreCopiesOnPut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "x", data))
	data[0] = '!'

	b, err := store.Open(ctx, "x")
	require.NoError(t, err)
	got := make([]byte, 1)
	_, err = b.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, byte('o'), got[0])
}
