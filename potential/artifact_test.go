package potential

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quenbyak/epsel/blobstore"
)

func TestArtifactHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := &ArtifactHeader{Kind: "deepmd", TypeMap: testTM}
	require.NoError(t, WriteArtifactHeader(&buf, in))

	// Opaque model weights follow the header.
	buf.Write([]byte{1, 2, 3, 4})

	out, err := ReadArtifactHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "deepmd", out.Kind)
	assert.True(t, testTM.Equal(out.TypeMap))
}

func TestReadArtifactHeaderBadMagic(t *testing.T) {
	data := make([]byte, 64)
	_, err := ReadArtifactHeader(bytes.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic")
}

func TestReadArtifactHeaderCorruptPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArtifactHeader(&buf, &ArtifactHeader{Kind: "x", TypeMap: testTM}))

	data := buf.Bytes()
	data[len(data)-1] ^= 0xff

	_, err := ReadArtifactHeader(bytes.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum")
}

func TestReadArtifactHeaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArtifactHeader(&buf, &ArtifactHeader{Kind: "x", TypeMap: testTM}))

	_, err := ReadArtifactHeader(bytes.NewReader(buf.Bytes()[:10]))
	assert.Error(t, err)
}

func TestReadArtifactHeaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.pb")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteArtifactHeader(f, &ArtifactHeader{Kind: "deepmd", TypeMap: testTM}))
	_, err = f.Write(bytes.Repeat([]byte{0xab}, 1024))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	h, err := ReadArtifactHeaderFile(path)
	require.NoError(t, err)
	assert.True(t, testTM.Equal(h.TypeMap))
}

func TestReadArtifactHeaderBlob(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArtifactHeader(&buf, &ArtifactHeader{Kind: "deepmd", TypeMap: testTM}))

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "models/a.pb", buf.Bytes()))

	h, err := ReadArtifactHeaderBlob(ctx, store, "models/a.pb")
	require.NoError(t, err)
	assert.Equal(t, "deepmd", h.Kind)
}
