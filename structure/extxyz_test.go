package structure

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXYZ = `2
Lattice="10 0 0 0 10 0 0 0 10" Properties=species:S:1:pos:R:3
Si 0.0 0.0 0.0
O  1.5 1.5 1.5
1
Properties=species:S:1:pos:R:3 index=42
Si 2.0 2.0 2.0
`

func TestReaderNext(t *testing.T) {
	r := NewReader(strings.NewReader(sampleXYZ))

	cfg, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Index())
	assert.Equal(t, []string{"Si", "O"}, cfg.Species())
	cell, ok := cfg.Cell()
	require.True(t, ok)
	assert.Equal(t, Cell{10, 0, 0, 0, 10, 0, 0, 0, 10}, cell)
	x, y, z := cfg.Position(1)
	assert.Equal(t, 1.5, x)
	assert.Equal(t, 1.5, y)
	assert.Equal(t, 1.5, z)

	cfg, err = r.Next()
	require.NoError(t, err)
	// Explicit index annotation overrides the positional count.
	assert.Equal(t, 42, cfg.Index())
	assert.Equal(t, 1, cfg.NumAtoms())
	_, ok = cfg.Cell()
	assert.False(t, ok)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderBadAtomCount(t *testing.T) {
	r := NewReader(strings.NewReader("abc\ncomment\n"))
	_, err := r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad atom count")
}

func TestReaderTruncatedFrame(t *testing.T) {
	r := NewReader(strings.NewReader("3\ncomment\nSi 0 0 0\n"))
	_, err := r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestReaderSkipsBlankLines(t *testing.T) {
	r := NewReader(strings.NewReader("\n\n1\ncomment\nSi 0 0 0\n"))
	cfg, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.NumAtoms())
}

func TestParseCommentFields(t *testing.T) {
	fields := parseCommentFields(`Lattice="1 0 0 0 1 0 0 0 1" index=7 eps_t=0.25 bare Properties=species:S:1:pos:R:3`)

	assert.Equal(t, "1 0 0 0 1 0 0 0 1", fields["Lattice"])
	assert.Equal(t, "7", fields["index"])
	assert.Equal(t, "0.25", fields["eps_t"])
	assert.Equal(t, "species:S:1:pos:R:3", fields["Properties"])
	_, ok := fields["bare"]
	assert.False(t, ok)
}

func TestWriterRoundTrip(t *testing.T) {
	cell := Cell{12.5, 0, 0, 0, 12.5, 0, 0, 0, 12.5}
	in, err := NewConfiguration(5, []string{"Si", "O", "O"}, []float64{
		0, 0, 0,
		1.25, 2.5, 3.75,
		4.0, 5.0, 6.0,
	}, &cell)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(in, map[string]string{"eps_t": "0.3"}))
	require.NoError(t, w.Flush())

	out, err := NewReader(&buf).Next()
	require.NoError(t, err)

	assert.Equal(t, 5, out.Index())
	assert.Equal(t, in.Species(), out.Species())
	assert.InDeltaSlice(t, in.Positions(), out.Positions(), 1e-8)
	gotCell, ok := out.Cell()
	require.True(t, ok)
	assert.Equal(t, cell, gotCell)
}

func TestWriterSortsExtraFields(t *testing.T) {
	cfg, err := NewConfiguration(0, []string{"Si"}, []float64{0, 0, 0}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(cfg, map[string]string{"zeta": "1", "alpha": "2"}))
	require.NoError(t, w.Flush())

	comment := strings.Split(buf.String(), "\n")[1]
	assert.Less(t, strings.Index(comment, "alpha="), strings.Index(comment, "zeta="))
}

func TestFileRoundTripGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frames.xyz.gz")

	cfg, err := NewConfiguration(3, []string{"Si"}, []float64{1, 2, 3}, nil)
	require.NoError(t, err)

	w, err := CreateFile(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(cfg, nil))
	require.NoError(t, w.Close())

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	out, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 3, out.Index())
	assert.InDeltaSlice(t, []float64{1, 2, 3}, out.Positions(), 1e-8)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
