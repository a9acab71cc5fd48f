package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quenbyak/epsel/deviation"
)

func TestDiagnosticsSealSorts(t *testing.T) {
	d := New()
	d.Append(deviation.Record{Index: 5, EpsT: 0.5})
	d.Append(deviation.Record{Index: 1, EpsT: 0.1})
	d.Append(deviation.Record{Index: 3, EpsT: 0.3})
	d.AppendSkip(4, errors.New("x"))
	d.AppendSkip(2, errors.New("y"))
	d.Seal()

	recs := d.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, 1, recs[0].Index)
	assert.Equal(t, 3, recs[1].Index)
	assert.Equal(t, 5, recs[2].Index)

	skips := d.Skips()
	require.Len(t, skips, 2)
	assert.Equal(t, 2, skips[0].Index)
	assert.Equal(t, 4, skips[1].Index)
}

func TestDiagnosticsSkipped(t *testing.T) {
	d := New()
	d.AppendSkip(7, errors.New("backend crashed"))

	assert.True(t, d.Skipped(7))
	assert.False(t, d.Skipped(8))
}

func TestDiagnosticsSealIdempotent(t *testing.T) {
	d := New()
	d.Append(deviation.Record{Index: 0})
	d.Seal()
	d.Seal()
	assert.Equal(t, 1, d.Len())
}

func TestDiagnosticsMutationAfterSealPanics(t *testing.T) {
	d := New()
	d.Seal()

	assert.Panics(t, func() { d.Append(deviation.Record{}) })
	assert.Panics(t, func() { d.AppendSkip(0, errors.New("x")) })
	assert.Panics(t, func() { d.MarkTruncated() })
}

func TestDiagnosticsTruncated(t *testing.T) {
	d := New()
	assert.False(t, d.Truncated())
	d.MarkTruncated()
	assert.True(t, d.Truncated())
}
