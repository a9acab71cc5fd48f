package potential

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quenbyak/epsel/structure"
)

type stubPotential struct {
	tm     TypeMap
	forces []float32
	err    error
}

func (p *stubPotential) Evaluate(_ context.Context, cfg *structure.Configuration) (Prediction, error) {
	if p.err != nil {
		return Prediction{}, p.err
	}
	if p.forces != nil {
		return Prediction{Forces: p.forces}, nil
	}
	return Prediction{Forces: make([]float32, 3*cfg.NumAtoms())}, nil
}

func (p *stubPotential) TypeMap() TypeMap { return p.tm }

var testTM = TypeMap{"Si": 0, "O": 1}

func TestNewEnsemble(t *testing.T) {
	ens, err := NewEnsemble("md-300K",
		Member{Name: "a", Potential: &stubPotential{tm: testTM}},
		Member{Potential: &stubPotential{tm: testTM}},
	)
	require.NoError(t, err)

	assert.Equal(t, "md-300K", ens.Label())
	assert.Equal(t, 2, ens.Size())
	assert.Equal(t, "a", ens.Members()[0].Name)
	assert.Equal(t, "model-1", ens.Members()[1].Name)
	assert.True(t, testTM.Equal(ens.TypeMap()))
}

func TestNewEnsembleDefaultLabel(t *testing.T) {
	ens, err := NewEnsemble("", Member{Potential: &stubPotential{tm: testTM}})
	require.NoError(t, err)
	assert.Equal(t, DefaultLabel, ens.Label())
}

func TestNewEnsembleEmpty(t *testing.T) {
	_, err := NewEnsemble("x")
	assert.ErrorIs(t, err, ErrEmptyEnsemble)
}

func TestNewEnsembleTypeMapMismatch(t *testing.T) {
	_, err := NewEnsemble("x",
		Member{Name: "a", Potential: &stubPotential{tm: testTM}},
		Member{Name: "b", Potential: &stubPotential{tm: TypeMap{"Si": 0}}},
	)

	var mismatch *ErrTypeMapMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "b", mismatch.Model)
	assert.True(t, testTM.Equal(mismatch.Want))
}

func TestParseTypeMap(t *testing.T) {
	tm, err := ParseTypeMap("Si:0, O:1")
	require.NoError(t, err)
	assert.True(t, testTM.Equal(tm))

	_, err = ParseTypeMap("Si")
	assert.Error(t, err)
	_, err = ParseTypeMap("Si:x")
	assert.Error(t, err)
	_, err = ParseTypeMap("")
	assert.Error(t, err)
}

func TestTypeMapString(t *testing.T) {
	assert.Equal(t, "Si:0,O:1", testTM.String())

	roundtrip, err := ParseTypeMap(testTM.String())
	require.NoError(t, err)
	assert.True(t, testTM.Equal(roundtrip))
}

func TestTypeMapSymbols(t *testing.T) {
	tm := TypeMap{"O": 1, "Si": 0, "H": 2}
	assert.Equal(t, []string{"Si", "O", "H"}, tm.Symbols())
}
