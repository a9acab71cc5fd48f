package potential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quenbyak/epsel/resource"
	"github.com/quenbyak/epsel/structure"
)

func testConfig(t *testing.T, index int) *structure.Configuration {
	t.Helper()
	cfg, err := structure.NewConfiguration(index, []string{"Si", "O"}, []float64{0, 0, 0, 1, 1, 1}, nil)
	require.NoError(t, err)
	return cfg
}

func TestCommitteeEvaluate(t *testing.T) {
	ens, err := NewEnsemble("",
		Member{Name: "a", Potential: &stubPotential{tm: testTM, forces: []float32{1, 1, 1, 1, 1, 1}}},
		Member{Name: "b", Potential: &stubPotential{tm: testTM, forces: []float32{2, 2, 2, 2, 2, 2}}},
	)
	require.NoError(t, err)

	preds, err := NewCommittee().Evaluate(context.Background(), ens, testConfig(t, 0))
	require.NoError(t, err)

	// Member order is preserved regardless of completion order.
	require.Len(t, preds, 2)
	assert.Equal(t, float32(1), preds[0].Forces[0])
	assert.Equal(t, float32(2), preds[1].Forces[0])
}

func TestCommitteeEvaluateParallelMatchesSerial(t *testing.T) {
	ens, err := NewEnsemble("",
		Member{Potential: &stubPotential{tm: testTM, forces: []float32{1, 0, 0, 0, 0, 0}}},
		Member{Potential: &stubPotential{tm: testTM, forces: []float32{0, 1, 0, 0, 0, 0}}},
		Member{Potential: &stubPotential{tm: testTM, forces: []float32{0, 0, 1, 0, 0, 0}}},
	)
	require.NoError(t, err)

	cfg := testConfig(t, 0)
	serial, err := NewCommittee(WithMaxParallel(1)).Evaluate(context.Background(), ens, cfg)
	require.NoError(t, err)
	parallel, err := NewCommittee().Evaluate(context.Background(), ens, cfg)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestCommitteeEvaluateMemberFailure(t *testing.T) {
	boom := errors.New("inference backend crashed")
	ens, err := NewEnsemble("",
		Member{Name: "good", Potential: &stubPotential{tm: testTM}},
		Member{Name: "bad", Potential: &stubPotential{tm: testTM, err: boom}},
	)
	require.NoError(t, err)

	_, err = NewCommittee().Evaluate(context.Background(), ens, testConfig(t, 9))

	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 9, ee.Index)
	assert.Equal(t, "bad", ee.Model)
	assert.ErrorIs(t, err, boom)
}

func TestCommitteeEvaluateBadForceLength(t *testing.T) {
	ens, err := NewEnsemble("",
		Member{Name: "a", Potential: &stubPotential{tm: testTM}},
		Member{Name: "short", Potential: &stubPotential{tm: testTM, forces: []float32{1}}},
	)
	require.NoError(t, err)

	_, err = NewCommittee().Evaluate(context.Background(), ens, testConfig(t, 0))

	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "short", ee.Model)
}

func TestCommitteeEvaluateWithController(t *testing.T) {
	ens, err := NewEnsemble("",
		Member{Potential: &stubPotential{tm: testTM}},
		Member{Potential: &stubPotential{tm: testTM}},
		Member{Potential: &stubPotential{tm: testTM}},
	)
	require.NoError(t, err)

	ctrl := resource.NewController(resource.Config{MaxWorkers: 1})
	preds, err := NewCommittee(WithController(ctrl)).Evaluate(context.Background(), ens, testConfig(t, 0))
	require.NoError(t, err)
	assert.Len(t, preds, 3)
}
