package rollout

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navbench/jackalrl/pkg/coord"
	"github.com/navbench/jackalrl/pkg/env"
	"github.com/navbench/jackalrl/pkg/policy"
	"github.com/navbench/jackalrl/pkg/trajectory"
)

type fakeSource struct {
	snap  coord.Snapshot
	loads int
}

func (s *fakeSource) LoadSnapshot(context.Context) (coord.Snapshot, error) {
	s.loads++
	return s.snap, nil
}

// scriptedEnv terminates every episode after a fixed number of steps.
type scriptedEnv struct {
	episodeLen int
	steps      int
	resets     int
}

func (e *scriptedEnv) obs() *etensor.Float64 {
	t := etensor.NewFloat64([]int{2}, nil, []string{"N"})
	t.Values[0] = float64(e.steps)
	t.Values[1] = 1
	return t
}

func (e *scriptedEnv) Reset(context.Context) (*etensor.Float64, error) {
	e.resets++
	e.steps = 0
	return e.obs(), nil
}

func (e *scriptedEnv) Step(_ context.Context, _ []float64) (*etensor.Float64, float64, bool, env.Info, error) {
	e.steps++
	done := e.steps >= e.episodeLen
	rew := -1.0
	if done {
		rew = 0
	}
	return e.obs(), rew, done, env.Info{World: "world_4.world", Time: float64(e.steps)}, nil
}

func (e *scriptedEnv) StepCount() int {
	return e.steps
}

func testSnapshot(t *testing.T, eps float64) coord.Snapshot {
	t.Helper()
	blob, err := policy.LinearWeights{
		W: [][]float64{{0.1, 0.2}},
		B: []float64{0.5},
	}.Encode()
	require.NoError(t, err)
	return coord.Snapshot{Params: blob, Epsilon: eps}
}

func TestActorRunWritesTrajectories(t *testing.T) {
	buffer := t.TempDir()
	w, err := trajectory.NewWriter(buffer, 2)
	require.NoError(t, err)

	source := &fakeSource{snap: testSnapshot(t, 0)}
	sim := &scriptedEnv{episodeLen: 3}
	a := &Actor{
		ID:       2,
		Source:   source,
		Env:      sim,
		Policy:   policy.NewLinearPolicy(),
		Space:    policy.Space{Low: []float64{0}, High: []float64{2}},
		Writer:   w,
		Episodes: 2,
	}
	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, 2, sim.resets)
	assert.Equal(t, 2, source.loads, "the policy is refreshed every episode")

	for ep := 0; ep < 2; ep++ {
		rec, err := trajectory.ReadRecord(
			filepath.Join(buffer, "actor_2", fmt.Sprintf("traj_%d.gob", ep)))
		require.NoError(t, err)
		assert.Equal(t, ep, rec.Episode)
		require.Len(t, rec.Steps, 3)
		assert.True(t, rec.Steps[2].Done)
		assert.False(t, rec.Steps[0].Done)
		assert.Equal(t, "world_4.world", rec.Steps[0].Info.World)
		assert.Equal(t, []int{2}, rec.Steps[0].ObsShape)
	}
}

func TestActorActionsStayInSpace(t *testing.T) {
	w, err := trajectory.NewWriter(t.TempDir(), 0)
	require.NoError(t, err)

	space := policy.Space{Low: []float64{0.2}, High: []float64{0.9}}
	a := &Actor{
		Source:   &fakeSource{snap: testSnapshot(t, 0.5)},
		Env:      &scriptedEnv{episodeLen: 5},
		Policy:   policy.NewLinearPolicy(),
		Space:    space,
		Writer:   w,
		Episodes: 4,
	}
	require.NoError(t, a.Run(context.Background()))
}

func TestActorStopsOnCancel(t *testing.T) {
	w, err := trajectory.NewWriter(t.TempDir(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &Actor{
		Source: &fakeSource{snap: testSnapshot(t, 0)},
		Env:    &scriptedEnv{episodeLen: 3},
		Policy: policy.NewLinearPolicy(),
		Space:  policy.Space{Low: []float64{0}, High: []float64{1}},
		Writer: w,
	}
	require.ErrorIs(t, a.Run(ctx), context.Canceled)
}

func TestNewRandDeterministicPerActor(t *testing.T) {
	a, b := NewRand(1), NewRand(1)
	assert.Equal(t, a.Float64(), b.Float64())

	c := NewRand(2)
	d := NewRand(1)
	assert.NotEqual(t, c.Float64(), d.Float64())
}
