package policy

import (
	"math/rand"
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obsOf(values ...float64) *etensor.Float64 {
	t := etensor.NewFloat64([]int{len(values)}, nil, []string{"N"})
	copy(t.Values, values)
	return t
}

func encodeWeights(t *testing.T, w LinearWeights) []byte {
	t.Helper()
	blob, err := w.Encode()
	require.NoError(t, err)
	return blob
}

func TestSpaceSampleWithinBounds(t *testing.T) {
	s := Space{
		Names: []string{"max_vel_x", "inflation_radius"},
		Low:   []float64{0.2, 0.1},
		High:  []float64{2.0, 0.6},
	}
	require.NoError(t, s.Validate())

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		a := s.Sample(rng)
		require.Len(t, a, 2)
		for d := range a {
			assert.GreaterOrEqual(t, a[d], s.Low[d])
			assert.LessOrEqual(t, a[d], s.High[d])
		}
	}
}

func TestSpaceClamp(t *testing.T) {
	s := Space{Low: []float64{0, -1}, High: []float64{1, 1}}
	assert.Equal(t, []float64{1, -1}, s.Clamp([]float64{5, -3}))
	assert.Equal(t, []float64{0.5, 0}, s.Clamp([]float64{0.5, 0}))
}

func TestSpaceValidate(t *testing.T) {
	assert.Error(t, Space{Low: []float64{0}, High: nil}.Validate())
	assert.Error(t, Space{Low: []float64{2}, High: []float64{1}}.Validate())
	assert.Error(t, Space{Names: []string{"a", "b"}, Low: []float64{0}, High: []float64{1}}.Validate())
}

func TestLinearPolicyAction(t *testing.T) {
	p := NewLinearPolicy()
	blob := encodeWeights(t, LinearWeights{
		W: [][]float64{{1, 0, -1}, {0.5, 0.5, 0}},
		B: []float64{0, 1},
	})
	require.NoError(t, p.SetParams(blob))

	a, err := p.Action(obsOf(2, 4, 1))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, a[0], 1e-12)
	assert.InDelta(t, 4.0, a[1], 1e-12)
}

func TestLinearPolicyRejectsBadBlob(t *testing.T) {
	p := NewLinearPolicy()
	assert.Error(t, p.SetParams([]byte("not gob")))

	blob := encodeWeights(t, LinearWeights{W: [][]float64{{1}}, B: []float64{0, 0}})
	assert.Error(t, p.SetParams(blob))
}

func TestLinearPolicyRejectsShapeMismatch(t *testing.T) {
	p := NewLinearPolicy()
	require.NoError(t, p.SetParams(encodeWeights(t, LinearWeights{
		W: [][]float64{{1, 2}},
		B: []float64{0},
	})))

	_, err := p.Action(obsOf(1, 2, 3))
	require.Error(t, err)
}

func TestLinearPolicyNoiseMakesDeterministic(t *testing.T) {
	// "Deterministic" here means the policy explores on its own, so the
	// selector must not layer epsilon on top.
	assert.False(t, NewLinearPolicy().Deterministic())
	assert.True(t, NewLinearPolicy(WithNoise(0.1, rand.New(rand.NewSource(1)))).Deterministic())
}

func TestSelectorEpsilonZeroUsesPolicy(t *testing.T) {
	p := NewLinearPolicy()
	require.NoError(t, p.SetParams(encodeWeights(t, LinearWeights{
		W: [][]float64{{1}},
		B: []float64{0},
	})))
	s := &Selector{
		Policy:  p,
		Space:   Space{Low: []float64{-10}, High: []float64{10}},
		Epsilon: 0,
		Rand:    rand.New(rand.NewSource(1)),
	}

	a, err := s.Select(obsOf(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, a)
}

func TestSelectorEpsilonOneSamples(t *testing.T) {
	// The policy has no weights set; with epsilon 1 it must never be
	// queried.
	s := &Selector{
		Policy:  NewLinearPolicy(),
		Space:   Space{Low: []float64{0}, High: []float64{1}},
		Epsilon: 1,
		Rand:    rand.New(rand.NewSource(7)),
	}

	for i := 0; i < 20; i++ {
		a, err := s.Select(obsOf(1))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, a[0], 0.0)
		assert.LessOrEqual(t, a[0], 1.0)
	}
}

func TestSelectorDeterministicBypassesEpsilon(t *testing.T) {
	p := NewLinearPolicy(WithNoise(0.01, rand.New(rand.NewSource(2))))
	require.NoError(t, p.SetParams(encodeWeights(t, LinearWeights{
		W: [][]float64{{1}},
		B: []float64{0},
	})))
	s := &Selector{
		Policy:  p,
		Space:   Space{Low: []float64{-10}, High: []float64{10}},
		Epsilon: 1,
		Rand:    rand.New(rand.NewSource(3)),
	}

	a, err := s.Select(obsOf(5))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, a[0], 0.1, "epsilon must not override a policy that explores on its own")
}

func TestSelectorClampsPolicyAction(t *testing.T) {
	p := NewLinearPolicy()
	require.NoError(t, p.SetParams(encodeWeights(t, LinearWeights{
		W: [][]float64{{1}},
		B: []float64{0},
	})))
	s := &Selector{
		Policy: p,
		Space:  Space{Low: []float64{0}, High: []float64{1}},
		Rand:   rand.New(rand.NewSource(1)),
	}

	a, err := s.Select(obsOf(100))
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, a)
}
