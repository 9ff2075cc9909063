package geometry

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothPathShortFallback(t *testing.T) {
	path := make([]Point, SmoothingWindow-1)
	for i := range path {
		path[i] = Point{X: float64(i), Y: float64(i * i)}
	}
	got := SmoothPath(path)
	require.Equal(t, path, got, "paths shorter than the window pass through untouched")
}

func TestSmoothPathPreservesPolynomial(t *testing.T) {
	// A Savitzky-Golay filter of order 3 reproduces any cubic exactly,
	// edges included.
	path := make([]Point, 25)
	for i := range path {
		x := float64(i) * 0.1
		path[i] = Point{
			X: x,
			Y: 1 + 2*x - 0.5*x*x + 0.03*x*x*x,
		}
	}
	got := SmoothPath(path)
	require.Len(t, got, len(path))
	for i := range path {
		assert.InDelta(t, path[i].X, got[i].X, 1e-8)
		assert.InDelta(t, path[i].Y, got[i].Y, 1e-8)
	}
}

func TestSmoothPathFiltersNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	path := make([]Point, 40)
	for i := range path {
		path[i] = Point{
			X: float64(i) + rng.Float64()*0.4 - 0.2,
			Y: 2*float64(i) + rng.Float64()*0.4 - 0.2,
		}
	}
	got := SmoothPath(path)
	require.Len(t, got, len(path))
	assert.NotEqual(t, path, got, "filter must be applied at or above window length")

	// Smoothing must not reorder the path.
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].X, got[i-1].X)
	}
}
