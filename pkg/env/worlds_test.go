package env

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navbench/jackalrl/pkg/geometry"
)

func TestIsBARN(t *testing.T) {
	assert.True(t, IsBARN("BARN_23"))
	assert.True(t, IsBARN("BARN/world_23.world"))
	assert.False(t, IsBARN("world_1.world"))
	assert.False(t, IsBARN(""))
}

func TestBARNWorldID(t *testing.T) {
	id, err := BARNWorldID("BARN_23")
	require.NoError(t, err)
	assert.Equal(t, 23, id)

	id, err = BARNWorldID("BARN/world_7.world")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	_, err = BARNWorldID("BARN_alpha")
	require.Error(t, err)
}

func TestBARNStartGoal(t *testing.T) {
	path := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}}

	start, goal, err := BARNStartGoal(path)
	require.NoError(t, err)

	// Cell (0,0) maps to (-4.575, 5.075); the robot starts one unit
	// behind it facing +y.
	assert.InDelta(t, -4.575, start.X, 1e-12)
	assert.InDelta(t, 4.075, start.Y, 1e-12)
	assert.InDelta(t, math.Pi/2, start.Psi, 1e-12)

	// Cell (20,20) maps to (-1.575, 8.075); the goal is that tail
	// rebased on the start with five units of slack.
	assert.InDelta(t, 3.0, goal.X, 1e-12)
	assert.InDelta(t, 9.0, goal.Y, 1e-12)
}

func TestBARNStartGoalEmptyPath(t *testing.T) {
	_, _, err := BARNStartGoal(nil)
	require.Error(t, err)
}

func TestFilePathSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "path_5.json"),
		[]byte(`[[0, 0], [1.5, 2], [3, 4]]`),
		0o644,
	))

	src := FilePathSource{Dir: dir}
	path, err := src.Path(5)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, geometry.Point{X: 1.5, Y: 2}, path[1])

	_, err = src.Path(6)
	require.Error(t, err)
}

func TestFilePathSourceRejectsShortEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "path_1.json"),
		[]byte(`[[0]]`),
		0o644,
	))

	_, err := FilePathSource{Dir: dir}.Path(1)
	require.Error(t, err)
}
