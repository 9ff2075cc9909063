package trajectory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navbench/jackalrl/pkg/env"
)

func TestWriterFlushRoundTrip(t *testing.T) {
	buffer := t.TempDir()
	w, err := NewWriter(buffer, 3)
	require.NoError(t, err)

	w.Append(Step{
		Obs:      []float64{0.1, 0.2, 0.3, 0.4},
		ObsShape: []int{2, 2},
		Action:   []float64{0.5},
		Reward:   -1,
		Info:     env.Info{World: "BARN_3", Time: 1.0},
	})
	w.Append(Step{
		Obs:      []float64{0.5, 0.6, 0.7, 0.8},
		ObsShape: []int{2, 2},
		Action:   []float64{0.8},
		Reward:   0,
		Done:     true,
		Info:     env.Info{World: "BARN_3", Time: 2.0},
	})
	require.NoError(t, w.Flush(7))

	rec, err := ReadRecord(filepath.Join(buffer, "actor_3", "traj_7.gob"))
	require.NoError(t, err)
	assert.Equal(t, 3, rec.ActorID)
	assert.Equal(t, 7, rec.Episode)
	assert.Equal(t, w.RunID(), rec.RunID)
	require.Len(t, rec.Steps, 2)
	assert.Equal(t, []int{2, 2}, rec.Steps[0].ObsShape)
	assert.True(t, rec.Steps[1].Done)
	assert.Equal(t, "BARN_3", rec.Steps[1].Info.World)
}

func TestWriterFlushResetsBuffer(t *testing.T) {
	w, err := NewWriter(t.TempDir(), 0)
	require.NoError(t, err)

	w.Append(Step{Reward: -1})
	require.Equal(t, 1, w.Len())
	require.NoError(t, w.Flush(0))
	assert.Equal(t, 0, w.Len())

	w.Append(Step{Reward: -50, Done: true})
	require.NoError(t, w.Flush(1))

	rec, err := ReadRecord(filepath.Join(w.dir, "traj_1.gob"))
	require.NoError(t, err)
	require.Len(t, rec.Steps, 1, "steps from the previous episode must not leak")
	assert.Equal(t, -50.0, rec.Steps[0].Reward)
}

func TestWriterLeavesNoTempFiles(t *testing.T) {
	w, err := NewWriter(t.TempDir(), 1)
	require.NoError(t, err)
	w.Append(Step{})
	require.NoError(t, w.Flush(0))

	entries, err := os.ReadDir(w.dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "traj_0.gob", entries[0].Name())
}

func TestWriterDistinctRunIDs(t *testing.T) {
	dir := t.TempDir()
	a, err := NewWriter(dir, 0)
	require.NoError(t, err)
	b, err := NewWriter(dir, 0)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID(), b.RunID())
}
