// Package trajectory persists finished episodes into the shared buffer
// directory the coordinator consumes. One file per episode, written
// atomically so the consumer never sees a partial record.
package trajectory

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/navbench/jackalrl/pkg/env"
)

// Step is one environment transition. The observation is stored flattened
// with its shape alongside, so the consumer can rebuild the tensor.
type Step struct {
	Obs      []float64
	ObsShape []int
	Action   []float64
	Reward   float64
	Done     bool
	Info     env.Info
}

// Record is one finished episode.
type Record struct {
	ActorID int
	Episode int
	RunID   string
	Steps   []Step
}

// Writer accumulates steps for the current episode and flushes each
// finished episode to its own file under the actor's subdirectory.
type Writer struct {
	dir     string
	actorID int
	runID   string
	steps   []Step
}

// NewWriter creates the actor's trajectory directory under the shared
// buffer and returns a writer bound to it. Each writer gets a fresh run id
// so restarted actors never collide with their own earlier output.
func NewWriter(bufferDir string, actorID int) (*Writer, error) {
	dir := filepath.Join(bufferDir, fmt.Sprintf("actor_%d", actorID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trajectory dir: %v", err)
	}
	return &Writer{
		dir:     dir,
		actorID: actorID,
		runID:   uuid.New().String(),
	}, nil
}

// RunID returns the writer's run identifier.
func (w *Writer) RunID() string {
	return w.runID
}

// Append records one step of the current episode.
func (w *Writer) Append(s Step) {
	w.steps = append(w.steps, s)
}

// Len returns the number of buffered steps.
func (w *Writer) Len() int {
	return len(w.steps)
}

// Flush writes the buffered steps as the record for the given episode and
// clears the buffer. The file appears atomically via a rename.
func (w *Writer) Flush(episode int) error {
	rec := Record{
		ActorID: w.actorID,
		Episode: episode,
		RunID:   w.runID,
		Steps:   w.steps,
	}

	tmp, err := os.CreateTemp(w.dir, "traj_*.tmp")
	if err != nil {
		return fmt.Errorf("flush episode %d: %v", episode, err)
	}
	if err := gob.NewEncoder(tmp).Encode(rec); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("flush episode %d: %v", episode, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("flush episode %d: %v", episode, err)
	}

	final := filepath.Join(w.dir, fmt.Sprintf("traj_%d.gob", episode))
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("flush episode %d: %v", episode, err)
	}

	w.steps = nil
	return nil
}

// ReadRecord loads one episode record back from disk.
func ReadRecord(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("read trajectory: %v", err)
	}
	defer f.Close()

	var rec Record
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode trajectory %s: %v", path, err)
	}
	return rec, nil
}
