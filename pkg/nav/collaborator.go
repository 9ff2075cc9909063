package nav

import (
	"context"
)

// Occupancy values used by the collaborator's costmap.
const (
	CellFree     = 0.0
	CellLethal   = 100.0
	CellNoInfo   = -1.0
	GridSize     = 800 // cells per side, world-frame aligned
	CellsPerUnit = 20  // grid resolution
)

// ModelState is the collaborator's ground-truth robot state. Yaw is in
// radians.
type ModelState struct {
	X   float64
	Y   float64
	Z   float64
	Yaw float64
}

// Costmap is a raw world-frame occupancy grid, row-major with rows along
// the world y axis.
type Costmap struct {
	Width  int
	Height int
	Data   []float64
}

// At returns the cell value at grid index (ix, iy).
func (c *Costmap) At(ix, iy int) float64 {
	return c.Data[iy*c.Width+ix]
}

// Collaborator is the synchronous command surface of the external
// navigation/simulation stack. Mutating calls settle asynchronously on the
// collaborator's side; callers compensate with settle windows and, for
// costmap clearing, repeated invocation.
type Collaborator interface {
	// ModelState returns the ground-truth robot state from the simulator.
	ModelState(ctx context.Context) (ModelState, error)
	// LaserScan returns the current laser ranges.
	LaserScan(ctx context.Context) ([]float64, error)
	// Costmap returns the current raw global costmap.
	Costmap(ctx context.Context) (*Costmap, error)
	// SetGoal sends a world-frame navigation goal to the planner.
	SetGoal(ctx context.Context, x, y, yaw float64) error
	// ClearCostmaps asks the costmap service to drop accumulated obstacles.
	ClearCostmaps(ctx context.Context) error
	// ResetPose resets the odometry estimate to the frame origin.
	ResetPose(ctx context.Context) error
	// ResetModel teleports the simulated robot to the given world pose.
	ResetModel(ctx context.Context, x, y, yaw float64) error
	// SetParam updates one local-planner (or costmap) parameter.
	SetParam(ctx context.Context, name string, value float64) error
	// Pause and Unpause stop and resume simulation time.
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
}
