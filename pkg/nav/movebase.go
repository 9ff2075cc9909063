package nav

import (
	"context"
	"log"
	"time"

	"github.com/navbench/jackalrl/pkg/geometry"
)

const (
	// DefaultLOS is the line-of-sight distance used to pick the
	// look-ahead target on the global path.
	DefaultLOS = 1.0
	// CostmapSettleWindow is how long the costmap service is given to
	// settle after a clear before the clear is re-issued.
	CostmapSettleWindow = 100 * time.Millisecond
	// costmapClearRounds is how many times a clear is issued per reset;
	// the service settles asynchronously, so repeated clears are an
	// eventual-consistency guard.
	costmapClearRounds = 3
)

// MoveBase issues commands to the planner side of the collaborator and
// answers frame-local queries about the robot's path. Command failures are
// soft: they are logged and the episode proceeds with last-known state.
type MoveBase struct {
	collab Collaborator
	state  *RobotState
	goal   geometry.Pose
	los    float64
	settle time.Duration
}

// MoveBaseOption configures a MoveBase.
type MoveBaseOption func(*MoveBase)

// WithGoal sets the world-frame global goal.
func WithGoal(goal geometry.Pose) MoveBaseOption {
	return func(m *MoveBase) {
		m.goal = goal
	}
}

// WithLOS overrides the look-ahead line-of-sight distance.
func WithLOS(los float64) MoveBaseOption {
	return func(m *MoveBase) {
		m.los = los
	}
}

// WithSettleWindow overrides the costmap settle window. Tests set it to
// zero.
func WithSettleWindow(d time.Duration) MoveBaseOption {
	return func(m *MoveBase) {
		m.settle = d
	}
}

func NewMoveBase(collab Collaborator, state *RobotState, opts ...MoveBaseOption) *MoveBase {
	m := &MoveBase{
		collab: collab,
		state:  state,
		los:    DefaultLOS,
		settle: CostmapSettleWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the robot state holder fed by the inbound update feed.
func (m *MoveBase) State() *RobotState {
	return m.state
}

// SetGoal replaces the stored global goal without sending it.
func (m *MoveBase) SetGoal(goal geometry.Pose) {
	m.goal = goal
}

// Goal returns the stored global goal.
func (m *MoveBase) Goal() geometry.Pose {
	return m.goal
}

// SendGlobalGoal sends the stored global goal to the planner.
func (m *MoveBase) SendGlobalGoal(ctx context.Context) {
	if err := m.collab.SetGoal(ctx, m.goal.X, m.goal.Y, m.goal.Psi); err != nil {
		log.Printf("Warning: set global goal failed: %v", err)
	}
}

// ResetRobotInOdom resets the odometry estimate to the frame origin.
func (m *MoveBase) ResetRobotInOdom(ctx context.Context) {
	if err := m.collab.ResetPose(ctx); err != nil {
		log.Printf("Warning: reset odometry failed: %v", err)
	}
}

// ClearCostmaps clears the costmap service, re-issuing the clear with a
// settle window in between because the service applies it asynchronously.
func (m *MoveBase) ClearCostmaps(ctx context.Context) {
	for i := 0; i < costmapClearRounds; i++ {
		if i > 0 && m.settle > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.settle):
			}
		}
		if err := m.collab.ClearCostmaps(ctx); err != nil {
			log.Printf("Warning: clear costmaps failed: %v", err)
		}
	}
}

// SetNaviParam updates one planner parameter. Two parameters need special
// plumbing: max_vel_theta keeps min_vel_theta at its negation, and
// inflation_radius belongs to the costmap inflation layers rather than the
// planner.
func (m *MoveBase) SetNaviParam(ctx context.Context, name string, value float64) {
	switch name {
	case "inflation_radius":
		m.setParam(ctx, "global_costmap/inflater_layer/inflation_radius", value)
		m.setParam(ctx, "local_costmap/inflater_layer/inflation_radius", value)
	case "max_vel_theta":
		m.setParam(ctx, name, value)
		m.setParam(ctx, "min_vel_theta", -value)
	default:
		m.setParam(ctx, name, value)
	}
}

func (m *MoveBase) setParam(ctx context.Context, name string, value float64) {
	if err := m.collab.SetParam(ctx, name, value); err != nil {
		log.Printf("Warning: set param %s failed: %v", name, err)
	}
}

// LocalGoal returns the look-ahead target on the current global path, in
// the robot frame.
func (m *MoveBase) LocalGoal() geometry.Point {
	snap := m.state.Snapshot()
	return LocalGoal(snap.Path, snap.Pose, m.los)
}

// GlobalPathRobotFrame returns the current smoothed global path converted
// to the robot frame.
func (m *MoveBase) GlobalPathRobotFrame() []geometry.Point {
	snap := m.state.Snapshot()
	return geometry.NewTransformer(snap.Pose).WorldToRobotPath(snap.Path)
}
