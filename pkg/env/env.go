// Package env implements the episode state machine driving the navigation
// stack: reset and step against the external collaborator, with the reward
// and termination policy derived from robot state.
package env

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/emer/etable/etensor"

	"github.com/navbench/jackalrl/pkg/geometry"
	"github.com/navbench/jackalrl/pkg/nav"
	"github.com/navbench/jackalrl/pkg/observation"
)

// Episode defaults, matching the planner benchmark setup.
const (
	DefaultMaxStep       = 100
	DefaultTimeStep      = time.Second
	DefaultSlackReward   = -1.0
	DefaultFailureReward = -50.0
	DefaultSuccessReward = 0.0

	// goalDistanceThreshold is the odometry distance to the goal below
	// which the default success condition holds.
	goalDistanceThreshold = 0.4
	// flipThreshold is the vertical displacement above which the robot
	// counts as flipped.
	flipThreshold = 0.1
)

// Info is the auxiliary data returned with every step.
type Info struct {
	World string
	Time  float64 // seconds since episode start
}

// SuccessFunc decides whether the goal condition holds given the odometry
// pose, the ground-truth model state, and the goal.
type SuccessFunc func(odom geometry.Pose, model nav.ModelState, goal geometry.Pose) bool

// GoalDistanceSuccess is the default success condition: odometry position
// within a fixed distance of the goal.
func GoalDistanceSuccess(odom geometry.Pose, _ nav.ModelState, goal geometry.Pose) bool {
	return math.Hypot(odom.X-goal.X, odom.Y-goal.Y) < goalDistanceThreshold
}

// BARNSuccess is the BARN benchmark success condition: the ground-truth
// robot y coordinate past the course's finish line.
func BARNSuccess(_ geometry.Pose, model nav.ModelState, _ geometry.Pose) bool {
	return model.Y > barnFinishY
}

// Env is the episode controller. It owns no robot state itself: poses and
// paths come from the MoveBase state holder, ground truth from the
// collaborator, and observations from the configured builder.
type Env struct {
	collab  nav.Collaborator
	mb      *nav.MoveBase
	builder observation.Builder

	worldName     string
	startPose     geometry.Pose
	maxStep       int
	timeStep      time.Duration
	slackReward   float64
	failureReward float64
	successReward float64
	paramList     []string
	successFn     SuccessFunc
	now           func() time.Time

	stepCount   int
	startTime   time.Time
	lastCostmap *nav.Costmap
	lastLaser   []float64
	lastModel   nav.ModelState
}

// Option configures an Env.
type Option func(*Env)

func WithWorldName(name string) Option {
	return func(e *Env) {
		e.worldName = name
	}
}

// WithStartPose sets the world pose the robot is reset to.
func WithStartPose(p geometry.Pose) Option {
	return func(e *Env) {
		e.startPose = p
	}
}

func WithMaxStep(n int) Option {
	return func(e *Env) {
		e.maxStep = n
	}
}

// WithTimeStep sets the duration of one control tick.
func WithTimeStep(d time.Duration) Option {
	return func(e *Env) {
		e.timeStep = d
	}
}

func WithRewards(slack, failure, success float64) Option {
	return func(e *Env) {
		e.slackReward = slack
		e.failureReward = failure
		e.successReward = success
	}
}

// WithParamList names the planner parameters an action vector maps onto,
// in order.
func WithParamList(names []string) Option {
	return func(e *Env) {
		e.paramList = names
	}
}

// WithSuccessFunc overrides the per-world success condition.
func WithSuccessFunc(fn SuccessFunc) Option {
	return func(e *Env) {
		e.successFn = fn
	}
}

// withClock injects a clock for tests.
func withClock(now func() time.Time) Option {
	return func(e *Env) {
		e.now = now
	}
}

// New builds an episode controller. The success condition defaults by
// world: BARN worlds use the finish-line check, everything else goal
// distance.
func New(collab nav.Collaborator, mb *nav.MoveBase, builder observation.Builder, opts ...Option) *Env {
	e := &Env{
		collab:        collab,
		mb:            mb,
		builder:       builder,
		maxStep:       DefaultMaxStep,
		timeStep:      DefaultTimeStep,
		slackReward:   DefaultSlackReward,
		failureReward: DefaultFailureReward,
		successReward: DefaultSuccessReward,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.successFn == nil {
		if IsBARN(e.worldName) {
			e.successFn = BARNSuccess
		} else {
			e.successFn = GoalDistanceSuccess
		}
	}
	return e
}

// StepCount returns the number of steps taken since the last reset.
func (e *Env) StepCount() int {
	return e.stepCount
}

// WorldName returns the world this controller drives.
func (e *Env) WorldName() string {
	return e.worldName
}

// Reset starts a new episode: zero the step counter, reset the robot in
// the odometry frame and the simulator, re-send the global goal, clear the
// costmaps, and return the initial observation. Collaborator failures are
// soft; only an observation invariant violation is returned as an error.
func (e *Env) Reset(ctx context.Context) (*etensor.Float64, error) {
	e.stepCount = 0
	e.soft(e.collab.Unpause(ctx), "unpause")
	e.mb.ResetRobotInOdom(ctx)
	e.soft(e.collab.ResetModel(ctx, e.startPose.X, e.startPose.Y, e.startPose.Psi), "reset model state")
	e.mb.SendGlobalGoal(ctx)
	e.mb.ClearCostmaps(ctx)
	e.startTime = e.now()
	obs, err := e.observe(ctx)
	e.soft(e.collab.Pause(ctx), "pause")
	return obs, err
}

// Step applies the action as planner parameters, advances one control
// tick, and returns the new observation, reward, done flag, and info.
func (e *Env) Step(ctx context.Context, action []float64) (*etensor.Float64, float64, bool, Info, error) {
	e.applyAction(ctx, action)
	e.stepCount++
	e.soft(e.collab.Unpause(ctx), "unpause")
	obs, err := e.observe(ctx)
	if err != nil {
		return nil, 0, false, Info{}, err
	}
	model := e.modelState(ctx)
	rew := e.reward(model)
	done := e.done(model)
	info := Info{World: e.worldName, Time: e.now().Sub(e.startTime).Seconds()}
	e.soft(e.collab.Pause(ctx), "pause")
	return obs, rew, done, info, nil
}

func (e *Env) applyAction(ctx context.Context, action []float64) {
	n := len(action)
	if len(e.paramList) < n {
		n = len(e.paramList)
	}
	for i := 0; i < n; i++ {
		e.mb.SetNaviParam(ctx, e.paramList[i], action[i])
	}
	if e.timeStep > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(e.timeStep):
		}
	}
}

// reward evaluates the per-step reward: slack by default, failure on
// timeout or flip, success overriding both.
func (e *Env) reward(model nav.ModelState) float64 {
	rew := e.slackReward
	if e.stepCount >= e.maxStep || e.flipped(model) {
		rew = e.failureReward
	}
	if e.success(model) {
		rew = e.successReward
	}
	return rew
}

func (e *Env) done(model nav.ModelState) bool {
	return e.success(model) || e.stepCount >= e.maxStep || e.flipped(model)
}

func (e *Env) flipped(model nav.ModelState) bool {
	return model.Z > flipThreshold
}

func (e *Env) success(model nav.ModelState) bool {
	snap := e.mb.State().Snapshot()
	return e.successFn(snap.Pose, model, e.mb.Goal())
}

// modelState fetches ground truth, falling back to the last known state on
// failure.
func (e *Env) modelState(ctx context.Context) nav.ModelState {
	m, err := e.collab.ModelState(ctx)
	if err != nil {
		log.Printf("Warning: model state fetch failed, using last known: %v", err)
		return e.lastModel
	}
	e.lastModel = m
	return m
}

// observe assembles the builder input from the current state snapshot,
// fetching the costmap or laser scan the configured variant needs. Fetch
// failures fall back to the last known data.
func (e *Env) observe(ctx context.Context) (*etensor.Float64, error) {
	snap := e.mb.State().Snapshot()
	in := observation.Input{
		Pose:      snap.Pose,
		Path:      snap.Path,
		LocalGoal: e.mb.LocalGoal(),
	}
	switch e.builder.Kind() {
	case observation.KindCostmap:
		cm, err := e.collab.Costmap(ctx)
		if err != nil {
			log.Printf("Warning: costmap fetch failed, using last known: %v", err)
			cm = e.lastCostmap
		} else {
			e.lastCostmap = cm
		}
		in.Costmap = cm
	case observation.KindLaser:
		scan, err := e.collab.LaserScan(ctx)
		if err != nil {
			log.Printf("Warning: laser fetch failed, using last known: %v", err)
			scan = e.lastLaser
		} else {
			e.lastLaser = scan
		}
		in.Laser = scan
	}
	return e.builder.Build(in)
}

func (e *Env) soft(err error, op string) {
	if err != nil {
		log.Printf("Warning: %s failed: %v", op, err)
	}
}
