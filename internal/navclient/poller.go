package navclient

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/navbench/jackalrl/pkg/geometry"
	"github.com/navbench/jackalrl/pkg/nav"
)

// DefaultPollInterval is how often the status endpoints are polled.
const DefaultPollInterval = 100 * time.Millisecond

type odomBody struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Yaw float64 `json:"yaw"`
}

type planBody struct {
	Poses [][]float64 `json:"poses"`
}

type velBody struct {
	LinearX float64 `json:"linear_x"`
}

// Poller feeds the robot state holder from the bridge's status endpoints:
// odometry, the global plan, and commanded velocities.
type Poller struct {
	client   *Client
	state    *nav.RobotState
	interval time.Duration
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = d
	}
}

func NewPoller(client *Client, state *nav.RobotState, opts ...PollerOption) *Poller {
	p := &Poller{
		client:   client,
		state:    state,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until the context is cancelled. Individual fetch failures are
// logged and skipped; the state holder keeps its last value.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	var odom odomBody
	if err := p.client.getJSON(ctx, "/api/odom", &odom); err != nil {
		log.Printf("Warning: odom poll failed: %v", err)
	} else {
		p.state.SetPose(geometry.Pose{X: odom.X, Y: odom.Y, Psi: odom.Yaw})
	}

	var plan planBody
	if err := p.client.getJSON(ctx, "/api/global_plan", &plan); err != nil {
		log.Printf("Warning: global plan poll failed: %v", err)
	} else if path, err := decodePlan(plan); err != nil {
		log.Printf("Warning: global plan malformed: %v", err)
	} else {
		p.state.SetGlobalPath(path)
	}

	var vel velBody
	if err := p.client.getJSON(ctx, "/api/cmd_vel", &vel); err != nil {
		log.Printf("Warning: cmd_vel poll failed: %v", err)
	} else {
		p.state.ObserveVelocity(vel.LinearX)
	}
}

func decodePlan(plan planBody) ([]geometry.Point, error) {
	path := make([]geometry.Point, 0, len(plan.Poses))
	for i, p := range plan.Poses {
		if len(p) < 2 {
			return nil, fmt.Errorf("pose %d has %d coordinates", i, len(p))
		}
		path = append(path, geometry.Point{X: p[0], Y: p[1]})
	}
	return path, nil
}
