// Package nav wraps the external navigation/simulation collaborator: it
// holds the robot status fed by inbound updates, issues planner commands,
// and picks the local look-ahead goal for the perception pipeline.
package nav

import (
	"sync"

	"github.com/navbench/jackalrl/pkg/geometry"
)

// badVelThreshold is the commanded forward velocity at or below which a
// velocity command counts as "bad" (the planner is crawling or stuck).
const badVelThreshold = 0.2

// StateSnapshot is a point-in-time copy of the robot status. Observation
// code works from a snapshot rather than the live holder so one observation
// sees a single consistent state.
type StateSnapshot struct {
	Pose geometry.Pose
	Path []geometry.Point // smoothed global path, world frame
}

// RobotState tracks the robot status published by the collaborator. It has a
// single writer (the inbound update feed) and any number of readers taking
// snapshots.
type RobotState struct {
	mu       sync.RWMutex
	pose     geometry.Pose
	path     []geometry.Point
	badVel   int
	velCount int
}

func NewRobotState() *RobotState {
	return &RobotState{}
}

// SetPose records the latest odometry pose.
func (s *RobotState) SetPose(p geometry.Pose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pose = p
}

// SetGlobalPath replaces the global path wholesale with the latest plan.
// The raw plan is denoised before it is stored; plans too short to filter
// are stored as-is.
func (s *RobotState) SetGlobalPath(raw []geometry.Point) {
	smoothed := geometry.SmoothPath(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = smoothed
}

// ObserveVelocity counts one commanded velocity, tracking how many fell at
// or below the bad-velocity threshold.
func (s *RobotState) ObserveVelocity(vx float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vx <= badVelThreshold {
		s.badVel++
	}
	s.velCount++
}

// BadVelCount returns the number of bad velocity commands and the total
// count since the last call, and resets both.
func (s *RobotState) BadVelCount() (bad, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bad, total = s.badVel, s.velCount
	s.badVel, s.velCount = 0, 0
	return bad, total
}

// Snapshot returns a consistent copy of the current robot status.
func (s *RobotState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path := make([]geometry.Point, len(s.path))
	copy(path, s.path)
	return StateSnapshot{Pose: s.pose, Path: path}
}
