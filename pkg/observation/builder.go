// Package observation turns the current robot state into the fixed-shape
// tensors the policy consumes. Two builder variants exist: an egocentric
// costmap window and a clipped laser scan; the environment configuration
// selects one.
package observation

import (
	"errors"
	"fmt"

	"github.com/emer/etable/etensor"

	"github.com/navbench/jackalrl/pkg/geometry"
	"github.com/navbench/jackalrl/pkg/nav"
)

// ErrBadShape reports that a builder produced an output violating its fixed
// shape contract. This is an internal invariant failure (an index or
// geometry bug), not a runtime condition to recover from.
var ErrBadShape = errors.New("observation: output shape violates builder contract")

// Kind names an observation builder variant, matching the env identifier in
// the shared configuration document.
type Kind string

const (
	KindCostmap Kind = "dwa_costmap"
	KindLaser   Kind = "dwa_laser"
)

// Input is the state snapshot an observation is built from. Pose and Path
// are world frame; LocalGoal is robot frame. Costmap and Laser are only
// populated for the builder that needs them.
type Input struct {
	Pose      geometry.Pose
	Path      []geometry.Point
	LocalGoal geometry.Point
	Costmap   *nav.Costmap
	Laser     []float64
}

// Builder produces a fixed-shape observation from the current robot state.
type Builder interface {
	Kind() Kind
	Shape() []int
	Build(in Input) (*etensor.Float64, error)
}

// NewBuilder returns the builder for the given environment kind.
func NewBuilder(kind Kind, laserClip float64) (Builder, error) {
	switch kind {
	case KindCostmap:
		return &CostmapBuilder{}, nil
	case KindLaser:
		if laserClip <= 0 {
			laserClip = DefaultLaserClip
		}
		return &LaserBuilder{Clip: laserClip}, nil
	default:
		return nil, fmt.Errorf("observation: unknown builder kind %q", kind)
	}
}
