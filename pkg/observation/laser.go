package observation

import (
	"fmt"
	"math"

	"github.com/emer/etable/etensor"
)

const (
	// LaserDim is the number of beams in one scan.
	LaserDim = 720
	// DefaultLaserClip is the range, in world units, beyond which beams
	// are clipped.
	DefaultLaserClip = 4.0
)

// LaserBuilder builds the laser observation: 720 clipped ranges scaled to
// (-0.5, 0.5) followed by the local-goal bearing scaled by 2*pi.
type LaserBuilder struct {
	Clip float64
}

func (b *LaserBuilder) Kind() Kind {
	return KindLaser
}

func (b *LaserBuilder) Shape() []int {
	return []int{LaserDim + 1}
}

func (b *LaserBuilder) Build(in Input) (*etensor.Float64, error) {
	if len(in.Laser) != LaserDim {
		return nil, fmt.Errorf("laser observation: want %d beams, got %d", LaserDim, len(in.Laser))
	}
	clip := b.Clip
	if clip <= 0 {
		clip = DefaultLaserClip
	}

	out := etensor.NewFloat64([]int{LaserDim + 1}, nil, []string{"N"})
	for i, r := range in.Laser {
		if r > clip {
			r = clip
		}
		out.Values[i] = (r - clip/2) / clip
	}
	out.Values[LaserDim] = math.Atan2(in.LocalGoal.Y, in.LocalGoal.X) / (2 * math.Pi)
	return out, nil
}
