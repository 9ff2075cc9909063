package observation

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"github.com/emer/etable/etensor"

	"github.com/navbench/jackalrl/pkg/nav"
)

// Egocentric costmap geometry. The raw grid is padded on all sides so the
// window extraction around the robot can never run out of bounds, then a
// square window is cut, reclassified, rotated to the robot's heading, and
// cropped to the output size.
const (
	Padding    = 62
	OutputSize = 84

	pathSentinel = -100.0

	// Observation cell classes.
	CellPath     = 0.0
	CellUnknown  = 0.5
	CellObstacle = 1.0
)

// Class values ride through the rotation as gray levels so the resampling
// cannot invent values outside the class set.
const (
	grayPath     = 0
	grayUnknown  = 128
	grayObstacle = 255
)

// CostmapBuilder builds the fixed 84x84 egocentric occupancy observation:
// path cells are 0, obstacles 1, everything else 0.5, with the robot at the
// center and its heading canonicalized to the +x direction of the image.
type CostmapBuilder struct{}

func (b *CostmapBuilder) Kind() Kind {
	return KindCostmap
}

func (b *CostmapBuilder) Shape() []int {
	return []int{OutputSize, OutputSize}
}

func (b *CostmapBuilder) Build(in Input) (*etensor.Float64, error) {
	cm := in.Costmap
	if cm == nil {
		return nil, fmt.Errorf("costmap observation: no costmap available")
	}
	if cm.Width != nav.GridSize || cm.Height != nav.GridSize || len(cm.Data) != nav.GridSize*nav.GridSize {
		return nil, fmt.Errorf("costmap observation: want %dx%d grid, got %dx%d with %d cells",
			nav.GridSize, nav.GridSize, cm.Width, cm.Height, len(cm.Data))
	}

	// Pad the grid so the window around the robot always stays in
	// bounds, then mark the smoothed path with a sentinel distinct from
	// every occupancy value.
	side := nav.GridSize + 2*Padding
	padded := make([]float64, side*side)
	for y := 0; y < nav.GridSize; y++ {
		copy(padded[(y+Padding)*side+Padding:(y+Padding)*side+Padding+nav.GridSize],
			cm.Data[y*nav.GridSize:(y+1)*nav.GridSize])
	}
	for _, wp := range in.Path {
		ix, iy := toGridIndex(wp.X, wp.Y)
		padded[iy*side+ix] = pathSentinel
	}

	// Cut the window centered on the robot and reclassify it into the
	// three observation classes, encoded as gray levels for the rotation.
	rx, ry := toGridIndex(in.Pose.X, in.Pose.Y)
	win := image.NewGray(image.Rect(0, 0, 2*Padding, 2*Padding))
	for y := 0; y < 2*Padding; y++ {
		for x := 0; x < 2*Padding; x++ {
			v := padded[(ry-Padding+y)*side+(rx-Padding+x)]
			g := uint8(grayUnknown)
			switch v {
			case pathSentinel:
				g = grayPath
			case nav.CellLethal:
				g = grayObstacle
			}
			win.SetGray(x, y, color.Gray{Y: g})
		}
	}

	// Rotate by the negative heading (degrees, clockwise-positive) about
	// the window center, letting the canvas grow so nothing is clipped,
	// then crop the central output window.
	angle := -in.Pose.Psi * 180 / math.Pi
	rotated := transform.Rotate(win, angle, &transform.RotationOptions{ResizeBounds: true})
	rb := rotated.Bounds()
	cx, cy := rb.Min.X+rb.Dx()/2, rb.Min.Y+rb.Dy()/2
	cropped := transform.Crop(rotated, image.Rect(
		cx-OutputSize/2, cy-OutputSize/2,
		cx+OutputSize/2, cy+OutputSize/2,
	))

	cb := cropped.Bounds()
	if cb.Dx() != OutputSize || cb.Dy() != OutputSize {
		return nil, fmt.Errorf("%w: got %dx%d at robot index (%d,%d)",
			ErrBadShape, cb.Dx(), cb.Dy(), rx, ry)
	}

	out := etensor.NewFloat64([]int{OutputSize, OutputSize}, nil, []string{"Y", "X"})
	for y := 0; y < OutputSize; y++ {
		for x := 0; x < OutputSize; x++ {
			c := cropped.RGBAAt(cb.Min.X+x, cb.Min.Y+y)
			out.Set([]int{y, x}, decodeCell(c))
		}
	}
	return out, nil
}

// decodeCell maps a rotated pixel back to its observation class. Pixels the
// rotation never painted (outside the source canvas) stay transparent and
// read as unknown.
func decodeCell(c color.RGBA) float64 {
	if c.A < 128 {
		return CellUnknown
	}
	switch {
	case c.R < 64:
		return CellPath
	case c.R >= 192:
		return CellObstacle
	default:
		return CellUnknown
	}
}

// toGridIndex maps a world coordinate to a padded-grid index, clamped into
// the padded interior so window extraction stays in bounds.
func toGridIndex(x, y float64) (ix, iy int) {
	ix = int(math.Floor(x*nav.CellsPerUnit)) + nav.GridSize/2 + Padding
	iy = int(math.Floor(y*nav.CellsPerUnit)) + nav.GridSize/2 + Padding
	ix = clamp(ix, Padding, nav.GridSize-1+Padding)
	iy = clamp(iy, Padding, nav.GridSize-1+Padding)
	return ix, iy
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
