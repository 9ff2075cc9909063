// Package geometry provides the 2D frame conversions and path filtering used
// by the egocentric perception pipeline.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point is a 2D point. The frame it is expressed in is the caller's
// convention.
type Point struct {
	X float64
	Y float64
}

// Pose is a robot pose in the world frame: position plus heading Psi in
// radians, measured counter-clockwise from the world x axis.
type Pose struct {
	X   float64
	Y   float64
	Psi float64
}

// Transformer converts points between the world frame and the robot frame
// for a fixed robot pose. The robot-to-world transform is the homogeneous
// rigid transform built from rotation by Psi and translation by (X, Y); the
// world-to-robot direction is its inverse.
type Transformer struct {
	robotToWorld *mat.Dense
	worldToRobot *mat.Dense
}

// NewTransformer builds the transform pair for the given pose.
func NewTransformer(pose Pose) *Transformer {
	sin, cos := math.Sincos(pose.Psi)
	r2i := mat.NewDense(3, 3, []float64{
		cos, -sin, pose.X,
		sin, cos, pose.Y,
		0, 0, 1,
	})
	var i2r mat.Dense
	if err := i2r.Inverse(r2i); err != nil {
		// A rigid transform is always invertible.
		panic(err)
	}
	return &Transformer{robotToWorld: r2i, worldToRobot: &i2r}
}

// WorldToRobot converts a world-frame point to the robot frame.
func (t *Transformer) WorldToRobot(p Point) Point {
	return apply(t.worldToRobot, p)
}

// RobotToWorld converts a robot-frame point to the world frame.
func (t *Transformer) RobotToWorld(p Point) Point {
	return apply(t.robotToWorld, p)
}

// WorldToRobotPath converts a batch of world-frame points to the robot
// frame. An empty batch yields an empty batch.
func (t *Transformer) WorldToRobotPath(ps []Point) []Point {
	return applyAll(t.worldToRobot, ps)
}

// RobotToWorldPath converts a batch of robot-frame points to the world
// frame.
func (t *Transformer) RobotToWorldPath(ps []Point) []Point {
	return applyAll(t.robotToWorld, ps)
}

func apply(m *mat.Dense, p Point) Point {
	v := mat.NewVecDense(3, []float64{p.X, p.Y, 1})
	var out mat.VecDense
	out.MulVec(m, v)
	return Point{X: out.AtVec(0), Y: out.AtVec(1)}
}

func applyAll(m *mat.Dense, ps []Point) []Point {
	if len(ps) == 0 {
		return []Point{}
	}
	n := len(ps)
	data := make([]float64, 3*n)
	for i, p := range ps {
		data[i] = p.X
		data[n+i] = p.Y
		data[2*n+i] = 1
	}
	var pr mat.Dense
	pr.Mul(m, mat.NewDense(3, n, data))
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{X: pr.At(0, i), Y: pr.At(1, i)}
	}
	return out
}
