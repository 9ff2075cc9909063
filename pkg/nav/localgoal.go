package nav

import (
	"math"

	"github.com/navbench/jackalrl/pkg/geometry"
)

// LocalGoal picks the pure-pursuit look-ahead target from a world-frame
// path and returns it in the robot frame. The target is the first waypoint,
// scanning from the start of the path, whose distance to the robot exceeds
// los; if every waypoint is within los the last waypoint is used. An empty
// path yields the robot-frame origin.
func LocalGoal(path []geometry.Point, pose geometry.Pose, los float64) geometry.Point {
	if len(path) == 0 {
		return geometry.Point{}
	}
	target := path[len(path)-1]
	for _, wp := range path {
		if math.Hypot(wp.X-pose.X, wp.Y-pose.Y) > los {
			target = wp
			break
		}
	}
	return geometry.NewTransformer(pose).WorldToRobot(target)
}
