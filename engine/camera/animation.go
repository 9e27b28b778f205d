package camera

import (
	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/chewxy/math32"
)

const (
	// animationSpeed is the fraction of the remaining distance covered per step.
	animationSpeed float32 = 0.015
	// animationEpsilon snaps a coordinate onto its goal once it is this close.
	animationEpsilon float32 = 0.01
	// farSideFactor pushes the goal outward when it lies on the far side of the globe, so the
	// eye swings around the surface instead of cutting through it.
	farSideFactor float32 = 1.5
	// farSideTolerance keeps goals perpendicular to the eye on the near side despite rounding.
	farSideTolerance float32 = 1e-6
)

// sphericalAnimation is the pending eye movement started by SetSphericalPosition.
type sphericalAnimation struct {
	goal common.Vec3
}

// geographicToCartesian maps latitude/longitude on a sphere of the given radius into the
// engine's Y-up world frame, matching the globe texture's orientation.
func geographicToCartesian(radius, latitudeDeg, longitudeDeg float32) common.Vec3 {
	lat := latitudeDeg * math32.Pi / 180
	lon := longitudeDeg * math32.Pi / 180

	x := radius * math32.Cos(lat) * math32.Cos(lon)
	y := radius * math32.Cos(lat) * math32.Sin(lon)
	z := radius * math32.Sin(lat)

	return common.Vec3{-x, z, y}
}

// cartesianToGeographic inverts geographicToCartesian.
func cartesianToGeographic(p common.Vec3) (latitudeDeg, longitudeDeg, radius float32) {
	radius = common.Length3(p)
	if radius == 0 {
		return 0, 0, 0
	}
	lat := math32.Asin(common.Clamp(p[1]/radius, -1, 1))
	lon := math32.Atan2(p[2], -p[0])
	return lat * 180 / math32.Pi, lon * 180 / math32.Pi, radius
}

func newSphericalAnimation(from common.Vec3, radius, latitudeDeg, longitudeDeg float32) *sphericalAnimation {
	goal := geographicToCartesian(radius, latitudeDeg, longitudeDeg)
	if common.Dot3(common.Normalize3(from), common.Normalize3(goal)) < -farSideTolerance {
		goal = common.Scale3(goal, farSideFactor)
	}
	return &sphericalAnimation{goal: goal}
}

// step moves each coordinate of p a fixed fraction toward the goal, snapping coordinates that
// are within animationEpsilon. running is false once every coordinate has snapped.
func (a *sphericalAnimation) step(p common.Vec3) (next common.Vec3, running bool) {
	for i := range 3 {
		if math32.Abs(p[i]-a.goal[i]) > animationEpsilon {
			p[i] += (a.goal[i] - p[i]) * animationSpeed
			running = true
		} else {
			p[i] = a.goal[i]
		}
	}
	return p, running
}
