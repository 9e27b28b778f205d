package camera

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/chewxy/math32"
)

var (
	// ErrInvalidClipRange is returned when near is not positive or near >= far.
	ErrInvalidClipRange = errors.New("camera: near must be positive and less than far")
	// ErrInvalidFov is returned when the field of view is outside (0, 180) degrees.
	ErrInvalidFov = errors.New("camera: field of view must be in (0, 180) degrees")
	// ErrInvalidAspect is returned for a non-positive aspect ratio.
	ErrInvalidAspect = errors.New("camera: aspect ratio must be positive")
)

// PolarMargin keeps the orbit polar angle inside [PolarMargin, Pi-PolarMargin] so the look-at
// basis never degenerates at the poles.
const PolarMargin float32 = 0.1

type cameraImpl struct {
	mu *sync.Mutex

	position common.Vec3
	target   common.Vec3
	up       common.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	animation *sphericalAnimation
}

// Camera holds a perspective camera and the view and projection matrices derived from it.
// Mutators that move the camera recompute the view matrix before returning. Every getter
// returns a copy, so callers never alias the camera's state.
type Camera interface {
	// Position returns the world-space eye position.
	Position() common.Vec3

	// Target returns the world-space look-at point.
	Target() common.Vec3

	// Up returns the up vector.
	Up() common.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the current view matrix (column-major).
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current projection matrix (column-major, depth in [0, 1]).
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() [16]float32

	// UpdateViewMatrix recomputes the view matrix from position, target and up.
	UpdateViewMatrix()

	// UpdateProjectionMatrix recomputes the projection matrix from fov, aspect, near and far.
	UpdateProjectionMatrix()

	// SetAspectRatio sets the aspect ratio and recomputes the projection matrix.
	//
	// Parameters:
	//   - ratio: width / height, must be positive
	//
	// Returns:
	//   - error: ErrInvalidAspect if ratio is not positive; the camera is unchanged
	SetAspectRatio(ratio float32) error

	// Move translates the eye by delta and recomputes the view matrix.
	//
	// Parameters:
	//   - delta: world-space translation
	Move(delta common.Vec3)

	// SetPosition places the eye and recomputes the view matrix.
	SetPosition(position common.Vec3)

	// LookAt sets the target and recomputes the view matrix.
	LookAt(target common.Vec3)

	// Orbit rotates the eye around the world origin. The eye's spherical coordinates are derived
	// from its Cartesian position, the deltas are subtracted from azimuth and polar angle, and the
	// polar angle is clamped to [PolarMargin, Pi-PolarMargin]. A pending spherical animation is
	// cancelled so user input always wins.
	//
	// Parameters:
	//   - deltaYaw: azimuth change in radians
	//   - deltaPitch: polar angle change in radians
	Orbit(deltaYaw, deltaPitch float32)

	// Dolly moves the eye along the view direction by distance. Positive values move toward the
	// target and stop at minDistance; negative values move away.
	//
	// Parameters:
	//   - distance: signed distance to move
	//   - minDistance: the closest the eye may get to the target
	//
	// Returns:
	//   - bool: false if the move was refused because the eye is already at minDistance
	Dolly(distance, minDistance float32) bool

	// SetSphericalPosition starts an animated move of the eye toward the point at latitude and
	// longitude (degrees) on a sphere of the given radius. The animation advances once per
	// Advance call and replaces any animation already in progress.
	//
	// Parameters:
	//   - radius: sphere radius around the origin
	//   - latitudeDeg: latitude in degrees
	//   - longitudeDeg: longitude in degrees
	SetSphericalPosition(radius, latitudeDeg, longitudeDeg float32)

	// SphericalPosition converts the eye position back to geographic coordinates.
	//
	// Returns:
	//   - latitudeDeg, longitudeDeg: geographic coordinates in degrees
	//   - radius: distance from the origin
	SphericalPosition() (latitudeDeg, longitudeDeg, radius float32)

	// Advance steps the pending spherical animation once, recomputing the view matrix.
	//
	// Returns:
	//   - bool: true while the animation is still running
	Advance() bool

	// Animating reports whether a spherical animation is pending.
	Animating() bool

	// CancelAnimation drops a pending spherical animation, leaving the eye where it is.
	CancelAnimation()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a camera looking from (0, 0, 3) at the origin with a 45 degree field of view.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the camera, with view and projection matrices computed
//   - error: ErrInvalidClipRange, ErrInvalidFov or ErrInvalidAspect
func NewCamera(options ...CameraBuilderOption) (Camera, error) {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: common.Vec3{0, 0, 3},
		up:       common.Vec3{0, 1, 0},
		fov:      45 * math32.Pi / 180,
		aspect:   1,
		near:     0.1,
		far:      1000,
	}
	for _, option := range options {
		option(c)
	}

	if c.near <= 0 || c.near >= c.far {
		return nil, fmt.Errorf("%w: near=%g far=%g", ErrInvalidClipRange, c.near, c.far)
	}
	if c.fov <= 0 || c.fov >= math32.Pi {
		return nil, fmt.Errorf("%w: %g degrees", ErrInvalidFov, c.fov*180/math32.Pi)
	}
	if c.aspect <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidAspect, c.aspect)
	}

	c.updateView()
	c.updateProjection()
	return c, nil
}

func (c *cameraImpl) Position() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) UpdateViewMatrix() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateView()
}

func (c *cameraImpl) UpdateProjectionMatrix() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateProjection()
}

func (c *cameraImpl) SetAspectRatio(ratio float32) error {
	if ratio <= 0 || math32.IsNaN(ratio) || math32.IsInf(ratio, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidAspect, ratio)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = ratio
	c.updateProjection()
	return nil
}

func (c *cameraImpl) Move(delta common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = common.Add3(c.position, delta)
	c.updateView()
}

func (c *cameraImpl) SetPosition(position common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.updateView()
}

func (c *cameraImpl) LookAt(target common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
	c.updateView()
}

func (c *cameraImpl) Orbit(deltaYaw, deltaPitch float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.animation = nil

	p := c.position
	radius := common.Length3(p)
	if radius == 0 {
		return
	}
	theta := math32.Atan2(p[0], p[2])
	phi := math32.Acos(common.Clamp(p[1]/radius, -1, 1))

	theta -= deltaYaw
	phi = common.Clamp(phi-deltaPitch, PolarMargin, math32.Pi-PolarMargin)

	c.position = common.Vec3{
		radius * math32.Sin(phi) * math32.Sin(theta),
		radius * math32.Cos(phi),
		radius * math32.Sin(phi) * math32.Cos(theta),
	}
	c.updateView()
}

func (c *cameraImpl) Dolly(distance, minDistance float32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	toTarget := common.Sub3(c.target, c.position)
	current := common.Length3(toTarget)
	if current == 0 || (distance > 0 && current <= minDistance+1e-4) {
		return false
	}
	if distance > 0 {
		distance = min(distance, current-minDistance)
	}
	c.position = common.Add3(c.position, common.Scale3(toTarget, distance/current))
	c.updateView()
	return true
}

func (c *cameraImpl) SetSphericalPosition(radius, latitudeDeg, longitudeDeg float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.animation = newSphericalAnimation(c.position, radius, latitudeDeg, longitudeDeg)
}

func (c *cameraImpl) SphericalPosition() (float32, float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cartesianToGeographic(c.position)
}

func (c *cameraImpl) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.animation == nil {
		return false
	}
	var running bool
	c.position, running = c.animation.step(c.position)
	c.updateView()
	if !running {
		c.animation = nil
	}
	return running
}

func (c *cameraImpl) Animating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.animation != nil
}

func (c *cameraImpl) CancelAnimation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.animation = nil
}

// updateView recomputes the view and view-projection matrices. Caller must hold the mutex.
func (c *cameraImpl) updateView() {
	common.LookAt(c.viewMatrix[:], c.position, c.target, c.up)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}

// updateProjection recomputes the projection and view-projection matrices. Caller must hold the mutex.
func (c *cameraImpl) updateProjection() {
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}
