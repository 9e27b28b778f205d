package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-globe/common"
)

type cameraControllerImpl struct {
	mu *sync.Mutex

	camera Camera

	dragging   bool
	lastX      float64
	lastY      float64
	pendingDX  float32
	pendingDY  float32
	orbitSpeed float32

	zoomStep    float32
	minDistance float32
	moveStep    float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a controller for cam with orbit speed 0.5, zoom step 0.1,
// minimum distance 1.5 and move step 0.1.
//
// Parameters:
//   - cam: the camera to control
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(cam Camera, options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		camera:      cam,
		orbitSpeed:  0.5,
		zoomStep:    0.1,
		minDistance: 1.5,
		moveStep:    0.1,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) Camera() Camera {
	return cc.camera
}

func (cc *cameraControllerImpl) BeginDrag(x, y float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.dragging = true
	cc.lastX, cc.lastY = x, y
}

func (cc *cameraControllerImpl) EndDrag() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.dragging = false
}

func (cc *cameraControllerImpl) Dragging() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.dragging
}

func (cc *cameraControllerImpl) CursorMoved(x, y float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.dragging {
		return
	}
	cc.pendingDX += float32(x - cc.lastX)
	cc.pendingDY += float32(y - cc.lastY)
	cc.lastX, cc.lastY = x, y
}

func (cc *cameraControllerImpl) Scroll(yOffset float64) {
	cc.mu.Lock()
	step, minDistance := cc.zoomStep, cc.minDistance
	cc.mu.Unlock()

	switch {
	case yOffset > 0:
		cc.camera.Dolly(step, minDistance)
	case yOffset < 0:
		cc.camera.Dolly(-step, minDistance)
	}
}

func (cc *cameraControllerImpl) Key(key int) bool {
	cc.mu.Lock()
	s := cc.moveStep
	cc.mu.Unlock()

	var delta common.Vec3
	switch key {
	case common.KeyW, common.KeyUp:
		delta = common.Vec3{0, 0, -s}
	case common.KeyS, common.KeyDown:
		delta = common.Vec3{0, 0, s}
	case common.KeyA, common.KeyLeft:
		delta = common.Vec3{-s, 0, 0}
	case common.KeyD, common.KeyRight:
		delta = common.Vec3{s, 0, 0}
	case common.KeyR:
		delta = common.Vec3{0, s, 0}
	case common.KeyF:
		delta = common.Vec3{0, -s, 0}
	default:
		return false
	}
	cc.camera.Move(delta)
	return true
}

func (cc *cameraControllerImpl) Apply(dt float32) {
	cc.mu.Lock()
	dx, dy := cc.pendingDX, cc.pendingDY
	cc.pendingDX, cc.pendingDY = 0, 0
	speed := cc.orbitSpeed
	cc.mu.Unlock()

	if dx == 0 && dy == 0 {
		return
	}
	cc.camera.Orbit(dx*dt*speed, dy*dt*speed)
}

func (cc *cameraControllerImpl) PendingDelta() (float32, float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pendingDX, cc.pendingDY
}

func (cc *cameraControllerImpl) OrbitSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.orbitSpeed
}

func (cc *cameraControllerImpl) SetOrbitSpeed(speed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.orbitSpeed = speed
}

func (cc *cameraControllerImpl) ZoomStep() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomStep
}

func (cc *cameraControllerImpl) MinDistance() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minDistance
}

func (cc *cameraControllerImpl) MoveStep() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.moveStep
}
