package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithOrbitSpeed sets the radians of orbit per pixel per second of drag.
//
// Parameters:
//   - speed: the orbit speed multiplier
//
// Returns:
//   - CameraControllerOption: functional option to set the orbit speed
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}

// WithZoomStep sets the dolly distance per scroll notch.
//
// Parameters:
//   - step: distance moved per notch
//
// Returns:
//   - CameraControllerOption: functional option to set the zoom step
func WithZoomStep(step float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomStep = step
	}
}

// WithMinDistance sets the closest the eye may dolly to the target.
//
// Parameters:
//   - distance: minimum eye-to-target distance
//
// Returns:
//   - CameraControllerOption: functional option to set the minimum distance
func WithMinDistance(distance float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minDistance = distance
	}
}

// WithMoveStep sets the translation per movement key press.
func WithMoveStep(step float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.moveStep = step
	}
}
