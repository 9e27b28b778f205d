package camera

// CameraController turns raw input into camera motion. Pointer drags are accumulated between
// frames and applied as a single orbit step by Apply; scroll and key input move the camera
// immediately.
type CameraController interface {
	// Camera returns the controlled camera.
	Camera() Camera

	// BeginDrag starts a drag at the given cursor position.
	//
	// Parameters:
	//   - x, y: cursor position in window pixels
	BeginDrag(x, y float64)

	// EndDrag ends the current drag. Accumulated deltas are kept until the next Apply.
	EndDrag()

	// Dragging reports whether a drag is in progress.
	Dragging() bool

	// CursorMoved records cursor motion. While dragging, the motion since the last position is
	// added to the pending orbit deltas.
	//
	// Parameters:
	//   - x, y: cursor position in window pixels
	CursorMoved(x, y float64)

	// Scroll dollies the camera one ZoomStep toward the target for positive offsets and away
	// from it for negative offsets, never closer than MinDistance.
	//
	// Parameters:
	//   - yOffset: the scroll wheel offset
	Scroll(yOffset float64)

	// Key moves the camera by MoveStep for the movement keys (WASD, arrows, R/F).
	//
	// Parameters:
	//   - key: a key code from common
	//
	// Returns:
	//   - bool: true if the key was handled
	Key(key int) bool

	// Apply converts the pending drag deltas into one orbit step scaled by dt and OrbitSpeed,
	// then clears them.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	Apply(dt float32)

	// PendingDelta returns the accumulated drag deltas not yet applied.
	PendingDelta() (dx, dy float32)

	// OrbitSpeed returns the radians of orbit per pixel per second of drag.
	OrbitSpeed() float32

	// SetOrbitSpeed changes the orbit speed, used by configuration reloads.
	SetOrbitSpeed(speed float32)

	// ZoomStep returns the dolly distance per scroll notch.
	ZoomStep() float32

	// MinDistance returns the closest the eye may dolly to the target.
	MinDistance() float32

	// MoveStep returns the translation per movement key press.
	MoveStep() float32
}
