package common

// Key codes the engine binds. These values match GLFW key codes, which use ASCII
// values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW = 87 // move forward
	KeyA = 65 // move left
	KeyS = 83 // move backward
	KeyD = 68 // move right
	KeyR = 82 // move up
	KeyF = 70 // move down
	KeyQ = 81 // next globe texture
	KeyE = 69 // previous globe texture

	KeySpace = 32  // reset camera
	KeyEsc   = 256 // quit

	KeyRight = 262
	KeyLeft  = 263
	KeyDown  = 264
	KeyUp    = 265
)
