package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the native window the globe renders into, plus the input events the camera
// controller consumes. Callbacks run on the thread that calls PollEvents.
type Window interface {
	// SetResizeCallback sets the function called with the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the function called with the vertical scroll offset.
	// Positive offsets scroll up (zoom in).
	SetScrollCallback(callback func(yOffset float64))

	// SetKeyCallback sets the function called for key presses and repeats.
	//
	// Parameters:
	//   - callback: receives the key code, matching common.Key* values
	SetKeyCallback(callback func(key int))

	// SetDragCallback sets the function called when the primary mouse button is pressed or released.
	//
	// Parameters:
	//   - callback: receives whether the button is down and the cursor position
	SetDragCallback(callback func(pressed bool, x, y float64))

	// SetCursorCallback sets the function called when the cursor moves.
	SetCursorCallback(callback func(x, y float64))

	// SurfaceDescriptor returns the platform-specific descriptor for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// PollEvents dispatches pending input and window events without blocking.
	//
	// Returns:
	//   - bool: false once the window has been asked to close
	PollEvents() bool

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// RequestClose asks the window to close at the next PollEvents.
	RequestClose()

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: an error if the window was never created
	Close() error

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// engineWindow holds window configuration and event callbacks.
type engineWindow struct {
	title string

	maxWidth, maxHeight int
	minWidth, minHeight int
	width, height       int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onResize func(width, height int)
	onScroll func(yOffset float64)
	onKey    func(key int)
	onDrag   func(pressed bool, x, y float64)
	onCursor func(x, y float64)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window with the specified options.
// It must be called from the main goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "Globe",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(yOffset float64)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyCallback(callback func(key int)) {
	w.onKey = callback
}

func (w *engineWindow) SetDragCallback(callback func(pressed bool, x, y float64)) {
	w.onDrag = callback
}

func (w *engineWindow) SetCursorCallback(callback func(x, y float64)) {
	w.onCursor = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) PollEvents() bool {
	return platformProcessMessages(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
