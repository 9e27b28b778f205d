package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/Carmen-Shannon/oxy-globe/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// State is a stage of the renderer lifecycle.
type State int

const (
	// StateUninitialized is the state of a newly built renderer.
	StateUninitialized State = iota

	// StateInitializing is held while the backend and attachments are being created.
	StateInitializing

	// StateReady means the backend, scene and camera exist but no frame loop runs.
	StateReady

	// StateRendering means Frame may be called.
	StateRendering

	// StateDestroyed is terminal: every resource has been released.
	StateDestroyed

	// StateFailed is terminal: initialization failed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateDestroyed:
		return "destroyed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition is returned when a lifecycle call does not apply to the current state.
	ErrInvalidTransition = errors.New("renderer: invalid state transition")

	// ErrNotReady is returned by Frame outside the Rendering state.
	ErrNotReady = errors.New("renderer: not rendering")
)

// validTransitions lists the states reachable from each state.
var validTransitions = map[State][]State{
	StateUninitialized: {StateInitializing, StateDestroyed},
	StateInitializing:  {StateReady, StateFailed},
	StateReady:         {StateRendering, StateDestroyed},
	StateRendering:     {StateReady, StateDestroyed},
	StateFailed:        {StateDestroyed},
}

// CanTransition reports whether the lifecycle allows moving from one state to another.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Renderer drives the frame loop: it keeps the camera current, resizes the attachments,
// records compute work and draws the scene, once per call to Frame.
// Thread-safe for concurrent access.
type Renderer interface {
	// State returns the current lifecycle state.
	State() State

	// Init creates the backend and its attachments sized to the initial surface.
	// Uninitialized moves to Initializing, then to Ready or, on error, to Failed.
	//
	// Returns:
	//   - error: ErrInvalidTransition, or the backend error that moved the renderer to Failed
	Init() error

	// Start moves Ready to Rendering.
	Start() error

	// Stop moves Rendering back to Ready. The scene and attachments are kept.
	Stop() error

	// Frame renders one frame. Redraw is unconditional: the dirty flag is cleared but never
	// skips a frame. A failure or panic inside the frame is logged, the frame is dropped
	// and the renderer stays in Rendering.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - error: ErrNotReady outside Rendering, or the error that dropped the frame
	Frame(dt float32) error

	// Resize records a new surface size. The attachments are recreated at the start of the
	// next frame, before anything is recorded.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// SetClearColor changes the color the next frame's render pass clears to.
	SetClearColor(c wgpu.Color)

	// MarkDirty flags that scene state changed since the last frame.
	MarkDirty()

	// Dirty reports whether MarkDirty was called since the last rendered frame.
	Dirty() bool

	// FrameCount returns the number of frames submitted.
	FrameCount() uint64

	// Scene returns the scene the renderer draws.
	Scene() scene.Scene

	// Camera returns the shared camera.
	Camera() camera.Camera

	// Destroy stops rendering, releases the scene's drawables and the backend, and moves to
	// Destroyed. Calling it again is a no-op.
	Destroy()
}

type renderer struct {
	mu *sync.Mutex

	state   State
	backend RendererBackend
	gpu     gpu.Context

	scene      scene.Scene
	cam        camera.Camera
	controller camera.CameraController

	clearColor    wgpu.Color
	width, height int
	pendingResize bool
	dirty         bool
	frames        uint64

	// newBackend creates the backend during Init when none was injected.
	newBackend func() (RendererBackend, error)
}

var _ Renderer = &renderer{}

// NewRenderer builds a renderer in the Uninitialized state.
//
// Parameters:
//   - s: the scene to draw
//   - cam: the shared camera
//   - options: functional options such as WithContext or WithBackend
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(s scene.Scene, cam camera.Camera, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:         &sync.Mutex{},
		state:      StateUninitialized,
		scene:      s,
		cam:        cam,
		clearColor: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}
	for _, opt := range options {
		opt(r)
	}
	if r.newBackend == nil && r.backend == nil {
		r.newBackend = func() (RendererBackend, error) {
			if r.gpu == nil {
				return nil, errors.New("renderer: no gpu context or backend configured")
			}
			return NewWGPURendererBackend(r.gpu), nil
		}
	}
	return r
}

func (r *renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// transition moves to the next state. The caller holds r.mu.
func (r *renderer) transition(to State) error {
	if !CanTransition(r.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, to)
	}
	slog.Debug("renderer state", "from", r.state, "to", to)
	r.state = to
	return nil
}

func (r *renderer) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.transition(StateInitializing); err != nil {
		return err
	}
	if err := r.init(); err != nil {
		_ = r.transition(StateFailed)
		slog.Error("renderer initialization failed", "error", err)
		return err
	}
	return r.transition(StateReady)
}

func (r *renderer) init() error {
	if r.scene == nil || r.cam == nil {
		return errors.New("renderer: scene and camera are required")
	}
	if r.backend == nil {
		b, err := r.newBackend()
		if err != nil {
			return err
		}
		r.backend = b
	}
	if r.width <= 0 || r.height <= 0 {
		return fmt.Errorf("renderer: invalid surface size %dx%d", r.width, r.height)
	}
	if err := r.backend.Resize(r.width, r.height); err != nil {
		return err
	}
	r.pendingResize = false
	return r.cam.SetAspectRatio(float32(r.width) / float32(r.height))
}

func (r *renderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transition(StateRendering)
}

func (r *renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRendering {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, StateReady)
	}
	return r.transition(StateReady)
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		// Minimized windows report a zero size; keep the last attachments.
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	r.pendingResize = true
	r.dirty = true
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.mu.Lock()
	r.clearColor = c
	r.dirty = true
	r.mu.Unlock()
}

func (r *renderer) MarkDirty() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

func (r *renderer) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

func (r *renderer) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *renderer) Scene() scene.Scene {
	return r.scene
}

func (r *renderer) Camera() camera.Camera {
	return r.cam
}

func (r *renderer) Frame(dt float32) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRendering {
		return fmt.Errorf("%w: %s", ErrNotReady, r.state)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("renderer: frame panicked: %v", rec)
		}
		if err != nil {
			r.backend.AbortFrame()
			slog.Error("frame dropped", "frame", r.frames, "error", err)
		}
	}()
	return r.frame(dt)
}

// frame runs the per-frame steps in order. The caller holds r.mu.
func (r *renderer) frame(dt float32) error {
	// 1, 2. Pending orbit deltas and the animation step, then the matrices.
	if r.controller != nil {
		r.controller.Apply(dt)
	}
	if r.cam.Advance() {
		r.dirty = true
	}
	r.cam.UpdateViewMatrix()
	r.cam.UpdateProjectionMatrix()

	// 3. Attachments follow the surface size.
	if r.pendingResize {
		if err := r.backend.Resize(r.width, r.height); err != nil {
			return fmt.Errorf("resize attachments: %w", err)
		}
		if err := r.cam.SetAspectRatio(float32(r.width) / float32(r.height)); err != nil {
			return err
		}
		r.cam.UpdateProjectionMatrix()
		r.pendingResize = false
	}

	if err := r.scene.Update(dt); err != nil {
		slog.Warn("drawable update failed", "error", err)
	}

	// 4. Command recording scope.
	encoder, err := r.backend.BeginFrame()
	if err != nil {
		return err
	}

	// 5. Compute work (cloud density) lands in the same encoder, before the pass samples it.
	if err := r.scene.Compute(encoder); err != nil {
		slog.Warn("compute stage had failures", "error", err)
	}

	// 6. Render pass clearing color and depth.
	pass, err := r.backend.BeginPass(r.clearColor)
	if err != nil {
		return err
	}

	// 7. Scene draw. Per-drawable failures were already isolated and logged.
	if err := r.scene.Draw(pass, r.cam); err != nil {
		slog.Warn("draw stage had failures", "error", err)
	}

	// 8, 9. End the pass and submit.
	if err := r.backend.EndFrame(); err != nil {
		return err
	}

	// 10. Present.
	r.backend.Present()
	r.frames++
	r.dirty = false
	return nil
}

func (r *renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateDestroyed {
		return
	}
	if r.state == StateInitializing {
		r.state = StateFailed
	}
	if err := r.transition(StateDestroyed); err != nil {
		slog.Warn("renderer destroy", "error", err)
		r.state = StateDestroyed
	}
	if r.scene != nil {
		r.scene.Clear()
	}
	if r.backend != nil {
		r.backend.Release()
		r.backend = nil
	}
}
