package renderer

import (
	"errors"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/drawable"
	"github.com/Carmen-Shannon/oxy-globe/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(c string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

func (l *callLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.calls
	l.calls = nil
	return out
}

type fakeBackend struct {
	log *callLog

	resizeErr error
	beginErr  error

	width, height int
	released      bool
	clear         wgpu.Color
}

func (b *fakeBackend) Resize(w, h int) error {
	b.log.add("resize")
	if b.resizeErr != nil {
		return b.resizeErr
	}
	b.width, b.height = w, h
	return nil
}

func (b *fakeBackend) AttachmentSize() (int, int) { return b.width, b.height }

func (b *fakeBackend) BeginFrame() (*wgpu.CommandEncoder, error) {
	b.log.add("begin")
	return nil, b.beginErr
}

func (b *fakeBackend) BeginPass(clear wgpu.Color) (*wgpu.RenderPassEncoder, error) {
	b.log.add("pass")
	b.clear = clear
	return nil, nil
}

func (b *fakeBackend) EndFrame() error {
	b.log.add("end")
	return nil
}

func (b *fakeBackend) Present()    { b.log.add("present") }
func (b *fakeBackend) AbortFrame() { b.log.add("abort") }
func (b *fakeBackend) Release()    { b.released = true }

type fakeDrawable struct {
	log      *callLog
	panics   bool
	released bool
}

func (d *fakeDrawable) Kind() drawable.Kind { return drawable.KindCloud }
func (d *fakeDrawable) Label() string       { return "fake" }
func (d *fakeDrawable) Translucent() bool   { return true }
func (d *fakeDrawable) Update(float32)      { d.log.add("update") }
func (d *fakeDrawable) Release()            { d.released = true }

func (d *fakeDrawable) Compute(*wgpu.CommandEncoder) error {
	d.log.add("compute")
	return nil
}

func (d *fakeDrawable) Draw(*wgpu.RenderPassEncoder, camera.Camera) error {
	if d.panics {
		panic("lost device")
	}
	d.log.add("draw")
	return nil
}

func newTestRenderer(t *testing.T, options ...RendererBuilderOption) (Renderer, *fakeBackend, *fakeDrawable, *callLog) {
	t.Helper()
	log := &callLog{}
	backend := &fakeBackend{log: log}
	cam, err := camera.NewCamera()
	require.NoError(t, err)

	s := scene.NewScene("test")
	d := &fakeDrawable{log: log}
	s.Add(d)

	opts := append([]RendererBuilderOption{WithBackend(backend), WithSize(800, 600)}, options...)
	return NewRenderer(s, cam, opts...), backend, d, log
}

func TestLifecycle(t *testing.T) {
	r, backend, d, log := newTestRenderer(t)
	assert.Equal(t, StateUninitialized, r.State())

	assert.ErrorIs(t, r.Start(), ErrInvalidTransition)
	assert.ErrorIs(t, r.Frame(0.016), ErrNotReady)

	require.NoError(t, r.Init())
	assert.Equal(t, StateReady, r.State())
	assert.Equal(t, []string{"resize"}, log.take())
	assert.Equal(t, float32(800)/600, r.Camera().Aspect())
	assert.ErrorIs(t, r.Init(), ErrInvalidTransition)

	require.NoError(t, r.Start())
	assert.Equal(t, StateRendering, r.State())

	require.NoError(t, r.Stop())
	assert.Equal(t, StateReady, r.State())
	assert.ErrorIs(t, r.Stop(), ErrInvalidTransition)

	r.Destroy()
	assert.Equal(t, StateDestroyed, r.State())
	assert.True(t, backend.released)
	assert.True(t, d.released)
	assert.Equal(t, 0, r.Scene().Len())

	r.Destroy()
	assert.Equal(t, StateDestroyed, r.State())
}

func TestInitFailure(t *testing.T) {
	log := &callLog{}
	backend := &fakeBackend{log: log, resizeErr: errors.New("no surface")}
	cam, err := camera.NewCamera()
	require.NoError(t, err)

	r := NewRenderer(scene.NewScene("test"), cam, WithBackend(backend), WithSize(10, 10))
	require.Error(t, r.Init())
	assert.Equal(t, StateFailed, r.State())
	assert.ErrorIs(t, r.Start(), ErrInvalidTransition)

	r.Destroy()
	assert.Equal(t, StateDestroyed, r.State())
}

func TestInitWithoutContextOrBackend(t *testing.T) {
	cam, err := camera.NewCamera()
	require.NoError(t, err)

	r := NewRenderer(scene.NewScene("test"), cam, WithSize(10, 10))
	require.Error(t, r.Init())
	assert.Equal(t, StateFailed, r.State())
}

func TestFrameOrder(t *testing.T) {
	r, _, _, log := newTestRenderer(t)
	require.NoError(t, r.Init())
	require.NoError(t, r.Start())
	log.take()

	require.NoError(t, r.Frame(0.016))
	assert.Equal(t, []string{"update", "begin", "compute", "pass", "draw", "end", "present"}, log.take())
	assert.Equal(t, uint64(1), r.FrameCount())
}

func TestResizeAppliesBeforeRecording(t *testing.T) {
	r, backend, _, log := newTestRenderer(t)
	require.NoError(t, r.Init())
	require.NoError(t, r.Start())
	log.take()

	r.Resize(1024, 512)
	r.Resize(0, 0)
	assert.True(t, r.Dirty())
	require.NoError(t, r.Frame(0.016))

	calls := log.take()
	require.NotEmpty(t, calls)
	assert.Equal(t, "resize", calls[0])
	assert.Equal(t, float32(2), r.Camera().Aspect())

	w, h := backend.AttachmentSize()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 512, h)
	assert.False(t, r.Dirty())

	require.NoError(t, r.Frame(0.016))
	assert.NotContains(t, log.take(), "resize")
}

func TestFrameRecoversFromPanic(t *testing.T) {
	r, _, d, log := newTestRenderer(t)
	require.NoError(t, r.Init())
	require.NoError(t, r.Start())
	log.take()

	// Drawable panics are isolated by the scene, so the frame still presents.
	d.panics = true
	require.NoError(t, r.Frame(0.016))
	assert.Contains(t, log.take(), "present")
	assert.Equal(t, StateRendering, r.State())
}

func TestFrameAbortsOnBackendError(t *testing.T) {
	r, backend, _, log := newTestRenderer(t)
	require.NoError(t, r.Init())
	require.NoError(t, r.Start())
	log.take()

	backend.beginErr = errors.New("surface outdated")
	require.Error(t, r.Frame(0.016))
	assert.Equal(t, []string{"update", "begin", "abort"}, log.take())
	assert.Equal(t, StateRendering, r.State())
	assert.Equal(t, uint64(0), r.FrameCount())

	backend.beginErr = nil
	require.NoError(t, r.Frame(0.016))
	assert.Equal(t, uint64(1), r.FrameCount())
}

func TestDirtyNeverSkipsFrames(t *testing.T) {
	r, _, _, log := newTestRenderer(t)
	require.NoError(t, r.Init())
	require.NoError(t, r.Start())
	log.take()

	assert.False(t, r.Dirty())
	require.NoError(t, r.Frame(0.016))
	assert.Contains(t, log.take(), "draw")

	r.MarkDirty()
	assert.True(t, r.Dirty())
	require.NoError(t, r.Frame(0.016))
	assert.False(t, r.Dirty())
}

func TestClearColor(t *testing.T) {
	r, backend, _, _ := newTestRenderer(t, WithClearColor(wgpu.Color{R: 0.2, A: 1}))
	require.NoError(t, r.Init())
	require.NoError(t, r.Start())

	require.NoError(t, r.Frame(0.016))
	assert.Equal(t, wgpu.Color{R: 0.2, A: 1}, backend.clear)

	r.SetClearColor(wgpu.Color{B: 0.5, A: 1})
	assert.True(t, r.Dirty())
	require.NoError(t, r.Frame(0.016))
	assert.Equal(t, wgpu.Color{B: 0.5, A: 1}, backend.clear)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateUninitialized, StateInitializing))
	assert.True(t, CanTransition(StateRendering, StateReady))
	assert.False(t, CanTransition(StateDestroyed, StateReady))
	assert.False(t, CanTransition(StateFailed, StateRendering))
	assert.Equal(t, "rendering", StateRendering.String())
	assert.Equal(t, "State(42)", State(42).String())
}

type recordingCamera struct {
	camera.Camera
	log *callLog
}

func (c *recordingCamera) Orbit(deltaYaw, deltaPitch float32) {
	c.log.add("orbit")
	c.Camera.Orbit(deltaYaw, deltaPitch)
}

func (c *recordingCamera) UpdateViewMatrix() {
	c.log.add("view")
	c.Camera.UpdateViewMatrix()
}

func TestFrameAppliesDragBeforeMatrices(t *testing.T) {
	log := &callLog{}
	inner, err := camera.NewCamera()
	require.NoError(t, err)
	cam := &recordingCamera{Camera: inner, log: log}
	cc := camera.NewCameraController(cam)

	s := scene.NewScene("test")
	r := NewRenderer(s, cam, WithBackend(&fakeBackend{log: log}), WithSize(800, 600), WithController(cc))
	require.NoError(t, r.Init())
	require.NoError(t, r.Start())

	before := inner.ViewMatrix()
	cc.BeginDrag(0, 0)
	cc.CursorMoved(40, 10)
	cc.EndDrag()
	log.take()

	require.NoError(t, r.Frame(0.016))
	calls := log.take()
	orbit, view := -1, -1
	for i, c := range calls {
		if c == "orbit" && orbit < 0 {
			orbit = i
		}
		if c == "view" && view < 0 {
			view = i
		}
	}
	require.GreaterOrEqual(t, orbit, 0, "drag applied during the frame")
	require.GreaterOrEqual(t, view, 0)
	assert.Less(t, orbit, view, "drag lands before the view matrix refresh")
	assert.NotEqual(t, before, inner.ViewMatrix())
}
