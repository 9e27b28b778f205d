package engine

import (
	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/config"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
	"github.com/Carmen-Shannon/oxy-globe/engine/window"
	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
	"github.com/cogentcore/webgpu/wgpu"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithConfigPath watches the configuration file while Run is active and applies valid edits.
//
// Parameters:
//   - path: the file the configuration was loaded from
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfigPath(path string) EngineBuilderOption {
	return func(e *engine) {
		e.configPath = path
	}
}

// WithWorkerPool shares a worker pool with the scene, the CPU density field and the terrain mesh.
func WithWorkerPool(pool worker_pool.WorkerPool) EngineBuilderOption {
	return func(e *engine) {
		e.pool = pool
	}
}

// WithProfiler overrides the profiler used when profiling is enabled.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

func contextOptions(cfg config.Config) []gpu.ContextBuilderOption {
	mode := gpu.PresentModeVSync
	if cfg.Render.PresentMode == "uncapped" {
		mode = gpu.PresentModeUncapped
	}
	msaa := gpu.MSAAOff
	if cfg.Render.MSAA == int(gpu.MSAA4x) {
		msaa = gpu.MSAA4x
	}
	opts := []gpu.ContextBuilderOption{
		gpu.WithPresentMode(mode),
		gpu.WithMSAA(msaa),
		gpu.WithForceFallbackAdapter(cfg.Render.FallbackAdapter),
	}
	if cfg.Render.MaxTextureSize > 0 {
		opts = append(opts, gpu.WithMaxTextureDimension(cfg.Render.MaxTextureSize))
	}
	return opts
}

func cameraOptions(cfg config.Config) []camera.CameraBuilderOption {
	c := cfg.Camera
	opts := []camera.CameraBuilderOption{
		camera.WithPosition(common.Vec3(c.Position)),
		camera.WithTarget(common.Vec3(c.Target)),
		camera.WithFovDegrees(c.FovDegrees),
		camera.WithClipRange(c.Near, c.Far),
	}
	if c.Up != ([3]float32{}) {
		opts = append(opts, camera.WithUp(common.Vec3(c.Up)))
	}
	if cfg.Window.Height > 0 {
		opts = append(opts, camera.WithAspect(float32(cfg.Window.Width)/float32(cfg.Window.Height)))
	}
	return opts
}

func controllerOptions(cfg config.Config) []camera.CameraControllerOption {
	c := cfg.Camera
	return []camera.CameraControllerOption{
		camera.WithOrbitSpeed(c.OrbitSpeed),
		camera.WithZoomStep(c.ZoomStep),
		camera.WithMinDistance(c.MinDistance),
	}
}

func clearColor(cfg config.Config) wgpu.Color {
	c := cfg.Render.ClearColor
	return wgpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}
