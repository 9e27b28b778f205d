package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/bridge"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/config"
	"github.com/Carmen-Shannon/oxy-globe/engine/drawable"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/Carmen-Shannon/oxy-globe/engine/loader"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer"
	"github.com/Carmen-Shannon/oxy-globe/engine/scene"
	"github.com/Carmen-Shannon/oxy-globe/engine/window"
	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
	"golang.org/x/sync/errgroup"
)

// Engine owns the window, the GPU context and every engine component, and runs the frame
// loop. Window events are pumped on the calling goroutine; frames render on their own.
type Engine interface {
	// Window returns the native window.
	Window() window.Window

	// GPU returns the explicit GPU context.
	GPU() gpu.Context

	// Renderer returns the frame loop.
	Renderer() renderer.Renderer

	// Scene returns the drawable registry.
	Scene() scene.Scene

	// Camera returns the shared camera.
	Camera() camera.Camera

	// Globe returns the textured sphere.
	Globe() drawable.Sphere

	// Bridge returns the chat bridge, or nil when it is disabled.
	Bridge() bridge.Bridge

	// Apply queues a reloaded configuration. Live-tunable values (orbit speed, clear color,
	// cloud time step, frame limit, profiling) take effect at the start of the next frame.
	Apply(cfg config.Config)

	// Run renders until the window closes, ctx is done or Quit is called, then releases
	// every resource. It must be called from the goroutine that created the engine.
	//
	// Returns:
	//   - error: the first error from the bridge or the config watcher
	Run(ctx context.Context) error

	// Quit stops Run. Safe to call multiple times.
	Quit()
}

type engine struct {
	mu *sync.Mutex

	cfg        config.Config
	configPath string

	window     window.Window
	gpu        gpu.Context
	pool       worker_pool.WorkerPool
	cam        camera.Camera
	controller camera.CameraController
	scene      scene.Scene
	renderer   renderer.Renderer
	loader     loader.Loader
	bridge     bridge.Bridge
	profiler   *profiler.Profiler

	globe   drawable.Sphere
	clouds  drawable.Cloud
	terrain drawable.Plane

	frameLimit time.Duration
	profiling  bool
	pending    *config.Config

	quit     chan struct{}
	quitOnce sync.Once
}

var _ Engine = &engine{}

// NewEngine opens the window, creates the GPU context and builds the globe scene described
// by cfg. Globe texture and terrain failures are logged and skipped; everything else is fatal.
//
// Parameters:
//   - ctx: cancels texture and raster loading
//   - cfg: a validated configuration
//   - options: functional options such as WithWindow or WithConfigPath
//
// Returns:
//   - Engine: the engine, ready to Run
//   - error: an error if a required component could not be created
func NewEngine(ctx context.Context, cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:        &sync.Mutex{},
		cfg:       cfg,
		profiling: cfg.Render.Profile,
		quit:      make(chan struct{}),
	}
	e.frameLimit = frameDuration(cfg.Render.FrameLimit)
	for _, opt := range options {
		opt(e)
	}

	if err := e.init(ctx); err != nil {
		e.release()
		return nil, err
	}
	return e, nil
}

func (e *engine) init(ctx context.Context) error {
	cfg := e.cfg
	var err error

	if e.window == nil {
		e.window, err = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
			window.WithSizeLimits(cfg.Window.MinWidth, cfg.Window.MinHeight, cfg.Window.MaxWidth, cfg.Window.MaxHeight),
		)
		if err != nil {
			return err
		}
	}

	e.gpu, err = gpu.NewContext(e.window.SurfaceDescriptor(), contextOptions(cfg)...)
	if err != nil {
		return err
	}

	e.cam, err = camera.NewCamera(cameraOptions(cfg)...)
	if err != nil {
		return err
	}
	e.controller = camera.NewCameraController(e.cam, controllerOptions(cfg)...)

	if e.pool == nil {
		e.pool = worker_pool.NewWorkerPool(0)
	}
	e.scene = scene.NewScene("globe", scene.WithWorkerPool(e.pool))

	// The surface must be configured before any pipeline is built, since pipelines target
	// its format.
	e.renderer = renderer.NewRenderer(e.scene, e.cam,
		renderer.WithContext(e.gpu),
		renderer.WithController(e.controller),
		renderer.WithClearColor(clearColor(cfg)),
		renderer.WithSize(e.window.Width(), e.window.Height()),
	)
	if err := e.renderer.Init(); err != nil {
		return err
	}

	e.loader = loader.NewLoader(loader.WithMaxTextureSize(e.gpu.Limits().MaxTextureDimension2D))

	if err := e.buildGlobe(ctx); err != nil {
		return err
	}
	if cfg.Clouds.Enabled {
		if err := e.buildClouds(); err != nil {
			return err
		}
	}
	if cfg.Terrain.Raster != "" {
		if err := e.buildTerrain(ctx); err != nil {
			slog.Error("terrain disabled", "raster", cfg.Terrain.Raster, "error", err)
		}
	}

	if cfg.Bridge.Listen != "" {
		e.bridge = bridge.NewBridge(64)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(time.Second)
	}

	e.bindInput()
	return nil
}

func (e *engine) buildGlobe(ctx context.Context) error {
	cfg := e.cfg.Globe
	globe, err := drawable.NewSphere(e.gpu,
		drawable.WithSphereRadius(cfg.Radius),
		drawable.WithSphereSegments(cfg.Segments),
		drawable.WithTextureSource(e.loader),
		drawable.WithVideoFrameRate(cfg.VideoFPS),
	)
	if err != nil {
		return fmt.Errorf("create globe: %w", err)
	}
	e.globe = globe
	e.scene.Add(globe)

	// Decode images concurrently; the loader caches them so the ordered pass below only
	// uploads. Textures are appended in configuration order.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, t := range cfg.Textures {
		if t.Video {
			continue
		}
		g.Go(func() error {
			if _, err := e.loader.LoadImage(gctx, t.URL); err != nil {
				slog.Warn("texture prefetch failed", "url", t.URL, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, t := range cfg.Textures {
		if err := globe.LoadTexture(ctx, t.URL, t.Video); err != nil {
			slog.Error("globe texture skipped", "url", t.URL, "video", t.Video, "error", err)
		}
	}
	return nil
}

func (e *engine) buildClouds() error {
	cfg := e.cfg.Clouds
	opts := []drawable.CloudBuilderOption{
		drawable.WithFieldSize(cfg.FieldSize),
		drawable.WithTimeStep(cfg.TimeStep),
		drawable.WithMaskRadius(cfg.MaskRadius),
		drawable.WithOctaves(cfg.Octaves),
		drawable.WithAlphaScale(cfg.AlphaScale),
		drawable.WithPointGrid(cfg.PointGrid),
		drawable.WithRaySteps(cfg.RaySteps),
		drawable.WithCloudPosition(common.Vec3(cfg.Position)),
		drawable.WithCloudScale(cfg.Scale),
	}
	if cfg.CPUDensity {
		opts = append(opts, drawable.WithCPUDensity(e.pool))
	}
	if cfg.Seed != 0 {
		opts = append(opts, drawable.WithCloudRand(rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))))
	}
	clouds, err := drawable.NewCloud(e.gpu, opts...)
	if err != nil {
		return fmt.Errorf("create clouds: %w", err)
	}
	e.clouds = clouds
	e.scene.Add(clouds)
	return nil
}

func (e *engine) buildTerrain(ctx context.Context) error {
	cfg := e.cfg.Terrain
	raster, err := e.loader.LoadRaster(ctx, cfg.Raster)
	if err != nil {
		return err
	}
	terrain, err := drawable.NewPlane(e.gpu,
		drawable.WithPlaneSize(cfg.Size, cfg.Size),
		drawable.WithPlaneSegments(cfg.Segments, cfg.Segments),
		drawable.WithPlanePosition(common.Vec3(cfg.Position)),
		drawable.WithHeightScale(cfg.HeightScale),
		drawable.WithPlaneWorkerPool(e.pool),
	)
	if err != nil {
		return err
	}
	if err := terrain.ApplyElevation(raster); err != nil {
		terrain.Release()
		return err
	}
	lo, hi := terrain.HeightRange()
	slog.Info("terrain built", "raster", cfg.Raster, "min", lo, "max", hi)
	e.terrain = terrain
	e.scene.Add(terrain)
	return nil
}

// bindInput routes window events to the camera controller, the renderer and the globe.
func (e *engine) bindInput() {
	e.window.SetResizeCallback(e.renderer.Resize)
	e.window.SetScrollCallback(e.controller.Scroll)
	e.window.SetCursorCallback(e.controller.CursorMoved)
	e.window.SetDragCallback(func(pressed bool, x, y float64) {
		if pressed {
			e.controller.BeginDrag(x, y)
			return
		}
		e.controller.EndDrag()
	})
	e.window.SetKeyCallback(func(key int) {
		handleKey(key, e.controller, e.globe, e.resetCamera)
	})
}

// textureCycler is the part of the globe the keyboard drives.
type textureCycler interface {
	NextTexture()
	PrevTexture()
}

// handleKey maps Q/E to texture cycling, Space to a camera reset and everything else to the
// controller's movement keys.
func handleKey(key int, cc camera.CameraController, globe textureCycler, reset func()) bool {
	switch key {
	case common.KeyQ:
		if globe != nil {
			globe.NextTexture()
		}
		return true
	case common.KeyE:
		if globe != nil {
			globe.PrevTexture()
		}
		return true
	case common.KeySpace:
		reset()
		return true
	}
	return cc.Key(key)
}

func (e *engine) resetCamera() {
	e.cam.CancelAnimation()
	e.cam.SetPosition(common.Vec3(e.cfg.Camera.Position))
	e.cam.LookAt(common.Vec3(e.cfg.Camera.Target))
}

func (e *engine) Window() window.Window       { return e.window }
func (e *engine) GPU() gpu.Context            { return e.gpu }
func (e *engine) Renderer() renderer.Renderer { return e.renderer }
func (e *engine) Scene() scene.Scene          { return e.scene }
func (e *engine) Camera() camera.Camera       { return e.cam }
func (e *engine) Globe() drawable.Sphere      { return e.globe }
func (e *engine) Bridge() bridge.Bridge       { return e.bridge }

func (e *engine) Apply(cfg config.Config) {
	e.mu.Lock()
	e.pending = &cfg
	e.mu.Unlock()
}

// applyPending installs a queued configuration on the render goroutine.
func (e *engine) applyPending() {
	e.mu.Lock()
	cfg := e.pending
	e.pending = nil
	e.mu.Unlock()
	if cfg == nil {
		return
	}

	e.controller.SetOrbitSpeed(cfg.Camera.OrbitSpeed)
	if e.renderer != nil {
		e.renderer.SetClearColor(clearColor(*cfg))
	}
	if e.clouds != nil {
		e.clouds.SetTimeStep(cfg.Clouds.TimeStep)
	}
	e.frameLimit = frameDuration(cfg.Render.FrameLimit)
	e.profiling = cfg.Render.Profile
	slog.Info("live configuration applied",
		"orbit_speed", cfg.Camera.OrbitSpeed,
		"cloud_time_step", cfg.Clouds.TimeStep,
		"frame_limit", cfg.Render.FrameLimit,
	)
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quit)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

func (e *engine) Run(ctx context.Context) error {
	defer e.release()

	if err := e.renderer.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.renderLoop(gctx)
		return nil
	})

	if e.bridge != nil {
		g.Go(func() error {
			return e.bridge.ListenAndServe(gctx, e.cfg.Bridge.Listen)
		})
		g.Go(func() error {
			interval := time.Duration(e.cfg.Bridge.BroadcastIntervalMS) * time.Millisecond
			e.bridge.Publish(gctx, interval, func() bridge.CameraState { return bridge.StateOf(e.cam) })
			return nil
		})
	}

	if e.configPath != "" {
		g.Go(func() error {
			return e.watchConfig(gctx)
		})
	}

	// GLFW events must be pumped on the thread that created the window.
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
pump:
	for e.window.PollEvents() {
		select {
		case <-gctx.Done():
			break pump
		case <-e.quit:
			break pump
		case <-ticker.C:
		}
	}

	cancel()
	err := g.Wait()
	if stopErr := e.renderer.Stop(); stopErr != nil && !errors.Is(stopErr, renderer.ErrInvalidTransition) {
		slog.Warn("renderer stop", "error", stopErr)
	}
	return err
}

func (e *engine) watchConfig(ctx context.Context) error {
	return config.Watch(ctx, e.configPath, e.Apply)
}

// renderLoop renders frames until ctx is done. Bridge commands and reloaded configuration are
// applied between frames so they never race the frame's reads.
func (e *engine) renderLoop(ctx context.Context) {
	last := time.Now()
	for ctx.Err() == nil {
		start := time.Now()
		dt := float32(start.Sub(last).Seconds())
		last = start

		e.applyPending()
		e.drainCommands()

		if err := e.renderer.Frame(dt); err != nil && errors.Is(err, renderer.ErrNotReady) {
			return
		}

		if e.profiling {
			e.profiler.Tick()
		}

		if e.frameLimit > 0 {
			if remaining := e.frameLimit - time.Since(start); remaining > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(remaining):
				}
			}
		}
	}
}

func (e *engine) drainCommands() {
	if e.bridge == nil {
		return
	}
	for {
		select {
		case cmd := <-e.bridge.Commands():
			if err := bridge.Execute(cmd, e.cam, e.scene); err != nil {
				slog.Warn("bridge command rejected", "type", cmd.Type, "error", err)
				continue
			}
			e.renderer.MarkDirty()
		default:
			return
		}
	}
}

// release tears everything down in reverse creation order. Safe on a partially built engine.
func (e *engine) release() {
	if e.bridge != nil {
		e.bridge.Close()
	}
	if e.renderer != nil {
		e.renderer.Destroy()
	} else if e.scene != nil {
		e.scene.Clear()
	}
	if e.gpu != nil {
		e.gpu.Release()
		e.gpu = nil
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			slog.Debug("window close", "error", err)
		}
	}
}

func frameDuration(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}
