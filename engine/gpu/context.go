// Package gpu owns the single WGPU device used by the engine. A Context is created once at
// startup and handed to the renderer and to every drawable factory; nothing in the engine keeps
// device state in package-level variables.
package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoAdapter is returned when no compatible GPU adapter could be acquired.
	ErrNoAdapter = errors.New("gpu: no compatible adapter")
	// ErrNoDevice is returned when the adapter refused to create a device.
	ErrNoDevice = errors.New("gpu: device request failed")
	// ErrNoSurface is returned by surface operations on a headless context.
	ErrNoSurface = errors.New("gpu: context has no presentation surface")
	// ErrReleased is returned by operations on a released context.
	ErrReleased = errors.New("gpu: context released")
)

// PresentMode controls how frames are delivered to the display.
type PresentMode int

const (
	// PresentModeVSync waits for the display's vertical blank (FIFO).
	PresentModeVSync PresentMode = iota
	// PresentModeUncapped presents immediately without waiting for vsync.
	PresentModeUncapped
)

// MSAASampleCount is the number of samples per pixel of the main color and depth attachments.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
)

// Context is the explicit handle to the GPU device, its queue and the optional presentation surface.
// All drawables and the renderer read it; none of them reinitialize it.
type Context interface {
	// Device returns the logical device.
	Device() *wgpu.Device

	// Queue returns the device queue all submissions go through.
	Queue() *wgpu.Queue

	// Adapter returns the adapter the device was requested from.
	Adapter() *wgpu.Adapter

	// Surface returns the presentation surface, or nil for a headless context.
	Surface() *wgpu.Surface

	// SurfaceFormat returns the color format chosen for the surface. Headless contexts report RGBA8Unorm.
	SurfaceFormat() wgpu.TextureFormat

	// SampleCount returns the MSAA sample count render pipelines must be created with.
	SampleCount() uint32

	// Limits returns the limits the device was created with.
	Limits() wgpu.Limits

	// Configure (re)configures the presentation surface for the given size.
	// It is called once at startup and again after every resize.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//
	// Returns:
	//   - error: ErrNoSurface for headless contexts, or an error if the surface reports no formats
	Configure(width, height int) error

	// Size returns the dimensions the surface was last configured with.
	Size() (width, height int)

	// Release frees the device, adapter, surface and instance. Further use of the context is invalid.
	Release()
}

type contextImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount
	limits        wgpu.Limits

	forceFallbackAdapter bool
	width, height        int
	released             bool
}

var _ Context = &contextImpl{}

// NewContext acquires an adapter and a device. When surfaceDescriptor is nil the context is
// headless, which is enough for compute work and tests.
// The calling goroutine is locked to its OS thread, as the windowing layer requires.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window, or nil
//   - opts: functional options such as WithPresentMode or WithMSAA
//
// Returns:
//   - Context: the initialized context
//   - error: ErrNoAdapter or ErrNoDevice wrapped with the driver error
func NewContext(surfaceDescriptor *wgpu.SurfaceDescriptor, opts ...ContextBuilderOption) (Context, error) {
	runtime.LockOSThread()

	c := &contextImpl{
		mu:            &sync.Mutex{},
		presentMode:   wgpu.PresentModeFifo,
		sampleCount:   MSAA4x,
		surfaceFormat: wgpu.TextureFormatRGBA8Unorm,
		limits:        wgpu.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.instance = wgpu.CreateInstance(nil)
	if surfaceDescriptor != nil {
		c.surface = c.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: c.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil || a == nil {
		c.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	c.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Globe Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: c.limits,
		},
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	c.device = d
	c.queue = d.GetQueue()

	slog.Info("gpu context ready", "headless", c.surface == nil, "msaa", uint32(c.sampleCount))
	return c, nil
}

func (c *contextImpl) Configure(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return ErrReleased
	}
	if c.surface == nil {
		return ErrNoSurface
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("gpu: invalid surface size %dx%d", width, height)
	}

	capabilities := c.surface.GetCapabilities(c.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("gpu: surface reports no supported formats")
	}
	c.surfaceFormat = capabilities.Formats[0]

	alphaMode := wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}

	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: c.presentMode,
		AlphaMode:   alphaMode,
	})
	c.width, c.height = width, height

	return nil
}

func (c *contextImpl) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *contextImpl) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return
	}
	c.released = true

	if c.device != nil {
		c.device.Release()
		c.device = nil
		c.queue = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}

func (c *contextImpl) Device() *wgpu.Device {
	return c.device
}

func (c *contextImpl) Queue() *wgpu.Queue {
	return c.queue
}

func (c *contextImpl) Adapter() *wgpu.Adapter {
	return c.adapter
}

func (c *contextImpl) Surface() *wgpu.Surface {
	return c.surface
}

func (c *contextImpl) SurfaceFormat() wgpu.TextureFormat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surfaceFormat
}

func (c *contextImpl) SampleCount() uint32 {
	return uint32(c.sampleCount)
}

func (c *contextImpl) Limits() wgpu.Limits {
	return c.limits
}

// wgpuPresentMode maps the engine present mode onto the WGPU enum.
func wgpuPresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeUncapped:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}
