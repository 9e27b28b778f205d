package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	errFrameOpen   = errors.New("renderer: previous frame surface not yet presented")
	errNoFrameOpen = errors.New("renderer: no frame open")
)

type wgpuRendererBackend struct {
	mu *sync.Mutex

	gpu gpu.Context

	width, height    int
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView
	msaaTexture      *wgpu.Texture
	msaaTextureView  *wgpu.TextureView

	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
}

var _ RendererBackend = &wgpuRendererBackend{}

// NewWGPURendererBackend creates the backend that renders to the context's surface.
//
// Parameters:
//   - c: the GPU context; it must have a surface
//
// Returns:
//   - RendererBackend: the backend, without attachments until the first Resize
func NewWGPURendererBackend(c gpu.Context) RendererBackend {
	return &wgpuRendererBackend{
		mu:  &sync.Mutex{},
		gpu: c,
	}
}

func (b *wgpuRendererBackend) Resize(width, height int) error {
	if err := b.gpu.Configure(width, height); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseAttachments()

	count := b.gpu.SampleCount()
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	if count > 1 {
		// The render pass draws into the MSAA texture and resolves into the swapchain view.
		tex, err := b.gpu.Device().CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.gpu.SurfaceFormat(),
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("create msaa texture: %w", err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return fmt.Errorf("create msaa texture view: %w", err)
		}
		b.msaaTexture, b.msaaTextureView = tex, view
	}

	// Depth texture sample count must match the color attachment.
	tex, err := b.gpu.Device().CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        gpu.DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("create depth texture view: %w", err)
	}
	b.depthTexture, b.depthTextureView = tex, view
	b.width, b.height = width, height
	return nil
}

func (b *wgpuRendererBackend) AttachmentSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuRendererBackend) BeginFrame() (*wgpu.CommandEncoder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return nil, errFrameOpen
	}
	if b.depthTextureView == nil {
		return nil, errors.New("renderer: attachments not created, call Resize first")
	}

	surfaceTexture, err := b.gpu.Surface().GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, fmt.Errorf("create surface view: %w", err)
	}
	encoder, err := b.gpu.Device().CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Frame Encoder"})
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return nil, fmt.Errorf("create frame encoder: %w", err)
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameEncoder = encoder
	return encoder, nil
}

func (b *wgpuRendererBackend) BeginPass(clear wgpu.Color) (*wgpu.RenderPassEncoder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return nil, errNoFrameOpen
	}

	// With MSAA the multisampled texture is the color view and the swapchain view is the
	// resolve target. Without it the swapchain view is drawn to directly.
	color := wgpu.RenderPassColorAttachment{
		View:       b.frameView,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clear,
	}
	if b.msaaTextureView != nil {
		color.View = b.msaaTextureView
		color.ResolveTarget = b.frameView
		color.StoreOp = wgpu.StoreOpDiscard
	}

	b.framePass = b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	return b.framePass, nil
}

func (b *wgpuRendererBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrameOpen
	}
	if b.framePass != nil {
		b.framePass.End()
		b.framePass = nil
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseSurface()
		return fmt.Errorf("finish frame encoder: %w", err)
	}

	b.gpu.Queue().Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.gpu.Surface().Present()
	b.releaseSurface()
}

func (b *wgpuRendererBackend) AbortFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		b.framePass.End()
		b.framePass = nil
	}
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.releaseSurface()
}

func (b *wgpuRendererBackend) releaseSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackend) releaseAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuRendererBackend) Release() {
	b.AbortFrame()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseAttachments()
}
