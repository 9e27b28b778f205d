package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBackend owns the frame attachments and the per-frame GPU objects.
// The Renderer drives it in a fixed order each frame: BeginFrame, BeginPass, EndFrame, Present.
// A frame that fails part way is cleaned up with AbortFrame.
type RendererBackend interface {
	// Resize reconfigures the surface and recreates the depth and MSAA attachments so their
	// dimensions always equal the color surface's.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the surface or an attachment could not be recreated
	Resize(width, height int) error

	// AttachmentSize returns the dimensions the depth attachment was last created with.
	AttachmentSize() (width, height int)

	// BeginFrame acquires the next surface texture and opens the frame's command encoder.
	// Compute work is recorded into the encoder before BeginPass.
	//
	// Returns:
	//   - *wgpu.CommandEncoder: the frame encoder
	//   - error: an error if a frame is already open or the surface texture is unavailable
	BeginFrame() (*wgpu.CommandEncoder, error)

	// BeginPass begins the render pass, clearing color and depth.
	//
	// Parameters:
	//   - clear: the color the color attachment is cleared to
	//
	// Returns:
	//   - *wgpu.RenderPassEncoder: the open render pass
	//   - error: an error if no frame is open
	BeginPass(clear wgpu.Color) (*wgpu.RenderPassEncoder, error)

	// EndFrame ends the render pass, finishes the encoder and submits the command buffer.
	//
	// Returns:
	//   - error: an error if the encoder could not be finished
	EndFrame() error

	// Present shows the submitted frame and releases the surface texture.
	Present()

	// AbortFrame releases whatever the current frame holds without submitting it.
	AbortFrame()

	// Release frees the attachments.
	Release()
}
