package renderer

import (
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithContext sets the GPU context the default backend renders with.
// Ignored when WithBackend is also given.
//
// Parameters:
//   - c: the GPU context owning the surface
//
// Returns:
//   - RendererBuilderOption: a function that applies the context option to a renderer
func WithContext(c gpu.Context) RendererBuilderOption {
	return func(r *renderer) {
		r.gpu = c
	}
}

// WithBackend injects the backend directly instead of creating one from the GPU context.
//
// Parameters:
//   - b: the backend to drive
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(b RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = b
	}
}

// WithController attaches the input controller whose pending deltas are applied each frame.
//
// Parameters:
//   - cc: the camera controller
//
// Returns:
//   - RendererBuilderOption: a function that applies the controller option to a renderer
func WithController(cc camera.CameraController) RendererBuilderOption {
	return func(r *renderer) {
		r.controller = cc
	}
}

// WithClearColor sets the color the render pass clears to. Defaults to opaque black.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(c wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithSize sets the initial surface size Init creates the attachments with.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.width, r.height = width, height
	}
}
