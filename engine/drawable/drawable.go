// Package drawable holds the closed set of objects the renderer can draw: the textured globe
// sphere, the elevation plane, the cloud volume and debug primitives. Each one owns its
// geometry buffers, its uniform buffer, its bind groups and its pipelines.
package drawable

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// Kind names one of the drawable variants.
type Kind int

const (
	// KindSphere is the textured globe.
	KindSphere Kind = iota

	// KindPlane is the elevation-driven terrain grid.
	KindPlane

	// KindCloud is the compute-generated, ray-marched cloud volume.
	KindCloud

	// KindDebug is a colored triangle or axes gizmo.
	KindDebug
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindPlane:
		return "plane"
	case KindCloud:
		return "cloud"
	case KindDebug:
		return "debug"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrNoTextureSource is returned by LoadTexture when the sphere was built without a source.
	ErrNoTextureSource = errors.New("drawable: no texture source configured")

	// ErrFieldSizeMismatch is returned when the density field size cannot be tiled by the compute
	// workgroup or copied row-aligned into the 3D texture.
	ErrFieldSizeMismatch = errors.New("drawable: density field size mismatch")
)

// Drawable is implemented by every variant. The scene dispatches through it each frame.
type Drawable interface {
	// Kind returns the variant of the drawable.
	Kind() Kind

	// Label returns the debug label used for GPU object names and logs.
	Label() string

	// Translucent reports whether the drawable blends over what is already drawn.
	// The scene draws translucent drawables after opaque ones.
	Translucent() bool

	// Update advances CPU-side state once per frame. It may run off the render thread and
	// must not touch the GPU queue.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	Update(dt float32)

	// Draw writes the camera matrices into the uniform buffer and records the draw call.
	// A drawable whose resources are not ready yet draws nothing and returns nil.
	//
	// Parameters:
	//   - pass: the open render pass
	//   - cam: the shared camera, with matrices already updated for this frame
	//
	// Returns:
	//   - error: an error if a GPU upload failed
	Draw(pass *wgpu.RenderPassEncoder, cam camera.Camera) error

	// Release frees every GPU resource the drawable owns.
	Release()
}

// Computer is implemented by drawables that record compute work before the render pass.
type Computer interface {
	// Compute records this frame's compute dispatch and copies into the frame encoder.
	//
	// Parameters:
	//   - encoder: the frame's command encoder; the render pass is recorded after this call
	//
	// Returns:
	//   - error: an error if the compute resources are unusable
	Compute(encoder *wgpu.CommandEncoder) error
}

// Rotator is implemented by drawables whose model matrix can be rotated.
type Rotator interface {
	// Rotate composes an axis-angle rotation onto the model matrix and uploads the model matrix
	// immediately, so several rotations between frames accumulate.
	//
	// Parameters:
	//   - axis: the rotation axis; a zero axis is ignored
	//   - angle: the angle in radians
	Rotate(axis common.Vec3, angle float32)

	// ModelMatrix returns a copy of the current model matrix.
	ModelMatrix() [16]float32
}

// Textured is implemented by drawables that display one of several loaded textures.
type Textured interface {
	// LoadTexture decodes an image, or opens a video stream, and adds it to the texture set.
	// The first texture loaded becomes active. Loading a URL that is already loaded is a no-op.
	//
	// Parameters:
	//   - ctx: cancels decoding
	//   - url: an http(s) URL or a file path
	//   - video: true to attach a streaming video source
	//
	// Returns:
	//   - error: a decode or upload error; the drawable keeps its previous textures
	LoadTexture(ctx context.Context, url string, video bool) error

	// SwitchTexture makes the texture at index active and rebuilds the bind group.
	// An out-of-range index is logged and returned, and the bind group is left unchanged.
	SwitchTexture(index int) error

	// NextTexture activates the next loaded texture, wrapping around.
	NextTexture()

	// PrevTexture activates the previous loaded texture, wrapping around.
	PrevTexture()

	// Textures returns the texture set.
	Textures() material.TextureSet
}

// TextureSource decodes textures for LoadTexture. The loader package provides the production
// implementation.
type TextureSource interface {
	// LoadImage fetches and decodes an image into RGBA pixels.
	LoadImage(ctx context.Context, url string) (common.TextureStagingData, error)

	// OpenVideo opens a video and returns a stream of decoded frames.
	OpenVideo(ctx context.Context, url string) (material.FrameStream, error)
}
