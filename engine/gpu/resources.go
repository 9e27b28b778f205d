package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// align4 rounds n up to a multiple of 4, the granularity of queue buffer writes.
func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

// NewBuffer creates an uninitialized buffer. CopyDst is always added so the buffer can be written through the queue.
//
// Parameters:
//   - c: the GPU context
//   - label: the debug label
//   - usage: buffer usage flags
//   - size: size in bytes, rounded up to a multiple of 4
//
// Returns:
//   - *wgpu.Buffer: the created buffer
//   - error: an error if the device rejected the descriptor
func NewBuffer(c Context, label string, usage wgpu.BufferUsage, size uint64) (*wgpu.Buffer, error) {
	buf, err := c.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  align4(size),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %s: %w", label, err)
	}
	return buf, nil
}

// NewBufferInit creates a buffer and uploads data into it.
func NewBufferInit(c Context, label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := NewBuffer(c, label, usage, uint64(len(data)))
	if err != nil {
		return nil, err
	}
	WriteBuffer(c, buf, 0, data)
	return buf, nil
}

// WriteBuffer enqueues a write of data at offset. Data is zero-padded to a multiple of 4 bytes.
func WriteBuffer(c Context, buf *wgpu.Buffer, offset uint64, data []byte) {
	if buf == nil || len(data) == 0 {
		return
	}
	if n := align4(uint64(len(data))); n != uint64(len(data)) {
		padded := make([]byte, n)
		copy(padded, data)
		data = padded
	}
	c.Queue().WriteBuffer(buf, offset, data)
}

// InitMeshBuffers uploads vertex and index data and stores the buffers and counts on the provider.
//
// Parameters:
//   - c: the GPU context
//   - provider: the provider receiving the geometry buffers
//   - vertexData: raw vertex bytes
//   - vertexCount: number of vertices in vertexData, used for non-indexed draws
//   - indices: uint32 indices, or nil for non-indexed geometry
//
// Returns:
//   - error: an error if a buffer could not be created
func InitMeshBuffers(c Context, provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indices []uint32) error {
	if len(vertexData) > 0 {
		vb, err := NewBufferInit(c, provider.Label()+" Vertex Buffer", wgpu.BufferUsageVertex, vertexData)
		if err != nil {
			return err
		}
		provider.SetVertexBuffer(vb)
	}
	provider.SetVertexCount(vertexCount)

	if len(indices) > 0 {
		ib, err := NewBufferInit(c, provider.Label()+" Index Buffer", wgpu.BufferUsageIndex, common.SliceToBytes(indices))
		if err != nil {
			return err
		}
		provider.SetIndexBuffer(ib)
	}
	provider.SetIndexCount(len(indices))

	return nil
}

// NewTexture2D creates an RGBA8 texture sized to the staging data and uploads its pixels.
//
// Returns:
//   - *wgpu.Texture: the texture, kept for later WriteTexture2D calls
//   - *wgpu.TextureView: a default view of the texture
//   - error: an error if the staging data is inconsistent or creation failed
func NewTexture2D(c Context, label string, staging common.TextureStagingData) (*wgpu.Texture, *wgpu.TextureView, error) {
	if staging.Width == 0 || staging.Height == 0 {
		return nil, nil, fmt.Errorf("texture %s: empty image", label)
	}
	if max2D := c.Limits().MaxTextureDimension2D; max2D > 0 && (staging.Width > max2D || staging.Height > max2D) {
		return nil, nil, fmt.Errorf("texture %s: %dx%d exceeds device limit %d", label, staging.Width, staging.Height, max2D)
	}

	tex, err := c.Device().CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	if err := WriteTexture2D(c, tex, staging); err != nil {
		tex.Release()
		return nil, nil, err
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create texture view %s: %w", label, err)
	}
	return tex, view, nil
}

// WriteTexture2D replaces the full contents of an RGBA8 texture. Video sources call this once per decoded frame.
func WriteTexture2D(c Context, tex *wgpu.Texture, staging common.TextureStagingData) error {
	if want := int(staging.Width * staging.Height * 4); len(staging.Pixels) != want {
		return fmt.Errorf("texture upload: got %d bytes, want %d for %dx%d", len(staging.Pixels), want, staging.Width, staging.Height)
	}
	c.Queue().WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staging.Width * 4,
			RowsPerImage: staging.Height,
		},
		&wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

// NewDensityTexture creates the n*n*n single-channel float texture the cloud raymarcher reads.
// It is a copy destination for the density storage buffer and a copy source for debug readback.
func NewDensityTexture(c Context, label string, n uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := c.Device().CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
		Dimension: wgpu.TextureDimension3D,
		Size: wgpu.Extent3D{
			Width:              n,
			Height:             n,
			DepthOrArrayLayers: n,
		},
		Format:        wgpu.TextureFormatR32Float,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create density texture: %w", err)
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           label + " View",
		Format:          wgpu.TextureFormatR32Float,
		Dimension:       wgpu.TextureViewDimension3D,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create density texture view: %w", err)
	}
	return tex, view, nil
}

// NewSampler creates a sampler. Zero fields fall back to linear filtering with repeat addressing.
func NewSampler(c Context, label string, s common.SamplerStagingData) (*wgpu.Sampler, error) {
	samp, err := c.Device().CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler %s: %w", label, err)
	}
	return samp, nil
}

// InitBindGroup creates any missing buffers described by the provider's layout, then (re)builds
// the bind group from the provider's current resources. It is called again whenever a texture or
// sampler assignment changes, so a bind group never references a resource the provider dropped.
//
// Parameters:
//   - c: the GPU context
//   - provider: the provider holding layout entries and resources
//   - usageOverrides: extra usage flags per buffer binding (e.g. CopySrc for the density buffer)
//   - sizeOverrides: buffer sizes per binding, for runtime-sized arrays
//
// Returns:
//   - error: bind_group_provider.ErrMissingResource if a texture or sampler is not assigned yet
func InitBindGroup(c Context, provider bind_group_provider.BindGroupProvider, usageOverrides map[int]wgpu.BufferUsage, sizeOverrides map[int]uint64) error {
	layoutEntries := provider.LayoutEntries()
	if len(layoutEntries) == 0 {
		return nil
	}

	if provider.BindGroupLayout() == nil {
		layout, err := c.Device().CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   provider.Label() + " Layout",
			Entries: layoutEntries,
		})
		if err != nil {
			return fmt.Errorf("create bind group layout %s: %w", provider.Label(), err)
		}
		provider.SetBindGroupLayout(layout)
	}

	for _, entry := range layoutEntries {
		if entry.Buffer.Type == wgpu.BufferBindingTypeUndefined {
			continue
		}
		binding := int(entry.Binding)
		if provider.Buffer(binding) != nil {
			continue
		}
		var usage wgpu.BufferUsage
		switch entry.Buffer.Type {
		case wgpu.BufferBindingTypeUniform:
			usage = wgpu.BufferUsageUniform
		default:
			usage = wgpu.BufferUsageStorage
		}
		usage |= usageOverrides[binding]

		size := entry.Buffer.MinBindingSize
		if override, ok := sizeOverrides[binding]; ok {
			size = override
		}
		buf, err := NewBuffer(c, fmt.Sprintf("%s Buffer %d", provider.Label(), binding), usage, size)
		if err != nil {
			return err
		}
		provider.SetBuffer(binding, buf)
	}

	entries, err := provider.Entries()
	if err != nil {
		return err
	}
	bindGroup, err := c.Device().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  provider.BindGroupLayout(),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group %s: %w", provider.Label(), err)
	}
	provider.SetBindGroup(bindGroup, entries)

	return nil
}
