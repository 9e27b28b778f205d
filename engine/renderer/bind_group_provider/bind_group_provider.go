package bind_group_provider

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrMissingResource is returned by Entries when a layout slot has no resource assigned yet.
var ErrMissingResource = errors.New("bind group resource missing")

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label used for GPU object names.
	label string

	// layoutEntries describes the slots of the bind group, sorted by binding.
	layoutEntries []wgpu.BindGroupLayoutEntry

	// The following fields are GPU allocated resources. Buffers, the bind group, the layout and the
	// geometry buffers are owned and released by the provider. Texture views and samplers are borrowed
	// from their owner (a texture set or the cloud volume) and are never released here.

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	buffers         map[int]*wgpu.Buffer
	textureViews    map[int]*wgpu.TextureView
	samplers        map[int]*wgpu.Sampler

	// bound is a snapshot of the entries the current bind group was created from.
	bound []wgpu.BindGroupEntry
	// stale is set whenever a resource changes after the bind group was built.
	stale bool

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
	vertexCount  int
}

// BindGroupProvider holds the GPU resources a single drawable binds for one bind group slot,
// together with its geometry buffers.
//
// Usage pattern:
//  1. The drawable creates a provider with the layout entries parsed from its shader
//  2. It assigns textures and samplers, and lets gpu.InitBindGroup create the buffers
//  3. It reads BindGroup() when drawing; a stale provider must be rebuilt before use
type BindGroupProvider interface {
	// Release releases the GPU resources owned by this provider.
	Release()

	// Label returns the debug label for this provider.
	Label() string

	// LayoutEntries returns the slots described by this provider, sorted by binding.
	LayoutEntries() []wgpu.BindGroupLayoutEntry

	// BindGroup returns the bind group built from the current resources, or nil before the first build.
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created against.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer bound at the given binding, or nil.
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the texture view assigned to the given binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler assigned to the given binding, or nil.
	Sampler(binding int) *wgpu.Sampler

	// BoundTextureView returns the texture view the current bind group references at the given binding.
	// This differs from TextureView while the provider is stale.
	BoundTextureView(binding int) *wgpu.TextureView

	// Stale reports whether a resource changed since the bind group was built.
	Stale() bool

	// Entries assembles bind group entries from the layout and the assigned resources.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: one entry per layout slot, in binding order
	//   - error: ErrMissingResource if any slot has no resource
	Entries() ([]wgpu.BindGroupEntry, error)

	VertexBuffer() *wgpu.Buffer
	IndexBuffer() *wgpu.Buffer
	IndexCount() int
	VertexCount() int

	// SetBindGroup stores a freshly built bind group and the entries it was built from, clearing the stale flag.
	// The previous bind group is released.
	SetBindGroup(bg *wgpu.BindGroup, entries []wgpu.BindGroupEntry)

	// DetachBindGroup hands the current bind group to the caller without releasing it and marks the
	// provider stale. The caller releases it once no recorded frame can still reference it.
	//
	// Returns:
	//   - *wgpu.BindGroup: the detached bind group, or nil if none was built
	DetachBindGroup() *wgpu.BindGroup

	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)
	SetBuffer(binding int, buf *wgpu.Buffer)
	SetTextureView(binding int, tv *wgpu.TextureView)
	SetSampler(binding int, s *wgpu.Sampler)
	SetVertexBuffer(buf *wgpu.Buffer)
	SetIndexBuffer(buf *wgpu.Buffer)
	SetIndexCount(count int)
	SetVertexCount(count int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider for the given layout entries.
//
// Parameters:
//   - label: the debug label used for GPU object names
//   - options: functional options applied after defaults
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	sort.Slice(p.layoutEntries, func(i, j int) bool {
		return p.layoutEntries[i].Binding < p.layoutEntries[j].Binding
	})
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) LayoutEntries() []wgpu.BindGroupLayoutEntry {
	return p.layoutEntries
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) BoundTextureView(binding int) *wgpu.TextureView {
	for _, e := range p.bound {
		if int(e.Binding) == binding {
			return e.TextureView
		}
	}
	return nil
}

func (p *bindGroupProvider) Stale() bool {
	return p.stale
}

func (p *bindGroupProvider) Entries() ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(p.layoutEntries))
	for _, le := range p.layoutEntries {
		binding := int(le.Binding)
		switch {
		case le.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			tv := p.textureViews[binding]
			if tv == nil {
				return nil, fmt.Errorf("%s: texture binding %d: %w", p.label, binding, ErrMissingResource)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: le.Binding, TextureView: tv})
		case le.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			s := p.samplers[binding]
			if s == nil {
				return nil, fmt.Errorf("%s: sampler binding %d: %w", p.label, binding, ErrMissingResource)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: le.Binding, Sampler: s})
		default:
			buf := p.buffers[binding]
			if buf == nil {
				return nil, fmt.Errorf("%s: buffer binding %d: %w", p.label, binding, ErrMissingResource)
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: le.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			})
		}
	}
	return entries, nil
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) VertexCount() int {
	return p.vertexCount
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup, entries []wgpu.BindGroupEntry) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.bound = append(p.bound[:0], entries...)
	p.stale = false
}

func (p *bindGroupProvider) DetachBindGroup() *wgpu.BindGroup {
	bg := p.bindGroup
	p.bindGroup = nil
	p.stale = true
	return bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if p.buffers[binding] != buf {
		p.stale = true
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	if p.textureViews[binding] != tv {
		p.stale = true
	}
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	if p.samplers[binding] != s {
		p.stale = true
	}
	p.samplers[binding] = s
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	if p.vertexBuffer != nil && p.vertexBuffer != buf {
		p.vertexBuffer.Release()
	}
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	if p.indexBuffer != nil && p.indexBuffer != buf {
		p.indexBuffer.Release()
	}
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) SetVertexCount(count int) {
	p.vertexCount = count
}

func (p *bindGroupProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	clear(p.textureViews)
	clear(p.samplers)
	p.bound = nil

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}
