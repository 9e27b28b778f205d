package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texturedLayout() []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{
		{
			Binding: 2,
			Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
		},
		{
			Binding: 0,
			Buffer:  wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 192},
		},
		{
			Binding: 1,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		},
	}
}

func TestLayoutEntriesSorted(t *testing.T) {
	p := NewBindGroupProvider("sphere", WithLayoutEntries(texturedLayout()))
	entries := p.LayoutEntries()
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, uint32(i), e.Binding)
	}
	assert.Equal(t, "sphere", p.Label())
}

func TestEntriesReportsMissingResource(t *testing.T) {
	p := NewBindGroupProvider("sphere", WithLayoutEntries(texturedLayout()))
	p.SetBuffer(0, &wgpu.Buffer{})

	_, err := p.Entries()
	assert.ErrorIs(t, err, ErrMissingResource)

	p.SetTextureView(1, &wgpu.TextureView{})
	_, err = p.Entries()
	assert.ErrorIs(t, err, ErrMissingResource)

	p.SetSampler(2, &wgpu.Sampler{})
	entries, err := p.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.NotNil(t, entries[0].Buffer)
	assert.NotNil(t, entries[1].TextureView)
	assert.NotNil(t, entries[2].Sampler)
}

func TestStaleTracksResourceChanges(t *testing.T) {
	p := NewBindGroupProvider("sphere", WithLayoutEntries(texturedLayout()))
	first := &wgpu.TextureView{}
	second := &wgpu.TextureView{}

	p.SetBuffer(0, &wgpu.Buffer{})
	p.SetTextureView(1, first)
	p.SetSampler(2, &wgpu.Sampler{})
	assert.True(t, p.Stale())

	entries, err := p.Entries()
	require.NoError(t, err)
	p.SetBindGroup(nil, entries)
	assert.False(t, p.Stale())
	assert.Same(t, first, p.BoundTextureView(1))

	p.SetTextureView(1, first)
	assert.False(t, p.Stale(), "re-assigning the same view is not a change")

	p.SetTextureView(1, second)
	assert.True(t, p.Stale())
	assert.Same(t, first, p.BoundTextureView(1), "bound view only changes on rebuild")

	entries, err = p.Entries()
	require.NoError(t, err)
	p.SetBindGroup(nil, entries)
	assert.Same(t, second, p.BoundTextureView(1))
	assert.Nil(t, p.BoundTextureView(7))
}

func TestDetachBindGroupKeepsItAlive(t *testing.T) {
	p := NewBindGroupProvider("sphere", WithLayoutEntries(texturedLayout()))
	view := &wgpu.TextureView{}
	p.SetBuffer(0, &wgpu.Buffer{})
	p.SetTextureView(1, view)
	p.SetSampler(2, &wgpu.Sampler{})

	entries, err := p.Entries()
	require.NoError(t, err)
	bg := &wgpu.BindGroup{}
	p.SetBindGroup(bg, entries)
	assert.False(t, p.Stale())

	assert.Same(t, bg, p.DetachBindGroup())
	assert.Nil(t, p.BindGroup())
	assert.True(t, p.Stale(), "a detached provider must be rebuilt before drawing")
	assert.Same(t, view, p.BoundTextureView(1))
	assert.Nil(t, p.DetachBindGroup())
}
