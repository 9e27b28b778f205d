package gpu

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign4(t *testing.T) {
	assert.Equal(t, uint64(0), align4(0))
	assert.Equal(t, uint64(4), align4(1))
	assert.Equal(t, uint64(8), align4(8))
	assert.Equal(t, uint64(212), align4(209))
}

func TestPresentModeMapping(t *testing.T) {
	assert.Equal(t, wgpu.PresentModeFifo, wgpuPresentMode(PresentModeVSync))
	assert.Equal(t, wgpu.PresentModeImmediate, wgpuPresentMode(PresentModeUncapped))
}

func headless(t *testing.T) Context {
	t.Helper()
	c, err := NewContext(nil, WithMSAA(MSAAOff))
	if err != nil {
		t.Skip("Need software GPU on CI")
	}
	t.Cleanup(c.Release)
	return c
}

func TestHeadlessContext(t *testing.T) {
	c := headless(t)

	assert.Nil(t, c.Surface())
	assert.NotNil(t, c.Device())
	assert.Equal(t, uint32(1), c.SampleCount())
	assert.ErrorIs(t, c.Configure(640, 480), ErrNoSurface)
}

func TestReadBufferRoundTrip(t *testing.T) {
	c := headless(t)

	data := make([]byte, 16)
	for i := range 4 {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(float32(i)*0.25))
	}
	buf, err := NewBufferInit(c, "readback", wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc, data)
	require.NoError(t, err)
	defer buf.Release()

	got, err := ReadBuffer(context.Background(), c, buf, uint64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestTextureUploadValidatesSize(t *testing.T) {
	c := headless(t)

	_, _, err := NewTexture2D(c, "empty", common.TextureStagingData{})
	assert.Error(t, err)

	_, _, err = NewTexture2D(c, "short", common.TextureStagingData{Width: 2, Height: 2, Pixels: make([]byte, 3)})
	assert.ErrorContains(t, err, "want 16")

	tex, view, err := NewTexture2D(c, "ok", common.TextureStagingData{Width: 2, Height: 2, Pixels: make([]byte, 16)})
	require.NoError(t, err)
	view.Release()
	tex.Release()
}

func TestInitBindGroupRequiresTexture(t *testing.T) {
	c := headless(t)

	provider := bind_group_provider.NewBindGroupProvider("textured",
		bind_group_provider.WithLayoutEntries([]wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 64}},
			{Binding: 1, Visibility: wgpu.ShaderStageFragment, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D}},
		}),
	)
	defer provider.Release()

	err := InitBindGroup(c, provider, nil, nil)
	assert.ErrorIs(t, err, bind_group_provider.ErrMissingResource)
	assert.NotNil(t, provider.Buffer(0))
}
