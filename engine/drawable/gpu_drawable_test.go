package drawable

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	loads map[string]int
}

func (f *fakeSource) LoadImage(_ context.Context, url string) (common.TextureStagingData, error) {
	if url == "broken.png" {
		return common.TextureStagingData{}, errors.New("decode failed")
	}
	f.loads[url]++
	return common.TextureStagingData{Pixels: make([]byte, 2*2*4), Width: 2, Height: 2}, nil
}

func (f *fakeSource) OpenVideo(context.Context, string) (material.FrameStream, error) {
	return nil, errors.New("no video in tests")
}

func headless(t *testing.T) gpu.Context {
	t.Helper()
	c, err := gpu.NewContext(nil, gpu.WithMSAA(gpu.MSAAOff))
	if err != nil {
		t.Skip("Need software GPU on CI")
	}
	t.Cleanup(c.Release)
	return c
}

func TestSphereTextureSwitching(t *testing.T) {
	c := headless(t)
	src := &fakeSource{loads: map[string]int{}}

	s, err := NewSphere(c, WithTextureSource(src), WithSphereSegments(8))
	require.NoError(t, err)
	defer s.Release()

	// Nothing to draw until a texture exists.
	assert.NoError(t, s.Draw(nil, nil))
	assert.Equal(t, -1, s.Textures().CurrentIndex())

	ctx := context.Background()
	require.NoError(t, s.LoadTexture(ctx, "a.png", false))
	require.NoError(t, s.LoadTexture(ctx, "b.png", false))
	require.NoError(t, s.LoadTexture(ctx, "a.png", false))
	assert.Equal(t, 2, s.Textures().Len())
	assert.Equal(t, 1, src.loads["a.png"])
	assert.Equal(t, 0, s.Textures().CurrentIndex())

	sp := s.(*sphere)
	boundView := func() *wgpu.TextureView {
		sp.loadMu.Lock()
		defer sp.loadMu.Unlock()
		return sp.provider.BoundTextureView(sp.textureBinding)
	}

	require.NoError(t, s.SwitchTexture(0))
	first := boundView()
	require.NotNil(t, first)

	require.NoError(t, s.SwitchTexture(1))
	assert.Equal(t, 1, s.Textures().CurrentIndex())
	second := boundView()
	require.NotNil(t, second)
	assert.NotSame(t, first, second, "switching must rebind a different texture view")

	assert.ErrorIs(t, s.SwitchTexture(5), material.ErrTextureIndexOutOfRange)
	assert.Equal(t, 1, s.Textures().CurrentIndex())
	assert.Same(t, second, boundView(), "an out-of-range switch keeps the bind group")

	// The replaced bind group outlives the switch and is released by the next draw.
	assert.NotEmpty(t, sp.retired)
	assert.Error(t, s.Draw(nil, nil), "a bound sphere needs a render pass")
	assert.Empty(t, sp.retired)

	s.NextTexture()
	assert.Equal(t, 0, s.Textures().CurrentIndex())
	s.PrevTexture()
	assert.Equal(t, 1, s.Textures().CurrentIndex())

	assert.Error(t, s.LoadTexture(ctx, "broken.png", false))
	assert.Equal(t, 2, s.Textures().Len())
}

func TestSphereSwitchWhileDrawing(t *testing.T) {
	c := headless(t)
	src := &fakeSource{loads: map[string]int{}}

	s, err := NewSphere(c, WithTextureSource(src), WithSphereSegments(8))
	require.NoError(t, err)
	defer s.Release()

	ctx := context.Background()
	require.NoError(t, s.LoadTexture(ctx, "a.png", false))
	require.NoError(t, s.LoadTexture(ctx, "b.png", false))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 200 {
			s.NextTexture()
		}
	}()
	go func() {
		defer wg.Done()
		for range 2000 {
			_ = s.Draw(nil, nil)
		}
	}()
	wg.Wait()

	// 200 switches over two textures end where they started.
	assert.Equal(t, 0, s.Textures().CurrentIndex())
	sp := s.(*sphere)
	tex, ok := s.Textures().Current()
	require.True(t, ok)
	assert.Same(t, tex.View, sp.provider.BoundTextureView(sp.textureBinding))
	assert.NotNil(t, sp.provider.BindGroup())
}

func TestSphereWithoutSource(t *testing.T) {
	c := headless(t)

	s, err := NewSphere(c)
	require.NoError(t, err)
	defer s.Release()

	assert.ErrorIs(t, s.LoadTexture(context.Background(), "a.png", false), ErrNoTextureSource)
}

func TestPlaneApplyElevation(t *testing.T) {
	c := headless(t)

	p, err := NewPlane(c, WithPlaneSegments(2, 1))
	require.NoError(t, err)
	defer p.Release()
	assert.False(t, p.Translucent())

	require.NoError(t, p.ApplyElevation(testRaster()))
	first := p.Heights()
	lo, hi := p.HeightRange()
	assert.Equal(t, float32(0), lo)
	assert.InDelta(t, 2, hi, 1e-5)

	require.NoError(t, p.ApplyElevation(testRaster()))
	assert.Equal(t, first, p.Heights())

	assert.ErrorIs(t, p.ApplyElevation(common.ElevationRaster{}), ErrEmptyRaster)
	assert.Equal(t, first, p.Heights())
}

func runCompute(t *testing.T, c gpu.Context, cl Cloud) []float32 {
	t.Helper()
	encoder, err := c.Device().CreateCommandEncoder(nil)
	require.NoError(t, err)
	require.NoError(t, cl.Compute(encoder))
	cmd, err := encoder.Finish(nil)
	require.NoError(t, err)
	c.Queue().Submit(cmd)

	field, err := cl.ReadDensity(context.Background())
	require.NoError(t, err)
	return field
}

func TestCloudComputeDeterministic(t *testing.T) {
	c := headless(t)

	cl, err := NewCloud(c, WithFieldSize(64), WithPointGrid(4))
	require.NoError(t, err)
	defer cl.Release()
	assert.True(t, cl.Translucent())
	assert.Equal(t, uint32(64), cl.FieldSize())

	a := runCompute(t, c, cl)
	b := runCompute(t, c, cl)
	require.Len(t, a, 64*64*64)
	assert.Equal(t, a, b)

	for _, d := range a {
		require.GreaterOrEqual(t, d, float32(0))
		require.LessOrEqual(t, d, float32(1))
	}
	assert.Equal(t, float32(0), a[DensityIndex(0, 0, 0, 64)])

	cl.Update(1.0 / 60)
	assert.Equal(t, float32(1), cl.Time())

	cl.SetTimeStep(0.5)
	cl.Update(1.0 / 60)
	assert.Equal(t, float32(1.5), cl.Time())
}

func TestCloudCPUDensity(t *testing.T) {
	c := headless(t)

	cl, err := NewCloud(c, WithFieldSize(64), WithPointGrid(4), WithCPUDensity(nil),
		WithCloudRand(rand.New(rand.NewPCG(7, 7))))
	require.NoError(t, err)
	defer cl.Release()

	field, err := cl.ReadDensity(context.Background())
	require.NoError(t, err)
	want, err := DensityField(64, 0, DefaultDensityParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, want, field)
}

func TestCloudComputeMatchesCPU(t *testing.T) {
	c := headless(t)

	cl, err := NewCloud(c, WithFieldSize(64), WithPointGrid(4), WithCloudRand(rand.New(rand.NewPCG(7, 7))))
	require.NoError(t, err)
	defer cl.Release()

	gpuField := runCompute(t, c, cl)
	cpuField, err := DensityField(64, 0, DefaultDensityParams(), nil)
	require.NoError(t, err)
	require.Len(t, gpuField, len(cpuField))

	// The noise hash amplifies sin rounding, so compare the mask and the mean rather than cells.
	var agree, inside int
	var gpuSum, cpuSum float64
	for i := range cpuField {
		if (gpuField[i] == 0) == (cpuField[i] == 0) {
			agree++
		}
		if cpuField[i] > 0 {
			inside++
			gpuSum += float64(gpuField[i])
			cpuSum += float64(cpuField[i])
		}
		assert.True(t, gpuField[i] >= 0 && gpuField[i] <= 1, "cell %d = %g", i, gpuField[i])
	}
	assert.GreaterOrEqual(t, float64(agree)/float64(len(cpuField)), 0.97)
	require.Positive(t, inside)
	assert.InDelta(t, cpuSum/float64(inside), gpuSum/float64(inside), 0.05)
}

func TestDebugShapes(t *testing.T) {
	c := headless(t)

	for _, shape := range []DebugShape{DebugTriangle, DebugAxes} {
		d, err := NewDebug(c, WithDebugShape(shape))
		require.NoError(t, err)
		assert.Equal(t, shape, d.Shape())
		assert.Equal(t, KindDebug, d.Kind())
		d.Release()
	}
}
