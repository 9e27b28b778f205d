package drawable

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/Carmen-Shannon/oxy-globe/engine/model"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultFieldSize is the edge length of the density field.
	DefaultFieldSize uint32 = 128

	// Workgroup dimensions of cs_main in cloud_density.wgsl.
	workgroupX, workgroupY, workgroupZ uint32 = 8, 4, 8

	densityBinding        = 1
	densityTextureBinding = 1

	// bytesPerRowAlignment is the row pitch alignment buffer-to-texture copies require.
	bytesPerRowAlignment = 256

	pointJitter = 0.3
	pointSquash = 0.3
)

// Cloud is the volumetric cloud layer: a compute pass fills an N*N*N density field each frame,
// the field is copied into a 3D texture and a point cloud ray-marches it.
type Cloud interface {
	Drawable
	Computer
	Rotator

	// FieldSize returns the edge length N of the density field.
	FieldSize() uint32

	// Time returns the current animation time.
	Time() float32

	// SetTimeStep changes how far the animation time advances per Update.
	SetTimeStep(step float32)

	// ReadDensity copies the density field back to the CPU. It waits for the GPU and is meant
	// for tests and debugging.
	//
	// Parameters:
	//   - ctx: cancels the wait
	//
	// Returns:
	//   - []float32: N*N*N densities indexed by DensityIndex
	//   - error: a readback error
	ReadDensity(ctx context.Context) ([]float32, error)
}

type cloud struct {
	*object

	fieldSize  uint32
	timeStep   float32
	time       float32
	params     DensityParams
	alphaScale float32
	raySteps   int
	pointGrid  int
	position   common.Vec3
	scale      float32
	cpuDensity bool
	cpuPool    worker_pool.WorkerPool
	rng        *rand.Rand

	computePipeline pipeline.Pipeline
	computeProvider bind_group_provider.BindGroupProvider
	densityTexture  *wgpu.Texture
	densityView     *wgpu.TextureView

	// cpuField is the latest CPU-computed field; pendingUpload marks it for the next Compute.
	cpuField      []float32
	pendingUpload bool
}

var _ Cloud = &cloud{}

// ValidateFieldSize checks that n can be tiled by the compute workgroup and that one row of the
// field satisfies the copy row alignment.
//
// Returns:
//   - error: ErrFieldSizeMismatch if either condition fails
func ValidateFieldSize(n uint32) error {
	switch {
	case n == 0:
		return fmt.Errorf("%w: size 0", ErrFieldSizeMismatch)
	case n%workgroupX != 0 || n%workgroupY != 0 || n%workgroupZ != 0:
		return fmt.Errorf("%w: %d is not a multiple of the %dx%dx%d workgroup", ErrFieldSizeMismatch, n, workgroupX, workgroupY, workgroupZ)
	case (n*4)%bytesPerRowAlignment != 0:
		return fmt.Errorf("%w: row of %d bytes is not %d-byte aligned", ErrFieldSizeMismatch, n*4, bytesPerRowAlignment)
	}
	return nil
}

// cloudConstants generates the WGSL constants both cloud shaders include.
func cloudConstants(fieldSize uint32, octaves, raySteps int) string {
	return fmt.Sprintf("const FIELD_SIZE: u32 = %du;\nconst OCTAVES: i32 = %d;\nconst RAY_STEPS: i32 = %d;\n",
		fieldSize, octaves, raySteps)
}

// NewCloud builds the density field, its compute pipeline and the ray-marching point cloud.
//
// Parameters:
//   - c: the GPU context
//   - options: functional options such as WithFieldSize or WithCPUDensity
//
// Returns:
//   - Cloud: the cloud volume
//   - error: ErrFieldSizeMismatch, or a shader, pipeline or resource creation error
func NewCloud(c gpu.Context, options ...CloudBuilderOption) (Cloud, error) {
	cl := &cloud{
		fieldSize:  DefaultFieldSize,
		timeStep:   1,
		params:     DefaultDensityParams(),
		alphaScale: 0.5,
		raySteps:   72,
		pointGrid:  128,
		scale:      1,
	}
	for _, opt := range options {
		opt(cl)
	}
	if err := ValidateFieldSize(cl.fieldSize); err != nil {
		return nil, err
	}
	if cl.rng == nil {
		cl.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	cl.object = newObject(c, KindCloud, "Cloud Volume", cl.position)
	for i := range 3 {
		cl.model[i*5] *= cl.scale
	}
	cl.object.params = cl.uniformParams()

	incl := includes(map[string]string{
		"cloud_constants": cloudConstants(cl.fieldSize, cl.params.Octaves, cl.raySteps),
	})

	if err := cl.initRender(c, incl); err != nil {
		cl.Release()
		return nil, err
	}
	if !cl.cpuDensity {
		if err := cl.initCompute(c, incl); err != nil {
			cl.Release()
			return nil, err
		}
	} else {
		cl.refreshCPUField()
	}

	slog.Debug("cloud volume created", "field_size", cl.fieldSize, "points", cl.provider.VertexCount(),
		"cpu_density", cl.cpuDensity)
	return cl, nil
}

func (c *cloud) initRender(gc gpu.Context, incl map[string]string) error {
	vs, fs, err := renderShaders("cloud_render", "cloud_render",
		shader.WithIncludes(incl),
		shader.WithSampleType(0, densityTextureBinding, wgpu.TextureSampleTypeUnfilterableFloat),
	)
	if err != nil {
		return err
	}
	p := pipeline.NewPipeline("cloud_render", pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTopology(wgpu.PrimitiveTopologyPointList),
		pipeline.WithBlendEnabled(true),
		pipeline.WithBlendState(&wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}),
		pipeline.WithDepthWriteEnabled(false),
		pipeline.WithDepthTestEnabled(false),
	)
	if err := c.createPipeline(p); err != nil {
		return err
	}

	points := model.JitteredPointCloud(c.pointGrid, pointJitter, pointSquash, c.rng)
	if err := gpu.InitMeshBuffers(gc, c.provider, points.VertexData(), points.VertexCount(), nil); err != nil {
		return err
	}

	c.densityTexture, c.densityView, err = gpu.NewDensityTexture(gc, "Cloud Density Texture", c.fieldSize)
	if err != nil {
		return err
	}
	c.provider.SetTextureView(densityTextureBinding, c.densityView)
	return c.initBindGroup(nil, nil)
}

func (c *cloud) initCompute(gc gpu.Context, incl map[string]string) error {
	cs, err := shader.NewShader("cloud_density", shader.ShaderTypeCompute, asset("cloud_density"), shader.WithIncludes(incl))
	if err != nil {
		return err
	}
	p := pipeline.NewPipeline("cloud_density", pipeline.PipelineTypeCompute, pipeline.WithComputeShader(cs))
	if err := gpu.RegisterComputePipeline(gc, p); err != nil {
		return err
	}
	c.computePipeline = p

	layouts := p.BindGroupLayouts()
	if len(layouts) == 0 {
		return fmt.Errorf("%s: compute pipeline declares no bind groups", c.label)
	}
	c.computeProvider = bind_group_provider.NewBindGroupProvider(c.label+" Compute",
		bind_group_provider.WithLayoutDescriptor(layouts[0]))

	// The compute pass reads the time and mask radius from the render uniform buffer.
	c.computeProvider.SetBuffer(uniformBinding, c.provider.Buffer(uniformBinding))

	fieldBytes := uint64(c.fieldSize) * uint64(c.fieldSize) * uint64(c.fieldSize) * 4
	return gpu.InitBindGroup(gc, c.computeProvider,
		map[int]wgpu.BufferUsage{densityBinding: wgpu.BufferUsageCopySrc},
		map[int]uint64{densityBinding: fieldBytes},
	)
}

func (c *cloud) FieldSize() uint32 {
	return c.fieldSize
}

func (c *cloud) Time() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

func (c *cloud) SetTimeStep(step float32) {
	c.mu.Lock()
	c.timeStep = step
	c.mu.Unlock()
}

func (c *cloud) uniformParams() [4]float32 {
	return [4]float32{c.time, c.params.MaskRadius, c.alphaScale, 0}
}

// Update advances the animation time by one step. In CPU mode it also recomputes the field.
func (c *cloud) Update(float32) {
	c.mu.Lock()
	c.time += c.timeStep
	c.object.params = c.uniformParams()
	c.mu.Unlock()

	if c.cpuDensity {
		c.refreshCPUField()
	}
}

func (c *cloud) refreshCPUField() {
	c.mu.Lock()
	t := c.time
	c.mu.Unlock()

	field, err := DensityField(c.fieldSize, t, c.params, c.cpuPool)
	if err != nil {
		slog.Warn("cpu density failed", "drawable", c.label, "error", err)
		return
	}

	c.mu.Lock()
	c.cpuField = field
	c.pendingUpload = true
	c.mu.Unlock()
}

func (c *cloud) Compute(encoder *wgpu.CommandEncoder) error {
	if encoder == nil {
		return fmt.Errorf("%s: nil command encoder", c.label)
	}
	if c.cpuDensity {
		return c.uploadCPUField()
	}
	if c.computeProvider == nil || c.computeProvider.BindGroup() == nil {
		return nil
	}

	c.mu.Lock()
	params := c.object.params
	c.mu.Unlock()
	gpu.WriteBuffer(c.gpu, c.provider.Buffer(uniformBinding), paramsOffset, floatBytes(params[:]))

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(c.computePipeline.ComputePipeline())
	pass.SetBindGroup(0, c.computeProvider.BindGroup(), nil)
	pass.DispatchWorkgroups(c.fieldSize/workgroupX, c.fieldSize/workgroupY, c.fieldSize/workgroupZ)
	pass.End()

	encoder.CopyBufferToTexture(
		&wgpu.ImageCopyBuffer{
			Layout: c.densityLayout(),
			Buffer: c.computeProvider.Buffer(densityBinding),
		},
		c.densityCopyTexture(),
		c.densityExtent(),
	)
	return nil
}

func (c *cloud) uploadCPUField() error {
	c.mu.Lock()
	field := c.cpuField
	pending := c.pendingUpload
	c.pendingUpload = false
	c.mu.Unlock()

	if !pending || field == nil || c.densityTexture == nil {
		return nil
	}
	layout := c.densityLayout()
	c.gpu.Queue().WriteTexture(c.densityCopyTexture(), floatBytes(field), &layout, c.densityExtent())
	return nil
}

func (c *cloud) densityLayout() wgpu.TextureDataLayout {
	return wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  c.fieldSize * 4,
		RowsPerImage: c.fieldSize,
	}
}

func (c *cloud) densityCopyTexture() *wgpu.ImageCopyTexture {
	return &wgpu.ImageCopyTexture{
		Texture:  c.densityTexture,
		MipLevel: 0,
		Origin:   wgpu.Origin3D{},
		Aspect:   wgpu.TextureAspectAll,
	}
}

func (c *cloud) densityExtent() *wgpu.Extent3D {
	return &wgpu.Extent3D{
		Width:              c.fieldSize,
		Height:             c.fieldSize,
		DepthOrArrayLayers: c.fieldSize,
	}
}

func (c *cloud) ReadDensity(ctx context.Context) ([]float32, error) {
	if c.cpuDensity {
		c.mu.Lock()
		defer c.mu.Unlock()
		return append([]float32(nil), c.cpuField...), nil
	}
	if c.computeProvider == nil {
		return nil, fmt.Errorf("%s: density buffer not created", c.label)
	}

	n := uint64(c.fieldSize)
	raw, err := gpu.ReadBuffer(ctx, c.gpu, c.computeProvider.Buffer(densityBinding), n*n*n*4)
	if err != nil {
		return nil, err
	}
	field := make([]float32, n*n*n)
	for i := range field {
		field[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return field, nil
}

func (c *cloud) Draw(pass *wgpu.RenderPassEncoder, cam camera.Camera) error {
	return c.drawMesh(pass, cam)
}

func (c *cloud) Release() {
	if c.computeProvider != nil {
		// The uniform buffer belongs to the render provider.
		c.computeProvider.SetBuffer(uniformBinding, nil)
		c.computeProvider.Release()
		c.computeProvider = nil
	}
	if c.computePipeline != nil {
		c.computePipeline.Release()
		c.computePipeline = nil
	}
	if c.object != nil {
		c.release()
	}
	if c.densityView != nil {
		c.densityView.Release()
		c.densityView = nil
	}
	if c.densityTexture != nil {
		c.densityTexture.Release()
		c.densityTexture = nil
	}
}
