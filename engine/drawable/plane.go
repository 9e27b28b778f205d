package drawable

import (
	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/Carmen-Shannon/oxy-globe/engine/model"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
	"github.com/cogentcore/webgpu/wgpu"
)

// Plane is the terrain grid whose heights come from an elevation raster.
type Plane interface {
	Drawable
	Rotator

	// ApplyElevation resamples the raster onto the grid, rewrites the whole vertex buffer and
	// updates the height range. Applying the same raster twice gives the same result.
	//
	// Parameters:
	//   - raster: the elevation samples; no-data and negative samples become zero
	//
	// Returns:
	//   - error: ErrEmptyRaster or a size mismatch error
	ApplyElevation(raster common.ElevationRaster) error

	// HeightRange returns the min and max height of the last applied raster.
	HeightRange() (float32, float32)

	// Heights returns a copy of the current vertex heights in row-major order.
	Heights() []float32
}

type plane struct {
	*object

	width, depth         float32
	segmentsX, segmentsZ int
	position             common.Vec3
	heightScale          float32
	pool                 worker_pool.WorkerPool

	mesh model.Mesh[model.GPUPositionVertex]
}

var _ Plane = &plane{}

// NewPlane builds a flat triangle-strip grid in the XZ plane.
//
// Parameters:
//   - c: the GPU context
//   - options: functional options such as WithPlaneSize or WithPlaneSegments
//
// Returns:
//   - Plane: the plane
//   - error: a shader, pipeline or buffer creation error
func NewPlane(c gpu.Context, options ...PlaneBuilderOption) (Plane, error) {
	p := &plane{
		width:       2,
		depth:       2,
		segmentsX:   64,
		segmentsZ:   64,
		heightScale: DefaultHeightScale,
	}
	for _, opt := range options {
		opt(p)
	}
	p.object = newObject(c, KindPlane, "Terrain Plane", p.position)
	p.mesh = model.StripGrid(p.width, p.depth, p.segmentsX, p.segmentsZ, common.Vec3{})

	vs, fs, err := renderShaders("plane", "plane", shader.WithIncludes(includes(nil)))
	if err != nil {
		return nil, err
	}
	pl := pipeline.NewPipeline("plane", pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		pipeline.WithCullMode(wgpu.CullModeNone),
	)
	if err := p.createPipeline(pl); err != nil {
		return nil, err
	}
	if err := gpu.InitMeshBuffers(c, p.provider, p.mesh.VertexData(), p.mesh.VertexCount(), p.mesh.Indices); err != nil {
		p.release()
		return nil, err
	}
	if err := p.initBindGroup(nil, nil); err != nil {
		p.release()
		return nil, err
	}
	return p, nil
}

func (p *plane) ApplyElevation(raster common.ElevationRaster) error {
	cols := max(p.segmentsX, 1) + 1
	rows := max(p.segmentsZ, 1) + 1
	heights, err := ResampleElevation(raster, cols, rows, p.heightScale, p.pool)
	if err != nil {
		return err
	}
	lo, hi := HeightRange(heights)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ApplyHeights(p.mesh.Vertices, heights); err != nil {
		return err
	}
	p.params = [4]float32{lo, hi, 0, 0}
	gpu.WriteBuffer(p.gpu, p.provider.VertexBuffer(), 0, p.mesh.VertexData())
	return nil
}

func (p *plane) HeightRange() (float32, float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params[0], p.params[1]
}

func (p *plane) Heights() []float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]float32, len(p.mesh.Vertices))
	for i, v := range p.mesh.Vertices {
		out[i] = v.Position[1]
	}
	return out
}

func (p *plane) Update(float32) {}

func (p *plane) Draw(pass *wgpu.RenderPassEncoder, cam camera.Camera) error {
	return p.drawMesh(pass, cam)
}

func (p *plane) Release() {
	p.release()
}
