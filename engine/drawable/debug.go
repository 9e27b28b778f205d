package drawable

import (
	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/Carmen-Shannon/oxy-globe/engine/model"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DebugShape selects the geometry of a debug primitive.
type DebugShape int

const (
	// DebugTriangle is a single colored triangle.
	DebugTriangle DebugShape = iota

	// DebugAxes is the X/Y/Z axes gizmo drawn as lines.
	DebugAxes
)

func (s DebugShape) String() string {
	if s == DebugAxes {
		return "axes"
	}
	return "triangle"
}

// Debug is a colored triangle or axes gizmo for checking the camera and the pipelines.
type Debug interface {
	Drawable
	Rotator

	// Shape returns the primitive's geometry.
	Shape() DebugShape
}

type debugPrimitive struct {
	*object

	shape      DebugShape
	position   common.Vec3
	color      [4]float32
	axesLength float32
}

var _ Debug = &debugPrimitive{}

// NewDebug builds a debug primitive.
//
// Parameters:
//   - c: the GPU context
//   - options: functional options such as WithDebugShape
//
// Returns:
//   - Debug: the primitive
//   - error: a shader, pipeline or buffer creation error
func NewDebug(c gpu.Context, options ...DebugBuilderOption) (Debug, error) {
	d := &debugPrimitive{
		color:      [4]float32{1, 0, 0, 1},
		axesLength: 1,
	}
	for _, opt := range options {
		opt(d)
	}
	d.object = newObject(c, KindDebug, "Debug "+d.shape.String(), d.position)

	mesh := model.Triangle(common.Vec3{}, d.color)
	topology := wgpu.PrimitiveTopologyTriangleList
	if d.shape == DebugAxes {
		mesh = model.Axes(d.axesLength)
		topology = wgpu.PrimitiveTopologyLineList
	}

	vs, fs, err := renderShaders("debug_"+d.shape.String(), "debug", shader.WithIncludes(includes(nil)))
	if err != nil {
		return nil, err
	}
	p := pipeline.NewPipeline("debug_"+d.shape.String(), pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTopology(topology),
	)
	if err := d.createPipeline(p); err != nil {
		return nil, err
	}
	if err := gpu.InitMeshBuffers(c, d.provider, mesh.VertexData(), mesh.VertexCount(), nil); err != nil {
		d.release()
		return nil, err
	}
	if err := d.initBindGroup(nil, nil); err != nil {
		d.release()
		return nil, err
	}
	return d, nil
}

func (d *debugPrimitive) Shape() DebugShape {
	return d.shape
}

func (d *debugPrimitive) Update(float32) {}

func (d *debugPrimitive) Draw(pass *wgpu.RenderPassEncoder, cam camera.Camera) error {
	return d.drawMesh(pass, cam)
}

func (d *debugPrimitive) Release() {
	d.release()
}
