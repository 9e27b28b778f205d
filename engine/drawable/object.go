package drawable

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUObjectUniform is the uniform block every drawable shader reads (ObjectUniform in WGSL).
// Size: 208 bytes.
type GPUObjectUniform struct {
	View       [16]float32 // offset   0: camera view matrix
	Projection [16]float32 // offset  64: camera projection matrix
	Model      [16]float32 // offset 128: model matrix
	Params     [4]float32  // offset 192: per-variant scalars
}

const (
	uniformBinding     = 0
	modelMatrixOffset  = 128
	paramsOffset       = 192
	objectUniformBytes = 208
)

// Size returns the size of the GPUObjectUniform struct in bytes.
func (g *GPUObjectUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform for upload.
//
// Returns:
//   - []byte: the 208-byte little-endian buffer
func (g *GPUObjectUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	cam := camera.GPUCameraUniform{View: g.View, Projection: g.Projection}
	copy(buf, cam.Marshal())
	putFloats(buf[modelMatrixOffset:], g.Model[:])
	putFloats(buf[paramsOffset:], g.Params[:])
	return buf
}

func putFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

func floatBytes(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	putFloats(buf, values)
	return buf
}

// object is the state shared by every variant: the render pipeline, the provider holding the
// uniform buffer, bind group and geometry, and the model matrix.
type object struct {
	mu *sync.Mutex

	gpu      gpu.Context
	kind     Kind
	label    string
	pipeline pipeline.Pipeline
	provider bind_group_provider.BindGroupProvider

	model  [16]float32
	params [4]float32
}

func newObject(c gpu.Context, kind Kind, label string, position common.Vec3) *object {
	o := &object{
		mu:    &sync.Mutex{},
		gpu:   c,
		kind:  kind,
		label: label,
	}
	common.Translation(o.model[:], position)
	return o
}

func (o *object) Kind() Kind {
	return o.kind
}

func (o *object) Label() string {
	return o.label
}

func (o *object) Translucent() bool {
	return o.pipeline != nil && o.pipeline.Translucent()
}

func (o *object) ModelMatrix() [16]float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.model
}

func (o *object) Rotate(axis common.Vec3, angle float32) {
	a := mgl32.Vec3(axis)
	if a.Len() == 0 {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	rotated := mgl32.Mat4(o.model).Mul4(mgl32.HomogRotate3D(angle, a.Normalize()))
	o.model = [16]float32(rotated)
	if o.provider != nil {
		gpu.WriteBuffer(o.gpu, o.provider.Buffer(uniformBinding), modelMatrixOffset, floatBytes(o.model[:]))
	}
}

// setParams replaces the per-variant scalars uploaded with the next draw.
func (o *object) setParams(params [4]float32) {
	o.mu.Lock()
	o.params = params
	o.mu.Unlock()
}

// uniform snapshots the full uniform block for cam.
func (o *object) uniform(cam camera.Camera) GPUObjectUniform {
	o.mu.Lock()
	defer o.mu.Unlock()
	return GPUObjectUniform{
		View:       cam.ViewMatrix(),
		Projection: cam.ProjectionMatrix(),
		Model:      o.model,
		Params:     o.params,
	}
}

// createPipeline registers a render pipeline and builds the provider from its group 0 layout.
func (o *object) createPipeline(p pipeline.Pipeline) error {
	if err := gpu.RegisterRenderPipeline(o.gpu, p); err != nil {
		return err
	}
	layouts := p.BindGroupLayouts()
	if len(layouts) == 0 {
		return fmt.Errorf("%s: pipeline %s declares no bind groups", o.label, p.PipelineKey())
	}
	o.pipeline = p
	o.provider = bind_group_provider.NewBindGroupProvider(o.label, bind_group_provider.WithLayoutDescriptor(layouts[0]))
	return nil
}

// initBindGroup creates the uniform buffer and, once every texture is assigned, the bind group.
// A missing texture is not an error: the drawable stays undrawable until one is loaded.
func (o *object) initBindGroup(usageOverrides map[int]wgpu.BufferUsage, sizeOverrides map[int]uint64) error {
	err := gpu.InitBindGroup(o.gpu, o.provider, usageOverrides, sizeOverrides)
	if errors.Is(err, bind_group_provider.ErrMissingResource) {
		return nil
	}
	return err
}

// drawMesh uploads the uniform block and records the draw call. It is a no-op until the bind
// group exists.
func (o *object) drawMesh(pass *wgpu.RenderPassEncoder, cam camera.Camera) error {
	bindGroup := o.provider.BindGroup()
	if bindGroup == nil || o.provider.VertexBuffer() == nil {
		return nil
	}
	if pass == nil {
		return fmt.Errorf("%s: nil render pass", o.label)
	}

	u := o.uniform(cam)
	gpu.WriteBuffer(o.gpu, o.provider.Buffer(uniformBinding), 0, u.Marshal())

	pass.SetPipeline(o.pipeline.RenderPipeline())
	pass.SetBindGroup(0, bindGroup, nil)
	pass.SetVertexBuffer(0, o.provider.VertexBuffer(), 0, wgpu.WholeSize)
	if ib := o.provider.IndexBuffer(); ib != nil {
		pass.SetIndexBuffer(ib, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(o.provider.IndexCount()), 1, 0, 0, 0)
		return nil
	}
	pass.Draw(uint32(o.provider.VertexCount()), 1, 0, 0)
	return nil
}

func (o *object) release() {
	if o.provider != nil {
		o.provider.Release()
	}
	if o.pipeline != nil {
		o.pipeline.Release()
	}
}
