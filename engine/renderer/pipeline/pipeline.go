package pipeline

import (
	"errors"
	"sort"

	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType distinguishes compute pipelines from render pipelines.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline driven by a single compute shader.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with a vertex and a fragment shader.
	PipelineTypeRender
)

var (
	// ErrMissingShader is returned by Validate when a stage the pipeline type requires has no shader.
	ErrMissingShader = errors.New("pipeline: missing shader stage")
)

type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string

	vertexShader, fragmentShader, computeShader shader.Shader

	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	blendState        *wgpu.BlendState
}

// Pipeline describes a render or compute pipeline: its shaders, its fixed-function state and,
// once registered with the GPU context, the created WGPU pipeline object.
type Pipeline interface {
	// Type returns whether this is a compute or render pipeline.
	Type() PipelineType

	// PipelineKey returns the unique key of the pipeline, used as GPU label.
	PipelineKey() string

	// Shader returns the shader for the given stage, or nil.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - shader.Shader: the shader bound to the stage
	Shader(shaderType shader.ShaderType) shader.Shader

	// Validate checks that every stage the pipeline type requires has a shader.
	Validate() error

	// BindGroupLayouts merges the bind group layouts of all stages. Bindings declared by several
	// stages get the union of their visibilities.
	//
	// Returns:
	//   - []wgpu.BindGroupLayoutDescriptor: descriptors indexed by group, with empty descriptors for gaps
	BindGroupLayouts() []wgpu.BindGroupLayoutDescriptor

	// RenderPipeline returns the created render pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// ComputePipeline returns the created compute pipeline, or nil before registration.
	ComputePipeline() *wgpu.ComputePipeline

	// Translucent reports whether the pipeline blends with the backdrop. Translucent pipelines
	// are drawn after opaque ones.
	Translucent() bool

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	BlendEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	BlendState() *wgpu.BlendState

	// StripIndexFormat returns Uint32 for strip topologies and Undefined otherwise.
	StripIndexFormat() wgpu.IndexFormat

	SetRenderPipeline(p *wgpu.RenderPipeline)
	SetComputePipeline(p *wgpu.ComputePipeline)

	// Release releases the created WGPU pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline description with depth test and write enabled, no blending,
// no culling and a triangle-list topology.
//
// Parameters:
//   - pipelineKey: the unique key of the pipeline
//   - pipelineType: compute or render
//   - opts: functional options overriding the defaults
//
// Returns:
//   - Pipeline: the pipeline description
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		pipelineType:      pipelineType,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) Validate() error {
	switch p.pipelineType {
	case PipelineTypeRender:
		if p.vertexShader == nil || p.fragmentShader == nil {
			return ErrMissingShader
		}
	case PipelineTypeCompute:
		if p.computeShader == nil {
			return ErrMissingShader
		}
	}
	return nil
}

func (p *pipeline) BindGroupLayouts() []wgpu.BindGroupLayoutDescriptor {
	var stages []shader.Shader
	for _, s := range []shader.Shader{p.vertexShader, p.fragmentShader, p.computeShader} {
		if s != nil {
			stages = append(stages, s)
		}
	}

	merged := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	maxGroup := -1
	for _, s := range stages {
		for g, desc := range s.BindGroupLayoutDescriptors() {
			maxGroup = max(maxGroup, g)
			if merged[g] == nil {
				merged[g] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if existing, ok := merged[g][e.Binding]; ok {
					existing.Visibility |= e.Visibility
					merged[g][e.Binding] = existing
					continue
				}
				merged[g][e.Binding] = e
			}
		}
	}

	out := make([]wgpu.BindGroupLayoutDescriptor, maxGroup+1)
	for g, entries := range merged {
		list := make([]wgpu.BindGroupLayoutEntry, 0, len(entries))
		for _, e := range entries {
			list = append(list, e)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
		out[g] = wgpu.BindGroupLayoutDescriptor{Label: p.pipelineKey, Entries: list}
	}
	return out
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) ComputePipeline() *wgpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) Translucent() bool {
	return p.blendEnabled
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) StripIndexFormat() wgpu.IndexFormat {
	switch p.topology {
	case wgpu.PrimitiveTopologyTriangleStrip, wgpu.PrimitiveTopologyLineStrip:
		return wgpu.IndexFormatUint32
	default:
		return wgpu.IndexFormatUndefined
	}
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.computePipeline = cp
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
}
