package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the format of the depth attachment every render pipeline is created against.
const DepthFormat = wgpu.TextureFormatDepth24Plus

func createShaderModule(c Context, s shader.Shader) (*wgpu.ShaderModule, error) {
	module, err := c.Device().CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key() + " " + s.ShaderType().String(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader %s: %w", s.ShaderType(), s.Key(), err)
	}
	return module, nil
}

func createPipelineLayout(c Context, p pipeline.Pipeline) (*wgpu.PipelineLayout, error) {
	descriptors := p.BindGroupLayouts()
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, len(descriptors))
	for g := range descriptors {
		desc := descriptors[g]
		layout, err := c.Device().CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("create bind group layout for group %d: %w", g, err)
		}
		bindGroupLayouts[g] = layout
	}

	layout, err := c.Device().CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %s: %w", p.PipelineKey(), err)
	}
	return layout, nil
}

// RegisterRenderPipeline compiles the pipeline's shaders and creates the WGPU render pipeline
// for the context's surface format and sample count. The result is stored on p.
//
// Parameters:
//   - c: the GPU context
//   - p: a render pipeline description with vertex and fragment shaders
//
// Returns:
//   - error: pipeline.ErrMissingShader, or a device error from module or pipeline creation
func RegisterRenderPipeline(c Context, p pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", p.PipelineKey(), err)
	}
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := createShaderModule(c, vertexShader)
	if err != nil {
		return err
	}
	fs, err := createShaderModule(c, fragmentShader)
	if err != nil {
		return err
	}
	layout, err := createPipelineLayout(c, p)
	if err != nil {
		return err
	}

	target := wgpu.ColorTargetState{
		Format:    c.SurfaceFormat(),
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := c.Device().CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:         p.Topology(),
			StripIndexFormat: p.StripIndexFormat(),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: c.SampleCount(),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetRenderPipeline(created)
	return nil
}

// RegisterComputePipeline compiles the compute shader and creates the WGPU compute pipeline.
func RegisterComputePipeline(c Context, p pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", p.PipelineKey(), err)
	}
	computeShader := p.Shader(shader.ShaderTypeCompute)

	module, err := createShaderModule(c, computeShader)
	if err != nil {
		return err
	}
	layout, err := createPipelineLayout(c, p)
	if err != nil {
		return err
	}

	created, err := c.Device().CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetComputePipeline(created)
	return nil
}

