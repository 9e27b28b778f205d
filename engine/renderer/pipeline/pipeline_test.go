package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planeSource = `
struct Uniforms { view: mat4x4<f32>, proj: mat4x4<f32>, model: mat4x4<f32>, zRange: vec4<f32>, };
struct VertexInput { @location(0) position: vec3<f32>, };
struct VertexOutput { @builtin(position) clip: vec4<f32>, @location(0) height: f32, };

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(1) @binding(0) var<uniform> tint: vec4<f32>;

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = u.proj * u.view * u.model * vec4<f32>(in.position, 1.0);
    out.height = in.position.y;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return tint;
}
`

func shaders(t *testing.T) (shader.Shader, shader.Shader) {
	t.Helper()
	vs, err := shader.NewShader("plane", shader.ShaderTypeVertex, planeSource)
	require.NoError(t, err)
	fs, err := shader.NewShader("plane", shader.ShaderTypeFragment, planeSource)
	require.NoError(t, err)
	return vs, fs
}

func TestValidate(t *testing.T) {
	vs, fs := shaders(t)

	assert.ErrorIs(t, NewPipeline("p", PipelineTypeRender, WithVertexShader(vs)).Validate(), ErrMissingShader)
	assert.ErrorIs(t, NewPipeline("c", PipelineTypeCompute).Validate(), ErrMissingShader)
	assert.NoError(t, NewPipeline("p", PipelineTypeRender, WithVertexShader(vs), WithFragmentShader(fs)).Validate())
}

func TestBindGroupLayoutsMergeVisibility(t *testing.T) {
	vs, fs := shaders(t)
	p := NewPipeline("plane", PipelineTypeRender, WithVertexShader(vs), WithFragmentShader(fs))

	layouts := p.BindGroupLayouts()
	require.Len(t, layouts, 2)
	require.Len(t, layouts[0].Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, layouts[0].Entries[0].Visibility)
	assert.Equal(t, uint64(208), layouts[0].Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(16), layouts[1].Entries[0].Buffer.MinBindingSize)
}

func TestDefaultsAndOptions(t *testing.T) {
	p := NewPipeline("plane", PipelineTypeRender)
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.Translucent())
	assert.Equal(t, wgpu.IndexFormatUndefined, p.StripIndexFormat())

	strip := NewPipeline("terrain", PipelineTypeRender, WithTopology(wgpu.PrimitiveTopologyTriangleStrip))
	assert.Equal(t, wgpu.IndexFormatUint32, strip.StripIndexFormat())

	cloud := NewPipeline("cloud", PipelineTypeRender,
		WithTopology(wgpu.PrimitiveTopologyPointList),
		WithBlendEnabled(true),
		WithDepthWriteEnabled(false),
	)
	assert.True(t, cloud.Translucent())
	assert.False(t, cloud.DepthWriteEnabled())
	assert.Nil(t, cloud.RenderPipeline())
}
