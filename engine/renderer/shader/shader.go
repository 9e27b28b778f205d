package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is used for.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is used for fragment processing, paired with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// ErrNoEntryPoint is returned by NewShader when the source has no entry point for the requested stage.
var ErrNoEntryPoint = errors.New("shader: no entry point for stage")

type shader struct {
	key        string
	source     string
	shaderType ShaderType

	entryPoint    string
	workgroupSize [3]uint32
	vertexLayouts []wgpu.VertexBufferLayout
	layouts       map[int]wgpu.BindGroupLayoutDescriptor
	varNames      map[int]map[int]string

	includes        map[string]string
	sampleOverrides map[[2]int]wgpu.TextureSampleType
}

// Shader is a pre-processed and reflected WGSL shader stage. The reflection data is what pipeline
// and bind group creation need: entry point, vertex buffer layouts, bind group layouts and the
// compute workgroup size.
type Shader interface {
	// Key returns the unique identifier of the shader, used as its GPU label.
	Key() string

	// Source returns the pre-processed WGSL source.
	Source() string

	// ShaderType returns the stage this shader was reflected for.
	ShaderType() ShaderType

	// EntryPoint returns the name of the entry function for the stage.
	EntryPoint() string

	// WorkgroupSize returns the @workgroup_size of a compute shader, defaulting omitted dimensions to 1.
	// Render stages return [0, 0, 0].
	WorkgroupSize() [3]uint32

	// VertexLayouts returns one vertex buffer layout per vertex input struct, in declaration order.
	// Only vertex shaders carry vertex layouts.
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptor returns the layout of a single bind group, empty when the group is unused.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor for the group
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every bind group layout declared by the stage, keyed by group.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Binding looks a resource up by its WGSL variable name.
	//
	// Parameters:
	//   - group: the @group index
	//   - varName: the variable name used in the declaration
	//
	// Returns:
	//   - int: the @binding index
	//   - bool: false when the group has no such variable
	Binding(group int, varName string) (int, bool)

	// Module returns the shader module descriptor for device.CreateShaderModule.
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader pre-processes and reflects a WGSL source for a single stage.
// Sources may contain several entry points; the one annotated for shaderType is selected.
//
// Parameters:
//   - key: the unique identifier for the shader
//   - shaderType: the stage to reflect
//   - source: the WGSL source, possibly containing // #include directives
//   - opts: functional options such as WithIncludes or WithSampleType
//
// Returns:
//   - Shader: the reflected shader
//   - error: an include failure or ErrNoEntryPoint
func NewShader(key string, shaderType ShaderType, source string, opts ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:             key,
		shaderType:      shaderType,
		includes:        map[string]string{},
		sampleOverrides: map[[2]int]wgpu.TextureSampleType{},
	}
	for _, opt := range opts {
		opt(s)
	}

	processed, err := NewPreProcessor(s.includes).Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.source = processed

	cleaned := stripComments(s.source)
	s.entryPoint = parseEntryPoint(cleaned, shaderType)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: %w %s", key, ErrNoEntryPoint, shaderType)
	}

	var visibility wgpu.ShaderStage
	switch shaderType {
	case ShaderTypeVertex:
		visibility = wgpu.ShaderStageVertex
		s.vertexLayouts = parseVertexLayouts(cleaned)
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		visibility = wgpu.ShaderStageCompute
		s.workgroupSize = parseWorkgroupSize(cleaned)
	}
	s.layouts, s.varNames = parseBindGroupLayouts(cleaned, visibility)
	s.applyOverrides()

	return s, nil
}

// applyOverrides patches texture sample types the parser cannot infer from WGSL alone,
// such as an r32float texture that is only read with textureLoad.
func (s *shader) applyOverrides() {
	for g, desc := range s.layouts {
		for i := range desc.Entries {
			key := [2]int{g, int(desc.Entries[i].Binding)}
			if st, ok := s.sampleOverrides[key]; ok && desc.Entries[i].Texture.SampleType != wgpu.TextureSampleTypeUndefined {
				desc.Entries[i].Texture.SampleType = st
			}
		}
	}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workgroupSize
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.layouts[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.layouts
}

func (s *shader) Binding(group int, varName string) (int, bool) {
	for binding, name := range s.varNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return 0, false
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
}
