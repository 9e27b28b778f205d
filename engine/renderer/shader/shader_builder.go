package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderBuilderOption is a functional option applied to a shader during NewShader.
type ShaderBuilderOption func(*shader)

// WithIncludes registers WGSL snippets that "// #include <name>" lines expand to.
//
// Parameters:
//   - includes: snippet sources keyed by include name
//
// Returns:
//   - ShaderBuilderOption: a function that applies the option to a shader
func WithIncludes(includes map[string]string) ShaderBuilderOption {
	return func(s *shader) {
		for name, src := range includes {
			s.includes[name] = src
		}
	}
}

// WithSampleType overrides the sample type reflected for a texture binding.
// Textures of non-filterable formats (r32float) must be declared UnfilterableFloat.
//
// Parameters:
//   - group: the @group index of the texture
//   - binding: the @binding index of the texture
//   - sampleType: the sample type to use in the layout
//
// Returns:
//   - ShaderBuilderOption: a function that applies the option to a shader
func WithSampleType(group, binding int, sampleType wgpu.TextureSampleType) ShaderBuilderOption {
	return func(s *shader) {
		s.sampleOverrides[[2]int{group, binding}] = sampleType
	}
}
