package drawable

import (
	"embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/shader"
)

//go:embed assets/*.wgsl
var assets embed.FS

// sharedIncludes are the snippets every drawable shader may include.
var sharedIncludes = []string{"object_uniform", "color_ramp", "noise"}

func asset(name string) string {
	src, err := assets.ReadFile("assets/" + name + ".wgsl")
	if err != nil {
		panic(fmt.Sprintf("drawable: missing embedded shader %s: %v", name, err))
	}
	return string(src)
}

// includes returns the shared snippets merged with extra, which may override them.
func includes(extra map[string]string) map[string]string {
	out := make(map[string]string, len(sharedIncludes)+len(extra))
	for _, name := range sharedIncludes {
		out[name] = asset(name)
	}
	for name, src := range extra {
		out[name] = src
	}
	return out
}

// renderShaders reflects the vertex and fragment stages of one embedded source.
func renderShaders(key, file string, opts ...shader.ShaderBuilderOption) (shader.Shader, shader.Shader, error) {
	src := asset(file)
	vs, err := shader.NewShader(key, shader.ShaderTypeVertex, src, opts...)
	if err != nil {
		return nil, nil, err
	}
	fs, err := shader.NewShader(key, shader.ShaderTypeFragment, src, opts...)
	if err != nil {
		return nil, nil, err
	}
	return vs, fs, nil
}
