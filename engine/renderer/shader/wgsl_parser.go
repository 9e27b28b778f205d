package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	structRegex        = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex      = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex       = regexp.MustCompile(`@builtin\(\w+\)`)
	attributeRegex     = regexp.MustCompile(`@\w+(\([^)]*\))?`)
	fieldRegex         = regexp.MustCompile(`(\w+)\s*:\s*(.+)$`)
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?(?:,\s*(\d+)\s*)?\)`)
	bindingDeclRegex   = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	entryRegexes = map[ShaderType]*regexp.Regexp{
		ShaderTypeVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		ShaderTypeFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
		ShaderTypeCompute:  regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`),
	}
)

// wgslField is one member of a parsed struct.
type wgslField struct {
	name     string
	typeName string
	location int // -1 when the field has no @location
	builtin  bool
}

type wgslStruct struct {
	name   string
	fields []wgslField
}

// layoutInfo is the WGSL size and alignment of a type.
type layoutInfo struct {
	size, align uint64
}

var vertexFormats = map[string]struct {
	format wgpu.VertexFormat
	size   uint64
}{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"i32":       {wgpu.VertexFormatSint32, 4},
}

// primitiveLayouts holds size and alignment per https://www.w3.org/TR/WGSL/#alignment-and-size.
var primitiveLayouts = map[string]layoutInfo{
	"f32": {4, 4}, "i32": {4, 4}, "u32": {4, 4}, "bool": {4, 4},
	"vec2f": {8, 8}, "vec2<f32>": {8, 8}, "vec2u": {8, 8}, "vec2<u32>": {8, 8},
	"vec3f": {12, 16}, "vec3<f32>": {12, 16}, "vec3u": {12, 16}, "vec3<u32>": {12, 16},
	"vec4f": {16, 16}, "vec4<f32>": {16, 16}, "vec4u": {16, 16}, "vec4<u32>": {16, 16},
	"mat3x3f": {48, 16}, "mat3x3<f32>": {48, 16},
	"mat4x4f": {64, 16}, "mat4x4<f32>": {64, 16},
	"atomic<u32>": {4, 4}, "atomic<i32>": {4, 4},
}

var textureDimensions = map[string]wgpu.TextureViewDimension{
	"texture_1d":         wgpu.TextureViewDimension1D,
	"texture_2d":         wgpu.TextureViewDimension2D,
	"texture_2d_array":   wgpu.TextureViewDimension2DArray,
	"texture_3d":         wgpu.TextureViewDimension3D,
	"texture_cube":       wgpu.TextureViewDimensionCube,
	"texture_depth_2d":   wgpu.TextureViewDimension2D,
	"texture_storage_2d": wgpu.TextureViewDimension2D,
	"texture_storage_3d": wgpu.TextureViewDimension3D,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var storageFormats = map[string]wgpu.TextureFormat{
	"r32float":    wgpu.TextureFormatR32Float,
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"rgba32float": wgpu.TextureFormatRGBA32Float,
}

// stripComments removes block comments (nested per WGSL) and line comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}

	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		if before, _, found := strings.Cut(line, "//"); found {
			lines[i] = before
		}
	}
	return strings.Join(lines, "\n")
}

// parseEntryPoint returns the function name annotated for the stage, or "".
func parseEntryPoint(source string, shaderType ShaderType) string {
	re, ok := entryRegexes[shaderType]
	if !ok {
		return ""
	}
	if m := re.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

// parseWorkgroupSize reads @workgroup_size(x[, y[, z]]); omitted dimensions are 1.
func parseWorkgroupSize(source string) [3]uint32 {
	size := [3]uint32{1, 1, 1}
	m := workgroupSizeRegex.FindStringSubmatch(source)
	if m == nil {
		return size
	}
	for i := range 3 {
		if m[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(m[i+1], 10, 32); err == nil {
			size[i] = uint32(v)
		}
	}
	return size
}

func parseStructs(source string) []wgslStruct {
	matches := structRegex.FindAllStringSubmatch(source, -1)
	structs := make([]wgslStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, wgslStruct{name: m[1], fields: parseFields(m[2])})
	}
	return structs
}

func parseFields(body string) []wgslField {
	var fields []wgslField
	for _, part := range splitTopLevel(body) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := wgslField{location: -1, builtin: builtinRegex.MatchString(part)}
		if lm := locationRegex.FindStringSubmatch(part); lm != nil {
			f.location, _ = strconv.Atoi(lm[1])
		}
		bare := strings.TrimSpace(attributeRegex.ReplaceAllString(part, ""))
		fm := fieldRegex.FindStringSubmatch(bare)
		if fm == nil {
			continue
		}
		f.name = fm[1]
		f.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, f)
	}
	return fields
}

// splitTopLevel splits a struct body at commas outside angle brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// parseVertexLayouts turns every struct with @location members and no @builtin members
// into a tightly packed vertex buffer layout.
func parseVertexLayouts(source string) []wgpu.VertexBufferLayout {
	var layouts []wgpu.VertexBufferLayout
	for _, st := range parseStructs(source) {
		if !isVertexInput(st) {
			continue
		}
		var offset uint64
		attrs := make([]wgpu.VertexAttribute, 0, len(st.fields))
		ok := true
		for _, f := range st.fields {
			vf, found := vertexFormats[f.typeName]
			if !found {
				ok = false
				break
			}
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         vf.format,
				Offset:         offset,
				ShaderLocation: uint32(f.location),
			})
			offset += vf.size
		}
		if !ok {
			continue
		}
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: offset,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	return layouts
}

func isVertexInput(st wgslStruct) bool {
	located := false
	for _, f := range st.fields {
		if f.builtin {
			return false
		}
		if f.location >= 0 {
			located = true
		}
	}
	return located
}

func roundUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

// typeLayout resolves primitives, known structs and arrays. Runtime-sized arrays report one element.
func typeLayout(typeName string, known map[string]layoutInfo) (layoutInfo, bool) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, true
	}
	if l, ok := known[typeName]; ok {
		return l, true
	}
	if inner, ok := strings.CutPrefix(typeName, "array<"); ok {
		inner = strings.TrimSuffix(inner, ">")
		elem, count, sized := strings.Cut(inner, ",")
		el, ok := typeLayout(strings.TrimSpace(elem), known)
		if !ok {
			return layoutInfo{}, false
		}
		stride := roundUp(el.align, el.size)
		if !sized {
			return layoutInfo{stride, el.align}, true
		}
		n, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
		if err != nil {
			return layoutInfo{}, false
		}
		return layoutInfo{n * stride, el.align}, true
	}
	return layoutInfo{}, false
}

// structLayouts computes the layout of every struct, resolving nested structs iteratively.
func structLayouts(structs []wgslStruct) map[string]layoutInfo {
	known := make(map[string]layoutInfo, len(structs))
	pending := append([]wgslStruct(nil), structs...)
	for len(pending) > 0 {
		var next []wgslStruct
		for _, st := range pending {
			var offset uint64
			maxAlign := uint64(1)
			ok := true
			for _, f := range st.fields {
				if f.builtin {
					continue
				}
				fl, found := typeLayout(f.typeName, known)
				if !found {
					ok = false
					break
				}
				offset = roundUp(fl.align, offset) + fl.size
				maxAlign = max(maxAlign, fl.align)
			}
			if ok {
				known[st.name] = layoutInfo{roundUp(maxAlign, offset), maxAlign}
			} else {
				next = append(next, st)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return known
}

// parseBindGroupLayouts reflects every @group/@binding declaration into layout descriptors.
// Buffer entries carry MinBindingSize when the bound type can be sized.
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	sizes := structLayouts(parseStructs(source))
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, m := range bindingDeclRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		addressSpace := strings.TrimSpace(m[3])
		typeName := strings.TrimSpace(m[5])

		entry := classifyBinding(uint32(binding), visibility, addressSpace, typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := typeLayout(typeName, sizes); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		}
		groups[group] = append(groups[group], entry)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = m[4]
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		out[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return out, names
}

func classifyBinding(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage") && strings.Contains(addressSpace, "read_write"):
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_storage_"):
		base, params, _ := strings.Cut(strings.TrimSuffix(typeName, ">"), "<")
		format, access, _ := strings.Cut(params, ",")
		entry.StorageTexture.ViewDimension = textureDimensions[base]
		entry.StorageTexture.Format = storageFormats[strings.TrimSpace(format)]
		switch strings.TrimSpace(access) {
		case "read":
			entry.StorageTexture.Access = wgpu.StorageTextureAccessReadOnly
		case "read_write":
			entry.StorageTexture.Access = wgpu.StorageTextureAccessReadWrite
		default:
			entry.StorageTexture.Access = wgpu.StorageTextureAccessWriteOnly
		}
	case strings.HasPrefix(typeName, "texture_depth_"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = textureDimensions[typeName]
	case strings.HasPrefix(typeName, "texture_"):
		base, param, _ := strings.Cut(strings.TrimSuffix(typeName, ">"), "<")
		entry.Texture.ViewDimension = textureDimensions[base]
		entry.Texture.SampleType = sampleTypes[strings.TrimSpace(param)]
	}
	return entry
}
