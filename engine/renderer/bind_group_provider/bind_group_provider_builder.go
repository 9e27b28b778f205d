package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option applied to a provider during NewBindGroupProvider.
type BindGroupProviderOption func(*bindGroupProvider)

// WithLayoutEntries sets the bind group slots the provider fills.
//
// Parameters:
//   - entries: the layout entries, usually taken from a parsed shader
//
// Returns:
//   - BindGroupProviderOption: a function that applies the option to a provider
func WithLayoutEntries(entries []wgpu.BindGroupLayoutEntry) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.layoutEntries = append([]wgpu.BindGroupLayoutEntry(nil), entries...)
	}
}

// WithLayoutDescriptor sets the bind group slots from a full layout descriptor.
func WithLayoutDescriptor(desc wgpu.BindGroupLayoutDescriptor) BindGroupProviderOption {
	return WithLayoutEntries(desc.Entries)
}
