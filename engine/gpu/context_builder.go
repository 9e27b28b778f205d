package gpu

// ContextBuilderOption is a functional option applied to a context during NewContext.
type ContextBuilderOption func(*contextImpl)

// WithForceFallbackAdapter requests a CPU/software adapter instead of hardware acceleration.
// This requires a software Vulkan ICD (SwiftShader, lavapipe) to be installed.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - ContextBuilderOption: a function that applies the option to a context
func WithForceFallbackAdapter(force bool) ContextBuilderOption {
	return func(c *contextImpl) {
		c.forceFallbackAdapter = force
	}
}

// WithPresentMode sets how frames are delivered to the display. The default is VSync.
//
// Parameters:
//   - mode: the PresentMode to configure the surface with
//
// Returns:
//   - ContextBuilderOption: a function that applies the option to a context
func WithPresentMode(mode PresentMode) ContextBuilderOption {
	return func(c *contextImpl) {
		c.presentMode = wgpuPresentMode(mode)
	}
}

// WithMSAA sets the sample count of the main render pass. The default is MSAA4x.
//
// Parameters:
//   - count: MSAAOff or MSAA4x
//
// Returns:
//   - ContextBuilderOption: a function that applies the option to a context
func WithMSAA(count MSAASampleCount) ContextBuilderOption {
	return func(c *contextImpl) {
		if count == 0 {
			count = MSAAOff
		}
		c.sampleCount = count
	}
}

// WithMaxTextureDimension raises the requested 2D texture size limit. Large equirectangular
// globe textures need more than the WebGPU default of 8192.
func WithMaxTextureDimension(size uint32) ContextBuilderOption {
	return func(c *contextImpl) {
		if size > c.limits.MaxTextureDimension2D {
			c.limits.MaxTextureDimension2D = size
		}
	}
}
