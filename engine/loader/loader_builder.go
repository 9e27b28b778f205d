package loader

import (
	"net/http"

	"github.com/Carmen-Shannon/oxy-globe/common"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithHTTPClient sets the client remote resources are fetched with.
//
// Parameters:
//   - client: the HTTP client
//
// Returns:
//   - LoaderBuilderOption: a function that applies the client option to a loader
func WithHTTPClient(client *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		l.http = newHTTPLoaderBackend(client)
	}
}

// WithMaxTextureSize caps decoded image and video frame dimensions, usually to the device's
// MaxTextureDimension2D. Larger sources are downscaled preserving aspect ratio. Zero disables the cap.
//
// Parameters:
//   - size: the maximum width and height in pixels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the size option to a loader
func WithMaxTextureSize(size uint32) LoaderBuilderOption {
	return func(l *loader) {
		l.maxTextureSize = size
	}
}

// WithImage pre-populates the image cache.
//
// Parameters:
//   - location: the cache key
//   - staging: the decoded pixels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the image option to a loader
func WithImage(location string, staging common.TextureStagingData) LoaderBuilderOption {
	return func(l *loader) {
		l.imageCache[location] = staging
	}
}
