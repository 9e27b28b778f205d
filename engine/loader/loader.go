package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/drawable"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/material"
	"github.com/h2non/filetype"
)

// sniffLen is the number of header bytes filetype needs to match every supported format.
const sniffLen = 262

var (
	// ErrUnsupportedFormat is returned when the content is not an image, video or raster the
	// loader can decode, or when the location's scheme is unknown.
	ErrUnsupportedFormat = errors.New("loader: unsupported format")

	// ErrFetch is returned when a remote resource answers with a non-2xx status.
	ErrFetch = errors.New("loader: fetch failed")

	// ErrUnsupportedRaster is returned for TIFF pixel layouts that carry no elevation channel.
	ErrUnsupportedRaster = errors.New("loader: unsupported raster layout")

	// ErrVideoUnsupported is returned by OpenVideo in builds without ffmpeg.
	ErrVideoUnsupported = errors.New("loader: video decoding not compiled in")
)

// Loader fetches and decodes the external data the drawables consume: globe textures, video
// streams and elevation rasters. Locations are http(s) URLs, file:// URLs or bare paths.
// Decoded images are cached by location. Thread-safe for concurrent access.
type Loader interface {
	drawable.TextureSource

	// LoadRaster fetches a TIFF and returns its first band as elevation samples.
	// 16-bit samples are read as signed values so the -32767 no-data sentinel survives.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - location: the URL or path of the raster
	//
	// Returns:
	//   - common.ElevationRaster: the samples in row-major order
	//   - error: a fetch, format or decode error
	LoadRaster(ctx context.Context, location string) (common.ElevationRaster, error)

	// Get retrieves a cached decoded image.
	//
	// Parameters:
	//   - location: the location the image was loaded from
	//
	// Returns:
	//   - common.TextureStagingData: the decoded pixels
	//   - bool: false if the location has not been loaded
	Get(location string) (common.TextureStagingData, bool)

	// Images returns a copy of the decoded image cache.
	Images() map[string]common.TextureStagingData
}

type loader struct {
	mu *sync.RWMutex

	http  loaderBackend
	files loaderBackend

	// maxTextureSize caps both image dimensions; larger images are downscaled.
	maxTextureSize uint32
	imageCache     map[string]common.TextureStagingData
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:             &sync.RWMutex{},
		files:          fileLoaderBackend{},
		maxTextureSize: 8192,
		imageCache:     make(map[string]common.TextureStagingData),
	}
	for _, option := range options {
		option(l)
	}
	if l.http == nil {
		l.http = newHTTPLoaderBackend(nil)
	}
	return l
}

func (l *loader) LoadImage(ctx context.Context, location string) (common.TextureStagingData, error) {
	if cached, ok := l.Get(location); ok {
		return cached, nil
	}

	data, err := l.read(ctx, location)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	if !filetype.IsImage(data) {
		return common.TextureStagingData{}, fmt.Errorf("%w: %s is not an image", ErrUnsupportedFormat, location)
	}

	staging, err := decodeImage(bytes.NewReader(data), l.maxTextureSize)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("decode %s: %w", location, err)
	}
	slog.Debug("image loaded", "location", location, "width", staging.Width, "height", staging.Height)

	l.mu.Lock()
	l.imageCache[location] = staging
	l.mu.Unlock()
	return staging, nil
}

func (l *loader) OpenVideo(ctx context.Context, location string) (material.FrameStream, error) {
	backend, err := l.resolveBackend(location)
	if err != nil {
		return nil, err
	}

	// Local files are sniffed first; remote streams (HLS playlists included) go straight to ffmpeg.
	if _, remote := backend.(*httpLoaderBackend); !remote {
		head, err := l.head(ctx, backend, location)
		if err != nil {
			return nil, err
		}
		if !filetype.IsVideo(head) {
			return nil, fmt.Errorf("%w: %s is not a video", ErrUnsupportedFormat, location)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return openVideo(backend.Local(location), l.maxTextureSize)
}

func (l *loader) LoadRaster(ctx context.Context, location string) (common.ElevationRaster, error) {
	data, err := l.read(ctx, location)
	if err != nil {
		return common.ElevationRaster{}, err
	}
	kind, err := filetype.Match(data)
	if err != nil || kind.Extension != "tif" {
		return common.ElevationRaster{}, fmt.Errorf("%w: %s is not a TIFF raster", ErrUnsupportedFormat, location)
	}

	raster, err := decodeRaster(bytes.NewReader(data))
	if err != nil {
		return common.ElevationRaster{}, fmt.Errorf("decode raster %s: %w", location, err)
	}
	slog.Debug("raster loaded", "location", location, "width", raster.Width, "height", raster.Height)
	return raster, nil
}

func (l *loader) Get(location string) (common.TextureStagingData, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	staging, ok := l.imageCache[location]
	return staging, ok
}

func (l *loader) Images() map[string]common.TextureStagingData {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]common.TextureStagingData, len(l.imageCache))
	for k, v := range l.imageCache {
		result[k] = v
	}
	return result
}

// read fetches the whole resource into memory.
func (l *loader) read(ctx context.Context, location string) ([]byte, error) {
	backend, err := l.resolveBackend(location)
	if err != nil {
		return nil, err
	}
	rc, err := backend.Open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// head reads the first sniffLen bytes of the resource.
func (l *loader) head(ctx context.Context, backend loaderBackend, location string) ([]byte, error) {
	rc, err := backend.Open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	defer rc.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return buf[:n], nil
}
