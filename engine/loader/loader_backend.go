package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// loaderBackend opens the raw bytes behind a texture, video or raster location.
// Concrete implementations handle one family of URL schemes.
type loaderBackend interface {
	// Open returns a reader over the resource.
	//
	// Parameters:
	//   - ctx: cancels the request
	//   - location: the URL or path to open
	//
	// Returns:
	//   - io.ReadCloser: the resource body, closed by the caller
	//   - error: an error if the resource could not be opened
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// Local returns a path ffmpeg can open for video decoding.
	Local(location string) string
}

type httpLoaderBackend struct {
	client *http.Client
}

var _ loaderBackend = &httpLoaderBackend{}

func newHTTPLoaderBackend(client *http.Client) *httpLoaderBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpLoaderBackend{client: client}
}

func (b *httpLoaderBackend) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrFetch, location, resp.StatusCode)
	}
	return resp.Body, nil
}

// Local returns the URL unchanged; ffmpeg streams http and HLS sources itself.
func (b *httpLoaderBackend) Local(location string) string {
	return location
}

type fileLoaderBackend struct{}

var _ loaderBackend = fileLoaderBackend{}

func (fileLoaderBackend) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(filePath(location))
}

func (fileLoaderBackend) Local(location string) string {
	return filePath(location)
}

func filePath(location string) string {
	if p, ok := strings.CutPrefix(location, "file://"); ok {
		return p
	}
	return location
}

// resolveBackend selects a backend from the location's scheme. Bare paths, file:// URLs and
// Windows drive letters are read from disk.
func (l *loader) resolveBackend(location string) (loaderBackend, error) {
	u, err := url.Parse(location)
	if err != nil || len(u.Scheme) <= 1 || u.Scheme == "file" {
		return l.files, nil
	}
	switch u.Scheme {
	case "http", "https":
		return l.http, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedFormat, u.Scheme)
	}
}
