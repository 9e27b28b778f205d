package loader

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeRaster(t *testing.T, samples [][]int16) []byte {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, len(samples[0]), len(samples)))
	for y, row := range samples {
		for x, v := range row {
			img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadImageFromHTTP(t *testing.T) {
	body := encodePNG(t, 4, 3)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/earth.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	l := NewLoader(WithHTTPClient(srv.Client()))

	staging, err := l.LoadImage(context.Background(), srv.URL+"/earth.png")
	require.NoError(t, err)
	assert.Equal(t, uint32(4), staging.Width)
	assert.Equal(t, uint32(3), staging.Height)
	require.Len(t, staging.Pixels, 4*3*4)
	// Pixel (2, 1).
	px := staging.Pixels[(1*4+2)*4:]
	assert.Equal(t, []byte{2, 1, 200, 255}, px[:4])

	_, err = l.LoadImage(context.Background(), srv.URL+"/earth.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second load is served from the cache")

	_, ok := l.Get(srv.URL + "/earth.png")
	assert.True(t, ok)
	assert.Len(t, l.Images(), 1)

	_, err = l.LoadImage(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestLoadImageCapsToMaxSize(t *testing.T) {
	path := writeFile(t, "wide.png", encodePNG(t, 64, 16))
	l := NewLoader(WithMaxTextureSize(32))

	staging, err := l.LoadImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), staging.Width)
	assert.Equal(t, uint32(8), staging.Height)
	assert.Len(t, staging.Pixels, 32*8*4)
}

func TestLoadImageRejectsNonImages(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("ocean currents, not pixels"))
	l := NewLoader()

	_, err := l.LoadImage(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.LoadImage(context.Background(), "ftp://example.com/earth.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.LoadImage(context.Background(), filepath.Join(t.TempDir(), "absent.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadImageHonorsContext(t *testing.T) {
	path := writeFile(t, "earth.png", encodePNG(t, 2, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader().LoadImage(ctx, "file://"+path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithImagePrefillsCache(t *testing.T) {
	want := common.TextureStagingData{Pixels: []byte{1, 2, 3, 4}, Width: 1, Height: 1}
	l := NewLoader(WithImage("mem://dot", want))

	got, err := l.LoadImage(context.Background(), "mem://dot")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRaster(t *testing.T) {
	path := writeFile(t, "dem.tif", encodeRaster(t, [][]int16{
		{0, 120, -5},
		{common.ElevationNoData, 4000, 32767},
	}))

	raster, err := NewLoader().LoadRaster(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, raster.Width)
	assert.Equal(t, 2, raster.Height)
	assert.Equal(t, []float32{0, 120, -5, common.ElevationNoData, 4000, 32767}, raster.Samples)
}

func TestLoadRasterRejectsOtherFormats(t *testing.T) {
	path := writeFile(t, "earth.png", encodePNG(t, 2, 2))
	_, err := NewLoader().LoadRaster(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenVideoRejectsImages(t *testing.T) {
	path := writeFile(t, "earth.png", encodePNG(t, 2, 2))
	_, err := NewLoader().OpenVideo(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 0, 100, 50},
		{100, 50, 200, 100, 50},
		{100, 50, 50, 50, 25},
		{50, 100, 50, 25, 50},
		{1000, 1, 10, 10, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}
