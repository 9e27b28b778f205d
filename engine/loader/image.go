package loader

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodeImage decodes any registered format into tightly packed RGBA8 pixels.
func decodeImage(r io.Reader, maxSize uint32) (common.TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	return toStaging(img, maxSize), nil
}

// toStaging caps the image to maxSize and converts it to RGBA staging data.
func toStaging(img image.Image, maxSize uint32) common.TextureStagingData {
	w, h := fitWithin(img.Bounds().Dx(), img.Bounds().Dy(), int(maxSize))
	if w != img.Bounds().Dx() || h != img.Bounds().Dy() {
		img = transform.Resize(img, w, h, transform.Linear)
	}

	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	pixels := rgba.Pix
	if rgba.Stride != 4*b.Dx() {
		pixels = make([]byte, 0, 4*b.Dx()*b.Dy())
		for y := 0; y < b.Dy(); y++ {
			row := rgba.Pix[y*rgba.Stride:]
			pixels = append(pixels, row[:4*b.Dx()]...)
		}
	}
	return common.TextureStagingData{
		Pixels: pixels,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}
}

// fitWithin scales w×h down so neither side exceeds maxSize, keeping at least one pixel.
func fitWithin(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return w, h
	}
	if w >= h {
		return maxSize, max(1, h*maxSize/w)
	}
	return max(1, w*maxSize/h), maxSize
}
