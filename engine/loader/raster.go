package loader

import (
	"fmt"
	"image"
	"io"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"golang.org/x/image/tiff"
)

// decodeRaster reads the first band of a grayscale TIFF as elevation samples.
// Elevation rasters store signed 16-bit meters; the decoder hands them back as unsigned
// Gray16, so they are reinterpreted bit for bit.
func decodeRaster(r io.Reader) (common.ElevationRaster, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return common.ElevationRaster{}, err
	}

	b := img.Bounds()
	raster := common.ElevationRaster{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Samples: make([]float32, b.Dx()*b.Dy()),
	}

	switch g := img.(type) {
	case *image.Gray16:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				v := g.Gray16At(b.Min.X+x, b.Min.Y+y).Y
				raster.Samples[y*b.Dx()+x] = float32(int16(v))
			}
		}
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				raster.Samples[y*b.Dx()+x] = float32(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		return common.ElevationRaster{}, fmt.Errorf("%w: %T", ErrUnsupportedRaster, img)
	}
	return raster, nil
}
