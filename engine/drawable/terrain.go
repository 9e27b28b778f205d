package drawable

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/model"
	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
)

// DefaultHeightScale converts raster meters into model units.
const DefaultHeightScale float32 = 1.0 / 10000

// ErrEmptyRaster is returned when elevation data has no samples.
var ErrEmptyRaster = errors.New("drawable: empty elevation raster")

// ResampleElevation maps a raster onto a cols x rows vertex grid by nearest sample, clamps
// negative values (including the no-data sentinel) to zero and applies scale. A raster with the
// same dimensions as the grid maps cell by cell.
//
// Parameters:
//   - raster: the elevation samples
//   - cols, rows: the vertex grid dimensions
//   - scale: factor applied to every clamped sample
//   - pool: rows are resampled on the pool; nil resamples serially
//
// Returns:
//   - []float32: cols*rows heights in row-major order
//   - error: ErrEmptyRaster, or an error if the sample count does not match the dimensions
func ResampleElevation(raster common.ElevationRaster, cols, rows int, scale float32, pool worker_pool.WorkerPool) ([]float32, error) {
	if raster.Width <= 0 || raster.Height <= 0 || len(raster.Samples) == 0 {
		return nil, ErrEmptyRaster
	}
	if len(raster.Samples) != raster.Width*raster.Height {
		return nil, fmt.Errorf("elevation raster: %d samples for %dx%d", len(raster.Samples), raster.Width, raster.Height)
	}
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("elevation grid: invalid size %dx%d", cols, rows)
	}

	heights := make([]float32, cols*rows)
	resampleRow := func(iy int) error {
		sy := sourceIndex(iy, rows, raster.Height)
		for ix := range cols {
			sx := sourceIndex(ix, cols, raster.Width)
			heights[iy*cols+ix] = max(raster.Samples[sy*raster.Width+sx], 0) * scale
		}
		return nil
	}

	if pool == nil {
		for iy := range rows {
			_ = resampleRow(iy)
		}
		return heights, nil
	}
	return heights, pool.Run(rows, resampleRow)
}

// sourceIndex picks the raster index nearest to grid index i of n.
func sourceIndex(i, n, size int) int {
	if n <= 1 || size <= 1 {
		return 0
	}
	return min(int(float32(i)*float32(size-1)/float32(n-1)+0.5), size-1)
}

// HeightRange returns the (min, max) of heights for color-ramp normalization. The minimum
// starts at zero, matching the clamping of negative samples.
func HeightRange(heights []float32) (float32, float32) {
	var lo, hi float32
	for _, h := range heights {
		lo = min(lo, h)
		hi = max(hi, h)
	}
	return lo, hi
}

// ApplyHeights overwrites the Y channel of every vertex with the matching height.
// The vertex grid is rewritten as a whole; heights must hold one value per vertex.
func ApplyHeights(vertices []model.GPUPositionVertex, heights []float32) error {
	if len(vertices) != len(heights) {
		return fmt.Errorf("apply heights: %d heights for %d vertices", len(heights), len(vertices))
	}
	for i := range vertices {
		vertices[i].Position[1] = heights[i]
	}
	return nil
}

// RampColor is the CPU twin of the plane shader's color ramp: purple at 0, yellow at 0.5 and
// red at 1, blended by two linear segments switched at the midpoint.
func RampColor(t float32) [3]float32 {
	low := [3]float32{0.5, 0, 0.5}
	mid := [3]float32{1, 1, 0}
	high := [3]float32{1, 0, 0}

	t = common.Clamp(t, 0, 1)
	if t < 0.5 {
		return lerp3(low, mid, t*2)
	}
	return lerp3(mid, high, t*2-1)
}

func lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}
