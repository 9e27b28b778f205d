package drawable

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
	"github.com/chewxy/math32"
)

// DensityParams shapes the cloud density field.
type DensityParams struct {
	// MaskRadius is the distance from the field center, in normalized units, beyond which
	// density is zero.
	MaskRadius float32

	// Octaves is the number of fBm layers summed per sample.
	Octaves int
}

// DefaultDensityParams returns the parameters the cloud uses unless overridden.
func DefaultDensityParams() DensityParams {
	return DensityParams{MaskRadius: 0.4, Octaves: 5}
}

// DensityIndex returns the linear index of cell (x, y, z) in an n*n*n field. X varies fastest,
// matching the row layout of the density texture copy.
func DensityIndex(x, y, z, n uint32) uint32 {
	return x + n*(y+n*z)
}

// DensityField evaluates the cloud density on the CPU with the same noise as the compute shader.
// Equal inputs always give equal fields, and every value is in [0, 1].
//
// Parameters:
//   - n: the edge length of the field
//   - time: the animation time, which slides the noise along X
//   - params: mask radius and octave count
//   - pool: z slices are evaluated on the pool; nil evaluates serially
//
// Returns:
//   - []float32: n*n*n densities indexed by DensityIndex
//   - error: an error if n is zero or a slice task failed
func DensityField(n uint32, time float32, params DensityParams, pool worker_pool.WorkerPool) ([]float32, error) {
	if n == 0 {
		return nil, fmt.Errorf("density field: %w: size 0", ErrFieldSizeMismatch)
	}
	field := make([]float32, n*n*n)
	slice := func(zi int) error {
		z := uint32(zi)
		for y := range n {
			for x := range n {
				field[DensityIndex(x, y, z, n)] = DensityAt(x, y, z, n, time, params)
			}
		}
		return nil
	}

	if pool == nil {
		for z := range int(n) {
			_ = slice(z)
		}
		return field, nil
	}
	return field, pool.Run(int(n), slice)
}

// DensityAt evaluates one cell of the field.
func DensityAt(x, y, z, n uint32, time float32, params DensityParams) float32 {
	size := float32(n)
	px, py, pz := float32(x)/size, float32(y)/size, float32(z)/size

	dx, dy, dz := px-0.5, py-0.5, pz-0.5
	if math32.Sqrt(dx*dx+dy*dy+dz*dz) > params.MaskRadius {
		return 0
	}

	d := fbm(
		px*3+0.5*pz+time*0.1,
		py*3+0.2*pz,
		params.Octaves,
	)
	// min and max propagate NaN.
	if math32.IsNaN(d) {
		return 0
	}
	return min(max(d, 0), 1)
}

func hash2(x, y float32) float32 {
	return fract(math32.Sin(x*12.9898+y*78.233) * 43758.5453123)
}

func fract(v float32) float32 {
	return v - math32.Floor(v)
}

func mix(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

func valueNoise(x, y float32) float32 {
	ix, iy := math32.Floor(x), math32.Floor(y)
	fx, fy := x-ix, y-iy

	a := hash2(ix, iy)
	b := hash2(ix+1, iy)
	c := hash2(ix, iy+1)
	d := hash2(ix+1, iy+1)

	ux := fx * fx * (3 - 2*fx)
	uy := fy * fy * (3 - 2*fy)
	return mix(mix(a, b, ux), mix(c, d, ux), uy)
}

func fbm(x, y float32, octaves int) float32 {
	cos, sin := math32.Cos(0.5), math32.Sin(0.5)
	var v float32
	amplitude := float32(0.5)
	for range octaves {
		v += amplitude * valueNoise(x, y)
		x, y = (cos*x-sin*y)*2+100, (sin*x+cos*y)*2+100
		amplitude *= 0.5
	}
	return v
}
