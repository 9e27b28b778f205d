package drawable

// RayMarch composites density samples front to back the way the cloud fragment shader does.
// Each sample contributes a = clamp(d*alphaScale, 0, 1) weighted by the remaining transmittance,
// so a ray through empty space returns exactly zero color and alpha.
//
// Parameters:
//   - samples: densities in ray order
//   - alphaScale: factor turning density into per-step opacity
//
// Returns:
//   - [3]float32: premultiplied white color
//   - float32: accumulated alpha in [0, 1]
func RayMarch(samples []float32, alphaScale float32) ([3]float32, float32) {
	var color [3]float32
	var alpha float32
	for _, d := range samples {
		a := min(max(d*alphaScale, 0), 1)
		w := (1 - alpha) * a
		color[0] += w
		color[1] += w
		color[2] += w
		alpha += w
	}
	return color, alpha
}

// SampleDensity reads the cell containing uvw from an n*n*n field, clamping to the edge cells.
func SampleDensity(field []float32, n uint32, uvw [3]float32) float32 {
	if n == 0 || len(field) < int(n*n*n) {
		return 0
	}
	cell := func(v float32) uint32 {
		i := int(v * float32(n))
		return uint32(min(max(i, 0), int(n)-1))
	}
	return field[DensityIndex(cell(uvw[0]), cell(uvw[1]), cell(uvw[2]), n)]
}

// MarchField collects the samples a fragment at uvw would read while stepping along +Z through
// the field, then composites them with RayMarch.
func MarchField(field []float32, n uint32, uvw [3]float32, steps int, alphaScale float32) ([3]float32, float32) {
	if steps <= 0 {
		return [3]float32{}, 0
	}
	step := 1 / float32(steps)
	samples := make([]float32, 0, steps)
	for i := range steps {
		p := [3]float32{uvw[0], uvw[1], uvw[2] + float32(i)*step}
		if p[2] > 1 {
			break
		}
		samples = append(samples, SampleDensity(field, n, p))
	}
	return RayMarch(samples, alphaScale)
}
