package model

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/chewxy/math32"
)

// UVSphere builds a latitude/longitude sphere around center with (segments+1)^2 vertices and a
// triangle-list index buffer. Texture coordinates run u=0..1 west to east and v=0..1 north to
// south, so an equirectangular image maps onto it directly.
//
// Parameters:
//   - radius: sphere radius
//   - segments: number of latitude and longitude subdivisions, at least 3
//   - center: sphere center
//
// Returns:
//   - Mesh[GPUTexturedVertex]: the sphere mesh
func UVSphere(radius float32, segments int, center common.Vec3) Mesh[GPUTexturedVertex] {
	segments = max(segments, 3)
	vertices := make([]GPUTexturedVertex, 0, (segments+1)*(segments+1))
	for lat := 0; lat <= segments; lat++ {
		theta := float32(lat) * math32.Pi / float32(segments)
		sinTheta, cosTheta := math32.Sin(theta), math32.Cos(theta)

		for lon := 0; lon <= segments; lon++ {
			phi := float32(lon) * 2 * math32.Pi / float32(segments)
			sinPhi, cosPhi := math32.Sin(phi), math32.Cos(phi)

			vertices = append(vertices, GPUTexturedVertex{
				Position: [3]float32{
					center[0] + radius*cosPhi*sinTheta,
					center[1] + radius*cosTheta,
					center[2] + radius*sinPhi*sinTheta,
				},
				UV: [2]float32{
					float32(lon) / float32(segments),
					float32(lat) / float32(segments),
				},
			})
		}
	}

	indices := make([]uint32, 0, segments*segments*6)
	for lat := 0; lat < segments; lat++ {
		for lon := 0; lon < segments; lon++ {
			first := uint32(lat*(segments+1) + lon)
			second := first + uint32(segments) + 1
			indices = append(indices,
				first, second, first+1,
				second, second+1, first+1,
			)
		}
	}

	return Mesh[GPUTexturedVertex]{Vertices: vertices, Indices: indices}
}

// StripGrid builds a flat grid in the XZ plane centered on center, with Y as the height channel.
// Rows run along -Z. The index buffer is a single triangle strip; consecutive rows are joined by
// two degenerate indices so no visible triangle connects unrelated rows.
//
// Parameters:
//   - width: extent along X
//   - depth: extent along Z
//   - segmentsX: cells along X, at least 1
//   - segmentsZ: cells along Z, at least 1
//   - center: grid center
//
// Returns:
//   - Mesh[GPUPositionVertex]: (segmentsX+1)*(segmentsZ+1) vertices in row-major order
func StripGrid(width, depth float32, segmentsX, segmentsZ int, center common.Vec3) Mesh[GPUPositionVertex] {
	segmentsX = max(segmentsX, 1)
	segmentsZ = max(segmentsZ, 1)
	cols := segmentsX + 1
	rows := segmentsZ + 1
	cellW := width / float32(segmentsX)
	cellD := depth / float32(segmentsZ)

	vertices := make([]GPUPositionVertex, 0, cols*rows)
	for iz := 0; iz < rows; iz++ {
		z := float32(iz)*cellD - depth/2
		for ix := 0; ix < cols; ix++ {
			x := float32(ix)*cellW - width/2
			vertices = append(vertices, GPUPositionVertex{
				Position: [3]float32{center[0] + x, center[1], center[2] - z},
			})
		}
	}

	return Mesh[GPUPositionVertex]{Vertices: vertices, Indices: StripIndices(cols, rows)}
}

// StripIndices returns triangle-strip indices for a cols x rows vertex grid, with two degenerate
// indices between rows.
func StripIndices(cols, rows int) []uint32 {
	if cols < 2 || rows < 2 {
		return nil
	}
	indices := make([]uint32, 0, (rows-1)*cols*2+(rows-2)*2)
	for iy := 0; iy < rows-1; iy++ {
		for ix := 0; ix < cols; ix++ {
			indices = append(indices,
				uint32(iy*cols+ix),
				uint32((iy+1)*cols+ix),
			)
		}
		if iy < rows-2 {
			indices = append(indices,
				uint32((iy+1)*cols+cols-1),
				uint32((iy+1)*cols),
			)
		}
	}
	return indices
}

// JitteredPointCloud fills the cube [-1, 1]^3 with gridSize^3 points. X and Z are perturbed by a
// random offset in [0, jitter) and Y is squashed by ySquash, giving a flat, uneven cloud layer.
//
// Parameters:
//   - gridSize: points per axis, at least 2
//   - jitter: maximum random offset along X and Z
//   - ySquash: scale applied to Y
//   - rng: random source; a fixed seed gives a reproducible cloud
//
// Returns:
//   - Mesh[GPUPositionVertex]: non-indexed points
func JitteredPointCloud(gridSize int, jitter, ySquash float32, rng *rand.Rand) Mesh[GPUPositionVertex] {
	gridSize = max(gridSize, 2)
	n := float32(gridSize - 1)
	vertices := make([]GPUPositionVertex, 0, gridSize*gridSize*gridSize)
	for x := 0; x < gridSize; x++ {
		for y := 0; y < gridSize; y++ {
			for z := 0; z < gridSize; z++ {
				u := float32(x)/n*2 - 1
				v := float32(y)/n*2 - 1
				w := float32(z)/n*2 - 1
				vertices = append(vertices, GPUPositionVertex{
					Position: [3]float32{
						u + rng.Float32()*jitter,
						v * ySquash,
						w + rng.Float32()*jitter,
					},
				})
			}
		}
	}
	return Mesh[GPUPositionVertex]{Vertices: vertices}
}

// Triangle builds a single colored triangle of unit size centered on center, facing +Z.
func Triangle(center common.Vec3, color [4]float32) Mesh[GPUColorVertex] {
	return Mesh[GPUColorVertex]{
		Vertices: []GPUColorVertex{
			{Position: [3]float32{center[0], center[1] + 0.5, center[2]}, Color: color},
			{Position: [3]float32{center[0] - 0.5, center[1] - 0.5, center[2]}, Color: color},
			{Position: [3]float32{center[0] + 0.5, center[1] - 0.5, center[2]}, Color: color},
		},
	}
}

// Axes builds three line segments of the given length from the origin along +X (red),
// +Y (green) and +Z (blue), for a line-list pipeline.
func Axes(length float32) Mesh[GPUColorVertex] {
	red := [4]float32{1, 0, 0, 1}
	green := [4]float32{0, 1, 0, 1}
	blue := [4]float32{0, 0, 1, 1}
	return Mesh[GPUColorVertex]{
		Vertices: []GPUColorVertex{
			{Color: red}, {Position: [3]float32{length, 0, 0}, Color: red},
			{Color: green}, {Position: [3]float32{0, length, 0}, Color: green},
			{Color: blue}, {Position: [3]float32{0, 0, length}, Color: blue},
		},
	}
}
