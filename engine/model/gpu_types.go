package model

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// GPUTexturedVertex is the vertex layout of the globe: position followed by a texture coordinate.
// Size: 20 bytes, matching a WGSL VertexInput of vec3<f32> @location(0) and vec2<f32> @location(1).
type GPUTexturedVertex struct {
	Position [3]float32 // offset  0
	UV       [2]float32 // offset 12
}

// Size returns the size of the GPUTexturedVertex struct in bytes.
func (g *GPUTexturedVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPUPositionVertex is a position-only vertex, used by the terrain grid and the cloud points.
// Size: 12 bytes.
type GPUPositionVertex struct {
	Position [3]float32 // offset 0
}

// Size returns the size of the GPUPositionVertex struct in bytes.
func (g *GPUPositionVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPUColorVertex is a position with an RGBA color, used by the debug primitives.
// Size: 28 bytes.
type GPUColorVertex struct {
	Position [3]float32 // offset  0
	Color    [4]float32 // offset 12
}

// Size returns the size of the GPUColorVertex struct in bytes.
func (g *GPUColorVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Positioned is implemented by every vertex type so bounds can be computed generically.
type Positioned interface {
	GPUTexturedVertex | GPUPositionVertex | GPUColorVertex
}

func positionOf[V Positioned](v V) [3]float32 {
	switch vv := any(v).(type) {
	case GPUTexturedVertex:
		return vv.Position
	case GPUPositionVertex:
		return vv.Position
	case GPUColorVertex:
		return vv.Position
	}
	return [3]float32{}
}

// ComputeBoundingRadius returns the largest distance from the origin across all vertices.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius[V Positioned](vertices []V) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := positionOf(v)
		maxDistSq = max(maxDistSq, p[0]*p[0]+p[1]*p[1]+p[2]*p[2])
	}
	return math32.Sqrt(maxDistSq)
}
