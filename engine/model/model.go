// Package model builds the procedural meshes the drawables upload: the UV sphere of the globe,
// the triangle-strip terrain grid, the jittered cloud point volume and the debug shapes.
package model

import (
	"github.com/Carmen-Shannon/oxy-globe/common"
)

// Mesh is CPU-side geometry ready for upload. Indices is nil for non-indexed geometry.
type Mesh[V Positioned] struct {
	Vertices []V
	Indices  []uint32
}

// VertexData returns the vertices as raw bytes for a vertex buffer. The bytes share memory with
// Vertices.
func (m *Mesh[V]) VertexData() []byte {
	return common.SliceToBytes(m.Vertices)
}

// VertexCount returns the number of vertices.
func (m *Mesh[V]) VertexCount() int {
	return len(m.Vertices)
}

// IndexCount returns the number of indices.
func (m *Mesh[V]) IndexCount() int {
	return len(m.Indices)
}

// BoundingRadius returns the distance of the farthest vertex from the origin.
func (m *Mesh[V]) BoundingRadius() float32 {
	return ComputeBoundingRadius(m.Vertices)
}
