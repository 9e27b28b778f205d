package model

import (
	"math/rand/v2"
	"testing"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexSizes(t *testing.T) {
	assert.Equal(t, 20, (&GPUTexturedVertex{}).Size())
	assert.Equal(t, 12, (&GPUPositionVertex{}).Size())
	assert.Equal(t, 28, (&GPUColorVertex{}).Size())
}

func TestUVSphere(t *testing.T) {
	m := UVSphere(2, 32, common.Vec3{})

	assert.Equal(t, 33*33, m.VertexCount())
	assert.Equal(t, 32*32*6, m.IndexCount())
	assert.Len(t, m.VertexData(), 33*33*20)
	assert.InDelta(t, 2, m.BoundingRadius(), 1e-5)

	for _, idx := range m.Indices {
		require.Less(t, int(idx), m.VertexCount())
	}

	north := m.Vertices[0]
	assert.InDelta(t, 2, north.Position[1], 1e-6)
	assert.Equal(t, [2]float32{0, 0}, north.UV)
	last := m.Vertices[len(m.Vertices)-1]
	assert.Equal(t, [2]float32{1, 1}, last.UV)
}

func TestUVSphereClampsSegments(t *testing.T) {
	m := UVSphere(1, 1, common.Vec3{})
	assert.Equal(t, 16, m.VertexCount())
}

func TestStripIndicesDegenerates(t *testing.T) {
	// 3x3 vertices: two strips of 6 indices joined by 2 degenerates.
	got := StripIndices(3, 3)
	want := []uint32{
		0, 3, 1, 4, 2, 5,
		5, 3,
		3, 6, 4, 7, 5, 8,
	}
	assert.Equal(t, want, got)
	assert.Nil(t, StripIndices(1, 5))
}

func TestStripGrid(t *testing.T) {
	m := StripGrid(4, 2, 4, 2, common.Vec3{0, 1, 0})
	require.Equal(t, 5*3, m.VertexCount())

	first := m.Vertices[0].Position
	assert.Equal(t, [3]float32{-2, 1, 1}, first)
	lastRow := m.Vertices[len(m.Vertices)-1].Position
	assert.Equal(t, [3]float32{2, 1, -1}, lastRow)
	for _, v := range m.Vertices {
		assert.Equal(t, float32(1), v.Position[1], "grid starts flat")
	}
}

func TestJitteredPointCloud(t *testing.T) {
	a := JitteredPointCloud(8, 0.3, 0.3, rand.New(rand.NewPCG(1, 2)))
	b := JitteredPointCloud(8, 0.3, 0.3, rand.New(rand.NewPCG(1, 2)))
	require.Equal(t, 512, a.VertexCount())
	assert.Equal(t, a.Vertices, b.Vertices, "same seed gives the same cloud")
	assert.Nil(t, a.Indices)

	for _, v := range a.Vertices {
		p := v.Position
		assert.True(t, p[0] >= -1 && p[0] <= 1.3)
		assert.True(t, p[1] >= -0.3 && p[1] <= 0.3)
		assert.True(t, p[2] >= -1 && p[2] <= 1.3)
	}
}

func TestDebugShapes(t *testing.T) {
	tri := Triangle(common.Vec3{1, 0, 0}, [4]float32{1, 0, 0, 1})
	assert.Equal(t, 3, tri.VertexCount())
	assert.Equal(t, float32(1), tri.Vertices[0].Position[0])

	axes := Axes(2)
	assert.Equal(t, 6, axes.VertexCount())
	assert.InDelta(t, 2, axes.BoundingRadius(), 1e-6)
}
