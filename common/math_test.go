package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMul4Identity(t *testing.T) {
	var id, m, out [16]float32
	Identity(id[:])
	for i := range m {
		m[i] = float32(i + 1)
	}
	Mul4(out[:], id[:], m[:])
	assert.Equal(t, m, out)
	Mul4(out[:], m[:], id[:])
	assert.Equal(t, m, out)
}

func TestInvert4RoundTrip(t *testing.T) {
	var m, inv, prod, id [16]float32
	Perspective(m[:], math32.Pi/4, 1.5, 0.1, 100)
	require.True(t, Invert4(inv[:], m[:]))
	Mul4(prod[:], m[:], inv[:])
	Identity(id[:])
	for i := range id {
		assert.InDelta(t, id[i], prod[i], 1e-4, "element %d", i)
	}
}

func TestInvert4Singular(t *testing.T) {
	var zero, out [16]float32
	out[0] = 42
	assert.False(t, Invert4(out[:], zero[:]))
	assert.Equal(t, float32(42), out[0])
}

func TestPerspectiveDepthRange(t *testing.T) {
	var p [16]float32
	Perspective(p[:], math32.Pi/4, 1, 0.1, 1000)

	near := TransformPoint(p[:], Vec3{0, 0, -0.1})
	far := TransformPoint(p[:], Vec3{0, 0, -1000})
	assert.InDelta(t, 0, near[2]/near[3], 1e-5)
	assert.InDelta(t, 1, far[2]/far[3], 1e-4)
}

func TestPerspectiveDeterminantNonZero(t *testing.T) {
	tests := []struct {
		name      string
		fovDeg    float32
		near, far float32
	}{
		{"narrow", 1, 0.1, 10},
		{"default", 45, 0.1, 1000},
		{"wide", 179, 0.01, 1e5},
		{"tight range", 60, 1, 1.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p [16]float32
			Perspective(p[:], tt.fovDeg*math32.Pi/180, 1, tt.near, tt.far)
			assert.NotZero(t, Determinant4(p[:]))
			var inv [16]float32
			assert.True(t, Invert4(inv[:], p[:]))
		})
	}
}

func TestLookAtPutsTargetInFront(t *testing.T) {
	var v [16]float32
	LookAt(v[:], Vec3{2, 2, 5}, Vec3{}, Vec3{0, 1, 0})
	origin := TransformPoint(v[:], Vec3{})
	assert.Less(t, origin[2], float32(0))
	assert.InDelta(t, 0, origin[0], 1e-5)
	assert.InDelta(t, 0, origin[1], 1e-5)
	assert.InDelta(t, Length3(Vec3{2, 2, 5}), -origin[2], 1e-4)
}

func TestAxisAngle(t *testing.T) {
	var r [16]float32
	AxisAngle(r[:], Vec3{0, 2, 0}, math32.Pi/2)
	p := TransformPoint(r[:], Vec3{1, 0, 0})
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, -1, p[2], 1e-5)

	AxisAngle(r[:], Vec3{}, 1)
	var id [16]float32
	Identity(id[:])
	assert.Equal(t, id, r)
}

func TestVectorHelpers(t *testing.T) {
	assert.Equal(t, Vec3{0, 0, 1}, Cross3(Vec3{1, 0, 0}, Vec3{0, 1, 0}))
	assert.Equal(t, Vec3{}, Normalize3(Vec3{}))
	assert.InDelta(t, 1, Length3(Normalize3(Vec3{3, 4, 12})), 1e-6)
	assert.Equal(t, 5, Clamp(7, 0, 5))
	assert.Equal(t, float32(0), Clamp(float32(-1), 0, 1))
	assert.Equal(t, "b", Coalesce("", "b", "c"))
}
