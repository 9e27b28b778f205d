package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCamera(t *testing.T, options ...CameraBuilderOption) Camera {
	t.Helper()
	c, err := NewCamera(options...)
	require.NoError(t, err)
	return c
}

func TestNewCameraValidation(t *testing.T) {
	tests := []struct {
		name    string
		options []CameraBuilderOption
		wantErr error
	}{
		{"near equals far", []CameraBuilderOption{WithClipRange(1, 1)}, ErrInvalidClipRange},
		{"near beyond far", []CameraBuilderOption{WithClipRange(10, 1)}, ErrInvalidClipRange},
		{"zero near", []CameraBuilderOption{WithClipRange(0, 1)}, ErrInvalidClipRange},
		{"zero fov", []CameraBuilderOption{WithFovDegrees(0)}, ErrInvalidFov},
		{"straight fov", []CameraBuilderOption{WithFovDegrees(180)}, ErrInvalidFov},
		{"zero aspect", []CameraBuilderOption{WithAspect(0)}, ErrInvalidAspect},
		{"valid", []CameraBuilderOption{WithFovDegrees(60), WithClipRange(0.1, 100)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCamera(tt.options...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOriginIsInFrontOfCamera(t *testing.T) {
	c := newTestCamera(t,
		WithPosition(common.Vec3{2, 2, 5}),
		WithTarget(common.Vec3{0, 0, 0}),
		WithUp(common.Vec3{0, 1, 0}),
		WithFovDegrees(45),
		WithAspect(1),
		WithClipRange(0.1, 1000),
	)
	c.UpdateViewMatrix()

	view := c.ViewMatrix()
	p := common.TransformPoint(view[:], common.Vec3{0, 0, 0})
	depth := -p[2]
	assert.Greater(t, depth, float32(0))
	assert.InDelta(t, math32.Sqrt(33), depth, 1e-4)

	vp := c.ViewProjectionMatrix()
	clip := common.TransformPoint(vp[:], common.Vec3{0, 0, 0})
	assert.Greater(t, clip[3], float32(0))
	ndcZ := clip[2] / clip[3]
	assert.True(t, ndcZ > 0 && ndcZ < 1, "ndc z %f outside [0, 1]", ndcZ)
}

func TestProjectionInvertible(t *testing.T) {
	for _, fov := range []float32{1, 30, 45, 90, 170, 179} {
		c := newTestCamera(t, WithFovDegrees(fov), WithClipRange(0.01, 5000))
		proj := c.ProjectionMatrix()
		assert.NotZero(t, common.Determinant4(proj[:]), "fov %f", fov)
	}
}

func TestSetAspectRatio(t *testing.T) {
	c := newTestCamera(t)
	before := c.ProjectionMatrix()

	assert.ErrorIs(t, c.SetAspectRatio(0), ErrInvalidAspect)
	assert.ErrorIs(t, c.SetAspectRatio(-2), ErrInvalidAspect)
	assert.Equal(t, before, c.ProjectionMatrix())

	require.NoError(t, c.SetAspectRatio(2))
	after := c.ProjectionMatrix()
	assert.InDelta(t, before[0]/2, after[0], 1e-6)
	assert.Equal(t, float32(2), c.Aspect())
}

func TestMoveAndSetPositionUpdateView(t *testing.T) {
	c := newTestCamera(t)
	c.Move(common.Vec3{0, 0, 2})
	assert.Equal(t, common.Vec3{0, 0, 5}, c.Position())

	view := c.ViewMatrix()
	assert.InDelta(t, -5, view[14], 1e-6)

	c.SetPosition(common.Vec3{0, 0, 10})
	view = c.ViewMatrix()
	assert.InDelta(t, -10, view[14], 1e-6)
}

func TestGettersReturnCopies(t *testing.T) {
	c := newTestCamera(t)
	p := c.Position()
	p[0] = 99
	assert.NotEqual(t, p, c.Position())

	v := c.ViewMatrix()
	v[0] = 99
	assert.NotEqual(t, v, c.ViewMatrix())
}

func TestOrbitClampsPolarAngle(t *testing.T) {
	c := newTestCamera(t, WithPosition(common.Vec3{0, 0, 4}))

	for _, pitch := range []float32{10, -10, 100, -1000, 3, 3} {
		c.Orbit(0.7, pitch)
		p := c.Position()
		r := common.Length3(p)
		assert.InDelta(t, 4, r, 1e-3, "orbit preserves the radius")
		phi := math32.Acos(p[1] / r)
		assert.GreaterOrEqual(t, phi, PolarMargin-1e-4)
		assert.LessOrEqual(t, phi, math32.Pi-PolarMargin+1e-4)
	}
}

func TestOrbitCancelsAnimation(t *testing.T) {
	c := newTestCamera(t)
	c.SetSphericalPosition(2, 10, 20)
	require.True(t, c.Animating())

	c.Orbit(0.1, 0)
	assert.False(t, c.Animating())
	assert.False(t, c.Advance())
}

func TestDolly(t *testing.T) {
	c := newTestCamera(t)

	require.True(t, c.Dolly(0.1, 1.5))
	assert.InDelta(t, 2.9, c.Position()[2], 1e-6)

	require.True(t, c.Dolly(-0.1, 1.5))
	assert.InDelta(t, 3, c.Position()[2], 1e-6)

	c.SetPosition(common.Vec3{0, 0, 1.55})
	require.True(t, c.Dolly(0.1, 1.5))
	assert.InDelta(t, 1.5, c.Position()[2], 1e-6)
	assert.False(t, c.Dolly(0.1, 1.5))
}

func TestSetSphericalPositionConverges(t *testing.T) {
	c := newTestCamera(t)
	c.SetSphericalPosition(2, 0, 0)

	steps := 0
	for c.Advance() {
		steps++
		require.Less(t, steps, 5000, "animation never settled")
	}
	assert.False(t, c.Animating())
	assert.Equal(t, common.Vec3{-2, 0, 0}, c.Position())

	lat, lon, r := c.SphericalPosition()
	assert.InDelta(t, 0, lat, 1e-4)
	assert.InDelta(t, 0, lon, 1e-4)
	assert.InDelta(t, 2, r, 1e-6)
}

func TestSetSphericalPositionFarSide(t *testing.T) {
	c := newTestCamera(t, WithPosition(common.Vec3{3, 0, 0}))
	c.SetSphericalPosition(2, 0, 0)
	for c.Advance() {
	}
	assert.Equal(t, common.Vec3{-3, 0, 0}, c.Position())
}

func TestSetSphericalPositionPerpendicularGoal(t *testing.T) {
	// The pole is perpendicular to an eye on the equator; rounding must not push it outward.
	from := common.Vec3{-0.03, 0, 2.985}
	a := newSphericalAnimation(from, 2, 90, 0)
	assert.InDelta(t, 2, common.Length3(a.goal), 1e-5)

	behind := newSphericalAnimation(common.Vec3{3, 0, 0}, 2, 0, 0)
	assert.InDelta(t, 3, common.Length3(behind.goal), 1e-5)
}

func TestSetSphericalPositionReplacesPending(t *testing.T) {
	c := newTestCamera(t)
	c.SetSphericalPosition(2, 0, 0)
	c.Advance()
	c.SetSphericalPosition(2, 90, 0)
	for c.Advance() {
	}
	p := c.Position()
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 2, p[1], 1e-5)
	assert.InDelta(t, 0, p[2], 1e-5)
}

func TestCancelAnimation(t *testing.T) {
	c := newTestCamera(t)
	c.SetSphericalPosition(2, 45, 45)
	c.Advance()
	moved := c.Position()
	c.CancelAnimation()
	assert.False(t, c.Advance())
	assert.Equal(t, moved, c.Position())
}

func TestGeographicRoundTrip(t *testing.T) {
	tests := []struct{ lat, lon float32 }{
		{0, 0}, {30, 45}, {-60, 120}, {10, -170},
	}
	for _, tt := range tests {
		lat, lon, r := cartesianToGeographic(geographicToCartesian(3, tt.lat, tt.lon))
		assert.InDelta(t, tt.lat, lat, 1e-3)
		assert.InDelta(t, tt.lon, lon, 1e-3)
		assert.InDelta(t, 3, r, 1e-5)
	}
}

func TestGPUCameraUniformLayout(t *testing.T) {
	c := newTestCamera(t)
	u := NewGPUCameraUniform(c)
	assert.Equal(t, 128, u.Size())
	buf := u.Marshal()
	require.Len(t, buf, 128)
	assert.Equal(t, common.SliceToBytes(u.View[:]), buf[:64])
	assert.Equal(t, common.SliceToBytes(u.Projection[:]), buf[64:])
}
