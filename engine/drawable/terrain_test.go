package drawable

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/model"
	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRaster() common.ElevationRaster {
	return common.ElevationRaster{
		Width:  3,
		Height: 2,
		Samples: []float32{
			-5, 0, 10000,
			common.ElevationNoData, 5000, 20000,
		},
	}
}

func TestResampleElevationCellByCell(t *testing.T) {
	heights, err := ResampleElevation(testRaster(), 3, 2, DefaultHeightScale, nil)
	require.NoError(t, err)

	want := []float32{0, 0, 1, 0, 0.5, 2}
	require.Len(t, heights, len(want))
	for i := range want {
		assert.InDelta(t, want[i], heights[i], 1e-5, "index %d", i)
	}
}

func TestResampleElevationPoolMatchesSerial(t *testing.T) {
	raster := common.ElevationRaster{Width: 16, Height: 9, Samples: make([]float32, 16*9)}
	for i := range raster.Samples {
		raster.Samples[i] = float32(i*37%101) - 20
	}

	serial, err := ResampleElevation(raster, 33, 17, 0.5, nil)
	require.NoError(t, err)
	parallel, err := ResampleElevation(raster, 33, 17, 0.5, worker_pool.NewWorkerPool(4))
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)

	for _, h := range serial {
		assert.GreaterOrEqual(t, h, float32(0))
	}
}

func TestResampleElevationErrors(t *testing.T) {
	_, err := ResampleElevation(common.ElevationRaster{}, 2, 2, 1, nil)
	assert.ErrorIs(t, err, ErrEmptyRaster)

	_, err = ResampleElevation(common.ElevationRaster{Width: 2, Height: 2, Samples: []float32{1, 2, 3}}, 2, 2, 1, nil)
	assert.Error(t, err)

	_, err = ResampleElevation(testRaster(), 0, 2, 1, nil)
	assert.Error(t, err)
}

func TestHeightRangeStartsAtZero(t *testing.T) {
	lo, hi := HeightRange([]float32{0.5, 2, 1})
	assert.Equal(t, float32(0), lo)
	assert.Equal(t, float32(2), hi)

	lo, hi = HeightRange(nil)
	assert.Equal(t, float32(0), lo)
	assert.Equal(t, float32(0), hi)
}

func TestApplyHeightsIdempotent(t *testing.T) {
	mesh := model.StripGrid(2, 1, 2, 1, common.Vec3{})
	heights, err := ResampleElevation(testRaster(), 3, 2, DefaultHeightScale, nil)
	require.NoError(t, err)

	require.NoError(t, ApplyHeights(mesh.Vertices, heights))
	first := append([]model.GPUPositionVertex(nil), mesh.Vertices...)
	require.NoError(t, ApplyHeights(mesh.Vertices, heights))
	assert.Equal(t, first, mesh.Vertices)

	assert.Error(t, ApplyHeights(mesh.Vertices, heights[:2]))
}

func TestRampColorStops(t *testing.T) {
	assert.Equal(t, [3]float32{0.5, 0, 0.5}, RampColor(0))
	assert.Equal(t, [3]float32{1, 1, 0}, RampColor(0.5))
	assert.Equal(t, [3]float32{1, 0, 0}, RampColor(1))
	assert.Equal(t, [3]float32{1, 0, 0}, RampColor(3))

	quarter := RampColor(0.25)
	assert.InDelta(t, 0.75, quarter[0], 1e-6)
	assert.InDelta(t, 0.5, quarter[1], 1e-6)
	assert.InDelta(t, 0.25, quarter[2], 1e-6)
}
