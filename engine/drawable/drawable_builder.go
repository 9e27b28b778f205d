package drawable

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
)

// SphereBuilderOption is a functional option applied to a sphere during NewSphere.
type SphereBuilderOption func(*sphere)

// WithSphereRadius sets the globe radius. The default is 1.
func WithSphereRadius(radius float32) SphereBuilderOption {
	return func(s *sphere) {
		if radius > 0 {
			s.radius = radius
		}
	}
}

// WithSphereSegments sets the number of latitude and longitude subdivisions. The default is 32.
func WithSphereSegments(segments int) SphereBuilderOption {
	return func(s *sphere) {
		s.segments = segments
	}
}

// WithSpherePosition places the globe center.
func WithSpherePosition(position common.Vec3) SphereBuilderOption {
	return func(s *sphere) {
		s.position = position
	}
}

// WithTextureSource sets the decoder LoadTexture uses.
//
// Parameters:
//   - source: the TextureSource, usually a loader.Loader
//
// Returns:
//   - SphereBuilderOption: a function that applies the option to a sphere
func WithTextureSource(source TextureSource) SphereBuilderOption {
	return func(s *sphere) {
		s.source = source
	}
}

// WithVideoFrameRate sets how many video frames per second the globe pulls from a stream.
func WithVideoFrameRate(fps float32) SphereBuilderOption {
	return func(s *sphere) {
		if fps > 0 {
			s.frameInterval = 1 / fps
		}
	}
}

// PlaneBuilderOption is a functional option applied to a plane during NewPlane.
type PlaneBuilderOption func(*plane)

// WithPlaneSize sets the extent of the grid along X and Z. The default is 2 x 2.
func WithPlaneSize(width, depth float32) PlaneBuilderOption {
	return func(p *plane) {
		p.width, p.depth = width, depth
	}
}

// WithPlaneSegments sets the number of grid cells along X and Z. The default is 64 x 64.
func WithPlaneSegments(segmentsX, segmentsZ int) PlaneBuilderOption {
	return func(p *plane) {
		p.segmentsX, p.segmentsZ = segmentsX, segmentsZ
	}
}

// WithPlanePosition places the grid center.
func WithPlanePosition(position common.Vec3) PlaneBuilderOption {
	return func(p *plane) {
		p.position = position
	}
}

// WithHeightScale sets the factor raster samples are multiplied by. The default is 1/10000.
func WithHeightScale(scale float32) PlaneBuilderOption {
	return func(p *plane) {
		p.heightScale = scale
	}
}

// WithPlaneWorkerPool sets the pool raster rows are resampled on.
func WithPlaneWorkerPool(pool worker_pool.WorkerPool) PlaneBuilderOption {
	return func(p *plane) {
		p.pool = pool
	}
}

// CloudBuilderOption is a functional option applied to a cloud volume during NewCloud.
type CloudBuilderOption func(*cloud)

// WithFieldSize sets the edge length N of the N*N*N density field. The default is 128.
// N must be a multiple of the compute workgroup size and N*4 a multiple of 256.
func WithFieldSize(n uint32) CloudBuilderOption {
	return func(c *cloud) {
		c.fieldSize = n
	}
}

// WithTimeStep sets how much the animation time advances per frame. The default is 1.
func WithTimeStep(step float32) CloudBuilderOption {
	return func(c *cloud) {
		c.timeStep = step
	}
}

// WithMaskRadius sets the radius, in normalized field units, beyond which density is forced to zero.
// The default is 0.4.
func WithMaskRadius(radius float32) CloudBuilderOption {
	return func(c *cloud) {
		c.params.MaskRadius = radius
	}
}

// WithOctaves sets the number of fBm octaves. The default is 5.
func WithOctaves(octaves int) CloudBuilderOption {
	return func(c *cloud) {
		if octaves > 0 {
			c.params.Octaves = octaves
		}
	}
}

// WithAlphaScale sets the factor that turns density into per-step opacity. The default is 0.5.
func WithAlphaScale(scale float32) CloudBuilderOption {
	return func(c *cloud) {
		if scale > 0 {
			c.alphaScale = scale
		}
	}
}

// WithRaySteps sets the number of ray-march steps per fragment. The default is 72.
func WithRaySteps(steps int) CloudBuilderOption {
	return func(c *cloud) {
		if steps > 0 {
			c.raySteps = steps
		}
	}
}

// WithPointGrid sets the number of points per axis of the jittered point cloud. The default is 128.
func WithPointGrid(n int) CloudBuilderOption {
	return func(c *cloud) {
		c.pointGrid = n
	}
}

// WithCloudPosition places the cloud volume center.
func WithCloudPosition(position common.Vec3) CloudBuilderOption {
	return func(c *cloud) {
		c.position = position
	}
}

// WithCloudScale scales the unit cube the cloud volume occupies.
func WithCloudScale(scale float32) CloudBuilderOption {
	return func(c *cloud) {
		if scale > 0 {
			c.scale = scale
		}
	}
}

// WithCPUDensity computes the density field on the CPU and uploads it, for adapters where the
// compute path is unavailable. A nil pool computes serially.
func WithCPUDensity(pool worker_pool.WorkerPool) CloudBuilderOption {
	return func(c *cloud) {
		c.cpuDensity = true
		c.cpuPool = pool
	}
}

// WithCloudRand sets the random source used to jitter the point cloud.
func WithCloudRand(rng *rand.Rand) CloudBuilderOption {
	return func(c *cloud) {
		c.rng = rng
	}
}

// DebugBuilderOption is a functional option applied to a debug primitive during NewDebug.
type DebugBuilderOption func(*debugPrimitive)

// WithDebugShape selects the triangle or the axes gizmo. The default is the triangle.
func WithDebugShape(shape DebugShape) DebugBuilderOption {
	return func(d *debugPrimitive) {
		d.shape = shape
	}
}

// WithDebugPosition places the primitive.
func WithDebugPosition(position common.Vec3) DebugBuilderOption {
	return func(d *debugPrimitive) {
		d.position = position
	}
}

// WithDebugColor sets the triangle color.
func WithDebugColor(color [4]float32) DebugBuilderOption {
	return func(d *debugPrimitive) {
		d.color = color
	}
}

// WithAxesLength sets the length of each axis line. The default is 1.
func WithAxesLength(length float32) DebugBuilderOption {
	return func(d *debugPrimitive) {
		d.axesLength = length
	}
}
