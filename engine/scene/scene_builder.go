package scene

import (
	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithWorkerPool sets the pool drawable updates are fanned out on.
// Defaults to a pool of runtime.NumCPU()-1 workers.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkerPool(pool worker_pool.WorkerPool) SceneBuilderOption {
	return func(s *scene) {
		s.pool = pool
	}
}
