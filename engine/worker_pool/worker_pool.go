// Package worker_pool fans CPU work out over a persistent set of goroutines. The scene uses it
// for per-frame drawable updates, the CPU density field uses it for z slices and the terrain
// mesh uses it for raster rows.
package worker_pool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// WorkerPool runs batches of indexed tasks and waits for the whole batch.
type WorkerPool interface {
	// Run calls fn(i) for every i in [0, n) on the pool and blocks until all calls return.
	// A panic inside fn is converted into an error for that index.
	//
	// Parameters:
	//   - n: the number of tasks
	//   - fn: the task body
	//
	// Returns:
	//   - error: the joined errors of all failed tasks, or nil
	Run(n int, fn func(i int) error) error

	// Workers returns the configured number of workers.
	Workers() int
}

type workerPool struct {
	mu      *sync.Mutex
	pool    worker.DynamicWorkerPool
	workers int
	nextID  int
}

var _ WorkerPool = &workerPool{}

// NewWorkerPool creates a pool. Workers persist across batches and exit after a second of idleness.
//
// Parameters:
//   - workers: the number of goroutines; values below 1 use NumCPU-1 (at least 1)
//
// Returns:
//   - WorkerPool: the pool
func NewWorkerPool(workers int) WorkerPool {
	if workers < 1 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	return &workerPool{
		mu:      &sync.Mutex{},
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers: workers,
	}
}

func (p *workerPool) Workers() int {
	return p.workers
}

func (p *workerPool) Run(n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}

	errs := make([]error, n)
	// One task per worker, each taking a strided share of the indices.
	tasks := min(n, p.workers)
	var wg sync.WaitGroup
	wg.Add(tasks)

	p.mu.Lock()
	for t := range tasks {
		id := p.nextID
		p.nextID++
		p.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := t; i < n; i += tasks {
					errs[i] = runOne(i, fn)
				}
				return nil, nil
			},
		})
	}
	p.mu.Unlock()

	wg.Wait()
	return errors.Join(errs...)
}

func runOne(i int, fn func(i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %d panicked: %v", i, r)
		}
	}()
	return fn(i)
}
