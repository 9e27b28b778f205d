package scene

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/drawable"
	"github.com/Carmen-Shannon/oxy-globe/engine/worker_pool"
	"github.com/cogentcore/webgpu/wgpu"
)

// idPrefix is prepended to the sequence number of every generated identifier.
const idPrefix = "object-"

var (
	// ErrNotFound is returned when an identifier names no drawable in the scene.
	ErrNotFound = errors.New("scene: drawable not found")

	// ErrNotRotatable is returned by Rotate when the drawable has no model matrix.
	ErrNotRotatable = errors.New("scene: drawable cannot be rotated")
)

// Scene owns the drawables of a frame and dispatches their per-frame work.
// Failures of one drawable are logged and joined into the returned error; the remaining
// drawables still run. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Add takes ownership of a drawable and returns its identifier. Identifiers are
	// "object-<n>" with n increasing for the lifetime of the process, so they never collide.
	//
	// Parameters:
	//   - d: the drawable to add
	//
	// Returns:
	//   - string: the assigned identifier
	Add(d drawable.Drawable) string

	// Get returns the drawable stored under id. A missing id is not an error.
	//
	// Parameters:
	//   - id: the identifier returned by Add
	//
	// Returns:
	//   - drawable.Drawable: the drawable, or nil
	//   - bool: false if no drawable is stored under id
	Get(id string) (drawable.Drawable, bool)

	// Remove drops the drawable stored under id and releases its GPU resources.
	//
	// Returns:
	//   - bool: false if no drawable was stored under id
	Remove(id string) bool

	// Len returns the number of drawables.
	Len() int

	// IDs returns every identifier in ascending sequence order.
	IDs() []string

	// Find returns the identifier of the first drawable of the given kind.
	Find(kind drawable.Kind) (string, bool)

	// Update advances every drawable's CPU state, fanned out over the worker pool.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - error: the joined panics recovered from drawables, or nil
	Update(dt float32) error

	// Compute records the compute work of every drawable that has some, in sequence order.
	// It must run before the render pass that samples the results.
	//
	// Parameters:
	//   - encoder: the frame's command encoder
	//
	// Returns:
	//   - error: the joined per-drawable errors, or nil
	Compute(encoder *wgpu.CommandEncoder) error

	// Draw records every drawable into the pass: opaque drawables first, then translucent
	// ones, each group in sequence order.
	//
	// Parameters:
	//   - pass: the open render pass
	//   - cam: the shared camera
	//
	// Returns:
	//   - error: the joined per-drawable errors, or nil
	Draw(pass *wgpu.RenderPassEncoder, cam camera.Camera) error

	// Rotate applies an axis-angle rotation to the drawable stored under id.
	//
	// Parameters:
	//   - id: the drawable identifier
	//   - axis: the rotation axis
	//   - angle: the angle in radians
	//
	// Returns:
	//   - error: ErrNotFound or ErrNotRotatable
	Rotate(id string, axis common.Vec3, angle float32) error

	// Clear releases and removes every drawable.
	Clear()
}

type entry struct {
	seq uint64
	id  string
	d   drawable.Drawable
}

type scene struct {
	mu *sync.RWMutex

	name    string
	entries map[string]entry
	pool    worker_pool.WorkerPool
}

var _ Scene = &scene{}

// nextSeq is shared by every scene so identifiers stay unique within the process.
var nextSeq atomic.Uint64

// NewScene creates an empty scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:      &sync.RWMutex{},
		name:    name,
		entries: make(map[string]entry),
	}
	for _, option := range options {
		option(s)
	}
	if s.pool == nil {
		s.pool = worker_pool.NewWorkerPool(0)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Add(d drawable.Drawable) string {
	seq := nextSeq.Add(1) - 1
	id := idPrefix + strconv.FormatUint(seq, 10)

	s.mu.Lock()
	s.entries[id] = entry{seq: seq, id: id, d: d}
	s.mu.Unlock()

	slog.Debug("drawable added", "scene", s.name, "id", id, "kind", d.Kind(), "label", d.Label())
	return id
}

func (s *scene) Get(id string) (drawable.Drawable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.d, true
}

func (s *scene) Remove(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if !ok {
		return false
	}
	e.d.Release()
	slog.Debug("drawable removed", "scene", s.name, "id", id)
	return true
}

func (s *scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *scene) IDs() []string {
	snapshot := s.snapshot()
	ids := make([]string, len(snapshot))
	for i, e := range snapshot {
		ids[i] = e.id
	}
	return ids
}

func (s *scene) Find(kind drawable.Kind) (string, bool) {
	for _, e := range s.snapshot() {
		if e.d.Kind() == kind {
			return e.id, true
		}
	}
	return "", false
}

// snapshot returns the entries sorted by sequence so callers iterate without holding the lock.
func (s *scene) snapshot() []entry {
	s.mu.RLock()
	out := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b entry) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return out
}

func (s *scene) Update(dt float32) error {
	entries := s.snapshot()
	return s.pool.Run(len(entries), func(i int) error {
		entries[i].d.Update(dt)
		return nil
	})
}

func (s *scene) Compute(encoder *wgpu.CommandEncoder) error {
	var errs []error
	for _, e := range s.snapshot() {
		c, ok := e.d.(drawable.Computer)
		if !ok {
			continue
		}
		if err := isolate(e, "compute", func() error { return c.Compute(encoder) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *scene) Draw(pass *wgpu.RenderPassEncoder, cam camera.Camera) error {
	entries := s.snapshot()
	slices.SortStableFunc(entries, func(a, b entry) int {
		at, bt := a.d.Translucent(), b.d.Translucent()
		switch {
		case at == bt:
			return 0
		case bt:
			return -1
		}
		return 1
	})

	var errs []error
	for _, e := range entries {
		if err := isolate(e, "draw", func() error { return e.d.Draw(pass, cam) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// isolate runs one drawable's stage, turning a panic into an error and logging any failure.
func isolate(e entry, stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %s panicked: %v", stage, e.id, r)
		}
		if err != nil {
			slog.Error("drawable "+stage+" failed", "id", e.id, "kind", e.d.Kind(), "error", err)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s %s: %w", stage, e.id, err)
	}
	return nil
}

func (s *scene) Rotate(id string, axis common.Vec3, angle float32) error {
	d, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r, ok := d.(drawable.Rotator)
	if !ok {
		return fmt.Errorf("%w: %s is a %s", ErrNotRotatable, id, d.Kind())
	}
	r.Rotate(axis, angle)
	return nil
}

func (s *scene) Clear() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]entry)
	s.mu.Unlock()

	for _, e := range entries {
		e.d.Release()
	}
}

// ParseID extracts the sequence number from an identifier produced by Add.
func ParseID(id string) (uint64, bool) {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	return n, err == nil
}
