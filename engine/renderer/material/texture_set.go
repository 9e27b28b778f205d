// Package material holds the textures a drawable can sample from and tracks which one is active.
package material

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrTextureIndexOutOfRange is returned by Switch when the index does not name a loaded texture.
var ErrTextureIndexOutOfRange = errors.New("material: texture index out of range")

// FrameStream delivers decoded frames for a streaming (video) texture.
type FrameStream interface {
	// NextFrame returns the next decoded frame. ok is false once the stream is exhausted.
	NextFrame() (frame common.TextureStagingData, ok bool, err error)

	// Close stops decoding and frees the stream.
	Close() error
}

// Texture is one loaded texture with the sampler it is read through.
type Texture struct {
	// URL identifies where the texture was loaded from. Loading the same URL twice is a no-op.
	URL string
	// Texture is the GPU texture. Streaming textures are rewritten in place each frame.
	Texture *wgpu.Texture
	// View is the view bound into the drawable's bind group.
	View *wgpu.TextureView
	// Sampler is the sampler paired with the view.
	Sampler *wgpu.Sampler
	// Width and Height are the texture dimensions in pixels.
	Width, Height uint32
	// Stream is non-nil for video textures.
	Stream FrameStream
}

// Release closes the stream and frees the sampler, view and texture.
func (t Texture) Release() {
	if t.Stream != nil {
		_ = t.Stream.Close()
	}
	if t.Sampler != nil {
		t.Sampler.Release()
	}
	if t.View != nil {
		t.View.Release()
	}
	if t.Texture != nil {
		t.Texture.Release()
	}
}

type textureSet struct {
	mu       *sync.RWMutex
	textures []Texture
	byURL    map[string]int
	current  int
}

// TextureSet is an append-only list of textures with one active entry.
// Loads may complete on other goroutines, so every method is safe for concurrent use.
type TextureSet interface {
	// Add appends a texture unless one with the same URL is already present.
	//
	// Parameters:
	//   - tex: the loaded texture
	//
	// Returns:
	//   - int: the index of the texture in the set
	//   - bool: false if the URL was already loaded and tex was not added
	Add(tex Texture) (int, bool)

	// Index returns the index of the texture loaded from url.
	Index(url string) (int, bool)

	// Contains reports whether a texture was loaded from url.
	Contains(url string) bool

	// Switch makes the texture at index the active one. An out-of-range index returns
	// ErrTextureIndexOutOfRange and leaves the active texture unchanged.
	//
	// Parameters:
	//   - index: the texture index in load order
	//
	// Returns:
	//   - error: ErrTextureIndexOutOfRange for an invalid index
	Switch(index int) error

	// Next activates the following texture, wrapping around, and returns its index.
	Next() int

	// Prev activates the preceding texture, wrapping around, and returns its index.
	Prev() int

	// Current returns the active texture. ok is false while the set is empty.
	Current() (tex Texture, ok bool)

	// CurrentIndex returns the active index, or -1 while the set is empty.
	CurrentIndex() int

	// Len returns the number of loaded textures.
	Len() int

	// Release frees every texture, view, sampler and stream in the set.
	Release()
}

var _ TextureSet = &textureSet{}

// NewTextureSet creates an empty TextureSet.
func NewTextureSet() TextureSet {
	return &textureSet{
		mu:    &sync.RWMutex{},
		byURL: make(map[string]int),
	}
}

func (s *textureSet) Add(tex Texture) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tex.URL != "" {
		if i, ok := s.byURL[tex.URL]; ok {
			return i, false
		}
		s.byURL[tex.URL] = len(s.textures)
	}
	s.textures = append(s.textures, tex)
	return len(s.textures) - 1, true
}

func (s *textureSet) Index(url string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byURL[url]
	return i, ok
}

func (s *textureSet) Contains(url string) bool {
	_, ok := s.Index(url)
	return ok
}

func (s *textureSet) Switch(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.textures) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrTextureIndexOutOfRange, index, len(s.textures))
	}
	s.current = index
	return nil
}

func (s *textureSet) Next() int {
	return s.step(1)
}

func (s *textureSet) Prev() int {
	return s.step(-1)
}

func (s *textureSet) step(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.textures)
	if n == 0 {
		return -1
	}
	s.current = ((s.current+delta)%n + n) % n
	return s.current
}

func (s *textureSet) Current() (Texture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.textures) == 0 {
		return Texture{}, false
	}
	return s.textures[s.current], true
}

func (s *textureSet) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.textures) == 0 {
		return -1
	}
	return s.current
}

func (s *textureSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.textures)
}

func (s *textureSet) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.textures {
		t.Release()
	}
	s.textures = nil
	s.byURL = make(map[string]int)
	s.current = 0
}
