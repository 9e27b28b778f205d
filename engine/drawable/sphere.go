package drawable

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/gpu"
	"github.com/Carmen-Shannon/oxy-globe/engine/model"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-globe/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Sphere is the textured globe.
type Sphere interface {
	Drawable
	Rotator
	Textured
}

type sphere struct {
	*object

	radius   float32
	segments int
	position common.Vec3
	source   TextureSource
	sampler  common.SamplerStagingData

	textures       material.TextureSet
	textureBinding int
	samplerBinding int

	// loadMu guards the texture set and the bind group. Texture loads, switches and Draw all
	// hold it, so input callbacks on the window thread never race the render thread.
	loadMu *sync.Mutex
	// retired bind groups were replaced by a switch and may still be referenced by a recorded
	// frame. They are released at the start of the next Draw.
	retired []*wgpu.BindGroup

	frameInterval float32
	frameElapsed  float32
	pendingFrame  *common.TextureStagingData
}

var _ Sphere = &sphere{}

// NewSphere builds the globe mesh, its pipeline and its uniform buffer. The sphere draws nothing
// until the first texture is loaded.
//
// Parameters:
//   - c: the GPU context
//   - options: functional options such as WithSphereRadius or WithTextureSource
//
// Returns:
//   - Sphere: the sphere
//   - error: a shader, pipeline or buffer creation error
func NewSphere(c gpu.Context, options ...SphereBuilderOption) (Sphere, error) {
	s := &sphere{
		radius:        1,
		segments:      32,
		loadMu:        &sync.Mutex{},
		textures:      material.NewTextureSet(),
		frameInterval: 1.0 / 30,
		sampler: common.SamplerStagingData{
			AddressModeU: wgpu.AddressModeRepeat,
			AddressModeV: wgpu.AddressModeClampToEdge,
		},
	}
	for _, opt := range options {
		opt(s)
	}
	s.object = newObject(c, KindSphere, "Globe Sphere", s.position)

	vs, fs, err := renderShaders("sphere", "sphere", shader.WithIncludes(includes(nil)))
	if err != nil {
		return nil, err
	}
	var ok bool
	if s.textureBinding, ok = fs.Binding(0, "globeTexture"); !ok {
		return nil, fmt.Errorf("sphere: shader has no globeTexture binding")
	}
	if s.samplerBinding, ok = fs.Binding(0, "globeSampler"); !ok {
		return nil, fmt.Errorf("sphere: shader has no globeSampler binding")
	}

	p := pipeline.NewPipeline("sphere", pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithCullMode(wgpu.CullModeNone),
	)
	if err := s.createPipeline(p); err != nil {
		return nil, err
	}

	mesh := model.UVSphere(s.radius, s.segments, common.Vec3{})
	if err := gpu.InitMeshBuffers(c, s.provider, mesh.VertexData(), mesh.VertexCount(), mesh.Indices); err != nil {
		s.release()
		return nil, err
	}
	if err := s.initBindGroup(nil, nil); err != nil {
		s.release()
		return nil, err
	}
	return s, nil
}

func (s *sphere) Textures() material.TextureSet {
	return s.textures
}

func (s *sphere) LoadTexture(ctx context.Context, url string, video bool) error {
	if s.textures.Contains(url) {
		return nil
	}
	if s.source == nil {
		return ErrNoTextureSource
	}

	var (
		staging common.TextureStagingData
		stream  material.FrameStream
		err     error
	)
	if video {
		stream, err = s.source.OpenVideo(ctx, url)
		if err != nil {
			return fmt.Errorf("open video %s: %w", url, err)
		}
		var ok bool
		staging, ok, err = stream.NextFrame()
		if err == nil && !ok {
			err = fmt.Errorf("video %s has no frames", url)
		}
		if err != nil {
			_ = stream.Close()
			return fmt.Errorf("decode first frame of %s: %w", url, err)
		}
	} else {
		staging, err = s.source.LoadImage(ctx, url)
		if err != nil {
			return fmt.Errorf("load image %s: %w", url, err)
		}
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	tex, view, err := gpu.NewTexture2D(s.gpu, url, staging)
	if err != nil {
		if stream != nil {
			_ = stream.Close()
		}
		return err
	}
	samp, err := gpu.NewSampler(s.gpu, url, s.sampler)
	if err != nil {
		view.Release()
		tex.Release()
		if stream != nil {
			_ = stream.Close()
		}
		return err
	}

	idx, added := s.textures.Add(material.Texture{
		URL:     url,
		Texture: tex,
		View:    view,
		Sampler: samp,
		Width:   staging.Width,
		Height:  staging.Height,
		Stream:  stream,
	})
	if !added {
		// Lost a race with a concurrent load of the same URL.
		material.Texture{Texture: tex, View: view, Sampler: samp, Stream: stream}.Release()
		return nil
	}
	slog.Info("texture loaded", "drawable", s.label, "url", url, "index", idx, "video", video,
		"width", staging.Width, "height", staging.Height)

	if s.textures.Len() == 1 {
		return s.bindCurrent()
	}
	return nil
}

func (s *sphere) SwitchTexture(index int) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if err := s.textures.Switch(index); err != nil {
		slog.Warn("texture switch ignored", "drawable", s.label, "index", index, "error", err)
		return err
	}
	return s.bindCurrent()
}

func (s *sphere) NextTexture() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.textures.Next() < 0 {
		return
	}
	if err := s.bindCurrent(); err != nil {
		slog.Error("texture rebind failed", "drawable", s.label, "error", err)
	}
}

func (s *sphere) PrevTexture() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.textures.Prev() < 0 {
		return
	}
	if err := s.bindCurrent(); err != nil {
		slog.Error("texture rebind failed", "drawable", s.label, "error", err)
	}
}

// bindCurrent points the provider at the active texture and rebuilds the bind group.
func (s *sphere) bindCurrent() error {
	tex, ok := s.textures.Current()
	if !ok {
		return nil
	}
	s.provider.SetTextureView(s.textureBinding, tex.View)
	s.provider.SetSampler(s.samplerBinding, tex.Sampler)
	if !s.provider.Stale() {
		return nil
	}
	if old := s.provider.DetachBindGroup(); old != nil {
		s.retired = append(s.retired, old)
	}
	s.frameElapsed = 0
	s.pendingFrame = nil
	return s.initBindGroup(nil, nil)
}

func (s *sphere) releaseRetired() {
	for _, bg := range s.retired {
		bg.Release()
	}
	s.retired = s.retired[:0]
}

// Update pulls the next video frame when the active texture is a stream and a frame is due.
// Decoding happens here; the upload waits for Draw on the render thread.
func (s *sphere) Update(dt float32) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	tex, ok := s.textures.Current()
	if !ok || tex.Stream == nil {
		return
	}
	s.frameElapsed += dt
	if s.frameElapsed < s.frameInterval {
		return
	}
	s.frameElapsed = 0

	frame, ok, err := tex.Stream.NextFrame()
	switch {
	case err != nil:
		slog.Warn("video frame decode failed", "drawable", s.label, "url", tex.URL, "error", err)
	case ok:
		s.pendingFrame = &frame
	}
}

func (s *sphere) Draw(pass *wgpu.RenderPassEncoder, cam camera.Camera) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// The previous frame was submitted before this one started recording.
	s.releaseRetired()

	frame := s.pendingFrame
	s.pendingFrame = nil
	tex, ok := s.textures.Current()

	if frame != nil && ok && frame.Width == tex.Width && frame.Height == tex.Height {
		if err := gpu.WriteTexture2D(s.gpu, tex.Texture, *frame); err != nil {
			return fmt.Errorf("%s: video frame upload: %w", s.label, err)
		}
	}
	return s.drawMesh(pass, cam)
}

func (s *sphere) Release() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.releaseRetired()
	s.release()
	s.textures.Release()
}
