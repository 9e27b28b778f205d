package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and Load for values the engine cannot run with.
var ErrInvalidConfig = errors.New("config: invalid value")

// Config is the full engine configuration. Zero-valued fields left out of a file keep the
// values from Default.
type Config struct {
	Window   WindowConfig  `toml:"window" yaml:"window"`
	Render   RenderConfig  `toml:"render" yaml:"render"`
	Camera   CameraConfig  `toml:"camera" yaml:"camera"`
	Globe    GlobeConfig   `toml:"globe" yaml:"globe"`
	Clouds   CloudConfig   `toml:"clouds" yaml:"clouds"`
	Terrain  TerrainConfig `toml:"terrain" yaml:"terrain"`
	Bridge   BridgeConfig  `toml:"bridge" yaml:"bridge"`
	LogLevel string        `toml:"log_level" yaml:"log_level"`
}

type WindowConfig struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	// Min and max bound interactive resizing.
	MinWidth  int `toml:"min_width" yaml:"min_width"`
	MinHeight int `toml:"min_height" yaml:"min_height"`
	MaxWidth  int `toml:"max_width" yaml:"max_width"`
	MaxHeight int `toml:"max_height" yaml:"max_height"`
}

type RenderConfig struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode string `toml:"present_mode" yaml:"present_mode"`
	// MSAA is the sample count, 1 or 4.
	MSAA int `toml:"msaa" yaml:"msaa"`
	// FrameLimit caps frames per second. Zero means no cap.
	FrameLimit int        `toml:"frame_limit" yaml:"frame_limit"`
	ClearColor [4]float64 `toml:"clear_color" yaml:"clear_color"`
	Profile    bool       `toml:"profile" yaml:"profile"`
	// FallbackAdapter requests a software adapter, for machines without a usable GPU.
	FallbackAdapter bool `toml:"fallback_adapter" yaml:"fallback_adapter"`
	// MaxTextureSize raises the 2D texture limit for large globe textures. Zero keeps the device default.
	MaxTextureSize uint32 `toml:"max_texture_size" yaml:"max_texture_size"`
}

type CameraConfig struct {
	Position    [3]float32 `toml:"position" yaml:"position"`
	Target      [3]float32 `toml:"target" yaml:"target"`
	Up          [3]float32 `toml:"up" yaml:"up"`
	FovDegrees  float32    `toml:"fov" yaml:"fov"`
	Near        float32    `toml:"near" yaml:"near"`
	Far         float32    `toml:"far" yaml:"far"`
	OrbitSpeed  float32    `toml:"orbit_speed" yaml:"orbit_speed"`
	ZoomStep    float32    `toml:"zoom_step" yaml:"zoom_step"`
	MinDistance float32    `toml:"min_distance" yaml:"min_distance"`
}

type TextureConfig struct {
	URL   string `toml:"url" yaml:"url"`
	Video bool   `toml:"video" yaml:"video"`
}

type GlobeConfig struct {
	Radius   float32 `toml:"radius" yaml:"radius"`
	Segments int     `toml:"segments" yaml:"segments"`
	// VideoFPS is the frame rate streaming textures advance at.
	VideoFPS float32         `toml:"video_fps" yaml:"video_fps"`
	Textures []TextureConfig `toml:"textures" yaml:"textures"`
}

type CloudConfig struct {
	Enabled    bool       `toml:"enabled" yaml:"enabled"`
	FieldSize  uint32     `toml:"field_size" yaml:"field_size"`
	TimeStep   float32    `toml:"time_step" yaml:"time_step"`
	MaskRadius float32    `toml:"mask_radius" yaml:"mask_radius"`
	Octaves    int        `toml:"octaves" yaml:"octaves"`
	AlphaScale float32    `toml:"alpha_scale" yaml:"alpha_scale"`
	PointGrid  int        `toml:"point_grid" yaml:"point_grid"`
	RaySteps   int        `toml:"ray_steps" yaml:"ray_steps"`
	CPUDensity bool       `toml:"cpu_density" yaml:"cpu_density"`
	Position   [3]float32 `toml:"position" yaml:"position"`
	Scale      float32    `toml:"scale" yaml:"scale"`
	// Seed fixes the point cloud jitter. Zero picks a random seed per run.
	Seed uint64 `toml:"seed" yaml:"seed"`
}

type TerrainConfig struct {
	// Raster is the URL or path of the elevation TIFF. Empty disables the terrain.
	Raster      string     `toml:"raster" yaml:"raster"`
	Segments    int        `toml:"segments" yaml:"segments"`
	Size        float32    `toml:"size" yaml:"size"`
	HeightScale float32    `toml:"height_scale" yaml:"height_scale"`
	Position    [3]float32 `toml:"position" yaml:"position"`
}

type BridgeConfig struct {
	// Listen is the websocket listen address. Empty disables the bridge.
	Listen string `toml:"listen" yaml:"listen"`
	// BroadcastIntervalMS is how often the camera position is pushed to clients.
	BroadcastIntervalMS int `toml:"broadcast_interval_ms" yaml:"broadcast_interval_ms"`
}

// Default returns the configuration the engine runs with when no file is given.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:     "Globe",
			Width:     1280,
			Height:    720,
			MinWidth:  320,
			MinHeight: 200,
			MaxWidth:  3840,
			MaxHeight: 2160,
		},
		Render: RenderConfig{
			PresentMode: "vsync",
			MSAA:        4,
			ClearColor:  [4]float64{0, 0, 0, 1},
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 0, 3},
			Up:          [3]float32{0, 1, 0},
			FovDegrees:  45,
			Near:        0.1,
			Far:         1000,
			OrbitSpeed:  0.5,
			ZoomStep:    0.1,
			MinDistance: 1.5,
		},
		Globe: GlobeConfig{Radius: 1, Segments: 64, VideoFPS: 30},
		Clouds: CloudConfig{
			Enabled:    true,
			FieldSize:  128,
			TimeStep:   1,
			MaskRadius: 0.4,
			Octaves:    5,
			AlphaScale: 0.5,
			PointGrid:  128,
			RaySteps:   72,
			Position:   [3]float32{0, 0, 0},
			Scale:      2.2,
		},
		Terrain: TerrainConfig{
			Segments:    128,
			Size:        2,
			HeightScale: 1.0 / 10000,
			Position:    [3]float32{0, -1.5, 0},
		},
		Bridge:   BridgeConfig{BroadcastIntervalMS: 250},
		LogLevel: "info",
	}
}

// Load reads a TOML (.toml) or YAML (.yaml, .yml) file over Default and validates the result.
//
// Parameters:
//   - path: the configuration file
//
// Returns:
//   - Config: the merged configuration
//   - error: a read, parse or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over Default according to the file extension and validates the result.
//
// Parameters:
//   - data: the file contents
//   - ext: ".toml", ".yaml" or ".yml"
//
// Returns:
//   - Config: the merged configuration
//   - error: a parse or validation error
func Parse(data []byte, ext string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("config: unsupported extension %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every value the engine would otherwise reject at construction time.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(c.Window.MinWidth > 0 && c.Window.MinHeight > 0 &&
		c.Window.MinWidth <= c.Window.MaxWidth && c.Window.MinHeight <= c.Window.MaxHeight,
		"window limits %dx%d..%dx%d", c.Window.MinWidth, c.Window.MinHeight, c.Window.MaxWidth, c.Window.MaxHeight)
	check(c.Render.PresentMode == "vsync" || c.Render.PresentMode == "uncapped", "present_mode %q", c.Render.PresentMode)
	check(c.Render.MSAA == 1 || c.Render.MSAA == 4, "msaa %d", c.Render.MSAA)
	check(c.Render.FrameLimit >= 0, "frame_limit %d", c.Render.FrameLimit)

	check(c.Camera.Near > 0 && c.Camera.Near < c.Camera.Far, "camera near=%g far=%g", c.Camera.Near, c.Camera.Far)
	check(c.Camera.FovDegrees > 0 && c.Camera.FovDegrees < 180, "camera fov %g", c.Camera.FovDegrees)
	check(c.Camera.MinDistance >= 0, "camera min_distance %g", c.Camera.MinDistance)

	check(c.Globe.Radius > 0, "globe radius %g", c.Globe.Radius)
	check(c.Globe.Segments >= 3, "globe segments %d", c.Globe.Segments)
	for i, t := range c.Globe.Textures {
		check(t.URL != "", "globe texture %d has no url", i)
	}

	if c.Clouds.Enabled {
		n := c.Clouds.FieldSize
		check(n > 0 && n%8 == 0 && (n*4)%256 == 0, "clouds field_size %d", n)
		check(c.Clouds.Octaves > 0, "clouds octaves %d", c.Clouds.Octaves)
		check(c.Clouds.PointGrid > 0, "clouds point_grid %d", c.Clouds.PointGrid)
		check(c.Clouds.RaySteps > 0, "clouds ray_steps %d", c.Clouds.RaySteps)
	}

	if c.Terrain.Raster != "" {
		check(c.Terrain.Segments > 0, "terrain segments %d", c.Terrain.Segments)
		check(c.Terrain.Size > 0, "terrain size %g", c.Terrain.Size)
	}

	check(c.Bridge.BroadcastIntervalMS > 0, "bridge broadcast_interval_ms %d", c.Bridge.BroadcastIntervalMS)

	var level slog.Level
	check(level.UnmarshalText([]byte(c.LogLevel)) == nil, "log_level %q", c.LogLevel)

	return errors.Join(errs...)
}

// SlogLevel returns the configured log level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
