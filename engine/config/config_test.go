package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, uint32(128), Default().Clouds.FieldSize)
}

func TestParseTOML(t *testing.T) {
	data := []byte(`
log_level = "debug"

[window]
title = "Ocean currents"
width = 800

[clouds]
time_step = 0.5
cpu_density = true

[[globe.textures]]
url = "https://example.com/currents.png"

[[globe.textures]]
url = "https://example.com/turtles.m3u8"
video = true
`)
	cfg, err := Parse(data, ".toml")
	require.NoError(t, err)

	assert.Equal(t, "Ocean currents", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset fields keep defaults")
	assert.Equal(t, float32(0.5), cfg.Clouds.TimeStep)
	assert.True(t, cfg.Clouds.CPUDensity)
	assert.Equal(t, uint32(128), cfg.Clouds.FieldSize)
	require.Len(t, cfg.Globe.Textures, 2)
	assert.True(t, cfg.Globe.Textures[1].Video)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
camera:
  position: [0, 1, 4]
  fov: 60
terrain:
  raster: dem.tif
  segments: 32
bridge:
  listen: ":8081"
`)
	cfg, err := Parse(data, ".yml")
	require.NoError(t, err)

	assert.Equal(t, [3]float32{0, 1, 4}, cfg.Camera.Position)
	assert.Equal(t, float32(60), cfg.Camera.FovDegrees)
	assert.Equal(t, "dem.tif", cfg.Terrain.Raster)
	assert.Equal(t, 32, cfg.Terrain.Segments)
	assert.Equal(t, ":8081", cfg.Bridge.Listen)
}

func TestParseEmptyYAML(t *testing.T) {
	cfg, err := Parse([]byte("\n"), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
	}{
		{"unknown extension", "", ".ini"},
		{"unknown toml key", "colour = 1", ".toml"},
		{"unknown yaml key", "colour: 1", ".yaml"},
		{"field size not tileable", "[clouds]\nfield_size = 100", ".toml"},
		{"msaa", "[render]\nmsaa = 2", ".toml"},
		{"clip range", "camera:\n  near: 10\n  far: 1", ".yaml"},
		{"log level", `log_level = "loud"`, ".toml"},
		{"texture without url", "[[globe.textures]]\nvideo = true", ".toml"},
		{"window min above max", "[window]\nmin_width = 4000", ".toml"},
		{"window zero min", "window:\n  min_height: 0", ".yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.ext)
			assert.Error(t, err)
		})
	}
}

func TestParseAdapterAndSeed(t *testing.T) {
	data := []byte(`
[window]
min_width = 640
max_height = 1080

[render]
fallback_adapter = true
max_texture_size = 16384

[clouds]
seed = 42
`)
	cfg, err := Parse(data, ".toml")
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Window.MinWidth)
	assert.Equal(t, 200, cfg.Window.MinHeight, "unset limits keep defaults")
	assert.Equal(t, 1080, cfg.Window.MaxHeight)
	assert.True(t, cfg.Render.FallbackAdapter)
	assert.Equal(t, uint32(16384), cfg.Render.MaxTextureSize)
	assert.Equal(t, uint64(42), cfg.Clouds.Seed)

	def := Default()
	assert.False(t, def.Render.FallbackAdapter)
	assert.Zero(t, def.Render.MaxTextureSize)
	assert.Zero(t, def.Clouds.Seed)
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Window.Width = 0
	cfg.Globe.Radius = -1

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "window size")
	assert.Contains(t, err.Error(), "globe radius")
}

func TestDisabledSectionsSkipValidation(t *testing.T) {
	cfg := Default()
	cfg.Clouds.Enabled = false
	cfg.Clouds.FieldSize = 3
	cfg.Terrain.Segments = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "globe.toml")
	require.NoError(t, os.WriteFile(path, []byte("[globe]\nradius = 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(2), cfg.Globe.Radius)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExampleFiles(t *testing.T) {
	toml, err := Load(filepath.Join("..", "..", "examples", "globe.toml"))
	require.NoError(t, err)
	assert.Len(t, toml.Globe.Textures, 3)
	assert.True(t, toml.Globe.Textures[2].Video)
	assert.Equal(t, ":8080", toml.Bridge.Listen)
	assert.Equal(t, "rasters/elevation.tif", toml.Terrain.Raster)

	yml, err := Load(filepath.Join("..", "..", "examples", "globe.yaml"))
	require.NoError(t, err)
	assert.False(t, yml.Clouds.Enabled)
	assert.Equal(t, 60, yml.Render.FrameLimit)
	assert.Equal(t, slog.LevelDebug, yml.SlogLevel())
	assert.Equal(t, float32(1), yml.Globe.Radius, "unset values keep their defaults")
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "globe.toml")
	require.NoError(t, os.WriteFile(path, []byte("[clouds]\ntime_step = 1\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 64)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c Config) {
			select {
			case reloaded <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register the directory before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[clouds]\ntime_step = 1\n[render]\nmsaa = 3\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("[clouds]\ntime_step = 0.25\n"), 0o644))

	require.Eventually(t, func() bool {
		for {
			select {
			case c := <-reloaded:
				if c.Clouds.TimeStep == 0.25 {
					return true
				}
			default:
				return false
			}
		}
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
