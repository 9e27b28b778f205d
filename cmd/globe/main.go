// Command globe opens a window showing a textured globe with procedural clouds and optional
// terrain, driven by mouse, keyboard and a websocket chat bridge.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-globe/engine"
	"github.com/Carmen-Shannon/oxy-globe/engine/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
	listen     string
	textures   []string
	noClouds   bool
	terrain    string
	fallback   bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "globe",
		Short:         "Render a textured globe with clouds and terrain",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				slog.Error("configuration", "error", err)
				return err
			}
			return run(cmd.Context(), cfg, opts.configPath)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "TOML or YAML configuration file")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&opts.listen, "listen", "", "chat bridge address, e.g. :8080")
	f.StringSliceVarP(&opts.textures, "texture", "t", nil, "globe texture URL or path; repeatable")
	f.BoolVar(&opts.noClouds, "no-clouds", false, "disable the cloud volume")
	f.StringVar(&opts.terrain, "terrain", "", "GeoTIFF elevation raster for the terrain plane")
	f.BoolVar(&opts.fallback, "fallback-adapter", false, "render on a software adapter")
	return cmd
}

// load reads the configuration file, if any, and lets explicitly set flags override it.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("listen") {
		cfg.Bridge.Listen = o.listen
	}
	for _, t := range o.textures {
		cfg.Globe.Textures = append(cfg.Globe.Textures, config.TextureConfig{URL: t})
	}
	if o.noClouds {
		cfg.Clouds.Enabled = false
	}
	if flags.Changed("terrain") {
		cfg.Terrain.Raster = o.terrain
	}
	if o.fallback {
		cfg.Render.FallbackAdapter = true
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []engine.EngineBuilderOption
	if configPath != "" {
		opts = append(opts, engine.WithConfigPath(configPath))
	}

	e, err := engine.NewEngine(ctx, cfg, opts...)
	if err != nil {
		slog.Error("engine startup failed", "error", err)
		return fmt.Errorf("start engine: %w", err)
	}
	slog.Info("globe running",
		"textures", e.Globe().Textures().Len(),
		"drawables", e.Scene().Len(),
		"bridge", cfg.Bridge.Listen,
	)

	if err := e.Run(ctx); err != nil {
		slog.Error("engine stopped", "error", err)
		return err
	}
	return nil
}
