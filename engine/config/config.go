// Package config loads the settings of a renderer application from YAML and command line flags.
package config

import "time"

// Config holds all application settings.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Shadows  ShadowsConfig  `yaml:"shadows"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title    string `yaml:"title"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	VSync    bool   `yaml:"vsync"`
	FPSLimit int    `yaml:"fps_limit"`
}

// RendererConfig holds device and frame settings.
type RendererConfig struct {
	ClearColor      [4]float64    `yaml:"clear_color"`
	FrustumCulling  bool          `yaml:"frustum_culling"`
	CompileWorkers  int           `yaml:"compile_workers"` // 0 picks half the CPUs
	Validation      bool          `yaml:"validation"`
	FallbackAdapter bool          `yaml:"fallback_adapter"`
	Profile         bool          `yaml:"profile"`
	ProfileInterval time.Duration `yaml:"profile_interval"`
}

// ShadowsConfig holds shadow atlas settings.
type ShadowsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	TileSize  uint32 `yaml:"tile_size"`
	Strategy  string `yaml:"strategy"` // everyFrame, whenDirty or manual
	MaxLights int    `yaml:"max_lights"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "oxy-scene",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Renderer: RendererConfig{
			ClearColor:      [4]float64{0.1, 0.1, 0.12, 1},
			FrustumCulling:  true,
			Validation:      true,
			ProfileInterval: time.Second,
		},
		Shadows: ShadowsConfig{
			Enabled:   true,
			TileSize:  1024,
			Strategy:  "everyFrame",
			MaxLights: 16,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
