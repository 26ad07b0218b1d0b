// Package config handles configuration loading for choromap.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime tunable. The timing values are empirically
// tuned and deliberately configurable rather than baked-in constants.
type Config struct {
	Source  string        `yaml:"source"`
	Log     LogConfig     `yaml:"log"`
	Map     MapConfig     `yaml:"map"`
	Basemap BasemapConfig `yaml:"basemap"`
	Timing  TimingConfig  `yaml:"timing"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// MapConfig contains viewport geometry settings.
type MapConfig struct {
	CenterLon        float64 `yaml:"center_lon"`
	CenterLat        float64 `yaml:"center_lat"`
	Zoom             float64 `yaml:"zoom"`
	MinZoom          float64 `yaml:"min_zoom"`
	MaxZoom          float64 `yaml:"max_zoom"`
	MaxZoomNarrow    float64 `yaml:"max_zoom_narrow"`
	NarrowBreakpoint int     `yaml:"narrow_breakpoint"` // map width in cells
	BoundsPad        float64 `yaml:"bounds_pad"`        // degrees added around data bounds
}

// BasemapConfig contains background layer settings.
type BasemapConfig struct {
	Visible bool    `yaml:"visible"`
	Opacity float64 `yaml:"opacity"`
}

// TimingConfig contains event-frequency bounds in milliseconds.
type TimingConfig struct {
	FlickerMS         int `yaml:"flicker_ms"`
	ClickThrottleMS   int `yaml:"click_throttle_ms"`
	TouchHoldMS       int `yaml:"touch_hold_ms"`
	RetryDelayMS      int `yaml:"retry_delay_ms"`
	OpacityDebounceMS int `yaml:"opacity_debounce_ms"`
	ResizeThrottleMS  int `yaml:"resize_throttle_ms"`
	RemeasureDelayMS  int `yaml:"remeasure_delay_ms"`
	AttachPollMS      int `yaml:"attach_poll_ms"`
	FetchTimeoutS     int `yaml:"fetch_timeout_s"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source: "data/regions.geojson",
		Log: LogConfig{
			Path:  "choromap.log",
			Level: "info",
		},
		Map: MapConfig{
			CenterLon:        0,
			CenterLat:        0,
			Zoom:             1.0,
			MinZoom:          0.5,
			MaxZoom:          24.0,
			MaxZoomNarrow:    8.0,
			NarrowBreakpoint: 100,
			BoundsPad:        1.0,
		},
		Basemap: BasemapConfig{
			Visible: true,
			Opacity: 0.6,
		},
		Timing: TimingConfig{
			FlickerMS:         30,
			ClickThrottleMS:   300,
			TouchHoldMS:       1000,
			RetryDelayMS:      3000,
			OpacityDebounceMS: 50,
			ResizeThrottleMS:  200,
			RemeasureDelayMS:  200,
			AttachPollMS:      150,
			FetchTimeoutS:     15,
		},
	}
}

func applyDefaults(cfg *Config) {
	d := DefaultConfig()

	if cfg.Source == "" {
		cfg.Source = d.Source
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = d.Log.Path
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Map.Zoom == 0 {
		cfg.Map.Zoom = d.Map.Zoom
	}
	if cfg.Map.MinZoom == 0 {
		cfg.Map.MinZoom = d.Map.MinZoom
	}
	if cfg.Map.MaxZoom == 0 {
		cfg.Map.MaxZoom = d.Map.MaxZoom
	}
	if cfg.Map.MaxZoomNarrow == 0 {
		cfg.Map.MaxZoomNarrow = d.Map.MaxZoomNarrow
	}
	if cfg.Map.NarrowBreakpoint == 0 {
		cfg.Map.NarrowBreakpoint = d.Map.NarrowBreakpoint
	}
	if cfg.Map.BoundsPad == 0 {
		cfg.Map.BoundsPad = d.Map.BoundsPad
	}
	if cfg.Basemap.Opacity == 0 {
		cfg.Basemap.Opacity = d.Basemap.Opacity
	}
	if cfg.Timing.FlickerMS == 0 {
		cfg.Timing.FlickerMS = d.Timing.FlickerMS
	}
	if cfg.Timing.ClickThrottleMS == 0 {
		cfg.Timing.ClickThrottleMS = d.Timing.ClickThrottleMS
	}
	if cfg.Timing.TouchHoldMS == 0 {
		cfg.Timing.TouchHoldMS = d.Timing.TouchHoldMS
	}
	if cfg.Timing.RetryDelayMS == 0 {
		cfg.Timing.RetryDelayMS = d.Timing.RetryDelayMS
	}
	if cfg.Timing.OpacityDebounceMS == 0 {
		cfg.Timing.OpacityDebounceMS = d.Timing.OpacityDebounceMS
	}
	if cfg.Timing.ResizeThrottleMS == 0 {
		cfg.Timing.ResizeThrottleMS = d.Timing.ResizeThrottleMS
	}
	if cfg.Timing.RemeasureDelayMS == 0 {
		cfg.Timing.RemeasureDelayMS = d.Timing.RemeasureDelayMS
	}
	if cfg.Timing.AttachPollMS == 0 {
		cfg.Timing.AttachPollMS = d.Timing.AttachPollMS
	}
	if cfg.Timing.FetchTimeoutS == 0 {
		cfg.Timing.FetchTimeoutS = d.Timing.FetchTimeoutS
	}
}

// Duration helpers keep call sites free of millisecond arithmetic.

func (t TimingConfig) Flicker() time.Duration { return time.Duration(t.FlickerMS) * time.Millisecond }

func (t TimingConfig) ClickThrottle() time.Duration {
	return time.Duration(t.ClickThrottleMS) * time.Millisecond
}

func (t TimingConfig) TouchHold() time.Duration {
	return time.Duration(t.TouchHoldMS) * time.Millisecond
}

func (t TimingConfig) RetryDelay() time.Duration {
	return time.Duration(t.RetryDelayMS) * time.Millisecond
}

func (t TimingConfig) OpacityDebounce() time.Duration {
	return time.Duration(t.OpacityDebounceMS) * time.Millisecond
}

func (t TimingConfig) ResizeThrottle() time.Duration {
	return time.Duration(t.ResizeThrottleMS) * time.Millisecond
}

func (t TimingConfig) RemeasureDelay() time.Duration {
	return time.Duration(t.RemeasureDelayMS) * time.Millisecond
}

func (t TimingConfig) AttachPoll() time.Duration {
	return time.Duration(t.AttachPollMS) * time.Millisecond
}

func (t TimingConfig) FetchTimeout() time.Duration { return time.Duration(t.FetchTimeoutS) * time.Second }
