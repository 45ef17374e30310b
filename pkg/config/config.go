package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Facing names accepted in the cameras list.
const (
	FacingBack     = "back"
	FacingFront    = "front"
	FacingExternal = "external"
)

// CameraConfig describes one capture device known to the app.
type CameraConfig struct {
	ID          string `yaml:"id"`           // stable id reported to the session, e.g. "0"
	DeviceIndex int    `yaml:"device_index"` // OpenCV device index
	Facing      string `yaml:"facing"`       // back, front or external
	Width       int    `yaml:"width"`        // preview output width (px)
	Height      int    `yaml:"height"`       // preview output height (px)
	FPS         int    `yaml:"fps"`          // preview frame rate cap
}

// StillConfig holds the fixed still capture parameters.
type StillConfig struct {
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	MaxImages   int `yaml:"max_images"`   // frame buffer capacity
	JPEGQuality int `yaml:"jpeg_quality"` // 1-100
}

// TimeoutsConfig bounds the asynchronous camera steps.
type TimeoutsConfig struct {
	OpenMs      int `yaml:"open_ms"`
	ConfigureMs int `yaml:"configure_ms"`
}

// WindowConfig is the initial window geometry.
type WindowConfig struct {
	Title  string  `yaml:"title"`
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// WebConfig controls the optional HTTP status server.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config aggregates all application configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"` // debug, info, warn, error
	Window   WindowConfig   `yaml:"window"`
	Still    StillConfig    `yaml:"still"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Cameras  []CameraConfig `yaml:"cameras"`
	Web      WebConfig      `yaml:"web"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file and returns the configuration.
// A missing file yields Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Window.Title == "" {
		c.Window.Title = "prodcam"
	}
	if c.Window.Width <= 0 {
		c.Window.Width = 960
	}
	if c.Window.Height <= 0 {
		c.Window.Height = 540
	}
	if c.Still.Width <= 0 {
		c.Still.Width = 300
	}
	if c.Still.Height <= 0 {
		c.Still.Height = 300
	}
	if c.Still.MaxImages <= 0 {
		c.Still.MaxImages = 10
	}
	if c.Still.JPEGQuality <= 0 {
		c.Still.JPEGQuality = 90
	}
	if c.Timeouts.OpenMs <= 0 {
		c.Timeouts.OpenMs = 10000
	}
	if c.Timeouts.ConfigureMs <= 0 {
		c.Timeouts.ConfigureMs = 5000
	}
	if len(c.Cameras) == 0 {
		c.Cameras = []CameraConfig{{ID: "0", DeviceIndex: 0, Facing: FacingBack}}
	}
	for i := range c.Cameras {
		cam := &c.Cameras[i]
		if cam.ID == "" {
			cam.ID = fmt.Sprintf("%d", cam.DeviceIndex)
		}
		if cam.Facing == "" {
			cam.Facing = FacingBack
		}
		if cam.Width <= 0 {
			cam.Width = 640
		}
		if cam.Height <= 0 {
			cam.Height = 480
		}
		if cam.FPS <= 0 {
			cam.FPS = 30
		}
	}
	if c.Web.Addr == "" {
		c.Web.Addr = "127.0.0.1:8090"
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	if c.Still.JPEGQuality > 100 {
		return fmt.Errorf("still.jpeg_quality must be between 1 and 100, got %d", c.Still.JPEGQuality)
	}
	seen := make(map[string]bool, len(c.Cameras))
	for _, cam := range c.Cameras {
		switch cam.Facing {
		case FacingBack, FacingFront, FacingExternal:
		default:
			return fmt.Errorf("camera %q: unknown facing %q", cam.ID, cam.Facing)
		}
		if cam.DeviceIndex < 0 {
			return fmt.Errorf("camera %q: device_index must be >= 0", cam.ID)
		}
		if seen[cam.ID] {
			return fmt.Errorf("camera %q: duplicate id", cam.ID)
		}
		seen[cam.ID] = true
	}
	return nil
}

// OpenTimeout returns how long a camera open may take.
func (c *Config) OpenTimeout() time.Duration {
	return time.Duration(c.Timeouts.OpenMs) * time.Millisecond
}

// ConfigureTimeout returns how long session configuration may take.
func (c *Config) ConfigureTimeout() time.Duration {
	return time.Duration(c.Timeouts.ConfigureMs) * time.Millisecond
}

// FrameInterval returns the delay between two preview frames.
func (cc CameraConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(cc.FPS)
}
