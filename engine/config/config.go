// Package config loads the instancing demo's settings from TOML or YAML and watches the file for edits.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// WindowConfig sizes and names the demo window.
type WindowConfig struct {
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	Title  string `toml:"title" yaml:"title"`
}

// DemoConfig controls the demo scene.
type DemoConfig struct {
	InstanceCount int `toml:"instance_count" yaml:"instance_count"`
}

// Config holds every tunable of the instancing subsystem and its demo host.
type Config struct {
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// InstanceBuffer is "auto", "storage" or "uniform".
	InstanceBuffer string `toml:"instance_buffer" yaml:"instance_buffer"`

	// UniformCapacityOverride fixes the instances per uniform buffer; 0 derives it from device limits.
	UniformCapacityOverride uint32 `toml:"uniform_capacity_override" yaml:"uniform_capacity_override"`

	// Indirect is "auto", "gpu" or "cpu".
	Indirect string `toml:"indirect" yaml:"indirect"`

	// Workers is the number of views prepared in parallel; 0 uses one less than the CPU count.
	Workers     int `toml:"workers" yaml:"workers"`
	WorkerQueue int `toml:"worker_queue" yaml:"worker_queue"`

	ValidateShaders bool `toml:"validate_shaders" yaml:"validate_shaders"`

	// ProfilerInterval is a duration string such as "1s"; "0s" disables the periodic report.
	ProfilerInterval string `toml:"profiler_interval" yaml:"profiler_interval"`

	Window WindowConfig `toml:"window" yaml:"window"`
	Demo   DemoConfig   `toml:"demo" yaml:"demo"`
}

// Default returns the configuration used when no file is given. Loaded files override it field by field.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		LogLevel:         "info",
		InstanceBuffer:   "auto",
		Indirect:         "auto",
		WorkerQueue:      256,
		ValidateShaders:  true,
		ProfilerInterval: "1s",
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "oxy instancing",
		},
		Demo: DemoConfig{
			InstanceCount: 1000,
		},
	}
}

// Validate checks every field.
//
// Returns:
//   - error: common.ErrInvalidConfig wrapped with the first offending field, nil if valid
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", common.ErrInvalidConfig, c.LogLevel)
	}
	switch c.InstanceBuffer {
	case "auto", "storage", "uniform":
	default:
		return fmt.Errorf("%w: instance_buffer %q, want auto, storage or uniform", common.ErrInvalidConfig, c.InstanceBuffer)
	}
	switch c.Indirect {
	case "auto", "gpu", "cpu":
	default:
		return fmt.Errorf("%w: indirect %q, want auto, gpu or cpu", common.ErrInvalidConfig, c.Indirect)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d is negative", common.ErrInvalidConfig, c.Workers)
	}
	if c.WorkerQueue < 1 {
		return fmt.Errorf("%w: worker_queue %d, want at least 1", common.ErrInvalidConfig, c.WorkerQueue)
	}
	if d, err := time.ParseDuration(c.ProfilerInterval); err != nil || d < 0 {
		return fmt.Errorf("%w: profiler_interval %q", common.ErrInvalidConfig, c.ProfilerInterval)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", common.ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	if c.Demo.InstanceCount < 0 {
		return fmt.Errorf("%w: demo instance_count %d is negative", common.ErrInvalidConfig, c.Demo.InstanceCount)
	}
	return nil
}

// WorkerCount resolves Workers, substituting one less than the CPU count (at least 1) for 0.
//
// Returns:
//   - int: the worker count
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return max(runtime.NumCPU()-1, 1)
}

// ProfilerEvery returns ProfilerInterval as a duration, zero if it does not parse.
//
// Returns:
//   - time.Duration: the profiler reporting interval
func (c Config) ProfilerEvery() time.Duration {
	d, err := time.ParseDuration(c.ProfilerInterval)
	if err != nil {
		return 0
	}
	return d
}

// Parse decodes data over Default() and validates the result. format is "toml", "yaml" or "yml".
//
// Parameters:
//   - data: the encoded configuration
//   - format: the encoding
//
// Returns:
//   - Config: the configuration
//   - error: a decoding error, or common.ErrInvalidConfig wrapped with the offending field
func Parse(data []byte, format string) (Config, error) {
	c := Default()
	var err error
	switch strings.ToLower(format) {
	case "toml":
		err = toml.Unmarshal(data, &c)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &c)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config format %q", common.ErrInvalidConfig, format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: decode %s: %v", common.ErrInvalidConfig, format, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads path and parses it according to its extension.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//
// Returns:
//   - Config: the configuration
//   - error: an error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	c, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}
