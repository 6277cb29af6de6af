package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-instancing/common"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
	if !Default().ValidateShaders {
		t.Errorf("Default().ValidateShaders = false, want true")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
	}{
		{
			name:   "toml",
			format: "toml",
			data: `
log_level = "debug"
instance_buffer = "uniform"
uniform_capacity_override = 64
indirect = "cpu"
workers = 3

[window]
width = 800
`,
		},
		{
			name:   "yaml",
			format: "yaml",
			data: `
log_level: debug
instance_buffer: uniform
uniform_capacity_override: 64
indirect: cpu
workers: 3
window:
  width: 800
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if c.LogLevel != "debug" || c.InstanceBuffer != "uniform" || c.Indirect != "cpu" {
				t.Errorf("Parse() = %+v, want debug, uniform, cpu", c)
			}
			if c.UniformCapacityOverride != 64 || c.WorkerCount() != 3 {
				t.Errorf("UniformCapacityOverride, WorkerCount() = %d, %d, want 64, 3", c.UniformCapacityOverride, c.WorkerCount())
			}
			if c.Window.Width != 800 {
				t.Errorf("Window.Width = %d, want 800", c.Window.Width)
			}
			def := Default()
			if c.Window.Height != def.Window.Height || c.WorkerQueue != def.WorkerQueue || c.Demo != def.Demo {
				t.Errorf("fields absent from the file did not keep their defaults: %+v", c)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"instance buffer", func(c *Config) { c.InstanceBuffer = "texture" }},
		{"indirect", func(c *Config) { c.Indirect = "sometimes" }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"empty queue", func(c *Config) { c.WorkerQueue = 0 }},
		{"profiler interval", func(c *Config) { c.ProfilerInterval = "soon" }},
		{"negative profiler interval", func(c *Config) { c.ProfilerInterval = "-1s" }},
		{"window size", func(c *Config) { c.Window.Height = 0 }},
		{"instance count", func(c *Config) { c.Demo.InstanceCount = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, common.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want %v", err, common.ErrInvalidConfig)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
	}{
		{"unknown format", "ini", "a=b"},
		{"broken toml", "toml", "log_level = "},
		{"broken yaml", "yaml", "log_level: [unterminated"},
		{"invalid value", "toml", `indirect = "maybe"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), tt.format); !errors.Is(err, common.ErrInvalidConfig) {
				t.Errorf("Parse() error = %v, want %v", err, common.ErrInvalidConfig)
			}
		})
	}
}

func TestWorkerCountDefault(t *testing.T) {
	if got := Default().WorkerCount(); got < 1 {
		t.Errorf("WorkerCount() = %d, want at least 1", got)
	}
}

func TestProfilerEvery(t *testing.T) {
	c := Default()
	if got := c.ProfilerEvery(); got != time.Second {
		t.Errorf("ProfilerEvery() = %v, want %v", got, time.Second)
	}
	c.ProfilerInterval = "0s"
	if got := c.ProfilerEvery(); got != 0 {
		t.Errorf("ProfilerEvery() = %v, want 0", got)
	}
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yml")
	if err := os.WriteFile(path, []byte("indirect: gpu\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Indirect != "gpu" {
		t.Errorf("Indirect = %q, want %q", c.Indirect, "gpu")
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Errorf("Load() of a missing file error = nil, want an error")
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.toml")
	if err := os.WriteFile(path, []byte(`indirect = "auto"`), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := newWatcher(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("newWatcher() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 4)
	done := make(chan struct{})
	go func() {
		w.run(ctx, func(c Config) { changes <- c })
		close(done)
	}()

	if err := os.WriteFile(path, []byte(`indirect = "nope"`), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`indirect = "cpu"`), 0o644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case c := <-changes:
			// A reload may observe the file between truncation and write; only the final content matters.
			reloaded = c.Indirect == "cpu"
		case <-timeout:
			t.Fatalf("no reload with indirect = cpu within 5s")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not stop after cancel")
	}
}
