//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Demo mg.Namespace

const demoConfig = "examples/instancing.toml"

// Builds the instancing demo into bin/.
func (Demo) Build() error {
	if err := os.MkdirAll("bin", 0o755); err != nil {
		return fmt.Errorf("creating bin: %w", err)
	}
	return sh.RunV("go", "build", "-o", "bin/instancing", "examples/instancing.go")
}

// Runs the instancing demo with examples/instancing.toml, or the file named by OXY_CONFIG.
func (Demo) Run() error {
	mg.Deps(Demo.Build)
	cfg := os.Getenv("OXY_CONFIG")
	if cfg == "" {
		cfg = demoConfig
	}
	return sh.RunV("bin/instancing", "-config", cfg)
}
