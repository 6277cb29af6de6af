package pipeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/mesh"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/shader"
)

// specializer is the implementation of the Specializer interface.
type specializer struct {
	mu sync.Mutex

	device    renderer.Device
	composer  shader.Composer
	validator shader.Validator

	pipelines map[Key]Pipeline
	failures  map[Key]error
}

// Specializer turns pipeline keys into device pipelines. Successes and failures are both cached so a
// key is composed, validated and created at most once.
type Specializer interface {
	// Specialize returns the pipeline for key, creating it on first use. The shader is composed for
	// the mesh layout, validated, then created on the device. A failure is logged once per key and
	// every call for that key returns an error wrapping common.ErrSpecialization.
	//
	// Parameters:
	//   - key: the pipeline key
	//   - layout: the vertex layout of the mesh batch the key's structural key describes
	//
	// Returns:
	//   - Pipeline: the pipeline
	//   - error: an error wrapping common.ErrSpecialization if the pipeline cannot be built
	Specialize(key Key, layout mesh.VertexLayout) (Pipeline, error)

	// Len returns the number of cached pipelines.
	Len() int

	// Failed returns the number of keys that failed to specialize.
	Failed() int

	// Release frees every cached pipeline and forgets cached failures.
	Release()
}

var _ Specializer = &specializer{}

// NewSpecializer creates a Specializer creating pipelines on device. Shaders are composed from the
// built-in template and validated with shader.Validate unless overridden by options.
//
// Parameters:
//   - device: the device pipelines are created on
//   - options: variadic list of SpecializerBuilderOption functions
//
// Returns:
//   - Specializer: the specializer
func NewSpecializer(device renderer.Device, options ...SpecializerBuilderOption) Specializer {
	s := &specializer{
		device:    device,
		composer:  shader.NewComposer(),
		validator: shader.Validate,
		pipelines: make(map[Key]Pipeline),
		failures:  make(map[Key]error),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *specializer) Specialize(key Key, layout mesh.VertexLayout) (Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pipelines[key]; ok {
		return p, nil
	}
	if err, ok := s.failures[key]; ok {
		return nil, err
	}

	p, err := s.build(key, layout)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", common.ErrSpecialization, key, err)
		s.failures[key] = err
		common.Logger().Error("pipeline specialization failed", "key", key, "err", err)
		return nil, err
	}

	s.pipelines[key] = p
	common.Logger().Debug("pipeline specialized", "key", key)
	return p, nil
}

func (s *specializer) build(key Key, layout mesh.VertexLayout) (*pipeline, error) {
	if layout.Key() != key.Mesh.Layout {
		return nil, fmt.Errorf("vertex layout %q does not match key layout %q", layout.Key(), key.Mesh.Layout)
	}

	sh, err := s.composer.Compose(shader.Permutation{
		Layout:          layout,
		Defs:            key.DefList(),
		Backing:         key.Backing,
		Capacity:        key.Capacity,
		ExtensionStride: key.Extension,
	})
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	if s.validator != nil {
		if err := s.validator(sh.Source()); err != nil {
			return nil, fmt.Errorf("validate: %w", err)
		}
	}

	blend := key.Material.Alpha == material.AlphaBlend
	p := NewPipeline(key, sh,
		WithTopology(key.Mesh.Topology),
		WithStripIndexFormat(key.Mesh.IndexFormat),
		WithCullMode(key.Material.CullMode),
		WithBlendEnabled(blend),
		WithDepthWriteEnabled(!blend),
	).(*pipeline)

	handle, err := s.device.CreatePipeline(p.Descriptor(layout.WGPU()))
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	p.handle = handle
	return p, nil
}

func (s *specializer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pipelines)
}

func (s *specializer) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failures)
}

func (s *specializer) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pipelines {
		p.Release()
	}
	clear(s.pipelines)
	clear(s.failures)
}
