// Package pipeline specializes and caches the render pipelines instance batches are drawn with.
package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/Carmen-Shannon/oxy-instancing/engine/mesh"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Key identifies one specialized pipeline. Keys are comparable and used as cache keys.
type Key struct {
	Mesh      mesh.StructuralKey
	Material  material.BatchKey
	Backing   instance.Backing
	Capacity  uint32
	Extension uint32

	// Defs is the sorted, comma separated shader definition set.
	Defs string
}

// NewKey builds a Key, canonicalizing defs. The material key's uniform bytes are cleared since they
// only affect the bind group, so materials differing in uniform contents share a pipeline.
//
// Parameters:
//   - meshKey: the mesh batch's structural key
//   - materialKey: the material batch key
//   - backing: the instance buffer backing
//   - capacity: instances per uniform buffer, zero for storage backing
//   - extension: the material's instance extension stride
//   - defs: the material's shader definitions in any order
//
// Returns:
//   - Key: the key
func NewKey(meshKey mesh.StructuralKey, materialKey material.BatchKey, backing instance.Backing, capacity, extension uint32, defs []string) Key {
	defs = slices.Clone(defs)
	slices.Sort(defs)
	materialKey.Uniform = [material.GPUMaterialUniformSize]byte{}
	return Key{
		Mesh:      meshKey,
		Material:  materialKey,
		Backing:   backing,
		Capacity:  capacity,
		Extension: extension,
		Defs:      strings.Join(slices.Compact(defs), ","),
	}
}

// DefList returns the definitions as a slice.
func (k Key) DefList() []string {
	if k.Defs == "" {
		return nil
	}
	return strings.Split(k.Defs, ",")
}

// String returns a compact human-readable form of the key for logs.
func (k Key) String() string {
	return fmt.Sprintf("[%s] [%s] %s/%d ext=%d defs=%s", k.Mesh, k.Material, k.Backing, k.Capacity, k.Extension, k.Defs)
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	key    Key
	shader shader.Shader
	handle renderer.Pipeline

	// The following properties configure the render state and can be set with the builder options.

	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	stripIndexFormat  wgpu.IndexFormat
}

// Pipeline is a specialized render pipeline together with the shader it was built from and its render state.
type Pipeline interface {
	// Key returns the key the pipeline was specialized for.
	//
	// Returns:
	//   - Key: the pipeline key
	Key() Key

	// Shader returns the composed shader.
	//
	// Returns:
	//   - shader.Shader: the shader
	Shader() shader.Shader

	// Handle returns the device pipeline, nil until the pipeline has been created.
	//
	// Returns:
	//   - renderer.Pipeline: the device pipeline
	Handle() renderer.Pipeline

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// BlendEnabled returns whether alpha blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() wgpu.PrimitiveTopology

	// Descriptor returns the device pipeline description for this pipeline's shader and state.
	//
	// Parameters:
	//   - layout: the per-vertex buffer layout of the mesh batch
	//
	// Returns:
	//   - renderer.PipelineDescriptor: the description
	Descriptor(layout wgpu.VertexBufferLayout) renderer.PipelineDescriptor

	// Release frees the device pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a Pipeline for a composed shader. The device pipeline is attached by the Specializer.
//
// Parameters:
//   - key: the pipeline key
//   - s: the composed shader
//   - opts: a variadic list of PipelineBuilderOption functions to configure the render state
//
// Returns:
//   - Pipeline: a new Pipeline with the specified configuration
func NewPipeline(key Key, s shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:               key,
		shader:            s,
		depthWriteEnabled: true,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeBack,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		stripIndexFormat:  wgpu.IndexFormatUndefined,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Key() Key {
	return p.key
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) Handle() renderer.Pipeline {
	return p.handle
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) Descriptor(layout wgpu.VertexBufferLayout) renderer.PipelineDescriptor {
	strip := wgpu.IndexFormatUndefined
	if p.topology == wgpu.PrimitiveTopologyTriangleStrip || p.topology == wgpu.PrimitiveTopologyLineStrip {
		strip = p.stripIndexFormat
	}
	return renderer.PipelineDescriptor{
		Label:            "instanced " + p.key.String(),
		Source:           p.shader.Source(),
		VertexEntry:      p.shader.VertexEntry(),
		FragmentEntry:    p.shader.FragmentEntry(),
		VertexLayout:     layout,
		Topology:         p.topology,
		StripIndexFormat: strip,
		CullMode:         p.cullMode,
		Blend:            p.blendEnabled,
		DepthWrite:       p.depthWriteEnabled,
		BindGroups:       p.shader.BindGroups(),
	}
}

func (p *pipeline) Release() {
	if p.handle != nil {
		p.handle.Release()
		p.handle = nil
	}
}
