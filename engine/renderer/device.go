package renderer

import (
	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group indices shared by every instancing pipeline.
const (
	GroupView     = 0
	GroupMaterial = 1
	GroupInstance = 2
)

// Limits are the device limits the instancing subsystem sizes its buffers against.
type Limits struct {
	MaxUniformBufferBindingSize     uint64
	MaxStorageBufferBindingSize     uint64
	MaxStorageBuffersPerShaderStage uint32
}

// Features are the optional device capabilities the instancing subsystem adapts to.
type Features struct {
	// IndirectFirstInstance allows indirect draws with a non-zero first instance.
	IndirectFirstInstance bool

	// VertexStorage allows read-only storage buffers in the vertex stage.
	VertexStorage bool
}

// Buffer is a GPU buffer handle.
type Buffer interface {
	// Label returns the debug label the buffer was created with.
	Label() string

	// Size returns the allocated size in bytes.
	//
	// Returns:
	//   - uint64: the size, rounded up to a multiple of 4
	Size() uint64

	// Release frees the GPU buffer. Releasing twice is a no-op.
	Release()
}

// Texture is a sampled 2D texture together with its sampler.
type Texture interface {
	Width() uint32
	Height() uint32
	Release()
}

// BindGroup is a GPU bind group handle.
type BindGroup interface {
	Release()
}

// Pipeline is a GPU render pipeline handle.
type Pipeline interface {
	// Label returns the debug label the pipeline was created with.
	Label() string

	Release()
}

// BindingKind identifies what a bind group layout entry binds.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingStorage
	BindingTexture
	BindingSampler
)

// BindingLayout describes one entry of a bind group layout.
type BindingLayout struct {
	Binding    uint32
	Kind       BindingKind
	Visibility wgpu.ShaderStage
}

// PipelineDescriptor describes a render pipeline built from one WGSL module.
type PipelineDescriptor struct {
	Label         string
	Source        string
	VertexEntry   string
	FragmentEntry string
	VertexLayout  wgpu.VertexBufferLayout
	Topology      wgpu.PrimitiveTopology

	// StripIndexFormat must be set for indexed strip topologies.
	StripIndexFormat wgpu.IndexFormat

	CullMode   wgpu.CullMode
	Blend      bool
	DepthWrite bool

	// BindGroups holds the layout of each bind group, indexed by group.
	BindGroups [][]BindingLayout
}

// BindGroupEntry binds one resource. Exactly one of Buffer, Texture or Sampler is set; Sampler binds the
// sampler that belongs to the given texture.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
	Texture Texture
	Sampler Texture
}

// BindGroupDescriptor describes a bind group for group Group of Pipeline's layout.
type BindGroupDescriptor struct {
	Label    string
	Pipeline Pipeline
	Group    uint32
	Entries  []BindGroupEntry
}

// Device creates GPU resources.
type Device interface {
	// Limits returns the device limits.
	//
	// Returns:
	//   - Limits: the limits
	Limits() Limits

	// Features returns the optional features enabled on the device.
	//
	// Returns:
	//   - Features: the features
	Features() Features

	// CreateBuffer creates a buffer initialized with contents. The usage always includes CopyDst.
	//
	// Parameters:
	//   - label: debug label
	//   - usage: buffer usage flags
	//   - contents: initial contents, zero padded to a multiple of 4 bytes
	//
	// Returns:
	//   - Buffer: the buffer
	//   - error: an error if the buffer could not be created
	CreateBuffer(label string, usage wgpu.BufferUsage, contents []byte) (Buffer, error)

	// CreateTexture creates an RGBA8 sRGB texture and its sampler.
	//
	// Parameters:
	//   - label: debug label
	//   - width: width in pixels
	//   - height: height in pixels
	//   - rgba: tightly packed pixel data
	//   - sampler: sampler settings, nil for defaults
	//
	// Returns:
	//   - Texture: the texture
	//   - error: an error if the texture could not be created
	CreateTexture(label string, width, height uint32, rgba []byte, sampler *common.SamplerStagingData) (Texture, error)

	// CreatePipeline compiles desc into a render pipeline.
	//
	// Parameters:
	//   - desc: the pipeline description
	//
	// Returns:
	//   - Pipeline: the pipeline
	//   - error: an error if the shader or pipeline could not be created
	CreatePipeline(desc PipelineDescriptor) (Pipeline, error)

	// CreateBindGroup creates a bind group against a pipeline's layout.
	//
	// Parameters:
	//   - desc: the bind group description
	//
	// Returns:
	//   - BindGroup: the bind group
	//   - error: an error if the bind group could not be created
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)
}

// RenderPass records draw commands.
type RenderPass interface {
	SetPipeline(p Pipeline)
	SetBindGroup(group uint32, bg BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format wgpu.IndexFormat)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	DrawIndirect(buf Buffer, offset uint64)
	DrawIndexedIndirect(buf Buffer, offset uint64)
}
