package bind_group_provider

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// textureBinding binds a texture and the sampler that belongs to it.
type textureBinding struct {
	texture        renderer.Texture
	samplerBinding int
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources owned by the provider and released with it.

	// bindGroup is the bind group created for this provider, or nil if not initialized.
	bindGroup renderer.BindGroup
	// buffers holds the buffers bound by this provider, keyed by binding index.
	buffers map[int]renderer.Buffer

	// textures are bound but owned by the texture store, so they are not released with the provider.
	textures map[int]textureBinding

	// The following fields are specific to mesh batch providers, which carry the batch's vertex and index data.

	vertexBuffer renderer.Buffer
	indexBuffer  renderer.Buffer
	indexFormat  wgpu.IndexFormat
}

// BindGroupProvider owns the GPU resources behind one bind group, or behind one mesh batch's vertex and
// index data, and releases them together.
//
// Usage pattern:
//  1. Create the buffers on the device and hand them to NewBindGroupProvider as options
//  2. Call Init against the pipeline whose layout the bind group must match
//  3. Use BindGroup() for draw calls
//  4. Call Release once the resources are no longer referenced by submitted work
type BindGroupProvider interface {
	// Release releases every buffer and the bind group held by this provider. Releasing twice is a no-op.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Init creates the bind group for group of p's layout from the provider's buffers and textures.
	//
	// Parameters:
	//   - device: the device to create the bind group on
	//   - p: the pipeline whose layout the bind group matches
	//   - group: the bind group index
	//
	// Returns:
	//   - error: an error if the provider has nothing to bind or the device rejects the bind group
	Init(device renderer.Device, p renderer.Pipeline, group uint32) error

	// BindGroup returns the created bind group, or nil if Init has not succeeded.
	//
	// Returns:
	//   - renderer.BindGroup: the bind group or nil
	BindGroup() renderer.BindGroup

	// Buffer returns the buffer bound at binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - renderer.Buffer: the buffer or nil
	Buffer(binding int) renderer.Buffer

	// Entries returns the bind group entries in binding order.
	//
	// Returns:
	//   - []renderer.BindGroupEntry: the entries
	Entries() []renderer.BindGroupEntry

	// VertexBuffer returns the mesh batch vertex buffer, or nil.
	VertexBuffer() renderer.Buffer

	// IndexBuffer returns the mesh batch index buffer, or nil for non-indexed batches.
	IndexBuffer() renderer.Buffer

	// IndexFormat returns the format of IndexBuffer.
	IndexFormat() wgpu.IndexFormat
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider holding the resources given as options.
//
// Parameters:
//   - label: the debug label
//   - options: variadic list of BindGroupProviderOption functions
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:       label,
		buffers:     make(map[int]renderer.Buffer),
		textures:    make(map[int]textureBinding),
		indexFormat: wgpu.IndexFormatUndefined,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Release() {
	for _, b := range p.buffers {
		b.Release()
	}
	clear(p.buffers)
	clear(p.textures)
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Init(device renderer.Device, pl renderer.Pipeline, group uint32) error {
	entries := p.Entries()
	if len(entries) == 0 {
		return fmt.Errorf("bind group provider %q has no resources", p.label)
	}
	bg, err := device.CreateBindGroup(renderer.BindGroupDescriptor{
		Label:    p.label,
		Pipeline: pl,
		Group:    group,
		Entries:  entries,
	})
	if err != nil {
		return fmt.Errorf("bind group provider %q: %w", p.label, err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	return nil
}

func (p *bindGroupProvider) BindGroup() renderer.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) renderer.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Entries() []renderer.BindGroupEntry {
	entries := make([]renderer.BindGroupEntry, 0, len(p.buffers)+2*len(p.textures))
	for binding, buf := range p.buffers {
		entries = append(entries, renderer.BindGroupEntry{Binding: uint32(binding), Buffer: buf})
	}
	for _, binding := range slices.Sorted(maps.Keys(p.textures)) {
		tb := p.textures[binding]
		entries = append(entries,
			renderer.BindGroupEntry{Binding: uint32(binding), Texture: tb.texture},
			renderer.BindGroupEntry{Binding: uint32(tb.samplerBinding), Sampler: tb.texture},
		)
	}
	slices.SortFunc(entries, func(a, b renderer.BindGroupEntry) int {
		return int(a.Binding) - int(b.Binding)
	})
	return entries
}

func (p *bindGroupProvider) VertexBuffer() renderer.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() renderer.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexFormat() wgpu.IndexFormat {
	return p.indexFormat
}
