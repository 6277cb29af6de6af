// Package material defines the closed set of material variants, their batch keys and the registry that
// prepares live materials for batching, retrying the ones whose assets are still loading.
package material

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

// Shader definitions set by materials on the specialized pipeline.
const (
	DefAlphaMask     = "ALPHA_MASK"
	DefAlphaBlend    = "ALPHA_BLEND"
	DefBaseTexture   = "BASE_TEXTURE"
	DefInstanceColor = "INSTANCE_COLOR"
)

// TextureLookup reports whether textures have finished loading on the GPU.
type TextureLookup interface {
	// TextureReady reports whether the texture id can be bound.
	//
	// Parameters:
	//   - id: the texture asset ID
	//
	// Returns:
	//   - bool: true if the texture is resident
	TextureReady(id asset.ID) bool
}

// BindGroupData is what a material contributes to its bind group: a uniform block and the textures it samples.
type BindGroupData struct {
	Uniform  []byte
	Textures []asset.ID
}

// ShaderRefs names the shader entry points and definitions a material needs.
type ShaderRefs struct {
	VertexEntry   string
	FragmentEntry string
	Defs          []string
}

// Prepared is the frame-ready form of a material produced by Material.Prepare.
type Prepared struct {
	ID              asset.ID
	Name            string
	Key             BatchKey
	CullMode        wgpu.CullMode
	DepthBias       float32
	BindGroup       BindGroupData
	Shader          ShaderRefs
	ExtensionStride uint32
}

// Material is the capability interface shared by every material variant.
type Material interface {
	// Name returns the material's name, used in labels and logs.
	//
	// Returns:
	//   - string: the material name
	Name() string

	// AlphaMode returns how fragments combine with the framebuffer.
	//
	// Returns:
	//   - AlphaMode: the alpha mode class
	AlphaMode() AlphaMode

	// CullMode returns the face culling mode of the material's pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// BatchDiscriminator returns the value separating this material from materials it cannot share a pipeline with.
	//
	// Returns:
	//   - Discriminator: the discriminator
	BatchDiscriminator() Discriminator

	// BindGroupData returns the uniform bytes and textures bound for this material.
	//
	// Returns:
	//   - BindGroupData: the bind group contents
	BindGroupData() BindGroupData

	// ShaderRefs returns the shader entry points and definitions for this material.
	//
	// Returns:
	//   - ShaderRefs: the shader references
	ShaderRefs() ShaderRefs

	// DepthBias returns the distance added to each instance's view depth before sorting.
	//
	// Returns:
	//   - float32: the depth bias
	DepthBias() float32

	// InstanceExtensionStride returns the size in bytes of the per-instance data this material appends to
	// the base instance record, zero if none.
	//
	// Returns:
	//   - uint32: the extension stride
	InstanceExtensionStride() uint32

	// Prepare produces the frame-ready form of the material. It returns an error wrapping
	// common.ErrNotReady while a dependency such as a texture is still loading.
	//
	// Parameters:
	//   - textures: the texture readiness lookup
	//
	// Returns:
	//   - *Prepared: the prepared material
	//   - error: common.ErrNotReady if a dependency is missing
	Prepare(textures TextureLookup) (*Prepared, error)
}

// base holds the fields every variant shares and is configured by MaterialBuilderOption.
type base struct {
	name        string
	baseColor   [4]float32
	alphaMode   AlphaMode
	alphaCutoff float32
	cullMode    wgpu.CullMode
	depthBias   float32
}

func newBase(options []MaterialBuilderOption) base {
	b := base{
		baseColor:   [4]float32{1, 1, 1, 1},
		alphaMode:   AlphaOpaque,
		alphaCutoff: 0.5,
		cullMode:    wgpu.CullModeBack,
	}
	for _, opt := range options {
		opt(&b)
	}
	return b
}

func (b *base) Name() string {
	return b.name
}

func (b *base) AlphaMode() AlphaMode {
	return b.alphaMode
}

func (b *base) CullMode() wgpu.CullMode {
	return b.cullMode
}

func (b *base) DepthBias() float32 {
	return b.depthBias
}

func (b *base) InstanceExtensionStride() uint32 {
	return 0
}

// uniform encodes the shared uniform block.
func (b *base) uniform() []byte {
	u := GPUMaterialUniform{BaseColor: b.baseColor, AlphaCutoff: b.alphaCutoff}
	return u.Marshal()
}

// discriminator returns the discriminator for a variant of the given kind, carrying the packed uniform.
func (b *base) discriminator(kind Kind) Discriminator {
	d := Discriminator{Kind: kind, CullMode: b.cullMode}
	copy(d.Uniform[:], b.uniform())
	return d
}

// alphaDefs returns the shader definitions implied by the alpha mode.
func (b *base) alphaDefs() []string {
	switch b.alphaMode {
	case AlphaMask:
		return []string{DefAlphaMask}
	case AlphaBlend:
		return []string{DefAlphaBlend}
	default:
		return nil
	}
}

// prepare assembles a Prepared from the capability methods of m.
func prepare(m Material) *Prepared {
	shader := m.ShaderRefs()
	shader.Defs = slices.Clone(shader.Defs)
	slices.Sort(shader.Defs)
	return &Prepared{
		Name:            m.Name(),
		Key:             BatchKey{Alpha: m.AlphaMode(), Discriminator: m.BatchDiscriminator()},
		CullMode:        m.CullMode(),
		DepthBias:       m.DepthBias(),
		BindGroup:       m.BindGroupData(),
		Shader:          shader,
		ExtensionStride: m.InstanceExtensionStride(),
	}
}
