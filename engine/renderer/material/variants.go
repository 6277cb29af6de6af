package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	vertexEntry   = "vs_main"
	fragmentEntry = "fs_main"
)

// ColorExtensionStride is the size of the per-instance RGBA color appended by ColorMaterial.
const ColorExtensionStride = 16

// basicMaterial is an opaque, back-face culled material with a flat base color.
type basicMaterial struct {
	base
}

var _ Material = &basicMaterial{}

// NewBasicMaterial creates an opaque material shaded with its base color.
//
// Parameters:
//   - options: material builder options; alpha mode and cull mode are ignored
//
// Returns:
//   - Material: the material
func NewBasicMaterial(options ...MaterialBuilderOption) Material {
	b := newBase(options)
	b.alphaMode = AlphaOpaque
	b.cullMode = wgpu.CullModeBack
	return &basicMaterial{base: b}
}

func (m *basicMaterial) BatchDiscriminator() Discriminator {
	return m.discriminator(KindBasic)
}

func (m *basicMaterial) BindGroupData() BindGroupData {
	return BindGroupData{Uniform: m.uniform()}
}

func (m *basicMaterial) ShaderRefs() ShaderRefs {
	return ShaderRefs{VertexEntry: vertexEntry, FragmentEntry: fragmentEntry}
}

func (m *basicMaterial) Prepare(TextureLookup) (*Prepared, error) {
	return prepare(m), nil
}

// customMaterial has a configurable alpha mode and cull mode; its batch discriminator is the cull mode
// and the uniform.
type customMaterial struct {
	base
}

var _ Material = &customMaterial{}

// NewCustomMaterial creates a flat-colored material with configurable alpha and cull modes.
//
// Parameters:
//   - options: material builder options
//
// Returns:
//   - Material: the material
func NewCustomMaterial(options ...MaterialBuilderOption) Material {
	return &customMaterial{base: newBase(options)}
}

func (m *customMaterial) BatchDiscriminator() Discriminator {
	return m.discriminator(KindCustom)
}

func (m *customMaterial) BindGroupData() BindGroupData {
	return BindGroupData{Uniform: m.uniform()}
}

func (m *customMaterial) ShaderRefs() ShaderRefs {
	return ShaderRefs{VertexEntry: vertexEntry, FragmentEntry: fragmentEntry, Defs: m.alphaDefs()}
}

func (m *customMaterial) Prepare(TextureLookup) (*Prepared, error) {
	return prepare(m), nil
}

// textureMaterial samples a texture asset; it is keyed by texture and cull mode and is not ready until
// the texture is resident.
type textureMaterial struct {
	base
	texture asset.ID
}

var _ Material = &textureMaterial{}

// NewTextureMaterial creates a material sampling the given texture, tinted by its base color.
//
// Parameters:
//   - texture: the texture asset ID
//   - options: material builder options
//
// Returns:
//   - Material: the material
func NewTextureMaterial(texture asset.ID, options ...MaterialBuilderOption) Material {
	return &textureMaterial{base: newBase(options), texture: texture}
}

// Texture returns the texture asset the material samples.
func (m *textureMaterial) Texture() asset.ID {
	return m.texture
}

func (m *textureMaterial) BatchDiscriminator() Discriminator {
	d := m.discriminator(KindTexture)
	d.Texture = m.texture
	return d
}

func (m *textureMaterial) BindGroupData() BindGroupData {
	return BindGroupData{Uniform: m.uniform(), Textures: []asset.ID{m.texture}}
}

func (m *textureMaterial) ShaderRefs() ShaderRefs {
	return ShaderRefs{
		VertexEntry:   vertexEntry,
		FragmentEntry: fragmentEntry,
		Defs:          append(m.alphaDefs(), DefBaseTexture),
	}
}

func (m *textureMaterial) Prepare(textures TextureLookup) (*Prepared, error) {
	if textures == nil || !textures.TextureReady(m.texture) {
		return nil, fmt.Errorf("material %q texture %s: %w", m.name, m.texture, common.ErrNotReady)
	}
	return prepare(m), nil
}

// colorMaterial reads a per-instance RGBA color from the instance extension and multiplies it with the base color.
type colorMaterial struct {
	base
}

var _ Material = &colorMaterial{}

// NewColorMaterial creates a material whose instances each carry their own color.
// Instances drawn with it should set their extension with ColorExtension.
//
// Parameters:
//   - options: material builder options
//
// Returns:
//   - Material: the material
func NewColorMaterial(options ...MaterialBuilderOption) Material {
	return &colorMaterial{base: newBase(options)}
}

func (m *colorMaterial) BatchDiscriminator() Discriminator {
	return m.discriminator(KindColor)
}

func (m *colorMaterial) BindGroupData() BindGroupData {
	return BindGroupData{Uniform: m.uniform()}
}

func (m *colorMaterial) ShaderRefs() ShaderRefs {
	return ShaderRefs{
		VertexEntry:   vertexEntry,
		FragmentEntry: fragmentEntry,
		Defs:          append(m.alphaDefs(), DefInstanceColor),
	}
}

func (m *colorMaterial) InstanceExtensionStride() uint32 {
	return ColorExtensionStride
}

func (m *colorMaterial) Prepare(TextureLookup) (*Prepared, error) {
	return prepare(m), nil
}

// ColorExtension encodes an RGBA color as the per-instance extension read by ColorMaterial.
//
// Parameters:
//   - color: the instance color
//
// Returns:
//   - []byte: 16 bytes of little-endian float32 RGBA
func ColorExtension(color [4]float32) []byte {
	return common.Vec4Bytes(color)
}
