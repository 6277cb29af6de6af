package material

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

// AlphaMode classifies how a material's fragments combine with the framebuffer.
// The order Opaque < Mask < Blend is part of the batch key ordering.
type AlphaMode int

const (
	// AlphaOpaque writes fragments unconditionally.
	AlphaOpaque AlphaMode = iota

	// AlphaMask discards fragments whose alpha falls below the material's cutoff.
	AlphaMask

	// AlphaBlend blends fragments over the framebuffer and must be drawn back to front.
	AlphaBlend
)

// String returns the lowercase name of the alpha mode.
func (a AlphaMode) String() string {
	switch a {
	case AlphaOpaque:
		return "opaque"
	case AlphaMask:
		return "mask"
	case AlphaBlend:
		return "blend"
	default:
		return fmt.Sprintf("alpha(%d)", int(a))
	}
}

// BackToFront reports whether instances with this alpha mode are sorted by descending distance.
func (a AlphaMode) BackToFront() bool {
	return a == AlphaBlend
}

// Kind identifies the material variant. Variants never share a bind group layout.
type Kind int

const (
	KindBasic Kind = iota
	KindCustom
	KindTexture
	KindColor
)

// String returns the lowercase name of the variant.
func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindCustom:
		return "custom"
	case KindTexture:
		return "texture"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Discriminator separates materials that cannot share a pipeline or a bind group. Uniform holds the
// packed GPUMaterialUniform, so materials differing only in base color or cutoff batch apart.
type Discriminator struct {
	Kind     Kind
	CullMode wgpu.CullMode
	Texture  asset.ID
	Uniform  [GPUMaterialUniformSize]byte
}

// BatchKey is the material half of an instance batch key. Materials with equal keys share a pipeline
// and may be intermixed inside one batch.
type BatchKey struct {
	Alpha AlphaMode
	Discriminator
}

// String returns a compact human-readable form of the key for logs.
func (k BatchKey) String() string {
	if k.Texture.IsNil() {
		return fmt.Sprintf("%s/%s/cull=%d", k.Alpha, k.Kind, uint32(k.CullMode))
	}
	return fmt.Sprintf("%s/%s/cull=%d/tex=%s", k.Alpha, k.Kind, uint32(k.CullMode), k.Texture)
}

// Compare orders batch keys by alpha mode, then variant, then cull mode, then texture, then uniform bytes.
//
// Parameters:
//   - a: the first key
//   - b: the second key
//
// Returns:
//   - int: -1, 0 or +1
func Compare(a, b BatchKey) int {
	if c := cmp.Compare(a.Alpha, b.Alpha); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.CullMode, b.CullMode); c != 0 {
		return c
	}
	if c := asset.Compare(a.Texture, b.Texture); c != 0 {
		return c
	}
	return bytes.Compare(a.Uniform[:], b.Uniform[:])
}
