package material

import "github.com/cogentcore/webgpu/wgpu"

// MaterialBuilderOption is a function that configures the shared fields of a material during construction.
type MaterialBuilderOption func(*base)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(b *base) {
		b.name = name
	}
}

// WithBaseColor is an option builder that sets the RGBA base color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(b *base) {
		b.baseColor = color
	}
}

// WithAlphaMode is an option builder that sets the alpha mode of the material.
// Basic materials ignore it and are always opaque.
//
// Parameters:
//   - mode: the alpha mode
//
// Returns:
//   - MaterialBuilderOption: a function that applies the alpha mode option to a material
func WithAlphaMode(mode AlphaMode) MaterialBuilderOption {
	return func(b *base) {
		b.alphaMode = mode
	}
}

// WithAlphaCutoff is an option builder that sets the alpha threshold used by AlphaMask materials.
//
// Parameters:
//   - cutoff: fragments with alpha below this value are discarded
//
// Returns:
//   - MaterialBuilderOption: a function that applies the cutoff option to a material
func WithAlphaCutoff(cutoff float32) MaterialBuilderOption {
	return func(b *base) {
		b.alphaCutoff = cutoff
	}
}

// WithCullMode is an option builder that sets the face culling mode of the material.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - MaterialBuilderOption: a function that applies the cull mode option to a material
func WithCullMode(mode wgpu.CullMode) MaterialBuilderOption {
	return func(b *base) {
		b.cullMode = mode
	}
}

// WithDepthBias is an option builder that sets the distance added to instance depth before sorting.
//
// Parameters:
//   - bias: the depth bias
//
// Returns:
//   - MaterialBuilderOption: a function that applies the depth bias option to a material
func WithDepthBias(bias float32) MaterialBuilderOption {
	return func(b *base) {
		b.depthBias = bias
	}
}
