package view

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUViewUniformSource is the canonical WGSL definition of the ViewUniform struct.
// Matches GPUViewUniform layout exactly (80 bytes).
//
//go:embed assets/view_uniform.wgsl
var GPUViewUniformSource string

// GPUViewUniform is the per-view uniform bound at group 0.
// Size: 80 bytes.
type GPUViewUniform struct {
	ViewProj mgl32.Mat4 // offset  0: clip-from-world matrix (64 bytes)
	Position mgl32.Vec4 // offset 64: world-space view position, w = 1 (16 bytes)
}

// Size returns the size of the GPUViewUniform struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUViewUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUViewUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload.
func (g *GPUViewUniform) Marshal() []byte {
	buf := make([]byte, 80)
	common.PutMat4(buf[0:64], g.ViewProj)
	common.PutVec4(buf[64:80], g.Position)
	return buf
}

// Uniform returns the GPU uniform for v.
//
// Parameters:
//   - v: the view
//
// Returns:
//   - GPUViewUniform: the uniform contents
func Uniform(v View) GPUViewUniform {
	return GPUViewUniform{
		ViewProj: v.ViewProjection(),
		Position: v.Transform().Col(3),
	}
}
