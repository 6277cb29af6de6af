package mesh

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// Shader locations used by StandardLayout.
const (
	LocationPosition uint32 = 0
	LocationNormal   uint32 = 1
	LocationUV       uint32 = 2
	LocationColor    uint32 = 3
)

// GPUVertex is the standard vertex format used by the built-in shapes.
// Size: 48 bytes.
type GPUVertex struct {
	Position [3]float32 // offset  0: model-space position (12 bytes)
	Normal   [3]float32 // offset 12: normal (12 bytes)
	UV       [2]float32 // offset 24: texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: vertex color RGBA (16 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalTo writes the vertex into buf, which must be at least 48 bytes.
//
// Parameters:
//   - buf: destination buffer
func (g *GPUVertex) MarshalTo(buf []byte) {
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	for i, v := range g.Position {
		put(i*4, v)
	}
	for i, v := range g.Normal {
		put(12+i*4, v)
	}
	for i, v := range g.UV {
		put(24+i*4, v)
	}
	for i, v := range g.Color {
		put(32+i*4, v)
	}
}

// Marshal serializes the GPUVertex into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 48)
	g.MarshalTo(buf)
	return buf
}

// MarshalVertices serializes vertices back to back.
//
// Parameters:
//   - vertices: the vertices to encode
//
// Returns:
//   - []byte: the encoded vertex data
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*48)
	for i := range vertices {
		vertices[i].MarshalTo(buf[i*48:])
	}
	return buf
}

// StandardLayout returns the vertex layout matching GPUVertex.
//
// Returns:
//   - VertexLayout: position, normal, uv and color at locations 0 to 3
func StandardLayout() VertexLayout {
	return VertexLayout{
		ArrayStride: 48,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: LocationPosition},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: LocationNormal},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: LocationUV},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: LocationColor},
		},
	}
}
