package instance

import (
	_ "embed"
	"encoding/binary"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUMeshInstanceSource is the opening of the WGSL MeshInstance struct, up to and including the base fields.
// The shader composer appends any material extension fields and the closing brace.
//
//go:embed assets/mesh_instance.wgsl
var GPUMeshInstanceSource string

// BaseStride is the size in bytes of GPUMeshInstance.
const BaseStride = 144

// GPUMeshInstance is the base per-instance record read by the vertex shader.
// Size: 144 bytes, followed by the material extension padded to 16 bytes.
type GPUMeshInstance struct {
	Mesh             uint32     // offset   0: mesh index inside the mesh batch (4 bytes)
	_                [3]uint32  // offset   4: padding to 16-byte alignment (12 bytes)
	Transform        mgl32.Mat4 // offset  16: world-from-model matrix (64 bytes)
	InverseTranspose mgl32.Mat4 // offset  80: inverse transpose of Transform for normals (64 bytes)
}

// Size returns the size of the GPUMeshInstance struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMeshInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalTo writes the record into buf, which must be at least BaseStride bytes.
// The padding bytes are zeroed.
//
// Parameters:
//   - buf: destination buffer
func (g *GPUMeshInstance) MarshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], g.Mesh)
	clear(buf[4:16])
	common.PutMat4(buf[16:80], g.Transform)
	common.PutMat4(buf[80:144], g.InverseTranspose)
}

// Stride returns the per-instance stride for a material extension of extension bytes.
//
// Parameters:
//   - extension: the material's extension stride
//
// Returns:
//   - uint32: BaseStride plus the extension rounded up to 16 bytes
func Stride(extension uint32) uint32 {
	return BaseStride + uint32(common.AlignUp(uint64(extension), 16))
}
