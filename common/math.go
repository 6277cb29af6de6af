package common

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PutMat4 writes m into dst as 16 little-endian float32 values in column-major order.
// dst must be at least 64 bytes long.
//
// Parameters:
//   - dst: destination byte slice
//   - m: the matrix to write
func PutMat4(dst []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// PutVec4 writes v into dst as 4 little-endian float32 values.
// dst must be at least 16 bytes long.
//
// Parameters:
//   - dst: destination byte slice
//   - v: the vector to write
func PutVec4(dst []byte, v mgl32.Vec4) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// Vec4Bytes returns v as a 16 byte little-endian slice.
//
// Parameters:
//   - v: the vector to encode
//
// Returns:
//   - []byte: the encoded vector
func Vec4Bytes(v mgl32.Vec4) []byte {
	out := make([]byte, 16)
	PutVec4(out, v)
	return out
}

// InverseTranspose returns the inverse transpose of m, used to transform normals.
// A singular matrix yields the zero matrix, matching mgl32's Inv behaviour.
//
// Parameters:
//   - m: the model matrix
//
// Returns:
//   - mgl32.Mat4: the inverse transpose of m
func InverseTranspose(m mgl32.Mat4) mgl32.Mat4 {
	return m.Inv().Transpose()
}

// Perspective creates a perspective projection matrix mapping depth to the WebGPU clip range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clip plane distance
//   - far: far clip plane distance
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1.0 / math.Tan(float64(fovY)/2))
	rangeInv := 1 / (near - far)

	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far * rangeInv
	m[11] = -1
	m[14] = near * far * rangeInv
	return m
}

// AlignUp rounds n up to the next multiple of align. align must be a power of two.
//
// Parameters:
//   - n: the value to round
//   - align: the alignment
//
// Returns:
//   - uint64: n rounded up to align
func AlignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
