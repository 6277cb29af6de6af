package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialUniformSource is the canonical WGSL definition of the MaterialUniform struct.
// Matches GPUMaterialUniform layout exactly (32 bytes).
//
//go:embed assets/material_uniform.wgsl
var GPUMaterialUniformSource string

// GPUMaterialUniformSize is the packed size of GPUMaterialUniform in bytes.
const GPUMaterialUniformSize = 32

// GPUMaterialUniform is the per-material uniform bound alongside each batch.
// Size: 32 bytes.
type GPUMaterialUniform struct {
	BaseColor   [4]float32 // offset  0: RGBA base color (16 bytes)
	AlphaCutoff float32    // offset 16: mask threshold, unused unless alpha mode is mask (4 bytes)
	_           [3]float32 // offset 20: padding to 16-byte alignment (12 bytes)
}

// Size returns the size of the GPUMaterialUniform struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterialUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUMaterialUniform) Marshal() []byte {
	buf := make([]byte, GPUMaterialUniformSize)
	for i, v := range g.BaseColor {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.AlphaCutoff))
	return buf
}
