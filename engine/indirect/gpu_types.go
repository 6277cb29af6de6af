package indirect

import (
	"encoding/binary"
	"unsafe"
)

// DrawIndexedIndirectSize is the size in bytes of one DrawIndexedIndirect record.
const DrawIndexedIndirectSize = 20

// DrawIndirectSize is the size in bytes of one DrawIndirect record.
const DrawIndirectSize = 16

// DrawIndexedIndirect matches the argument layout read by drawIndexedIndirect.
// Size: 20 bytes.
type DrawIndexedIndirect struct {
	IndexCount    uint32 // offset  0: number of indices per instance (4 bytes)
	InstanceCount uint32 // offset  4: number of instances (4 bytes)
	FirstIndex    uint32 // offset  8: first index in the batch index buffer (4 bytes)
	BaseVertex    int32  // offset 12: value added to each index (4 bytes)
	FirstInstance uint32 // offset 16: first instance in the bound instance buffer (4 bytes)
}

// Size returns the size of the DrawIndexedIndirect struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (d *DrawIndexedIndirect) Size() int {
	return int(unsafe.Sizeof(*d))
}

// MarshalTo writes the record into buf, which must be at least 20 bytes.
//
// Parameters:
//   - buf: destination buffer
func (d *DrawIndexedIndirect) MarshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], d.IndexCount)
	binary.LittleEndian.PutUint32(buf[4:8], d.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], d.FirstIndex)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(d.BaseVertex))
	binary.LittleEndian.PutUint32(buf[16:20], d.FirstInstance)
}

// DrawIndirect matches the argument layout read by drawIndirect.
// Size: 16 bytes.
type DrawIndirect struct {
	VertexCount   uint32 // offset  0: number of vertices per instance (4 bytes)
	InstanceCount uint32 // offset  4: number of instances (4 bytes)
	FirstVertex   uint32 // offset  8: first vertex in the batch vertex buffer (4 bytes)
	FirstInstance uint32 // offset 12: first instance in the bound instance buffer (4 bytes)
}

// Size returns the size of the DrawIndirect struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (d *DrawIndirect) Size() int {
	return int(unsafe.Sizeof(*d))
}

// MarshalTo writes the record into buf, which must be at least 16 bytes.
//
// Parameters:
//   - buf: destination buffer
func (d *DrawIndirect) MarshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], d.VertexCount)
	binary.LittleEndian.PutUint32(buf[4:8], d.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], d.FirstVertex)
	binary.LittleEndian.PutUint32(buf[12:16], d.FirstInstance)
}
