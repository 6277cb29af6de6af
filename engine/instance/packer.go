package instance

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-instancing/common"
)

// Backing selects the kind of GPU buffer instance data is bound through.
type Backing int

const (
	// BackingStorage binds one read-only storage buffer of any length per batch.
	BackingStorage Backing = iota

	// BackingUniform binds fixed-size uniform buffers, splitting batches that exceed one buffer's capacity.
	BackingUniform
)

// String returns the lowercase name of the backing.
func (b Backing) String() string {
	if b == BackingUniform {
		return "uniform"
	}
	return "storage"
}

// DefaultMaxUniformBindingSize is the WebGPU default limit for a uniform buffer binding.
const DefaultMaxUniformBindingSize = 65536

// Packed is the GPU-ready instance data of one batch.
type Packed struct {
	Key    BatchKey
	Stride uint32

	// Data holds Total records of Stride bytes in draw order.
	Data []byte

	// Counts and Offsets are indexed by mesh index. Offsets is the exclusive prefix sum of Counts.
	Counts  []uint32
	Offsets []uint32
	Total   uint32

	// Capacity is the number of instances one buffer holds, zero for unbounded storage backing.
	Capacity uint32

	Slices []SliceRange
}

// Chunks returns the instance buffer contents, one per GPU buffer. Storage backing yields one chunk;
// uniform backing yields chunks of exactly Capacity records, the last one zero padded.
//
// Returns:
//   - [][]byte: the buffer contents
func (p *Packed) Chunks() [][]byte {
	if p.Capacity == 0 {
		return [][]byte{p.Data}
	}

	size := int(p.Capacity) * int(p.Stride)
	n := (int(p.Total) + int(p.Capacity) - 1) / int(p.Capacity)
	chunks := make([][]byte, 0, n)
	for i := range n {
		off := i * size
		if off+size <= len(p.Data) {
			chunks = append(chunks, p.Data[off:off+size])
			continue
		}
		chunk := make([]byte, size)
		copy(chunk, p.Data[off:])
		chunks = append(chunks, chunk)
	}
	return chunks
}

// packer is the implementation of the Packer interface.
type packer struct {
	backing               Backing
	maxUniformBindingSize uint32
	capacityOverride      uint32
}

// Packer serializes sorted groups into instance buffer contents.
type Packer interface {
	// Backing returns the buffer kind the packer targets.
	//
	// Returns:
	//   - Backing: the backing
	Backing() Backing

	// Capacity returns how many instances of stride bytes fit in one buffer, zero if unbounded.
	//
	// Parameters:
	//   - stride: the per-instance stride
	//
	// Returns:
	//   - uint32: the capacity
	Capacity(stride uint32) uint32

	// Pack serializes g in draw order. For every mesh index below meshCount it counts the mesh's instances
	// (entries plus reserved slice slots) and computes the offset at which they start. Each mesh's entries
	// are followed by its slices' zero-filled slots.
	//
	// Parameters:
	//   - g: the sorted group
	//   - meshCount: the number of meshes in g's mesh batch
	//
	// Returns:
	//   - *Packed: the packed data
	Pack(g *Group, meshCount int) *Packed
}

var _ Packer = &packer{}

// NewPacker creates a Packer using storage backing unless configured otherwise.
//
// Parameters:
//   - options: functional options to configure the packer
//
// Returns:
//   - Packer: the packer
func NewPacker(options ...PackerBuilderOption) Packer {
	p := &packer{
		backing:               BackingStorage,
		maxUniformBindingSize: DefaultMaxUniformBindingSize,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *packer) Backing() Backing {
	return p.backing
}

func (p *packer) Capacity(stride uint32) uint32 {
	if p.backing != BackingUniform {
		return 0
	}
	if p.capacityOverride > 0 {
		return p.capacityOverride
	}
	c := p.maxUniformBindingSize / stride
	if c == 0 {
		panic(fmt.Sprintf("uniform binding size %d cannot hold one %d byte instance", p.maxUniformBindingSize, stride))
	}
	return c
}

func (p *packer) Pack(g *Group, meshCount int) *Packed {
	stride := Stride(g.ExtensionStride)
	counts := make([]uint32, meshCount)
	for _, e := range g.Entries {
		counts[e.Mesh]++
	}
	for _, s := range g.Slices {
		counts[s.Mesh] += s.Count
	}
	offsets, total := common.PrefixSum(counts)

	out := &Packed{
		Key:      g.Key,
		Stride:   stride,
		Data:     make([]byte, int(total)*int(stride)),
		Counts:   counts,
		Offsets:  offsets,
		Total:    total,
		Capacity: p.Capacity(stride),
	}

	extStride := int(g.ExtensionStride)
	cursor := 0
	entries, reserved := g.Entries, g.Slices
	for m := range meshCount {
		for len(entries) > 0 && int(entries[0].Mesh) == m {
			e := entries[0]
			rec := out.Data[cursor : cursor+int(stride)]
			inst := GPUMeshInstance{
				Mesh:             uint32(m),
				Transform:        e.Transform,
				InverseTranspose: common.InverseTranspose(e.Transform),
			}
			inst.MarshalTo(rec)
			// Extensions shorter than the material's stride are zero padded, longer ones truncated.
			copy(rec[BaseStride:BaseStride+extStride], e.Extension)
			cursor += int(stride)
			entries = entries[1:]
		}
		for len(reserved) > 0 && int(reserved[0].Mesh) == m {
			s := reserved[0]
			out.Slices = append(out.Slices, SliceRange{
				Entity: s.Entity,
				Key:    g.Key,
				Offset: uint32(cursor) / stride,
				Count:  s.Count,
			})
			for range s.Count {
				rec := out.Data[cursor : cursor+int(stride)]
				(&GPUMeshInstance{Mesh: uint32(m)}).MarshalTo(rec)
				cursor += int(stride)
			}
			reserved = reserved[1:]
		}
	}
	return out
}
