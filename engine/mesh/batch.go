package mesh

import (
	"encoding/binary"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

// DrawTemplate holds the per-mesh draw parameters inside a mesh batch, before instance counts and
// offsets are known. Indexed templates address the batch index buffer through FirstIndex with a base
// vertex of zero since their indices are already rebased; non-indexed templates use FirstVertex.
type DrawTemplate struct {
	Mesh        asset.ID
	Indexed     bool
	VertexCount uint32
	IndexCount  uint32
	FirstVertex uint32
	FirstIndex  uint32
}

// Count returns the element count drawn per instance: indices for indexed meshes, vertices otherwise.
func (t DrawTemplate) Count() uint32 {
	if t.Indexed {
		return t.IndexCount
	}
	return t.VertexCount
}

// Batch is the concatenation of every mesh sharing a structural key.
type Batch struct {
	Key    StructuralKey
	Layout VertexLayout

	// Meshes lists the member mesh IDs in ascending order. A mesh's position in this slice is its mesh index.
	Meshes []asset.ID

	// Vertices is the concatenated vertex data of all members in Meshes order.
	Vertices []byte

	// Indices is the concatenated little-endian index data, rebased by the vertex count of preceding
	// members. Empty for non-indexed keys.
	Indices []byte

	// Templates holds one draw template per member, in Meshes order.
	Templates []DrawTemplate

	VertexCount uint32
	IndexCount  uint32
}

// Position returns the mesh index of id inside the batch.
//
// Parameters:
//   - id: the mesh ID
//
// Returns:
//   - int: the position, -1 if id is not a member
func (b *Batch) Position(id asset.ID) int {
	i, ok := slices.BinarySearchFunc(b.Meshes, id, asset.Compare)
	if !ok {
		return -1
	}
	return i
}

// newBatch concatenates meshes, which must be sorted by ID and share key.
// It panics if the members disagree on index width, which the structural key rules out.
func newBatch(key StructuralKey, meshes []*GPUMesh) *Batch {
	b := &Batch{
		Key:       key,
		Layout:    meshes[0].Layout,
		Meshes:    make([]asset.ID, 0, len(meshes)),
		Templates: make([]DrawTemplate, 0, len(meshes)),
	}

	for _, m := range meshes {
		baseVertex := b.VertexCount
		b.Meshes = append(b.Meshes, m.ID)
		b.Vertices = append(b.Vertices, m.Vertices...)

		switch idx := m.Index.(type) {
		case Indexed:
			if idx.Format != key.IndexFormat {
				panic(fmt.Sprintf("mesh %v: index format %d does not match batch index format %d", m.ID, uint32(idx.Format), uint32(key.IndexFormat)))
			}
			b.Templates = append(b.Templates, DrawTemplate{
				Mesh:        m.ID,
				Indexed:     true,
				VertexCount: m.VertexCount,
				IndexCount:  idx.IndexCount,
				FirstIndex:  b.IndexCount,
			})
			b.Indices = appendRebased(b.Indices, idx, baseVertex)
			b.IndexCount += idx.IndexCount
		case NonIndexed:
			if key.Indexed() {
				panic(fmt.Sprintf("mesh %v: non-indexed mesh in indexed batch", m.ID))
			}
			b.Templates = append(b.Templates, DrawTemplate{
				Mesh:        m.ID,
				VertexCount: idx.VertexCount,
				FirstVertex: baseVertex,
			})
		default:
			panic(fmt.Sprintf("mesh %v: unknown index data %T", m.ID, m.Index))
		}

		b.VertexCount += m.VertexCount
	}
	return b
}

// appendRebased appends idx to dst with every index offset by base. A rebased 16-bit index that no
// longer fits in 16 bits panics.
func appendRebased(dst []byte, idx Indexed, base uint32) []byte {
	switch idx.Format {
	case wgpu.IndexFormatUint16:
		if len(idx.U32) > 0 {
			panic("16-bit index format with 32-bit index data")
		}
		for _, v := range idx.U16 {
			r := uint32(v) + base
			if r > 0xFFFF {
				panic(fmt.Sprintf("rebased 16-bit index %d overflows", r))
			}
			dst = binary.LittleEndian.AppendUint16(dst, uint16(r))
		}
	case wgpu.IndexFormatUint32:
		if len(idx.U16) > 0 {
			panic("32-bit index format with 16-bit index data")
		}
		for _, v := range idx.U32 {
			dst = binary.LittleEndian.AppendUint32(dst, v+base)
		}
	default:
		panic(fmt.Sprintf("unsupported index format %d", uint32(idx.Format)))
	}
	return dst
}

// location records where a mesh lives inside a BatchSet.
type location struct {
	key      StructuralKey
	position uint32
}

// BatchSet is an immutable snapshot of all mesh batches built from one registry generation.
type BatchSet struct {
	generation uint64
	keys       []StructuralKey
	batches    map[StructuralKey]*Batch
	locations  map[asset.ID]location
}

// Generation returns the registry generation the set was built from.
func (s *BatchSet) Generation() uint64 {
	return s.generation
}

// Keys returns the structural keys in ascending order.
func (s *BatchSet) Keys() []StructuralKey {
	return s.keys
}

// Batch returns the batch for key.
//
// Parameters:
//   - key: the structural key
//
// Returns:
//   - *Batch: the batch, nil if absent
//   - bool: whether the key has a batch
func (s *BatchSet) Batch(key StructuralKey) (*Batch, bool) {
	b, ok := s.batches[key]
	return b, ok
}

// Len returns the number of batches.
func (s *BatchSet) Len() int {
	return len(s.keys)
}

// Locate returns the structural key of the batch containing id and id's mesh index within it.
//
// Parameters:
//   - id: the mesh ID
//
// Returns:
//   - StructuralKey: the batch key
//   - uint32: the mesh index
//   - bool: whether id is in any batch
func (s *BatchSet) Locate(id asset.ID) (StructuralKey, uint32, bool) {
	loc, ok := s.locations[id]
	return loc.key, loc.position, ok
}

// BuildBatches groups every mesh in reg by structural key and concatenates each group.
//
// Parameters:
//   - reg: the mesh registry
//
// Returns:
//   - *BatchSet: the batch snapshot
func BuildBatches(reg Registry) *BatchSet {
	set := &BatchSet{
		generation: reg.Generation(),
		batches:    make(map[StructuralKey]*Batch),
		locations:  make(map[asset.ID]location),
	}

	groups := make(map[StructuralKey][]*GPUMesh)
	for _, id := range reg.IDs() {
		m, ok := reg.Get(id)
		if !ok {
			continue
		}
		groups[m.Key] = append(groups[m.Key], m)
	}

	for key, meshes := range groups {
		b := newBatch(key, meshes)
		set.batches[key] = b
		set.keys = append(set.keys, key)
		for i, id := range b.Meshes {
			set.locations[id] = location{key: key, position: uint32(i)}
		}
	}
	slices.SortFunc(set.keys, Compare)
	return set
}

// batcher is the implementation of the Batcher interface.
type batcher struct {
	mu      sync.Mutex
	current *BatchSet
}

// Batcher caches the mesh batches and rebuilds them only when the registry generation moves.
type Batcher interface {
	// Batches returns the mesh batches for reg, rebuilding them if reg changed since the previous call.
	// The same *BatchSet is returned while reg is unchanged.
	//
	// Parameters:
	//   - reg: the mesh registry
	//
	// Returns:
	//   - *BatchSet: the current batch snapshot
	Batches(reg Registry) *BatchSet
}

var _ Batcher = &batcher{}

// NewBatcher creates a Batcher with no cached batches.
//
// Returns:
//   - Batcher: the batcher
func NewBatcher() Batcher {
	return &batcher{}
}

func (b *batcher) Batches(reg Registry) *BatchSet {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil && b.current.generation == reg.Generation() {
		return b.current
	}
	b.current = BuildBatches(reg)
	return b.current
}
