package mesh

import (
	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

// IndexData is either Indexed or NonIndexed.
type IndexData interface {
	// Count returns the number of elements a draw of this mesh covers: the index count for indexed meshes,
	// the vertex count otherwise.
	//
	// Returns:
	//   - uint32: the element count
	Count() uint32

	isIndexData()
}

// Indexed holds the index array of an indexed mesh. Exactly one of U16 or U32 is populated, matching Format.
type Indexed struct {
	Format     wgpu.IndexFormat
	U16        []uint16
	U32        []uint32
	IndexCount uint32
}

func (i Indexed) Count() uint32 { return i.IndexCount }
func (Indexed) isIndexData() {}

// NonIndexed marks a mesh drawn straight from its vertices.
type NonIndexed struct {
	VertexCount uint32
}

func (n NonIndexed) Count() uint32 { return n.VertexCount }
func (NonIndexed) isIndexData() {}

// GPUMesh is the registry's record for one mesh asset, holding the raw bytes ready for concatenation.
type GPUMesh struct {
	ID          asset.ID
	Key         StructuralKey
	Layout      VertexLayout
	Vertices    []byte
	VertexCount uint32
	Index       IndexData
}

// newGPUMesh builds the registry record for m.
func newGPUMesh(id asset.ID, m Mesh) *GPUMesh {
	layout := m.Layout()
	g := &GPUMesh{
		ID:          id,
		Layout:      layout,
		Vertices:    m.Vertices(),
		VertexCount: m.VertexCount(),
		Key: StructuralKey{
			Topology:    m.Topology(),
			Layout:      layout.Key(),
			IndexFormat: wgpu.IndexFormatUndefined,
		},
	}

	if idx := m.Indices(); idx != nil {
		g.Key.IndexFormat = idx.Format
		g.Index = Indexed{
			Format:     idx.Format,
			U16:        idx.U16,
			U32:        idx.U32,
			IndexCount: idx.Count(),
		}
	} else {
		g.Index = NonIndexed{VertexCount: g.VertexCount}
	}
	return g
}
