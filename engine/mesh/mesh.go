// Package mesh tracks GPU-side mesh data and concatenates meshes sharing a structural key into mesh
// batches with one draw template per mesh.
package mesh

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Indices is the index array of a mesh. Exactly one of U16 or U32 is populated, matching Format.
type Indices struct {
	Format wgpu.IndexFormat
	U16    []uint16
	U32    []uint32
}

// U16 creates 16-bit indices.
//
// Parameters:
//   - indices: the index values
//
// Returns:
//   - *Indices: the index array
func U16(indices ...uint16) *Indices {
	return &Indices{Format: wgpu.IndexFormatUint16, U16: indices}
}

// U32 creates 32-bit indices.
//
// Parameters:
//   - indices: the index values
//
// Returns:
//   - *Indices: the index array
func U32(indices ...uint32) *Indices {
	return &Indices{Format: wgpu.IndexFormatUint32, U32: indices}
}

// Count returns the number of indices.
func (i *Indices) Count() uint32 {
	if i.Format == wgpu.IndexFormatUint16 {
		return uint32(len(i.U16))
	}
	return uint32(len(i.U32))
}

// mesh is the implementation of the Mesh interface.
type mesh struct {
	name     string
	topology wgpu.PrimitiveTopology
	layout   VertexLayout
	vertices []byte
	indices  *Indices
}

// Mesh is a CPU-side mesh asset: raw vertex bytes described by a vertex layout, an optional index array
// and a primitive topology. Meshes are handed to the Registry through asset events.
type Mesh interface {
	// Name returns the mesh's name, used in labels and logs.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// Topology returns the primitive topology the mesh is drawn with.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the topology
	Topology() wgpu.PrimitiveTopology

	// Layout returns the vertex layout describing Vertices.
	//
	// Returns:
	//   - VertexLayout: the layout
	Layout() VertexLayout

	// Vertices returns the raw vertex bytes.
	//
	// Returns:
	//   - []byte: the vertex data
	Vertices() []byte

	// VertexCount returns the number of vertices, len(Vertices) divided by the layout stride.
	//
	// Returns:
	//   - uint32: the vertex count
	VertexCount() uint32

	// Indices returns the index array, or nil for a non-indexed mesh.
	//
	// Returns:
	//   - *Indices: the indices or nil
	Indices() *Indices

	// Validate checks that the vertex bytes are a whole number of vertices and that all indices
	// address an existing vertex.
	//
	// Returns:
	//   - error: a description of the first problem found, nil if the mesh is well formed
	Validate() error
}

var _ Mesh = &mesh{}

// NewMesh creates a new Mesh. Topology defaults to triangle lists and the layout defaults to StandardLayout.
//
// Parameters:
//   - options: functional options to configure the mesh
//
// Returns:
//   - Mesh: the new mesh
func NewMesh(options ...MeshBuilderOption) Mesh {
	m := &mesh{
		topology: wgpu.PrimitiveTopologyTriangleList,
		layout:   StandardLayout(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Topology() wgpu.PrimitiveTopology {
	return m.topology
}

func (m *mesh) Layout() VertexLayout {
	return m.layout
}

func (m *mesh) Vertices() []byte {
	return m.vertices
}

func (m *mesh) VertexCount() uint32 {
	if m.layout.ArrayStride == 0 {
		return 0
	}
	return uint32(uint64(len(m.vertices)) / m.layout.ArrayStride)
}

func (m *mesh) Indices() *Indices {
	return m.indices
}

func (m *mesh) Validate() error {
	if m.layout.ArrayStride == 0 {
		return fmt.Errorf("mesh %q: vertex layout has zero stride", m.name)
	}
	if uint64(len(m.vertices))%m.layout.ArrayStride != 0 {
		return fmt.Errorf("mesh %q: %d vertex bytes is not a multiple of stride %d", m.name, len(m.vertices), m.layout.ArrayStride)
	}
	if m.indices == nil {
		return nil
	}

	count := m.VertexCount()
	switch m.indices.Format {
	case wgpu.IndexFormatUint16:
		if len(m.indices.U32) > 0 {
			return fmt.Errorf("mesh %q: 16-bit index format with 32-bit indices", m.name)
		}
		for i, v := range m.indices.U16 {
			if uint32(v) >= count {
				return fmt.Errorf("mesh %q: index %d references vertex %d of %d", m.name, i, v, count)
			}
		}
	case wgpu.IndexFormatUint32:
		if len(m.indices.U16) > 0 {
			return fmt.Errorf("mesh %q: 32-bit index format with 16-bit indices", m.name)
		}
		for i, v := range m.indices.U32 {
			if v >= count {
				return fmt.Errorf("mesh %q: index %d references vertex %d of %d", m.name, i, v, count)
			}
		}
	default:
		return fmt.Errorf("mesh %q: unsupported index format %d", m.name, uint32(m.indices.Format))
	}
	return nil
}
