package mesh

import "github.com/cogentcore/webgpu/wgpu"

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*mesh)

// WithName sets the name of the Mesh.
//
// Parameters:
//   - name: the mesh identifier
//
// Returns:
//   - MeshBuilderOption: a function that applies the name option to a mesh
func WithName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithTopology sets the primitive topology of the Mesh.
//
// Parameters:
//   - topology: the primitive topology
//
// Returns:
//   - MeshBuilderOption: a function that applies the topology option to a mesh
func WithTopology(topology wgpu.PrimitiveTopology) MeshBuilderOption {
	return func(m *mesh) {
		m.topology = topology
	}
}

// WithLayout sets the vertex layout of the Mesh.
//
// Parameters:
//   - layout: the vertex layout
//
// Returns:
//   - MeshBuilderOption: a function that applies the layout option to a mesh
func WithLayout(layout VertexLayout) MeshBuilderOption {
	return func(m *mesh) {
		m.layout = layout
	}
}

// WithVertexBytes sets the raw vertex data of the Mesh. The bytes must match the mesh's layout.
//
// Parameters:
//   - data: the vertex bytes
//
// Returns:
//   - MeshBuilderOption: a function that applies the vertex data option to a mesh
func WithVertexBytes(data []byte) MeshBuilderOption {
	return func(m *mesh) {
		m.vertices = data
	}
}

// WithVertices encodes standard vertices as the Mesh's vertex data and sets the standard layout.
//
// Parameters:
//   - vertices: the vertices to encode
//
// Returns:
//   - MeshBuilderOption: a function that applies the vertices option to a mesh
func WithVertices(vertices []GPUVertex) MeshBuilderOption {
	return func(m *mesh) {
		m.layout = StandardLayout()
		m.vertices = MarshalVertices(vertices)
	}
}

// WithIndices sets the index array of the Mesh.
//
// Parameters:
//   - indices: the indices, created with U16 or U32
//
// Returns:
//   - MeshBuilderOption: a function that applies the indices option to a mesh
func WithIndices(indices *Indices) MeshBuilderOption {
	return func(m *mesh) {
		m.indices = indices
	}
}
