package mesh

import "github.com/cogentcore/webgpu/wgpu"

var white = [4]float32{1, 1, 1, 1}

// Cube returns an indexed unit cube centred on the origin with per-face normals.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - Mesh: the cube mesh with 24 vertices and 36 16-bit indices
func Cube(name string) Mesh {
	type face struct {
		normal [3]float32
		u, v   [3]float32
	}
	faces := []face{
		{normal: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
		{normal: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint16, 0, 36)
	for _, f := range faces {
		base := uint16(len(vertices))
		for _, c := range corners {
			var p [3]float32
			for i := range p {
				p[i] = 0.5 * (f.normal[i] + c[0]*f.u[i] + c[1]*f.v[i])
			}
			vertices = append(vertices, GPUVertex{
				Position: p,
				Normal:   f.normal,
				UV:       [2]float32{(c[0] + 1) / 2, 1 - (c[1]+1)/2},
				Color:    white,
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	return NewMesh(
		WithName(name),
		WithVertices(vertices),
		WithIndices(U16(indices...)),
	)
}

// Quad returns an indexed unit quad in the XY plane facing +Z.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - Mesh: the quad mesh with 4 vertices and 6 16-bit indices
func Quad(name string) Mesh {
	n := [3]float32{0, 0, 1}
	vertices := []GPUVertex{
		{Position: [3]float32{-0.5, -0.5, 0}, Normal: n, UV: [2]float32{0, 1}, Color: white},
		{Position: [3]float32{0.5, -0.5, 0}, Normal: n, UV: [2]float32{1, 1}, Color: white},
		{Position: [3]float32{0.5, 0.5, 0}, Normal: n, UV: [2]float32{1, 0}, Color: white},
		{Position: [3]float32{-0.5, 0.5, 0}, Normal: n, UV: [2]float32{0, 0}, Color: white},
	}
	return NewMesh(
		WithName(name),
		WithVertices(vertices),
		WithIndices(U16(0, 1, 2, 0, 2, 3)),
	)
}

// Triangle returns a non-indexed triangle in the XY plane facing +Z.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - Mesh: the triangle mesh with 3 vertices and no indices
func Triangle(name string) Mesh {
	n := [3]float32{0, 0, 1}
	vertices := []GPUVertex{
		{Position: [3]float32{-0.5, -0.5, 0}, Normal: n, UV: [2]float32{0, 1}, Color: white},
		{Position: [3]float32{0.5, -0.5, 0}, Normal: n, UV: [2]float32{1, 1}, Color: white},
		{Position: [3]float32{0, 0.5, 0}, Normal: n, UV: [2]float32{0.5, 0}, Color: white},
	}
	return NewMesh(
		WithName(name),
		WithTopology(wgpu.PrimitiveTopologyTriangleList),
		WithVertices(vertices),
	)
}
