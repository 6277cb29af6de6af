package mesh

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// VertexLayout describes how one vertex is laid out in a vertex buffer.
type VertexLayout struct {
	// ArrayStride is the size of one vertex in bytes.
	ArrayStride uint64
	// Attributes lists the vertex attributes with their formats, byte offsets and shader locations.
	Attributes []wgpu.VertexAttribute
}

// Key returns a canonical string for the layout. Two layouts with equal keys have identical strides
// and attribute offsets, formats and shader locations.
//
// Returns:
//   - string: the canonical layout key
func (l VertexLayout) Key() string {
	attrs := slices.Clone(l.Attributes)
	slices.SortFunc(attrs, func(a, b wgpu.VertexAttribute) int {
		return cmp.Compare(a.ShaderLocation, b.ShaderLocation)
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d", l.ArrayStride)
	for _, a := range attrs {
		fmt.Fprintf(&sb, "|%d:%d@%d", a.ShaderLocation, uint32(a.Format), a.Offset)
	}
	return sb.String()
}

// Attribute returns the attribute bound to the given shader location.
//
// Parameters:
//   - location: the shader location to look up
//
// Returns:
//   - wgpu.VertexAttribute: the attribute, zero if absent
//   - bool: whether the attribute exists
func (l VertexLayout) Attribute(location uint32) (wgpu.VertexAttribute, bool) {
	for _, a := range l.Attributes {
		if a.ShaderLocation == location {
			return a, true
		}
	}
	return wgpu.VertexAttribute{}, false
}

// WGPU converts the layout to a per-vertex wgpu.VertexBufferLayout for pipeline creation.
//
// Returns:
//   - wgpu.VertexBufferLayout: the buffer layout
func (l VertexLayout) WGPU() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: l.ArrayStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  slices.Clone(l.Attributes),
	}
}

// StructuralKey groups meshes whose vertex and index bytes can be concatenated into one buffer pair
// and drawn with one pipeline. Non-indexed meshes carry wgpu.IndexFormatUndefined.
type StructuralKey struct {
	Topology    wgpu.PrimitiveTopology
	Layout      string
	IndexFormat wgpu.IndexFormat
}

// Indexed reports whether meshes under this key use an index buffer.
func (k StructuralKey) Indexed() bool {
	return k.IndexFormat != wgpu.IndexFormatUndefined
}

// String returns a compact human-readable form of the key for logs.
func (k StructuralKey) String() string {
	return fmt.Sprintf("topology=%d layout=%s index=%d", uint32(k.Topology), k.Layout, uint32(k.IndexFormat))
}

// Compare orders structural keys by topology, then layout, then index format.
//
// Parameters:
//   - a: the first key
//   - b: the second key
//
// Returns:
//   - int: -1, 0 or +1
func Compare(a, b StructuralKey) int {
	if c := cmp.Compare(a.Topology, b.Topology); c != 0 {
		return c
	}
	if c := strings.Compare(a.Layout, b.Layout); c != 0 {
		return c
	}
	return cmp.Compare(a.IndexFormat, b.IndexFormat)
}
