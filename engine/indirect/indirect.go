// Package indirect turns a mesh batch's draw templates and a packed instance batch's per-mesh counts into
// indirect draw records, splitting them across instance buffers of fixed capacity when required.
package indirect

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-instancing/engine/mesh"
)

// Record is one finalized draw of a contiguous range of a single mesh's instances.
type Record struct {
	// Mesh is the mesh index inside the mesh batch.
	Mesh    uint32
	Indexed bool

	// Count is the index count for indexed meshes and the vertex count otherwise.
	Count uint32

	// First is the first index for indexed meshes and the first vertex otherwise.
	First uint32

	BaseVertex    int32
	InstanceCount uint32

	// FirstInstance is relative to the start of the instance buffer the record is drawn with.
	FirstInstance uint32
}

// MarshalTo writes the record's GPU arguments into buf, which must be at least Size() bytes.
//
// Parameters:
//   - buf: destination buffer
func (r Record) MarshalTo(buf []byte) {
	if r.Indexed {
		(&DrawIndexedIndirect{
			IndexCount:    r.Count,
			InstanceCount: r.InstanceCount,
			FirstIndex:    r.First,
			BaseVertex:    r.BaseVertex,
			FirstInstance: r.FirstInstance,
		}).MarshalTo(buf)
		return
	}
	(&DrawIndirect{
		VertexCount:   r.Count,
		InstanceCount: r.InstanceCount,
		FirstVertex:   r.First,
		FirstInstance: r.FirstInstance,
	}).MarshalTo(buf)
}

// Size returns the size of the record's GPU arguments.
func (r Record) Size() int {
	if r.Indexed {
		return DrawIndexedIndirectSize
	}
	return DrawIndirectSize
}

// Group holds the records drawn with one instance buffer.
type Group struct {
	// Buffer is the index of the instance buffer (uniform chunk) the records address. Always 0 for
	// unbounded storage backing.
	Buffer  int
	Records []Record
}

// RecordSize returns the stride between records in the group's indirect buffer.
//
// Returns:
//   - uint64: 20 for indexed groups, 16 otherwise
func (g *Group) RecordSize() uint64 {
	if len(g.Records) > 0 && g.Records[0].Indexed {
		return DrawIndexedIndirectSize
	}
	return DrawIndirectSize
}

// Bytes returns the indirect buffer contents of the group, record i at offset i*RecordSize().
//
// Returns:
//   - []byte: the marshalled records
func (g *Group) Bytes() []byte {
	size := int(g.RecordSize())
	buf := make([]byte, len(g.Records)*size)
	for i, r := range g.Records {
		r.MarshalTo(buf[i*size:])
	}
	return buf
}

// Indices returns the mesh index of every record in order.
//
// Returns:
//   - []uint32: the mesh indices
func (g *Group) Indices() []uint32 {
	out := make([]uint32, len(g.Records))
	for i, r := range g.Records {
		out[i] = r.Mesh
	}
	return out
}

// Instances returns the number of instances drawn by the group.
//
// Returns:
//   - uint32: the sum of the records' instance counts
func (g *Group) Instances() uint32 {
	var n uint32
	for _, r := range g.Records {
		n += r.InstanceCount
	}
	return n
}

// Build combines per-mesh draw templates with per-mesh instance counts and offsets into draw records in mesh
// order. Meshes without instances produce no record. With a non-zero capacity every instance buffer holds
// capacity instances, and a mesh whose range crosses a buffer boundary is split into one record per buffer
// with FirstInstance rebased to the buffer's start.
//
// Parameters:
//   - templates: the mesh batch's draw templates, indexed by mesh index
//   - counts: instances per mesh index
//   - offsets: the batch-global first instance per mesh index
//   - capacity: instances per buffer, 0 for a single unbounded buffer
//
// Returns:
//   - []Group: the record groups in buffer order, empty if no mesh has instances
func Build(templates []mesh.DrawTemplate, counts, offsets []uint32, capacity uint32) []Group {
	if len(counts) != len(templates) || len(offsets) != len(templates) {
		panic(fmt.Sprintf("indirect build: %d templates, %d counts, %d offsets", len(templates), len(counts), len(offsets)))
	}

	var groups []Group
	emit := func(buffer int, r Record) {
		if n := len(groups); n == 0 || groups[n-1].Buffer != buffer {
			groups = append(groups, Group{Buffer: buffer})
		}
		g := &groups[len(groups)-1]
		g.Records = append(g.Records, r)
	}

	for i, t := range templates {
		if counts[i] == 0 {
			continue
		}
		base := Record{
			Mesh:    uint32(i),
			Indexed: t.Indexed,
			Count:   t.Count(),
			First:   t.FirstVertex,
		}
		if t.Indexed {
			base.First = t.FirstIndex
		}

		if capacity == 0 {
			r := base
			r.InstanceCount = counts[i]
			r.FirstInstance = offsets[i]
			emit(0, r)
			continue
		}

		start, remaining := offsets[i], counts[i]
		for remaining > 0 {
			buffer := int(start / capacity)
			local := start % capacity
			n := min(remaining, capacity-local)
			r := base
			r.InstanceCount = n
			r.FirstInstance = local
			emit(buffer, r)
			start += n
			remaining -= n
		}
	}
	return groups
}
