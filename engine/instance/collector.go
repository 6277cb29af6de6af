package instance

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/btree"
)

// btreeDegree is the fan-out of the ordered batch index.
const btreeDegree = 8

// Entry is one collected instance with its resolved mesh index and sort distance.
type Entry struct {
	Entity    Entity
	Mesh      uint32
	Material  asset.ID
	Distance  float32
	Transform mgl32.Mat4
	Extension []byte
}

// SliceEntry is one collected instance slice with its resolved mesh index.
type SliceEntry struct {
	Entity Entity
	Mesh   uint32
	Count  uint32
}

// Group is the ordered content of one instance batch for one view.
type Group struct {
	Key   BatchKey
	Alpha material.AlphaMode

	// ExtensionStride is the material extension size shared by every instance in the group.
	ExtensionStride uint32

	// Entries are sorted by mesh index, then by distance (ascending, or descending for blend), then entity.
	Entries []Entry

	// Slices are sorted by mesh index, then entity.
	Slices []SliceEntry

	// Near and Far are the smallest and largest entry distances, zero if the group only holds slices.
	Near, Far float32
}

// Distance returns the representative distance of the group for render phase sorting: the nearest
// entry for opaque and mask groups, the farthest for blend groups.
func (g *Group) Distance() float32 {
	if g.Alpha.BackToFront() {
		return g.Far
	}
	return g.Near
}

func lessGroup(a, b *Group) bool {
	return Compare(a.Key, b.Key) < 0
}

// Collection holds a view's groups in ascending batch key order.
type Collection struct {
	groups  *btree.BTreeG[*Group]
	dropped int
}

// Groups returns the groups in ascending batch key order.
//
// Returns:
//   - []*Group: the groups
func (c *Collection) Groups() []*Group {
	out := make([]*Group, 0, c.groups.Len())
	c.groups.Ascend(func(g *Group) bool {
		out = append(out, g)
		return true
	})
	return out
}

// Group returns the group for key.
//
// Parameters:
//   - key: the batch key
//
// Returns:
//   - *Group: the group, nil if absent
//   - bool: whether the group exists
func (c *Collection) Group(key BatchKey) (*Group, bool) {
	return c.groups.Get(&Group{Key: key})
}

// Len returns the number of groups.
func (c *Collection) Len() int {
	return c.groups.Len()
}

// Dropped returns how many visible instances and slices were skipped because their mesh or material was unknown.
func (c *Collection) Dropped() int {
	return c.dropped
}

func (c *Collection) group(key BatchKey, p *material.Prepared) *Group {
	if g, ok := c.groups.Get(&Group{Key: key}); ok {
		return g
	}
	g := &Group{Key: key, Alpha: key.Material.Alpha, ExtensionStride: p.ExtensionStride}
	c.groups.ReplaceOrInsert(g)
	return g
}

// Collect gathers the visible instances and slices of a view into batches and sorts each batch.
// Instances whose mesh or material cannot be resolved are skipped without error.
//
// Parameters:
//   - v: the view the batches are built for
//   - instances: the frame's instances
//   - reserved: the frame's instance slices
//   - meshes: the mesh batch locator
//   - materials: the prepared material lookup
//
// Returns:
//   - *Collection: the sorted batches
func Collect(v View, instances []Instance, reserved []Slice, meshes MeshLocator, materials MaterialLookup) *Collection {
	c := &Collection{groups: btree.NewG(btreeDegree, lessGroup)}

	for i := range instances {
		inst := &instances[i]
		if !v.Visible(inst.Entity) {
			continue
		}
		meshKey, meshIndex, ok := meshes.Locate(inst.Mesh)
		if !ok {
			c.dropped++
			continue
		}
		p, ok := materials.Lookup(inst.Material)
		if !ok {
			c.dropped++
			continue
		}

		g := c.group(BatchKey{Mesh: meshKey, Material: p.Key}, p)
		g.Entries = append(g.Entries, Entry{
			Entity:    inst.Entity,
			Mesh:      meshIndex,
			Material:  inst.Material,
			Distance:  v.Distance(inst.Transform) + p.DepthBias,
			Transform: inst.Transform,
			Extension: inst.Extension,
		})
	}

	for _, s := range reserved {
		if s.Count == 0 || !v.Visible(s.Entity) {
			continue
		}
		meshKey, meshIndex, ok := meshes.Locate(s.Mesh)
		if !ok {
			c.dropped++
			continue
		}
		p, ok := materials.Lookup(s.Material)
		if !ok {
			c.dropped++
			continue
		}
		g := c.group(BatchKey{Mesh: meshKey, Material: p.Key}, p)
		g.Slices = append(g.Slices, SliceEntry{Entity: s.Entity, Mesh: meshIndex, Count: s.Count})
	}

	if c.dropped > 0 {
		common.Logger().Debug("instances skipped, mesh or material not prepared", "count", c.dropped)
	}

	c.groups.Ascend(func(g *Group) bool {
		sortGroup(g)
		return true
	})
	return c
}

// sortGroup orders a group's entries and slices and records its distance range.
func sortGroup(g *Group) {
	backToFront := g.Alpha.BackToFront()
	slices.SortFunc(g.Entries, func(a, b Entry) int {
		if c := cmp.Compare(a.Mesh, b.Mesh); c != 0 {
			return c
		}
		da, db := a.Distance, b.Distance
		if backToFront {
			da, db = -da, -db
		}
		if c := cmp.Compare(da, db); c != 0 {
			return c
		}
		return cmp.Compare(a.Entity, b.Entity)
	})
	slices.SortFunc(g.Slices, func(a, b SliceEntry) int {
		if c := cmp.Compare(a.Mesh, b.Mesh); c != 0 {
			return c
		}
		return cmp.Compare(a.Entity, b.Entity)
	})

	for i, e := range g.Entries {
		if i == 0 || e.Distance < g.Near {
			g.Near = e.Distance
		}
		if i == 0 || e.Distance > g.Far {
			g.Far = e.Distance
		}
	}
}
