// Package instance collects per-view instance records into batches keyed by mesh structure and material,
// orders them for drawing, and packs them into GPU instance buffers.
package instance

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/Carmen-Shannon/oxy-instancing/engine/mesh"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// Entity identifies a host entity that owns an instance or an instance slice.
type Entity uint64

// Instance is one drawable occurrence of a mesh with a material. Instances are rebuilt by the host every frame.
type Instance struct {
	Entity    Entity
	Mesh      asset.ID
	Material  asset.ID
	Transform mgl32.Mat4
	// Extension holds the material-specific per-instance bytes, e.g. material.ColorExtension.
	Extension []byte
}

// Slice reserves Count zero-filled instance slots for a mesh and material, to be populated on the GPU.
type Slice struct {
	Entity   Entity
	Mesh     asset.ID
	Material asset.ID
	Count    uint32
}

// SliceRange reports where a Slice's slots ended up inside its batch. Offset counts instances from the
// start of the batch.
type SliceRange struct {
	Entity Entity
	Key    BatchKey
	Offset uint32
	Count  uint32
}

// View is what the collector needs from a rendered view.
type View interface {
	// Distance returns the signed distance of model's origin along the view's forward axis, positive in front.
	//
	// Parameters:
	//   - model: the world-from-model transform
	//
	// Returns:
	//   - float32: the distance
	Distance(model mgl32.Mat4) float32

	// Visible reports whether the host's visibility pass kept entity e for this view.
	//
	// Parameters:
	//   - e: the entity
	//
	// Returns:
	//   - bool: true if visible
	Visible(e Entity) bool
}

// MeshLocator resolves a mesh ID to its mesh batch. *mesh.BatchSet implements it.
type MeshLocator interface {
	Locate(id asset.ID) (mesh.StructuralKey, uint32, bool)
}

// MaterialLookup resolves a material ID to its prepared form. material.Registry implements it.
type MaterialLookup interface {
	Lookup(id asset.ID) (*material.Prepared, bool)
}

// BatchKey identifies an instance batch: every instance sharing it lives in one instance buffer set.
type BatchKey struct {
	Mesh     mesh.StructuralKey
	Material material.BatchKey
}

// String returns a compact human-readable form of the key for logs.
func (k BatchKey) String() string {
	return fmt.Sprintf("{%s} {%s}", k.Mesh, k.Material)
}

// Compare orders batch keys by mesh structural key, then material batch key.
//
// Parameters:
//   - a: the first key
//   - b: the second key
//
// Returns:
//   - int: -1, 0 or +1
func Compare(a, b BatchKey) int {
	if c := mesh.Compare(a.Mesh, b.Mesh); c != 0 {
		return c
	}
	return material.Compare(a.Material, b.Material)
}
