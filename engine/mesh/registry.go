package mesh

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
)

// registry is the implementation of the Registry interface.
type registry struct {
	mu         sync.RWMutex
	meshes     map[asset.ID]*GPUMesh
	generation uint64
}

// Registry owns the GPU mesh records, keyed by mesh asset ID. It is written only during the update phase
// and may be read concurrently afterwards.
type Registry interface {
	// Apply processes mesh asset events in order. Created and Modified events (re)build the record,
	// Removed events drop it. A Modified event for an unknown mesh creates it; removing an unknown mesh
	// is a no-op. Meshes that fail validation are logged and skipped, and a failed modification removes
	// the stale record.
	//
	// Parameters:
	//   - events: the mesh events for this frame
	//
	// Returns:
	//   - bool: true if any record changed
	Apply(events []asset.Event[Mesh]) bool

	// Get returns the record for id.
	//
	// Parameters:
	//   - id: the mesh asset ID
	//
	// Returns:
	//   - *GPUMesh: the record, nil if absent
	//   - bool: whether the mesh is registered
	Get(id asset.ID) (*GPUMesh, bool)

	// IDs returns all registered mesh IDs in ascending order.
	//
	// Returns:
	//   - []asset.ID: the sorted IDs
	IDs() []asset.ID

	// Len returns the number of registered meshes.
	//
	// Returns:
	//   - int: the mesh count
	Len() int

	// Generation returns a counter that increases every time Apply changes the registry.
	//
	// Returns:
	//   - uint64: the generation
	Generation() uint64
}

var _ Registry = &registry{}

// NewRegistry creates an empty mesh Registry.
//
// Returns:
//   - Registry: the registry
func NewRegistry() Registry {
	return &registry{
		meshes: make(map[asset.ID]*GPUMesh),
	}
}

func (r *registry) Apply(events []asset.Event[Mesh]) bool {
	if len(events) == 0 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for _, ev := range events {
		switch ev.Kind {
		case asset.Created, asset.Modified:
			if ev.Asset == nil {
				common.Logger().Warn("mesh event without asset", "mesh", ev.ID, "kind", ev.Kind)
				continue
			}
			if err := ev.Asset.Validate(); err != nil {
				common.Logger().Error("skipping invalid mesh", "mesh", ev.ID, "err", err)
				if _, ok := r.meshes[ev.ID]; ok {
					delete(r.meshes, ev.ID)
					changed = true
				}
				continue
			}
			r.meshes[ev.ID] = newGPUMesh(ev.ID, ev.Asset)
			changed = true
		case asset.Removed:
			if _, ok := r.meshes[ev.ID]; ok {
				delete(r.meshes, ev.ID)
				changed = true
			}
		}
	}

	if changed {
		r.generation++
	}
	return changed
}

func (r *registry) Get(id asset.ID) (*GPUMesh, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.meshes[id]
	return m, ok
}

func (r *registry) IDs() []asset.ID {
	r.mu.RLock()
	ids := make([]asset.ID, 0, len(r.meshes))
	for id := range r.meshes {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.SortFunc(ids, asset.Compare)
	return ids
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.meshes)
}

func (r *registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}
