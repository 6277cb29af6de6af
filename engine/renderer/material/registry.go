package material

import (
	"errors"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
)

// registry is the implementation of the Registry interface.
type registry struct {
	mu sync.RWMutex

	// queued holds materials created or modified since the last Prepare.
	queued map[asset.ID]Material
	// retry holds materials whose last preparation returned ErrNotReady.
	retry map[asset.ID]Material
	// prepared holds the frame-ready materials.
	prepared map[asset.ID]*Prepared
	// sources holds the material each prepared entry was built from, for re-preparation.
	sources map[asset.ID]Material
	// batches maps each batch key to the prepared material with the lowest ID under it.
	batches map[BatchKey]*Prepared

	generation uint64
}

// Registry tracks live materials and their prepared forms. Apply and Prepare run during the update phase;
// Lookup may be called concurrently afterwards.
type Registry interface {
	// Apply records material asset events. Created and Modified materials are queued for preparation;
	// a modified material keeps its previous prepared form until the new one prepares. Removed materials
	// are dropped from the prepared, queued and retry sets.
	//
	// Parameters:
	//   - events: the material events for this frame
	//
	// Returns:
	//   - bool: true if the prepared set changed
	Apply(events []asset.Event[Material]) bool

	// Prepare attempts every queued and retrying material. Materials that are not ready are kept for the
	// next call; other failures are logged and the material is dropped until it is modified again.
	//
	// Parameters:
	//   - textures: the texture readiness lookup
	//
	// Returns:
	//   - bool: true if the prepared set changed
	Prepare(textures TextureLookup) bool

	// InvalidateTextures moves every prepared material sampling one of textures back to the retry set,
	// so its instances are left out of batches until the texture is resident again.
	//
	// Parameters:
	//   - textures: the IDs of textures that are no longer resident
	//
	// Returns:
	//   - bool: true if the prepared set changed
	InvalidateTextures(textures []asset.ID) bool

	// Lookup returns the prepared material for id.
	//
	// Parameters:
	//   - id: the material asset ID
	//
	// Returns:
	//   - *Prepared: the prepared material, nil if absent
	//   - bool: whether the material is prepared
	Lookup(id asset.ID) (*Prepared, bool)

	// Batch returns the material whose bind group represents every material under key: the prepared
	// material with the lowest ID sharing that key.
	//
	// Parameters:
	//   - key: the material batch key
	//
	// Returns:
	//   - *Prepared: the representative material, nil if no prepared material has the key
	//   - bool: whether the key has any prepared material
	Batch(key BatchKey) (*Prepared, bool)

	// Pending returns the IDs waiting on a retry, ascending.
	//
	// Returns:
	//   - []asset.ID: the retrying material IDs
	Pending() []asset.ID

	// Len returns the number of prepared materials.
	//
	// Returns:
	//   - int: the prepared count
	Len() int

	// Generation returns a counter that increases every time the prepared set changes.
	//
	// Returns:
	//   - uint64: the generation
	Generation() uint64
}

var _ Registry = &registry{}

// NewRegistry creates an empty material Registry.
//
// Returns:
//   - Registry: the registry
func NewRegistry() Registry {
	return &registry{
		queued:   make(map[asset.ID]Material),
		retry:    make(map[asset.ID]Material),
		prepared: make(map[asset.ID]*Prepared),
		sources:  make(map[asset.ID]Material),
		batches:  make(map[BatchKey]*Prepared),
	}
}

func (r *registry) Apply(events []asset.Event[Material]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for _, ev := range events {
		switch ev.Kind {
		case asset.Created, asset.Modified:
			if ev.Asset == nil {
				common.Logger().Warn("material event without asset", "material", ev.ID, "kind", ev.Kind)
				continue
			}
			delete(r.retry, ev.ID)
			r.queued[ev.ID] = ev.Asset
		case asset.Removed:
			delete(r.queued, ev.ID)
			delete(r.retry, ev.ID)
			delete(r.sources, ev.ID)
			if _, ok := r.prepared[ev.ID]; ok {
				delete(r.prepared, ev.ID)
				changed = true
			}
		}
	}

	if changed {
		r.rebuildBatches()
	}
	return changed
}

func (r *registry) Prepare(textures TextureLookup) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queued) == 0 && len(r.retry) == 0 {
		return false
	}

	work := make(map[asset.ID]Material, len(r.queued)+len(r.retry))
	for id, m := range r.retry {
		work[id] = m
	}
	for id, m := range r.queued {
		work[id] = m
	}
	clear(r.queued)
	clear(r.retry)

	ids := make([]asset.ID, 0, len(work))
	for id := range work {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, asset.Compare)

	changed := false
	for _, id := range ids {
		m := work[id]
		p, err := m.Prepare(textures)
		switch {
		case err == nil:
			p.ID = id
			r.prepared[id] = p
			r.sources[id] = m
			changed = true
		case errors.Is(err, common.ErrNotReady):
			common.Logger().Debug("material not ready, retrying next update", "material", id, "name", m.Name(), "err", err)
			r.retry[id] = m
		default:
			common.Logger().Error("material preparation failed", "material", id, "name", m.Name(), "err", err)
		}
	}

	if changed {
		r.rebuildBatches()
	}
	return changed
}

func (r *registry) InvalidateTextures(textures []asset.ID) bool {
	if len(textures) == 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for id, p := range r.prepared {
		if !slices.ContainsFunc(p.BindGroup.Textures, func(t asset.ID) bool { return slices.Contains(textures, t) }) {
			continue
		}
		delete(r.prepared, id)
		_, queued := r.queued[id]
		_, retrying := r.retry[id]
		if !queued && !retrying {
			r.retry[id] = r.sources[id]
		}
		delete(r.sources, id)
		changed = true
		common.Logger().Debug("material texture unloaded, retrying next update", "material", id, "name", p.Name)
	}

	if changed {
		r.rebuildBatches()
	}
	return changed
}

// rebuildBatches recomputes the batch representatives and advances the generation. Callers hold mu.
func (r *registry) rebuildBatches() {
	clear(r.batches)
	for id, p := range r.prepared {
		if cur, ok := r.batches[p.Key]; !ok || asset.Less(id, cur.ID) {
			r.batches[p.Key] = p
		}
	}
	r.generation++
}

func (r *registry) Lookup(id asset.ID) (*Prepared, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prepared[id]
	return p, ok
}

func (r *registry) Batch(key BatchKey) (*Prepared, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.batches[key]
	return p, ok
}

func (r *registry) Pending() []asset.ID {
	r.mu.RLock()
	ids := make([]asset.ID, 0, len(r.retry))
	for id := range r.retry {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.SortFunc(ids, asset.Compare)
	return ids
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prepared)
}

func (r *registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}
