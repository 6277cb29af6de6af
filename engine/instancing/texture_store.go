package instancing

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
)

// textureStore uploads decoded texture assets and answers readiness queries for material preparation.
type textureStore struct {
	mu       sync.RWMutex
	device   renderer.Device
	pending  []asset.Event[*common.TextureStagingData]
	textures map[asset.ID]renderer.Texture
}

var _ material.TextureLookup = &textureStore{}

func newTextureStore(device renderer.Device) *textureStore {
	return &textureStore{
		device:   device,
		textures: make(map[asset.ID]renderer.Texture),
	}
}

// queue records texture events to be applied by the next upload.
func (s *textureStore) queue(events []asset.Event[*common.TextureStagingData]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, events...)
}

// upload applies the queued events in order and reports whether any texture was created, replaced or
// dropped, along with the IDs of textures that were resident before and are absent now. A texture that
// fails to upload is logged and left absent.
func (s *textureStore) upload() (bool, []asset.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	var touched []asset.ID
	for _, ev := range s.pending {
		if old, ok := s.textures[ev.ID]; ok {
			old.Release()
			delete(s.textures, ev.ID)
			touched = append(touched, ev.ID)
			changed = true
		}
		if ev.Kind == asset.Removed {
			continue
		}
		if ev.Asset == nil {
			common.Logger().Warn("texture event without data", "texture", ev.ID, "kind", ev.Kind)
			continue
		}

		tex, err := s.device.CreateTexture(fmt.Sprintf("texture:%s", ev.ID), ev.Asset.Width, ev.Asset.Height, ev.Asset.Pixels, common.Coalesce(ev.Asset.Sampler, common.DefaultSampler()))
		if err != nil {
			common.Logger().Error("texture upload failed", "texture", ev.ID, "err", err)
			continue
		}
		s.textures[ev.ID] = tex
		changed = true
	}
	s.pending = s.pending[:0]

	var removed []asset.ID
	for _, id := range touched {
		if _, ok := s.textures[id]; !ok && !slices.Contains(removed, id) {
			removed = append(removed, id)
		}
	}
	return changed, removed
}

func (s *textureStore) TextureReady(id asset.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.textures[id]
	return ok
}

// texture returns the uploaded texture for id.
func (s *textureStore) texture(id asset.ID) (renderer.Texture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.textures[id]
	return t, ok
}

func (s *textureStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.textures)
}

func (s *textureStore) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.textures {
		t.Release()
	}
	clear(s.textures)
	s.pending = nil
}
