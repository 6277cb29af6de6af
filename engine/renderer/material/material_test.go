package material

import (
	"errors"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

type textureSet map[asset.ID]bool

func (s textureSet) TextureReady(id asset.ID) bool {
	return s[id]
}

func TestBatchKeyOrdering(t *testing.T) {
	tex := asset.NamedID("tex")
	keys := []BatchKey{
		{Alpha: AlphaBlend, Discriminator: Discriminator{Kind: KindBasic}},
		{Alpha: AlphaOpaque, Discriminator: Discriminator{Kind: KindTexture, Texture: tex}},
		{Alpha: AlphaMask, Discriminator: Discriminator{Kind: KindCustom}},
		{Alpha: AlphaOpaque, Discriminator: Discriminator{Kind: KindCustom, CullMode: wgpu.CullModeBack}},
		{Alpha: AlphaOpaque, Discriminator: Discriminator{Kind: KindCustom, CullMode: wgpu.CullModeNone}},
	}
	slices.SortFunc(keys, Compare)

	wantAlpha := []AlphaMode{AlphaOpaque, AlphaOpaque, AlphaOpaque, AlphaMask, AlphaBlend}
	for i, k := range keys {
		if k.Alpha != wantAlpha[i] {
			t.Errorf("keys[%d].Alpha = %v, want %v", i, k.Alpha, wantAlpha[i])
		}
	}
	if keys[2].Kind != KindTexture {
		t.Errorf("keys[2].Kind = %v, want texture after custom", keys[2].Kind)
	}
	if Compare(keys[0], keys[0]) != 0 {
		t.Errorf("Compare(k, k) != 0")
	}
}

func TestVariantKeys(t *testing.T) {
	texA, texB := asset.NamedID("a"), asset.NamedID("b")
	tests := []struct {
		name     string
		mat      Material
		wantKind Kind
		wantDefs []string
		stride   uint32
	}{
		{"basic", NewBasicMaterial(WithAlphaMode(AlphaBlend)), KindBasic, nil, 0},
		{"custom mask", NewCustomMaterial(WithAlphaMode(AlphaMask)), KindCustom, []string{DefAlphaMask}, 0},
		{"texture blend", NewTextureMaterial(texA, WithAlphaMode(AlphaBlend)), KindTexture, []string{DefAlphaBlend, DefBaseTexture}, 0},
		{"color", NewColorMaterial(), KindColor, []string{DefInstanceColor}, ColorExtensionStride},
	}
	ready := textureSet{texA: true}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.mat.Prepare(ready)
			if err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}
			if p.Key.Kind != tt.wantKind {
				t.Errorf("Key.Kind = %v, want %v", p.Key.Kind, tt.wantKind)
			}
			if !slices.Equal(p.Shader.Defs, tt.wantDefs) {
				t.Errorf("Shader.Defs = %v, want %v", p.Shader.Defs, tt.wantDefs)
			}
			if p.ExtensionStride != tt.stride {
				t.Errorf("ExtensionStride = %d, want %d", p.ExtensionStride, tt.stride)
			}
			if len(p.BindGroup.Uniform) != 32 {
				t.Errorf("len(BindGroup.Uniform) = %d, want 32", len(p.BindGroup.Uniform))
			}
		})
	}

	if NewBasicMaterial(WithAlphaMode(AlphaBlend)).AlphaMode() != AlphaOpaque {
		t.Errorf("basic material honoured a non-opaque alpha mode")
	}

	a := NewTextureMaterial(texA).BatchDiscriminator()
	b := NewTextureMaterial(texB).BatchDiscriminator()
	if a == b {
		t.Errorf("texture materials with different textures share a discriminator")
	}
	front := NewCustomMaterial(WithCullMode(wgpu.CullModeFront)).BatchDiscriminator()
	back := NewCustomMaterial(WithCullMode(wgpu.CullModeBack)).BatchDiscriminator()
	if front == back {
		t.Errorf("custom materials with different cull modes share a discriminator")
	}
}

func TestTextureMaterialNotReady(t *testing.T) {
	tex := asset.NamedID("tex")
	_, err := NewTextureMaterial(tex).Prepare(textureSet{})
	if !errors.Is(err, common.ErrNotReady) {
		t.Errorf("Prepare() error = %v, want ErrNotReady", err)
	}
	if _, err := NewTextureMaterial(tex).Prepare(nil); !errors.Is(err, common.ErrNotReady) {
		t.Errorf("Prepare(nil) error = %v, want ErrNotReady", err)
	}
}

func TestRegistryRetriesUntilReady(t *testing.T) {
	tex := asset.NamedID("tex")
	id := asset.NamedID("textured")
	textures := textureSet{}

	reg := NewRegistry()
	reg.Apply([]asset.Event[Material]{asset.CreatedEvent(id, NewTextureMaterial(tex))})

	for frame := 0; frame < 3; frame++ {
		reg.Prepare(textures)
		if _, ok := reg.Lookup(id); ok {
			t.Fatalf("frame %d: material prepared before its texture loaded", frame)
		}
		if pending := reg.Pending(); len(pending) != 1 || pending[0] != id {
			t.Fatalf("frame %d: Pending() = %v, want [%v]", frame, pending, id)
		}
	}

	textures[tex] = true
	if !reg.Prepare(textures) {
		t.Errorf("Prepare() after texture load reported no change")
	}
	p, ok := reg.Lookup(id)
	if !ok {
		t.Fatalf("material not prepared after texture loaded")
	}
	if p.ID != id {
		t.Errorf("Prepared.ID = %v, want %v", p.ID, id)
	}
	if len(reg.Pending()) != 0 {
		t.Errorf("Pending() = %v, want empty", reg.Pending())
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
	if reg.Prepare(textures) {
		t.Errorf("Prepare() with nothing queued reported a change")
	}
}

func TestRegistryModifyKeepsPreviousUntilReady(t *testing.T) {
	id := asset.NamedID("m")
	tex := asset.NamedID("late")
	reg := NewRegistry()
	reg.Apply([]asset.Event[Material]{asset.CreatedEvent(id, NewCustomMaterial(WithName("first")))})
	reg.Prepare(nil)

	reg.Apply([]asset.Event[Material]{asset.ModifiedEvent(id, NewTextureMaterial(tex, WithName("second")))})
	reg.Prepare(textureSet{})
	p, ok := reg.Lookup(id)
	if !ok || p.Name != "first" {
		t.Fatalf("Lookup() after unready modify = %v, %v; want previous preparation", p, ok)
	}

	reg.Prepare(textureSet{tex: true})
	if p, _ := reg.Lookup(id); p.Name != "second" {
		t.Errorf("Lookup().Name = %q, want second", p.Name)
	}
}

func TestRegistryRemove(t *testing.T) {
	ready, waiting := asset.NamedID("ready"), asset.NamedID("waiting")
	reg := NewRegistry()
	reg.Apply([]asset.Event[Material]{
		asset.CreatedEvent(ready, NewBasicMaterial()),
		asset.CreatedEvent(waiting, NewTextureMaterial(asset.NamedID("tex"))),
	})
	reg.Prepare(textureSet{})
	gen := reg.Generation()

	if !reg.Apply([]asset.Event[Material]{asset.RemovedEvent[Material](ready), asset.RemovedEvent[Material](waiting)}) {
		t.Errorf("Apply(remove) reported no change")
	}
	if reg.Generation() == gen {
		t.Errorf("Generation() did not advance on removal")
	}
	if _, ok := reg.Lookup(ready); ok {
		t.Errorf("removed material still prepared")
	}
	if len(reg.Pending()) != 0 {
		t.Errorf("removed material still pending: %v", reg.Pending())
	}
}

func TestColorExtension(t *testing.T) {
	ext := ColorExtension([4]float32{1, 0, 0, 1})
	if len(ext) != ColorExtensionStride {
		t.Fatalf("len(ColorExtension()) = %d, want %d", len(ext), ColorExtensionStride)
	}
	if ext[3] != 0x3f || ext[2] != 0x80 {
		t.Errorf("ColorExtension() red channel bytes = %x, want 1.0f", ext[0:4])
	}
}

func TestRegistryBatchRepresentative(t *testing.T) {
	ids := []asset.ID{asset.NamedID("one"), asset.NamedID("two"), asset.NamedID("three")}
	reg := NewRegistry()
	var events []asset.Event[Material]
	for _, id := range ids {
		events = append(events, asset.CreatedEvent(id, NewCustomMaterial(WithName(id.String()), WithBaseColor([4]float32{0.2, 0.4, 0.6, 1}))))
	}
	reg.Apply(events)
	reg.Prepare(nil)

	lowest := slices.MinFunc(ids, asset.Compare)
	p, _ := reg.Lookup(lowest)
	for _, id := range ids {
		if q, _ := reg.Lookup(id); q.Key != p.Key {
			t.Fatalf("materials with identical uniforms have keys %s and %s", q.Key, p.Key)
		}
	}
	rep, ok := reg.Batch(p.Key)
	if !ok || rep.ID != lowest {
		t.Fatalf("Batch() = %v, %v; want material %v", rep, ok, lowest)
	}

	reg.Apply([]asset.Event[Material]{asset.RemovedEvent[Material](lowest)})
	rep, ok = reg.Batch(p.Key)
	if !ok || rep.ID == lowest {
		t.Errorf("Batch() still returns the removed material")
	}
}

func TestRegistryUniformSeparatesBatches(t *testing.T) {
	tests := []struct {
		name string
		a, b Material
	}{
		{"base color", NewCustomMaterial(WithBaseColor([4]float32{1, 0, 0, 1})), NewCustomMaterial(WithBaseColor([4]float32{0, 0, 1, 1}))},
		{"alpha cutoff", NewCustomMaterial(WithAlphaMode(AlphaMask), WithAlphaCutoff(0.25)), NewCustomMaterial(WithAlphaMode(AlphaMask), WithAlphaCutoff(0.75))},
		{"basic color", NewBasicMaterial(WithBaseColor([4]float32{1, 0, 0, 1})), NewBasicMaterial(WithBaseColor([4]float32{0, 1, 0, 1}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idA, idB := asset.NamedID("a"), asset.NamedID("b")
			reg := NewRegistry()
			reg.Apply([]asset.Event[Material]{asset.CreatedEvent(idA, tt.a), asset.CreatedEvent(idB, tt.b)})
			reg.Prepare(nil)

			pa, _ := reg.Lookup(idA)
			pb, _ := reg.Lookup(idB)
			if pa.Key == pb.Key || Compare(pa.Key, pb.Key) == 0 {
				t.Fatalf("materials with different uniforms share key %s", pa.Key)
			}
			for _, p := range []*Prepared{pa, pb} {
				rep, ok := reg.Batch(p.Key)
				if !ok || rep.ID != p.ID {
					t.Errorf("Batch(%s) = %v, %v; want material %v", p.Key, rep, ok, p.ID)
				}
			}
		})
	}
}

func TestRegistryInvalidateTextures(t *testing.T) {
	tex, other := asset.NamedID("tex"), asset.NamedID("other")
	textured, plain := asset.NamedID("textured"), asset.NamedID("plain")
	reg := NewRegistry()
	reg.Apply([]asset.Event[Material]{
		asset.CreatedEvent(textured, NewTextureMaterial(tex)),
		asset.CreatedEvent(plain, NewCustomMaterial()),
	})
	reg.Prepare(textureSet{tex: true})
	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}

	if reg.InvalidateTextures([]asset.ID{other}) {
		t.Errorf("InvalidateTextures() of an unused texture reported a change")
	}
	gen := reg.Generation()
	if !reg.InvalidateTextures([]asset.ID{tex}) {
		t.Fatalf("InvalidateTextures() reported no change")
	}
	if reg.Generation() == gen {
		t.Errorf("Generation() did not advance")
	}
	if _, ok := reg.Lookup(textured); ok {
		t.Errorf("material still prepared after its texture was unloaded")
	}
	if _, ok := reg.Lookup(plain); !ok {
		t.Errorf("material without textures was invalidated")
	}
	if pending := reg.Pending(); !slices.Equal(pending, []asset.ID{textured}) {
		t.Errorf("Pending() = %v, want [%v]", pending, textured)
	}

	reg.Prepare(textureSet{})
	if _, ok := reg.Lookup(textured); ok {
		t.Errorf("material prepared while its texture is absent")
	}
	reg.Prepare(textureSet{tex: true})
	if _, ok := reg.Lookup(textured); !ok {
		t.Errorf("material not prepared after its texture returned")
	}
	if len(reg.Pending()) != 0 {
		t.Errorf("Pending() = %v, want empty", reg.Pending())
	}
}
