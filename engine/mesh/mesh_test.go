package mesh

import (
	"bytes"
	"encoding/binary"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/cogentcore/webgpu/wgpu"
)

func quadVertices(n int) []GPUVertex {
	v := make([]GPUVertex, n)
	for i := range v {
		v[i].Position = [3]float32{float32(i), 0, 0}
	}
	return v
}

func sortedIDs(names ...string) []asset.ID {
	ids := make([]asset.ID, len(names))
	for i, n := range names {
		ids[i] = asset.NamedID(n)
	}
	slices.SortFunc(ids, asset.Compare)
	return ids
}

func TestIndexRebasing(t *testing.T) {
	ids := sortedIDs("a", "b")
	first := NewMesh(WithName("first"), WithVertices(quadVertices(4)), WithIndices(U16(0, 1, 2, 0, 2, 3)))
	second := NewMesh(WithName("second"), WithVertices(quadVertices(6)), WithIndices(U16(0, 1, 2, 3, 4, 5, 5, 4, 3)))

	reg := NewRegistry()
	reg.Apply([]asset.Event[Mesh]{
		asset.CreatedEvent(ids[1], second),
		asset.CreatedEvent(ids[0], first),
	})

	set := BuildBatches(reg)
	if set.Len() != 1 {
		t.Fatalf("BuildBatches() produced %d batches, want 1", set.Len())
	}
	b, _ := set.Batch(set.Keys()[0])

	var want []byte
	for _, v := range first.Indices().U16 {
		want = binary.LittleEndian.AppendUint16(want, v)
	}
	for _, v := range second.Indices().U16 {
		want = binary.LittleEndian.AppendUint16(want, v+4)
	}
	if !bytes.Equal(b.Indices, want) {
		t.Errorf("batch indices = %v, want %v", b.Indices, want)
	}

	wantVertices := append(slices.Clone(first.Vertices()), second.Vertices()...)
	if !bytes.Equal(b.Vertices, wantVertices) {
		t.Errorf("batch vertices differ from concatenation in mesh order")
	}

	wantTemplates := []DrawTemplate{
		{Mesh: ids[0], Indexed: true, VertexCount: 4, IndexCount: 6, FirstIndex: 0},
		{Mesh: ids[1], Indexed: true, VertexCount: 6, IndexCount: 9, FirstIndex: 6},
	}
	if !slices.Equal(b.Templates, wantTemplates) {
		t.Errorf("Templates = %+v, want %+v", b.Templates, wantTemplates)
	}
	if b.VertexCount != 10 || b.IndexCount != 15 {
		t.Errorf("VertexCount, IndexCount = %d, %d, want 10, 15", b.VertexCount, b.IndexCount)
	}
}

func TestIndexRebasingU32(t *testing.T) {
	ids := sortedIDs("x", "y")
	reg := NewRegistry()
	reg.Apply([]asset.Event[Mesh]{
		asset.CreatedEvent(ids[0], NewMesh(WithVertices(quadVertices(3)), WithIndices(U32(0, 1, 2)))),
		asset.CreatedEvent(ids[1], NewMesh(WithVertices(quadVertices(3)), WithIndices(U32(2, 1, 0)))),
	})
	b, _ := BuildBatches(reg).Batch(StructuralKey{
		Topology:    wgpu.PrimitiveTopologyTriangleList,
		Layout:      StandardLayout().Key(),
		IndexFormat: wgpu.IndexFormatUint32,
	})
	if b == nil {
		t.Fatalf("expected a 32-bit indexed batch")
	}

	got := make([]uint32, 0, 6)
	for i := 0; i < len(b.Indices); i += 4 {
		got = append(got, binary.LittleEndian.Uint32(b.Indices[i:]))
	}
	want := []uint32{0, 1, 2, 5, 4, 3}
	if !slices.Equal(got, want) {
		t.Errorf("indices = %v, want %v", got, want)
	}
}

func TestNonIndexedTemplates(t *testing.T) {
	ids := sortedIDs("t1", "t2", "t3")
	reg := NewRegistry()
	var events []asset.Event[Mesh]
	for _, id := range ids {
		events = append(events, asset.CreatedEvent(id, Triangle("tri")))
	}
	reg.Apply(events)

	set := BuildBatches(reg)
	b, _ := set.Batch(set.Keys()[0])
	if b.Key.Indexed() {
		t.Fatalf("Key.Indexed() = true, want false")
	}
	if len(b.Indices) != 0 {
		t.Errorf("len(Indices) = %d, want 0", len(b.Indices))
	}
	for i, tpl := range b.Templates {
		if tpl.FirstVertex != uint32(3*i) {
			t.Errorf("Templates[%d].FirstVertex = %d, want %d", i, tpl.FirstVertex, 3*i)
		}
		if tpl.Count() != 3 {
			t.Errorf("Templates[%d].Count() = %d, want 3", i, tpl.Count())
		}
	}
}

func TestBatchesGroupByStructuralKey(t *testing.T) {
	reg := NewRegistry()
	cube, quad, tri := asset.NamedID("cube"), asset.NamedID("quad"), asset.NamedID("tri")
	reg.Apply([]asset.Event[Mesh]{
		asset.CreatedEvent(cube, Cube("cube")),
		asset.CreatedEvent(quad, Quad("quad")),
		asset.CreatedEvent(tri, Triangle("tri")),
	})

	set := BuildBatches(reg)
	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", set.Len())
	}
	for i := 1; i < len(set.Keys()); i++ {
		if Compare(set.Keys()[i-1], set.Keys()[i]) >= 0 {
			t.Errorf("Keys() not ascending at %d", i)
		}
	}

	cubeKey, _, ok := set.Locate(cube)
	quadKey, _, _ := set.Locate(quad)
	triKey, triPos, _ := set.Locate(tri)
	if !ok {
		t.Fatalf("Locate(cube) not found")
	}
	if cubeKey != quadKey {
		t.Errorf("cube and quad keys differ: %v vs %v", cubeKey, quadKey)
	}
	if triKey == cubeKey {
		t.Errorf("triangle shares key with indexed meshes")
	}
	if triPos != 0 {
		t.Errorf("triangle position = %d, want 0", triPos)
	}
	if _, _, ok := set.Locate(asset.NamedID("missing")); ok {
		t.Errorf("Locate(missing) found a batch")
	}
}

func TestBatcherRebuildsOnlyOnChange(t *testing.T) {
	reg := NewRegistry()
	batcher := NewBatcher()
	reg.Apply([]asset.Event[Mesh]{asset.CreatedEvent(asset.NamedID("cube"), Cube("cube"))})

	first := batcher.Batches(reg)
	if again := batcher.Batches(reg); again != first {
		t.Errorf("Batches() rebuilt without a registry change")
	}

	if reg.Apply(nil) {
		t.Errorf("Apply(nil) reported a change")
	}
	if reg.Apply([]asset.Event[Mesh]{asset.RemovedEvent[Mesh](asset.NamedID("unknown"))}) {
		t.Errorf("removing an unknown mesh reported a change")
	}
	if again := batcher.Batches(reg); again != first {
		t.Errorf("Batches() rebuilt after a no-op apply")
	}

	reg.Apply([]asset.Event[Mesh]{asset.CreatedEvent(asset.NamedID("quad"), Quad("quad"))})
	second := batcher.Batches(reg)
	if second == first {
		t.Fatalf("Batches() did not rebuild after a change")
	}
	b, _ := second.Batch(second.Keys()[0])
	if len(b.Meshes) != 2 {
		t.Errorf("len(Meshes) = %d, want 2", len(b.Meshes))
	}
}

func TestBatchesAreDeterministic(t *testing.T) {
	names := []string{"m0", "m1", "m2", "m3"}
	build := func(order []int) *Batch {
		reg := NewRegistry()
		for _, i := range order {
			reg.Apply([]asset.Event[Mesh]{asset.CreatedEvent(asset.NamedID(names[i]), Cube(names[i]))})
		}
		set := BuildBatches(reg)
		b, _ := set.Batch(set.Keys()[0])
		return b
	}

	a := build([]int{0, 1, 2, 3})
	b := build([]int{3, 1, 0, 2})
	if !bytes.Equal(a.Vertices, b.Vertices) || !bytes.Equal(a.Indices, b.Indices) {
		t.Errorf("batch bytes depend on insertion order")
	}
	if !slices.Equal(a.Templates, b.Templates) {
		t.Errorf("templates depend on insertion order")
	}
}

func TestRegistryApply(t *testing.T) {
	reg := NewRegistry()
	id := asset.NamedID("m")

	reg.Apply([]asset.Event[Mesh]{asset.ModifiedEvent(id, Quad("q"))})
	if got, ok := reg.Get(id); !ok || got.VertexCount != 4 {
		t.Fatalf("Modified on unknown mesh did not create it")
	}
	gen := reg.Generation()

	reg.Apply([]asset.Event[Mesh]{asset.ModifiedEvent(id, Cube("c"))})
	if got, _ := reg.Get(id); got.VertexCount != 24 {
		t.Errorf("VertexCount after modify = %d, want 24", got.VertexCount)
	}
	if reg.Generation() <= gen {
		t.Errorf("Generation() did not advance")
	}

	bad := NewMesh(WithVertexBytes([]byte{1, 2, 3}))
	reg.Apply([]asset.Event[Mesh]{asset.ModifiedEvent(id, bad)})
	if _, ok := reg.Get(id); ok {
		t.Errorf("invalid modification kept the stale record")
	}

	reg.Apply([]asset.Event[Mesh]{asset.CreatedEvent(id, Quad("q")), asset.RemovedEvent[Mesh](id)})
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
}

func TestMeshValidate(t *testing.T) {
	tests := []struct {
		name    string
		mesh    Mesh
		wantErr bool
	}{
		{"cube", Cube("cube"), false},
		{"triangle", Triangle("tri"), false},
		{"partial vertex", NewMesh(WithVertexBytes(make([]byte, 50))), true},
		{"index out of range", NewMesh(WithVertices(quadVertices(3)), WithIndices(U16(0, 1, 3))), true},
		{"32-bit out of range", NewMesh(WithVertices(quadVertices(3)), WithIndices(U32(0, 1, 7))), true},
		{"zero stride", NewMesh(WithLayout(VertexLayout{})), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMixedIndexWidthPanics(t *testing.T) {
	key := StructuralKey{Topology: wgpu.PrimitiveTopologyTriangleList, Layout: "x", IndexFormat: wgpu.IndexFormatUint16}
	meshes := []*GPUMesh{
		{ID: asset.NamedID("a"), Key: key, VertexCount: 3, Index: Indexed{Format: wgpu.IndexFormatUint16, U16: []uint16{0, 1, 2}, IndexCount: 3}},
		{ID: asset.NamedID("b"), Key: key, VertexCount: 3, Index: Indexed{Format: wgpu.IndexFormatUint32, U32: []uint32{0, 1, 2}, IndexCount: 3}},
	}
	defer func() {
		if recover() == nil {
			t.Errorf("newBatch() with mixed index widths did not panic")
		}
	}()
	newBatch(key, meshes)
}

func TestU16OverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("appendRebased() overflow did not panic")
		}
	}()
	appendRebased(nil, Indexed{Format: wgpu.IndexFormatUint16, U16: []uint16{0xFFFF}, IndexCount: 1}, 1)
}

func TestLayoutKey(t *testing.T) {
	a := StandardLayout()
	b := StandardLayout()
	slices.Reverse(b.Attributes)
	if a.Key() != b.Key() {
		t.Errorf("Key() depends on attribute order: %q vs %q", a.Key(), b.Key())
	}
	c := StandardLayout()
	c.Attributes[2].Offset = 28
	if a.Key() == c.Key() {
		t.Errorf("Key() ignores attribute offsets")
	}
	if _, ok := a.Attribute(LocationPosition); !ok {
		t.Errorf("Attribute(LocationPosition) missing")
	}
	if l := a.WGPU(); l.ArrayStride != 48 || len(l.Attributes) != 4 {
		t.Errorf("WGPU() = %+v", l)
	}
}
