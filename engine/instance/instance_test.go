package instance

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/Carmen-Shannon/oxy-instancing/engine/mesh"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// testView sits at the origin looking down -Z.
type testView struct {
	hidden map[Entity]bool
}

func (v testView) Distance(model mgl32.Mat4) float32 {
	return -model.Col(3).Z()
}

func (v testView) Visible(e Entity) bool {
	return !v.hidden[e]
}

type meshLoc struct {
	key mesh.StructuralKey
	pos uint32
}

type testMeshes map[asset.ID]meshLoc

func (m testMeshes) Locate(id asset.ID) (mesh.StructuralKey, uint32, bool) {
	l, ok := m[id]
	return l.key, l.pos, ok
}

type testMaterials map[asset.ID]*material.Prepared

func (m testMaterials) Lookup(id asset.ID) (*material.Prepared, bool) {
	p, ok := m[id]
	return p, ok
}

var (
	cubeKey = mesh.StructuralKey{Topology: wgpu.PrimitiveTopologyTriangleList, Layout: "std", IndexFormat: wgpu.IndexFormatUint16}

	meshA = asset.NamedID("mesh-a")
	meshB = asset.NamedID("mesh-b")
	meshC = asset.NamedID("mesh-c")

	opaqueMat = asset.NamedID("opaque")
	blendMat  = asset.NamedID("blend")
	colorMat  = asset.NamedID("color")
)

func fixtures() (testMeshes, testMaterials) {
	meshes := testMeshes{
		meshA: {key: cubeKey, pos: 0},
		meshB: {key: cubeKey, pos: 1},
		meshC: {key: cubeKey, pos: 2},
	}
	materials := testMaterials{
		opaqueMat: {ID: opaqueMat, Key: material.BatchKey{Alpha: material.AlphaOpaque, Discriminator: material.Discriminator{Kind: material.KindCustom}}},
		blendMat:  {ID: blendMat, Key: material.BatchKey{Alpha: material.AlphaBlend, Discriminator: material.Discriminator{Kind: material.KindCustom}}},
		colorMat: {
			ID:              colorMat,
			Key:             material.BatchKey{Alpha: material.AlphaOpaque, Discriminator: material.Discriminator{Kind: material.KindColor}},
			ExtensionStride: material.ColorExtensionStride,
		},
	}
	return meshes, materials
}

func at(z float32) mgl32.Mat4 {
	return mgl32.Translate3D(0, 0, -z)
}

func distances(g *Group) []float32 {
	out := make([]float32, len(g.Entries))
	for i, e := range g.Entries {
		out[i] = e.Distance
	}
	return out
}

func TestSortDirection(t *testing.T) {
	meshes, materials := fixtures()
	tests := []struct {
		name     string
		material asset.ID
		want     []float32
	}{
		{"blend back to front", blendMat, []float32{5, 3, 1}},
		{"opaque front to back", opaqueMat, []float32{1, 3, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instances := []Instance{
				{Entity: 1, Mesh: meshA, Material: tt.material, Transform: at(3)},
				{Entity: 2, Mesh: meshA, Material: tt.material, Transform: at(1)},
				{Entity: 3, Mesh: meshA, Material: tt.material, Transform: at(5)},
			}
			c := Collect(testView{}, instances, nil, meshes, materials)
			groups := c.Groups()
			if len(groups) != 1 {
				t.Fatalf("len(Groups()) = %d, want 1", len(groups))
			}
			if got := distances(groups[0]); !slices.Equal(got, tt.want) {
				t.Errorf("distances = %v, want %v", got, tt.want)
			}

			packed := NewPacker().Pack(groups[0], 3)
			for i, want := range tt.want {
				rec := packed.Data[i*int(packed.Stride):]
				// Column 3 row 2 of the transform holds the translation z.
				z := math.Float32frombits(binary.LittleEndian.Uint32(rec[16+14*4:]))
				if -z != want {
					t.Errorf("packed[%d] distance = %v, want %v", i, -z, want)
				}
			}
		})
	}
}

func TestMeshContiguityAndOffsets(t *testing.T) {
	meshes, materials := fixtures()
	var instances []Instance
	plan := []struct {
		mesh  asset.ID
		count int
	}{{meshC, 3}, {meshA, 2}, {meshB, 4}, {meshA, 1}}
	e := Entity(0)
	for _, p := range plan {
		for i := 0; i < p.count; i++ {
			e++
			instances = append(instances, Instance{Entity: e, Mesh: p.mesh, Material: opaqueMat, Transform: at(float32(10 - i))})
		}
	}

	g := Collect(testView{}, instances, nil, meshes, materials).Groups()[0]
	for i := 1; i < len(g.Entries); i++ {
		if g.Entries[i].Mesh < g.Entries[i-1].Mesh {
			t.Fatalf("entries not contiguous by mesh at %d", i)
		}
	}

	packed := NewPacker().Pack(g, 3)
	wantCounts := []uint32{3, 4, 3}
	if !slices.Equal(packed.Counts, wantCounts) {
		t.Errorf("Counts = %v, want %v", packed.Counts, wantCounts)
	}
	var running uint32
	for m, c := range packed.Counts {
		if packed.Offsets[m] != running {
			t.Errorf("Offsets[%d] = %d, want %d", m, packed.Offsets[m], running)
		}
		running += c
	}
	if packed.Total != running {
		t.Errorf("Total = %d, want %d", packed.Total, running)
	}

	for i := range int(packed.Total) {
		meshIndex := binary.LittleEndian.Uint32(packed.Data[i*int(packed.Stride):])
		if i >= int(packed.Offsets[meshIndex]+packed.Counts[meshIndex]) || i < int(packed.Offsets[meshIndex]) {
			t.Errorf("record %d has mesh %d outside its range", i, meshIndex)
		}
	}
}

func TestUnknownAssetsAreDropped(t *testing.T) {
	meshes, materials := fixtures()
	instances := []Instance{
		{Entity: 1, Mesh: meshA, Material: opaqueMat},
		{Entity: 2, Mesh: asset.NamedID("loading"), Material: opaqueMat},
		{Entity: 3, Mesh: meshA, Material: asset.NamedID("unprepared")},
		{Entity: 4, Mesh: meshB, Material: opaqueMat},
	}
	c := Collect(testView{hidden: map[Entity]bool{4: true}}, instances, nil, meshes, materials)
	if c.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", c.Dropped())
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	g := c.Groups()[0]
	if len(g.Entries) != 1 || g.Entries[0].Entity != 1 {
		t.Errorf("Entries = %+v, want only entity 1", g.Entries)
	}
}

func TestGroupsAscendByKey(t *testing.T) {
	meshes, materials := fixtures()
	instances := []Instance{
		{Entity: 1, Mesh: meshA, Material: blendMat},
		{Entity: 2, Mesh: meshA, Material: colorMat, Extension: material.ColorExtension([4]float32{1, 0, 0, 1})},
		{Entity: 3, Mesh: meshA, Material: opaqueMat},
	}
	c := Collect(testView{}, instances, nil, meshes, materials)
	groups := c.Groups()
	if len(groups) != 3 {
		t.Fatalf("len(Groups()) = %d, want 3", len(groups))
	}
	for i := 1; i < len(groups); i++ {
		if Compare(groups[i-1].Key, groups[i].Key) >= 0 {
			t.Errorf("groups not ascending at %d", i)
		}
	}
	if groups[2].Alpha != material.AlphaBlend {
		t.Errorf("last group alpha = %v, want blend", groups[2].Alpha)
	}
	if _, ok := c.Group(groups[1].Key); !ok {
		t.Errorf("Group(key) did not find an existing group")
	}
}

func TestPackExtension(t *testing.T) {
	meshes, materials := fixtures()
	ext := material.ColorExtension([4]float32{0.25, 0.5, 0.75, 1})
	instances := []Instance{{Entity: 1, Mesh: meshB, Material: colorMat, Transform: mgl32.Scale3D(2, 2, 2), Extension: ext}}
	g := Collect(testView{}, instances, nil, meshes, materials).Groups()[0]
	packed := NewPacker().Pack(g, 3)

	if packed.Stride != BaseStride+16 {
		t.Fatalf("Stride = %d, want %d", packed.Stride, BaseStride+16)
	}
	rec := packed.Data[:packed.Stride]
	if got := binary.LittleEndian.Uint32(rec); got != 1 {
		t.Errorf("mesh index = %d, want 1", got)
	}
	if !bytes.Equal(rec[4:16], make([]byte, 12)) {
		t.Errorf("padding not zeroed: %v", rec[4:16])
	}
	if !bytes.Equal(rec[BaseStride:], ext) {
		t.Errorf("extension = %v, want %v", rec[BaseStride:], ext)
	}
	invScale := math.Float32frombits(binary.LittleEndian.Uint32(rec[80:]))
	if invScale != 0.5 {
		t.Errorf("inverse transpose [0][0] = %v, want 0.5", invScale)
	}
}

func TestInstanceSlices(t *testing.T) {
	meshes, materials := fixtures()
	instances := []Instance{
		{Entity: 1, Mesh: meshA, Material: opaqueMat},
		{Entity: 2, Mesh: meshB, Material: opaqueMat},
	}
	reserved := []Slice{
		{Entity: 10, Mesh: meshA, Material: opaqueMat, Count: 4},
		{Entity: 11, Mesh: meshC, Material: opaqueMat, Count: 2},
		{Entity: 12, Mesh: meshC, Material: opaqueMat, Count: 0},
		{Entity: 13, Mesh: asset.NamedID("unknown"), Material: opaqueMat, Count: 5},
	}
	c := Collect(testView{}, instances, reserved, meshes, materials)
	packed := NewPacker().Pack(c.Groups()[0], 3)

	if want := []uint32{5, 1, 2}; !slices.Equal(packed.Counts, want) {
		t.Errorf("Counts = %v, want %v", packed.Counts, want)
	}
	want := []SliceRange{
		{Entity: 10, Key: packed.Key, Offset: 1, Count: 4},
		{Entity: 11, Key: packed.Key, Offset: 6, Count: 2},
	}
	if !slices.Equal(packed.Slices, want) {
		t.Errorf("Slices = %+v, want %+v", packed.Slices, want)
	}
	// Reserved slots carry only their mesh index.
	rec := packed.Data[2*int(packed.Stride) : 3*int(packed.Stride)]
	if binary.LittleEndian.Uint32(rec) != 0 || !bytes.Equal(rec[16:], make([]byte, BaseStride-16)) {
		t.Errorf("reserved slot not zero filled")
	}
	if c.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", c.Dropped())
	}
}

func TestPackIsDeterministic(t *testing.T) {
	meshes, materials := fixtures()
	var instances []Instance
	ids := []asset.ID{meshA, meshB, meshC}
	for i := range 60 {
		instances = append(instances, Instance{
			Entity:    Entity(i),
			Mesh:      ids[i%3],
			Material:  opaqueMat,
			Transform: at(float32(i % 7)),
		})
	}

	pack := func(in []Instance) []byte {
		return NewPacker().Pack(Collect(testView{}, in, nil, meshes, materials).Groups()[0], 3).Data
	}
	first := pack(instances)

	shuffled := slices.Clone(instances)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if !bytes.Equal(first, pack(shuffled)) {
		t.Errorf("packed bytes depend on input order")
	}
}

func TestUniformCapacityAndChunks(t *testing.T) {
	p := NewPacker(WithBacking(BackingUniform))
	if got := p.Capacity(BaseStride); got != DefaultMaxUniformBindingSize/BaseStride {
		t.Errorf("Capacity() = %d, want %d", got, DefaultMaxUniformBindingSize/BaseStride)
	}
	if got := NewPacker().Capacity(BaseStride); got != 0 {
		t.Errorf("storage Capacity() = %d, want 0", got)
	}

	meshes, materials := fixtures()
	var instances []Instance
	for i := range 5 {
		instances = append(instances, Instance{Entity: Entity(i), Mesh: meshA, Material: opaqueMat})
	}
	g := Collect(testView{}, instances, nil, meshes, materials).Groups()[0]
	packed := NewPacker(WithBacking(BackingUniform), WithCapacityOverride(2)).Pack(g, 3)

	chunks := packed.Chunks()
	if len(chunks) != 3 {
		t.Fatalf("len(Chunks()) = %d, want 3", len(chunks))
	}
	for i, c := range chunks {
		if len(c) != 2*int(packed.Stride) {
			t.Errorf("len(chunks[%d]) = %d, want %d", i, len(c), 2*packed.Stride)
		}
	}
	if !bytes.Equal(chunks[2][packed.Stride:], make([]byte, packed.Stride)) {
		t.Errorf("last chunk padding not zeroed")
	}
}

func TestSelectBacking(t *testing.T) {
	tests := []struct {
		storage bool
		mode    string
		want    Backing
	}{
		{true, "auto", BackingStorage},
		{false, "auto", BackingUniform},
		{true, "uniform", BackingUniform},
		{false, "storage", BackingStorage},
	}
	for _, tt := range tests {
		if got := SelectBacking(tt.storage, tt.mode); got != tt.want {
			t.Errorf("SelectBacking(%v, %q) = %v, want %v", tt.storage, tt.mode, got, tt.want)
		}
	}
}

func TestGroupDistance(t *testing.T) {
	meshes, materials := fixtures()
	instances := []Instance{
		{Entity: 1, Mesh: meshA, Material: blendMat, Transform: at(2)},
		{Entity: 2, Mesh: meshB, Material: blendMat, Transform: at(9)},
		{Entity: 3, Mesh: meshA, Material: opaqueMat, Transform: at(4)},
		{Entity: 4, Mesh: meshB, Material: opaqueMat, Transform: at(1)},
	}
	for _, g := range Collect(testView{}, instances, nil, meshes, materials).Groups() {
		want := float32(1)
		if g.Alpha == material.AlphaBlend {
			want = 9
		}
		if g.Distance() != want {
			t.Errorf("%v Distance() = %v, want %v", g.Alpha, g.Distance(), want)
		}
	}
}
