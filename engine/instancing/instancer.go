// Package instancing drives the instance batching subsystem each frame: it applies asset events to the
// mesh, material and texture registries, uploads mesh batches, and for every view collects, packs and
// uploads instance batches with their indirect draw records so they can be queued into render phases.
package instancing

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/Carmen-Shannon/oxy-instancing/engine/indirect"
	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/Carmen-Shannon/oxy-instancing/engine/mesh"
	"github.com/Carmen-Shannon/oxy-instancing/engine/phase"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-instancing/engine/view"
	"github.com/cogentcore/webgpu/wgpu"
)

// IndirectMode selects how batch draws are issued.
type IndirectMode int

const (
	// IndirectAuto uses GPU indirect draws when the device supports a non-zero first instance in them.
	IndirectAuto IndirectMode = iota

	// IndirectGPU always writes draw records to indirect buffers.
	IndirectGPU

	// IndirectCPU issues every draw directly from the CPU.
	IndirectCPU
)

// String returns the lowercase name of the mode.
func (m IndirectMode) String() string {
	switch m {
	case IndirectGPU:
		return "gpu"
	case IndirectCPU:
		return "cpu"
	default:
		return "auto"
	}
}

// ParseIndirectMode parses "auto", "gpu" or "cpu".
//
// Parameters:
//   - s: the mode name
//
// Returns:
//   - IndirectMode: the mode
//   - error: an error if s is not a known mode
func ParseIndirectMode(s string) (IndirectMode, error) {
	switch s {
	case "", "auto":
		return IndirectAuto, nil
	case "gpu":
		return IndirectGPU, nil
	case "cpu":
		return IndirectCPU, nil
	}
	return IndirectAuto, fmt.Errorf("unknown indirect mode %q", s)
}

// ViewInput is everything the instancer needs to prepare one view.
type ViewInput struct {
	View      view.View
	Instances []instance.Instance
	Slices    []instance.Slice
}

// materialBinding is the cached material bind group of one material batch key.
type materialBinding struct {
	representative *material.Prepared
	provider       bind_group_provider.BindGroupProvider
}

// instancer is the implementation of the Instancer interface.
type instancer struct {
	mu sync.Mutex

	device      renderer.Device
	meshes      mesh.Registry
	batcher     mesh.Batcher
	materials   material.Registry
	textures    *textureStore
	specializer pipeline.Specializer
	packer      instance.Packer

	bufferMode         string
	uniformCapacity    uint32
	indirectMode       IndirectMode
	gpuIndirect        bool
	specializerOptions []pipeline.SpecializerBuilderOption

	// workers is the maximum number of views prepared concurrently by pool.
	workers   int
	queueSize int
	pool      worker.DynamicWorkerPool
	taskID    int

	batches        *mesh.BatchSet
	meshBuffers    map[mesh.StructuralKey]bind_group_provider.BindGroupProvider
	materialGroups map[material.BatchKey]*materialBinding

	frames   []*Frame
	released bool
}

// Instancer owns the instancing subsystem's registries and GPU resources. Apply*Events and Update run
// in the update phase; Prepare, Queue and drawing run afterwards. The two phases must not overlap.
type Instancer interface {
	// ApplyMeshEvents forwards mesh asset events to the mesh registry. Mesh batches are rebuilt by the
	// next Update.
	//
	// Parameters:
	//   - events: the mesh events in the order they happened
	ApplyMeshEvents(events []asset.Event[mesh.Mesh])

	// ApplyMaterialEvents forwards material asset events to the material registry. Materials are
	// prepared by the next Update.
	//
	// Parameters:
	//   - events: the material events in the order they happened
	ApplyMaterialEvents(events []asset.Event[material.Material])

	// ApplyTextureEvents queues decoded texture assets for upload by the next Update.
	//
	// Parameters:
	//   - events: the texture events in the order they happened
	ApplyTextureEvents(events []asset.Event[*common.TextureStagingData])

	// Update runs the registry phase: textures are uploaded, queued and retrying materials are
	// prepared, and mesh batches are rebuilt and uploaded if the mesh registry changed.
	//
	// Returns:
	//   - bool: true if meshes, materials or textures changed
	Update() bool

	// Prepare collects, sorts, packs and uploads the instance batches of every view, one view per
	// worker. The frames returned by the previous call are released first. Batches whose pipeline or
	// buffers cannot be created are logged and left out of their frame.
	//
	// Parameters:
	//   - ctx: cancels preparation of views that have not started
	//   - views: the views to prepare
	//
	// Returns:
	//   - []*Frame: one frame per view, in the order of views
	//   - error: ctx's error if it was cancelled, or an error if the instancer was released or a view is nil
	Prepare(ctx context.Context, views []ViewInput) ([]*Frame, error)

	// Queue adds every batch of frame to the phase matching its alpha mode, at the batch's distance.
	//
	// Parameters:
	//   - frame: the prepared frame
	//   - phases: the view's render phases
	Queue(frame *Frame, phases *phase.Phases)

	// Backing returns the instance buffer kind batches are packed for.
	//
	// Returns:
	//   - instance.Backing: the backing
	Backing() instance.Backing

	// GPUIndirect reports whether draws are issued from indirect buffers.
	//
	// Returns:
	//   - bool: true for GPU indirect draws
	GPUIndirect() bool

	// Meshes returns the mesh registry.
	Meshes() mesh.Registry

	// Materials returns the material registry.
	Materials() material.Registry

	// Batches returns the current mesh batches.
	//
	// Returns:
	//   - *mesh.BatchSet: the batches built by the last Update
	Batches() *mesh.BatchSet

	// Specializer returns the pipeline specializer.
	Specializer() pipeline.Specializer

	// Release frees every GPU resource the instancer created.
	Release()
}

var _ Instancer = &instancer{}

// NewInstancer creates an Instancer creating its resources on device. The instance buffer backing and
// indirect mode are resolved against the device's limits and features.
//
// Parameters:
//   - device: the GPU device
//   - options: variadic list of InstancerBuilderOption functions
//
// Returns:
//   - Instancer: the instancer
func NewInstancer(device renderer.Device, options ...InstancerBuilderOption) Instancer {
	i := &instancer{
		device:         device,
		meshes:         mesh.NewRegistry(),
		batcher:        mesh.NewBatcher(),
		materials:      material.NewRegistry(),
		textures:       newTextureStore(device),
		bufferMode:     "auto",
		workers:        max(runtime.NumCPU()-1, 1),
		queueSize:      256,
		meshBuffers:    make(map[mesh.StructuralKey]bind_group_provider.BindGroupProvider),
		materialGroups: make(map[material.BatchKey]*materialBinding),
	}
	for _, opt := range options {
		opt(i)
	}

	limits, features := device.Limits(), device.Features()
	backing := instance.SelectBacking(features.VertexStorage, i.bufferMode)
	i.packer = instance.NewPacker(
		instance.WithBacking(backing),
		instance.WithMaxUniformBindingSize(uint32(min(limits.MaxUniformBufferBindingSize, 1<<31))),
		instance.WithCapacityOverride(i.uniformCapacity),
	)
	i.gpuIndirect = i.indirectMode == IndirectGPU || (i.indirectMode == IndirectAuto && features.IndirectFirstInstance)
	i.specializer = pipeline.NewSpecializer(device, i.specializerOptions...)

	i.pool = worker.NewDynamicWorkerPool(i.workers, i.queueSize, 1*time.Second)
	i.batches = i.batcher.Batches(i.meshes)

	common.Logger().Info("instancer created",
		"backing", backing,
		"indirect", i.indirectMode,
		"gpu_indirect", i.gpuIndirect,
		"workers", i.workers,
	)
	return i
}

func (i *instancer) ApplyMeshEvents(events []asset.Event[mesh.Mesh]) {
	i.meshes.Apply(events)
}

func (i *instancer) ApplyMaterialEvents(events []asset.Event[material.Material]) {
	i.materials.Apply(events)
}

func (i *instancer) ApplyTextureEvents(events []asset.Event[*common.TextureStagingData]) {
	i.textures.queue(events)
}

func (i *instancer) Update() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return false
	}

	texturesChanged, removed := i.textures.upload()
	if len(removed) > 0 {
		i.materials.InvalidateTextures(removed)
	}
	if texturesChanged {
		// Material bind groups may reference a replaced texture; they are rebuilt on demand.
		for key, mb := range i.materialGroups {
			mb.provider.Release()
			delete(i.materialGroups, key)
		}
	}
	materialsChanged := i.materials.Prepare(i.textures)

	set := i.batcher.Batches(i.meshes)
	meshesChanged := set != i.batches
	if meshesChanged {
		i.uploadMeshBatches(set)
		i.batches = set
	}

	if pending := i.materials.Pending(); len(pending) > 0 {
		common.Logger().Debug("materials waiting on assets", "count", len(pending))
	}
	return texturesChanged || materialsChanged || meshesChanged
}

// uploadMeshBatches replaces the mesh batch buffers with those of set. Callers hold mu.
func (i *instancer) uploadMeshBatches(set *mesh.BatchSet) {
	for key, p := range i.meshBuffers {
		p.Release()
		delete(i.meshBuffers, key)
	}

	for _, key := range set.Keys() {
		b, _ := set.Batch(key)
		label := fmt.Sprintf("mesh:%s", key)

		vb, err := i.device.CreateBuffer(label+":vertices", wgpu.BufferUsageVertex, b.Vertices)
		if err != nil {
			common.Logger().Error("mesh batch upload failed", "batch", key, "err", err)
			continue
		}
		opts := []bind_group_provider.BindGroupProviderOption{bind_group_provider.WithVertexBuffer(vb)}
		if key.Indexed() {
			ib, err := i.device.CreateBuffer(label+":indices", wgpu.BufferUsageIndex, b.Indices)
			if err != nil {
				vb.Release()
				common.Logger().Error("mesh batch upload failed", "batch", key, "err", err)
				continue
			}
			opts = append(opts, bind_group_provider.WithIndexBuffer(ib, key.IndexFormat))
		}
		i.meshBuffers[key] = bind_group_provider.NewBindGroupProvider(label, opts...)
	}
	common.Logger().Debug("mesh batches uploaded", "batches", len(i.meshBuffers), "generation", set.Generation())
}

func (i *instancer) Prepare(ctx context.Context, views []ViewInput) ([]*Frame, error) {
	i.mu.Lock()
	if i.released {
		i.mu.Unlock()
		return nil, fmt.Errorf("instancer: %w", common.ErrReleased)
	}
	for _, f := range i.frames {
		f.Release()
	}
	i.frames = nil
	i.mu.Unlock()

	for n, in := range views {
		if in.View == nil {
			return nil, fmt.Errorf("view input %d has no view", n)
		}
	}

	frames := make([]*Frame, len(views))
	var wg sync.WaitGroup
	for n := range views {
		wg.Add(1)
		i.mu.Lock()
		id := i.taskID
		i.taskID++
		i.mu.Unlock()

		i.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				frames[n] = i.prepareView(views[n])
				return nil, nil
			},
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for _, f := range frames {
			if f != nil {
				f.Release()
			}
		}
		return nil, err
	}

	i.mu.Lock()
	i.frames = frames
	i.mu.Unlock()
	return frames, nil
}

// prepareView builds the frame of one view. It runs on a pool worker concurrently with other views.
func (i *instancer) prepareView(in ViewInput) *Frame {
	f := &Frame{view: in.View.ID()}
	set := i.Batches()

	coll := instance.Collect(in.View, in.Instances, in.Slices, set, i.materials)
	f.stats.Dropped = coll.Dropped()

	for _, g := range coll.Groups() {
		b, err := i.prepareBatch(f, in.View, set, g)
		if err != nil {
			// Specialization failures were already reported once by the specializer.
			if !errors.Is(err, common.ErrSpecialization) {
				common.Logger().Warn("instance batch skipped", "view", f.view, "batch", g.Key, "err", err)
			}
			f.stats.Skipped++
			continue
		}
		if b == nil {
			continue
		}
		f.batches = append(f.batches, b)
		f.stats.Batches++
		f.stats.Instances += b.instances
		f.stats.Buffers += len(b.draws)
		for _, d := range b.draws {
			f.stats.Draws += len(d.records)
		}
	}
	return f
}

// prepareBatch packs and uploads one group. It returns a nil batch without error when the group draws
// nothing.
func (i *instancer) prepareBatch(f *Frame, v view.View, set *mesh.BatchSet, g *instance.Group) (*Batch, error) {
	meshBatch, ok := set.Batch(g.Key.Mesh)
	if !ok {
		return nil, fmt.Errorf("mesh batch %s: %w", g.Key.Mesh, common.ErrUnknownMesh)
	}
	i.mu.Lock()
	meshBuffers, ok := i.meshBuffers[g.Key.Mesh]
	i.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("mesh batch %s has no GPU buffers", g.Key.Mesh)
	}
	rep, ok := i.materials.Batch(g.Key.Material)
	if !ok {
		return nil, fmt.Errorf("material batch %s: %w", g.Key.Material, common.ErrUnknownMaterial)
	}

	packed := i.packer.Pack(g, len(meshBatch.Meshes))
	if packed.Total == 0 {
		return nil, nil
	}

	key := pipeline.NewKey(g.Key.Mesh, g.Key.Material, i.packer.Backing(), packed.Capacity, g.ExtensionStride, rep.Shader.Defs)
	pl, err := i.specializer.Specialize(key, meshBatch.Layout)
	if err != nil {
		return nil, err
	}

	if f.uniform == nil {
		if err := i.createViewUniform(f, v, pl); err != nil {
			return nil, err
		}
	}
	matGroup, err := i.materialGroup(g.Key.Material, rep, pl)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		key:       g.Key,
		alpha:     g.Alpha,
		distance:  g.Distance(),
		pipeline:  pl,
		mesh:      meshBuffers,
		material:  matGroup,
		view:      f.uniform.BindGroup(),
		instances: packed.Total,
		slices:    packed.Slices,
	}

	usage := wgpu.BufferUsageStorage
	if packed.Capacity > 0 {
		usage = wgpu.BufferUsageUniform
	}
	chunks := packed.Chunks()
	for _, rg := range indirect.Build(meshBatch.Templates, packed.Counts, packed.Offsets, packed.Capacity) {
		d, err := i.createDrawGroup(g.Key, rg, chunks[rg.Buffer], usage, pl)
		if err != nil {
			b.release()
			return nil, err
		}
		b.draws = append(b.draws, d)
	}
	return b, nil
}

// createDrawGroup uploads one instance buffer and, on the GPU indirect path, its draw records.
func (i *instancer) createDrawGroup(key instance.BatchKey, rg indirect.Group, data []byte, usage wgpu.BufferUsage, pl pipeline.Pipeline) (drawGroup, error) {
	label := fmt.Sprintf("instances:%s:%d", key, rg.Buffer)
	buf, err := i.device.CreateBuffer(label, usage, data)
	if err != nil {
		return drawGroup{}, fmt.Errorf("instance buffer: %w", err)
	}
	provider := bind_group_provider.NewBindGroupProvider(label, bind_group_provider.WithBuffer(0, buf))
	if err := provider.Init(i.device, pl.Handle(), renderer.GroupInstance); err != nil {
		provider.Release()
		return drawGroup{}, err
	}

	d := drawGroup{instances: provider, records: rg.Records, recordSize: rg.RecordSize()}
	if i.gpuIndirect {
		ind, err := i.device.CreateBuffer(fmt.Sprintf("indirect:%s:%d", key, rg.Buffer), wgpu.BufferUsageIndirect, rg.Bytes())
		if err != nil {
			provider.Release()
			return drawGroup{}, fmt.Errorf("indirect buffer: %w", err)
		}
		d.indirect = ind
	}
	return d, nil
}

// createViewUniform uploads the view uniform of f and binds it against pl's view group layout, which
// every instancing pipeline shares.
func (i *instancer) createViewUniform(f *Frame, v view.View, pl pipeline.Pipeline) error {
	u := view.Uniform(v)
	label := fmt.Sprintf("view:%d", f.view)
	buf, err := i.device.CreateBuffer(label, wgpu.BufferUsageUniform, u.Marshal())
	if err != nil {
		return fmt.Errorf("view uniform: %w", err)
	}
	provider := bind_group_provider.NewBindGroupProvider(label, bind_group_provider.WithBuffer(0, buf))
	if err := provider.Init(i.device, pl.Handle(), renderer.GroupView); err != nil {
		provider.Release()
		return err
	}
	f.uniform = provider
	return nil
}

// materialGroup returns the bind group of a material batch key, creating it from the key's
// representative material on first use or when the representative changed.
func (i *instancer) materialGroup(key material.BatchKey, rep *material.Prepared, pl pipeline.Pipeline) (renderer.BindGroup, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if mb, ok := i.materialGroups[key]; ok {
		if mb.representative == rep {
			return mb.provider.BindGroup(), nil
		}
		mb.provider.Release()
		delete(i.materialGroups, key)
	}

	label := fmt.Sprintf("material:%s", key)
	buf, err := i.device.CreateBuffer(label, wgpu.BufferUsageUniform, rep.BindGroup.Uniform)
	if err != nil {
		return nil, fmt.Errorf("material uniform: %w", err)
	}
	opts := []bind_group_provider.BindGroupProviderOption{bind_group_provider.WithBuffer(0, buf)}
	for n, id := range rep.BindGroup.Textures {
		tex, ok := i.textures.texture(id)
		if !ok {
			buf.Release()
			return nil, fmt.Errorf("material %s texture %s: %w", rep.Name, id, common.ErrNotReady)
		}
		opts = append(opts, bind_group_provider.WithTexture(1+2*n, 2+2*n, tex))
	}

	provider := bind_group_provider.NewBindGroupProvider(label, opts...)
	if err := provider.Init(i.device, pl.Handle(), renderer.GroupMaterial); err != nil {
		provider.Release()
		return nil, err
	}
	i.materialGroups[key] = &materialBinding{representative: rep, provider: provider}
	return provider.BindGroup(), nil
}

func (i *instancer) Queue(frame *Frame, phases *phase.Phases) {
	for _, b := range frame.batches {
		phases.For(phase.ForAlpha(b.alpha)).Add(phase.Item{
			Key:      b.key,
			Distance: b.distance,
			Drawable: b,
		})
	}
}

func (i *instancer) Backing() instance.Backing {
	return i.packer.Backing()
}

func (i *instancer) GPUIndirect() bool {
	return i.gpuIndirect
}

func (i *instancer) Meshes() mesh.Registry {
	return i.meshes
}

func (i *instancer) Materials() material.Registry {
	return i.materials
}

func (i *instancer) Batches() *mesh.BatchSet {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.batches
}

func (i *instancer) Specializer() pipeline.Specializer {
	return i.specializer
}

func (i *instancer) Release() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return
	}

	for _, f := range i.frames {
		f.Release()
	}
	i.frames = nil
	for key, p := range i.meshBuffers {
		p.Release()
		delete(i.meshBuffers, key)
	}
	for key, mb := range i.materialGroups {
		mb.provider.Release()
		delete(i.materialGroups, key)
	}
	i.textures.release()
	i.specializer.Release()
	i.pool.Stop()
	i.released = true
}
