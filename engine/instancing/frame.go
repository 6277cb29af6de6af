package instancing

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/indirect"
	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-instancing/engine/view"
)

// drawGroup holds the draws issued against one instance buffer.
type drawGroup struct {
	instances bind_group_provider.BindGroupProvider

	// indirect holds the group's draw records on the GPU, nil when draws are issued from the CPU.
	indirect   renderer.Buffer
	records    []indirect.Record
	recordSize uint64
}

// Batch is one instance batch of a frame, ready to be drawn: a pipeline, the mesh batch buffers, the
// material bind group and one or more instance buffers with their draw records.
type Batch struct {
	key       instance.BatchKey
	alpha     material.AlphaMode
	distance  float32
	pipeline  pipeline.Pipeline
	mesh      bind_group_provider.BindGroupProvider
	material  renderer.BindGroup
	view      renderer.BindGroup
	draws     []drawGroup
	instances uint32
	slices    []instance.SliceRange
	released  bool
}

// Key returns the batch key.
func (b *Batch) Key() instance.BatchKey {
	return b.key
}

// Alpha returns the alpha mode shared by the batch's materials.
func (b *Batch) Alpha() material.AlphaMode {
	return b.alpha
}

// Distance returns the distance the batch is sorted by inside its render phase.
func (b *Batch) Distance() float32 {
	return b.distance
}

// Pipeline returns the specialized pipeline the batch draws with.
func (b *Batch) Pipeline() pipeline.Pipeline {
	return b.pipeline
}

// Instances returns the number of instance slots the batch draws, reserved slice slots included.
func (b *Batch) Instances() uint32 {
	return b.instances
}

// Slices returns where the batch's instance slices were placed. Offsets count instances from the start
// of the batch.
func (b *Batch) Slices() []instance.SliceRange {
	return b.slices
}

// Buffers returns the number of instance buffers the batch is split across.
func (b *Batch) Buffers() int {
	return len(b.draws)
}

// Records returns the draw records in submission order.
//
// Returns:
//   - []indirect.Record: the records of every instance buffer, in buffer order
func (b *Batch) Records() []indirect.Record {
	var out []indirect.Record
	for _, d := range b.draws {
		out = append(out, d.records...)
	}
	return out
}

// Indirect reports whether the batch issues its draws from GPU indirect buffers.
func (b *Batch) Indirect() bool {
	return len(b.draws) > 0 && b.draws[0].indirect != nil
}

// Draw records the batch into pass: the pipeline, the view bind group, the vertex buffer, the index
// buffer for indexed batches and the material bind group, then for every instance buffer its bind group
// followed by one draw per record.
//
// Parameters:
//   - pass: the render pass
//
// Returns:
//   - error: an error if the batch's frame has been released
func (b *Batch) Draw(pass renderer.RenderPass) error {
	if b.released {
		return fmt.Errorf("batch %s: %w", b.key, common.ErrReleased)
	}

	pass.SetPipeline(b.pipeline.Handle())
	pass.SetBindGroup(renderer.GroupView, b.view)
	pass.SetVertexBuffer(0, b.mesh.VertexBuffer())
	if b.key.Mesh.Indexed() {
		pass.SetIndexBuffer(b.mesh.IndexBuffer(), b.mesh.IndexFormat())
	}
	pass.SetBindGroup(renderer.GroupMaterial, b.material)

	for _, d := range b.draws {
		pass.SetBindGroup(renderer.GroupInstance, d.instances.BindGroup())
		for i, r := range d.records {
			switch {
			case d.indirect != nil && r.Indexed:
				pass.DrawIndexedIndirect(d.indirect, uint64(i)*d.recordSize)
			case d.indirect != nil:
				pass.DrawIndirect(d.indirect, uint64(i)*d.recordSize)
			case r.Indexed:
				pass.DrawIndexed(r.Count, r.InstanceCount, r.First, r.BaseVertex, r.FirstInstance)
			default:
				pass.Draw(r.Count, r.InstanceCount, r.First, r.FirstInstance)
			}
		}
	}
	return nil
}

func (b *Batch) release() {
	for _, d := range b.draws {
		d.instances.Release()
		if d.indirect != nil {
			d.indirect.Release()
		}
	}
	b.draws = nil
	b.released = true
}

// Stats summarizes what a frame prepared.
type Stats struct {
	Batches   int
	Instances uint32
	Draws     int
	Buffers   int

	// Dropped counts visible instances and slices whose mesh or material was not prepared.
	Dropped int

	// Skipped counts batches left out because their pipeline or buffers could not be created.
	Skipped int
}

// Add accumulates o into s.
//
// Parameters:
//   - o: the stats to add
func (s *Stats) Add(o Stats) {
	s.Batches += o.Batches
	s.Instances += o.Instances
	s.Draws += o.Draws
	s.Buffers += o.Buffers
	s.Dropped += o.Dropped
	s.Skipped += o.Skipped
}

// Frame holds one view's prepared batches. It owns the view uniform and every per-frame instance and
// indirect buffer, which are freed when the frame is released.
type Frame struct {
	view     view.ID
	uniform  bind_group_provider.BindGroupProvider
	batches  []*Batch
	stats    Stats
	released bool
}

// View returns the ID of the view the frame was prepared for.
func (f *Frame) View() view.ID {
	return f.view
}

// Batches returns the frame's batches in ascending batch key order.
//
// Returns:
//   - []*Batch: the batches
func (f *Frame) Batches() []*Batch {
	return f.batches
}

// Batch returns the batch for key.
//
// Parameters:
//   - key: the batch key
//
// Returns:
//   - *Batch: the batch, nil if absent
//   - bool: whether the frame has a batch for key
func (f *Frame) Batch(key instance.BatchKey) (*Batch, bool) {
	for _, b := range f.batches {
		if b.key == key {
			return b, true
		}
	}
	return nil, false
}

// Slices returns the slice ranges of every batch in batch order.
//
// Returns:
//   - []instance.SliceRange: the slice ranges
func (f *Frame) Slices() []instance.SliceRange {
	var out []instance.SliceRange
	for _, b := range f.batches {
		out = append(out, b.slices...)
	}
	return out
}

// Stats returns what the frame prepared.
func (f *Frame) Stats() Stats {
	return f.stats
}

// Draw records every batch into pass in batch key order, bypassing render phases. A batch that fails
// to draw is logged and the rest are still drawn.
//
// Parameters:
//   - pass: the render pass
//
// Returns:
//   - int: the number of batches drawn
func (f *Frame) Draw(pass renderer.RenderPass) int {
	drawn := 0
	for _, b := range f.batches {
		if err := b.Draw(pass); err != nil {
			common.Logger().Error("batch draw failed", "batch", b.key, "err", err)
			continue
		}
		drawn++
	}
	return drawn
}

// Release frees the frame's GPU buffers. Releasing twice is a no-op.
func (f *Frame) Release() {
	if f.released {
		return
	}
	for _, b := range f.batches {
		b.release()
	}
	if f.uniform != nil {
		f.uniform.Release()
	}
	f.released = true
}
