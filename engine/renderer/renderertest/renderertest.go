// Package renderertest provides an in-memory renderer.Device and renderer.RenderPass that record what
// they are asked to do, for tests of code that uploads and draws without a GPU.
package renderertest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// Buffer is a recorded buffer.
type Buffer struct {
	label    string
	Usage    wgpu.BufferUsage
	Data     []byte
	Released bool
}

var _ renderer.Buffer = &Buffer{}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return common.AlignUp(uint64(len(b.Data)), 4) }
func (b *Buffer) Release()      { b.Released = true }

// Texture is a recorded texture.
type Texture struct {
	Label         string
	width, height uint32
	Pixels        []byte
	Released      bool
}

var _ renderer.Texture = &Texture{}

func (t *Texture) Width() uint32  { return t.width }
func (t *Texture) Height() uint32 { return t.height }
func (t *Texture) Release()       { t.Released = true }

// Pipeline is a recorded pipeline.
type Pipeline struct {
	Desc     renderer.PipelineDescriptor
	Released bool
}

var _ renderer.Pipeline = &Pipeline{}

func (p *Pipeline) Label() string { return p.Desc.Label }
func (p *Pipeline) Release()      { p.Released = true }

// BindGroup is a recorded bind group.
type BindGroup struct {
	Desc     renderer.BindGroupDescriptor
	Released bool
}

var _ renderer.BindGroup = &BindGroup{}

func (g *BindGroup) Release() { g.Released = true }

// Device records every resource it creates.
type Device struct {
	mu sync.Mutex

	DeviceLimits   renderer.Limits
	DeviceFeatures renderer.Features

	// FailPipeline, when set, is consulted before creating a pipeline; a non-nil error fails creation.
	FailPipeline func(desc renderer.PipelineDescriptor) error

	// FailBuffer, when set, fails creation of every buffer whose label contains it.
	FailBuffer string

	Buffers    []*Buffer
	Textures   []*Texture
	Pipelines  []*Pipeline
	BindGroups []*BindGroup
}

var _ renderer.Device = &Device{}

// NewDevice returns a device with WebGPU default limits and the given features.
//
// Parameters:
//   - features: the features the device reports
//
// Returns:
//   - *Device: the device
func NewDevice(features renderer.Features) *Device {
	return &Device{
		DeviceLimits: renderer.Limits{
			MaxUniformBufferBindingSize:     65536,
			MaxStorageBufferBindingSize:     134217728,
			MaxStorageBuffersPerShaderStage: 8,
		},
		DeviceFeatures: features,
	}
}

func (d *Device) Limits() renderer.Limits {
	return d.DeviceLimits
}

func (d *Device) Features() renderer.Features {
	return d.DeviceFeatures
}

func (d *Device) CreateBuffer(label string, usage wgpu.BufferUsage, contents []byte) (renderer.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailBuffer != "" && strings.Contains(label, d.FailBuffer) {
		return nil, fmt.Errorf("buffer %q: out of memory", label)
	}
	b := &Buffer{label: label, Usage: usage | wgpu.BufferUsageCopyDst, Data: append([]byte(nil), contents...)}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) CreateTexture(label string, width, height uint32, rgba []byte, _ *common.SamplerStagingData) (renderer.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if uint64(len(rgba)) != uint64(width)*uint64(height)*4 {
		return nil, fmt.Errorf("texture %q: %d bytes of pixel data for %dx%d", label, len(rgba), width, height)
	}
	t := &Texture{Label: label, width: width, height: height, Pixels: append([]byte(nil), rgba...)}
	d.Textures = append(d.Textures, t)
	return t, nil
}

func (d *Device) CreatePipeline(desc renderer.PipelineDescriptor) (renderer.Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailPipeline != nil {
		if err := d.FailPipeline(desc); err != nil {
			return nil, err
		}
	}
	p := &Pipeline{Desc: desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateBindGroup(desc renderer.BindGroupDescriptor) (renderer.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.Pipeline == nil {
		return nil, fmt.Errorf("bind group %q has no pipeline", desc.Label)
	}
	g := &BindGroup{Desc: desc}
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

// LiveBuffers returns the buffers that have not been released.
//
// Returns:
//   - []*Buffer: the live buffers in creation order
func (d *Device) LiveBuffers() []*Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*Buffer
	for _, b := range d.Buffers {
		if !b.Released {
			out = append(out, b)
		}
	}
	return out
}

// Op names a recorded render pass command.
type Op string

const (
	OpSetPipeline         Op = "SetPipeline"
	OpSetBindGroup        Op = "SetBindGroup"
	OpSetVertexBuffer     Op = "SetVertexBuffer"
	OpSetIndexBuffer      Op = "SetIndexBuffer"
	OpDraw                Op = "Draw"
	OpDrawIndexed         Op = "DrawIndexed"
	OpDrawIndirect        Op = "DrawIndirect"
	OpDrawIndexedIndirect Op = "DrawIndexedIndirect"
)

// Command is one recorded render pass call.
type Command struct {
	Op        Op
	Pipeline  *Pipeline
	BindGroup *BindGroup
	Buffer    *Buffer
	Format    wgpu.IndexFormat

	// Args holds the numeric arguments in call order. Offsets and signed values are widened to int64.
	Args []int64
}

// Pass records render pass calls.
type Pass struct {
	Commands []Command
}

var _ renderer.RenderPass = &Pass{}

func (p *Pass) SetPipeline(pl renderer.Pipeline) {
	p.Commands = append(p.Commands, Command{Op: OpSetPipeline, Pipeline: pl.(*Pipeline)})
}

func (p *Pass) SetBindGroup(group uint32, bg renderer.BindGroup) {
	p.Commands = append(p.Commands, Command{Op: OpSetBindGroup, BindGroup: bg.(*BindGroup), Args: []int64{int64(group)}})
}

func (p *Pass) SetVertexBuffer(slot uint32, buf renderer.Buffer) {
	p.Commands = append(p.Commands, Command{Op: OpSetVertexBuffer, Buffer: buf.(*Buffer), Args: []int64{int64(slot)}})
}

func (p *Pass) SetIndexBuffer(buf renderer.Buffer, format wgpu.IndexFormat) {
	p.Commands = append(p.Commands, Command{Op: OpSetIndexBuffer, Buffer: buf.(*Buffer), Format: format})
}

func (p *Pass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.Commands = append(p.Commands, Command{
		Op:   OpDraw,
		Args: []int64{int64(vertexCount), int64(instanceCount), int64(firstVertex), int64(firstInstance)},
	})
}

func (p *Pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.Commands = append(p.Commands, Command{
		Op:   OpDrawIndexed,
		Args: []int64{int64(indexCount), int64(instanceCount), int64(firstIndex), int64(baseVertex), int64(firstInstance)},
	})
}

func (p *Pass) DrawIndirect(buf renderer.Buffer, offset uint64) {
	p.Commands = append(p.Commands, Command{Op: OpDrawIndirect, Buffer: buf.(*Buffer), Args: []int64{int64(offset)}})
}

func (p *Pass) DrawIndexedIndirect(buf renderer.Buffer, offset uint64) {
	p.Commands = append(p.Commands, Command{Op: OpDrawIndexedIndirect, Buffer: buf.(*Buffer), Args: []int64{int64(offset)}})
}

// Draws returns the draw commands in order.
//
// Returns:
//   - []Command: the Draw, DrawIndexed, DrawIndirect and DrawIndexedIndirect commands
func (p *Pass) Draws() []Command {
	var out []Command
	for _, c := range p.Commands {
		switch c.Op {
		case OpDraw, OpDrawIndexed, OpDrawIndirect, OpDrawIndexedIndirect:
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many commands of op were recorded.
//
// Parameters:
//   - op: the command kind
//
// Returns:
//   - int: the count
func (p *Pass) Count(op Op) int {
	n := 0
	for _, c := range p.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}
