package bind_group_provider

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/renderertest"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestInitAndRelease(t *testing.T) {
	device := renderertest.NewDevice(renderer.Features{})
	uniform, _ := device.CreateBuffer("uniform", wgpu.BufferUsageUniform, make([]byte, 32))
	tex, err := device.CreateTexture("tex", 1, 1, []byte{255, 255, 255, 255}, nil)
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	pl, _ := device.CreatePipeline(renderer.PipelineDescriptor{Label: "p"})

	p := NewBindGroupProvider("material", WithBuffer(0, uniform), WithTexture(1, 2, tex))
	if err := p.Init(device, pl, renderer.GroupMaterial); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if p.BindGroup() == nil {
		t.Fatalf("BindGroup() = nil after Init()")
	}

	entries := device.BindGroups[0].Desc.Entries
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for i, e := range entries {
		if e.Binding != uint32(i) {
			t.Errorf("entries[%d].Binding = %d, want %d", i, e.Binding, i)
		}
	}
	if entries[0].Buffer != uniform || entries[1].Texture != tex || entries[2].Sampler != tex {
		t.Errorf("entries = %+v, want uniform, texture, sampler", entries)
	}
	if got := device.BindGroups[0].Desc.Group; got != renderer.GroupMaterial {
		t.Errorf("Group = %d, want %d", got, renderer.GroupMaterial)
	}

	p.Release()
	p.Release()
	if !device.Buffers[0].Released {
		t.Errorf("uniform buffer not released")
	}
	if !device.BindGroups[0].Released {
		t.Errorf("bind group not released")
	}
	if device.Textures[0].Released {
		t.Errorf("texture released by a provider that does not own it")
	}
	if p.BindGroup() != nil {
		t.Errorf("BindGroup() after Release() = %v, want nil", p.BindGroup())
	}
}

func TestInitWithoutResources(t *testing.T) {
	device := renderertest.NewDevice(renderer.Features{})
	pl, _ := device.CreatePipeline(renderer.PipelineDescriptor{Label: "p"})
	if err := NewBindGroupProvider("empty").Init(device, pl, 0); err == nil {
		t.Errorf("Init() error = nil, want error")
	}
}

func TestMeshBuffers(t *testing.T) {
	device := renderertest.NewDevice(renderer.Features{})
	vb, _ := device.CreateBuffer("vertices", wgpu.BufferUsageVertex, make([]byte, 48))
	ib, _ := device.CreateBuffer("indices", wgpu.BufferUsageIndex, make([]byte, 6))

	p := NewBindGroupProvider("batch", WithVertexBuffer(vb), WithIndexBuffer(ib, wgpu.IndexFormatUint16))
	if p.VertexBuffer() != vb || p.IndexBuffer() != ib {
		t.Errorf("VertexBuffer(), IndexBuffer() do not return the given buffers")
	}
	if p.IndexFormat() != wgpu.IndexFormatUint16 {
		t.Errorf("IndexFormat() = %v, want %v", p.IndexFormat(), wgpu.IndexFormatUint16)
	}

	p.Release()
	for _, b := range device.Buffers {
		if !b.Released {
			t.Errorf("buffer %q not released", b.Label())
		}
	}
}
