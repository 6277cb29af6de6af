package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/asset"
	"github.com/Carmen-Shannon/oxy-instancing/engine/config"
	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/Carmen-Shannon/oxy-instancing/engine/instancing"
	"github.com/Carmen-Shannon/oxy-instancing/engine/mesh"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-instancing/engine/view"
	"github.com/go-gl/mathgl/mgl32"
)

// fakeRenderer hands out recording passes on a renderertest device.
type fakeRenderer struct {
	device    *renderertest.Device
	passes    []*renderertest.Pass
	beginErr  error
	ended     int
	presented int
	resized   [2]int
	released  bool
}

var _ renderer.Renderer = &fakeRenderer{}

func (r *fakeRenderer) Device() renderer.Device                  { return r.device }
func (r *fakeRenderer) Resize(width, height int)                 { r.resized = [2]int{width, height} }
func (r *fakeRenderer) SetPresentMode(mode renderer.PresentMode) {}
func (r *fakeRenderer) EndFrame()                                { r.ended++ }
func (r *fakeRenderer) Present()                                 { r.presented++ }
func (r *fakeRenderer) Release()                                 { r.released = true }

func (r *fakeRenderer) BeginFrame() (renderer.RenderPass, error) {
	if r.beginErr != nil {
		return nil, r.beginErr
	}
	p := &renderertest.Pass{}
	r.passes = append(r.passes, p)
	return p, nil
}

var (
	cubeID   = asset.NamedID("cube")
	opaqueID = asset.NamedID("opaque")
	blendID  = asset.NamedID("blend")
)

func newTestEngine(t *testing.T) (*engine, *fakeRenderer) {
	t.Helper()
	fr := &fakeRenderer{device: renderertest.NewDevice(renderer.Features{VertexStorage: true})}
	inst := instancing.NewInstancer(fr.device,
		instancing.WithWorkers(2),
		instancing.WithSpecializerOptions(pipeline.WithValidator(nil)),
	)
	t.Cleanup(inst.Release)

	inst.ApplyMeshEvents([]asset.Event[mesh.Mesh]{asset.CreatedEvent(cubeID, mesh.Cube("cube"))})
	inst.ApplyMaterialEvents([]asset.Event[material.Material]{
		asset.CreatedEvent(opaqueID, material.NewBasicMaterial(material.WithName("opaque"))),
		asset.CreatedEvent(blendID, material.NewCustomMaterial(material.WithName("blend"), material.WithAlphaMode(material.AlphaBlend))),
	})

	e := NewEngine(WithRenderer(fr), WithInstancer(inst)).(*engine)
	return e, fr
}

func cubes(materialID asset.ID, first instance.Entity, n int) []instance.Instance {
	out := make([]instance.Instance, n)
	for i := range out {
		out[i] = instance.Instance{
			Entity:    first + instance.Entity(i),
			Mesh:      cubeID,
			Material:  materialID,
			Transform: mgl32.Translate3D(float32(i), 0, -5),
		}
	}
	return out
}

func TestRenderFrameDrawsEveryView(t *testing.T) {
	e, fr := newTestEngine(t)
	instances := append(cubes(opaqueID, 1, 4), cubes(blendID, 100, 2)...)
	e.SetViewCallback(func(float32) []instancing.ViewInput {
		return []instancing.ViewInput{
			{View: view.NewView(1), Instances: instances},
			{View: view.NewView(2), Instances: cubes(opaqueID, 1, 4)},
		}
	})

	drawn := e.renderFrame(1.0 / 60)
	if drawn != 3 {
		t.Errorf("renderFrame() = %d, want 3", drawn)
	}
	if len(fr.passes) != 1 || fr.ended != 1 || fr.presented != 1 {
		t.Fatalf("passes, EndFrame, Present = %d, %d, %d, want 1, 1, 1", len(fr.passes), fr.ended, fr.presented)
	}
	if got := len(fr.passes[0].Draws()); got != 3 {
		t.Errorf("draw commands = %d, want 3", got)
	}
	for i, ph := range e.phases {
		if ph.Len() != 0 {
			t.Errorf("phases[%d].Len() = %d after the frame, want 0", i, ph.Len())
		}
	}
}

func TestRenderFrameSkipsFailedBegin(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantQuit bool
	}{
		{"surface outdated", errors.New("surface outdated"), false},
		{"device lost", fmt.Errorf("begin frame: %w", common.ErrDeviceLost), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, fr := newTestEngine(t)
			fr.beginErr = tt.err
			e.SetViewCallback(func(float32) []instancing.ViewInput {
				return []instancing.ViewInput{{View: view.NewView(1), Instances: cubes(opaqueID, 1, 1)}}
			})

			if drawn := e.renderFrame(0); drawn != 0 {
				t.Errorf("renderFrame() = %d, want 0", drawn)
			}
			if fr.presented != 0 {
				t.Errorf("Present() called %d times, want 0", fr.presented)
			}

			quit := false
			select {
			case <-e.quitChannel:
				quit = true
			default:
			}
			if quit != tt.wantQuit {
				t.Errorf("quit = %v, want %v", quit, tt.wantQuit)
			}
			if tt.wantQuit && e.ctx.Err() == nil {
				t.Errorf("ctx.Err() = nil after quit, want cancelled")
			}
		})
	}
}

func TestResize(t *testing.T) {
	e, fr := newTestEngine(t)
	var got [2]int
	e.SetResizeCallback(func(w, h int) { got = [2]int{w, h} })

	e.resize(0, 0)
	if fr.resized != [2]int{} || got != [2]int{} {
		t.Errorf("resize(0, 0) reached the renderer or callback")
	}
	e.resize(800, 600)
	if fr.resized != [2]int{800, 600} || got != [2]int{800, 600} {
		t.Errorf("resized, callback = %v, %v, want [800 600]", fr.resized, got)
	}
}

func TestApplyConfig(t *testing.T) {
	e, _ := newTestEngine(t)

	c := config.Default()
	c.ProfilerInterval = "5s"
	c.Indirect = "cpu"
	e.ApplyConfig(c)
	if got := e.Config().ProfilerEvery(); got != 5*time.Second {
		t.Errorf("ProfilerEvery() = %v, want 5s", got)
	}

	bad := c
	bad.LogLevel = "loud"
	e.ApplyConfig(bad)
	if got := e.Config().LogLevel; got != c.LogLevel {
		t.Errorf("LogLevel = %q after an invalid config, want %q", got, c.LogLevel)
	}
}

func TestInstancerOptions(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*config.Config)
		features     renderer.Features
		wantBacking  instance.Backing
		wantIndirect bool
	}{
		{
			name:         "defaults on a capable device",
			mutate:       func(*config.Config) {},
			features:     renderer.Features{VertexStorage: true, IndirectFirstInstance: true},
			wantBacking:  instance.BackingStorage,
			wantIndirect: true,
		},
		{
			name: "forced uniform and cpu",
			mutate: func(c *config.Config) {
				c.InstanceBuffer = "uniform"
				c.Indirect = "cpu"
			},
			features:     renderer.Features{VertexStorage: true, IndirectFirstInstance: true},
			wantBacking:  instance.BackingUniform,
			wantIndirect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			c.ValidateShaders = false
			tt.mutate(&c)
			opts, err := InstancerOptions(c)
			if err != nil {
				t.Fatalf("InstancerOptions() error = %v", err)
			}
			inst := instancing.NewInstancer(renderertest.NewDevice(tt.features), opts...)
			defer inst.Release()
			if inst.Backing() != tt.wantBacking || inst.GPUIndirect() != tt.wantIndirect {
				t.Errorf("Backing(), GPUIndirect() = %v, %v, want %v, %v", inst.Backing(), inst.GPUIndirect(), tt.wantBacking, tt.wantIndirect)
			}
		})
	}

	c := config.Default()
	c.Indirect = "sometimes"
	if _, err := InstancerOptions(c); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("InstancerOptions() error = %v, want %v", err, common.ErrInvalidConfig)
	}
}

func TestTickRateOptions(t *testing.T) {
	fr := &fakeRenderer{device: renderertest.NewDevice(renderer.Features{})}
	e := NewEngine(WithRenderer(fr), WithTickRate(30), WithRenderFrameLimit(120)).(*engine)
	defer e.instancer.Release()

	if e.engineTickRate != time.Second/30 {
		t.Errorf("engineTickRate = %v, want %v", e.engineTickRate, time.Second/30)
	}
	if e.renderFrameLimit != time.Second/120 {
		t.Errorf("renderFrameLimit = %v, want %v", e.renderFrameLimit, time.Second/120)
	}
	e.SetRenderFrameLimit(0)
	if e.renderFrameLimit != 0 {
		t.Errorf("renderFrameLimit = %v after SetRenderFrameLimit(0), want 0", e.renderFrameLimit)
	}
}
