package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-instancing/engine/instancing"
)

func TestTickReportsAverages(t *testing.T) {
	start := time.Unix(100, 0)
	clock := start
	p := NewProfiler(time.Second)
	p.lastTime = start
	p.now = func() time.Time { return clock }

	for range 3 {
		p.Record(instancing.Stats{Batches: 2, Instances: 100, Draws: 4, Buffers: 2})
		if p.Tick() {
			t.Fatalf("Tick() = true before the interval elapsed")
		}
	}

	clock = start.Add(2 * time.Second)
	p.Record(instancing.Stats{Batches: 2, Instances: 100, Draws: 4, Buffers: 2, Skipped: 4})
	if !p.Tick() {
		t.Fatalf("Tick() = false after the interval elapsed")
	}

	r := p.Last()
	if r.Frames != 4 || r.FPS != 2 {
		t.Errorf("Frames, FPS = %d, %v, want 4, 2", r.Frames, r.FPS)
	}
	want := instancing.Stats{Batches: 2, Instances: 100, Draws: 4, Buffers: 2, Skipped: 1}
	if r.Batching != want {
		t.Errorf("Batching = %+v, want %+v", r.Batching, want)
	}

	p.Record(instancing.Stats{Batches: 1})
	clock = clock.Add(time.Second)
	p.Tick()
	if got := p.Last().Batching.Batches; got != 1 {
		t.Errorf("Batching.Batches after reset = %d, want 1", got)
	}
}
