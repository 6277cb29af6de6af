// Package profiler reports frame rate, memory and instance batching statistics at a fixed interval.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/instancing"
)

// Report is one interval's worth of statistics.
type Report struct {
	FPS     float64
	HeapMB  float64
	GCCount uint32

	// Frames is the number of ticks in the interval. Batching is the per-frame average of the recorded
	// instancing statistics.
	Frames   int
	Batching instancing.Stats
}

// Profiler tracks frame rate, memory and batching statistics for performance monitoring.
// Outputs a report to the shared logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	batching       instancing.Stats
	last           Report
	now            func() time.Time
}

// NewProfiler creates a new Profiler reporting every interval. An interval of zero reports on every tick.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		now:            time.Now,
	}
}

// Record adds one frame's instancing statistics to the current interval.
//
// Parameters:
//   - stats: the statistics of every view prepared this frame
func (p *Profiler) Record(stats instancing.Stats) {
	p.batching.Add(stats)
}

// Tick should be called once per frame. When the interval has elapsed it logs a report and starts a new
// interval.
//
// Returns:
//   - bool: true if a report was logged this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	r := Report{
		HeapMB:   float64(p.memStats.Alloc) / 1024 / 1024,
		GCCount:  p.memStats.NumGC,
		Frames:   p.frameCount,
		Batching: average(p.batching, p.frameCount),
	}
	if s := elapsed.Seconds(); s > 0 {
		r.FPS = float64(p.frameCount) / s
	}

	common.Logger().Info("profiler",
		"fps", r.FPS,
		"heap_mb", r.HeapMB,
		"gc", r.GCCount,
		"batches", r.Batching.Batches,
		"instances", r.Batching.Instances,
		"draws", r.Batching.Draws,
		"buffers", r.Batching.Buffers,
		"dropped", r.Batching.Dropped,
		"skipped", r.Batching.Skipped,
	)

	p.last = r
	p.frameCount = 0
	p.batching = instancing.Stats{}
	p.lastTime = current
	return true
}

// SetInterval changes the reporting interval. The current interval keeps its frames.
//
// Parameters:
//   - interval: the new reporting interval
func (p *Profiler) SetInterval(interval time.Duration) {
	p.updateInterval = interval
}

// Last returns the most recently logged report.
//
// Returns:
//   - Report: the report, zero before the first one
func (p *Profiler) Last() Report {
	return p.last
}

func average(s instancing.Stats, frames int) instancing.Stats {
	if frames <= 0 {
		return s
	}
	return instancing.Stats{
		Batches:   s.Batches / frames,
		Instances: s.Instances / uint32(frames),
		Draws:     s.Draws / frames,
		Buffers:   s.Buffers / frames,
		Dropped:   s.Dropped / frames,
		Skipped:   s.Skipped / frames,
	}
}
