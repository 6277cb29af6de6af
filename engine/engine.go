package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/Carmen-Shannon/oxy-instancing/engine/config"
	"github.com/Carmen-Shannon/oxy-instancing/engine/instancing"
	"github.com/Carmen-Shannon/oxy-instancing/engine/phase"
	"github.com/Carmen-Shannon/oxy-instancing/engine/profiler"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-instancing/engine/window"
)

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	configChannel   chan config.Config // Channel for configuration reloads picked up by the render loop

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	shutdownOnce sync.Once

	// ctx is cancelled on quit so in-flight view preparation stops early.
	ctx    context.Context
	cancel context.CancelFunc

	cfg config.Config

	window    window.Window
	renderer  renderer.Renderer
	instancer instancing.Instancer

	// phases holds one reusable set of render phases per view index.
	phases []*phase.Phases

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	viewCallback   func(deltaTime float32) []instancing.ViewInput
	resizeCallback func(width, height int)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the demo host around the instancing subsystem.
// It runs the fixed-rate tick loop, the render loop and the window message loop, and drives the
// instancer's update, prepare, queue and draw steps once per rendered frame.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, nil when the engine was built without one
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Instancer returns the instancing subsystem. Mesh, material and texture events may be applied to it
	// from the tick callback; they take effect on the next rendered frame.
	//
	// Returns:
	//   - instancing.Instancer: the instancer
	Instancer() instancing.Instancer

	// Config returns the configuration currently in effect.
	//
	// Returns:
	//   - config.Config: the configuration
	Config() config.Config

	// ApplyConfig applies a reloaded configuration. The log level and profiler interval change on the
	// next rendered frame. Instancer settings are fixed at construction; changes to them are logged and
	// ignored.
	//
	// Parameters:
	//   - c: the new configuration
	ApplyConfig(c config.Config)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for scene logic and for applying asset events to the instancer.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetViewCallback registers the function called each render frame to collect the views to draw and
	// their instances.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds and returning the frame's views
	SetViewCallback(callback func(deltaTime float32) []instancing.ViewInput)

	// SetResizeCallback registers the function called after the renderer has been resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height
	SetResizeCallback(callback func(width, height int))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the engine loops and the window message loop. It blocks until the window closes, then
	// stops the loops and releases the instancer and renderer.
	Run()

	// Quit signals all engine goroutines to stop and closes the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Components not supplied through options are created from the configuration: a window sized by
// cfg.Window, a WebGPU renderer presenting to it, and an instancer on the renderer's device.
// NewEngine panics if the configuration is invalid.
//
// Parameters:
//   - options: functional options for engine configuration (config, components, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		configChannel:   make(chan config.Config, 1),
		quitChannel:     make(chan struct{}),
		cfg:             config.Default(),
		running:         false,
		wg:              sync.WaitGroup{},
		engineTickRate:  time.Second / 60,
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	for _, opt := range options {
		opt(e)
	}

	if err := e.cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid engine config: %v", err))
	}
	if err := common.SetLogLevel(e.cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("invalid engine config: %v", err))
	}
	e.profiler = profiler.NewProfiler(e.cfg.ProfilerEvery())

	if e.window == nil && e.renderer == nil {
		e.window = window.NewWindow(
			window.WithTitle(e.cfg.Window.Title),
			window.WithWidth(e.cfg.Window.Width),
			window.WithHeight(e.cfg.Window.Height),
		)
	}
	if e.renderer == nil {
		e.renderer = renderer.NewRenderer(renderer.BackendTypeWGPU, e.window)
	}
	if e.instancer == nil {
		opts, err := InstancerOptions(e.cfg)
		if err != nil {
			panic(fmt.Sprintf("invalid engine config: %v", err))
		}
		e.instancer = instancing.NewInstancer(e.renderer.Device(), opts...)
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				e.shutdown()
			default:
			}
		})
	}

	return e
}

// InstancerOptions translates the instancing settings of c into instancer options.
//
// Parameters:
//   - c: the configuration
//
// Returns:
//   - []instancing.InstancerBuilderOption: the options
//   - error: ErrInvalidConfig if the indirect mode is unknown
func InstancerOptions(c config.Config) ([]instancing.InstancerBuilderOption, error) {
	mode, err := instancing.ParseIndirectMode(c.Indirect)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	opts := []instancing.InstancerBuilderOption{
		instancing.WithInstanceBuffer(c.InstanceBuffer),
		instancing.WithUniformCapacity(c.UniformCapacityOverride),
		instancing.WithIndirectMode(mode),
		instancing.WithWorkers(c.WorkerCount()),
		instancing.WithQueueSize(c.WorkerQueue),
	}
	if !c.ValidateShaders {
		opts = append(opts, instancing.WithSpecializerOptions(pipeline.WithValidator(nil)))
	}
	return opts, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Instancer() instancing.Instancer {
	return e.instancer
}

func (e *engine) Config() config.Config {
	return e.cfg
}

// ApplyConfig hands c to the render loop when running, or applies it directly otherwise.
// Only the latest pending configuration is kept.
func (e *engine) ApplyConfig(c config.Config) {
	if !e.running {
		e.applyConfig(c)
		return
	}
	select {
	case e.configChannel <- c:
	default:
		select {
		case <-e.configChannel:
		default:
		}
		e.configChannel <- c
	}
}

func (e *engine) applyConfig(c config.Config) {
	if err := c.Validate(); err != nil {
		common.Logger().Warn("config rejected", "err", err)
		return
	}
	if err := common.SetLogLevel(c.LogLevel); err != nil {
		common.Logger().Warn("config rejected", "err", err)
		return
	}
	e.profiler.SetInterval(c.ProfilerEvery())

	old := e.cfg
	if old.InstanceBuffer != c.InstanceBuffer ||
		old.UniformCapacityOverride != c.UniformCapacityOverride ||
		old.Indirect != c.Indirect ||
		old.WorkerCount() != c.WorkerCount() ||
		old.WorkerQueue != c.WorkerQueue ||
		old.ValidateShaders != c.ValidateShaders {
		common.Logger().Warn("instancer settings changed; restart to apply",
			"instance_buffer", c.InstanceBuffer,
			"indirect", c.Indirect,
			"workers", c.WorkerCount(),
		)
	}
	e.cfg = c
	common.Logger().Debug("config applied", "log_level", c.LogLevel, "profiler_interval", c.ProfilerEvery())
}

func (e *engine) Run() {
	e.running = true
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
	} else {
		<-e.quitChannel
	}
	e.shutdown()
}

// shutdown stops the loops, releases GPU resources and then closes the window. It runs on the window's
// thread and only once.
func (e *engine) shutdown() {
	e.shutdownOnce.Do(func() {
		e.signalQuit()
		e.wg.Wait()
		e.instancer.Release()
		e.renderer.Release()
		if e.window != nil {
			_ = e.window.Close()
		}
	})
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		e.cancel()
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case c := <-e.configChannel:
			e.applyConfig(c)
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.renderFrame(dt)

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame runs one frame of the instancing pipeline: registry update, per-view preparation, and one
// render pass in which each view's batches are queued into its phases and drawn. It returns the number
// of batches drawn.
func (e *engine) renderFrame(dt float32) int {
	e.instancer.Update()

	var views []instancing.ViewInput
	if e.viewCallback != nil {
		views = e.viewCallback(dt)
	}

	frames, err := e.instancer.Prepare(e.ctx, views)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			common.Logger().Error("prepare failed", "err", err)
		}
		return 0
	}

	pass, err := e.renderer.BeginFrame()
	if err != nil {
		if errors.Is(err, common.ErrDeviceLost) {
			common.Logger().Error("stopping render loop", "err", err)
			e.signalQuit()
			return 0
		}
		common.Logger().Debug("frame skipped", "err", err)
		return 0
	}

	var (
		drawn int
		stats instancing.Stats
	)
	for i, f := range frames {
		ph := e.phasesFor(i)
		e.instancer.Queue(f, ph)
		drawn += ph.Render(pass)
		ph.Clear()
		stats.Add(f.Stats())
	}

	e.renderer.EndFrame()
	e.renderer.Present()
	e.profiler.Record(stats)
	return drawn
}

// phasesFor returns the reusable phases of view index i, growing the set as needed.
func (e *engine) phasesFor(i int) *phase.Phases {
	for len(e.phases) <= i {
		e.phases = append(e.phases, phase.NewPhases())
	}
	return e.phases[i]
}

// resize forwards a framebuffer resize to the renderer and then to the resize callback.
// Zero sizes (minimised windows) are ignored.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.renderer.Resize(width, height)
	if e.resizeCallback != nil {
		e.resizeCallback(width, height)
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetViewCallback registers the function collecting each frame's views.
func (e *engine) SetViewCallback(callback func(deltaTime float32) []instancing.ViewInput) {
	e.viewCallback = callback
}

// SetResizeCallback registers the function called after a resize.
func (e *engine) SetResizeCallback(callback func(width, height int)) {
	e.resizeCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
