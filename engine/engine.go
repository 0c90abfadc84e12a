package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gallery/engine/scene"
	"github.com/Carmen-Shannon/oxy-gallery/engine/window"
)

// FrameRenderer draws the frame a scene published at the end of its last tick.
type FrameRenderer interface {
	// Render draws one frame.
	//
	// Parameters:
	//   - frame: the draw list; nil draws only the clear colour
	//
	// Returns:
	//   - error: error if the frame could not be presented
	Render(frame *scene.Frame) error

	// Resize reconfigures the output surface.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	Resize(width, height int)
}

// Event is a unit of input work applied to the current scene on the simulation goroutine.
type Event func(s scene.Scene)

// engine implements the Engine interface.
// Coordinates the simulation, render, and window threads.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer FrameRenderer

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scene      scene.Scene
	sceneStart time.Time
	events     []Event

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastRendered     uint64
	lastGeneration   uint64
	renderFailures   int
}

// Engine is the main entry point for the engine.
// It owns the active scene and drives it: input events are queued with Post and drained on the
// simulation goroutine before each Tick, and the render goroutine draws whatever frame the scene
// last published.
type Engine interface {
	// Window returns the underlying window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Profiler returns the engine's profiler.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the simulation tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called after each simulation tick.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetScene installs s as the active scene and disposes the previous one.
	// Events still queued for the previous scene are applied to s instead.
	//
	// Parameters:
	//   - s: the scene to run
	//
	// Returns:
	//   - error: scene.ErrDisposed if s has already been disposed
	SetScene(s scene.Scene) error

	// Scene returns the active scene, or nil.
	//
	// Returns:
	//   - scene.Scene: the active scene
	Scene() scene.Scene

	// Post queues an event for the simulation goroutine. Never blocks.
	// The queue is drained completely before each tick.
	//
	// Parameters:
	//   - ev: the event to apply to the active scene
	Post(ev Event)

	// Running reports whether the loops are active.
	//
	// Returns:
	//   - bool: true between Run and Quit
	Running() bool

	// Run starts the simulation and render loops and blocks until the window closes or Quit is called.
	// Without a window Run blocks until Quit.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.renderer != nil {
				e.renderer.Resize(width, height)
			}
			e.Post(func(s scene.Scene) { s.Resize(width, height) })
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Running() bool {
	return e.running.Load()
}

func (e *engine) Run() {
	e.running.Store(true)
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}
	e.wg.Wait()
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
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the simulation and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate simulation loop in its own goroutine.
// Each tick drains the event queue, advances the active scene, then fires the tick callback.
// Listens for dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] simulation goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

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
			e.step(now)

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// step applies queued events and ticks the active scene once.
func (e *engine) step(now time.Time) {
	if !e.running.Load() {
		return
	}
	e.mu.Lock()
	s, start := e.scene, e.sceneStart
	events := e.events
	e.events = nil
	e.mu.Unlock()

	if s == nil || s.Disposed() {
		return
	}
	for _, ev := range events {
		ev(s)
	}
	s.Tick(now.Sub(start))
	if e.profilingEnabled.Load() {
		e.profiler.Step()
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Draws the active scene's most recent frame; a frame is only redrawn when the simulation
// published a new one. Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			drew := e.renderFrame()

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if drew && e.profilingEnabled.Load() {
				e.profiler.Tick()
			}

			limit := e.renderFrameLimit
			if limit <= 0 && !drew {
				// nothing new to draw; yield instead of spinning
				limit = e.engineTickRate / 4
			}
			if limit > 0 {
				if remaining := limit - time.Since(lastRender); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame draws the active scene's latest frame if it has not been drawn yet.
// Repeated surface failures are logged once per streak.
func (e *engine) renderFrame() bool {
	if e.renderer == nil {
		return false
	}
	e.mu.Lock()
	s := e.scene
	e.mu.Unlock()
	if s == nil || s.Disposed() {
		return false
	}
	frame := s.CurrentFrame()
	if frame == nil || (frame.Tick == e.lastRendered && frame.Generation == e.lastGeneration) {
		return false
	}
	e.lastRendered, e.lastGeneration = frame.Tick, frame.Generation

	if err := e.renderer.Render(frame); err != nil {
		if e.renderFailures == 0 {
			log.Printf("[Engine] render failed: %v", err)
		}
		e.renderFailures++
		return false
	}
	if e.renderFailures > 0 {
		log.Printf("[Engine] render recovered after %d failed frames", e.renderFailures)
		e.renderFailures = 0
	}
	return true
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the simulation tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
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

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetScene(s scene.Scene) error {
	if s == nil || s.Disposed() {
		return scene.ErrDisposed
	}
	e.mu.Lock()
	prev := e.scene
	e.scene = s
	e.sceneStart = time.Now()
	e.mu.Unlock()

	if prev != nil && prev != s {
		prev.Dispose()
	}
	if e.window != nil {
		width, height := e.window.Width(), e.window.Height()
		e.Post(func(s scene.Scene) { s.Resize(width, height) })
	}
	log.Printf("[Engine] scene %q (generation %d) installed", s.Name(), s.Generation())
	return nil
}

func (e *engine) Scene() scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene
}

func (e *engine) Post(ev Event) {
	if ev == nil {
		return
	}
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}
