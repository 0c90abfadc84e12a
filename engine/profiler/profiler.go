package profiler

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats is one reporting interval's worth of measurements.
type Stats struct {
	FPS        float64
	TPS        float64
	Heap       uint64
	AllocRate  uint64
	Sys        uint64
	GCCount    uint32
	LastPause  time.Duration
	MaxPause   time.Duration
	Interval   time.Duration
	Simulation uint64
}

// Profiler tracks render frame rate, simulation tick rate and memory statistics.
// Tick is called from the render goroutine and Step from the simulation goroutine.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	steps          atomic.Uint64
	lastSteps      uint64
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
	quiet          bool
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		mu:             &sync.Mutex{},
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetInterval changes how often statistics are computed and logged.
func (p *Profiler) SetInterval(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.updateInterval = d
	}
}

// SetQuiet suppresses the log line while still computing statistics.
func (p *Profiler) SetQuiet(quiet bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quiet = quiet
}

// Step records one simulation tick. Safe from any goroutine.
func (p *Profiler) Step() {
	p.steps.Add(1)
}

// Last returns the statistics from the most recent completed interval.
func (p *Profiler) Last() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Tick should be called once per rendered frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, simulation ticks per second, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were computed this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	steps := p.steps.Load()

	// Alloc: live heap. TotalAlloc: cumulative (tracks churn). Sys: process footprint.
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	stats := Stats{
		FPS:        float64(p.frameCount) / elapsed.Seconds(),
		TPS:        float64(steps-p.lastSteps) / elapsed.Seconds(),
		Heap:       p.memStats.Alloc,
		AllocRate:  uint64(float64(allocDelta) / elapsed.Seconds()),
		Sys:        p.memStats.Sys,
		GCCount:    p.memStats.NumGC,
		Interval:   elapsed,
		Simulation: steps,
	}

	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		stats.LastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := time.Duration(p.memStats.PauseNs[i%256]); pause > stats.MaxPause {
				stats.MaxPause = pause
			}
		}
	}

	if !p.quiet {
		log.Printf("[Profiler] FPS: %.2f | TPS: %.2f | Heap: %s | Alloc Rate: %s/s | GC: %d (last: %s, max: %s) | Sys: %s",
			stats.FPS, stats.TPS, humanize.Bytes(stats.Heap), humanize.Bytes(stats.AllocRate),
			stats.GCCount, stats.LastPause, stats.MaxPause, humanize.Bytes(stats.Sys))
	}

	p.frameCount = 0
	p.lastSteps = steps
	p.lastTime = currentTime
	p.lastGCCount = stats.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = stats
	return true
}
