// Package texture streams gallery artwork off the frame tick.
// Fetch and decode run on a worker pool; completions are delivered on a channel that only the
// frame tick drains, so per-object load state has a single writer.
package texture

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl32"
)

// LoadState is the per-object texture lifecycle.
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// Result is the outcome of one fetch+decode task.
type Result struct {
	Index      int
	Generation uint64
	Data       common.TextureStagingData
	Err        error
}

// Streamer schedules texture loads and tracks their state.
// Every method except the task bodies must be called from the frame tick.
type Streamer interface {
	// Count returns the number of objects the streamer tracks.
	Count() int

	// State returns the load state of the object at index.
	// Out-of-range indices report Unloaded.
	State(index int) LoadState

	// Loaded returns the number of successfully loaded objects.
	Loaded() int

	// Ready reports whether the ready latch has fired.
	Ready() bool

	// Request queues a load for index. It is a no-op for objects that are loading, loaded,
	// have no source, or when the streamer is disposed.
	//
	// Parameters:
	//   - index: the object index
	//
	// Returns:
	//   - bool: true if a task was submitted
	Request(index int) bool

	// RequestInitial queues the first batch of objects in index order.
	//
	// Returns:
	//   - int: the number of tasks submitted
	RequestInitial() int

	// RequestAdjacent queues index and its wrapping predecessor and successor.
	//
	// Parameters:
	//   - index: the newly focused object
	//
	// Returns:
	//   - int: the number of tasks submitted
	RequestAdjacent(index int) int

	// RequestNear queues every object closer to eye than the load distance.
	//
	// Parameters:
	//   - eye: the camera position
	//   - positions: object world positions indexed like the sources
	//
	// Returns:
	//   - int: the number of tasks submitted
	RequestNear(eye mgl32.Vec3, positions []mgl32.Vec3) int

	// Drain consumes every completed task without blocking. Successful results are passed to
	// apply; failures return the object to Unloaded so it can be retried. Results from another
	// generation or arriving after Dispose are discarded.
	//
	// Parameters:
	//   - apply: receives successfully decoded textures
	//
	// Returns:
	//   - bool: true only on the drain that fired the ready latch
	Drain(apply func(Result)) bool

	// Dispose cancels in-flight fetches. Later completions are dropped.
	Dispose()

	// Disposed reports whether Dispose has been called.
	Disposed() bool
}

type streamer struct {
	mu *sync.Mutex

	sources   []string
	states    []LoadState
	loaded    int
	staged    uint64
	threshold int
	ready     bool

	generation   uint64
	initialBatch int
	loadDistance float32
	maxDim       int
	workers      int

	fetcher Fetcher
	tasks   chan worker.Task
	stop    chan int
	results chan Result
	nextID  int

	ctx      context.Context
	cancel   context.CancelFunc
	disposed bool
}

var _ Streamer = &streamer{}

// NewStreamer creates a Streamer over the given image sources, one per object.
// Empty sources are never requested and do not count toward the ready threshold.
//
// Parameters:
//   - ctx: parent context; cancelling it cancels all fetches
//   - sources: image URL or path per object, in index order
//   - fetcher: the byte source for images
//   - options: functional options for the streamer
//
// Returns:
//   - Streamer: the new streamer
func NewStreamer(ctx context.Context, sources []string, fetcher Fetcher, options ...StreamerBuilderOption) Streamer {
	s := &streamer{
		mu:           &sync.Mutex{},
		sources:      append([]string(nil), sources...),
		states:       make([]LoadState, len(sources)),
		initialBatch: 8,
		loadDistance: 18,
		maxDim:       2048,
		workers:      4,
		fetcher:      fetcher,
	}
	for _, opt := range options {
		opt(s)
	}

	loadable := 0
	for _, src := range s.sources {
		if src != "" {
			loadable++
		}
	}
	s.threshold = min(loadable, 3)

	s.ctx, s.cancel = context.WithCancel(ctx)
	// Each index has at most one task in flight, so a buffer of len(sources) never blocks a worker.
	s.results = make(chan Result, max(len(s.sources), 1))
	s.tasks = make(chan worker.Task, max(len(s.sources), 1))
	// Workers exit when stop is closed. A sent id is consumed by whichever worker reads it.
	s.stop = make(chan int)
	for i := range s.workers {
		worker.NewWorker(i, s.tasks, s.stop, time.Second, nil).Start()
	}
	return s
}

func (s *streamer) Count() int {
	return len(s.states)
}

func (s *streamer) State(index int) LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.states) {
		return Unloaded
	}
	return s.states[index]
}

func (s *streamer) Loaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *streamer) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *streamer) Request(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request(index)
}

func (s *streamer) RequestInitial() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := 0; i < min(s.initialBatch, len(s.states)); i++ {
		if s.request(i) {
			n++
		}
	}
	return n
}

func (s *streamer) RequestAdjacent(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := len(s.states)
	if count == 0 || index < 0 {
		return 0
	}
	n := 0
	for _, i := range [3]int{index, index - 1, index + 1} {
		if s.request(common.WrapIndex(i, count)) {
			n++
		}
	}
	return n
}

func (s *streamer) RequestNear(eye mgl32.Vec3, positions []mgl32.Vec3) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i, p := range positions {
		if i >= len(s.states) || s.states[i] != Unloaded {
			continue
		}
		if p.Sub(eye).Len() < s.loadDistance && s.request(i) {
			n++
		}
	}
	return n
}

// request must be called with mu held.
func (s *streamer) request(index int) bool {
	if s.disposed || index < 0 || index >= len(s.states) {
		return false
	}
	if s.states[index] != Unloaded || s.sources[index] == "" {
		return false
	}
	s.states[index] = Loading

	ctx, src, gen, maxDim := s.ctx, s.sources[index], s.generation, s.maxDim
	fetcher, results := s.fetcher, s.results
	id := s.nextID
	s.nextID++

	s.tasks <- worker.Task{
		ID: id,
		Do: func() (any, error) {
			r := Result{Index: index, Generation: gen}
			data, err := fetcher.Fetch(ctx, src)
			if err == nil {
				r.Data, err = Decode(data, maxDim)
			}
			r.Err = err
			results <- r
			return nil, nil
		},
	}
	return true
}

func (s *streamer) Drain(apply func(Result)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		var r Result
		select {
		case r = <-s.results:
		default:
			return s.latch()
		}

		if s.disposed || r.Generation != s.generation || r.Index < 0 || r.Index >= len(s.states) {
			continue
		}
		if s.states[r.Index] != Loading {
			continue
		}
		if r.Err != nil {
			s.states[r.Index] = Unloaded
			log.Printf("[Texture] load %d (%s) failed: %v", r.Index, s.sources[r.Index], r.Err)
			continue
		}
		s.states[r.Index] = Loaded
		s.loaded++
		s.staged += uint64(len(r.Data.Pixels))
		if apply != nil {
			apply(r)
		}
	}
}

// latch fires the ready signal once; must be called with mu held.
func (s *streamer) latch() bool {
	if s.ready || s.disposed || s.loaded < s.threshold {
		return false
	}
	s.ready = true
	log.Printf("[Texture] ready: %d/%d loaded (%s staged)", s.loaded, len(s.states), humanize.Bytes(s.staged))
	return true
}

func (s *streamer) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	s.cancel()
	close(s.stop)
}

func (s *streamer) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
