package texture

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu    sync.Mutex
	img   []byte
	fail  map[string]bool
	calls map[string]int
	gate  chan struct{}
}

func newFakeFetcher(t *testing.T) *fakeFetcher {
	return &fakeFetcher{
		img:   encodePNG(t, 8, 8),
		fail:  make(map[string]bool),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	f.mu.Lock()
	f.calls[source]++
	fail, gate := f.fail[source], f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("boom")
	}
	return f.img, nil
}

func (f *fakeFetcher) setFail(source string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[source] = fail
}

func (f *fakeFetcher) callCount(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[source]
}

// drainUntil drains s on a short interval until cond holds, recording every latch firing.
func drainUntil(t *testing.T, s Streamer, applied *[]int, fired *int, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		if s.Drain(func(r Result) { *applied = append(*applied, r.Index) }) {
			*fired++
		}
		return cond()
	}, 2*time.Second, 5*time.Millisecond)
}

func sources(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a'+i)) + ".png"
	}
	return out
}

func TestStreamerRequestIsIdempotent(t *testing.T) {
	f := newFakeFetcher(t)
	f.gate = make(chan struct{})
	s := NewStreamer(context.Background(), sources(4), f)
	defer s.Dispose()

	assert.True(t, s.Request(1))
	assert.False(t, s.Request(1))
	assert.Equal(t, Loading, s.State(1))
	assert.False(t, s.Request(-1))
	assert.False(t, s.Request(4))

	close(f.gate)
	var applied []int
	fired := 0
	drainUntil(t, s, &applied, &fired, func() bool { return s.State(1) == Loaded })
	assert.False(t, s.Request(1))
	assert.Equal(t, []int{1}, applied)
	assert.Equal(t, 1, f.callCount("b.png"))
}

func TestStreamerReadyLatchFiresOnce(t *testing.T) {
	f := newFakeFetcher(t)
	s := NewStreamer(context.Background(), sources(10), f)
	defer s.Dispose()

	assert.Equal(t, 8, s.RequestInitial())

	var applied []int
	fired := 0
	drainUntil(t, s, &applied, &fired, func() bool { return s.Loaded() == 8 })
	assert.True(t, s.Ready())
	assert.Equal(t, 1, fired)

	assert.Equal(t, 2, s.RequestAdjacent(9))
	drainUntil(t, s, &applied, &fired, func() bool { return s.Loaded() == 10 })
	assert.Equal(t, 1, fired)
	assert.Len(t, applied, 10)
}

func TestStreamerReadyThresholdForSmallScenes(t *testing.T) {
	f := newFakeFetcher(t)
	s := NewStreamer(context.Background(), sources(2), f)
	defer s.Dispose()

	s.Request(0)
	var applied []int
	fired := 0
	drainUntil(t, s, &applied, &fired, func() bool { return s.Loaded() == 1 })
	assert.False(t, s.Ready())

	s.Request(1)
	drainUntil(t, s, &applied, &fired, func() bool { return s.Ready() })
	assert.Equal(t, 1, fired)
}

func TestStreamerFailureIsRetryable(t *testing.T) {
	f := newFakeFetcher(t)
	f.setFail("a.png", true)
	s := NewStreamer(context.Background(), sources(3), f)
	defer s.Dispose()

	require.True(t, s.Request(0))
	var applied []int
	fired := 0
	drainUntil(t, s, &applied, &fired, func() bool { return s.State(0) == Unloaded })
	assert.Empty(t, applied)

	f.setFail("a.png", false)
	require.True(t, s.Request(0))
	drainUntil(t, s, &applied, &fired, func() bool { return s.State(0) == Loaded })
	assert.Equal(t, 2, f.callCount("a.png"))
}

func TestStreamerSkipsEmptySources(t *testing.T) {
	f := newFakeFetcher(t)
	s := NewStreamer(context.Background(), []string{"a.png", "", "c.png"}, f)
	defer s.Dispose()

	assert.False(t, s.Request(1))
	assert.Equal(t, 2, s.RequestInitial())

	var applied []int
	fired := 0
	drainUntil(t, s, &applied, &fired, func() bool { return s.Ready() })
	assert.Equal(t, 2, s.Loaded())
}

func TestStreamerAdjacentWraps(t *testing.T) {
	f := newFakeFetcher(t)
	f.gate = make(chan struct{})
	s := NewStreamer(context.Background(), sources(5), f)
	defer s.Dispose()

	assert.Equal(t, 3, s.RequestAdjacent(0))
	for _, i := range []int{4, 0, 1} {
		assert.Equal(t, Loading, s.State(i), "index %d", i)
	}
	assert.Equal(t, Unloaded, s.State(2))
	assert.Equal(t, 1, s.RequestAdjacent(1))
	close(f.gate)
}

func TestStreamerRequestNear(t *testing.T) {
	f := newFakeFetcher(t)
	f.gate = make(chan struct{})
	s := NewStreamer(context.Background(), sources(3), f, WithLoadDistance(10))
	defer s.Dispose()

	positions := []mgl32.Vec3{{0, 0, -5}, {0, 0, -10}, {30, 0, 0}}
	assert.Equal(t, 1, s.RequestNear(mgl32.Vec3{}, positions))
	assert.Equal(t, Loading, s.State(0))
	assert.Equal(t, Unloaded, s.State(1))
	assert.Equal(t, Unloaded, s.State(2))
	close(f.gate)
}

func TestStreamerDisposeDropsLateResults(t *testing.T) {
	f := newFakeFetcher(t)
	f.gate = make(chan struct{})
	s := NewStreamer(context.Background(), sources(3), f)

	require.Equal(t, 3, s.RequestInitial())
	s.Dispose()
	assert.True(t, s.Disposed())
	assert.False(t, s.Request(0))

	applied := 0
	assert.Never(t, func() bool {
		s.Drain(func(Result) { applied++ })
		return applied > 0
	}, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 0, s.Loaded())
	assert.False(t, s.Ready())
}

func TestStreamerDisposeStopsWorkers(t *testing.T) {
	f := newFakeFetcher(t)
	f.gate = make(chan struct{})
	before := runtime.NumGoroutine()

	for range 10 {
		s := NewStreamer(context.Background(), sources(6), f, WithWorkers(4))
		s.RequestInitial()
		s.Dispose()
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond, "disposed streamers left fetch workers running")
}

func TestStreamerDropsOtherGenerations(t *testing.T) {
	f := newFakeFetcher(t)
	s := NewStreamer(context.Background(), sources(1), f, WithGeneration(7)).(*streamer)
	defer s.Dispose()

	s.states[0] = Loading
	s.results <- Result{Index: 0, Generation: 6}
	s.Drain(nil)
	assert.Equal(t, Loading, s.states[0])

	s.results <- Result{Index: 0, Generation: 7, Data: f.decoded(t)}
	s.Drain(nil)
	assert.Equal(t, Loaded, s.states[0])
}

func (f *fakeFetcher) decoded(t *testing.T) common.TextureStagingData {
	t.Helper()
	data, err := Decode(f.img, 0)
	require.NoError(t, err)
	return data
}
