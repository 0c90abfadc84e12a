package scene

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/engine/camera"
	"github.com/Carmen-Shannon/oxy-gallery/engine/orbit"
	"github.com/Carmen-Shannon/oxy-gallery/engine/view"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameStep = 16 * time.Millisecond

// stubFetcher serves the same small PNG for every source and can hold requests on a gate.
type stubFetcher struct {
	mu   sync.Mutex
	img  []byte
	gate chan struct{}
}

func newStubFetcher(t *testing.T) *stubFetcher {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range 16 {
		img.Set(i%4, i/4, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &stubFetcher{img: buf.Bytes()}
}

func (f *stubFetcher) Fetch(ctx context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.img, nil
}

func staticLayout() orbit.Layout {
	l := orbit.DefaultLayout()
	l.BaseSpeed, l.RingSpeedStep = 0, 0
	l.BobMin, l.BobRange = 0, 0
	l.PulseMin, l.PulseRange = 0, 0
	l.FocalDrift = 0
	return l
}

func items(n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{Title: "Frame", Image: "frame.png"}
	}
	return out
}

// harness drives a scene with a deterministic clock.
type harness struct {
	t     *testing.T
	s     Scene
	clock time.Duration
}

func newHarness(t *testing.T, n int, options ...SceneBuilderOption) *harness {
	t.Helper()
	base := []SceneBuilderOption{
		WithRand(rand.New(rand.NewPCG(3, 5))),
		WithFetcher(newStubFetcher(t)),
		WithViewport(800, 600),
	}
	s, err := NewScene(items(n), append(base, options...)...)
	require.NoError(t, err)
	t.Cleanup(s.Dispose)
	return &harness{t: t, s: s}
}

func (h *harness) tick(n int) {
	for range n {
		h.s.Tick(h.clock)
		h.clock += frameStep
	}
}

func (h *harness) tickUntil(cond func() bool, limit int) {
	h.t.Helper()
	for range limit {
		if cond() {
			return
		}
		h.tick(1)
	}
	require.True(h.t, cond(), "condition not reached after %d ticks", limit)
}

type cameraState struct {
	yaw, pitch float32
	pos        mgl32.Vec3
	rot        mgl32.Quat
}

func capture(s Scene) cameraState {
	return cameraState{
		yaw:   s.Rig().Yaw(),
		pitch: s.Rig().Pitch(),
		pos:   s.Camera().Position(),
		rot:   s.Camera().Orientation(),
	}
}

func TestNewSceneRejectsEmptyContent(t *testing.T) {
	_, err := NewScene(nil)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestNewScenePublishesInitialSnapshot(t *testing.T) {
	h := newHarness(t, 4)
	snap := h.s.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, view.Gallery, snap.View)
	assert.Equal(t, view.NoFocus, snap.Focus)
	assert.Equal(t, 4, snap.Count)
	assert.NotNil(t, h.s.CurrentFrame())
}

func TestOpenTwiceStartsOneTransition(t *testing.T) {
	h := newHarness(t, 6)
	h.tick(2)

	require.True(t, h.s.Open(2))
	assert.False(t, h.s.Open(3))
	assert.Equal(t, view.Transitioning, h.s.View())
	assert.Equal(t, 2, h.s.Focus())

	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)
	assert.Equal(t, 2, h.s.Focus())
}

func TestOpenCloseCycleRestoresCameraExactly(t *testing.T) {
	h := newHarness(t, 8)
	h.tick(10)
	before := capture(h.s)

	require.True(t, h.s.Open(5))
	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)

	obj := h.s.Objects()[5]
	want := obj.Position().Add(obj.Forward().Mul(focusDistance)).Add(mgl32.Vec3{0, focusLift, 0})
	assert.True(t, h.s.Camera().Position().ApproxEqualThreshold(want, 1e-4))

	require.True(t, h.s.Close())
	h.tickUntil(func() bool { return h.s.View() == view.Gallery }, 200)
	h.tick(1)

	after := capture(h.s)
	assert.Equal(t, before, after)
}

func TestFocusedObjectFreezesInProjectView(t *testing.T) {
	h := newHarness(t, 4)
	h.tick(5)
	require.True(t, h.s.Open(1))
	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)

	obj, other := h.s.Objects()[1], h.s.Objects()[2]
	pos, rot := obj.Position(), obj.Orientation()
	otherPos := other.Position()
	h.tick(30)
	assert.Equal(t, pos, obj.Position())
	assert.Equal(t, rot, obj.Orientation())
	assert.NotEqual(t, otherPos, other.Position(), "unfocused objects keep orbiting")
}

func TestNavigateWrapsAndReturns(t *testing.T) {
	h := newHarness(t, 5)
	assert.False(t, h.s.Navigate(1), "navigate is ignored in the gallery")
	assert.False(t, h.s.Close(), "close is ignored in the gallery")

	require.True(t, h.s.Open(0))
	assert.False(t, h.s.Navigate(1), "navigate is ignored while transitioning")
	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)

	require.True(t, h.s.Navigate(-1))
	assert.Equal(t, 4, h.s.Focus())
	require.True(t, h.s.Navigate(1))
	assert.Equal(t, 0, h.s.Focus())
	assert.Equal(t, view.Project, h.s.View())
}

func TestNavigateFlightAnimates(t *testing.T) {
	h := newHarness(t, 3, WithNavigateFlight(true))
	require.True(t, h.s.Open(2))
	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)

	require.True(t, h.s.Navigate(1))
	assert.Equal(t, view.Transitioning, h.s.View())
	assert.Equal(t, 0, h.s.Focus())
	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)
	assert.Equal(t, 0, h.s.Focus())
}

func TestReadyLatchFiresOnce(t *testing.T) {
	var mu sync.Mutex
	fired := 0
	h := newHarness(t, 6, WithOnReady(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	}))

	require.Eventually(t, func() bool {
		h.tick(1)
		return h.s.Ready()
	}, 2*time.Second, 5*time.Millisecond)
	h.tick(20)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired)
	assert.True(t, h.s.Snapshot().Ready)
}

func TestTexturesAttachOnTick(t *testing.T) {
	h := newHarness(t, 2)
	require.Eventually(t, func() bool {
		h.tick(1)
		return h.s.Objects()[0].Texture() != nil && h.s.Objects()[1].Texture() != nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, h.s.Snapshot().Loaded)
}

// aim points a locked look-scheme camera at world point p and lets the rig settle.
func aim(h *harness, p mgl32.Vec3) {
	yaw, pitch := common.YawPitch(p.Sub(h.s.Camera().Position()))
	h.s.Rig().SetTargets(yaw, pitch)
	h.tick(240)
}

func newLookHarness(t *testing.T, options ...SceneBuilderOption) *harness {
	base := []SceneBuilderOption{
		WithLayout(staticLayout()),
		WithRig(camera.NewRig(camera.WithMode(camera.ModeLook))),
	}
	h := newHarness(t, 8, append(base, options...)...)
	h.s.PointerLockChanged(true)
	return h
}

func TestHoverPicksObjectAtCentreAndFades(t *testing.T) {
	h := newLookHarness(t)
	target := h.s.Objects()[0]

	aim(h, target.Surface().Center)
	assert.Equal(t, 0, h.s.Hovered())
	assert.Greater(t, target.Highlight(), float32(0.5))

	yaw, _ := h.s.Rig().Targets()
	h.s.Rig().SetTargets(yaw, 0.45)
	h.tick(240)
	assert.Equal(t, view.NoFocus, h.s.Hovered())
	assert.Less(t, target.Highlight(), float32(0.1))
}

func TestHoverDoesNotHighlightOutsideGallery(t *testing.T) {
	h := newLookHarness(t)
	require.True(t, h.s.Open(2))
	focused := h.s.Objects()[2]

	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)
	h.tick(120)
	assert.Equal(t, 2, h.s.Hovered(), "the focused object sits under the viewport centre")
	assert.Zero(t, focused.Highlight())
	frame := h.s.CurrentFrame()
	require.NotNil(t, frame)
	for _, item := range frame.Items {
		if item.Index == 2 {
			assert.Zero(t, item.Highlight)
		}
	}
}

func TestLockedClickOpensHovered(t *testing.T) {
	h := newLookHarness(t)
	aim(h, h.s.Objects()[3].Surface().Center)
	require.Equal(t, 3, h.s.Hovered())

	h.s.PointerDown(400, 300)
	h.s.PointerUp(400, 300)
	assert.Equal(t, view.Transitioning, h.s.View())
	assert.Equal(t, 3, h.s.Focus())
}

func TestEnterOpensHovered(t *testing.T) {
	h := newLookHarness(t)
	h.s.KeyDown(common.KeyEnter)
	assert.Equal(t, view.Gallery, h.s.View(), "nothing hovered")

	aim(h, h.s.Objects()[4].Surface().Center)
	require.Equal(t, 4, h.s.Hovered())
	h.s.KeyDown(common.KeyEnter)
	h.s.KeyUp(common.KeyEnter)
	assert.Equal(t, view.Transitioning, h.s.View())
	assert.Equal(t, 4, h.s.Focus())
}

func TestUnlockedClickRequestsLock(t *testing.T) {
	var requests []bool
	interactions := 0
	h := newHarness(t, 3,
		WithRig(camera.NewRig(camera.WithMode(camera.ModeLook))),
		WithPointerLockHandler(func(lock bool) { requests = append(requests, lock) }),
		WithFirstInteraction(func() { interactions++ }),
	)
	h.s.PointerDown(10, 10)
	h.s.PointerUp(12, 11)
	h.s.PointerDown(10, 10)
	h.s.PointerUp(10, 10)
	assert.Equal(t, []bool{true, true}, requests)
	assert.Equal(t, 1, interactions)
	assert.Equal(t, view.Gallery, h.s.View())

	h.s.PointerLockChanged(true)
	h.s.KeyDown(common.KeyEscape)
	assert.Equal(t, []bool{true, true, false}, requests)
}

func TestDragIsNotAClick(t *testing.T) {
	h := newLookHarness(t)
	aim(h, h.s.Objects()[0].Surface().Center)
	h.s.PointerDown(100, 100)
	h.s.PointerUp(160, 100)
	assert.Equal(t, view.Gallery, h.s.View())
}

func TestWheelDolliesInGalleryAndNavigatesInProject(t *testing.T) {
	h := newHarness(t, 4)
	h.tick(1)
	start := h.s.Camera().Position()
	fwd := h.s.Camera().Forward()
	h.s.Wheel(500)
	moved := h.s.Camera().Position().Sub(start)
	assert.InDelta(t, 0.6, moved.Dot(fwd), 1e-4)

	require.True(t, h.s.Open(1))
	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)
	h.s.Wheel(10)
	assert.Equal(t, 1, h.s.Focus(), "small scrolls are ignored")
	h.s.Wheel(40)
	assert.Equal(t, 2, h.s.Focus())
	h.s.Wheel(-40)
	assert.Equal(t, 1, h.s.Focus())
}

func TestKeysInProjectView(t *testing.T) {
	h := newHarness(t, 4)
	require.True(t, h.s.Open(3))
	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)

	h.s.KeyDown(common.KeyRight)
	assert.Equal(t, 0, h.s.Focus())
	h.s.KeyDown(common.KeyLeft)
	assert.Equal(t, 3, h.s.Focus())
	h.s.KeyDown(common.KeyEscape)
	assert.Equal(t, view.Transitioning, h.s.View())
}

func TestLabelsHiddenOutsideGallery(t *testing.T) {
	h := newHarness(t, 12, WithLayout(staticLayout()))
	h.tick(2)

	visible := 0
	for _, l := range h.s.Snapshot().Labels {
		if l.Visible {
			visible++
		}
	}
	assert.Positive(t, visible)

	require.True(t, h.s.Open(0))
	h.tick(1)
	for _, l := range h.s.Snapshot().Labels {
		assert.False(t, l.Visible, "label %d visible during transition", l.Index)
	}
}

func TestViewChangeCallback(t *testing.T) {
	type change struct {
		state view.State
		focus int
	}
	var changes []change
	h := newHarness(t, 3, WithOnViewChange(func(s view.State, f int) { changes = append(changes, change{s, f}) }))
	require.True(t, h.s.Open(1))
	h.tickUntil(func() bool { return h.s.View() == view.Project }, 200)
	require.True(t, h.s.Close())
	h.tickUntil(func() bool { return h.s.View() == view.Gallery }, 200)

	assert.Equal(t, []change{
		{view.Transitioning, 1},
		{view.Project, 1},
		{view.Transitioning, 1},
		{view.Gallery, view.NoFocus},
	}, changes)
}

func TestResizeUpdatesAspect(t *testing.T) {
	h := newHarness(t, 2)
	h.s.Resize(1000, 500)
	assert.InDelta(t, 2, h.s.Camera().Aspect(), 1e-6)
	h.s.Resize(0, 500)
	assert.InDelta(t, 2, h.s.Camera().Aspect(), 1e-6)
}

func TestDisposeStopsTicking(t *testing.T) {
	h := newHarness(t, 3)
	h.tick(3)
	tick := h.s.Snapshot().Tick
	h.s.Dispose()
	assert.True(t, h.s.Disposed())
	h.tick(3)
	assert.Equal(t, tick, h.s.Snapshot().Tick)
	assert.False(t, h.s.Open(0))
}

func TestFrameCullsObjectsBehindCamera(t *testing.T) {
	h := newHarness(t, 12, WithLayout(staticLayout()))
	h.tick(1)
	frame := h.s.CurrentFrame()
	require.NotNil(t, frame)
	assert.Less(t, len(frame.Items), 12)
	assert.NotEmpty(t, frame.Items)
	for _, it := range frame.Items {
		assert.False(t, math.IsNaN(float64(it.Model[0])))
	}
}
