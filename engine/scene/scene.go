package scene

import (
	"context"
	"errors"
	"log"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/engine/camera"
	"github.com/Carmen-Shannon/oxy-gallery/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gallery/engine/labels"
	"github.com/Carmen-Shannon/oxy-gallery/engine/orbit"
	"github.com/Carmen-Shannon/oxy-gallery/engine/picking"
	"github.com/Carmen-Shannon/oxy-gallery/engine/texture"
	"github.com/Carmen-Shannon/oxy-gallery/engine/view"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoContent is returned when a scene is built from an empty item list.
	ErrNoContent = errors.New("scene: no content items")
	// ErrDisposed is returned by operations attempted after Dispose.
	ErrDisposed = errors.New("scene: disposed")
)

// Tuning shared by the tick and the input handlers.
const (
	maxFrameDelta    = 45 * time.Millisecond
	highlightDamping = 4
	focusDistance    = 2.6
	focusLift        = 0.25
	clickSlop        = 6
	cullRadius       = 1.3
)

var (
	homePosition   = mgl32.Vec3{0, 1.85, 0}
	homeLookTarget = mgl32.Vec3{0, 1.6, -6}
)

// Item is the slice of a content entry the simulation needs.
type Item struct {
	Title string
	Image string
}

// Scene is the gallery simulation context. It owns the camera, the rig, every gallery object,
// the view state machine and the texture streamer, and advances them once per Tick.
// Input handlers and Tick are expected to be called from a single goroutine (the engine loop);
// Snapshot, CurrentFrame and Updates are safe from any goroutine.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Generation returns the build generation used to discard stale texture results.
	Generation() uint64

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Rig returns the player camera rig.
	Rig() camera.Rig

	// Objects returns the gallery objects in index order.
	Objects() []game_object.GameObject

	// Count returns the number of gallery objects.
	Count() int

	// View returns the authoritative view state.
	View() view.State

	// Focus returns the selected object index or view.NoFocus.
	Focus() int

	// Hovered returns the object under the pointer on the last tick, or view.NoFocus.
	Hovered() int

	// Ready reports whether the scene-ready latch has fired.
	Ready() bool

	// Locked reports whether pointer lock is engaged.
	Locked() bool

	// PointerMove records the pointer position in window pixels.
	//
	// Parameters:
	//   - x, y: the cursor position relative to the top-left of the surface
	PointerMove(x, y float64)

	// LookMotion records relative pointer motion while pointer lock is engaged.
	//
	// Parameters:
	//   - dx, dy: motion in pixels since the last event
	LookMotion(dx, dy float64)

	// PointerDown handles a primary button press.
	//
	// Parameters:
	//   - x, y: the cursor position in window pixels
	PointerDown(x, y float64)

	// PointerUp handles a primary button release; a release close to the press is a click.
	//
	// Parameters:
	//   - x, y: the cursor position in window pixels
	PointerUp(x, y float64)

	// PointerLeave recentres pointer input when the cursor leaves the surface.
	PointerLeave()

	// Wheel handles a scroll delta. Positive deltaY scrolls forward.
	//
	// Parameters:
	//   - deltaY: the scroll amount in pixels
	Wheel(deltaY float64)

	// KeyDown handles a key press.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	KeyDown(keyCode uint32)

	// KeyUp handles a key release.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	KeyUp(keyCode uint32)

	// Resize updates the viewport size and camera aspect.
	//
	// Parameters:
	//   - width, height: the surface size in pixels
	Resize(width, height int)

	// PointerLockChanged records whether pointer lock is engaged.
	//
	// Parameters:
	//   - locked: true when the surface captured the pointer
	PointerLockChanged(locked bool)

	// PointerLockError records a failed pointer lock request.
	//
	// Parameters:
	//   - err: the platform error
	PointerLockError(err error)

	// Open starts flying the camera to the object at index.
	//
	// Parameters:
	//   - index: the object to open
	//
	// Returns:
	//   - bool: false when the request was ignored
	Open(index int) bool

	// Close starts flying back to the home pose. Valid only in the project view.
	//
	// Returns:
	//   - bool: false when the request was ignored
	Close() bool

	// Navigate moves the focus to the next (+1) or previous (-1) object in the project view.
	//
	// Parameters:
	//   - direction: +1 or -1
	//
	// Returns:
	//   - bool: false when the request was ignored
	Navigate(direction int) bool

	// Tick advances the simulation to the scene clock value now.
	//
	// Parameters:
	//   - now: time elapsed since the scene started
	Tick(now time.Duration)

	// Snapshot returns the most recently published observable state.
	Snapshot() *Snapshot

	// Updates delivers a signal whenever a new snapshot with changed state is published.
	Updates() <-chan struct{}

	// CurrentFrame returns the draw list captured at the end of the last tick.
	CurrentFrame() *Frame

	// Dispose stops the scene: in-flight fetches are cancelled, later results are dropped,
	// and Tick becomes a no-op.
	Dispose()

	// Disposed reports whether Dispose has been called.
	Disposed() bool
}

type scene struct {
	mu *sync.Mutex

	name       string
	generation uint64
	ctx        context.Context

	cam     camera.Camera
	rig     camera.Rig
	machine *view.Machine

	objects   []game_object.GameObject
	streamer  texture.Streamer
	fetcher   texture.Fetcher
	streamOpt []texture.StreamerBuilderOption
	layout    orbit.Layout
	rng       *rand.Rand
	machOpt   []view.MachineOption

	labelLayout labels.Layout
	labels      []labels.Label
	anchors     []labels.Anchor
	surfaces    []picking.Surface
	positions   []mgl32.Vec3

	fogColor [4]float32
	fogNear  float32
	fogFar   float32

	width, height int
	pointer       mgl32.Vec2
	pressed       bool
	pressAt       [2]float64
	locked        bool
	interacted    bool
	hovered       int
	navFlight     bool

	clock    time.Duration
	ticked   bool
	ticks    uint64
	disposed atomic.Bool

	snapshot atomic.Pointer[Snapshot]
	frame    atomic.Pointer[Frame]
	updates  chan struct{}

	onReady       func()
	onView        func(state view.State, focus int)
	onLockRequest func(lock bool)
	onInteract    func()
	pending       []func()
}

var _ Scene = &scene{}

// NewScene builds a gallery scene with one object per item.
// Objects are placed on the orbit layout, the camera is parked at the home pose, and the first
// texture batch is queued immediately.
//
// Parameters:
//   - items: the content entries in display order
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
//   - error: ErrNoContent when items is empty
func NewScene(items []Item, options ...SceneBuilderOption) (Scene, error) {
	if len(items) == 0 {
		return nil, ErrNoContent
	}

	s := &scene{
		mu:          &sync.Mutex{},
		name:        "gallery",
		ctx:         context.Background(),
		layout:      orbit.DefaultLayout(),
		labelLayout: labels.DefaultLayout(),
		fogColor:    [4]float32{0xf5 / 255.0, 0xf5 / 255.0, 0xf3 / 255.0, 1},
		fogNear:     18,
		fogFar:      48,
		width:       1280,
		height:      720,
		hovered:     view.NoFocus,
		updates:     make(chan struct{}, 1),
	}
	for _, option := range options {
		option(s)
	}

	if s.cam == nil {
		s.cam = camera.NewCamera(camera.WithPosition(homePosition))
		s.cam.LookAt(homeLookTarget)
	}
	s.cam.SetAspect(float32(s.width) / float32(s.height))
	if s.rig == nil {
		s.rig = camera.NewRig()
	}
	s.rig.CaptureHome(s.cam)
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.fetcher == nil {
		s.fetcher = texture.NewHTTPFetcher()
	}

	sources := make([]string, len(items))
	s.objects = make([]game_object.GameObject, len(items))
	for i, item := range items {
		sources[i] = item.Image
		s.objects[i] = game_object.NewGameObject(
			game_object.WithIndex(i),
			game_object.WithTitle(item.Title),
			game_object.WithSource(item.Image),
			game_object.WithMotion(orbit.NewMotion(s.layout.Params(i, s.rng), s.layout)),
		)
	}
	s.anchors = make([]labels.Anchor, len(items))
	s.surfaces = make([]picking.Surface, len(items))
	s.positions = make([]mgl32.Vec3, len(items))

	s.machine = view.NewMachine(len(items), s.machOpt...)
	streamOpts := append([]texture.StreamerBuilderOption{texture.WithGeneration(s.generation)}, s.streamOpt...)
	s.streamer = texture.NewStreamer(s.ctx, sources, s.fetcher, streamOpts...)
	queued := s.streamer.RequestInitial()

	s.publish()
	log.Printf("[Scene] %s: built %d objects (generation %d, %d textures queued, %s controls)",
		s.name, len(items), s.generation, queued, s.rig.Mode())
	return s, nil
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Generation() uint64 {
	return s.generation
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Rig() camera.Rig {
	return s.rig
}

func (s *scene) Objects() []game_object.GameObject {
	return s.objects
}

func (s *scene) Count() int {
	return len(s.objects)
}

func (s *scene) View() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

func (s *scene) Focus() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Focus()
}

func (s *scene) Hovered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hovered
}

func (s *scene) Ready() bool {
	return s.streamer.Ready()
}

func (s *scene) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

func (s *scene) Open(index int) bool {
	s.mu.Lock()
	ok := s.open(index)
	s.mu.Unlock()
	s.flush()
	return ok
}

func (s *scene) Close() bool {
	s.mu.Lock()
	ok := s.close()
	s.mu.Unlock()
	s.flush()
	return ok
}

func (s *scene) Navigate(direction int) bool {
	s.mu.Lock()
	ok := s.navigate(direction)
	s.mu.Unlock()
	s.flush()
	return ok
}

// open computes the viewing pose in front of the object and starts the enter transition.
// Caller must hold the mutex.
func (s *scene) open(index int) bool {
	if s.disposed.Load() || index < 0 || index >= len(s.objects) {
		return false
	}
	obj := s.objects[index]
	focus := obj.Position()
	dest := focus.Add(obj.Forward().Mul(focusDistance)).Add(mgl32.Vec3{0, focusLift, 0})
	to := view.Pose{Position: dest, Orientation: common.LookRotation(dest, focus, common.WorldUp)}
	from := view.Pose{Position: s.cam.Position(), Orientation: s.cam.Orientation()}

	if !s.machine.Open(index, from, to, s.clock) {
		return false
	}
	s.streamer.RequestAdjacent(index)

	toward := focus.Sub(dest)
	planar := float32(math.Hypot(float64(toward.X()), float64(toward.Z())))
	yaw := float32(math.Atan2(float64(toward.X()), float64(toward.Z())))
	pitch := float32(math.Atan2(float64(toward.Y()), float64(max(planar, 1e-4))))
	s.rig.SetTargets(yaw, pitch)

	obj.ResetHighlight()
	s.viewChanged()
	log.Printf("[Scene] open %d (%q)", index, obj.Title())
	return true
}

// close starts the exit transition to the home pose. Caller must hold the mutex.
func (s *scene) close() bool {
	if s.disposed.Load() {
		return false
	}
	homePos, homeRot := s.rig.Home()
	from := view.Pose{Position: s.cam.Position(), Orientation: s.cam.Orientation()}
	if !s.machine.Close(from, view.Pose{Position: homePos, Orientation: homeRot}, s.clock) {
		return false
	}
	s.rig.SetTargets(s.rig.HomeAngles())
	s.viewChanged()
	log.Printf("[Scene] close %d", s.machine.Active())
	return true
}

// navigate swaps the focus, or flies to the neighbour when navigation flights are enabled.
// Caller must hold the mutex.
func (s *scene) navigate(direction int) bool {
	if s.disposed.Load() || s.machine.State() != view.Project || direction == 0 {
		return false
	}
	if s.navFlight {
		return s.open(common.WrapIndex(s.machine.Active()+direction, len(s.objects)))
	}
	next, ok := s.machine.Navigate(direction)
	if !ok {
		return false
	}
	s.streamer.RequestAdjacent(next)
	s.objects[next].ResetHighlight()
	s.viewChanged()
	return true
}

// viewChanged queues the view callback with the state as of now. Caller must hold the mutex.
func (s *scene) viewChanged() {
	if s.onView == nil {
		return
	}
	state, focus, cb := s.machine.State(), s.machine.Focus(), s.onView
	s.pending = append(s.pending, func() { cb(state, focus) })
}

// flush runs callbacks queued while the mutex was held.
func (s *scene) flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (s *scene) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *scene) Updates() <-chan struct{} {
	return s.updates
}

func (s *scene) CurrentFrame() *Frame {
	return s.frame.Load()
}

func (s *scene) Dispose() {
	if s.disposed.Swap(true) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamer.Dispose()
	for _, obj := range s.objects {
		obj.Dispose()
	}
	log.Printf("[Scene] %s: disposed (generation %d)", s.name, s.generation)
}

func (s *scene) Disposed() bool {
	return s.disposed.Load()
}
