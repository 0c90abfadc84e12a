package view

import (
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/engine/easing"
	"github.com/go-gl/mathgl/mgl32"
)

// NoFocus marks the absence of an active or focused object.
const NoFocus = -1

// Pose is a camera position and orientation.
type Pose struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
}

// Kind distinguishes flying in from flying out.
type Kind int

const (
	// KindEnter flies from the current pose toward an object.
	KindEnter Kind = iota
	// KindExit flies back to the home pose.
	KindExit
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k == KindEnter {
		return "enter"
	}
	return "exit"
}

// Transition is the single in-flight camera animation.
type Transition struct {
	Kind     Kind
	Start    time.Duration
	Duration time.Duration
	From     Pose
	To       Pose
	Focus    int
	Curve    easing.Curve
}

// Progress returns linear progress clamped to [0, 1] at clock value now.
func (t Transition) Progress(now time.Duration) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(now-t.Start) / float64(t.Duration)
	return max(0, min(1, p))
}

// Step is the camera pose produced by one frame of transition integration.
type Step struct {
	Pose
	Kind  Kind
	Eased float64
	// Done is set on the frame the transition completed and its state was committed.
	Done bool
}

// Machine is the authoritative view state: current mode, active focus, and at most one transition.
// It is owned by the frame tick.
type Machine struct {
	state      State
	active     int
	transition *Transition
	count      int

	enterDuration time.Duration
	exitDuration  time.Duration
	enterCurve    easing.Curve
	exitCurve     easing.Curve
}

// MachineOption is a functional option for configuring a Machine.
type MachineOption func(*Machine)

// WithEnter sets the duration and curve of fly-in transitions.
func WithEnter(duration time.Duration, curve easing.Curve) MachineOption {
	return func(m *Machine) {
		m.enterDuration = duration
		m.enterCurve = curve
	}
}

// WithExit sets the duration and curve of fly-out transitions.
func WithExit(duration time.Duration, curve easing.Curve) MachineOption {
	return func(m *Machine) {
		m.exitDuration = duration
		m.exitCurve = curve
	}
}

// NewMachine creates a machine in the gallery state for count objects.
//
// Parameters:
//   - count: the number of navigable objects
//   - options: functional options
//
// Returns:
//   - *Machine: the new machine
func NewMachine(count int, options ...MachineOption) *Machine {
	m := &Machine{
		state:         Gallery,
		active:        NoFocus,
		count:         count,
		enterDuration: 2200 * time.Millisecond,
		exitDuration:  1650 * time.Millisecond,
		enterCurve:    easing.Dramatic,
		exitCurve:     easing.Standard,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// State returns the current view state.
func (m *Machine) State() State {
	return m.state
}

// Count returns the number of navigable objects.
func (m *Machine) Count() int {
	return m.count
}

// Active returns the committed focus, or NoFocus.
func (m *Machine) Active() int {
	return m.active
}

// Focus returns the object the presentation layer should treat as selected:
// the destination of an in-flight enter transition, otherwise the committed focus.
func (m *Machine) Focus() int {
	if m.transition != nil && m.transition.Kind == KindEnter {
		return m.transition.Focus
	}
	return m.active
}

// Transition returns a copy of the in-flight transition.
//
// Returns:
//   - Transition: the transition, valid only when ok is true
//   - bool: false when no transition is active
func (m *Machine) Transition() (Transition, bool) {
	if m.transition == nil {
		return Transition{}, false
	}
	return *m.transition, true
}

// Busy reports whether a transition is in flight.
func (m *Machine) Busy() bool {
	return m.transition != nil
}

// Frozen reports whether the object at index must hold still this frame:
// the view is not the gallery and the object is the active focus or the transition focus.
func (m *Machine) Frozen(index int) bool {
	if m.state == Gallery {
		return false
	}
	if index == m.active {
		return true
	}
	return m.transition != nil && m.transition.Focus == index
}

// Open starts an enter transition toward focus. Rejected while another transition is in flight
// or when the current state does not accept opening.
//
// Parameters:
//   - focus: the object index being opened
//   - from: the current camera pose
//   - to: the destination pose in front of the object
//   - now: the scene clock
//
// Returns:
//   - bool: true if the transition started
func (m *Machine) Open(focus int, from, to Pose, now time.Duration) bool {
	if m.transition != nil || focus < 0 || focus >= m.count {
		return false
	}
	next, ok := Next(m.state, EventOpen)
	if !ok {
		return false
	}
	m.state = next
	m.transition = &Transition{
		Kind:     KindEnter,
		Start:    now,
		Duration: m.enterDuration,
		From:     from,
		To:       to,
		Focus:    focus,
		Curve:    m.enterCurve,
	}
	return true
}

// Close starts an exit transition back to home. Valid only from the project state.
//
// Parameters:
//   - from: the current camera pose
//   - home: the rest pose
//   - now: the scene clock
//
// Returns:
//   - bool: true if the transition started
func (m *Machine) Close(from, home Pose, now time.Duration) bool {
	if m.transition != nil {
		return false
	}
	next, ok := Next(m.state, EventClose)
	if !ok {
		return false
	}
	m.state = next
	m.transition = &Transition{
		Kind:     KindExit,
		Start:    now,
		Duration: m.exitDuration,
		From:     from,
		To:       home,
		Focus:    m.active,
		Curve:    m.exitCurve,
	}
	return true
}

// Navigate moves the committed focus by direction with wraparound. Valid only in the project state.
//
// Parameters:
//   - direction: +1 for next, -1 for previous
//
// Returns:
//   - int: the new focus
//   - bool: false when the request was ignored
func (m *Machine) Navigate(direction int) (int, bool) {
	if m.transition != nil || m.active == NoFocus || m.count == 0 {
		return m.active, false
	}
	next, ok := Next(m.state, EventNavigate)
	if !ok {
		return m.active, false
	}
	m.state = next
	m.active = common.WrapIndex(m.active+direction, m.count)
	return m.active, true
}

// Advance integrates the in-flight transition for the frame at now.
// Position is lerped from the captured source; orientation is slerped from current toward the
// fixed destination by the eased amount. At completion the destination is copied exactly and the
// resulting state is committed.
//
// Parameters:
//   - now: the scene clock
//   - current: the camera's orientation before this frame
//
// Returns:
//   - Step: the camera pose for this frame
//   - bool: false when no transition is in flight
func (m *Machine) Advance(now time.Duration, current mgl32.Quat) (Step, bool) {
	tr := m.transition
	if tr == nil {
		return Step{}, false
	}

	t := tr.Progress(now)
	eased := tr.Curve.Evaluate(t)
	step := Step{Kind: tr.Kind, Eased: eased}

	if t >= 1 {
		step.Pose = tr.To
		step.Done = true
		m.commit(tr)
		return step, true
	}

	e := float32(eased)
	step.Position = tr.From.Position.Add(tr.To.Position.Sub(tr.From.Position).Mul(e))
	step.Orientation = common.Slerp(current, tr.To.Orientation, e)
	return step, true
}

// commit applies the end-of-transition state change and clears the record.
func (m *Machine) commit(tr *Transition) {
	event := EventArrive
	if tr.Kind == KindExit {
		event = EventDepart
	}
	next, _ := Next(m.state, event)
	m.state = next

	if tr.Kind == KindEnter {
		m.active = tr.Focus
	} else {
		m.active = NoFocus
	}
	m.transition = nil
}
