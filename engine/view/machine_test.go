package view

import (
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/engine/easing"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	home = Pose{Position: mgl32.Vec3{0, 1.85, 0}, Orientation: mgl32.QuatIdent()}
	dest = Pose{Position: mgl32.Vec3{4, 2, -3}, Orientation: mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0})}
)

// runToEnd advances the machine until the in-flight transition commits and returns the final step.
func runToEnd(t *testing.T, m *Machine, now time.Duration) (Step, time.Duration) {
	t.Helper()
	rot := mgl32.QuatIdent()
	for range 1000 {
		now += 16 * time.Millisecond
		step, ok := m.Advance(now, rot)
		require.True(t, ok)
		rot = step.Orientation
		if step.Done {
			return step, now
		}
	}
	t.Fatal("transition never completed")
	return Step{}, now
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from State
		ev   Event
		to   State
		ok   bool
	}{
		{Gallery, EventOpen, Transitioning, true},
		{Gallery, EventClose, Gallery, false},
		{Gallery, EventNavigate, Gallery, false},
		{Transitioning, EventOpen, Transitioning, false},
		{Transitioning, EventArrive, Project, true},
		{Transitioning, EventDepart, Gallery, true},
		{Project, EventClose, Transitioning, true},
		{Project, EventNavigate, Project, true},
		{Project, EventArrive, Project, false},
	}
	for _, c := range cases {
		got, ok := Next(c.from, c.ev)
		assert.Equal(t, c.ok, ok, "%v + %v", c.from, c.ev)
		if c.ok {
			assert.Equal(t, c.to, got)
		}
	}
}

func TestOpenTwiceStartsOneTransition(t *testing.T) {
	m := NewMachine(5)
	require.True(t, m.Open(2, home, dest, time.Second))
	first, _ := m.Transition()

	assert.False(t, m.Open(4, home, home, 2*time.Second))
	second, ok := m.Transition()
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, Transitioning, m.State())
	assert.Equal(t, 2, m.Focus())
	assert.Equal(t, NoFocus, m.Active())
}

func TestOpenRejectsOutOfRange(t *testing.T) {
	m := NewMachine(3)
	assert.False(t, m.Open(3, home, dest, 0))
	assert.False(t, m.Open(-1, home, dest, 0))
	assert.Equal(t, Gallery, m.State())
}

func TestInvalidRequestsAreNoOps(t *testing.T) {
	m := NewMachine(4)
	assert.False(t, m.Close(home, home, 0))
	_, ok := m.Navigate(1)
	assert.False(t, ok)

	require.True(t, m.Open(1, home, dest, 0))
	assert.False(t, m.Close(dest, home, time.Millisecond))
	_, ok = m.Navigate(1)
	assert.False(t, ok)
	assert.Equal(t, Transitioning, m.State())
}

func TestEnterThenExitCycle(t *testing.T) {
	m := NewMachine(6)
	require.True(t, m.Open(3, home, dest, 0))

	step, now := runToEnd(t, m, 0)
	assert.Equal(t, KindEnter, step.Kind)
	assert.Equal(t, dest, step.Pose)
	assert.Equal(t, 1.0, step.Eased)
	assert.Equal(t, Project, m.State())
	assert.Equal(t, 3, m.Active())
	assert.False(t, m.Busy())
	assert.GreaterOrEqual(t, now, 2200*time.Millisecond)

	require.True(t, m.Close(dest, home, now))
	assert.Equal(t, 3, m.Focus())
	step, end := runToEnd(t, m, now)
	assert.Equal(t, KindExit, step.Kind)
	assert.Equal(t, home, step.Pose)
	assert.Equal(t, Gallery, m.State())
	assert.Equal(t, NoFocus, m.Active())
	assert.GreaterOrEqual(t, end-now, 1650*time.Millisecond)
}

func TestAdvancePositionFollowsCurve(t *testing.T) {
	m := NewMachine(2, WithEnter(time.Second, easing.Dramatic))
	require.True(t, m.Open(0, home, dest, 0))

	step, ok := m.Advance(500*time.Millisecond, home.Orientation)
	require.True(t, ok)
	e := float32(easing.Dramatic.Evaluate(0.5))
	want := home.Position.Add(dest.Position.Sub(home.Position).Mul(e))
	assert.InDelta(t, want.X(), step.Position.X(), 1e-5)
	assert.InDelta(t, want.Z(), step.Position.Z(), 1e-5)
	assert.False(t, step.Done)
}

func TestOrientationSlerpsFromCurrentTowardFixedDestination(t *testing.T) {
	m := NewMachine(2, WithEnter(time.Second, easing.Curve{X1: 0.25, Y1: 0.25, X2: 0.75, Y2: 0.75}))
	require.True(t, m.Open(0, home, dest, 0))

	current := mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0})
	step, _ := m.Advance(250*time.Millisecond, current)
	want := mgl32.QuatSlerp(current, dest.Orientation, 0.25)
	assert.InDelta(t, 1, math.Abs(float64(step.Orientation.Dot(want))), 1e-5)
}

func TestNavigateWrapsAndReturns(t *testing.T) {
	for _, n := range []int{2, 3, 7} {
		m := NewMachine(n, WithEnter(0, easing.Standard))
		require.True(t, m.Open(0, home, dest, 0))
		_, ok := m.Advance(0, home.Orientation)
		require.True(t, ok)
		require.Equal(t, Project, m.State())

		idx, ok := m.Navigate(-1)
		require.True(t, ok)
		assert.Equal(t, n-1, idx)

		idx, _ = m.Navigate(1)
		assert.Equal(t, 0, idx)

		for range 3 * n {
			idx, _ = m.Navigate(1)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, n)
		}

		before := m.Active()
		m.Navigate(1)
		m.Navigate(-1)
		assert.Equal(t, before, m.Active())
		assert.Equal(t, Project, m.State())
	}
}

func TestFrozenOnlyForFocusOutsideGallery(t *testing.T) {
	m := NewMachine(4)
	assert.False(t, m.Frozen(0))

	require.True(t, m.Open(2, home, dest, 0))
	assert.True(t, m.Frozen(2))
	assert.False(t, m.Frozen(1))

	runToEnd(t, m, 0)
	assert.True(t, m.Frozen(2))

	m.Navigate(1)
	assert.True(t, m.Frozen(3))
	assert.False(t, m.Frozen(2))
}

func TestStateNames(t *testing.T) {
	b, err := Project.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "project", string(b))
	assert.Equal(t, "transitioning", Transitioning.String())
	assert.Equal(t, "exit", KindExit.String())
}
