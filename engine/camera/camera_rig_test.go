package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = float32(1.0 / 60)

func newRig(t *testing.T, options ...RigBuilderOption) (Rig, Camera) {
	t.Helper()
	c := newHomeCamera()
	r := NewRig(options...)
	r.CaptureHome(c)
	return r, c
}

func tick(r Rig, c Camera, frames int) {
	for range frames {
		r.Damp(frame)
		r.Drive(c, frame)
	}
}

func TestCaptureHomeAngles(t *testing.T) {
	r, c := newRig(t)
	yaw, pitch := r.HomeAngles()
	assert.InDelta(t, 3.14159, abs32(yaw), 1e-4)
	assert.Less(t, pitch, float32(0))
	assert.Equal(t, yaw, r.Yaw())
	ty, tp := r.Targets()
	assert.Equal(t, yaw, ty)
	assert.Equal(t, pitch, tp)

	pos, rot := r.Home()
	assert.Equal(t, c.Position(), pos)
	assert.Equal(t, c.Orientation(), rot)
}

func TestIdleDriveIsStable(t *testing.T) {
	r, c := newRig(t)
	tick(r, c, 1)
	pos, rot := c.Position(), c.Orientation()
	tick(r, c, 30)
	assert.Equal(t, pos, c.Position())
	assert.Equal(t, rot, c.Orientation())
}

func TestSteerDriftsAndRecentres(t *testing.T) {
	r, c := newRig(t)
	homeYaw, _ := r.HomeAngles()

	r.SetSteer(1, 0)
	tick(r, c, 120)
	ty, _ := r.Targets()
	assert.Less(t, ty, homeYaw)
	assert.Less(t, r.Yaw(), homeYaw)

	r.ClearSteer()
	tick(r, c, 600)
	settled, _ := r.Targets()
	tick(r, c, 60)
	after, _ := r.Targets()
	assert.InDelta(t, settled, after, 1e-3)
	assert.InDelta(t, after, r.Yaw(), 1e-2)
}

func TestSteerInputIsClampedAndPitchBounded(t *testing.T) {
	r, c := newRig(t)
	r.SetSteer(0, 50)
	tick(r, c, 600)
	_, tp := r.Targets()
	assert.LessOrEqual(t, tp, float32(0.5))

	r.SetSteer(0, -50)
	tick(r, c, 600)
	_, tp = r.Targets()
	assert.GreaterOrEqual(t, tp, float32(-0.95))
}

func TestLookPitchIsClamped(t *testing.T) {
	r, c := newRig(t, WithMode(ModeLook))
	r.AddLook(0, -1e6)
	tick(r, c, 1)
	_, tp := r.Targets()
	assert.Equal(t, float32(1.35), tp)

	r.AddLook(0, 1e6)
	tick(r, c, 1)
	_, tp = r.Targets()
	assert.Equal(t, float32(-1.35), tp)
}

func TestLookTurnsRightOnRightwardMotion(t *testing.T) {
	r, c := newRig(t, WithMode(ModeLook))
	before, _ := r.Targets()
	r.AddLook(100, 0)
	tick(r, c, 1)
	after, _ := r.Targets()
	assert.InDelta(t, before-100*0.0022, after, 1e-5)
}

func TestStrafeMovesOnGroundPlane(t *testing.T) {
	r, c := newRig(t, WithMode(ModeLook))
	r.SetTargets(0, 0.8)
	tick(r, c, 300)

	start := c.Position()
	r.SetKey(common.KeyW, true)
	r.Damp(frame)
	r.Drive(c, 0.5)
	moved := c.Position().Sub(start)

	assert.InDelta(t, 0, moved.Y(), 1e-5)
	assert.InDelta(t, 4.2*0.5, moved.Len(), 1e-3)
	dir := common.LookDirection(r.Yaw(), 0)
	assert.Greater(t, moved.Normalize().Dot(dir), float32(0.999))

	r.SetKey(common.KeyW, false)
	start = c.Position()
	r.Drive(c, 0.5)
	assert.Equal(t, start, c.Position())
}

func TestHeightBandIsEnforced(t *testing.T) {
	r, c := newRig(t, WithMode(ModeLook))
	r.SetKey(common.KeySpace, true)
	for range 100 {
		r.Drive(c, 0.5)
	}
	assert.Equal(t, float32(8), c.Position().Y())

	r.ReleaseKeys()
	r.SetKey(common.KeyLeftShift, true)
	for range 100 {
		r.Drive(c, 0.5)
	}
	assert.Equal(t, float32(-1), c.Position().Y())
}

func TestEitherShiftMovesDown(t *testing.T) {
	for _, key := range []uint32{common.KeyLeftShift, common.KeyRightShift} {
		r, c := newRig(t, WithMode(ModeLook))
		start := c.Position().Y()
		r.SetKey(key, true)
		r.Drive(c, 0.1)
		assert.Less(t, c.Position().Y(), start, "key %d", key)
	}
}

func TestDollyAlongViewDirection(t *testing.T) {
	r, c := newRig(t)
	start := c.Position()
	forward := c.Forward()

	r.Dolly(c, 500)
	moved := c.Position().Sub(start)
	assert.InDelta(t, 0.6, moved.Len(), 1e-4)
	assert.Greater(t, moved.Normalize().Dot(forward), float32(0.999))

	start = c.Position()
	r.Dolly(c, 1e6)
	assert.InDelta(t, 1.8, c.Position().Sub(start).Len(), 0.1)

	c.SetPosition(mgl32.Vec3{0, 0.5, 0})
	r.Dolly(c, 1)
	assert.Equal(t, float32(0.8), c.Position().Y())
}

func TestScrollStepThreshold(t *testing.T) {
	r := NewRig()
	assert.Equal(t, 0, r.ScrollStep(10))
	assert.Equal(t, 0, r.ScrollStep(-18))
	assert.Equal(t, 1, r.ScrollStep(40))
	assert.Equal(t, -1, r.ScrollStep(-40))
}

func TestResetToHomeIsExact(t *testing.T) {
	r, c := newRig(t, WithMode(ModeLook))
	r.AddLook(300, 120)
	tick(r, c, 20)
	yaw, pitch := r.HomeAngles()
	require.NotEqual(t, yaw, r.Yaw())

	r.ResetToHome()
	ty, tp := r.Targets()
	assert.Equal(t, yaw, r.Yaw())
	assert.Equal(t, pitch, r.Pitch())
	assert.Equal(t, yaw, ty)
	assert.Equal(t, pitch, tp)
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("look")
	assert.True(t, ok)
	assert.Equal(t, ModeLook, m)
	assert.Equal(t, "look", m.String())
	_, ok = ParseMode("orbit")
	assert.False(t, ok)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
