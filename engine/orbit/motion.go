package orbit

import (
	"math"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/go-gl/mathgl/mgl32"
)

// flip turns an object half way around its vertical axis after the look-at.
var flip = mgl32.QuatRotate(math.Pi, common.WorldUp)

// Motion is the live orbit state of one object: its parameters plus freeze bookkeeping.
// It is owned by the frame tick and never touched concurrently.
type Motion struct {
	Params

	focalHeight float32
	focalDrift  float32
	follow      float32

	offset   float32
	frozen   bool
	frozenAt float32
}

// NewMotion creates the motion state for p using the focal and follow settings of layout.
func NewMotion(p Params, layout Layout) *Motion {
	return &Motion{
		Params:      p,
		focalHeight: layout.FocalHeight,
		focalDrift:  layout.FocalDrift,
		follow:      layout.LookFollow,
	}
}

// Frozen reports whether the motion is currently suspended.
func (m *Motion) Frozen() bool {
	return m.frozen
}

// Offset returns the accumulated time spent frozen, in seconds.
func (m *Motion) Offset() float32 {
	return m.offset
}

// EffectiveTime is the clock value the orbit is evaluated at, excluding frozen spans.
func (m *Motion) EffectiveTime(now float32) float32 {
	if m.frozen {
		return m.frozenAt - m.offset
	}
	return now - m.offset
}

// SetFrozen applies a freeze decision for the frame at now.
// Entering a freeze records the timestamp; leaving one adds the frozen span to the offset
// so the orbit resumes from where it stopped.
//
// Parameters:
//   - frozen: whether the object should be frozen this frame
//   - now: the global clock in seconds
//
// Returns:
//   - bool: true if the frozen state changed
func (m *Motion) SetFrozen(frozen bool, now float32) bool {
	if frozen == m.frozen {
		return false
	}
	if frozen {
		m.frozenAt = now
	} else {
		m.offset += now - m.frozenAt
	}
	m.frozen = frozen
	return true
}

// Position evaluates the orbit position at effective time et.
func (m *Motion) Position(et float32) mgl32.Vec3 {
	t := float64(et)
	angle := float64(m.BaseAngle) + t*float64(m.Speed)
	radius := float64(m.Radius) + math.Sin(t*0.45+float64(m.Phase))*float64(m.RadialPulse)
	height := float64(m.BaseHeight) + math.Sin(t*float64(m.BobFrequency)+float64(m.Phase))*float64(m.BobAmplitude)
	return mgl32.Vec3{
		float32(math.Cos(angle) * radius),
		float32(height),
		float32(math.Sin(angle) * radius),
	}
}

// TargetOrientation is the rotation an object at pos wants at effective time et:
// a look-at toward the drifting focal point, flipped half a turn, with a small wobble.
func (m *Motion) TargetOrientation(et float32, pos mgl32.Vec3) mgl32.Quat {
	t := float64(et)
	ph := float64(m.Phase)
	focal := mgl32.Vec3{0, m.focalHeight + float32(math.Sin(t*0.18+ph))*m.focalDrift, 0}

	base := common.LookRotation(pos, focal, common.WorldUp)
	drift := common.EulerXYZ(
		float32(math.Sin(t*0.6+ph)*0.04),
		float32(math.Cos(t*0.5+ph)*0.06),
		float32(math.Sin(t*0.4+ph)*0.02),
	)
	return base.Mul(flip).Mul(drift).Normalize()
}

// Initial returns the pose used when the object is first placed.
func (m *Motion) Initial() (mgl32.Vec3, mgl32.Quat) {
	pos := m.Position(0)
	return pos, m.TargetOrientation(0, pos)
}

// Update advances the object for the frame at now.
// A frozen object keeps its pose untouched; otherwise the position is set directly and the
// orientation follows the target by the layout's follow fraction.
//
// Parameters:
//   - now: the global clock in seconds
//   - freeze: whether the object must be frozen this frame
//   - pos: the current position
//   - rot: the current orientation
//
// Returns:
//   - mgl32.Vec3: the new position
//   - mgl32.Quat: the new orientation
func (m *Motion) Update(now float32, freeze bool, pos mgl32.Vec3, rot mgl32.Quat) (mgl32.Vec3, mgl32.Quat) {
	m.SetFrozen(freeze, now)
	if m.frozen {
		return pos, rot
	}
	et := m.EffectiveTime(now)
	next := m.Position(et)
	return next, common.Slerp(rot, m.TargetOrientation(et, next), m.follow)
}
