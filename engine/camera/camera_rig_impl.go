package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"
)

// rigImpl is the single implementation of Rig.
type rigImpl struct {
	mu *sync.Mutex

	mode Mode

	yaw         float32
	pitch       float32
	targetYaw   float32
	targetPitch float32

	homePosition    mgl32.Vec3
	homeOrientation mgl32.Quat
	homeYaw         float32
	homePitch       float32

	// steer accumulators and their spring state
	spinInput float32
	tiltInput float32
	spin      float64
	spinVel   float64
	tilt      float64
	tiltVel   float64

	// look accumulators
	lookDX float32
	lookDY float32
	keys   map[uint32]bool

	damping         float32
	steerFrequency  float32
	yawAcceleration float32
	tiltRange       float32
	steerPitchMin   float32
	steerPitchMax   float32
	pitchFollow     float32
	lookSensitivity float32
	lookPitchLimit  float32
	moveSpeed       float32
	heightMin       float32
	heightMax       float32
	dollyScale      float32
	dollyLimit      float32
	dollyHeightMin  float32
	dollyHeightMax  float32
	scrollThreshold float32
}

// Compile-time interface compliance check
var _ Rig = &rigImpl{}

// NewRig creates a camera rig with the gallery's tuning.
//
// Parameters:
//   - options: functional options to configure the rig
//
// Returns:
//   - Rig: the newly created rig
func NewRig(options ...RigBuilderOption) Rig {
	r := &rigImpl{
		mu:              &sync.Mutex{},
		mode:            ModeSteer,
		homeOrientation: mgl32.QuatIdent(),
		keys:            make(map[uint32]bool),

		damping:         4,
		steerFrequency:  3.6,
		yawAcceleration: 1.85,
		tiltRange:       0.45,
		steerPitchMin:   -0.95,
		steerPitchMax:   0.5,
		pitchFollow:     3,
		lookSensitivity: 0.0022,
		lookPitchLimit:  1.35,
		moveSpeed:       4.2,
		heightMin:       -1,
		heightMax:       8,
		dollyScale:      0.0012,
		dollyLimit:      1.8,
		dollyHeightMin:  0.8,
		dollyHeightMax:  9,
		scrollThreshold: 18,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *rigImpl) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *rigImpl) SetMode(mode Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
	r.clearInput()
}

func (r *rigImpl) Yaw() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.yaw
}

func (r *rigImpl) Pitch() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pitch
}

func (r *rigImpl) Targets() (float32, float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targetYaw, r.targetPitch
}

func (r *rigImpl) SetTargets(yaw, pitch float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targetYaw = yaw
	r.targetPitch = common.Clamp(pitch, -r.lookPitchLimit, r.lookPitchLimit)
}

func (r *rigImpl) Home() (mgl32.Vec3, mgl32.Quat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.homePosition, r.homeOrientation
}

func (r *rigImpl) HomeAngles() (float32, float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.homeYaw, r.homePitch
}

func (r *rigImpl) CaptureHome(cam Camera) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.homePosition = cam.Position()
	r.homeOrientation = cam.Orientation()
	r.homeYaw, r.homePitch = common.YawPitch(cam.Forward())
	r.resetToHome()
}

func (r *rigImpl) ResetToHome() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetToHome()
}

func (r *rigImpl) SetSteer(x, y float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spinInput = x
	r.tiltInput = y
}

func (r *rigImpl) ClearSteer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spinInput = 0
	r.tiltInput = 0
}

func (r *rigImpl) AddLook(dx, dy float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookDX += dx
	r.lookDY += dy
}

func (r *rigImpl) SetKey(keyCode uint32, down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if down {
		r.keys[keyCode] = true
	} else {
		delete(r.keys, keyCode)
	}
}

func (r *rigImpl) ReleaseKeys() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.keys)
	r.lookDX, r.lookDY = 0, 0
}

func (r *rigImpl) Damp(dt float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.yaw = common.Damp(r.yaw, r.targetYaw, r.damping, dt)
	r.pitch = common.Damp(r.pitch, r.targetPitch, r.damping, dt)
}

func (r *rigImpl) Drive(cam Camera, dt float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos := cam.Position()
	switch r.mode {
	case ModeSteer:
		r.steer(dt)
	case ModeLook:
		r.look()
		pos = pos.Add(r.movement().Mul(r.moveSpeed * dt))
	}

	pos[1] = common.Clamp(pos[1], r.heightMin, r.heightMax)
	target := pos.Add(common.LookDirection(r.yaw, r.pitch))
	cam.SetPose(pos, common.LookRotation(pos, target, common.WorldUp))
}

func (r *rigImpl) Dolly(cam Camera, deltaY float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	step := common.Clamp(deltaY*r.dollyScale, -r.dollyLimit, r.dollyLimit)
	pos := cam.Position().Add(cam.Forward().Mul(step))
	pos[1] = common.Clamp(pos[1], r.dollyHeightMin, r.dollyHeightMax)
	cam.SetPosition(pos)
}

func (r *rigImpl) ScrollStep(deltaY float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if float32(math.Abs(float64(deltaY))) <= r.scrollThreshold {
		return 0
	}
	if deltaY > 0 {
		return 1
	}
	return -1
}

// steer advances the input springs and turns the smoothed deflection into target changes.
// Caller must hold the mutex.
func (r *rigImpl) steer(dt float32) {
	if dt <= 0 {
		return
	}
	spring := harmonica.NewSpring(float64(dt), float64(r.steerFrequency), 1.0)
	r.spin, r.spinVel = spring.Update(r.spin, r.spinVel, float64(common.Clamp(r.spinInput, -1, 1)))
	r.tilt, r.tiltVel = spring.Update(r.tilt, r.tiltVel, float64(common.Clamp(r.tiltInput, -1, 1)))

	spin := float32(r.spin)
	r.targetYaw -= spin * float32(math.Abs(r.spin)) * r.yawAcceleration * dt

	desired := common.Clamp(r.homePitch+float32(r.tilt)*r.tiltRange, r.steerPitchMin, r.steerPitchMax)
	r.targetPitch = common.Damp(r.targetPitch, desired, r.pitchFollow, dt)
}

// look consumes accumulated pointer motion. Caller must hold the mutex.
func (r *rigImpl) look() {
	r.targetYaw -= r.lookDX * r.lookSensitivity
	r.targetPitch = common.Clamp(r.targetPitch-r.lookDY*r.lookSensitivity, -r.lookPitchLimit, r.lookPitchLimit)
	r.lookDX, r.lookDY = 0, 0
}

// movement builds the strafing vector from held keys, at most unit length.
// Forward and sideways are projected onto the ground plane; vertical is world up.
// Caller must hold the mutex.
func (r *rigImpl) movement() mgl32.Vec3 {
	axis := func(pos, neg []uint32) float32 {
		var v float32
		for _, k := range pos {
			if r.keys[k] {
				v++
				break
			}
		}
		for _, k := range neg {
			if r.keys[k] {
				v--
				break
			}
		}
		return v
	}

	forward := common.LookDirection(r.yaw, 0)
	right := forward.Cross(common.WorldUp).Normalize()

	move := forward.Mul(axis([]uint32{common.KeyW, common.KeyUp}, []uint32{common.KeyS, common.KeyDown})).
		Add(right.Mul(axis([]uint32{common.KeyD}, []uint32{common.KeyA}))).
		Add(common.WorldUp.Mul(axis([]uint32{common.KeySpace, common.KeyE}, []uint32{common.KeyLeftShift, common.KeyRightShift, common.KeyQ})))
	if l := move.Len(); l > 1 {
		move = move.Mul(1 / l)
	}
	return move
}

// resetToHome aligns all angles with the home pose and drops residual input. Caller must hold the mutex.
func (r *rigImpl) resetToHome() {
	r.yaw, r.pitch = r.homeYaw, r.homePitch
	r.targetYaw, r.targetPitch = r.homeYaw, r.homePitch
}

// clearInput drops every accumulator. Caller must hold the mutex.
func (r *rigImpl) clearInput() {
	r.spinInput, r.tiltInput = 0, 0
	r.spin, r.spinVel, r.tilt, r.tiltVel = 0, 0, 0, 0
	r.lookDX, r.lookDY = 0, 0
	clear(r.keys)
}
