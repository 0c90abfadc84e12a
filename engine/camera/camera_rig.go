package camera

import "github.com/go-gl/mathgl/mgl32"

// Mode selects how player input steers the camera while the gallery is free to navigate.
type Mode int

const (
	// ModeSteer maps the pointer's offset from the viewport centre to a yaw/pitch rate, like a joystick.
	ModeSteer Mode = iota
	// ModeLook uses relative pointer motion for mouse-look and held keys for strafing.
	ModeLook
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSteer:
		return "steer"
	case ModeLook:
		return "look"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration name into a Mode.
//
// Parameters:
//   - s: "steer" or "look"
//
// Returns:
//   - Mode: the parsed mode
//   - bool: false if s is not a known mode
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "steer":
		return ModeSteer, true
	case "look":
		return ModeLook, true
	default:
		return ModeSteer, false
	}
}

// Rig is the player-driven camera controller.
// It keeps yaw/pitch plus their targets, damps the former toward the latter every frame, and
// owns the input accumulators written by event handlers and read once per tick.
// Yaw is unbounded; pitch is always clamped.
type Rig interface {
	// Mode returns the active input scheme.
	//
	// Returns:
	//   - Mode: the input scheme
	Mode() Mode

	// SetMode switches the input scheme and clears accumulated input.
	//
	// Parameters:
	//   - mode: the new input scheme
	SetMode(mode Mode)

	// Yaw returns the current yaw in radians.
	//
	// Returns:
	//   - float32: yaw in radians, 0 facing +Z
	Yaw() float32

	// Pitch returns the current pitch in radians.
	//
	// Returns:
	//   - float32: pitch in radians, positive looking up
	Pitch() float32

	// Targets returns the yaw and pitch the rig is damping toward.
	//
	// Returns:
	//   - yaw, pitch: target angles in radians
	Targets() (yaw, pitch float32)

	// SetTargets points the rig at a new yaw and pitch without snapping.
	// Pitch is clamped to the rig's bounds.
	//
	// Parameters:
	//   - yaw, pitch: target angles in radians
	SetTargets(yaw, pitch float32)

	// Home returns the rest pose captured from the camera.
	//
	// Returns:
	//   - mgl32.Vec3: the home position
	//   - mgl32.Quat: the home orientation
	Home() (mgl32.Vec3, mgl32.Quat)

	// HomeAngles returns the yaw and pitch of the home pose.
	//
	// Returns:
	//   - yaw, pitch: home angles in radians
	HomeAngles() (yaw, pitch float32)

	// CaptureHome records the camera's current pose as the home pose and aligns yaw/pitch to it.
	//
	// Parameters:
	//   - cam: the camera to read
	CaptureHome(cam Camera)

	// ResetToHome sets yaw, pitch and both targets to the home angles exactly.
	ResetToHome()

	// SetSteer records the pointer position in NDC for the steer scheme.
	//
	// Parameters:
	//   - x, y: pointer offset from the viewport centre, nominally in [-1, 1]
	SetSteer(x, y float32)

	// ClearSteer recentres the steer input, as when the pointer leaves the surface.
	ClearSteer()

	// AddLook accumulates relative pointer motion in pixels for the look scheme.
	//
	// Parameters:
	//   - dx, dy: pointer movement since the last event
	AddLook(dx, dy float32)

	// SetKey records a movement key as held or released.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	//   - down: true when pressed
	SetKey(keyCode uint32, down bool)

	// ReleaseKeys forgets every held key, as when pointer lock is lost.
	ReleaseKeys()

	// Damp moves yaw and pitch toward their targets for one frame.
	//
	// Parameters:
	//   - dt: frame delta time in seconds
	Damp(dt float32)

	// Drive integrates one frame of player input and writes the resulting pose into cam.
	// Only called while the gallery is free to navigate.
	//
	// Parameters:
	//   - cam: the camera to move
	//   - dt: frame delta time in seconds
	Drive(cam Camera, dt float32)

	// Dolly moves cam along its view direction in response to a scroll delta.
	//
	// Parameters:
	//   - cam: the camera to move
	//   - deltaY: the scroll delta, positive moving forward
	Dolly(cam Camera, deltaY float32)

	// ScrollStep converts a scroll delta into a navigation step for the project view.
	//
	// Parameters:
	//   - deltaY: the scroll delta
	//
	// Returns:
	//   - int: +1, -1, or 0 when the delta is below the threshold
	ScrollStep(deltaY float32) int
}
