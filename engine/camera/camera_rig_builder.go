package camera

// RigBuilderOption is a functional option for configuring a Rig.
type RigBuilderOption func(*rigImpl)

// WithMode sets the initial input scheme.
//
// Parameters:
//   - mode: ModeSteer or ModeLook
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithMode(mode Mode) RigBuilderOption {
	return func(r *rigImpl) {
		r.mode = mode
	}
}

// WithDamping sets the rate at which yaw and pitch approach their targets.
//
// Parameters:
//   - lambda: smoothing rate per second
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithDamping(lambda float32) RigBuilderOption {
	return func(r *rigImpl) {
		r.damping = lambda
	}
}

// WithSteerResponse tunes the steer scheme.
//
// Parameters:
//   - frequency: angular frequency of the critically damped input spring
//   - yawAcceleration: yaw rate at full deflection, radians per second
//   - tiltRange: pitch offset from home at full vertical deflection
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithSteerResponse(frequency, yawAcceleration, tiltRange float32) RigBuilderOption {
	return func(r *rigImpl) {
		r.steerFrequency = frequency
		r.yawAcceleration = yawAcceleration
		r.tiltRange = tiltRange
	}
}

// WithLookSensitivity sets the mouse-look scale in radians per pixel.
func WithLookSensitivity(sensitivity float32) RigBuilderOption {
	return func(r *rigImpl) {
		r.lookSensitivity = sensitivity
	}
}

// WithMoveSpeed sets the strafing speed in world units per second.
func WithMoveSpeed(speed float32) RigBuilderOption {
	return func(r *rigImpl) {
		r.moveSpeed = speed
	}
}

// WithHeightBounds sets the vertical band the camera is held inside while navigating.
//
// Parameters:
//   - min: lowest camera height
//   - max: highest camera height
//
// Returns:
//   - RigBuilderOption: option function to apply
func WithHeightBounds(min, max float32) RigBuilderOption {
	return func(r *rigImpl) {
		r.heightMin = min
		r.heightMax = max
	}
}

// WithScrollThreshold sets the minimum scroll delta that counts as a navigation step.
func WithScrollThreshold(threshold float32) RigBuilderOption {
	return func(r *rigImpl) {
		r.scrollThreshold = threshold
	}
}
