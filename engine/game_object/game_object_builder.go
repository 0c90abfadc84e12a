package game_object

import (
	"github.com/Carmen-Shannon/oxy-gallery/engine/orbit"
	"github.com/go-gl/mathgl/mgl32"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithIndex sets the object's position in content order.
//
// Parameters:
//   - index: the stable object index
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the index
func WithIndex(index int) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.index = index
	}
}

// WithTitle sets the label caption. An empty title hides the label.
//
// Parameters:
//   - title: the caption
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the title
func WithTitle(title string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.title = title
	}
}

// WithSource sets the artwork image URL or path.
//
// Parameters:
//   - source: the image source
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the source
func WithSource(source string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.source = source
	}
}

// WithEnabled sets whether the GameObject is drawn.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithMotion attaches the orbit that drives the object each frame.
//
// Parameters:
//   - m: the orbit state
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the motion
func WithMotion(m *orbit.Motion) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.motion = m
	}
}

// WithPose sets the starting transform, overriding the motion's initial pose.
//
// Parameters:
//   - position: the world position
//   - orientation: the world orientation
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the pose
func WithPose(position mgl32.Vec3, orientation mgl32.Quat) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = position
		obj.orientation = orientation
		obj.posed = true
	}
}
