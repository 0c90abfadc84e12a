package scene

import (
	"context"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-gallery/engine/camera"
	"github.com/Carmen-Shannon/oxy-gallery/engine/labels"
	"github.com/Carmen-Shannon/oxy-gallery/engine/orbit"
	"github.com/Carmen-Shannon/oxy-gallery/engine/texture"
	"github.com/Carmen-Shannon/oxy-gallery/engine/view"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier used in log lines.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithGeneration tags the scene and its texture results with a build generation.
// A rebuilt scene gets a new generation so results addressed to its predecessor are dropped.
//
// Parameters:
//   - gen: the generation
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithGeneration(gen uint64) SceneBuilderOption {
	return func(s *scene) {
		s.generation = gen
	}
}

// WithContext sets the parent context for texture fetches.
//
// Parameters:
//   - ctx: the parent context
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithContext(ctx context.Context) SceneBuilderOption {
	return func(s *scene) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// WithCamera replaces the default home-posed camera. The camera's pose at construction
// becomes the home pose.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithRig replaces the default steer-scheme rig.
//
// Parameters:
//   - rig: the camera rig
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRig(rig camera.Rig) SceneBuilderOption {
	return func(s *scene) {
		s.rig = rig
	}
}

// WithLayout sets the orbit layout objects are placed on.
//
// Parameters:
//   - layout: the orbit layout
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLayout(layout orbit.Layout) SceneBuilderOption {
	return func(s *scene) {
		s.layout = layout
	}
}

// WithRand sets the random source for per-object orbit parameters.
//
// Parameters:
//   - rng: the random source
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRand(rng *rand.Rand) SceneBuilderOption {
	return func(s *scene) {
		s.rng = rng
	}
}

// WithLabelLayout sets the label offset mapping.
//
// Parameters:
//   - layout: the label layout
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLabelLayout(layout labels.Layout) SceneBuilderOption {
	return func(s *scene) {
		s.labelLayout = layout
	}
}

// WithFetcher sets the byte source for artwork.
//
// Parameters:
//   - f: the fetcher
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithFetcher(f texture.Fetcher) SceneBuilderOption {
	return func(s *scene) {
		s.fetcher = f
	}
}

// WithStreamerOptions forwards options to the texture streamer.
//
// Parameters:
//   - options: streamer options
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithStreamerOptions(options ...texture.StreamerBuilderOption) SceneBuilderOption {
	return func(s *scene) {
		s.streamOpt = append(s.streamOpt, options...)
	}
}

// WithMachineOptions forwards options to the view state machine.
//
// Parameters:
//   - options: machine options
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMachineOptions(options ...view.MachineOption) SceneBuilderOption {
	return func(s *scene) {
		s.machOpt = append(s.machOpt, options...)
	}
}

// WithViewport sets the initial surface size.
//
// Parameters:
//   - width, height: the size in pixels
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithViewport(width, height int) SceneBuilderOption {
	return func(s *scene) {
		if width > 0 && height > 0 {
			s.width, s.height = width, height
		}
	}
}

// WithFog sets the distance fog packed into the camera uniform.
//
// Parameters:
//   - color: linear RGBA fog colour
//   - near, far: the fog band
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithFog(color [4]float32, near, far float32) SceneBuilderOption {
	return func(s *scene) {
		s.fogColor, s.fogNear, s.fogFar = color, near, far
	}
}

// WithNavigateFlight animates the camera between neighbours in the project view
// instead of swapping focus in place.
//
// Parameters:
//   - enabled: true to fly between projects
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithNavigateFlight(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.navFlight = enabled
	}
}

// WithOnReady registers a callback fired once when the ready latch trips.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithOnReady(fn func()) SceneBuilderOption {
	return func(s *scene) {
		s.onReady = fn
	}
}

// WithOnViewChange registers a callback fired when a transition starts or commits
// and when the project focus changes.
//
// Parameters:
//   - fn: receives the new view state and focus
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithOnViewChange(fn func(state view.State, focus int)) SceneBuilderOption {
	return func(s *scene) {
		s.onView = fn
	}
}

// WithPointerLockHandler registers the function that acquires or releases pointer lock.
// The scene requests a lock on click in the look scheme and a release on Escape.
//
// Parameters:
//   - fn: receives true to lock and false to release
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPointerLockHandler(fn func(lock bool)) SceneBuilderOption {
	return func(s *scene) {
		s.onLockRequest = fn
	}
}

// WithFirstInteraction registers a callback fired on the first pointer press.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithFirstInteraction(fn func()) SceneBuilderOption {
	return func(s *scene) {
		s.onInteract = fn
	}
}
