package texture

// StreamerBuilderOption is a functional option for configuring a Streamer.
type StreamerBuilderOption func(*streamer)

// WithInitialBatch sets how many objects RequestInitial queues.
//
// Parameters:
//   - n: the batch size; negative values are treated as 0
//
// Returns:
//   - StreamerBuilderOption: option function to apply
func WithInitialBatch(n int) StreamerBuilderOption {
	return func(s *streamer) {
		s.initialBatch = max(n, 0)
	}
}

// WithLoadDistance sets the camera distance under which RequestNear queues an object.
//
// Parameters:
//   - d: the distance in world units
//
// Returns:
//   - StreamerBuilderOption: option function to apply
func WithLoadDistance(d float32) StreamerBuilderOption {
	return func(s *streamer) {
		if d > 0 {
			s.loadDistance = d
		}
	}
}

// WithMaxDimension caps the longest side of decoded textures.
//
// Parameters:
//   - px: the maximum width or height in pixels; 0 disables scaling
//
// Returns:
//   - StreamerBuilderOption: option function to apply
func WithMaxDimension(px int) StreamerBuilderOption {
	return func(s *streamer) {
		s.maxDim = max(px, 0)
	}
}

// WithWorkers sets the number of concurrent fetch workers.
//
// Parameters:
//   - n: the worker count; values < 1 are ignored
//
// Returns:
//   - StreamerBuilderOption: option function to apply
func WithWorkers(n int) StreamerBuilderOption {
	return func(s *streamer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithGeneration tags every result with the owning scene's generation.
// Results whose generation differs from the streamer's are dropped on Drain.
//
// Parameters:
//   - gen: the scene generation
//
// Returns:
//   - StreamerBuilderOption: option function to apply
func WithGeneration(gen uint64) StreamerBuilderOption {
	return func(s *streamer) {
		s.generation = gen
	}
}
