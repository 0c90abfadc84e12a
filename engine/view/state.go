// Package view owns the gallery's view state machine and the cinematic camera
// transitions between the free-roaming gallery and a focused project.
package view

// State is the closed set of view modes.
type State int

const (
	// Gallery is free navigation with orbit motion and picking live.
	Gallery State = iota
	// Transitioning means the camera is under animated control.
	Transitioning
	// Project means the camera is parked in front of the focused object.
	Project
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case Gallery:
		return "gallery"
	case Transitioning:
		return "transitioning"
	case Project:
		return "project"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name for JSON consumers.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event is an input to the transition table.
type Event int

const (
	// EventOpen begins flying toward an object.
	EventOpen Event = iota
	// EventClose begins flying back to the home pose.
	EventClose
	// EventNavigate swaps the focused object inside the project view.
	EventNavigate
	// EventArrive completes an enter transition.
	EventArrive
	// EventDepart completes an exit transition.
	EventDepart
)

// table is the single authority over which events each state accepts.
var table = map[State]map[Event]State{
	Gallery: {
		EventOpen: Transitioning,
	},
	Transitioning: {
		EventArrive: Project,
		EventDepart: Gallery,
	},
	Project: {
		EventClose:    Transitioning,
		EventNavigate: Project,
		EventOpen:     Transitioning,
	},
}

// Next returns the state reached by applying e in s.
//
// Parameters:
//   - s: the current state
//   - e: the event
//
// Returns:
//   - State: the resulting state
//   - bool: false when the event is not valid in s
func Next(s State, e Event) (State, bool) {
	next, ok := table[s][e]
	return next, ok
}
