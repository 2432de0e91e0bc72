package gesture

import "time"

// IdleTimeout is how long a label is held after its last positive detection
// before the state falls back to Default.
const IdleTimeout = time.Second

// State is the per-session smoothing state. It is owned by the goroutine
// that runs the frame loop; the zero value starts at Default.
type State struct {
	Current        Label
	LastDetectedAt time.Time
}

// NewState returns a State showing Default, with the idle clock starting at now.
func NewState(now time.Time) *State {
	return &State{Current: Default, LastDetectedAt: now}
}

// Observe folds one frame's detection result into the state and returns the
// label to show. A detection switches immediately and refreshes
// LastDetectedAt; otherwise the label reverts to Default once more than
// IdleTimeout has passed since the last detection.
func (s *State) Observe(label Label, detected bool, now time.Time) Label {
	if detected {
		s.Current = label
		s.LastDetectedAt = now
		return s.Current
	}

	if s.Current != Default && now.Sub(s.LastDetectedAt) > IdleTimeout {
		s.Current = Default
	}
	return s.Current
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() State {
	return *s
}
