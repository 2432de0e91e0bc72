// Package hook runs external executables when the on-screen reaction changes.
package hook

import (
	"encoding/json"

	"github.com/ayusman/reactcam/internal/gesture"
)

// ManifestFile is the manifest each hook directory must contain.
const ManifestFile = "hook.json"

// EventReactionChanged is the only event currently sent to hooks.
const EventReactionChanged = "reaction_changed"

// Manifest describes a hook's metadata and the labels it reacts to.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	// Labels restricts the hook to these label names; empty means all.
	Labels []string        `json:"labels,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Event is written to a hook's stdin as JSON.
type Event struct {
	Event     string          `json:"event"`
	Label     string          `json:"label"`
	Title     string          `json:"title"`
	Previous  string          `json:"previous"`
	Timestamp int64           `json:"timestamp"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read from a hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Wants reports whether the hook subscribed to label.
func (h *Hook) Wants(label gesture.Label) bool {
	if len(h.Manifest.Labels) == 0 {
		return true
	}
	for _, name := range h.Manifest.Labels {
		if name == label.String() {
			return true
		}
	}
	return false
}
