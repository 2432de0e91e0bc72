// Package gesture classifies facial expressions and hand gestures from
// landmark frames and smooths the result over time.
package gesture

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLabel is returned when parsing a label name that does not exist.
var ErrUnknownLabel = errors.New("unknown label")

// Label identifies a recognized gesture, or Default when none is active.
type Label int

const (
	// Default is the idle label shown when no gesture is active.
	Default Label = iota
	TongueOut
	EyesClosed
	PeaceSign
	ThumbsUp
	OpenPalm
	Fist
	Heart
)

var labelNames = [...]string{
	Default:    "default",
	TongueOut:  "tongue_out",
	EyesClosed: "eyes_closed",
	PeaceSign:  "peace_sign",
	ThumbsUp:   "thumbs_up",
	OpenPalm:   "open_palm",
	Fist:       "fist",
	Heart:      "heart",
}

// Labels returns every label, Default first.
func Labels() []Label {
	labels := make([]Label, len(labelNames))
	for i := range labelNames {
		labels[i] = Label(i)
	}
	return labels
}

// String returns the snake_case name of the label.
func (l Label) String() string {
	if l < 0 || int(l) >= len(labelNames) {
		return fmt.Sprintf("label(%d)", int(l))
	}
	return labelNames[l]
}

// Title returns the label formatted for display, e.g. "Thumbs Up".
func (l Label) Title() string {
	words := strings.Split(l.String(), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseLabel converts a snake_case name back into a Label.
func ParseLabel(s string) (Label, error) {
	for i, name := range labelNames {
		if name == s {
			return Label(i), nil
		}
	}
	return Default, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
