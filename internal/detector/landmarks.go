// Package detector provides face and hand landmark detection interfaces and types.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Face mesh landmark indices consumed by the expression rules.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	UpperLipCenter   = 13
	LowerLipCenter   = 14
	LeftEyeLowerLid  = 145
	LeftEyeUpperLid  = 159
	RightEyeLowerLid = 374
	RightEyeUpperLid = 386

	// NumFaceLandmarks is the face mesh size without iris refinement.
	NumFaceLandmarks = 468
	// NumFaceLandmarksRefined is the face mesh size with iris refinement enabled.
	NumFaceLandmarksRefined = 478
)

// MaxHands is the most hands a single frame can carry.
const MaxHands = 2

// ErrMalformedLandmarks is returned when a frame carries landmark sets that
// cannot be classified (wrong point count or non-finite coordinates).
var ErrMalformedLandmarks = errors.New("malformed landmarks")

// Point3D represents a 3D point in space with x, y, z coordinates.
// X and Y are normalized to [0,1] relative to frame width and height.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IsFinite reports whether all coordinates are finite numbers.
func (p Point3D) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// Complete reports whether the hand carries the full set of 21 landmarks.
func (h *HandLandmarks) Complete() bool {
	return h != nil && len(h.Points) == NumLandmarks
}

// Validate checks the point count and that every coordinate is finite.
func (h *HandLandmarks) Validate() error {
	if !h.Complete() {
		n := 0
		if h != nil {
			n = len(h.Points)
		}
		return fmt.Errorf("%w: hand has %d points, want %d", ErrMalformedLandmarks, n, NumLandmarks)
	}
	return validatePoints(h.Points)
}

// FaceLandmarks represents a MediaPipe face mesh.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// Complete reports whether the mesh has one of the two sizes MediaPipe
// produces, with or without iris refinement.
func (f *FaceLandmarks) Complete() bool {
	if f == nil {
		return false
	}
	n := len(f.Points)
	return n == NumFaceLandmarks || n == NumFaceLandmarksRefined
}

// Validate checks the mesh size and that every coordinate is finite.
func (f *FaceLandmarks) Validate() error {
	if !f.Complete() {
		n := 0
		if f != nil {
			n = len(f.Points)
		}
		return fmt.Errorf("%w: face has %d points, want %d or %d",
			ErrMalformedLandmarks, n, NumFaceLandmarks, NumFaceLandmarksRefined)
	}
	return validatePoints(f.Points)
}

// DetectionFrame holds everything the detector found in a single video frame.
type DetectionFrame struct {
	Face  *FaceLandmarks  `json:"face,omitempty"`
	Hands []HandLandmarks `json:"hands"`
}

// Empty reports whether neither a face nor any hand was detected.
func (f DetectionFrame) Empty() bool {
	return f.Face == nil && len(f.Hands) == 0
}

// Validate returns ErrMalformedLandmarks (wrapped) if any landmark set in the
// frame is unusable. An empty frame is valid.
func (f DetectionFrame) Validate() error {
	if len(f.Hands) > MaxHands {
		return fmt.Errorf("%w: %d hands, at most %d expected", ErrMalformedLandmarks, len(f.Hands), MaxHands)
	}
	if f.Face != nil {
		if err := f.Face.Validate(); err != nil {
			return err
		}
	}
	for i := range f.Hands {
		if err := f.Hands[i].Validate(); err != nil {
			return fmt.Errorf("hand %d: %w", i, err)
		}
	}
	return nil
}

func validatePoints(points []Point3D) error {
	for i, p := range points {
		if !p.IsFinite() {
			return fmt.Errorf("%w: point %d is not finite", ErrMalformedLandmarks, i)
		}
	}
	return nil
}
