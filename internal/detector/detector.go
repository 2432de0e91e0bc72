package detector

import "gocv.io/x/gocv"

// Detector defines the interface for face and hand landmark detection.
type Detector interface {
	// Detect analyzes a video frame and returns the detected landmarks.
	// Returns an empty frame if nothing is detected.
	Detect(frame *gocv.Mat) (DetectionFrame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxFaces is the maximum number of faces to detect (default: 1).
	MaxFaces int `json:"max_faces"`

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `json:"max_hands"`

	// RefineLandmarks enables iris refinement, producing 478 face points instead of 468.
	RefineLandmarks bool `json:"refine_landmarks"`

	// MinFaceConfidence is the minimum face detection confidence threshold (0.0-1.0).
	MinFaceConfidence float64 `json:"min_face_confidence"`

	// MinFaceTrackingConf is the minimum face tracking confidence threshold (0.0-1.0).
	MinFaceTrackingConf float64 `json:"min_face_tracking_confidence"`

	// MinHandConfidence is the minimum hand detection confidence threshold (0.0-1.0).
	MinHandConfidence float64 `json:"min_hand_confidence"`

	// MinHandTrackingConf is the minimum hand tracking confidence threshold (0.0-1.0).
	MinHandTrackingConf float64 `json:"min_hand_tracking_confidence"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxFaces:            1,
		MaxHands:            MaxHands,
		RefineLandmarks:     true,
		MinFaceConfidence:   0.5,
		MinFaceTrackingConf: 0.5,
		MinHandConfidence:   0.7,
		MinHandTrackingConf: 0.5,
	}
}
