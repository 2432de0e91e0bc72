package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	frames []DetectionFrame
	index  int
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFrame makes every call to Detect return the given frame.
func (m *MockDetector) SetFrame(frame DetectionFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = []DetectionFrame{frame}
	m.index = 0
}

// SetHands makes every call to Detect return a frame with the given hands and no face.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.SetFrame(DetectionFrame{Hands: hands})
}

// SetSequence makes Detect return the given frames in order.
// The last frame is repeated once the sequence is exhausted.
func (m *MockDetector) SetSequence(frames []DetectionFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = frames
	m.index = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured frame or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (DetectionFrame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return DetectionFrame{}, m.err
	}
	if len(m.frames) == 0 {
		return DetectionFrame{}, nil
	}

	f := m.frames[m.index]
	if m.index < len(m.frames)-1 {
		m.index++
	}
	return f, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

func newHand(handedness string) HandLandmarks {
	return HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: handedness,
		Score:      0.95,
	}
}

// ThumbsUpLandmarks returns a preset HandLandmarks representing a thumbs up gesture.
// The thumb is extended upward while other fingers are curled.
func ThumbsUpLandmarks() HandLandmarks {
	landmarks := newHand("Right")

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended upward (pointing up, Y decreases going up)
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	// Index finger curled (knuckles close together, tip near palm)
	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	landmarks.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	landmarks.Points[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	landmarks.Points[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	// Middle finger curled
	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	landmarks.Points[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	// Ring finger curled
	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	// Pinky finger curled
	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return landmarks
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := newHand("Right")

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}

// PeaceSignLandmarks returns a preset HandLandmarks with the index and
// middle fingers raised and the ring and pinky fingers folded.
func PeaceSignLandmarks() HandLandmarks {
	landmarks := newHand("Right")

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb tucked across the palm
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.70, Z: -0.01}
	landmarks.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.66, Z: -0.02}
	landmarks.Points[ThumbTip] = Point3D{X: 0.53, Y: 0.64, Z: -0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.56, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.57, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.36, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.49, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.48, Y: 0.42, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.47, Y: 0.32, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: -0.01}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.62, Z: -0.04}
	landmarks.Points[RingDIP] = Point3D{X: 0.46, Y: 0.66, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.47, Y: 0.70, Z: -0.02}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: -0.01}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.65, Z: -0.04}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.41, Y: 0.69, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.42, Y: 0.72, Z: -0.02}

	return landmarks
}

// FistLandmarks returns a preset HandLandmarks representing a closed fist
// with the thumb folded in front of the fingers.
func FistLandmarks() HandLandmarks {
	landmarks := newHand("Right")

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.70, Z: -0.01}
	landmarks.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.71, Z: -0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.55, Y: 0.72, Z: -0.04}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.64, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.58, Z: -0.03}
	landmarks.Points[IndexDIP] = Point3D{X: 0.54, Y: 0.63, Z: -0.05}
	landmarks.Points[IndexTip] = Point3D{X: 0.53, Y: 0.66, Z: -0.04}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.62, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.56, Z: -0.03}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.49, Y: 0.61, Z: -0.05}
	landmarks.Points[MiddleTip] = Point3D{X: 0.49, Y: 0.65, Z: -0.04}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.64, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.58, Z: -0.03}
	landmarks.Points[RingDIP] = Point3D{X: 0.45, Y: 0.63, Z: -0.05}
	landmarks.Points[RingTip] = Point3D{X: 0.46, Y: 0.66, Z: -0.04}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.41, Y: 0.67, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.62, Z: -0.03}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.41, Y: 0.66, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.42, Y: 0.68, Z: -0.03}

	return landmarks
}

// HeartLandmarks returns two hands forming a heart: index fingertips touching
// at the top, thumb tips touching below them, wrists apart.
// The hands are returned in the order the classifier expects (left, right).
func HeartLandmarks() []HandLandmarks {
	left := newHand("Left")
	right := newHand("Right")

	// Left hand, wrist on the left of the frame
	left.Points[Wrist] = Point3D{X: 0.35, Y: 0.75, Z: 0.0}
	left.Points[ThumbCMC] = Point3D{X: 0.39, Y: 0.72, Z: 0.0}
	left.Points[ThumbMCP] = Point3D{X: 0.42, Y: 0.69, Z: 0.0}
	left.Points[ThumbIP] = Point3D{X: 0.45, Y: 0.65, Z: 0.0}
	left.Points[ThumbTip] = Point3D{X: 0.48, Y: 0.62, Z: 0.0}
	left.Points[IndexMCP] = Point3D{X: 0.38, Y: 0.62, Z: 0.0}
	left.Points[IndexPIP] = Point3D{X: 0.40, Y: 0.53, Z: 0.0}
	left.Points[IndexDIP] = Point3D{X: 0.44, Y: 0.47, Z: 0.0}
	left.Points[IndexTip] = Point3D{X: 0.48, Y: 0.45, Z: 0.0}
	left.Points[MiddleMCP] = Point3D{X: 0.36, Y: 0.62, Z: 0.0}
	left.Points[MiddlePIP] = Point3D{X: 0.38, Y: 0.56, Z: -0.02}
	left.Points[MiddleDIP] = Point3D{X: 0.40, Y: 0.58, Z: -0.03}
	left.Points[MiddleTip] = Point3D{X: 0.41, Y: 0.61, Z: -0.03}
	left.Points[RingMCP] = Point3D{X: 0.34, Y: 0.63, Z: 0.0}
	left.Points[RingPIP] = Point3D{X: 0.36, Y: 0.58, Z: -0.02}
	left.Points[RingDIP] = Point3D{X: 0.38, Y: 0.60, Z: -0.03}
	left.Points[RingTip] = Point3D{X: 0.39, Y: 0.63, Z: -0.03}
	left.Points[PinkyMCP] = Point3D{X: 0.32, Y: 0.65, Z: 0.0}
	left.Points[PinkyPIP] = Point3D{X: 0.34, Y: 0.61, Z: -0.02}
	left.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.63, Z: -0.03}
	left.Points[PinkyTip] = Point3D{X: 0.36, Y: 0.65, Z: -0.03}

	// Right hand mirrors the left around x = 0.5
	for i, p := range left.Points {
		right.Points[i] = Point3D{X: 1.0 - p.X, Y: p.Y, Z: p.Z}
	}

	return []HandLandmarks{left, right}
}

// newFace builds a refined face mesh laid out on an ellipse, then places the
// lip and eyelid points the expression rules read.
func newFace(lipGap, eyeGap float64) *FaceLandmarks {
	face := &FaceLandmarks{Points: make([]Point3D, NumFaceLandmarksRefined)}
	for i := range face.Points {
		theta := 2 * math.Pi * float64(i) / float64(NumFaceLandmarksRefined)
		face.Points[i] = Point3D{
			X: 0.5 + 0.15*math.Cos(theta),
			Y: 0.45 + 0.2*math.Sin(theta),
		}
	}

	face.Points[UpperLipCenter] = Point3D{X: 0.5, Y: 0.60}
	face.Points[LowerLipCenter] = Point3D{X: 0.5, Y: 0.60 + lipGap}

	face.Points[LeftEyeUpperLid] = Point3D{X: 0.44, Y: 0.40}
	face.Points[LeftEyeLowerLid] = Point3D{X: 0.44, Y: 0.40 + eyeGap}
	face.Points[RightEyeUpperLid] = Point3D{X: 0.56, Y: 0.40}
	face.Points[RightEyeLowerLid] = Point3D{X: 0.56, Y: 0.40 + eyeGap}

	return face
}

// NeutralFace returns a face with a closed mouth and open eyes.
func NeutralFace() *FaceLandmarks {
	return newFace(0.01, 0.02)
}

// TongueOutFace returns a face with the lips wide apart and open eyes.
func TongueOutFace() *FaceLandmarks {
	return newFace(0.06, 0.02)
}

// EyesClosedFace returns a face with both eyelids nearly touching and a closed mouth.
func EyesClosedFace() *FaceLandmarks {
	return newFace(0.01, 0.003)
}
