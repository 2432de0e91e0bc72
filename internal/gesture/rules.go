package gesture

import (
	"math"

	"github.com/ayusman/reactcam/internal/detector"
)

// Rule thresholds, in normalized frame coordinates unless noted.
const (
	// TongueOutGap is the lip gap above which the mouth counts as open.
	TongueOutGap = 0.04
	// EyesClosedGap is the eyelid gap below which an eye counts as closed.
	EyesClosedGap = 0.007

	// OpenPalmMinExtended is how many of the five fingertips must be raised.
	OpenPalmMinExtended = 4

	// FistFingerRatio scales the palm-to-wrist distance for a curled finger.
	FistFingerRatio = 1.0
	// FistThumbRatio scales the palm-to-wrist distance for a tucked thumb.
	FistThumbRatio = 1.3
	// FistMinCurled is how many of the four fingers must be curled.
	FistMinCurled = 3

	HeartMaxThumbDistance = 0.10
	HeartMaxIndexDistance = 0.12
	HeartMinWristDistance = 0.15
	HeartMinSpread        = 0.05
	HeartMaxSpread        = 0.25
)

// FaceRule pairs a label with the face predicate that produces it.
type FaceRule struct {
	Label Label
	Match func(face *detector.FaceLandmarks) bool
}

// PairRule pairs a label with a predicate over exactly two hands.
type PairRule struct {
	Label Label
	Match func(a, b *detector.HandLandmarks) bool
}

// HandRule pairs a label with a single-hand predicate.
type HandRule struct {
	Label Label
	Match func(hand *detector.HandLandmarks) bool
}

// Rule tables in priority order. Within a table the first match wins.
var (
	FaceRules = []FaceRule{
		{Label: TongueOut, Match: IsTongueOut},
		{Label: EyesClosed, Match: IsEyesClosed},
	}

	PairRules = []PairRule{
		{Label: Heart, Match: IsHeart},
	}

	HandRules = []HandRule{
		{Label: PeaceSign, Match: IsPeaceSign},
		{Label: ThumbsUp, Match: IsThumbsUp},
		{Label: OpenPalm, Match: IsOpenPalm},
		{Label: Fist, Match: IsFist},
	}
)

// distance2D is the Euclidean distance in the image plane; z is ignored.
func distance2D(a, b detector.Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// above reports whether a sits higher on screen than b (smaller y).
func above(a, b detector.Point3D) bool {
	return a.Y < b.Y
}

// IsTongueOut reports whether the lips are parted wider than TongueOutGap.
func IsTongueOut(face *detector.FaceLandmarks) bool {
	if !face.Complete() {
		return false
	}
	p := face.Points
	return math.Abs(p[detector.UpperLipCenter].Y-p[detector.LowerLipCenter].Y) > TongueOutGap
}

// IsEyesClosed reports whether both eyelid gaps are below EyesClosedGap.
func IsEyesClosed(face *detector.FaceLandmarks) bool {
	if !face.Complete() {
		return false
	}
	p := face.Points
	left := math.Abs(p[detector.LeftEyeUpperLid].Y - p[detector.LeftEyeLowerLid].Y)
	right := math.Abs(p[detector.RightEyeUpperLid].Y - p[detector.RightEyeLowerLid].Y)
	return left < EyesClosedGap && right < EyesClosedGap
}

// IsPeaceSign reports index and middle raised above their PIP joints with
// ring and pinky folded below theirs.
func IsPeaceSign(hand *detector.HandLandmarks) bool {
	if !hand.Complete() {
		return false
	}
	p := hand.Points
	indexUp := above(p[detector.IndexTip], p[detector.IndexPIP])
	middleUp := above(p[detector.MiddleTip], p[detector.MiddlePIP])
	ringDown := above(p[detector.RingPIP], p[detector.RingTip])
	pinkyDown := above(p[detector.PinkyPIP], p[detector.PinkyTip])
	return indexUp && middleUp && ringDown && pinkyDown
}

// IsThumbsUp reports the thumb tip above its MCP joint with index, middle
// and ring folded below their PIP joints.
func IsThumbsUp(hand *detector.HandLandmarks) bool {
	if !hand.Complete() {
		return false
	}
	p := hand.Points
	thumbUp := above(p[detector.ThumbTip], p[detector.ThumbMCP])
	fingersDown := above(p[detector.IndexPIP], p[detector.IndexTip]) &&
		above(p[detector.MiddlePIP], p[detector.MiddleTip]) &&
		above(p[detector.RingPIP], p[detector.RingTip])
	return thumbUp && fingersDown
}

// extensionPairs lists (tip, reference joint) for the five fingers.
var extensionPairs = [5][2]int{
	{detector.ThumbTip, detector.ThumbMCP},
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// IsOpenPalm reports at least OpenPalmMinExtended fingertips above their
// reference joints.
func IsOpenPalm(hand *detector.HandLandmarks) bool {
	if !hand.Complete() {
		return false
	}
	extended := 0
	for _, pair := range extensionPairs {
		if above(hand.Points[pair[0]], hand.Points[pair[1]]) {
			extended++
		}
	}
	return extended >= OpenPalmMinExtended
}

// IsFist reports curled fingers and a tucked thumb, both measured against
// the palm center (middle MCP) relative to the palm-to-wrist distance.
func IsFist(hand *detector.HandLandmarks) bool {
	if !hand.Complete() {
		return false
	}
	p := hand.Points
	palm := p[detector.MiddleMCP]
	reference := distance2D(palm, p[detector.Wrist])

	curled := 0
	for _, tip := range []int{detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip} {
		if distance2D(p[tip], palm) < reference*FistFingerRatio {
			curled++
		}
	}

	thumbCurled := distance2D(p[detector.ThumbTip], palm) < reference*FistThumbRatio
	return curled >= FistMinCurled && thumbCurled
}

// IsHeart reports two hands forming a heart: thumb tips together, index tips
// together, wrists apart, each index tip above its own thumb tip and a
// moderate vertical spread between the index and thumb midpoints.
func IsHeart(a, b *detector.HandLandmarks) bool {
	if !a.Complete() || !b.Complete() {
		return false
	}
	pa, pb := a.Points, b.Points

	thumbDist := distance2D(pa[detector.ThumbTip], pb[detector.ThumbTip])
	indexDist := distance2D(pa[detector.IndexTip], pb[detector.IndexTip])
	wristDist := distance2D(pa[detector.Wrist], pb[detector.Wrist])

	indexesHigher := above(pa[detector.IndexTip], pa[detector.ThumbTip]) &&
		above(pb[detector.IndexTip], pb[detector.ThumbTip])

	indexMidY := (pa[detector.IndexTip].Y + pb[detector.IndexTip].Y) / 2
	thumbMidY := (pa[detector.ThumbTip].Y + pb[detector.ThumbTip].Y) / 2
	spread := math.Abs(indexMidY - thumbMidY)

	return thumbDist < HeartMaxThumbDistance &&
		indexDist < HeartMaxIndexDistance &&
		wristDist > HeartMinWristDistance &&
		indexesHigher &&
		spread > HeartMinSpread && spread < HeartMaxSpread
}
