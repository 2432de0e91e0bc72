// Package display draws overlays on camera frames and shows them, together
// with the current reaction, in OpenCV windows.
package display

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/reactcam/internal/detector"
	"github.com/ayusman/reactcam/internal/gesture"
)

// Overlay colors.
var (
	LabelColor    = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	FaceColor     = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	JointColor    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	SkeletonColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// LabelOrigin is where the gesture caption's baseline starts.
var LabelOrigin = image.Pt(10, 30)

// HandConnections are the joint pairs forming the hand skeleton.
var HandConnections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// Caption returns the text drawn on the camera feed for label.
func Caption(label gesture.Label) string {
	return "Gesture: " + label.Title()
}

// ToPixel maps a normalized landmark onto a width x height frame.
func ToPixel(p detector.Point3D, width, height int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}

// Mirror flips img horizontally in place so the feed behaves like a mirror.
func Mirror(img *gocv.Mat) {
	gocv.Flip(*img, img, 1)
}

// DrawLabel writes the gesture caption in the top-left corner.
func DrawLabel(img *gocv.Mat, label gesture.Label) {
	gocv.PutText(img, Caption(label), LabelOrigin, gocv.FontHersheySimplex, 1, LabelColor, 2)
}

// DrawLandmarks draws the face mesh as dots and each hand as a skeleton.
// Landmarks outside the frame are clipped by OpenCV.
func DrawLandmarks(img *gocv.Mat, frame detector.DetectionFrame) {
	w, h := img.Cols(), img.Rows()

	if frame.Face != nil {
		for _, p := range frame.Face.Points {
			gocv.Circle(img, ToPixel(p, w, h), 1, FaceColor, -1)
		}
	}

	for i := range frame.Hands {
		hand := &frame.Hands[i]
		if !hand.Complete() {
			continue
		}
		for _, c := range HandConnections {
			gocv.Line(img, ToPixel(hand.Points[c[0]], w, h), ToPixel(hand.Points[c[1]], w, h), SkeletonColor, 2)
		}
		for _, p := range hand.Points {
			gocv.Circle(img, ToPixel(p, w, h), 4, JointColor, -1)
		}
	}
}
