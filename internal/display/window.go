package display

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Window titles.
const (
	CameraWindow   = "Gesture Detector"
	ReactionWindow = "Reaction"
)

// Keys handled by the windows.
const (
	KeyNone           = -1
	KeyQuit           = 'q'
	KeyToggleOverlays = 'l'
)

// Windows owns the camera and reaction windows. OpenCV's HighGUI must be
// driven from the main OS thread, so Windows is not safe for concurrent use.
type Windows struct {
	camera   *gocv.Window
	reaction *gocv.Window
	scratch  gocv.Mat
}

// NewWindows opens both windows.
func NewWindows() *Windows {
	return &Windows{
		camera:   gocv.NewWindow(CameraWindow),
		reaction: gocv.NewWindow(ReactionWindow),
		scratch:  gocv.NewMat(),
	}
}

// Show displays an annotated camera frame and a reaction image, then pumps
// the UI event loop for delay milliseconds and returns the pressed key, in
// lower case, or KeyNone.
func (w *Windows) Show(frame gocv.Mat, reaction image.Image, delay int) (int, error) {
	if !frame.Empty() {
		w.camera.IMShow(frame)
	}

	if reaction != nil {
		mat, err := gocv.ImageToMatRGB(reaction)
		if err != nil {
			return KeyNone, fmt.Errorf("convert reaction image: %w", err)
		}
		w.scratch.Close()
		w.scratch = mat
		w.reaction.IMShow(w.scratch)
	}

	return NormalizeKey(w.camera.WaitKey(delay)), nil
}

// Close destroys both windows.
func (w *Windows) Close() error {
	w.scratch.Close()
	errCamera := w.camera.Close()
	errReaction := w.reaction.Close()
	if errCamera != nil {
		return errCamera
	}
	return errReaction
}

// NormalizeKey strips modifier bits from a WaitKey result and folds upper
// case letters to lower case.
func NormalizeKey(key int) int {
	if key < 0 {
		return KeyNone
	}
	key &= 0xFF
	if key >= 'A' && key <= 'Z' {
		key += 'a' - 'A'
	}
	return key
}
