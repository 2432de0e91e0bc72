package app

import (
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/reactcam/internal/detector"
	"github.com/ayusman/reactcam/internal/display"
	"github.com/ayusman/reactcam/internal/gesture"
	"github.com/ayusman/reactcam/internal/live"
)

// Result describes what the loop did with one camera frame.
type Result struct {
	gesture.Outcome
	Frame detector.DetectionFrame
}

// Screen shows the annotated feed and the reaction image and reports key
// presses. display.Windows implements it.
type Screen interface {
	Show(frame gocv.Mat, reaction image.Image, delay int) (int, error)
}

// ProcessFrame runs one iteration of the loop on frame: mirror, detect,
// classify, record, publish and annotate. frame is modified in place and
// stays owned by the caller. Malformed landmarks skip the frame without
// touching the gesture state. A detector error counts as a frame with no
// detection, so the shown label still times out.
func (a *App) ProcessFrame(frame *gocv.Mat, now time.Time) (Result, error) {
	if a.config.Mirror {
		display.Mirror(frame)
	}

	started := time.Now()
	detection, err := a.detector.Detect(frame)
	if err != nil {
		a.skip(err, "detector error")
		return Result{Outcome: a.idle(now)}, fmt.Errorf("detect: %w", err)
	}

	out, err := a.classifier.Step(detection, now, a.state)
	if err != nil {
		a.skip(err, "malformed landmarks")
		return Result{Outcome: out, Frame: detection}, err
	}
	elapsed := time.Since(started)

	if m := a.config.Metrics; m != nil {
		m.RecordFrame(elapsed)
		if out.Detected {
			m.RecordDetection(out.Match)
		}
	}
	a.publish(out, detection, now)

	if a.ShowLandmarks() {
		display.DrawLandmarks(frame, detection)
	}
	display.DrawLabel(frame, out.Label)

	if a.hub.WantsFrames() {
		a.publishFrame(frame)
	}

	return Result{Outcome: out, Frame: detection}, nil
}

// publish records a label change and pushes the current state to the hub.
func (a *App) publish(out gesture.Outcome, detection detector.DetectionFrame, now time.Time) {
	if out.Changed {
		if m := a.config.Metrics; m != nil {
			m.RecordLabelChange(out.Label)
		}
		a.log.WithFields(logrus.Fields{
			"label": out.Label,
			"hands": len(detection.Hands),
			"face":  detection.Face != nil,
			"empty": detection.Empty(),
		}).Info("reaction changed")
		a.recordTransition(out.Label, now)
	}

	a.hub.Publish(live.NewUpdate(a.state.Snapshot(), now, len(detection.Hands), detection.Face != nil))
}

// idle folds a frame without landmarks into the state when the camera or
// detector failed, and publishes the result.
func (a *App) idle(now time.Time) gesture.Outcome {
	prev := a.state.Current
	shown := a.state.Observe(gesture.Default, false, now)
	out := gesture.Outcome{Label: shown, Changed: shown != prev}
	a.publish(out, detector.DetectionFrame{}, now)
	return out
}

func (a *App) skip(err error, msg string) {
	a.log.WithError(err).Debug(msg)
	if m := a.config.Metrics; m != nil {
		m.RecordSkipped()
	}
}

// recordTransition closes the reaction that was on screen and opens a row
// for the new one. Default is not recorded.
func (a *App) recordTransition(label gesture.Label, now time.Time) {
	a.endReaction(now)

	s := a.config.Store
	if s == nil || label == gesture.Default {
		return
	}
	rx, err := s.Reactions().Start(label, now)
	if err != nil {
		a.log.WithError(err).Warn("failed to record reaction")
		return
	}
	a.activeReaction = rx.ID
}

func (a *App) endReaction(now time.Time) {
	if a.activeReaction == "" || a.config.Store == nil {
		return
	}
	if err := a.config.Store.Reactions().End(a.activeReaction, now); err != nil {
		a.log.WithError(err).Warn("failed to close reaction")
	}
	a.activeReaction = ""
}

func (a *App) publishFrame(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		a.log.WithError(err).Debug("failed to encode stream frame")
		return
	}
	defer buf.Close()

	// The native buffer is freed on Close, so keep a Go copy.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	a.hub.PublishFrame(data)
}

// step reads and processes one frame. Read errors are logged and counted
// like any other skipped frame, and still let the label time out.
func (a *App) step() (*gocv.Mat, error) {
	now := a.now()
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.skip(err, "camera read failed")
		a.idle(now)
		return nil, err
	}

	if _, err := a.ProcessFrame(frame, now); err != nil {
		return frame, err
	}
	return frame, nil
}

// runHeadless paces the loop with a ticker until stopCh is closed.
func (a *App) runHeadless(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if frame, _ := a.step(); frame != nil {
				frame.Close()
			}
		}
	}
}

// RunWindows runs the loop on the calling goroutine, which must be the main
// OS thread for OpenCV windows, until the quit key is pressed or stop is
// closed. The camera is opened here and released by Stop.
func (a *App) RunWindows(screen Screen, stop <-chan struct{}) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	a.camera.SetFPS(a.config.FPS)
	a.log.Info("frame loop started with windows")

	blank := gocv.NewMat()
	defer blank.Close()

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		frame, _ := a.step()

		var key int
		var err error
		if frame != nil {
			key, err = screen.Show(*frame, a.Reaction(a.now()), 1)
			frame.Close()
		} else {
			key, err = screen.Show(blank, a.Reaction(a.now()), 10)
		}
		if err != nil {
			a.log.WithError(err).Warn("failed to show frame")
		}

		if a.HandleKey(key) {
			return nil
		}
	}
}
