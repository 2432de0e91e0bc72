// Package app wires the camera, landmark detector, gesture classifier and
// reaction presenter into the frame loop.
package app

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/reactcam/internal/capture"
	"github.com/ayusman/reactcam/internal/detector"
	"github.com/ayusman/reactcam/internal/display"
	"github.com/ayusman/reactcam/internal/gesture"
	"github.com/ayusman/reactcam/internal/live"
	"github.com/ayusman/reactcam/internal/metrics"
	"github.com/ayusman/reactcam/internal/reaction"
	"github.com/ayusman/reactcam/internal/store"
)

// Config holds the collaborators and options of an App. Camera, Detector
// and Presenter are required; everything else is optional.
type Config struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Presenter  *reaction.Presenter
	Classifier *gesture.Classifier
	Store      *store.Store
	Hub        *live.Hub
	Metrics    *metrics.Metrics

	// FPS paces the headless loop.
	FPS           int
	Mirror        bool
	ShowLandmarks bool

	Log logrus.FieldLogger
	// Now is the clock used for smoothing; defaults to time.Now.
	Now func() time.Time
}

// App is the main application that runs the frame loop.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	classifier *gesture.Classifier
	presenter  *reaction.Presenter
	hub        *live.Hub
	log        logrus.FieldLogger
	now        func() time.Time

	// state and activeReaction belong to the loop goroutine.
	state          *gesture.State
	activeReaction string

	mu            sync.RWMutex
	showLandmarks bool
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// New creates an App. It does not open the camera.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if config.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if config.Presenter == nil {
		return nil, errors.New("app: presenter is required")
	}
	if config.Log == nil {
		config.Log = logrus.StandardLogger()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}

	a := &App{
		config:        config,
		camera:        config.Camera,
		detector:      config.Detector,
		classifier:    config.Classifier,
		presenter:     config.Presenter,
		hub:           config.Hub,
		log:           config.Log.WithField("component", "app"),
		now:           config.Now,
		showLandmarks: config.ShowLandmarks,
	}
	if a.classifier == nil {
		a.classifier = gesture.NewClassifier(config.Log)
	}
	if a.hub == nil {
		a.hub = live.NewHub()
	}
	a.state = gesture.NewState(a.now())

	if s := config.Store; s != nil {
		a.showLandmarks = s.Settings().Bool(store.SettingShowLandmarks, a.showLandmarks)
		if n, err := s.Reactions().CloseOpen(a.now()); err != nil {
			a.log.WithError(err).Warn("failed to close stale reactions")
		} else if n > 0 {
			a.log.WithField("count", n).Info("closed reactions left open by a previous run")
		}
	}

	return a, nil
}

// NewDetector returns the MediaPipe detector, or a MockDetector that never
// detects anything when the helper is unavailable.
func NewDetector(config detector.Config, log logrus.FieldLogger) detector.Detector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	mp, err := detector.NewMediaPipeDetector(config, log)
	if err != nil {
		log.WithError(err).Warn("MediaPipe not available, using mock detector")
		return detector.NewMockDetector()
	}
	log.Info("using MediaPipe face and hand detection")
	return mp
}

// Hub returns the hub the loop publishes into.
func (a *App) Hub() *live.Hub {
	return a.hub
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the landmark detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// ShowLandmarks reports whether landmark overlays are drawn.
func (a *App) ShowLandmarks() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.showLandmarks
}

// SetShowLandmarks turns landmark overlays on or off and persists the choice.
func (a *App) SetShowLandmarks(show bool) {
	a.mu.Lock()
	a.showLandmarks = show
	a.mu.Unlock()

	a.log.WithField("show_landmarks", show).Info("landmarks toggled")
	if s := a.config.Store; s != nil {
		if err := s.Settings().SetBool(store.SettingShowLandmarks, show); err != nil {
			a.log.WithError(err).Warn("failed to save setting")
		}
	}
}

// ToggleLandmarks flips the landmark overlay and returns the new setting.
func (a *App) ToggleLandmarks() bool {
	show := !a.ShowLandmarks()
	a.SetShowLandmarks(show)
	return show
}

// HandleKey applies a key press and reports whether the app should quit.
func (a *App) HandleKey(key int) bool {
	switch display.NormalizeKey(key) {
	case display.KeyQuit:
		return true
	case display.KeyToggleOverlays:
		a.ToggleLandmarks()
	}
	return false
}

// Reaction returns the reaction image for the label currently shown.
func (a *App) Reaction(now time.Time) image.Image {
	return a.presenter.Frame(a.hub.Latest().Label, now)
}

// Start opens the camera and runs the headless loop in a goroutine.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	a.camera.SetFPS(a.config.FPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runHeadless(a.stopCh, a.doneCh)

	a.log.WithField("fps", a.config.FPS).Info("frame loop started")
	return nil
}

// Stop halts the loop, closes the open reaction and releases the camera and
// detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	a.endReaction(a.now())

	if err := a.camera.Close(); err != nil {
		a.log.WithError(err).Warn("error closing camera")
	}
	if err := a.detector.Close(); err != nil {
		a.log.WithError(err).Warn("error closing detector")
	}

	a.log.Info("frame loop stopped")
}
