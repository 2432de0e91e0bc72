// Package tray provides the system tray menu used when reactcam runs headless.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/reactcam/internal/gesture"
	"github.com/ayusman/reactcam/internal/live"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(show bool)
	onViewer func()
	onQuit   func()
	show     bool
	last     gesture.Label
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuLandmarks *systray.MenuItem
	menuLast      *systray.MenuItem
}

// New creates a new Tray with the landmark overlay initially set to show.
func New(show bool) *Tray {
	return &Tray{
		show: show,
		last: gesture.Default,
	}
}

// OnToggle sets the callback called when "Show landmarks" is clicked.
func (t *Tray) OnToggle(fn func(show bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnViewer sets the callback called when "Open Viewer…" is clicked.
func (t *Tray) OnViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onViewer = fn
}

// OnQuit sets the callback called when "Quit" is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("reactcam")
	systray.SetTooltip("reactcam gesture reactions")

	t.mu.Lock()
	t.menuLandmarks = systray.AddMenuItemCheckbox("Show landmarks", "Draw face and hand landmarks", t.show)
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last detected gesture")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuViewer := systray.AddMenuItem("Open Viewer…", "Open the live view in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit reactcam")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuLandmarks.ClickedCh:
				t.handleToggle()
			case <-menuViewer.ClickedCh:
				t.handleViewer()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips the landmark checkbox and reports the new value.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.show = !t.show
	show := t.show

	if t.menuLandmarks != nil {
		if show {
			t.menuLandmarks.Check()
		} else {
			t.menuLandmarks.Uncheck()
		}
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(show)
	}
}

func (t *Tray) handleViewer() {
	t.mu.RLock()
	callback := t.onViewer
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit runs the quit callback, then tears the tray down.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLast updates the "Last:" menu entry. Default is ignored so the entry
// keeps naming the most recent real gesture.
func (t *Tray) SetLast(label gesture.Label) {
	if label == gesture.Default {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = label
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(label))
	}
}

// Last returns the most recent non-default label, or Default if none yet.
func (t *Tray) Last() gesture.Label {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// ShowLandmarks returns the current checkbox state.
func (t *Tray) ShowLandmarks() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.show
}

// Watch feeds label changes from hub into the menu until done is closed.
func (t *Tray) Watch(hub *live.Hub, done <-chan struct{}) {
	updates, cancel := hub.Subscribe(8)
	defer cancel()

	for {
		select {
		case <-done:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Changed {
				t.SetLast(u.Label)
			}
		}
	}
}

func lastTitle(label gesture.Label) string {
	if label == gesture.Default {
		return "Last: none"
	}
	return "Last: " + label.Title()
}
