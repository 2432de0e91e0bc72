// Package live fans out what the frame loop sees to HTTP, WebSocket and tray
// observers without giving them access to the loop's own state.
package live

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/reactcam/internal/gesture"
)

// Update describes one processed frame.
type Update struct {
	Label          gesture.Label `json:"label"`
	Title          string        `json:"title"`
	Timestamp      int64         `json:"timestamp"` // unix milliseconds
	LastDetectedAt time.Time     `json:"last_detected_at"`
	Hands          int           `json:"hands"`
	Face           bool          `json:"face"`
	Changed        bool          `json:"changed"`
}

// NewUpdate builds an Update for the given smoothing state.
func NewUpdate(state gesture.State, now time.Time, hands int, face bool) Update {
	return Update{
		Label:          state.Current,
		Title:          state.Current.Title(),
		Timestamp:      now.UnixMilli(),
		LastDetectedAt: state.LastDetectedAt,
		Hands:          hands,
		Face:           face,
	}
}

// Hub holds the latest update and camera frame and notifies subscribers.
// Publishing never blocks: a subscriber that falls behind misses updates.
type Hub struct {
	mu       sync.RWMutex
	latest   Update
	frame    []byte
	frameSeq uint64
	subs     map[chan Update]struct{}

	viewers atomic.Int32
}

// NewHub creates an empty Hub whose latest update shows Default.
func NewHub() *Hub {
	return &Hub{
		latest: Update{Label: gesture.Default, Title: gesture.Default.Title()},
		subs:   make(map[chan Update]struct{}),
	}
}

// Publish records u as the latest update and offers it to every subscriber.
func (h *Hub) Publish(u Update) {
	h.mu.Lock()
	u.Changed = u.Label != h.latest.Label
	h.latest = u
	for ch := range h.subs {
		select {
		case ch <- u:
		default:
		}
	}
	h.mu.Unlock()
}

// Latest returns the most recent update.
func (h *Hub) Latest() Update {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Subscribe returns a channel receiving future updates and a function that
// unsubscribes and closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Update, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// PublishFrame stores an encoded JPEG of the annotated camera frame.
func (h *Hub) PublishFrame(jpeg []byte) {
	h.mu.Lock()
	h.frame = jpeg
	h.frameSeq++
	h.mu.Unlock()
}

// LatestFrame returns the most recent JPEG and its sequence number, which
// increases with every PublishFrame.
func (h *Hub) LatestFrame() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frame, h.frameSeq
}

// AddViewer registers a stream client and returns a function removing it.
func (h *Hub) AddViewer() func() {
	h.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { h.viewers.Add(-1) })
	}
}

// WantsFrames reports whether any stream client is connected, so the loop
// can skip JPEG encoding when nobody is watching.
func (h *Hub) WantsFrames() bool {
	return h.viewers.Load() > 0
}
