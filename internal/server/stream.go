package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/reactcam/internal/live"
	"github.com/ayusman/reactcam/internal/metrics"
)

// StreamInterval is the polling period of the MJPEG stream (~15 FPS).
const StreamInterval = 66 * time.Millisecond

// StreamHandler serves the annotated camera frames as MJPEG.
type StreamHandler struct {
	hub      *live.Hub
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler reading frames from hub.
// m may be nil.
func NewStreamHandler(hub *live.Hub, m *metrics.Metrics, log logrus.FieldLogger) *StreamHandler {
	return &StreamHandler{hub: hub, metrics: m, log: log, interval: StreamInterval}
}

// ServeHTTP streams MJPEG frames to connected clients. A frame is written
// only when the loop has published a new one since the last write.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	release := h.hub.AddViewer()
	defer release()
	if h.metrics != nil {
		h.metrics.ViewerConnected()
		defer h.metrics.ViewerDisconnected()
	}
	h.log.Debug("stream viewer connected")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			h.log.Debug("stream viewer disconnected")
			return
		case <-ticker.C:
		}

		jpeg, seq := h.hub.LatestFrame()
		if seq == sent || len(jpeg) == 0 {
			continue
		}
		sent = seq

		if err := writePart(w, jpeg); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
