// Package metrics exposes Prometheus counters for the frame loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/reactcam/internal/gesture"
)

// Frame results.
const (
	ResultProcessed = "processed"
	ResultSkipped   = "skipped"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	FramesTotal      *prometheus.CounterVec
	DetectionsTotal  *prometheus.CounterVec
	LabelChanges     *prometheus.CounterVec
	ClassifyDuration prometheus.Histogram
	StreamViewers    prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "reactcam"
	}

	registry := prometheus.NewRegistry()

	framesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Camera frames handled by the loop",
		},
		[]string{"result"},
	)

	detectionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Frames in which a gesture was positively detected",
		},
		[]string{"label"},
	)

	labelChanges := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_changes_total",
			Help:      "Transitions of the displayed label, by new label",
		},
		[]string{"label"},
	)

	classifyDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time spent detecting and classifying one frame",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	streamViewers := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_viewers",
			Help:      "Connected MJPEG stream clients",
		},
	)

	registry.MustRegister(
		framesTotal,
		detectionsTotal,
		labelChanges,
		classifyDuration,
		streamViewers,
	)

	// Pre-create series so dashboards see zeros instead of gaps.
	framesTotal.WithLabelValues(ResultProcessed)
	framesTotal.WithLabelValues(ResultSkipped)
	for _, label := range gesture.Labels() {
		labelChanges.WithLabelValues(label.String())
		if label != gesture.Default {
			detectionsTotal.WithLabelValues(label.String())
		}
	}

	return &Metrics{
		registry:         registry,
		FramesTotal:      framesTotal,
		DetectionsTotal:  detectionsTotal,
		LabelChanges:     labelChanges,
		ClassifyDuration: classifyDuration,
		StreamViewers:    streamViewers,
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFrame records one processed frame and how long classification took.
func (m *Metrics) RecordFrame(duration time.Duration) {
	m.FramesTotal.WithLabelValues(ResultProcessed).Inc()
	m.ClassifyDuration.Observe(duration.Seconds())
}

// RecordSkipped records a frame dropped by a read, detector or validation error.
func (m *Metrics) RecordSkipped() {
	m.FramesTotal.WithLabelValues(ResultSkipped).Inc()
}

// RecordDetection records a positive per-frame detection.
func (m *Metrics) RecordDetection(label gesture.Label) {
	m.DetectionsTotal.WithLabelValues(label.String()).Inc()
}

// RecordLabelChange records the displayed label switching to label.
func (m *Metrics) RecordLabelChange(label gesture.Label) {
	m.LabelChanges.WithLabelValues(label.String()).Inc()
}

// ViewerConnected and ViewerDisconnected track stream clients.
func (m *Metrics) ViewerConnected()    { m.StreamViewers.Inc() }
func (m *Metrics) ViewerDisconnected() { m.StreamViewers.Dec() }
