package apm

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Frame paths used as the "path" label.
const (
	pathCaptureFloat = "capture_f32"
	pathCaptureInt16 = "capture_i16"
	pathRenderFloat  = "render_f32"
	pathRenderInt16  = "render_i16"
)

// Metrics holds the Prometheus collectors for frame processing. One Metrics
// value may be shared by any number of processors.
type Metrics struct {
	framesTotal      *prometheus.CounterVec
	frameErrors      *prometheus.CounterVec
	frameDuration    *prometheus.HistogramVec
	processorsActive prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		framesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apm_frames_total",
				Help: "Total number of frames processed successfully.",
			},
			[]string{"path"},
		),
		frameErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apm_frame_errors_total",
				Help: "Total number of frames rejected by the bridge or the engine.",
			},
			[]string{"path", "status"},
		),
		frameDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apm_frame_duration_seconds",
				Help:    "Time taken to process one 10 ms frame.",
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 12), // 10µs to ~20ms
			},
			[]string{"path"},
		),
		processorsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "apm_processors_active",
				Help: "Number of processors currently alive.",
			},
		),
	}
	if reg != nil {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("failed to register apm metrics: %w", err)
		}
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.framesTotal.Describe(ch)
	m.frameErrors.Describe(ch)
	m.frameDuration.Describe(ch)
	ch <- m.processorsActive.Desc()
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.framesTotal.Collect(ch)
	m.frameErrors.Collect(ch)
	m.frameDuration.Collect(ch)
	ch <- m.processorsActive
}

func (m *Metrics) recordFrame(path string, d time.Duration) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(path).Inc()
	m.frameDuration.WithLabelValues(path).Observe(d.Seconds())
}

func (m *Metrics) recordError(path string, s Status) {
	if m == nil {
		return
	}
	m.frameErrors.WithLabelValues(path, statusLabel(s)).Inc()
}

// statusLabel keeps the status label bounded: codes outside the known
// table share one value.
func statusLabel(s Status) string {
	if s > StatusOK || s < StatusBadStreamParameter {
		return "other"
	}
	return s.String()
}

func (m *Metrics) processorCreated() {
	if m != nil {
		m.processorsActive.Inc()
	}
}

func (m *Metrics) processorDestroyed() {
	if m != nil {
		m.processorsActive.Dec()
	}
}
