package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "Checkout attempts by terminal outcome",
		},
		[]string{"outcome", "test_mode"},
	)

	checkoutStages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_stage_transitions_total",
			Help: "Checkout state machine transitions",
		},
		[]string{"stage", "status"},
	)

	pendingCaptures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_captures_total",
			Help: "Capture attempts waiting on the provider callback",
		},
	)

	checkoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Duration from purchase intent to terminal outcome",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"outcome"},
	)
)

type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// TrackOutcome records a terminal checkout outcome and its duration.
func (m *Monitor) TrackOutcome(outcome string, testMode bool, duration time.Duration) {
	mode := "false"
	if testMode {
		mode = "true"
	}
	checkoutAttempts.WithLabelValues(outcome, mode).Inc()
	checkoutDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// TrackStage records one state machine transition.
func (m *Monitor) TrackStage(stage, status string) {
	checkoutStages.WithLabelValues(stage, status).Inc()
}

// TrackPendingCapture adjusts the in-flight capture gauge.
func (m *Monitor) TrackPendingCapture(delta int) {
	pendingCaptures.Add(float64(delta))
}
