package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(scanOutcomes, framesSampled, decodeFailures, activeScanSessions) }

var (
	scanOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_scan_outcomes_total",
			Help: "Scan sessions by terminal state (decoded, cancelled, capture_failed).",
		},
		[]string{"outcome"},
	)

	framesSampled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_scan_frames_sampled_total",
			Help: "Frames handed to the QR decoder.",
		},
	)

	decodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_scan_decode_failures_total",
			Help: "Transient decoder errors (excluding frames with no code).",
		},
	)

	activeScanSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkin_scan_sessions_active",
			Help: "Scan sessions currently holding a capture device.",
		},
	)
)

func IncScanOutcome(outcome string) { scanOutcomes.WithLabelValues(norm(outcome)).Inc() }
func IncFramesSampled()             { framesSampled.Inc() }
func IncDecodeFailure()             { decodeFailures.Inc() }
func SetActiveScanSessions(n int)   { activeScanSessions.Set(float64(n)) }
