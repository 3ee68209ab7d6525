// File: internal/infra/metrics/metrics.go
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() { register(redemptionsTotal, redemptionLatencyMs, ticketsProvisioned) }

var (
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_redemptions_total",
			Help: "Redemption attempts by result (success, invalid_code, already_used, internal_error).",
		},
		[]string{"result", "channel"},
	)

	redemptionLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkin_redemption_latency_ms",
			Help:    "Redemption latency distribution in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	ticketsProvisioned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_tickets_admin_total",
			Help: "Administrative ticket operations (added, removed).",
		},
		[]string{"op"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Handler exposes the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }

// -------- Redemption helpers --------

func ObserveRedemption(result, channel string, latencyMs float64) {
	if result == "" {
		result = "success"
	}
	if channel == "" {
		channel = "unknown"
	}
	redemptionsTotal.WithLabelValues(norm(result), norm(channel)).Inc()
	redemptionLatencyMs.Observe(latencyMs)
}

func IncTicketAdmin(op string) {
	ticketsProvisioned.WithLabelValues(norm(op)).Inc()
}
