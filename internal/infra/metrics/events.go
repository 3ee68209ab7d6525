package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(eventsPublished) }

var eventsPublished = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkin_events_published_total",
		Help: "Check-in events sent to the broker by routing key and result (ok, failed).",
	},
	[]string{"key", "result"},
)

func IncEventPublished(key, result string) {
	eventsPublished.WithLabelValues(key, norm(result)).Inc()
}
