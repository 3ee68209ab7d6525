package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(telegramUpdatesTotal) }

var telegramUpdatesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "telegram_updates_received_total",
		Help: "Counts incoming staff bot messages by kind (code, photo, command, rejected).",
	},
	[]string{"kind"},
)

func IncTelegramUpdate(kind string) {
	telegramUpdatesTotal.WithLabelValues(norm(kind)).Inc()
}
