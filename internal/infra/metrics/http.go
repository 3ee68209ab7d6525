package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(httpRequests, rateLimited) }

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status code class.",
		},
		[]string{"route", "code"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		},
		[]string{"scope"},
	)
)

func IncHTTPRequest(route, code string) { httpRequests.WithLabelValues(route, code).Inc() }
func IncRateLimited(scope string)       { rateLimited.WithLabelValues(norm(scope)).Inc() }
