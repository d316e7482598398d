package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventnest_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventnest_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	purchaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventnest_purchase_transitions_total",
			Help: "Purchase state machine transitions by target state",
		},
		[]string{"state"},
	)

	pendingPurchases = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventnest_pending_purchases",
			Help: "Purchases seen in a non-terminal state by the last poll",
		},
	)

	gatewayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventnest_gateway_calls_total",
			Help: "Calls to upstream gateways",
		},
		[]string{"gateway", "operation", "outcome"},
	)

	ticketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventnest_tickets_sold_total",
			Help: "Tickets recorded in the store",
		},
	)

	searchParses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventnest_search_parses_total",
			Help: "Search queries parsed by source",
		},
		[]string{"source"},
	)
)

func RecordHTTPRequest(method, route string, status int, latency time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

func RecordPurchaseState(state string) {
	purchaseTransitions.WithLabelValues(state).Inc()
}

func SetPendingPurchases(n int) {
	pendingPurchases.Set(float64(n))
}

func RecordGatewayCall(gateway, operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	gatewayCalls.WithLabelValues(gateway, operation, outcome).Inc()
}

func RecordTicketSold() {
	ticketsSold.Inc()
}

func RecordSearchParse(source string) {
	searchParses.WithLabelValues(source).Inc()
}
