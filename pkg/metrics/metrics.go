package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	ordersPlaced    prometheus.Counter
	ordersCancelled prometheus.Counter
	stockConflicts  prometheus.Counter
}

func New(service string) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agrimart",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agrimart",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agrimart",
		Subsystem: service,
		Name:      "orders_placed_total",
		Help:      "Orders successfully placed.",
	})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agrimart",
		Subsystem: service,
		Name:      "orders_cancelled_total",
		Help:      "Orders cancelled with stock restored.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agrimart",
		Subsystem: service,
		Name:      "stock_conflicts_total",
		Help:      "Order lines rejected for insufficient stock.",
	})

	prometheus.MustRegister(requests, latency, placed, cancelled, conflicts)
	return &Metrics{
		Requests:        requests,
		LatencyMS:       latency,
		ordersPlaced:    placed,
		ordersCancelled: cancelled,
		stockConflicts:  conflicts,
	}
}

// Counter helpers are nil-safe so services can run without metrics in tests.

func (m *Metrics) OrderPlaced() {
	if m != nil {
		m.ordersPlaced.Inc()
	}
}

func (m *Metrics) OrderCancelled() {
	if m != nil {
		m.ordersCancelled.Inc()
	}
}

func (m *Metrics) StockConflict() {
	if m != nil {
		m.stockConflicts.Inc()
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
