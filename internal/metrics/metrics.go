package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reserveAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bronlock",
			Name:      "reserve_total",
			Help:      "Reserve calls by outcome.",
		},
		[]string{"result"},
	)

	confirmAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bronlock",
			Name:      "confirm_total",
			Help:      "Confirm calls by outcome.",
		},
		[]string{"result"},
	)

	leaseStoreErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bronlock",
			Name:      "lease_store_errors_total",
			Help:      "Lease store infrastructure failures.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bronlock",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reserveAttempts, confirmAttempts, leaseStoreErrors, httpRequests)
	})
}

// IncReserve increments the reserve counter for an outcome label.
func IncReserve(result string) {
	reserveAttempts.WithLabelValues(result).Inc()
}

// IncConfirm increments the confirm counter for an outcome label.
func IncConfirm(result string) {
	confirmAttempts.WithLabelValues(result).Inc()
}

// IncLeaseStoreError counts a lease store infrastructure failure.
func IncLeaseStoreError() {
	leaseStoreErrors.Inc()
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
