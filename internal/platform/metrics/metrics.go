package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ApartmentsRegistered prometheus.Counter
	RentalsStarted       prometheus.Counter
	RentPayments         prometheus.Counter
	RentalsTerminated    prometheus.Counter
	FundsWithdrawals     prometheus.Counter
	SalesCompleted       prometheus.Counter
	UnroutedCalls        prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ApartmentsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_apartments_registered_total",
			Help: "Total number of apartments registered",
		}),
		RentalsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_rentals_started_total",
			Help: "Total number of rentals started",
		}),
		RentPayments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_rent_payments_total",
			Help: "Total number of rent payments accepted",
		}),
		RentalsTerminated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_rentals_terminated_total",
			Help: "Total number of rentals terminated by either party",
		}),
		FundsWithdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_funds_withdrawals_total",
			Help: "Total number of successful rent fund withdrawals",
		}),
		SalesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_sales_completed_total",
			Help: "Total number of completed apartment sales",
		}),
		UnroutedCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domus_unrouted_calls_total",
			Help: "Total number of calls accepted by the unknown-call fallback",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domus_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route", "status"}),
	}
}
