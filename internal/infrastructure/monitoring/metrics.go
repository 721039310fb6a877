package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type BusinessMetrics struct {
	LoansCreatedTotal       prometheus.Counter
	PaymentsRegisteredTotal *prometheus.CounterVec
	LoansDefaultedTotal     prometheus.Counter
	LoansCompletedTotal     prometheus.Counter
	AdvisoryRequestsTotal   *prometheus.CounterVec
}

var Business = BusinessMetrics{
	LoansCreatedTotal: promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crediflow_loans_created_total",
			Help: "Total number of loans created.",
		},
	),
	PaymentsRegisteredTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crediflow_payments_registered_total",
			Help: "Total number of payment registrations by outcome.",
		},
		[]string{"status"},
	),
	LoansDefaultedTotal: promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crediflow_loans_defaulted_total",
			Help: "Total number of loans marked defaulted by the overdue sweep.",
		},
	),
	LoansCompletedTotal: promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crediflow_loans_completed_total",
			Help: "Total number of loans fully repaid.",
		},
	),
	AdvisoryRequestsTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crediflow_advisory_requests_total",
			Help: "Total number of AI advisory requests by outcome.",
		},
		[]string{"status"},
	),
}

func RecordLoanCreated() {
	Business.LoansCreatedTotal.Inc()
}

func RecordPayment(status string) {
	Business.PaymentsRegisteredTotal.WithLabelValues(status).Inc()
}

func RecordLoanDefaulted() {
	Business.LoansDefaultedTotal.Inc()
}

func RecordLoanCompleted() {
	Business.LoansCompletedTotal.Inc()
}

func RecordAdvisoryRequest(status string) {
	Business.AdvisoryRequestsTotal.WithLabelValues(status).Inc()
}
