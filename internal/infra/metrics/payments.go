package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(paymentsTotal)
}

var paymentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payments by lifecycle event (created/completed/gifted).",
	},
	[]string{"event"},
)

func IncPaymentCreated()   { paymentsTotal.WithLabelValues("created").Inc() }
func IncPaymentCompleted() { paymentsTotal.WithLabelValues("completed").Inc() }
func IncPaymentGifted()    { paymentsTotal.WithLabelValues("gifted").Inc() }
