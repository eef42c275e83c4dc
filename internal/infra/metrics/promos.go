package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		promoRedeemedTotal,
		promoDeniedTotal,
		promoExpiredSweepTotal,
	)
}

var (
	promoRedeemedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_redeemed_total",
			Help: "Successful promo code redemptions.",
		},
	)

	promoDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_denied_total",
			Help: "Promo validations/redemptions refused, by reason.",
		},
		[]string{"reason"},
	)

	promoExpiredSweepTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_expired_sweep_total",
			Help: "Promo codes deactivated by the expiry worker.",
		},
	)
)

func IncPromoRedeemed() { promoRedeemedTotal.Inc() }

func IncPromoDenied(reason string) {
	promoDeniedTotal.WithLabelValues(norm(reason)).Inc()
}

func AddPromoExpiredSwept(n int) { promoExpiredSweepTotal.Add(float64(n)) }
