package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(directoryQueriesTotal, promoMetaFallbackTotal)
}

var (
	directoryQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_queries_total",
			Help: "Ranked directory queries, split by whether a name filter was set.",
		},
		[]string{"filtered"},
	)

	promoMetaFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_meta_fallback_total",
			Help: "Payment reads served without the promo-metadata extension.",
		},
	)
)

func IncDirectoryQuery(filtered bool) {
	lbl := "false"
	if filtered {
		lbl = "true"
	}
	directoryQueriesTotal.WithLabelValues(lbl).Inc()
}

func IncPromoMetaFallback() { promoMetaFallbackTotal.Inc() }
