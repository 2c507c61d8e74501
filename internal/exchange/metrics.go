package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_rate_cache_hits_total",
		Help: "Rate lookups served from the daily snapshot cache.",
	})
	fetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_rate_fetches_total",
		Help: "Successful batch fetches from the external rate provider.",
	})
	fetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_rate_fetch_failures_total",
		Help: "Failed fetches from the external rate provider.",
	})
	fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_rate_fallbacks_total",
		Help: "Rates served from an older cached date after a provider failure.",
	})
)
