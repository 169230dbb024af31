package budget

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ledgerWrites = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "budget",
		Subsystem: "ledger",
		Name:      "writes_total",
	},
	[]string{"operation", "status"},
)

var overviewCacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "budget",
		Subsystem: "ledger",
		Name:      "overview_cache_lookups_total",
	},
	[]string{"result"},
)

func observeWrite(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ledgerWrites.WithLabelValues(operation, status).Inc()
}

func observeCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	overviewCacheLookups.WithLabelValues(result).Inc()
}
