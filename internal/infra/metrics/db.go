package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolStats, dbTxRollbacks) }

var dbPoolStats = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_pool_stats",
		Help: "Current state of the database connection pool.",
	},
	[]string{"state"}, // 'max', 'total', 'idle', 'in_use'
)

var dbTxRollbacks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_tx_rollbacks_total",
		Help: "Bucket code transactions rolled back, by reason.",
	},
	[]string{"reason"}, // 'empty', 'mismatch', 'error'
)

func SetDBPoolStats(max, total, idle, inUse int32) {
	dbPoolStats.WithLabelValues("max").Set(float64(max))
	dbPoolStats.WithLabelValues("total").Set(float64(total))
	dbPoolStats.WithLabelValues("idle").Set(float64(idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(inUse))
}

func IncTxRollback(reason string) {
	dbTxRollbacks.WithLabelValues(norm(reason)).Inc()
}
