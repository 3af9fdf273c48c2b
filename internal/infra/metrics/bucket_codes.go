package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(bucketCodeAllocations, bucketCodeBatchSize, bucketCodesBurned)
}

var (
	bucketCodeAllocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bucket_code_allocations_total",
			Help: "Bucket code allocation outcomes by source.",
		},
		[]string{"source", "result"}, // source: cache|store, result: ok|not_found|error
	)

	bucketCodeBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bucket_code_batch_size",
			Help:    "Rows locked and marked used per store fetch.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	bucketCodesBurned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bucket_codes_burned_total",
			Help: "Codes marked used in the store that never reached the cache reserve.",
		},
	)
)

func IncBucketCodeAllocation(source, result string) {
	bucketCodeAllocations.WithLabelValues(norm(source), norm(result)).Inc()
}

func ObserveBucketCodeBatch(n int) {
	bucketCodeBatchSize.Observe(float64(n))
}

func AddBucketCodesBurned(n int) {
	if n > 0 {
		bucketCodesBurned.Add(float64(n))
	}
}
