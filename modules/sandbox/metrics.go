package sandbox

import (
	"time"

	"github.com/aukilabs/kubb/octree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	operationLabel = "operation"
	queryLabel     = "query"
)

var (
	octreeSyncOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_sync_operations_total",
		Help: "The number of octree insertions, removals and moves applied by frame syncs.",
	}, []string{operationLabel})

	octreeSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "octree_sync_duration_seconds",
		Help:    "The time spent syncing an octree with its session entities.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	octreeMaxDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "octree_max_depth",
		Help:    "The depth of session octrees after a frame sync.",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})

	octreeQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_queries_total",
		Help: "The number of octree queries.",
	}, []string{queryLabel})
)

func instrumentSync(res SyncResult, duration time.Duration) {
	octreeSyncDuration.Observe(duration.Seconds())

	if res.Inserted != 0 {
		octreeSyncOperations.With(prometheus.Labels{operationLabel: "insert"}).Add(float64(res.Inserted))
	}
	if res.Removed != 0 {
		octreeSyncOperations.With(prometheus.Labels{operationLabel: "remove"}).Add(float64(res.Removed))
	}
	if res.Moved != 0 {
		octreeSyncOperations.With(prometheus.Labels{operationLabel: "move"}).Add(float64(res.Moved))
	}
}

func instrumentDepth(stats octree.Stats) {
	octreeMaxDepth.Observe(float64(stats.MaxDepth))
}

func instrumentQuery(query string) {
	octreeQueries.With(prometheus.Labels{queryLabel: query}).Inc()
}
