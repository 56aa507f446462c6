package conversation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus counters for memory activity. Registered on the default
// registry; the serve command exposes them on /metrics.
var (
	messagesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recollect",
		Subsystem: "conversation",
		Name:      "messages_added_total",
		Help:      "Messages appended to conversation memory.",
	})
	compressions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recollect",
		Subsystem: "conversation",
		Name:      "compressions_total",
		Help:      "Times the recent window was compressed into a summary.",
	})
	summaryMerges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recollect",
		Subsystem: "conversation",
		Name:      "summary_merges_total",
		Help:      "Times the oldest summary pair was merged to stay under the cap.",
	})
	messagesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recollect",
		Subsystem: "conversation",
		Name:      "messages_pruned_total",
		Help:      "Messages dropped from the full log by the size cap.",
	})
	recallQueries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recollect",
		Subsystem: "conversation",
		Name:      "recall_queries_total",
		Help:      "TF-IDF recall queries issued during context assembly.",
	})
	contextBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recollect",
		Subsystem: "conversation",
		Name:      "context_builds_total",
		Help:      "Request contexts assembled.",
	})
)
