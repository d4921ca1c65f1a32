package content

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chamber122",
		Subsystem: "content",
		Name:      "decisions_total",
		Help:      "Lifecycle decisions by action and outcome.",
	}, []string{"action", "allowed", "reason"})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chamber122",
		Subsystem: "content",
		Name:      "transitions_total",
		Help:      "Persisted status transitions.",
	}, []string{"kind", "from", "to"})

	conflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chamber122",
		Subsystem: "content",
		Name:      "version_conflicts_total",
		Help:      "Writes rejected because the record changed after it was loaded.",
	})
)

func observeDecision(action Action, d Decision) {
	decisionsTotal.WithLabelValues(string(action), strconv.FormatBool(d.Allowed), string(d.Reason)).Inc()
}
