// ABOUTME: Prometheus counters for org chart mutations
package directory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts reparent and batch outcomes.
type Metrics struct {
	Moves        *prometheus.CounterVec
	Batches      *prometheus.CounterVec
	BatchRecords prometheus.Counter
}

// NewMetrics registers the counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Moves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgmap",
			Name:      "reparent_total",
			Help:      "Single reparent requests by result.",
		}, []string{"result"}),
		Batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgmap",
			Name:      "batch_updates_total",
			Help:      "Batch relation updates by result.",
		}, []string{"result"}),
		BatchRecords: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "orgmap",
			Name:      "batch_records_total",
			Help:      "Person records written by committed batches.",
		}),
	}
}

func (m *Metrics) move(result string) {
	if m != nil {
		m.Moves.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) batch(result string, records int) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(result).Inc()
	if records > 0 {
		m.BatchRecords.Add(float64(records))
	}
}
