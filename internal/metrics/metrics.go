package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hackgods/vaccine-scheduling/internal/apperr"
)

// Metrics holds booking metrics. A nil *Metrics records nothing.
type Metrics struct {
	Operations       *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	IntegrityErrors  prometheus.Counter
	SlotsPruned      prometheus.Counter
}

// New registers all metrics on reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Booking operations by outcome",
		}, []string{"operation", "outcome"}),
		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of booking operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		IntegrityErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_integrity_errors_total",
			Help:      "Operations that detected a broken booking invariant",
		}),
		SlotsPruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_pruned_total",
			Help:      "Past availability slots removed by the pruner",
		}),
	}
}

// Observe records one finished operation.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if outcome == apperr.DataIntegrity.String() {
		m.IntegrityErrors.Inc()
	}
}

func (m *Metrics) Pruned(n int64) {
	if m == nil {
		return
	}
	m.SlotsPruned.Add(float64(n))
}
