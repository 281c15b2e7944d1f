package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// AllocationMetrics aggregates the Prometheus collectors for the allocation
// node: RPC traffic, settled batches and the cycle lifecycle gauge.
type AllocationMetrics struct {
	rpcRequests *prometheus.CounterVec
	batches     prometheus.Counter
	issuedUnits prometheus.Counter
	batchSizes  prometheus.Histogram
	activeCycle prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsReg  *AllocationMetrics
)

// Metrics returns the lazily-initialised metrics registry.
func Metrics() *AllocationMetrics {
	metricsOnce.Do(func() {
		metricsReg = &AllocationMetrics{
			rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "aqua",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			batches: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "aqua",
				Subsystem: "allocation",
				Name:      "batches_total",
				Help:      "Total fully settled allocate batches.",
			}),
			issuedUnits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "aqua",
				Subsystem: "allocation",
				Name:      "issued_units_total",
				Help:      "Total WTR units issued by the allocation engine.",
			}),
			batchSizes: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "aqua",
				Subsystem: "allocation",
				Name:      "batch_accounts",
				Help:      "Distribution of account counts per settled batch.",
				Buckets:   []float64{1, 5, 10, 25, 50, 100},
			}),
			activeCycle: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "aqua",
				Subsystem: "allocation",
				Name:      "cycle_active",
				Help:      "Whether an allocation cycle is currently open (1) or idle (0).",
			}),
		}
		prometheus.MustRegister(
			metricsReg.rpcRequests,
			metricsReg.batches,
			metricsReg.issuedUnits,
			metricsReg.batchSizes,
			metricsReg.activeCycle,
		)
	})
	return metricsReg
}

// ObserveRPC records one JSON-RPC request with its outcome label.
func (m *AllocationMetrics) ObserveRPC(method, outcome string) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
}

// RecordBatch records a settled allocate batch.
func (m *AllocationMetrics) RecordBatch(accounts int, total uint64) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.issuedUnits.Add(float64(total))
	m.batchSizes.Observe(float64(accounts))
}

// SetCycleActive flips the cycle lifecycle gauge.
func (m *AllocationMetrics) SetCycleActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.activeCycle.Set(1)
	} else {
		m.activeCycle.Set(0)
	}
}
