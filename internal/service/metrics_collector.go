package service

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dialect-bridge/internal/model"
)

// MetricsCollector records translation pipeline metrics in Prometheus and
// keeps a running snapshot for the API.
type MetricsCollector struct {
	oracleCalls     *prometheus.CounterVec
	generativeCalls *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	unitDuration    *prometheus.HistogramVec

	mutex    sync.RWMutex
	snapshot Stats
}

// Stats is the in-process view of the collected metrics.
type Stats struct {
	Units           int64                   `json:"units"`
	OracleCalls     int64                   `json:"oracleCalls"`
	GenerativeCalls int64                   `json:"generativeCalls"`
	ByOutcome       map[model.Outcome]int64 `json:"byOutcome"`
	ByDialect       map[model.Dialect]int64 `json:"byDialect"`
	LastUnitAt      time.Time               `json:"lastUnitAt"`
	StartedAt       time.Time               `json:"startedAt"`
}

// NewMetricsCollector registers the pipeline metrics with reg. A nil reg
// selects the default registerer.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsCollector{
		oracleCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialect_bridge_oracle_calls_total",
				Help: "Plan validation calls by result",
			},
			[]string{"dialect", "attempt", "result"},
		),
		generativeCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialect_bridge_generative_calls_total",
				Help: "Generative translation calls by result",
			},
			[]string{"backend", "result"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialect_bridge_unit_outcomes_total",
				Help: "Translation units by final outcome",
			},
			[]string{"dialect", "outcome"},
		),
		unitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dialect_bridge_unit_duration_seconds",
				Help:    "Time spent escalating one translation unit",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"dialect"},
		),
		snapshot: Stats{
			ByOutcome: make(map[model.Outcome]int64),
			ByDialect: make(map[model.Dialect]int64),
			StartedAt: time.Now(),
		},
	}
}

// RecordOracleCall counts one validation attempt.
func (mc *MetricsCollector) RecordOracleCall(dialect model.Dialect, attempt string, accepted bool) {
	if mc == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	mc.oracleCalls.WithLabelValues(string(dialect), attempt, result).Inc()

	mc.mutex.Lock()
	mc.snapshot.OracleCalls++
	mc.mutex.Unlock()
}

// RecordGenerativeCall counts one generative request.
func (mc *MetricsCollector) RecordGenerativeCall(backend string, err error) {
	if mc == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	mc.generativeCalls.WithLabelValues(backend, result).Inc()

	mc.mutex.Lock()
	mc.snapshot.GenerativeCalls++
	mc.mutex.Unlock()
}

// RecordDisposition counts a finished unit.
func (mc *MetricsCollector) RecordDisposition(d model.Disposition, elapsed time.Duration) {
	if mc == nil {
		return
	}
	dialect := string(d.Unit.Dialect)
	mc.outcomes.WithLabelValues(dialect, d.Outcome.String()).Inc()
	mc.unitDuration.WithLabelValues(dialect).Observe(elapsed.Seconds())

	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.snapshot.Units++
	mc.snapshot.ByOutcome[d.Outcome]++
	mc.snapshot.ByDialect[d.Unit.Dialect]++
	mc.snapshot.LastUnitAt = time.Now()
}

// Snapshot returns a copy of the running totals.
func (mc *MetricsCollector) Snapshot() Stats {
	if mc == nil {
		return Stats{}
	}
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	s := mc.snapshot
	s.ByOutcome = make(map[model.Outcome]int64, len(mc.snapshot.ByOutcome))
	for k, v := range mc.snapshot.ByOutcome {
		s.ByOutcome[k] = v
	}
	s.ByDialect = make(map[model.Dialect]int64, len(mc.snapshot.ByDialect))
	for k, v := range mc.snapshot.ByDialect {
		s.ByDialect[k] = v
	}
	return s
}
