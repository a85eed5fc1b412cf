// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package telemetry registers the mempool's prometheus metrics, mirroring
// the metrics.Enabled/GetOrRegisterGauge idiom core/txpool uses, but
// against prometheus/client_golang's Registerer directly rather than the
// go-ethereum metrics registry luxfi-evm otherwise depends on.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter/gauge the mempool updates. A nil *Metrics
// is valid and every method on it is a no-op, so components can take a
// *Metrics unconditionally and callers that don't care about telemetry
// simply pass nil.
type Metrics struct {
	accepted           prometheus.Counter
	declined           *prometheus.CounterVec
	invalidated        *prometheus.CounterVec
	doubleSpendLosses  prometheus.Counter
	evictions          prometheus.Counter
	poolSize           prometheus.Gauge
	processDuration    prometheus.Histogram
}

// New constructs and registers Metrics against reg. Passing nil disables
// telemetry entirely (the zero *Metrics).
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &Metrics{
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mempool",
			Name:      "accepted_total",
			Help:      "Transactions accepted into the pool.",
		}),
		declined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mempool",
			Name:      "declined_total",
			Help:      "Transactions declined, by reason.",
		}, []string{"reason"}),
		invalidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mempool",
			Name:      "invalidated_total",
			Help:      "Transactions invalidated, by reason.",
		}, []string{"reason"}),
		doubleSpendLosses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mempool",
			Name:      "double_spend_losses_total",
			Help:      "Arriving transactions that lost replace-by-fee arbitration.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mempool",
			Name:      "evictions_total",
			Help:      "Transactions evicted to respect pool capacity.",
		}),
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mempool",
			Name:      "pool_size",
			Help:      "Current number of pooled transactions.",
		}),
		processDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mempool",
			Name:      "process_duration_seconds",
			Help:      "Wall-clock time spent in process() per call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{
		m.accepted, m.declined, m.invalidated, m.doubleSpendLosses, m.evictions, m.poolSize, m.processDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) IncAccepted() {
	if m == nil {
		return
	}
	m.accepted.Inc()
}

func (m *Metrics) IncDeclined(reason string) {
	if m == nil {
		return
	}
	m.declined.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncInvalidated(reason string) {
	if m == nil {
		return
	}
	m.invalidated.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncDoubleSpendLoss() {
	if m == nil {
		return
	}
	m.doubleSpendLosses.Inc()
}

func (m *Metrics) IncEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictions.Add(float64(n))
}

func (m *Metrics) SetPoolSize(size int) {
	if m == nil {
		return
	}
	m.poolSize.Set(float64(size))
}

func (m *Metrics) ObserveProcessSeconds(s float64) {
	if m == nil {
		return
	}
	m.processDuration.Observe(s)
}
