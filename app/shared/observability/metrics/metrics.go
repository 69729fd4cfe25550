// Package metrics defines the Prometheus instruments recorded by services.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics records attempts, outcomes and durations of service operations.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// SessionMetrics extends OperationMetrics with scoring counters.
type SessionMetrics interface {
	OperationMetrics
	RecordRoundCommitted(ctx context.Context, mode string)
	RecordRoundRejected(ctx context.Context, mode, code string)
	RecordActiveSessions(ctx context.Context, count int)
}

type prometheusMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	committed *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	active    prometheus.Gauge
}

// NewPrometheus registers the instruments on reg. Registering twice on the
// same registry panics, so each registry gets exactly one instance.
func NewPrometheus(reg prometheus.Registerer) SessionMetrics {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tarokbot",
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tarokbot",
			Name:      "operation_success_total",
			Help:      "Service operations completed without infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tarokbot",
			Name:      "operation_failure_total",
			Help:      "Service operations that returned an error or panicked.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tarokbot",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tarokbot",
			Name:      "rounds_committed_total",
			Help:      "Rounds committed to a session ledger.",
		}, []string{"mode"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tarokbot",
			Name:      "rounds_rejected_total",
			Help:      "Rounds rejected before any ledger mutation.",
		}, []string{"mode", "code"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tarokbot",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.durations, m.committed, m.rejected, m.active)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordRoundCommitted(_ context.Context, mode string) {
	m.committed.WithLabelValues(mode).Inc()
}

func (m *prometheusMetrics) RecordRoundRejected(_ context.Context, mode, code string) {
	m.rejected.WithLabelValues(mode, code).Inc()
}

func (m *prometheusMetrics) RecordActiveSessions(_ context.Context, count int) {
	m.active.Set(float64(count))
}

type noopMetrics struct{}

// NewNoop returns metrics that record nothing.
func NewNoop() SessionMetrics { return noopMetrics{} }

func (noopMetrics) RecordOperationAttempt(context.Context, string, string) {}
func (noopMetrics) RecordOperationSuccess(context.Context, string, string) {}
func (noopMetrics) RecordOperationFailure(context.Context, string, string) {}
func (noopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noopMetrics) RecordRoundCommitted(context.Context, string) {}
func (noopMetrics) RecordRoundRejected(context.Context, string, string) {}
func (noopMetrics) RecordActiveSessions(context.Context, int) {}
