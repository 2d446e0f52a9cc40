// Package remindermetrics records reminder service, dispatcher and handler
// metrics.
package remindermetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReminderMetrics is implemented by the Prometheus recorder and the no-op.
type ReminderMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	// RecordDispatch counts one due reminder by kind and outcome
	// (claimed, skipped, published, publish_failed, finalized, finalize_failed).
	RecordDispatch(ctx context.Context, kind, outcome string)
	// RecordSweep records one dispatcher pass.
	RecordSweep(ctx context.Context, scanned, published int, duration time.Duration)

	RecordHandlerAttempt(ctx context.Context, handlerName string)
	RecordHandlerSuccess(ctx context.Context, handlerName string)
	RecordHandlerFailure(ctx context.Context, handlerName string)
	RecordHandlerDuration(ctx context.Context, handlerName string, duration time.Duration)
}

const namespace = "kamisato"

type prometheusMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	dispatches        *prometheus.CounterVec
	sweepScanned      prometheus.Counter
	sweepPublished    prometheus.Counter
	sweepDuration     prometheus.Histogram
	handlers          *prometheus.CounterVec
	handlerDuration   *prometheus.HistogramVec
}

// NewPrometheus registers the reminder collectors on reg.
func NewPrometheus(reg prometheus.Registerer) ReminderMetrics {
	f := promauto.With(reg)
	return &prometheusMetrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminder",
			Name:      "operations_total",
			Help:      "Reminder service operations by outcome.",
		}, []string{"operation", "service", "outcome"}),
		operationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reminder",
			Name:      "operation_duration_seconds",
			Help:      "Reminder service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "reminders_total",
			Help:      "Due reminders handled by the dispatcher.",
		}, []string{"kind", "outcome"}),
		sweepScanned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "scanned_total",
			Help:      "Due reminders returned by sweeps.",
		}),
		sweepPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "published_total",
			Help:      "Due reminders published by sweeps.",
		}),
		sweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one dispatcher sweep.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		handlers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "messages_total",
			Help:      "Command messages by handler and outcome.",
		}, []string{"handler", "outcome"}),
		handlerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "duration_seconds",
			Help:      "Command handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
	}
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(operation, service, "attempt").Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(operation, service, "success").Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(operation, service, "failure").Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation, service).Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordDispatch(_ context.Context, kind, outcome string) {
	m.dispatches.WithLabelValues(kind, outcome).Inc()
}

func (m *prometheusMetrics) RecordSweep(_ context.Context, scanned, published int, d time.Duration) {
	m.sweepScanned.Add(float64(scanned))
	m.sweepPublished.Add(float64(published))
	m.sweepDuration.Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordHandlerAttempt(_ context.Context, handlerName string) {
	m.handlers.WithLabelValues(handlerName, "attempt").Inc()
}

func (m *prometheusMetrics) RecordHandlerSuccess(_ context.Context, handlerName string) {
	m.handlers.WithLabelValues(handlerName, "success").Inc()
}

func (m *prometheusMetrics) RecordHandlerFailure(_ context.Context, handlerName string) {
	m.handlers.WithLabelValues(handlerName, "failure").Inc()
}

func (m *prometheusMetrics) RecordHandlerDuration(_ context.Context, handlerName string, d time.Duration) {
	m.handlerDuration.WithLabelValues(handlerName).Observe(d.Seconds())
}

type noop struct{}

// NewNoop returns metrics that record nothing.
func NewNoop() ReminderMetrics { return noop{} }

func (noop) RecordOperationAttempt(context.Context, string, string)                 {}
func (noop) RecordOperationSuccess(context.Context, string, string)                 {}
func (noop) RecordOperationFailure(context.Context, string, string)                 {}
func (noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noop) RecordDispatch(context.Context, string, string)                         {}
func (noop) RecordSweep(context.Context, int, int, time.Duration)                   {}
func (noop) RecordHandlerAttempt(context.Context, string)                           {}
func (noop) RecordHandlerSuccess(context.Context, string)                           {}
func (noop) RecordHandlerFailure(context.Context, string)                           {}
func (noop) RecordHandlerDuration(context.Context, string, time.Duration)           {}
