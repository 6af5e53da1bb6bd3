package observability

import (
	"time"
)

// Timer measures a single operation and records it as a timing metric tagged
// with the operation name and its result.
type Timer struct {
	metrics   Metrics
	metric    string
	operation string
	start     time.Time
}

// StartTimer starts timing operation, to be recorded under metric.
func StartTimer(metrics Metrics, metric, operation string) *Timer {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Timer{
		metrics:   metrics,
		metric:    metric,
		operation: operation,
		start:     time.Now(),
	}
}

// Stop records the elapsed time. result is usually "ok" or an error kind.
func (t *Timer) Stop(result string) time.Duration {
	elapsed := time.Since(t.start)
	t.metrics.Timing(t.metric, elapsed, T(OperationKey, t.operation), T(ResultKey, result))
	return elapsed
}
