package observability

import "time"

// Timer records the duration of an operation as metrics.
type Timer struct {
	operation string
	start     time.Time
	metrics   Metrics
	tags      []Tag
}

// StartTimer creates a new timer for the given operation.
func StartTimer(operation string) *Timer {
	return &Timer{
		operation: operation,
		start:     time.Now(),
	}
}

// WithMetrics adds a metrics collector to the timer.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// WithTags adds tags to the timer for metrics labeling.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// StopWithError records the duration, counting the run as failed when err
// is non-nil, and returns the elapsed time.
func (t *Timer) StopWithError(err error) time.Duration {
	duration := time.Since(t.start)
	if t.metrics == nil {
		return duration
	}

	tags := append(t.tags, T("operation", t.operation))
	t.metrics.Timing(MetricOperationDuration, duration, tags...)
	t.metrics.Counter(MetricOperationTotal, 1, tags...)
	if err != nil {
		t.metrics.Counter(MetricOperationErrors, 1, tags...)
	}
	return duration
}
