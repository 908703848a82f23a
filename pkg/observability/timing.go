package observability

import "time"

// Timer measures one operation and reports it to a Metrics sink.
type Timer struct {
	operation string
	start     time.Time
	metrics   Metrics
	tags      []Tag
}

// StartTimer starts timing operation.
func StartTimer(operation string) *Timer {
	return &Timer{operation: operation, start: time.Now(), metrics: NoopMetrics{}}
}

// WithMetrics sets the sink the timer reports to.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	if metrics != nil {
		t.metrics = metrics
	}
	return t
}

// WithTags adds tags to every reported metric.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop reports a successful run and returns its duration.
func (t *Timer) Stop() time.Duration {
	return t.StopWithError(nil)
}

// StopWithError reports the run, counting it as an error when err is set.
func (t *Timer) StopWithError(err error) time.Duration {
	elapsed := time.Since(t.start)
	tags := append(append([]Tag(nil), t.tags...), T("operation", t.operation))
	t.metrics.Timing(MetricOperationDuration, elapsed, tags...)
	t.metrics.Counter(MetricOperationTotal, 1, tags...)
	if err != nil {
		t.metrics.Counter(MetricOperationErrors, 1, tags...)
	}
	return elapsed
}
