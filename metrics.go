package epsel

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordEvaluate is called after each committee evaluation.
	// members is the ensemble size, err is nil if successful.
	RecordEvaluate(members int, duration time.Duration, err error)

	// RecordScore is called with each configuration's eps_t.
	RecordScore(epsT float64)

	// RecordSkip is called when a configuration is skipped after an
	// evaluation failure.
	RecordSkip(index int, err error)

	// RecordSelect is called once per run with the in-band candidate
	// count and the final selection size.
	RecordSelect(candidates, selected int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordEvaluate(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordScore(float64)                      {}
func (NoopMetricsCollector) RecordSkip(int, error)                    {}
func (NoopMetricsCollector) RecordSelect(int, int, time.Duration)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	EvaluateCount      atomic.Int64
	EvaluateErrors     atomic.Int64
	EvaluateTotalNanos atomic.Int64
	ScoreCount         atomic.Int64
	SkipCount          atomic.Int64
	CandidateCount     atomic.Int64
	SelectedCount      atomic.Int64
}

// RecordEvaluate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluate(_ int, duration time.Duration, err error) {
	b.EvaluateCount.Add(1)
	b.EvaluateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EvaluateErrors.Add(1)
	}
}

// RecordScore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScore(float64) {
	b.ScoreCount.Add(1)
}

// RecordSkip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSkip(int, error) {
	b.SkipCount.Add(1)
}

// RecordSelect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelect(candidates, selected int, _ time.Duration) {
	b.CandidateCount.Store(int64(candidates))
	b.SelectedCount.Store(int64(selected))
}
