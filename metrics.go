package giftbuf

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordFlush is called after each page gift.
	RecordFlush(bytes int, duration time.Duration, err error)

	// RecordFill is called after each chunk read from the channel.
	RecordFill(bytes int, duration time.Duration, err error)

	// RecordEmit is called after each chunk written to the output.
	RecordEmit(bytes int, duration time.Duration, err error)

	// RecordDictionary is called after a dictionary load.
	RecordDictionary(words int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFlush(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordFill(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordEmit(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordDictionary(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	FlushBytes      atomic.Int64
	FlushTotalNanos atomic.Int64
	FillCount       atomic.Int64
	FillErrors      atomic.Int64
	FillBytes       atomic.Int64
	EmitCount       atomic.Int64
	EmitErrors      atomic.Int64
	EmitBytes       atomic.Int64
	DictionaryWords atomic.Int64
	DictionaryNanos atomic.Int64
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(bytes int, duration time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FlushErrors.Add(1)
		return
	}
	b.FlushBytes.Add(int64(bytes))
}

// RecordFill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFill(bytes int, duration time.Duration, err error) {
	b.FillCount.Add(1)
	if err != nil {
		b.FillErrors.Add(1)
		return
	}
	b.FillBytes.Add(int64(bytes))
}

// RecordEmit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmit(bytes int, duration time.Duration, err error) {
	b.EmitCount.Add(1)
	b.EmitBytes.Add(int64(bytes))
	if err != nil {
		b.EmitErrors.Add(1)
	}
}

// RecordDictionary implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDictionary(words int, duration time.Duration, err error) {
	if err != nil {
		return
	}
	b.DictionaryWords.Store(int64(words))
	b.DictionaryNanos.Store(duration.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FlushCount:      b.FlushCount.Load(),
		FlushErrors:     b.FlushErrors.Load(),
		FlushBytes:      b.FlushBytes.Load(),
		FlushAvgNanos:   b.getAvgFlushNanos(),
		FillCount:       b.FillCount.Load(),
		FillErrors:      b.FillErrors.Load(),
		FillBytes:       b.FillBytes.Load(),
		EmitCount:       b.EmitCount.Load(),
		EmitErrors:      b.EmitErrors.Load(),
		EmitBytes:       b.EmitBytes.Load(),
		DictionaryWords: b.DictionaryWords.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgFlushNanos() int64 {
	count := b.FlushCount.Load()
	if count == 0 {
		return 0
	}
	return b.FlushTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FlushCount      int64
	FlushErrors     int64
	FlushBytes      int64
	FlushAvgNanos   int64
	FillCount       int64
	FillErrors      int64
	FillBytes       int64
	EmitCount       int64
	EmitErrors      int64
	EmitBytes       int64
	DictionaryWords int64
}
