package terrastore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with other monitoring systems;
// PrometheusCollector covers Prometheus.
type MetricsCollector interface {
	// RecordWrite is called after each write.
	// size is the serialized size, ok reports the result's Success flag.
	RecordWrite(size int64, duration time.Duration, ok bool)

	// RecordRead is called after each read.
	// found is false when the key was absent, err is nil if successful.
	RecordRead(found bool, duration time.Duration, err error)

	// RecordDelete is called after each delete.
	RecordDelete(duration time.Duration, ok bool)

	// RecordList is called after each list with the number of entries returned.
	RecordList(count int, duration time.Duration, err error)

	// RecordStat is called after each Exists and GetMetadata call.
	RecordStat(duration time.Duration, err error)

	// RecordBackup is called after each backup attempt.
	// created is false when there was nothing to back up.
	RecordBackup(created bool, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordWrite(int64, time.Duration, bool) {}
func (NoopMetricsCollector) RecordRead(bool, time.Duration, error)  {}
func (NoopMetricsCollector) RecordDelete(time.Duration, bool)       {}
func (NoopMetricsCollector) RecordList(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordStat(time.Duration, error)        {}
func (NoopMetricsCollector) RecordBackup(bool, error)               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteBytes      atomic.Int64
	WriteTotalNanos atomic.Int64
	ReadCount       atomic.Int64
	ReadMisses      atomic.Int64
	ReadErrors      atomic.Int64
	ReadTotalNanos  atomic.Int64
	DeleteCount     atomic.Int64
	DeleteErrors    atomic.Int64
	ListCount       atomic.Int64
	ListErrors      atomic.Int64
	StatCount       atomic.Int64
	StatErrors      atomic.Int64
	BackupsCreated  atomic.Int64
	BackupsSkipped  atomic.Int64
	BackupErrors    atomic.Int64
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(size int64, duration time.Duration, ok bool) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if !ok {
		b.WriteErrors.Add(1)
		return
	}
	b.WriteBytes.Add(size)
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(found bool, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	switch {
	case err != nil:
		b.ReadErrors.Add(1)
	case !found:
		b.ReadMisses.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, ok bool) {
	b.DeleteCount.Add(1)
	if !ok {
		b.DeleteErrors.Add(1)
	}
}

// RecordList implements MetricsCollector.
func (b *BasicMetricsCollector) RecordList(count int, duration time.Duration, err error) {
	b.ListCount.Add(1)
	if err != nil {
		b.ListErrors.Add(1)
	}
}

// RecordStat implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStat(duration time.Duration, err error) {
	b.StatCount.Add(1)
	if err != nil {
		b.StatErrors.Add(1)
	}
}

// RecordBackup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBackup(created bool, err error) {
	switch {
	case err != nil:
		b.BackupErrors.Add(1)
	case created:
		b.BackupsCreated.Add(1)
	default:
		b.BackupsSkipped.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		WriteCount:     b.WriteCount.Load(),
		WriteErrors:    b.WriteErrors.Load(),
		WriteBytes:     b.WriteBytes.Load(),
		WriteAvgNanos:  avg(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
		ReadCount:      b.ReadCount.Load(),
		ReadMisses:     b.ReadMisses.Load(),
		ReadErrors:     b.ReadErrors.Load(),
		ReadAvgNanos:   avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteErrors:   b.DeleteErrors.Load(),
		ListCount:      b.ListCount.Load(),
		ListErrors:     b.ListErrors.Load(),
		StatCount:      b.StatCount.Load(),
		StatErrors:     b.StatErrors.Load(),
		BackupsCreated: b.BackupsCreated.Load(),
		BackupsSkipped: b.BackupsSkipped.Load(),
		BackupErrors:   b.BackupErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	WriteCount     int64
	WriteErrors    int64
	WriteBytes     int64
	WriteAvgNanos  int64
	ReadCount      int64
	ReadMisses     int64
	ReadErrors     int64
	ReadAvgNanos   int64
	DeleteCount    int64
	DeleteErrors   int64
	ListCount      int64
	ListErrors     int64
	StatCount      int64
	StatErrors     int64
	BackupsCreated int64
	BackupsSkipped int64
	BackupErrors   int64
}
