package terrastore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector with Prometheus
// counters and histograms.
type PrometheusCollector struct {
	ops          *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	bytesWritten prometheus.Counter
	listed       prometheus.Histogram
	backups      *prometheus.CounterVec
}

// NewPrometheusCollector creates the store metrics and registers them with
// reg. constLabels (e.g. the backend kind) are attached to every series.
func NewPrometheusCollector(reg prometheus.Registerer, constLabels prometheus.Labels) (*PrometheusCollector, error) {
	p := &PrometheusCollector{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "terrastore_operations_total",
			Help:        "Total number of store operations",
			ConstLabels: constLabels,
		}, []string{"op", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "terrastore_operation_duration_seconds",
			Help:        "Latency of store operations",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"op"}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "terrastore_written_bytes_total",
			Help:        "Total serialized bytes successfully written",
			ConstLabels: constLabels,
		}),
		listed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "terrastore_list_entries",
			Help:        "Number of entries returned per list call",
			ConstLabels: constLabels,
			Buckets:     []float64{0, 1, 10, 50, 100, 500, 1000},
		}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "terrastore_backups_total",
			Help:        "Backup attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{p.ops, p.latency, p.bytesWritten, p.listed, p.backups} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// RecordWrite implements MetricsCollector.
func (p *PrometheusCollector) RecordWrite(size int64, duration time.Duration, ok bool) {
	p.observe("write", duration, statusOf(ok))
	if ok {
		p.bytesWritten.Add(float64(size))
	}
}

// RecordRead implements MetricsCollector.
func (p *PrometheusCollector) RecordRead(found bool, duration time.Duration, err error) {
	status := "success"
	switch {
	case err != nil:
		status = "error"
	case !found:
		status = "miss"
	}
	p.observe("read", duration, status)
}

// RecordDelete implements MetricsCollector.
func (p *PrometheusCollector) RecordDelete(duration time.Duration, ok bool) {
	p.observe("delete", duration, statusOf(ok))
}

// RecordList implements MetricsCollector.
func (p *PrometheusCollector) RecordList(count int, duration time.Duration, err error) {
	p.observe("list", duration, statusOf(err == nil))
	if err == nil {
		p.listed.Observe(float64(count))
	}
}

// RecordStat implements MetricsCollector.
func (p *PrometheusCollector) RecordStat(duration time.Duration, err error) {
	p.observe("stat", duration, statusOf(err == nil))
}

// RecordBackup implements MetricsCollector.
func (p *PrometheusCollector) RecordBackup(created bool, err error) {
	outcome := "created"
	switch {
	case err != nil:
		outcome = "error"
	case !created:
		outcome = "skipped"
	}
	p.backups.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) observe(op string, d time.Duration, status string) {
	p.ops.WithLabelValues(op, status).Inc()
	p.latency.WithLabelValues(op).Observe(d.Seconds())
}

func statusOf(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

var _ MetricsCollector = (*PrometheusCollector)(nil)
