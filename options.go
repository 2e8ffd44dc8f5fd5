package terrastore

import (
	"log/slog"
	"time"

	"github.com/hupe1980/terrastore/codec"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	cacheSize        int
	now              func() time.Time
	newID            func() string
}

// Option configures New and NewDocuments.
type Option func(*options)

// WithCodec configures the codec used to serialize documents.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &terrastore.BasicMetricsCollector{}
//	store, _ := terrastore.New(ctx, cfg, terrastore.WithMetricsCollector(metrics))
//	// ... use store ...
//	stats := metrics.GetStats()
//	fmt.Printf("Writes: %d, Avg latency: %dns\n", stats.WriteCount, stats.WriteAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := terrastore.NewJSONLogger(slog.LevelInfo)
//	store, _ := terrastore.New(ctx, cfg, terrastore.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCache wraps the backend in an LRU read cache holding up to size
// documents. Zero disables caching.
func WithCache(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithClock overrides the time source used for write and backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator overrides how scenario ids are generated when none is given.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		now:              time.Now,
		newID:            newScenarioID,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = newScenarioID
	}
	return o
}
