package remote

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hupe1980/terrastore/codec"
	"github.com/hupe1980/terrastore/internal/resource"
)

type options struct {
	folder  string
	codec   codec.Codec
	now     func() time.Time
	limiter *resource.Controller
	breaker *gobreaker.Settings
}

// Option configures a remote Store.
type Option func(*options)

// WithFolder sets the logical folder under which all keys are stored.
// It is stripped from keys returned by List.
func WithFolder(folder string) Option {
	return func(o *options) {
		o.folder = folder
	}
}

// WithCodec sets the codec used to serialize documents.
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

// WithClock overrides the time source used for write timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLimits throttles provider requests.
func WithLimits(cfg resource.Config) Option {
	return func(o *options) {
		o.limiter = resource.NewController(cfg)
	}
}

// WithBreaker replaces the circuit breaker settings. A nil value disables
// the breaker.
func WithBreaker(st *gobreaker.Settings) Option {
	return func(o *options) {
		o.breaker = st
	}
}

// DefaultBreakerSettings opens the breaker after five consecutive provider
// failures and probes again after thirty seconds.
func DefaultBreakerSettings(name string) *gobreaker.Settings {
	return &gobreaker.Settings{
		Name:        "terrastore-" + name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}
