package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds request limits.
type Config struct {
	// RequestsPerSecond is the sustained request rate.
	// If 0, unlimited.
	RequestsPerSecond float64

	// Burst is the number of requests allowed above the sustained rate.
	// Defaults to 1 when a rate is set.
	Burst int

	// MaxConcurrent is the maximum number of in-flight requests.
	// If 0, unlimited.
	MaxConcurrent int64

	// BytesPerSecond is the maximum payload throughput.
	// If 0, unlimited.
	BytesPerSecond int64
}

// Controller enforces request limits.
type Controller struct {
	reqLimiter *rate.Limiter       // nil if unlimited
	sem        *semaphore.Weighted // nil if unlimited
	ioLimiter  *rate.Limiter       // nil if unlimited

	inFlight atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.reqLimiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if cfg.MaxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}

	if cfg.BytesPerSecond > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.BytesPerSecond), int(cfg.BytesPerSecond))
	}

	return c
}

// Acquire waits for a request token and an in-flight slot.
// The returned release func must be called once the request completes.
func (c *Controller) Acquire(ctx context.Context) (release func(), err error) {
	if c == nil {
		return func() {}, nil
	}

	if c.reqLimiter != nil {
		if err := c.reqLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}

	c.inFlight.Add(1)
	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		c.inFlight.Add(-1)
		if c.sem != nil {
			c.sem.Release(1)
		}
	}, nil
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Payloads larger than one second of budget are admitted in chunks.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil || bytes <= 0 {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// InFlight returns the number of requests currently holding a slot.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}
