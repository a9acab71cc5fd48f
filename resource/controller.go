// Package resource bounds the memory, concurrency and IO that model
// evaluation may consume.
package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a model cannot be made resident
// without exceeding the memory limit.
var ErrMemoryLimitExceeded = errors.New("model memory limit exceeded")

// Config holds resource limits. The zero value means unlimited memory and
// fetch throughput with a single evaluation worker.
type Config struct {
	// ModelMemoryBytes is the hard limit for resident model state.
	// If 0, no hard limit is enforced (only tracking).
	ModelMemoryBytes int64

	// MaxWorkers is the maximum number of concurrent evaluations.
	// If 0, defaults to 1.
	MaxWorkers int64

	// FetchBytesPerSec is the maximum artifact download throughput.
	// If 0, unlimited.
	FetchBytesPerSec int64
}

// Controller manages shared evaluation resources. A nil *Controller is valid
// and enforces nothing.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	workerSem *semaphore.Weighted

	fetchLimiter *rate.Limiter
}

// NewController creates a controller enforcing cfg.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:       cfg,
		workerSem: semaphore.NewWeighted(cfg.MaxWorkers),
	}
	if cfg.ModelMemoryBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.ModelMemoryBytes)
	}
	if cfg.FetchBytesPerSec > 0 {
		c.fetchLimiter = rate.NewLimiter(rate.Limit(cfg.FetchBytesPerSec), int(cfg.FetchBytesPerSec))
	}
	return c
}

// AcquireModelMemory reserves memory for a model instance.
// Returns ErrMemoryLimitExceeded if the limit would be exceeded.
// Non-blocking; callers control retry policy.
func (c *Controller) AcquireModelMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}
	c.memUsed.Add(bytes)
	return nil
}

// ReleaseModelMemory releases reserved model memory.
func (c *Controller) ReleaseModelMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// ModelMemoryUsage returns the currently reserved model memory in bytes.
func (c *Controller) ModelMemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireWorker reserves an evaluation worker slot, blocking while all
// slots are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workerSem.Acquire(ctx, 1)
}

// ReleaseWorker releases an evaluation worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workerSem.Release(1)
}

// WaitFetch blocks until n bytes of artifact download budget are available.
func (c *Controller) WaitFetch(ctx context.Context, n int64) error {
	if c == nil || c.fetchLimiter == nil || n <= 0 {
		return nil
	}
	limit := int64(c.fetchLimiter.Burst())
	for n > 0 {
		chunk := n
		if chunk > limit {
			chunk = limit
		}
		if err := c.fetchLimiter.WaitN(ctx, int(chunk)); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
