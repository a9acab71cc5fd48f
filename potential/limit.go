package potential

import (
	"context"
	"fmt"
	"os"

	"github.com/quenbyak/epsel/resource"
)

// LimitBackend wraps a Backend, reserving model memory through a resource
// controller before each load. The artifact's file size approximates the
// model's resident footprint. Loaded models stay resident for the life of
// the process, so a successful load's reservation is never released.
type LimitBackend struct {
	inner Backend
	ctrl  *resource.Controller
}

// NewLimitBackend creates a memory-bounded Backend.
func NewLimitBackend(inner Backend, ctrl *resource.Controller) *LimitBackend {
	return &LimitBackend{inner: inner, ctrl: ctrl}
}

// Load implements Backend.
func (b *LimitBackend) Load(ctx context.Context, path string) (Potential, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("potential: stat artifact %s: %w", path, err)
	}
	size := fi.Size()

	if err := b.ctrl.AcquireModelMemory(size); err != nil {
		return nil, fmt.Errorf("potential: load %s (%d bytes): %w", path, size, err)
	}

	p, err := b.inner.Load(ctx, path)
	if err != nil {
		b.ctrl.ReleaseModelMemory(size)
		return nil, err
	}
	return p, nil
}
