package sandbox

import (
	"context"
	"sync"
	"time"
)

// PoolStats reports pool occupancy
type PoolStats struct {
	Size      int  `json:"size"`
	Available int  `json:"available"`
	InUse     int  `json:"in_use"`
	Closed    bool `json:"closed"`
}

// Pool manages a pool of reusable runtimes
type Pool struct {
	config   Config
	runtimes chan *Runtime
	size     int
	mu       sync.RWMutex
	closed   bool
}

// NewPool creates a runtime pool
func NewPool(config Config, size int) (*Pool, error) {
	if size <= 0 {
		size = 4
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = 5 * time.Second
	}

	pool := &Pool{
		config:   config,
		runtimes: make(chan *Runtime, size),
		size:     size,
	}

	// Pre-create runtimes
	for i := 0; i < size; i++ {
		rt, err := New(config)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.runtimes <- rt
	}

	return pool, nil
}

// Acquire gets a runtime from the pool. A ctx with a deadline bounds the
// wait on its own; otherwise AcquireTimeout applies.
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	var expired <-chan time.Time
	if _, ok := ctx.Deadline(); !ok {
		timer := time.NewTimer(p.config.AcquireTimeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case rt := <-p.runtimes:
		return rt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-expired:
		return nil, ErrTimeout
	}
}

// Release returns a runtime to the pool
func (p *Pool) Release(rt *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return rt.Close()
	}

	select {
	case p.runtimes <- rt:
		return nil
	default:
		// Pool full
		return rt.Close()
	}
}

// Execute runs program on a pooled runtime
func (p *Pool) Execute(ctx context.Context, program Program) (*Result, error) {
	rt, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(rt)

	return rt.Execute(ctx, program)
}

// Close closes the pool and all idle runtimes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.runtimes)

	for rt := range p.runtimes {
		rt.Close()
	}

	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	available := 0
	if !p.closed {
		available = len(p.runtimes)
	}
	return PoolStats{
		Size:      p.size,
		Available: available,
		InUse:     p.size - available,
		Closed:    p.closed,
	}
}
