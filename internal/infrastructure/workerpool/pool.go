// Package workerpool runs background tasks on a bounded set of goroutines.
// Every task runs with a fresh context carrying only the tenant scope that
// was current when it was submitted.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/duyho0705/chronic-disease-management-system-sub000/internal/infrastructure/observability"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/config"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

var (
	// ErrPoolSaturated is returned when the queue is full and no overflow
	// worker can be started.
	ErrPoolSaturated = errors.New("worker pool saturated")
	// ErrPoolClosed is returned by Submit after Shutdown.
	ErrPoolClosed = errors.New("worker pool closed")
)

// Task is a unit of background work.
type Task func(ctx context.Context) error

type job struct {
	name  string
	scope tenant.Scope
	run   Task
}

// Pool is a fixed set of core workers fed by a bounded queue. When the
// queue is full, extra goroutines are started up to the max worker count.
type Pool struct {
	queue   chan job
	core    int
	max     int64
	metrics *observability.Metrics

	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
	running  atomic.Int64
	overflow atomic.Int64
}

// New starts a pool sized by cfg
func New(cfg config.WorkerConfig, metrics *observability.Metrics) *Pool {
	core := cfg.CoreWorkers
	if core <= 0 {
		core = 1
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers < core {
		maxWorkers = core
	}
	queueSize := cfg.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		queue:   make(chan job, queueSize),
		core:    core,
		max:     int64(maxWorkers),
		metrics: metrics,
	}

	for i := 0; i < core; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues task under name. The tenant scope of ctx is copied now and
// installed on the task's own context; nothing else of ctx is kept.
func (p *Pool) Submit(ctx context.Context, name string, task Task) error {
	j := job{name: name, scope: tenant.FromContext(ctx), run: task}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- j:
		return nil
	default:
	}

	// Queue full: grow past the core workers while under max.
	for {
		n := p.overflow.Load()
		if int64(p.core)+n >= p.max {
			observability.RecordAsyncTask(ctx, p.metrics, name, "rejected")
			return fmt.Errorf("%w: %s", ErrPoolSaturated, name)
		}
		if p.overflow.CompareAndSwap(n, n+1) {
			break
		}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.overflow.Add(-1)
		p.execute(j)
	}()
	return nil
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Shutdown stops accepting tasks and waits for queued and running tasks to
// finish or for ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.queue {
		p.execute(j)
	}
}

// execute runs one job on a context built from its scope snapshot. Errors
// and panics are logged and never retried.
func (p *Pool) execute(j job) {
	ctx := tenant.WithScope(context.Background(), j.scope)
	logger := observability.LoggerFromContext(ctx)

	p.running.Add(1)
	defer p.running.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			observability.RecordAsyncTask(ctx, p.metrics, j.name, "panic")
			logger.Error().
				Str("task", j.name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("background task panicked")
		}
	}()

	if err := j.run(ctx); err != nil {
		observability.RecordAsyncTask(ctx, p.metrics, j.name, "failed")
		logger.Error().Err(err).Str("task", j.name).Msg("background task failed")
		return
	}
	observability.RecordAsyncTask(ctx, p.metrics, j.name, "succeeded")
}
