package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/config"
	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/tenant"
)

func newTestPool(t *testing.T, core, maxWorkers, queue int) *Pool {
	p := New(config.WorkerConfig{CoreWorkers: core, MaxWorkers: maxWorkers, QueueSize: queue}, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})
	return p
}

func TestPool_PropagatesScopeAndClearsIt(t *testing.T) {
	// One worker so both tasks run on the same goroutine.
	p := newTestPool(t, 1, 1, 10)

	requestCtx := tenant.WithScope(context.Background(), tenant.Scope{TenantID: "clinic-a", BranchID: "b-1", UserID: "dr-1"})
	first := make(chan tenant.Scope, 1)
	second := make(chan tenant.Scope, 1)

	require.NoError(t, p.Submit(requestCtx, "scoped", func(ctx context.Context) error {
		first <- tenant.FromContext(ctx)
		return nil
	}))
	require.NoError(t, p.Submit(context.Background(), "unscoped", func(ctx context.Context) error {
		second <- tenant.FromContext(ctx)
		return nil
	}))

	assert.Equal(t, tenant.Scope{TenantID: "clinic-a", BranchID: "b-1", UserID: "dr-1"}, <-first)
	assert.True(t, (<-second).IsZero())
}

func TestPool_SnapshotTakenAtSubmit(t *testing.T) {
	p := newTestPool(t, 1, 1, 10)

	release := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), "blocker", func(ctx context.Context) error {
		<-release
		return nil
	}))

	requestCtx, cancel := context.WithCancel(tenant.WithScope(context.Background(), tenant.Scope{TenantID: "clinic-b"}))
	seen := make(chan string, 1)
	ctxErr := make(chan error, 1)
	require.NoError(t, p.Submit(requestCtx, "after-request", func(ctx context.Context) error {
		seen <- tenant.TenantID(ctx)
		ctxErr <- ctx.Err()
		return nil
	}))

	// The request ends before the task runs.
	cancel()
	close(release)

	assert.Equal(t, "clinic-b", <-seen)
	assert.NoError(t, <-ctxErr)
}

func TestPool_FailuresDoNotStopWorkers(t *testing.T) {
	p := newTestPool(t, 1, 1, 10)
	done := make(chan struct{})

	require.NoError(t, p.Submit(context.Background(), "fails", func(ctx context.Context) error {
		return errors.New("boom")
	}))
	require.NoError(t, p.Submit(context.Background(), "panics", func(ctx context.Context) error {
		panic("unexpected")
	}))
	require.NoError(t, p.Submit(context.Background(), "succeeds", func(ctx context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive failing tasks")
	}
}

func TestPool_OverflowThenSaturation(t *testing.T) {
	p := newTestPool(t, 1, 2, 1)
	release := make(chan struct{})
	block := func(ctx context.Context) error {
		<-release
		return nil
	}

	require.NoError(t, p.Submit(context.Background(), "core", block))
	require.Eventually(t, func() bool { return p.Running() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Submit(context.Background(), "queued", block))
	require.NoError(t, p.Submit(context.Background(), "overflow", block))

	err := p.Submit(context.Background(), "rejected", block)
	assert.True(t, errors.Is(err, ErrPoolSaturated))

	close(release)
}

func TestPool_ShutdownDrainsQueue(t *testing.T) {
	p := New(config.WorkerConfig{CoreWorkers: 2, MaxWorkers: 2, QueueSize: 20}, nil)
	var completed atomic.Int32

	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(context.Background(), "work", func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			completed.Add(1)
			return nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
	assert.Equal(t, int32(10), completed.Load())

	assert.ErrorIs(t, p.Submit(context.Background(), "late", func(ctx context.Context) error { return nil }), ErrPoolClosed)
}
