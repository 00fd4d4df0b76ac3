package executor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassandra-analytics/bulk-reader/internal/executor"
)

func TestPoolSubmitRunsTaskAndResolvesFuture(t *testing.T) {
	pool := executor.NewPool[int](executor.Config{Name: "t1", MaxWorkers: 2, QueueSize: 4})
	defer pool.Stop(time.Second)

	future, err := pool.Submit(executor.Task[int]{ID: "add", Fn: func(context.Context) (int, error) {
		return 42, nil
	}})
	require.NoError(t, err)

	v, err := future.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPoolPropagatesTaskError(t *testing.T) {
	pool := executor.NewPool[int](executor.Config{Name: "t2", MaxWorkers: 2, QueueSize: 4})
	defer pool.Stop(time.Second)

	boom := errors.New("boom")
	future, err := pool.Submit(executor.Task[int]{ID: "fail", Fn: func(context.Context) (int, error) {
		return 0, boom
	}})
	require.NoError(t, err)

	_, err = future.Get()
	assert.ErrorIs(t, err, boom)
}

func TestPoolRecoversFromPanic(t *testing.T) {
	pool := executor.NewPool[int](executor.Config{Name: "t3", MaxWorkers: 1, QueueSize: 4})
	defer pool.Stop(time.Second)

	future, err := pool.Submit(executor.Task[int]{ID: "panics", Fn: func(context.Context) (int, error) {
		panic("kaboom")
	}})
	require.NoError(t, err)

	_, err = future.Get()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestPoolSubmitHonorsTaskContextCancellation(t *testing.T) {
	// One worker, kept permanently busy, and a full queue of size one, so
	// the queue-send case in Submit can never become ready: the only path
	// left for an already-cancelled context is the ctxDone branch.
	pool := executor.NewPool[int](executor.Config{Name: "t4", MaxWorkers: 1, QueueSize: 1})
	defer pool.Stop(time.Second)

	block := make(chan struct{})
	defer close(block)
	_, err := pool.Submit(executor.Task[int]{ID: "busy", Fn: func(context.Context) (int, error) {
		<-block
		return 0, nil
	}})
	require.NoError(t, err)

	_, err = pool.Submit(executor.Task[int]{ID: "filler", Fn: func(context.Context) (int, error) { return 0, nil }})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pool.Submit(executor.Task[int]{ID: "cancelled", Context: ctx, Fn: func(context.Context) (int, error) {
		return 0, nil
	}})
	assert.Error(t, err, "a task whose context is already done must not be silently queued or dropped")
}

func TestPoolStatsTracksOutcomes(t *testing.T) {
	pool := executor.NewPool[int](executor.Config{Name: "t5", MaxWorkers: 2, QueueSize: 4})
	defer pool.Stop(time.Second)

	future, err := pool.Submit(executor.Task[int]{ID: "ok", Fn: func(context.Context) (int, error) { return 1, nil }})
	require.NoError(t, err)
	_, _ = future.Get()

	stats := pool.Stats()
	assert.Equal(t, uint64(1), stats.TotalTasks)
	assert.Equal(t, uint64(1), stats.CompletedTasks)
}
