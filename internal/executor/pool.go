package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of blocking I/O work submitted to the executor, carrying
// its own context so per-replica deadlines (§5) are honored by Fn itself.
type Task[T any] struct {
	ID      string
	Context context.Context
	Fn      func(context.Context) (T, error)
}

// Pool is a bounded pool of goroutines executing blocking-I/O tasks. Submit
// always either enqueues the task or blocks until the caller's context is
// done — it never silently drops work, satisfying the blocking-I/O
// executor collaborator contract from §6.
type Pool[T any] struct {
	name       string
	maxWorkers int
	queueSize  int
	taskQueue  chan taskEnvelope[T]
	log        *zap.Logger
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopChan   chan struct{}

	activeWorkers  int32
	totalTasks     uint64
	completedTasks uint64
	failedTasks    uint64
}

type taskEnvelope[T any] struct {
	task   Task[T]
	future *Future[T]
}

// Config configures a Pool, following the teacher worker pool's Config
// surface.
type Config struct {
	Name       string
	MaxWorkers int
	QueueSize  int
	Logger     *zap.Logger
}

// NewPool starts a pool of cfg.MaxWorkers goroutines draining a queue of
// size cfg.QueueSize.
func NewPool[T any](cfg Config) *Pool[T] {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	p := &Pool[T]{
		name:       cfg.Name,
		maxWorkers: cfg.MaxWorkers,
		queueSize:  cfg.QueueSize,
		taskQueue:  make(chan taskEnvelope[T], cfg.QueueSize),
		log:        cfg.Logger,
		stopChan:   make(chan struct{}),
	}

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.log.Info("executor pool started",
		zap.String("name", p.name),
		zap.Int("max_workers", p.maxWorkers),
		zap.Int("queue_size", p.queueSize))

	return p
}

func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case env := <-p.taskQueue:
			p.execute(id, env)
		}
	}
}

func (p *Pool[T]) execute(workerID int, env taskEnvelope[T]) {
	atomic.AddInt32(&p.activeWorkers, 1)
	defer atomic.AddInt32(&p.activeWorkers, -1)

	start := time.Now()
	value, err := p.safeExecute(env.task)
	duration := time.Since(start)

	if err != nil {
		atomic.AddUint64(&p.failedTasks, 1)
		p.log.Debug("task failed",
			zap.String("pool", p.name), zap.Int("worker_id", workerID),
			zap.String("task_id", env.task.ID), zap.Duration("duration", duration), zap.Error(err))
	} else {
		atomic.AddUint64(&p.completedTasks, 1)
		p.log.Debug("task completed",
			zap.String("pool", p.name), zap.Int("worker_id", workerID),
			zap.String("task_id", env.task.ID), zap.Duration("duration", duration))
	}
	env.future.resolve(value, err)
}

func (p *Pool[T]) safeExecute(task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.ID, r)
		}
	}()
	ctx := task.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return task.Fn(ctx)
}

// Submit enqueues task and returns a Future for its result. It blocks until
// the task is accepted onto the queue, the pool is stopped, or task.Context
// (if set) is done — whichever comes first. It never silently drops a task
// that was accepted.
func (p *Pool[T]) Submit(task Task[T]) (*Future[T], error) {
	future := newFuture[T]()
	env := taskEnvelope[T]{task: task, future: future}

	ctxDone := ctxDoneChan(task.Context)

	select {
	case <-p.stopChan:
		return nil, fmt.Errorf("executor pool %q is stopped", p.name)
	default:
	}

	select {
	case <-p.stopChan:
		return nil, fmt.Errorf("executor pool %q is stopped", p.name)
	case <-ctxDone:
		return nil, task.Context.Err()
	case p.taskQueue <- env:
		atomic.AddUint64(&p.totalTasks, 1)
		return future, nil
	}
}

func ctxDoneChan(ctx context.Context) <-chan struct{} {
	if ctx == nil {
		return nil
	}
	return ctx.Done()
}

// Stop gracefully stops the pool, waiting up to timeout for in-flight tasks
// to complete. Tasks still queued when the workers exit are not run; their
// futures resolve with an error.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	var err error
	p.stopOnce.Do(func() {
		close(p.stopChan)
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			err = fmt.Errorf("executor pool %q stop timeout after %v", p.name, timeout)
		}
		for {
			select {
			case env := <-p.taskQueue:
				var zero T
				env.future.resolve(zero, fmt.Errorf("executor pool %q stopped before task %s ran", p.name, env.task.ID))
			default:
				return
			}
		}
	})
	return err
}

// Stats reports the pool's current counters.
type Stats struct {
	Name           string
	MaxWorkers     int
	ActiveWorkers  int
	QueueSize      int
	QueuedTasks    int
	TotalTasks     uint64
	CompletedTasks uint64
	FailedTasks    uint64
}

func (p *Pool[T]) Stats() Stats {
	return Stats{
		Name:           p.name,
		MaxWorkers:     p.maxWorkers,
		ActiveWorkers:  int(atomic.LoadInt32(&p.activeWorkers)),
		QueueSize:      p.queueSize,
		QueuedTasks:    len(p.taskQueue),
		TotalTasks:     atomic.LoadUint64(&p.totalTasks),
		CompletedTasks: atomic.LoadUint64(&p.completedTasks),
		FailedTasks:    atomic.LoadUint64(&p.failedTasks),
	}
}

func (s Stats) WorkerUtilization() float64 {
	if s.MaxWorkers == 0 {
		return 0
	}
	return (float64(s.ActiveWorkers) / float64(s.MaxWorkers)) * 100.0
}

func (s Stats) SuccessRate() float64 {
	if s.TotalTasks == 0 {
		return 100.0
	}
	return (float64(s.CompletedTasks) / float64(s.TotalTasks)) * 100.0
}
