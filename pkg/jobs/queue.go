package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work.
type Task struct {
	ID      string
	Kind    string
	Payload interface{}
}

// Handler executes a task. A non-nil error triggers a retry.
type Handler func(context.Context, Task) error

// Options tunes the worker pool.
type Options struct {
	Workers     int
	Buffer      int
	MaxAttempts int
	Backoff     time.Duration
	Logger      *zap.Logger
}

// Runner dispatches tasks to a fixed pool of goroutines. Failed tasks are
// retried in place with a flat backoff before being dropped.
type Runner struct {
	name    string
	handler Handler
	opts    Options

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewRunner builds a runner for the given handler.
func NewRunner(name string, handler Handler, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = opts.Workers * 4
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{
		name:    name,
		handler: handler,
		opts:    opts,
		tasks:   make(chan Task, opts.Buffer),
	}
}

// Start launches the workers. Safe to call once.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	for i := 0; i < r.opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	r.started = true
	r.opts.Logger.Sugar().Infow("runner started", "runner", r.name, "workers", r.opts.Workers)
}

// Stop cancels workers and waits for them to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	r.opts.Logger.Sugar().Infow("runner stopped", "runner", r.name)
}

// Submit queues a task for execution.
func (r *Runner) Submit(task Task) error {
	r.mu.Lock()
	ctx := r.ctx
	started := r.started
	r.mu.Unlock()

	if !started {
		return fmt.Errorf("runner %s not started", r.name)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("runner %s stopped: %w", r.name, ctx.Err())
	case r.tasks <- task:
		return nil
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case task := <-r.tasks:
			r.run(task)
		}
	}
}

func (r *Runner) run(task Task) {
	log := r.opts.Logger.Sugar()
	for attempt := 1; ; attempt++ {
		err := r.handler(r.ctx, task)
		if err == nil {
			return
		}
		if attempt >= r.opts.MaxAttempts {
			log.Errorw("task dropped after retries", "runner", r.name, "task_id", task.ID, "kind", task.Kind, "error", err)
			return
		}
		log.Warnw("task failed, retrying", "runner", r.name, "task_id", task.ID, "kind", task.Kind, "attempt", attempt, "error", err)

		timer := time.NewTimer(r.opts.Backoff)
		select {
		case <-r.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
