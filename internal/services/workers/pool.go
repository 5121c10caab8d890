package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/ternarybob/arbor"
)

// ErrPoolClosed is returned by Submit once the pool has stopped accepting work
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a unit of work executed by the pool
type Task func(ctx context.Context) error

// Pool runs tasks across a fixed set of workers and collects their
// failures. Usage is submit-then-drain: queue every task, then call Wait
// once to close the queue and block until the workers finish.
type Pool struct {
	tasks      chan Task
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	closeOnce  sync.Once
	errs       []error
	errsMu     sync.Mutex
	logger     arbor.ILogger
}

// NewPool creates a pool with the given concurrency. Non-positive worker
// counts fall back to a single worker.
func NewPool(maxWorkers int, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		tasks:      make(chan Task, maxWorkers*2),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.Debug().
		Int("max_workers", p.maxWorkers).
		Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a task. It blocks while the queue is full and fails once
// the pool is shutting down.
func (p *Pool) Submit(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

// Wait closes the queue and blocks until every queued task has run.
// Nothing may be submitted afterwards.
func (p *Pool) Wait() {
	p.closeOnce.Do(func() { close(p.tasks) })
	p.wg.Wait()
}

// Shutdown cancels in-flight work and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.Wait()
}

// Errors returns a copy of the failures collected so far
func (p *Pool) Errors() []error {
	p.errsMu.Lock()
	defer p.errsMu.Unlock()

	out := make([]error, len(p.errs))
	copy(out, p.errs)
	return out
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}

			if err := p.runTask(task, id); err != nil {
				p.errsMu.Lock()
				p.errs = append(p.errs, err)
				p.errsMu.Unlock()

				p.logger.Warn().
					Err(err).
					Int("worker_id", id).
					Msg("Task failed")
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// runTask executes one task, converting a panic into an ordinary error so a
// misbehaving task never takes the worker down
func (p *Pool) runTask(task Task, id int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)

			p.logger.Error().
				Int("worker_id", id).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(buf[:n])).
				Msg("Recovered from panic in worker task")

			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return task(p.ctx)
}
