package worker

import (
	"context"
	"sync"
)

// Task represents a unit of work to be executed
type Task interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a task execution
type Result interface {
	GetError() error
}

// Pool manages a fixed set of workers that execute tasks concurrently.
// It is single-use: Submit tasks, then Wait exactly once.
type Pool struct {
	workers    int
	taskQueue  chan Task
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a new worker pool sized for queue pending tasks. Both
// buffers hold queue entries, so a caller may Submit that many tasks
// before Wait without blocking behind undrained results. Pass the task
// count you intend to submit. The pool context is derived from parent
// so a caller deadline cancels queued and in-flight tasks.
func NewPool(parent context.Context, workers, queue int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue < workers*2 {
		queue = workers * 2
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		taskQueue:  make(chan Task, queue),
		results:    make(chan Result, queue),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			result := task.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a task for execution. Dropped silently after cancellation.
func (p *Pool) Submit(task Task) {
	select {
	case <-p.ctx.Done():
		return
	case p.taskQueue <- task:
	}
}

// Wait closes the queue, waits for the workers to drain it, and returns
// every result that completed. On cancellation the slice holds only the
// results produced before the deadline; callers must account for the
// missing ones themselves.
func (p *Pool) Wait() []Result {
	close(p.taskQueue)

	go func() {
		p.wg.Wait()
		p.closeResults()
	}()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}

	p.cancelFunc()
	return results
}

// Shutdown cancels outstanding work immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
