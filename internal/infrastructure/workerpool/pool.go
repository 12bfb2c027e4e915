package workerpool

import (
	"context"
	"sync"
)

// Pool is a fixed-size worker pool for blocking port calls. It is created
// once at process start, never resized, and shared by all in-flight requests.
type Pool struct {
	tasks chan func()

	wg        sync.WaitGroup
	closeOnce sync.Once
}

const DefaultSize = 5

func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	p := &Pool{tasks: make(chan func())}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit hands a task to a free worker. It blocks while all workers are busy
// and returns the context error if the caller gives up first; the task is
// then never run.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for running ones to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
