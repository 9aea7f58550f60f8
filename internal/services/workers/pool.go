package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/ternarybob/arbor"
)

// Job is one unit of work executed by the pool.
type Job func(ctx context.Context) error

// Pool fans submitted jobs out over a fixed set of goroutines and collects
// their errors. Lifecycle: NewPool, Start, Submit jobs, Wait, Errors. A pool
// is single-use; create a new one per batch.
type Pool struct {
	size   int
	jobs   chan Job
	logger arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

// NewPool creates a pool of size workers.
func NewPool(size int, logger arbor.ILogger) *Pool {
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		size:   size,
		jobs:   make(chan Job, size),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Submit queues a job. Blocks while the queue is full.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return errors.New("worker pool closed")
	}
}

// Wait closes the queue and blocks until every submitted job has finished.
func (p *Pool) Wait() {
	close(p.jobs)
	p.wg.Wait()
	p.cancel()
}

// Errors returns the errors collected from failed jobs, in completion order.
func (p *Pool) Errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]error, len(p.errs))
	copy(out, p.errs)
	return out
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		if err := job(p.ctx); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()

			p.logger.Warn().
				Err(err).
				Int("worker", id).
				Msg("Pool job failed")
		}
	}
}
