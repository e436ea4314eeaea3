package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const DefaultWorkers = 10

// Job is one unit of work; i is its index in the submitted batch.
type Job func(ctx context.Context, i int) error

// Pool runs batches of jobs with at most count of them in flight.
type Pool struct {
	logger *zap.Logger
	count  int
}

func NewPool(logger *zap.Logger, count int) *Pool {
	if count <= 0 {
		count = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		logger: logger,
		count:  count,
	}
}

func (p *Pool) Size() int { return p.count }

// Run executes job for every index in [0, n) and blocks until all of them
// have returned. A failing job never stops the others. done, if set, is
// called once per job as it completes; calls are serialized. The returned
// slice holds each job's error at its index.
func (p *Pool) Run(ctx context.Context, n int, job Job, done func(i int, err error)) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	workers := min(p.count, n)
	p.logger.Debug("Starting worker pool", zap.Int("workers", workers), zap.Int("jobs", n))

	queue := make(chan int)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range queue {
				err := job(ctx, i)
				if err != nil {
					p.logger.Debug("job failed", zap.Int("worker", id), zap.Int("job", i), zap.Error(err))
				}

				mu.Lock()
				errs[i] = err
				if done != nil {
					done(i, err)
				}
				mu.Unlock()
			}
		}(w)
	}

	// Очередь закрывается после того, как все задания розданы
	for i := 0; i < n; i++ {
		queue <- i
	}
	close(queue)
	wg.Wait()

	return errs
}
