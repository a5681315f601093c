package pipeline

import (
	"context"
	"sync"
)

// Pool runs independent jobs with a bounded number of goroutines
type Pool struct {
	maxWorkers int
	semaphore  chan struct{}
}

// NewPool creates a new worker pool. Fewer than one worker means one.
func NewPool(maxWorkers int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Execute calls job(i) for i in [0, n). With a single worker jobs run in
// order on the calling goroutine. Dispatch stops once ctx is cancelled;
// jobs already started run to completion. It returns ctx.Err() if any
// job was not dispatched.
func (p *Pool) Execute(ctx context.Context, n int, job func(i int)) error {
	if p.maxWorkers == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			job(i)
		}
		return nil
	}

	var wg sync.WaitGroup
	var dispatchErr error

dispatch:
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			dispatchErr = err
			break
		}

		// Acquire semaphore slot
		select {
		case <-ctx.Done():
			dispatchErr = ctx.Err()
			break dispatch
		case p.semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer func() { <-p.semaphore }()
			job(index)
		}(i)
	}

	// Wait for all workers to complete
	wg.Wait()
	return dispatchErr
}
