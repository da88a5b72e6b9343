package syncer

import (
	"context"
	"sync"
	"time"
)

// ExecutorOptions tunes one Run call.
type ExecutorOptions struct {
	// Concurrency is the ceiling on simultaneously in-flight tasks. Values
	// below 1 run tasks one at a time.
	Concurrency int
	// FailFast cancels the run's context after the first task error. Queued
	// tasks that have not started yet see the cancelled context and return
	// immediately.
	FailFast bool
	// OnProgress, if set, is called after each task completes with the number
	// done, the total, and elapsed time. Purely observational.
	OnProgress func(done, total int, elapsed time.Duration)
}

// Run executes n independent tasks with a fixed bound on concurrency.
// Admission is FIFO: task i never starts after task i+1. Each task's error
// lands at index i of the result; one task failing does not abort its
// siblings unless FailFast is set.
func Run(ctx context.Context, n int, opts ExecutorOptions, task func(ctx context.Context, i int) error) []error {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.FailFast {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	errs := make([]error, n)
	slots := make(chan struct{}, opts.Concurrency)
	started := time.Now()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	for i := 0; i < n; i++ {
		// Acquiring before launch keeps admission in submission order.
		select {
		case slots <- struct{}{}:
		case <-runCtx.Done():
			errs[i] = runCtx.Err()
			continue
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-slots }()

			if err := runCtx.Err(); err != nil {
				errs[i] = err
			} else {
				errs[i] = task(runCtx, i)
				if errs[i] != nil && opts.FailFast {
					cancel()
				}
			}

			mu.Lock()
			done++
			completed := done
			mu.Unlock()

			if opts.OnProgress != nil {
				opts.OnProgress(completed, n, time.Since(started))
			}
		}(i)
	}

	wg.Wait()
	return errs
}
