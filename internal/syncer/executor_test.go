package syncer

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNeverExceedsConcurrencyBound(t *testing.T) {
	var inFlight, peak int64

	errs := Run(context.Background(), 20, ExecutorOptions{Concurrency: 5}, func(ctx context.Context, i int) error {
		current := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if current <= old || atomic.CompareAndSwapInt64(&peak, old, current) {
				break
			}
		}
		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return nil
	})

	require.Len(t, errs, 20)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, peak, int64(5))
}

func TestRunIsolatesTaskErrors(t *testing.T) {
	boom := errors.New("boom")

	errs := Run(context.Background(), 10, ExecutorOptions{Concurrency: 3}, func(ctx context.Context, i int) error {
		if i == 4 {
			return boom
		}
		return nil
	})

	for i, err := range errs {
		if i == 4 {
			assert.ErrorIs(t, err, boom)
		} else {
			assert.NoError(t, err)
		}
	}
}

func TestRunFailFastCancelsRemainingTasks(t *testing.T) {
	var started int64

	errs := Run(context.Background(), 50, ExecutorOptions{Concurrency: 1, FailFast: true}, func(ctx context.Context, i int) error {
		atomic.AddInt64(&started, 1)
		if i == 0 {
			return errors.New("boom")
		}
		return nil
	})

	assert.Error(t, errs[0])
	// With one slot and fail-fast, later tasks see the cancelled context.
	assert.Less(t, started, int64(50))
}

func TestRunReportsProgress(t *testing.T) {
	var calls int64
	var maxDone int64

	Run(context.Background(), 8, ExecutorOptions{
		Concurrency: 2,
		OnProgress: func(done, total int, elapsed time.Duration) {
			atomic.AddInt64(&calls, 1)
			for {
				old := atomic.LoadInt64(&maxDone)
				if int64(done) <= old || atomic.CompareAndSwapInt64(&maxDone, old, int64(done)) {
					break
				}
			}
			assert.Equal(t, 8, total)
		},
	}, func(ctx context.Context, i int) error {
		return nil
	})

	assert.Equal(t, int64(8), calls)
	assert.Equal(t, int64(8), maxDone)
}

func TestRunZeroTasks(t *testing.T) {
	errs := Run(context.Background(), 0, ExecutorOptions{Concurrency: 4}, func(ctx context.Context, i int) error {
		t.Fatal("no task should run")
		return nil
	})
	assert.Empty(t, errs)
}
