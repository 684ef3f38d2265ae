package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_Enqueue(t *testing.T) {
	w := NewWorker(2)
	defer w.Shutdown()

	done := make(chan struct{})
	w.Enqueue(func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never processed")
	}
}

func TestWorker_EnqueueAsync(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	var ran atomic.Bool
	done := make(chan struct{})
	w.EnqueueAsync(func(ctx context.Context) error {
		ran.Store(true)
		close(done)
		return nil
	})

	select {
	case <-done:
		assert.True(t, ran.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("async job was never run")
	}
}

func TestWorker_EnqueueAsync_RecoversPanic(t *testing.T) {
	w := NewWorker(1)

	done := make(chan struct{})
	w.EnqueueAsync(func(ctx context.Context) error {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async job never started")
	}

	// Shutdown still completes; the panic did not kill the worker
	w.Shutdown()
}

func TestWorker_FailedJobsAreCounted(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	done := make(chan struct{})
	w.EnqueueAsync(func(ctx context.Context) error {
		defer close(done)
		return errors.New("job failed")
	})

	<-done
	require.Eventually(t, func() bool {
		return w.GetStats().FailedJobs == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_ScheduleEveryImmediate_RunsAtStartup(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	ran := make(chan struct{}, 1)
	w.ScheduleEveryImmediate(time.Hour, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("immediate scheduled job never ran")
	}
}

func TestWorker_ScheduleEvery_ZeroIntervalDisabled(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	var runs atomic.Int64
	assert.NotPanics(t, func() {
		w.ScheduleEvery(0, func(ctx context.Context) error {
			runs.Add(1)
			return nil
		})
		w.ScheduleEveryImmediate(-time.Minute, func(ctx context.Context) error {
			runs.Add(1)
			return nil
		})
	})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runs.Load())
}

func TestWorker_ShutdownStopsScheduler(t *testing.T) {
	w := NewWorker(1)

	var runs atomic.Int64
	w.ScheduleEvery(10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	time.Sleep(50 * time.Millisecond)
	w.Shutdown()
	after := runs.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}
